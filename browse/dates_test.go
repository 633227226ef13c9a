package browse

import (
	"slices"
	"testing"
	"time"
)

func span(start, end time.Time) *Node[Metadata] {
	return &Node[Metadata]{
		ID:       start.Format(time.RFC3339),
		Metadata: &Metadata{Start: start, End: end},
	}
}

func TestWithinDates(t *testing.T) {
	day := time.Date(2023, 6, 16, 0, 0, 0, 0, time.UTC)
	node := span(day, day.Add(24*time.Hour-time.Nanosecond))
	before := day.Add(-time.Hour)
	after := day.Add(25 * time.Hour)
	noon := day.Add(12 * time.Hour)

	tests := []struct {
		name       string
		node       *Node[Metadata]
		start, end *time.Time
		want       bool
	}{
		{"open window", node, nil, nil, true},
		{"window contains node", node, &before, &after, true},
		{"window inside node", node, &noon, &noon, true},
		{"window after node", node, &after, nil, false},
		{"window before node", node, nil, &before, false},
		{"no metadata", &Node[Metadata]{ID: "x"}, nil, nil, false},
		{"nil node", nil, nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WithinDates(tt.node, tt.start, tt.end); got != tt.want {
				t.Errorf("WithinDates = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestSortMostRecentFirst(t *testing.T) {
	base := time.Date(2023, 6, 16, 0, 0, 0, 0, time.UTC)
	a := span(base, base)
	b := span(base.Add(time.Hour), base.Add(time.Hour))
	c := span(base.Add(2*time.Hour), base.Add(2*time.Hour))
	none := &Node[Metadata]{ID: "none"}

	in := []*Node[Metadata]{a, none, c, b}
	out := SortMostRecentFirst(in)

	if want := []*Node[Metadata]{c, b, a, none}; !slices.Equal(out, want) {
		t.Errorf("order = %v; want %v", ids(out), ids(want))
	}
	if in[0] != a || in[1] != none {
		t.Error("input was modified")
	}
}
