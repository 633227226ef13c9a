package browse

import (
	"slices"
	"time"
)

// WithinDates reports whether the node's span overlaps [start, end]. Nil
// bounds are open. A node without metadata is never within dates.
func WithinDates(node *Node[Metadata], start, end *time.Time) bool {
	if node == nil || node.Metadata == nil {
		return false
	}
	if start != nil && node.Metadata.End.Before(*start) {
		return false
	}
	if end != nil && node.Metadata.Start.After(*end) {
		return false
	}
	return true
}

// SortMostRecentFirst returns the nodes ordered by descending start.
// Nodes without metadata sort last. The input is not modified.
func SortMostRecentFirst(nodes []*Node[Metadata]) []*Node[Metadata] {
	out := slices.Clone(nodes)
	slices.SortStableFunc(out, func(a, b *Node[Metadata]) int {
		switch {
		case a.Metadata == nil && b.Metadata == nil:
			return 0
		case a.Metadata == nil:
			return 1
		case b.Metadata == nil:
			return -1
		}
		return b.Metadata.Start.Compare(a.Metadata.Start)
	})
	return out
}
