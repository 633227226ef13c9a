package clock

import (
	"testing"
	"time"
)

func TestFakeClockAdvance(t *testing.T) {
	start := time.Date(2023, 6, 16, 12, 0, 0, 0, time.UTC)
	c := Fake(start)

	if !c.Now().Equal(start) {
		t.Fatalf("expected %v, got %v", start, c.Now())
	}

	c.Advance(90 * time.Second)
	if want := start.Add(90 * time.Second); !c.Now().Equal(want) {
		t.Errorf("expected %v after advance, got %v", want, c.Now())
	}

	c.Set(start)
	if !c.Now().Equal(start) {
		t.Errorf("expected %v after set, got %v", start, c.Now())
	}
}
