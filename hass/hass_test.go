package hass

import (
	"context"
	"testing"
)

func TestStateAttributes(t *testing.T) {
	s := &State{
		EntityID: "camera.office",
		Attributes: map[string]any{
			"friendly_name": "Office",
			"icon":          "mdi:cctv",
			"other":         3,
		},
	}
	if got := s.FriendlyName(); got != "Office" {
		t.Errorf("FriendlyName = %q", got)
	}
	if got := s.Icon(); got != "mdi:cctv" {
		t.Errorf("Icon = %q", got)
	}
	if got := s.stringAttribute("other"); got != "" {
		t.Errorf("non-string attribute = %q; want empty", got)
	}

	var missing *State
	if missing.FriendlyName() != "" {
		t.Error("nil state should have no friendly name")
	}
}

func TestRequesterFunc(t *testing.T) {
	var seen any
	r := RequesterFunc(func(_ context.Context, req any, resp any) error {
		seen = req
		*(resp.(*string)) = "ok"
		return nil
	})

	var out string
	if err := r.Request(context.Background(), "ping", &out); err != nil {
		t.Fatal(err)
	}
	if seen != "ping" || out != "ok" {
		t.Errorf("seen=%v out=%q", seen, out)
	}
}
