package storage

import (
	"testing"
	"time"

	"github.com/richinex/periscope/model"
)

func TestQueryKeyIgnoresSetOrder(t *testing.T) {
	a := model.EventQuery{
		CameraIDs: model.NewStringSet("office", "kitchen", "garage"),
		What:      model.NewStringSet("person", "car"),
	}
	b := model.EventQuery{
		CameraIDs: model.NewStringSet("garage", "office", "kitchen"),
		What:      model.NewStringSet("car", "person"),
	}

	keyA, err := QueryKey(a)
	if err != nil {
		t.Fatalf("QueryKey failed: %v", err)
	}
	keyB, err := QueryKey(b)
	if err != nil {
		t.Fatalf("QueryKey failed: %v", err)
	}
	if keyA != keyB {
		t.Errorf("keys differ for equal queries: %s != %s", keyA, keyB)
	}
}

func TestQueryKeyDistinguishesFields(t *testing.T) {
	base := model.EventQuery{CameraIDs: model.NewStringSet("office")}
	withLimit := base
	withLimit.Limit = 5
	withClip := base
	withClip.HasClip = model.Bool(true)

	keys := make(map[string]string)
	for name, q := range map[string]model.EventQuery{
		"base":  base,
		"limit": withLimit,
		"clip":  withClip,
	} {
		key, err := QueryKey(q)
		if err != nil {
			t.Fatalf("QueryKey(%s) failed: %v", name, err)
		}
		if other, dup := keys[key]; dup {
			t.Errorf("%s and %s share key %s", name, other, key)
		}
		keys[key] = name
	}
}

func TestQueryKeyDistinguishesQueryTypes(t *testing.T) {
	cameras := model.NewStringSet("office")

	events, err := QueryKey(model.EventQuery{CameraIDs: cameras})
	if err != nil {
		t.Fatal(err)
	}
	metadata, err := QueryKey(model.MediaMetadataQuery{CameraIDs: cameras})
	if err != nil {
		t.Fatal(err)
	}
	if events == metadata {
		t.Error("event and metadata queries for the same cameras share a key")
	}
}

func TestQueryKeySameInstantDifferentZone(t *testing.T) {
	utc := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	local := utc.In(time.FixedZone("plus2", 2*60*60))

	a, err := QueryKey(model.EventQuery{Start: model.Time(utc)})
	if err != nil {
		t.Fatal(err)
	}
	b, err := QueryKey(model.EventQuery{Start: model.Time(local)})
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("equal instants in different zones gave different keys")
	}
}

func TestPayloadRoundTripKeepsTime(t *testing.T) {
	type payload struct {
		When time.Time
		Days model.StringSet
	}
	in := payload{
		When: time.Date(2024, 3, 1, 12, 30, 15, 123456789, time.UTC),
		Days: model.NewStringSet("2024-03-01"),
	}

	data, err := encodePayload(in)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	var out payload
	if err := decodePayload(data, &out); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !out.When.Equal(in.When) {
		t.Errorf("time = %v; want %v", out.When, in.When)
	}
	if !out.Days.Has("2024-03-01") {
		t.Errorf("days = %v", out.Days)
	}
}
