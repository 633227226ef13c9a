package storage

import (
	"context"
	"testing"
	"time"

	"github.com/richinex/periscope/internal/clock"
	"github.com/richinex/periscope/model"
)

type cachedValue struct {
	Name   string
	Start  time.Time
	Cached bool
}

func eventQuery(cameras ...string) model.EventQuery {
	return model.EventQuery{CameraIDs: model.NewStringSet(cameras...)}
}

func TestRequestCacheStructuralHit(t *testing.T) {
	ctx := context.Background()
	cache := NewRequestCache[cachedValue](clock.Fake(epoch))

	q := model.EventQuery{
		CameraIDs: model.NewStringSet("a", "b"),
		Limit:     10,
	}
	if err := cache.Set(ctx, q, cachedValue{Name: "x"}, epoch.Add(time.Minute)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	same := model.EventQuery{
		CameraIDs: model.NewStringSet("b", "a"),
		Limit:     10,
	}
	v, ok := cache.Get(ctx, same)
	if !ok || v.Name != "x" {
		t.Fatalf("Get(equal query) = %+v, %v", v, ok)
	}
	if !cache.Has(same) {
		t.Error("Has(equal query) = false")
	}
}

func TestRequestCacheExpiry(t *testing.T) {
	ctx := context.Background()
	clk := clock.Fake(epoch)
	cache := NewRequestCache[cachedValue](clk)

	q := eventQuery("a")
	if err := cache.Set(ctx, q, cachedValue{Name: "x"}, epoch.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	clk.Advance(time.Minute)

	if _, ok := cache.Get(ctx, q); ok {
		t.Error("expired entry returned")
	}
}

func TestRequestCacheInvalidateCamera(t *testing.T) {
	ctx := context.Background()
	cache := NewRequestCache[cachedValue](clock.Fake(epoch))
	expiry := epoch.Add(time.Hour)

	office := eventQuery("office")
	office2 := eventQuery("office2")
	both := eventQuery("office", "kitchen")
	kitchen := eventQuery("kitchen")

	for _, q := range []model.EventQuery{office, office2, both, kitchen} {
		if err := cache.Set(ctx, q, cachedValue{}, expiry); err != nil {
			t.Fatal(err)
		}
	}

	n, err := cache.InvalidateCamera(ctx, "office")
	if err != nil {
		t.Fatalf("InvalidateCamera failed: %v", err)
	}
	if n != 2 {
		t.Errorf("invalidated %d entries; want 2", n)
	}

	if cache.Has(office) || cache.Has(both) {
		t.Error("office results survived invalidation")
	}
	if !cache.Has(office2) {
		t.Error("office2 was invalidated by an office prefix")
	}
	if !cache.Has(kitchen) {
		t.Error("kitchen-only result was invalidated")
	}

	// The multi-camera entry must not linger under kitchen either.
	n, err = cache.InvalidateCamera(ctx, "kitchen")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("invalidated %d kitchen entries; want 1", n)
	}
}

func TestRequestCachePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	db, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer db.Close()

	clk := clock.Fake(epoch)
	q := eventQuery("office")
	want := cachedValue{Name: "clip", Start: epoch.Add(-time.Hour), Cached: true}

	first := NewPersistentRequestCache[cachedValue](clk, db, nil)
	if err := first.Set(ctx, q, want, epoch.Add(time.Minute)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	second := NewPersistentRequestCache[cachedValue](clk, db, nil)
	got, ok := second.Get(ctx, q)
	if !ok {
		t.Fatal("persisted result not found")
	}
	if got.Name != want.Name || !got.Start.Equal(want.Start) || !got.Cached {
		t.Errorf("got %+v; want %+v", got, want)
	}
	if second.Len() != 1 {
		t.Errorf("loaded result not promoted to memory, Len = %d", second.Len())
	}

	// Loaded entries are indexed by camera like any other.
	if n, _ := second.InvalidateCamera(ctx, "office"); n != 1 {
		t.Errorf("invalidated %d; want 1", n)
	}
}

func TestRequestCachePersistedExpiry(t *testing.T) {
	ctx := context.Background()
	db, err := NewSqliteInMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	clk := clock.Fake(epoch)
	q := eventQuery("office")

	first := NewPersistentRequestCache[cachedValue](clk, db, nil)
	if err := first.Set(ctx, q, cachedValue{Name: "x"}, epoch.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}

	clk.Advance(2 * time.Minute)
	second := NewPersistentRequestCache[cachedValue](clk, db, nil)
	if _, ok := second.Get(ctx, q); ok {
		t.Error("expired persisted result returned")
	}

	n, err := second.Purge(ctx)
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if n != 1 {
		t.Errorf("purged %d; want 1", n)
	}
}

func TestRequestCacheClear(t *testing.T) {
	ctx := context.Background()
	cache := NewRequestCache[cachedValue](clock.Fake(epoch))
	if err := cache.Set(ctx, eventQuery("a"), cachedValue{}, epoch.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Len after Clear = %d", cache.Len())
	}
	if n, _ := cache.InvalidateCamera(ctx, "a"); n != 0 {
		t.Errorf("index survived Clear: invalidated %d", n)
	}
}
