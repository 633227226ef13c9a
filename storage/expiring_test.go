package storage

import (
	"testing"
	"time"

	"github.com/richinex/periscope/internal/clock"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestExpiringCacheGetBeforeExpiry(t *testing.T) {
	clk := clock.Fake(epoch)
	cache := NewExpiringCache[string, int](clk)

	cache.Set("a", 1, epoch.Add(time.Minute))

	v, ok := cache.Get("a")
	if !ok || v != 1 {
		t.Fatalf("Get(a) = %d, %v; want 1, true", v, ok)
	}
	if !cache.Has("a") {
		t.Error("Has(a) = false; want true")
	}
}

func TestExpiringCacheExpiryEvicts(t *testing.T) {
	clk := clock.Fake(epoch)
	cache := NewExpiringCache[string, int](clk)

	cache.Set("a", 1, epoch.Add(time.Minute))
	clk.Advance(time.Minute)

	if _, ok := cache.Get("a"); ok {
		t.Fatal("Get at expiry returned a value")
	}
	if cache.Len() != 0 {
		t.Errorf("expected expired entry to be evicted, Len = %d", cache.Len())
	}
}

func TestExpiringCacheHasEvicts(t *testing.T) {
	clk := clock.Fake(epoch)
	cache := NewExpiringCache[string, string](clk)

	cache.Set("a", "x", epoch.Add(time.Second))
	if cache.Len() != 1 {
		t.Fatalf("Len = %d; want 1", cache.Len())
	}

	clk.Advance(2 * time.Second)
	if cache.Has("a") {
		t.Error("Has after expiry = true")
	}
	if cache.Len() != 0 {
		t.Errorf("Len = %d; want 0", cache.Len())
	}
}

func TestExpiringCacheSetOverwrites(t *testing.T) {
	clk := clock.Fake(epoch)
	cache := NewExpiringCache[string, int](clk)

	cache.Set("a", 1, epoch.Add(time.Second))
	cache.Set("a", 2, epoch.Add(time.Hour))
	clk.Advance(time.Minute)

	v, ok := cache.Get("a")
	if !ok || v != 2 {
		t.Fatalf("Get(a) = %d, %v; want 2, true", v, ok)
	}
}

func TestExpiringCacheDeleteAndClear(t *testing.T) {
	cache := NewExpiringCache[int, int](clock.Fake(epoch))
	for i := 0; i < 3; i++ {
		cache.Set(i, i, epoch.Add(time.Hour))
	}

	cache.Delete(1)
	if cache.Has(1) {
		t.Error("deleted key still present")
	}
	if cache.Len() != 2 {
		t.Errorf("Len = %d; want 2", cache.Len())
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Len after Clear = %d; want 0", cache.Len())
	}
}

func TestExpiringCacheAlreadyExpiredSet(t *testing.T) {
	cache := NewExpiringCache[string, int](clock.Fake(epoch))
	cache.Set("a", 1, epoch.Add(-time.Second))

	if _, ok := cache.Get("a"); ok {
		t.Error("entry set with a past expiry was returned")
	}
}
