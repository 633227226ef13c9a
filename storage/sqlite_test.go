package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestSqliteStorageStoreAndLoad(t *testing.T) {
	storage, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer storage.Close()

	ctx := context.Background()

	result := PersistedResult{
		Key:       "k1",
		CameraIDs: []string{"office", "kitchen"},
		Payload:   []byte{0xa0},
		Expiry:    2000,
		CreatedAt: 1000,
	}
	if err := storage.StoreResult(ctx, result); err != nil {
		t.Fatalf("StoreResult failed: %v", err)
	}

	loaded, err := storage.LoadResult(ctx, "k1")
	if err != nil {
		t.Fatalf("LoadResult failed: %v", err)
	}
	if loaded.Expiry != 2000 || loaded.CreatedAt != 1000 {
		t.Errorf("unexpected timestamps: %+v", loaded)
	}
	if len(loaded.Payload) != 1 || loaded.Payload[0] != 0xa0 {
		t.Errorf("payload = %x", loaded.Payload)
	}
	if len(loaded.CameraIDs) != 2 || loaded.CameraIDs[0] != "kitchen" || loaded.CameraIDs[1] != "office" {
		t.Errorf("cameras = %v", loaded.CameraIDs)
	}
}

func TestSqliteStorageLoadMissing(t *testing.T) {
	storage, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer storage.Close()

	_, err = storage.LoadResult(context.Background(), "nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSqliteStorageReplaceUpdatesCameras(t *testing.T) {
	storage, err := NewSqliteInMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer storage.Close()

	ctx := context.Background()
	_ = storage.StoreResult(ctx, PersistedResult{Key: "k", CameraIDs: []string{"a", "b"}, Payload: []byte{1}})
	_ = storage.StoreResult(ctx, PersistedResult{Key: "k", CameraIDs: []string{"c"}, Payload: []byte{2}})

	loaded, err := storage.LoadResult(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.CameraIDs) != 1 || loaded.CameraIDs[0] != "c" {
		t.Errorf("cameras = %v; want [c]", loaded.CameraIDs)
	}
	if loaded.Payload[0] != 2 {
		t.Errorf("payload not replaced")
	}
}

func TestSqliteStorageDeleteCameraResults(t *testing.T) {
	storage, err := NewSqliteInMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer storage.Close()

	ctx := context.Background()
	_ = storage.StoreResult(ctx, PersistedResult{Key: "office", CameraIDs: []string{"office"}, Payload: []byte{1}})
	_ = storage.StoreResult(ctx, PersistedResult{Key: "both", CameraIDs: []string{"office", "kitchen"}, Payload: []byte{1}})
	_ = storage.StoreResult(ctx, PersistedResult{Key: "kitchen", CameraIDs: []string{"kitchen"}, Payload: []byte{1}})

	n, err := storage.DeleteCameraResults(ctx, "office")
	if err != nil {
		t.Fatalf("DeleteCameraResults failed: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d; want 2", n)
	}

	if _, err := storage.LoadResult(ctx, "both"); !errors.Is(err, ErrNotFound) {
		t.Errorf("multi-camera result survived: %v", err)
	}
	kitchen, err := storage.LoadResult(ctx, "kitchen")
	if err != nil {
		t.Fatalf("kitchen result lost: %v", err)
	}
	if len(kitchen.CameraIDs) != 1 {
		t.Errorf("kitchen cameras = %v", kitchen.CameraIDs)
	}
}

func TestSqliteStorageDeleteExpired(t *testing.T) {
	storage, err := NewSqliteInMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer storage.Close()

	ctx := context.Background()
	_ = storage.StoreResult(ctx, PersistedResult{Key: "old", Payload: []byte{1}, Expiry: 100})
	_ = storage.StoreResult(ctx, PersistedResult{Key: "edge", Payload: []byte{1}, Expiry: 200})
	_ = storage.StoreResult(ctx, PersistedResult{Key: "new", Payload: []byte{1}, Expiry: 300})

	n, err := storage.DeleteExpired(ctx, 200)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d; want 2", n)
	}
	if _, err := storage.LoadResult(ctx, "new"); err != nil {
		t.Errorf("unexpired result lost: %v", err)
	}
}

func TestSqliteStorageDeleteResult(t *testing.T) {
	storage, err := NewSqliteInMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer storage.Close()

	ctx := context.Background()
	_ = storage.StoreResult(ctx, PersistedResult{Key: "k", CameraIDs: []string{"a"}, Payload: []byte{1}})

	if err := storage.DeleteResult(ctx, "k"); err != nil {
		t.Fatalf("DeleteResult failed: %v", err)
	}
	if _, err := storage.LoadResult(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestOpenSqliteCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.db")

	storage, err := OpenSqlite(path)
	if err != nil {
		t.Fatalf("OpenSqlite failed: %v", err)
	}
	defer storage.Close()

	ctx := context.Background()
	if err := storage.StoreResult(ctx, PersistedResult{Key: "k", Payload: []byte{1}}); err != nil {
		t.Fatalf("StoreResult failed: %v", err)
	}
}
