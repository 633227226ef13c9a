package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a persisted result does not exist.
var ErrNotFound = errors.New("result not found")

// ResultStorage persists cached query results across process restarts.
type ResultStorage interface {
	// StoreResult stores (or replaces) a result.
	StoreResult(ctx context.Context, result PersistedResult) error

	// LoadResult loads a result by key. Returns ErrNotFound if absent.
	LoadResult(ctx context.Context, key string) (*PersistedResult, error)

	// DeleteResult removes a specific result.
	DeleteResult(ctx context.Context, key string) error

	// DeleteCameraResults removes every result that involves cameraID.
	DeleteCameraResults(ctx context.Context, cameraID string) (int64, error)

	// DeleteExpired removes results whose expiry is at or before now (unix nanoseconds).
	DeleteExpired(ctx context.Context, now int64) (int64, error)
}

// PersistedResult is a cached query result as stored on disk.
type PersistedResult struct {
	Key       string   // Structural query key
	CameraIDs []string // Cameras the query covered
	Payload   []byte   // CBOR-encoded value
	Expiry    int64    // Unix nanoseconds
	CreatedAt int64    // Unix nanoseconds
}
