package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/richinex/periscope/internal/clock"
	"github.com/richinex/periscope/internal/dsa"
)

// Query is anything the request cache can key: a comparable-by-value struct
// that knows which cameras it covers.
type Query interface {
	Cameras() []string
}

// RequestCache caches query results keyed by the query's structural
// identity.
//
// Architecture:
//   - In-memory: ExpiringCache for values, Trie from camera to keys so one
//     camera's results can be invalidated together
//   - SQLite: optional ResultStorage for persistence (CBOR payloads)
type RequestCache[R any] struct {
	mu sync.Mutex // guards cameraIndex and keyCameras

	entries     *ExpiringCache[string, R]
	cameraIndex *dsa.Trie[string]   // cameraID + "\x00" + key -> key
	keyCameras  map[string][]string // key -> cameras, for unindexing

	storage ResultStorage
	clock   clock.Clock
	logger  *slog.Logger
}

// NewRequestCache creates a memory-only cache.
func NewRequestCache[R any](c clock.Clock) *RequestCache[R] {
	return NewPersistentRequestCache[R](c, nil, nil)
}

// NewPersistentRequestCache creates a cache backed by storage. Misses in
// memory fall through to storage, and every Set is written through.
//
// Ownership: the caller keeps ownership of storage and closes it.
func NewPersistentRequestCache[R any](c clock.Clock, storage ResultStorage, logger *slog.Logger) *RequestCache[R] {
	if c == nil {
		c = clock.Real()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &RequestCache[R]{
		entries:     NewExpiringCache[string, R](c),
		cameraIndex: dsa.NewTrie[string](),
		keyCameras:  make(map[string][]string),
		storage:     storage,
		clock:       c,
		logger:      logger,
	}
}

// Get returns the cached value for query if present and unexpired.
func (c *RequestCache[R]) Get(ctx context.Context, query Query) (R, bool) {
	var zero R

	key, err := QueryKey(query)
	if err != nil {
		c.logger.Warn("request cache key failed", "error", err)
		return zero, false
	}

	if v, ok := c.entries.Get(key); ok {
		return v, true
	}
	if c.storage == nil {
		return zero, false
	}

	stored, err := c.storage.LoadResult(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return zero, false
	}
	if err != nil {
		c.logger.Warn("request cache load failed", "key", key, "error", err)
		return zero, false
	}

	expiry := time.Unix(0, stored.Expiry)
	if !c.clock.Now().Before(expiry) {
		return zero, false
	}

	var value R
	if err := decodePayload(stored.Payload, &value); err != nil {
		c.logger.Warn("request cache payload decode failed", "key", key, "error", err)
		return zero, false
	}

	c.entries.Set(key, value, expiry)
	c.index(key, stored.CameraIDs)
	return value, true
}

// Has reports whether query has an unexpired in-memory value.
func (c *RequestCache[R]) Has(query Query) bool {
	key, err := QueryKey(query)
	if err != nil {
		return false
	}
	return c.entries.Has(key)
}

// Set stores value for query until expiry. The in-memory write always
// happens; an error reports a failed write to persistent storage.
func (c *RequestCache[R]) Set(ctx context.Context, query Query, value R, expiry time.Time) error {
	key, err := QueryKey(query)
	if err != nil {
		return err
	}

	cameras := query.Cameras()
	c.entries.Set(key, value, expiry)
	c.index(key, cameras)

	if c.storage == nil {
		return nil
	}

	payload, err := encodePayload(value)
	if err != nil {
		return err
	}
	return c.storage.StoreResult(ctx, PersistedResult{
		Key:       key,
		CameraIDs: cameras,
		Payload:   payload,
		Expiry:    expiry.UnixNano(),
		CreatedAt: c.clock.Now().UnixNano(),
	})
}

// InvalidateCamera drops every cached result that involves cameraID,
// including multi-camera results. Returns how many in-memory entries were
// dropped.
func (c *RequestCache[R]) InvalidateCamera(ctx context.Context, cameraID string) (int, error) {
	c.mu.Lock()
	prefix := cameraPrefix(cameraID)
	var keys []string
	for _, indexKey := range c.cameraIndex.WithPrefix(prefix) {
		if key, ok := c.cameraIndex.Get(indexKey); ok {
			keys = append(keys, key)
		}
	}
	for _, key := range keys {
		c.unindexLocked(key)
		c.entries.Delete(key)
	}
	c.mu.Unlock()

	if c.storage != nil {
		if _, err := c.storage.DeleteCameraResults(ctx, cameraID); err != nil {
			return len(keys), err
		}
	}
	return len(keys), nil
}

// Purge removes expired results from persistent storage. Returns how many
// were removed.
func (c *RequestCache[R]) Purge(ctx context.Context) (int64, error) {
	if c.storage == nil {
		return 0, nil
	}
	return c.storage.DeleteExpired(ctx, c.clock.Now().UnixNano())
}

// Clear drops every in-memory entry. Persistent storage is untouched.
func (c *RequestCache[R]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Clear()
	c.cameraIndex = dsa.NewTrie[string]()
	c.keyCameras = make(map[string][]string)
}

// Len returns the number of in-memory entries.
func (c *RequestCache[R]) Len() int {
	return c.entries.Len()
}

func (c *RequestCache[R]) index(key string, cameras []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.unindexLocked(key)
	for _, cameraID := range cameras {
		c.cameraIndex.Insert(cameraPrefix(cameraID)+key, key)
	}
	c.keyCameras[key] = cameras
}

func (c *RequestCache[R]) unindexLocked(key string) {
	for _, cameraID := range c.keyCameras[key] {
		c.cameraIndex.Delete(cameraPrefix(cameraID) + key)
	}
	delete(c.keyCameras, key)
}

// cameraPrefix terminates the id so "cam" does not match "cam2".
func cameraPrefix(cameraID string) string {
	return cameraID + "\x00"
}
