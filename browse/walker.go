package browse

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/richinex/periscope/internal/clock"
	"github.com/richinex/periscope/metrics"
	"github.com/richinex/periscope/storage"
)

// DefaultCacheTTL is how long a fetched node stays in the browse cache.
const DefaultCacheTTL = 60 * time.Second

// NewCache creates an empty cache of fetched nodes, keyed by content id.
func NewCache[M any](c clock.Clock) *storage.ExpiringCache[string, *Node[M]] {
	return storage.NewExpiringCache[string, *Node[M]](c)
}

// WalkerConfig holds the optional collaborators of a Walker.
type WalkerConfig[M any] struct {
	// Cache is shared across walks. Nil disables caching.
	Cache *storage.ExpiringCache[string, *Node[M]]

	// CacheTTL defaults to DefaultCacheTTL.
	CacheTTL time.Duration

	// Clock defaults to the real clock.
	Clock clock.Clock

	Metrics *metrics.Metrics

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Walker descends the media tree as directed by Steps.
type Walker[M any] struct {
	fetcher Fetcher
	cache   *storage.ExpiringCache[string, *Node[M]]
	ttl     time.Duration
	clock   clock.Clock
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewWalker creates a walker that fetches through fetcher.
func NewWalker[M any](fetcher Fetcher, config WalkerConfig[M]) *Walker[M] {
	w := &Walker[M]{
		fetcher: fetcher,
		cache:   config.Cache,
		ttl:     config.CacheTTL,
		clock:   config.Clock,
		metrics: config.Metrics,
		logger:  config.Logger,
	}
	if w.ttl <= 0 {
		w.ttl = DefaultCacheTTL
	}
	if w.clock == nil {
		w.clock = clock.Real()
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	return w
}

// Walk runs every step concurrently and returns their outputs flattened in
// step order. The first fetch error cancels the remaining work and is
// returned.
func (w *Walker[M]) Walk(ctx context.Context, steps []Step[M]) ([]*Node[M], error) {
	if len(steps) == 0 {
		return nil, nil
	}

	outputs := make([][]*Node[M], len(steps))
	g, ctx := errgroup.WithContext(ctx)
	for i, step := range steps {
		i, step := i, step
		g.Go(func() error {
			out, err := w.walkStep(ctx, step)
			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, out := range outputs {
		total += len(out)
	}
	flat := make([]*Node[M], 0, total)
	for _, out := range outputs {
		flat = append(flat, out...)
	}
	return flat, nil
}

func (w *Walker[M]) walkStep(ctx context.Context, step Step[M]) ([]*Node[M], error) {
	var output []*Node[M]
	chunks := step.chunks()

	for i, chunk := range chunks {
		parents, err := w.fetchChunk(ctx, chunk, step.Metadata)
		if err != nil {
			return nil, err
		}

		for _, parent := range parents {
			for _, child := range parent.Children {
				if step.Matcher == nil || step.Matcher(child) {
					output = append(output, child)
				}
			}
		}

		if step.Sorter != nil {
			output = step.Sorter(output)
		}

		if step.EarlyExit != nil && step.EarlyExit(output) {
			w.logger.Debug("browse step exited early",
				"chunk", i+1,
				"chunks", len(chunks),
				"matched", len(output),
			)
			break
		}
	}

	if step.Advance == nil {
		return output, nil
	}
	next := step.Advance(output)
	if len(next) == 0 {
		return output, nil
	}
	return w.Walk(ctx, next)
}

// fetchChunk fetches every target of one chunk concurrently, preserving
// target order in the result.
func (w *Walker[M]) fetchChunk(ctx context.Context, chunk []Target[M], generate MetadataFunc[M]) ([]*Node[M], error) {
	parents := make([]*Node[M], len(chunk))
	g, ctx := errgroup.WithContext(ctx)
	for i, target := range chunk {
		i, target := i, target
		g.Go(func() error {
			node, err := w.fetch(ctx, target, generate)
			if err != nil {
				return err
			}
			parents[i] = node
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return parents, nil
}

func (w *Walker[M]) fetch(ctx context.Context, target Target[M], generate MetadataFunc[M]) (*Node[M], error) {
	if target.Node != nil && target.Node.Expanded() {
		return target.Node, nil
	}

	id := target.ContentID()
	if w.cache != nil {
		if node, ok := w.cache.Get(id); ok {
			w.metrics.BrowseCacheHit()
			return node, nil
		}
	}

	media, err := w.fetcher.Fetch(ctx, id)
	w.metrics.BrowseFetch(err)
	if err != nil {
		return nil, fmt.Errorf("browse %q: %w", id, err)
	}

	node := NewNode[M](media)
	if generate != nil {
		for _, child := range node.Children {
			child.Metadata = generate(child, target.Node)
		}
	}

	if w.cache != nil {
		w.cache.Set(id, node, w.clock.Now().Add(w.ttl))
	}
	w.logger.Debug("browsed media", "id", id, "children", len(node.Children))
	return node, nil
}
