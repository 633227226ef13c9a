package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/richinex/periscope/metrics"
	"github.com/richinex/periscope/model"
	"github.com/richinex/periscope/storage"
)

// CameraQueryFunc answers one single-camera query. Returning nil results
// and a nil error means the camera cannot answer it.
type CameraQueryFunc[Q storage.Query] func(ctx context.Context, q Q) (*Results, error)

// RunPerCamera answers each query concurrently.
//
// Answers come from the request cache when opts allow, and fresh answers
// are written back to it. A failing query is logged and left out of the
// map; RunPerCamera only fails when every query failed.
func RunPerCamera[Q storage.Query](
	ctx context.Context,
	b *Base,
	resultsType ResultsType,
	queries []Q,
	opts Options,
	fn CameraQueryFunc[Q],
) (ResultsMap[Q], error) {
	var (
		mu   sync.Mutex
		out  = make(ResultsMap[Q], len(queries))
		errs []error
	)

	var g errgroup.Group
	for _, q := range queries {
		q := q
		g.Go(func() error {
			key, results, err := runOne(ctx, b, resultsType, q, opts, fn)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return nil
			}
			if results != nil {
				out[key] = QueryResult[Q]{Query: q, Results: results}
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(queries) > 0 && len(errs) == len(queries) {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func runOne[Q storage.Query](
	ctx context.Context,
	b *Base,
	resultsType ResultsType,
	q Q,
	opts Options,
	fn CameraQueryFunc[Q],
) (string, *Results, error) {
	deps := b.deps
	start := deps.Clock.Now()
	engineName := b.kind.String()

	key, err := storage.QueryKey(q)
	if err != nil {
		return "", nil, err
	}

	cache := deps.RequestCache
	if opts.UseCache && cache != nil {
		if cached, ok := cache.Get(ctx, q); ok {
			deps.Metrics.EngineQuery(engineName, string(resultsType), metrics.OutcomeCached, 0)
			return key, &cached, nil
		}
	}

	results, err := fn(ctx, q)
	elapsed := deps.Clock.Now().Sub(start)
	if err != nil {
		deps.Metrics.EngineQuery(engineName, string(resultsType), metrics.OutcomeError, elapsed)
		deps.Metrics.CameraFailure(engineName)
		deps.Logger.Warn("camera query failed",
			"cameras", q.Cameras(),
			"type", resultsType,
			"error", err,
		)
		return "", nil, fmt.Errorf("cameras %v: %w", q.Cameras(), err)
	}
	if results == nil {
		deps.Metrics.EngineQuery(engineName, string(resultsType), metrics.OutcomeUnsupported, elapsed)
		return key, nil, nil
	}
	deps.Metrics.EngineQuery(engineName, string(resultsType), metrics.OutcomeOK, elapsed)

	results.Engine = b.kind
	results.Type = resultsType
	results.Expiry = deps.Clock.Now().Add(deps.ResultTTL)

	if cache != nil {
		stored := *results
		stored.Cached = true
		if err := cache.Set(ctx, q, stored, stored.Expiry); err != nil {
			deps.Logger.Warn("request cache write failed", "cameras", q.Cameras(), "error", err)
		}
	}
	return key, results, nil
}

// SplitEventQuery splits q into one query per camera.
func SplitEventQuery(q model.EventQuery) []model.EventQuery {
	queries := make([]model.EventQuery, 0, q.CameraIDs.Len())
	for _, id := range q.Cameras() {
		queries = append(queries, q.ForCamera(id))
	}
	return queries
}

// SplitMediaMetadataQuery splits q into one query per camera.
func SplitMediaMetadataQuery(q model.MediaMetadataQuery) []model.MediaMetadataQuery {
	queries := make([]model.MediaMetadataQuery, 0, q.CameraIDs.Len())
	for _, id := range q.Cameras() {
		queries = append(queries, q.ForCamera(id))
	}
	return queries
}
