// Package federation answers queries across cameras served by different
// engines.
//
// Information Hiding:
//   - Which engine serves which camera is decided once, in Initialize
//   - Queries fan out per engine; engines fan out per camera
//   - A failing engine is dropped from the answer unless every engine failed
package federation

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/richinex/periscope/engine"
	"github.com/richinex/periscope/model"
	"github.com/richinex/periscope/view"
)

// ErrUnknownCamera means a camera id was never initialized.
var ErrUnknownCamera = errors.New("unknown camera")

// Manager owns the cameras and the engines that serve them.
type Manager struct {
	factory *engine.Factory
	deps    engine.Dependencies
	logger  *slog.Logger

	mu      sync.RWMutex
	engines map[engine.Kind]engine.Engine
	cameras map[string]*engine.Camera // O(1) lookup
	order   []string                  // configuration order
}

// NewManager creates a manager. deps are handed to every engine it builds.
func NewManager(factory *engine.Factory, deps engine.Dependencies) *Manager {
	deps = deps.WithDefaults()
	return &Manager{
		factory: factory,
		deps:    deps,
		logger:  deps.Logger.With("component", "federation"),
		engines: make(map[engine.Kind]engine.Engine),
		cameras: make(map[string]*engine.Camera),
	}
}

// Initialize binds every camera to its engine, replacing earlier cameras.
//
// Cameras without enough configuration to pick an engine are skipped with
// a warning. Cameras that fail detection or creation are skipped too, and
// their errors are returned joined; the remaining cameras stay usable.
func (m *Manager) Initialize(ctx context.Context, configs []model.CameraConfig) error {
	cameras := make(map[string]*engine.Camera, len(configs))
	order := make([]string, 0, len(configs))
	var errs []error

	for _, cfg := range configs {
		id := cfg.CameraID()
		if id == "" {
			m.logger.Warn("skipping camera without id, entity or frigate camera name")
			continue
		}
		if _, dup := cameras[id]; dup {
			m.logger.Warn("skipping duplicate camera", "camera", id)
			continue
		}

		camera, err := m.createCamera(ctx, cfg)
		if err != nil {
			errs = append(errs, fmt.Errorf("camera %s: %w", id, err))
			continue
		}
		if camera == nil {
			m.logger.Warn("skipping camera: cannot determine its engine", "camera", id)
			continue
		}
		cameras[id] = camera
		order = append(order, id)
		m.logger.Debug("camera initialized", "camera", id, "engine", camera.Engine.String())
	}

	m.mu.Lock()
	m.cameras = cameras
	m.order = order
	m.mu.Unlock()

	return errors.Join(errs...)
}

func (m *Manager) createCamera(ctx context.Context, cfg model.CameraConfig) (*engine.Camera, error) {
	kind, ok, err := m.factory.GetEngineForCamera(ctx, cfg)
	if err != nil || !ok {
		return nil, err
	}
	eng, err := m.engine(kind)
	if err != nil {
		return nil, err
	}
	return eng.CreateCamera(ctx, cfg)
}

// engine returns the engine of kind, building it on first use.
func (m *Manager) engine(kind engine.Kind) (engine.Engine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if eng, ok := m.engines[kind]; ok {
		return eng, nil
	}
	eng, err := m.factory.CreateEngine(kind, m.deps)
	if err != nil {
		return nil, err
	}
	m.engines[kind] = eng
	return eng, nil
}

// Cameras returns the initialized cameras in configuration order.
func (m *Manager) Cameras() []*engine.Camera {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*engine.Camera, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.cameras[id])
	}
	return out
}

// CameraIDs returns every initialized camera id.
func (m *Manager) CameraIDs() model.StringSet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return model.NewStringSet(m.order...)
}

// Camera returns one initialized camera.
func (m *Manager) Camera(id string) (*engine.Camera, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	camera, ok := m.cameras[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCamera, id)
	}
	return camera, nil
}

// group is the part of a query one engine answers.
type group struct {
	engine  engine.Engine
	cameras engine.CameraSet
	ids     model.StringSet
}

// groups splits ids by engine, in the order engines are first needed.
// Unknown ids are logged and dropped.
func (m *Manager) groups(ids model.StringSet, logger *slog.Logger) []*group {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byKind := make(map[engine.Kind]*group)
	var out []*group
	for _, id := range m.order {
		if !ids.Has(id) {
			continue
		}
		camera := m.cameras[id]
		g, ok := byKind[camera.Engine]
		if !ok {
			g = &group{
				engine:  m.engines[camera.Engine],
				cameras: make(engine.CameraSet),
				ids:     model.NewStringSet(),
			}
			byKind[camera.Engine] = g
			out = append(out, g)
		}
		g.cameras[id] = camera
		g.ids.Add(id)
	}
	for _, id := range ids.Sorted() {
		if _, ok := m.cameras[id]; !ok {
			logger.Warn("query names unknown camera", "camera", id)
		}
	}
	return out
}

// fanOut runs fn once per group concurrently and returns the answers of
// the groups that succeeded. It fails only when every group failed.
func fanOut[R any](ctx context.Context, logger *slog.Logger, groups []*group, fn func(context.Context, *group) (R, error)) ([]R, error) {
	var (
		mu   sync.Mutex
		out  = make([]R, 0, len(groups))
		errs []error
	)

	var g errgroup.Group
	for _, grp := range groups {
		grp := grp
		g.Go(func() error {
			result, err := fn(ctx, grp)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("engine query failed",
					"engine", grp.engine.Kind().String(),
					"cameras", grp.ids.Sorted(),
					"error", err,
				)
				errs = append(errs, fmt.Errorf("%s: %w", grp.engine.Kind(), err))
				return nil
			}
			out = append(out, result)
			return nil
		})
	}
	_ = g.Wait()

	if len(groups) > 0 && len(errs) == len(groups) {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// scope fills in every camera when q names none.
func (m *Manager) scope(ids model.StringSet) model.StringSet {
	if ids.Len() > 0 {
		return ids
	}
	return m.CameraIDs()
}

// GetEvents answers q across engines. Items are sorted by start time,
// oldest first, and the newest is selected.
func (m *Manager) GetEvents(ctx context.Context, q model.EventQuery, opts engine.Options) (*view.QueryResults, error) {
	logger := m.logger.With("request_id", uuid.NewString(), "query", "events")
	q.CameraIDs = m.scope(q.CameraIDs)
	groups := m.groups(q.CameraIDs, logger)

	answers, err := fanOut(ctx, logger, groups, func(ctx context.Context, g *group) ([]view.Item, error) {
		eq := q
		eq.CameraIDs = g.ids
		results, err := g.engine.GetEvents(ctx, g.cameras, eq, opts)
		if err != nil {
			return nil, err
		}
		var items []view.Item
		for _, result := range results {
			camera := g.cameras.For(result.Query)
			if camera == nil {
				continue
			}
			items = append(items, g.engine.GenerateMediaFromEvents(camera, result.Query, result.Results)...)
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}

	var items []view.Item
	for _, answer := range answers {
		items = append(items, answer...)
	}
	sortByStart(items)

	logger.Debug("events query answered", "cameras", q.CameraIDs.Len(), "items", len(items))
	return view.New(items, view.WithTimestamp(m.deps.Clock.Now())), nil
}

type timed interface {
	StartTime() time.Time
}

// sortByStart orders items oldest first. Ties break on camera then id so
// the order does not depend on which engine answered first.
func sortByStart(items []view.Item) {
	slices.SortStableFunc(items, func(a, b view.Item) int {
		if c := compareStart(a, b); c != 0 {
			return c
		}
		if c := cmp.Compare(cameraOf(a), cameraOf(b)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID(), b.ID())
	})
}

func compareStart(a, b view.Item) int {
	ta, _ := a.(timed)
	tb, _ := b.(timed)
	switch {
	case ta == nil && tb == nil:
		return 0
	case ta == nil:
		return -1
	case tb == nil:
		return 1
	}
	return ta.StartTime().Compare(tb.StartTime())
}

func cameraOf(item view.Item) string {
	if c, ok := item.(view.CameraItem); ok {
		return c.CameraID()
	}
	return ""
}

// GetMediaMetadata answers q across engines, merging what every camera
// reported.
func (m *Manager) GetMediaMetadata(ctx context.Context, q model.MediaMetadataQuery, opts engine.Options) (*model.MediaMetadata, error) {
	logger := m.logger.With("request_id", uuid.NewString(), "query", "media-metadata")
	q.CameraIDs = m.scope(q.CameraIDs)
	groups := m.groups(q.CameraIDs, logger)

	answers, err := fanOut(ctx, logger, groups, func(ctx context.Context, g *group) (*model.MediaMetadata, error) {
		mq := q
		mq.CameraIDs = g.ids
		results, err := g.engine.GetMediaMetadata(ctx, g.cameras, mq, opts)
		if err != nil {
			return nil, err
		}
		merged := &model.MediaMetadata{}
		for _, result := range results {
			if result.Results != nil {
				merged.Merge(result.Results.Metadata)
			}
		}
		return merged, nil
	})
	if err != nil {
		return nil, err
	}

	metadata := &model.MediaMetadata{}
	for _, answer := range answers {
		metadata.Merge(answer)
	}
	return metadata, nil
}

// CameraMetadata presents one camera.
func (m *Manager) CameraMetadata(cameraID string) (engine.CameraMetadata, error) {
	camera, eng, err := m.cameraEngine(cameraID)
	if err != nil {
		return engine.CameraMetadata{}, err
	}
	return eng.GetCameraMetadata(camera), nil
}

// CameraEndpoints returns the ways to reach one camera.
func (m *Manager) CameraEndpoints(cameraID string, ectx *engine.EndpointsContext) (*engine.Endpoints, error) {
	camera, eng, err := m.cameraEngine(cameraID)
	if err != nil {
		return nil, err
	}
	return eng.GetCameraEndpoints(camera, ectx), nil
}

// GetMediaDownloadPath returns where media can be downloaded, or nil.
func (m *Manager) GetMediaDownloadPath(ctx context.Context, media *view.Media) (*engine.Endpoint, error) {
	camera, eng, err := m.cameraEngine(media.CameraID())
	if err != nil {
		return nil, err
	}
	return eng.GetMediaDownloadPath(ctx, camera, media)
}

func (m *Manager) cameraEngine(cameraID string) (*engine.Camera, engine.Engine, error) {
	camera, err := m.Camera(cameraID)
	if err != nil {
		return nil, nil, err
	}
	m.mu.RLock()
	eng := m.engines[camera.Engine]
	m.mu.RUnlock()
	return camera, eng, nil
}
