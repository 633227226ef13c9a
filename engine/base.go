package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/richinex/periscope/browse"
	"github.com/richinex/periscope/hass"
	"github.com/richinex/periscope/internal/clock"
	"github.com/richinex/periscope/metrics"
	"github.com/richinex/periscope/model"
	"github.com/richinex/periscope/storage"
)

// DefaultResultTTL is how long an engine answer stays in the request cache.
const DefaultResultTTL = 60 * time.Second

// Dependencies are what engines are built from. Only the host interfaces
// an engine actually uses need to be set.
type Dependencies struct {
	Registry  hass.EntityRegistry
	States    hass.StateReader
	Requester hass.Requester
	Fetcher   browse.Fetcher

	// RequestCache is shared by every engine. Nil disables result caching.
	RequestCache *storage.RequestCache[Results]

	// BrowseCache is shared by the tree-walking engines. Nil disables it.
	BrowseCache *storage.ExpiringCache[string, *browse.Node[browse.Metadata]]

	// BrowseTTL defaults to browse.DefaultCacheTTL.
	BrowseTTL time.Duration

	// ResultTTL defaults to DefaultResultTTL.
	ResultTTL time.Duration

	// Clock defaults to the real clock.
	Clock clock.Clock

	// Location is the zone media titles are written in. Defaults to
	// time.Local.
	Location *time.Location

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	Metrics *metrics.Metrics
}

// WithDefaults fills in unset optional dependencies.
func (d Dependencies) WithDefaults() Dependencies {
	if d.ResultTTL <= 0 {
		d.ResultTTL = DefaultResultTTL
	}
	if d.Clock == nil {
		d.Clock = clock.Real()
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return d
}

// Base carries what every engine shares. Engines embed it.
type Base struct {
	kind Kind
	deps Dependencies
}

// NewBase creates the shared part of an engine.
func NewBase(kind Kind, deps Dependencies) Base {
	deps = deps.WithDefaults()
	deps.Logger = deps.Logger.With("engine", kind.String())
	return Base{kind: kind, deps: deps}
}

// Kind returns the engine kind.
func (b *Base) Kind() Kind {
	return b.kind
}

// Deps returns the engine's dependencies, defaults applied.
func (b *Base) Deps() Dependencies {
	return b.deps
}

// Logger returns the engine's logger.
func (b *Base) Logger() *slog.Logger {
	return b.deps.Logger
}

// Walker returns a tree walker over the shared fetcher. The browse cache is
// only consulted when opts allow cached answers.
func (b *Base) Walker(opts Options) *browse.Walker[browse.Metadata] {
	cache := b.deps.BrowseCache
	if !opts.UseCache {
		cache = nil
	}
	return browse.NewWalker(b.deps.Fetcher, browse.WalkerConfig[browse.Metadata]{
		Cache:    cache,
		CacheTTL: b.deps.BrowseTTL,
		Clock:    b.deps.Clock,
		Metrics:  b.deps.Metrics,
		Logger:   b.deps.Logger,
	})
}

// LookupEntity returns the registry record of the camera entity, nil when
// cfg names no entity.
func (b *Base) LookupEntity(ctx context.Context, cfg model.CameraConfig) (*hass.Entity, error) {
	entityID := cfg.Entity()
	if entityID == "" {
		return nil, nil
	}
	if b.deps.Registry == nil {
		return nil, fmt.Errorf("%w: %s (no entity registry)", ErrEntityNotFound, entityID)
	}
	entity, err := b.deps.Registry.GetEntity(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("look up %s: %w", entityID, err)
	}
	if entity == nil {
		return nil, fmt.Errorf("%w: %s", ErrEntityNotFound, entityID)
	}
	return entity, nil
}

// CameraMetadata presents a camera: title from config, else the entity's
// friendly name, else the camera id; icon from config, else the engine's.
func (b *Base) CameraMetadata(camera *Camera) CameraMetadata {
	cfg := camera.Config
	meta := CameraMetadata{
		Title:      cfg.Title,
		Icon:       cfg.Icon,
		EngineIcon: b.kind.Icon(),
	}

	if meta.Title == "" && b.deps.States != nil {
		if entity := cfg.Entity(); entity != "" {
			if state, ok := b.deps.States.State(entity); ok {
				meta.Title = state.FriendlyName()
			}
		}
	}
	if meta.Title == "" {
		meta.Title = camera.ID()
	}
	if meta.Icon == "" {
		meta.Icon = meta.EngineIcon
	}
	return meta
}
