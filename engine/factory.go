package engine

import (
	"context"
	"fmt"

	"github.com/richinex/periscope/hass"
	"github.com/richinex/periscope/model"
)

// Constructor builds an engine from its dependencies.
type Constructor func(deps Dependencies) Engine

// Factory decides which engine serves a camera and builds engines.
type Factory struct {
	registry     hass.EntityRegistry
	states       hass.StateReader
	constructors map[Kind]Constructor
}

// NewFactory creates a factory. registry and states are used for engine
// auto-detection and may be nil when every camera names its engine.
func NewFactory(registry hass.EntityRegistry, states hass.StateReader, constructors map[Kind]Constructor) *Factory {
	return &Factory{
		registry:     registry,
		states:       states,
		constructors: constructors,
	}
}

// GetEngineForCamera returns the engine kind for cfg. ok is false when the
// configuration does not carry enough to choose one.
//
// Detection order:
//  1. An explicit engine (anything but "auto")
//  2. A Frigate camera name
//  3. The registry platform of the camera entity, or Generic when the
//     entity is only known from live state
//  4. Generic for a bare go2rtc stream or WebRTC card URL
func (f *Factory) GetEngineForCamera(ctx context.Context, cfg model.CameraConfig) (kind Kind, ok bool, err error) {
	if name := cfg.EngineOrAuto(); name != model.EngineAuto {
		kind, err := ParseKind(name)
		if err != nil {
			return 0, false, err
		}
		return kind, true, nil
	}

	if cfg.Frigate.CameraName != "" {
		return KindFrigate, true, nil
	}

	if entityID := cfg.Entity(); entityID != "" {
		var entity *hass.Entity
		if f.registry != nil {
			entity, err = f.registry.GetEntity(ctx, entityID)
			if err != nil {
				return 0, false, fmt.Errorf("look up %s: %w", entityID, err)
			}
		}
		if entity != nil {
			return kindForPlatform(entity.Platform), true, nil
		}
		if f.states != nil {
			if _, live := f.states.State(entityID); live {
				return KindGeneric, true, nil
			}
		}
		return 0, false, fmt.Errorf("%w: %s", ErrEntityNotFound, entityID)
	}

	if (cfg.Go2RTC.URL != "" && cfg.Go2RTC.Stream != "") || cfg.WebRTCCard.URL != "" {
		return KindGeneric, true, nil
	}
	return 0, false, nil
}

// CreateEngine builds an engine of the given kind.
func (f *Factory) CreateEngine(kind Kind, deps Dependencies) (Engine, error) {
	constructor, ok := f.constructors[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEngine, kind)
	}
	return constructor(deps), nil
}
