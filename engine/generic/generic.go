// Package generic serves cameras that offer nothing but a live view: a
// camera entity, a go2rtc stream or a WebRTC card URL.
package generic

import (
	"context"
	"fmt"

	"github.com/richinex/periscope/engine"
	"github.com/richinex/periscope/model"
	"github.com/richinex/periscope/view"
)

var capabilities = []engine.Capability{
	engine.CapabilityLive,
	engine.CapabilityMenu,
	engine.CapabilitySubstream,
	engine.CapabilityTrigger,
	engine.CapabilityRemoteControlEntity,
}

// Engine is the generic engine. It has no media to query.
type Engine struct {
	engine.Base
}

// New creates a generic engine.
func New(deps engine.Dependencies) engine.Engine {
	return &Engine{Base: engine.NewBase(engine.KindGeneric, deps)}
}

// CreateCamera binds cfg. A registered entity is recorded; an entity only
// known from live state is fine.
func (e *Engine) CreateCamera(ctx context.Context, cfg model.CameraConfig) (*engine.Camera, error) {
	camera := &engine.Camera{
		Config:       cfg,
		Engine:       engine.KindGeneric,
		Capabilities: engine.NewCapabilities(capabilities, cfg.Capabilities),
	}
	registry := e.Deps().Registry
	if registry == nil || cfg.Entity() == "" {
		return camera, nil
	}
	entity, err := registry.GetEntity(ctx, cfg.Entity())
	if err != nil {
		return nil, fmt.Errorf("look up %s: %w", cfg.Entity(), err)
	}
	camera.Entity = entity
	return camera, nil
}

func (e *Engine) GetEvents(context.Context, engine.CameraSet, model.EventQuery, engine.Options) (engine.ResultsMap[model.EventQuery], error) {
	return nil, nil
}

func (e *Engine) GetMediaMetadata(context.Context, engine.CameraSet, model.MediaMetadataQuery, engine.Options) (engine.ResultsMap[model.MediaMetadataQuery], error) {
	return nil, nil
}

func (e *Engine) GenerateMediaFromEvents(*engine.Camera, model.EventQuery, *engine.Results) []view.Item {
	return nil
}

func (e *Engine) GetMediaDownloadPath(context.Context, *engine.Camera, *view.Media) (*engine.Endpoint, error) {
	return nil, nil
}

// GetCameraEndpoints returns the endpoints the config itself names.
func (e *Engine) GetCameraEndpoints(camera *engine.Camera, _ *engine.EndpointsContext) *engine.Endpoints {
	return engine.CommonEndpoints(camera.Config)
}

// GetCameraMetadata takes the icon from live state when the config has
// none.
func (e *Engine) GetCameraMetadata(camera *engine.Camera) engine.CameraMetadata {
	meta := e.CameraMetadata(camera)
	if camera.Config.Icon == "" && e.Deps().States != nil {
		if state, ok := e.Deps().States.State(camera.Config.Entity()); ok && state.Icon() != "" {
			meta.Icon = state.Icon()
		}
	}
	return meta
}

var _ engine.Engine = (*Engine)(nil)
