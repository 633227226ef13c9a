// Package frigate serves Frigate NVR cameras through the Frigate
// integration's own event API.
package frigate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/richinex/periscope/engine"
	jsonutil "github.com/richinex/periscope/internal/json"
	"github.com/richinex/periscope/model"
	"github.com/richinex/periscope/view"
)

// ErrNoCameraName means a camera's Frigate name is neither configured nor
// derivable from its entity.
var ErrNoCameraName = errors.New("could not determine frigate camera name")

var capabilities = []engine.Capability{
	engine.CapabilityLive,
	engine.CapabilityClips,
	engine.CapabilitySnapshots,
	engine.CapabilityRecordings,
	engine.CapabilityFavoriteEvents,
	engine.CapabilitySeek,
	engine.CapabilityMenu,
	engine.CapabilitySubstream,
	engine.CapabilityTrigger,
	engine.CapabilityRemoteControlEntity,
}

// Engine is the Frigate engine.
type Engine struct {
	engine.Base
}

// New creates a Frigate engine.
func New(deps engine.Dependencies) engine.Engine {
	return &Engine{Base: engine.NewBase(engine.KindFrigate, deps)}
}

// CreateCamera fills in the Frigate camera name from the entity's unique id
// when it is not configured.
func (e *Engine) CreateCamera(ctx context.Context, cfg model.CameraConfig) (*engine.Camera, error) {
	entity, err := e.LookupEntity(ctx, cfg)
	if err != nil && cfg.Frigate.CameraName == "" {
		return nil, err
	}
	if cfg.Frigate.CameraName == "" && entity != nil {
		cfg.Frigate.CameraName = cameraNameFromUniqueID(entity.UniqueID)
	}
	if cfg.Frigate.CameraName == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoCameraName, cfg.CameraID())
	}
	return &engine.Camera{
		Config:       cfg,
		Engine:       engine.KindFrigate,
		Capabilities: engine.NewCapabilities(capabilities, cfg.Capabilities),
		Entity:       entity,
	}, nil
}

// cameraNameFromUniqueID reads "{entry}:camera:{name}".
func cameraNameFromUniqueID(uniqueID string) string {
	const marker = ":camera:"
	i := strings.LastIndex(uniqueID, marker)
	if i < 0 {
		return ""
	}
	name := uniqueID[i+len(marker):]
	if strings.Contains(name, ":") {
		return ""
	}
	return name
}

// GetEvents fetches events per camera. Query filters override the
// camera's configured labels and zones.
func (e *Engine) GetEvents(ctx context.Context, cameras engine.CameraSet, q model.EventQuery, opts engine.Options) (engine.ResultsMap[model.EventQuery], error) {
	return engine.RunPerCamera(ctx, &e.Base, engine.ResultsTypeEvent, engine.SplitEventQuery(q), opts,
		func(ctx context.Context, cq model.EventQuery) (*engine.Results, error) {
			camera := cameras.For(cq)
			if camera == nil {
				return nil, nil
			}
			events, err := e.fetchEvents(ctx, camera.Config, cq)
			if err != nil {
				return nil, err
			}
			natives := make([]engine.NativeEvent, 0, len(events))
			for _, event := range events {
				natives = append(natives, event.Native())
			}
			return &engine.Results{Events: natives}, nil
		})
}

func (e *Engine) eventsRequest(cfg model.CameraConfig, q model.EventQuery) EventsRequest {
	req := EventsRequest{
		Type:        EventsRequestType,
		InstanceID:  cfg.Frigate.ClientIDOrDefault(),
		Camera:      cfg.Frigate.CameraName,
		Limit:       q.EffectiveLimit(),
		HasClip:     q.HasClip,
		HasSnapshot: q.HasSnapshot,
		Labels:      jsonutil.EncodeList(cfg.Frigate.Labels),
		Zones:       jsonutil.EncodeList(cfg.Frigate.Zones),
		Decode:      true,
	}
	if q.Start != nil {
		after := q.Start.Unix()
		req.After = &after
	}
	if q.End != nil {
		before := q.End.Unix()
		req.Before = &before
	}
	if q.Favorite != nil && *q.Favorite {
		req.Favorites = q.Favorite
	}
	if q.What.Len() > 0 {
		req.Labels = jsonutil.EncodeList(q.What.Sorted())
	}
	if q.Where.Len() > 0 {
		req.Zones = jsonutil.EncodeList(q.Where.Sorted())
	}
	if q.Tags.Len() > 0 {
		req.SubLabels = jsonutil.EncodeList(q.Tags.Sorted())
	}
	return req
}

func (e *Engine) fetchEvents(ctx context.Context, cfg model.CameraConfig, q model.EventQuery) ([]Event, error) {
	requester := e.Deps().Requester
	if requester == nil {
		return nil, errors.New("frigate: no requester")
	}

	var raw json.RawMessage
	if err := requester.Request(ctx, e.eventsRequest(cfg, q), &raw); err != nil {
		return nil, fmt.Errorf("fetch frigate events: %w", err)
	}
	events, err := jsonutil.DecodeReply[[]Event](raw)
	if err != nil {
		return nil, fmt.Errorf("decode frigate events: %w", err)
	}
	return events, nil
}

// GenerateMediaFromEvents converts events into clips or snapshots. A query
// restricted to clips or snapshots decides the type; otherwise events with
// a clip become clips and the rest snapshots.
func (e *Engine) GenerateMediaFromEvents(camera *engine.Camera, q model.EventQuery, results *engine.Results) []view.Item {
	if results == nil || results.Engine != engine.KindFrigate || results.Type != engine.ResultsTypeEvent {
		return nil
	}

	items := make([]view.Item, 0, len(results.Events))
	for _, event := range results.Events {
		var mediaType view.MediaType
		switch {
		case q.HasClip != nil && *q.HasClip:
			mediaType = view.MediaTypeClip
		case q.HasSnapshot != nil && *q.HasSnapshot:
			mediaType = view.MediaTypeSnapshot
		case event.HasClip:
			mediaType = view.MediaTypeClip
		case event.HasSnapshot:
			mediaType = view.MediaTypeSnapshot
		default:
			continue
		}
		items = append(items, eventMedia(camera, mediaType, event))
	}
	return items
}

// GetMediaMetadata summarises which days, labels, zones and sub labels have
// events, per camera.
func (e *Engine) GetMediaMetadata(ctx context.Context, cameras engine.CameraSet, q model.MediaMetadataQuery, opts engine.Options) (engine.ResultsMap[model.MediaMetadataQuery], error) {
	return engine.RunPerCamera(ctx, &e.Base, engine.ResultsTypeMediaMetadata, engine.SplitMediaMetadataQuery(q), opts,
		func(ctx context.Context, cq model.MediaMetadataQuery) (*engine.Results, error) {
			camera := cameras.For(cq)
			if camera == nil {
				return nil, nil
			}
			rows, err := e.fetchSummary(ctx, camera.Config.Frigate)
			if err != nil {
				return nil, err
			}
			return &engine.Results{Metadata: summarize(camera.Config.Frigate, rows)}, nil
		})
}

func (e *Engine) fetchSummary(ctx context.Context, cfg model.FrigateConfig) ([]SummaryRow, error) {
	requester := e.Deps().Requester
	if requester == nil {
		return nil, errors.New("frigate: no requester")
	}

	var raw json.RawMessage
	err := requester.Request(ctx, EventsSummaryRequest{
		Type:       EventsSummaryRequestType,
		InstanceID: cfg.ClientIDOrDefault(),
		Timezone:   e.Deps().Location.String(),
		Decode:     true,
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("fetch frigate events summary: %w", err)
	}
	rows, err := jsonutil.DecodeReply[[]SummaryRow](raw)
	if err != nil {
		return nil, fmt.Errorf("decode frigate events summary: %w", err)
	}
	return rows, nil
}

// summarize folds the rows of one camera into media metadata, honouring
// the camera's configured labels and zones.
func summarize(cfg model.FrigateConfig, rows []SummaryRow) *model.MediaMetadata {
	metadata := &model.MediaMetadata{}
	for _, row := range rows {
		if row.Camera != cfg.CameraName {
			continue
		}
		if len(cfg.Labels) > 0 && !slices.Contains(cfg.Labels, row.Label) {
			continue
		}
		if len(cfg.Zones) > 0 && !slices.ContainsFunc(row.Zones, func(zone string) bool {
			return slices.Contains(cfg.Zones, zone)
		}) {
			continue
		}

		if row.Day != "" {
			metadata.Days.Add(row.Day)
		}
		if row.Label != "" {
			metadata.What.Add(row.Label)
		}
		if row.SubLabel != "" {
			metadata.Tags.Add(string(row.SubLabel))
		}
		for _, zone := range row.Zones {
			metadata.Where.Add(zone)
		}
	}
	return metadata
}

// GetMediaDownloadPath returns the integration's download proxy path.
// Events download by id; recordings by camera and time span.
func (e *Engine) GetMediaDownloadPath(_ context.Context, camera *engine.Camera, media *view.Media) (*engine.Endpoint, error) {
	if media == nil {
		return nil, nil
	}
	frigate := camera.Config.Frigate
	prefix := "/api/frigate/" + frigate.ClientIDOrDefault()

	switch media.MediaType() {
	case view.MediaTypeClip, view.MediaTypeSnapshot:
		if media.ID() == "" {
			return nil, nil
		}
		file := "clip.mp4"
		if media.MediaType() == view.MediaTypeSnapshot {
			file = "snapshot.jpg"
		}
		return &engine.Endpoint{
			Endpoint: fmt.Sprintf("%s/notifications/%s/%s?download=true", prefix, media.ID(), file),
			Sign:     true,
		}, nil
	case view.MediaTypeRecording:
		if media.StartTime().IsZero() || media.EndTime().IsZero() || frigate.CameraName == "" {
			return nil, nil
		}
		return &engine.Endpoint{
			Endpoint: fmt.Sprintf("%s/recording/%s/start/%d/end/%d?download=true",
				prefix, frigate.CameraName, media.StartTime().Unix(), media.EndTime().Unix()),
			Sign: true,
		}, nil
	default:
		return nil, nil
	}
}

// GetCameraMetadata presents the camera with the Frigate icon.
func (e *Engine) GetCameraMetadata(camera *engine.Camera) engine.CameraMetadata {
	return e.CameraMetadata(camera)
}

var _ engine.Engine = (*Engine)(nil)
