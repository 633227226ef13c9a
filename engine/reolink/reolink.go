// Package reolink serves Reolink cameras.
//
// The host exposes a Reolink camera's recordings as a media tree: one
// directory per stream resolution, then one per day, then one file per
// recording titled with its start time and duration.
package reolink

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/richinex/periscope/browse"
	"github.com/richinex/periscope/engine"
	"github.com/richinex/periscope/model"
	"github.com/richinex/periscope/view"
)

// Resolution directory titles.
const (
	HighResolutionTitle = "High res."
	LowResolutionTitle  = "Low res."
)

const (
	dayLayout  = "2006/1/2"
	timeLayout = "15:04:05"

	// dayConcurrency is how many day directories are listed at once while
	// looking for the most recent recordings.
	dayConcurrency = 2
)

var capabilities = []engine.Capability{
	engine.CapabilityClips,
	engine.CapabilityLive,
	engine.CapabilityMenu,
	engine.CapabilitySubstream,
	engine.CapabilityTrigger,
	engine.CapabilityRemoteControlEntity,
}

// RootContentID is the media tree root of one Reolink camera channel.
func RootContentID(configEntryID string, channel int) string {
	return fmt.Sprintf("media-source://reolink/CAM|%s|%d", configEntryID, channel)
}

// ChannelFromUniqueID extracts the camera channel from a Reolink entity
// unique id of the form "{uid}_{channel}_{stream}".
func ChannelFromUniqueID(uniqueID string) (int, bool) {
	parts := strings.Split(uniqueID, "_")
	if len(parts) < 2 {
		return 0, false
	}
	channel, err := strconv.Atoi(parts[1])
	if err != nil || channel < 0 {
		return 0, false
	}
	return channel, true
}

// Engine is the Reolink engine.
type Engine struct {
	engine.Base
	resolver *engine.MediaResolver
}

// New creates a Reolink engine.
func New(deps engine.Dependencies) engine.Engine {
	base := engine.NewBase(engine.KindReolink, deps)
	return &Engine{
		Base:     base,
		resolver: engine.NewMediaResolver(base.Deps().Requester, base.Deps().Clock),
	}
}

// CreateCamera binds cfg to its registry entity, whose unique id names the
// camera channel.
func (e *Engine) CreateCamera(ctx context.Context, cfg model.CameraConfig) (*engine.Camera, error) {
	entity, err := e.LookupEntity(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &engine.Camera{
		Config:       cfg,
		Engine:       engine.KindReolink,
		Capabilities: engine.NewCapabilities(capabilities, cfg.Capabilities),
		Entity:       entity,
	}, nil
}

func resolutionTitle(cfg model.ReolinkConfig) string {
	if strings.EqualFold(cfg.MediaResolution, "low") {
		return LowResolutionTitle
	}
	return HighResolutionTitle
}

// root returns the camera's media tree root, false when the camera cannot
// be located.
func root(camera *engine.Camera) (string, bool) {
	entity := camera.Entity
	if entity == nil || entity.ConfigEntryID == "" {
		return "", false
	}
	channel, ok := ChannelFromUniqueID(entity.UniqueID)
	if !ok {
		return "", false
	}
	return RootContentID(entity.ConfigEntryID, channel), true
}

// daySteps walks from the camera root to the day directories that overlap
// [start, end], most recent first. next, when set, continues from them.
func (e *Engine) daySteps(camera *engine.Camera, rootID string, start, end *time.Time, next func([]*browse.Node[browse.Metadata]) []browse.Step[browse.Metadata]) []browse.Step[browse.Metadata] {
	cameraID := camera.ID()
	resolution := resolutionTitle(camera.Config.Reolink)

	return []browse.Step[browse.Metadata]{{
		Targets: []browse.Target[browse.Metadata]{browse.IDTarget[browse.Metadata](rootID)},
		Matcher: func(node *browse.Node[browse.Metadata]) bool {
			return node.CanExpand && node.Title == resolution
		},
		Advance: func(resolutions []*browse.Node[browse.Metadata]) []browse.Step[browse.Metadata] {
			if len(resolutions) == 0 {
				return nil
			}
			return []browse.Step[browse.Metadata]{{
				Targets: browse.NodeTargets(resolutions),
				Metadata: func(child, _ *browse.Node[browse.Metadata]) *browse.Metadata {
					return e.dayMetadata(cameraID, child)
				},
				Matcher: func(node *browse.Node[browse.Metadata]) bool {
					return node.CanExpand && browse.WithinDates(node, start, end)
				},
				Sorter:  browse.SortMostRecentFirst,
				Advance: next,
			}}
		},
	}}
}

func (e *Engine) dayMetadata(cameraID string, child *browse.Node[browse.Metadata]) *browse.Metadata {
	day, err := time.ParseInLocation(dayLayout, child.Title, e.Deps().Location)
	if err != nil {
		return nil
	}
	return &browse.Metadata{
		CameraID: cameraID,
		Start:    day,
		End:      day.AddDate(0, 0, 1).Add(-time.Millisecond),
	}
}

// fileMetadata parses a recording title such as "15:04:05 0:00:30" into
// its span on the parent's day.
func (e *Engine) fileMetadata(cameraID string, child, parent *browse.Node[browse.Metadata]) *browse.Metadata {
	if parent == nil || parent.Metadata == nil {
		return nil
	}
	startText, durationText, ok := strings.Cut(strings.TrimSpace(child.Title), " ")
	if !ok {
		return nil
	}
	clock, err := time.Parse(timeLayout, startText)
	if err != nil {
		return nil
	}
	duration, ok := parseDuration(strings.TrimSpace(durationText))
	if !ok {
		return nil
	}

	year, month, day := parent.Metadata.Start.Date()
	start := time.Date(year, month, day, clock.Hour(), clock.Minute(), clock.Second(), 0, parent.Metadata.Start.Location())
	return &browse.Metadata{CameraID: cameraID, Start: start, End: start.Add(duration)}
}

// parseDuration parses "H:MM:SS".
func parseDuration(s string) (time.Duration, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, false
	}
	var total time.Duration
	for i, unit := range []time.Duration{time.Hour, time.Minute, time.Second} {
		n, err := strconv.Atoi(parts[i])
		if err != nil || n < 0 {
			return 0, false
		}
		total += time.Duration(n) * unit
	}
	return total, true
}

// GetEvents finds recordings per camera. Only the time window and limit
// can be honoured; Reolink recordings are clips without snapshots, tags or
// labels.
func (e *Engine) GetEvents(ctx context.Context, cameras engine.CameraSet, q model.EventQuery, opts engine.Options) (engine.ResultsMap[model.EventQuery], error) {
	if q.HasUnsupportedFilters() ||
		(q.HasSnapshot != nil && *q.HasSnapshot) ||
		(q.HasClip != nil && !*q.HasClip) {
		return nil, nil
	}

	return engine.RunPerCamera(ctx, &e.Base, engine.ResultsTypeEvent, engine.SplitEventQuery(q), opts,
		func(ctx context.Context, cq model.EventQuery) (*engine.Results, error) {
			camera := cameras.For(cq)
			if camera == nil {
				return nil, nil
			}
			rootID, ok := root(camera)
			if !ok {
				return nil, nil
			}

			cameraID := camera.ID()
			limit := cq.EffectiveLimit()
			files := func(days []*browse.Node[browse.Metadata]) []browse.Step[browse.Metadata] {
				if len(days) == 0 {
					return nil
				}
				return []browse.Step[browse.Metadata]{{
					Targets:     browse.NodeTargets(days),
					Concurrency: dayConcurrency,
					Metadata: func(child, parent *browse.Node[browse.Metadata]) *browse.Metadata {
						return e.fileMetadata(cameraID, child, parent)
					},
					Matcher: func(node *browse.Node[browse.Metadata]) bool {
						return !node.CanExpand && browse.WithinDates(node, cq.Start, cq.End)
					},
					Sorter: browse.SortMostRecentFirst,
					EarlyExit: func(nodes []*browse.Node[browse.Metadata]) bool {
						return len(nodes) >= limit
					},
				}}
			}

			media, err := e.Walker(opts).Walk(ctx, e.daySteps(camera, rootID, cq.Start, cq.End, files))
			if err != nil {
				return nil, err
			}
			media = onlyFiles(media)
			if len(media) > limit {
				media = media[:limit]
			}
			return &engine.Results{Media: media}, nil
		})
}

// onlyFiles drops directories left in a walk's output when it stopped short
// of the file level.
func onlyFiles(nodes []*browse.Node[browse.Metadata]) []*browse.Node[browse.Metadata] {
	out := nodes[:0:0]
	for _, node := range nodes {
		if !node.CanExpand {
			out = append(out, node)
		}
	}
	return out
}

// GenerateMediaFromEvents converts recordings into clips.
func (e *Engine) GenerateMediaFromEvents(_ *engine.Camera, _ model.EventQuery, results *engine.Results) []view.Item {
	if results == nil || results.Engine != engine.KindReolink || results.Type != engine.ResultsTypeEvent {
		return nil
	}
	return engine.MediaFromNodes(results.Media)
}

// GetMediaMetadata reports the days that have recordings, per camera.
func (e *Engine) GetMediaMetadata(ctx context.Context, cameras engine.CameraSet, q model.MediaMetadataQuery, opts engine.Options) (engine.ResultsMap[model.MediaMetadataQuery], error) {
	return engine.RunPerCamera(ctx, &e.Base, engine.ResultsTypeMediaMetadata, engine.SplitMediaMetadataQuery(q), opts,
		func(ctx context.Context, cq model.MediaMetadataQuery) (*engine.Results, error) {
			camera := cameras.For(cq)
			if camera == nil {
				return nil, nil
			}
			rootID, ok := root(camera)
			if !ok {
				return nil, nil
			}

			days, err := e.Walker(opts).Walk(ctx, e.daySteps(camera, rootID, nil, nil, nil))
			if err != nil {
				return nil, err
			}
			metadata := &model.MediaMetadata{}
			for _, day := range days {
				if day.Metadata != nil {
					metadata.Days.Add(model.FormatDay(day.Metadata.Start))
				}
			}
			return &engine.Results{Metadata: metadata}, nil
		})
}

// GetMediaDownloadPath resolves the media's content id through the host.
func (e *Engine) GetMediaDownloadPath(ctx context.Context, _ *engine.Camera, media *view.Media) (*engine.Endpoint, error) {
	if media == nil {
		return nil, nil
	}
	return e.resolver.DownloadPath(ctx, media.ContentID())
}

// GetCameraEndpoints adds the Reolink web UI to the common endpoints.
func (e *Engine) GetCameraEndpoints(camera *engine.Camera, _ *engine.EndpointsContext) *engine.Endpoints {
	endpoints := engine.CommonEndpoints(camera.Config)
	if u := camera.Config.Reolink.URL; u != "" {
		endpoints.UI = &engine.Endpoint{Endpoint: u}
	}
	return endpoints
}

func (e *Engine) GetCameraMetadata(camera *engine.Camera) engine.CameraMetadata {
	return e.CameraMetadata(camera)
}

var _ engine.Engine = (*Engine)(nil)
