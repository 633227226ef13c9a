// Package motioneye serves MotionEye cameras.
//
// MotionEye has no event API. Its recordings are exposed by the host as a
// media tree of movies and images, laid out by the camera's configured
// directory and file patterns, and events are found by walking that tree.
package motioneye

import (
	"context"
	"strings"
	"time"

	"github.com/richinex/periscope/browse"
	"github.com/richinex/periscope/engine"
	"github.com/richinex/periscope/model"
	"github.com/richinex/periscope/view"
)

// RootContentID is the media tree root of one MotionEye camera's movies or
// images.
func RootContentID(configEntryID, deviceID, kind string) string {
	return "media-source://motioneye/" + configEntryID + "#" + deviceID + "#" + kind
}

var capabilities = []engine.Capability{
	engine.CapabilityClips,
	engine.CapabilitySnapshots,
	engine.CapabilityLive,
	engine.CapabilityMenu,
	engine.CapabilitySubstream,
	engine.CapabilityTrigger,
	engine.CapabilityRemoteControlEntity,
}

// Engine is the MotionEye engine.
type Engine struct {
	engine.Base
	resolver *engine.MediaResolver
}

// New creates a MotionEye engine.
func New(deps engine.Dependencies) engine.Engine {
	base := engine.NewBase(engine.KindMotionEye, deps)
	return &Engine{
		Base:     base,
		resolver: engine.NewMediaResolver(base.Deps().Requester, base.Deps().Clock),
	}
}

// CreateCamera binds cfg to its registry entity, which locates the
// camera's media tree.
func (e *Engine) CreateCamera(ctx context.Context, cfg model.CameraConfig) (*engine.Camera, error) {
	entity, err := e.LookupEntity(ctx, cfg)
	if err != nil {
		return nil, err
	}
	cfg.MotionEye.Movies = cfg.MotionEye.Movies.WithDefaults()
	cfg.MotionEye.Images = cfg.MotionEye.Images.WithDefaults()
	return &engine.Camera{
		Config:       cfg,
		Engine:       engine.KindMotionEye,
		Capabilities: engine.NewCapabilities(capabilities, cfg.Capabilities),
		Entity:       entity,
	}, nil
}

// directoryFilter narrows which day directories are walked.
type directoryFilter struct {
	start, end  *time.Time
	hasClip     *bool
	hasSnapshot *bool
}

// matchingDirectories walks the directory patterns of a camera's movies and
// images. Clips and snapshots are exclusive: a query for one skips the
// other. It returns nil when the camera's media tree cannot be located.
func (e *Engine) matchingDirectories(ctx context.Context, camera *engine.Camera, filter directoryFilter, opts engine.Options) ([]*browse.Node[browse.Metadata], bool, error) {
	entity := camera.Entity
	if entity == nil || entity.ConfigEntryID == "" || entity.DeviceID == "" {
		return nil, false, nil
	}

	cfg := camera.Config.MotionEye
	var steps []browse.Step[browse.Metadata]
	if !isFalse(filter.hasClip) && !isTrue(filter.hasSnapshot) {
		steps = append(steps, e.directorySteps(camera.ID(), cfg.Movies.WithDefaults().DirectoryPattern, filter,
			[]browse.Target[browse.Metadata]{browse.IDTarget[browse.Metadata](RootContentID(entity.ConfigEntryID, entity.DeviceID, "movies"))})...)
	}
	if !isFalse(filter.hasSnapshot) && !isTrue(filter.hasClip) {
		steps = append(steps, e.directorySteps(camera.ID(), cfg.Images.WithDefaults().DirectoryPattern, filter,
			[]browse.Target[browse.Metadata]{browse.IDTarget[browse.Metadata](RootContentID(entity.ConfigEntryID, entity.DeviceID, "images"))})...)
	}

	directories, err := e.Walker(opts).Walk(ctx, steps)
	if err != nil {
		return nil, false, err
	}
	return directories, true, nil
}

// directorySteps descends one '/'-separated directory pattern. Date
// segments match any directory whose title parses; literal segments match
// by title.
func (e *Engine) directorySteps(cameraID, pattern string, filter directoryFilter, targets []browse.Target[browse.Metadata]) []browse.Step[browse.Metadata] {
	return e.segmentSteps(cameraID, strings.Split(pattern, "/"), filter, targets)
}

func (e *Engine) segmentSteps(cameraID string, segments []string, filter directoryFilter, targets []browse.Target[browse.Metadata]) []browse.Step[browse.Metadata] {
	if len(segments) == 0 || segments[0] == "" {
		return nil
	}
	segment, rest := segments[0], segments[1:]

	var dateLayout *layout
	if isDatePattern(segment) {
		l := toLayout(segment)
		dateLayout = &l
	}

	return []browse.Step[browse.Metadata]{{
		Targets: targets,
		Metadata: func(child, parent *browse.Node[browse.Metadata]) *browse.Metadata {
			return e.directoryMetadata(cameraID, dateLayout, child, parent)
		},
		Matcher: func(node *browse.Node[browse.Metadata]) bool {
			return node.CanExpand &&
				(dateLayout != nil || node.Title == segment) &&
				browse.WithinDates(node, filter.start, filter.end)
		},
		Advance: func(nodes []*browse.Node[browse.Metadata]) []browse.Step[browse.Metadata] {
			return e.segmentSteps(cameraID, rest, filter, browse.NodeTargets(nodes))
		},
	}}
}

// directoryMetadata spans a directory over the day its title names, or
// inherits the parent's span for literal directories.
func (e *Engine) directoryMetadata(cameraID string, l *layout, child, parent *browse.Node[browse.Metadata]) *browse.Metadata {
	deps := e.Deps()
	start := deps.Clock.Now().In(deps.Location)
	if parent != nil && parent.Metadata != nil {
		start = parent.Metadata.Start
	}

	if l != nil {
		parsed, ok := l.parse(child.Title, start, deps.Location)
		if !ok {
			return nil
		}
		start = startOfDay(parsed)
	}

	end := endOfDay(start)
	if parent != nil && parent.Metadata != nil {
		end = parent.Metadata.End
	}
	return &browse.Metadata{CameraID: cameraID, Start: start, End: end}
}

// fileMetadata places a file at the instant its title names. MotionEye
// only records start times, so a file spans no time at all.
func (e *Engine) fileMetadata(cameraID string, cfg model.MotionEyeConfig, child, parent *browse.Node[browse.Metadata]) *browse.Metadata {
	var pattern string
	switch child.MediaClass {
	case browse.MediaClassVideo:
		pattern = cfg.Movies.WithDefaults().FilePattern
	case browse.MediaClassImage:
		pattern = cfg.Images.WithDefaults().FilePattern
	default:
		return nil
	}

	deps := e.Deps()
	start := deps.Clock.Now().In(deps.Location)
	if parent != nil && parent.Metadata != nil {
		start = parent.Metadata.Start
	}

	if isDatePattern(pattern) {
		parsed, ok := toLayout(pattern).parse(stripExtension(child.Title), start, deps.Location)
		if !ok {
			return nil
		}
		start = parsed
	}
	return &browse.Metadata{CameraID: cameraID, Start: start, End: start}
}

// GetEvents finds clips and snapshots per camera. Favorite, tag, what and
// where filters can never match MotionEye media, so such queries are not
// answered.
func (e *Engine) GetEvents(ctx context.Context, cameras engine.CameraSet, q model.EventQuery, opts engine.Options) (engine.ResultsMap[model.EventQuery], error) {
	if q.HasUnsupportedFilters() {
		return nil, nil
	}

	return engine.RunPerCamera(ctx, &e.Base, engine.ResultsTypeEvent, engine.SplitEventQuery(q), opts,
		func(ctx context.Context, cq model.EventQuery) (*engine.Results, error) {
			camera := cameras.For(cq)
			if camera == nil {
				return nil, nil
			}
			media, ok, err := e.eventsForCamera(ctx, camera, cq, opts)
			if err != nil || !ok {
				return nil, err
			}
			return &engine.Results{Media: media}, nil
		})
}

func (e *Engine) eventsForCamera(ctx context.Context, camera *engine.Camera, q model.EventQuery, opts engine.Options) ([]*browse.Node[browse.Metadata], bool, error) {
	directories, ok, err := e.matchingDirectories(ctx, camera, directoryFilter{
		start:       q.Start,
		end:         q.End,
		hasClip:     q.HasClip,
		hasSnapshot: q.HasSnapshot,
	}, opts)
	if err != nil || !ok {
		return nil, ok, err
	}
	if len(directories) == 0 {
		return nil, true, nil
	}

	cameraID := camera.ID()
	cfg := camera.Config.MotionEye
	limit := q.EffectiveLimit()

	files, err := e.Walker(opts).Walk(ctx, []browse.Step[browse.Metadata]{{
		Targets: browse.NodeTargets(directories),
		Metadata: func(child, parent *browse.Node[browse.Metadata]) *browse.Metadata {
			return e.fileMetadata(cameraID, cfg, child, parent)
		},
		Matcher: func(node *browse.Node[browse.Metadata]) bool {
			return !node.CanExpand && browse.WithinDates(node, q.Start, q.End)
		},
		EarlyExit: func(nodes []*browse.Node[browse.Metadata]) bool {
			return len(nodes) >= limit
		},
	}})
	if err != nil {
		return nil, true, err
	}

	files = browse.SortMostRecentFirst(files)
	if len(files) > limit {
		files = files[:limit]
	}
	return files, true, nil
}

// GenerateMediaFromEvents converts walked files into clips and snapshots.
func (e *Engine) GenerateMediaFromEvents(_ *engine.Camera, _ model.EventQuery, results *engine.Results) []view.Item {
	if results == nil || results.Engine != engine.KindMotionEye || results.Type != engine.ResultsTypeEvent {
		return nil
	}
	return engine.MediaFromNodes(results.Media)
}

// GetMediaMetadata reports the days that have media, per camera.
func (e *Engine) GetMediaMetadata(ctx context.Context, cameras engine.CameraSet, q model.MediaMetadataQuery, opts engine.Options) (engine.ResultsMap[model.MediaMetadataQuery], error) {
	return engine.RunPerCamera(ctx, &e.Base, engine.ResultsTypeMediaMetadata, engine.SplitMediaMetadataQuery(q), opts,
		func(ctx context.Context, cq model.MediaMetadataQuery) (*engine.Results, error) {
			camera := cameras.For(cq)
			if camera == nil {
				return nil, nil
			}
			directories, ok, err := e.matchingDirectories(ctx, camera, directoryFilter{}, opts)
			if err != nil || !ok {
				return nil, err
			}

			metadata := &model.MediaMetadata{}
			for _, dir := range directories {
				if dir.Metadata != nil {
					metadata.Days.Add(model.FormatDay(dir.Metadata.Start))
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

// GetCameraEndpoints adds the MotionEye web UI to the common endpoints.
func (e *Engine) GetCameraEndpoints(camera *engine.Camera, _ *engine.EndpointsContext) *engine.Endpoints {
	endpoints := engine.CommonEndpoints(camera.Config)
	if u := camera.Config.MotionEye.URL; u != "" {
		endpoints.UI = &engine.Endpoint{Endpoint: u}
	}
	return endpoints
}

// GetCameraMetadata presents the camera with the MotionEye icon.
func (e *Engine) GetCameraMetadata(camera *engine.Camera) engine.CameraMetadata {
	return e.CameraMetadata(camera)
}

func isTrue(b *bool) bool  { return b != nil && *b }
func isFalse(b *bool) bool { return b != nil && !*b }

var _ engine.Engine = (*Engine)(nil)
