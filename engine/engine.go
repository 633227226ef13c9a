// Package engine defines the uniform contract every camera backend
// implements, and the factory that picks a backend for a camera.
//
// Information Hiding:
//   - How a backend answers a query (native API or media tree walk) is
//     private to its subpackage
//   - Per-camera fan-out, result caching and failure isolation live in
//     RunPerCamera so every engine behaves the same
//   - A nil ResultsMap means "cannot answer", distinct from an empty answer
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/richinex/periscope/browse"
	"github.com/richinex/periscope/hass"
	"github.com/richinex/periscope/model"
	"github.com/richinex/periscope/storage"
	"github.com/richinex/periscope/view"
)

var (
	// ErrEntityNotFound means a camera's entity is neither registered nor live.
	ErrEntityNotFound = errors.New("could not find camera entity")

	// ErrUnknownEngine means an engine name or kind has no implementation.
	ErrUnknownEngine = errors.New("unknown camera engine")
)

// Engine is one camera backend.
type Engine interface {
	Kind() Kind

	// CreateCamera resolves what the engine needs to serve cfg.
	CreateCamera(ctx context.Context, cfg model.CameraConfig) (*Camera, error)

	// GetEvents answers an event query per camera. A nil map means the
	// engine cannot answer this query.
	GetEvents(ctx context.Context, cameras CameraSet, q model.EventQuery, opts Options) (ResultsMap[model.EventQuery], error)

	// GetMediaMetadata answers a media metadata query per camera. A nil
	// map means the engine cannot answer this query.
	GetMediaMetadata(ctx context.Context, cameras CameraSet, q model.MediaMetadataQuery, opts Options) (ResultsMap[model.MediaMetadataQuery], error)

	// GenerateMediaFromEvents converts one camera's event results into
	// view items.
	GenerateMediaFromEvents(camera *Camera, q model.EventQuery, results *Results) []view.Item

	// GetMediaDownloadPath returns where media can be downloaded, or nil.
	GetMediaDownloadPath(ctx context.Context, camera *Camera, media *view.Media) (*Endpoint, error)

	GetCameraEndpoints(camera *Camera, ectx *EndpointsContext) *Endpoints
	GetCameraMetadata(camera *Camera) CameraMetadata
}

// Camera is a configured camera bound to its engine.
type Camera struct {
	Config       model.CameraConfig
	Engine       Kind
	Capabilities *Capabilities

	// Entity is the camera's registry record, nil when it has none.
	Entity *hass.Entity
}

// ID returns the camera id.
func (c *Camera) ID() string {
	return c.Config.CameraID()
}

// CameraSet is the set of cameras an engine query may touch, by id.
type CameraSet map[string]*Camera

// For returns the camera a single-camera query is about, or nil.
func (s CameraSet) For(q storage.Query) *Camera {
	cameras := q.Cameras()
	if len(cameras) != 1 {
		return nil
	}
	return s[cameras[0]]
}

// Options control how a query is answered.
type Options struct {
	// UseCache allows answers from the request cache. Answers are written
	// to the cache either way.
	UseCache bool
}

// DefaultOptions allows cached answers.
func DefaultOptions() Options {
	return Options{UseCache: true}
}

// ResultsType tags what a Results holds.
type ResultsType string

const (
	ResultsTypeEvent         ResultsType = "event"
	ResultsTypeMediaMetadata ResultsType = "media-metadata"
)

// Results is one answer from one engine.
type Results struct {
	Engine Kind        `json:"engine"`
	Type   ResultsType `json:"type"`

	// Media holds tree nodes from engines that walk the media tree.
	Media []*browse.Node[browse.Metadata] `json:"media,omitempty"`

	// Events holds native records from engines with an event API.
	Events []NativeEvent `json:"events,omitempty"`

	// Metadata holds the answer to a media metadata query.
	Metadata *model.MediaMetadata `json:"metadata,omitempty"`

	// Cached is set on results served from the request cache.
	Cached bool      `json:"cached,omitempty"`
	Expiry time.Time `json:"expiry,omitempty"`
}

// NativeEvent is a detection event as reported by an NVR.
type NativeEvent struct {
	ID          string   `json:"id"`
	Camera      string   `json:"camera"`
	Label       string   `json:"label"`
	SubLabel    string   `json:"sub_label,omitempty"`
	Zones       []string `json:"zones,omitempty"`
	TopScore    float64  `json:"top_score,omitempty"`
	StartTime   float64  `json:"start_time"`
	EndTime     *float64 `json:"end_time,omitempty"` // nil while in progress
	HasClip     bool     `json:"has_clip"`
	HasSnapshot bool     `json:"has_snapshot"`
	Retained    bool     `json:"retain_indefinitely,omitempty"`
}

// QueryResult pairs a per-camera query with its answer.
type QueryResult[Q storage.Query] struct {
	Query   Q
	Results *Results
}

// ResultsMap maps the structural key of each answered query to its answer.
type ResultsMap[Q storage.Query] map[string]QueryResult[Q]

// Endpoint is a URL or path the client can use. Sign marks host paths that
// must be signed before use.
type Endpoint struct {
	Endpoint string `json:"endpoint"`
	Sign     bool   `json:"sign,omitempty"`
}

// Endpoints are the ways to reach a camera.
type Endpoints struct {
	UI         *Endpoint `json:"ui,omitempty"`
	Go2RTC     *Endpoint `json:"go2rtc,omitempty"`
	JSMpeg     *Endpoint `json:"jsmpeg,omitempty"`
	WebRTCCard *Endpoint `json:"webrtc_card,omitempty"`
}

// EndpointsContext narrows endpoints to what the user is looking at.
type EndpointsContext struct {
	View  string
	Media *view.Media
}

// CameraMetadata is how a camera is presented.
type CameraMetadata struct {
	Title      string `json:"title"`
	Icon       string `json:"icon"`
	EngineIcon string `json:"engine_icon"`
}
