// Package view holds the result items a query produces and the
// selection-aware container the UI consumes.
package view

import (
	"time"

	"github.com/google/uuid"
)

// Item is one entry of a result set. Implementations must be pointer
// types: items are compared by identity.
type Item interface {
	ID() string
	Title() string
	Thumbnail() string
	Icon() string
	IsFavorite() *bool
}

// CameraItem is an item that belongs to a camera.
type CameraItem interface {
	Item
	CameraID() string
}

// MediaType is the kind of a camera media item.
type MediaType string

const (
	MediaTypeClip      MediaType = "clip"
	MediaTypeSnapshot  MediaType = "snapshot"
	MediaTypeRecording MediaType = "recording"
)

// VideoContentType is the container of playable video.
type VideoContentType string

const (
	VideoContentTypeMP4 VideoContentType = "mp4"
	VideoContentTypeHLS VideoContentType = "hls"
)

// MediaOptions are the optional attributes of a Media item.
type MediaOptions struct {
	ID               string
	VideoContentType VideoContentType
	StartTime        time.Time
	EndTime          time.Time
	InProgress       *bool
	ContentID        string
	Title            string
	Thumbnail        string
	Icon             string
	What             []string
	Where            []string
	Tags             []string
	Favorite         *bool
	Score            *float64
}

// Media is a clip, snapshot or recording from one camera.
type Media struct {
	mediaType MediaType
	cameraID  string
	opts      MediaOptions
}

// NewMedia creates a media item.
func NewMedia(mediaType MediaType, cameraID string, opts MediaOptions) *Media {
	return &Media{mediaType: mediaType, cameraID: cameraID, opts: opts}
}

func (m *Media) MediaType() MediaType { return m.mediaType }
func (m *Media) CameraID() string { return m.cameraID }
func (m *Media) ID() string { return m.opts.ID }
func (m *Media) Title() string { return m.opts.Title }
func (m *Media) Thumbnail() string { return m.opts.Thumbnail }
func (m *Media) Icon() string { return m.opts.Icon }
func (m *Media) ContentID() string { return m.opts.ContentID }
func (m *Media) What() []string { return m.opts.What }
func (m *Media) Where() []string { return m.opts.Where }
func (m *Media) Tags() []string { return m.opts.Tags }
func (m *Media) Score() *float64 { return m.opts.Score }
func (m *Media) InProgress() *bool { return m.opts.InProgress }
func (m *Media) IsFavorite() *bool { return m.opts.Favorite }

// VideoContentType returns the video container, "" for non-video media.
func (m *Media) VideoContentType() VideoContentType { return m.opts.VideoContentType }

// StartTime returns the start, zero when unknown.
func (m *Media) StartTime() time.Time { return m.opts.StartTime }

// EndTime returns the end, zero when unknown or still in progress.
func (m *Media) EndTime() time.Time { return m.opts.EndTime }

// SetFavorite records the favorite flag.
func (m *Media) SetFavorite(favorite bool) {
	m.opts.Favorite = &favorite
}

// UsableEndTime is the end time, or now for media still in progress.
func (m *Media) UsableEndTime(now time.Time) time.Time {
	if m.opts.InProgress != nil && *m.opts.InProgress {
		return now
	}
	return m.opts.EndTime
}

// IncludesTime reports whether t falls within [start, end].
func (m *Media) IncludesTime(t time.Time) bool {
	if m.opts.StartTime.IsZero() || m.opts.EndTime.IsZero() {
		return false
	}
	return !t.Before(m.opts.StartTime) && !t.After(m.opts.EndTime)
}

// FolderOptions are the optional attributes of a Folder item.
type FolderOptions struct {
	ID        string // generated when empty
	Title     string
	Thumbnail string
	Icon      string
}

// Folder is a non-camera item: a directory the user can open.
type Folder struct {
	path []string
	opts FolderOptions
}

// NewFolder creates a folder item for path.
func NewFolder(path []string, opts FolderOptions) *Folder {
	if opts.ID == "" {
		opts.ID = uuid.New().String()
	}
	return &Folder{path: path, opts: opts}
}

func (f *Folder) Path() []string { return f.path }
func (f *Folder) ID() string { return f.opts.ID }
func (f *Folder) Title() string { return f.opts.Title }
func (f *Folder) Thumbnail() string { return f.opts.Thumbnail }
func (f *Folder) Icon() string { return f.opts.Icon }
func (f *Folder) IsFavorite() *bool { return nil }

var (
	_ CameraItem = (*Media)(nil)
	_ Item       = (*Folder)(nil)
)
