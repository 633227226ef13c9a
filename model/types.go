// Package model provides domain types shared across packages.
//
// Queries are plain values: two queries with the same fields are the same
// query, whatever order their sets were built in. Caches rely on this.
package model

import (
	"time"
)

// DefaultEventLimit caps event queries that do not set a limit.
const DefaultEventLimit = 10000

// EventQuery asks for events (clips and snapshots) across a set of cameras.
type EventQuery struct {
	CameraIDs StringSet `json:"camera_ids"`

	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
	Limit int        `json:"limit,omitempty"` // 0 means DefaultEventLimit

	// Filters. Engines that cannot honour one decline the whole query.
	Favorite *bool     `json:"favorite,omitempty"`
	Tags     StringSet `json:"tags,omitempty"`
	What     StringSet `json:"what,omitempty"`
	Where    StringSet `json:"where,omitempty"`

	// Restrict to media that has a clip or a snapshot.
	HasClip     *bool `json:"has_clip,omitempty"`
	HasSnapshot *bool `json:"has_snapshot,omitempty"`
}

// EffectiveLimit returns the limit, applying DefaultEventLimit when unset.
func (q EventQuery) EffectiveLimit() int {
	if q.Limit <= 0 {
		return DefaultEventLimit
	}
	return q.Limit
}

// HasUnsupportedFilters reports whether any of the favorite, tags, what or
// where filters are set.
func (q EventQuery) HasUnsupportedFilters() bool {
	return q.Favorite != nil && *q.Favorite ||
		q.Tags.Len() > 0 || q.What.Len() > 0 || q.Where.Len() > 0
}

// ForCamera returns a copy of the query restricted to a single camera.
func (q EventQuery) ForCamera(cameraID string) EventQuery {
	q.CameraIDs = NewStringSet(cameraID)
	return q
}

// Cameras returns the queried camera ids in ascending order.
func (q EventQuery) Cameras() []string {
	return q.CameraIDs.Sorted()
}

// MediaMetadataQuery asks which days (and labels, zones, tags) have media.
type MediaMetadataQuery struct {
	CameraIDs StringSet `json:"camera_ids"`
}

// ForCamera returns a copy of the query restricted to a single camera.
func (q MediaMetadataQuery) ForCamera(cameraID string) MediaMetadataQuery {
	q.CameraIDs = NewStringSet(cameraID)
	return q
}

// Cameras returns the queried camera ids in ascending order.
func (q MediaMetadataQuery) Cameras() []string {
	return q.CameraIDs.Sorted()
}

// MediaMetadata is the answer to a MediaMetadataQuery.
type MediaMetadata struct {
	Days  StringSet `json:"days,omitempty"` // YYYY-MM-DD
	What  StringSet `json:"what,omitempty"`
	Where StringSet `json:"where,omitempty"`
	Tags  StringSet `json:"tags,omitempty"`
}

// Merge folds other into m.
func (m *MediaMetadata) Merge(other *MediaMetadata) {
	if other == nil {
		return
	}
	m.Days = m.Days.Union(other.Days)
	m.What = m.What.Union(other.What)
	m.Where = m.Where.Union(other.Where)
	m.Tags = m.Tags.Union(other.Tags)
}

// DayFormat is the layout used for day keys in MediaMetadata.
const DayFormat = "2006-01-02"

// FormatDay renders t as a day key.
func FormatDay(t time.Time) string {
	return t.Format(DayFormat)
}

// Bool returns a pointer to b, for optional query fields.
func Bool(b bool) *bool {
	return &b
}

// Time returns a pointer to t, for optional query fields.
func Time(t time.Time) *time.Time {
	return &t
}
