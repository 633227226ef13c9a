// Package fixture is a host backed by a YAML file: an entity registry, live
// states, a media tree, resolved media URLs and Frigate events. It answers
// the same requests the real host does, through the same interfaces, so the
// CLI and tests can run engines without one.
package fixture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/richinex/periscope/browse"
	"github.com/richinex/periscope/engine"
	"github.com/richinex/periscope/engine/frigate"
	"github.com/richinex/periscope/hass"
)

var (
	// ErrNotFound means the fixture has no answer for a request.
	ErrNotFound = errors.New("fixture: not found")

	// ErrInjected is returned for requests the fixture is told to fail.
	ErrInjected = errors.New("fixture: injected failure")
)

// File is the YAML layout of a fixture.
type File struct {
	Entities []*hass.Entity `yaml:"entities"`
	States   []*hass.State  `yaml:"states"`

	// Media is the browse tree. Nodes may be nested to any depth; each is
	// served with its direct children only.
	Media []*browse.Media `yaml:"media"`

	// Resolve maps content ids to playable URLs.
	Resolve map[string]Resolved `yaml:"resolve"`

	// FrigateEvents maps a Frigate instance id to its events, in the
	// integration's JSON field names.
	FrigateEvents map[string][]map[string]any `yaml:"frigate_events"`

	// Fail lists content ids and request types to answer with ErrInjected.
	Fail []string `yaml:"fail"`
}

// Resolved is a resolved media URL.
type Resolved struct {
	URL      string `yaml:"url"`
	MimeType string `yaml:"mime_type"`
}

// Host serves a File. It implements hass.Requester, hass.EntityRegistry,
// hass.StateReader and browse.Fetcher.
type Host struct {
	entities map[string]*hass.Entity
	states   map[string]*hass.State
	media    map[string]*browse.Media
	resolve  map[string]Resolved
	events   map[string][]frigate.Event
	fail     map[string]bool

	mu       sync.Mutex
	requests []string
}

// Load reads a fixture file.
func Load(path string) (*Host, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	host, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return host, nil
}

// Parse builds a host from YAML.
func Parse(data []byte) (*Host, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return New(file)
}

// New builds a host from a decoded file.
func New(file File) (*Host, error) {
	h := &Host{
		entities: make(map[string]*hass.Entity, len(file.Entities)),
		states:   make(map[string]*hass.State, len(file.States)),
		media:    make(map[string]*browse.Media),
		resolve:  file.Resolve,
		events:   make(map[string][]frigate.Event, len(file.FrigateEvents)),
		fail:     make(map[string]bool, len(file.Fail)),
	}
	for _, entity := range file.Entities {
		h.entities[entity.EntityID] = entity
	}
	for _, state := range file.States {
		h.states[state.EntityID] = state
	}
	for _, media := range file.Media {
		if err := h.index(media); err != nil {
			return nil, err
		}
	}
	for instance, raw := range file.FrigateEvents {
		events, err := decodeEvents(raw)
		if err != nil {
			return nil, fmt.Errorf("frigate events of %s: %w", instance, err)
		}
		h.events[instance] = events
	}
	for _, id := range file.Fail {
		h.fail[id] = true
	}
	return h, nil
}

// index registers media and its descendants by content id.
func (h *Host) index(media *browse.Media) error {
	if media == nil {
		return nil
	}
	if media.MediaContentID == "" {
		return fmt.Errorf("media %q has no media_content_id", media.Title)
	}
	if _, dup := h.media[media.MediaContentID]; dup {
		return fmt.Errorf("duplicate media_content_id %q", media.MediaContentID)
	}
	h.media[media.MediaContentID] = media
	for _, child := range media.Children {
		if err := h.index(child); err != nil {
			return err
		}
	}
	return nil
}

func decodeEvents(raw []map[string]any) ([]frigate.Event, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var events []frigate.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetEntity implements hass.EntityRegistry.
func (h *Host) GetEntity(_ context.Context, entityID string) (*hass.Entity, error) {
	if h.fail[entityID] {
		return nil, fmt.Errorf("%w: %s", ErrInjected, entityID)
	}
	return h.entities[entityID], nil
}

// State implements hass.StateReader.
func (h *Host) State(entityID string) (*hass.State, bool) {
	state, ok := h.states[entityID]
	return state, ok
}

// Fetch implements browse.Fetcher without a request round trip.
func (h *Host) Fetch(ctx context.Context, contentID string) (*browse.Media, error) {
	h.record(contentID)
	return h.browse(contentID)
}

func (h *Host) browse(contentID string) (*browse.Media, error) {
	if h.fail[contentID] {
		return nil, fmt.Errorf("%w: %s", ErrInjected, contentID)
	}
	media, ok := h.media[contentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, contentID)
	}
	out := *media
	if media.Children != nil {
		out.Children = make([]*browse.Media, len(media.Children))
		for i, child := range media.Children {
			shallow := *child
			shallow.Children = nil
			out.Children[i] = &shallow
		}
	}
	return &out, nil
}

// Requests returns the content ids and request types seen so far, in
// order.
func (h *Host) Requests() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.requests)
}

func (h *Host) record(id string) {
	h.mu.Lock()
	h.requests = append(h.requests, id)
	h.mu.Unlock()
}

// Request implements hass.Requester. The request and the reply both go
// through JSON, as they would on the wire.
func (h *Host) Request(ctx context.Context, request any, response any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	h.record(envelope.Type)
	if h.fail[envelope.Type] {
		return fmt.Errorf("%w: %s", ErrInjected, envelope.Type)
	}

	reply, err := h.answer(envelope.Type, raw)
	if err != nil {
		return err
	}
	out, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("encode reply: %w", err)
	}
	return json.Unmarshal(out, response)
}

func (h *Host) answer(requestType string, raw []byte) (any, error) {
	switch requestType {
	case browse.BrowseRequestType:
		var req browse.BrowseRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, err
		}
		return h.browse(req.MediaContentID)

	case engine.ResolveRequestType:
		var req engine.ResolveRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, err
		}
		if h.fail[req.MediaContentID] {
			return nil, fmt.Errorf("%w: %s", ErrInjected, req.MediaContentID)
		}
		resolved, ok := h.resolve[req.MediaContentID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, req.MediaContentID)
		}
		return engine.ResolvedMedia{URL: resolved.URL, MimeType: resolved.MimeType}, nil

	case frigate.EventsRequestType:
		var req frigate.EventsRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, err
		}
		return encodeReply(h.frigateEvents(req), req.Decode)

	case frigate.EventsSummaryRequestType:
		var req frigate.EventsSummaryRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, err
		}
		return encodeReply(h.frigateSummary(req), req.Decode)

	default:
		return nil, fmt.Errorf("%w: request type %q", ErrNotFound, requestType)
	}
}

// encodeReply answers like the Frigate integration: a JSON document when
// asked to decode, a JSON string holding it otherwise.
func encodeReply(v any, decode bool) (any, error) {
	if decode {
		return v, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// frigateEvents filters like Frigate's events API, newest first.
func (h *Host) frigateEvents(req frigate.EventsRequest) []frigate.Event {
	labels := decodeList(req.Labels)
	zones := decodeList(req.Zones)
	subLabels := decodeList(req.SubLabels)

	out := make([]frigate.Event, 0)
	for _, event := range h.events[req.InstanceID] {
		switch {
		case req.Camera != "" && event.Camera != req.Camera,
			req.After != nil && event.StartTime < float64(*req.After),
			req.Before != nil && event.StartTime >= float64(*req.Before),
			req.HasClip != nil && event.HasClip != *req.HasClip,
			req.HasSnapshot != nil && event.HasSnapshot != *req.HasSnapshot,
			req.Favorites != nil && *req.Favorites && !event.Retained,
			len(labels) > 0 && !slices.Contains(labels, event.Label),
			len(subLabels) > 0 && !slices.Contains(subLabels, string(event.SubLabel)),
			len(zones) > 0 && !slices.ContainsFunc(event.Zones, func(z string) bool { return slices.Contains(zones, z) }):
			continue
		}
		out = append(out, event)
	}
	slices.SortStableFunc(out, func(a, b frigate.Event) int {
		switch {
		case a.StartTime > b.StartTime:
			return -1
		case a.StartTime < b.StartTime:
			return 1
		}
		return 0
	})
	if req.Limit > 0 && len(out) > req.Limit {
		out = out[:req.Limit]
	}
	return out
}

// frigateSummary counts events per camera, day, label, sub label and zone
// set, with days in the requested timezone.
func (h *Host) frigateSummary(req frigate.EventsSummaryRequest) []frigate.SummaryRow {
	loc := time.UTC
	if req.Timezone != "" {
		if l, err := time.LoadLocation(req.Timezone); err == nil {
			loc = l
		}
	}

	index := make(map[string]int)
	rows := make([]frigate.SummaryRow, 0)
	for _, event := range h.events[req.InstanceID] {
		day := time.UnixMilli(int64(event.StartTime * 1000)).In(loc).Format("2006-01-02")
		zones := slices.Clone(event.Zones)
		slices.Sort(zones)
		key := strings.Join([]string{event.Camera, day, event.Label, string(event.SubLabel), strings.Join(zones, ",")}, "|")

		if i, ok := index[key]; ok {
			rows[i].Count++
			continue
		}
		index[key] = len(rows)
		rows = append(rows, frigate.SummaryRow{
			Camera:   event.Camera,
			Day:      day,
			Label:    event.Label,
			SubLabel: event.SubLabel,
			Zones:    zones,
			Count:    1,
		})
	}
	return rows
}

func decodeList(s string) []string {
	if s == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return nil
	}
	return list
}

var (
	_ hass.Requester      = (*Host)(nil)
	_ hass.EntityRegistry = (*Host)(nil)
	_ hass.StateReader    = (*Host)(nil)
	_ browse.Fetcher      = (*Host)(nil)
)
