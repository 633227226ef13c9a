package frigate

import (
	"encoding/json"
	"time"

	"github.com/richinex/periscope/engine"
)

// Host request types of the Frigate integration.
const (
	EventsRequestType        = "frigate/events/get"
	EventsSummaryRequestType = "frigate/events/summary"
)

// EventsRequest asks the Frigate integration for events of one camera.
// List filters are JSON-encoded arrays.
type EventsRequest struct {
	Type        string `json:"type"`
	InstanceID  string `json:"instance_id"`
	Camera      string `json:"camera"`
	After       *int64 `json:"after,omitempty"`
	Before      *int64 `json:"before,omitempty"`
	Limit       int    `json:"limit,omitempty"`
	HasClip     *bool  `json:"has_clip,omitempty"`
	HasSnapshot *bool  `json:"has_snapshot,omitempty"`
	Favorites   *bool  `json:"favorites,omitempty"`
	Labels      string `json:"labels,omitempty"`
	Zones       string `json:"zones,omitempty"`
	SubLabels   string `json:"sub_labels,omitempty"`
	Decode      bool   `json:"decode_json"`
}

// EventsSummaryRequest asks for per-day event counts of an instance.
type EventsSummaryRequest struct {
	Type       string `json:"type"`
	InstanceID string `json:"instance_id"`
	Timezone   string `json:"timezone,omitempty"`
	Decode     bool   `json:"decode_json"`
}

// Event is a Frigate event as the integration reports it.
type Event struct {
	ID          string   `json:"id"`
	Camera      string   `json:"camera"`
	Label       string   `json:"label"`
	SubLabel    SubLabel `json:"sub_label"`
	Zones       []string `json:"zones"`
	TopScore    *float64 `json:"top_score"`
	StartTime   float64  `json:"start_time"`
	EndTime     *float64 `json:"end_time"`
	HasClip     bool     `json:"has_clip"`
	HasSnapshot bool     `json:"has_snapshot"`
	Retained    bool     `json:"retain_indefinitely"`
}

// SubLabel is an event sub label. Older Frigate versions send a bare
// string; newer ones send [name, score].
type SubLabel string

// UnmarshalJSON accepts null, "name" and ["name", score].
func (s *SubLabel) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*s = SubLabel(name)
		return nil
	}

	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	*s = ""
	if len(pair) > 0 {
		if err := json.Unmarshal(pair[0], &name); err != nil {
			return err
		}
		*s = SubLabel(name)
	}
	return nil
}

// Native converts the event into the engine-neutral record.
func (e Event) Native() engine.NativeEvent {
	native := engine.NativeEvent{
		ID:          e.ID,
		Camera:      e.Camera,
		Label:       e.Label,
		SubLabel:    string(e.SubLabel),
		Zones:       e.Zones,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		HasClip:     e.HasClip,
		HasSnapshot: e.HasSnapshot,
		Retained:    e.Retained,
	}
	if e.TopScore != nil {
		native.TopScore = *e.TopScore
	}
	return native
}

// SummaryRow is one line of an events summary: events of one camera, day,
// label and zone set.
type SummaryRow struct {
	Camera   string   `json:"camera"`
	Day      string   `json:"day"`
	Label    string   `json:"label"`
	SubLabel SubLabel `json:"sub_label"`
	Zones    []string `json:"zones"`
	Count    int      `json:"count"`
}

// unixTime converts Frigate's fractional unix seconds.
func unixTime(seconds float64) time.Time {
	return time.UnixMilli(int64(seconds * 1000))
}
