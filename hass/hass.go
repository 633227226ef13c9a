// Package hass declares the host platform capabilities the camera layer
// consumes: a request primitive, the entity registry and live state.
//
// The wire transport behind Requester is provided by the embedding
// application. Package fixture provides a file-backed implementation for
// the CLI and tests.
package hass

import "context"

// Requester sends one request to the host and decodes its reply into
// response. Implementations may fail for any remote reason.
type Requester interface {
	Request(ctx context.Context, request any, response any) error
}

// RequesterFunc adapts a function to Requester.
type RequesterFunc func(ctx context.Context, request any, response any) error

// Request calls f.
func (f RequesterFunc) Request(ctx context.Context, request any, response any) error {
	return f(ctx, request, response)
}

// Entity is an entity registry record.
type Entity struct {
	EntityID      string `json:"entity_id" yaml:"entity_id"`
	Platform      string `json:"platform" yaml:"platform"`
	DeviceID      string `json:"device_id,omitempty" yaml:"device_id"`
	ConfigEntryID string `json:"config_entry_id,omitempty" yaml:"config_entry_id"`
	UniqueID      string `json:"unique_id,omitempty" yaml:"unique_id"`
}

// EntityRegistry looks up registry records. A nil entity with a nil error
// means the entity is not registered.
type EntityRegistry interface {
	GetEntity(ctx context.Context, entityID string) (*Entity, error)
}

// State is the live state of an entity.
type State struct {
	EntityID   string         `json:"entity_id" yaml:"entity_id"`
	State      string         `json:"state" yaml:"state"`
	Attributes map[string]any `json:"attributes,omitempty" yaml:"attributes"`
}

// FriendlyName returns the friendly_name attribute, or "".
func (s *State) FriendlyName() string {
	return s.stringAttribute("friendly_name")
}

// Icon returns the icon attribute, or "".
func (s *State) Icon() string {
	return s.stringAttribute("icon")
}

func (s *State) stringAttribute(name string) string {
	if s == nil {
		return ""
	}
	v, _ := s.Attributes[name].(string)
	return v
}

// StateReader reads live entity state.
type StateReader interface {
	State(entityID string) (*State, bool)
}
