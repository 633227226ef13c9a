package engine

import (
	"slices"

	"github.com/richinex/periscope/model"
)

// Capability is something a camera can do.
type Capability string

const (
	CapabilityLive                Capability = "live"
	CapabilityClips               Capability = "clips"
	CapabilitySnapshots           Capability = "snapshots"
	CapabilityRecordings          Capability = "recordings"
	CapabilityFavoriteEvents      Capability = "favorite-events"
	CapabilityFavoriteRecordings  Capability = "favorite-recordings"
	CapabilitySeek                Capability = "seek"
	CapabilityMenu                Capability = "menu"
	CapabilitySubstream           Capability = "substream"
	CapabilityTrigger             Capability = "trigger"
	CapabilityRemoteControlEntity Capability = "remote-control-entity"
)

// Capabilities is the effective capability set of one camera: what its
// engine supports, minus what the user disabled.
type Capabilities struct {
	set map[Capability]struct{}
}

// NewCapabilities applies the user's disable and disable_except lists to
// the engine's base capabilities. disable_except, when set, keeps only the
// listed capabilities.
func NewCapabilities(base []Capability, cfg model.CapabilitiesConfig) *Capabilities {
	set := make(map[Capability]struct{}, len(base))
	for _, c := range base {
		if slices.Contains(cfg.Disable, string(c)) {
			continue
		}
		if len(cfg.DisableExcept) > 0 && !slices.Contains(cfg.DisableExcept, string(c)) {
			continue
		}
		set[c] = struct{}{}
	}
	return &Capabilities{set: set}
}

// Has reports whether c is enabled.
func (c *Capabilities) Has(capability Capability) bool {
	if c == nil {
		return false
	}
	_, ok := c.set[capability]
	return ok
}

// List returns the enabled capabilities in sorted order.
func (c *Capabilities) List() []Capability {
	if c == nil {
		return nil
	}
	out := make([]Capability, 0, len(c.set))
	for capability := range c.set {
		out = append(out, capability)
	}
	slices.Sort(out)
	return out
}
