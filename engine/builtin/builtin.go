// Package builtin registers the engines shipped with periscope.
package builtin

import (
	"github.com/richinex/periscope/engine"
	"github.com/richinex/periscope/engine/frigate"
	"github.com/richinex/periscope/engine/generic"
	"github.com/richinex/periscope/engine/motioneye"
	"github.com/richinex/periscope/engine/reolink"
	"github.com/richinex/periscope/hass"
)

// Constructors returns a constructor for every engine kind.
func Constructors() map[engine.Kind]engine.Constructor {
	return map[engine.Kind]engine.Constructor{
		engine.KindGeneric:   generic.New,
		engine.KindFrigate:   frigate.New,
		engine.KindMotionEye: motioneye.New,
		engine.KindReolink:   reolink.New,
	}
}

// NewFactory creates a factory over the built-in engines.
func NewFactory(registry hass.EntityRegistry, states hass.StateReader) *engine.Factory {
	return engine.NewFactory(registry, states, Constructors())
}
