package engine

import (
	"fmt"
	"strings"
)

// Kind identifies a camera engine.
type Kind int

const (
	// KindGeneric serves cameras that only have a live entity or stream.
	KindGeneric Kind = iota
	// KindFrigate serves Frigate NVR cameras through Frigate's own API.
	KindFrigate
	// KindMotionEye serves MotionEye cameras by walking the media tree.
	KindMotionEye
	// KindReolink serves Reolink cameras by walking the media tree.
	KindReolink
)

// Kinds lists every engine kind.
var Kinds = []Kind{KindGeneric, KindFrigate, KindMotionEye, KindReolink}

// String returns the config name of the kind.
func (k Kind) String() string {
	switch k {
	case KindGeneric:
		return "generic"
	case KindFrigate:
		return "frigate"
	case KindMotionEye:
		return "motioneye"
	case KindReolink:
		return "reolink"
	default:
		return "unknown"
	}
}

// Icon returns the default icon for cameras of this kind.
func (k Kind) Icon() string {
	switch k {
	case KindFrigate:
		return "frigate"
	case KindMotionEye:
		return "motioneye"
	case KindReolink:
		return "reolink"
	default:
		return "mdi:video"
	}
}

// ParseKind parses a kind from its config name (case-insensitive).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "generic":
		return KindGeneric, nil
	case "frigate":
		return KindFrigate, nil
	case "motioneye":
		return KindMotionEye, nil
	case "reolink":
		return KindReolink, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownEngine, s)
	}
}

// kindForPlatform maps an entity registry platform to an engine. Cameras
// from any other integration are served generically.
func kindForPlatform(platform string) Kind {
	switch platform {
	case "frigate":
		return KindFrigate
	case "motioneye":
		return KindMotionEye
	case "reolink":
		return KindReolink
	default:
		return KindGeneric
	}
}
