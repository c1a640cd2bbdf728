package gamepad

import (
	"strings"
	"time"
)

// EventType identifies the kind of device event.
type EventType uint8

const (
	// EventButton is a button press or release.
	EventButton EventType = iota + 1
	// EventAxis is an absolute axis motion.
	EventAxis
	// EventHat is a hat (d-pad) position change.
	EventHat
	// EventDevice is a device attach or detach.
	EventDevice
)

func (t EventType) String() string {
	switch t {
	case EventButton:
		return "button"
	case EventAxis:
		return "axis"
	case EventHat:
		return "hat"
	case EventDevice:
		return "device"
	default:
		return "unknown"
	}
}

// Event is a normalized device event. Number is the device-local
// button or axis index; Value carries the raw axis position, Pressed
// the button level, Hat the hat position.
type Event struct {
	Type    EventType
	When    time.Time
	Number  uint8
	Value   int16
	Pressed bool
	Hat     HatMask
}

// HatMask is a hat position bitmask. Bits follow the SDL hat
// convention so opposing directions never combine on real hardware.
type HatMask uint8

const (
	HatUp    HatMask = 1
	HatRight HatMask = 2
	HatDown  HatMask = 4
	HatLeft  HatMask = 8

	HatCentered HatMask = 0
)

// String renders the two-rune form used by the original tooling:
// vertical component then horizontal, space for none. "ul" is upper
// left, "d " straight down, "  " centered.
func (h HatMask) String() string {
	var b strings.Builder
	switch {
	case h&HatUp != 0:
		b.WriteByte('u')
	case h&HatDown != 0:
		b.WriteByte('d')
	default:
		b.WriteByte(' ')
	}
	switch {
	case h&HatRight != 0:
		b.WriteByte('r')
	case h&HatLeft != 0:
		b.WriteByte('l')
	default:
		b.WriteByte(' ')
	}
	return b.String()
}

// Label returns the trimmed form of String, empty for centered.
func (h HatMask) Label() string {
	return strings.TrimSpace(h.String())
}
