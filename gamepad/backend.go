package gamepad

import (
	"errors"
	"time"
)

// ErrRumbleUnsupported is returned by backends without force feedback.
var ErrRumbleUnsupported = errors.New("gamepad: rumble not supported by backend")

// ErrClosed is returned when polling a closed backend.
var ErrClosed = errors.New("gamepad: backend closed")

// Backend delivers raw events for a single device. Implementations
// must tolerate Poll being called from a single goroutine at a time.
type Backend interface {
	// Name returns the human-readable device name.
	Name() string

	// Poll returns the events that occurred since the previous call.
	// An empty slice with nil error means no pending events.
	Poll() ([]Event, error)

	// AxisRaw returns the last known raw position of the given axis.
	// Used for rest-position calibration.
	AxisRaw(axis int) int16

	// Rumble plays a force feedback effect of the given strength
	// (0..1) for the given duration.
	Rumble(strength float64, d time.Duration) error

	Close() error
}
