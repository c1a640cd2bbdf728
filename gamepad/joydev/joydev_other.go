//go:build !linux

package joydev

import (
	"errors"
	"time"

	"github.com/ksurct/common/gamepad"
)

// ErrUnsupported is returned by Open on platforms without the kernel
// joystick interface.
var ErrUnsupported = errors.New("joydev: only supported on linux")

// Device is a stub on non-linux platforms.
type Device struct{}

// Open always fails off linux; use the sim backend instead.
func Open(string) (*Device, error) { return nil, ErrUnsupported }

func (d *Device) Name() string                   { return "" }
func (d *Device) Poll() ([]gamepad.Event, error) { return nil, ErrUnsupported }
func (d *Device) AxisRaw(int) int16              { return 0 }
func (d *Device) Rumble(float64, time.Duration) error {
	return ErrUnsupported
}
func (d *Device) Close() error { return nil }

var _ gamepad.Backend = (*Device)(nil)
