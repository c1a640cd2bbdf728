//go:build linux

package joydev

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ksurct/common/gamepad"
)

// Device is a gamepad.Backend over one /dev/input/jsN node.
type Device struct {
	f    *os.File
	path string
	name string
	tr   translator
	buf  [recordSize]byte
}

// Open opens a joystick node and drains the kernel's initial state
// records so axis calibration reads are valid before the first Poll.
func Open(path string) (*Device, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("joydev: open %s: %w", path, err)
	}

	d := &Device{f: f, path: path, name: sysfsName(path)}

	// The kernel replays current state as init-flagged records on
	// open. Fold them into the translator now.
	if _, err := d.Poll(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return d, nil
}

// sysfsName resolves the device's advertised name via sysfs, falling
// back to the node basename.
func sysfsName(path string) string {
	base := filepath.Base(path)
	b, err := os.ReadFile(filepath.Join("/sys/class/input", base, "device/name"))
	if err != nil {
		return base
	}
	name := strings.TrimSpace(string(b))
	if name == "" {
		return base
	}
	return name
}

func (d *Device) Name() string { return d.name }

// Poll drains all pending records without blocking.
func (d *Device) Poll() ([]gamepad.Event, error) {
	if err := d.f.SetReadDeadline(time.Now()); err != nil {
		return nil, fmt.Errorf("joydev: set deadline: %w", err)
	}

	var evs []gamepad.Event
	for {
		_, err := io.ReadFull(d.f, d.buf[:])
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				return evs, nil
			}
			return evs, fmt.Errorf("joydev: read %s: %w", d.path, err)
		}
		rec, err := decodeRecord(d.buf[:])
		if err != nil {
			return evs, err
		}
		if ev, ok := d.tr.translate(rec); ok {
			evs = append(evs, ev)
		}
	}
}

func (d *Device) AxisRaw(axis int) int16 { return d.tr.axisRaw(axis) }

// Rumble is unsupported: the joystick interface carries no force
// feedback; that needs the evdev ff API.
func (d *Device) Rumble(float64, time.Duration) error {
	return gamepad.ErrRumbleUnsupported
}

func (d *Device) Close() error { return d.f.Close() }

var _ gamepad.Backend = (*Device)(nil)
