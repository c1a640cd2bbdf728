// Package joydev reads the Linux kernel joystick interface
// (/dev/input/jsN) and converts its records to gamepad events. The
// interface emits fixed 8-byte records; decoding is pure and shared
// with tests on every platform.
package joydev

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/ksurct/common/gamepad"
)

// Kernel joystick record layout: u32 time (ms), s16 value, u8 type,
// u8 number. Little-endian on every platform the kernel supports.
const recordSize = 8

// Record types from linux/joystick.h.
const (
	typeButton = 0x01
	typeAxis   = 0x02
	typeInit   = 0x80
)

// xpad exposes the d-pad as two extra axes past the six analog ones.
const (
	hatAxisX = 6
	hatAxisY = 7
)

const maxAxes = 16

type record struct {
	time   uint32
	value  int16
	typ    uint8
	number uint8
}

func decodeRecord(b []byte) (record, error) {
	if len(b) < recordSize {
		return record{}, fmt.Errorf("joydev: short record: %d bytes", len(b))
	}
	return record{
		time:   binary.LittleEndian.Uint32(b[0:4]),
		value:  int16(binary.LittleEndian.Uint16(b[4:6])),
		typ:    b[6],
		number: b[7],
	}, nil
}

// translator folds hat axis pairs into HatMask events and keeps the
// last raw position of every axis for calibration reads. Records
// carrying the init flag seed state the same way live records do.
type translator struct {
	hatX, hatY int16
	axes       [maxAxes]int16
}

func (tr *translator) hatMask() gamepad.HatMask {
	var m gamepad.HatMask
	switch {
	case tr.hatY < 0:
		m |= gamepad.HatUp
	case tr.hatY > 0:
		m |= gamepad.HatDown
	}
	switch {
	case tr.hatX > 0:
		m |= gamepad.HatRight
	case tr.hatX < 0:
		m |= gamepad.HatLeft
	}
	return m
}

// translate converts one record to an event. The second return is
// false for records that produce no event (unknown types).
func (tr *translator) translate(rec record) (gamepad.Event, bool) {
	when := time.Now()
	switch rec.typ &^ typeInit {
	case typeButton:
		return gamepad.Event{
			Type:    gamepad.EventButton,
			When:    when,
			Number:  rec.number,
			Pressed: rec.value != 0,
		}, true
	case typeAxis:
		switch rec.number {
		case hatAxisX:
			tr.hatX = rec.value
			return gamepad.Event{Type: gamepad.EventHat, When: when, Hat: tr.hatMask()}, true
		case hatAxisY:
			tr.hatY = rec.value
			return gamepad.Event{Type: gamepad.EventHat, When: when, Hat: tr.hatMask()}, true
		default:
			if int(rec.number) < maxAxes {
				tr.axes[rec.number] = rec.value
			}
			return gamepad.Event{
				Type:   gamepad.EventAxis,
				When:   when,
				Number: rec.number,
				Value:  rec.value,
			}, true
		}
	default:
		return gamepad.Event{}, false
	}
}

func (tr *translator) axisRaw(axis int) int16 {
	if axis < 0 || axis >= maxAxes {
		return 0
	}
	return tr.axes[axis]
}
