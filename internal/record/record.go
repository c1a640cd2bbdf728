// Package record persists controller input sessions: a Badger store
// for the high-rate frame stream, a SQLite catalog for browsing, and
// atomic JSON export for sharing runs between machines.
package record

import (
	"errors"
	"time"

	"github.com/ksurct/common/gamepad"
)

var (
	// ErrNotFound is returned when a recording ID is unknown.
	ErrNotFound = errors.New("recording not found")
	// ErrAlreadyRecording is returned by Start while a session is active.
	ErrAlreadyRecording = errors.New("a recording is already active")
	// ErrNoActiveRecording is returned by Stop with no session active.
	ErrNoActiveRecording = errors.New("no active recording")
)

// Recording status values stored in the catalog.
const (
	StatusRecording = "recording"
	StatusDone      = "done"
)

// Frame is one captured controller snapshot, stamped with its offset
// from the start of the recording.
type Frame struct {
	Seq      uint64           `json:"seq"`
	Offset   time.Duration    `json:"offset"`
	Snapshot gamepad.Snapshot `json:"snapshot"`
}

// Meta describes a recording in the catalog.
type Meta struct {
	ID         string     `json:"id"`
	Controller string     `json:"controller"`
	StartedAt  time.Time  `json:"startedAt"`
	StoppedAt  *time.Time `json:"stoppedAt,omitempty"`
	Frames     uint64     `json:"frames"`
	Status     string     `json:"status"`
}
