package gamepad

import (
	"sync"
	"time"
)

// RumbleCall records one Rumble invocation on a Sim backend.
type RumbleCall struct {
	Strength float64
	Duration time.Duration
}

// Sim is an in-memory Backend driven by explicit calls. It backs
// tests and the daemon's simulation mode.
type Sim struct {
	mu      sync.Mutex
	name    string
	queue   []Event
	raw     map[int]int16
	rumbles []RumbleCall
	pollErr error
	closed  bool
}

// NewSim returns a simulated device with the given name.
func NewSim(name string) *Sim {
	return &Sim{name: name, raw: make(map[int]int16)}
}

func (s *Sim) Name() string { return s.name }

// Press enqueues a press event for the given device button index.
func (s *Sim) Press(button uint8) {
	s.push(Event{Type: EventButton, When: time.Now(), Number: button, Pressed: true})
}

// Release enqueues a release event for the given device button index.
func (s *Sim) Release(button uint8) {
	s.push(Event{Type: EventButton, When: time.Now(), Number: button, Pressed: false})
}

// Click enqueues a press immediately followed by a release.
func (s *Sim) Click(button uint8) {
	s.Press(button)
	s.Release(button)
}

// MoveAxis enqueues an absolute axis motion and updates the raw
// position reported by AxisRaw.
func (s *Sim) MoveAxis(axis uint8, value int16) {
	s.mu.Lock()
	s.raw[int(axis)] = value
	s.mu.Unlock()
	s.push(Event{Type: EventAxis, When: time.Now(), Number: axis, Value: value})
}

// MoveHat enqueues a hat position change.
func (s *Sim) MoveHat(mask HatMask) {
	s.push(Event{Type: EventHat, When: time.Now(), Hat: mask})
}

// Inject enqueues an arbitrary event.
func (s *Sim) Inject(ev Event) { s.push(ev) }

// SetRaw sets a raw axis position without emitting an event.
func (s *Sim) SetRaw(axis int, value int16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw[axis] = value
}

// FailNextPoll makes the next Poll return err once.
func (s *Sim) FailNextPoll(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pollErr = err
}

func (s *Sim) push(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, ev)
}

func (s *Sim) Poll() ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if err := s.pollErr; err != nil {
		s.pollErr = nil
		return nil, err
	}
	evs := s.queue
	s.queue = nil
	return evs, nil
}

func (s *Sim) AxisRaw(axis int) int16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raw[axis]
}

func (s *Sim) Rumble(strength float64, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rumbles = append(s.rumbles, RumbleCall{Strength: strength, Duration: d})
	return nil
}

// Rumbles returns the rumble calls recorded so far.
func (s *Sim) Rumbles() []RumbleCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RumbleCall, len(s.rumbles))
	copy(out, s.rumbles)
	return out
}

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
