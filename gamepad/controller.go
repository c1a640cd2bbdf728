package gamepad

import (
	"fmt"
	"time"
)

// ButtonSlot names a logical button on the controller.
type ButtonSlot int

const (
	SlotA ButtonSlot = iota
	SlotB
	SlotX
	SlotY
	SlotLeftBumper
	SlotRightBumper
	SlotStart
	SlotSelect
	SlotCenter
	SlotLeftStick
	SlotRightStick
)

var buttonSlotNames = map[ButtonSlot]string{
	SlotA:           "a",
	SlotB:           "b",
	SlotX:           "x",
	SlotY:           "y",
	SlotLeftBumper:  "left_bumper",
	SlotRightBumper: "right_bumper",
	SlotStart:       "start",
	SlotSelect:      "select",
	SlotCenter:      "center",
	SlotLeftStick:   "left_stick",
	SlotRightStick:  "right_stick",
}

func (s ButtonSlot) String() string {
	if n, ok := buttonSlotNames[s]; ok {
		return n
	}
	return fmt.Sprintf("button_%d", int(s))
}

// AxisSlot names a logical axis on the controller.
type AxisSlot int

const (
	SlotLeftX AxisSlot = iota
	SlotLeftY
	SlotLeftTrigger
	SlotRightX
	SlotRightY
	SlotRightTrigger
)

var axisSlotNames = map[AxisSlot]string{
	SlotLeftX:        "left_x",
	SlotLeftY:        "left_y",
	SlotLeftTrigger:  "left_trigger",
	SlotRightX:       "right_x",
	SlotRightY:       "right_y",
	SlotRightTrigger: "right_trigger",
}

func (s AxisSlot) String() string {
	if n, ok := axisSlotNames[s]; ok {
		return n
	}
	return fmt.Sprintf("axis_%d", int(s))
}

// Mapping translates device-local button and axis indices to logical
// slots. Index i of each slice maps device index i; out-of-range
// indices are ignored during dispatch.
type Mapping struct {
	Buttons []ButtonSlot
	Axes    []AxisSlot
}

// XboxMapping is the stock layout for Xbox-class controllers.
func XboxMapping() Mapping {
	return Mapping{
		Buttons: []ButtonSlot{
			SlotA, SlotB, SlotX, SlotY,
			SlotLeftBumper, SlotRightBumper,
			SlotStart, SlotSelect, SlotCenter,
			SlotLeftStick, SlotRightStick,
		},
		Axes: []AxisSlot{
			SlotLeftX, SlotLeftY, SlotLeftTrigger,
			SlotRightX, SlotRightY, SlotRightTrigger,
		},
	}
}

// Snapshot is a read-only view of every control at one poll.
type Snapshot struct {
	Controller string             `json:"controller,omitempty"`
	Name       string             `json:"name,omitempty"`
	Seq        uint64             `json:"seq"`
	Time       time.Time          `json:"time"`
	Buttons    map[string]bool    `json:"buttons"`
	Axes       map[string]float64 `json:"axes"`
	DPad       string             `json:"dpad"`
	Connected  bool               `json:"connected"`
}

// Controller routes device events through swappable per-control state
// machines. Replace a slot to change its behavior:
//
//	c := gamepad.NewController(backend, gamepad.XboxMapping())
//	c.A = gamepad.NewToggleButton()
//	for {
//		if _, err := c.Update(); err != nil { ... }
//		if c.A.Take() { ... }
//	}
type Controller struct {
	A, B, X, Y              ButtonState
	LeftBumper, RightBumper ButtonState
	Start, Select, Center   ButtonState
	LeftStick, RightStick   ButtonState

	LeftX, LeftY   AxisState
	RightX, RightY AxisState
	LeftTrigger    AxisState
	RightTrigger   AxisState

	DPad HatState

	backend Backend
	mapping Mapping
	seq     uint64
}

// NewController wraps a backend with the default control states:
// current-level buttons, calibrated axes, latching triggers and an
// accumulating d-pad. Axes are zeroed from the backend's rest
// positions before the first poll.
func NewController(b Backend, m Mapping) *Controller {
	c := &Controller{
		A:            NewCurrentButton(),
		B:            NewCurrentButton(),
		X:            NewCurrentButton(),
		Y:            NewCurrentButton(),
		LeftBumper:   NewCurrentButton(),
		RightBumper:  NewCurrentButton(),
		Start:        NewCurrentButton(),
		Select:       NewCurrentButton(),
		Center:       NewCurrentButton(),
		LeftStick:    NewCurrentButton(),
		RightStick:   NewCurrentButton(),
		LeftX:        NewAxis(),
		LeftY:        NewAxis(),
		RightX:       NewAxis(),
		RightY:       NewAxis(),
		LeftTrigger:  NewPulledTrigger(),
		RightTrigger: NewPulledTrigger(),
		DPad:         NewDPadSwitches(),
		backend:      b,
		mapping:      m,
	}
	c.Zero()
	return c
}

// Name returns the backend device name.
func (c *Controller) Name() string { return c.backend.Name() }

// Seq returns the number of completed Update calls.
func (c *Controller) Seq() uint64 { return c.seq }

func (c *Controller) button(slot ButtonSlot) ButtonState {
	switch slot {
	case SlotA:
		return c.A
	case SlotB:
		return c.B
	case SlotX:
		return c.X
	case SlotY:
		return c.Y
	case SlotLeftBumper:
		return c.LeftBumper
	case SlotRightBumper:
		return c.RightBumper
	case SlotStart:
		return c.Start
	case SlotSelect:
		return c.Select
	case SlotCenter:
		return c.Center
	case SlotLeftStick:
		return c.LeftStick
	case SlotRightStick:
		return c.RightStick
	default:
		return nil
	}
}

func (c *Controller) axis(slot AxisSlot) AxisState {
	switch slot {
	case SlotLeftX:
		return c.LeftX
	case SlotLeftY:
		return c.LeftY
	case SlotLeftTrigger:
		return c.LeftTrigger
	case SlotRightX:
		return c.RightX
	case SlotRightY:
		return c.RightY
	case SlotRightTrigger:
		return c.RightTrigger
	default:
		return nil
	}
}

// Update drains pending backend events and dispatches them through
// the mapping. Events for unmapped indices are dropped. The drained
// events are returned for callers that track event rates.
func (c *Controller) Update() ([]Event, error) {
	evs, err := c.backend.Poll()
	if err != nil {
		return nil, fmt.Errorf("poll %s: %w", c.backend.Name(), err)
	}
	for _, ev := range evs {
		switch ev.Type {
		case EventButton:
			if int(ev.Number) < len(c.mapping.Buttons) {
				if st := c.button(c.mapping.Buttons[ev.Number]); st != nil {
					st.Apply(ev)
				}
			}
		case EventAxis:
			if int(ev.Number) < len(c.mapping.Axes) {
				if st := c.axis(c.mapping.Axes[ev.Number]); st != nil {
					st.Apply(ev)
				}
			}
		case EventHat:
			c.DPad.Apply(ev)
		}
	}
	c.seq++
	return evs, nil
}

// Zero recalibrates every axis slot from the backend's current raw
// positions.
func (c *Controller) Zero() {
	for i, slot := range c.mapping.Axes {
		if st := c.axis(slot); st != nil {
			st.Zero(c.backend.AxisRaw(i))
		}
	}
}

// Rumble plays a force feedback effect, if the backend supports one.
func (c *Controller) Rumble(strength float64, d time.Duration) error {
	return c.backend.Rumble(strength, d)
}

// Close releases the underlying device.
func (c *Controller) Close() error { return c.backend.Close() }

// Snapshot captures the current value of every control without
// clearing latched state.
func (c *Controller) Snapshot() Snapshot {
	snap := Snapshot{
		Name:      c.backend.Name(),
		Seq:       c.seq,
		Time:      time.Now(),
		Buttons:   make(map[string]bool, len(buttonSlotNames)),
		Axes:      make(map[string]float64, len(axisSlotNames)),
		DPad:      c.DPad.Mask().Label(),
		Connected: true,
	}
	for slot := range buttonSlotNames {
		if st := c.button(slot); st != nil {
			snap.Buttons[slot.String()] = st.Peek()
		}
	}
	for slot := range axisSlotNames {
		if st := c.axis(slot); st != nil {
			snap.Axes[slot.String()] = st.Peek()
		}
	}
	return snap
}
