package gamepad

import "math"

// Axis raw range of the joystick interface.
const (
	axisMax = 32767
	axisMin = -32768
)

// deadZone is the absolute tolerance around zero below which a
// normalized axis value reads as exactly 0.
const deadZone = 0.04

// pullThreshold is the normalized trigger level that counts as a pull.
const pullThreshold = 0.9

// ButtonState tracks a single button across events.
type ButtonState interface {
	Apply(Event)
	// Peek reads the current value without clearing latched state.
	Peek() bool
	// Take reads the value and clears latched state.
	Take() bool
	Reset()
}

// AxisState tracks a single absolute axis across events.
type AxisState interface {
	Apply(Event)
	Peek() float64
	Take() float64
	Reset()
	// Zero recalibrates the state around the given raw rest position.
	Zero(raw int16)
}

// HatState tracks the hat (d-pad) across events.
type HatState interface {
	Apply(Event)
	// Mask returns the current position, or the union of positions
	// seen since the last Take for accumulating implementations.
	Mask() HatMask
	// Take returns the distinct positions observed and clears them.
	Take() []HatMask
	Reset()
}

// CurrentButton reports the level of the button at poll time.
type CurrentButton struct {
	pressed bool
}

// NewCurrentButton returns a level-triggered button state.
func NewCurrentButton() *CurrentButton { return &CurrentButton{} }

func (b *CurrentButton) Apply(ev Event) {
	if ev.Type == EventButton {
		b.pressed = ev.Pressed
	}
}

func (b *CurrentButton) Peek() bool { return b.pressed }

// Take returns the current level. Level state has nothing to clear.
func (b *CurrentButton) Take() bool { return b.pressed }

func (b *CurrentButton) Reset() { b.pressed = false }

// ToggleButton flips its value on every press.
type ToggleButton struct {
	on bool
}

// NewToggleButton returns a two-state toggle button.
func NewToggleButton() *ToggleButton { return &ToggleButton{} }

func (b *ToggleButton) Apply(ev Event) {
	if ev.Type == EventButton && ev.Pressed {
		b.on = !b.on
	}
}

func (b *ToggleButton) Peek() bool { return b.on }

func (b *ToggleButton) Take() bool {
	v := b.on
	b.on = false
	return v
}

func (b *ToggleButton) Reset() { b.on = false }

// ClickedButton latches true once the button has been pressed since
// the last Take.
type ClickedButton struct {
	clicked bool
}

// NewClickedButton returns a press-latching button state.
func NewClickedButton() *ClickedButton { return &ClickedButton{} }

func (b *ClickedButton) Apply(ev Event) {
	if ev.Type == EventButton && ev.Pressed {
		b.clicked = true
	}
}

func (b *ClickedButton) Peek() bool { return b.clicked }

func (b *ClickedButton) Take() bool {
	v := b.clicked
	b.clicked = false
	return v
}

func (b *ClickedButton) Reset() { b.clicked = false }

// Axis normalizes a raw axis to [-1, 1] around a calibrated rest
// offset. Positive and negative half-ranges scale independently so a
// drifting rest position still reaches both extremes.
type Axis struct {
	raw  int16
	zero int16
}

// NewAxis returns a calibratable decimal axis state.
func NewAxis() *Axis { return &Axis{} }

func (a *Axis) Apply(ev Event) {
	if ev.Type == EventAxis {
		a.raw = ev.Value
	}
}

func (a *Axis) Peek() float64 {
	normal := float64(a.raw) - float64(a.zero)
	if a.raw > 0 {
		normal /= float64(axisMax) - float64(a.zero)
	} else {
		normal = -normal / (float64(axisMin) - float64(a.zero))
	}
	if math.Abs(normal) <= deadZone {
		return 0
	}
	return normal
}

// Take returns the current value; a plain axis has no latched state.
func (a *Axis) Take() float64 { return a.Peek() }

func (a *Axis) Reset() { a.raw = 0 }

func (a *Axis) Zero(raw int16) { a.zero = raw }

// Trigger normalizes a raw axis to [0, 1] across the full range.
type Trigger struct {
	raw int16
}

// NewTrigger returns a decimal trigger state.
func NewTrigger() *Trigger { return &Trigger{} }

func (t *Trigger) Apply(ev Event) {
	if ev.Type == EventAxis {
		t.raw = ev.Value
	}
}

func (t *Trigger) Peek() float64 {
	return (float64(t.raw) - axisMin) / (float64(axisMax) - axisMin)
}

func (t *Trigger) Take() float64 { return t.Peek() }

func (t *Trigger) Reset() { t.raw = 0 }

// Zero is a no-op: triggers rest at their physical minimum.
func (t *Trigger) Zero(int16) {}

// PulledTrigger is a Trigger that additionally latches once the level
// exceeds the pull threshold.
type PulledTrigger struct {
	Trigger
	pulled bool
}

// NewPulledTrigger returns a latching trigger state.
func NewPulledTrigger() *PulledTrigger { return &PulledTrigger{} }

func (t *PulledTrigger) Apply(ev Event) {
	t.Trigger.Apply(ev)
	if t.Trigger.Peek() > pullThreshold {
		t.pulled = true
	}
}

// Pulled reports whether the trigger has been pulled since the last
// TakePulled, without clearing.
func (t *PulledTrigger) Pulled() bool { return t.pulled }

// TakePulled reads and clears the pull latch.
func (t *PulledTrigger) TakePulled() bool {
	v := t.pulled
	t.pulled = false
	return v
}

func (t *PulledTrigger) Reset() {
	t.Trigger.Reset()
	t.pulled = false
}

// DPad reports the current hat position.
type DPad struct {
	mask HatMask
}

// NewDPad returns a hat state tracking the current position.
func NewDPad() *DPad { return &DPad{} }

func (d *DPad) Apply(ev Event) {
	if ev.Type == EventHat {
		d.mask = ev.Hat
	}
}

func (d *DPad) Mask() HatMask { return d.mask }

// Take returns the current position without clearing it.
func (d *DPad) Take() []HatMask { return []HatMask{d.mask} }

func (d *DPad) Reset() { d.mask = HatCentered }

// DPadSwitches accumulates the distinct hat positions seen since the
// last Take, in order of first occurrence.
type DPadSwitches struct {
	current HatMask
	seen    []HatMask
}

// NewDPadSwitches returns an accumulating hat state.
func NewDPadSwitches() *DPadSwitches { return &DPadSwitches{} }

func (d *DPadSwitches) Apply(ev Event) {
	if ev.Type != EventHat {
		return
	}
	d.current = ev.Hat
	for _, m := range d.seen {
		if m == ev.Hat {
			return
		}
	}
	d.seen = append(d.seen, ev.Hat)
}

// Mask returns the union of positions seen since the last Take.
func (d *DPadSwitches) Mask() HatMask {
	var u HatMask
	for _, m := range d.seen {
		u |= m
	}
	return u
}

func (d *DPadSwitches) Take() []HatMask {
	out := d.seen
	d.seen = nil
	return out
}

func (d *DPadSwitches) Reset() {
	d.current = HatCentered
	d.seen = nil
}
