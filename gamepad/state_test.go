package gamepad

import (
	"math"
	"testing"
)

func buttonEvent(pressed bool) Event {
	return Event{Type: EventButton, Pressed: pressed}
}

func axisEvent(value int16) Event {
	return Event{Type: EventAxis, Value: value}
}

func hatEvent(mask HatMask) Event {
	return Event{Type: EventHat, Hat: mask}
}

func TestCurrentButton(t *testing.T) {
	b := NewCurrentButton()
	if b.Peek() {
		t.Fatal("expected released at start")
	}
	b.Apply(buttonEvent(true))
	if !b.Peek() {
		t.Fatal("expected pressed")
	}
	// Take does not clear level state
	if !b.Take() || !b.Peek() {
		t.Fatal("Take must not clear a level-triggered button")
	}
	b.Apply(buttonEvent(false))
	if b.Peek() {
		t.Fatal("expected released after release event")
	}
}

func TestToggleButton(t *testing.T) {
	b := NewToggleButton()
	b.Apply(buttonEvent(true))
	if !b.Peek() {
		t.Fatal("expected on after first press")
	}
	// Release must not toggle
	b.Apply(buttonEvent(false))
	if !b.Peek() {
		t.Fatal("release must not toggle")
	}
	b.Apply(buttonEvent(true))
	if b.Peek() {
		t.Fatal("expected off after second press")
	}
	b.Apply(buttonEvent(true))
	if !b.Take() {
		t.Fatal("expected on")
	}
	if b.Peek() {
		t.Fatal("Take must clear toggle state")
	}
}

func TestClickedButton(t *testing.T) {
	b := NewClickedButton()
	b.Apply(buttonEvent(true))
	b.Apply(buttonEvent(false))
	if !b.Peek() {
		t.Fatal("click must latch across release")
	}
	if !b.Take() {
		t.Fatal("expected latched click")
	}
	if b.Take() {
		t.Fatal("latch must clear after Take")
	}
}

func TestAxisNormalization(t *testing.T) {
	tests := []struct {
		name string
		zero int16
		raw  int16
		want float64
	}{
		{"full positive", 0, axisMax, 1},
		{"full negative", 0, axisMin, -1},
		{"rest", 0, 0, 0},
		{"dead zone swallows drift", 0, 1200, 0},
		{"just outside dead zone", 0, 1700, 1700.0 / axisMax},
		{"calibrated full positive", 1000, axisMax, 1},
		{"calibrated rest", 1000, 1000, 0},
		{"negative half range", 0, -16384, -16384.0 / 32768.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAxis()
			a.Zero(tt.zero)
			a.Apply(axisEvent(tt.raw))
			got := a.Peek()
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("Peek() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTriggerRange(t *testing.T) {
	tr := NewTrigger()
	if got := tr.Peek(); math.Abs(got-0.5) > 0.01 {
		t.Fatalf("raw 0 should read near mid-range, got %v", got)
	}
	tr.Apply(axisEvent(axisMin))
	if got := tr.Peek(); got != 0 {
		t.Fatalf("released trigger = %v, want 0", got)
	}
	tr.Apply(axisEvent(axisMax))
	if got := tr.Peek(); got != 1 {
		t.Fatalf("full trigger = %v, want 1", got)
	}
}

func TestPulledTriggerLatch(t *testing.T) {
	tr := NewPulledTrigger()
	tr.Apply(axisEvent(axisMin))
	if tr.Pulled() {
		t.Fatal("released trigger must not latch")
	}
	// 0.85 of range, below threshold
	subThreshold := float64(axisMin) + 0.85*65535
	tr.Apply(axisEvent(int16(subThreshold)))
	if tr.Pulled() {
		t.Fatal("sub-threshold pull must not latch")
	}
	tr.Apply(axisEvent(axisMax))
	if !tr.Pulled() {
		t.Fatal("full pull must latch")
	}
	// Latch holds after the trigger is released
	tr.Apply(axisEvent(axisMin))
	if !tr.TakePulled() {
		t.Fatal("latch must survive release until taken")
	}
	if tr.Pulled() {
		t.Fatal("TakePulled must clear the latch")
	}
	if got := tr.Peek(); got != 0 {
		t.Fatalf("decimal level = %v, want 0 after release", got)
	}
}

func TestHatMaskString(t *testing.T) {
	tests := []struct {
		mask HatMask
		want string
	}{
		{HatCentered, "  "},
		{HatUp, "u "},
		{HatDown, "d "},
		{HatUp | HatLeft, "ul"},
		{HatUp | HatRight, "ur"},
		{HatDown | HatLeft, "dl"},
		{HatRight, " r"},
	}
	for _, tt := range tests {
		if got := tt.mask.String(); got != tt.want {
			t.Errorf("HatMask(%d).String() = %q, want %q", tt.mask, got, tt.want)
		}
	}
	if got := (HatUp | HatLeft).Label(); got != "ul" {
		t.Errorf("Label() = %q, want %q", got, "ul")
	}
}

func TestDPadCurrent(t *testing.T) {
	d := NewDPad()
	d.Apply(hatEvent(HatUp | HatRight))
	if d.Mask() != HatUp|HatRight {
		t.Fatalf("Mask() = %v, want up|right", d.Mask())
	}
	d.Apply(hatEvent(HatCentered))
	if d.Mask() != HatCentered {
		t.Fatal("expected centered")
	}
}

func TestDPadSwitchesAccumulate(t *testing.T) {
	d := NewDPadSwitches()
	d.Apply(hatEvent(HatUp))
	d.Apply(hatEvent(HatUp)) // duplicate, must not repeat
	d.Apply(hatEvent(HatUp | HatLeft))
	d.Apply(hatEvent(HatCentered))

	seen := d.Take()
	want := []HatMask{HatUp, HatUp | HatLeft, HatCentered}
	if len(seen) != len(want) {
		t.Fatalf("Take() = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("Take()[%d] = %v, want %v", i, seen[i], want[i])
		}
	}
	if got := d.Take(); len(got) != 0 {
		t.Fatalf("second Take() = %v, want empty", got)
	}
}
