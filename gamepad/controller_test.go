package gamepad

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestControllerDispatch(t *testing.T) {
	sim := NewSim("test-pad")
	c := NewController(sim, XboxMapping())

	sim.Press(0)             // A
	sim.Click(3)             // Y
	sim.MoveAxis(0, axisMax) // left_x
	sim.MoveHat(HatUp)

	evs, err := c.Update()
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(evs) != 5 {
		t.Fatalf("drained %d events, want 5", len(evs))
	}

	if !c.A.Peek() {
		t.Error("A should be pressed")
	}
	if c.Y.Peek() {
		t.Error("Y is level-triggered and should read released after click")
	}
	if got := c.LeftX.Peek(); got != 1 {
		t.Errorf("left_x = %v, want 1", got)
	}
	if got := c.DPad.Mask(); got != HatUp {
		t.Errorf("dpad = %v, want up", got)
	}
}

func TestControllerSwappableSlots(t *testing.T) {
	sim := NewSim("test-pad")
	c := NewController(sim, XboxMapping())
	c.Y = NewClickedButton()

	sim.Click(3)
	if _, err := c.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !c.Y.Take() {
		t.Fatal("clicked Y should latch across release")
	}
	if c.Y.Take() {
		t.Fatal("latch should clear after Take")
	}
}

func TestControllerZeroCalibration(t *testing.T) {
	sim := NewSim("test-pad")
	// Device rests with left stick drifted before the controller opens.
	sim.SetRaw(0, 1000)
	c := NewController(sim, XboxMapping())

	sim.MoveAxis(0, 1000)
	if _, err := c.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := c.LeftX.Peek(); got != 0 {
		t.Fatalf("drifted rest position should read 0 after calibration, got %v", got)
	}

	sim.MoveAxis(0, axisMax)
	if _, err := c.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := c.LeftX.Peek(); got != 1 {
		t.Fatalf("full deflection should still reach 1, got %v", got)
	}
}

func TestControllerUnmappedIndicesIgnored(t *testing.T) {
	sim := NewSim("test-pad")
	c := NewController(sim, XboxMapping())

	sim.Press(42)
	sim.MoveAxis(17, axisMax)
	if _, err := c.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	snap := c.Snapshot()
	for name, pressed := range snap.Buttons {
		if pressed {
			t.Errorf("button %s pressed by unmapped event", name)
		}
	}
}

func TestControllerPollError(t *testing.T) {
	sim := NewSim("test-pad")
	c := NewController(sim, XboxMapping())

	wantErr := errors.New("device gone")
	sim.FailNextPoll(wantErr)
	if _, err := c.Update(); !errors.Is(err, wantErr) {
		t.Fatalf("Update error = %v, want wrapped %v", err, wantErr)
	}
	// Error consumed, next poll succeeds
	if _, err := c.Update(); err != nil {
		t.Fatalf("Update after error: %v", err)
	}
}

func TestControllerRumble(t *testing.T) {
	sim := NewSim("test-pad")
	c := NewController(sim, XboxMapping())

	if err := c.Rumble(0.5, 200*time.Millisecond); err != nil {
		t.Fatalf("Rumble: %v", err)
	}
	calls := sim.Rumbles()
	if len(calls) != 1 || calls[0].Strength != 0.5 {
		t.Fatalf("rumble calls = %+v", calls)
	}
}

func TestControllerSnapshot(t *testing.T) {
	sim := NewSim("test-pad")
	c := NewController(sim, XboxMapping())

	sim.Press(1) // B
	sim.MoveAxis(3, axisMax)
	sim.MoveHat(HatDown | HatLeft)
	if _, err := c.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}

	snap := c.Snapshot()
	if snap.Name != "test-pad" || !snap.Connected {
		t.Fatalf("snapshot header = %+v", snap)
	}
	if snap.Seq != 1 {
		t.Fatalf("seq = %d, want 1", snap.Seq)
	}
	wantButtons := map[string]bool{
		"a": false, "b": true, "x": false, "y": false,
		"left_bumper": false, "right_bumper": false,
		"start": false, "select": false, "center": false,
		"left_stick": false, "right_stick": false,
	}
	if diff := cmp.Diff(wantButtons, snap.Buttons); diff != "" {
		t.Errorf("buttons mismatch (-want +got):\n%s", diff)
	}
	if got := snap.Axes["right_x"]; got != 1 {
		t.Errorf("right_x = %v, want 1", got)
	}
	if snap.DPad != "dl" {
		t.Errorf("dpad = %q, want %q", snap.DPad, "dl")
	}
}
