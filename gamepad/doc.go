// Package gamepad provides event-driven state tracking for game
// controllers. A Backend delivers raw device events; Controller routes
// them through per-control state machines (current, toggle, clicked
// buttons; calibrated axes; latched triggers; hat switches) that
// callers can swap per slot.
//
// Control state follows read-and-clear semantics: Take returns the
// accumulated value and resets latched state, Peek reads without
// side effects.
package gamepad
