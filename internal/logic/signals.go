package logic

import "github.com/zoobzio/capitan"

// Monitor signals.
var (
	// BaselineEstablished is emitted on the first observation of the input.
	BaselineEstablished = capitan.NewSignal(
		"debouncer.baseline.established",
		"First observation adopted as output",
	)

	// OutputChanged is emitted when the debounced output changes.
	OutputChanged = capitan.NewSignal(
		"debouncer.output.changed",
		"Debounced output transition",
	)

	// DurationChanged is emitted when the debounce duration is replaced.
	DurationChanged = capitan.NewSignal(
		"debouncer.duration.changed",
		"Debounce duration updated",
	)

	// Resynchronized is emitted when the debouncer is reset to a known value.
	Resynchronized = capitan.NewSignal(
		"debouncer.reset",
		"Debouncer reset to a known state",
	)
)

// Field keys for monitor signals.
var (
	// KeyState is the debounced state after the signal.
	KeyState = capitan.NewStringKey("state")

	// KeyOldState is the state before a transition.
	KeyOldState = capitan.NewStringKey("old_state")

	// KeyEvent is the transition event type.
	KeyEvent = capitan.NewStringKey("event")

	// KeyEdge is the edge policy in use.
	KeyEdge = capitan.NewStringKey("edge")

	// KeyDebounce is the debounce duration.
	KeyDebounce = capitan.NewDurationKey("debounce")
)
