package logic

import (
	"fmt"
	"math"
	"time"

	"github.com/sweeney/input-debouncer/internal/timer"
	"github.com/zoobzio/clockz"
)

// Debouncer filters bounces out of a single boolean input stream.
// It must be polled periodically with the latest raw value. Since it has
// memory, use a separate instance for each input stream. Not safe for
// concurrent use.
type Debouncer struct {
	duration time.Duration
	timer    *timer.Timer
	previous Observation
	output   Observation
}

// New creates a Debouncer that confirms a new value once it has persisted
// for d. A nil clock uses the real clock.
func New(d time.Duration, clock clockz.Clock) (*Debouncer, error) {
	if err := validateDuration(d); err != nil {
		return nil, err
	}
	return &Debouncer{
		duration: d,
		timer:    timer.New(clock),
	}, nil
}

// NewMillis is New with the debounce duration given in (fractional)
// milliseconds.
func NewMillis(ms float64, clock clockz.Clock) (*Debouncer, error) {
	d, err := MillisToDuration(ms)
	if err != nil {
		return nil, err
	}
	return New(d, clock)
}

// MillisToDuration converts a non-negative millisecond count to a Duration.
func MillisToDuration(ms float64) (time.Duration, error) {
	if math.IsNaN(ms) || ms < 0 {
		return 0, fmt.Errorf("%w: debounce duration %v ms cannot be negative", ErrInvalidArgument, ms)
	}
	if ms > float64(math.MaxInt64)/float64(time.Millisecond) {
		return 0, fmt.Errorf("%w: debounce duration %v ms is out of range", ErrInvalidArgument, ms)
	}
	return time.Duration(ms * float64(time.Millisecond)), nil
}

func validateDuration(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%w: debounce duration %v cannot be negative", ErrInvalidArgument, d)
	}
	return nil
}

// Duration returns the configured debounce duration.
func (d *Debouncer) Duration() time.Duration {
	return d.duration
}

// SetDuration replaces the debounce duration. A negative value is rejected
// and the previous duration kept.
func (d *Debouncer) SetDuration(v time.Duration) error {
	if err := validateDuration(v); err != nil {
		return err
	}
	d.duration = v
	return nil
}

// Debounce debounces both edges (false to true and true to false) and
// returns the confirmed output.
//
// The first call adopts newValue as the output immediately. Afterwards a
// changed value restarts the window, and the output follows only once the
// value has stayed the same for the debounce duration.
func (d *Debouncer) Debounce(newValue bool) (bool, error) {
	if err := validateDuration(d.duration); err != nil {
		return false, err
	}
	d.debounce(newValue)
	return d.output.value, nil
}

func (d *Debouncer) debounce(newValue bool) {
	prev, ok := d.previous.Value()
	switch {
	case !ok:
		d.output = Observed(newValue)
		d.timer.ResetAndStart()
	case prev != newValue:
		d.timer.ResetAndStart()
	case d.timer.HasElapsed(d.duration):
		d.output = Observed(newValue)
	}
	d.previous = Observed(newValue)
}

// DebounceRisingEdge debounces the rising edge (false to true) only.
// A false sample forces the output to false with no delay.
func (d *Debouncer) DebounceRisingEdge(newValue bool) (bool, error) {
	if err := validateDuration(d.duration); err != nil {
		return false, err
	}
	if newValue {
		d.debounce(true)
	} else {
		d.output = Observed(false)
		d.previous = Observed(false)
	}
	return d.output.value, nil
}

// DebounceFallingEdge debounces the falling edge (true to false) only.
// A true sample forces the output to true with no delay.
func (d *Debouncer) DebounceFallingEdge(newValue bool) (bool, error) {
	if err := validateDuration(d.duration); err != nil {
		return false, err
	}
	if !newValue {
		d.debounce(false)
	} else {
		d.output = Observed(true)
		d.previous = Observed(true)
	}
	return d.output.value, nil
}

// Apply polls with the policy selected by edge.
func (d *Debouncer) Apply(edge Edge, newValue bool) (bool, error) {
	switch edge {
	case EdgeRising:
		return d.DebounceRisingEdge(newValue)
	case EdgeFalling:
		return d.DebounceFallingEdge(newValue)
	case EdgeBoth:
		return d.Debounce(newValue)
	}
	return false, fmt.Errorf("%w: unknown edge %v", ErrInvalidArgument, edge)
}

// Reset discards memory of previous values and sets the output to
// newValue. The timer restarts from zero and keeps running.
func (d *Debouncer) Reset(newValue bool) {
	d.previous = Observed(newValue)
	d.output = Observed(newValue)
	d.timer.ResetAndStart()
}

// Output returns the confirmed output and whether any value has been
// observed yet.
func (d *Debouncer) Output() (bool, bool) {
	return d.output.Value()
}

// Previous returns the most recent raw observation.
func (d *Debouncer) Previous() Observation {
	return d.previous
}

// Elapsed returns the time since the last observed change.
func (d *Debouncer) Elapsed() time.Duration {
	return d.timer.Elapsed()
}

// String renders the debouncer for logs. The format is not stable.
func (d *Debouncer) String() string {
	return fmt.Sprintf("Last value: %s\nTime since change: %v\nDebounce time: %v",
		d.previous, d.timer.Elapsed().Truncate(time.Millisecond), d.duration)
}
