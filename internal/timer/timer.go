// Package timer provides a start/stop/reset stopwatch that reports
// accumulated elapsed time. The clock is injectable so tests can drive it
// deterministically with clockz.NewFakeClock.
package timer

import (
	"time"

	"github.com/zoobzio/clockz"
)

// Timer accumulates elapsed time across running intervals.
// Not safe for concurrent use; the owner must synchronize.
type Timer struct {
	clock       clockz.Clock
	start       time.Time
	accumulated time.Duration
	running     bool
}

// New creates a stopped timer with zero elapsed time.
// A nil clock uses the real wall/monotonic clock.
func New(clock clockz.Clock) *Timer {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Timer{clock: clock}
}

// Start begins a running interval. No-op if already running.
func (t *Timer) Start() {
	if t.running {
		return
	}
	t.start = t.clock.Now()
	t.running = true
}

// Stop banks the current interval and halts the timer.
// Elapsed reports the time as of the stop. No-op if already stopped.
func (t *Timer) Stop() {
	if !t.running {
		return
	}
	t.accumulated = t.Elapsed()
	t.running = false
}

// Elapsed returns the accumulated time, plus the in-progress interval
// when running.
func (t *Timer) Elapsed() time.Duration {
	if !t.running {
		return t.accumulated
	}
	return t.clock.Now().Sub(t.start) + t.accumulated
}

// Reset zeroes the accumulated time and re-anchors the interval start to now.
// The running state is unchanged.
func (t *Timer) Reset() {
	t.start = t.clock.Now()
	t.accumulated = 0
}

// ResetAndStart leaves the timer running with zero elapsed time.
func (t *Timer) ResetAndStart() {
	t.Reset()
	t.Start()
}

// StopAndReset leaves the timer stopped with zero elapsed time.
func (t *Timer) StopAndReset() {
	t.Stop()
	t.Reset()
}

// HasElapsed reports whether at least d has elapsed. A zero threshold
// is always met.
func (t *Timer) HasElapsed(d time.Duration) bool {
	return t.Elapsed() >= d
}

// Running reports whether the timer is counting.
func (t *Timer) Running() bool {
	return t.running
}
