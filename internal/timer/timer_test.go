package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/zoobzio/clockz"
)

func TestNewTimerIsStopped(t *testing.T) {
	tm := New(clockz.NewFakeClock())

	assert.False(t, tm.Running())
	assert.Equal(t, time.Duration(0), tm.Elapsed())
}

func TestNewTimerNilClockUsesRealClock(t *testing.T) {
	tm := New(nil)
	tm.Start()

	assert.True(t, tm.Running())
	assert.GreaterOrEqual(t, tm.Elapsed(), time.Duration(0))
}

func TestElapsedWhileRunning(t *testing.T) {
	clock := clockz.NewFakeClock()
	tm := New(clock)

	tm.Start()
	clock.Advance(40 * time.Millisecond)
	assert.Equal(t, 40*time.Millisecond, tm.Elapsed())

	clock.Advance(10 * time.Millisecond)
	assert.Equal(t, 50*time.Millisecond, tm.Elapsed())
}

func TestStartIsIdempotent(t *testing.T) {
	clock := clockz.NewFakeClock()
	tm := New(clock)

	tm.Start()
	clock.Advance(30 * time.Millisecond)
	tm.Start() // must not re-anchor
	clock.Advance(20 * time.Millisecond)

	assert.Equal(t, 50*time.Millisecond, tm.Elapsed())
}

func TestStopBanksElapsed(t *testing.T) {
	clock := clockz.NewFakeClock()
	tm := New(clock)

	tm.Start()
	clock.Advance(25 * time.Millisecond)
	tm.Stop()
	assert.False(t, tm.Running())

	clock.Advance(time.Second)
	assert.Equal(t, 25*time.Millisecond, tm.Elapsed(), "stopped timer must not advance")

	tm.Stop() // no-op
	assert.Equal(t, 25*time.Millisecond, tm.Elapsed())
}

func TestStartAfterStopAccumulates(t *testing.T) {
	clock := clockz.NewFakeClock()
	tm := New(clock)

	tm.Start()
	clock.Advance(10 * time.Millisecond)
	tm.Stop()
	clock.Advance(100 * time.Millisecond)
	tm.Start()
	clock.Advance(15 * time.Millisecond)

	assert.Equal(t, 25*time.Millisecond, tm.Elapsed())
}

func TestResetKeepsRunningState(t *testing.T) {
	clock := clockz.NewFakeClock()

	running := New(clock)
	running.Start()
	clock.Advance(70 * time.Millisecond)
	running.Reset()
	assert.True(t, running.Running())
	assert.Equal(t, time.Duration(0), running.Elapsed())
	clock.Advance(5 * time.Millisecond)
	assert.Equal(t, 5*time.Millisecond, running.Elapsed())

	stopped := New(clock)
	stopped.Start()
	clock.Advance(70 * time.Millisecond)
	stopped.Stop()
	stopped.Reset()
	assert.False(t, stopped.Running())
	clock.Advance(5 * time.Millisecond)
	assert.Equal(t, time.Duration(0), stopped.Elapsed())
}

func TestResetAndStart(t *testing.T) {
	clock := clockz.NewFakeClock()
	tm := New(clock)

	tm.Start()
	clock.Advance(time.Second)
	tm.Stop()

	tm.ResetAndStart()
	assert.True(t, tm.Running())
	assert.Equal(t, time.Duration(0), tm.Elapsed())

	clock.Advance(12 * time.Millisecond)
	assert.Equal(t, 12*time.Millisecond, tm.Elapsed())
}

func TestStopAndReset(t *testing.T) {
	clock := clockz.NewFakeClock()
	tm := New(clock)

	tm.Start()
	clock.Advance(time.Second)
	tm.StopAndReset()

	assert.False(t, tm.Running())
	clock.Advance(time.Second)
	assert.Equal(t, time.Duration(0), tm.Elapsed())
}

func TestHasElapsed(t *testing.T) {
	clock := clockz.NewFakeClock()
	tm := New(clock)

	assert.True(t, tm.HasElapsed(0), "zero threshold is always met")

	tm.Start()
	clock.Advance(49 * time.Millisecond)
	assert.False(t, tm.HasElapsed(50*time.Millisecond))

	clock.Advance(time.Millisecond)
	assert.True(t, tm.HasElapsed(50*time.Millisecond), "threshold is inclusive")
}
