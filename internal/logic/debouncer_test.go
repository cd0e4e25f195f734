package logic

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

func newTestDebouncer(t *testing.T, d time.Duration) (*Debouncer, *clockz.FakeClock) {
	t.Helper()
	clock := clockz.NewFakeClock()
	deb, err := New(d, clock)
	if err != nil {
		t.Fatalf("New(%v): %v", d, err)
	}
	return deb, clock
}

// poll calls Debounce and fails the test on error.
func poll(t *testing.T, deb *Debouncer, v bool) bool {
	t.Helper()
	got, err := deb.Debounce(v)
	if err != nil {
		t.Fatalf("Debounce(%v): %v", v, err)
	}
	return got
}

func TestNewRejectsNegativeDuration(t *testing.T) {
	deb, err := New(-time.Millisecond, clockz.NewFakeClock())
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if deb != nil {
		t.Error("expected nil debouncer on error")
	}
}

func TestNewAcceptsZeroDuration(t *testing.T) {
	if _, err := New(0, clockz.NewFakeClock()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewMillis(t *testing.T) {
	deb, err := NewMillis(12.5, clockz.NewFakeClock())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deb.Duration() != 12500*time.Microsecond {
		t.Errorf("expected 12.5ms, got %v", deb.Duration())
	}

	for _, ms := range []float64{-0.001, -1000, math.NaN(), math.Inf(1)} {
		if _, err := NewMillis(ms, nil); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("NewMillis(%v): expected ErrInvalidArgument, got %v", ms, err)
		}
	}
}

func TestSetDuration(t *testing.T) {
	deb, _ := newTestDebouncer(t, 50*time.Millisecond)

	if err := deb.SetDuration(100 * time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deb.Duration() != 100*time.Millisecond {
		t.Errorf("expected 100ms, got %v", deb.Duration())
	}

	err := deb.SetDuration(-1)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if deb.Duration() != 100*time.Millisecond {
		t.Errorf("rejected set must keep previous duration, got %v", deb.Duration())
	}
}

func TestPollRechecksDuration(t *testing.T) {
	deb, _ := newTestDebouncer(t, 50*time.Millisecond)
	deb.duration = -time.Second // bypass the setter

	if _, err := deb.Debounce(true); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Debounce: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := deb.DebounceRisingEdge(false); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("DebounceRisingEdge: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := deb.DebounceFallingEdge(true); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("DebounceFallingEdge: expected ErrInvalidArgument, got %v", err)
	}
	if _, ok := deb.Output(); ok {
		t.Error("failed polls must not record an observation")
	}
}

func TestFirstCallAdoptsValue(t *testing.T) {
	for _, d := range []time.Duration{0, time.Millisecond, time.Hour} {
		for _, v := range []bool{true, false} {
			deb, _ := newTestDebouncer(t, d)
			if got := poll(t, deb, v); got != v {
				t.Errorf("d=%v: first Debounce(%v) = %v", d, v, got)
			}
		}
	}
}

func TestOutputBeforeFirstCall(t *testing.T) {
	deb, _ := newTestDebouncer(t, time.Millisecond)
	if _, ok := deb.Output(); ok {
		t.Error("expected no output before first call")
	}
	if _, ok := deb.Previous().Value(); ok {
		t.Error("expected no previous value before first call")
	}
}

func TestStableUnderNoChange(t *testing.T) {
	deb, clock := newTestDebouncer(t, 50*time.Millisecond)
	for i := 0; i < 20; i++ {
		if got := poll(t, deb, true); !got {
			t.Fatalf("iteration %d: expected true", i)
		}
		clock.Advance(7 * time.Millisecond)
	}
}

func TestDebounceEndToEnd(t *testing.T) {
	deb, clock := newTestDebouncer(t, 50*time.Millisecond)

	steps := []struct {
		at   time.Duration
		in   bool
		want bool
	}{
		{0, false, false},
		{10 * time.Millisecond, true, false},  // flip, pending
		{40 * time.Millisecond, true, false},  // 30ms since flip
		{59 * time.Millisecond, true, false},  // 49ms since flip
		{60 * time.Millisecond, true, true},   // 50ms since flip, confirmed
		{100 * time.Millisecond, true, true},  // idempotent
	}

	var now time.Duration
	for _, s := range steps {
		clock.Advance(s.at - now)
		now = s.at
		if got := poll(t, deb, s.in); got != s.want {
			t.Errorf("t=%v: Debounce(%v) = %v, want %v", s.at, s.in, got, s.want)
		}
	}
}

func TestFlipRestartsWindow(t *testing.T) {
	deb, clock := newTestDebouncer(t, 50*time.Millisecond)

	poll(t, deb, false)
	clock.Advance(10 * time.Millisecond)
	poll(t, deb, true) // t=10, window starts
	clock.Advance(30 * time.Millisecond)
	poll(t, deb, false) // t=40, bounce back
	clock.Advance(30 * time.Millisecond)
	poll(t, deb, true) // t=70, window restarts
	clock.Advance(40 * time.Millisecond)

	if got := poll(t, deb, true); got {
		t.Error("t=110: 40ms since last flip, expected false")
	}
	clock.Advance(10 * time.Millisecond)
	if got := poll(t, deb, true); !got {
		t.Error("t=120: 50ms since last flip, expected true")
	}
}

func TestBounceNeverConfirms(t *testing.T) {
	deb, clock := newTestDebouncer(t, 50*time.Millisecond)
	poll(t, deb, true)

	for i := 0; i < 10; i++ {
		clock.Advance(20 * time.Millisecond)
		if got := poll(t, deb, i%2 == 0); !got {
			t.Fatalf("iteration %d: bounce leaked through", i)
		}
	}
}

func TestZeroDurationConfirmsOnNextCall(t *testing.T) {
	deb, _ := newTestDebouncer(t, 0)

	poll(t, deb, false)
	if got := poll(t, deb, true); got {
		t.Error("the flip itself is not confirmed")
	}
	if got := poll(t, deb, true); !got {
		t.Error("expected confirmation on the very next call")
	}
}

func TestRisingEdge(t *testing.T) {
	deb, clock := newTestDebouncer(t, time.Second)

	call := func(v bool) bool {
		t.Helper()
		got, err := deb.DebounceRisingEdge(v)
		if err != nil {
			t.Fatalf("DebounceRisingEdge(%v): %v", v, err)
		}
		return got
	}

	// Stabilize at true.
	if !call(true) {
		t.Fatal("first call should adopt true")
	}

	// A fall is trusted instantly.
	if call(false) {
		t.Error("falling sample should force false immediately")
	}

	// A rise has to survive the window.
	if call(true) {
		t.Error("rise should be pending")
	}
	clock.Advance(999 * time.Millisecond)
	if call(true) {
		t.Error("rise should still be pending at 999ms")
	}
	clock.Advance(time.Millisecond)
	if !call(true) {
		t.Error("rise should be confirmed at 1000ms")
	}
}

func TestRisingEdgeFirstCallFalse(t *testing.T) {
	deb, clock := newTestDebouncer(t, 100*time.Millisecond)

	if got, _ := deb.DebounceRisingEdge(false); got {
		t.Fatal("expected false")
	}
	deb.DebounceRisingEdge(true)
	clock.Advance(100 * time.Millisecond)
	if got, _ := deb.DebounceRisingEdge(true); !got {
		t.Error("rise after an instant first fall must still confirm")
	}
}

func TestFallingEdge(t *testing.T) {
	deb, clock := newTestDebouncer(t, time.Second)

	call := func(v bool) bool {
		t.Helper()
		got, err := deb.DebounceFallingEdge(v)
		if err != nil {
			t.Fatalf("DebounceFallingEdge(%v): %v", v, err)
		}
		return got
	}

	if call(false) {
		t.Fatal("first call should adopt false")
	}
	if !call(true) {
		t.Error("rising sample should force true immediately")
	}
	if !call(false) {
		t.Error("fall should be pending")
	}
	clock.Advance(500 * time.Millisecond)
	if !call(false) {
		t.Error("fall should still be pending at 500ms")
	}
	clock.Advance(500 * time.Millisecond)
	if call(false) {
		t.Error("fall should be confirmed at 1000ms")
	}
}

func TestEdgeOverrideUpdatesPrevious(t *testing.T) {
	deb, _ := newTestDebouncer(t, time.Second)
	deb.DebounceRisingEdge(true)
	deb.DebounceRisingEdge(false)

	if v, ok := deb.Previous().Value(); !ok || v {
		t.Errorf("expected previous=false, got %s", deb.Previous())
	}
}

func TestApplyDispatch(t *testing.T) {
	tests := []struct {
		edge Edge
		want bool
	}{
		// Stabilized at true, then a false sample with a long window.
		{EdgeBoth, true},
		{EdgeRising, false},
		{EdgeFalling, true},
	}

	for _, tt := range tests {
		deb, _ := newTestDebouncer(t, time.Hour)
		deb.Apply(tt.edge, true)
		got, err := deb.Apply(tt.edge, false)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.edge, err)
		}
		if got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.edge, got, tt.want)
		}
	}

	deb, _ := newTestDebouncer(t, time.Hour)
	if _, err := deb.Apply(Edge(42), true); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for unknown edge, got %v", err)
	}
}

func TestResetClearsMemory(t *testing.T) {
	deb, clock := newTestDebouncer(t, 50*time.Millisecond)

	poll(t, deb, false)
	clock.Advance(10 * time.Millisecond)
	poll(t, deb, true) // pending since t=10
	clock.Advance(45 * time.Millisecond)

	deb.Reset(false)
	if v, ok := deb.Output(); !ok || v {
		t.Fatalf("expected output false after reset, got %v (ok=%v)", v, ok)
	}
	if deb.Elapsed() != 0 {
		t.Errorf("expected zero elapsed after reset, got %v", deb.Elapsed())
	}

	// The next flip is timed from zero, not from the earlier pending window.
	if got := poll(t, deb, true); got {
		t.Error("flip after reset should be pending")
	}
	clock.Advance(49 * time.Millisecond)
	if got := poll(t, deb, true); got {
		t.Error("49ms after flip, expected false")
	}
	clock.Advance(time.Millisecond)
	if got := poll(t, deb, true); !got {
		t.Error("50ms after flip, expected true")
	}
}

func TestResetForcesOutput(t *testing.T) {
	deb, _ := newTestDebouncer(t, time.Hour)
	poll(t, deb, false)

	deb.Reset(true)
	if got := poll(t, deb, true); !got {
		t.Error("reset should confirm the new value without waiting")
	}
}

func TestResetBeforeFirstCall(t *testing.T) {
	deb, clock := newTestDebouncer(t, 20*time.Millisecond)
	deb.Reset(true)

	if got := poll(t, deb, false); !got {
		t.Error("reset value should hold while the flip is pending")
	}
	clock.Advance(20 * time.Millisecond)
	if got := poll(t, deb, false); got {
		t.Error("expected flip to be confirmed")
	}
}

func TestDebouncerString(t *testing.T) {
	deb, clock := newTestDebouncer(t, 250*time.Millisecond)
	if s := deb.String(); !strings.Contains(s, "Last value: none") {
		t.Errorf("unexpected rendering before first call: %q", s)
	}

	poll(t, deb, true)
	clock.Advance(1500 * time.Microsecond)
	s := deb.String()
	for _, want := range []string{"Last value: true", "Time since change: 1ms", "Debounce time: 250ms"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}

func TestParseEdge(t *testing.T) {
	tests := []struct {
		in   string
		want Edge
	}{
		{"both", EdgeBoth},
		{"", EdgeBoth},
		{"rising", EdgeRising},
		{"falling", EdgeFalling},
	}
	for _, tt := range tests {
		got, err := ParseEdge(tt.in)
		if err != nil {
			t.Errorf("ParseEdge(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseEdge(%q) = %s, want %s", tt.in, got, tt.want)
		}
		if tt.in != "" && got.String() != tt.in {
			t.Errorf("%s.String() = %q", got, got.String())
		}
	}

	if _, err := ParseEdge("sideways"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}
