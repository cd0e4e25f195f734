// Package status provides a thread-safe status tracker for the debouncer
// daemon. It is read by HTTP handlers and the MQTT lifecycle events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/input-debouncer/internal/logic"
	"github.com/zoobzio/clockz"
)

// NetworkInfo contains network state as reported by the host.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	DebounceMs  float64
	HeartbeatMs int64
	Edge        string
	Chip        string
	Pin         int
	ActiveLow   bool
	Broker      string
	Topic       string
	HTTPAddr    string
	Format      string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	State         logic.State // debounced output; "" before baseline
	Raw           logic.State // last raw sample; "" before the first read
	Baselined     bool
	Counts        logic.EventCounts
	ReadErrors    int
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	clock clockz.Clock
	mu    sync.RWMutex
	snap  Snapshot
}

// NewTracker creates a Tracker whose start time is the clock's current time.
// A nil clock uses the real clock.
func NewTracker(clock clockz.Clock, cfg Config) *Tracker {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Tracker{
		clock: clock,
		snap: Snapshot{
			StartTime: clock.Now(),
			Config:    cfg,
		},
	}
}

// Update sets the debounced state, baseline status, and event counts.
// Called from runLoop on every tick.
func (t *Tracker) Update(state logic.State, baselined bool, counts logic.EventCounts) {
	t.mu.Lock()
	t.snap.State = state
	t.snap.Baselined = baselined
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetRaw records the last raw sample.
func (t *Tracker) SetRaw(raw bool) {
	state := logic.StateOff
	if raw {
		state = logic.StateOn
	}
	t.mu.Lock()
	t.snap.Raw = state
	t.mu.Unlock()
}

// IncReadErrors counts a failed read of the input line.
func (t *Tracker) IncReadErrors() {
	t.mu.Lock()
	t.snap.ReadErrors++
	t.mu.Unlock()
}

// SetDebounce records a reloaded debounce duration.
func (t *Tracker) SetDebounce(d time.Duration) {
	t.mu.Lock()
	t.snap.Config.DebounceMs = float64(d) / float64(time.Millisecond)
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the clock's current time.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.clock.Now()
	return s
}
