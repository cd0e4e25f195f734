package logic

import (
	"context"
	"fmt"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// Monitor debounces one input stream and reports confirmed transitions.
type Monitor struct {
	deb           *Debouncer
	edge          Edge
	clock         clockz.Clock
	state         State
	baselined     bool
	startTime     time.Time
	eventCounts   EventCounts
	lastHeartbeat time.Time
}

// NewMonitor creates a monitor with the given debounce duration and edge
// policy. The clock's current time is used as the start time for uptime.
func NewMonitor(debounce time.Duration, edge Edge, clock clockz.Clock) (*Monitor, error) {
	if clock == nil {
		clock = clockz.RealClock
	}
	if edge < EdgeBoth || edge > EdgeFalling {
		return nil, fmt.Errorf("%w: unknown edge %v", ErrInvalidArgument, edge)
	}
	deb, err := New(debounce, clock)
	if err != nil {
		return nil, err
	}
	now := clock.Now()
	return &Monitor{
		deb:           deb,
		edge:          edge,
		clock:         clock,
		startTime:     now,
		lastHeartbeat: now,
	}, nil
}

// Process takes a new raw sample and returns the transition it confirmed,
// or nil. The first sample establishes the baseline and never produces an
// event.
func (m *Monitor) Process(ctx context.Context, raw bool) (*Event, error) {
	out, err := m.deb.Apply(m.edge, raw)
	if err != nil {
		return nil, fmt.Errorf("debounce: %w", err)
	}
	return m.observe(ctx, boolToState(out)), nil
}

// Reset forces the output to v without waiting out the debounce window.
// Returns the transition if the output changed.
func (m *Monitor) Reset(ctx context.Context, v bool) *Event {
	m.deb.Reset(v)
	capitan.Emit(ctx, Resynchronized, KeyState.Field(string(boolToState(v))))
	return m.observe(ctx, boolToState(v))
}

func (m *Monitor) observe(ctx context.Context, newState State) *Event {
	if !m.baselined {
		m.baselined = true
		m.state = newState
		capitan.Emit(ctx, BaselineEstablished,
			KeyState.Field(string(newState)),
			KeyEdge.Field(m.edge.String()),
			KeyDebounce.Field(m.deb.Duration()),
		)
		return nil
	}

	if newState == m.state {
		return nil
	}

	oldState := m.state
	m.state = newState
	event := &Event{
		Timestamp: m.clock.Now(),
		Type:      eventTypeForTransition(newState),
		State:     newState,
	}

	switch event.Type {
	case EventRising:
		m.eventCounts.Rising++
	case EventFalling:
		m.eventCounts.Falling++
	}

	capitan.Emit(ctx, OutputChanged,
		KeyOldState.Field(string(oldState)),
		KeyState.Field(string(newState)),
		KeyEvent.Field(string(event.Type)),
	)
	return event
}

// SetDuration replaces the debounce duration of the underlying debouncer.
func (m *Monitor) SetDuration(ctx context.Context, d time.Duration) error {
	if err := m.deb.SetDuration(d); err != nil {
		return err
	}
	capitan.Emit(ctx, DurationChanged, KeyDebounce.Field(d))
	return nil
}

// Duration returns the current debounce duration.
func (m *Monitor) Duration() time.Duration {
	return m.deb.Duration()
}

// Edge returns the edge policy.
func (m *Monitor) Edge() Edge {
	return m.edge
}

func boolToState(b bool) State {
	if b {
		return StateOn
	}
	return StateOff
}

func eventTypeForTransition(to State) EventType {
	if to == StateOn {
		return EventRising
	}
	return EventFalling
}

// IsBaselined returns whether the first sample has been seen.
func (m *Monitor) IsBaselined() bool {
	return m.baselined
}

// CurrentState returns the debounced state, or "" before baseline.
func (m *Monitor) CurrentState() State {
	return m.state
}

// EventCountsSnapshot returns a copy of the transition counts.
func (m *Monitor) EventCountsSnapshot() EventCounts {
	return m.eventCounts
}

// String renders the underlying debouncer for logs.
func (m *Monitor) String() string {
	return m.deb.String()
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if not yet baselined, if the
// interval has not elapsed, or if interval is <= 0 (disabled).
func (m *Monitor) CheckHeartbeat(interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if !m.baselined {
		return nil
	}

	now := m.clock.Now()
	if now.Sub(m.lastHeartbeat) < interval {
		return nil
	}

	m.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		State:     m.state,
		Counts:    m.eventCounts,
	}
}
