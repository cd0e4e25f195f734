// Package logic contains the debounce state machine and the transition
// tracking built on top of it.
// This package has NO GPIO, MQTT, or OS dependencies. Time is injectable via
// clockz.Clock so tests never sleep.
package logic

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrInvalidArgument is returned when a debounce duration is negative or an
// edge policy name is not recognised.
var ErrInvalidArgument = errors.New("invalid argument")

// State represents the logical state of the debounced input.
type State string

const (
	StateOn  State = "ON"
	StateOff State = "OFF"
)

// EventType represents a confirmed transition of the debounced output.
type EventType string

const (
	EventRising  EventType = "RISING"
	EventFalling EventType = "FALLING"
)

// Event represents a confirmed transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	State     State
}

// Edge selects which transitions must survive the debounce window.
type Edge int

const (
	// EdgeBoth debounces false->true and true->false.
	EdgeBoth Edge = iota
	// EdgeRising debounces false->true only; a false sample is trusted at once.
	EdgeRising
	// EdgeFalling debounces true->false only; a true sample is trusted at once.
	EdgeFalling
)

func (e Edge) String() string {
	switch e {
	case EdgeBoth:
		return "both"
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	}
	return "Edge(" + strconv.Itoa(int(e)) + ")"
}

// ParseEdge converts "both", "rising" or "falling" into an Edge.
func ParseEdge(s string) (Edge, error) {
	switch s {
	case "both", "":
		return EdgeBoth, nil
	case "rising":
		return EdgeRising, nil
	case "falling":
		return EdgeFalling, nil
	}
	return EdgeBoth, fmt.Errorf("%w: unknown edge %q (want both, rising or falling)", ErrInvalidArgument, s)
}

// Observation is a boolean that may not have been seen yet.
// The zero value is unobserved.
type Observation struct {
	value    bool
	observed bool
}

// Observed returns an observation holding v.
func Observed(v bool) Observation {
	return Observation{value: v, observed: true}
}

// Value returns the observed value and whether one exists.
func (o Observation) Value() (bool, bool) {
	return o.value, o.observed
}

func (o Observation) String() string {
	if !o.observed {
		return "none"
	}
	return strconv.FormatBool(o.value)
}

// EventCounts tracks the number of confirmed transitions since startup.
type EventCounts struct {
	Rising  int
	Falling int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	State     State
	Counts    EventCounts
}
