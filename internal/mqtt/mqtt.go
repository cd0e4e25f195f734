// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/sweeney/input-debouncer/internal/logic"
)

// DefaultTopic is the base MQTT topic. Transitions go to <base>/events and
// lifecycle events to <base>/system.
const DefaultTopic = "sensors/input"

// EventsTopic returns the topic for debounced transitions.
func EventsTopic(base string) string { return base + "/events" }

// SystemTopic returns the topic for system lifecycle events.
func SystemTopic(base string) string { return base + "/system" }

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a transition event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp time.Time
	Event     string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason    string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	Body      any    // Full status document; if set, it is encoded instead of SystemPayload
	Retained  bool   // Whether the message should be retained by the broker
}

// Codec selects the payload encoding.
type Codec string

const (
	CodecJSON Codec = "json"
	CodecCBOR Codec = "cbor"
)

// ParseCodec converts "json" or "cbor" into a Codec.
func ParseCodec(s string) (Codec, error) {
	switch Codec(s) {
	case CodecJSON, "":
		return CodecJSON, nil
	case CodecCBOR:
		return CodecCBOR, nil
	}
	return "", fmt.Errorf("unknown payload format %q (want json or cbor)", s)
}

// Marshal encodes v. CBOR uses the json struct tags.
func (c Codec) Marshal(v any) ([]byte, error) {
	if c == CodecCBOR {
		return cbor.Marshal(v)
	}
	return json.Marshal(v)
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Input InputPayload `json:"input"`
}

// InputPayload contains the transition details.
type InputPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	State     string `json:"state"`
}

// FormatPayload creates the payload for a transition event.
func FormatPayload(event logic.Event, codec Codec) ([]byte, error) {
	payload := Payload{
		Input: InputPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			State:     string(event.State),
		},
	}
	return codec.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the payload for a system event.
// If event.Body is set, it is encoded directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent, codec Codec) ([]byte, error) {
	if event.Body != nil {
		return codec.Marshal(event.Body)
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return codec.Marshal(payload)
}
