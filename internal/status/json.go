package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	State         string       `json:"state"`
	Raw           string       `json:"raw"`
	Ready         bool         `json:"ready"`
	ReadErrors    int          `json:"read_errors"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Rising  int `json:"rising"`
	Falling int `json:"falling"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64   `json:"poll_ms"`
	DebounceMs  float64 `json:"debounce_ms"`
	HeartbeatMs int64   `json:"heartbeat_ms"`
	Edge        string  `json:"edge"`
	Chip        string  `json:"chip"`
	Pin         int     `json:"pin"`
	ActiveLow   bool    `json:"active_low"`
	Broker      string  `json:"broker"`
	Topic       string  `json:"topic"`
	HTTPAddr    string  `json:"http_addr"`
	Format      string  `json:"format"`
}

func orUnknown(s string) string {
	if s == "" {
		return "UNKNOWN"
	}
	return s
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		State:         orUnknown(string(snap.State)),
		Raw:           orUnknown(string(snap.Raw)),
		Ready:         snap.Baselined,
		ReadErrors:    snap.ReadErrors,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Rising:  snap.Counts.Rising,
			Falling: snap.Counts.Falling,
		},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			DebounceMs:  snap.Config.DebounceMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Edge:        snap.Config.Edge,
			Chip:        snap.Config.Chip,
			Pin:         snap.Config.Pin,
			ActiveLow:   snap.Config.ActiveLow,
			Broker:      snap.Config.Broker,
			Topic:       snap.Config.Topic,
			HTTPAddr:    snap.Config.HTTPAddr,
			Format:      snap.Config.Format,
		},
	}

	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// Build returns the status document for the web endpoint (no event/reason).
func Build(snap Snapshot) StatusJSON {
	return StatusJSON{Status: buildInner(snap)}
}

// BuildEvent returns the status document for an MQTT system event.
func BuildEvent(snap Snapshot, event, reason string) StatusJSON {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	return StatusJSON{Status: inner}
}

// FormatJSON returns the indented JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(Build(snap), "", "  ")
	return data
}
