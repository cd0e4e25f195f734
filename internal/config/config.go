// Package config loads the daemon configuration from an optional YAML file
// and watches that file for changes.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sweeney/input-debouncer/internal/gpio"
	"github.com/sweeney/input-debouncer/internal/logic"
	"github.com/sweeney/input-debouncer/internal/mqtt"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a config file cannot be parsed or holds
// a value out of range.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the daemon configuration. Durations are Go duration strings in
// YAML ("250ms", "15m").
type Config struct {
	Poll      time.Duration `yaml:"poll"`
	Debounce  time.Duration `yaml:"debounce"`
	Edge      string        `yaml:"edge"`
	Chip      string        `yaml:"chip"`
	Pin       int           `yaml:"pin"`
	ActiveLow bool          `yaml:"active_low"`
	Bias      string        `yaml:"bias"`
	Broker    string        `yaml:"broker"`
	Topic     string        `yaml:"topic"`
	Heartbeat time.Duration `yaml:"heartbeat"`
	HTTP      string        `yaml:"http"`
	Format    string        `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Poll:      100 * time.Millisecond,
		Debounce:  250 * time.Millisecond,
		Edge:      logic.EdgeBoth.String(),
		Chip:      gpio.DefaultChip,
		Pin:       gpio.DefaultPin,
		Bias:      string(gpio.BiasPullDown),
		Broker:    "tcp://localhost:1883",
		Topic:     mqtt.DefaultTopic,
		Heartbeat: 15 * time.Minute,
		HTTP:      ":8080",
		Format:    string(mqtt.CodecJSON),
	}
}

// Parse decodes YAML over base. Fields absent from data keep their base
// value; unknown fields are rejected. The result is not validated.
func Parse(data []byte, base Config) (Config, error) {
	cfg := base
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Load builds the configuration from the defaults, the file at path (if
// path is non-empty), and overlay (if non-nil), then validates it.
func Load(path string, overlay func(*Config)) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if cfg, err = Parse(data, cfg); err != nil {
			return Config{}, err
		}
	}
	return finish(cfg, overlay)
}

func finish(cfg Config, overlay func(*Config)) (Config, error) {
	if overlay != nil {
		overlay(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field for a usable value.
func (c Config) Validate() error {
	if c.Poll <= 0 {
		return fmt.Errorf("%w: poll must be positive, got %v", ErrInvalidConfig, c.Poll)
	}
	if c.Debounce < 0 {
		return fmt.Errorf("%w: debounce cannot be negative, got %v", ErrInvalidConfig, c.Debounce)
	}
	if c.Heartbeat < 0 {
		return fmt.Errorf("%w: heartbeat cannot be negative, got %v", ErrInvalidConfig, c.Heartbeat)
	}
	if _, err := logic.ParseEdge(c.Edge); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := mqtt.ParseCodec(c.Format); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Chip == "" {
		return fmt.Errorf("%w: chip is required", ErrInvalidConfig)
	}
	if c.Pin < 0 {
		return fmt.Errorf("%w: pin cannot be negative, got %d", ErrInvalidConfig, c.Pin)
	}
	switch gpio.Bias(c.Bias) {
	case gpio.BiasPullDown, gpio.BiasPullUp, gpio.BiasDisabled:
	default:
		return fmt.Errorf("%w: unknown bias %q (want pull-down, pull-up or disabled)", ErrInvalidConfig, c.Bias)
	}
	if c.Topic == "" {
		return fmt.Errorf("%w: topic is required", ErrInvalidConfig)
	}
	return nil
}

// EdgePolicy returns the parsed edge. Only meaningful after Validate.
func (c Config) EdgePolicy() logic.Edge {
	e, _ := logic.ParseEdge(c.Edge)
	return e
}

// Codec returns the parsed payload codec. Only meaningful after Validate.
func (c Config) Codec() mqtt.Codec {
	codec, _ := mqtt.ParseCodec(c.Format)
	return codec
}

// Line returns the GPIO line configuration.
func (c Config) Line() gpio.LineConfig {
	return gpio.LineConfig{
		Chip:      c.Chip,
		Pin:       c.Pin,
		ActiveLow: c.ActiveLow,
		Bias:      gpio.Bias(c.Bias),
	}
}
