// Command debouncer polls one GPIO input, debounces it, and publishes
// confirmed transitions to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/input-debouncer/internal/config"
	"github.com/sweeney/input-debouncer/internal/gpio"
	"github.com/sweeney/input-debouncer/internal/logic"
	"github.com/sweeney/input-debouncer/internal/mqtt"
	"github.com/sweeney/input-debouncer/internal/status"
	"github.com/sweeney/input-debouncer/internal/web"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

type options struct {
	configPath string
	printState bool
	// overlay applies flags that were set explicitly on the command line.
	overlay func(*config.Config)
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}

	if err := run(opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func parseFlags(args []string) (options, error) {
	def := config.Default()
	fs := flag.NewFlagSet("debouncer", flag.ContinueOnError)

	configPath := fs.String("config", "", "YAML config file; debounce changes are applied while running")
	poll := fs.Duration("poll", def.Poll, "GPIO polling interval")
	debounce := fs.Duration("debounce", def.Debounce, "Debounce duration")
	edge := fs.String("edge", def.Edge, "Edges to debounce: both, rising or falling")
	chip := fs.String("chip", def.Chip, "GPIO chip name")
	pin := fs.Int("pin", def.Pin, "Line offset (BCM pin number)")
	activeLow := fs.Bool("active-low", def.ActiveLow, "Treat a low line as active")
	bias := fs.String("bias", def.Bias, "Line bias: pull-down, pull-up or disabled")
	broker := fs.String("broker", def.Broker, "MQTT broker address")
	topic := fs.String("topic", def.Topic, "MQTT base topic")
	heartbeat := fs.Duration("heartbeat", def.Heartbeat, "Heartbeat interval (0 to disable)")
	httpAddr := fs.String("http", def.HTTP, "HTTP status address (empty to disable)")
	format := fs.String("format", def.Format, "MQTT payload format: json or cbor")
	printState := fs.Bool("print-state", false, "Print current input state and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	overlay := func(c *config.Config) {
		if set["poll"] {
			c.Poll = *poll
		}
		if set["debounce"] {
			c.Debounce = *debounce
		}
		if set["edge"] {
			c.Edge = *edge
		}
		if set["chip"] {
			c.Chip = *chip
		}
		if set["pin"] {
			c.Pin = *pin
		}
		if set["active-low"] {
			c.ActiveLow = *activeLow
		}
		if set["bias"] {
			c.Bias = *bias
		}
		if set["broker"] {
			c.Broker = *broker
		}
		if set["topic"] {
			c.Topic = *topic
		}
		if set["heartbeat"] {
			c.Heartbeat = *heartbeat
		}
		if set["http"] {
			c.HTTP = *httpAddr
		}
		if set["format"] {
			c.Format = *format
		}
	}

	return options{
		configPath: *configPath,
		printState: *printState,
		overlay:    overlay,
	}, nil
}

func run(opts options) error {
	cfg, err := config.Load(opts.configPath, opts.overlay)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Initialize GPIO
	gpioReader, err := gpio.NewRealReader(cfg.Line())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer gpioReader.Close()

	// Print state mode
	if opts.printState {
		v, err := gpioReader.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Printf("INPUT: %s\n", stateString(v))
		return nil
	}

	hookSignals()
	defer capitan.Shutdown()

	clock := clockz.RealClock
	monitor, err := logic.NewMonitor(cfg.Debounce, cfg.EdgePolicy(), clock)
	if err != nil {
		return fmt.Errorf("init debouncer: %w", err)
	}

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(mqtt.Options{
		Broker: cfg.Broker,
		Topic:  cfg.Topic,
		Codec:  cfg.Codec(),
	})
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(clock, statusConfig(cfg))
	tracker.SetMQTTConnected(publisher.IsConnected())
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp: snap.Now,
		Event:     "STARTUP",
		Retained:  true,
		Body:      status.BuildEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if cfg.HTTP != "" {
		srv := web.New(cfg.HTTP, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP)
	}

	var reload <-chan config.Config
	if opts.configPath != "" {
		watcher, err := config.NewWatcher(opts.configPath, opts.overlay)
		if err != nil {
			log.Printf("config: not watching %s: %v", opts.configPath, err)
		} else {
			defer watcher.Close()
			reload = watcher.Changes()
		}
	}

	log.Printf("started: line=%s/%d edge=%s poll=%v debounce=%v broker=%s heartbeat=%v",
		cfg.Chip, cfg.Pin, cfg.Edge, cfg.Poll, cfg.Debounce, cfg.Broker, cfg.Heartbeat)

	ticker := time.NewTicker(cfg.Poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	return runLoop(gpioReader, publisher, publisher, tracker, monitor, cfg.Heartbeat, ticker.C, sigCh, reload)
}

// runLoop polls the reader on every tick until SIGINT or SIGTERM.
// SIGHUP re-reads the line and resets the debouncer to it.
func runLoop(gpioReader gpio.Reader, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, monitor *logic.Monitor, heartbeat time.Duration, tick <-chan time.Time, sig <-chan os.Signal, reload <-chan config.Config) error {
	ctx := context.Background()

	for {
		select {
		case s := <-sig:
			if s == syscall.SIGHUP {
				resync(ctx, gpioReader, publisher, monitor)
				updateTracker(tracker, monitor, mqttStatus)
				continue
			}

			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			updateTracker(tracker, monitor, mqttStatus)
			snap := tracker.Snapshot()
			event := mqtt.SystemEvent{
				Timestamp: snap.Now,
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
				Body:      status.BuildEvent(snap, "SHUTDOWN", signalName),
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case cfg, ok := <-reload:
			if !ok {
				reload = nil
				continue
			}
			if cfg.Debounce == monitor.Duration() {
				continue
			}
			if err := monitor.SetDuration(ctx, cfg.Debounce); err != nil {
				log.Printf("config: rejected debounce %v: %v", cfg.Debounce, err)
				continue
			}
			tracker.SetDebounce(cfg.Debounce)
			log.Printf("config: debounce now %v", cfg.Debounce)

		case <-tick:
			raw, err := gpioReader.Read()
			if err != nil {
				log.Printf("gpio read error: %v", err)
				tracker.IncReadErrors()
				continue
			}
			tracker.SetRaw(raw)

			event, err := monitor.Process(ctx, raw)
			if err != nil {
				return fmt.Errorf("process sample: %w", err)
			}
			if event != nil {
				publishEvent(publisher, *event)
			}

			// Check for heartbeat
			if hbData := monitor.CheckHeartbeat(heartbeat); hbData != nil {
				log.Printf("heartbeat: uptime=%v state=%s rising=%d falling=%d",
					hbData.Uptime, hbData.State, hbData.Counts.Rising, hbData.Counts.Falling)

				// Refresh network info for heartbeat
				if net := readNetworkInfo(); net != nil {
					tracker.SetNetwork(net)
				}
				updateTracker(tracker, monitor, mqttStatus)
				snap := tracker.Snapshot()
				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
					Body:      status.BuildEvent(snap, "HEARTBEAT", ""),
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			// Update status tracker for HTTP consumers
			updateTracker(tracker, monitor, mqttStatus)
		}
	}
}

func publishEvent(publisher mqtt.Publisher, event logic.Event) {
	log.Printf("event: %s (input=%s)", event.Type, event.State)
	if err := publisher.Publish(event); err != nil {
		// Don't crash on publish failure
		log.Printf("publish error: %v", err)
	}
}

// resync reads the line once and forces the debounced output to it.
func resync(ctx context.Context, gpioReader gpio.Reader, publisher mqtt.Publisher, monitor *logic.Monitor) {
	raw, err := gpioReader.Read()
	if err != nil {
		log.Printf("resync: gpio read error: %v", err)
		return
	}
	log.Printf("resync: input is %s", stateString(raw))
	if event := monitor.Reset(ctx, raw); event != nil {
		publishEvent(publisher, *event)
	}
}

func updateTracker(tracker *status.Tracker, monitor *logic.Monitor, mqttStatus mqtt.ConnectionStatus) {
	tracker.Update(monitor.CurrentState(), monitor.IsBaselined(), monitor.EventCountsSnapshot())
	if mqttStatus != nil {
		tracker.SetMQTTConnected(mqttStatus.IsConnected())
	}
}

// hookSignals logs debouncer signals.
func hookSignals() {
	capitan.Hook(logic.BaselineEstablished, func(_ context.Context, e *capitan.Event) {
		state, _ := logic.KeyState.From(e)
		edge, _ := logic.KeyEdge.From(e)
		d, _ := logic.KeyDebounce.From(e)
		log.Printf("debouncer: baseline %s (edge=%s debounce=%v)", state, edge, d)
	})
	capitan.Hook(logic.OutputChanged, func(_ context.Context, e *capitan.Event) {
		oldState, _ := logic.KeyOldState.From(e)
		newState, _ := logic.KeyState.From(e)
		log.Printf("debouncer: output %s -> %s", oldState, newState)
	})
	capitan.Hook(logic.DurationChanged, func(_ context.Context, e *capitan.Event) {
		d, _ := logic.KeyDebounce.From(e)
		log.Printf("debouncer: duration set to %v", d)
	})
	capitan.Hook(logic.Resynchronized, func(_ context.Context, e *capitan.Event) {
		state, _ := logic.KeyState.From(e)
		log.Printf("debouncer: reset to %s", state)
	})
}

func statusConfig(cfg config.Config) status.Config {
	return status.Config{
		PollMs:      cfg.Poll.Milliseconds(),
		DebounceMs:  float64(cfg.Debounce) / float64(time.Millisecond),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Edge:        cfg.Edge,
		Chip:        cfg.Chip,
		Pin:         cfg.Pin,
		ActiveLow:   cfg.ActiveLow,
		Broker:      cfg.Broker,
		Topic:       cfg.Topic,
		HTTPAddr:    cfg.HTTP,
		Format:      cfg.Format,
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

func stateString(on bool) string {
	if on {
		return string(logic.StateOn)
	}
	return string(logic.StateOff)
}
