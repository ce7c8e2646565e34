package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/kwv/roomwalk/room"
)

// App encapsulates the application state and dependencies
type App struct {
	Config    *room.Config
	Tracker   *room.SessionTracker
	Validator *room.CommandValidator
	MQTT      *room.MQTTClient
	Publisher *room.Publisher

	ConfigFile string
	MeasureIn  string
	RoomType   string
	HttpPort   int
	MqttMode   bool
	HttpMode   bool
}

// NewApp creates a new App instance with default configuration
func NewApp() *App {
	cfg := room.DefaultConfig()
	validator, err := room.NewCommandValidator()
	if err != nil {
		log.Fatalf("Failed to compile command schema: %v", err)
	}
	return &App{
		Config:    cfg,
		Tracker:   room.NewSessionTracker(cfg),
		Validator: validator,
	}
}

// ApplyOptions applies CLI options to the App instance
func (a *App) ApplyOptions(opts AppOptions) {
	a.ConfigFile = opts.ConfigFile
	a.MeasureIn = opts.MeasureIn
	a.RoomType = opts.RoomType
	a.HttpPort = opts.HttpPort
	a.MqttMode = opts.MqttMode
	a.HttpMode = opts.HttpMode
}

// LoadConfig replaces the default config with the config file, if present.
// The session tracker is rebuilt so sessions pick up the new tolerances.
func (a *App) LoadConfig(required bool) error {
	cfg, err := room.LoadConfig(a.ConfigFile)
	if err != nil {
		if !required {
			if _, statErr := os.Stat(a.ConfigFile); errors.Is(statErr, os.ErrNotExist) {
				return nil
			}
		}
		return err
	}
	a.Config = cfg
	a.Tracker = room.NewSessionTracker(cfg)
	return nil
}

// WriteConfig writes the effective configuration, defaults filled in, to path.
func (a *App) WriteConfig(path string) error {
	if err := a.LoadConfig(false); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := room.SaveConfig(path, a.Config); err != nil {
		return err
	}
	log.Printf("Wrote config to %s", path)
	return nil
}

// newPublisher builds the MQTT publisher with the configured QoS and retain flag.
func (a *App) newPublisher(client mqtt.Client) *room.Publisher {
	p := room.NewPublisher(client, a.Config.MQTT.PublishPrefix)
	if q := a.Config.MQTT.QoS; q != nil {
		p.SetQoS(byte(*q))
	}
	if r := a.Config.MQTT.Retain; r != nil {
		p.SetRetain(*r)
	}
	return p
}

// knownDevice reports whether deviceID may open a session. Without a device
// list any ID is accepted.
func (a *App) knownDevice(deviceID string) bool {
	return len(a.Config.Devices) == 0 || a.Config.GetDeviceByID(deviceID) != nil
}

// RunMeasure replays a capture file and writes the measurement as JSON.
func (a *App) RunMeasure(w io.Writer) error {
	if err := a.LoadConfig(false); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	capture, err := room.ParseCaptureFile(a.MeasureIn)
	if err != nil {
		return fmt.Errorf("loading capture %s: %w", a.MeasureIn, err)
	}
	if a.RoomType != "" {
		capture.RoomType = a.RoomType
	}

	session, err := capture.Replay(a.Config)
	if err != nil {
		return fmt.Errorf("replaying capture: %w", err)
	}

	m := session.Measure()
	if m.VolumeEstimated && m.VolumeM3 > 0 {
		log.Printf("[SESSION] %s: no vertex heights, volume is a sample-spread estimate", session.ID)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

// HandleCommand applies a command to a device's session, publishes the new
// state and, once the walk closes, the measurement.
func (a *App) HandleCommand(deviceID string, cmd room.Command) (room.BuilderState, error) {
	session, state, err := a.Tracker.Apply(deviceID, cmd)
	if err != nil {
		log.Printf("[SESSION] %s: command %s rejected: %v", deviceID, cmd.Action, err)
		return state, err
	}

	if state.ClosePrompt {
		log.Printf("[SESSION] %s: point near start, waiting for keep/close", deviceID)
	}

	if a.Publisher != nil {
		if err := a.Publisher.PublishState(deviceID, session.ID, state); err != nil {
			log.Printf("[MQTT] error publishing state for %s: %v", deviceID, err)
		}
	}

	closing := cmd.Action == room.ActionClose || cmd.Action == room.ActionFinish
	if closing && state.Phase == room.PhaseClosed {
		m, err := a.Tracker.Measure(session.ID)
		if err != nil {
			return state, err
		}
		log.Printf("[SESSION] %s: walk closed with %d points, area=%.2fm²", deviceID, len(state.Points), m.AreaSqm)
		if a.Publisher != nil {
			if err := a.Publisher.PublishMeasurement(deviceID, m); err != nil {
				log.Printf("[MQTT] error publishing measurement for %s: %v", deviceID, err)
			}
		}
	}
	return state, nil
}

// mqttHandlers wires device messages into the session tracker.
func (a *App) mqttHandlers() room.Handlers {
	return room.Handlers{
		OnSurfaces: func(deviceID string, surfaces []room.Surface) {
			summary := a.Tracker.UpdateSurfaces(deviceID, surfaces)
			log.Printf("[SESSION] %s: %d surfaces, %d candidate corners", deviceID, summary.Surfaces, summary.Candidates)
		},
		OnSample: func(deviceID string, sample room.Sample) {
			a.Tracker.RecordSample(deviceID, sample)
		},
		OnCommand: func(deviceID string, cmd room.Command) {
			_, _ = a.HandleCommand(deviceID, cmd)
		},
	}
}

// RunService starts MQTT and/or HTTP and blocks until interrupted
func (a *App) RunService() {
	fmt.Println("Starting roomwalk service...")

	if err := a.LoadConfig(a.MqttMode); err != nil {
		log.Fatalf("Failed to load config: %v (looked at %s)", err, a.ConfigFile)
	}
	log.Printf("Loaded config from %s", a.ConfigFile)

	for _, d := range a.Config.Devices {
		a.Tracker.Start(d.ID)
	}

	if a.MqttMode {
		client, err := room.InitMQTT(a.Config, a.mqttHandlers())
		if err != nil {
			log.Fatalf("Failed to initialize MQTT: %v", err)
		}
		if client == nil {
			log.Fatal("MQTT broker not configured in config.yaml")
		}
		a.MQTT = client
		a.Publisher = a.newPublisher(client.GetClient())
		fmt.Println("MQTT publisher initialized")
	}

	var srv *http.Server
	if a.HttpMode {
		port := a.HttpPort
		if port == 0 {
			port = a.Config.HTTP.Port
		}
		srv = &http.Server{
			Addr:         fmt.Sprintf("0.0.0.0:%d", port),
			Handler:      newHTTPServer(a),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			log.Printf("[HTTP] Starting server on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("[HTTP] Server error: %v", err)
			}
		}()
	}

	fmt.Println("\nService Running")
	fmt.Println("===============")
	if a.MqttMode {
		fmt.Println("\nMQTT:")
		fmt.Println("  Subscribed topics:")
		for _, d := range a.Config.Devices {
			fmt.Printf("    - %s/{surfaces,samples,commands} (%s)\n", d.Topic, d.ID)
		}
		prefix := a.Config.MQTT.PublishPrefix
		if prefix == "" {
			prefix = "roomwalk"
		}
		fmt.Printf("  Publishing to: %s/{deviceID}/state and %s/{deviceID}/measurement\n", prefix, prefix)
	}
	if a.HttpMode {
		fmt.Printf("\nHTTP endpoints (%s):\n", srv.Addr)
		fmt.Println("  GET  /health                          - Health check")
		fmt.Println("  GET  /sessions                        - Active sessions")
		fmt.Println("  GET  /sessions/{id}                   - Session summary and walk state")
		fmt.Println("  GET  /sessions/{id}/measurement       - Measurement payload")
		fmt.Println("  GET  /sessions/{id}/outline.geojson   - Walked and merged floor outlines")
		fmt.Println("  PUT  /devices/{device}/surfaces       - Replace surface set")
		fmt.Println("  POST /devices/{device}/samples        - Record a hit-test sample")
		fmt.Println("  POST /devices/{device}/commands       - Apply a walk command")
		fmt.Println("  GET  /devices/{device}/measurement    - Last published measurement")
	}
	fmt.Println("\nPress Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down service...")
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("[HTTP] shutdown error: %v", err)
		}
	}
	if a.MQTT != nil {
		a.MQTT.Disconnect()
	}
	fmt.Println("Service stopped")
}
