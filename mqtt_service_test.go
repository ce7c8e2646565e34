package main

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwv/roomwalk/room"
)

// TestMQTTServiceConfigLoading tests configuration loading for MQTT service
func TestMQTTServiceConfigLoading(t *testing.T) {
	t.Setenv("MQTT_BROKER", "")

	tests := []struct {
		name        string
		configYAML  string
		shouldError bool
		errorMsg    string
	}{
		{
			name: "valid config",
			configYAML: `mqtt:
  broker: "mqtt://localhost:1883"
  publishPrefix: "roomwalk"
  clientId: "test-client"

devices:
  - id: tablet-a
    topic: "capture/tablet-a"
  - id: tablet-b
    topic: "capture/tablet-b"
`,
		},
		{
			name: "missing broker",
			configYAML: `mqtt:
  publishPrefix: "roomwalk"

devices:
  - id: tablet-a
    topic: "capture/tablet-a"
`,
			shouldError: true,
			errorMsg:    "mqtt.broker is required",
		},
		{
			name: "device without id",
			configYAML: `mqtt:
  broker: "mqtt://localhost:1883"

devices:
  - topic: "capture/tablet-a"
`,
			shouldError: true,
			errorMsg:    "id is required",
		},
		{
			name: "qos out of range",
			configYAML: `mqtt:
  broker: "mqtt://localhost:1883"
  qos: 3

devices:
  - id: tablet-a
    topic: "capture/tablet-a"
`,
			shouldError: true,
			errorMsg:    "mqtt.qos must be 0, 1 or 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.configYAML), 0644))

			app := NewApp()
			app.ConfigFile = path
			err := app.LoadConfig(true)

			if tt.shouldError {
				require.Error(t, err)
				assert.True(t, strings.Contains(err.Error(), tt.errorMsg), "error %q should contain %q", err, tt.errorMsg)
				return
			}
			require.NoError(t, err)
			assert.Len(t, app.Config.Devices, 2)
		})
	}
}

// mockService wires an App to an in-memory MQTT client the way RunService
// wires it to a broker.
func mockService(t *testing.T) (*App, *room.MockClient) {
	t.Helper()
	cfg := room.DefaultConfig()
	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.MQTT.PublishPrefix = "roomwalk"
	cfg.Devices = []room.DeviceConfig{{ID: "tablet", Topic: "capture/tablet"}}

	app := NewApp()
	app.Config = cfg
	app.Tracker = room.NewSessionTracker(cfg)

	mock := room.NewMockClient()
	mock.SetConnected(true)
	app.MQTT = room.NewMQTTClientWithMock(mock, cfg, app.mqttHandlers())
	app.MQTT.Subscribe()
	app.Publisher = app.newPublisher(mock)
	return app, mock
}

func TestMQTTService_WalkPublishesStateAndMeasurement(t *testing.T) {
	app, mock := mockService(t)

	mock.SimulateMessage("capture/tablet/surfaces", []byte(`[{"id":"floor","normal":[0,1,0],"polygonWorld":[[0,0,0],[4,0,0],[4,0,3],[0,0,3]]}]`))
	mock.SimulateMessage("capture/tablet/samples", []byte(`{"point":[1,0,1],"tracking":"NORMAL","lux":500}`))
	for _, cmd := range []string{
		`{"action":"add","point":[0.1,0,0.1]}`,
		`{"action":"add","point":[3.9,0,0.05]}`,
		`{"action":"add","point":[4.1,0,2.9]}`,
		`{"action":"add","point":[0.05,0,3.1]}`,
		`{"action":"add","point":[0.1,0,-0.1]}`,
	} {
		mock.SimulateMessage("capture/tablet/commands", []byte(cmd))
	}

	states := mock.MessagesOn("roomwalk/tablet/state")
	require.Len(t, states, 5)
	var last room.StateMessage
	require.NoError(t, json.Unmarshal(states[4].Payload, &last))
	assert.True(t, last.State.ClosePrompt)
	assert.Empty(t, mock.MessagesOn("roomwalk/tablet/measurement"), "no measurement before close")

	mock.SimulateMessage("capture/tablet/commands", []byte(`{"action":"close"}`))

	measurements := mock.MessagesOn("roomwalk/tablet/measurement")
	require.Len(t, measurements, 1)
	var m room.Measurement
	require.NoError(t, json.Unmarshal(measurements[0].Payload, &m))
	assert.Equal(t, 12.0, m.AreaSqm)
	assert.True(t, m.Closed)
	assert.Equal(t, last.SessionID, m.SessionID)

	stored, ok := app.Publisher.GetMeasurement("tablet")
	require.True(t, ok)
	assert.Equal(t, m.SessionID, stored.SessionID)
}

func TestMQTTService_InvalidCommandPublishesNothing(t *testing.T) {
	_, mock := mockService(t)

	mock.SimulateMessage("capture/tablet/commands", []byte(`{"action":"add"}`))
	mock.SimulateMessage("capture/tablet/commands", []byte(`garbage`))

	assert.Empty(t, mock.GetPublishedMessages())
}

func TestMQTTService_HealthReportsConnection(t *testing.T) {
	app, _ := mockService(t)
	h := newHTTPServer(app)

	rec := do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["mqttConnected"])
}

func TestMQTTService_HTTPCommandsAlsoPublish(t *testing.T) {
	app, mock := mockService(t)
	h := newHTTPServer(app)

	rec := do(t, h, http.MethodPost, "/devices/tablet/commands", `{"action":"room","roomType":"hall"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, mock.MessagesOn("roomwalk/tablet/state"), 1)
}

func TestMQTTService_PublisherFollowsConfig(t *testing.T) {
	app, mock := mockService(t)
	qos, retain := 0, false
	app.Config.MQTT.QoS = &qos
	app.Config.MQTT.Retain = &retain
	app.Publisher = app.newPublisher(mock)

	mock.SimulateMessage("capture/tablet/commands", []byte(`{"action":"add","point":[1,0,1]}`))

	states := mock.MessagesOn("roomwalk/tablet/state")
	require.Len(t, states, 1)
	assert.Equal(t, byte(0), states[0].QoS)
	assert.False(t, states[0].Retain)
}

func TestMQTTService_DefaultPublisherIsRetainedQoS1(t *testing.T) {
	_, mock := mockService(t)

	mock.SimulateMessage("capture/tablet/commands", []byte(`{"action":"add","point":[1,0,1]}`))

	states := mock.MessagesOn("roomwalk/tablet/state")
	require.Len(t, states, 1)
	assert.Equal(t, byte(1), states[0].QoS)
	assert.True(t, states[0].Retain)
}
