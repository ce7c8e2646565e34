package room

import (
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deviceConfig() *Config {
	cfg := DefaultConfig()
	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.Devices = []DeviceConfig{
		{ID: "tablet-a", Topic: "capture/tablet-a"},
		{ID: "tablet-b", Topic: "capture/tablet-b/"},
	}
	return cfg
}

func TestInitMQTT_Disabled(t *testing.T) {
	t.Setenv("MQTT_BROKER", "")
	cfg := DefaultConfig()
	cfg.Devices = []DeviceConfig{{ID: "a", Topic: "capture/a"}}

	client, err := InitMQTT(cfg, Handlers{})
	assert.NoError(t, err)
	assert.Nil(t, client)
}

func TestInitMQTT_NoDevices(t *testing.T) {
	t.Setenv("MQTT_BROKER", "")
	cfg := DefaultConfig()
	cfg.MQTT.Broker = "tcp://localhost:1883"

	_, err := InitMQTT(cfg, Handlers{})
	assert.Error(t, err)
}

func TestMQTTClient_IsConnected(t *testing.T) {
	client := &MQTTClient{}
	assert.False(t, client.IsConnected(), "New client should not be connected")

	client.setConnected(true)
	assert.True(t, client.IsConnected())

	client.setConnected(false)
	assert.False(t, client.IsConnected())
}

func TestDeviceTopic(t *testing.T) {
	assert.Equal(t, "capture/a/commands", DeviceTopic("capture/a", TopicCommands))
	assert.Equal(t, "capture/a/samples", DeviceTopic("capture/a/", TopicSamples))
}

func TestMQTTClient_GetDeviceByTopic(t *testing.T) {
	c := NewMQTTClientWithMock(NewMockClient(), deviceConfig(), Handlers{})

	tests := []struct {
		topic  string
		device string
		sub    string
		ok     bool
	}{
		{"capture/tablet-a/surfaces", "tablet-a", TopicSurfaces, true},
		{"capture/tablet-b/commands", "tablet-b", TopicCommands, true},
		{"capture/tablet-a/state", "", "", false},
		{"capture/tablet-c/commands", "", "", false},
	}
	for _, tt := range tests {
		device, sub, ok := c.GetDeviceByTopic(tt.topic)
		assert.Equal(t, tt.ok, ok, tt.topic)
		assert.Equal(t, tt.device, device, tt.topic)
		assert.Equal(t, tt.sub, sub, tt.topic)
	}
}

func TestMQTTClient_RoutesMessagesBeforeResubscribe(t *testing.T) {
	mock := NewMockClient()
	mock.SetConnected(true)
	rec := &recorded{}
	c := NewMQTTClientWithMock(mock, deviceConfig(), rec.handlers())

	// no Subscribe: these arrive through the default handler
	c.routeUnmatched(mock, &mockMessage{topic: "capture/tablet-b/commands", payload: []byte(`{"action":"undo"}`)})
	c.routeUnmatched(mock, &mockMessage{topic: "capture/tablet-a/samples", payload: []byte(`{"point":null,"lux":120}`)})
	c.routeUnmatched(mock, &mockMessage{topic: "capture/tablet-a/state", payload: []byte(`{}`)})

	require.Len(t, rec.commands, 1)
	assert.Equal(t, ActionUndo, rec.commands[0].Action)
	require.Len(t, rec.samples, 1)
	assert.Empty(t, rec.surfaces)
	assert.Empty(t, rec.errs)
}

func TestMQTTClient_SubscribesEveryDeviceTopic(t *testing.T) {
	mock := NewMockClient()
	mock.SetConnected(true)
	c := NewMQTTClientWithMock(mock, deviceConfig(), Handlers{})

	c.Subscribe()

	topics := mock.SubscribedTopics()
	sort.Strings(topics)
	assert.Equal(t, []string{
		"capture/tablet-a/commands",
		"capture/tablet-a/samples",
		"capture/tablet-a/surfaces",
		"capture/tablet-b/commands",
		"capture/tablet-b/samples",
		"capture/tablet-b/surfaces",
	}, topics)
	assert.True(t, c.IsConnected())
}

func TestMQTTClient_SubscribeErrorIsLogged(t *testing.T) {
	mock := NewMockClient()
	mock.SetConnected(true)
	mock.SetSubscribeError(errors.New("denied"))
	c := NewMQTTClientWithMock(mock, deviceConfig(), Handlers{})

	c.Subscribe()
	assert.Empty(t, mock.SubscribedTopics())
}

type recorded struct {
	mu       sync.Mutex
	surfaces map[string][]Surface
	samples  []Sample
	commands []Command
	errs     []error
}

func (r *recorded) handlers() Handlers {
	r.surfaces = make(map[string][]Surface)
	return Handlers{
		OnSurfaces: func(id string, s []Surface) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.surfaces[id] = s
		},
		OnSample: func(id string, s Sample) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.samples = append(r.samples, s)
		},
		OnCommand: func(id string, c Command) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.commands = append(r.commands, c)
		},
		OnError: func(id, topic string, err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errs = append(r.errs, err)
		},
	}
}

func TestMQTTClient_DispatchesDecodedMessages(t *testing.T) {
	mock := NewMockClient()
	mock.SetConnected(true)
	rec := &recorded{}
	c := NewMQTTClientWithMock(mock, deviceConfig(), rec.handlers())
	c.Subscribe()

	mock.SimulateMessage("capture/tablet-a/surfaces", []byte(`{"surfaces":[{"id":"f","normal":[0,1,0],"polygonWorld":[[0,0,0],[1,0,0],[1,0,1]]}]}`))
	mock.SimulateMessage("capture/tablet-a/samples", []byte(`{"point":[0.1,0,0.1],"tracking":"NORMAL"}`))
	mock.SimulateMessage("capture/tablet-b/commands", []byte(`{"action":"add","point":[1,0,1]}`))

	require.Len(t, rec.surfaces["tablet-a"], 1)
	require.Len(t, rec.samples, 1)
	assert.Equal(t, TrackingNormal, rec.samples[0].Tracking)
	require.Len(t, rec.commands, 1)
	assert.Equal(t, ActionAdd, rec.commands[0].Action)
	assert.Empty(t, rec.errs)
}

func TestMQTTClient_RejectsInvalidPayloads(t *testing.T) {
	mock := NewMockClient()
	mock.SetConnected(true)
	rec := &recorded{}
	c := NewMQTTClientWithMock(mock, deviceConfig(), rec.handlers())
	c.Subscribe()

	mock.SimulateMessage("capture/tablet-a/commands", []byte(`{"action":"teleport"}`))
	mock.SimulateMessage("capture/tablet-a/samples", []byte(`not json`))
	mock.SimulateMessage("capture/tablet-a/surfaces", []byte(`42`))

	assert.Empty(t, rec.commands)
	assert.Empty(t, rec.samples)
	assert.Empty(t, rec.surfaces)
	require.Len(t, rec.errs, 3)
	assert.ErrorIs(t, rec.errs[0], ErrInvalidCommand)
}

func TestMQTTClient_Disconnect(t *testing.T) {
	mock := NewMockClient()
	mock.SetConnected(true)
	c := NewMQTTClientWithMock(mock, deviceConfig(), Handlers{})
	c.Subscribe()

	c.Disconnect()
	assert.False(t, c.IsConnected())
	assert.False(t, mock.IsConnected())
}
