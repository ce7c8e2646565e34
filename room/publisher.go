package room

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// StateMessage is published after every command.
type StateMessage struct {
	DeviceID  string       `json:"deviceId"`
	SessionID string       `json:"sessionId"`
	State     BuilderState `json:"state"`
	Timestamp int64        `json:"timestamp"`
}

// Publisher publishes walk state and measurements to MQTT
type Publisher struct {
	client        mqtt.Client
	publishPrefix string
	qos           byte
	retain        bool
	measurements  map[string]*Measurement
	mu            sync.RWMutex
}

// NewPublisher creates a new publisher. prefix falls back to
// MQTT_PUBLISH_PREFIX, then "roomwalk". A nil client disables publishing.
func NewPublisher(client mqtt.Client, prefix string) *Publisher {
	if prefix == "" {
		prefix = os.Getenv("MQTT_PUBLISH_PREFIX")
	}
	if prefix == "" {
		prefix = "roomwalk"
	}

	return &Publisher{
		client:        client,
		publishPrefix: prefix,
		qos:           1,
		retain:        true,
		measurements:  make(map[string]*Measurement),
	}
}

// PublishState publishes the builder state to {prefix}/{device}/state.
func (p *Publisher) PublishState(deviceID, sessionID string, state BuilderState) error {
	msg := StateMessage{
		DeviceID:  deviceID,
		SessionID: sessionID,
		State:     state,
		Timestamp: time.Now().Unix(),
	}
	return p.publish(fmt.Sprintf("%s/%s/state", p.publishPrefix, deviceID), msg)
}

// PublishMeasurement publishes a finished measurement to
// {prefix}/{device}/measurement and remembers it.
func (p *Publisher) PublishMeasurement(deviceID string, m Measurement) error {
	p.mu.Lock()
	stored := m
	p.measurements[deviceID] = &stored
	p.mu.Unlock()

	if err := p.publish(fmt.Sprintf("%s/%s/measurement", p.publishPrefix, deviceID), m); err != nil {
		return err
	}
	log.Printf("[MQTT] published measurement for %s: area=%.2fm² volume=%.2fm³ confidence=%.2f",
		deviceID, m.AreaSqm, m.VolumeM3, m.ConfidenceScore)
	return nil
}

func (p *Publisher) publish(topic string, v interface{}) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling payload for %s: %w", topic, err)
	}

	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}
	return nil
}

// GetMeasurement returns the last published measurement for a device
func (p *Publisher) GetMeasurement(deviceID string) (*Measurement, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	m, ok := p.measurements[deviceID]
	if !ok {
		return nil, false
	}
	cp := *m
	return &cp, true
}

// SetQoS sets the Quality of Service level for publishing (0, 1, or 2)
func (p *Publisher) SetQoS(qos byte) {
	if qos <= 2 {
		p.qos = qos
	}
}

// SetRetain sets whether published messages should be retained by the broker
func (p *Publisher) SetRetain(retain bool) {
	p.retain = retain
}
