package room

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Sub-topics under each device's base topic
const (
	TopicSurfaces = "surfaces"
	TopicSamples  = "samples"
	TopicCommands = "commands"
)

// Handlers receive decoded device messages. Any of them may be nil.
type Handlers struct {
	OnSurfaces func(deviceID string, surfaces []Surface)
	OnSample   func(deviceID string, sample Sample)
	OnCommand  func(deviceID string, cmd Command)
	// OnError is called for payloads that fail to decode or validate.
	OnError func(deviceID, topic string, err error)
}

// MQTTClient manages the MQTT connection and device subscriptions
type MQTTClient struct {
	client      mqtt.Client
	config      *Config
	handlers    Handlers
	validator   *CommandValidator
	isConnected bool
	mu          sync.RWMutex
}

// InitMQTT connects to the broker from the config (MQTT_* env vars win).
// If no broker is configured MQTT is disabled and this returns nil, nil.
func InitMQTT(config *Config, handlers Handlers) (*MQTTClient, error) {
	broker := os.Getenv("MQTT_BROKER")
	if broker == "" && config != nil && config.MQTT.Broker != "" {
		broker = config.MQTT.Broker
	}

	if broker == "" {
		log.Println("[MQTT] disabled: MQTT_BROKER not set")
		return nil, nil
	}

	if config == nil || len(config.Devices) == 0 {
		return nil, fmt.Errorf("MQTT enabled but no device configuration provided")
	}

	validator, err := NewCommandValidator()
	if err != nil {
		return nil, err
	}

	client := &MQTTClient{
		config:    config,
		handlers:  handlers,
		validator: validator,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)

	clientID := os.Getenv("MQTT_CLIENT_ID")
	if clientID == "" && config.MQTT.ClientID != "" {
		clientID = config.MQTT.ClientID
	}
	if clientID == "" {
		clientID = "roomwalk"
	}
	opts.SetClientID(clientID)

	username := os.Getenv("MQTT_USERNAME")
	if username == "" && config.MQTT.Username != "" {
		username = config.MQTT.Username
	}
	if username != "" {
		opts.SetUsername(username)
		password := os.Getenv("MQTT_PASSWORD")
		if password == "" && config.MQTT.Password != "" {
			password = config.MQTT.Password
		}
		opts.SetPassword(password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(false)
	// Commands for one device must be applied in the order they were sent.
	opts.SetOrderMatters(true)

	opts.SetDefaultPublishHandler(client.routeUnmatched)
	opts.SetOnConnectHandler(client.onConnect)
	opts.SetConnectionLostHandler(client.onConnectionLost)
	opts.SetReconnectingHandler(client.onReconnecting)

	client.client = mqtt.NewClient(opts)

	go client.connectWithRetry()

	return client, nil
}

// connectWithRetry attempts to connect to the MQTT broker with exponential backoff
func (c *MQTTClient) connectWithRetry() {
	retryDelay := 1 * time.Second
	maxRetryDelay := 60 * time.Second

	for {
		log.Println("[MQTT] connecting to broker...")

		token := c.client.Connect()
		if token.WaitTimeout(10 * time.Second) {
			if token.Error() == nil {
				log.Println("[MQTT] connected to broker")
				c.setConnected(true)
				return
			}
			log.Printf("[MQTT] connection failed: %v", token.Error())
		} else {
			log.Println("[MQTT] connection timeout")
		}

		log.Printf("[MQTT] retrying connection in %v...", retryDelay)
		time.Sleep(retryDelay)
		retryDelay *= 2
		if retryDelay > maxRetryDelay {
			retryDelay = maxRetryDelay
		}
	}
}

// onConnect subscribes to every device's surface, sample and command topics.
func (c *MQTTClient) onConnect(client mqtt.Client) {
	log.Println("[MQTT] connected, subscribing to device topics...")
	c.setConnected(true)

	for _, device := range c.config.Devices {
		if device.Topic == "" {
			log.Printf("[MQTT] warning: device %s has no topic configured", device.ID)
			continue
		}
		subs := map[string]mqtt.MessageHandler{
			DeviceTopic(device.Topic, TopicSurfaces): c.createSurfaceHandler(device.ID),
			DeviceTopic(device.Topic, TopicSamples):  c.createSampleHandler(device.ID),
			DeviceTopic(device.Topic, TopicCommands): c.createCommandHandler(device.ID),
		}
		for topic, handler := range subs {
			// QoS 1 so confirmations are not silently dropped
			token := client.Subscribe(topic, 1, handler)
			if token.WaitTimeout(5*time.Second) && token.Error() != nil {
				log.Printf("[MQTT] error subscribing to %s: %v", topic, token.Error())
				continue
			}
			log.Printf("[MQTT] subscribed to %s for device %s", topic, device.ID)
		}
	}
}

// onConnectionLost is called when the MQTT connection is lost
// Auto-reconnect is enabled, so this is typically a transient event
func (c *MQTTClient) onConnectionLost(client mqtt.Client, err error) {
	log.Printf("[MQTT] connection interrupted (%v), auto-reconnect will retry", err)
	c.setConnected(false)
}

func (c *MQTTClient) onReconnecting(client mqtt.Client, opts *mqtt.ClientOptions) {
	log.Println("[MQTT] reconnecting...")
}

// DeviceTopic joins a device base topic and a sub-topic.
func DeviceTopic(base, sub string) string {
	return strings.TrimSuffix(base, "/") + "/" + sub
}

func (c *MQTTClient) createSurfaceHandler(deviceID string) mqtt.MessageHandler {
	return func(client mqtt.Client, msg mqtt.Message) {
		surfaces, err := DecodeSurfaces(msg.Payload())
		if err != nil {
			c.reportError(deviceID, msg.Topic(), err)
			return
		}
		log.Printf("[MQTT] %s: received %d surfaces", deviceID, len(surfaces))
		if c.handlers.OnSurfaces != nil {
			c.handlers.OnSurfaces(deviceID, surfaces)
		}
	}
}

func (c *MQTTClient) createSampleHandler(deviceID string) mqtt.MessageHandler {
	return func(client mqtt.Client, msg mqtt.Message) {
		sample, err := DecodeSample(msg.Payload())
		if err != nil {
			c.reportError(deviceID, msg.Topic(), err)
			return
		}
		if c.handlers.OnSample != nil {
			c.handlers.OnSample(deviceID, sample)
		}
	}
}

func (c *MQTTClient) createCommandHandler(deviceID string) mqtt.MessageHandler {
	return func(client mqtt.Client, msg mqtt.Message) {
		cmd, err := DecodeCommand(c.validator, msg.Payload())
		if err != nil {
			c.reportError(deviceID, msg.Topic(), err)
			return
		}
		log.Printf("[MQTT] %s: command %s", deviceID, cmd.Action)
		if c.handlers.OnCommand != nil {
			c.handlers.OnCommand(deviceID, cmd)
		}
	}
}

func (c *MQTTClient) reportError(deviceID, topic string, err error) {
	log.Printf("[MQTT] %s: bad payload on %s: %v", deviceID, topic, err)
	if c.handlers.OnError != nil {
		c.handlers.OnError(deviceID, topic, err)
	}
}

// IsConnected returns true if the MQTT client is connected
func (c *MQTTClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

func (c *MQTTClient) setConnected(connected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isConnected = connected
}

// Disconnect gracefully closes the MQTT connection
func (c *MQTTClient) Disconnect() {
	if c.client != nil && c.client.IsConnected() {
		log.Println("[MQTT] disconnecting from broker...")
		c.client.Disconnect(250)
		c.setConnected(false)
	}
}

// GetDeviceByTopic returns the device ID and sub-topic owning topic
func (c *MQTTClient) GetDeviceByTopic(topic string) (deviceID, sub string, ok bool) {
	for _, device := range c.config.Devices {
		base := strings.TrimSuffix(device.Topic, "/")
		if strings.HasPrefix(topic, base+"/") {
			switch sub := strings.TrimPrefix(topic, base+"/"); sub {
			case TopicSurfaces, TopicSamples, TopicCommands:
				return device.ID, sub, true
			}
		}
	}
	return "", "", false
}

// routeUnmatched receives messages with no subscription route yet. With a
// persistent session the broker redelivers queued messages as soon as the
// connection is up, before onConnect has resubscribed.
func (c *MQTTClient) routeUnmatched(client mqtt.Client, msg mqtt.Message) {
	deviceID, sub, ok := c.GetDeviceByTopic(msg.Topic())
	if !ok {
		log.Printf("[MQTT] ignoring message on unexpected topic %s", msg.Topic())
		return
	}
	switch sub {
	case TopicSurfaces:
		c.createSurfaceHandler(deviceID)(client, msg)
	case TopicSamples:
		c.createSampleHandler(deviceID)(client, msg)
	case TopicCommands:
		c.createCommandHandler(deviceID)(client, msg)
	}
}

// GetClient returns the underlying MQTT client for publishing
func (c *MQTTClient) GetClient() mqtt.Client {
	return c.client
}

// NewMQTTClientWithMock creates an MQTTClient around a provided mqtt.Client.
// Used by tests with MockClient.
func NewMQTTClientWithMock(client mqtt.Client, config *Config, handlers Handlers) *MQTTClient {
	validator, err := NewCommandValidator()
	if err != nil {
		panic(err)
	}
	return &MQTTClient{
		client:    client,
		config:    config,
		handlers:  handlers,
		validator: validator,
	}
}

// Subscribe runs the on-connect subscription logic against the wrapped client.
func (c *MQTTClient) Subscribe() {
	c.onConnect(c.client)
}
