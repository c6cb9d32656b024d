package mqtt

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/errors"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/logger"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/privacy"
)

// qosAtMostOnce is used for every publish; events are informational.
const qosAtMostOnce byte = 0

// client implements the Client interface on top of paho.
type client struct {
	config         Config
	internalClient paho.Client
	mu             sync.Mutex
	metrics        Metrics
	log            logger.Logger
}

// NewClient creates a new MQTT client with the provided configuration.
// A nil metrics discards all measurements.
func NewClient(cfg Config, metrics Metrics) Client {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &client{
		config:  cfg,
		metrics: metrics,
		log:     GetLogger().With(logger.String("broker", privacy.SanitizeBrokerURL(cfg.Broker))),
	}
}

// Connect attempts to establish a connection to the MQTT broker.
// It first resolves the broker's hostname and then attempts to connect.
// On timeout paho keeps retrying in the background until Disconnect.
func (c *client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	u, err := url.Parse(c.config.Broker)
	if err != nil {
		return c.connectError(fmt.Errorf("invalid broker URL: %w", err))
	}

	host := u.Hostname()
	if net.ParseIP(host) == nil {
		if _, err := net.DefaultResolver.LookupHost(ctx, host); err != nil {
			return c.connectError(fmt.Errorf("failed to resolve broker host: %w", err))
		}
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(c.config.Broker)
	opts.SetClientID(c.config.ClientID)
	opts.SetUsername(c.config.Username)
	opts.SetPassword(c.config.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(c.config.ConnectTimeout)
	opts.SetMaxReconnectInterval(c.config.MaxReconnectInterval)
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)

	c.internalClient = paho.NewClient(opts)

	token := c.internalClient.Connect()
	timer := time.NewTimer(c.config.ConnectTimeout)
	defer timer.Stop()

	select {
	case <-token.Done():
	case <-timer.C:
		return c.connectError(fmt.Errorf("connection timeout after %v", c.config.ConnectTimeout))
	case <-ctx.Done():
		return c.connectError(ctx.Err())
	}
	if err := token.Error(); err != nil {
		return c.connectError(fmt.Errorf("connection error: %w", err))
	}

	c.metrics.UpdateConnectionStatus(true)
	return nil
}

func (c *client) connectError(err error) error {
	c.metrics.IncrementErrors("connect")
	return errors.New(privacy.WrapError(err)).
		Component("mqtt").
		Category(errors.CategoryMQTTConnect).
		Context("operation", "connect").
		Build()
}

// Publish sends a message to the specified topic and waits for the broker
// handshake, the context, or the publish timeout, whichever comes first.
func (c *client) Publish(ctx context.Context, topic string, payload []byte) error {
	if !c.IsConnected() {
		c.metrics.IncrementErrors("publish")
		return errors.Newf("not connected to MQTT broker").
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Context("operation", "publish").
			Build()
	}

	start := time.Now()
	token := c.internalClient.Publish(topic, qosAtMostOnce, c.config.Retain, payload)

	timer := time.NewTimer(c.config.PublishTimeout)
	defer timer.Stop()

	var err error
	select {
	case <-token.Done():
		err = token.Error()
	case <-timer.C:
		err = fmt.Errorf("publish timeout after %v", c.config.PublishTimeout)
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		c.metrics.IncrementErrors("publish")
		return errors.New(err).
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Context("operation", "publish").
			Context("topic", topic).
			Build()
	}

	c.metrics.ObservePublishLatency(time.Since(start))
	c.metrics.ObserveMessageSize(len(payload))
	c.metrics.IncrementMessagesDelivered()
	return nil
}

// IsConnected returns true if the client is currently connected to the MQTT broker.
func (c *client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.internalClient != nil && c.internalClient.IsConnected()
}

// Disconnect closes the connection to the MQTT broker and stops any
// background reconnect attempts.
func (c *client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.internalClient == nil {
		return
	}
	c.internalClient.Disconnect(uint(c.config.DisconnectTimeout.Milliseconds()))
	c.metrics.UpdateConnectionStatus(false)
}

func (c *client) onConnect(_ paho.Client) {
	c.log.Info("connected to MQTT broker")
	c.metrics.UpdateConnectionStatus(true)
}

func (c *client) onConnectionLost(_ paho.Client, err error) {
	c.log.Warn("connection to MQTT broker lost, reconnecting", logger.Error(privacy.WrapError(err)))
	c.metrics.UpdateConnectionStatus(false)
	c.metrics.IncrementErrors("connection_lost")
}
