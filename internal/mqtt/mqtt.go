// Package mqtt publishes classification events to an MQTT broker.
package mqtt

import (
	"context"
	"time"

	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/conf"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/logger"
)

// Client defines the interface for MQTT client operations.
type Client interface {
	// Connect attempts to connect to the MQTT broker.
	Connect(ctx context.Context) error

	// Publish sends a message to the specified topic on the MQTT broker.
	Publish(ctx context.Context, topic string, payload []byte) error

	// IsConnected returns true if the client is currently connected to the MQTT broker.
	IsConnected() bool

	// Disconnect closes the connection to the MQTT broker.
	Disconnect()
}

// Metrics receives client and publisher outcomes
type Metrics interface {
	UpdateConnectionStatus(connected bool)
	IncrementMessagesDelivered()
	IncrementErrors(operation string)
	ObserveMessageSize(sizeBytes int)
	ObservePublishLatency(latency time.Duration)
}

// Config holds the configuration for the MQTT client.
type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string // topic classification events are published to
	Retain   bool   // true to retain messages at the broker

	ConnectTimeout       time.Duration
	PublishTimeout       time.Duration
	DisconnectTimeout    time.Duration
	MaxReconnectInterval time.Duration

	// MaxInflight bounds concurrent background publishes; events beyond it are dropped.
	MaxInflight int
}

// DefaultConfig returns a Config with reasonable default values
func DefaultConfig() Config {
	return Config{
		ConnectTimeout:       30 * time.Second,
		PublishTimeout:       10 * time.Second,
		DisconnectTimeout:    250 * time.Millisecond,
		MaxReconnectInterval: 5 * time.Minute,
		MaxInflight:          64,
	}
}

// ConfigFromSettings overlays the user settings on DefaultConfig.
func ConfigFromSettings(s *conf.MQTTSettings) Config {
	cfg := DefaultConfig()
	cfg.Broker = s.Broker
	cfg.ClientID = s.ClientID
	cfg.Username = s.Username
	cfg.Password = s.Password
	cfg.Topic = s.Topic
	cfg.Retain = s.Retain
	if s.Timeout > 0 {
		cfg.PublishTimeout = s.Timeout
	}
	return cfg
}

// GetLogger returns the mqtt module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("mqtt")
}

type noopMetrics struct{}

func (noopMetrics) UpdateConnectionStatus(bool)         {}
func (noopMetrics) IncrementMessagesDelivered()         {}
func (noopMetrics) IncrementErrors(string)              {}
func (noopMetrics) ObserveMessageSize(int)              {}
func (noopMetrics) ObservePublishLatency(time.Duration) {}
