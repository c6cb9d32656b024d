// Package api provides the HTTP server for the voice detection service.
// Routes, error rendering and the middleware stack live here while the
// classification pipeline itself is in the detection package.
package api

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/labstack/gommon/bytes"

	mw "github.com/Akshitakasturia08/ai-voice-detection-api/internal/api/middleware"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/conf"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/logger"
)

// GetLogger returns the api package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("api")
}

// Default constants for the HTTP server.
const (
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultBodyLimit       = "10M"
	DefaultMetricsPath     = "/metrics"
)

// Config holds the HTTP server configuration.
// It consolidates settings from the server and telemetry sections into a
// single structure for server initialization.
type Config struct {
	// Server binding
	Host string // Host to bind to (empty for all interfaces)
	Port int    // Port to listen on

	// Security settings
	AllowedOrigins []string // CORS allowed origins
	TrustedProxies []string // CIDRs or addresses allowed to set X-Forwarded-For

	// Timeouts
	ReadTimeout     time.Duration // Maximum duration for reading request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum time to wait for next request
	ShutdownTimeout time.Duration // Maximum time to wait for graceful shutdown

	// Limits
	BodyLimit string  // Maximum request body size (e.g., "1M", "10M")
	RateLimit float64 // Detection requests per second per client IP, 0 disables
	RateBurst int

	// Metrics endpoint
	MetricsEnabled bool
	MetricsPath    string

	// Logging
	Debug bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:            conf.DefaultPort,
		AllowedOrigins:  []string{"*"},
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		IdleTimeout:     DefaultIdleTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		BodyLimit:       DefaultBodyLimit,
		MetricsPath:     DefaultMetricsPath,
	}
}

// ConfigFromSettings creates a Config from the application settings.
// Zero values in settings keep the defaults.
func ConfigFromSettings(settings *conf.Settings) *Config {
	cfg := DefaultConfig()
	server := settings.Server

	cfg.Host = server.Host
	if server.Port != 0 {
		cfg.Port = server.Port
	}
	if len(server.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = server.AllowedOrigins
	}
	cfg.TrustedProxies = server.TrustedProxies
	if server.ReadTimeout > 0 {
		cfg.ReadTimeout = server.ReadTimeout
	}
	if server.WriteTimeout > 0 {
		cfg.WriteTimeout = server.WriteTimeout
	}
	if server.IdleTimeout > 0 {
		cfg.IdleTimeout = server.IdleTimeout
	}
	if server.ShutdownTimeout > 0 {
		cfg.ShutdownTimeout = server.ShutdownTimeout
	}
	if server.BodyLimit != "" {
		cfg.BodyLimit = server.BodyLimit
	}
	cfg.RateLimit = server.RateLimit
	cfg.RateBurst = server.RateBurst

	cfg.MetricsEnabled = settings.Telemetry.Enabled
	if settings.Telemetry.Path != "" {
		cfg.MetricsPath = settings.Telemetry.Path
	}

	cfg.Debug = settings.Debug
	return cfg
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}

	if _, err := bytes.Parse(c.BodyLimit); err != nil {
		return fmt.Errorf("invalid body limit %q: %w", c.BodyLimit, err)
	}

	// Validate timeouts
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive")
	}

	if _, err := mw.ParseTrustedProxies(c.TrustedProxies); err != nil {
		return err
	}

	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		return fmt.Errorf("rate burst must be at least 1 when rate limiting is enabled")
	}

	if c.MetricsEnabled && (c.MetricsPath == "" || c.MetricsPath[0] != '/') {
		return fmt.Errorf("metrics path %q must start with /", c.MetricsPath)
	}

	return nil
}

// Address returns the full address string for the server to listen on.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// String returns a human-readable representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf("Server Config: address=%s, body_limit=%s, rate_limit=%g, debug=%v",
		c.Address(), c.BodyLimit, c.RateLimit, c.Debug)
}
