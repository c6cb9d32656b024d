package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	mw "github.com/Akshitakasturia08/ai-voice-detection-api/internal/api/middleware"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/buildinfo"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/conf"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/detection"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/diskmanager"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/logger"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/observability"
)

// Route paths served by the API.
const (
	RootPath           = "/"
	HealthPath         = "/health"
	DetectPath         = "/detect"
	VoiceDetectionPath = "/api/voice-detection"
)

// Server is the HTTP server for the voice detection service.
// It manages the Echo framework instance, middleware, and all HTTP routes.
type Server struct {
	// Core components
	echo     *echo.Echo
	config   *Config
	settings *conf.Settings
	log      logger.Logger

	// Dependencies
	detector  *detection.Detector
	uploads   diskmanager.Store
	metrics   *observability.Metrics
	buildInfo *buildinfo.Context
	health    *healthReporter

	// Optional pre-bound listener
	listener net.Listener
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithMetrics sets the observability metrics for the server. When telemetry
// is enabled the registry is also exposed on the metrics path.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithBuildInfo sets the build metadata reported by the health endpoint.
func WithBuildInfo(info *buildinfo.Context) ServerOption {
	return func(s *Server) {
		s.buildInfo = info
	}
}

// WithUploadStore sets the upload directory reported by the health endpoint.
func WithUploadStore(store diskmanager.Store) ServerOption {
	return func(s *Server) {
		s.uploads = store
	}
}

// WithListener serves on an existing listener instead of binding the
// configured address. Used by tests to bind an ephemeral port.
func WithListener(l net.Listener) ServerOption {
	return func(s *Server) {
		s.listener = l
	}
}

// New creates a new HTTP server with the given settings, detector and options.
func New(settings *conf.Settings, detector *detection.Detector, opts ...ServerOption) (*Server, error) {
	if detector == nil {
		return nil, fmt.Errorf("detector is required")
	}

	// Create configuration from settings
	config := ConfigFromSettings(settings)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	s := &Server{
		config:   config,
		settings: settings,
		detector: detector,
		log:      GetLogger(),
	}

	// Apply options
	for _, opt := range opts {
		opt(s)
	}

	if s.buildInfo == nil {
		s.buildInfo = buildinfo.NewContext("", "", "")
	}
	s.health = newHealthReporter(s.uploads)

	// Initialize Echo
	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = s.handleError

	// Client IP for rate limiting and request logs
	ipExtractor, err := mw.NewIPExtractor(config.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	s.echo.IPExtractor = ipExtractor

	// Configure Echo server timeouts
	s.echo.Server.ReadTimeout = config.ReadTimeout
	s.echo.Server.WriteTimeout = config.WriteTimeout
	s.echo.Server.IdleTimeout = config.IdleTimeout

	// Setup middleware
	s.setupMiddleware()

	// Setup routes
	s.setupRoutes()

	s.log.Info("HTTP server initialized",
		logger.String("address", config.Address()),
		logger.String("classifier_mode", detector.ClassifierMode()),
		logger.Bool("metrics", s.metricsExposed()),
		logger.Bool("debug", config.Debug),
	)

	return s, nil
}

// setupMiddleware configures the Echo middleware stack.
func (s *Server) setupMiddleware() {
	// Recovery middleware - should be first
	s.echo.Use(echomw.Recover())

	// Request ID before the logger so every line carries it
	s.echo.Use(mw.NewRequestID())
	s.echo.Use(mw.NewRequestLogger(s.log))

	if s.metrics != nil {
		s.echo.Use(mw.NewTelemetryMiddleware(s.metrics.HTTP).Middleware())
	}

	// Security middleware configuration
	securityConfig := mw.DefaultSecurityConfig()
	securityConfig.AllowedOrigins = s.config.AllowedOrigins

	s.echo.Use(mw.NewCORS(securityConfig))
	s.echo.Use(mw.NewBodyLimit(s.config.BodyLimit))
	s.echo.Use(mw.NewSecureHeaders(securityConfig))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.echo.GET(RootPath, s.root)
	s.echo.GET(HealthPath, s.healthCheck)

	// Both paths share one handler; the rate limiter only guards the
	// endpoints that write to disk.
	var detectMiddleware []echo.MiddlewareFunc
	if s.config.RateLimit > 0 {
		detectMiddleware = append(detectMiddleware, mw.NewRateLimiter(s.config.RateLimit, s.config.RateBurst))
	}
	s.echo.POST(DetectPath, s.detect, detectMiddleware...)
	s.echo.POST(VoiceDetectionPath, s.detect, detectMiddleware...)

	if s.metricsExposed() {
		s.echo.GET(s.config.MetricsPath, echo.WrapHandler(s.metrics.Handler()))
	}

	s.log.Debug("routes initialized",
		logger.Bool("rate_limited", len(detectMiddleware) > 0),
		logger.Bool("metrics", s.metricsExposed()),
	)
}

func (s *Server) metricsExposed() bool {
	return s.config.MetricsEnabled && s.metrics != nil
}

// Start begins serving HTTP requests and blocks until the server is shut down.
// A clean shutdown returns nil.
func (s *Server) Start() error {
	addr := s.config.Address()

	if s.listener != nil {
		s.echo.Listener = s.listener
		addr = s.listener.Addr().String()
	}

	s.log.Info("starting HTTP server", logger.String("address", addr))

	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully stops the server, waiting at most the configured
// shutdown timeout for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		s.log.Error("error during server shutdown", logger.Error(err))
		return fmt.Errorf("shutdown error: %w", err)
	}

	s.log.Info("server shutdown complete")
	return nil
}

// Echo returns the underlying Echo instance.
// This is useful for testing or advanced configuration.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Config returns the effective server configuration.
func (s *Server) Config() *Config {
	return s.config
}

// uptime is reported by the health endpoint
func (s *Server) uptime() time.Duration {
	return s.buildInfo.Uptime()
}
