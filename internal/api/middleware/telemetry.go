package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/detection"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/errors"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/logger"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/observability/metrics"
)

// unmatchedPath labels requests that did not hit a registered route so that
// scanners cannot inflate label cardinality with arbitrary URLs.
const unmatchedPath = "unmatched"

// HTTPRecorder is the subset of metrics.HTTPMetrics used by the middleware.
type HTTPRecorder interface {
	RecordHTTPRequest(method, path string, statusCode int, duration float64)
	RecordHTTPRequestError(method, path, errorType string)
	RecordHTTPResponseSize(method, path string, sizeBytes int64)
}

var _ HTTPRecorder = (*metrics.HTTPMetrics)(nil)

// TelemetryMiddleware provides HTTP request metrics
type TelemetryMiddleware struct {
	httpMetrics HTTPRecorder
}

// NewTelemetryMiddleware creates a new telemetry middleware instance
func NewTelemetryMiddleware(httpMetrics HTTPRecorder) *TelemetryMiddleware {
	return &TelemetryMiddleware{
		httpMetrics: httpMetrics,
	}
}

// Middleware returns the Echo middleware function. Errors are rendered through
// the global error handler before the status is read, so the recorded status
// matches what the client receives.
func (tm *TelemetryMiddleware) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if tm.httpMetrics == nil {
				return next(c)
			}

			start := time.Now()
			method := c.Request().Method

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			path := c.Path()
			if path == "" || path == "/*" {
				path = unmatchedPath
			}

			tm.httpMetrics.RecordHTTPRequest(method, path, c.Response().Status, time.Since(start).Seconds())
			tm.httpMetrics.RecordHTTPResponseSize(method, path, c.Response().Size)
			if err != nil {
				tm.httpMetrics.RecordHTTPRequestError(method, path, CategorizeError(err))
			}

			return err
		}
	}
}

// CategorizeError maps an error to the error_type label value.
func CategorizeError(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return "http"
	}
	if de, ok := detection.AsError(err); ok {
		return string(de.Kind)
	}
	return "internal"
}

// NewRequestID assigns a request ID and carries it into the request context
// as the logger trace ID.
func NewRequestID() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithTraceID(req.Context(), id)))
		},
	})
}
