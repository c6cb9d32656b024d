// Package middleware provides HTTP middleware components for the voice detection server.
package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/logger"
)

// NewRequestLogger creates a request logging middleware using Echo 4.14.0+ RequestLoggerWithConfig.
// Request headers are never logged so the x-api-key value cannot leak.
func NewRequestLogger(log logger.Logger) echo.MiddlewareFunc {
	return NewRequestLoggerWithSkipper(log, nil)
}

// NewRequestLoggerWithSkipper creates a request logging middleware with a custom skipper.
func NewRequestLoggerWithSkipper(log logger.Logger, skipper middleware.Skipper) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper:      skipper,
		HandleError:  true, // status reflects the rendered error, not the pre-handler 200
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogError:     true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if log == nil {
				return nil
			}

			fields := []logger.Field{
				logger.String("method", v.Method),
				logger.String("uri", logger.RedactSensitiveData(v.URI)),
				logger.Int("status", v.Status),
				logger.String("ip", v.RemoteIP),
				logger.Duration("latency", v.Latency),
			}
			if v.RequestID != "" {
				fields = append(fields, logger.String("request_id", v.RequestID))
			}

			reqLog := log.WithContext(c.Request().Context())
			switch {
			case v.Status >= 500:
				if v.Error != nil {
					fields = append(fields, logger.Error(v.Error))
				}
				reqLog.Error("request", fields...)
			case v.Error != nil:
				fields = append(fields, logger.String("error", v.Error.Error()))
				reqLog.Info("request", fields...)
			default:
				reqLog.Info("request", fields...)
			}
			return nil
		},
	})
}
