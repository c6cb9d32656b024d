package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/detection"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/errors"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/logger"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/telemetry"
)

// internalErrorDetail is shown for failures that carry no user-facing text
const internalErrorDetail = "Internal server error"

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// handleError renders every error as {"detail": ...}. It may be called more
// than once for the same request by middleware that need the final status;
// only the first call writes.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, detail := s.resolveError(c, err)

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, ErrorResponse{Detail: detail})
	}
	if writeErr != nil {
		s.log.Warn("failed to write error response",
			logger.Int("status", status),
			logger.Error(writeErr))
	}
}

// resolveError maps err to an HTTP status and the detail shown to the client.
// Echo errors are checked first so a body limit hit while the detector reads
// the request still renders as 413.
func (s *Server) resolveError(c echo.Context, err error) (status int, detail string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok && msg != "" {
			return he.Code, msg
		}
		return he.Code, http.StatusText(he.Code)
	}

	if de, ok := detection.AsError(err); ok {
		return de.Status, de.Detail
	}

	// Anything else escaped the typed taxonomy, e.g. a recovered panic
	s.log.WithContext(c.Request().Context()).Error("unhandled request error",
		logger.String("method", c.Request().Method),
		logger.String("path", c.Path()),
		logger.Error(err))
	telemetry.CaptureError(err, "api")

	return http.StatusInternalServerError, internalErrorDetail
}
