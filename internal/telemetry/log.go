package telemetry

import (
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/logger"
)

// GetLogger returns the telemetry module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("telemetry")
}
