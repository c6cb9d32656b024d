package detection

import "github.com/Akshitakasturia08/ai-voice-detection-api/internal/logger"

// GetLogger returns the detection package logger scoped to the detection module.
func GetLogger() logger.Logger {
	return logger.Global().Module("detection")
}
