package conf

import "github.com/Akshitakasturia08/ai-voice-detection-api/internal/logger"

// GetLogger returns the config package logger scoped to the config module.
// The logger is fetched from the global logger each time so it picks up the
// central logger once it has been configured.
func GetLogger() logger.Logger {
	return logger.Global().Module("config")
}
