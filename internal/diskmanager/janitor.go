package diskmanager

import (
	"context"
	"time"

	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/logger"
)

// GetLogger returns the diskmanager module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("diskmanager")
}

// Run applies the policy immediately and then every Interval until ctx is
// cancelled. Run errors are logged and never stop the loop.
func (m *Manager) Run(ctx context.Context) {
	interval := m.settings.Interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	m.log.Info("retention janitor started",
		logger.String("policy", m.settings.Policy),
		logger.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		m.runOnce(ctx)

		select {
		case <-ctx.Done():
			m.log.Info("retention janitor stopped")
			return
		case <-ticker.C:
		}
	}
}

func (m *Manager) runOnce(ctx context.Context) {
	result, err := m.Cleanup(ctx)
	if err != nil {
		m.log.Error("retention run failed", logger.Error(err))
		return
	}
	if result.Deleted > 0 || result.TempsRemoved > 0 {
		m.log.Info("retention policy applied",
			logger.String("policy", result.Policy),
			logger.Int("files_scanned", result.Scanned),
			logger.Int("files_deleted", result.Deleted),
			logger.Int("temps_removed", result.TempsRemoved),
			logger.Int64("bytes_freed", result.BytesFreed))
	}
}
