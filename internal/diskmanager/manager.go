// Package diskmanager removes persisted uploads according to the configured
// retention policy.
package diskmanager

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/conf"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/errors"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/logger"
)

// maxDeletions caps the files removed by a single run
const maxDeletions = 1000

// staleTempAge is how old an unfinished write must be before a run removes it
const staleTempAge = time.Hour

// Metrics receives retention outcomes
type Metrics interface {
	UpdateDiskUsage(usedBytes, totalBytes uint64)
	RecordCleanupOperation(policy, status string)
	RecordCleanupError(policy, errorType string)
	RecordFilesDeleted(policy string, count int)
	RecordBytesFreed(policy string, bytes int64)
	RecordCleanupDuration(policy string, seconds float64)
}

// Result summarizes one cleanup run
type Result struct {
	Policy     string
	Scanned    int
	Deleted    int
	BytesFreed int64

	// TempsRemoved counts abandoned temp files swept alongside the policy
	TempsRemoved int
}

// Manager applies one retention policy to an upload store
type Manager struct {
	store    Store
	settings conf.RetentionSettings
	metrics  Metrics
	log      logger.Logger

	// overridable in tests
	now       func() time.Time
	diskUsage func(path string) (DiskSpaceInfo, error)
}

// Option configures a Manager
type Option func(*Manager)

// WithMetrics attaches a metrics sink
func WithMetrics(m Metrics) Option {
	return func(mgr *Manager) {
		mgr.metrics = m
	}
}

// NewManager returns a Manager for store. Settings are expected to have passed
// conf.ValidateSettings.
func NewManager(store Store, settings conf.RetentionSettings, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		settings:  settings,
		log:       GetLogger(),
		now:       time.Now,
		diskUsage: GetDetailedDiskUsage,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Cleanup runs the configured policy once. Cancelling ctx ends the run early
// without an error; files already removed stay removed.
func (m *Manager) Cleanup(ctx context.Context) (*Result, error) {
	start := m.now()
	policy := m.settings.Policy

	var (
		result *Result
		err    error
	)
	switch policy {
	case conf.RetentionPolicyAge:
		result, err = m.ageBasedCleanup(ctx)
	case conf.RetentionPolicyCount:
		result, err = m.countBasedCleanup(ctx)
	case conf.RetentionPolicyUsage:
		result, err = m.usageBasedCleanup(ctx)
	default:
		err = errors.Newf("unknown retention policy %q", policy).
			Component("diskmanager").
			Category(errors.CategoryPolicyConfig).
			Build()
	}

	if err == nil {
		m.sweepStaleTemps(ctx, result)
	}

	if m.metrics != nil {
		m.metrics.RecordCleanupDuration(policy, m.now().Sub(start).Seconds())
		if err != nil {
			m.metrics.RecordCleanupOperation(policy, "error")
		} else {
			m.metrics.RecordCleanupOperation(policy, "success")
			m.metrics.RecordFilesDeleted(policy, result.Deleted)
			m.metrics.RecordBytesFreed(policy, result.BytesFreed)
		}
	}

	return result, err
}

// ageBasedCleanup removes uploads older than MaxAge
func (m *Manager) ageBasedCleanup(ctx context.Context) (*Result, error) {
	hours, err := conf.ParseRetentionPeriod(m.settings.MaxAge)
	if err != nil {
		return nil, m.policyError(err)
	}

	files, err := GetAudioFiles(m.store)
	if err != nil {
		return nil, err
	}

	result := &Result{Policy: conf.RetentionPolicyAge, Scanned: len(files)}
	expiration := m.now().Add(-time.Duration(hours) * time.Hour)

	for i := range files {
		if !files[i].ModTime.Before(expiration) {
			// sorted oldest first, nothing later is expired
			break
		}
		if done, err := m.deleteNext(ctx, &files[i], result); done || err != nil {
			return result, err
		}
	}

	return result, nil
}

// countBasedCleanup keeps the newest MaxFiles uploads
func (m *Manager) countBasedCleanup(ctx context.Context) (*Result, error) {
	files, err := GetAudioFiles(m.store)
	if err != nil {
		return nil, err
	}

	result := &Result{Policy: conf.RetentionPolicyCount, Scanned: len(files)}
	excess := len(files) - m.settings.MaxFiles

	for i := 0; i < excess; i++ {
		if done, err := m.deleteNext(ctx, &files[i], result); done || err != nil {
			return result, err
		}
	}

	return result, nil
}

// usageBasedCleanup removes the oldest uploads while the filesystem is above MaxUsage
func (m *Manager) usageBasedCleanup(ctx context.Context) (*Result, error) {
	threshold, err := conf.ParsePercentage(m.settings.MaxUsage)
	if err != nil {
		return nil, m.policyError(err)
	}

	usage, err := m.checkUsage()
	if err != nil {
		return nil, err
	}

	result := &Result{Policy: conf.RetentionPolicyUsage}
	if usage.UsedPercent <= threshold {
		m.log.Debug("disk usage below threshold, no cleanup needed",
			logger.Float64("usage", usage.UsedPercent),
			logger.Float64("threshold", threshold))
		return result, nil
	}

	files, err := GetAudioFiles(m.store)
	if err != nil {
		return nil, err
	}
	result.Scanned = len(files)

	for i := range files {
		if done, err := m.deleteNext(ctx, &files[i], result); done || err != nil {
			return result, err
		}

		usage, err = m.checkUsage()
		if err != nil {
			return result, err
		}
		if usage.UsedPercent <= threshold {
			break
		}
	}

	return result, nil
}

func (m *Manager) checkUsage() (DiskSpaceInfo, error) {
	usage, err := m.diskUsage(m.store.BaseDir())
	if err != nil {
		if m.metrics != nil {
			m.metrics.RecordCleanupError(m.settings.Policy, "disk_usage")
		}
		return DiskSpaceInfo{}, err
	}
	if m.metrics != nil {
		m.metrics.UpdateDiskUsage(usage.UsedBytes, usage.TotalBytes)
	}
	return usage, nil
}

// deleteNext removes one file and updates result. done reports that the run
// must stop: ctx was cancelled or the per-run deletion cap was reached.
func (m *Manager) deleteNext(ctx context.Context, file *FileInfo, result *Result) (done bool, err error) {
	if ctx.Err() != nil {
		m.log.Info("cleanup interrupted", logger.Int("files_deleted", result.Deleted))
		return true, nil
	}
	if result.Deleted >= maxDeletions {
		m.log.Info("deletion limit reached for this run", logger.Int("limit", maxDeletions))
		return true, nil
	}

	if err := m.store.Remove(file.Name); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		if m.metrics != nil {
			m.metrics.RecordCleanupError(m.settings.Policy, "remove")
		}
		m.log.Error("failed to remove upload", logger.String("file", file.Name), logger.Error(err))
		return true, errors.New(err).
			Component("diskmanager").
			Category(errors.CategoryDiskCleanup).
			Context("operation", "remove_upload").
			FileContext(file.Name, file.Size).
			Build()
	}

	result.Deleted++
	result.BytesFreed += file.Size
	m.log.Debug("upload removed",
		logger.String("file", file.Name),
		logger.Int64("size", file.Size),
		logger.Time("modified", file.ModTime))
	return false, nil
}

// sweepStaleTemps removes temp files left by interrupted writes. They never
// match the upload pattern, so no policy would reclaim them otherwise. Failures
// are logged and do not fail the run.
func (m *Manager) sweepStaleTemps(ctx context.Context, result *Result) {
	stale, err := GetStaleTempFiles(m.store, m.now().Add(-staleTempAge))
	if err != nil {
		m.log.Warn("failed to list temp files", logger.Error(err))
		return
	}

	for i := range stale {
		if ctx.Err() != nil {
			return
		}
		if err := m.store.Remove(stale[i].Name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if m.metrics != nil {
				m.metrics.RecordCleanupError(m.settings.Policy, "remove_temp")
			}
			m.log.Warn("failed to remove stale temp file",
				logger.String("file", stale[i].Name),
				logger.Error(err))
			continue
		}
		result.TempsRemoved++
		result.BytesFreed += stale[i].Size
		m.log.Info("stale temp file removed",
			logger.String("file", stale[i].Name),
			logger.Time("modified", stale[i].ModTime))
	}
}

func (m *Manager) policyError(err error) error {
	return errors.New(fmt.Errorf("retention policy %s: %w", m.settings.Policy, err)).
		Component("diskmanager").
		Category(errors.CategoryPolicyConfig).
		Build()
}
