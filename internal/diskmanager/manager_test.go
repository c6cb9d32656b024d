package diskmanager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/conf"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/securefs"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *securefs.SecureFS {
	t.Helper()
	store, err := securefs.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// writeUpload creates an upload of size bytes last modified age before testNow.
func writeUpload(t *testing.T, store *securefs.SecureFS, size int, age time.Duration) string {
	t.Helper()
	name := fmt.Sprintf("audio_%s.mp3", uuid.NewString())
	require.NoError(t, store.WriteFileExclusive(name, make([]byte, size), 0o640))
	modTime := testNow.Add(-age)
	require.NoError(t, os.Chtimes(filepath.Join(store.BaseDir(), name), modTime, modTime))
	return name
}

func remaining(t *testing.T, store *securefs.SecureFS) []string {
	t.Helper()
	files, err := GetAudioFiles(store)
	require.NoError(t, err)
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	return names
}

func newTestManager(store Store, settings conf.RetentionSettings, opts ...Option) *Manager {
	m := NewManager(store, settings, opts...)
	m.now = func() time.Time { return testNow }
	return m
}

type recordingMetrics struct {
	mu         sync.Mutex
	operations map[string]int
	errors     map[string]int
	deleted    int
	freed      int64
	usedBytes  uint64
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{operations: map[string]int{}, errors: map[string]int{}}
}

func (r *recordingMetrics) UpdateDiskUsage(used, _ uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usedBytes = used
}

func (r *recordingMetrics) RecordCleanupOperation(policy, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.operations[policy+"/"+status]++
}

func (r *recordingMetrics) RecordCleanupError(policy, errorType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors[policy+"/"+errorType]++
}

func (r *recordingMetrics) RecordFilesDeleted(_ string, count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted += count
}

func (r *recordingMetrics) RecordBytesFreed(_ string, bytes int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.freed += bytes
}

func (r *recordingMetrics) RecordCleanupDuration(string, float64) {}

func TestGetAudioFilesFiltersAndSorts(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	newer := writeUpload(t, store, 10, time.Hour)
	older := writeUpload(t, store, 20, 48*time.Hour)

	require.NoError(t, store.WriteFileExclusive("notes.txt", []byte("x"), 0o640))
	require.NoError(t, store.WriteFileExclusive(securefs.TempPrefix+"abc", []byte("x"), 0o640))
	require.NoError(t, store.WriteFileExclusive("audio_not-a-uuid.mp3", []byte("x"), 0o640))
	require.NoError(t, os.Mkdir(filepath.Join(store.BaseDir(), "audio_"+uuid.NewString()+".mp3"), 0o750))

	files, err := GetAudioFiles(store)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, older, files[0].Name)
	assert.Equal(t, int64(20), files[0].Size)
	assert.Equal(t, newer, files[1].Name)
}

func TestAgeBasedCleanup(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	keep := writeUpload(t, store, 100, 2*time.Hour)
	writeUpload(t, store, 100, 25*time.Hour)
	writeUpload(t, store, 50, 72*time.Hour)

	metrics := newRecordingMetrics()
	m := newTestManager(store, conf.RetentionSettings{Policy: conf.RetentionPolicyAge, MaxAge: "24h"}, WithMetrics(metrics))

	result, err := m.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Scanned)
	assert.Equal(t, 2, result.Deleted)
	assert.Equal(t, int64(150), result.BytesFreed)
	assert.Equal(t, []string{keep}, remaining(t, store))

	assert.Equal(t, 1, metrics.operations["age/success"])
	assert.Equal(t, 2, metrics.deleted)
	assert.Equal(t, int64(150), metrics.freed)
}

func TestCountBasedCleanupKeepsNewest(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	writeUpload(t, store, 1, 4*time.Hour)
	writeUpload(t, store, 1, 3*time.Hour)
	second := writeUpload(t, store, 1, 2*time.Hour)
	newest := writeUpload(t, store, 1, time.Hour)

	m := newTestManager(store, conf.RetentionSettings{Policy: conf.RetentionPolicyCount, MaxFiles: 2})

	result, err := m.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Deleted)
	assert.Equal(t, []string{second, newest}, remaining(t, store))

	// Below the limit nothing happens.
	result, err = m.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Deleted)
}

func TestUsageBasedCleanupStopsBelowThreshold(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	writeUpload(t, store, 1, 3*time.Hour)
	writeUpload(t, store, 1, 2*time.Hour)
	newest := writeUpload(t, store, 1, time.Hour)

	// Each deletion lowers usage by ten points: 95 -> 85 -> 75.
	var calls int
	metrics := newRecordingMetrics()
	m := newTestManager(store, conf.RetentionSettings{Policy: conf.RetentionPolicyUsage, MaxUsage: "80%"}, WithMetrics(metrics))
	m.diskUsage = func(string) (DiskSpaceInfo, error) {
		used := 95 - 10*float64(calls)
		calls++
		return DiskSpaceInfo{UsedPercent: used, UsedBytes: uint64(used), TotalBytes: 100}, nil
	}

	result, err := m.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Deleted)
	assert.Equal(t, []string{newest}, remaining(t, store))
	assert.Equal(t, uint64(75), metrics.usedBytes)
}

func TestUsageBasedCleanupBelowThresholdIsNoop(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	writeUpload(t, store, 1, 100*time.Hour)

	m := newTestManager(store, conf.RetentionSettings{Policy: conf.RetentionPolicyUsage, MaxUsage: "80%"})
	m.diskUsage = func(string) (DiskSpaceInfo, error) {
		return DiskSpaceInfo{UsedPercent: 40}, nil
	}

	result, err := m.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Deleted)
	assert.Len(t, remaining(t, store), 1)
}

func TestUsageBasedCleanupDiskError(t *testing.T) {
	t.Parallel()

	metrics := newRecordingMetrics()
	m := newTestManager(newStore(t), conf.RetentionSettings{Policy: conf.RetentionPolicyUsage, MaxUsage: "80%"}, WithMetrics(metrics))
	m.diskUsage = func(string) (DiskSpaceInfo, error) {
		return DiskSpaceInfo{}, fmt.Errorf("statfs failed")
	}

	_, err := m.Cleanup(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, metrics.errors["usage/disk_usage"])
	assert.Equal(t, 1, metrics.operations["usage/error"])
}

func TestCleanupRejectsBadPolicy(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	for _, settings := range []conf.RetentionSettings{
		{Policy: "random"},
		{Policy: conf.RetentionPolicyAge, MaxAge: "soon"},
		{Policy: conf.RetentionPolicyUsage, MaxUsage: "eighty"},
	} {
		_, err := newTestManager(store, settings).Cleanup(context.Background())
		assert.Error(t, err, settings.Policy)
	}
}

func TestCleanupHonorsCancellation(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	for range 3 {
		writeUpload(t, store, 1, 100*time.Hour)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := newTestManager(store, conf.RetentionSettings{Policy: conf.RetentionPolicyAge, MaxAge: "1h"})
	result, err := m.Cleanup(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Deleted)
	assert.Len(t, remaining(t, store), 3)
}

func TestCleanupDeletionCap(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	for range maxDeletions + 5 {
		writeUpload(t, store, 1, 100*time.Hour)
	}

	m := newTestManager(store, conf.RetentionSettings{Policy: conf.RetentionPolicyCount, MaxFiles: 0})
	result, err := m.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, maxDeletions, result.Deleted)
	assert.Len(t, remaining(t, store), 5)
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	writeUpload(t, store, 1, 100*time.Hour)

	m := newTestManager(store, conf.RetentionSettings{
		Policy:   conf.RetentionPolicyAge,
		MaxAge:   "1h",
		Interval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return len(remaining(t, store)) == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}

func TestIsUploadName(t *testing.T) {
	t.Parallel()

	assert.True(t, IsUploadName("audio_"+uuid.NewString()+".mp3"))
	assert.True(t, IsUploadName("audio_"+uuid.NewString()+".wav"))
	assert.False(t, IsUploadName("audio_"+uuid.NewString()))
	assert.False(t, IsUploadName(securefs.TempPrefix+"audio_"+uuid.NewString()+".mp3"))
	assert.False(t, IsUploadName("AUDIO_"+uuid.NewString()+".mp3"))
}

// writeTemp leaves a temp file behind as an interrupted write would.
func writeTemp(t *testing.T, store *securefs.SecureFS, size int, age time.Duration) string {
	t.Helper()
	name := securefs.TempPrefix + uuid.NewString()
	path := filepath.Join(store.BaseDir(), name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o640))
	modTime := testNow.Add(-age)
	require.NoError(t, os.Chtimes(path, modTime, modTime))
	return name
}

func TestCleanupSweepsStaleTempFiles(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	upload := writeUpload(t, store, 10, 72*time.Hour)
	stale := writeTemp(t, store, 64, 2*time.Hour)
	fresh := writeTemp(t, store, 32, 10*time.Minute)

	metrics := newRecordingMetrics()
	m := newTestManager(store, conf.RetentionSettings{Policy: conf.RetentionPolicyCount, MaxFiles: 10}, WithMetrics(metrics))
	result, err := m.Cleanup(context.Background())
	require.NoError(t, err)

	assert.Zero(t, result.Deleted)
	assert.Equal(t, 1, result.TempsRemoved)
	assert.Equal(t, int64(64), result.BytesFreed)
	assert.Equal(t, []string{upload}, remaining(t, store))

	_, err = os.Stat(filepath.Join(store.BaseDir(), stale))
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = os.Stat(filepath.Join(store.BaseDir(), fresh))
	assert.NoError(t, err, "in-flight write must survive")
}

func TestGetStaleTempFiles(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	writeUpload(t, store, 10, 72*time.Hour)
	older := writeTemp(t, store, 1, 5*time.Hour)
	newer := writeTemp(t, store, 1, 3*time.Hour)
	writeTemp(t, store, 1, time.Minute)

	files, err := GetStaleTempFiles(store, testNow.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, older, files[0].Name)
	assert.Equal(t, newer, files[1].Name)
}
