package detection

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/conf"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/securefs"
)

const testAPIKey = "test-key-123"

// testSettings returns the default service settings with a known key
func testSettings() *conf.Settings {
	return &conf.Settings{
		Security: conf.SecuritySettings{APIKey: testAPIKey},
		Audio: conf.AudioSettings{
			UploadDir: "uploads",
			Formats:   []string{"mp3"},
			MaxBytes:  conf.DefaultMaxAudioBytes,
		},
		Detection: conf.DetectionSettings{
			EnforceLanguages: true,
			Languages:        conf.DefaultLanguages,
		},
		Classifier: conf.ClassifierSettings{
			Mode:           conf.ClassifierModeRule,
			ThresholdBytes: conf.DefaultThresholdBytes,
		},
	}
}

// newTestStore opens a sandboxed upload dir under t.TempDir()
func newTestStore(t *testing.T) *securefs.SecureFS {
	t.Helper()
	store, err := securefs.New(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// listUploads returns the names in the upload directory
func listUploads(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// failingStore always fails writes
type failingStore struct {
	err error
}

func (f failingStore) WriteFileExclusive(string, []byte, os.FileMode) error { return f.err }
func (f failingStore) BaseDir() string                                      { return os.TempDir() }
