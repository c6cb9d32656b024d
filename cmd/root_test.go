package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/buildinfo"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, root *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func subcommand(t *testing.T, root *cobra.Command, name string) *cobra.Command {
	t.Helper()
	for _, c := range root.Commands() {
		if c.Name() == name {
			return c
		}
	}
	t.Fatalf("subcommand %q not registered", name)
	return nil
}

func TestConfigCommandMasksSecrets(t *testing.T) {
	t.Setenv("SECRET_API_KEY", "super-secret-value")
	path := writeConfig(t, "server:\n  port: 8123\nlogging:\n  console: false\n")

	root := RootCommand(buildinfo.NewContext("1.2.3", "today", ""))
	out, err := execute(t, root, "config", "--config", path)
	require.NoError(t, err)

	assert.Contains(t, out, "port: 8123")
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, "super-secret-value")
}

func TestRootFlagsOverrideConfigFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8123\n  host: 0.0.0.0\nlogging:\n  console: false\n")

	root := RootCommand(buildinfo.NewContext("1.2.3", "today", ""))
	// Swap the server for the config printer so the resolved settings are observable
	root.RunE = subcommand(t, root, "config").RunE

	out, err := execute(t, root, "--config", path, "--port", "9001", "--debug")
	require.NoError(t, err)

	assert.Contains(t, out, "port: 9001")
	assert.Contains(t, out, "host: 0.0.0.0", "unset flags do not shadow the file")
	assert.Contains(t, out, "debug: true")
}

func TestInvalidConfigFails(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 70000\n")

	root := RootCommand(buildinfo.NewContext("1.2.3", "today", ""))
	_, err := execute(t, root, "config", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestCleanupRequiresRetention(t *testing.T) {
	path := writeConfig(t, "audio:\n  uploaddir: "+filepath.Join(t.TempDir(), "uploads")+"\nlogging:\n  console: false\n")

	root := RootCommand(buildinfo.NewContext("1.2.3", "today", ""))
	_, err := execute(t, root, "cleanup", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retention is disabled")
}

func TestCleanupForceRunsPolicy(t *testing.T) {
	uploads := filepath.Join(t.TempDir(), "uploads")
	require.NoError(t, os.MkdirAll(uploads, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(uploads, "audio_00000000-0000-4000-8000-000000000001.mp3"), []byte("abc"), 0o600))

	config := "audio:\n  uploaddir: " + uploads + "\n  retention:\n    policy: count\n    maxfiles: 0\nlogging:\n  console: false\n"
	root := RootCommand(buildinfo.NewContext("1.2.3", "today", ""))
	out, err := execute(t, root, "cleanup", "--force", "--config", writeConfig(t, config))
	require.NoError(t, err)

	assert.Contains(t, out, "Policy:      count")
	assert.Contains(t, out, "Deleted:     1")
	assert.NoFileExists(t, filepath.Join(uploads, "audio_00000000-0000-4000-8000-000000000001.mp3"))
}

func TestVersionFlag(t *testing.T) {
	root := RootCommand(buildinfo.NewContext("1.2.3", "today", ""))
	out, err := execute(t, root, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "1.2.3")
}
