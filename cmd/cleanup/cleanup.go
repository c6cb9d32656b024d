// Package cleanup provides a one-shot run of the upload retention policy
package cleanup

import (
	"errors"
	"fmt"
	"io"

	"github.com/labstack/gommon/bytes"
	"github.com/spf13/cobra"

	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/conf"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/diskmanager"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/securefs"
)

// Command creates the cleanup command. settings is populated by the root
// command before RunE is invoked.
func Command(settings *conf.Settings) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Apply the retention policy to saved uploads once",
		Long:  "Run the configured retention policy against the upload directory a single time and report what was removed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd, settings, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Run the configured policy even when retention is disabled")

	return cmd
}

// Run applies the retention policy once and prints a summary to the command's
// output stream.
func Run(cmd *cobra.Command, settings *conf.Settings, force bool) error {
	retention := settings.Audio.Retention
	if !retention.Enabled && !force {
		return errors.New("retention is disabled: set audio.retention.enabled or pass --force")
	}

	store, err := securefs.New(settings.Audio.UploadDir)
	if err != nil {
		return fmt.Errorf("failed to open upload directory: %w", err)
	}
	defer store.Close()

	result, err := diskmanager.NewManager(store, retention).Cleanup(cmd.Context())
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	printResult(cmd.OutOrStdout(), store.BaseDir(), result)
	return nil
}

func printResult(w io.Writer, dir string, result *diskmanager.Result) {
	fmt.Fprintf(w, "Directory:   %s\n", dir)
	fmt.Fprintf(w, "Policy:      %s\n", result.Policy)
	fmt.Fprintf(w, "Scanned:     %d\n", result.Scanned)
	fmt.Fprintf(w, "Deleted:     %d\n", result.Deleted)
	if result.TempsRemoved > 0 {
		fmt.Fprintf(w, "Stale temps: %d\n", result.TempsRemoved)
	}
	fmt.Fprintf(w, "Bytes freed: %s\n", bytes.Format(result.BytesFreed))
}
