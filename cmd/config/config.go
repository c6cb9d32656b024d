// Package config provides the command that prints the effective configuration
package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/conf"
)

// Command creates the config command
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long:  "Print the configuration after defaults, config file, environment and flags are applied. Secrets are masked.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := conf.MarshalYAML(settings)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), string(out))
			return err
		},
	}
}
