package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Akshitakasturia08/ai-voice-detection-api/cmd/cleanup"
	configcmd "github.com/Akshitakasturia08/ai-voice-detection-api/cmd/config"
	"github.com/Akshitakasturia08/ai-voice-detection-api/cmd/serve"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/buildinfo"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/conf"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/logger"
)

// RootCommand creates and returns the root command. Running the binary without
// a subcommand starts the API server.
func RootCommand(info *buildinfo.Context) *cobra.Command {
	settings := &conf.Settings{}
	opts := &conf.Options{Flags: make(map[string]*pflag.Flag)}

	rootCmd := &cobra.Command{
		Use:           "voice-detection",
		Short:         "AI voice detection API",
		Version:       info.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	setupFlags(rootCmd, opts)

	serveCmd := serve.Command(settings, info)
	cleanupCmd := cleanup.Command(settings)
	configCmd := configcmd.Command(settings)

	rootCmd.AddCommand(serveCmd, cleanupCmd, configCmd)

	// The bare binary behaves like "serve" and accepts its flags
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())
	rootCmd.RunE = serveCmd.RunE

	var centralLogger *logger.CentralLogger

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		bindCommandFlags(cmd, opts)

		loaded, err := conf.Load(*opts)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		*settings = *loaded

		centralLogger, err = logger.NewCentralLogger(settings.LoggerConfig())
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger.SetGlobal(centralLogger)

		return nil
	}

	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if centralLogger == nil {
			return nil
		}
		return centralLogger.Close()
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, opts *conf.Options) {
	rootCmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "Path to config.yaml (default: search ./, ~/.config/voice-detection and /etc/voice-detection)")
	rootCmd.PersistentFlags().BoolVarP(&opts.Debug, "debug", "d", false, "Enable debug output")
}

// bindCommandFlags exposes the flags of the command being executed to the
// configuration loader under their setting keys.
func bindCommandFlags(cmd *cobra.Command, opts *conf.Options) {
	for key, name := range serve.FlagBindings {
		if flag := cmd.Flags().Lookup(name); flag != nil {
			opts.Flags[key] = flag
		}
	}
}
