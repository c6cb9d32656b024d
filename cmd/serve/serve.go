// Package serve provides the command that runs the HTTP API
package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/api"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/buildinfo"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/conf"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/detection"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/diskmanager"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/logger"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/mqtt"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/observability"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/securefs"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/telemetry"
)

// sentryFlushTimeout bounds how long shutdown waits for queued error reports
const sentryFlushTimeout = 2 * time.Second

// FlagBindings maps setting keys to the names of the flags defined by Command.
var FlagBindings = map[string]string{
	"server.host": "host",
	"server.port": "port",
}

// Command creates the serve command. settings is populated by the root
// command before RunE is invoked.
func Command(settings *conf.Settings, info *buildinfo.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the voice detection HTTP API",
		Long:  "Start the HTTP API, the optional retention janitor and the optional MQTT publisher. Stops gracefully on SIGINT or SIGTERM.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return Run(ctx, settings, info)
		},
	}

	setupFlags(cmd)
	return cmd
}

// setupFlags defines flags specific to the serve command. Their values reach
// settings through the root command's viper bindings.
func setupFlags(cmd *cobra.Command) {
	cmd.Flags().String("host", "", "Interface to bind (default from config)")
	cmd.Flags().Int("port", conf.DefaultPort, "Port to listen on (default from config)")
}

// GetLogger returns the serve command logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("serve")
}

// Run wires all components and blocks until ctx is cancelled or the HTTP
// server fails.
func Run(ctx context.Context, settings *conf.Settings, info *buildinfo.Context) error {
	log := GetLogger()

	for _, warning := range conf.StartupWarnings(settings).Warnings {
		log.Warn(warning)
	}

	if err := telemetry.InitSentry(settings, info); err != nil {
		log.Warn("error reporting disabled", logger.Error(err))
	}
	defer telemetry.Flush(sentryFlushTimeout)

	store, err := securefs.New(settings.Audio.UploadDir)
	if err != nil {
		return fmt.Errorf("failed to open upload directory: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("failed to close upload directory", logger.Error(err))
		}
	}()

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	detectorOpts := []detection.Option{detection.WithRecorder(metrics.Detection)}
	if settings.MQTT.Enabled {
		publisher := startPublisher(gctx, g, settings, metrics)
		defer publisher.Close()
		detectorOpts = append(detectorOpts, detection.WithPublisher(publisher))
	}

	detector := detection.NewDetector(settings, store, detectorOpts...)

	server, err := api.New(settings, detector,
		api.WithMetrics(metrics),
		api.WithBuildInfo(info),
		api.WithUploadStore(store),
	)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	if settings.Audio.Retention.Enabled {
		manager := diskmanager.NewManager(store, settings.Audio.Retention,
			diskmanager.WithMetrics(metrics.DiskManager))
		g.Go(func() error {
			manager.Run(gctx)
			return nil
		})
	}

	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		return server.Shutdown(context.WithoutCancel(gctx))
	})

	log.Info("voice detection API started",
		logger.String("version", info.GetVersion()),
		logger.String("upload_dir", store.BaseDir()),
		logger.String("classifier_mode", detector.ClassifierMode()),
		logger.Bool("retention", settings.Audio.Retention.Enabled),
		logger.Bool("mqtt", settings.MQTT.Enabled))

	return g.Wait()
}

// startPublisher creates the MQTT publisher and connects in the background so
// a slow or absent broker never delays the HTTP listener. Events published
// before the connection is up are counted as errors and dropped.
func startPublisher(ctx context.Context, g *errgroup.Group, settings *conf.Settings, metrics *observability.Metrics) *mqtt.Publisher {
	cfg := mqtt.ConfigFromSettings(&settings.MQTT)
	client := mqtt.NewClient(cfg, metrics.MQTT)

	g.Go(func() error {
		if err := client.Connect(ctx); err != nil {
			mqtt.GetLogger().Warn("initial broker connection failed",
				logger.Error(err))
		}
		return nil
	})

	return mqtt.NewPublisher(client, cfg, metrics.MQTT)
}
