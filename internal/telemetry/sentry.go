// Package telemetry provides privacy-compliant error tracking and telemetry
package telemetry

import (
	"fmt"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/buildinfo"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/conf"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/errors"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/logger"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/privacy"
)

// releaseName prefixes the build version in the Sentry release tag.
const releaseName = "ai-voice-detection-api"

var sentryInitialized atomic.Bool

// PlatformInfo holds privacy-safe platform information for telemetry
type PlatformInfo struct {
	OS           string `json:"os"`
	Architecture string `json:"arch"`
	NumCPU       int    `json:"num_cpu"`
	GoVersion    string `json:"go_version"`
}

func collectPlatformInfo() PlatformInfo {
	return PlatformInfo{
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		NumCPU:       runtime.NumCPU(),
		GoVersion:    runtime.Version(),
	}
}

// InitSentry initializes the Sentry SDK when error tracking is enabled and
// connects it to the enhanced error pipeline. Telemetry is opt-in; with
// sentry.enabled=false this only logs and returns.
func InitSentry(settings *conf.Settings, info *buildinfo.Context) error {
	return initSentry(settings, info, nil)
}

// initSentry accepts an optional transport so tests can capture events.
func initSentry(settings *conf.Settings, info *buildinfo.Context, transport sentry.Transport) error {
	log := GetLogger()

	if !settings.Sentry.Enabled {
		log.Info("Sentry telemetry is disabled (opt-in required)")
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         settings.Sentry.DSN,
		SampleRate:  settings.Sentry.SampleRate,
		Environment: settings.Sentry.Environment,
		Release:     fmt.Sprintf("%s@%s", releaseName, info.GetVersion()),
		Transport:   transport,

		// Privacy-compliant settings
		AttachStacktrace: false,
		ServerName:       "",

		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return applyPrivacyFilters(event)
		},
	})
	if err != nil {
		return errors.New(err).
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Context("operation", "sentry_init").
			Build()
	}

	configureSentryScope(info)

	errors.SetPrivacyScrubber(privacy.ScrubMessage)
	errors.SetTelemetryReporter(errors.NewSentryReporter(true))
	sentryInitialized.Store(true)

	platform := collectPlatformInfo()
	log.Info("Sentry telemetry initialized",
		logger.String("system_id", info.GetSystemID()),
		logger.String("version", info.GetVersion()),
		logger.String("environment", settings.Sentry.Environment),
		logger.String("platform", platform.OS),
		logger.String("arch", platform.Architecture))

	return nil
}

// applyPrivacyFilters strips host-identifying data and scrubs free text
func applyPrivacyFilters(event *sentry.Event) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""
	event.Request = nil

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
		delete(event.Contexts, "runtime")
	}

	for k := range event.Extra {
		if k != "error_type" && k != "component" {
			delete(event.Extra, k)
		}
	}

	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}

	event.Message = privacy.ScrubMessage(event.Message)
	for i := range event.Exception {
		event.Exception[i].Value = privacy.ScrubMessage(event.Exception[i].Value)
	}

	return event
}

func configureSentryScope(info *buildinfo.Context) {
	platform := collectPlatformInfo()

	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("system_id", info.GetSystemID())
		scope.SetTag("os", platform.OS)
		scope.SetTag("arch", platform.Architecture)

		scope.SetContext("application", map[string]any{
			"name":      releaseName,
			"version":   info.GetVersion(),
			"system_id": info.GetSystemID(),
		})
		scope.SetContext("platform", map[string]any{
			"os":           platform.OS,
			"architecture": platform.Architecture,
			"num_cpu":      platform.NumCPU,
			"go_version":   platform.GoVersion,
		})
	})
}

// Enabled reports whether Sentry has been initialized.
func Enabled() bool {
	return sentryInitialized.Load()
}

// CaptureError captures an error with privacy-compliant context.
// It is a no-op until InitSentry succeeded.
func CaptureError(err error, component string) {
	if err == nil || !Enabled() {
		return
	}

	scrubbed := privacy.ScrubMessage(err.Error())
	title := errorTitle(component)

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", component)
		scope.SetTag("error_title", title)
		scope.SetFingerprint([]string{title, component})

		event := sentry.NewEvent()
		event.Level = sentry.LevelError
		event.Message = scrubbed
		event.Exception = []sentry.Exception{{
			Type:  title,
			Value: scrubbed,
		}}

		sentry.CaptureEvent(event)
	})
}

// errorTitle turns a component name such as "api.server" into "Api Server Error"
func errorTitle(component string) string {
	words := strings.FieldsFunc(component, func(r rune) bool {
		return r == '.' || r == '_' || r == '-'
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	words = append(words, "Error")
	return strings.Join(words, " ")
}

// Flush ensures all buffered events are sent to Sentry
func Flush(timeout time.Duration) {
	if !Enabled() {
		return
	}
	sentry.Flush(timeout)
}
