package conf

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validSettings returns settings that pass validation
func validSettings() *Settings {
	return &Settings{
		Server: ServerSettings{Port: 8000, BodyLimit: "10M"},
		Audio: AudioSettings{
			UploadDir: "uploads",
			Formats:   []string{"mp3"},
			MaxBytes:  DefaultMaxAudioBytes,
			Retention: RetentionSettings{Policy: RetentionPolicyAge, MaxAge: "7d", Interval: time.Minute},
		},
		Detection:  DetectionSettings{EnforceLanguages: true, Languages: DefaultLanguages},
		Classifier: ClassifierSettings{Mode: ClassifierModeRule, ThresholdBytes: DefaultThresholdBytes},
	}
}

func TestValidateSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr string
	}{
		{"valid", func(s *Settings) {}, ""},
		{"bad port", func(s *Settings) { s.Server.Port = 0 }, "server port"},
		{"bad body limit", func(s *Settings) { s.Server.BodyLimit = "lots" }, "body limit"},
		{"negative rate", func(s *Settings) { s.Server.RateLimit = -1 }, "rate limit"},
		{"rate without burst", func(s *Settings) { s.Server.RateLimit = 5 }, "rate burst"},
		{"bad trusted proxy", func(s *Settings) { s.Server.TrustedProxies = []string{"10.0.0.0/40"} }, "trusted proxy"},
		{"trusted proxies accepted", func(s *Settings) { s.Server.TrustedProxies = []string{"10.0.0.0/8", "::1"} }, ""},
		{"empty upload dir", func(s *Settings) { s.Audio.UploadDir = " " }, "upload directory"},
		{"no formats", func(s *Settings) { s.Audio.Formats = nil }, "at least one audio format"},
		{"path in format", func(s *Settings) { s.Audio.Formats = []string{"../mp3"} }, "invalid audio format"},
		{"format too long", func(s *Settings) { s.Audio.Formats = []string{"abcdefghijk"} }, "invalid audio format"},
		{"zero max bytes", func(s *Settings) { s.Audio.MaxBytes = 0 }, "max bytes"},
		{"bad policy", func(s *Settings) { s.Audio.Retention.Policy = "random" }, "retention policy"},
		{"bad max age", func(s *Settings) { s.Audio.Retention.MaxAge = "7x" }, "max age"},
		{"bad usage", func(s *Settings) {
			s.Audio.Retention.Policy = RetentionPolicyUsage
			s.Audio.Retention.MaxUsage = "80"
		}, "max usage"},
		{"usage out of range", func(s *Settings) {
			s.Audio.Retention.Policy = RetentionPolicyUsage
			s.Audio.Retention.MaxUsage = "120%"
		}, "max usage"},
		{"enabled without interval", func(s *Settings) {
			s.Audio.Retention.Enabled = true
			s.Audio.Retention.Interval = 0
		}, "interval"},
		{"enforced without languages", func(s *Settings) { s.Detection.Languages = nil }, "no languages"},
		{"languages optional when not enforced", func(s *Settings) {
			s.Detection.EnforceLanguages = false
			s.Detection.Languages = nil
		}, ""},
		{"unknown mode", func(s *Settings) { s.Classifier.Mode = "ml" }, "classifier mode"},
		{"mqtt without broker", func(s *Settings) {
			s.MQTT = MQTTSettings{Enabled: true, Topic: "t", Timeout: time.Second}
		}, "broker must be set"},
		{"mqtt bad scheme", func(s *Settings) {
			s.MQTT = MQTTSettings{Enabled: true, Broker: "http://x", Topic: "t", Timeout: time.Second}
		}, "invalid MQTT broker"},
		{"mqtt wildcard topic", func(s *Settings) {
			s.MQTT = MQTTSettings{Enabled: true, Broker: "tcp://x:1883", Topic: "a/#", Timeout: time.Second}
		}, "wildcards"},
		{"sentry without dsn", func(s *Settings) { s.Sentry = SentrySettings{Enabled: true, SampleRate: 1} }, "DSN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := validSettings()
			tt.mutate(s)
			err := ValidateSettings(s)

			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateSettingsAggregates(t *testing.T) {
	t.Parallel()

	s := validSettings()
	s.Server.Port = -1
	s.Classifier.Mode = "nope"

	err := ValidateSettings(s)
	require.Error(t, err)

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 2)
}

func TestValidExtension(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidExtension("mp3"))
	assert.True(t, ValidExtension("m4a"))
	assert.False(t, ValidExtension(""))
	assert.False(t, ValidExtension("MP3"))
	assert.False(t, ValidExtension("mp3/../x"))
	assert.False(t, ValidExtension(strings.Repeat("a", 11)))
}

func TestStartupWarnings(t *testing.T) {
	t.Parallel()

	s := validSettings()
	s.Security.APIKey = ""
	s.Audio.Retention.Enabled = false
	s.Classifier.Mode = ClassifierModeMock
	s.Server.AllowedOrigins = []string{"*"}

	result := StartupWarnings(s)
	assert.True(t, result.Valid)
	assert.Len(t, result.Warnings, 4)

	s.Security.APIKey = "key"
	s.Audio.Retention.Enabled = true
	s.Classifier.Mode = ClassifierModeRule
	s.Server.AllowedOrigins = []string{"https://app.example.com"}
	assert.False(t, StartupWarnings(s).HasIssues())
}
