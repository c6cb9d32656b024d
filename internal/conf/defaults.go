// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Default values shared with other packages and tests.
const (
	DefaultPort             = 8000
	DefaultMaxAudioBytes    = 5 * 1024 * 1024
	DefaultThresholdBytes   = 50 * 1024
	DefaultUploadDir        = "uploads"
	DefaultMQTTTopic        = "voice-detection/classifications"
	DefaultRetentionMaxAge  = "7d"
	DefaultRetentionMaxUsed = "80%"

	ClassifierModeRule = "rule"
	ClassifierModeMock = "mock"

	RetentionPolicyAge   = "age"
	RetentionPolicyCount = "count"
	RetentionPolicyUsage = "usage"
)

// DefaultLanguages is the language allow-list applied when none is configured.
var DefaultLanguages = []string{"tamil", "english", "hindi", "malayalam", "telugu"}

// Sets default values for the configuration.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.bodylimit", "10M")
	v.SetDefault("server.readtimeout", 30*time.Second)
	v.SetDefault("server.writetimeout", 30*time.Second)
	v.SetDefault("server.idletimeout", 120*time.Second)
	v.SetDefault("server.shutdowntimeout", 10*time.Second)
	v.SetDefault("server.allowedorigins", []string{"*"})
	v.SetDefault("server.trustedproxies", []string{})
	v.SetDefault("server.ratelimit", 0)
	v.SetDefault("server.rateburst", 20)

	v.SetDefault("security.apikey", "")
	v.SetDefault("security.apikeyfile", "")

	v.SetDefault("audio.uploaddir", DefaultUploadDir)
	v.SetDefault("audio.formats", []string{"mp3"})
	v.SetDefault("audio.maxbytes", DefaultMaxAudioBytes)

	v.SetDefault("audio.retention.enabled", false)
	v.SetDefault("audio.retention.policy", RetentionPolicyAge)
	v.SetDefault("audio.retention.maxage", DefaultRetentionMaxAge)
	v.SetDefault("audio.retention.maxfiles", 10000)
	v.SetDefault("audio.retention.maxusage", DefaultRetentionMaxUsed)
	v.SetDefault("audio.retention.interval", 15*time.Minute)

	v.SetDefault("detection.enforcelanguages", true)
	v.SetDefault("detection.languages", DefaultLanguages)

	v.SetDefault("classifier.mode", ClassifierModeRule)
	v.SetDefault("classifier.thresholdbytes", DefaultThresholdBytes)

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.clientid", "voice-detection")
	v.SetDefault("mqtt.topic", DefaultMQTTTopic)
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.passwordfile", "")
	v.SetDefault("mqtt.retain", false)
	v.SetDefault("mqtt.timeout", 5*time.Second)

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "production")
	v.SetDefault("sentry.samplerate", 1.0)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file.enabled", false)
	v.SetDefault("logging.file.path", "logs/voice-detection.log")
	v.SetDefault("logging.file.level", "")
	v.SetDefault("logging.modulelevels", map[string]string{})
}
