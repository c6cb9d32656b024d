// Package conf loads and validates the service configuration.
//
// Settings are resolved once at start from built-in defaults, an optional
// config.yaml and environment variables, then passed by pointer to the
// components that need them. Nothing in this package mutates a Settings
// value after Load returns.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/logger"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/secrets"
)

// EnvPrefix is prepended to every automatic environment binding,
// e.g. VOICE_SERVER_PORT for server.port.
const EnvPrefix = "VOICE"

// Settings contains all configuration options for the service.
type Settings struct {
	Debug bool `mapstructure:"debug" yaml:"debug"`

	Server     ServerSettings     `mapstructure:"server" yaml:"server"`
	Security   SecuritySettings   `mapstructure:"security" yaml:"security"`
	Audio      AudioSettings      `mapstructure:"audio" yaml:"audio"`
	Detection  DetectionSettings  `mapstructure:"detection" yaml:"detection"`
	Classifier ClassifierSettings `mapstructure:"classifier" yaml:"classifier"`
	MQTT       MQTTSettings       `mapstructure:"mqtt" yaml:"mqtt"`
	Sentry     SentrySettings     `mapstructure:"sentry" yaml:"sentry"`
	Telemetry  TelemetrySettings  `mapstructure:"telemetry" yaml:"telemetry"`
	Logging    LoggingSettings    `mapstructure:"logging" yaml:"logging"`
}

// ServerSettings contains HTTP listener settings
type ServerSettings struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	BodyLimit       string        `mapstructure:"bodylimit" yaml:"bodylimit"` // echo size string, e.g. "10M"
	ReadTimeout     time.Duration `mapstructure:"readtimeout" yaml:"readtimeout"`
	WriteTimeout    time.Duration `mapstructure:"writetimeout" yaml:"writetimeout"`
	IdleTimeout     time.Duration `mapstructure:"idletimeout" yaml:"idletimeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdowntimeout" yaml:"shutdowntimeout"`
	AllowedOrigins  []string      `mapstructure:"allowedorigins" yaml:"allowedorigins"`
	TrustedProxies  []string      `mapstructure:"trustedproxies" yaml:"trustedproxies"` // empty: forwarding headers ignored
	RateLimit       float64       `mapstructure:"ratelimit" yaml:"ratelimit"`           // requests per second per client IP, 0 disables
	RateBurst       int           `mapstructure:"rateburst" yaml:"rateburst"`
}

// SecuritySettings contains the shared API key. It is normally supplied
// through the SECRET_API_KEY environment variable, or SECRET_API_KEY_FILE
// pointing at a mounted secret.
type SecuritySettings struct {
	APIKey     string `mapstructure:"apikey" yaml:"apikey"`
	APIKeyFile string `mapstructure:"apikeyfile" yaml:"apikeyfile"` // takes precedence over APIKey
}

// AudioSettings controls how uploads are accepted and stored
type AudioSettings struct {
	UploadDir string            `mapstructure:"uploaddir" yaml:"uploaddir"`
	Formats   []string          `mapstructure:"formats" yaml:"formats"`   // accepted extensions, lower case
	MaxBytes  int64             `mapstructure:"maxbytes" yaml:"maxbytes"` // decoded size ceiling
	Retention RetentionSettings `mapstructure:"retention" yaml:"retention"`
}

// RetentionSettings controls removal of persisted uploads
type RetentionSettings struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
	Policy   string        `mapstructure:"policy" yaml:"policy"`     // age, count or usage
	MaxAge   string        `mapstructure:"maxage" yaml:"maxage"`     // e.g. "24h", "7d", "1w"
	MaxFiles int           `mapstructure:"maxfiles" yaml:"maxfiles"` // newest files kept by the count policy
	MaxUsage string        `mapstructure:"maxusage" yaml:"maxusage"` // e.g. "80%"
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

// DetectionSettings controls request validation
type DetectionSettings struct {
	EnforceLanguages bool     `mapstructure:"enforcelanguages" yaml:"enforcelanguages"`
	Languages        []string `mapstructure:"languages" yaml:"languages"`
}

// ClassifierSettings selects the verdict strategy
type ClassifierSettings struct {
	Mode           string `mapstructure:"mode" yaml:"mode"` // rule or mock
	ThresholdBytes int64  `mapstructure:"thresholdbytes" yaml:"thresholdbytes"`
}

// MQTTSettings contains settings for publishing classification events
type MQTTSettings struct {
	Enabled      bool          `mapstructure:"enabled" yaml:"enabled"`
	Broker       string        `mapstructure:"broker" yaml:"broker"`
	ClientID     string        `mapstructure:"clientid" yaml:"clientid"`
	Topic        string        `mapstructure:"topic" yaml:"topic"`
	Username     string        `mapstructure:"username" yaml:"username"`
	Password     string        `mapstructure:"password" yaml:"password"`
	PasswordFile string        `mapstructure:"passwordfile" yaml:"passwordfile"` // takes precedence over Password
	Retain       bool          `mapstructure:"retain" yaml:"retain"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// SentrySettings contains error reporting settings
type SentrySettings struct {
	Enabled     bool    `mapstructure:"enabled" yaml:"enabled"`
	DSN         string  `mapstructure:"dsn" yaml:"dsn"`
	Environment string  `mapstructure:"environment" yaml:"environment"`
	SampleRate  float64 `mapstructure:"samplerate" yaml:"samplerate"`
}

// TelemetrySettings controls the Prometheus endpoint
type TelemetrySettings struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// LoggingSettings mirror logger.LoggingConfig in config-file form
type LoggingSettings struct {
	Level        string            `mapstructure:"level" yaml:"level"`
	Timezone     string            `mapstructure:"timezone" yaml:"timezone"`
	Console      bool              `mapstructure:"console" yaml:"console"`
	File         FileLogSettings   `mapstructure:"file" yaml:"file"`
	ModuleLevels map[string]string `mapstructure:"modulelevels" yaml:"modulelevels"`
}

// FileLogSettings controls the optional JSON log file
type FileLogSettings struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
	Level   string `mapstructure:"level" yaml:"level"`
}

// LoggerConfig converts the logging section into a logger.LoggingConfig.
func (s *Settings) LoggerConfig() *logger.LoggingConfig {
	level := s.Logging.Level
	if s.Debug {
		level = string(logger.LogLevelDebug)
	}

	fileLevel := s.Logging.File.Level
	if fileLevel == "" {
		fileLevel = level
	}

	return &logger.LoggingConfig{
		DefaultLevel: level,
		Timezone:     s.Logging.Timezone,
		Console: &logger.ConsoleOutput{
			Enabled: s.Logging.Console,
			Level:   level,
		},
		FileOutput: &logger.FileOutput{
			Enabled: s.Logging.File.Enabled,
			Path:    s.Logging.File.Path,
			Level:   fileLevel,
		},
		ModuleLevels: s.Logging.ModuleLevels,
	}
}

// APIKeyConfigured reports whether a non-empty API key was supplied.
func (s *Settings) APIKeyConfigured() bool {
	return s.Security.APIKey != ""
}

// Options control where Load looks for configuration.
type Options struct {
	// ConfigFile is an explicit path; when set, search paths are ignored and
	// a missing file is an error.
	ConfigFile string
	// SearchPaths override the default search paths.
	SearchPaths []string
	// Debug forces debug mode on regardless of file and environment.
	Debug bool
	// Flags maps setting keys such as "server.port" to command line flags.
	// A flag only overrides other sources when it was set explicitly.
	Flags map[string]*pflag.Flag
}

// Load resolves defaults, config file and environment into a validated Settings.
// A missing config.yaml in the search paths is not an error.
func Load(opts Options) (*Settings, error) {
	v, err := initViper(opts)
	if err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	normalizeSettings(settings)

	if err := resolveSecrets(settings); err != nil {
		return nil, err
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	return settings, nil
}

// initViper builds a viper instance with defaults, env bindings and the config file.
func initViper(opts Options) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	setDefaultConfig(v)
	if opts.Debug {
		v.Set("debug", true)
	}
	for key, flag := range opts.Flags {
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("error binding flag %s: %w", flag.Name, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindEnvVars(v); err != nil {
		GetLogger().Warn("environment configuration issues", logger.Error(err))
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("fatal error reading config file %s: %w", opts.ConfigFile, err)
		}
		return v, nil
	}

	v.SetConfigName("config")
	paths := opts.SearchPaths
	if len(paths) == 0 {
		paths = GetDefaultConfigPaths()
	}
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			GetLogger().Debug("no config file found, using defaults and environment",
				logger.String("search_paths", strings.Join(paths, ",")))
			return v, nil
		}
		return nil, fmt.Errorf("fatal error reading config file: %w", err)
	}

	GetLogger().Debug("loaded config file", logger.String("path", v.ConfigFileUsed()))
	return v, nil
}

// GetDefaultConfigPaths returns the directories searched for config.yaml,
// most specific first.
func GetDefaultConfigPaths() []string {
	paths := []string{"."}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", "voice-detection"))
	}

	return append(paths, "/etc/voice-detection")
}

// resolveSecrets replaces credentials with the contents of their secret
// files when a file is configured.
func resolveSecrets(s *Settings) error {
	apiKey, err := secrets.Resolve(s.Security.APIKeyFile, s.Security.APIKey)
	if err != nil {
		return fmt.Errorf("error resolving API key: %w", err)
	}
	s.Security.APIKey = apiKey

	password, err := secrets.Resolve(s.MQTT.PasswordFile, s.MQTT.Password)
	if err != nil {
		return fmt.Errorf("error resolving MQTT password: %w", err)
	}
	s.MQTT.Password = password

	return nil
}

// normalizeSettings lower-cases and trims list values so comparisons downstream
// are exact.
func normalizeSettings(s *Settings) {
	s.Audio.Formats = normalizeList(s.Audio.Formats)
	s.Detection.Languages = normalizeList(s.Detection.Languages)
	s.Classifier.Mode = strings.ToLower(strings.TrimSpace(s.Classifier.Mode))
	s.Audio.Retention.Policy = strings.ToLower(strings.TrimSpace(s.Audio.Retention.Policy))
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		item = strings.ToLower(strings.TrimSpace(item))
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
