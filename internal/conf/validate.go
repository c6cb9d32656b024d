// conf/validate.go

package conf

import (
	"fmt"
	"net/netip"
	"regexp"
	"slices"
	"strings"

	"github.com/labstack/gommon/bytes"

	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/buildinfo"
)

// extensionPattern restricts audio extensions to short lowercase alphanumerics
// so a configured or declared format can safely become part of a file name.
var extensionPattern = regexp.MustCompile(`^[a-z0-9]{1,10}$`)

// ValidExtension reports whether ext is safe to use as a file extension.
func ValidExtension(ext string) bool {
	return extensionPattern.MatchString(ext)
}

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateServerSettings(&settings.Server); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateAudioSettings(&settings.Audio); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateRetentionSettings(&settings.Audio.Retention); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateDetectionSettings(&settings.Detection); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateClassifierSettings(&settings.Classifier); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateMQTTSettings(&settings.MQTT); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateSentrySettings(&settings.Sentry); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}

	return nil
}

func validateServerSettings(s *ServerSettings) error {
	var errs []string

	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server port must be between 1 and 65535, got %d", s.Port))
	}

	if _, err := bytes.Parse(s.BodyLimit); err != nil {
		errs = append(errs, fmt.Sprintf("invalid server body limit %q: %v", s.BodyLimit, err))
	}

	if s.ShutdownTimeout < 0 || s.ReadTimeout < 0 || s.WriteTimeout < 0 || s.IdleTimeout < 0 {
		errs = append(errs, "server timeouts must not be negative")
	}

	for _, proxy := range s.TrustedProxies {
		if !validProxyEntry(proxy) {
			errs = append(errs, fmt.Sprintf("invalid trusted proxy %q: must be an IP address or CIDR range", proxy))
		}
	}

	if s.RateLimit < 0 {
		errs = append(errs, fmt.Sprintf("server rate limit must not be negative, got %v", s.RateLimit))
	} else if s.RateLimit > 0 && s.RateBurst < 1 {
		errs = append(errs, "server rate burst must be at least 1 when rate limiting is enabled")
	}

	return joinErrors(errs)
}

func validProxyEntry(entry string) bool {
	entry = strings.TrimSpace(entry)
	if strings.Contains(entry, "/") {
		_, err := netip.ParsePrefix(entry)
		return err == nil
	}
	_, err := netip.ParseAddr(entry)
	return err == nil
}

func validateAudioSettings(s *AudioSettings) error {
	var errs []string

	if strings.TrimSpace(s.UploadDir) == "" {
		errs = append(errs, "audio upload directory must not be empty")
	}

	if len(s.Formats) == 0 {
		errs = append(errs, "at least one audio format must be configured")
	}
	for _, format := range s.Formats {
		if !ValidExtension(format) {
			errs = append(errs, fmt.Sprintf("invalid audio format %q: must match %s", format, extensionPattern.String()))
		}
	}

	if s.MaxBytes <= 0 {
		errs = append(errs, fmt.Sprintf("audio max bytes must be positive, got %d", s.MaxBytes))
	}

	return joinErrors(errs)
}

func validateRetentionSettings(s *RetentionSettings) error {
	var errs []string

	switch s.Policy {
	case RetentionPolicyAge:
		if _, err := ParseRetentionPeriod(s.MaxAge); err != nil {
			errs = append(errs, fmt.Sprintf("invalid retention max age: %v", err))
		}
	case RetentionPolicyCount:
		if s.MaxFiles < 0 {
			errs = append(errs, fmt.Sprintf("retention max files must not be negative, got %d", s.MaxFiles))
		}
	case RetentionPolicyUsage:
		pct, err := ParsePercentage(s.MaxUsage)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid retention max usage: %v", err))
		} else if pct <= 0 || pct > 100 {
			errs = append(errs, fmt.Sprintf("retention max usage must be in (0, 100], got %v", pct))
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid retention policy %q: must be one of age, count, usage", s.Policy))
	}

	if s.Enabled && s.Interval <= 0 {
		errs = append(errs, "retention interval must be positive when retention is enabled")
	}

	return joinErrors(errs)
}

func validateDetectionSettings(s *DetectionSettings) error {
	if s.EnforceLanguages && len(s.Languages) == 0 {
		return fmt.Errorf("language enforcement is enabled but no languages are configured")
	}
	return nil
}

func validateClassifierSettings(s *ClassifierSettings) error {
	var errs []string

	if !slices.Contains([]string{ClassifierModeRule, ClassifierModeMock}, s.Mode) {
		errs = append(errs, fmt.Sprintf("invalid classifier mode %q: must be %s or %s", s.Mode, ClassifierModeRule, ClassifierModeMock))
	}

	if s.ThresholdBytes < 0 {
		errs = append(errs, fmt.Sprintf("classifier threshold must not be negative, got %d", s.ThresholdBytes))
	}

	return joinErrors(errs)
}

func validateMQTTSettings(s *MQTTSettings) error {
	if !s.Enabled {
		return nil
	}

	var errs []string

	if s.Broker == "" {
		errs = append(errs, "MQTT broker must be set when MQTT is enabled")
	} else if err := validateEnvBroker(s.Broker); err != nil {
		errs = append(errs, fmt.Sprintf("invalid MQTT broker %q: %v", s.Broker, err))
	}

	if s.Topic == "" {
		errs = append(errs, "MQTT topic must be set when MQTT is enabled")
	} else if strings.ContainsAny(s.Topic, "+#") {
		errs = append(errs, "MQTT topic must not contain wildcards")
	}

	if s.Timeout <= 0 {
		errs = append(errs, "MQTT timeout must be positive")
	}

	return joinErrors(errs)
}

func validateSentrySettings(s *SentrySettings) error {
	if !s.Enabled {
		return nil
	}

	var errs []string
	if s.DSN == "" {
		errs = append(errs, "Sentry DSN must be set when Sentry is enabled")
	}
	if s.SampleRate < 0 || s.SampleRate > 1 {
		errs = append(errs, fmt.Sprintf("Sentry sample rate must be between 0 and 1, got %v", s.SampleRate))
	}

	return joinErrors(errs)
}

func joinErrors(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%s", strings.Join(errs, "; "))
}

// StartupWarnings reports settings that are valid but likely unintended in
// production. None of them prevents startup.
func StartupWarnings(s *Settings) *buildinfo.ValidationResult {
	result := buildinfo.NewValidationResult()

	if !s.APIKeyConfigured() {
		result.AddWarning("no API key configured (set SECRET_API_KEY); every detection request will fail with 500")
	}
	if !s.Audio.Retention.Enabled {
		result.AddWarning("upload retention is disabled; persisted audio accumulates without bound")
	}
	if s.Classifier.Mode == ClassifierModeMock {
		result.AddWarning("classifier runs in mock mode; every upload is reported as AI_GENERATED")
	}
	if slices.Contains(s.Server.AllowedOrigins, "*") {
		result.AddWarning("CORS allows any origin")
	}

	return result
}
