// env.go - explicit environment variable bindings
package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns bindings for variables that don't follow the
// VOICE_ prefix convention. Both names are bound so either can be used.
func getEnvBindings() []envBinding {
	return []envBinding{
		{"security.apikey", "SECRET_API_KEY", nil},
		{"security.apikeyfile", "SECRET_API_KEY_FILE", nil},
		{"server.port", "PORT", validateEnvPort},
		{"sentry.dsn", "SENTRY_DSN", nil},
		{"mqtt.broker", "MQTT_BROKER", validateEnvBroker},
		{"mqtt.username", "MQTT_USERNAME", nil},
		{"mqtt.password", "MQTT_PASSWORD", nil},
		{"mqtt.passwordfile", "MQTT_PASSWORD_FILE", nil},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars(v *viper.Viper) error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(binding.ConfigKey, ".", "_"))
		if err := v.BindEnv(binding.ConfigKey, prefixed, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

// validateEnvPort validates a TCP port number
func validateEnvPort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("must be between 1 and 65535")
	}
	return nil
}

// validateEnvBroker validates an MQTT broker URL scheme
func validateEnvBroker(value string) error {
	for _, scheme := range []string{"tcp://", "ssl://", "tls://", "mqtt://", "mqtts://", "ws://", "wss://"} {
		if strings.HasPrefix(value, scheme) {
			return nil
		}
	}
	return fmt.Errorf("unsupported scheme")
}
