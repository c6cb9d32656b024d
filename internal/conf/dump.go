package conf

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

const maskedSecret = "********"

// MarshalYAML renders the effective settings as YAML with secrets masked.
// Empty secrets stay empty so an operator can see what is unset.
func MarshalYAML(s *Settings) ([]byte, error) {
	masked := *s
	masked.Security.APIKey = maskSecret(s.Security.APIKey)
	masked.MQTT.Password = maskSecret(s.MQTT.Password)
	masked.Sentry.DSN = maskSecret(s.Sentry.DSN)

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&masked); err != nil {
		return nil, fmt.Errorf("error encoding settings to YAML: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("error finalizing YAML output: %w", err)
	}

	return buf.Bytes(), nil
}

func maskSecret(value string) string {
	if value == "" {
		return ""
	}
	return maskedSecret
}
