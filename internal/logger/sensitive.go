package logger

import (
	"regexp"
	"strings"
)

const redactedValue = "[REDACTED]"

// sensitiveDataPatterns match credentials embedded in free-form strings such as
// error messages or header dumps.
var sensitiveDataPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9-._~+/]+=*)`),
	regexp.MustCompile(`(?i)(x-api-key[\s:=]+)([^;,\s"]+)`),
	regexp.MustCompile(`(?i)((api|access|auth|token|secret|passw(or)?d)[0-9a-z\-_\.]*[\s:=]+)([^;,\s"]{5,})`),
	regexp.MustCompile(`(?i)(tcp|ssl|tls|mqtts?|wss?)://([^:/\s]+):([^@/\s]+)@`),
}

// sensitiveKeywords mark field keys whose values are never logged verbatim.
var sensitiveKeywords = []string{
	"password", "passwd", "secret", "credential", "token", "authorization",
	"api_key", "apikey", "x-api-key", "cookie", "dsn",
}

// IsSensitiveKey reports whether a field key names a credential.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(keyLower, keyword) {
			return true
		}
	}
	return false
}

// RedactSensitiveData replaces credentials found in input with "[REDACTED]".
func RedactSensitiveData(input string) string {
	if input == "" {
		return input
	}

	for i, pattern := range sensitiveDataPatterns {
		if i == len(sensitiveDataPatterns)-1 {
			// keep the scheme and host, drop userinfo
			input = pattern.ReplaceAllString(input, "$1://"+redactedValue+"@")
			continue
		}
		input = pattern.ReplaceAllString(input, "$1"+redactedValue)
	}

	return input
}
