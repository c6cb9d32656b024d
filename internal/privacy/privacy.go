// Package privacy provides privacy-focused utility functions for handling sensitive data
// such as URL sanitization, message scrubbing, and system ID generation.
package privacy

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/netip"
	"net/url"
	"regexp"
	"strings"
)

// Pre-compiled patterns shared by the scrubbers
var (
	// urlPattern finds HTTP and broker URLs in free text
	urlPattern = regexp.MustCompile(`\b(?:https?|wss?|tcp|ssl|tls|mqtts?)://\S+`)

	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	uuidPattern = regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

	// apiKeyPattern matches credential assignments such as "x-api-key: abc" or "api_key=abc"
	apiKeyPattern = regexp.MustCompile(`(?i)\b(x-api-key|api[_-]?key|token|secret|password)(\s*[:=]\s*)\S+`)

	bearerPattern = regexp.MustCompile(`(?i)\bbearer\s+[a-z0-9._~+/\-]+=*`)
)

// ScrubMessage removes or anonymizes sensitive information from telemetry messages.
// URLs are replaced with anonymized hashes, credentials are redacted, and
// e-mail addresses and UUIDs (upload file names embed one) are masked.
func ScrubMessage(message string) string {
	message = urlPattern.ReplaceAllStringFunc(message, AnonymizeURL)
	message = bearerPattern.ReplaceAllString(message, "Bearer [TOKEN]")
	message = apiKeyPattern.ReplaceAllString(message, "${1}${2}[REDACTED]")
	message = emailPattern.ReplaceAllString(message, "[EMAIL]")
	message = uuidPattern.ReplaceAllString(message, "[UUID]")
	return message
}

// AnonymizeURL converts a URL to an anonymized form while preserving debugging value.
// The result is a stable hash over the scheme, host category, port and path shape,
// so the same endpoint always maps to the same token.
func AnonymizeURL(rawURL string) string {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		hash := sha256.Sum256([]byte(rawURL))
		return fmt.Sprintf("url-hash-%x", hash[:8])
	}

	var normalizedParts []string

	if parsedURL.Scheme != "" {
		normalizedParts = append(normalizedParts, parsedURL.Scheme)
	}

	if host := parsedURL.Hostname(); host != "" {
		normalizedParts = append(normalizedParts, categorizeHost(host))
	}

	if parsedURL.Port() != "" {
		normalizedParts = append(normalizedParts, "port-"+parsedURL.Port())
	}

	if parsedURL.Path != "" && parsedURL.Path != "/" {
		normalizedParts = append(normalizedParts, anonymizePath(parsedURL.Path))
	}

	normalized := strings.Join(normalizedParts, ":")
	hash := sha256.Sum256([]byte(normalized))

	return fmt.Sprintf("url-%x", hash[:12])
}

// SanitizeBrokerURL strips credentials, path and query from a broker URL and
// returns scheme://host:port for display. Unparseable input yields an anonymized hash.
func SanitizeBrokerURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return AnonymizeURL(raw)
	}
	return parsed.Scheme + "://" + parsed.Host
}

// GenerateSystemID creates a unique system identifier
// The ID is 12 characters long, URL-safe, and case-insensitive
// Format: XXXX-XXXX-XXXX (14 chars total with hyphens)
func GenerateSystemID() (string, error) {
	bytes := make([]byte, 6)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	id := hex.EncodeToString(bytes)
	formatted := fmt.Sprintf("%s-%s-%s", id[0:4], id[4:8], id[8:12])

	return strings.ToUpper(formatted), nil
}

// IsValidSystemID checks if a system ID has the correct format
func IsValidSystemID(id string) bool {
	if len(id) != 14 {
		return false
	}

	if id[4] != '-' || id[9] != '-' {
		return false
	}

	for i, char := range id {
		if i == 4 || i == 9 {
			continue
		}
		if !isHexChar(char) {
			return false
		}
	}

	return true
}

// categorizeHost anonymizes hostnames while preserving useful categorization
func categorizeHost(host string) string {
	if host == "localhost" {
		return "localhost"
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		switch {
		case addr.IsLoopback():
			return "localhost"
		case addr.IsPrivate(), addr.IsLinkLocalUnicast(), addr.IsMulticast():
			return "private-ip"
		default:
			return "public-ip"
		}
	}

	// For domain names, preserve TLD only
	parts := strings.Split(host, ".")
	if len(parts) >= 2 {
		return "domain-" + parts[len(parts)-1]
	}

	return "unknown-host"
}

// anonymizePath creates a structure-preserving but privacy-safe path representation
func anonymizePath(path string) string {
	path = strings.Trim(path, "/")
	if path == "" {
		return "root"
	}

	var anonymizedSegments []string
	for segment := range strings.SplitSeq(path, "/") {
		if segment == "" {
			continue
		}

		switch {
		case isCommonRouteName(segment):
			anonymizedSegments = append(anonymizedSegments, strings.ToLower(segment))
		case isNumeric(segment):
			anonymizedSegments = append(anonymizedSegments, "numeric")
		default:
			hash := sha256.Sum256([]byte(segment))
			anonymizedSegments = append(anonymizedSegments, fmt.Sprintf("seg-%x", hash[:4]))
		}
	}

	return strings.Join(anonymizedSegments, "/")
}

// isCommonRouteName reports whether a path segment is a well-known, non-sensitive route name
func isCommonRouteName(segment string) bool {
	switch strings.ToLower(segment) {
	case "api", "v1", "detect", "voice-detection", "health", "metrics", "mqtt":
		return true
	}
	return false
}

// isNumeric checks if a string is purely numeric
func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// isHexChar checks if a rune is a valid hex character
func isHexChar(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'A' && r <= 'F') || (r >= 'a' && r <= 'f')
}
