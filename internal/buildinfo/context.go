// Package buildinfo contains build-time metadata and validation state separate from user configuration
package buildinfo

import "time"

// UnknownValue is reported for metadata that was not injected at build time.
const UnknownValue = "unknown"

// BuildInfo provides an interface for accessing build-time metadata.
type BuildInfo interface {
	GetVersion() string
	GetBuildDate() string
	GetSystemID() string
}

// Context contains build-time metadata that is not user-configurable.
// It is created once at startup and injected into the components that report it.
type Context struct {
	// Version holds the Git version tag from build
	Version string

	// BuildDate is the time when the binary was built
	BuildDate string

	// SystemID is a per-process identifier attached to telemetry
	SystemID string

	// StartedAt is when the process created this context
	StartedAt time.Time
}

// NewContext returns a Context stamped with the current time.
func NewContext(version, buildDate, systemID string) *Context {
	return &Context{
		Version:   version,
		BuildDate: buildDate,
		SystemID:  systemID,
		StartedAt: time.Now(),
	}
}

// GetVersion implements BuildInfo.GetVersion
func (c *Context) GetVersion() string {
	if c == nil || c.Version == "" {
		return UnknownValue
	}
	return c.Version
}

// GetBuildDate implements BuildInfo.GetBuildDate
func (c *Context) GetBuildDate() string {
	if c == nil || c.BuildDate == "" {
		return UnknownValue
	}
	return c.BuildDate
}

// GetSystemID implements BuildInfo.GetSystemID
func (c *Context) GetSystemID() string {
	if c == nil || c.SystemID == "" {
		return UnknownValue
	}
	return c.SystemID
}

// Uptime returns the time elapsed since StartedAt, truncated to seconds.
func (c *Context) Uptime() time.Duration {
	if c == nil || c.StartedAt.IsZero() {
		return 0
	}
	return time.Since(c.StartedAt).Truncate(time.Second)
}

// ValidationResult holds validation outcomes separately from configuration
type ValidationResult struct {
	// Warnings are configuration issues that don't prevent startup
	Warnings []string `json:"warnings,omitempty"`

	// Errors are critical issues that should prevent startup
	Errors []string `json:"errors,omitempty"`

	// Valid indicates if the configuration passed validation
	Valid bool `json:"valid"`
}

// NewValidationResult creates a new validation result with Valid set to true
func NewValidationResult() *ValidationResult {
	return &ValidationResult{Valid: true}
}

// AddWarning adds a warning to the validation result
func (r *ValidationResult) AddWarning(message string) {
	r.Warnings = append(r.Warnings, message)
}

// AddError adds an error to the validation result
func (r *ValidationResult) AddError(message string) {
	r.Errors = append(r.Errors, message)
	r.Valid = false
}

// HasIssues returns true if there are any warnings or errors
func (r *ValidationResult) HasIssues() bool {
	return len(r.Warnings) > 0 || len(r.Errors) > 0
}
