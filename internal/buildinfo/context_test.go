package buildinfo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestContextAccessors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		ctx       *Context
		version   string
		buildDate string
		systemID  string
	}{
		{"nil context", nil, UnknownValue, UnknownValue, UnknownValue},
		{"empty fields", NewContext("", "", ""), UnknownValue, UnknownValue, UnknownValue},
		{"populated", NewContext("1.2.0", "2026-01-01T00:00:00Z", "A1B2-C3D4-E5F6"), "1.2.0", "2026-01-01T00:00:00Z", "A1B2-C3D4-E5F6"},
		{"pre-release", NewContext("1.2.0-rc.1+build.7", "2026-01-01", "x"), "1.2.0-rc.1+build.7", "2026-01-01", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.version, tt.ctx.GetVersion())
			assert.Equal(t, tt.buildDate, tt.ctx.GetBuildDate())
			assert.Equal(t, tt.systemID, tt.ctx.GetSystemID())
		})
	}
}

func TestContextImplementsBuildInfo(t *testing.T) {
	t.Parallel()

	var info BuildInfo = NewContext("1.0.0", "today", "id")
	assert.Equal(t, "1.0.0", info.GetVersion())
}

func TestUptime(t *testing.T) {
	t.Parallel()

	var nilCtx *Context
	assert.Zero(t, nilCtx.Uptime())
	assert.Zero(t, (&Context{}).Uptime())

	ctx := &Context{StartedAt: time.Now().Add(-90 * time.Second)}
	uptime := ctx.Uptime()
	assert.GreaterOrEqual(t, uptime, 90*time.Second)
	assert.Zero(t, uptime%time.Second)
}

func TestValidationResult(t *testing.T) {
	t.Parallel()

	r := NewValidationResult()
	assert.True(t, r.Valid)
	assert.False(t, r.HasIssues())

	r.AddWarning("api key not set")
	assert.True(t, r.Valid)
	assert.True(t, r.HasIssues())

	r.AddError("upload dir not writable")
	assert.False(t, r.Valid)
	assert.Equal(t, []string{"api key not set"}, r.Warnings)
	assert.Equal(t, []string{"upload dir not writable"}, r.Errors)
}
