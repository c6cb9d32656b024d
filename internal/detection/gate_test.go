package detection

import (
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/conf"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/errors"
)

func requireDetectionError(t *testing.T, err error, kind Kind, status int, detail string) *Error {
	t.Helper()
	require.Error(t, err)
	de, ok := AsError(err)
	require.True(t, ok, "expected *detection.Error, got %T", err)
	assert.Equal(t, kind, de.Kind)
	assert.Equal(t, status, de.Status)
	assert.Equal(t, detail, de.Detail)
	return de
}

func TestGateAuthenticate(t *testing.T) {
	t.Parallel()

	g := NewGate(conf.SecuritySettings{APIKey: testAPIKey}, conf.DetectionSettings{})

	require.NoError(t, g.Authenticate(testAPIKey))
	requireDetectionError(t, g.Authenticate(""), KindAuth, http.StatusUnauthorized, DetailInvalidAPIKey)
	requireDetectionError(t, g.Authenticate("wrong"), KindAuth, http.StatusUnauthorized, DetailInvalidAPIKey)
	requireDetectionError(t, g.Authenticate(testAPIKey+" "), KindAuth, http.StatusUnauthorized, DetailInvalidAPIKey)
}

func TestGateUnconfiguredKeyAlwaysFails(t *testing.T) {
	t.Parallel()

	g := NewGate(conf.SecuritySettings{}, conf.DetectionSettings{})

	for _, credential := range []string{"", "anything", testAPIKey} {
		requireDetectionError(t, g.Authenticate(credential), KindConfiguration,
			http.StatusInternalServerError, DetailKeyNotConfigured)
	}
}

func TestGateAdmitAllowsTrailingWhitespace(t *testing.T) {
	t.Parallel()

	g := NewGate(conf.SecuritySettings{APIKey: testAPIKey}, conf.DetectionSettings{})

	req, err := g.Admit(testAPIKey, strings.NewReader("{\"language\":\"english\",\"audioFormat\":\"mp3\",\"audioBase64\":\"AAAA\"}\r\n  \n"))
	require.NoError(t, err)
	assert.Equal(t, "english", req.Language)
}

// countingReporter records enhanced errors passed to telemetry
type countingReporter struct {
	mu      sync.Mutex
	reports map[errors.ErrorCategory]int
}

func (r *countingReporter) ReportError(ee *errors.EnhancedError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports[ee.Category]++
	ee.MarkReported()
}

func (r *countingReporter) IsEnabled() bool { return true }

func (r *countingReporter) count(category errors.ErrorCategory) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reports[category]
}

// Not parallel: installs a process-wide telemetry reporter.
func TestGateUnconfiguredKeyReportedOnce(t *testing.T) {
	reporter := &countingReporter{reports: make(map[errors.ErrorCategory]int)}
	errors.SetTelemetryReporter(reporter)
	t.Cleanup(func() { errors.SetTelemetryReporter(nil) })

	g := NewGate(conf.SecuritySettings{}, conf.DetectionSettings{})
	require.Equal(t, 1, reporter.count(errors.CategoryConfiguration))

	first, ok := AsError(g.Authenticate("a"))
	require.True(t, ok)
	for range 10 {
		again, ok := AsError(g.Authenticate("b"))
		require.True(t, ok)
		assert.Same(t, first, again)
	}

	assert.Equal(t, 1, reporter.count(errors.CategoryConfiguration))
	assert.True(t, first.Err.IsReported())
}

func TestGateAdmitAuthRunsBeforeBodyParsing(t *testing.T) {
	t.Parallel()

	g := NewGate(conf.SecuritySettings{APIKey: testAPIKey}, conf.DetectionSettings{})
	unconfigured := NewGate(conf.SecuritySettings{}, conf.DetectionSettings{})

	bodies := []string{
		"",
		"not json",
		`{"language":"english","audioFormat":"mp3","audioBase64":"AAAA"}`,
		`{"audioBase64":""}`,
	}

	for _, body := range bodies {
		_, err := g.Admit("wrong", strings.NewReader(body))
		requireDetectionError(t, err, KindAuth, http.StatusUnauthorized, DetailInvalidAPIKey)

		_, err = unconfigured.Admit(testAPIKey, strings.NewReader(body))
		requireDetectionError(t, err, KindConfiguration, http.StatusInternalServerError, DetailKeyNotConfigured)
	}
}

func TestGateAdmitValidation(t *testing.T) {
	t.Parallel()

	g := NewGate(conf.SecuritySettings{APIKey: testAPIKey}, conf.DetectionSettings{
		EnforceLanguages: true,
		Languages:        conf.DefaultLanguages,
	})

	tests := []struct {
		name   string
		body   string
		reason Reason
		detail string
	}{
		{"not json", "{", ReasonInvalidBody, DetailInvalidBody},
		{"empty body", "", ReasonInvalidBody, DetailInvalidBody},
		{"trailing garbage", `{"language":"english","audioFormat":"mp3","audioBase64":"AAAA"}garbage`, ReasonInvalidBody, DetailInvalidBody},
		{"second object", `{"language":"english","audioFormat":"mp3","audioBase64":"AAAA"} {}`, ReasonInvalidBody, DetailInvalidBody},
		{"missing audio", `{"language":"english","audioFormat":"mp3"}`, ReasonMissingAudio, DetailAudioMissing},
		{"empty audio", `{"language":"english","audioFormat":"mp3","audioBase64":""}`, ReasonMissingAudio, DetailAudioMissing},
		{"audio checked first", `{"language":"klingon","audioFormat":"wav"}`, ReasonMissingAudio, DetailAudioMissing},
		{"missing language", `{"audioFormat":"mp3","audioBase64":"AAAA"}`, ReasonMissingLanguage, DetailLanguageMissing},
		{"missing format", `{"language":"english","audioBase64":"AAAA"}`, ReasonMissingFormat, DetailFormatMissing},
		{"unsupported language", `{"language":"klingon","audioFormat":"mp3","audioBase64":"AAAA"}`, ReasonUnsupportedLanguage, DetailUnsupportedLanguage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := g.Admit(testAPIKey, strings.NewReader(tt.body))
			de := requireDetectionError(t, err, KindValidation, http.StatusBadRequest, tt.detail)
			assert.Equal(t, tt.reason, de.Reason)
			assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
		})
	}
}

func TestGateLanguageFolding(t *testing.T) {
	t.Parallel()

	g := NewGate(conf.SecuritySettings{APIKey: testAPIKey}, conf.DetectionSettings{
		EnforceLanguages: true,
		Languages:        []string{"English", "tamil"},
	})

	for _, lang := range []string{"english", "ENGLISH", " English ", "Tamil"} {
		req := &Request{Language: lang, AudioFormat: "mp3", AudioBase64: "AAAA"}
		assert.NoError(t, g.Validate(req), lang)
	}
	assert.Error(t, g.Validate(&Request{Language: "hindi", AudioFormat: "mp3", AudioBase64: "AAAA"}))
}

func TestGateLanguageEnforcementDisabled(t *testing.T) {
	t.Parallel()

	g := NewGate(conf.SecuritySettings{APIKey: testAPIKey}, conf.DetectionSettings{EnforceLanguages: false})

	req, err := g.Admit(testAPIKey, strings.NewReader(`{"language":"klingon","audioFormat":"mp3","audioBase64":"AAAA"}`))
	require.NoError(t, err)
	assert.Equal(t, "klingon", req.Language)
}
