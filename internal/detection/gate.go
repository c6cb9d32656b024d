package detection

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"io"
	"strings"

	"golang.org/x/text/cases"

	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/conf"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/errors"
)

// Gate authenticates callers and validates request shape. It has no side
// effects and is safe for concurrent use.
type Gate struct {
	keyHash   [sha256.Size]byte
	enforce   bool
	languages map[string]struct{}

	// notConfigured is returned for every call while no key is set. It is
	// built once so telemetry sees the misconfiguration once.
	notConfigured *Error
}

// NewGate builds a Gate from the security and detection settings.
func NewGate(security conf.SecuritySettings, detection conf.DetectionSettings) *Gate {
	g := &Gate{
		keyHash:   sha256.Sum256([]byte(security.APIKey)),
		enforce:   detection.EnforceLanguages,
		languages: make(map[string]struct{}, len(detection.Languages)),
	}
	if security.APIKey == "" {
		g.notConfigured = newConfigurationError(DetailKeyNotConfigured)
	}
	for _, lang := range detection.Languages {
		g.languages[foldLanguage(lang)] = struct{}{}
	}
	return g
}

// Authenticate checks the caller credential. A server without a configured
// key rejects every call with a configuration error, whatever the caller sent.
func (g *Gate) Authenticate(credential string) error {
	if g.notConfigured != nil {
		return g.notConfigured
	}

	// Hash both sides so the comparison runs over equal-length inputs
	provided := sha256.Sum256([]byte(credential))
	if subtle.ConstantTimeCompare(provided[:], g.keyHash[:]) != 1 {
		return newAuthError()
	}

	return nil
}

// Admit authenticates the caller, then decodes and validates the JSON body.
// The body is not read when authentication fails.
func (g *Gate) Admit(credential string, body io.Reader) (*Request, error) {
	if err := g.Authenticate(credential); err != nil {
		return nil, err
	}

	req, err := decodeRequest(body)
	if err != nil {
		return nil, err
	}

	if err := g.Validate(req); err != nil {
		return nil, err
	}

	return req, nil
}

// Validate checks that an authenticated request is complete and, when
// enforcement is on, that its language is on the allow-list.
func (g *Gate) Validate(req *Request) error {
	if req.AudioBase64 == "" {
		return newValidationError(ReasonMissingAudio, DetailAudioMissing, nil)
	}
	if strings.TrimSpace(req.Language) == "" {
		return newValidationError(ReasonMissingLanguage, DetailLanguageMissing, nil)
	}
	if strings.TrimSpace(req.AudioFormat) == "" {
		return newValidationError(ReasonMissingFormat, DetailFormatMissing, nil)
	}

	if g.enforce {
		if _, ok := g.languages[foldLanguage(req.Language)]; !ok {
			return newValidationError(ReasonUnsupportedLanguage, DetailUnsupportedLanguage, nil)
		}
	}

	return nil
}

// decodeRequest reads exactly one JSON object from body. Anything but
// whitespace after the object is rejected.
func decodeRequest(body io.Reader) (*Request, error) {
	if body == nil {
		return nil, newValidationError(ReasonInvalidBody, DetailInvalidBody, nil)
	}

	dec := json.NewDecoder(body)

	var req Request
	if err := dec.Decode(&req); err != nil {
		return nil, newValidationError(ReasonInvalidBody, DetailInvalidBody, err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.NewStd("unexpected data after JSON object")
		}
		return nil, newValidationError(ReasonInvalidBody, DetailInvalidBody, err)
	}

	return &req, nil
}

// foldLanguage normalizes a language name for comparison. A Caser is not
// safe for concurrent use, so one is created per call.
func foldLanguage(lang string) string {
	return cases.Fold().String(strings.TrimSpace(lang))
}
