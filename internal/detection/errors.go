package detection

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/errors"
)

// Kind classifies pipeline failures by who is at fault and how they map to HTTP
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindAuth          Kind = "auth"
	KindValidation    Kind = "validation"
	KindStorage       Kind = "storage"
)

// Reason narrows a validation failure
type Reason string

const (
	ReasonInvalidBody         Reason = "invalid_body"
	ReasonMissingAudio        Reason = "missing_audio"
	ReasonMissingLanguage     Reason = "missing_language"
	ReasonMissingFormat       Reason = "missing_format"
	ReasonUnsupportedLanguage Reason = "unsupported_language"
	ReasonUnsupportedFormat   Reason = "unsupported_format"
	ReasonInvalidEncoding     Reason = "invalid_encoding"
	ReasonPayloadTooLarge     Reason = "payload_too_large"
)

// User-visible details. These strings are part of the HTTP contract.
const (
	DetailKeyNotConfigured    = "Server API key is not configured"
	DetailInvalidAPIKey       = "Invalid API key"
	DetailInvalidBody         = "Invalid request body"
	DetailAudioMissing        = "Audio data missing"
	DetailLanguageMissing     = "Language missing"
	DetailFormatMissing       = "Audio format missing"
	DetailUnsupportedLanguage = "Unsupported language"
	DetailOnlyMP3             = "Only mp3 format is supported"
	DetailUnsupportedFormat   = "Unsupported audio format"
	DetailInvalidBase64       = "Invalid Base64 audio"
	DetailAudioTooLarge       = "Audio file too large"
	DetailStorageFailed       = "Failed to store audio"
)

const detectionComponent = "detection"

// Error is a pipeline failure carrying its HTTP status and the detail shown
// to the caller. The wrapped EnhancedError holds the internal cause.
type Error struct {
	Kind   Kind
	Reason Reason // set for KindValidation only
	Status int
	Detail string
	Err    *errors.EnhancedError
}

func (e *Error) Error() string {
	if e.Err != nil && e.Err.Err != nil && e.Err.Error() != e.Detail {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	if e.Err == nil {
		return nil
	}
	return e.Err
}

// AsError extracts a pipeline Error from err's chain
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

func newConfigurationError(detail string) *Error {
	return &Error{
		Kind:   KindConfiguration,
		Status: http.StatusInternalServerError,
		Detail: detail,
		Err: errors.Newf("%s", detail).
			Component(detectionComponent).
			Category(errors.CategoryConfiguration).
			Priority(errors.PriorityCritical).
			Context("operation", "authenticate").
			Build(),
	}
}

func newAuthError() *Error {
	return &Error{
		Kind:   KindAuth,
		Status: http.StatusUnauthorized,
		Detail: DetailInvalidAPIKey,
		Err: errors.Newf("api key mismatch").
			Component(detectionComponent).
			Category(errors.CategoryAuth).
			Priority(errors.PriorityLow).
			Context("operation", "authenticate").
			Build(),
	}
}

func newValidationError(reason Reason, detail string, cause error) *Error {
	if cause == nil {
		cause = errors.NewStd(detail)
	}
	return &Error{
		Kind:   KindValidation,
		Reason: reason,
		Status: http.StatusBadRequest,
		Detail: detail,
		Err: errors.New(cause).
			Component(detectionComponent).
			Category(errors.CategoryValidation).
			Priority(errors.PriorityLow).
			Context("reason", string(reason)).
			Build(),
	}
}

func newStorageError(cause error, operation, name string, size int64, took time.Duration) *Error {
	return &Error{
		Kind:   KindStorage,
		Status: http.StatusInternalServerError,
		Detail: DetailStorageFailed,
		Err: errors.New(cause).
			Component(detectionComponent).
			Category(errors.CategoryFileIO).
			Priority(errors.PriorityHigh).
			FileContext(name, size).
			Timing(operation, took).
			Build(),
	}
}
