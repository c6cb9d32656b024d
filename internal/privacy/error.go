package privacy

// SanitizedError carries a scrubbed message for logs and telemetry while
// keeping the original error reachable through Unwrap.
type SanitizedError struct {
	original     error
	sanitizedMsg string
}

func (e *SanitizedError) Error() string {
	return e.sanitizedMsg
}

func (e *SanitizedError) Unwrap() error {
	return e.original
}

// WrapError scrubs err's message with ScrubMessage. A nil error stays nil.
//
//	if err := client.Connect(); err != nil {
//	    return privacy.WrapError(err) // broker credentials never reach the log
//	}
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	return &SanitizedError{
		original:     err,
		sanitizedMsg: ScrubMessage(err.Error()),
	}
}
