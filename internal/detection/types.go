// Package detection implements the voice classification pipeline: request
// admission, audio persistence and the size-based verdict.
//
// The three stages are independent and stateless across requests:
//
//	Gate      authenticates the caller and validates the request shape
//	Persister decodes base64 audio and writes it under a unique name
//	Classifier maps the decoded byte length to a verdict
//
// Detector chains them and reports outcomes to optional observers.
package detection

import "time"

// Request is the body of a classification call. All three fields must be
// non-empty once the Gate has admitted it.
type Request struct {
	Language    string `json:"language"`
	AudioFormat string `json:"audioFormat"`
	AudioBase64 string `json:"audioBase64"`
}

// PersistedAudio describes an upload written to the upload directory.
// It is never updated afterwards.
type PersistedAudio struct {
	FileName   string // base name, audio_<uuid>.<ext>
	FilePath   string // absolute path
	ByteLength int64  // length of the decoded payload
}

// Classification is the binary verdict
type Classification string

const (
	AIGenerated Classification = "AI_GENERATED"
	Human       Classification = "HUMAN"
)

// Result is the verdict for one upload
type Result struct {
	Classification Classification
	Confidence     float64
	Explanation    string
}

// Outcome is everything the API layer needs to render a success response
type Outcome struct {
	Language string
	Format   string
	Audio    PersistedAudio
	Result   Result
	Took     time.Duration
}
