// Package securefs provides a sandboxed view of a single directory
// backed by os.Root.
package securefs

import (
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/errors"
)

// Sentinel errors for the securefs package.
// These errors can be used with errors.Is to check for specific error conditions.
var (
	// ErrPathTraversal indicates an attempt to reach outside the base directory
	ErrPathTraversal = errors.NewStd("security error: path attempts to traverse outside base directory")

	// ErrInvalidPath indicates a name that is empty, absolute or contains separators
	ErrInvalidPath = errors.NewStd("security error: invalid path")

	// ErrExists indicates the target of an exclusive write already exists
	ErrExists = errors.NewStd("target file already exists")
)
