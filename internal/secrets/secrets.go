// Package secrets reads credentials from mounted secret files such as Docker
// or Kubernetes secrets. Secret values are never logged.
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/errors"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/logger"
)

// maxSecretFileSize bounds secret file reads; keys and passwords are small
const maxSecretFileSize = 64 * 1024

// GetLogger returns the secrets module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("secrets")
}

// ReadFile returns the contents of a secret file with trailing newlines
// removed. Files readable by group or other are accepted with a warning.
func ReadFile(path string) (string, error) {
	if path == "" {
		return "", errors.Newf("secret file path is empty").
			Component("secrets").
			Category(errors.CategoryConfiguration).
			Build()
	}

	cleanPath := filepath.Clean(path)

	f, err := os.Open(cleanPath)
	if err != nil {
		return "", fileError(err, cleanPath, "open_secret_file")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fileError(err, cleanPath, "stat_secret_file")
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("secret path is not a regular file: %s", cleanPath)
	}
	if info.Size() > maxSecretFileSize {
		return "", fmt.Errorf("secret file too large (max %d bytes): %s", maxSecretFileSize, cleanPath)
	}

	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		GetLogger().Warn("secret file is readable by group or other",
			logger.String("path", cleanPath),
			logger.String("mode", fmt.Sprintf("%04o", perm)))
	}

	data, err := io.ReadAll(io.LimitReader(f, maxSecretFileSize))
	if err != nil {
		return "", fileError(err, cleanPath, "read_secret_file")
	}

	secret := strings.TrimRight(string(data), "\r\n")
	if secret == "" {
		return "", fmt.Errorf("secret file is empty: %s", cleanPath)
	}

	return secret, nil
}

// Resolve returns the secret stored at filePath when it is set, otherwise
// value unchanged. An unreadable file is an error rather than a silent
// fallback to value.
func Resolve(filePath, value string) (string, error) {
	if filePath == "" {
		return value, nil
	}

	secret, err := ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read secret from file: %w", err)
	}
	return secret, nil
}

func fileError(err error, path, operation string) error {
	return errors.New(err).
		Component("secrets").
		Category(errors.CategoryFileIO).
		Context("operation", operation).
		Context("path", path).
		Build()
}
