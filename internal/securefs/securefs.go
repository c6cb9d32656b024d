package securefs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/errors"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/logger"
)

// TempPrefix marks in-flight files written by WriteFileExclusive. Anything
// listing the directory should ignore names with this prefix.
const TempPrefix = ".tmp-"

// GetLogger returns the securefs package logger scoped to the securefs module.
func GetLogger() logger.Logger {
	return logger.Global().Module("securefs")
}

// SecureFS restricts file operations to a single flat directory using os.Root.
//
// All names passed to its methods are single path components. Separators,
// "..", absolute paths and empty names are rejected before the OS is asked,
// and os.Root additionally refuses to follow symlinks out of the directory.
type SecureFS struct {
	baseDir string
	root    *os.Root
}

// New creates the base directory if needed and opens it as a sandbox root.
func New(baseDir string) (*SecureFS, error) {
	absPath, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base path: %w", err)
	}

	if err := os.MkdirAll(absPath, 0o750); err != nil {
		return nil, errors.New(err).
			Component("securefs").
			Category(errors.CategoryFileIO).
			Context("operation", "create_base_directory").
			Build()
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem sandbox: %w", err)
	}

	return &SecureFS{baseDir: absPath, root: root}, nil
}

// BaseDir returns the absolute path of the sandbox directory
func (sfs *SecureFS) BaseDir() string {
	return sfs.baseDir
}

// Close releases the underlying root handle
func (sfs *SecureFS) Close() error {
	return sfs.root.Close()
}

// ValidateName checks that name is a single local path component.
func ValidateName(name string) error {
	if name == "" || name == "." || strings.ContainsAny(name, `/\`) || filepath.IsAbs(name) {
		return ErrInvalidPath
	}
	if name == ".." || !filepath.IsLocal(name) {
		return ErrPathTraversal
	}
	return nil
}

// WriteFileExclusive writes data to name without ever exposing a partial file
// and without replacing an existing one.
//
// The bytes go to a hidden temp file first, which is then hard-linked to the
// final name; link(2) fails if the target exists. Filesystems without hard
// link support fall back to an existence check followed by rename.
func (sfs *SecureFS) WriteFileExclusive(name string, data []byte, perm os.FileMode) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	tmpName := TempPrefix + uuid.NewString()
	if err := sfs.writeTemp(tmpName, data, perm); err != nil {
		return err
	}

	linkErr := sfs.root.Link(tmpName, name)
	if linkErr == nil {
		if err := sfs.root.Remove(tmpName); err != nil {
			GetLogger().Warn("failed to remove temp file after link",
				logger.String("temp_file", tmpName),
				logger.Error(err))
		}
		return nil
	}

	if errors.Is(linkErr, fs.ErrExist) {
		sfs.removeQuietly(tmpName)
		return ErrExists
	}

	GetLogger().Debug("hard link failed, falling back to rename",
		logger.String("file", name),
		logger.Error(linkErr))

	if _, err := sfs.root.Lstat(name); err == nil {
		sfs.removeQuietly(tmpName)
		return ErrExists
	}

	if err := sfs.root.Rename(tmpName, name); err != nil {
		sfs.removeQuietly(tmpName)
		return fmt.Errorf("failed to move temp file into place: %w", err)
	}

	return nil
}

func (sfs *SecureFS) writeTemp(tmpName string, data []byte, perm os.FileMode) error {
	f, err := sfs.root.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	_, writeErr := f.Write(data)
	syncErr := f.Sync()
	closeErr := f.Close()

	if err := errors.Join(writeErr, syncErr, closeErr); err != nil {
		sfs.removeQuietly(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	return nil
}

func (sfs *SecureFS) removeQuietly(name string) {
	if err := sfs.root.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		GetLogger().Warn("failed to remove file",
			logger.String("file", name),
			logger.Error(err))
	}
}

// Remove deletes a single file from the sandbox
func (sfs *SecureFS) Remove(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	return sfs.root.Remove(name)
}

// Lstat returns file info without following symlinks
func (sfs *SecureFS) Lstat(name string) (fs.FileInfo, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	return sfs.root.Lstat(name)
}

// ReadDir lists the sandbox directory
func (sfs *SecureFS) ReadDir() ([]fs.DirEntry, error) {
	dir, err := sfs.root.Open(".")
	if err != nil {
		return nil, fmt.Errorf("failed to open base directory: %w", err)
	}
	defer func() {
		if err := dir.Close(); err != nil {
			GetLogger().Debug("failed to close directory handle", logger.Error(err))
		}
	}()

	return dir.ReadDir(-1)
}
