// file_utils.go - upload discovery for the retention policies
package diskmanager

import (
	"cmp"
	"io/fs"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/errors"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/securefs"
)

// uploadPattern matches names the persister produces: audio_<uuid>.<ext>.
// In-progress temp files and anything an operator placed by hand never match.
var uploadPattern = regexp.MustCompile(`^audio_[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.[a-z0-9]{1,10}$`)

// FileInfo holds the metadata retention decisions are made on
type FileInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Store is the sandboxed upload directory
type Store interface {
	BaseDir() string
	ReadDir() ([]fs.DirEntry, error)
	Remove(name string) error
}

// IsUploadName reports whether name looks like a persisted upload
func IsUploadName(name string) bool {
	return uploadPattern.MatchString(name)
}

// IsTempName reports whether name is an unfinished securefs write
func IsTempName(name string) bool {
	return strings.HasPrefix(name, securefs.TempPrefix)
}

// GetStaleTempFiles lists temp files last modified before cutoff, oldest first.
func GetStaleTempFiles(store Store, cutoff time.Time) ([]FileInfo, error) {
	entries, err := store.ReadDir()
	if err != nil {
		return nil, errors.New(err).
			Component("diskmanager").
			Category(errors.CategoryFileIO).
			Context("operation", "list_temp_files").
			Build()
	}

	var files []FileInfo
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !IsTempName(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, errors.FileError(err, entry.Name(), 0)
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		files = append(files, FileInfo{
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sortOldestFirst(files)
	return files, nil
}

// GetAudioFiles lists persisted uploads sorted oldest first. Files that vanish
// between listing and stat are skipped.
func GetAudioFiles(store Store) ([]FileInfo, error) {
	entries, err := store.ReadDir()
	if err != nil {
		return nil, errors.New(err).
			Component("diskmanager").
			Category(errors.CategoryFileIO).
			Context("operation", "list_uploads").
			Build()
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !IsUploadName(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, errors.FileError(err, entry.Name(), 0)
		}
		files = append(files, FileInfo{
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sortOldestFirst(files)
	return files, nil
}

func sortOldestFirst(files []FileInfo) {
	slices.SortFunc(files, func(a, b FileInfo) int {
		if c := a.ModTime.Compare(b.ModTime); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
}
