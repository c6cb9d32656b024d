package detection

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/conf"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/logger"
)

// FilePrefix starts every persisted upload name
const FilePrefix = "audio_"

const uploadFilePerm os.FileMode = 0o640

// Store is the write side of the upload directory. securefs.SecureFS
// implements it.
type Store interface {
	WriteFileExclusive(name string, data []byte, perm os.FileMode) error
	BaseDir() string
}

// Persister decodes base64 audio and writes it under a fresh unique name.
type Persister struct {
	store    Store
	formats  []string
	maxBytes int64
	newName  func(ext string) string
	log      logger.Logger
}

// NewPersister creates a Persister writing to store under the given audio settings.
func NewPersister(store Store, audio conf.AudioSettings) *Persister {
	return &Persister{
		store:    store,
		formats:  slices.Clone(audio.Formats),
		maxBytes: audio.MaxBytes,
		newName:  UploadName,
		log:      GetLogger().Module("persist"),
	}
}

// UploadName returns a new audio_<uuid v4>.<ext> file name
func UploadName(ext string) string {
	return FilePrefix + uuid.NewString() + "." + ext
}

// Persist validates the declared format, decodes the payload, enforces the
// size ceiling and writes the bytes. Nothing is written unless every check passes.
func (p *Persister) Persist(req *Request) (*PersistedAudio, error) {
	format := strings.ToLower(strings.TrimSpace(req.AudioFormat))
	if !conf.ValidExtension(format) || !slices.Contains(p.formats, format) {
		return nil, newValidationError(ReasonUnsupportedFormat, p.unsupportedFormatDetail(), nil)
	}

	// Reject oversize payloads before allocating for them. Up to two padding
	// characters make the smallest possible decoded length two bytes shorter.
	if minDecoded := int64(base64.StdEncoding.DecodedLen(len(req.AudioBase64))) - 2; minDecoded > p.maxBytes {
		return nil, newValidationError(ReasonPayloadTooLarge, DetailAudioTooLarge, nil)
	}

	data, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		return nil, newValidationError(ReasonInvalidEncoding, DetailInvalidBase64, err)
	}

	byteLength := int64(len(data))
	if byteLength > p.maxBytes {
		return nil, newValidationError(ReasonPayloadTooLarge, DetailAudioTooLarge, nil)
	}

	name := p.newName(format)
	writeStart := time.Now()
	if err := p.store.WriteFileExclusive(name, data, uploadFilePerm); err != nil {
		took := time.Since(writeStart)
		p.log.Error("failed to store audio",
			logger.String("file", name),
			logger.Int64("bytes", byteLength),
			logger.Duration("took", took),
			logger.Error(err))
		return nil, newStorageError(err, "persist_audio", name, byteLength, took)
	}

	p.log.Debug("audio persisted",
		logger.String("file", name),
		logger.Int64("bytes", byteLength))

	return &PersistedAudio{
		FileName:   name,
		FilePath:   filepath.Join(p.store.BaseDir(), name),
		ByteLength: byteLength,
	}, nil
}

// unsupportedFormatDetail keeps the historical message for the mp3-only setup
func (p *Persister) unsupportedFormatDetail() string {
	if len(p.formats) == 1 && p.formats[0] == "mp3" {
		return DetailOnlyMP3
	}
	return DetailUnsupportedFormat
}
