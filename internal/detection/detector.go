package detection

import (
	"context"
	"io"
	"time"

	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/conf"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/logger"
)

// Recorder receives pipeline outcomes, typically for metrics
type Recorder interface {
	RecordClassification(classification string, bytes int64, took time.Duration)
	RecordRejection(kind, reason string)
}

// Publisher forwards classification events to an external sink. Implementations
// must not block the caller for longer than their own publish timeout.
type Publisher interface {
	PublishClassification(ctx context.Context, event *Event)
}

// Event is the externally published record of one classification
type Event struct {
	File           string    `json:"file"`
	Language       string    `json:"language"`
	Format         string    `json:"format"`
	Classification string    `json:"classification"`
	Confidence     float64   `json:"confidence"`
	Bytes          int64     `json:"bytes"`
	Timestamp      time.Time `json:"timestamp"`
}

// Detector runs the gate, persister and classifier in order
type Detector struct {
	gate       *Gate
	persister  *Persister
	classifier *Classifier
	recorder   Recorder
	publisher  Publisher
	log        logger.Logger
}

// Option configures a Detector
type Option func(*Detector)

// WithRecorder attaches a metrics recorder
func WithRecorder(r Recorder) Option {
	return func(d *Detector) {
		d.recorder = r
	}
}

// WithPublisher attaches an event publisher
func WithPublisher(p Publisher) Option {
	return func(d *Detector) {
		d.publisher = p
	}
}

// NewDetector wires the pipeline from settings and the upload store.
func NewDetector(settings *conf.Settings, store Store, opts ...Option) *Detector {
	d := &Detector{
		gate:       NewGate(settings.Security, settings.Detection),
		persister:  NewPersister(store, settings.Audio),
		classifier: NewClassifier(settings.Classifier),
		log:        GetLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ClassifierMode returns the active classifier mode
func (d *Detector) ClassifierMode() string {
	return d.classifier.Mode()
}

// Detect admits, persists and classifies one upload. Every failure is a
// *Error and returns before any later stage runs.
func (d *Detector) Detect(ctx context.Context, credential string, body io.Reader) (*Outcome, error) {
	start := time.Now()

	req, err := d.gate.Admit(credential, body)
	if err != nil {
		d.reject(ctx, err)
		return nil, err
	}

	audio, err := d.persister.Persist(req)
	if err != nil {
		d.reject(ctx, err)
		return nil, err
	}

	result := d.classifier.Classify(audio.ByteLength)
	outcome := &Outcome{
		Language: req.Language,
		Format:   req.AudioFormat,
		Audio:    *audio,
		Result:   result,
		Took:     time.Since(start),
	}

	d.log.WithContext(ctx).Info("audio classified",
		logger.String("file", audio.FileName),
		logger.String("language", req.Language),
		logger.Int64("bytes", audio.ByteLength),
		logger.String("classification", string(result.Classification)),
		logger.Float64("confidence", result.Confidence),
		logger.Duration("took", outcome.Took))

	if d.recorder != nil {
		d.recorder.RecordClassification(string(result.Classification), audio.ByteLength, outcome.Took)
	}

	if d.publisher != nil {
		d.publisher.PublishClassification(ctx, &Event{
			File:           audio.FileName,
			Language:       req.Language,
			Format:         req.AudioFormat,
			Classification: string(result.Classification),
			Confidence:     result.Confidence,
			Bytes:          audio.ByteLength,
			Timestamp:      time.Now().UTC(),
		})
	}

	return outcome, nil
}

func (d *Detector) reject(ctx context.Context, err error) {
	de, ok := AsError(err)
	if !ok {
		return
	}

	log := d.log.WithContext(ctx)
	switch de.Kind {
	case KindValidation:
		log.Debug("request rejected",
			logger.String("kind", string(de.Kind)),
			logger.String("reason", string(de.Reason)))
	case KindAuth:
		log.Warn("request rejected: invalid api key")
	default:
		log.Error("request failed",
			logger.String("kind", string(de.Kind)),
			logger.Error(de.Err))
	}

	if d.recorder != nil {
		d.recorder.RecordRejection(string(de.Kind), string(de.Reason))
	}
}
