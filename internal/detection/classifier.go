package detection

import (
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/conf"
)

const (
	aiConfidence    = 0.78
	humanConfidence = 0.72

	ExplanationSmallFile = "The uploaded audio file is unusually small. AI-generated voices often produce compressed audio."
	ExplanationHuman     = "The audio file size and structure are consistent with natural human speech."
)

// Classifier maps a decoded byte length to a verdict. It is a pure function
// of its input and settings.
type Classifier struct {
	mode      string
	threshold int64
}

// NewClassifier creates a Classifier from settings
func NewClassifier(s conf.ClassifierSettings) *Classifier {
	return &Classifier{mode: s.Mode, threshold: s.ThresholdBytes}
}

// Mode returns the configured classifier mode
func (c *Classifier) Mode() string {
	return c.mode
}

// Classify returns the verdict for an upload of byteLength bytes.
// In rule mode files strictly below the threshold are AI_GENERATED.
// Mock mode always answers AI_GENERATED.
func (c *Classifier) Classify(byteLength int64) Result {
	if c.mode == conf.ClassifierModeMock || byteLength < c.threshold {
		return Result{
			Classification: AIGenerated,
			Confidence:     aiConfidence,
			Explanation:    ExplanationSmallFile,
		}
	}

	return Result{
		Classification: Human,
		Confidence:     humanConfidence,
		Explanation:    ExplanationHuman,
	}
}
