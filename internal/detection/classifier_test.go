package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/conf"
)

func TestClassifyRuleMode(t *testing.T) {
	t.Parallel()

	c := NewClassifier(conf.ClassifierSettings{Mode: conf.ClassifierModeRule, ThresholdBytes: conf.DefaultThresholdBytes})

	tests := []struct {
		name       string
		bytes      int64
		want       Classification
		confidence float64
		explain    string
	}{
		{"empty", 0, AIGenerated, 0.78, ExplanationSmallFile},
		{"just below threshold", 51199, AIGenerated, 0.78, ExplanationSmallFile},
		{"at threshold", 51200, Human, 0.72, ExplanationHuman},
		{"one mebibyte", 1 << 20, Human, 0.72, ExplanationHuman},
		{"ceiling", conf.DefaultMaxAudioBytes, Human, 0.72, ExplanationHuman},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := c.Classify(tt.bytes)
			assert.Equal(t, tt.want, got.Classification)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
			assert.Equal(t, tt.explain, got.Explanation)
		})
	}
}

func TestClassifyMockMode(t *testing.T) {
	t.Parallel()

	c := NewClassifier(conf.ClassifierSettings{Mode: conf.ClassifierModeMock, ThresholdBytes: conf.DefaultThresholdBytes})
	assert.Equal(t, conf.ClassifierModeMock, c.Mode())

	for _, n := range []int64{0, 51200, 1 << 20} {
		got := c.Classify(n)
		assert.Equal(t, AIGenerated, got.Classification)
		assert.InDelta(t, 0.78, got.Confidence, 1e-9)
	}
}

func TestClassifyCustomThreshold(t *testing.T) {
	t.Parallel()

	c := NewClassifier(conf.ClassifierSettings{Mode: conf.ClassifierModeRule, ThresholdBytes: 10})
	assert.Equal(t, AIGenerated, c.Classify(9).Classification)
	assert.Equal(t, Human, c.Classify(10).Classification)
}

func TestClassifyIsDeterministic(t *testing.T) {
	t.Parallel()

	c := NewClassifier(conf.ClassifierSettings{Mode: conf.ClassifierModeRule, ThresholdBytes: conf.DefaultThresholdBytes})
	for _, n := range []int64{1, 51199, 51200, 999999} {
		assert.Equal(t, c.Classify(n), c.Classify(n))
	}
}
