package nlp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/knights-analytics/hugot/pipelines"
)

// A not-ready instance must report unavailable through the timeout-bounded
// call path, not hang or panic.
func TestHugotClassifyNotReady(t *testing.T) {
	c := &HugotClassifier{
		config:    HugotClassifierConfig{Timeout: time.Second},
		pipelines: make(map[Dimension]*pipelines.TextClassificationPipeline),
	}

	_, _, err := c.ClassifyText(context.Background(), DimensionSentiment, "hello")
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("err = %v, want ErrBackendUnavailable", err)
	}
}

func TestDefaultHugotConfig(t *testing.T) {
	cfg := DefaultHugotConfig()

	for _, dim := range []Dimension{DimensionSentiment, DimensionEmotion, DimensionToxicity} {
		if cfg.ModelPaths[dim] == "" {
			t.Errorf("no model path for %s", dim)
		}
		if cfg.ModelNames[dim] == "" {
			t.Errorf("no model name for %s", dim)
		}
	}
	if cfg.Timeout <= 0 {
		t.Errorf("timeout = %v, want a positive default", cfg.Timeout)
	}
}
