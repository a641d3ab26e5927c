package nlp

// hugot_classifier.go - Local text classification using Hugot/ONNX
//
// Runs the sentiment, emotion and toxicity models fully local through ONNX
// Runtime, with a pure Go backend fallback when the runtime library is not
// installed. Each dimension gets its own pipeline over its own model; a
// dimension whose model is missing simply reports unavailable and the
// gateway degrades it to neutral.
//
// Models:
// - sentiment: cardiffnlp/twitter-roberta-base-sentiment-latest
// - emotion:   j-hartmann/emotion-english-distilroberta-base
// - toxicity:  martin-ha/toxic-comment-model
//
// Build:
// - Standard: go build (uses Go backend, slower but no dependencies)
// - With ORT: go build -tags ORT (uses ONNX Runtime, faster)

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/options"
	"github.com/knights-analytics/hugot/pipelines"
)

// Default model names per dimension.
const (
	ModelSentiment = "cardiffnlp/twitter-roberta-base-sentiment-latest"
	ModelEmotion   = "j-hartmann/emotion-english-distilroberta-base"
	ModelToxicity  = "martin-ha/toxic-comment-model"
)

// HugotClassifier runs local ONNX text classification for each dimension.
type HugotClassifier struct {
	session   *hugot.Session
	pipelines map[Dimension]*pipelines.TextClassificationPipeline
	mu        sync.RWMutex
	config    HugotClassifierConfig
	ready     bool
}

// HugotClassifierConfig configures the local classifier backend.
type HugotClassifierConfig struct {
	// ModelPaths maps a dimension to its local ONNX model directory.
	// Missing entries fall back to downloading ModelNames.
	ModelPaths map[Dimension]string

	// ModelNames maps a dimension to a HuggingFace model name used for
	// download when no local path is available.
	ModelNames map[Dimension]string

	// OnnxLibraryPath is the directory containing libonnxruntime.
	// Empty selects the pure Go backend.
	OnnxLibraryPath string

	// UseGPU enables CUDA acceleration if available.
	UseGPU bool

	// DeviceID selects the GPU (default: 0).
	DeviceID int

	// Timeout is the maximum time for a single inference call.
	Timeout time.Duration
}

// DefaultHugotConfig returns the standard three-model configuration with
// models resolved under ./models.
func DefaultHugotConfig() HugotClassifierConfig {
	return HugotClassifierConfig{
		ModelPaths: map[Dimension]string{
			DimensionSentiment: "./models/sentiment",
			DimensionEmotion:   "./models/emotion",
			DimensionToxicity:  "./models/toxicity",
		},
		ModelNames: map[Dimension]string{
			DimensionSentiment: ModelSentiment,
			DimensionEmotion:   ModelEmotion,
			DimensionToxicity:  ModelToxicity,
		},
		OnnxLibraryPath: getDefaultOnnxPath(),
		UseGPU:          false,
		DeviceID:        0,
		Timeout:         30 * time.Second,
	}
}

// getDefaultOnnxPath returns the ONNX Runtime library directory for the
// current platform, or empty if none is installed.
func getDefaultOnnxPath() string {
	paths := []string{
		"/usr/lib/libonnxruntime.so",
		"/usr/local/lib/libonnxruntime.so",
		"/opt/homebrew/lib/libonnxruntime.dylib",
		"/usr/local/lib/libonnxruntime.dylib",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return filepath.Dir(p)
		}
	}
	return ""
}

// NewHugotClassifier creates the local classifier backend. Fails if no
// dimension could be initialized.
func NewHugotClassifier(cfg HugotClassifierConfig) (*HugotClassifier, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	c := &HugotClassifier{
		config:    cfg,
		pipelines: make(map[Dimension]*pipelines.TextClassificationPipeline),
	}

	if err := c.initialize(); err != nil {
		return nil, fmt.Errorf("hugot initialization failed: %w", err)
	}
	return c, nil
}

// NewHugotClassifierWithFallback creates the backend but never fails: on an
// initialization error it returns a not-ready instance whose classifications
// all error, which the gateway turns into neutral results.
func NewHugotClassifierWithFallback(cfg HugotClassifierConfig) *HugotClassifier {
	c, err := NewHugotClassifier(cfg)
	if err != nil {
		log.Printf("[WARN] hugot classifier initialization failed (graceful degradation): %v", err)
		return &HugotClassifier{
			config:    cfg,
			pipelines: make(map[Dimension]*pipelines.TextClassificationPipeline),
			ready:     false,
		}
	}
	return c
}

func (c *HugotClassifier) initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, err := c.createSession()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	c.session = session

	initialized := 0
	for _, dim := range []Dimension{DimensionSentiment, DimensionEmotion, DimensionToxicity} {
		modelPath, err := c.resolveModelPath(dim)
		if err != nil {
			log.Printf("[WARN] %s model unavailable: %v", dim, err)
			continue
		}

		pipeline, err := hugot.NewPipeline(session, hugot.TextClassificationConfig{
			ModelPath: modelPath,
			Name:      fmt.Sprintf("%s-classifier", dim),
		})
		if err != nil {
			log.Printf("[WARN] %s pipeline creation failed: %v", dim, err)
			continue
		}
		c.pipelines[dim] = pipeline
		initialized++
		log.Printf("[INFO] %s classifier ready (model: %s)", dim, modelPath)
	}

	if initialized == 0 {
		_ = c.session.Destroy()
		return fmt.Errorf("no classification models available")
	}

	c.ready = true
	return nil
}

func (c *HugotClassifier) createSession() (*hugot.Session, error) {
	if c.config.OnnxLibraryPath != "" {
		opts := []options.WithOption{
			options.WithOnnxLibraryPath(c.config.OnnxLibraryPath),
		}
		if c.config.UseGPU {
			opts = append(opts, options.WithCuda(map[string]string{
				"device_id": fmt.Sprintf("%d", c.config.DeviceID),
			}))
		}
		session, err := hugot.NewORTSession(opts...)
		if err == nil {
			log.Printf("[INFO] hugot using ONNX Runtime backend (GPU: %v)", c.config.UseGPU)
			return session, nil
		}
		log.Printf("[WARN] ONNX Runtime unavailable, falling back to Go backend: %v", err)
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create Go session: %w", err)
	}
	log.Printf("[INFO] hugot using pure Go backend (slower, consider installing ONNX Runtime)")
	return session, nil
}

func (c *HugotClassifier) resolveModelPath(dim Dimension) (string, error) {
	if p := c.config.ModelPaths[dim]; p != "" {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	name := c.config.ModelNames[dim]
	if name == "" {
		return "", fmt.Errorf("no model path or name for %s", dim)
	}

	modelsDir := "./models"
	if err := os.MkdirAll(modelsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create models directory: %w", err)
	}

	log.Printf("Downloading model %s...", name)
	modelPath, err := hugot.DownloadModel(name, modelsDir, hugot.NewDownloadOptions())
	if err != nil {
		return "", fmt.Errorf("failed to download model: %w", err)
	}
	return modelPath, nil
}

// IsReady reports whether at least one pipeline initialized.
func (c *HugotClassifier) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// ClassifyText runs the pipeline for a dimension and returns the top label
// with its score. The call is bounded by the configured Timeout and the
// caller's context deadline, whichever is sooner.
func (c *HugotClassifier) ClassifyText(ctx context.Context, dim Dimension, text string) (string, float64, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	type pipelineOutput struct {
		label string
		score float64
		err   error
	}
	ch := make(chan pipelineOutput, 1)
	go func() {
		label, score, err := c.runPipeline(dim, text)
		ch <- pipelineOutput{label, score, err}
	}()

	select {
	case out := <-ch:
		return out.label, out.score, out.err
	case <-ctx.Done():
		return "", 0, fmt.Errorf("%s classification: %w", dim, ctx.Err())
	}
}

// runPipeline executes the model call under the read lock. The inference
// itself is not cancelable; a timed-out call finishes in the background and
// its result is discarded.
func (c *HugotClassifier) runPipeline(dim Dimension, text string) (string, float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.ready {
		return "", 0, fmt.Errorf("%s: %w", dim, ErrBackendUnavailable)
	}
	pipeline, ok := c.pipelines[dim]
	if !ok {
		return "", 0, fmt.Errorf("%s model not loaded: %w", dim, ErrBackendUnavailable)
	}

	result, err := pipeline.RunPipeline([]string{text})
	if err != nil {
		return "", 0, fmt.Errorf("%s classification failed: %w", dim, err)
	}
	if len(result.ClassificationOutputs) == 0 || len(result.ClassificationOutputs[0]) == 0 {
		return "", 0, fmt.Errorf("%s classification returned no outputs", dim)
	}

	out := result.ClassificationOutputs[0][0]
	return out.Label, float64(out.Score), nil
}

// Close releases the ONNX session.
func (c *HugotClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ready = false
	if c.session != nil {
		if err := c.session.Destroy(); err != nil {
			return fmt.Errorf("failed to destroy session: %w", err)
		}
	}
	return nil
}

// Stats returns per-pipeline tokenizer and inference statistics.
func (c *HugotClassifier) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.session == nil {
		return nil
	}

	stats := c.session.GetStatistics()
	result := make(map[string]interface{}, len(stats))
	for name, stat := range stats {
		result[name] = map[string]interface{}{
			"onnx_total_time":      stat.OnnxTotalTime.String(),
			"onnx_execution_count": stat.OnnxExecutionCount,
			"total_queries":        stat.TotalQueries,
			"average_latency":      stat.AverageLatency.String(),
		}
	}
	return result
}

var _ Classifier = (*HugotClassifier)(nil)
