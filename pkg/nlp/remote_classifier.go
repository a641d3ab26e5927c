package nlp

// remote_classifier.go - Hosted inference API classification backend.
// Speaks the HuggingFace Inference API shape: POST {base}/models/<model>
// with {"inputs": "..."} returning ranked label/score pairs.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/havenlabs/haven/pkg/httputil"
)

// RemoteClassifier classifies text against a hosted inference API.
type RemoteClassifier struct {
	apiKey     string
	baseURL    string
	models     map[Dimension]string
	httpClient *http.Client
	mu         sync.Mutex

	// Rate limiting
	lastRequest time.Time
	minInterval time.Duration

	// Stats
	totalCalls   int64
	totalErrors  int64
	totalLatency time.Duration
}

// RemoteClassifierConfig configures the remote backend.
type RemoteClassifierConfig struct {
	APIKey  string               // bearer token (defaults to HAVEN_CLASSIFIER_API_KEY env)
	BaseURL string               // API base URL (defaults to https://api-inference.huggingface.co)
	Models  map[Dimension]string // model per dimension; missing entries use the standard models
	Timeout time.Duration        // per-request timeout (default: the shared 30s client)
}

// NewRemoteClassifier creates a hosted-inference classification backend.
func NewRemoteClassifier(cfg RemoteClassifierConfig) (*RemoteClassifier, error) {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("HAVEN_CLASSIFIER_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("classifier API key not configured (set HAVEN_CLASSIFIER_API_KEY)")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api-inference.huggingface.co"
	}

	models := map[Dimension]string{
		DimensionSentiment: ModelSentiment,
		DimensionEmotion:   ModelEmotion,
		DimensionToxicity:  ModelToxicity,
	}
	for dim, m := range cfg.Models {
		if m != "" {
			models[dim] = m
		}
	}

	client := httputil.MediumClient()
	if cfg.Timeout > 0 && cfg.Timeout != client.Timeout {
		client = &http.Client{Timeout: cfg.Timeout, Transport: client.Transport}
	}

	c := &RemoteClassifier{
		apiKey:      cfg.APIKey,
		baseURL:     cfg.BaseURL,
		models:      models,
		httpClient:  client,
		minInterval: 50 * time.Millisecond, // max 20 req/sec
	}

	log.Printf("[INFO] remote classifier initialized: base=%s", cfg.BaseURL)
	return c, nil
}

// inferenceRequest is the hosted inference API request format.
type inferenceRequest struct {
	Inputs string `json:"inputs"`
}

// inferenceLabel is one label/score pair from the response. Classification
// models return either [[{label,score},...]] or [{label,score},...].
type inferenceLabel struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// ClassifyText sends the text to the model for the given dimension and
// returns the top-ranked label with its score.
func (c *RemoteClassifier) ClassifyText(ctx context.Context, dim Dimension, text string) (string, float64, error) {
	model, ok := c.models[dim]
	if !ok {
		return "", 0, fmt.Errorf("no model configured for %s: %w", dim, ErrBackendUnavailable)
	}

	// Rate limiting
	c.mu.Lock()
	elapsed := time.Since(c.lastRequest)
	if elapsed < c.minInterval {
		time.Sleep(c.minInterval - elapsed)
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()

	start := time.Now()

	reqBytes, err := json.Marshal(inferenceRequest{Inputs: text})
	if err != nil {
		return "", 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/models/"+model, bytes.NewBuffer(reqBytes))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordCall(start, true)
		return "", 0, fmt.Errorf("%s inference request failed: %w", dim, err)
	}
	defer httputil.DrainAndClose(resp.Body)

	body, err := httputil.ReadResponseBody(resp.Body, httputil.MaxResponseSize)
	if err != nil {
		c.recordCall(start, true)
		return "", 0, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.recordCall(start, true)
		return "", 0, fmt.Errorf("%s inference API error (status %d): %s", dim, resp.StatusCode, string(body))
	}

	label, score, err := parseInferenceResponse(body)
	if err != nil {
		c.recordCall(start, true)
		return "", 0, fmt.Errorf("%s inference response: %w", dim, err)
	}

	c.recordCall(start, false)
	return label, score, nil
}

// parseInferenceResponse handles both nested and flat label arrays and
// returns the highest-scoring label.
func parseInferenceResponse(body []byte) (string, float64, error) {
	var nested [][]inferenceLabel
	if err := json.Unmarshal(body, &nested); err == nil && len(nested) > 0 {
		return topLabel(nested[0])
	}

	var flat []inferenceLabel
	if err := json.Unmarshal(body, &flat); err == nil {
		return topLabel(flat)
	}

	return "", 0, fmt.Errorf("unrecognized response shape: %s", string(body))
}

func topLabel(labels []inferenceLabel) (string, float64, error) {
	if len(labels) == 0 {
		return "", 0, fmt.Errorf("no labels returned")
	}
	best := labels[0]
	for _, l := range labels[1:] {
		if l.Score > best.Score {
			best = l
		}
	}
	return best.Label, best.Score, nil
}

func (c *RemoteClassifier) recordCall(start time.Time, failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalCalls++
	if failed {
		c.totalErrors++
	}
	c.totalLatency += time.Since(start)
}

// Stats returns call counters for the stats endpoint.
func (c *RemoteClassifier) Stats() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()

	avgLatency := time.Duration(0)
	if c.totalCalls > 0 {
		avgLatency = c.totalLatency / time.Duration(c.totalCalls)
	}
	return map[string]any{
		"base_url":       c.baseURL,
		"total_calls":    c.totalCalls,
		"total_errors":   c.totalErrors,
		"avg_latency_ms": avgLatency.Milliseconds(),
	}
}

var _ Classifier = (*RemoteClassifier)(nil)
