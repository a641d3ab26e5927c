package nlp

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/havenlabs/haven/pkg/telemetry"
)

// Gateway fronts a classifier backend with input normalization, length
// capping and a neutral fallback. Callers never see a backend failure as an
// error: a failed dimension degrades to a neutral result so the dialogue
// loop keeps moving.
type Gateway struct {
	classifier    Classifier
	maxTextLength int
	enableTox     bool
	tracker       *telemetry.Tracker
}

// GatewayConfig configures a classification gateway.
type GatewayConfig struct {
	MaxTextLength  int  // rune cap applied before classification (default: 512)
	EnableToxicity bool // include toxicity in ClassifyAll
}

// NewGateway wraps a classifier backend. A nil classifier is allowed and
// yields neutral results for every dimension.
func NewGateway(classifier Classifier, cfg GatewayConfig, tracker *telemetry.Tracker) *Gateway {
	if cfg.MaxTextLength <= 0 {
		cfg.MaxTextLength = 512
	}
	return &Gateway{
		classifier:    classifier,
		maxTextLength: cfg.MaxTextLength,
		enableTox:     cfg.EnableToxicity,
		tracker:       tracker,
	}
}

// Normalize trims whitespace and caps the text at the configured rune count.
func (g *Gateway) Normalize(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) > g.maxTextLength {
		return string(runes[:g.maxTextLength])
	}
	return text
}

// Classify runs one dimension against the backend. Empty input after
// normalization and any backend failure both return the neutral result.
func (g *Gateway) Classify(ctx context.Context, dim Dimension, text string) ClassificationResult {
	if g.classifier == nil {
		return NeutralResult(dim)
	}
	res, err := g.ClassifyStrict(ctx, dim, text)
	if err != nil {
		log.Printf("[WARN] %s classification failed, returning neutral: %v", dim, err)
		g.tracker.Track(telemetry.EventClassifierFailure)
		return NeutralResult(dim)
	}
	return res
}

// ClassifyStrict is Classify without the neutral fallback: backend failures
// are returned to the caller. The distress rules use this to distinguish "no
// match" from "could not classify".
func (g *Gateway) ClassifyStrict(ctx context.Context, dim Dimension, text string) (ClassificationResult, error) {
	text = g.Normalize(text)
	if text == "" {
		return NeutralResult(dim), nil
	}
	if g.classifier == nil {
		return NeutralResult(dim), ErrBackendUnavailable
	}

	label, score, err := g.classifier.ClassifyText(ctx, dim, text)
	if err != nil {
		return NeutralResult(dim), err
	}

	return ClassificationResult{
		Dimension:  dim,
		Label:      strings.ToLower(label),
		Score:      score,
		Confidence: BucketConfidence(score),
	}, nil
}

// Analysis bundles the per-dimension results for one piece of text.
type Analysis struct {
	Sentiment ClassificationResult `json:"sentiment"`
	Emotion   ClassificationResult `json:"emotion"`
	Toxicity  *ToxicityResult      `json:"toxicity,omitempty"`
}

// ClassifyAll runs sentiment and emotion concurrently, plus toxicity when
// enabled. Each dimension degrades independently.
func (g *Gateway) ClassifyAll(ctx context.Context, text string) Analysis {
	var analysis Analysis
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		analysis.Sentiment = g.Classify(ctx, DimensionSentiment, text)
	}()
	go func() {
		defer wg.Done()
		analysis.Emotion = g.Classify(ctx, DimensionEmotion, text)
	}()

	if g.enableTox {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tox := g.AnalyzeToxicity(ctx, text)
			analysis.Toxicity = &tox
		}()
	}

	wg.Wait()
	return analysis
}

// AnalyzeToxicity scores the text for toxic content. The backend is expected
// to return the probability of the toxic class; labels that name the
// non-toxic class are inverted. Failures report safe so a broken toxicity
// model never blocks the conversation.
func (g *Gateway) AnalyzeToxicity(ctx context.Context, text string) ToxicityResult {
	text = g.Normalize(text)
	if text == "" || g.classifier == nil {
		return ToxicityResult{Toxic: 0.0, Level: "low", Safe: true}
	}

	label, score, err := g.classifier.ClassifyText(ctx, DimensionToxicity, text)
	if err != nil {
		log.Printf("[WARN] toxicity classification failed, reporting safe: %v", err)
		g.tracker.Track(telemetry.EventClassifierFailure)
		return ToxicityResult{Toxic: 0.0, Level: "low", Safe: true}
	}

	prob := score
	switch strings.ToLower(label) {
	case "non-toxic", "not_toxic", "neutral", "non_toxic":
		prob = 1.0 - score
	}

	level := "low"
	switch {
	case prob > 0.7:
		level = "high"
	case prob > 0.4:
		level = "medium"
	}

	return ToxicityResult{
		Toxic: round2(prob),
		Level: level,
		Safe:  prob < 0.3,
	}
}
