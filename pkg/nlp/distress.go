package nlp

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/havenlabs/haven/pkg/keywords"
	"github.com/havenlabs/haven/pkg/telemetry"
)

// Fixed recommendation strings attached to every distress result.
const (
	RecommendationUrgent  = "Seek immediate help"
	RecommendationMonitor = "Continue monitoring"
)

// Detector evaluates a message for acute distress. Rules run in strict
// order and the first match wins:
//  1. urgent-phrase substring scan over the case-folded text
//  2. high-confidence negative sentiment (score > threshold)
//  3. high-confidence severe emotion (score > threshold)
//
// A classifier failure in 2 or 3 is a non-match, not an abort; the error
// surfaces in the reason only when nothing fired.
type Detector struct {
	gateway *Gateway
	index   *CategoryIndex
	matcher *CrisisMatcher // optional, nil unless semantic matching is enabled
	tracker *telemetry.Tracker

	sentimentThreshold float64
	emotionThreshold   float64
}

// DetectorConfig configures the distress rule thresholds.
type DetectorConfig struct {
	SentimentUrgentThreshold float64 // default: 0.90
	EmotionUrgentThreshold   float64 // default: 0.85
}

// NewDetector creates a distress detector. The crisis matcher may be nil.
func NewDetector(gateway *Gateway, index *CategoryIndex, matcher *CrisisMatcher, cfg DetectorConfig, tracker *telemetry.Tracker) *Detector {
	if cfg.SentimentUrgentThreshold <= 0 {
		cfg.SentimentUrgentThreshold = 0.90
	}
	if cfg.EmotionUrgentThreshold <= 0 {
		cfg.EmotionUrgentThreshold = 0.85
	}
	return &Detector{
		gateway:            gateway,
		index:              index,
		matcher:            matcher,
		tracker:            tracker,
		sentimentThreshold: cfg.SentimentUrgentThreshold,
		emotionThreshold:   cfg.EmotionUrgentThreshold,
	}
}

// Detect runs the distress rules over one message.
func (d *Detector) Detect(ctx context.Context, text string) DistressResult {
	folded := keywords.Fold(text)

	// Rule 1: urgent phrase scan, declaration order, first hit authoritative.
	for _, phrase := range keywords.Get().UrgentPhrases() {
		if strings.Contains(folded, phrase) {
			return DistressResult{
				IsUrgent:       true,
				Reason:         fmt.Sprintf("Detected urgent keyword: '%s'", phrase),
				Confidence:     0.9,
				Recommendation: RecommendationUrgent,
			}
		}
	}

	// Rule 1b: paraphrase similarity, only when a matcher is wired in.
	if d.matcher != nil && d.matcher.IsReady() {
		match, err := d.matcher.Match(ctx, text)
		if err != nil {
			log.Printf("[WARN] crisis similarity match failed: %v", err)
		} else if match.IsCrisis {
			return DistressResult{
				IsUrgent:       true,
				Reason:         fmt.Sprintf("Detected crisis expression similar to: '%s'", match.MatchedText),
				Confidence:     float64(match.Score),
				Recommendation: RecommendationUrgent,
			}
		}
	}

	var classifierErr error

	// Rule 2: negative sentiment above threshold.
	sentiment, err := d.gateway.ClassifyStrict(ctx, DimensionSentiment, text)
	if err != nil {
		classifierErr = err
	} else if (sentiment.Label == "negative" || sentiment.Label == "neg") && sentiment.Score > d.sentimentThreshold {
		return DistressResult{
			IsUrgent:       true,
			Reason:         fmt.Sprintf("Very negative sentiment detected (score: %.2f)", sentiment.Score),
			Confidence:     sentiment.Score,
			Recommendation: RecommendationUrgent,
		}
	}

	// Rule 3: severe emotion above threshold, synonym-aware membership.
	emotion, err := d.gateway.ClassifyStrict(ctx, DimensionEmotion, text)
	if err != nil {
		if classifierErr == nil {
			classifierErr = err
		}
	} else if emotion.Score > d.emotionThreshold && d.index.IsMember(ctx, keywords.CategorySevereEmotion, emotion.Label) {
		return DistressResult{
			IsUrgent:       true,
			Reason:         fmt.Sprintf("Strong negative emotion detected: %s (score: %.2f)", emotion.Label, emotion.Score),
			Confidence:     emotion.Score,
			Recommendation: RecommendationUrgent,
		}
	}

	reason := "No urgent distress detected."
	if classifierErr != nil {
		d.tracker.Track(telemetry.EventClassifierFailure)
		reason = fmt.Sprintf("No urgent distress detected (classification degraded: %v).", classifierErr)
	}
	return DistressResult{
		IsUrgent:       false,
		Reason:         reason,
		Confidence:     0.1,
		Recommendation: RecommendationMonitor,
	}
}
