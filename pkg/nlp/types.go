package nlp

import "math"

// Dimension is one axis of text classification.
type Dimension string

const (
	DimensionSentiment Dimension = "sentiment"
	DimensionEmotion   Dimension = "emotion"
	DimensionToxicity  Dimension = "toxicity"
)

// Confidence is the coarse discretization of a raw classifier score.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// BucketConfidence derives the confidence bucket from a raw score.
// score > 0.8 -> high, score > 0.6 -> medium, else low.
func BucketConfidence(score float64) Confidence {
	switch {
	case score > 0.8:
		return ConfidenceHigh
	case score > 0.6:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// ClassificationResult is the normalized output of one classifier call.
// Produced fresh per call; never cached.
type ClassificationResult struct {
	Dimension  Dimension  `json:"dimension"`
	Label      string     `json:"label"`
	Score      float64    `json:"score"` // 0.0 - 1.0
	Confidence Confidence `json:"confidence"`
}

// NeutralResult is the safe default substituted when a classifier backend
// fails, so downstream state-machine and distress logic always receive a
// well-formed result.
func NeutralResult(dim Dimension) ClassificationResult {
	return ClassificationResult{
		Dimension:  dim,
		Label:      "neutral",
		Score:      0.5,
		Confidence: ConfidenceLow,
	}
}

// DistressResult is the outcome of urgent-distress detection for one message.
// Reason records which rule fired (keyword, sentiment threshold, or emotion
// threshold) for auditability.
type DistressResult struct {
	IsUrgent       bool    `json:"is_urgent"`
	Reason         string  `json:"reason"`
	Confidence     float64 `json:"confidence"` // 0.0 - 1.0
	Recommendation string  `json:"recommendation"`
}

// RiskLevel tiers an overall risk score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskScore is the aggregation of a user's historical classification labels
// into a bounded risk value with tiered advice. Pure output value; holds no
// identity and is recomputed per request.
type RiskScore struct {
	Value           float64   `json:"risk_score"` // rounded to 2 decimals
	Level           RiskLevel `json:"level"`
	Advice          string    `json:"advice"`
	Recommendations []string  `json:"recommendations"`
	SentimentRisk   float64   `json:"sentiment_risk"`
	EmotionRisk     *float64  `json:"emotion_risk,omitempty"` // absent when no emotions supplied
}

// ToxicityResult is the outcome of toxicity analysis for one message.
type ToxicityResult struct {
	Toxic float64 `json:"toxic"` // probability, 0.0 - 1.0
	Level string  `json:"level"` // high > 0.7, medium > 0.4, else low
	Safe  bool    `json:"safe"`  // true when probability < 0.3
}

// round2 rounds to two decimals at the presentation boundary only; tier
// thresholds are always evaluated on the unrounded value.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
