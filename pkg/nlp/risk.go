package nlp

import (
	"context"

	"github.com/havenlabs/haven/pkg/keywords"
)

// Aggregator turns a history of sentiment/emotion labels into a bounded risk
// score with tiered advice. Pure with respect to session state; every call
// recomputes from the supplied label sequences.
type Aggregator struct {
	index *CategoryIndex

	highThreshold   float64
	mediumThreshold float64
}

// AggregatorConfig configures the risk tier thresholds.
type AggregatorConfig struct {
	HighThreshold   float64 // default: 0.7
	MediumThreshold float64 // default: 0.4
}

// NewAggregator creates a risk aggregator over the given category index.
func NewAggregator(index *CategoryIndex, cfg AggregatorConfig) *Aggregator {
	if cfg.HighThreshold <= 0 {
		cfg.HighThreshold = 0.7
	}
	if cfg.MediumThreshold <= 0 {
		cfg.MediumThreshold = 0.4
	}
	return &Aggregator{
		index:           index,
		highThreshold:   cfg.HighThreshold,
		mediumThreshold: cfg.MediumThreshold,
	}
}

// Score computes the risk for a label history. An empty emotions sequence
// counts as not supplied: the overall score is the sentiment ratio alone and
// emotion_risk is absent from the result.
func (a *Aggregator) Score(ctx context.Context, sentiments []string, emotions []string) RiskScore {
	if len(sentiments) == 0 && len(emotions) == 0 {
		return RiskScore{
			Value:           0.0,
			Level:           RiskLow,
			Advice:          "No history to analyze.",
			Recommendations: []string{"Continue regular check-ins"},
		}
	}

	sentimentRisk := a.ratio(ctx, keywords.CategoryNegativeSentiment, sentiments)

	var emotionRisk *float64
	overall := sentimentRisk
	if len(emotions) > 0 {
		r := a.ratio(ctx, keywords.CategorySevereEmotion, emotions)
		emotionRisk = &r
		overall = (sentimentRisk + r) / 2
	}

	// Tiers evaluate the unrounded value; rounding is presentation only.
	var level RiskLevel
	var advice string
	var recs []string
	switch {
	case overall > a.highThreshold:
		level = RiskHigh
		advice = "Immediate attention recommended"
		recs = []string{
			"Consider professional mental health support",
			"Increase monitoring frequency",
			"Implement immediate coping strategies",
		}
	case overall > a.mediumThreshold:
		level = RiskMedium
		advice = "Monitor closely and consider intervention"
		recs = []string{
			"Schedule regular check-ins",
			"Practice stress management techniques",
			"Consider talking to a counselor",
		}
	default:
		level = RiskLow
		advice = "Continue current support level"
		recs = []string{
			"Maintain regular check-ins",
			"Continue current coping strategies",
		}
	}

	score := RiskScore{
		Value:           round2(overall),
		Level:           level,
		Advice:          advice,
		Recommendations: recs,
	}
	score.SentimentRisk = round2(sentimentRisk)
	if emotionRisk != nil {
		er := round2(*emotionRisk)
		score.EmotionRisk = &er
	}
	return score
}

// ratio counts category-matching labels over the sequence length.
func (a *Aggregator) ratio(ctx context.Context, cat keywords.Category, labels []string) float64 {
	if len(labels) == 0 {
		return 0.0
	}
	matched := 0
	for _, label := range labels {
		if a.index.IsMember(ctx, cat, label) {
			matched++
		}
	}
	return float64(matched) / float64(len(labels))
}
