package nlp

import (
	"context"
	"math/rand"
	"testing"
)

func newTestAggregator() *Aggregator {
	idx := NewCategoryIndex(context.Background(), NewStaticThesaurus(nil), nil)
	return NewAggregator(idx, AggregatorConfig{})
}

func TestScoreEmptyHistory(t *testing.T) {
	a := newTestAggregator()

	got := a.Score(context.Background(), nil, nil)
	if got.Value != 0.0 {
		t.Errorf("value = %v, want 0.0", got.Value)
	}
	if got.Level != RiskLow {
		t.Errorf("level = %q, want low", got.Level)
	}
	if got.Advice != "No history to analyze." {
		t.Errorf("advice = %q", got.Advice)
	}
	if len(got.Recommendations) != 1 || got.Recommendations[0] != "Continue regular check-ins" {
		t.Errorf("recommendations = %v", got.Recommendations)
	}
}

func TestScoreSentimentOnly(t *testing.T) {
	a := newTestAggregator()

	got := a.Score(context.Background(), []string{"negative", "negative", "positive"}, nil)
	if got.SentimentRisk != 0.67 {
		t.Errorf("sentiment_risk = %v, want 0.67", got.SentimentRisk)
	}
	if got.Value != 0.67 {
		t.Errorf("overall = %v, want 0.67", got.Value)
	}
	if got.Level != RiskMedium {
		t.Errorf("level = %q, want medium (unrounded 0.666 <= 0.7)", got.Level)
	}
	if got.EmotionRisk != nil {
		t.Errorf("emotion_risk should be absent, got %v", *got.EmotionRisk)
	}
}

func TestScoreTierOnUnroundedValue(t *testing.T) {
	a := newTestAggregator()

	// 5/7 = 0.714... rounds to 0.71 but the tier check sees 0.714 > 0.7.
	sentiments := []string{
		"negative", "negative", "negative", "negative", "negative",
		"positive", "positive",
	}
	got := a.Score(context.Background(), sentiments, nil)
	if got.Value != 0.71 {
		t.Errorf("value = %v, want 0.71", got.Value)
	}
	if got.Level != RiskHigh {
		t.Errorf("level = %q, want high (tier evaluated before rounding)", got.Level)
	}
}

func TestScoreWithEmotions(t *testing.T) {
	a := newTestAggregator()

	got := a.Score(context.Background(),
		[]string{"negative", "positive"},
		[]string{"sadness", "fear", "joy", "joy"},
	)
	if got.SentimentRisk != 0.5 {
		t.Errorf("sentiment_risk = %v, want 0.5", got.SentimentRisk)
	}
	if got.EmotionRisk == nil {
		t.Fatal("emotion_risk must be present when emotions supplied")
	}
	if *got.EmotionRisk != 0.5 {
		t.Errorf("emotion_risk = %v, want 0.5", *got.EmotionRisk)
	}
	if got.Value != 0.5 {
		t.Errorf("overall = %v, want mean 0.5", got.Value)
	}
	if got.Level != RiskMedium {
		t.Errorf("level = %q, want medium", got.Level)
	}
}

func TestScoreEmptyEmotionsSameAsAbsent(t *testing.T) {
	a := newTestAggregator()

	got := a.Score(context.Background(), []string{"negative"}, []string{})
	if got.EmotionRisk != nil {
		t.Errorf("emotion_risk should be absent for an empty list, got %v", *got.EmotionRisk)
	}
	if got.Value != 1.0 {
		t.Errorf("overall = %v, want sentiment risk alone", got.Value)
	}
}

func TestScoreOrderInvariance(t *testing.T) {
	a := newTestAggregator()

	sentiments := []string{"negative", "positive", "negative", "neutral", "positive"}
	emotions := []string{"sadness", "joy", "fear", "joy"}

	want := a.Score(context.Background(), sentiments, emotions)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		rng.Shuffle(len(sentiments), func(i, j int) {
			sentiments[i], sentiments[j] = sentiments[j], sentiments[i]
		})
		rng.Shuffle(len(emotions), func(i, j int) {
			emotions[i], emotions[j] = emotions[j], emotions[i]
		})
		got := a.Score(context.Background(), sentiments, emotions)
		if got.Value != want.Value || got.Level != want.Level {
			t.Fatalf("order changed the score: %+v vs %+v", got, want)
		}
	}
}

func TestScoreMonotonicInNegativeFraction(t *testing.T) {
	a := newTestAggregator()
	emotions := []string{"sadness", "joy"}

	prev := -1.0
	for negatives := 0; negatives <= 10; negatives++ {
		sentiments := make([]string, 10)
		for i := range sentiments {
			if i < negatives {
				sentiments[i] = "negative"
			} else {
				sentiments[i] = "positive"
			}
		}
		got := a.Score(context.Background(), sentiments, emotions)
		if got.Value < prev {
			t.Fatalf("risk decreased at %d negatives: %v < %v", negatives, got.Value, prev)
		}
		prev = got.Value
	}
}

func TestScoreTierTexts(t *testing.T) {
	a := newTestAggregator()

	tests := []struct {
		name       string
		sentiments []string
		level      RiskLevel
		advice     string
		nRecs      int
	}{
		{
			"high",
			[]string{"negative", "negative", "negative", "negative"},
			RiskHigh, "Immediate attention recommended", 3,
		},
		{
			"medium",
			[]string{"negative", "negative", "positive", "positive"},
			RiskMedium, "Monitor closely and consider intervention", 3,
		},
		{
			"low",
			[]string{"negative", "positive", "positive", "positive"},
			RiskLow, "Continue current support level", 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Score(context.Background(), tt.sentiments, nil)
			if got.Level != tt.level {
				t.Errorf("level = %q, want %q", got.Level, tt.level)
			}
			if got.Advice != tt.advice {
				t.Errorf("advice = %q, want %q", got.Advice, tt.advice)
			}
			if len(got.Recommendations) != tt.nRecs {
				t.Errorf("recommendations = %v, want %d entries", got.Recommendations, tt.nRecs)
			}
		})
	}
}

func TestScoreSynonymAwareCounting(t *testing.T) {
	thes := NewStaticThesaurus(map[string][]string{
		"gloomy": {"sad"},
	})
	idx := NewCategoryIndex(context.Background(), thes, nil)
	a := NewAggregator(idx, AggregatorConfig{})

	got := a.Score(context.Background(), []string{"gloomy", "positive"}, nil)
	if got.SentimentRisk != 0.5 {
		t.Errorf("sentiment_risk = %v, want 0.5 (gloomy matches via synonyms)", got.SentimentRisk)
	}
}
