package nlp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"
)

// crisisPhrase is one seed expression of acute crisis with a severity weight.
type crisisPhrase struct {
	Text     string
	Severity float32
}

// CrisisMatcher finds paraphrased crisis statements by embedding similarity.
// It supplements the literal urgent-phrase scan: "I see no reason to keep
// going" carries none of the seed keywords but sits close to them in
// embedding space. Disabled by default; the literal scan alone preserves the
// base detection behavior.
type CrisisMatcher struct {
	db         *chromem.DB
	collection *chromem.Collection
	threshold  float32
	mu         sync.RWMutex
	ready      bool
}

// CrisisMatch is the best similarity hit for a query.
type CrisisMatch struct {
	Score       float32
	MatchedText string
	IsCrisis    bool
}

// NewCrisisMatcher creates a matcher backed by the given embedding function.
// Callers typically pass chromem.NewEmbeddingFuncOllama for local embeddings
// or chromem.NewEmbeddingFuncDefault for hosted ones.
func NewCrisisMatcher(embeddingFunc chromem.EmbeddingFunc) (*CrisisMatcher, error) {
	if embeddingFunc == nil {
		return nil, fmt.Errorf("embedding function is nil")
	}

	db := chromem.NewDB()
	collection, err := db.CreateCollection("crisis_phrases", nil, embeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	return &CrisisMatcher{
		db:         db,
		collection: collection,
		threshold:  0.75,
	}, nil
}

// LoadPhrases embeds the crisis phrase corpus into the vector store.
func (cm *CrisisMatcher) LoadPhrases(ctx context.Context) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	phrases := crisisPhraseCorpus()
	docs := make([]chromem.Document, len(phrases))
	for i, p := range phrases {
		docs[i] = chromem.Document{
			ID:      fmt.Sprintf("crisis_%d", i),
			Content: p.Text,
			Metadata: map[string]string{
				"severity": fmt.Sprintf("%.2f", p.Severity),
			},
		}
	}

	if err := cm.collection.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("failed to add crisis phrases: %w", err)
	}

	cm.ready = true
	return nil
}

// IsReady reports whether the phrase corpus has been loaded.
func (cm *CrisisMatcher) IsReady() bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.ready
}

// SetThreshold updates the similarity threshold.
func (cm *CrisisMatcher) SetThreshold(t float32) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.threshold = t
}

// Match queries the phrase corpus for the closest crisis expression.
func (cm *CrisisMatcher) Match(ctx context.Context, text string) (*CrisisMatch, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if !cm.ready {
		return nil, fmt.Errorf("crisis matcher not initialized, call LoadPhrases first")
	}

	results, err := cm.collection.Query(ctx, strings.ToLower(text), 1, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("crisis query failed: %w", err)
	}
	if len(results) == 0 {
		return &CrisisMatch{Score: 0, IsCrisis: false}, nil
	}

	best := results[0]
	return &CrisisMatch{
		Score:       best.Similarity,
		MatchedText: best.Content,
		IsCrisis:    best.Similarity >= cm.threshold,
	}, nil
}

var (
	cachedCrisisPhrases     []crisisPhrase
	cachedCrisisPhrasesOnce sync.Once
)

// crisisPhraseCorpus returns the seed corpus of crisis expressions. Built
// once and reused; the slice is treated as immutable after initialization.
func crisisPhraseCorpus() []crisisPhrase {
	cachedCrisisPhrasesOnce.Do(func() {
		cachedCrisisPhrases = []crisisPhrase{
			{"I want to end my life", 1.0},
			{"I am going to kill myself", 1.0},
			{"I don't want to be alive anymore", 1.0},
			{"I wish I was dead", 0.95},
			{"Everyone would be better off without me", 0.95},
			{"I see no reason to keep going", 0.9},
			{"There is no point in living", 0.95},
			{"I have been thinking about ending things", 0.95},
			{"I can't take this anymore, I want out", 0.9},
			{"I keep hurting myself on purpose", 0.95},
			{"I have a plan to end it", 1.0},
			{"Nothing matters anymore and I want it to stop", 0.85},
			{"I feel like disappearing forever", 0.85},
			{"I am a burden to everyone around me", 0.8},
		}
	})
	return cachedCrisisPhrases
}

// PhraseCount returns the number of seed crisis phrases.
func (cm *CrisisMatcher) PhraseCount() int {
	return len(crisisPhraseCorpus())
}
