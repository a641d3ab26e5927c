package nlp

import (
	"context"
	"log"
	"sync"

	"github.com/havenlabs/haven/pkg/keywords"
	"github.com/havenlabs/haven/pkg/telemetry"
)

// CategoryIndex holds the synonym-expanded term sets for the lexical
// categories. Expansion happens once per category at build time; membership
// probes against a category first check the cached expansion literally, then
// fall back to a live lookup of the probe label itself. The two directions
// are intentionally different: base terms are expanded eagerly, probe labels
// lazily, so a classifier label like "fury" matches "anger" when its own
// synonym set intersects the cached expansion.
type CategoryIndex struct {
	mu        sync.RWMutex
	thesaurus Thesaurus
	expanded  map[keywords.Category]map[string]struct{}
	degraded  bool
	tracker   *telemetry.Tracker
}

// NewCategoryIndex expands every registered category through the thesaurus.
// A lookup failure for any base term switches the index into degraded mode:
// membership falls back to literal matching only, and the condition is
// logged once per build rather than per probe.
func NewCategoryIndex(ctx context.Context, thesaurus Thesaurus, tracker *telemetry.Tracker) *CategoryIndex {
	idx := &CategoryIndex{
		thesaurus: thesaurus,
		expanded:  make(map[keywords.Category]map[string]struct{}),
		tracker:   tracker,
	}
	idx.rebuildLocked(ctx)
	return idx
}

// Rebuild re-expands all categories, clearing degraded mode on success.
// Called when the lexicon seed file changes at runtime.
func (idx *CategoryIndex) Rebuild(ctx context.Context) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.rebuildLocked(ctx)
}

func (idx *CategoryIndex) rebuildLocked(ctx context.Context) {
	reg := keywords.Get()
	idx.degraded = false
	for _, cat := range reg.Categories() {
		terms := reg.BaseTerms(cat)
		set := make(map[string]struct{}, len(terms)*4)
		for _, term := range terms {
			set[term] = struct{}{}
			if idx.thesaurus == nil {
				continue
			}
			syns, err := idx.thesaurus.Synonyms(ctx, term)
			if err != nil {
				if !idx.degraded {
					log.Printf("[WARN] synonym expansion failed for %q, falling back to literal matching: %v", term, err)
					idx.tracker.Track(telemetry.EventThesaurusDegraded)
				}
				idx.degraded = true
				continue
			}
			for s := range syns {
				set[s] = struct{}{}
			}
		}
		idx.expanded[cat] = set
	}
}

// Degraded reports whether the index fell back to literal-only matching.
func (idx *CategoryIndex) Degraded() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.degraded
}

// ExpandedTerms returns a copy of the expanded term set for a category.
func (idx *CategoryIndex) ExpandedTerms(cat keywords.Category) map[string]struct{} {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	set := idx.expanded[cat]
	out := make(map[string]struct{}, len(set))
	for s := range set {
		out[s] = struct{}{}
	}
	return out
}

// IsMember reports whether a classifier label belongs to a category.
// The label is case-folded, checked literally against the cached expansion,
// and on a miss its own synonyms are fetched and intersected with the
// expansion. In degraded mode only the literal check runs.
func (idx *CategoryIndex) IsMember(ctx context.Context, cat keywords.Category, label string) bool {
	folded := keywords.Fold(label)

	idx.mu.RLock()
	set, ok := idx.expanded[cat]
	if ok {
		if _, hit := set[folded]; hit {
			idx.mu.RUnlock()
			return true
		}
	}
	degraded := idx.degraded
	idx.mu.RUnlock()

	if !ok || degraded || idx.thesaurus == nil {
		return false
	}

	syns, err := idx.thesaurus.Synonyms(ctx, folded)
	if err != nil {
		log.Printf("[WARN] synonym lookup failed for label %q, using literal match only: %v", label, err)
		idx.tracker.Track(telemetry.EventThesaurusDegraded)
		return false
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	set = idx.expanded[cat]
	for s := range syns {
		if _, hit := set[s]; hit {
			return true
		}
	}
	return false
}
