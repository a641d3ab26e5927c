// Package keywords provides a centralized registry of the base lexicons used
// for risk assessment: canonical semantic categories (negative sentiment,
// severe emotion) and the ordered urgent-phrase list for crisis detection.
//
// Design principles:
// - BUILD ONCE: lexicons assembled at package init, not per-request
// - DRY: single source of truth shared by distress detection and risk scoring
// - EXTENSIBLE: categories and phrases can be overridden from a YAML seed file
package keywords

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

// Category names a canonical semantic bucket.
type Category string

const (
	CategoryNegativeSentiment Category = "negative_sentiment"
	CategorySevereEmotion     Category = "severe_emotion"
)

// folder performs Unicode case folding; ASCII lowercasing misses labels
// coming back from multilingual classifier checkpoints.
var folder = cases.Fold()

// Fold case-folds a term the same way every lexicon consumer does.
func Fold(s string) string {
	return folder.String(s)
}

// Registry holds the base lexicons, organized by category, plus the ordered
// urgent-phrase list.
type Registry struct {
	mu         sync.RWMutex
	byCategory map[Category][]string
	urgent     []string
}

// global singleton - initialized once at package load
var (
	globalRegistry *Registry
	initOnce       sync.Once
)

// Get returns the global lexicon registry (singleton).
// Thread-safe and guaranteed to be initialized.
func Get() *Registry {
	initOnce.Do(func() {
		globalRegistry = newRegistry()
	})
	return globalRegistry
}

func newRegistry() *Registry {
	r := &Registry{
		byCategory: make(map[Category][]string),
	}
	r.registerNegativeSentiment()
	r.registerSevereEmotion()
	r.registerUrgentPhrases()
	return r
}

// register adds case-folded base terms to a category (internal use only).
func (r *Registry) register(cat Category, terms ...string) {
	for _, t := range terms {
		r.byCategory[cat] = append(r.byCategory[cat], Fold(t))
	}
}

// BaseTerms returns the base terms for a category.
// Returns an empty slice if the category is unknown (never nil).
func (r *Registry) BaseTerms(cat Category) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	terms := r.byCategory[cat]
	out := make([]string, len(terms))
	copy(out, terms)
	return out
}

// UrgentPhrases returns the ordered urgent-phrase list.
func (r *Registry) UrgentPhrases() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.urgent))
	copy(out, r.urgent)
	return out
}

// SetUrgentPhrases replaces the urgent-phrase list, preserving the given
// order. Used when the deployment overrides the defaults via config.
func (r *Registry) SetUrgentPhrases(phrases []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.urgent = make([]string, 0, len(phrases))
	for _, p := range phrases {
		r.urgent = append(r.urgent, Fold(p))
	}
}

// Categories returns all registered category names.
func (r *Registry) Categories() []Category {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cats := make([]Category, 0, len(r.byCategory))
	for cat := range r.byCategory {
		cats = append(cats, cat)
	}
	return cats
}

// seedFile is the YAML shape for lexicon overrides.
type seedFile struct {
	Categories map[string][]string `yaml:"categories"`
	Urgent     []string            `yaml:"urgent_phrases"`
}

// LoadSeedFile merges a YAML seed file into the registry. Category entries
// are appended to the existing base terms; a non-empty urgent_phrases list
// replaces the default list wholesale (order in the file is scan order).
func (r *Registry) LoadSeedFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed file %s: %w", path, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for name, terms := range seed.Categories {
		cat := Category(name)
		for _, t := range terms {
			r.byCategory[cat] = append(r.byCategory[cat], Fold(t))
		}
	}
	if len(seed.Urgent) > 0 {
		r.urgent = r.urgent[:0]
		for _, p := range seed.Urgent {
			r.urgent = append(r.urgent, Fold(p))
		}
	}
	return nil
}
