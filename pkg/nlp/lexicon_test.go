package nlp

import (
	"context"
	"errors"
	"testing"

	"github.com/havenlabs/haven/pkg/keywords"
)

// failingThesaurus errors on every lookup.
type failingThesaurus struct{}

func (failingThesaurus) Synonyms(context.Context, string) (map[string]struct{}, error) {
	return nil, errors.New("lookup unavailable")
}

func TestCategoryIndexLiteralMembership(t *testing.T) {
	idx := NewCategoryIndex(context.Background(), NewStaticThesaurus(nil), nil)

	if !idx.IsMember(context.Background(), keywords.CategorySevereEmotion, "sadness") {
		t.Error("expected literal base term to be a member")
	}
	if !idx.IsMember(context.Background(), keywords.CategorySevereEmotion, "SADNESS") {
		t.Error("expected membership to be case-insensitive")
	}
	if idx.IsMember(context.Background(), keywords.CategorySevereEmotion, "joy") {
		t.Error("joy must not be a severe emotion")
	}
}

func TestCategoryIndexExpandsBaseTerms(t *testing.T) {
	thes := NewStaticThesaurus(map[string][]string{
		"anger": {"wrath", "ire"},
	})
	idx := NewCategoryIndex(context.Background(), thes, nil)

	if !idx.IsMember(context.Background(), keywords.CategorySevereEmotion, "wrath") {
		t.Error("expected expanded synonym of a base term to be a member")
	}
}

func TestCategoryIndexProbeLookup(t *testing.T) {
	// "fury" is not in the expansion, but its own synonyms intersect it.
	thes := NewStaticThesaurus(map[string][]string{
		"fury": {"anger", "rage"},
	})
	idx := NewCategoryIndex(context.Background(), thes, nil)

	if !idx.IsMember(context.Background(), keywords.CategorySevereEmotion, "fury") {
		t.Error("expected probe-side synonym lookup to find membership")
	}
}

func TestCategoryIndexMembershipAsymmetry(t *testing.T) {
	// "gloomy" reaches "sad" only through its own synonyms; "sad" never
	// expands toward "gloomy". Probe-side lookup is the only live one.
	thes := NewStaticThesaurus(map[string][]string{
		"gloomy": {"sad"},
	})
	idx := NewCategoryIndex(context.Background(), thes, nil)

	if !idx.IsMember(context.Background(), keywords.CategoryNegativeSentiment, "gloomy") {
		t.Error("expected gloomy to match via its own synonyms")
	}
	if idx.IsMember(context.Background(), keywords.CategorySevereEmotion, "gloomy") {
		t.Error("gloomy's synonyms do not intersect severe emotions")
	}
}

func TestCategoryIndexDegradedFallsBackToLiteral(t *testing.T) {
	idx := NewCategoryIndex(context.Background(), failingThesaurus{}, nil)

	if !idx.Degraded() {
		t.Fatal("expected degraded mode after expansion failures")
	}
	if !idx.IsMember(context.Background(), keywords.CategorySevereEmotion, "fear") {
		t.Error("literal matching must still work in degraded mode")
	}
	if idx.IsMember(context.Background(), keywords.CategorySevereEmotion, "fury") {
		t.Error("no live lookups in degraded mode")
	}
}

func TestCategoryIndexNilThesaurus(t *testing.T) {
	idx := NewCategoryIndex(context.Background(), nil, nil)

	if idx.Degraded() {
		t.Error("nil thesaurus is literal-only, not degraded")
	}
	if !idx.IsMember(context.Background(), keywords.CategoryNegativeSentiment, "negative") {
		t.Error("base terms must match without a thesaurus")
	}
}

func TestCategoryIndexExpandedTermsCopies(t *testing.T) {
	idx := NewCategoryIndex(context.Background(), NewStaticThesaurus(nil), nil)

	terms := idx.ExpandedTerms(keywords.CategorySevereEmotion)
	delete(terms, "sadness")
	if !idx.IsMember(context.Background(), keywords.CategorySevereEmotion, "sadness") {
		t.Error("mutating a returned copy must not affect the index")
	}
}
