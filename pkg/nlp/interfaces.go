package nlp

import (
	"context"
	"errors"
)

// ============================================================================
// CAPABILITY INTERFACES
// ============================================================================
// The engine consumes two external capabilities: a Classifier for the raw
// label/score pairs and a Thesaurus for synonym lookup. Both are injected so
// the core stays testable offline; the shipped implementations are the Hugot
// ONNX backend, the remote inference backend, the Datamuse client, and the
// static in-memory thesaurus.

// ErrBackendUnavailable is returned by classifier backends that are not
// ready (model missing, endpoint unreachable). Callers degrade to
// NeutralResult rather than propagating it to users.
var ErrBackendUnavailable = errors.New("classifier backend unavailable")

// Classifier produces a raw label/score pair for one dimension of text.
// Implementations must be safe for concurrent use: the gateway issues
// independent dimensions of the same turn in parallel.
type Classifier interface {
	// ClassifyText returns the top label and its score in [0, 1].
	ClassifyText(ctx context.Context, dim Dimension, text string) (label string, score float64, err error)
}

// Thesaurus looks up synonyms for a single word or label.
// Implementations return case-folded synonym sets; a lookup failure must be
// reported as an error, never as an empty set, so the category index can
// distinguish "no synonyms" from "degraded".
type Thesaurus interface {
	Synonyms(ctx context.Context, word string) (map[string]struct{}, error)
}
