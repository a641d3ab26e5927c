package nlp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/havenlabs/haven/pkg/httputil"
	"github.com/havenlabs/haven/pkg/keywords"
)

// HTTPThesaurus queries a Datamuse-compatible synonyms API.
// One request per word; results are case-folded. The category index caches
// expansions, so this client only sees base terms at startup and previously
// unseen probe labels at runtime.
type HTTPThesaurus struct {
	baseURL    string
	httpClient *http.Client
	sem        *httputil.Semaphore
	maxResults int
}

// HTTPThesaurusConfig configures the thesaurus client.
type HTTPThesaurusConfig struct {
	BaseURL       string        // default: https://api.datamuse.com
	Timeout       time.Duration // default: 5s (uses the shared fast client when unset)
	MaxResults    int           // synonyms requested per word (default: 50)
	MaxConcurrent int           // concurrent lookup bound (default: 16)
}

// NewHTTPThesaurus creates a Datamuse-backed thesaurus client.
func NewHTTPThesaurus(cfg HTTPThesaurusConfig) *HTTPThesaurus {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.datamuse.com"
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 50
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 16
	}

	client := httputil.FastClient()
	if cfg.Timeout > 0 && cfg.Timeout != client.Timeout {
		client = &http.Client{Timeout: cfg.Timeout, Transport: client.Transport}
	}

	return &HTTPThesaurus{
		baseURL:    cfg.BaseURL,
		httpClient: client,
		sem:        httputil.NewSemaphore(cfg.MaxConcurrent),
		maxResults: cfg.MaxResults,
	}
}

// datamuseWord is one entry of the Datamuse /words response.
type datamuseWord struct {
	Word  string `json:"word"`
	Score int    `json:"score"`
}

// Synonyms looks up synonyms for a word. Network or decode failures are
// returned to the caller so the category index can enter degraded mode.
func (t *HTTPThesaurus) Synonyms(ctx context.Context, word string) (map[string]struct{}, error) {
	if err := t.sem.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("thesaurus lookup for %q: %w", word, err)
	}
	defer t.sem.Release()

	endpoint := fmt.Sprintf("%s/words?rel_syn=%s&max=%d", t.baseURL, url.QueryEscape(word), t.maxResults)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("thesaurus request for %q: %w", word, err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("thesaurus lookup for %q: %w", word, err)
	}
	defer httputil.DrainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		body, _ := httputil.ReadErrorBody(resp.Body)
		return nil, fmt.Errorf("thesaurus lookup for %q: status %d: %s", word, resp.StatusCode, string(body))
	}

	data, err := httputil.ReadResponseBody(resp.Body, httputil.MaxResponseSize)
	if err != nil {
		return nil, fmt.Errorf("thesaurus response for %q: %w", word, err)
	}

	var words []datamuseWord
	if err := json.Unmarshal(data, &words); err != nil {
		return nil, fmt.Errorf("thesaurus response for %q: %w", word, err)
	}

	syns := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w.Word != "" {
			syns[keywords.Fold(w.Word)] = struct{}{}
		}
	}
	return syns, nil
}

// StaticThesaurus serves synonyms from an in-memory table. Used in tests and
// in air-gapped deployments where the lookup API is disabled.
type StaticThesaurus struct {
	entries map[string]map[string]struct{}
}

// NewStaticThesaurus builds a static thesaurus from word -> synonyms.
// Keys and values are case-folded on construction.
func NewStaticThesaurus(entries map[string][]string) *StaticThesaurus {
	t := &StaticThesaurus{entries: make(map[string]map[string]struct{}, len(entries))}
	for word, syns := range entries {
		set := make(map[string]struct{}, len(syns))
		for _, s := range syns {
			set[keywords.Fold(s)] = struct{}{}
		}
		t.entries[keywords.Fold(word)] = set
	}
	return t
}

// Synonyms returns the static synonym set for a word. Unknown words yield an
// empty set, not an error: the static table is authoritative.
func (t *StaticThesaurus) Synonyms(_ context.Context, word string) (map[string]struct{}, error) {
	set, ok := t.entries[keywords.Fold(word)]
	if !ok {
		return map[string]struct{}{}, nil
	}
	out := make(map[string]struct{}, len(set))
	for s := range set {
		out[s] = struct{}{}
	}
	return out, nil
}

// Ensure implementations satisfy the capability interface
var (
	_ Thesaurus = (*HTTPThesaurus)(nil)
	_ Thesaurus = (*StaticThesaurus)(nil)
)
