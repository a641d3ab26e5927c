// Package telemetry provides lightweight in-process event counters for the
// Haven engine. Events are aggregated in memory and exposed via Snapshot;
// there is no external sink.
package telemetry

import "sync"

// Tracker counts named engine events (crisis escalations, degraded thesaurus
// lookups, classifier failures). Safe for concurrent use.
type Tracker struct {
	mu     sync.RWMutex
	counts map[string]int64
}

// NewTracker creates an empty event tracker.
func NewTracker() *Tracker {
	return &Tracker{counts: make(map[string]int64)}
}

// Track increments the counter for an event. Nil trackers are no-ops so
// components can hold an optional *Tracker without guarding every call.
func (t *Tracker) Track(event string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.counts[event]++
	t.mu.Unlock()
}

// TrackN adds n to the counter for an event. Non-positive n is a no-op.
func (t *Tracker) TrackN(event string, n int64) {
	if t == nil || n <= 0 {
		return
	}
	t.mu.Lock()
	t.counts[event] += n
	t.mu.Unlock()
}

// Count returns the current count for an event.
func (t *Tracker) Count(event string) int64 {
	if t == nil {
		return 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.counts[event]
}

// Snapshot returns a copy of all counters.
func (t *Tracker) Snapshot() map[string]int64 {
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]int64, len(t.counts))
	for k, v := range t.counts {
		out[k] = v
	}
	return out
}

// Well-known event names.
const (
	EventCrisisEscalation  = "crisis_escalation"
	EventThesaurusDegraded = "thesaurus_degraded"
	EventClassifierFailure = "classifier_failure"
	EventSessionSwept      = "session_swept"
	EventTurnProcessed     = "turn_processed"
)
