package telemetry

import (
	"sync"
	"testing"
)

func TestTrackAndCount(t *testing.T) {
	tr := NewTracker()

	if got := tr.Count(EventCrisisEscalation); got != 0 {
		t.Fatalf("expected zero count before tracking, got %d", got)
	}

	tr.Track(EventCrisisEscalation)
	tr.Track(EventCrisisEscalation)
	tr.Track(EventTurnProcessed)

	if got := tr.Count(EventCrisisEscalation); got != 2 {
		t.Errorf("expected 2 crisis escalations, got %d", got)
	}
	if got := tr.Count(EventTurnProcessed); got != 1 {
		t.Errorf("expected 1 processed turn, got %d", got)
	}
}

func TestTrackN(t *testing.T) {
	tr := NewTracker()

	tr.TrackN(EventSessionSwept, 3)
	tr.TrackN(EventSessionSwept, 0)
	tr.TrackN(EventSessionSwept, -2)

	if got := tr.Count(EventSessionSwept); got != 3 {
		t.Errorf("expected 3 swept sessions, got %d", got)
	}
}

func TestNilTrackerIsNoop(t *testing.T) {
	var tr *Tracker

	tr.Track(EventClassifierFailure)

	if got := tr.Count(EventClassifierFailure); got != 0 {
		t.Errorf("nil tracker count = %d, want 0", got)
	}
	if snap := tr.Snapshot(); snap != nil {
		t.Errorf("nil tracker snapshot = %v, want nil", snap)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	tr := NewTracker()
	tr.Track(EventSessionSwept)

	snap := tr.Snapshot()
	snap[EventSessionSwept] = 100

	if got := tr.Count(EventSessionSwept); got != 1 {
		t.Errorf("mutating a snapshot changed the tracker: count = %d, want 1", got)
	}
}

func TestConcurrentTracking(t *testing.T) {
	tr := NewTracker()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Track(EventThesaurusDegraded)
		}()
	}
	wg.Wait()

	if got := tr.Count(EventThesaurusDegraded); got != 50 {
		t.Errorf("expected 50 events after concurrent tracking, got %d", got)
	}
}
