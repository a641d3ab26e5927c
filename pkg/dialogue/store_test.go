package dialogue

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryStoreRoundTrip(t *testing.T) {
	store := NewInMemoryStore()
	defer store.Close()
	ctx := context.Background()

	if got, err := store.Get(ctx, "alice"); err != nil || got != nil {
		t.Fatalf("expected no session, got %v, %v", got, err)
	}

	session := newSession("alice", time.Now())
	session.State = StateCheckingIn
	session.Step = 1
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := store.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil || got.State != StateCheckingIn || got.Step != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestInMemoryStoreSaveValidation(t *testing.T) {
	store := NewInMemoryStore()
	defer store.Close()
	ctx := context.Background()

	if err := store.Save(ctx, nil); err == nil {
		t.Error("expected error for nil session")
	}
	if err := store.Save(ctx, &Session{}); err == nil {
		t.Error("expected error for empty user ID")
	}
}

func TestInMemoryStoreExpiry(t *testing.T) {
	store := NewInMemoryStore(WithMaxAge(50 * time.Millisecond))
	defer store.Close()
	ctx := context.Background()

	session := newSession("bob", time.Now().Add(-time.Second))
	session.LastActivity = time.Now().Add(-time.Second)
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if got, _ := store.Get(ctx, "bob"); got != nil {
		t.Error("expected expired session to read as not found")
	}
}

func TestInMemoryStoreSweep(t *testing.T) {
	store := NewInMemoryStore(WithMaxAge(time.Hour))
	defer store.Close()
	ctx := context.Background()

	stale := newSession("stale", time.Now())
	stale.LastActivity = time.Now().Add(-25 * time.Hour)
	_ = store.Save(ctx, stale)

	fresh := newSession("fresh", time.Now())
	_ = store.Save(ctx, fresh)

	removed, err := store.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	stats, _ := store.Stats(ctx)
	if stats.SessionCount != 1 {
		t.Errorf("session count = %d, want 1", stats.SessionCount)
	}
	if got, _ := store.Get(ctx, "fresh"); got == nil {
		t.Error("fresh session must survive the sweep")
	}
}

func TestInMemoryStoreGetReturnsCopy(t *testing.T) {
	store := NewInMemoryStore()
	defer store.Close()
	ctx := context.Background()

	s := newSession("frank", time.Now())
	s.History = []Turn{{ID: "1"}}
	s.Context["topic"] = "work"
	_ = store.Save(ctx, s)

	got, _ := store.Get(ctx, "frank")
	got.State = StateCopingStrategies
	got.History = append(got.History, Turn{ID: "2"})
	got.Context["topic"] = "family"

	stored, _ := store.Get(ctx, "frank")
	if stored.State != StateGreeting {
		t.Errorf("state = %q, mutating a retrieved session must not change the store", stored.State)
	}
	if len(stored.History) != 1 {
		t.Errorf("history length = %d, want 1", len(stored.History))
	}
	if stored.Context["topic"] != "work" {
		t.Errorf("context topic = %q, want %q", stored.Context["topic"], "work")
	}
}

func TestInMemoryStoreSaveStoresCopy(t *testing.T) {
	store := NewInMemoryStore()
	defer store.Close()
	ctx := context.Background()

	s := newSession("grace", time.Now())
	_ = store.Save(ctx, s)

	// Mutations after Save must not leak into the stored snapshot.
	s.Step = 9
	s.History = append(s.History, Turn{ID: "later"})

	stored, _ := store.Get(ctx, "grace")
	if stored.Step != 0 {
		t.Errorf("step = %d, want 0", stored.Step)
	}
	if len(stored.History) != 0 {
		t.Errorf("history length = %d, want 0", len(stored.History))
	}
}

func TestInMemoryStoreDelete(t *testing.T) {
	store := NewInMemoryStore()
	defer store.Close()
	ctx := context.Background()

	_ = store.Save(ctx, newSession("carol", time.Now()))
	if err := store.Delete(ctx, "carol"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if got, _ := store.Get(ctx, "carol"); got != nil {
		t.Error("expected session gone after delete")
	}

	// Deleting again is not an error.
	if err := store.Delete(ctx, "carol"); err != nil {
		t.Errorf("second delete errored: %v", err)
	}
}

func TestInMemoryStoreStats(t *testing.T) {
	store := NewInMemoryStore()
	defer store.Close()
	ctx := context.Background()

	s := newSession("dave", time.Now())
	s.History = []Turn{{ID: "1"}, {ID: "2"}}
	_ = store.Save(ctx, s)
	_ = store.Save(ctx, newSession("erin", time.Now()))

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.SessionCount != 2 {
		t.Errorf("session count = %d, want 2", stats.SessionCount)
	}
	if stats.TotalTurns != 2 {
		t.Errorf("total turns = %d, want 2", stats.TotalTurns)
	}
}
