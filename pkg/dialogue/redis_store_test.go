package dialogue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedisStore(context.Background(), RedisStoreConfig{
		Addr:   mr.Addr(),
		MaxAge: time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	if got, err := store.Get(ctx, "alice"); err != nil || got != nil {
		t.Fatalf("expected no session, got %v, %v", got, err)
	}

	session := newSession("alice", time.Now())
	session.State = StateExploringFeelings
	session.Step = 2
	session.History = []Turn{{ID: "t1", UserMessage: "hi", BotReply: "hello"}}
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := store.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.State != StateExploringFeelings || got.Step != 2 {
		t.Errorf("got %+v", got)
	}
	if len(got.History) != 1 || got.History[0].UserMessage != "hi" {
		t.Errorf("history = %+v", got.History)
	}
}

func TestRedisStoreTTL(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, newSession("bob", time.Now())); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	mr.FastForward(2 * time.Hour)
	if got, _ := store.Get(ctx, "bob"); got != nil {
		t.Error("expected session expired after TTL")
	}
}

func TestRedisStoreDelete(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	_ = store.Save(ctx, newSession("carol", time.Now()))
	if err := store.Delete(ctx, "carol"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if got, _ := store.Get(ctx, "carol"); got != nil {
		t.Error("expected session gone after delete")
	}
	if err := store.Delete(ctx, "carol"); err != nil {
		t.Errorf("second delete errored: %v", err)
	}
}

func TestRedisStoreStats(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	_ = store.Save(ctx, newSession("dave", time.Now()))
	_ = store.Save(ctx, newSession("erin", time.Now()))

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.SessionCount != 2 {
		t.Errorf("session count = %d, want 2", stats.SessionCount)
	}
}
