package httputil

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSemaphoreTryAcquire(t *testing.T) {
	sem := NewSemaphore(2)

	if !sem.TryAcquire() {
		t.Error("First TryAcquire should succeed")
	}
	if !sem.TryAcquire() {
		t.Error("Second TryAcquire should succeed")
	}
	if sem.TryAcquire() {
		t.Error("Third TryAcquire should fail (at capacity)")
	}
	if sem.DroppedCount() != 1 {
		t.Errorf("DroppedCount = %d, want 1", sem.DroppedCount())
	}

	sem.Release()
	if !sem.TryAcquire() {
		t.Error("TryAcquire should succeed after Release")
	}
}

func TestSemaphoreAcquire(t *testing.T) {
	sem := NewSemaphore(1)

	if err := sem.Acquire(context.Background()); err != nil {
		t.Fatalf("First Acquire failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := sem.Acquire(ctx); err != context.DeadlineExceeded {
		t.Errorf("Expected DeadlineExceeded, got %v", err)
	}
}

func TestSemaphoreConcurrent(t *testing.T) {
	sem := NewSemaphore(10)
	var acquired atomic.Int32
	var wg sync.WaitGroup

	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sem.TryAcquire() {
				acquired.Add(1)
				time.Sleep(10 * time.Millisecond)
				sem.Release()
			}
		}()
	}
	wg.Wait()

	stats := sem.Stats()
	if stats.InUse != 0 {
		t.Errorf("Expected 0 in use after completion, got %d", stats.InUse)
	}
}

func TestSemaphoreStats(t *testing.T) {
	sem := NewSemaphore(5)

	stats := sem.Stats()
	if stats.Capacity != 5 || stats.Available != 5 || stats.InUse != 0 {
		t.Errorf("fresh semaphore stats = %+v", stats)
	}

	sem.TryAcquire()
	sem.TryAcquire()

	stats = sem.Stats()
	if stats.InUse != 2 {
		t.Errorf("InUse = %d, want 2", stats.InUse)
	}
	if stats.Available != 3 {
		t.Errorf("Available = %d, want 3", stats.Available)
	}
}

func TestNewSemaphoreDefaultCapacity(t *testing.T) {
	sem := NewSemaphore(0)
	if cap(sem.sem) != 100 {
		t.Errorf("Default capacity should be 100, got %d", cap(sem.sem))
	}

	sem = NewSemaphore(-5)
	if cap(sem.sem) != 100 {
		t.Errorf("Negative capacity should default to 100, got %d", cap(sem.sem))
	}
}
