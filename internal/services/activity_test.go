package services

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fireRecorder struct {
	mu    sync.Mutex
	fired []uuid.UUID
}

func (r *fireRecorder) fire(userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fired = append(r.fired, userID)
}

func (r *fireRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fired)
}

func (r *fireRecorder) waitFor(t *testing.T, n int, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if r.count() >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d fires, got %d", n, r.count())
}

func TestDebouncerFiresOncePerBurst(t *testing.T) {
	rec := &fireRecorder{}
	d := newDebouncer(30*time.Millisecond, 16, rec.fire)
	defer d.Stop()

	userID := uuid.New()
	for i := 0; i < 5; i++ {
		d.Touch(userID)
		time.Sleep(5 * time.Millisecond)
	}

	rec.waitFor(t, 1, time.Second)
	// settle: no second fire for the same burst
	time.Sleep(60 * time.Millisecond)
	if got := rec.count(); got != 1 {
		t.Fatalf("fires: want=1 got=%d", got)
	}
	if d.pendingCount() != 0 {
		t.Fatalf("pending after fire: want=0 got=%d", d.pendingCount())
	}
}

func TestDebouncerTouchSupersedesPendingTimer(t *testing.T) {
	rec := &fireRecorder{}
	d := newDebouncer(50*time.Millisecond, 16, rec.fire)
	defer d.Stop()

	userID := uuid.New()
	d.Touch(userID)
	time.Sleep(30 * time.Millisecond)
	d.Touch(userID)
	time.Sleep(30 * time.Millisecond)

	// 60ms elapsed but the timer was re-armed at 30ms, so nothing yet
	if got := rec.count(); got != 0 {
		t.Fatalf("fired too early: %d", got)
	}
	rec.waitFor(t, 1, time.Second)
}

func TestDebouncerCapFlushesOldest(t *testing.T) {
	rec := &fireRecorder{}
	d := newDebouncer(time.Minute, 2, rec.fire)
	defer d.Stop()

	first := uuid.New()
	d.Touch(first)
	time.Sleep(time.Millisecond)
	d.Touch(uuid.New())
	d.Touch(uuid.New()) // over cap: first is flushed early

	rec.waitFor(t, 1, time.Second)
	rec.mu.Lock()
	flushed := rec.fired[0]
	rec.mu.Unlock()
	if flushed != first {
		t.Fatalf("flushed user: want=%s got=%s", first, flushed)
	}
	if d.pendingCount() != 2 {
		t.Fatalf("pending: want=2 got=%d", d.pendingCount())
	}
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	rec := &fireRecorder{}
	d := newDebouncer(20*time.Millisecond, 16, rec.fire)

	d.Touch(uuid.New())
	d.Stop()

	time.Sleep(50 * time.Millisecond)
	if got := rec.count(); got != 0 {
		t.Fatalf("fired after stop: %d", got)
	}
	if d.pendingCount() != 0 {
		t.Fatalf("pending after stop: want=0 got=%d", d.pendingCount())
	}
}
