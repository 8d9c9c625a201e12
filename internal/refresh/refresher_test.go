package refresh

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type recordingTarget struct {
	mu        sync.Mutex
	refreshes int
}

func (t *recordingTarget) RequestRefresh() {
	t.mu.Lock()
	t.refreshes++
	t.mu.Unlock()
}

func (t *recordingTarget) SessionCount() int { return 0 }

func (t *recordingTarget) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.refreshes
}

func waitForRefreshes(t *testing.T, target *recordingTarget, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if target.count() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d refreshes, got %d", want, target.count())
}

func TestNotifyTriggersRefreshAfterDebounce(t *testing.T) {
	target := &recordingTarget{}
	refresher := NewRefresher(target, 20*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go refresher.Start(ctx)

	refresher.Notify()
	waitForRefreshes(t, target, 1)
}

func TestBurstOfNotifiesCoalescesIntoOneRefresh(t *testing.T) {
	target := &recordingTarget{}
	refresher := NewRefresher(target, 50*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go refresher.Start(ctx)

	for i := 0; i < 10; i++ {
		refresher.Notify()
		time.Sleep(2 * time.Millisecond)
	}

	waitForRefreshes(t, target, 1)

	// Nothing else should fire without new writes
	time.Sleep(100 * time.Millisecond)
	if got := target.count(); got != 1 {
		t.Errorf("expected burst to coalesce into 1 refresh, got %d", got)
	}
}

func TestNotifyAfterRefreshStartsNewWindow(t *testing.T) {
	target := &recordingTarget{}
	refresher := NewRefresher(target, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go refresher.Start(ctx)

	refresher.Notify()
	waitForRefreshes(t, target, 1)

	refresher.Notify()
	waitForRefreshes(t, target, 2)
}

func TestStartStopsOnContextCancel(t *testing.T) {
	target := &recordingTarget{}
	refresher := NewRefresher(target, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		refresher.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop on context cancel")
	}
}

func TestNotifyBeforeStartDoesNotBlock(t *testing.T) {
	target := &recordingTarget{}
	refresher := NewRefresher(target, 10*time.Millisecond, zerolog.Nop())

	// Buffered notify channel absorbs writes while no loop is running
	for i := 0; i < 5; i++ {
		refresher.Notify()
	}
}
