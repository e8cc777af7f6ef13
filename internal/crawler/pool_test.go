package crawler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPool(t *testing.T) {
	t.Parallel()

	t.Run("runs every submitted task", func(t *testing.T) {
		t.Parallel()

		var ran atomic.Int32
		p := newWorkerPool(context.Background(), 3, func(context.Context, Task) {
			ran.Add(1)
		})
		for range 20 {
			if !p.submit(Task{URL: "http://a.test/"}) {
				t.Fatal("submit() returned false on open pool")
			}
		}

		// Wait for the queue to empty before shutting down.
		deadline := time.Now().Add(5 * time.Second)
		for ran.Load() < 20 && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
		if drained := p.shutdown(); len(drained) != 0 {
			t.Errorf("expected empty drain, got %d", len(drained))
		}
		p.wait()

		if got := ran.Load(); got != 20 {
			t.Errorf("ran %d tasks, want 20", got)
		}
	})

	t.Run("shutdown drains unstarted tasks", func(t *testing.T) {
		t.Parallel()

		started := make(chan struct{})
		release := make(chan struct{})
		p := newWorkerPool(context.Background(), 1, func(_ context.Context, task Task) {
			if task.URL == "http://a.test/block" {
				close(started)
				<-release
			}
		})

		p.submit(Task{URL: "http://a.test/block"})
		<-started
		p.submit(Task{URL: "http://a.test/1"})
		p.submit(Task{URL: "http://a.test/2"})
		p.submit(Task{URL: "http://a.test/3"})

		drained := p.shutdown()
		if len(drained) != 3 {
			t.Fatalf("drained %d tasks, want 3", len(drained))
		}
		if drained[0].URL != "http://a.test/1" {
			t.Errorf("drain order broken: %v", drained[0].URL)
		}
		if p.submit(Task{URL: "http://a.test/late"}) {
			t.Error("submit() after shutdown should return false")
		}
		if again := p.shutdown(); again != nil {
			t.Errorf("second shutdown drained %d tasks", len(again))
		}

		close(release)
		p.wait()
	})

	t.Run("shutdownNow cancels running tasks", func(t *testing.T) {
		t.Parallel()

		started := make(chan struct{})
		cancelled := make(chan struct{})
		p := newWorkerPool(context.Background(), 1, func(ctx context.Context, _ Task) {
			close(started)
			<-ctx.Done()
			close(cancelled)
		})

		p.submit(Task{URL: "http://a.test/"})
		<-started
		p.shutdownNow()

		select {
		case <-cancelled:
		case <-time.After(5 * time.Second):
			t.Fatal("running task was not cancelled")
		}
		p.wait()
	})
}
