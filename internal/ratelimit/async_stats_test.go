package ratelimit

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type blockingRecorder struct {
	release chan struct{}
	mu      sync.Mutex
	keys    []string
}

func (r *blockingRecorder) Record(ctx context.Context, ev Event) error {
	select {
	case <-r.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	r.mu.Lock()
	r.keys = append(r.keys, ev.Key)
	r.mu.Unlock()
	return nil
}

func (r *blockingRecorder) recorded() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestAsyncStatsDropsWhenBufferFull(t *testing.T) {
	rec := &blockingRecorder{release: make(chan struct{})}
	stats := NewAsyncStats(rec, 2, quietLogger())

	// no worker running: the buffer fills and further events are dropped
	accepted := 0
	for i := 0; i < 5; i++ {
		if stats.Submit(Event{Key: "k"}) {
			accepted++
		}
	}
	if accepted != 2 || stats.Dropped() != 3 {
		t.Fatalf("expected 2 accepted and 3 dropped, got %d / %d", accepted, stats.Dropped())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		stats.Run(ctx)
		close(done)
	}()
	close(rec.release)

	deadline := time.Now().Add(2 * time.Second)
	for rec.recorded() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("expected queued events recorded, got %d", rec.recorded())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on cancel")
	}
}

func TestAsyncStatsNilSafe(t *testing.T) {
	var stats *AsyncStats
	if stats.Submit(Event{}) || stats.Dropped() != 0 {
		t.Fatal("expected nil stats to ignore events")
	}
}
