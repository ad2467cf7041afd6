package ratelimit

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultStatsBuffer = 256

// AsyncStats hands events to a single background worker so recording never
// blocks a request. Events are dropped while the buffer is full.
type AsyncStats struct {
	rec     StatsRecorder
	events  chan Event
	timeout time.Duration
	logger  *logrus.Logger
	dropped atomic.Int64
}

func NewAsyncStats(rec StatsRecorder, buffer int, logger *logrus.Logger) *AsyncStats {
	if buffer <= 0 {
		buffer = defaultStatsBuffer
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AsyncStats{
		rec:     rec,
		events:  make(chan Event, buffer),
		timeout: time.Second,
		logger:  logger,
	}
}

// Submit queues ev and reports whether it was accepted. Safe on a nil receiver.
func (a *AsyncStats) Submit(ev Event) bool {
	if a == nil {
		return false
	}
	select {
	case a.events <- ev:
		return true
	default:
		a.dropped.Add(1)
		return false
	}
}

// Dropped returns how many events were discarded because the buffer was full.
func (a *AsyncStats) Dropped() int64 {
	if a == nil {
		return 0
	}
	return a.dropped.Load()
}

// Run records queued events until ctx is done.
func (a *AsyncStats) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-a.events:
			recCtx, cancel := context.WithTimeout(ctx, a.timeout)
			if err := a.rec.Record(recCtx, ev); err != nil {
				a.logger.WithError(err).Warn("record rate limit stats")
			}
			cancel()
		}
	}
}
