package queue

import (
	"context"
	"sync"
	"time"
)

// windowLimiter caps job starts to max per sliding window across the pool.
type windowLimiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	starts []time.Time
}

func newWindowLimiter(max int, window time.Duration) *windowLimiter {
	return &windowLimiter{max: max, window: window}
}

// Wait blocks until a start slot is available or ctx is canceled.
func (l *windowLimiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := time.Now()
		cutoff := now.Add(-l.window)

		kept := l.starts[:0]
		for _, t := range l.starts {
			if t.After(cutoff) {
				kept = append(kept, t)
			}
		}
		l.starts = kept

		if len(l.starts) < l.max {
			l.starts = append(l.starts, now)
			l.mu.Unlock()
			return nil
		}

		wait := l.starts[0].Sub(cutoff)
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
