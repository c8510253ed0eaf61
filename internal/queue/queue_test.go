package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-review/vantage/internal/logging"
)

func init() {
	logging.Disable()
}

// Test Plan for the queue:
// - A failing job is retried up to MaxAttempts with backoff, then dropped
// - A succeeding job runs exactly once
// - Enqueue deduplicates by repository:prNumber while a job is in flight
// - The key is released after terminal state, allowing a fresh enqueue
// - The rate limiter blocks the (max+1)th start inside one window

func testQueue(handler Handler, opts Options) (*Queue, context.CancelFunc) {
	if opts.BackoffBase == 0 {
		opts.BackoffBase = time.Millisecond
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = 1000
	}
	q := New(handler, opts)
	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx)
	return q, cancel
}

func TestQueue_RetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	done := make(chan struct{})
	q, cancel := testQueue(func(ctx context.Context, job Job) error {
		if attempts.Add(1) < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, Options{})
	defer cancel()

	require.NoError(t, q.Enqueue(Job{Repository: "acme/shop", PRNumber: 1}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not complete")
	}
	assert.Equal(t, int32(3), attempts.Load())
}

func TestQueue_ExhaustsRetryBudget(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	q, cancel := testQueue(func(ctx context.Context, job Job) error {
		attempts.Add(1)
		return errors.New("permanent")
	}, Options{MaxAttempts: 3})
	defer cancel()

	require.NoError(t, q.Enqueue(Job{Repository: "acme/shop", PRNumber: 2}))

	assert.Eventually(t, func() bool {
		return attempts.Load() == 3
	}, 2*time.Second, 10*time.Millisecond)

	// No further attempts after the budget.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestQueue_DeduplicatesInflight(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	var runs atomic.Int32
	q, cancel := testQueue(func(ctx context.Context, job Job) error {
		runs.Add(1)
		<-release
		return nil
	}, Options{})
	defer cancel()

	job := Job{Repository: "acme/shop", PRNumber: 3}
	require.NoError(t, q.Enqueue(job))

	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, q.Enqueue(job), ErrDuplicateJob)

	// A different pull request is not deduplicated.
	other := Job{Repository: "acme/shop", PRNumber: 4}
	require.NoError(t, q.Enqueue(other))

	close(release)
	assert.Eventually(t, func() bool {
		return q.Enqueue(job) == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWindowLimiter(t *testing.T) {
	t.Parallel()

	l := newWindowLimiter(2, 200*time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, l.Wait(ctx))
	require.NoError(t, l.Wait(ctx))
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	// Third start must wait for the window to roll.
	require.NoError(t, l.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestWindowLimiter_ContextCancel(t *testing.T) {
	t.Parallel()

	l := newWindowLimiter(1, time.Hour)
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Wait(ctx), context.DeadlineExceeded)
}

func TestQueue_ConcurrentWorkers(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	running, peak := 0, 0
	q, cancel := testQueue(func(ctx context.Context, job Job) error {
		mu.Lock()
		running++
		if running > peak {
			peak = running
		}
		mu.Unlock()

		time.Sleep(30 * time.Millisecond)

		mu.Lock()
		running--
		mu.Unlock()
		return nil
	}, Options{Concurrency: 3})
	defer cancel()

	for i := 0; i < 9; i++ {
		require.NoError(t, q.Enqueue(Job{Repository: "acme/shop", PRNumber: 100 + i}))
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return peak > 1 && running == 0 && peak <= 3
	}, 3*time.Second, 10*time.Millisecond)
}
