// Package queue runs review jobs on a fixed-size worker pool with
// per-window rate limiting, retry with exponential backoff, and
// deduplication by repository and pull request number.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vantage-review/vantage/internal/logging"
)

// Queue defaults.
const (
	DefaultConcurrency = 5
	DefaultMaxAttempts = 3
	DefaultBackoffBase = 2 * time.Second
	DefaultRateLimit   = 10
	DefaultRateWindow  = time.Minute

	jobBuffer = 256
)

// ErrDuplicateJob marks an enqueue for a key that already has an in-flight
// job. A repeated webhook for the same pull request collapses onto it.
var ErrDuplicateJob = errors.New("job already in flight for this pull request")

// ErrQueueFull marks a rejected enqueue on a saturated queue.
var ErrQueueFull = errors.New("job queue is full")

// Job is an immutable work item.
type Job struct {
	PullRequestID  string `json:"pullRequestId"`
	Repository     string `json:"repositoryFullName"`
	PRNumber       int    `json:"prNumber"`
	InstallationID int64  `json:"installationId"`
}

// Key is the deduplication key.
func (j Job) Key() string {
	return fmt.Sprintf("%s:%d", j.Repository, j.PRNumber)
}

// Handler processes one job attempt.
type Handler func(ctx context.Context, job Job) error

// Options configures the pool. Zero values fall back to defaults.
type Options struct {
	Concurrency int
	MaxAttempts int
	BackoffBase time.Duration
	RateLimit   int
	RateWindow  time.Duration
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = DefaultBackoffBase
	}
	if o.RateLimit <= 0 {
		o.RateLimit = DefaultRateLimit
	}
	if o.RateWindow <= 0 {
		o.RateWindow = DefaultRateWindow
	}
	return o
}

// Queue is the worker pool. Once a job is dispatched it runs to terminal
// state or exhausts its retry budget; there is no mid-flight cancellation
// besides process shutdown.
type Queue struct {
	opts    Options
	handler Handler
	jobs    chan Job
	limiter *windowLimiter

	mu       sync.Mutex
	inflight map[string]bool

	wg sync.WaitGroup
}

// New creates a queue over the handler.
func New(handler Handler, opts Options) *Queue {
	opts = opts.withDefaults()
	return &Queue{
		opts:     opts,
		handler:  handler,
		jobs:     make(chan Job, jobBuffer),
		limiter:  newWindowLimiter(opts.RateLimit, opts.RateWindow),
		inflight: make(map[string]bool),
	}
}

// Start launches the worker pool. Workers exit when ctx is canceled and
// the job channel has drained.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.opts.Concurrency; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
}

// Wait blocks until every worker has exited.
func (q *Queue) Wait() {
	q.wg.Wait()
}

// Enqueue admits a job unless one with the same key is already in flight.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	key := job.Key()
	if q.inflight[key] {
		q.mu.Unlock()
		return ErrDuplicateJob
	}
	q.inflight[key] = true
	q.mu.Unlock()

	select {
	case q.jobs <- job:
		logging.Info("job enqueued", "key", key)
		return nil
	default:
		q.release(key)
		return ErrQueueFull
	}
}

func (q *Queue) release(key string) {
	q.mu.Lock()
	delete(q.inflight, key)
	q.mu.Unlock()
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-q.jobs:
			q.run(ctx, job)
		}
	}
}

// run drives one job through its retry budget. The dedupe key is held for
// the whole budget, so a redelivered webhook cannot start a second run.
func (q *Queue) run(ctx context.Context, job Job) {
	defer q.release(job.Key())

	if err := q.limiter.Wait(ctx); err != nil {
		logging.Warn("job dropped before start", "key", job.Key(), "error", err)
		return
	}

	var lastErr error
	for attempt := 1; attempt <= q.opts.MaxAttempts; attempt++ {
		lastErr = q.handler(ctx, job)
		if lastErr == nil {
			logging.Info("job completed", "key", job.Key(), "attempt", attempt)
			return
		}

		logging.Warn("job attempt failed",
			"key", job.Key(), "attempt", attempt, "error", lastErr)

		if attempt < q.opts.MaxAttempts {
			backoff := q.opts.BackoffBase * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
		}
	}

	logging.Error("job failed permanently", "key", job.Key(), "error", lastErr)
}
