package txn

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultMaxAttempts bounds the conflict-retry loop. Persistent
	// contention surfaces as a visible failure instead of a livelock.
	DefaultMaxAttempts = 5

	// DefaultBaseDelay is the first backoff interval; each subsequent
	// interval doubles (100, 200, 400, 800ms between five attempts).
	DefaultBaseDelay = 100 * time.Millisecond
)

// Runner executes work functions inside transactions, retrying write
// conflicts with exponential backoff.
type Runner struct {
	provider    Provider
	log         *slog.Logger
	maxAttempts int
	baseDelay   time.Duration
	onRetry     func(attempt int, err error)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithMaxAttempts overrides the retry bound. Values below 1 are
// clamped to 1.
func WithMaxAttempts(n int) RunnerOption {
	return func(r *Runner) {
		if n < 1 {
			n = 1
		}
		r.maxAttempts = n
	}
}

// WithBaseDelay overrides the first backoff interval.
func WithBaseDelay(d time.Duration) RunnerOption {
	return func(r *Runner) { r.baseDelay = d }
}

// WithLogger sets the logger for retry and abort diagnostics.
func WithLogger(log *slog.Logger) RunnerOption {
	return func(r *Runner) { r.log = log }
}

// WithRetryHook registers a callback invoked before each retry sleep
// with the attempt number (1-based) and the conflict error.
func WithRetryHook(fn func(attempt int, err error)) RunnerOption {
	return func(r *Runner) { r.onRetry = fn }
}

// NewRunner creates a Runner over the given provider.
func NewRunner(provider Provider, opts ...RunnerOption) *Runner {
	r := &Runner{
		provider:    provider,
		log:         slog.Default(),
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run executes work inside a transaction. On a write conflict the
// transaction is aborted, the session closed, and the whole unit
// re-executed after backoff, up to the attempt bound. Any other error,
// and a conflict that survives the final attempt, propagate to the
// caller unchanged.
func (r *Runner) Run(ctx context.Context, work func(ctx context.Context) error) error {
	bo := newBackOff(r.baseDelay)

	var err error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if attempt > 0 {
			wait := bo.NextBackOff()
			r.log.Debug("transaction write conflict, retrying",
				slog.Int("attempt", attempt),
				slog.Duration("backoff", wait))
			if r.onRetry != nil {
				r.onRetry(attempt, err)
			}

			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}

		err = r.attempt(ctx, work)
		if err == nil {
			return nil
		}
		if !r.provider.IsWriteConflict(err) {
			return err
		}
	}

	return err
}

// newBackOff builds the retry schedule: base, 2x, 4x, 8x... with no
// randomization, so the intervals between attempts are exact.
func newBackOff(base time.Duration) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = base
	bo.RandomizationFactor = 0
	bo.Multiplier = 2
	bo.MaxInterval = time.Hour
	bo.MaxElapsedTime = 0 // bounded by attempts, not wall clock
	bo.Reset()

	return bo
}

func (r *Runner) attempt(ctx context.Context, work func(ctx context.Context) error) error {
	sess, err := r.provider.Begin(ctx)
	if err != nil {
		return err
	}
	// Session release must happen on every exit path; leaked sessions
	// exhaust the store's transaction budget.
	defer sess.Close(ctx)

	if err := work(sess.Context(ctx)); err != nil {
		if abortErr := sess.Abort(ctx); abortErr != nil {
			r.log.Warn("transaction abort failed", slog.Any("error", abortErr))
		}

		return err
	}

	if err := sess.Commit(ctx); err != nil {
		if abortErr := sess.Abort(ctx); abortErr != nil {
			r.log.Warn("transaction abort after failed commit", slog.Any("error", abortErr))
		}

		return err
	}

	return nil
}

// Execute runs work inside a transaction via r and returns its result.
// On retry the work function is re-invoked from scratch, so it must not
// carry state across attempts.
func Execute[T any](ctx context.Context, r *Runner, work func(ctx context.Context) (T, error)) (T, error) {
	var result T

	err := r.Run(ctx, func(txCtx context.Context) error {
		var workErr error
		result, workErr = work(txCtx)

		return workErr
	})
	if err != nil {
		var zero T
		return zero, err
	}

	return result, nil
}
