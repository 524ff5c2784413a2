package compress

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/benhall-io/squish/provider"
)

// Execute runs all pending tasks against the provider under a bounded
// worker pool and mutates them to a terminal status. Skipped tasks pass
// through untouched.
//
// Tasks complete independently and out of order; no ordering guarantee
// exists or is needed, because reconciliation is keyed by UnitIndex.
// One task's failure never aborts another: Execute itself returns an
// error only for malformed configuration (checked before any provider
// call) or caller cancellation.
func Execute(ctx context.Context, tasks []*Task, prov provider.Provider, cfg Config) error {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	queue := make(chan *Task, len(tasks))
	pending := 0
	for _, t := range tasks {
		if t.Status == StatusPending {
			queue <- t
			pending++
		}
	}
	close(queue)

	if pending == 0 {
		return nil
	}

	workers := cfg.Concurrency
	if workers > pending {
		workers = pending
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					// Stop dispatching; tasks still queued stay
					// pending and the run reports the cancellation.
					return ctx.Err()
				case t, ok := <-queue:
					if !ok {
						return nil
					}
					runTask(ctx, t, prov, cfg)
				}
			}
		})
	}
	return g.Wait()
}

// runTask drives one task through its state machine:
// pending -> running -> {success, retrying -> running, failed}.
// Timeouts and provider errors are treated identically for retry
// purposes; the original text is never discarded here.
func runTask(ctx context.Context, t *Task, prov provider.Provider, cfg Config) {
	log := cfg.log()
	for {
		t.Timeout = attemptTimeout(cfg, t.Attempt)
		result, err := compressOnce(ctx, t, prov)
		if err == nil {
			t.Status = StatusSuccess
			t.Result = result
			t.Err = nil
			return
		}

		t.Attempt++
		t.Err = err
		if ctx.Err() != nil {
			// Caller cancelled mid-attempt; leave the task pending so
			// the run surfaces ctx.Err() instead of a partial clone.
			return
		}
		if t.Attempt >= cfg.MaxAttempts {
			t.Status = StatusFailed
			log.Warn("task failed",
				"unit", t.UnitIndex,
				"role", string(t.Role),
				"attempts", t.Attempt,
				"error", err,
			)
			return
		}
		log.Debug("retrying task",
			"unit", t.UnitIndex,
			"attempt", t.Attempt,
			"next_timeout", attemptTimeout(cfg, t.Attempt),
			"error", err,
		)
	}
}

// compressOnce performs a single attempt, racing the provider call
// against the attempt's timeout. The call runs in its own goroutine so
// a provider that ignores context cancellation cannot hold the worker
// slot past the deadline.
func compressOnce(ctx context.Context, t *Task, prov provider.Provider) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		text, err := prov.Compress(callCtx, t.OriginalText, t.Level)
		done <- outcome{text: text, err: err}
	}()

	select {
	case o := <-done:
		return o.text, o.err
	case <-callCtx.Done():
		return "", callCtx.Err()
	}
}

// attemptTimeout returns the escalated timeout for an attempt:
// TimeoutInitial * TimeoutScale^attempt.
func attemptTimeout(cfg Config, attempt int) time.Duration {
	scaled := float64(cfg.TimeoutInitial) * math.Pow(cfg.TimeoutScale, float64(attempt))
	return time.Duration(scaled)
}
