package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pgEdge/pgedge-tickpipe/internal/logging"
)

// Runner schedules pipeline runs on a fixed interval with single-flight
// semantics: an interval tick that fires while a run is still active
// skips that run instead of queueing a second one.
type Runner struct {
	pipeline *Pipeline
	interval time.Duration
	cycles   int

	inFlight atomic.Bool

	// Metrics
	runs      atomic.Int64
	failures  atomic.Int64
	skipped   atomic.Int64
	ticks     atomic.Int64
	rows      atomic.Int64
	dropped   atomic.Int64
	inserted  atomic.Int64
	updated   atomic.Int64
	startTime time.Time
}

// NewRunner creates a runner for the pipeline. A non-positive interval
// means one immediate run. cycles caps how many runs are launched, with
// 0 meaning run until the context is cancelled; skipped intervals do
// not count against the cap.
func NewRunner(p *Pipeline, interval time.Duration, cycles int) *Runner {
	return &Runner{pipeline: p, interval: interval, cycles: cycles}
}

// Run executes the schedule and blocks until the cycle cap is reached
// or ctx is cancelled. In single-run mode the run's error is returned;
// in scheduled mode a failed run is logged and counted, and the next
// interval retries.
func (r *Runner) Run(ctx context.Context) error {
	r.startTime = time.Now()

	if r.interval <= 0 {
		err := r.runOnce(ctx)
		r.logSummary()
		return err
	}

	logging.Info().
		Dur("interval", r.interval).
		Int("cycles", r.cycles).
		Msg("Starting scheduled pipeline")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	launched := 0

loop:
	for {
		if r.inFlight.CompareAndSwap(false, true) {
			launched++
			wg.Add(1)
			go func(cycle int) {
				defer wg.Done()
				defer r.inFlight.Store(false)

				if err := r.runOnce(ctx); err != nil {
					if !errors.Is(err, context.Canceled) &&
						!errors.Is(err, context.DeadlineExceeded) {
						logging.Error().
							Err(err).
							Int("cycle", cycle).
							Msg("Pipeline run failed")
					}
				}
			}(launched)
		} else {
			r.skipped.Add(1)
			logging.Warn().Msg("Previous run still active; skipping this interval")
		}

		if r.cycles > 0 && launched >= r.cycles {
			break
		}

		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
		}
	}

	wg.Wait()
	r.logSummary()
	return nil
}

// runOnce executes one pipeline run and folds its summary into the
// cumulative counters. Context cancellation at shutdown is not counted
// as a failure.
func (r *Runner) runOnce(ctx context.Context) error {
	r.runs.Add(1)

	summary, err := r.pipeline.RunOnce(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) &&
			!errors.Is(err, context.DeadlineExceeded) {
			r.failures.Add(1)
		}
		return err
	}

	r.ticks.Add(int64(summary.Ticks))
	r.rows.Add(int64(summary.Transform.Rows))
	r.dropped.Add(int64(summary.Transform.Dropped))
	r.inserted.Add(int64(summary.Load.Inserted))
	r.updated.Add(int64(summary.Load.Updated))
	return nil
}

func (r *Runner) logSummary() {
	logging.Info().
		Dur("duration", time.Since(r.startTime)).
		Int64("runs", r.runs.Load()).
		Int64("failed", r.failures.Load()).
		Int64("skipped", r.skipped.Load()).
		Int64("ticks_generated", r.ticks.Load()).
		Int64("rows_transformed", r.rows.Load()).
		Int64("rows_dropped", r.dropped.Load()).
		Int64("rows_inserted", r.inserted.Load()).
		Int64("rows_updated", r.updated.Load()).
		Msg("Final summary")
}
