package scheduler

import (
	"context"
	"log"
	"time"
)

// Job runs one pipeline-and-publish sequence for a due slot. It returns the
// id of the first externally confirmed post; a non-empty id means the
// publication counts as today's success even if the rest of the chain
// failed afterwards.
type Job func(ctx context.Context, slot Slot) (string, error)

// Entry pairs a guard with the job it triggers.
type Entry struct {
	Guard *Guard
	Job   Job
}

// Runner is the single-threaded polling loop. Each tick it checks every
// guard against the wall clock and runs due jobs synchronously, one at a
// time; a long generation or publish call simply delays the next tick,
// which is fine at a few-times-daily cadence.
type Runner struct {
	entries  []Entry
	interval time.Duration
	logger   *log.Logger
	now      func() time.Time
}

// NewRunner builds a runner polling at interval (default 60s).
func NewRunner(entries []Entry, interval time.Duration, logger *log.Logger) *Runner {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{entries: entries, interval: interval, logger: logger, now: time.Now}
}

// Run polls until ctx is cancelled. Nothing escapes the loop: job failures
// are logged and converted into "try again next tick" behavior.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Printf("[runner] started, %d slot(s), tick %s", len(r.entries), r.interval)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// immediate pass so a restart inside a catch-up window publishes
	// without waiting a tick
	r.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.Printf("[runner] stopping: %v", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick runs one poll pass over all slots.
func (r *Runner) Tick(ctx context.Context) {
	for _, e := range r.entries {
		now := r.now()
		if !e.Guard.Due(now) {
			continue
		}
		slot := e.Guard.Slot()
		r.logger.Printf("[runner] slot %s due at %s, starting publication", slot.Name, now.Format(time.RFC3339))
		e.Guard.MarkAttempt(now)

		firstID, err := e.Job(ctx, slot)
		if firstID != "" {
			// the head post is live; record success even if the chain
			// broke, so a later tick cannot open a duplicate thread.
			// Stamped with the tick time the guard was gated on: a job
			// finishing past midnight must not suppress the next day.
			e.Guard.MarkSuccess(now)
		}
		switch {
		case err != nil && firstID != "":
			r.logger.Printf("[runner] slot %s: published head %s but chain incomplete: %v", slot.Name, firstID, err)
		case err != nil:
			r.logger.Printf("[runner] slot %s: publication failed, will retry while in window: %v", slot.Name, err)
		default:
			r.logger.Printf("[runner] slot %s: published, head=%s", slot.Name, firstID)
		}
	}
}
