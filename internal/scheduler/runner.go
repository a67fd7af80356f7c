package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/hamed0406/prommonitor/internal/domain"
	"github.com/hamed0406/prommonitor/internal/logging"
)

// Pass is one evaluation over all clusters.
type Pass interface {
	Evaluate(ctx context.Context) (Summary, error)
}

// Runner triggers passes on a cron schedule. A pass still running when the
// next tick fires causes that tick to be skipped, so passes never overlap.
type Runner struct {
	Logger   *zap.Logger
	Pass     Pass
	Schedule string
	Location *time.Location
}

func NewRunner(logger *zap.Logger, pass Pass, schedule string, loc *time.Location) *Runner {
	if loc == nil {
		loc = time.UTC
	}
	return &Runner{Logger: logger, Pass: pass, Schedule: schedule, Location: loc}
}

// Run does an immediate pass, then one per schedule tick.
// Stops when ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	cl := logging.CronLogger(r.Logger)
	c := cron.New(
		cron.WithLocation(r.Location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(r.Schedule, func() { r.runOnce(ctx) }); err != nil {
		return fmt.Errorf("%w: check schedule %q: %v", domain.ErrConfiguration, r.Schedule, err)
	}

	// immediate pass
	r.runOnce(ctx)

	c.Start()
	r.Logger.Info("runner_started", zap.String("schedule", r.Schedule))
	<-ctx.Done()
	<-c.Stop().Done()
	r.Logger.Info("runner_stopped")
	return ctx.Err()
}

// RunOnce is a single pass for one-shot invocations (cron jobs, lambdas).
// A panicking pass is returned as an error.
func (r *Runner) RunOnce(ctx context.Context) error {
	return r.evaluate(ctx)
}

func (r *Runner) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := r.evaluate(ctx); err != nil {
		// next tick retries with a fresh scan
		r.Logger.Error("evaluate_pass_failed", zap.Error(err))
	}
}

// evaluate runs one pass with the same panic recovery for the first pass,
// scheduled ticks and one-shot runs.
func (r *Runner) evaluate(ctx context.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			r.Logger.Error("evaluate_pass_panic", zap.Any("panic", p), zap.Stack("stack"))
			err = fmt.Errorf("%w: evaluate pass panicked: %v", domain.ErrInternal, p)
		}
	}()
	_, err = r.Pass.Evaluate(ctx)
	return err
}
