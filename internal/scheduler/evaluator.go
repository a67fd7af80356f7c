package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/prommonitor/internal/domain"
	"github.com/hamed0406/prommonitor/internal/maintenance"
	"github.com/hamed0406/prommonitor/internal/metrics"
	"github.com/hamed0406/prommonitor/internal/notify"
	"github.com/hamed0406/prommonitor/internal/repo"
)

type EvaluatorConfig struct {
	MaxAllowedSeconds int64
	Window            *maintenance.Window // nil: no maintenance exclusions
}

// Evaluator runs liveness passes over the cluster registry.
//
// Alerts are level-triggered: every pass that finds a cluster stale sends
// one alert, whatever the previous state. Recoveries are edge-triggered:
// one notification when a cluster in alert state is fresh again.
type Evaluator struct {
	log      *zap.Logger
	clusters repo.ClusterRegistry
	notifier notify.Notifier
	metrics  *metrics.Metrics
	cfg      EvaluatorConfig
	now      func() time.Time
}

func NewEvaluator(
	log *zap.Logger,
	clusters repo.ClusterRegistry,
	notifier notify.Notifier,
	m *metrics.Metrics,
	cfg EvaluatorConfig,
) *Evaluator {
	return &Evaluator{
		log:      log,
		clusters: clusters,
		notifier: notifier,
		metrics:  m,
		cfg:      cfg,
		now:      time.Now,
	}
}

// WithClock swaps the time source; used by tests.
func (e *Evaluator) WithClock(now func() time.Time) *Evaluator {
	e.now = now
	return e
}

// Outcome of one cluster within a pass.
type Outcome int

const (
	OutcomeHealthy Outcome = iota
	OutcomeSkipped
	OutcomeAlert
	OutcomeRecovered
)

// Summary describes a finished pass. WriteErrors aggregates the per-cluster
// state writes that failed; they never abort the pass.
type Summary struct {
	Checked     int
	Skipped     int
	Alerts      int
	Recoveries  int
	WriteErrors error
}

func (s *Summary) add(o Outcome) {
	switch o {
	case OutcomeSkipped:
		s.Skipped++
		return
	case OutcomeAlert:
		s.Alerts++
	case OutcomeRecovered:
		s.Recoveries++
	}
	s.Checked++
}

// Evaluate runs one pass. Only a failed registry scan is returned as an
// error; without the full cluster list the pass is meaningless.
func (e *Evaluator) Evaluate(ctx context.Context) (Summary, error) {
	records, err := e.clusters.GetAll(ctx)
	if err != nil {
		e.log.Error("evaluate_scan_error", zap.Error(err))
		e.metrics.Evaluation(false)
		return Summary{}, fmt.Errorf("%w: scan clusters: %v", domain.ErrInternal, err)
	}

	now := e.now()
	var sum Summary
	for _, rec := range records {
		out, werr := e.evaluateCluster(ctx, rec, now)
		sum.add(out)
		sum.WriteErrors = multierr.Append(sum.WriteErrors, werr)
	}

	e.metrics.Evaluation(true)
	e.log.Info("evaluate_pass_done",
		zap.Int("clusters", len(records)),
		zap.Int("checked", sum.Checked),
		zap.Int("skipped", sum.Skipped),
		zap.Int("alerts", sum.Alerts),
		zap.Int("recoveries", sum.Recoveries),
		zap.Int("write_errors", len(multierr.Errors(sum.WriteErrors))),
	)
	return sum, nil
}

func (e *Evaluator) evaluateCluster(ctx context.Context, rec domain.ClusterRecord, now time.Time) (Outcome, error) {
	name := rec.ClusterName

	down, err := e.cfg.Window.ScaledDown(name, now)
	if err != nil {
		e.log.Warn("maintenance_window_invalid", zap.String("cluster", name), zap.Error(err))
	}
	if down {
		e.log.Info("cluster_scaled_down", zap.String("cluster", name))
		e.metrics.Skipped()
		return OutcomeSkipped, nil
	}

	staleness := rec.Staleness(now)
	msg := fmt.Sprintf("Time since %s checked in is %d seconds", name, staleness)

	if staleness > e.cfg.MaxAllowedSeconds {
		e.log.Error("cluster_stale",
			zap.String("cluster", name),
			zap.Int64("staleness_seconds", staleness),
			zap.Bool("was_alerting", rec.AlertActive),
		)
		e.send(ctx, name, msg, true)
		e.metrics.ClusterState(name, staleness, true)
		return OutcomeAlert, e.writeState(ctx, name, true)
	}

	e.log.Info("cluster_fresh", zap.String("cluster", name), zap.Int64("staleness_seconds", staleness))
	out := OutcomeHealthy
	if rec.AlertActive {
		e.send(ctx, name, msg, false)
		out = OutcomeRecovered
	}
	e.metrics.ClusterState(name, staleness, false)
	return out, e.writeState(ctx, name, false)
}

// send never fails the caller; delivery errors are logged and counted.
func (e *Evaluator) send(ctx context.Context, cluster, msg string, isAlert bool) {
	kind := "recovery"
	if isAlert {
		kind = "alert"
	}
	err := e.notifier.Send(ctx, msg, isAlert)
	e.metrics.Notification(isAlert, err)
	if err != nil {
		e.log.Error("notify_error", zap.String("cluster", cluster), zap.String("kind", kind), zap.Error(err))
		return
	}
	e.log.Info("notify_sent", zap.String("cluster", cluster), zap.String("kind", kind))
}

func (e *Evaluator) writeState(ctx context.Context, cluster string, active bool) error {
	if err := e.clusters.UpsertAlertState(ctx, cluster, active); err != nil {
		e.log.Warn("alert_state_write_error",
			zap.String("cluster", cluster),
			zap.Bool("alert_active", active),
			zap.Error(err),
		)
		e.metrics.StateWriteError()
		return fmt.Errorf("%s: %w", cluster, err)
	}
	return nil
}
