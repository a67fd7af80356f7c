// Package metrics exposes Prometheus collectors for the recorder and the
// evaluator. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "prommonitor"

// Heartbeat results.
const (
	ResultAccepted     = "accepted"
	ResultUnauthorized = "unauthorized"
	ResultError        = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	heartbeats       *prometheus.CounterVec
	evaluations      *prometheus.CounterVec
	notifications    *prometheus.CounterVec
	skipped          prometheus.Counter
	stateWriteErrors prometheus.Counter
	staleness        *prometheus.GaugeVec
	alertActive      *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		heartbeats: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heartbeats_total",
			Help:      "Heartbeat reports received, by result.",
		}, []string{"result"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Evaluator passes, by result.",
		}, []string{"result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications attempted, by kind (alert|recovery) and result (sent|failed).",
		}, []string{"kind", "result"}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clusters_skipped_total",
			Help:      "Cluster evaluations skipped because of a maintenance window.",
		}),
		stateWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_write_errors_total",
			Help:      "Alert state writes that failed and were skipped.",
		}),
		staleness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cluster_staleness_seconds",
			Help:      "Seconds since the cluster last checked in, as of the last pass.",
		}, []string{"cluster"}),
		alertActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cluster_alert_active",
			Help:      "1 while the cluster is in alert state.",
		}, []string{"cluster"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.heartbeats, m.evaluations, m.notifications,
		m.skipped, m.stateWriteErrors, m.staleness, m.alertActive,
	)
	return m
}

// Handler serves this registry in the exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests and for embedding into a wider gatherer.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Heartbeat(result string) {
	if m == nil {
		return
	}
	m.heartbeats.WithLabelValues(result).Inc()
}

func (m *Metrics) Evaluation(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.evaluations.WithLabelValues(result).Inc()
}

func (m *Metrics) Notification(isAlert bool, err error) {
	if m == nil {
		return
	}
	kind, result := "recovery", "sent"
	if isAlert {
		kind = "alert"
	}
	if err != nil {
		result = "failed"
	}
	m.notifications.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) Skipped() {
	if m == nil {
		return
	}
	m.skipped.Inc()
}

func (m *Metrics) StateWriteError() {
	if m == nil {
		return
	}
	m.stateWriteErrors.Inc()
}

// ClusterState records the outcome of one cluster evaluation.
func (m *Metrics) ClusterState(cluster string, staleness int64, alert bool) {
	if m == nil {
		return
	}
	m.staleness.WithLabelValues(cluster).Set(float64(staleness))
	v := 0.0
	if alert {
		v = 1
	}
	m.alertActive.WithLabelValues(cluster).Set(v)
}

// ForgetCluster drops per-cluster series after a manual removal.
func (m *Metrics) ForgetCluster(cluster string) {
	if m == nil {
		return
	}
	m.staleness.DeleteLabelValues(cluster)
	m.alertActive.DeleteLabelValues(cluster)
}
