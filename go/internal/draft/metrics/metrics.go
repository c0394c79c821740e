// Package metrics records draft engine activity.
package metrics

import (
	"time"

	"github.com/mcdev12/dynasty-draft/go/internal/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector defines the metrics the engine and its broadcasters report.
type Collector interface {
	RecordPickCommitted(origin models.PickOrigin, duration time.Duration)
	RecordPickRejected(code drafterr.Code)
	RecordClockExpiry(stale bool)
	RecordTransition(from, to models.DraftStatus)
	RecordEventPublished(sink string, eventType string, success bool, duration time.Duration)
	RecordEventDropped(eventType string)
	SetActiveSessions(n int)
}

// NoOpCollector is used when metrics aren't needed
type NoOpCollector struct{}

func (NoOpCollector) RecordPickCommitted(models.PickOrigin, time.Duration) {}
func (NoOpCollector) RecordPickRejected(drafterr.Code) {}
func (NoOpCollector) RecordClockExpiry(bool) {}
func (NoOpCollector) RecordTransition(models.DraftStatus, models.DraftStatus) {}
func (NoOpCollector) RecordEventPublished(string, string, bool, time.Duration) {}
func (NoOpCollector) RecordEventDropped(string) {}
func (NoOpCollector) SetActiveSessions(int) {}

// PrometheusMetrics implements Collector with the Prometheus client.
type PrometheusMetrics struct {
	picks          *prometheus.CounterVec
	commitDuration *prometheus.HistogramVec
	rejections     *prometheus.CounterVec
	expiries       *prometheus.CounterVec
	transitions    *prometheus.CounterVec
	published      *prometheus.CounterVec
	publishLatency *prometheus.HistogramVec
	dropped        *prometheus.CounterVec
	activeSessions prometheus.Gauge
}

// NewPrometheusMetrics creates the collectors and registers them with reg.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	m := &PrometheusMetrics{
		picks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "draft",
			Name:      "picks_committed_total",
			Help:      "Committed picks by origin.",
		}, []string{"origin"}),
		commitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "draft",
			Name:      "pick_commit_duration_seconds",
			Help:      "Time spent in the atomic commit step.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"origin"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "draft",
			Name:      "picks_rejected_total",
			Help:      "Rejected pick commands by error code.",
		}, []string{"code"}),
		expiries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "draft",
			Name:      "clock_expiries_total",
			Help:      "Clock expiries, split by whether they were stale.",
		}, []string{"stale"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "draft",
			Name:      "session_transitions_total",
			Help:      "Session state transitions.",
		}, []string{"from", "to"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "draft",
			Name:      "events_published_total",
			Help:      "Events delivered to broadcast sinks.",
		}, []string{"sink", "type", "status"}),
		publishLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "draft",
			Name:      "event_publish_duration_seconds",
			Help:      "Time spent delivering an event to a sink.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"sink"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "draft",
			Name:      "events_dropped_total",
			Help:      "Events dropped because the dispatch buffer was full.",
		}, []string{"type"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "draft",
			Name:      "active_sessions",
			Help:      "Sessions that are not complete or abandoned.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.picks, m.commitDuration, m.rejections, m.expiries, m.transitions,
		m.published, m.publishLatency, m.dropped, m.activeSessions,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *PrometheusMetrics) RecordPickCommitted(origin models.PickOrigin, duration time.Duration) {
	m.picks.WithLabelValues(string(origin)).Inc()
	m.commitDuration.WithLabelValues(string(origin)).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordPickRejected(code drafterr.Code) {
	m.rejections.WithLabelValues(string(code)).Inc()
}

func (m *PrometheusMetrics) RecordClockExpiry(stale bool) {
	label := "false"
	if stale {
		label = "true"
	}
	m.expiries.WithLabelValues(label).Inc()
}

func (m *PrometheusMetrics) RecordTransition(from, to models.DraftStatus) {
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
}

func (m *PrometheusMetrics) RecordEventPublished(sink string, eventType string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.published.WithLabelValues(sink, eventType, status).Inc()
	m.publishLatency.WithLabelValues(sink).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordEventDropped(eventType string) {
	m.dropped.WithLabelValues(eventType).Inc()
}

func (m *PrometheusMetrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}
