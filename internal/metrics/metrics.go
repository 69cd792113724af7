package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	requestDuration      *prometheus.HistogramVec
	achievementsUnlocked *prometheus.CounterVec
	completionsRecorded  prometheus.Counter
	goalsCompleted       *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "habits",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		achievementsUnlocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "habits",
			Name:      "achievements_unlocked_total",
			Help:      "Achievements unlocked by type.",
		}, []string{"type"}),
		completionsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "habits",
			Name:      "completions_recorded_total",
			Help:      "Completion records written.",
		}),
		goalsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "habits",
			Name:      "goals_completed_total",
			Help:      "Goals marked completed by goal type.",
		}, []string{"goal_type"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestDuration,
		m.achievementsUnlocked,
		m.completionsRecorded,
		m.goalsCompleted,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the private registry for gathering outside the HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// The recording methods are no-ops on a nil *Metrics.

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

func (m *Metrics) AchievementUnlocked(achievementType string) {
	if m == nil {
		return
	}
	m.achievementsUnlocked.WithLabelValues(achievementType).Inc()
}

func (m *Metrics) CompletionRecorded() {
	if m == nil {
		return
	}
	m.completionsRecorded.Inc()
}

func (m *Metrics) GoalCompleted(goalType string) {
	if m == nil {
		return
	}
	m.goalsCompleted.WithLabelValues(goalType).Inc()
}
