// Package observability exposes Prometheus metrics and OpenTelemetry
// tracing for the server.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kalike"

// Metrics holds the server's collectors on a private registry. A nil
// *Metrics ignores every observation.
type Metrics struct {
	reg *prometheus.Registry

	apiRequests   *prometheus.CounterVec
	apiLatency    *prometheus.HistogramVec
	apiInflight   prometheus.Gauge
	llmRequests   *prometheus.CounterVec
	llmLatency    *prometheus.HistogramVec
	llmTokens     *prometheus.CounterVec
	simTurns      *prometheus.CounterVec
	simScores     *prometheus.HistogramVec
	lessons       *prometheus.CounterVec
	achievements  *prometheus.CounterVec
	sessionsSwept prometheus.Counter
	eventsPruned  prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,

		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		apiInflight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "http_requests_inflight",
			Help: "HTTP requests being served.",
		}),
		llmRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "llm_requests_total",
			Help: "Language model calls by purpose and result.",
		}, []string{"purpose", "result"}),
		llmLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "llm_request_duration_seconds",
			Help:    "Language model call latency.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"purpose"}),
		llmTokens: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "llm_tokens_total",
			Help: "Tokens consumed by direction.",
		}, []string{"purpose", "direction"}),
		simTurns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "simulation_turns_total",
			Help: "Simulation turns by scenario and result.",
		}, []string{"scenario", "result"}),
		simScores: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "simulation_score",
			Help:    "Final simulation scores.",
			Buckets: []float64{50, 60, 70, 80, 90, 100},
		}, []string{"scenario"}),
		lessons: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "lesson_submissions_total",
			Help: "Lesson submissions by completion.",
		}, []string{"completed"}),
		achievements: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "achievements_unlocked_total",
			Help: "Achievements unlocked by id.",
		}, []string{"achievement"}),
		sessionsSwept: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "simulation_sessions_expired_total",
			Help: "Idle simulation sessions removed by the sweeper.",
		}),
		eventsPruned: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "llm_events_pruned_total",
			Help: "LLM request events removed by retention.",
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) APIInflightInc() {
	if m != nil {
		m.apiInflight.Inc()
	}
}

func (m *Metrics) APIInflightDec() {
	if m != nil {
		m.apiInflight.Dec()
	}
}

func (m *Metrics) ObserveAPI(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) ObserveLLM(purpose string, ok bool, d time.Duration, in, out int) {
	if m == nil {
		return
	}
	m.llmRequests.WithLabelValues(purpose, result(ok)).Inc()
	m.llmLatency.WithLabelValues(purpose).Observe(d.Seconds())
	if in > 0 {
		m.llmTokens.WithLabelValues(purpose, "input").Add(float64(in))
	}
	if out > 0 {
		m.llmTokens.WithLabelValues(purpose, "output").Add(float64(out))
	}
}

// ObserveTurn counts one simulation turn. result is "ok", "ended" or an
// error class such as "unintelligible".
func (m *Metrics) ObserveTurn(scenario, result string) {
	if m != nil {
		m.simTurns.WithLabelValues(scenario, result).Inc()
	}
}

func (m *Metrics) ObserveSimulationScore(scenario string, score int) {
	if m != nil {
		m.simScores.WithLabelValues(scenario).Observe(float64(score))
	}
}

func (m *Metrics) ObserveLesson(completed bool, unlocked []string) {
	if m == nil {
		return
	}
	m.lessons.WithLabelValues(strconv.FormatBool(completed)).Inc()
	m.ObserveAchievements(unlocked)
}

func (m *Metrics) ObserveAchievements(ids []string) {
	if m == nil {
		return
	}
	for _, id := range ids {
		m.achievements.WithLabelValues(id).Inc()
	}
}

func (m *Metrics) SessionsSwept(n int) {
	if m != nil && n > 0 {
		m.sessionsSwept.Add(float64(n))
	}
}

func (m *Metrics) EventsPruned(n int64) {
	if m != nil && n > 0 {
		m.eventsPruned.Add(float64(n))
	}
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
