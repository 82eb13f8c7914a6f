// Package monitoring holds the Prometheus metrics and OpenTelemetry tracing setup.
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics handles Prometheus metrics collection
type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	aiRequestsTotal    *prometheus.CounterVec
	aiRequestDuration  *prometheus.HistogramVec
	aiCacheOperations  *prometheus.CounterVec
	creditsDebited     *prometheus.CounterVec
	insufficientCredit *prometheus.CounterVec
	dailyBonusGranted  *prometheus.CounterVec
	moderationVerdicts *prometheus.CounterVec
	breakerState       *prometheus.GaugeVec
	emailsSent         *prometheus.CounterVec
	usersRegistered    prometheus.Counter
}

// NewMetrics registers every collector on reg. Pass prometheus.NewRegistry() in tests.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		gatherer: reg,

		httpRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		aiRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ai_requests_total",
				Help: "Generative model calls by operation and outcome",
			},
			[]string{"operation", "status"},
		),
		aiRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ai_request_duration_seconds",
				Help:    "Generative model latency",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
			},
			[]string{"operation"},
		),
		aiCacheOperations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ai_cache_operations_total",
				Help: "AI response cache lookups",
			},
			[]string{"result"},
		),
		creditsDebited: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credits_debited_total",
				Help: "Credits spent on paid AI actions",
			},
			[]string{"operation"},
		),
		insufficientCredit: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credits_insufficient_total",
				Help: "Paid AI actions refused for lack of credits",
			},
			[]string{"operation"},
		),
		dailyBonusGranted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credits_daily_bonus_total",
				Help: "Daily bonus credits granted",
			},
			[]string{"bonus"},
		),
		moderationVerdicts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moderation_verdicts_total",
				Help: "Image moderation results",
			},
			[]string{"verdict"},
		),
		breakerState: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "0 closed, 1 half-open, 2 open",
			},
			[]string{"name"},
		),
		emailsSent: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emails_sent_total",
				Help: "Transactional emails by template and outcome",
			},
			[]string{"template", "status"},
		),
		usersRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "users_registered_total",
			Help: "Total number of registered users",
		}),
	}
}

// Middleware records request count and latency by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) AIRequest(operation, status string, duration time.Duration) {
	m.aiRequestsTotal.WithLabelValues(operation, status).Inc()
	m.aiRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *Metrics) AICache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.aiCacheOperations.WithLabelValues(result).Inc()
}

func (m *Metrics) CreditsDebited(operation string, amount int) {
	m.creditsDebited.WithLabelValues(operation).Add(float64(amount))
}

func (m *Metrics) InsufficientCredits(operation string) {
	m.insufficientCredit.WithLabelValues(operation).Inc()
}

func (m *Metrics) DailyBonus(bonus string) {
	m.dailyBonusGranted.WithLabelValues(bonus).Inc()
}

func (m *Metrics) ModerationVerdict(nsfw bool) {
	verdict := "safe"
	if nsfw {
		verdict = "nsfw"
	}
	m.moderationVerdicts.WithLabelValues(verdict).Inc()
}

// BreakerState stores a circuit breaker state as 0, 1 or 2.
func (m *Metrics) BreakerState(name string, state float64) {
	m.breakerState.WithLabelValues(name).Set(state)
}

func (m *Metrics) EmailSent(template string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.emailsSent.WithLabelValues(template, status).Inc()
}

func (m *Metrics) UserRegistered() {
	m.usersRegistered.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
