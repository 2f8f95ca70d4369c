package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/georepute/backend/internal/contracts"
)

const namespace = "quote_builder"

// Metrics holds the service's prometheus collectors.
// A nil *Metrics is valid and records nothing.
// ⭐ SSOT: 메트릭 정의는 여기서만
type Metrics struct {
	registry *prometheus.Registry

	quotesCreated  *prometheus.CounterVec
	quoteMutations *prometheus.CounterVec
	quotesExpired  prometheus.Counter
	stageDuration  *prometheus.HistogramVec
	stageFailures  *prometheus.CounterVec
	suggestedPrice prometheus.Histogram
	rateLimited    prometheus.Counter
	httpDuration   *prometheus.HistogramVec
	wsSubscribers  prometheus.Gauge
}

// New registers every collector on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		quotesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_created_total",
			Help:      "Quotes created, by mode and primary engagement mode.",
		}, []string{"mode", "engagement_mode"}),
		quoteMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_mutations_total",
			Help:      "Quote activity entries written, by action.",
		}, []string{"action"}),
		quotesExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_expired_total",
			Help:      "Quotes expired by the scheduler.",
		}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage latency.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"stage"}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Quote creations aborted, by failing stage.",
		}, []string{"stage"}),
		suggestedPrice: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "suggested_price_midpoint",
			Help:      "Midpoint of the suggested monthly price range.",
			Buckets:   prometheus.ExponentialBuckets(1000, 1.5, 10),
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Quote creations rejected by the rate limiter.",
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		wsSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_subscribers",
			Help:      "Open quote event websocket connections.",
		}),
	}

	m.registry.MustRegister(
		m.quotesCreated,
		m.quoteMutations,
		m.quotesExpired,
		m.stageDuration,
		m.stageFailures,
		m.suggestedPrice,
		m.rateLimited,
		m.httpDuration,
		m.wsSubscribers,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the registry for tests and custom collectors
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveStage records one stage run
func (m *Metrics) ObserveStage(stage contracts.Stage, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage.Label()).Observe(d.Seconds())
}

// StageFailed counts an aborted creation
func (m *Metrics) StageFailed(stage contracts.Stage) {
	if m == nil {
		return
	}
	m.stageFailures.WithLabelValues(stage.Label()).Inc()
}

// QuoteCreated counts a created quote and its price midpoint
func (m *Metrics) QuoteCreated(q *contracts.Quote) {
	if m == nil {
		return
	}
	m.quotesCreated.WithLabelValues(string(q.Mode), string(q.Recommendation.PrimaryMode)).Inc()
	m.suggestedPrice.Observe(float64(q.Pricing.Midpoint()))
	m.quoteMutations.WithLabelValues(contracts.ActionCreated).Inc()
}

// QuoteMutated counts an activity entry other than creation
func (m *Metrics) QuoteMutated(action string) {
	if m == nil {
		return
	}
	m.quoteMutations.WithLabelValues(action).Inc()
}

// QuotesExpired counts quotes expired by one scheduler run
func (m *Metrics) QuotesExpired(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.quotesExpired.Add(float64(n))
}

// RateLimited counts a rejected creation
func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

// ObserveHTTP records one request
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// SubscriberAdded/SubscriberRemoved track open websocket connections
func (m *Metrics) SubscriberAdded() {
	if m == nil {
		return
	}
	m.wsSubscribers.Inc()
}

func (m *Metrics) SubscriberRemoved() {
	if m == nil {
		return
	}
	m.wsSubscribers.Dec()
}
