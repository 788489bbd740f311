package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes Prometheus counters for session and feed activity. It
// satisfies both session.Metrics and feed.Metrics so one instance can be
// handed to the manager and every feed updater.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	sessionsStarted  prometheus.Counter
	sessionsFinished prometheus.Counter
	sessionsCanceled prometheus.Counter
	recordsBroken    prometheus.Counter
	restsStarted     prometheus.Counter
	feedReloads      prometheus.Counter
}

// NewMetrics registers all collectors on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "repflow_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"status"}),

		sessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "repflow_sessions_started_total",
			Help: "Total number of workout sessions started",
		}),

		sessionsFinished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "repflow_sessions_finished_total",
			Help: "Total number of workout sessions finished",
		}),

		sessionsCanceled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "repflow_sessions_canceled_total",
			Help: "Total number of workout sessions canceled",
		}),

		recordsBroken: promauto.NewCounter(prometheus.CounterOpts{
			Name: "repflow_records_broken_total",
			Help: "Total number of personal records broken",
		}),

		restsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "repflow_rests_started_total",
			Help: "Total number of rest timers started",
		}),

		feedReloads: promauto.NewCounter(prometheus.CounterOpts{
			Name: "repflow_feed_reloads_total",
			Help: "Total number of full feed reloads after a failed optimistic write",
		}),
	}
}

func (m *Metrics) SessionStarted()  { m.sessionsStarted.Inc() }
func (m *Metrics) SessionFinished() { m.sessionsFinished.Inc() }
func (m *Metrics) SessionCanceled() { m.sessionsCanceled.Inc() }
func (m *Metrics) RecordBroken()    { m.recordsBroken.Inc() }
func (m *Metrics) RestStarted()     { m.restsStarted.Inc() }
func (m *Metrics) FeedReload()      { m.feedReloads.Inc() }

func (m *Metrics) incRequest(status int) {
	m.requestsTotal.WithLabelValues(httpStatusBucket(status)).Inc()
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// Handler serves the Prometheus scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}
