// Package metrics exposes Prometheus metrics for HTTP traffic, domain events
// and the database pool.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zosarillana/prs-be/internal/domain/event"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prs_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prs_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	reportEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prs_report_events_total",
			Help: "Committed purchase report changes by action",
		},
		[]string{"action"},
	)

	handlerRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prs_event_handler_runs_total",
			Help: "Event handler runs by event type, handler and result",
		},
		[]string{"event_type", "handler", "result"},
	)

	databaseConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "prs_database_connections",
			Help: "Database pool connections by state",
		},
		[]string{"state"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(reportEventsTotal)
	prometheus.MustRegister(handlerRunsTotal)
	prometheus.MustRegister(databaseConnections)
}

// Handler returns the Prometheus scrape handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records one served request. path is the route pattern, not the raw URL.
func RecordHTTPRequest(method, path string, status int, seconds float64) {
	if path == "" {
		path = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(seconds)
}

// ObserveHandler matches dispatcher.Observer and counts handler outcomes
func ObserveHandler(evt *event.Event, handlerName string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	handlerRunsTotal.WithLabelValues(string(evt.Type), handlerName, result).Inc()
}

// ReportEventHandler counts report changes by action; it matches dispatcher.Handler
func ReportEventHandler(_ context.Context, evt *event.Event) error {
	action := evt.GetPayloadString("action")
	if action == "" {
		action = "unknown"
	}
	reportEventsTotal.WithLabelValues(action).Inc()
	return nil
}

// RegisterGauge registers a gauge read from fn at scrape time. Registering
// the same name twice keeps the first collector.
func RegisterGauge(name, help string, fn func() float64) error {
	g := prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, fn)
	if err := prometheus.Register(g); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return nil
		}
		return err
	}
	return nil
}
