// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dayboard"

// Metrics groups the service collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	refreshes       *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	snapshotEvents  prometheus.Gauge
	fetchErrors     prometheus.Counter
	analyticsRuns   prometheus.Counter
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// MustNew registers the collectors with reg, reusing collectors that are
// already registered under the same name. It panics on any other error.
func MustNew(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "runs_total",
			Help:      "Calendar refresh runs by outcome.",
		}, []string{"status"}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "duration_seconds",
			Help:      "Time spent fetching and expanding all calendars.",
			Buckets:   prometheus.DefBuckets,
		}),
		snapshotEvents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "snapshot_events",
			Help:      "Events in the current calendar snapshot.",
		}),
		fetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ics",
			Name:      "source_errors_total",
			Help:      "Per-source fetch or parse failures.",
		}),
		analyticsRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "runs_total",
			Help:      "Analytics reports computed.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.refreshes = register(reg, m.refreshes)
	m.refreshDuration = register(reg, m.refreshDuration)
	m.snapshotEvents = register(reg, m.snapshotEvents)
	m.fetchErrors = register(reg, m.fetchErrors)
	m.analyticsRuns = register(reg, m.analyticsRuns)
	m.httpRequests = register(reg, m.httpRequests)
	m.httpDuration = register(reg, m.httpDuration)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// ObserveRefresh records one refresh run.
func (m *Metrics) ObserveRefresh(d time.Duration, events, sourceErrors int, err error) {
	if m == nil {
		return
	}
	status := "ok"
	switch {
	case err != nil:
		status = "error"
	case sourceErrors > 0:
		status = "degraded"
	}
	m.refreshes.WithLabelValues(status).Inc()
	m.refreshDuration.Observe(d.Seconds())
	m.fetchErrors.Add(float64(sourceErrors))
	if err == nil {
		m.snapshotEvents.Set(float64(events))
	}
}

func (m *Metrics) AnalyticsRun() {
	if m == nil {
		return
	}
	m.analyticsRuns.Inc()
}

// ObserveHTTP records a served request.
func (m *Metrics) ObserveHTTP(route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}
