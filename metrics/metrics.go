// Package metrics exports adapter lifecycle events as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wippyai/hostbridge/adapter"
	"github.com/wippyai/hostbridge/errors"
)

// Collector turns adapter events into Prometheus metrics. It implements
// adapter.Observer.
type Collector struct {
	requests  *prometheus.CounterVec
	failures  *prometheus.CounterVec
	misses    *prometheus.CounterVec
	bodyRead  prometheus.Counter
	flushed   prometheus.Counter
	inflight  prometheus.Gauge
	durations prometheus.Histogram
}

var _ adapter.Observer = (*Collector)(nil)

// New creates a collector whose metric names start with namespace.
func New(namespace string) *Collector {
	return &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests handled, by callback disposition.",
		}, []string{"disposition"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Requests that ended with an error response, by error kind.",
		}, []string{"kind"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_misses_total",
			Help:      "Attribute or header lookups that found nothing.",
		}, []string{"attribute"}),
		bodyRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "body_read_bytes_total",
			Help:      "Request entity bytes read by callbacks.",
		}),
		flushed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flushed_bytes_total",
			Help:      "Response body bytes accepted by the host.",
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inflight_requests",
			Help:      "Callbacks currently running.",
		}),
		durations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "callback_duration_seconds",
			Help:      "Time from binding a request to disposing it.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}
}

// Register adds every metric to r.
func (c *Collector) Register(r prometheus.Registerer) error {
	for _, m := range []prometheus.Collector{
		c.requests, c.failures, c.misses, c.bodyRead, c.flushed, c.inflight, c.durations,
	} {
		if err := r.Register(m); err != nil {
			return err
		}
	}
	return nil
}

// Observe implements adapter.Observer.
func (c *Collector) Observe(e adapter.Event) {
	switch e.Type {
	case adapter.EventBound:
		c.inflight.Inc()
	case adapter.EventDisposed:
		c.inflight.Dec()
		c.requests.WithLabelValues(e.Disposition.String()).Inc()
		c.durations.Observe(e.Duration.Seconds())
	case adapter.EventFailed:
		kind := string(errors.KindOf(e.Err))
		if kind == "" {
			kind = "unknown"
		}
		c.failures.WithLabelValues(kind).Inc()
	case adapter.EventResolveMiss:
		label := "header"
		if e.Name == "" {
			label = e.Attr.String()
		}
		c.misses.WithLabelValues(label).Inc()
	case adapter.EventBodyRead:
		c.bodyRead.Add(float64(e.Bytes))
	case adapter.EventChunkFlushed:
		c.flushed.Add(float64(e.Bytes))
	}
}
