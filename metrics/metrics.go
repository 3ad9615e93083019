// Package metrics exposes Prometheus collectors for dispatch-cache activity.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "typetext"
	subsystem = "dispatch"

	LabelFormat    = "format"
	LabelDirection = "direction"
	LabelResult    = "result"

	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultOK    = "ok"
	ResultError = "error"
)

// Collector groups the dispatch collectors of one engine. A nil *Collector
// is valid and records nothing.
type Collector struct {
	Lookups      *prometheus.CounterVec
	Builds       *prometheus.CounterVec
	BuildSeconds *prometheus.HistogramVec
}

// NewCollector creates unregistered collectors.
func NewCollector() *Collector {
	return &Collector{
		Lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "lookups_total",
			Help:      "Writer and parser lookups by cache result.",
		}, []string{LabelFormat, LabelDirection, LabelResult}),
		Builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "builds_total",
			Help:      "Writer and parser constructions by outcome.",
		}, []string{LabelFormat, LabelDirection, LabelResult}),
		BuildSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "build_seconds",
			Help:      "Time spent constructing one writer or parser.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{LabelFormat, LabelDirection}),
	}
}

// MustRegister registers every collector with reg.
func (c *Collector) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(c.Lookups, c.Builds, c.BuildSeconds)
}

// ObserveLookup counts one cache lookup.
func (c *Collector) ObserveLookup(format, direction string, hit bool) {
	if c == nil {
		return
	}
	result := ResultMiss
	if hit {
		result = ResultHit
	}
	c.Lookups.WithLabelValues(format, direction, result).Inc()
}

// ObserveBuild records one construction and its duration.
func (c *Collector) ObserveBuild(format, direction string, took time.Duration, err error) {
	if c == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	c.Builds.WithLabelValues(format, direction, result).Inc()
	c.BuildSeconds.WithLabelValues(format, direction).Observe(took.Seconds())
}
