package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MasterOfBinary/asyncbatch/batch"
)

const (
	namespace = "asyncbatch"
	subsystem = "batch"
)

// PrometheusStats records batch statistics as Prometheus metrics. It also
// keeps a batch.BasicStatsCollector so GetStats works as usual.
type PrometheusStats struct {
	basic *batch.BasicStatsCollector

	started       prometheus.Counter
	succeeded     prometheus.Counter
	failed        prometheus.Counter
	skipped       prometheus.Counter
	sourceErrors  prometheus.Counter
	itemDuration  prometheus.Histogram
	rateLimitWait prometheus.Histogram
}

var _ batch.StatsCollector = (*PrometheusStats)(nil)

// NewPrometheusStats creates the metrics for the batch called name and
// registers them with reg. If reg is nil, prometheus.DefaultRegisterer is
// used. Registering the same name twice on one registry fails.
func NewPrometheusStats(reg prometheus.Registerer, name string) (*PrometheusStats, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	labels := prometheus.Labels{"batch": name}

	counter := func(metric, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        metric,
			ConstLabels: labels,
			Help:        help,
		})
	}

	s := &PrometheusStats{
		basic:        batch.NewBasicStatsCollector(),
		started:      counter("items_started_total", "Total number of items whose action was called"),
		succeeded:    counter("items_succeeded_total", "Total number of items whose action succeeded"),
		failed:       counter("items_failed_total", "Total number of items whose action failed"),
		skipped:      counter("items_skipped_total", "Total number of items rejected by the filter or prevented"),
		sourceErrors: counter("source_errors_total", "Total number of failed queue producers"),
		itemDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        "item_duration_seconds",
			ConstLabels: labels,
			Help:        "Duration of successful action calls",
			Buckets:     prometheus.DefBuckets,
		}),
		rateLimitWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        "rate_limit_wait_seconds",
			ConstLabels: labels,
			Help:        "Time items spent waiting for rate limit admission",
			Buckets:     prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}

	for _, c := range []prometheus.Collector{
		s.started, s.succeeded, s.failed, s.skipped, s.sourceErrors,
		s.itemDuration, s.rateLimitWait,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics for batch %q: %w", name, err)
		}
	}

	return s, nil
}

// RecordItemStart implements batch.StatsCollector.
func (s *PrometheusStats) RecordItemStart() {
	s.basic.RecordItemStart()
	s.started.Inc()
}

// RecordItemComplete implements batch.StatsCollector.
func (s *PrometheusStats) RecordItemComplete(duration time.Duration) {
	s.basic.RecordItemComplete(duration)
	s.succeeded.Inc()
	s.itemDuration.Observe(duration.Seconds())
}

// RecordItemError implements batch.StatsCollector.
func (s *PrometheusStats) RecordItemError() {
	s.basic.RecordItemError()
	s.failed.Inc()
}

// RecordItemSkipped implements batch.StatsCollector.
func (s *PrometheusStats) RecordItemSkipped() {
	s.basic.RecordItemSkipped()
	s.skipped.Inc()
}

// RecordSourceError implements batch.StatsCollector.
func (s *PrometheusStats) RecordSourceError() {
	s.basic.RecordSourceError()
	s.sourceErrors.Inc()
}

// RecordRateLimitWait implements batch.StatsCollector.
func (s *PrometheusStats) RecordRateLimitWait(d time.Duration) {
	s.basic.RecordRateLimitWait(d)
	s.rateLimitWait.Observe(d.Seconds())
}

// GetStats implements batch.StatsCollector.
func (s *PrometheusStats) GetStats() batch.Stats {
	return s.basic.GetStats()
}
