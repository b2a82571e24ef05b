// Package metrics exports batch statistics to Prometheus.
//
// PrometheusStats implements batch.StatsCollector, so it can be passed as
// Options.Stats. Every collector carries a constant "batch" label, which
// lets several engines share one registry:
//
//	reg := prometheus.NewRegistry()
//	stats, err := metrics.NewPrometheusStats(reg, "crawler")
//	if err != nil {
//		return err
//	}
//	b := batch.New(fetch, &batch.Options{Stats: stats})
//
// Server serves a registry over HTTP for scraping.
package metrics
