package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"opportunityScanner/internal/domain"
)

// Registry holds the scanner's Prometheus metrics. It implements ports.ScanMetrics.
type Registry struct {
	registry *prometheus.Registry

	Scans          *prometheus.CounterVec
	ScanDuration   prometheus.Histogram
	ScannedPairs   prometheus.Gauge
	Opportunities  prometheus.Gauge
	FallbackScores prometheus.Gauge
	KlineFetches   *prometheus.CounterVec
}

// NewRegistry creates a registry with all scanner metrics registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		Scans: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scanner_scans_total",
				Help: "Total number of scans by outcome",
			},
			[]string{"status"},
		),

		ScanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scanner_scan_duration_seconds",
				Help:    "Wall-clock duration of a full scan in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
			},
		),

		ScannedPairs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "scanner_scanned_pairs",
				Help: "Size of the ticker universe in the last scan",
			},
		),

		Opportunities: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "scanner_opportunities",
				Help: "Number of opportunities returned by the last scan",
			},
		),

		FallbackScores: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "scanner_fallback_scores",
				Help: "Number of candidates scored without candle analysis in the last scan",
			},
		),

		KlineFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scanner_kline_fetch_total",
				Help: "Total number of candle fetches by outcome",
			},
			[]string{"outcome"},
		),
	}

	r.registry.MustRegister(r.Scans, r.ScanDuration, r.ScannedPairs, r.Opportunities, r.FallbackScores, r.KlineFetches)
	return r
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// RecordScan records the outcome of a whole scan.
func (r *Registry) RecordScan(status domain.ScanStatus, result *domain.ScanResult, duration time.Duration) {
	r.Scans.WithLabelValues(string(status)).Inc()
	r.ScanDuration.Observe(duration.Seconds())
	if result == nil {
		return
	}
	r.ScannedPairs.Set(float64(result.ScannedPairs))
	r.Opportunities.Set(float64(len(result.Opportunities)))
	r.FallbackScores.Set(float64(result.FallbackCount))
}

// RecordKlineFetch records the outcome of one candidate's candle fetch.
func (r *Registry) RecordKlineFetch(outcome domain.KlineFetchOutcome) {
	r.KlineFetches.WithLabelValues(string(outcome)).Inc()
}

// WriteTextfile writes all metrics in the node_exporter textfile format.
func (r *Registry) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile '%s': %w", path, err)
	}
	return nil
}
