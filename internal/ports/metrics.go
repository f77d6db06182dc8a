package ports

import (
	"time"

	"opportunityScanner/internal/domain"
)

// ScanMetrics records scan-level observations.
type ScanMetrics interface {
	// RecordScan records the outcome of a whole scan.
	RecordScan(status domain.ScanStatus, result *domain.ScanResult, duration time.Duration)
	// RecordKlineFetch records the outcome of one candidate's candle fetch.
	RecordKlineFetch(outcome domain.KlineFetchOutcome)
}

// NopMetrics discards all observations.
type NopMetrics struct{}

func (NopMetrics) RecordScan(domain.ScanStatus, *domain.ScanResult, time.Duration) {}
func (NopMetrics) RecordKlineFetch(domain.KlineFetchOutcome) {}
