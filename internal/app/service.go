package app

import (
	"context"
	"fmt"
	"time"

	"opportunityScanner/internal/domain"
	"opportunityScanner/internal/ports"
)

// Scanner runs one market scan. scanner.Scanner implements it.
type Scanner interface {
	Scan(ctx context.Context) (*domain.ScanResult, error)
}

// TextfileWriter is implemented by metrics backends that can dump themselves to a file.
type TextfileWriter interface {
	WriteTextfile(path string) error
}

// ServiceConfig holds optional ScanService settings.
type ServiceConfig struct {
	MetricsTextfile string           // Empty disables the textfile export
	Clock           func() time.Time // Defaults to time.Now
}

// ScanService runs scans on behalf of a caller and owns everything the scanner itself
// does not: logging the outcome, storing history and exporting metrics.
type ScanService struct {
	logger  ports.Logger
	scanner Scanner
	repo    ports.ScanRepository // Optional
	metrics ports.ScanMetrics
	cfg     ServiceConfig
}

// NewScanService creates a new application service instance. repo and metrics may be nil.
func NewScanService(logger ports.Logger, scanner Scanner, repo ports.ScanRepository, metrics ports.ScanMetrics, cfg ServiceConfig) (*ScanService, error) {
	if logger == nil || scanner == nil {
		return nil, fmt.Errorf("missing required dependencies for ScanService")
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.MetricsTextfile != "" {
		if _, ok := metrics.(TextfileWriter); !ok {
			return nil, fmt.Errorf("metrics backend cannot write textfile '%s': %w", cfg.MetricsTextfile, ports.ErrConfigurationError)
		}
	}
	return &ScanService{
		logger:  logger,
		scanner: scanner,
		repo:    repo,
		metrics: metrics,
		cfg:     cfg,
	}, nil
}

// Run performs one scan and returns the scanner's result or error unchanged.
// History and metrics failures are logged, never returned.
func (s *ScanService) Run(ctx context.Context) (*domain.ScanResult, error) {
	startedAt := s.cfg.Clock()
	s.logger.Info(ctx, "Starting market scan")

	result, err := s.scanner.Scan(ctx)
	duration := s.cfg.Clock().Sub(startedAt)
	if err != nil {
		s.metrics.RecordScan(domain.ScanStatusUnavailable, nil, duration)
		s.logger.Error(ctx, err, "Market scan could not run", map[string]interface{}{"duration": duration.String()})
		s.exportMetrics(ctx)
		return nil, err
	}

	status := domain.ScanStatusOK
	if len(result.Opportunities) == 0 {
		status = domain.ScanStatusEmpty
	}
	s.metrics.RecordScan(status, result, duration)

	fields := map[string]interface{}{
		"status":        string(status),
		"scannedPairs":  result.ScannedPairs,
		"opportunities": len(result.Opportunities),
		"fallback":      result.FallbackCount,
		"duration":      duration.String(),
	}
	if len(result.Opportunities) > 0 {
		fields["topSymbol"] = result.Opportunities[0].Symbol
		fields["topScore"] = result.Opportunities[0].Score
	}
	s.logger.Info(ctx, "Market scan complete", fields)

	if s.repo != nil {
		id, err := s.repo.SaveScan(ctx, result, startedAt)
		if err != nil {
			s.logger.Error(ctx, err, "Failed to save scan history")
		} else {
			s.logger.Debug(ctx, "Scan history saved", map[string]interface{}{"scanID": id})
		}
	}

	s.exportMetrics(ctx)
	return result, nil
}

func (s *ScanService) exportMetrics(ctx context.Context) {
	if s.cfg.MetricsTextfile == "" {
		return
	}
	if err := s.metrics.(TextfileWriter).WriteTextfile(s.cfg.MetricsTextfile); err != nil {
		s.logger.Error(ctx, err, "Failed to export metrics")
	}
}
