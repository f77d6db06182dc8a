// Package scanner implements the phased market scan: a cheap momentum filter over the
// ticker universe, technical scoring of the survivors, a funding-rate adjustment and ranking.
// A scan holds no state between invocations.
package scanner

import (
	"context"
	"fmt"
	"time"

	"opportunityScanner/internal/domain"
	"opportunityScanner/internal/ports"
)

// DefaultFundingTimeout bounds the single funding-rate request.
const DefaultFundingTimeout = 10 * time.Second

// Config aggregates the settings of every phase.
type Config struct {
	Momentum       MomentumConfig
	Technical      TechnicalConfig
	TopN           int
	FundingTimeout time.Duration
	ScanTimeout    time.Duration // Zero disables the whole-scan deadline
}

// Scanner runs the full Fetch, Filter, Score, Adjust, Rank pipeline.
type Scanner struct {
	gateway ports.MarketDataGateway
	funding ports.FundingRateProvider
	scorer  *TechnicalScorer
	cfg     Config
	logger  ports.Logger
}

// New creates a Scanner. funding may be nil, in which case the funding adjustment is skipped.
func New(gateway ports.MarketDataGateway, funding ports.FundingRateProvider, analyzer Analyzer, cfg Config, logger ports.Logger, metrics ports.ScanMetrics) (*Scanner, error) {
	scorer, err := NewTechnicalScorer(gateway, analyzer, cfg.Technical, logger, metrics)
	if err != nil {
		return nil, err
	}

	cfg.Momentum = cfg.Momentum.withDefaults()
	cfg.Technical = scorer.cfg
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}
	if cfg.FundingTimeout <= 0 {
		cfg.FundingTimeout = DefaultFundingTimeout
	}

	return &Scanner{
		gateway: gateway,
		funding: funding,
		scorer:  scorer,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// Scan runs one snapshot scan. It fails only when the ticker universe cannot be fetched,
// in which case the error wraps ports.ErrScanUnavailable. An empty universe is not an error.
func (s *Scanner) Scan(ctx context.Context) (*domain.ScanResult, error) {
	if s.cfg.ScanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ScanTimeout)
		defer cancel()
	}

	tickers, err := s.gateway.FetchTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch ticker universe: %w: %w", ports.ErrScanUnavailable, err)
	}

	candidates := FilterMomentum(tickers, s.cfg.Momentum)
	s.logger.Info(ctx, "Momentum filter complete", map[string]interface{}{"universe": len(tickers), "candidates": len(candidates)})

	opps, fallbackCount := s.scorer.Score(ctx, candidates)
	s.logger.Info(ctx, "Technical scoring complete", map[string]interface{}{"opportunities": len(opps), "fallback": fallbackCount})

	adjusted, applied := AdjustForFunding(opps, s.fundingRates(ctx, len(opps)))

	return &domain.ScanResult{
		Opportunities:  Rank(adjusted, s.cfg.TopN),
		ScannedPairs:   len(tickers),
		FallbackCount:  fallbackCount,
		FundingApplied: applied,
	}, nil
}

// fundingRates returns the current rates, or nil when they are unavailable or not needed.
func (s *Scanner) fundingRates(ctx context.Context, opportunities int) map[string]float64 {
	if s.funding == nil || opportunities == 0 {
		return nil
	}

	fundingCtx, cancel := context.WithTimeout(ctx, s.cfg.FundingTimeout)
	defer cancel()

	rates, err := s.funding.FetchFundingRates(fundingCtx)
	if err != nil {
		s.logger.Warn(ctx, "Funding rates unavailable, skipping funding adjustment", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return rates
}
