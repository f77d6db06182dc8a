package scanner

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"opportunityScanner/internal/domain"
	"opportunityScanner/internal/ports"
)

// Phase-2 defaults.
const (
	DefaultInterval     = "1h"
	DefaultKlineLimit   = 100
	DefaultWorkers      = 5
	DefaultFetchTimeout = 10 * time.Second
	DefaultMinScore     = 70

	compositeBase = 50
)

// Analyzer computes technical signals from klines. indicators.Engine implements it.
type Analyzer interface {
	Analyze(klines []*domain.Kline, currentPrice float64) domain.TechnicalSignals
}

// TechnicalConfig controls the Phase-2 scorer.
type TechnicalConfig struct {
	Interval     string        // Kline interval (e.g., "1h")
	Limit        int           // Klines requested per candidate
	Workers      int           // Maximum concurrent kline fetches
	FetchTimeout time.Duration // Timeout for each kline fetch
	MinScore     int           // Opportunities below this score are dropped
}

func (c TechnicalConfig) withDefaults() TechnicalConfig {
	if c.Interval == "" {
		c.Interval = DefaultInterval
	}
	if c.Limit <= 0 {
		c.Limit = DefaultKlineLimit
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}
	if c.MinScore <= 0 {
		c.MinScore = DefaultMinScore
	}
	return c
}

// TechnicalScorer fetches klines for each candidate and turns it into a scored opportunity.
type TechnicalScorer struct {
	gateway  ports.MarketDataGateway
	analyzer Analyzer
	cfg      TechnicalConfig
	logger   ports.Logger
	metrics  ports.ScanMetrics
}

// NewTechnicalScorer creates a Phase-2 scorer. metrics may be nil.
func NewTechnicalScorer(gateway ports.MarketDataGateway, analyzer Analyzer, cfg TechnicalConfig, logger ports.Logger, metrics ports.ScanMetrics) (*TechnicalScorer, error) {
	if gateway == nil {
		return nil, fmt.Errorf("market data gateway is required: %w", ports.ErrConfigurationError)
	}
	if analyzer == nil {
		return nil, fmt.Errorf("analyzer is required: %w", ports.ErrConfigurationError)
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required: %w", ports.ErrConfigurationError)
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &TechnicalScorer{
		gateway:  gateway,
		analyzer: analyzer,
		cfg:      cfg.withDefaults(),
		logger:   logger,
		metrics:  metrics,
	}, nil
}

type scoredCandidate struct {
	opportunity domain.Opportunity
	fallback    bool
}

// Score scores every candidate and keeps those reaching the minimum score, in candidate order.
// Kline failures degrade the affected candidate to the fallback score; they are never returned.
func (s *TechnicalScorer) Score(ctx context.Context, candidates []domain.Candidate) (opps []domain.Opportunity, fallbackCount int) {
	results := make([]scoredCandidate, len(candidates))

	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			results[i] = s.scoreCandidate(ctx, c)
			return nil
		})
	}
	_ = g.Wait() // workers never fail

	opps = make([]domain.Opportunity, 0, len(results))
	for _, r := range results {
		if r.fallback {
			fallbackCount++
		}
		if r.opportunity.Score >= s.cfg.MinScore {
			opps = append(opps, r.opportunity)
		}
	}
	return opps, fallbackCount
}

func (s *TechnicalScorer) scoreCandidate(ctx context.Context, c domain.Candidate) scoredCandidate {
	fields := map[string]interface{}{"symbol": c.Symbol}

	klines, err := s.fetchKlines(ctx, c.Symbol)
	switch {
	case err != nil:
		s.metrics.RecordKlineFetch(domain.KlineFetchError)
		fields["error"] = err.Error()
		s.logger.Warn(ctx, "Kline fetch failed, using fallback score", fields)
		return scoredCandidate{opportunity: fallbackOpportunity(c), fallback: true}
	case len(klines) < domain.MinAnalysisKlines:
		s.metrics.RecordKlineFetch(domain.KlineFetchInsufficient)
		fields["klines"] = len(klines)
		s.logger.Warn(ctx, "Insufficient klines, using fallback score", fields)
		return scoredCandidate{opportunity: fallbackOpportunity(c), fallback: true}
	}
	s.metrics.RecordKlineFetch(domain.KlineFetchOK)

	sig := s.analyzer.Analyze(klines, c.Price)
	score := CompositeScore(sig, c.Volume, c.PriceChangePct)
	fields["score"] = score
	fields["rsi"] = sig.RSI
	s.logger.Debug(ctx, "Candidate scored", fields)

	return scoredCandidate{opportunity: domain.Opportunity{
		Symbol:         c.Symbol,
		Score:          score,
		Price:          c.Price,
		Volume24h:      c.Volume,
		PriceChangePct: c.PriceChangePct,
		Signals:        append([]string(nil), sig.Summary...),
	}}
}

func (s *TechnicalScorer) fetchKlines(ctx context.Context, symbol string) ([]*domain.Kline, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()
	return s.gateway.FetchKlines(fetchCtx, symbol, s.cfg.Interval, s.cfg.Limit)
}

// CompositeScore combines indicator signals, liquidity and the 24h move into an opportunity score.
// The result is not clamped.
func CompositeScore(sig domain.TechnicalSignals, volume24h, priceChangePct float64) int {
	score := compositeBase

	// RSI zone
	switch {
	case sig.RSI >= 30 && sig.RSI <= 45:
		score += 15
	case sig.RSI >= 50 && sig.RSI <= 65:
		score += 10
	case sig.RSI > 75:
		score -= 15
	case sig.RSI < 25:
		score -= 10
	}

	// MA alignment
	switch {
	case sig.AboveMA20 && sig.AboveMA50 && sig.MA20AboveMA50:
		score += 15
	case sig.AboveMA20 && sig.MA20AboveMA50:
		score += 10
	case !sig.AboveMA20 && !sig.AboveMA50:
		score -= 10
	}

	// Volume confirmation
	switch {
	case sig.VolumeIncreasePct > 50:
		score += 12
	case sig.VolumeIncreasePct > 25:
		score += 8
	case sig.VolumeIncreasePct < -30:
		score -= 8
	}

	if sig.NearLowerBand {
		score += 8
	} else if sig.NearUpperBand {
		score -= 5
	}

	if sig.MACDBullish {
		score += 7
	}

	switch {
	case sig.TrendStrength > 70:
		score += 8
	case sig.TrendStrength < 30:
		score -= 5
	}

	if volume24h > liquidVolume {
		score += 5
	}
	if priceChangePct > 20 {
		score -= 15
	}
	return score
}

// FallbackScore scores a candidate from ticker data alone.
func FallbackScore(priceChangePct, volume24h float64) int {
	score := compositeBase
	if priceChangePct > 0 && priceChangePct <= 15 {
		score += 15
	}
	if volume24h > liquidVolume {
		score += 8
	}
	return score
}

func fallbackOpportunity(c domain.Candidate) domain.Opportunity {
	signals := make([]string, 0, 3)
	if c.PriceChangePct > 0 && c.PriceChangePct <= 15 {
		signals = append(signals, fmt.Sprintf("Positive 24h momentum +%.2f%%", c.PriceChangePct))
	} else {
		signals = append(signals, fmt.Sprintf("24h change %+.2f%%", c.PriceChangePct))
	}
	if c.Volume > liquidVolume {
		signals = append(signals, "High liquidity")
	}
	signals = append(signals, "Limited candle data (momentum-only score)")

	return domain.Opportunity{
		Symbol:         c.Symbol,
		Score:          FallbackScore(c.PriceChangePct, c.Volume),
		Price:          c.Price,
		Volume24h:      c.Volume,
		PriceChangePct: c.PriceChangePct,
		Signals:        signals,
	}
}
