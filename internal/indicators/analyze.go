package indicators

import (
	"fmt"

	"opportunityScanner/internal/domain"
)

// Band proximity tolerances.
const (
	nearLowerBandFactor = 1.02
	nearUpperBandFactor = 0.98
)

// Engine computes a TechnicalSignals snapshot from klines.
type Engine struct {
	cfg Config
}

// NewEngine creates an Engine, filling zero periods with defaults.
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.RSIPeriod <= 0 {
		cfg.RSIPeriod = def.RSIPeriod
	}
	if cfg.ShortMAPeriod <= 0 {
		cfg.ShortMAPeriod = def.ShortMAPeriod
	}
	if cfg.LongMAPeriod <= 0 {
		cfg.LongMAPeriod = def.LongMAPeriod
	}
	if cfg.BollingerPeriod <= 0 {
		cfg.BollingerPeriod = def.BollingerPeriod
	}
	if cfg.BollingerMultiplier <= 0 {
		cfg.BollingerMultiplier = def.BollingerMultiplier
	}
	if cfg.EMASeed == "" {
		cfg.EMASeed = def.EMASeed
	}
	return &Engine{cfg: cfg}
}

// Analyze computes indicator signals for klines (oldest first) at currentPrice.
func (e *Engine) Analyze(klines []*domain.Kline, currentPrice float64) domain.TechnicalSignals {
	closes := domain.Closes(klines)
	volumes := domain.Volumes(klines)

	rsi := RSI(closes, e.cfg.RSIPeriod)
	ma20 := SMA(closes, e.cfg.ShortMAPeriod)
	ma50 := SMA(closes, e.cfg.LongMAPeriod)
	bands := BollingerBands(closes, e.cfg.BollingerPeriod, e.cfg.BollingerMultiplier)
	macd := MACDWithSeed(closes, e.cfg.EMASeed)

	sig := domain.TechnicalSignals{
		RSI:               rsi,
		MA20:              ma20,
		MA50:              ma50,
		AboveMA20:         currentPrice > ma20,
		AboveMA50:         currentPrice > ma50,
		MA20AboveMA50:     ma20 > ma50,
		VolumeIncreasePct: VolumeIncreasePct(volumes),
		TrendStrength:     TrendStrength(closes),
		NearLowerBand:     currentPrice <= bands.Lower*nearLowerBandFactor,
		NearUpperBand:     currentPrice >= bands.Upper*nearUpperBandFactor,
		MACDBullish:       macd.Bullish(),
	}
	sig.Summary = summarize(sig)
	return sig
}

// summarize builds the human-readable signal list in fixed precedence:
// RSI zone, MA alignment, volume surge, MACD, Bollinger proximity.
func summarize(s domain.TechnicalSignals) []string {
	summary := make([]string, 0, 5)

	switch {
	case s.RSI < 30:
		summary = append(summary, fmt.Sprintf("RSI oversold (%.1f)", s.RSI))
	case s.RSI <= 45:
		summary = append(summary, fmt.Sprintf("RSI recovering (%.1f)", s.RSI))
	case s.RSI >= 50 && s.RSI <= 65:
		summary = append(summary, fmt.Sprintf("RSI bullish momentum (%.1f)", s.RSI))
	case s.RSI > 70:
		summary = append(summary, fmt.Sprintf("RSI overbought (%.1f)", s.RSI))
	}

	switch {
	case s.AboveMA20 && s.AboveMA50 && s.MA20AboveMA50:
		summary = append(summary, "Price above MA20 and MA50 (bullish alignment)")
	case s.AboveMA20 && s.MA20AboveMA50:
		summary = append(summary, "Price above MA20 in uptrend")
	case !s.AboveMA20 && !s.AboveMA50:
		summary = append(summary, "Price below MA20 and MA50")
	}

	switch {
	case s.VolumeIncreasePct > 50:
		summary = append(summary, fmt.Sprintf("Volume surge +%.0f%%", s.VolumeIncreasePct))
	case s.VolumeIncreasePct > 25:
		summary = append(summary, fmt.Sprintf("Rising volume +%.0f%%", s.VolumeIncreasePct))
	}

	if s.MACDBullish {
		summary = append(summary, "MACD above signal line")
	}

	if s.NearLowerBand {
		summary = append(summary, "Near lower Bollinger band")
	} else if s.NearUpperBand {
		summary = append(summary, "Near upper Bollinger band")
	}

	return summary
}
