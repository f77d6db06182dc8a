package scanner

import (
	"strings"

	"opportunityScanner/internal/domain"
)

// Phase-1 defaults.
const (
	DefaultQuoteSuffix    = "_USDT"
	DefaultMinQuoteVolume = 100_000.0
	DefaultMinBasicScore  = 55

	basicScoreBase     = 50
	liquidVolume       = 1_000_000.0
	highlyLiquidVolume = 10_000_000.0
)

// DefaultStableAssets lists base assets whose pairs against the quote are stable-vs-stable.
var DefaultStableAssets = []string{"USDC", "USDT", "BUSD", "DAI", "TUSD", "USDP", "FDUSD", "USDD", "PYUSD", "EUR"}

// MomentumConfig controls the Phase-1 filter.
type MomentumConfig struct {
	QuoteSuffix    string
	StableAssets   []string
	MinQuoteVolume float64
	MinBasicScore  int
}

// DefaultMomentumConfig returns the standard Phase-1 settings.
func DefaultMomentumConfig() MomentumConfig {
	return MomentumConfig{
		QuoteSuffix:    DefaultQuoteSuffix,
		StableAssets:   DefaultStableAssets,
		MinQuoteVolume: DefaultMinQuoteVolume,
		MinBasicScore:  DefaultMinBasicScore,
	}
}

func (c MomentumConfig) withDefaults() MomentumConfig {
	def := DefaultMomentumConfig()
	if c.QuoteSuffix == "" {
		c.QuoteSuffix = def.QuoteSuffix
	}
	if c.StableAssets == nil {
		c.StableAssets = def.StableAssets
	}
	if c.MinQuoteVolume <= 0 {
		c.MinQuoteVolume = def.MinQuoteVolume
	}
	if c.MinBasicScore <= 0 {
		c.MinBasicScore = def.MinBasicScore
	}
	return c
}

// FilterMomentum narrows the ticker universe to candidates worth fetching candles for.
// Candidates keep the universe order.
func FilterMomentum(tickers []domain.Ticker, cfg MomentumConfig) []domain.Candidate {
	cfg = cfg.withDefaults()

	candidates := make([]domain.Candidate, 0)
	for _, t := range tickers {
		if !strings.HasSuffix(t.Symbol, cfg.QuoteSuffix) {
			continue
		}
		if isStablePair(t.Symbol, cfg.QuoteSuffix, cfg.StableAssets) {
			continue
		}
		if t.VolumeQuote < cfg.MinQuoteVolume {
			continue
		}

		change := t.PriceChangePct()
		score := BasicScore(change, t.VolumeQuote)
		if score < cfg.MinBasicScore {
			continue
		}
		candidates = append(candidates, domain.Candidate{
			Symbol:         t.Symbol,
			Price:          t.LastPrice,
			Volume:         t.VolumeQuote,
			PriceChangePct: change,
			BasicScore:     score,
			Ticker:         t,
		})
	}
	return candidates
}

// BasicScore is the cheap Phase-1 score from the 24h change and quote volume.
// Small positive moves score highest, runaway moves are penalized and deep dips
// get a contrarian bonus.
func BasicScore(changePct, volumeQuote float64) int {
	score := basicScoreBase

	switch {
	case changePct > 30:
		score -= 10
	case changePct > 15:
		score += 3
	case changePct > 5:
		score += 8
	case changePct > 0:
		score += 10
	case changePct < -10:
		score += 5
	}

	if volumeQuote > liquidVolume {
		score += 5
	}
	if volumeQuote > highlyLiquidVolume {
		score += 5
	}
	return score
}

// isStablePair matches the whole base asset, so DAI_USDT is excluded but DAIX_USDT is not.
func isStablePair(symbol, quoteSuffix string, stableAssets []string) bool {
	base := strings.TrimSuffix(symbol, quoteSuffix)
	for _, asset := range stableAssets {
		if base == asset {
			return true
		}
	}
	return false
}
