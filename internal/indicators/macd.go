package indicators

const (
	macdFastPeriod   = 12
	macdSlowPeriod   = 26
	macdSignalPeriod = 9
)

// MACDResult holds the MACD line and its signal line.
type MACDResult struct {
	MACD   float64
	Signal float64
}

// Bullish reports whether the MACD line is above the signal line.
func (m MACDResult) Bullish() bool {
	return m.MACD > m.Signal
}

// MACD computes MACD(12,26) with a 9-period signal line, seeding EMAs with the first value.
func MACD(closes []float64) MACDResult {
	return MACDWithSeed(closes, SeedFirstValue)
}

// MACDWithSeed computes MACD(12,26,9). The signal line is the EMA of the MACD
// values recomputed from scratch on each of the last nine growing prefixes of
// closes. Requires at least 26 closes, otherwise returns zeros.
func MACDWithSeed(closes []float64, seed EMASeed) MACDResult {
	if len(closes) < macdSlowPeriod {
		return MACDResult{}
	}

	line := macdLine(closes, seed)

	start := len(closes) - macdSignalPeriod + 1
	if start < macdSlowPeriod {
		start = macdSlowPeriod
	}
	history := make([]float64, 0, macdSignalPeriod)
	for end := start; end <= len(closes); end++ {
		history = append(history, macdLine(closes[:end], seed))
	}

	return MACDResult{
		MACD:   line,
		Signal: EMAWithSeed(history, macdSignalPeriod, seed),
	}
}

func macdLine(closes []float64, seed EMASeed) float64 {
	return EMAWithSeed(closes, macdFastPeriod, seed) - EMAWithSeed(closes, macdSlowPeriod, seed)
}
