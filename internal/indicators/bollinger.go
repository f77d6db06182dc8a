package indicators

import "math"

const (
	DefaultBollingerPeriod     = 20
	DefaultBollingerMultiplier = 2.0
)

// Bands holds Bollinger band levels.
type Bands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// BollingerBands computes mean ± multiplier·σ (population) of the trailing
// period closes. With fewer than period closes it falls back to ±5% around the
// last close; with no closes it returns zero bands.
func BollingerBands(closes []float64, period int, multiplier float64) Bands {
	if len(closes) == 0 {
		return Bands{}
	}
	if period <= 0 || len(closes) < period {
		last := closes[len(closes)-1]
		return Bands{Upper: last * 1.05, Middle: last, Lower: last * 0.95}
	}

	window := closes[len(closes)-period:]
	middle := mean(window)
	variance := 0.0
	for _, c := range window {
		variance += (c - middle) * (c - middle)
	}
	stdDev := math.Sqrt(variance / float64(period))

	return Bands{
		Upper:  middle + multiplier*stdDev,
		Middle: middle,
		Lower:  middle - multiplier*stdDev,
	}
}
