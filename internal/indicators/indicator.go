// Package indicators implements the technical indicators used to score
// instruments. Every function is pure: no I/O, no clock, no randomness.
package indicators

import "fmt"

// EMASeed selects how an exponential moving average is initialised.
type EMASeed string

const (
	// SeedFirstValue seeds the EMA with the first sample.
	SeedFirstValue EMASeed = "first"
	// SeedSMA seeds the EMA with the simple mean of the first period samples.
	SeedSMA EMASeed = "sma"
)

// ParseEMASeed converts a config string to an EMASeed.
func ParseEMASeed(s string) (EMASeed, error) {
	switch EMASeed(s) {
	case "", SeedFirstValue:
		return SeedFirstValue, nil
	case SeedSMA:
		return SeedSMA, nil
	default:
		return "", fmt.Errorf("unsupported EMA seed %q (want %q or %q)", s, SeedFirstValue, SeedSMA)
	}
}

// Config holds the indicator periods used by Engine.
type Config struct {
	RSIPeriod           int     // e.g., 14
	ShortMAPeriod       int     // e.g., 20
	LongMAPeriod        int     // e.g., 50
	BollingerPeriod     int     // e.g., 20
	BollingerMultiplier float64 // e.g., 2
	EMASeed             EMASeed
}

// DefaultConfig returns the standard periods.
func DefaultConfig() Config {
	return Config{
		RSIPeriod:           DefaultRSIPeriod,
		ShortMAPeriod:       20,
		LongMAPeriod:        50,
		BollingerPeriod:     DefaultBollingerPeriod,
		BollingerMultiplier: DefaultBollingerMultiplier,
		EMASeed:             SeedFirstValue,
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

// tail returns the last n values, or all of them when fewer are available.
func tail(values []float64, n int) []float64 {
	if n <= 0 || len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}
