package indicators

// SMA computes the simple mean of the trailing period values.
// When fewer values are available the mean of all of them is returned.
func SMA(values []float64, period int) float64 {
	return mean(tail(values, period))
}

// EMA computes the exponential moving average seeded with values[0].
// Early values are biased toward the first sample; this matches the
// scanner's historical output and is kept for reproducibility.
func EMA(values []float64, period int) float64 {
	return EMAWithSeed(values, period, SeedFirstValue)
}

// EMAWithSeed computes the exponential moving average with multiplier
// 2/(period+1) using the given seeding strategy. Returns 0 for empty input.
func EMAWithSeed(values []float64, period int, seed EMASeed) float64 {
	if len(values) == 0 {
		return 0
	}
	if period <= 0 {
		period = 1
	}
	multiplier := 2.0 / float64(period+1)

	ema := values[0]
	start := 1
	if seed == SeedSMA {
		n := period
		if n > len(values) {
			n = len(values)
		}
		ema = mean(values[:n])
		start = n
	}

	for i := start; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
	}
	return ema
}
