package indicators

// DefaultRSIPeriod is the standard RSI lookback.
const DefaultRSIPeriod = 14

// NeutralRSI is returned when there is not enough data.
const NeutralRSI = 50.0

// RSI computes the Relative Strength Index over the last period+1 closes only.
// Average gain and loss are plain means over that window; no smoothing is
// carried over from earlier bars. Returns NeutralRSI when fewer than period+1
// closes are available, and 100 when the average loss is zero.
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return NeutralRSI
	}

	window := closes[len(closes)-period-1:]
	var gains, losses float64
	for i := 1; i < len(window); i++ {
		change := window[i] - window[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	rsi := 100 - (100 / (1 + rs))

	// Ensure RSI is within bounds
	if rsi > 100 {
		rsi = 100
	} else if rsi < 0 {
		rsi = 0
	}
	return rsi
}
