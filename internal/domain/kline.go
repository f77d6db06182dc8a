package domain

import "time"

// Kline represents a single candlestick (OHLCV bar).
type Kline struct {
	OpenTime  time.Time // Start time of the interval (zero if the exchange omitted it)
	CloseTime time.Time // End time of the interval
	Symbol    string    // Trading symbol
	Interval  string    // Kline interval (e.g., "1m", "1h")
	Open      float64   // Opening price
	High      float64   // Highest price
	Low       float64   // Lowest price
	Close     float64   // Closing price
	Volume    float64   // Trading volume
}

// MinAnalysisKlines is the minimum number of klines required for full technical analysis.
const MinAnalysisKlines = 20

// Closes extracts closing prices, oldest first.
func Closes(klines []*Kline) []float64 {
	out := make([]float64, 0, len(klines))
	for _, k := range klines {
		out = append(out, k.Close)
	}
	return out
}

// Volumes extracts volumes, oldest first.
func Volumes(klines []*Kline) []float64 {
	out := make([]float64, 0, len(klines))
	for _, k := range klines {
		out = append(out, k.Volume)
	}
	return out
}
