package domain

// TechnicalSignals is the indicator snapshot computed for one instrument.
type TechnicalSignals struct {
	RSI               float64  `json:"rsi"`
	MA20              float64  `json:"ma20"`
	MA50              float64  `json:"ma50"`
	AboveMA20         bool     `json:"above_ma20"`
	AboveMA50         bool     `json:"above_ma50"`
	MA20AboveMA50     bool     `json:"ma20_above_ma50"`
	VolumeIncreasePct float64  `json:"volume_increase_pct"`
	TrendStrength     float64  `json:"trend_strength"`
	NearLowerBand     bool     `json:"near_lower_band"`
	NearUpperBand     bool     `json:"near_upper_band"`
	MACDBullish       bool     `json:"macd_bullish"`
	Summary           []string `json:"summary"`
}

// Opportunity is a scored candidate returned to the caller.
// Score is advisory: it is not clamped and may leave the 0..100 range.
type Opportunity struct {
	Symbol         string   `json:"symbol"`
	Score          int      `json:"score"`
	Price          float64  `json:"price"`
	Volume24h      float64  `json:"volume_24h"`
	PriceChangePct float64  `json:"price_change_24h_pct"`
	Signals        []string `json:"signals"`
}

// ScanResult is the output of one scan.
type ScanResult struct {
	Opportunities  []Opportunity `json:"opportunities"`
	ScannedPairs   int           `json:"scanned_pairs"`
	FallbackCount  int           `json:"fallback_count,omitempty"`  // candidates scored without candle analysis
	FundingApplied int           `json:"funding_applied,omitempty"` // opportunities adjusted by funding rate
}
