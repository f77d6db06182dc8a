package domain

// Ticker is one instrument's 24h snapshot as reported by the exchange.
type Ticker struct {
	Symbol      string  // Exchange symbol (e.g., "BTC_USDT")
	OpenPrice   float64 // Price 24h ago
	LastPrice   float64 // Latest traded price
	High        float64 // 24h high
	Low         float64 // 24h low
	VolumeQuote float64 // 24h traded value in quote currency
}

// PriceChangePct returns the 24h change in percent, or 0 when the open price is not positive.
func (t Ticker) PriceChangePct() float64 {
	if t.OpenPrice <= 0 {
		return 0
	}
	return (t.LastPrice - t.OpenPrice) / t.OpenPrice * 100
}

// Candidate is an instrument that survived the momentum filter.
type Candidate struct {
	Symbol         string
	Price          float64
	Volume         float64
	PriceChangePct float64
	BasicScore     int
	Ticker         Ticker
}
