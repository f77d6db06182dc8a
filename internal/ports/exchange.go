package ports

import (
	"context"

	"opportunityScanner/internal/domain"
)

// MarketDataGateway fetches raw market data from an exchange. It never computes indicators.
type MarketDataGateway interface {
	// FetchTickers retrieves the 24h snapshot for the full instrument universe.
	FetchTickers(ctx context.Context) ([]domain.Ticker, error)

	// FetchKlines retrieves up to limit historical klines for a symbol, oldest first.
	// Callers treat an error as "insufficient data", not as a fatal condition.
	FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]*domain.Kline, error)
}

// FundingRateProvider retrieves perpetual funding rates keyed by exchange symbol.
type FundingRateProvider interface {
	// FetchFundingRates returns the latest funding rate per symbol as a fraction (0.0001 = 0.01%).
	FetchFundingRates(ctx context.Context) (map[string]float64, error)
}
