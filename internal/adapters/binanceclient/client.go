package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"opportunityScanner/internal/domain"
	"opportunityScanner/internal/ports"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
)

const (
	// Base URLs
	baseURLProduction = "https://fapi.binance.com"
	baseURLTestnet    = "https://testnet.binancefuture.com"
)

// premiumIndexFetcher is the subset of the futures API the funding source needs.
type premiumIndexFetcher interface {
	premiumIndex(ctx context.Context) ([]*futures.PremiumIndex, error)
}

type futuresFetcher struct {
	client *futures.Client
}

func (f futuresFetcher) premiumIndex(ctx context.Context) ([]*futures.PremiumIndex, error) {
	return f.client.NewPremiumIndexService().Do(ctx)
}

// Client reads public futures market data from Binance. It implements
// ports.FundingRateProvider and serves historical klines to the tooling.
type Client struct {
	futuresClient *futures.Client
	premium       premiumIndexFetcher
	quoteAsset    string
	quoteSuffix   string
	logger        ports.Logger
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey      string
	SecretKey   string
	UseTestnet  bool
	BaseURL     string // Overrides the production/testnet URL when set
	QuoteAsset  string // Binance quote asset (e.g., "USDT")
	QuoteSuffix string // Scanner symbol suffix the quote asset maps to (e.g., "_USDT")
	Logger      ports.Logger
}

// New creates a new Binance client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		cfg.Logger.Debug(context.Background(), "Binance APIKey or SecretKey is empty. Only public endpoints are used.")
	}

	client := futures.NewClient(cfg.APIKey, cfg.SecretKey)

	// Set BaseURL directly instead of using global futures.UseTestnet
	switch {
	case cfg.BaseURL != "":
		client.BaseURL = cfg.BaseURL
	case cfg.UseTestnet:
		client.BaseURL = baseURLTestnet
	default:
		client.BaseURL = baseURLProduction
	}
	cfg.Logger.Info(context.Background(), "Binance client configured", map[string]interface{}{"baseURL": client.BaseURL, "testnet": cfg.UseTestnet})

	quoteAsset := cfg.QuoteAsset
	if quoteAsset == "" {
		quoteAsset = "USDT"
	}
	quoteSuffix := cfg.QuoteSuffix
	if quoteSuffix == "" {
		quoteSuffix = "_" + quoteAsset
	}

	return &Client{
		futuresClient: client,
		premium:       futuresFetcher{client: client},
		quoteAsset:    quoteAsset,
		quoteSuffix:   quoteSuffix,
		logger:        cfg.Logger,
	}, nil
}

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1021: // Timestamp for this request is outside of the recvWindow
			mappedErr = ports.ErrTimeout
		case -1022, -2014, -2015: // Bad signature or API key
			mappedErr = ports.ErrAuthenticationFailed
		case -1100, -1101, -1102, -1103, -1104, -1105, -1106, -1111, -1115, -1116, -1117, -1120, -1121, -1125, -1127, -1128, -1130: // Parameter/Request format errors
			mappedErr = ports.ErrInvalidRequest
		case -1001, -1006, -1007: // Internal error, unexpected response, timeout on the Binance side
			mappedErr = ports.ErrExchangeUnavailable
		default:
			mappedErr = ports.ErrUnknown
		}
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
	}

	// Handle non-API errors (network, context cancellation, etc.)
	var finalErr error
	if errors.Is(err, context.DeadlineExceeded) {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	} else if errors.Is(err, context.Canceled) {
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	} else if strings.Contains(err.Error(), "use of closed network connection") ||
		strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "connection reset by peer") {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	} else {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrUnknown, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

// FetchFundingRates returns the last funding rate of every perpetual quoted in the
// configured asset, keyed by scanner symbol ("BTCUSDT" becomes "BTC_USDT").
func (c *Client) FetchFundingRates(ctx context.Context) (map[string]float64, error) {
	op := "FetchFundingRates"
	indexes, err := c.premium.premiumIndex(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	rates := make(map[string]float64, len(indexes))
	skipped := 0
	for _, idx := range indexes {
		if idx == nil {
			continue
		}
		symbol, ok := c.ScannerSymbol(idx.Symbol)
		if !ok {
			continue
		}
		rate, err := strconv.ParseFloat(idx.LastFundingRate, 64)
		if err != nil {
			skipped++
			continue
		}
		rates[symbol] = rate
	}
	if skipped > 0 {
		c.logger.Debug(ctx, op+": skipped unparsable funding rates", map[string]interface{}{"skipped": skipped})
	}
	c.logger.Debug(ctx, op+" successful", map[string]interface{}{"symbols": len(rates)})
	return rates, nil
}

// ScannerSymbol maps a Binance symbol ("BTCUSDT") to the scanner's form ("BTC_USDT").
func (c *Client) ScannerSymbol(binanceSymbol string) (string, bool) {
	base, ok := strings.CutSuffix(binanceSymbol, c.quoteAsset)
	if !ok || base == "" {
		return "", false
	}
	return base + c.quoteSuffix, true
}

// BinanceSymbol maps a scanner symbol ("BTC_USDT") to Binance's form ("BTCUSDT").
func (c *Client) BinanceSymbol(scannerSymbol string) string {
	if base, ok := strings.CutSuffix(scannerSymbol, c.quoteSuffix); ok {
		return base + c.quoteAsset
	}
	return strings.ReplaceAll(scannerSymbol, "_", "")
}

// GetKlines retrieves historical klines/candlestick data for the given symbol.
func (c *Client) GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]*domain.Kline, error) {
	op := "GetKlines"
	binanceKlines, err := c.futuresClient.NewKlinesService().Symbol(c.BinanceSymbol(symbol)).Interval(interval).Limit(limit).Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	domainKlines := make([]*domain.Kline, 0, len(binanceKlines))
	for _, bk := range binanceKlines {
		dk, err := translateBinanceKline(bk, symbol, interval)
		if err != nil {
			return nil, c.handleError(ctx, fmt.Errorf("failed to translate historical kline: %w", err), op)
		}
		domainKlines = append(domainKlines, dk)
	}

	return domainKlines, nil
}

// GetKlinesRange fetches all klines for a symbol/interval between start and end time.
func (c *Client) GetKlinesRange(ctx context.Context, symbol, interval string, start, end time.Time) ([]*domain.Kline, error) {
	op := "GetKlinesRange"
	var allKlines []*domain.Kline
	const maxLimit = 1500
	from := start

	for {
		klines, err := c.futuresClient.NewKlinesService().
			Symbol(c.BinanceSymbol(symbol)).
			Interval(interval).
			StartTime(from.UnixMilli()).
			EndTime(end.UnixMilli()).
			Limit(maxLimit).
			Do(ctx)
		if err != nil {
			return nil, c.handleError(ctx, err, op)
		}
		if len(klines) == 0 {
			break
		}
		for _, bk := range klines {
			dk, err := translateBinanceKline(bk, symbol, interval)
			if err != nil {
				return nil, c.handleError(ctx, fmt.Errorf("failed to translate historical kline range: %w", err), op)
			}
			allKlines = append(allKlines, dk)
		}
		last := klines[len(klines)-1]
		from = time.UnixMilli(last.CloseTime + 1)
		if from.After(end) || len(klines) < maxLimit {
			break
		}
	}

	return allKlines, nil
}

// --- Translation Helpers ---

func translateBinanceKline(bk *futures.Kline, symbol, interval string) (*domain.Kline, error) {
	if bk == nil {
		return nil, errors.New("received nil historical kline")
	}
	open, err := strconv.ParseFloat(bk.Open, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing open price '%s': %w", bk.Open, err)
	}
	high, err := strconv.ParseFloat(bk.High, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing high price '%s': %w", bk.High, err)
	}
	low, err := strconv.ParseFloat(bk.Low, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing low price '%s': %w", bk.Low, err)
	}
	cls, err := strconv.ParseFloat(bk.Close, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing close price '%s': %w", bk.Close, err)
	}
	vol, err := strconv.ParseFloat(bk.Volume, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing volume '%s': %w", bk.Volume, err)
	}

	return &domain.Kline{
		OpenTime:  time.UnixMilli(bk.OpenTime),
		CloseTime: time.UnixMilli(bk.CloseTime),
		Symbol:    symbol,
		Interval:  interval,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     cls,
		Volume:    vol,
	}, nil
}
