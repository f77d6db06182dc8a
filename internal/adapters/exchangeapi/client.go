package exchangeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"opportunityScanner/internal/domain"
	"opportunityScanner/internal/ports"
)

const (
	pathTickers      = "/market/tickers"
	pathKlines       = "/market/klines"
	pathFundingRates = "/market/funding-rates"

	maxErrorBodyBytes = 512
)

// Client implements ports.MarketDataGateway and ports.FundingRateProvider
// against the exchange's signed REST API.
type Client struct {
	baseURL    *url.URL
	apiKey     string
	apiSecret  string
	httpClient *http.Client
	clock      func() time.Time
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     ports.Logger
}

// Config holds configuration specific to the exchange REST adapter.
type Config struct {
	BaseURL            string
	APIKey             string
	APISecret          string
	HTTPClient         *http.Client     // Defaults to a client with a 15s timeout
	Clock              func() time.Time // Defaults to time.Now; inject a fixed clock in tests
	RequestsPerSecond  float64          // Token bucket refill rate (e.g., 10)
	Burst              int              // Token bucket size (e.g., 5)
	BreakerMaxFailures uint32           // Consecutive failures before the breaker opens (e.g., 5)
	BreakerOpenTimeout time.Duration    // How long the breaker stays open (e.g., 30s)
	Logger             ports.Logger
}

// statusError is returned for non-2xx responses.
type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// New creates a new exchange REST client.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for exchange client")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required for exchange client: %w", ports.ErrConfigurationError)
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, ports.ErrConfigurationError)
	}
	if cfg.APIKey == "" || cfg.APISecret == "" {
		cfg.Logger.Warn(context.Background(), "API key or secret is empty. Signed requests will be rejected by the exchange.")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}
	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	openTimeout := cfg.BreakerOpenTimeout
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}

	c := &Client{
		baseURL:    base,
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		httpClient: httpClient,
		clock:      clock,
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		logger:     cfg.Logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "exchange-rest",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: breakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn(context.Background(), "Circuit breaker state changed", map[string]interface{}{
				"breaker": name, "from": from.String(), "to": to.String(),
			})
		},
	})

	cfg.Logger.Info(context.Background(), "Exchange client configured", map[string]interface{}{"baseURL": base.String(), "rps": rps, "burst": burst})
	return c, nil
}

// breakerSuccess decides which errors count against the breaker: only those that
// suggest the exchange itself is unhealthy.
func breakerSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.Code < 500 && se.Code != http.StatusTooManyRequests
	}
	return isDecodeError(err)
}

// handleError translates transport and HTTP errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string, fields map[string]interface{}) error {
	if err == nil {
		return nil
	}
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["operation"] = operation

	var mappedErr error
	var se *statusError
	switch {
	case errors.As(err, &se):
		fields["status"] = se.Code
		switch {
		case se.Code == http.StatusTooManyRequests:
			mappedErr = ports.ErrRateLimited
		case se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden:
			mappedErr = ports.ErrAuthenticationFailed
		case se.Code == http.StatusNotFound:
			mappedErr = ports.ErrNotFound
		case se.Code >= 500:
			mappedErr = ports.ErrExchangeUnavailable
		default:
			mappedErr = ports.ErrInvalidRequest
		}
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		mappedErr = ports.ErrExchangeUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		mappedErr = ports.ErrTimeout
	case errors.Is(err, context.Canceled):
		mappedErr = ports.ErrContextCanceled
	case isDecodeError(err):
		mappedErr = ports.ErrInvalidResponse
	case strings.Contains(err.Error(), "connection refused"),
		strings.Contains(err.Error(), "connection reset by peer"),
		strings.Contains(err.Error(), "no such host"):
		mappedErr = ports.ErrConnectionFailed
	default:
		mappedErr = ports.ErrUnknown
	}

	c.logger.Debug(ctx, operation+" failed", mergeFields(fields, map[string]interface{}{"error": err.Error()}))
	return fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
}

type decodeError struct{ err error }

func (e *decodeError) Error() string { return "decode response: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

func isDecodeError(err error) bool {
	var de *decodeError
	return errors.As(err, &de)
}

func mergeFields(a, b map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

// get performs a signed, rate-limited GET and decodes the JSON body into target.
func (c *Client) get(ctx context.Context, path string, params url.Values, target interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		// rate.Limiter reports a context deadline that would expire before a token as a plain error
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.doGet(ctx, path, params, target)
	})
	return err
}

func (c *Client) doGet(ctx context.Context, path string, params url.Values, target interface{}) error {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	u.RawQuery = CanonicalQuery(params, c.clock())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set(headerAPIKey, c.apiKey)
	req.Header.Set(headerSignature, Sign(c.apiSecret, http.MethodGet, u.Path, u.RawQuery))
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &statusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return &decodeError{err: err}
	}
	return nil
}

// FetchTickers retrieves the 24h snapshot for every instrument.
func (c *Client) FetchTickers(ctx context.Context) ([]domain.Ticker, error) {
	op := "FetchTickers"
	var env tickersEnvelope
	if err := c.get(ctx, pathTickers, nil, &env); err != nil {
		return nil, c.handleError(ctx, err, op, nil)
	}

	tickers, skipped := translateTickers(env.Data.Tickers)
	if skipped > 0 {
		c.logger.Debug(ctx, op+": skipped malformed tickers", map[string]interface{}{"skipped": skipped})
	}
	return tickers, nil
}

// FetchKlines retrieves up to limit historical klines for symbol, oldest first.
func (c *Client) FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]*domain.Kline, error) {
	op := "FetchKlines"
	fields := map[string]interface{}{"symbol": symbol, "interval": interval}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(limit))

	var env klinesEnvelope
	if err := c.get(ctx, pathKlines, params, &env); err != nil {
		return nil, c.handleError(ctx, err, op, fields)
	}

	klines, err := translateKlines(env.Data.Klines, symbol, interval)
	if err != nil {
		return nil, c.handleError(ctx, &decodeError{err: err}, op, fields)
	}
	return klines, nil
}

// FetchFundingRates retrieves the latest funding rate per symbol.
func (c *Client) FetchFundingRates(ctx context.Context) (map[string]float64, error) {
	op := "FetchFundingRates"
	var env fundingEnvelope
	if err := c.get(ctx, pathFundingRates, nil, &env); err != nil {
		return nil, c.handleError(ctx, err, op, nil)
	}
	rates, skipped := translateFundingRates(env)
	if skipped > 0 {
		c.logger.Debug(ctx, op+": skipped unparsable funding rates", map[string]interface{}{"skipped": skipped})
	}
	return rates, nil
}
