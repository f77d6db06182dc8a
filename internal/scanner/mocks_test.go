package scanner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"opportunityScanner/internal/domain"
)

// mockLogger implements ports.Logger for testing. Safe for concurrent use.
type mockLogger struct {
	mu       sync.Mutex
	warnMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnMsgs = append(m.warnMsgs, msg)
}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

var errKlinesUnavailable = errors.New("klines unavailable")

// mockGateway serves fixed tickers and per-symbol klines. Symbols without klines return an error.
type mockGateway struct {
	tickers    []domain.Ticker
	tickersErr error
	klines     map[string][]*domain.Kline
	delays     map[string]time.Duration
	block      bool // FetchKlines waits for the context to end

	klineCalls int32
	inFlight   int32
	maxFlight  int32
}

func (m *mockGateway) FetchTickers(ctx context.Context) ([]domain.Ticker, error) {
	return m.tickers, m.tickersErr
}

func (m *mockGateway) FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]*domain.Kline, error) {
	atomic.AddInt32(&m.klineCalls, 1)
	n := atomic.AddInt32(&m.inFlight, 1)
	defer atomic.AddInt32(&m.inFlight, -1)
	for {
		max := atomic.LoadInt32(&m.maxFlight)
		if n <= max || atomic.CompareAndSwapInt32(&m.maxFlight, max, n) {
			break
		}
	}

	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if d := m.delays[symbol]; d > 0 {
		time.Sleep(d)
	}
	k, ok := m.klines[symbol]
	if !ok {
		return nil, errKlinesUnavailable
	}
	return k, nil
}

type mockFunding struct {
	rates map[string]float64
	err   error
	calls int
}

func (m *mockFunding) FetchFundingRates(ctx context.Context) (map[string]float64, error) {
	m.calls++
	return m.rates, m.err
}

// countingAnalyzer wraps an Analyzer and counts invocations.
type countingAnalyzer struct {
	next  Analyzer
	calls int32
}

func (c *countingAnalyzer) Analyze(klines []*domain.Kline, price float64) domain.TechnicalSignals {
	atomic.AddInt32(&c.calls, 1)
	return c.next.Analyze(klines, price)
}

// fixedAnalyzer returns the same signals for every input.
type fixedAnalyzer struct {
	signals domain.TechnicalSignals
}

func (f fixedAnalyzer) Analyze(klines []*domain.Kline, price float64) domain.TechnicalSignals {
	return f.signals
}

func ticker(symbol string, open, last, volume float64) domain.Ticker {
	return domain.Ticker{Symbol: symbol, OpenPrice: open, LastPrice: last, VolumeQuote: volume}
}

func klinesFromCloses(closes []float64, volume float64) []*domain.Kline {
	out := make([]*domain.Kline, len(closes))
	for i, c := range closes {
		out[i] = &domain.Kline{Open: c, High: c, Low: c, Close: c, Volume: volume}
	}
	return out
}

// flatThenRising returns 15 closes at 100 followed by 10 closes rising 0.3 per bar to 103.
func flatThenRising() []float64 {
	closes := make([]float64, 0, 25)
	for i := 0; i < 15; i++ {
		closes = append(closes, 100)
	}
	for i := 1; i <= 10; i++ {
		closes = append(closes, 100+0.3*float64(i))
	}
	return closes
}

// strongSignals scores 50+15+15+12+7+8 = 107 before liquidity and overextension.
var strongSignals = domain.TechnicalSignals{
	RSI:               40,
	AboveMA20:         true,
	AboveMA50:         true,
	MA20AboveMA50:     true,
	VolumeIncreasePct: 60,
	TrendStrength:     80,
	MACDBullish:       true,
	Summary:           []string{"RSI recovering (40.0)"},
}
