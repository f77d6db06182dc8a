package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opportunityScanner/internal/domain"
)

func linear(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
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

func TestMACD(t *testing.T) {
	t.Run("requires 26 closes", func(t *testing.T) {
		assert.Equal(t, MACDResult{}, MACD(linear(25, 100, 1)))
	})

	t.Run("flat series is neutral", func(t *testing.T) {
		res := MACD(linear(60, 100, 0))
		assert.InDelta(t, 0, res.MACD, 1e-9)
		assert.InDelta(t, 0, res.Signal, 1e-9)
		assert.False(t, res.Bullish())
	})

	t.Run("steady rise is bullish", func(t *testing.T) {
		res := MACD(linear(60, 100, 1))
		assert.Greater(t, res.MACD, 0.0)
		assert.True(t, res.Bullish())
	})

	t.Run("steady fall is bearish", func(t *testing.T) {
		res := MACD(linear(60, 200, -1))
		assert.Less(t, res.MACD, 0.0)
		assert.False(t, res.Bullish())
	})

	t.Run("exactly 26 closes uses a one-point history", func(t *testing.T) {
		closes := linear(26, 100, 1)
		res := MACD(closes)
		assert.InDelta(t, EMA(closes, 12)-EMA(closes, 26), res.MACD, 1e-9)
		assert.InDelta(t, res.MACD, res.Signal, 1e-9)
	})
}

func TestBollingerBands(t *testing.T) {
	t.Run("known population deviation", func(t *testing.T) {
		b := BollingerBands([]float64{2, 4, 4, 4, 5, 5, 7, 9}, 8, 2)
		assert.InDelta(t, 5, b.Middle, 1e-9)
		assert.InDelta(t, 9, b.Upper, 1e-9)
		assert.InDelta(t, 1, b.Lower, 1e-9)
	})

	t.Run("short series falls back to five percent", func(t *testing.T) {
		b := BollingerBands([]float64{90, 100}, DefaultBollingerPeriod, DefaultBollingerMultiplier)
		assert.InDelta(t, 100, b.Middle, 1e-9)
		assert.InDelta(t, 105, b.Upper, 1e-9)
		assert.InDelta(t, 95, b.Lower, 1e-9)
	})

	t.Run("only trailing period counts", func(t *testing.T) {
		closes := append([]float64{1000, 2000}, linear(20, 50, 0)...)
		b := BollingerBands(closes, 20, 2)
		assert.InDelta(t, 50, b.Middle, 1e-9)
		assert.InDelta(t, 50, b.Upper, 1e-9)
	})

	t.Run("empty series", func(t *testing.T) {
		assert.Equal(t, Bands{}, BollingerBands(nil, 20, 2))
	})
}

func TestTrendStrength(t *testing.T) {
	assert.Equal(t, 50.0, TrendStrength(linear(19, 1, 1)))
	assert.InDelta(t, 50.0, TrendStrength(linear(20, 1, 1)), 1e-9)

	spike := linear(20, 1, 0)
	spike[19] = 100
	assert.InDelta(t, 5.0, TrendStrength(spike), 1e-9)

	assert.InDelta(t, 40.0, TrendStrength(flatThenRising()), 1e-9)
}

func TestVolumeIncreasePct(t *testing.T) {
	repeat := func(v float64, n int) []float64 { return linear(n, v, 0) }

	tests := []struct {
		name    string
		volumes []float64
		want    float64
	}{
		{"no earlier window", repeat(100, 10), 0},
		{"doubling", append(repeat(100, 20), repeat(200, 10)...), 100},
		{"partial earlier window", append(repeat(100, 15), repeat(150, 10)...), 50},
		{"bars older than thirty ignored", append(append(repeat(1000, 10), repeat(100, 20)...), repeat(50, 10)...), -50},
		{"zero earlier mean", append(repeat(0, 20), repeat(50, 10)...), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, VolumeIncreasePct(tt.volumes), 1e-9)
		})
	}
}

func TestEngine_Analyze(t *testing.T) {
	engine := NewEngine(Config{})
	klines := klinesFromCloses(flatThenRising(), 1000)

	sig := engine.Analyze(klines, 103)

	assert.Equal(t, 100.0, sig.RSI)
	assert.InDelta(t, 100.825, sig.MA20, 1e-9)
	assert.InDelta(t, 100.66, sig.MA50, 1e-9)
	assert.True(t, sig.AboveMA20)
	assert.True(t, sig.AboveMA50)
	assert.True(t, sig.MA20AboveMA50)
	assert.Equal(t, 0.0, sig.VolumeIncreasePct)
	assert.InDelta(t, 40.0, sig.TrendStrength, 1e-9)
	assert.False(t, sig.NearLowerBand)
	assert.True(t, sig.NearUpperBand)
	assert.False(t, sig.MACDBullish, "fewer than 26 closes never yields a MACD signal")

	require.Len(t, sig.Summary, 3)
	assert.Equal(t, "RSI overbought (100.0)", sig.Summary[0])
	assert.Equal(t, "Price above MA20 and MA50 (bullish alignment)", sig.Summary[1])
	assert.Equal(t, "Near upper Bollinger band", sig.Summary[2])
}

func TestEngine_AnalyzeSummaryOrder(t *testing.T) {
	// Long decline then a volume surge: oversold RSI, below both MAs, volume, lower band.
	closes := linear(40, 200, -2)
	closes[39] = 100
	volumes := append(linear(30, 100, 0), linear(10, 300, 0)...)
	klines := klinesFromCloses(closes, 0)
	for i := range klines {
		klines[i].Volume = volumes[i]
	}

	sig := NewEngine(DefaultConfig()).Analyze(klines, closes[len(closes)-1])

	require.Len(t, sig.Summary, 4)
	assert.Equal(t, "RSI oversold (0.0)", sig.Summary[0])
	assert.Equal(t, "Price below MA20 and MA50", sig.Summary[1])
	assert.Equal(t, "Volume surge +200%", sig.Summary[2])
	assert.Equal(t, "Near lower Bollinger band", sig.Summary[3])
}

func TestEngine_AnalyzeIsDeterministic(t *testing.T) {
	closes := make([]float64, 100)
	for i := range closes {
		closes[i] = 100 + 10*math.Sin(float64(i)/4) + float64(i)/10
	}
	klines := klinesFromCloses(closes, 5000)
	engine := NewEngine(DefaultConfig())

	first := engine.Analyze(klines, closes[99])
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, engine.Analyze(klines, closes[99]))
	}
}
