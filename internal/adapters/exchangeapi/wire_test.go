package exchangeapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWireDecimal(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		want      float64
		wantErr   bool
	}{
		{name: "number", input: `1.5`, wantValid: true, want: 1.5},
		{name: "quoted number", input: `"42000.25"`, wantValid: true, want: 42000.25},
		{name: "empty string", input: `""`},
		{name: "null", input: `null`},
		{name: "garbage", input: `"abc"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d wireDecimal
			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, d.Valid)
			assert.InDelta(t, tt.want, d.float(), 1e-9)
		})
	}
}

func TestTranslateTickers(t *testing.T) {
	raw := `{"data":{"tickers":[
		{"symbol":"BTC_USDT","open":"40000","close":"42000","high":"42500","low":"39500","amount":"5000000"},
		{"symbol":"ETH_USDT","open":2000,"last":2100,"amount":150000},
		{"symbol":"","close":"1"},
		{"symbol":"XRP_USDT","open":"0.5"},
		{"symbol":"DOGE_USDT","open":"-","close":"0.1","amount":"n/a"}
	]}}`

	var env tickersEnvelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))

	tickers, skipped := translateTickers(env.Data.Tickers)
	assert.Equal(t, 3, skipped)
	require.Len(t, tickers, 2)

	assert.Equal(t, "BTC_USDT", tickers[0].Symbol)
	assert.InDelta(t, 42000.0, tickers[0].LastPrice, 1e-9)
	assert.InDelta(t, 5000000.0, tickers[0].VolumeQuote, 1e-9)
	assert.InDelta(t, 5.0, tickers[0].PriceChangePct(), 1e-9)

	assert.Equal(t, "ETH_USDT", tickers[1].Symbol)
	assert.InDelta(t, 2100.0, tickers[1].LastPrice, 1e-9, "falls back to last when close is absent")
}

func TestTranslateKlines(t *testing.T) {
	tests := []struct {
		name       string
		rows       string
		wantCloses []float64
		wantErr    bool
	}{
		{
			name:       "array rows with timestamp",
			rows:       `[[1700000000000,"1","2","0.5","1.5","10"],[1700003600000,"1.5","2.5","1","2","20"]]`,
			wantCloses: []float64{1.5, 2},
		},
		{
			name:       "array rows without timestamp",
			rows:       `[[1,2,0.5,1.5,10],[1.5,2.5,1,2,20]]`,
			wantCloses: []float64{1.5, 2},
		},
		{
			name:       "object rows newest first are reordered",
			rows:       `[{"time":1700003600000,"open":"1.5","high":"2.5","low":"1","close":"2","volume":"20"},{"open_time":1700000000000,"open":"1","high":"2","low":"0.5","close":"1.5","volume":"10"}]`,
			wantCloses: []float64{1.5, 2},
		},
		{
			name:    "short array row",
			rows:    `[[1,2,3]]`,
			wantErr: true,
		},
		{
			name:    "object row missing close",
			rows:    `[{"open":"1"}]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rows []json.RawMessage
			require.NoError(t, json.Unmarshal([]byte(tt.rows), &rows))

			klines, err := translateKlines(rows, "BTC_USDT", "1h")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, klines, len(tt.wantCloses))
			for i, k := range klines {
				assert.InDelta(t, tt.wantCloses[i], k.Close, 1e-9)
				assert.Equal(t, "BTC_USDT", k.Symbol)
				assert.Equal(t, "1h", k.Interval)
			}
		})
	}
}

func TestTranslateFundingRates(t *testing.T) {
	raw := `{"data":{"rates":{"BTC_USDT":"0.0001","ETH_USDT":null,"XRP_USDT":"n/a"},"funding_rates":[{"symbol":"SOL_USDT","funding_rate":-0.0002},{"symbol":"","funding_rate":1},{"symbol":"ADA_USDT","funding_rate":"-"}]}}`

	var env fundingEnvelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))

	rates, skipped := translateFundingRates(env)
	assert.Equal(t, 2, skipped)
	assert.Len(t, rates, 2)
	assert.InDelta(t, 0.0001, rates["BTC_USDT"], 1e-12)
	assert.InDelta(t, -0.0002, rates["SOL_USDT"], 1e-12)
	_, ok := rates["ETH_USDT"]
	assert.False(t, ok)
}
