package exchangeapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"opportunityScanner/internal/domain"
)

// wireDecimal accepts a JSON number, a quoted number, an empty string or null.
type wireDecimal struct {
	decimal.Decimal
	Valid bool
}

func (d *wireDecimal) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		*d = wireDecimal{}
		return nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	*d = wireDecimal{Decimal: v, Valid: true}
	return nil
}

func (d wireDecimal) float() float64 {
	if !d.Valid {
		return 0
	}
	return d.InexactFloat64()
}

type tickersEnvelope struct {
	Data struct {
		Tickers []json.RawMessage `json:"tickers"`
	} `json:"data"`
}

type tickerPayload struct {
	Symbol string      `json:"symbol"`
	Open   wireDecimal `json:"open"`
	Close  wireDecimal `json:"close"`
	Last   wireDecimal `json:"last"`
	High   wireDecimal `json:"high"`
	Low    wireDecimal `json:"low"`
	Amount wireDecimal `json:"amount"`
}

type klinesEnvelope struct {
	Data struct {
		Klines []json.RawMessage `json:"klines"`
	} `json:"data"`
}

type klineObject struct {
	OpenTime wireDecimal `json:"open_time"`
	Time     wireDecimal `json:"time"`
	Open     wireDecimal `json:"open"`
	High     wireDecimal `json:"high"`
	Low      wireDecimal `json:"low"`
	Close    wireDecimal `json:"close"`
	Volume   wireDecimal `json:"volume"`
}

// Rows are kept raw so one unparsable entry does not fail the whole response.
type fundingEnvelope struct {
	Data struct {
		Rates        map[string]json.RawMessage `json:"rates"`
		FundingRates []json.RawMessage          `json:"funding_rates"`
	} `json:"data"`
}

type fundingRow struct {
	Symbol      string      `json:"symbol"`
	FundingRate wireDecimal `json:"funding_rate"`
}

// translateTickers decodes each wire ticker on its own, skipping rows that do not
// parse or lack a symbol or a last price.
func translateTickers(rows []json.RawMessage) (tickers []domain.Ticker, skipped int) {
	tickers = make([]domain.Ticker, 0, len(rows))
	for _, raw := range rows {
		var p tickerPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			skipped++
			continue
		}
		last := p.Close
		if !last.Valid {
			last = p.Last
		}
		if p.Symbol == "" || !last.Valid {
			skipped++
			continue
		}
		tickers = append(tickers, domain.Ticker{
			Symbol:      p.Symbol,
			OpenPrice:   p.Open.float(),
			LastPrice:   last.float(),
			High:        p.High.float(),
			Low:         p.Low.float(),
			VolumeQuote: p.Amount.float(),
		})
	}
	return tickers, skipped
}

// translateKlines parses either array rows ([time, open, high, low, close, volume]
// or [open, high, low, close, volume]) or object rows. The result is oldest first.
func translateKlines(rows []json.RawMessage, symbol, interval string) ([]*domain.Kline, error) {
	klines := make([]*domain.Kline, 0, len(rows))
	for i, raw := range rows {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			return nil, fmt.Errorf("kline %d: empty row", i)
		}

		var k *domain.Kline
		var err error
		if raw[0] == '[' {
			k, err = translateKlineArray(raw)
		} else {
			k, err = translateKlineObject(raw)
		}
		if err != nil {
			return nil, fmt.Errorf("kline %d: %w", i, err)
		}
		k.Symbol = symbol
		k.Interval = interval
		klines = append(klines, k)
	}

	if len(klines) > 1 && !klines[0].OpenTime.IsZero() && klines[0].OpenTime.After(klines[len(klines)-1].OpenTime) {
		sort.SliceStable(klines, func(i, j int) bool { return klines[i].OpenTime.Before(klines[j].OpenTime) })
	}
	return klines, nil
}

func translateKlineArray(raw json.RawMessage) (*domain.Kline, error) {
	var fields []wireDecimal
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}

	k := &domain.Kline{}
	switch {
	case len(fields) >= 6:
		if fields[0].Valid {
			k.OpenTime = time.UnixMilli(fields[0].IntPart())
		}
		fields = fields[1:]
	case len(fields) == 5:
	default:
		return nil, fmt.Errorf("expected at least 5 fields, got %d", len(fields))
	}

	k.Open = fields[0].float()
	k.High = fields[1].float()
	k.Low = fields[2].float()
	k.Close = fields[3].float()
	k.Volume = fields[4].float()
	if !fields[3].Valid {
		return nil, fmt.Errorf("missing close price")
	}
	return k, nil
}

func translateKlineObject(raw json.RawMessage) (*domain.Kline, error) {
	var obj klineObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	if !obj.Close.Valid {
		return nil, fmt.Errorf("missing close price")
	}

	k := &domain.Kline{
		Open:   obj.Open.float(),
		High:   obj.High.float(),
		Low:    obj.Low.float(),
		Close:  obj.Close.float(),
		Volume: obj.Volume.float(),
	}
	ts := obj.OpenTime
	if !ts.Valid {
		ts = obj.Time
	}
	if ts.Valid {
		k.OpenTime = time.UnixMilli(ts.IntPart())
	}
	return k, nil
}

// translateFundingRates accepts both the symbol map and the row list forms.
// Unparsable entries are counted in skipped; null or empty rates are ignored.
func translateFundingRates(env fundingEnvelope) (rates map[string]float64, skipped int) {
	rates = make(map[string]float64, len(env.Data.Rates)+len(env.Data.FundingRates))
	for symbol, raw := range env.Data.Rates {
		var rate wireDecimal
		if err := json.Unmarshal(raw, &rate); err != nil {
			skipped++
			continue
		}
		if rate.Valid {
			rates[symbol] = rate.float()
		}
	}
	for _, raw := range env.Data.FundingRates {
		var r fundingRow
		if err := json.Unmarshal(raw, &r); err != nil {
			skipped++
			continue
		}
		if r.Symbol != "" && r.FundingRate.Valid {
			rates[r.Symbol] = r.FundingRate.float()
		}
	}
	return rates, skipped
}
