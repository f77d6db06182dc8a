package utils

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"opportunityScanner/internal/domain"
)

// WriteKlinesToCSV writes klines to filename, one row per kline.
func WriteKlinesToCSV(klines []*domain.Kline, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	// Write header
	if err := writer.Write([]string{"open_time", "close_time", "symbol", "interval", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}

	for _, k := range klines {
		if err := writer.Write([]string{
			k.OpenTime.Format(time.RFC3339),
			k.CloseTime.Format(time.RFC3339),
			k.Symbol,
			k.Interval,
			formatFloat(k.Open),
			formatFloat(k.High),
			formatFloat(k.Low),
			formatFloat(k.Close),
			formatFloat(k.Volume),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteOpportunitiesToCSV writes ranked opportunities to w. Signals are joined with " | ".
func WriteOpportunitiesToCSV(opps []domain.Opportunity, w io.Writer) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"rank", "symbol", "score", "price", "volume_24h", "price_change_24h_pct", "signals"}); err != nil {
		return err
	}

	for i, o := range opps {
		if err := writer.Write([]string{
			strconv.Itoa(i + 1),
			o.Symbol,
			strconv.Itoa(o.Score),
			formatFloat(o.Price),
			formatFloat(o.Volume24h),
			strconv.FormatFloat(o.PriceChangePct, 'f', 2, 64),
			strings.Join(o.Signals, " | "),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
