package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"opportunityScanner/config"
	"opportunityScanner/internal/adapters/binanceclient"
	"opportunityScanner/internal/adapters/exchangeapi"
	"opportunityScanner/internal/adapters/logger"
	"opportunityScanner/internal/domain"
	"opportunityScanner/internal/utils"
)

func main() {
	var (
		source   string
		symbol   string
		interval string
		limit    int
		days     int
		outDir   string
	)

	cmd := &cobra.Command{
		Use:          "fetch_klines",
		Short:        "Download a symbol's klines to CSV",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// 1. Load Configuration
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}

			// 2. Initialize Logger
			appLogger := logger.New(cfg.LogLevel)

			// 3. Fetch
			var klines []*domain.Kline
			switch strings.ToLower(source) {
			case "exchange":
				client, err := exchangeapi.New(exchangeapi.Config{
					BaseURL:           cfg.BaseURL,
					APIKey:            cfg.APIKey,
					APISecret:         cfg.APISecret,
					HTTPClient:        &http.Client{Timeout: cfg.HTTPTimeout},
					RequestsPerSecond: cfg.RequestsPerSecond,
					Burst:             cfg.RequestBurst,
					Logger:            appLogger,
				})
				if err != nil {
					return err
				}
				klines, err = client.FetchKlines(ctx, symbol, interval, limit)
				if err != nil {
					return err
				}
			case "binance":
				client, err := binanceclient.New(binanceclient.Config{
					UseTestnet:  cfg.BinanceUseTestnet,
					QuoteAsset:  strings.TrimPrefix(cfg.QuoteSuffix, "_"),
					QuoteSuffix: cfg.QuoteSuffix,
					Logger:      appLogger,
				})
				if err != nil {
					return err
				}
				if days > 0 {
					end := time.Now()
					klines, err = client.GetKlinesRange(ctx, symbol, interval, end.AddDate(0, 0, -days), end)
				} else {
					klines, err = client.GetKlines(ctx, symbol, interval, limit)
				}
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("unsupported source '%s' (want exchange or binance)", source)
			}
			appLogger.Info(ctx, "Fetched klines", map[string]interface{}{"symbol": symbol, "count": len(klines)})

			// 4. Write CSV
			if err := os.MkdirAll(outDir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory '%s': %w", outDir, err)
			}
			filename := filepath.Join(outDir, fmt.Sprintf("%s_%s_%s.csv", symbol, interval, time.Now().Format("20060102")))
			if err := utils.WriteKlinesToCSV(klines, filename); err != nil {
				return fmt.Errorf("failed to write CSV: %w", err)
			}
			appLogger.Info(ctx, "Saved klines", map[string]interface{}{"filename": filename})
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "exchange", "kline source: exchange or binance")
	cmd.Flags().StringVar(&symbol, "symbol", "BTC_USDT", "symbol in scanner form (e.g., BTC_USDT)")
	cmd.Flags().StringVar(&interval, "interval", "1h", "kline interval")
	cmd.Flags().IntVar(&limit, "limit", 100, "number of klines (ignored with --days)")
	cmd.Flags().IntVar(&days, "days", 0, "fetch a full range of this many days (binance source only)")
	cmd.Flags().StringVar(&outDir, "out", "data", "output directory")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if err := cmd.ExecuteContext(ctx); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}
