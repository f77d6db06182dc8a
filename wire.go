package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"opportunityScanner/config"
	"opportunityScanner/internal/adapters/binanceclient"
	"opportunityScanner/internal/adapters/exchangeapi"
	"opportunityScanner/internal/adapters/logger"
	"opportunityScanner/internal/adapters/metrics"
	"opportunityScanner/internal/adapters/sqlite"
	"opportunityScanner/internal/app"
	"opportunityScanner/internal/indicators"
	"opportunityScanner/internal/ports"
	"opportunityScanner/internal/scanner"
)

// buildService wires adapters, the scanner and the application service from cfg.
// The returned cleanup closes any opened resources.
func buildService(ctx context.Context, cfg *config.Config) (*app.ScanService, func(), error) {
	appLogger := logger.New(cfg.LogLevel)
	appLogger.Debug(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	cleanup := func() {}

	// 1. Exchange gateway
	exchange, err := exchangeapi.New(exchangeapi.Config{
		BaseURL:            cfg.BaseURL,
		APIKey:             cfg.APIKey,
		APISecret:          cfg.APISecret,
		HTTPClient:         &http.Client{Timeout: cfg.HTTPTimeout},
		RequestsPerSecond:  cfg.RequestsPerSecond,
		Burst:              cfg.RequestBurst,
		BreakerMaxFailures: cfg.BreakerMaxFailures,
		BreakerOpenTimeout: cfg.BreakerOpenTimeout,
		Logger:             appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "Failed to initialize exchange client")
		return nil, cleanup, err
	}

	// 2. Funding source
	var funding ports.FundingRateProvider
	switch cfg.FundingSource {
	case config.FundingFromExchange:
		funding = exchange
	case config.FundingFromBinance:
		binanceClient, err := binanceclient.New(binanceclient.Config{
			UseTestnet:  cfg.BinanceUseTestnet,
			QuoteAsset:  strings.TrimPrefix(cfg.QuoteSuffix, "_"),
			QuoteSuffix: cfg.QuoteSuffix,
			Logger:      appLogger,
		})
		if err != nil {
			appLogger.Error(ctx, err, "Failed to initialize Binance client")
			return nil, cleanup, err
		}
		funding = binanceClient
	case config.FundingDisabled:
		appLogger.Info(ctx, "Funding adjustment disabled")
	}

	// 3. Metrics
	registry := metrics.NewRegistry()

	// 4. Scanner
	scan, err := scanner.New(exchange, funding,
		indicators.NewEngine(indicators.Config{EMASeed: cfg.EMASeed}),
		scanner.Config{
			Momentum: scanner.MomentumConfig{
				QuoteSuffix:    cfg.QuoteSuffix,
				MinQuoteVolume: cfg.MinQuoteVolume,
			},
			Technical: scanner.TechnicalConfig{
				Interval:     cfg.KlineInterval,
				Limit:        cfg.KlineLimit,
				Workers:      cfg.CandleWorkers,
				FetchTimeout: cfg.KlineTimeout,
			},
			TopN:           cfg.TopN,
			FundingTimeout: cfg.FundingTimeout,
			ScanTimeout:    cfg.ScanTimeout,
		},
		appLogger, registry)
	if err != nil {
		appLogger.Error(ctx, err, "Failed to initialize scanner")
		return nil, cleanup, err
	}

	// 5. Scan history (optional)
	var repo ports.ScanRepository
	if cfg.DBPath != "" {
		sqliteRepo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to initialize scan history: %w", err)
		}
		repo = sqliteRepo
		cleanup = func() {
			if err := sqliteRepo.Close(); err != nil {
				appLogger.Error(context.Background(), err, "Error closing scan history")
			}
		}
	}

	// 6. Application service
	svc, err := app.NewScanService(appLogger, scan, repo, registry, app.ServiceConfig{MetricsTextfile: cfg.MetricsTextfile})
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return svc, cleanup, nil
}

// buildHistory opens the scan history for reading. It builds no exchange client.
func buildHistory(ctx context.Context, cfg *config.Config) (*app.HistoryService, func(), error) {
	appLogger := logger.New(cfg.LogLevel)

	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
	if err != nil {
		return nil, func() {}, fmt.Errorf("failed to open scan history: %w", err)
	}
	cleanup := func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing scan history")
		}
	}

	svc, err := app.NewHistoryService(repo)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	appLogger.Debug(ctx, "Scan history opened", map[string]interface{}{"path": cfg.DBPath})
	return svc, cleanup, nil
}
