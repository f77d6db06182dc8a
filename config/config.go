package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"opportunityScanner/internal/adapters/logger" // Import the logger package for LogLevel
	"opportunityScanner/internal/indicators"
)

// FundingSource selects where funding rates come from.
type FundingSource string

const (
	FundingFromExchange FundingSource = "exchange"
	FundingFromBinance  FundingSource = "binance"
	FundingDisabled     FundingSource = "none"
)

// Config holds all application configuration.
type Config struct {
	// Exchange API
	BaseURL   string
	APIKey    string
	APISecret string

	// Scan Parameters
	QuoteSuffix    string
	MinQuoteVolume float64
	KlineInterval  string
	KlineLimit     int
	TopN           int
	EMASeed        indicators.EMASeed

	// Concurrency and Timeouts
	CandleWorkers     int
	RequestsPerSecond float64
	RequestBurst      int
	KlineTimeout      time.Duration
	FundingTimeout    time.Duration
	HTTPTimeout       time.Duration
	ScanTimeout       time.Duration // Zero means no whole-scan deadline

	// Circuit Breaker
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration

	// Funding
	FundingSource     FundingSource
	BinanceUseTestnet bool

	// Outputs owned by the caller
	DBPath          string // Empty disables scan history
	MetricsTextfile string // Empty disables metrics export

	// Logging
	LogLevel logger.LogLevel
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Exchange API
	cfg.BaseURL = getEnv("EXCHANGE_BASE_URL", "")
	cfg.APIKey = getEnv("EXCHANGE_API_KEY", "")
	cfg.APISecret = getEnv("EXCHANGE_API_SECRET", "")
	if cfg.BaseURL == "" {
		errs = append(errs, "EXCHANGE_BASE_URL must be set")
	} else if u, perr := url.Parse(cfg.BaseURL); perr != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("EXCHANGE_BASE_URL '%s' is not an absolute URL", cfg.BaseURL))
	}
	if cfg.APISecret == "" {
		errs = append(errs, "EXCHANGE_API_SECRET must be set")
	}

	// Scan Parameters
	cfg.QuoteSuffix = getEnv("QUOTE_SUFFIX", "_USDT")

	cfg.MinQuoteVolume, err = getEnvAsFloatRequired("MIN_QUOTE_VOLUME", 100_000)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MIN_QUOTE_VOLUME: %v", err))
	} else if cfg.MinQuoteVolume <= 0 {
		errs = append(errs, "MIN_QUOTE_VOLUME must be positive")
	}

	cfg.KlineInterval = getEnv("KLINE_INTERVAL", "1h")

	cfg.KlineLimit, err = getEnvAsIntRequired("KLINE_LIMIT", 100)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid KLINE_LIMIT: %v", err))
	} else if cfg.KlineLimit < 20 {
		errs = append(errs, "KLINE_LIMIT must be at least 20")
	}

	cfg.TopN, err = getEnvAsIntRequired("TOP_N", 5)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid TOP_N: %v", err))
	} else if cfg.TopN <= 0 {
		errs = append(errs, "TOP_N must be positive")
	}

	cfg.EMASeed, err = indicators.ParseEMASeed(getEnv("EMA_SEED", string(indicators.SeedFirstValue)))
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid EMA_SEED: %v", err))
	}

	// Concurrency and Timeouts
	cfg.CandleWorkers = getEnvAsInt("CANDLE_WORKERS", 5)
	if cfg.CandleWorkers <= 0 {
		errs = append(errs, "CANDLE_WORKERS must be positive")
	}

	cfg.RequestsPerSecond, err = getEnvAsFloatRequired("REQUESTS_PER_SECOND", 10)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid REQUESTS_PER_SECOND: %v", err))
	} else if cfg.RequestsPerSecond <= 0 {
		errs = append(errs, "REQUESTS_PER_SECOND must be positive")
	}

	cfg.RequestBurst = getEnvAsInt("REQUEST_BURST", 5)
	if cfg.RequestBurst <= 0 {
		errs = append(errs, "REQUEST_BURST must be positive")
	}

	cfg.KlineTimeout = getEnvAsSeconds("KLINE_TIMEOUT_SECONDS", 10)
	cfg.FundingTimeout = getEnvAsSeconds("FUNDING_TIMEOUT_SECONDS", 10)
	cfg.HTTPTimeout = getEnvAsSeconds("HTTP_TIMEOUT_SECONDS", 15)
	cfg.ScanTimeout = getEnvAsSeconds("SCAN_TIMEOUT_SECONDS", 0)
	if cfg.KlineTimeout <= 0 || cfg.FundingTimeout <= 0 || cfg.HTTPTimeout <= 0 {
		errs = append(errs, "KLINE_TIMEOUT_SECONDS, FUNDING_TIMEOUT_SECONDS and HTTP_TIMEOUT_SECONDS must be positive")
	}
	if cfg.ScanTimeout < 0 {
		errs = append(errs, "SCAN_TIMEOUT_SECONDS cannot be negative")
	}

	// Circuit Breaker
	maxFailures := getEnvAsInt("BREAKER_MAX_FAILURES", 5)
	if maxFailures <= 0 {
		errs = append(errs, "BREAKER_MAX_FAILURES must be positive")
	} else {
		cfg.BreakerMaxFailures = uint32(maxFailures)
	}
	cfg.BreakerOpenTimeout = getEnvAsSeconds("BREAKER_OPEN_SECONDS", 30)
	if cfg.BreakerOpenTimeout <= 0 {
		errs = append(errs, "BREAKER_OPEN_SECONDS must be positive")
	}

	// Funding
	cfg.FundingSource = FundingSource(strings.ToLower(getEnv("FUNDING_SOURCE", string(FundingFromExchange))))
	switch cfg.FundingSource {
	case FundingFromExchange, FundingFromBinance, FundingDisabled:
	default:
		errs = append(errs, fmt.Sprintf("FUNDING_SOURCE must be one of exchange, binance, none (got '%s')", cfg.FundingSource))
	}
	cfg.BinanceUseTestnet = getEnvAsBool("BINANCE_USE_TESTNET", false)

	// Outputs
	cfg.DBPath = getEnv("DB_PATH", "")
	cfg.MetricsTextfile = getEnv("METRICS_TEXTFILE", "")

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr)

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// LoadHistoryConfig loads only what reading the local scan history needs:
// DB_PATH (required) and LOG_LEVEL. Exchange settings are not validated.
func LoadHistoryConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:   getEnv("DB_PATH", ""),
		LogLevel: logger.ParseLevel(getEnv("LOG_LEVEL", "INFO")),
	}
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("configuration validation failed: DB_PATH must be set to read scan history")
	}
	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultSeconds)) * time.Second
}
