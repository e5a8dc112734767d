package config

import (
	"io/fs"
	"os"
	"strconv"
	"strings"

	"MacdRsiBot/internal/models"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	DefaultSymbol           = "BNBUSDT"
	DefaultInterval         = models.PriceTimeFrame1h
	DefaultRSIWindow        = 14
	DefaultMACDFast         = 12
	DefaultMACDSlow         = 26
	DefaultLiveBufferSize   = 100
	DefaultMaxOrderAttempts = 5
)

var (
	defaultRSIBuy       = decimal.NewFromInt(30)
	defaultRSISell      = decimal.NewFromInt(70)
	defaultPaperBalance = decimal.NewFromInt(1000) // USDT
)

// Load reads the optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "error loading .env file")
	}

	rsiBuy, err := EnvToDecimal("RSI_BUY", defaultRSIBuy)
	if err != nil {
		return nil, err
	}

	rsiSell, err := EnvToDecimal("RSI_SELL", defaultRSISell)
	if err != nil {
		return nil, err
	}

	paperBalance, err := EnvToDecimal("PAPER_QUOTE_BALANCE", defaultPaperBalance)
	if err != nil {
		return nil, err
	}

	return &Config{
		Exchange: ExchangeConfig{
			APIKey:    os.Getenv("BINANCE_API_KEY"),
			SecretKey: os.Getenv("BINANCE_SECRET_KEY"),
			BaseURL:   os.Getenv("BINANCE_BASE_URL"),
		},
		Database: DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     EnvtoInt(os.Getenv("DB_PORT")),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
		},
		Trading: TradingConfig{
			Symbol:           strings.ToUpper(envOr("TRADING_SYMBOL", DefaultSymbol)),
			Interval:         envOr("KLINE_INTERVAL", DefaultInterval),
			RSIBuy:           rsiBuy,
			RSISell:          rsiSell,
			DryRun:           envToBool("DRY_RUN", true),
			PaperBalance:     paperBalance,
			MaxOrderAttempts: envToIntOr("MAX_ORDER_ATTEMPTS", DefaultMaxOrderAttempts),
		},
		Indicators: IndicatorConfig{
			RSIWindow:      envToIntOr("RSI_WINDOW", DefaultRSIWindow),
			MACDFast:       envToIntOr("MACD_FAST", DefaultMACDFast),
			MACDSlow:       envToIntOr("MACD_SLOW", DefaultMACDSlow),
			LiveBufferSize: envToIntOr("LIVE_BUFFER_SIZE", DefaultLiveBufferSize),
		},
		Metrics: MetricsConfig{
			Addr: os.Getenv("METRICS_ADDR"),
		},
		LogLevel: envOr("LOG_LEVEL", "info"),
	}, nil
}

// helper env(string) to int
func EnvtoInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

// EnvToDecimal parses an exact decimal from the environment, falling back
// to def when the variable is unset.
func EnvToDecimal(key string, def decimal.Decimal) (decimal.Decimal, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "invalid decimal in %s", key)
	}
	return d, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envToIntOr(key string, def int) int {
	if i := EnvtoInt(os.Getenv(key)); i > 0 {
		return i
	}
	return def
}

func envToBool(key string, def bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return b
}
