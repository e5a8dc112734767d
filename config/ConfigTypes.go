package config

import "github.com/shopspring/decimal"

type Config struct {
	Exchange   ExchangeConfig
	Database   DatabaseConfig
	Trading    TradingConfig
	Indicators IndicatorConfig
	Metrics    MetricsConfig
	LogLevel   string
}

type ExchangeConfig struct {
	APIKey    string
	SecretKey string
	BaseURL   string
}

// DatabaseConfig is optional; an empty Host disables candle recording.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

func (c DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

type TradingConfig struct {
	Symbol           string
	Interval         string
	RSIBuy           decimal.Decimal
	RSISell          decimal.Decimal
	DryRun           bool
	PaperBalance     decimal.Decimal
	MaxOrderAttempts int
}

type IndicatorConfig struct {
	RSIWindow      int
	MACDFast       int
	MACDSlow       int
	LiveBufferSize int
}

type MetricsConfig struct {
	Addr string
}
