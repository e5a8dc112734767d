package backtest

import (
	"time"

	"MacdRsiBot/internal/models"

	"github.com/shopspring/decimal"
)

// Trade is one filled paper order.
type Trade struct {
	Time     time.Time
	Side     models.Side
	Price    decimal.Decimal
	Quantity decimal.Decimal
	RSI      decimal.Decimal
	MACD     decimal.Decimal
}

// For tracking equity changes, valued in the quote asset
type EquityPoint struct {
	Timestamp time.Time
	Balance   decimal.Decimal
}

type BacktestResults struct {
	Candles int

	// Trade metrics
	TotalTrades int
	Buys        int
	Sells       int

	// Performance metrics
	InitialBalance decimal.Decimal
	FinalBalance   decimal.Decimal
	MaxDrawdown    float64
	SharpeRatio    float64

	// Detailed records
	Trades      []Trade
	EquityCurve []EquityPoint
}

const (
	DefaultWarmup   = 100
	InitialBalance  = 1000 // USDT
	DefaultAttempts = 5
)

// Simulation config
type Config struct {
	Symbol   string
	Interval string

	// Time range; Warmup candles before StartTime are replayed as history
	StartTime time.Time
	EndTime   time.Time
	Warmup    int

	InitialBalance   decimal.Decimal
	MaxOrderAttempts int

	RSIBuy    decimal.Decimal
	RSISell   decimal.Decimal
	RSIWindow int
	MACDFast  int
	MACDSlow  int
}

// NewConfig creates default config
func NewConfig(symbol, interval string) Config {
	return Config{
		Symbol:           symbol,
		Interval:         interval,
		Warmup:           DefaultWarmup,
		InitialBalance:   decimal.NewFromInt(InitialBalance),
		MaxOrderAttempts: DefaultAttempts,
		RSIBuy:           decimal.NewFromInt(30),
		RSISell:          decimal.NewFromInt(70),
		RSIWindow:        14,
		MACDFast:         12,
		MACDSlow:         26,
	}
}
