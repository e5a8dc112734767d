package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Origin tags where a candle entered the unified stream.
type Origin string

const (
	OriginHistorical Origin = "historical"
	OriginLive       Origin = "live"
)

// Candle is a closed kline. Time is the kline open time.
type Candle struct {
	Symbol   string
	Interval string
	Time     time.Time
	Open     decimal.Decimal
	Close    decimal.Decimal
	Origin   Origin
}

// Delta returns close - open.
func (c Candle) Delta() decimal.Decimal {
	return c.Close.Sub(c.Open)
}

func (c Candle) String() string {
	return fmt.Sprintf("%s %s %s o=%s c=%s (%s)",
		c.Symbol, c.Interval, c.Time.Format(time.RFC3339), c.Open, c.Close, c.Origin)
}

// KlineEvent is one decoded push message of a live kline subscription.
// Closed is false while the kline is still forming.
type KlineEvent struct {
	Symbol   string
	Interval string
	Closed   bool
	Candle   Candle
}
