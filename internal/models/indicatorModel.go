package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reading is one step of an indicator stream. Ready is false while the
// indicator is warming up, in which case Value is meaningless.
type Reading struct {
	Time   time.Time
	Value  decimal.Decimal
	Origin Origin
	Ready  bool
}

func NewReading(t time.Time, value decimal.Decimal, origin Origin) Reading {
	return Reading{Time: t, Value: value, Origin: origin, Ready: true}
}

// NotReady marks a warm-up step of the candle at t.
func NotReady(t time.Time, origin Origin) Reading {
	return Reading{Time: t, Origin: origin}
}

// IndicatorPair fuses the RSI and MACD readings of the same candle.
type IndicatorPair struct {
	RSI  Reading
	MACD Reading
}

func (p IndicatorPair) Ready() bool {
	return p.RSI.Ready && p.MACD.Ready
}

// Live reports whether the RSI side was computed from a live candle.
func (p IndicatorPair) Live() bool {
	return p.RSI.Origin == OriginLive
}
