package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CandleRecord is the persisted form of a Candle.
type CandleRecord struct {
	ID        uint            `gorm:"primaryKey"`
	Symbol    string          `gorm:"uniqueIndex:idx_candle_key;not null"`
	TimeFrame string          `gorm:"uniqueIndex:idx_candle_key;not null"`
	OpenTime  time.Time       `gorm:"uniqueIndex:idx_candle_key;not null"`
	Open      decimal.Decimal `gorm:"type:decimal(20,8)"`
	Close     decimal.Decimal `gorm:"type:decimal(20,8)"`
	Origin    string          `gorm:"not null"`
	CreatedAt time.Time       `gorm:"autoCreateTime"`
}

const (
	PriceTimeFrame5m  = "5m"
	PriceTimeFrame15m = "15m"
	PriceTimeFrame1h  = "1h"
	PriceTimeFrame4h  = "4h"
)

// TableName sets the table name for CandleRecord model
func (CandleRecord) TableName() string {
	return "candles"
}

func NewCandleRecord(c Candle) *CandleRecord {
	return &CandleRecord{
		Symbol:    c.Symbol,
		TimeFrame: c.Interval,
		OpenTime:  c.Time,
		Open:      c.Open,
		Close:     c.Close,
		Origin:    string(c.Origin),
	}
}

func (r CandleRecord) Candle() Candle {
	return Candle{
		Symbol:   r.Symbol,
		Interval: r.TimeFrame,
		Time:     r.OpenTime,
		Open:     r.Open,
		Close:    r.Close,
		Origin:   Origin(r.Origin),
	}
}
