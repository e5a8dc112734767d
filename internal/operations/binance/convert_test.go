package binance

import (
	"testing"
	"time"

	"MacdRsiBot/internal/models"

	"github.com/adshao/go-binance/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToCandle(t *testing.T) {
	k := &binance.Kline{
		OpenTime:  1731801600000,
		Open:      "612.10000000",
		Close:     "613.40000000",
		CloseTime: 1731805199999,
	}

	c, err := toCandle("BNBUSDT", "1h", k)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 11, 17, 0, 0, 0, 0, time.UTC), c.Time)
	assert.Equal(t, "612.1", c.Open.String())
	assert.Equal(t, "613.4", c.Close.String())
	assert.Equal(t, models.OriginHistorical, c.Origin)

	k.Close = "n/a"
	_, err = toCandle("BNBUSDT", "1h", k)
	assert.Error(t, err)
}

func TestToKlineEvent(t *testing.T) {
	e := &binance.WsKlineEvent{
		Event:  "kline",
		Symbol: "BNBUSDT",
		Kline: binance.WsKline{
			StartTime: 1731801600000,
			Symbol:    "BNBUSDT",
			Interval:  "1h",
			Open:      "612.1",
			Close:     "611.9",
			IsFinal:   true,
		},
	}

	event, err := toKlineEvent(e)
	require.NoError(t, err)
	assert.True(t, event.Closed)
	assert.Equal(t, "BNBUSDT", event.Symbol)
	assert.Equal(t, "1h", event.Interval)
	assert.Equal(t, models.OriginLive, event.Candle.Origin)
	assert.True(t, event.Candle.Delta().IsNegative())
}

func TestToKlineEventRejectsMalformed(t *testing.T) {
	_, err := toKlineEvent(nil)
	assert.Error(t, err)

	_, err = toKlineEvent(&binance.WsKlineEvent{Kline: binance.WsKline{Symbol: "BNBUSDT"}})
	assert.Error(t, err)

	_, err = toKlineEvent(&binance.WsKlineEvent{Kline: binance.WsKline{
		StartTime: 1, Symbol: "BNBUSDT", Interval: "1h", Open: "1", Close: "",
	}})
	assert.Error(t, err)
}

func TestToSideType(t *testing.T) {
	s, err := toSideType(models.SideBuy)
	require.NoError(t, err)
	assert.Equal(t, binance.SideTypeBuy, s)

	_, err = toSideType("hold")
	assert.Error(t, err)
}
