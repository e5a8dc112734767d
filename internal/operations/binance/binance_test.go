package binance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchHistoricalRetries(t *testing.T) {
	c := NewBinanceClient("", "", "")
	c.backoff = time.Millisecond

	calls := 0
	c.fetchKlines = func(ctx context.Context, symbol, interval string, limit int) ([]*binance.Kline, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("connection reset")
		}
		assert.Equal(t, historyLimit, limit)
		return []*binance.Kline{
			{OpenTime: 0, Open: "1", Close: "2"},
			{OpenTime: 3600000, Open: "2", Close: "3"},
		}, nil
	}

	candles, err := c.FetchHistorical(context.Background(), "BNBUSDT", "1h")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	require.Len(t, candles, 2)
	assert.True(t, candles[0].Time.Before(candles[1].Time))
}

func TestFetchHistoricalGivesUp(t *testing.T) {
	c := NewBinanceClient("", "", "")
	c.backoff = time.Millisecond

	calls := 0
	c.fetchKlines = func(ctx context.Context, symbol, interval string, limit int) ([]*binance.Kline, error) {
		calls++
		return nil, errors.New("invalid api key")
	}

	_, err := c.FetchHistorical(context.Background(), "BNBUSDT", "1h")
	assert.Error(t, err)
	assert.Equal(t, c.maxRetries+1, calls)
}

func TestFetchHistoricalFailsClosedOnBadKline(t *testing.T) {
	c := NewBinanceClient("", "", "")
	c.fetchKlines = func(ctx context.Context, symbol, interval string, limit int) ([]*binance.Kline, error) {
		return []*binance.Kline{{Open: "1", Close: "x"}}, nil
	}

	_, err := c.FetchHistorical(context.Background(), "BNBUSDT", "1h")
	assert.Error(t, err)
}
