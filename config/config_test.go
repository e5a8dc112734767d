package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"TRADING_SYMBOL", "KLINE_INTERVAL", "RSI_BUY", "RSI_SELL", "RSI_WINDOW", "DRY_RUN", "DB_HOST"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultSymbol, cfg.Trading.Symbol)
	assert.Equal(t, DefaultInterval, cfg.Trading.Interval)
	assert.True(t, cfg.Trading.RSIBuy.Equal(decimal.NewFromInt(30)))
	assert.True(t, cfg.Trading.RSISell.Equal(decimal.NewFromInt(70)))
	assert.True(t, cfg.Trading.DryRun)
	assert.Equal(t, DefaultRSIWindow, cfg.Indicators.RSIWindow)
	assert.Equal(t, DefaultMACDFast, cfg.Indicators.MACDFast)
	assert.Equal(t, DefaultMACDSlow, cfg.Indicators.MACDSlow)
	assert.Equal(t, DefaultLiveBufferSize, cfg.Indicators.LiveBufferSize)
	assert.False(t, cfg.Database.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TRADING_SYMBOL", "ethusdt")
	t.Setenv("KLINE_INTERVAL", "15m")
	t.Setenv("RSI_BUY", "25.5")
	t.Setenv("RSI_WINDOW", "21")
	t.Setenv("DRY_RUN", "false")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ETHUSDT", cfg.Trading.Symbol)
	assert.Equal(t, "15m", cfg.Trading.Interval)
	assert.Equal(t, "25.5", cfg.Trading.RSIBuy.String())
	assert.Equal(t, 21, cfg.Indicators.RSIWindow)
	assert.False(t, cfg.Trading.DryRun)
	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestLoadRejectsInvalidThreshold(t *testing.T) {
	t.Setenv("RSI_SELL", "seventy")

	_, err := Load()
	assert.Error(t, err)
}
