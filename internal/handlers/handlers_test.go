package handlers

import (
	"bytes"
	"context"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"MacdRsiBot/internal/models"
	"MacdRsiBot/internal/services/indicators"
	"MacdRsiBot/internal/services/strategy"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	symbol   = "BNBUSDT"
	interval = "1h"
)

var t0 = time.Date(2024, 11, 17, 0, 0, 0, 0, time.UTC)

func walk(n int, seed int64) []models.Candle {
	rnd := rand.New(rand.NewSource(seed))
	out := make([]models.Candle, n)
	last := decimal.NewFromInt(600)
	for i := range out {
		next := last.Add(decimal.NewFromInt(int64(rnd.Intn(2001) - 1000)).Shift(-2))
		out[i] = models.Candle{
			Symbol:   symbol,
			Interval: interval,
			Time:     t0.Add(time.Duration(i) * time.Hour),
			Open:     last,
			Close:    next,
		}
		last = next
	}
	return out
}

// scriptedSource replays the same history and live candles on every call.
type scriptedSource struct {
	history []models.Candle
	live    []models.Candle
}

func (s *scriptedSource) FetchHistorical(ctx context.Context, symbol, interval string) ([]models.Candle, error) {
	return append([]models.Candle(nil), s.history...), nil
}

func (s *scriptedSource) SubscribeLive(ctx context.Context, symbol, interval string) (<-chan models.KlineEvent, error) {
	ch := make(chan models.KlineEvent, len(s.live))
	for _, c := range s.live {
		ch <- models.KlineEvent{Symbol: c.Symbol, Interval: c.Interval, Closed: true, Candle: c}
	}
	close(ch)
	return ch, nil
}

type recordingExecutor struct {
	intents []models.Intent
}

func (e *recordingExecutor) Run(ctx context.Context, intents <-chan models.Intent) {
	for intent := range intents {
		e.intents = append(e.intents, intent)
	}
}

type memoryStore struct {
	mu      sync.Mutex
	records []*models.CandleRecord
}

func (m *memoryStore) Create(record *models.CandleRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

var settings = IndicatorSettings{RSIWindow: 4, MACDFast: 3, MACDSlow: 6}

// expectedIntents runs the same computation one candle at a time.
func expectedIntents(t *testing.T, candles []models.Candle, buy, sell decimal.Decimal) []models.Intent {
	t.Helper()

	gain, _ := indicators.NewEMA(settings.RSIWindow)
	loss, _ := indicators.NewEMA(settings.RSIWindow)
	fast, _ := indicators.NewEMA(settings.MACDFast)
	slow, _ := indicators.NewEMA(settings.MACDSlow)
	machine, err := strategy.NewSignalMachine(buy, sell)
	require.NoError(t, err)

	var intents []models.Intent
	for _, c := range candles {
		rsi := indicators.RelativeStrength(gain.Update(indicators.Gains(c)), loss.Update(indicators.Losses(c)))
		macd := indicators.Divergence(fast.Update(c), slow.Update(c))
		intents = append(intents, machine.Process(models.IndicatorPair{RSI: rsi, MACD: macd})...)
	}
	return intents
}

func TestSessionMatchesSequentialComputation(t *testing.T) {
	candles := walk(100, 11)
	source := &scriptedSource{history: candles[:41], live: candles[40:]}

	// history ends with the forming candle, whose closed form arrives live
	var want []models.Candle
	for i, c := range candles {
		c.Origin = models.OriginHistorical
		if i >= 40 {
			c.Origin = models.OriginLive
		}
		want = append(want, c)
	}

	buy, sell := decimal.NewFromInt(50), decimal.NewFromInt(50)
	expected := expectedIntents(t, want, buy, sell)
	require.NotEmpty(t, expected)

	ctx := context.Background()
	store := &memoryStore{}
	prices := NewPriceHandler(source, symbol, interval, 8).WithRecorder(store)

	machine, err := strategy.NewSignalMachine(buy, sell)
	require.NoError(t, err)
	executor := &recordingExecutor{}
	session := NewStrategyHandler(prices.Opener(), machine, executor, settings)

	require.NoError(t, session.Open(ctx))
	require.NoError(t, prices.Start(ctx))

	done := make(chan struct{})
	go func() {
		defer close(done)
		session.Run(ctx)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("session did not finish")
	}
	prices.Close()

	assert.Equal(t, expected, executor.intents)
	for _, intent := range executor.intents {
		assert.False(t, intent.Time.Before(candles[40].Time), "intent %s from history", intent)
	}

	require.Len(t, store.records, len(candles))
	assert.Equal(t, string(models.OriginLive), store.records[len(candles)-1].Origin)
}

func TestStrategyHandlerOpenRejectsWindows(t *testing.T) {
	source := &scriptedSource{history: walk(10, 1)}
	prices := NewPriceHandler(source, symbol, interval, 0)

	machine, err := strategy.NewSignalMachine(decimal.NewFromInt(30), decimal.NewFromInt(70))
	require.NoError(t, err)

	session := NewStrategyHandler(prices.Opener(), machine, &recordingExecutor{},
		IndicatorSettings{RSIWindow: 14, MACDFast: 26, MACDSlow: 12})
	assert.ErrorIs(t, session.Open(context.Background()), indicators.ErrWindowOrder)
}

func TestStrategyHandlerOpenLogsWindows(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	source := &scriptedSource{history: walk(10, 1)}
	prices := NewPriceHandler(source, symbol, interval, 0)

	machine, err := strategy.NewSignalMachine(decimal.NewFromInt(30), decimal.NewFromInt(70))
	require.NoError(t, err)

	session := NewStrategyHandler(prices.Opener(), machine, &recordingExecutor{},
		IndicatorSettings{RSIWindow: 5, MACDFast: 3, MACDSlow: 8})
	require.NoError(t, session.Open(context.Background()))
	defer session.Close()

	var opened bool
	for _, e := range hook.AllEntries() {
		if e.Message != "indicator streams open" {
			continue
		}
		opened = true
		assert.Equal(t, 5, e.Data["rsi_window"])
		assert.Equal(t, 3, e.Data["macd_fast"])
		assert.Equal(t, 8, e.Data["macd_slow"])
	}
	assert.True(t, opened, "open log entry missing")
}

func TestPrintIndicatorsReplaysHistory(t *testing.T) {
	history := walk(30, 3)
	source := &scriptedSource{history: history, live: walk(5, 4)}

	var buf bytes.Buffer
	n, err := PrintIndicators(context.Background(), source, symbol, interval, settings, &buf)
	require.NoError(t, err)
	assert.Equal(t, len(history)-1, n)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, n)
	assert.Contains(t, lines[0], "rsi=-")
	assert.Contains(t, lines[0], "macd=-")
	assert.NotContains(t, lines[n-1], "rsi=-")
	assert.False(t, strings.HasSuffix(lines[n-1], "macd=-"))
	assert.True(t, strings.HasPrefix(lines[n-1], history[n-1].Time.Format("2006-01-02 15:04")))
}
