package backtest

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"MacdRsiBot/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// replaySource serves stored candles as if they came from the exchange: the
// first warmup candles as history and the rest over the live feed.
type replaySource struct {
	candles []models.Candle
	warmup  int
}

func newReplaySource(candles []models.Candle, warmup int) *replaySource {
	return &replaySource{candles: candles, warmup: warmup}
}

func (s *replaySource) split() (history, live []models.Candle) {
	n := s.warmup + 1
	if n > len(s.candles) {
		n = len(s.candles)
	}
	history = s.candles[:n]

	// the last history candle is treated as forming and arrives again live
	if n > 0 {
		live = s.candles[n-1:]
	}
	return history, live
}

func (s *replaySource) FetchHistorical(ctx context.Context, symbol, interval string) ([]models.Candle, error) {
	history, _ := s.split()
	return append([]models.Candle(nil), history...), nil
}

func (s *replaySource) SubscribeLive(ctx context.Context, symbol, interval string) (<-chan models.KlineEvent, error) {
	_, live := s.split()

	out := make(chan models.KlineEvent)
	go func() {
		defer close(out)
		for _, c := range live {
			e := models.KlineEvent{Symbol: c.Symbol, Interval: c.Interval, Closed: true, Candle: c}
			select {
			case out <- e:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// simulatedMarket quotes the close of the candle being traded on both
// sides of the book.
type simulatedMarket struct {
	market models.Market

	mu    sync.Mutex
	price decimal.Decimal
}

func (m *simulatedMarket) setPrice(p decimal.Decimal) {
	m.mu.Lock()
	m.price = p
	m.mu.Unlock()
}

func (m *simulatedMarket) QueryMarket(ctx context.Context, symbol string) (*models.Market, error) {
	market := m.market
	return &market, nil
}

func (m *simulatedMarket) QueryBookTicker(ctx context.Context, symbol string) (models.BookTicker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.price.IsPositive() {
		return models.BookTicker{}, errors.Errorf("no price for %s", symbol)
	}
	return models.BookTicker{Bid: m.price, Ask: m.price}, nil
}

// IntervalDuration converts an exchange kline interval such as 15m, 4h or
// 1d into a duration. Months are counted as 30 days.
func IntervalDuration(interval string) (time.Duration, error) {
	if len(interval) < 2 {
		return 0, errors.Errorf("invalid interval %q", interval)
	}

	n, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil || n <= 0 {
		return 0, errors.Errorf("invalid interval %q", interval)
	}

	unit := interval[len(interval)-1:]
	switch unit {
	case "s":
		return time.Duration(n) * time.Second, nil
	case "m":
		return time.Duration(n) * time.Minute, nil
	case "h":
		return time.Duration(n) * time.Hour, nil
	case "d":
		return time.Duration(n) * 24 * time.Hour, nil
	case "w":
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	case "M":
		return time.Duration(n) * 30 * 24 * time.Hour, nil
	}
	return 0, errors.Errorf("unknown interval unit in %q", strings.TrimSpace(interval))
}
