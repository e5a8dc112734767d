package price

import (
	"context"
	"sync"

	"MacdRsiBot/internal/models"
)

// Source is the exchange connectivity the unified stream is built from.
type Source interface {
	// FetchHistorical returns the recent candles of symbol/interval, oldest
	// first. The last element may still be forming.
	FetchHistorical(ctx context.Context, symbol, interval string) ([]models.Candle, error)

	// SubscribeLive streams push messages until the connection ends.
	SubscribeLive(ctx context.Context, symbol, interval string) (<-chan models.KlineEvent, error)
}

// StreamOpener produces independent unified candle streams on demand.
type StreamOpener interface {
	Open(ctx context.Context) (*CandleStream, error)
}

// CandleStream is one consumer's view of a unified candle stream. The
// channel is closed when the stream ends.
type CandleStream struct {
	c      <-chan models.Candle
	cancel context.CancelFunc
	wg     *sync.WaitGroup
}

func (s *CandleStream) C() <-chan models.Candle {
	return s.c
}

// Close detaches the consumer and waits for the producers to stop.
func (s *CandleStream) Close() {
	s.cancel()
	if s.wg != nil {
		s.wg.Wait()
	}
}

type historyOnly struct {
	Source
}

// HistoryOnly wraps src so that its live segment is empty.
func HistoryOnly(src Source) Source {
	return historyOnly{Source: src}
}

func (historyOnly) SubscribeLive(ctx context.Context, symbol, interval string) (<-chan models.KlineEvent, error) {
	ch := make(chan models.KlineEvent)
	close(ch)
	return ch, nil
}
