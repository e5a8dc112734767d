package indicators

import (
	"context"
	"sync"

	"MacdRsiBot/internal/models"
	"MacdRsiBot/internal/operations/price"
)

func send[T any](ctx context.Context, out chan<- T, v T) bool {
	select {
	case out <- v:
		return true
	case <-ctx.Done():
		return false
	}
}

func mapCandles(ctx context.Context, in <-chan models.Candle, fn func(models.Candle) models.Candle) <-chan models.Candle {
	out := make(chan models.Candle)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case c, ok := <-in:
				if !ok {
					return
				}
				if !send(ctx, out, fn(c)) {
					return
				}
			}
		}
	}()

	return out
}

// zip reads exactly one value from a and then one from b before emitting
// their combination. It stops as soon as either input ends.
func zip[A, B, C any](ctx context.Context, a <-chan A, b <-chan B, combine func(A, B) C) <-chan C {
	out := make(chan C)

	go func() {
		defer close(out)
		for {
			var va A
			var vb B
			var ok bool

			select {
			case <-ctx.Done():
				return
			case va, ok = <-a:
				if !ok {
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			case vb, ok = <-b:
				if !ok {
					return
				}
			}

			if !send(ctx, out, combine(va, vb)) {
				return
			}
		}
	}()

	return out
}

// Pair fuses the RSI and MACD streams step by step.
func Pair(ctx context.Context, rsi, macd <-chan models.Reading) <-chan models.IndicatorPair {
	return zip(ctx, rsi, macd, func(r, m models.Reading) models.IndicatorPair {
		return models.IndicatorPair{RSI: r, MACD: m}
	})
}

// composite owns the candle streams and goroutines of a two-sided indicator.
type composite struct {
	c       <-chan models.Reading
	cancel  context.CancelFunc
	streams []*price.CandleStream
	once    sync.Once
}

func (s *composite) C() <-chan models.Reading {
	return s.c
}

// Close stops the indicator and releases its candle streams.
func (s *composite) Close() {
	s.once.Do(func() {
		s.cancel()
		for _, stream := range s.streams {
			stream.Close()
		}
	})
}

// openPair opens two independent candle streams and runs each through its
// own transform and EMA before zipping the readings.
func openPair(ctx context.Context, opener price.StreamOpener,
	left, right *EMA,
	leftFn, rightFn func(models.Candle) models.Candle,
	combine func(l, r models.Reading) models.Reading,
) (*composite, error) {
	ctx, cancel := context.WithCancel(ctx)

	leftStream, err := opener.Open(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	rightStream, err := opener.Open(ctx)
	if err != nil {
		leftStream.Close()
		cancel()
		return nil, err
	}

	leftCandles, rightCandles := leftStream.C(), rightStream.C()
	if leftFn != nil {
		leftCandles = mapCandles(ctx, leftCandles, leftFn)
	}
	if rightFn != nil {
		rightCandles = mapCandles(ctx, rightCandles, rightFn)
	}

	out := zip(ctx, left.Stream(ctx, leftCandles), right.Stream(ctx, rightCandles), combine)
	return &composite{
		c:       out,
		cancel:  cancel,
		streams: []*price.CandleStream{leftStream, rightStream},
	}, nil
}
