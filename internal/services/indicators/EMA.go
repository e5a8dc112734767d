package indicators

import (
	"context"

	"MacdRsiBot/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Precision is the number of decimal places running averages and ratios
// are rounded to.
const Precision int32 = 18

var ErrInvalidWindow = errors.New("indicator window must be positive")

// EMA is an exponential moving average seeded with the simple average of
// the first window closes. It keeps no history beyond the seed window.
type EMA struct {
	window int
	k      decimal.Decimal
	rest   decimal.Decimal // 1 - k

	seed    []decimal.Decimal
	average decimal.Decimal
	seeded  bool
	steps   int
}

func NewEMA(window int) (*EMA, error) {
	if window <= 0 {
		return nil, errors.Wrapf(ErrInvalidWindow, "ema window %d", window)
	}

	k := decimal.NewFromInt(2).DivRound(decimal.NewFromInt(int64(window+1)), Precision)
	return &EMA{
		window: window,
		k:      k,
		rest:   decimal.NewFromInt(1).Sub(k),
		seed:   make([]decimal.Decimal, 0, window),
	}, nil
}

func (e *EMA) Window() int { return e.window }

// Steps returns the number of candles seen so far.
func (e *EMA) Steps() int { return e.steps }

// Update feeds one candle. The first window updates, including the one that
// seeds the average, return a not-ready reading.
func (e *EMA) Update(c models.Candle) models.Reading {
	e.steps++

	if !e.seeded {
		e.seed = append(e.seed, c.Close)
		if len(e.seed) < e.window {
			return models.NotReady(c.Time, c.Origin)
		}

		sum := decimal.Sum(e.seed[0], e.seed[1:]...)
		e.average = sum.DivRound(decimal.NewFromInt(int64(e.window)), Precision)
		e.seeded = true
		e.seed = nil
		return models.NotReady(c.Time, c.Origin)
	}

	e.average = c.Close.Mul(e.k).Add(e.average.Mul(e.rest)).Round(Precision)
	return models.NewReading(c.Time, e.average, c.Origin)
}

// Stream applies Update to every candle of in, one reading per candle. The
// output is closed when in is closed or ctx is done.
func (e *EMA) Stream(ctx context.Context, in <-chan models.Candle) <-chan models.Reading {
	out := make(chan models.Reading)

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
				if !send(ctx, out, e.Update(c)) {
					return
				}
			}
		}
	}()

	return out
}
