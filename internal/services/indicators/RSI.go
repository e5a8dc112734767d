package indicators

import (
	"context"

	"MacdRsiBot/internal/models"
	"MacdRsiBot/internal/operations/price"

	"github.com/shopspring/decimal"
)

const DefaultRSIWindow = 14

var (
	// Epsilon replaces the close of a candle that does not count as a gain
	// (or loss) so that the smoothed loss never becomes zero.
	Epsilon = decimal.New(1, -12)

	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Gains passes up candles through and flattens the others to Epsilon.
func Gains(c models.Candle) models.Candle {
	if !c.Delta().IsPositive() {
		c.Close = Epsilon
	}
	return c
}

// Losses passes down candles through and flattens the others to Epsilon.
func Losses(c models.Candle) models.Candle {
	if !c.Delta().IsNegative() {
		c.Close = Epsilon
	}
	return c
}

// RelativeStrength combines the gain and loss averages of one step. The
// result carries the time and origin of the loss reading.
func RelativeStrength(gain, loss models.Reading) models.Reading {
	if !gain.Ready || !loss.Ready {
		return models.NotReady(loss.Time, loss.Origin)
	}

	rs := gain.Value.DivRound(loss.Value, Precision)
	rsi := hundred.Sub(hundred.DivRound(one.Add(rs), Precision))
	return models.NewReading(loss.Time, rsi, loss.Origin)
}

type RSIStream struct {
	*composite
	window int
}

// NewRSI opens two candle streams from opener, one smoothed as gains and one
// as losses, and combines them into the relative strength index.
func NewRSI(ctx context.Context, opener price.StreamOpener, window int) (*RSIStream, error) {
	gainEMA, err := NewEMA(window)
	if err != nil {
		return nil, err
	}

	lossEMA, err := NewEMA(window)
	if err != nil {
		return nil, err
	}

	c, err := openPair(ctx, opener, gainEMA, lossEMA, Gains, Losses, RelativeStrength)
	if err != nil {
		return nil, err
	}

	return &RSIStream{composite: c, window: window}, nil
}

func (s *RSIStream) Window() int { return s.window }
