package indicators

import (
	"context"

	"MacdRsiBot/internal/models"
	"MacdRsiBot/internal/operations/price"

	"github.com/pkg/errors"
)

const (
	DefaultMACDFast = 12
	DefaultMACDSlow = 26
)

var ErrWindowOrder = errors.New("macd fast window must be shorter than slow window")

// Divergence is fast - slow for one step, stamped with the slow reading.
func Divergence(fast, slow models.Reading) models.Reading {
	if !fast.Ready || !slow.Ready {
		return models.NotReady(slow.Time, slow.Origin)
	}
	return models.NewReading(slow.Time, fast.Value.Sub(slow.Value), slow.Origin)
}

type MACDStream struct {
	*composite
	fastWindow, slowWindow int
}

// NewMACD opens two candle streams from opener, since each EMA needs its
// own, and subtracts the slow average from the fast one.
func NewMACD(ctx context.Context, opener price.StreamOpener, fastWindow, slowWindow int) (*MACDStream, error) {
	fast, err := NewEMA(fastWindow)
	if err != nil {
		return nil, err
	}

	slow, err := NewEMA(slowWindow)
	if err != nil {
		return nil, err
	}

	if fastWindow >= slowWindow {
		return nil, errors.Wrapf(ErrWindowOrder, "fast %d, slow %d", fastWindow, slowWindow)
	}

	c, err := openPair(ctx, opener, fast, slow, nil, nil, Divergence)
	if err != nil {
		return nil, err
	}

	return &MACDStream{composite: c, fastWindow: fastWindow, slowWindow: slowWindow}, nil
}

func (s *MACDStream) Windows() (fast, slow int) {
	return s.fastWindow, s.slowWindow
}
