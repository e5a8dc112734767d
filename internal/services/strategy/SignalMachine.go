package strategy

import (
	"context"

	"MacdRsiBot/internal/metrics"
	"MacdRsiBot/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "strategy")

var ErrInvalidThresholds = errors.New("rsi thresholds must lie in [0, 100]")

// SignalMachine turns paired RSI/MACD readings into buy and sell intents.
// The two sides are evaluated independently, buy first, and may both fire
// on the same pair.
type SignalMachine struct {
	long  *LongStrategy
	short *ShortStrategy
}

func NewSignalMachine(buyThreshold, sellThreshold decimal.Decimal) (*SignalMachine, error) {
	hundred := decimal.NewFromInt(100)
	for _, t := range []decimal.Decimal{buyThreshold, sellThreshold} {
		if t.IsNegative() || t.GreaterThan(hundred) {
			return nil, errors.Wrapf(ErrInvalidThresholds, "buy %s, sell %s", buyThreshold, sellThreshold)
		}
	}

	return &SignalMachine{
		long:  NewLongStrategy(buyThreshold),
		short: NewShortStrategy(sellThreshold),
	}, nil
}

// Process applies one pair. Warm-up pairs and pairs replayed from history
// leave the state untouched.
func (m *SignalMachine) Process(pair models.IndicatorPair) []models.Intent {
	if !pair.Ready() || !pair.Live() {
		return nil
	}

	rsi, macd := pair.RSI.Value, pair.MACD.Value
	metrics.LastRSI.Set(rsi.InexactFloat64())
	metrics.LastMACD.Set(macd.InexactFloat64())

	var intents []models.Intent
	if fired, count := m.long.Step(rsi, macd); fired {
		intents = append(intents, m.intent(models.SideBuy, pair, count))
	}
	if fired, count := m.short.Step(rsi, macd); fired {
		intents = append(intents, m.intent(models.SideSell, pair, count))
	}

	log.Debugf("rsi=%s macd=%s buy[%s] sell[%s]", rsi.StringFixed(2), macd, m.long.State(), m.short.State())
	return intents
}

func (m *SignalMachine) intent(side models.Side, pair models.IndicatorPair, count int) models.Intent {
	intent := models.Intent{
		Side:         side,
		Time:         pair.RSI.Time,
		RSI:          pair.RSI.Value,
		MACD:         pair.MACD.Value,
		ConfirmCount: count,
	}
	metrics.IntentsTotal.WithLabelValues(string(side)).Inc()
	log.Infof("emitting %s", intent)
	return intent
}

func (m *SignalMachine) BuyState() ConfirmationState  { return m.long.State() }
func (m *SignalMachine) SellState() ConfirmationState { return m.short.State() }

// Run processes pairs until the input ends or ctx is done. Intents are
// handed over one at a time.
func (m *SignalMachine) Run(ctx context.Context, pairs <-chan models.IndicatorPair) <-chan models.Intent {
	out := make(chan models.Intent)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case pair, ok := <-pairs:
				if !ok {
					log.Info("indicator stream ended")
					return
				}
				for _, intent := range m.Process(pair) {
					select {
					case out <- intent:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return out
}
