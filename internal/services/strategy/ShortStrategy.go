package strategy

import (
	"github.com/shopspring/decimal"
)

// ShortStrategy is the sell side, mirroring LongStrategy: RSI above the
// sell threshold arms it and falling MACD confirms.
type ShortStrategy struct {
	threshold decimal.Decimal
	state     ConfirmationState
}

func NewShortStrategy(threshold decimal.Decimal) *ShortStrategy {
	return &ShortStrategy{threshold: threshold}
}

func (s *ShortStrategy) Step(rsi, macd decimal.Decimal) (bool, int) {
	if rsi.GreaterThan(s.threshold) && !s.state.Armed() {
		s.state.Baseline = &macd
	}

	if !s.state.Armed() {
		return false, 0
	}

	if macd.LessThan(*s.state.Baseline) {
		s.state.ConfirmCount++
	}
	s.state.Baseline = &macd

	if s.state.ConfirmCount > confirmationsToFire {
		count := s.state.ConfirmCount
		s.state.Reset()
		return true, count
	}
	return false, 0
}

func (s *ShortStrategy) State() ConfirmationState {
	return s.state
}
