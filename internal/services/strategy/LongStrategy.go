package strategy

import (
	"github.com/shopspring/decimal"
)

// LongStrategy is the buy side: it arms when RSI drops below the buy
// threshold and confirms on rising MACD.
type LongStrategy struct {
	threshold decimal.Decimal
	state     ConfirmationState
}

func NewLongStrategy(threshold decimal.Decimal) *LongStrategy {
	return &LongStrategy{threshold: threshold}
}

// Step advances the buy side by one eligible reading and reports whether
// the side fired. On firing the state is already reset and the returned
// count is the one that fired.
func (s *LongStrategy) Step(rsi, macd decimal.Decimal) (bool, int) {
	if rsi.LessThan(s.threshold) && !s.state.Armed() {
		s.state.Baseline = &macd
	}

	if !s.state.Armed() {
		return false, 0
	}

	if macd.GreaterThan(*s.state.Baseline) {
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

func (s *LongStrategy) State() ConfirmationState {
	return s.state
}
