package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// confirmationsToFire is the confirm count a side must exceed to emit.
const confirmationsToFire = 1

// ConfirmationState is the per-side memory of the signal machine. A nil
// Baseline means the side is not armed.
type ConfirmationState struct {
	Baseline     *decimal.Decimal
	ConfirmCount int
}

func (s ConfirmationState) Armed() bool {
	return s.Baseline != nil
}

func (s *ConfirmationState) Reset() {
	s.Baseline = nil
	s.ConfirmCount = 0
}

func (s ConfirmationState) String() string {
	if s.Baseline == nil {
		return "idle"
	}
	return fmt.Sprintf("armed baseline=%s confirmations=%d", s.Baseline, s.ConfirmCount)
}
