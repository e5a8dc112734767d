package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Intent asks the execution layer to place an order. It is emitted once;
// failures are not retried by the signal layer.
type Intent struct {
	Side         Side
	Time         time.Time
	RSI          decimal.Decimal
	MACD         decimal.Decimal
	ConfirmCount int
}

func (i Intent) String() string {
	return fmt.Sprintf("%s intent at %s rsi=%s macd=%s confirmations=%d",
		i.Side, i.Time.Format(time.RFC3339), i.RSI.StringFixed(2), i.MACD, i.ConfirmCount)
}
