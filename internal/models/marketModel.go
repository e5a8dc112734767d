package models

import "github.com/shopspring/decimal"

// Market holds the exchange trading rules the executor needs.
type Market struct {
	Symbol      string
	BaseAsset   string
	QuoteAsset  string
	StepSize    decimal.Decimal
	MinNotional decimal.Decimal
}

// TruncateQuantity floors q to the lot step size.
func (m Market) TruncateQuantity(q decimal.Decimal) decimal.Decimal {
	if !m.StepSize.IsPositive() {
		return q
	}
	return q.Div(m.StepSize).Floor().Mul(m.StepSize)
}

type BookTicker struct {
	Bid decimal.Decimal
	Ask decimal.Decimal
}

type OrderRequest struct {
	Symbol     string
	BaseAsset  string
	QuoteAsset string
	Side       Side
	Price      decimal.Decimal
	Quantity   decimal.Decimal
}

type OrderResult struct {
	OrderID          int64
	ClientOrderID    string
	Status           string
	ExecutedQuantity decimal.Decimal
}
