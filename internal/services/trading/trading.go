package trading

import (
	"context"
	"sync"

	"MacdRsiBot/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "paper")

const StatusFilled = "FILLED"

// Quoter supplies real market rules and prices to the paper trader.
type Quoter interface {
	QueryMarket(ctx context.Context, symbol string) (*models.Market, error)
	QueryBookTicker(ctx context.Context, symbol string) (models.BookTicker, error)
}

// PaperTrader simulates a spot account against real quotes. Orders fill
// immediately at their limit price, limited by the simulated balance.
type PaperTrader struct {
	quoter         Quoter
	initialBalance decimal.Decimal

	mu       sync.Mutex
	balances map[string]decimal.Decimal
	seeded   bool
	nextID   int64
}

// NewPaperTrader credits initialBalance to the quote asset of the first
// market queried.
func NewPaperTrader(quoter Quoter, initialBalance decimal.Decimal) *PaperTrader {
	return &PaperTrader{
		quoter:         quoter,
		initialBalance: initialBalance,
		balances:       make(map[string]decimal.Decimal),
	}
}

func (t *PaperTrader) QueryMarket(ctx context.Context, symbol string) (*models.Market, error) {
	market, err := t.quoter.QueryMarket(ctx, symbol)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.seeded {
		t.balances[market.QuoteAsset] = t.balances[market.QuoteAsset].Add(t.initialBalance)
		t.seeded = true
		log.Infof("paper account funded with %s %s", t.initialBalance, market.QuoteAsset)
	}
	return market, nil
}

func (t *PaperTrader) QueryBookTicker(ctx context.Context, symbol string) (models.BookTicker, error) {
	return t.quoter.QueryBookTicker(ctx, symbol)
}

func (t *PaperTrader) QueryFreeBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balances[asset], nil
}

func (t *PaperTrader) SubmitIOCLimitOrder(ctx context.Context, req models.OrderRequest) (*models.OrderResult, error) {
	if !req.Price.IsPositive() || !req.Quantity.IsPositive() {
		return nil, errors.Errorf("invalid order %s @ %s", req.Quantity, req.Price)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	quote, base := t.balances[req.QuoteAsset], t.balances[req.BaseAsset]
	qty := req.Quantity

	switch req.Side {
	case models.SideBuy:
		// floored so that qty*price never exceeds the quote balance
		if affordable, _ := quote.QuoRem(req.Price, int32(decimal.DivisionPrecision)); qty.GreaterThan(affordable) {
			qty = affordable
		}
		cost := qty.Mul(req.Price)
		t.balances[req.QuoteAsset] = quote.Sub(cost)
		t.balances[req.BaseAsset] = base.Add(qty)

	case models.SideSell:
		if qty.GreaterThan(base) {
			qty = base
		}
		t.balances[req.BaseAsset] = base.Sub(qty)
		t.balances[req.QuoteAsset] = quote.Add(qty.Mul(req.Price))

	default:
		return nil, errors.Errorf("unknown side %q", req.Side)
	}

	if !qty.IsPositive() {
		return nil, errors.Errorf("insufficient %s balance for %s order", req.Symbol, req.Side)
	}

	t.nextID++
	log.Infof("paper %s %s %s @ %s, balances %s=%s %s=%s", req.Side, qty, req.BaseAsset, req.Price,
		req.BaseAsset, t.balances[req.BaseAsset], req.QuoteAsset, t.balances[req.QuoteAsset])

	return &models.OrderResult{
		OrderID:          t.nextID,
		ClientOrderID:    uuid.New().String(),
		Status:           StatusFilled,
		ExecutedQuantity: qty,
	}, nil
}

// Balances returns a copy of the simulated account.
func (t *PaperTrader) Balances() map[string]decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]decimal.Decimal, len(t.balances))
	for asset, amount := range t.balances {
		out[asset] = amount
	}
	return out
}
