package position

import (
	"context"

	"MacdRsiBot/internal/metrics"
	"MacdRsiBot/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "executor")

const DefaultMaxAttempts = 5

// Exchange is the spot account the executor trades on. The Binance client
// and the paper trader both implement it.
type Exchange interface {
	QueryMarket(ctx context.Context, symbol string) (*models.Market, error)
	QueryBookTicker(ctx context.Context, symbol string) (models.BookTicker, error)
	QueryFreeBalance(ctx context.Context, asset string) (decimal.Decimal, error)
	SubmitIOCLimitOrder(ctx context.Context, req models.OrderRequest) (*models.OrderResult, error)
}

// PositionExecutor turns intents into IOC limit orders. A buy spends the
// whole free quote balance at the best ask and a sell offers the whole
// free base balance at the best bid. Orders are repeated while the
// remaining notional is above the market minimum.
type PositionExecutor struct {
	exchange    Exchange
	symbol      string
	maxAttempts int

	market *models.Market
}

func NewPositionExecutor(exchange Exchange, symbol string, maxAttempts int) *PositionExecutor {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	return &PositionExecutor{
		exchange:    exchange,
		symbol:      symbol,
		maxAttempts: maxAttempts,
	}
}

// Execute attempts the order for one intent. It returns the orders that
// were accepted; a rejected order ends the attempt.
func (e *PositionExecutor) Execute(ctx context.Context, intent models.Intent) ([]models.OrderResult, error) {
	market, err := e.loadMarket(ctx)
	if err != nil {
		return nil, err
	}

	var results []models.OrderResult
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		req, ok, err := e.nextOrder(ctx, market, intent.Side)
		if err != nil {
			return results, err
		}
		if !ok {
			break
		}

		log.Infof("%s order %s @ %s, attempt %d (%s)", req.Side, req.Quantity, req.Price, attempt, intent)

		res, err := e.exchange.SubmitIOCLimitOrder(ctx, req)
		if err != nil {
			metrics.OrdersTotal.WithLabelValues(e.symbol, string(req.Side), "error").Inc()
			log.WithError(err).Warnf("%s order cancelled", req.Side)
			return results, err
		}

		metrics.OrdersTotal.WithLabelValues(e.symbol, string(req.Side), "submitted").Inc()
		log.Infof("order %d %s, executed %s", res.OrderID, res.Status, res.ExecutedQuantity)
		results = append(results, *res)
	}

	return results, nil
}

func (e *PositionExecutor) loadMarket(ctx context.Context) (*models.Market, error) {
	if e.market != nil {
		return e.market, nil
	}

	market, err := e.exchange.QueryMarket(ctx, e.symbol)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s market", e.symbol)
	}

	log.Infof("%s market: step %s, min notional %s, %s/%s",
		market.Symbol, market.StepSize, market.MinNotional, market.BaseAsset, market.QuoteAsset)
	e.market = market
	return market, nil
}

// nextOrder sizes the next order from the current book and balances. ok is
// false when there are no funds above the minimum notional.
func (e *PositionExecutor) nextOrder(ctx context.Context, market *models.Market, side models.Side) (models.OrderRequest, bool, error) {
	ticker, err := e.exchange.QueryBookTicker(ctx, market.Symbol)
	if err != nil {
		return models.OrderRequest{}, false, err
	}

	req := models.OrderRequest{
		Symbol:     market.Symbol,
		BaseAsset:  market.BaseAsset,
		QuoteAsset: market.QuoteAsset,
		Side:       side,
	}

	switch side {
	case models.SideBuy:
		quote, err := e.exchange.QueryFreeBalance(ctx, market.QuoteAsset)
		if err != nil {
			return req, false, err
		}
		if !quote.GreaterThan(market.MinNotional) || !ticker.Ask.IsPositive() {
			log.Infof("no funds, notional %s %s", quote, market.QuoteAsset)
			return req, false, nil
		}
		req.Price = ticker.Ask
		req.Quantity = market.TruncateQuantity(quote.Div(ticker.Ask))

	case models.SideSell:
		base, err := e.exchange.QueryFreeBalance(ctx, market.BaseAsset)
		if err != nil {
			return req, false, err
		}
		notional := base.Mul(ticker.Bid)
		if !notional.GreaterThan(market.MinNotional) {
			log.Infof("no funds, notional %s %s", notional, market.QuoteAsset)
			return req, false, nil
		}
		req.Price = ticker.Bid
		req.Quantity = market.TruncateQuantity(base)

	default:
		return req, false, errors.Errorf("unknown side %q", side)
	}

	if !req.Quantity.IsPositive() {
		return req, false, nil
	}
	return req, true, nil
}

// Run executes intents one at a time until the channel closes or ctx is
// done. Failed orders are logged and the intent is dropped.
func (e *PositionExecutor) Run(ctx context.Context, intents <-chan models.Intent) {
	for {
		select {
		case <-ctx.Done():
			return
		case intent, ok := <-intents:
			if !ok {
				return
			}
			if _, err := e.Execute(ctx, intent); err != nil {
				log.WithError(err).Errorf("execute %s", intent)
			}
		}
	}
}
