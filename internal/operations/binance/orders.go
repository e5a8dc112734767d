package binance

import (
	"context"

	"MacdRsiBot/internal/models"

	"github.com/adshao/go-binance/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// QueryMarket loads the lot size and min notional rules of symbol.
func (c *BinanceClient) QueryMarket(ctx context.Context, symbol string) (*models.Market, error) {
	info, err := c.client.NewExchangeInfoService().Symbol(symbol).Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "query exchange info")
	}

	for _, s := range info.Symbols {
		if s.Symbol != symbol {
			continue
		}

		market := &models.Market{
			Symbol:     s.Symbol,
			BaseAsset:  s.BaseAsset,
			QuoteAsset: s.QuoteAsset,
		}

		if f := s.LotSizeFilter(); f != nil {
			if market.StepSize, err = parseDecimal("step size", f.StepSize); err != nil {
				return nil, err
			}
		}

		if f := s.NotionalFilter(); f != nil {
			if market.MinNotional, err = parseDecimal("min notional", f.MinNotional); err != nil {
				return nil, err
			}
		}

		return market, nil
	}

	return nil, errors.Errorf("symbol %s not found in exchange info", symbol)
}

func (c *BinanceClient) QueryBookTicker(ctx context.Context, symbol string) (models.BookTicker, error) {
	tickers, err := c.client.NewListBookTickersService().Symbol(symbol).Do(ctx)
	if err != nil {
		return models.BookTicker{}, errors.Wrap(err, "query book ticker")
	}

	for _, t := range tickers {
		if t.Symbol != symbol {
			continue
		}

		bid, err := parseDecimal("bid", t.BidPrice)
		if err != nil {
			return models.BookTicker{}, err
		}

		ask, err := parseDecimal("ask", t.AskPrice)
		if err != nil {
			return models.BookTicker{}, err
		}

		return models.BookTicker{Bid: bid, Ask: ask}, nil
	}

	return models.BookTicker{}, errors.Errorf("no book ticker for %s", symbol)
}

func (c *BinanceClient) QueryFreeBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	account, err := c.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "query account")
	}

	for _, b := range account.Balances {
		if b.Asset == asset {
			return parseDecimal("free balance", b.Free)
		}
	}

	return decimal.Zero, nil
}

// SubmitIOCLimitOrder places an immediate-or-cancel limit order.
func (c *BinanceClient) SubmitIOCLimitOrder(ctx context.Context, req models.OrderRequest) (*models.OrderResult, error) {
	side, err := toSideType(req.Side)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.NewCreateOrderService().
		Symbol(req.Symbol).
		Side(side).
		Type(binance.OrderTypeLimit).
		TimeInForce(binance.TimeInForceTypeIOC).
		Price(req.Price.String()).
		Quantity(req.Quantity.String()).
		NewClientOrderID(uuid.New().String()).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "submit %s order", req.Side)
	}

	executed, err := parseDecimal("executed quantity", resp.ExecutedQuantity)
	if err != nil {
		return nil, err
	}

	return &models.OrderResult{
		OrderID:          resp.OrderID,
		ClientOrderID:    resp.ClientOrderID,
		Status:           string(resp.Status),
		ExecutedQuantity: executed,
	}, nil
}
