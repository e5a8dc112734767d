package binance

import (
	"time"

	"MacdRsiBot/internal/models"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

func parseDecimal(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "invalid %s %q", field, s)
	}
	return d, nil
}

func toCandle(symbol, interval string, k *binance.Kline) (models.Candle, error) {
	if k == nil {
		return models.Candle{}, errors.New("nil kline")
	}

	open, err := parseDecimal("open", k.Open)
	if err != nil {
		return models.Candle{}, err
	}

	closePrice, err := parseDecimal("close", k.Close)
	if err != nil {
		return models.Candle{}, err
	}

	return models.Candle{
		Symbol:   symbol,
		Interval: interval,
		Time:     time.UnixMilli(k.OpenTime).UTC(),
		Open:     open,
		Close:    closePrice,
		Origin:   models.OriginHistorical,
	}, nil
}

func toKlineEvent(e *binance.WsKlineEvent) (models.KlineEvent, error) {
	if e == nil {
		return models.KlineEvent{}, errors.New("nil kline event")
	}

	k := e.Kline
	if k.Symbol == "" || k.Interval == "" || k.StartTime == 0 {
		return models.KlineEvent{}, errors.Errorf("incomplete kline event %+v", k)
	}

	open, err := parseDecimal("open", k.Open)
	if err != nil {
		return models.KlineEvent{}, err
	}

	closePrice, err := parseDecimal("close", k.Close)
	if err != nil {
		return models.KlineEvent{}, err
	}

	return models.KlineEvent{
		Symbol:   k.Symbol,
		Interval: k.Interval,
		Closed:   k.IsFinal,
		Candle: models.Candle{
			Symbol:   k.Symbol,
			Interval: k.Interval,
			Time:     time.UnixMilli(k.StartTime).UTC(),
			Open:     open,
			Close:    closePrice,
			Origin:   models.OriginLive,
		},
	}, nil
}

func toSideType(side models.Side) (binance.SideType, error) {
	switch side {
	case models.SideBuy:
		return binance.SideTypeBuy, nil
	case models.SideSell:
		return binance.SideTypeSell, nil
	}
	return "", errors.Errorf("unknown order side %q", side)
}
