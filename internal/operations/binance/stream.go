package binance

import (
	"context"

	"MacdRsiBot/internal/models"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
)

// wsKlineServe is swapped in tests.
var wsKlineServe = binance.WsKlineServe

// SubscribeLive opens the kline websocket of symbol/interval. Every push
// message is decoded into a typed KlineEvent; malformed messages are
// dropped. The returned channel is closed when the connection ends or ctx
// is cancelled.
func (c *BinanceClient) SubscribeLive(ctx context.Context, symbol, interval string) (<-chan models.KlineEvent, error) {
	out := make(chan models.KlineEvent)

	handler := func(e *binance.WsKlineEvent) {
		event, err := toKlineEvent(e)
		if err != nil {
			log.WithError(err).Warn("discarding malformed kline message")
			return
		}

		select {
		case out <- event:
		case <-ctx.Done():
		}
	}

	errHandler := func(err error) {
		log.WithError(err).Errorf("kline stream %s@%s error", symbol, interval)
	}

	doneC, stopC, err := wsKlineServe(symbol, interval, handler, errHandler)
	if err != nil {
		return nil, errors.Wrapf(err, "subscribe %s %s klines", symbol, interval)
	}

	log.Infof("subscribed %s@kline_%s", symbol, interval)

	go func() {
		defer close(out)

		select {
		case <-ctx.Done():
			close(stopC)
			<-doneC
		case <-doneC:
		}

		log.Infof("kline stream %s@%s closed", symbol, interval)
	}()

	return out, nil
}
