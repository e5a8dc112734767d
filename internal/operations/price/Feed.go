package price

import (
	"context"
	"strings"
	"sync"

	"MacdRsiBot/internal/metrics"
	"MacdRsiBot/internal/models"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "price")

const DefaultBufferSize = 100

// Feed joins the historical batch and the live subscription of one
// symbol/interval into a single ordered candle stream.
type Feed struct {
	source     Source
	symbol     string
	interval   string
	bufferSize int
}

func NewFeed(source Source, symbol, interval string, bufferSize int) *Feed {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	return &Feed{
		source:     source,
		symbol:     symbol,
		interval:   interval,
		bufferSize: bufferSize,
	}
}

// Open fetches the history synchronously and starts the live producer.
// Every call re-fetches and re-subscribes.
func (f *Feed) Open(ctx context.Context) (*CandleStream, error) {
	history, err := f.source.FetchHistorical(ctx, f.symbol, f.interval)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s %s history", f.symbol, f.interval)
	}

	// the exchange returns the still-forming kline last; its closed form
	// arrives over the live feed.
	if len(history) > 0 {
		history = history[:len(history)-1]
	}

	ctx, cancel := context.WithCancel(ctx)
	queue := make(chan models.Candle, f.bufferSize)
	out := make(chan models.Candle)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		f.runLive(ctx, queue)
	}()
	go func() {
		defer wg.Done()
		f.emit(ctx, history, queue, out)
	}()

	return &CandleStream{c: out, cancel: cancel, wg: &wg}, nil
}

// runLive forwards closed klines of the feed's symbol/interval into queue.
func (f *Feed) runLive(ctx context.Context, queue chan<- models.Candle) {
	defer close(queue)

	events, err := f.source.SubscribeLive(ctx, f.symbol, f.interval)
	if err != nil {
		log.WithError(err).Errorf("%s %s live subscription failed", f.symbol, f.interval)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return

		case e, ok := <-events:
			if !ok {
				log.Warnf("%s %s live subscription ended", f.symbol, f.interval)
				return
			}

			if !e.Closed || !strings.EqualFold(e.Symbol, f.symbol) || e.Interval != f.interval {
				continue
			}

			candle := e.Candle
			candle.Origin = models.OriginLive

			select {
			case queue <- candle:
			case <-ctx.Done():
				return
			}
		}
	}
}

// emit writes the history and then the queued live candles to out.
func (f *Feed) emit(ctx context.Context, history []models.Candle, queue <-chan models.Candle, out chan<- models.Candle) {
	defer close(out)

	var last models.Candle
	seen := false

	send := func(c models.Candle) bool {
		if seen && !c.Time.After(last.Time) {
			log.Warnf("dropping out-of-order candle %s, last %s", c, last.Time)
			return true
		}

		select {
		case out <- c:
		case <-ctx.Done():
			return false
		}

		last, seen = c, true
		metrics.CandlesTotal.WithLabelValues(f.symbol, string(c.Origin)).Inc()
		return true
	}

	for _, c := range history {
		c.Origin = models.OriginHistorical
		if !send(c) {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-queue:
			if !ok {
				return
			}
			if !send(c) {
				return
			}
		}
	}
}
