package handlers

import (
	"context"
	"sync"

	"MacdRsiBot/internal/operations/price"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "handlers")

// PriceHandler owns the shared candle stream of one symbol/interval and,
// optionally, the recorder persisting it.
type PriceHandler struct {
	symbol   string
	interval string

	broadcaster *price.Broadcaster
	recorder    *price.Recorder

	wg sync.WaitGroup
}

func NewPriceHandler(source price.Source, symbol, interval string, bufferSize int) *PriceHandler {
	feed := price.NewFeed(source, symbol, interval, bufferSize)
	return &PriceHandler{
		symbol:      symbol,
		interval:    interval,
		broadcaster: price.NewBroadcaster(feed, bufferSize),
	}
}

// WithRecorder persists every candle of the stream to store.
func (h *PriceHandler) WithRecorder(store price.CandleStore) *PriceHandler {
	h.recorder = price.NewRecorder(store)
	return h
}

// Opener hands out subscriptions to the shared stream. Every subscription
// must be opened before Start.
func (h *PriceHandler) Opener() price.StreamOpener {
	return h.broadcaster
}

// Start fetches the history and begins streaming to all subscribers.
func (h *PriceHandler) Start(ctx context.Context) error {
	if h.recorder != nil {
		stream, err := h.broadcaster.Open(ctx)
		if err != nil {
			return err
		}

		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			h.recorder.Record(ctx, stream)
		}()
	}

	if err := h.broadcaster.Start(ctx); err != nil {
		return err
	}

	log.Infof("%s %s candle stream started", h.symbol, h.interval)
	return nil
}

func (h *PriceHandler) Close() {
	h.broadcaster.Close()
	h.wg.Wait()
}
