package price

import (
	"context"

	"MacdRsiBot/internal/models"
)

// CandleStore persists candles.
type CandleStore interface {
	Create(record *models.CandleRecord) error
}

// Recorder persists every candle of a stream.
type Recorder struct {
	store CandleStore
}

func NewRecorder(store CandleStore) *Recorder {
	return &Recorder{store: store}
}

// Record blocks until stream ends or ctx is cancelled. Store errors are
// logged and skipped.
func (r *Recorder) Record(ctx context.Context, stream *CandleStream) {
	defer stream.Close()

	log.Info("starting candle recording...")

	for {
		select {
		case <-ctx.Done():
			log.Info("stopping candle recording...")
			return

		case c, ok := <-stream.C():
			if !ok {
				log.Info("candle stream ended, stopping recording")
				return
			}

			if err := r.store.Create(models.NewCandleRecord(c)); err != nil {
				log.WithError(err).Errorf("error saving candle %s", c)
				continue
			}

			log.Debugf("recorded candle %s", c)
		}
	}
}
