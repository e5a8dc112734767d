package price

import (
	"context"
	"sync"

	"MacdRsiBot/internal/models"

	"github.com/pkg/errors"
)

var ErrBroadcasterStarted = errors.New("broadcaster already started")

type subscriber struct {
	ch  chan models.Candle
	ctx context.Context
}

// Broadcaster fans one upstream candle stream out to every subscriber.
// Subscribers must be registered with Open before Start. Sends block on a
// full subscriber channel, so a slow subscriber slows the whole fan-out but
// never misses a candle.
type Broadcaster struct {
	upstream   StreamOpener
	bufferSize int

	mu          sync.Mutex
	subscribers []*subscriber
	started     bool

	stream *CandleStream
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewBroadcaster(upstream StreamOpener, bufferSize int) *Broadcaster {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	return &Broadcaster{
		upstream:   upstream,
		bufferSize: bufferSize,
	}
}

// Open registers a subscriber and returns its stream.
func (b *Broadcaster) Open(ctx context.Context) (*CandleStream, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return nil, ErrBroadcasterStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &subscriber{
		ch:  make(chan models.Candle, b.bufferSize),
		ctx: ctx,
	}
	b.subscribers = append(b.subscribers, sub)

	return &CandleStream{c: sub.ch, cancel: cancel}, nil
}

// Start opens the upstream stream and begins the fan-out. Upstream
// construction errors are returned here.
func (b *Broadcaster) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return ErrBroadcasterStarted
	}
	b.started = true
	subs := b.subscribers
	b.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	stream, err := b.upstream.Open(ctx)
	if err != nil {
		cancel()
		for _, sub := range subs {
			close(sub.ch)
		}
		return err
	}

	b.stream = stream
	b.cancel = cancel

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.pump(ctx, stream, subs)
	}()

	return nil
}

func (b *Broadcaster) pump(ctx context.Context, stream *CandleStream, subs []*subscriber) {
	defer stream.Close()
	defer func() {
		for _, sub := range subs {
			close(sub.ch)
		}
	}()

	active := make([]*subscriber, len(subs))
	copy(active, subs)

	for {
		select {
		case <-ctx.Done():
			return

		case c, ok := <-stream.C():
			if !ok {
				return
			}

			remaining := active[:0]
			for _, sub := range active {
				select {
				case sub.ch <- c:
					remaining = append(remaining, sub)
				case <-sub.ctx.Done():
					log.Debugf("subscriber detached, %d left", len(active)-1)
				case <-ctx.Done():
					return
				}
			}
			active = remaining

			if len(active) == 0 {
				log.Info("all candle subscribers detached, stopping broadcaster")
				return
			}
		}
	}
}

// Close stops the fan-out and the upstream stream.
func (b *Broadcaster) Close() {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
}
