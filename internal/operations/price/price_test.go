package price

import (
	"context"
	"errors"
	"testing"
	"time"

	"MacdRsiBot/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 11, 17, 0, 0, 0, 0, time.UTC)

func candleAt(i int, closePrice int64) models.Candle {
	return models.Candle{
		Symbol:   "BNBUSDT",
		Interval: "1h",
		Time:     t0.Add(time.Duration(i) * time.Hour),
		Open:     decimal.NewFromInt(closePrice - 1),
		Close:    decimal.NewFromInt(closePrice),
	}
}

func closedEvent(i int, closePrice int64) models.KlineEvent {
	return models.KlineEvent{Symbol: "BNBUSDT", Interval: "1h", Closed: true, Candle: candleAt(i, closePrice)}
}

// fakeSource serves a fixed history and replays live events, then either
// closes the live channel or holds it open until ctx is cancelled.
type fakeSource struct {
	history    []models.Candle
	live       []models.KlineEvent
	holdOpen   bool
	historyErr error
	liveErr    error

	subscribed chan struct{}
	stopped    chan struct{}
}

func newFakeSource(history []models.Candle, live []models.KlineEvent) *fakeSource {
	return &fakeSource{
		history:    history,
		live:       live,
		subscribed: make(chan struct{}, 8),
		stopped:    make(chan struct{}, 8),
	}
}

func (s *fakeSource) FetchHistorical(ctx context.Context, symbol, interval string) ([]models.Candle, error) {
	if s.historyErr != nil {
		return nil, s.historyErr
	}
	return append([]models.Candle(nil), s.history...), nil
}

func (s *fakeSource) SubscribeLive(ctx context.Context, symbol, interval string) (<-chan models.KlineEvent, error) {
	if s.liveErr != nil {
		return nil, s.liveErr
	}

	s.subscribed <- struct{}{}
	ch := make(chan models.KlineEvent)
	go func() {
		defer func() { s.stopped <- struct{}{} }()
		defer close(ch)
		for _, e := range s.live {
			select {
			case ch <- e:
			case <-ctx.Done():
				return
			}
		}
		if s.holdOpen {
			<-ctx.Done()
		}
	}()
	return ch, nil
}

func drain(t *testing.T, stream *CandleStream) []models.Candle {
	t.Helper()
	var out []models.Candle
	timeout := time.After(2 * time.Second)
	for {
		select {
		case c, ok := <-stream.C():
			if !ok {
				return out
			}
			out = append(out, c)
		case <-timeout:
			t.Fatal("timed out draining candle stream")
		}
	}
}

func TestFeedSeam(t *testing.T) {
	history := []models.Candle{candleAt(0, 10), candleAt(1, 11), candleAt(2, 12)}
	live := []models.KlineEvent{
		{Symbol: "BNBUSDT", Interval: "1h", Closed: false, Candle: candleAt(2, 13)},
		closedEvent(2, 13),
		closedEvent(3, 14),
	}

	feed := NewFeed(newFakeSource(history, live), "BNBUSDT", "1h", 0)
	stream, err := feed.Open(context.Background())
	require.NoError(t, err)
	defer stream.Close()

	candles := drain(t, stream)
	require.Len(t, candles, 4)

	// the forming candle of the history is dropped and replaced by its closed form
	assert.Equal(t, models.OriginHistorical, candles[0].Origin)
	assert.Equal(t, models.OriginHistorical, candles[1].Origin)
	assert.Equal(t, models.OriginLive, candles[2].Origin)
	assert.Equal(t, "13", candles[2].Close.String())
	assert.Equal(t, models.OriginLive, candles[3].Origin)

	for i := 1; i < len(candles); i++ {
		assert.True(t, candles[i].Time.After(candles[i-1].Time), "timestamps must strictly increase")
	}
}

func TestFeedFiltersForeignMessages(t *testing.T) {
	other := closedEvent(1, 50)
	other.Symbol = "ETHUSDT"
	wrongInterval := closedEvent(1, 51)
	wrongInterval.Interval = "5m"
	lower := closedEvent(1, 52)
	lower.Symbol = "bnbusdt"

	feed := NewFeed(newFakeSource([]models.Candle{candleAt(0, 1)}, []models.KlineEvent{other, wrongInterval, lower}), "BNBUSDT", "1h", 1)
	stream, err := feed.Open(context.Background())
	require.NoError(t, err)
	defer stream.Close()

	candles := drain(t, stream)
	require.Len(t, candles, 1)
	assert.Equal(t, "52", candles[0].Close.String())
}

func TestFeedDropsReplayedLiveCandles(t *testing.T) {
	history := []models.Candle{candleAt(0, 10), candleAt(1, 11), candleAt(2, 12)}
	live := []models.KlineEvent{closedEvent(0, 10), closedEvent(1, 11), closedEvent(2, 12)}

	stream, err := NewFeed(newFakeSource(history, live), "BNBUSDT", "1h", 0).Open(context.Background())
	require.NoError(t, err)
	defer stream.Close()

	candles := drain(t, stream)
	require.Len(t, candles, 3)
	assert.Equal(t, models.OriginLive, candles[2].Origin)
}

func TestFeedHistoryError(t *testing.T) {
	src := newFakeSource(nil, nil)
	src.historyErr = errors.New("unauthorized")

	_, err := NewFeed(src, "BNBUSDT", "1h", 0).Open(context.Background())
	assert.Error(t, err)
}

func TestFeedSubscriptionFailureEndsStream(t *testing.T) {
	src := newFakeSource([]models.Candle{candleAt(0, 1), candleAt(1, 2), candleAt(2, 3)}, nil)
	src.liveErr = errors.New("dial tcp: timeout")

	stream, err := NewFeed(src, "BNBUSDT", "1h", 0).Open(context.Background())
	require.NoError(t, err)
	defer stream.Close()

	assert.Len(t, drain(t, stream), 2)
}

func TestFeedCloseStopsProducer(t *testing.T) {
	src := newFakeSource([]models.Candle{candleAt(0, 1), candleAt(1, 2)}, nil)
	src.holdOpen = true

	stream, err := NewFeed(src, "BNBUSDT", "1h", 0).Open(context.Background())
	require.NoError(t, err)

	<-stream.C()
	<-src.subscribed
	stream.Close()

	select {
	case <-src.stopped:
	case <-time.After(time.Second):
		t.Fatal("live subscription still running after Close")
	}
}

func TestHistoryOnly(t *testing.T) {
	src := newFakeSource([]models.Candle{candleAt(0, 1), candleAt(1, 2), candleAt(2, 3)}, []models.KlineEvent{closedEvent(3, 4)})
	stream, err := NewFeed(HistoryOnly(src), "BNBUSDT", "1h", 0).Open(context.Background())
	require.NoError(t, err)
	defer stream.Close()

	candles := drain(t, stream)
	require.Len(t, candles, 2)
	assert.Equal(t, models.OriginHistorical, candles[1].Origin)
}

func TestBroadcasterFansOutEveryCandle(t *testing.T) {
	history := []models.Candle{candleAt(0, 1), candleAt(1, 2), candleAt(2, 3)}
	live := []models.KlineEvent{closedEvent(2, 3), closedEvent(3, 4), closedEvent(4, 5)}

	// a one-slot buffer forces blocking sends instead of drops
	b := NewBroadcaster(NewFeed(newFakeSource(history, live), "BNBUSDT", "1h", 0), 1)

	ctx := context.Background()
	s1, err := b.Open(ctx)
	require.NoError(t, err)
	s2, err := b.Open(ctx)
	require.NoError(t, err)

	require.NoError(t, b.Start(ctx))
	defer b.Close()

	_, err = b.Open(ctx)
	assert.ErrorIs(t, err, ErrBroadcasterStarted)

	done := make(chan []models.Candle)
	go func() {
		var got []models.Candle
		for c := range s2.C() {
			got = append(got, c)
		}
		done <- got
	}()
	c1 := drain(t, s1)
	c2 := <-done

	require.Len(t, c1, 5)
	assert.Equal(t, c1, c2)
}

func TestBroadcasterSurvivesDetachedSubscriber(t *testing.T) {
	history := []models.Candle{candleAt(0, 1), candleAt(1, 2), candleAt(2, 3), candleAt(3, 4), candleAt(4, 5)}
	b := NewBroadcaster(NewFeed(newFakeSource(history, nil), "BNBUSDT", "1h", 0), 1)

	ctx := context.Background()
	gone, err := b.Open(ctx)
	require.NoError(t, err)
	kept, err := b.Open(ctx)
	require.NoError(t, err)

	gone.Close()
	require.NoError(t, b.Start(ctx))
	defer b.Close()

	assert.Len(t, drain(t, kept), 4)
}

func TestBroadcasterUpstreamError(t *testing.T) {
	src := newFakeSource(nil, nil)
	src.historyErr = errors.New("unauthorized")
	b := NewBroadcaster(NewFeed(src, "BNBUSDT", "1h", 0), 0)

	s, err := b.Open(context.Background())
	require.NoError(t, err)
	assert.Error(t, b.Start(context.Background()))

	_, ok := <-s.C()
	assert.False(t, ok)
}

type memoryStore struct {
	records []*models.CandleRecord
}

func (m *memoryStore) Create(record *models.CandleRecord) error {
	m.records = append(m.records, record)
	return nil
}

func TestRecorderPersistsStream(t *testing.T) {
	history := []models.Candle{candleAt(0, 1), candleAt(1, 2), candleAt(2, 3)}
	stream, err := NewFeed(newFakeSource(history, []models.KlineEvent{closedEvent(2, 3)}), "BNBUSDT", "1h", 0).Open(context.Background())
	require.NoError(t, err)

	store := &memoryStore{}
	NewRecorder(store).Record(context.Background(), stream)

	require.Len(t, store.records, 3)
	assert.Equal(t, "live", store.records[2].Origin)
	assert.Equal(t, "BNBUSDT", store.records[0].Symbol)
}
