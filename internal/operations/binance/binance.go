package binance

import (
	"context"
	"math"
	"net/http"
	"time"

	"MacdRsiBot/internal/models"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var log = logrus.WithField("exchange", "binance")

// historyLimit is the number of klines requested for the warm-up batch.
const historyLimit = 500

// klinesFunc fetches one page of klines.
type klinesFunc func(ctx context.Context, symbol, interval string, limit int) ([]*binance.Kline, error)

type BinanceClient struct {
	client      *binance.Client
	rateLimiter *rate.Limiter
	httpClient  *http.Client
	maxRetries  int
	backoff     time.Duration

	fetchKlines klinesFunc
}

func NewBinanceClient(apiKey, secretKey, baseURL string) *BinanceClient {
	// Create custom HTTP client with timeouts
	httpClient := &http.Client{
		Timeout: time.Second * 10,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	spotClient := binance.NewClient(apiKey, secretKey)
	spotClient.HTTPClient = httpClient
	if baseURL != "" {
		spotClient.BaseURL = baseURL
	}

	// 10 requests per second with burst of 20
	limiter := rate.NewLimiter(rate.Limit(10), 20)

	c := &BinanceClient{
		client:      spotClient,
		rateLimiter: limiter,
		httpClient:  httpClient,
		maxRetries:  3,
		backoff:     100 * time.Millisecond,
	}
	c.fetchKlines = c.queryKlines
	return c
}

func (c *BinanceClient) queryKlines(ctx context.Context, symbol, interval string, limit int) ([]*binance.Kline, error) {
	return c.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
}

// getKlines calls fetchKlines behind the rate limiter, retrying with
// exponential backoff.
func (c *BinanceClient) getKlines(ctx context.Context, symbol, interval string) ([]*binance.Kline, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		klines, err := c.fetchKlines(ctx, symbol, interval, historyLimit)
		if err == nil {
			return klines, nil
		}
		lastErr = err

		if attempt == c.maxRetries {
			break
		}

		waitTime := time.Duration(math.Pow(2, float64(attempt))) * c.backoff
		log.WithError(err).Warnf("kline query %s %s failed, retrying in %s", symbol, interval, waitTime)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(waitTime):
		}
	}

	return nil, lastErr
}

// FetchHistorical returns the most recent klines of symbol/interval, oldest
// first. The last element is the kline that is still forming.
func (c *BinanceClient) FetchHistorical(ctx context.Context, symbol, interval string) ([]models.Candle, error) {
	klines, err := c.getKlines(ctx, symbol, interval)
	if err != nil {
		return nil, errors.Wrapf(err, "query %s %s klines", symbol, interval)
	}

	candles := make([]models.Candle, 0, len(klines))
	for _, k := range klines {
		candle, err := toCandle(symbol, interval, k)
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}

	log.Infof("fetched %d %s klines for %s", len(candles), interval, symbol)
	return candles, nil
}
