package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "metrics")

var (
	CandlesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "candles_total", Help: "Candles emitted by the unified candle stream"},
		[]string{"symbol", "origin"},
	)
	IntentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "intents_total", Help: "Trade intents emitted by the signal machine"},
		[]string{"side"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Order attempts by outcome"},
		[]string{"symbol", "side", "result"},
	)
	LastRSI = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "last_rsi", Help: "Most recent ready RSI reading"},
	)
	LastMACD = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "last_macd", Help: "Most recent ready MACD reading"},
	)
)

func init() {
	prometheus.MustRegister(CandlesTotal, IntentsTotal, OrdersTotal, LastRSI, LastMACD)
}

func newServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
}

// Serve exposes /metrics on addr in the background. Listen failures are
// logged; shut the returned server down to stop it.
func Serve(addr string) *http.Server {
	srv := newServer(addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Errorf("metrics server on %s stopped", addr)
		}
	}()
	return srv
}
