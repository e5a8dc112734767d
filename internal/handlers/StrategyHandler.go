package handlers

import (
	"context"

	"MacdRsiBot/internal/models"
	"MacdRsiBot/internal/operations/price"
	"MacdRsiBot/internal/services/indicators"
	"MacdRsiBot/internal/services/strategy"

	"github.com/sirupsen/logrus"
)

// IndicatorSettings are the windows of the RSI and MACD streams.
type IndicatorSettings struct {
	RSIWindow int
	MACDFast  int
	MACDSlow  int
}

// Executor consumes intents until the channel closes.
type Executor interface {
	Run(ctx context.Context, intents <-chan models.Intent)
}

// StrategyHandler runs one trading session: RSI and MACD over the candle
// stream, paired into the signal machine, intents into the executor.
type StrategyHandler struct {
	opener   price.StreamOpener
	machine  *strategy.SignalMachine
	executor Executor
	settings IndicatorSettings

	rsi  *indicators.RSIStream
	macd *indicators.MACDStream
}

func NewStrategyHandler(opener price.StreamOpener, machine *strategy.SignalMachine, executor Executor, settings IndicatorSettings) *StrategyHandler {
	return &StrategyHandler{
		opener:   opener,
		machine:  machine,
		executor: executor,
		settings: settings,
	}
}

// Open builds the indicator streams. Construction errors are reported here,
// before any candle is consumed.
func (h *StrategyHandler) Open(ctx context.Context) error {
	rsi, err := indicators.NewRSI(ctx, h.opener, h.settings.RSIWindow)
	if err != nil {
		return err
	}

	macd, err := indicators.NewMACD(ctx, h.opener, h.settings.MACDFast, h.settings.MACDSlow)
	if err != nil {
		rsi.Close()
		return err
	}

	fast, slow := macd.Windows()
	log.WithFields(logrus.Fields{
		"rsi_window": rsi.Window(),
		"macd_fast":  fast,
		"macd_slow":  slow,
	}).Info("indicator streams open")

	h.rsi, h.macd = rsi, macd
	return nil
}

// Run blocks until the candle stream ends or ctx is done.
func (h *StrategyHandler) Run(ctx context.Context) {
	defer h.Close()

	pairs := indicators.Pair(ctx, h.rsi.C(), h.macd.C())
	h.executor.Run(ctx, h.machine.Run(ctx, pairs))
	log.Info("strategy session ended")
}

func (h *StrategyHandler) Close() {
	if h.rsi != nil {
		h.rsi.Close()
	}
	if h.macd != nil {
		h.macd.Close()
	}
}
