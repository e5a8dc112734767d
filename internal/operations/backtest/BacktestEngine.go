package backtest

import (
	"context"
	"math"
	"time"

	"MacdRsiBot/internal/models"
	"MacdRsiBot/internal/operations/position"
	"MacdRsiBot/internal/operations/price"
	"MacdRsiBot/internal/services/indicators"
	"MacdRsiBot/internal/services/strategy"
	"MacdRsiBot/internal/services/trading"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "backtest")

// CandleLoader reads stored candles, oldest first.
type CandleLoader interface {
	GetRange(symbol, timeFrame string, start, end time.Time) ([]models.CandleRecord, error)
}

// Engine replays stored candles through the live signal pipeline and trades
// the intents on a paper account.
type Engine struct {
	loader CandleLoader
	market models.Market
	config Config
}

func NewEngine(loader CandleLoader, market models.Market, config Config) *Engine {
	return &Engine{
		loader: loader,
		market: market,
		config: config,
	}
}

func (e *Engine) loadCandles() ([]models.Candle, int, error) {
	step, err := IntervalDuration(e.config.Interval)
	if err != nil {
		return nil, 0, err
	}

	from := e.config.StartTime.Add(-time.Duration(e.config.Warmup) * step)
	records, err := e.loader.GetRange(e.config.Symbol, e.config.Interval, from, e.config.EndTime)
	if err != nil {
		return nil, 0, errors.Wrap(err, "load candles")
	}

	candles := make([]models.Candle, 0, len(records))
	warmup := 0
	for _, r := range records {
		c := r.Candle()
		if c.Time.Before(e.config.StartTime) {
			warmup++
		}
		candles = append(candles, c)
	}
	return candles, warmup, nil
}

func (e *Engine) Run(ctx context.Context) (*BacktestResults, error) {
	candles, warmup, err := e.loadCandles()
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, errors.Errorf("no %s %s candles stored between %s and %s", e.config.Symbol, e.config.Interval,
			e.config.StartTime.Format(time.DateTime), e.config.EndTime.Format(time.DateTime))
	}

	log.Infof("replaying %d %s %s candles, %d for warm-up", len(candles), e.config.Symbol, e.config.Interval, warmup)

	closes := make(map[time.Time]decimal.Decimal, len(candles))
	for _, c := range candles {
		closes[c.Time] = c.Close
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opener := price.NewFeed(newReplaySource(candles, warmup), e.config.Symbol, e.config.Interval, 0)

	rsi, err := indicators.NewRSI(ctx, opener, e.config.RSIWindow)
	if err != nil {
		return nil, err
	}
	defer rsi.Close()

	macd, err := indicators.NewMACD(ctx, opener, e.config.MACDFast, e.config.MACDSlow)
	if err != nil {
		return nil, err
	}
	defer macd.Close()

	machine, err := strategy.NewSignalMachine(e.config.RSIBuy, e.config.RSISell)
	if err != nil {
		return nil, err
	}

	quotes := &simulatedMarket{market: e.market}
	account := trading.NewPaperTrader(quotes, e.config.InitialBalance)
	executor := position.NewPositionExecutor(account, e.config.Symbol, e.config.MaxOrderAttempts)

	results := &BacktestResults{
		Candles:        len(candles),
		InitialBalance: e.config.InitialBalance,
	}

	for intent := range machine.Run(ctx, indicators.Pair(ctx, rsi.C(), macd.C())) {
		last := closes[intent.Time]
		quotes.setPrice(last)

		orders, err := executor.Execute(ctx, intent)
		if err != nil {
			log.WithError(err).Warnf("execute %s", intent)
		}

		for _, o := range orders {
			results.Trades = append(results.Trades, Trade{
				Time:     intent.Time,
				Side:     intent.Side,
				Price:    last,
				Quantity: o.ExecutedQuantity,
				RSI:      intent.RSI,
				MACD:     intent.MACD,
			})
			if intent.Side == models.SideBuy {
				results.Buys++
			} else {
				results.Sells++
			}
		}

		results.EquityCurve = append(results.EquityCurve, EquityPoint{
			Timestamp: intent.Time,
			Balance:   e.equity(account, last),
		})
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results.TotalTrades = len(results.Trades)
	results.FinalBalance = e.equity(account, candles[len(candles)-1].Close)
	results.MaxDrawdown = maxDrawdown(e.config.InitialBalance, results.EquityCurve)
	results.SharpeRatio = sharpeRatio(results.EquityCurve)
	return results, nil
}

// equity values the paper account in the quote asset at price p.
func (e *Engine) equity(account *trading.PaperTrader, p decimal.Decimal) decimal.Decimal {
	balances := account.Balances()
	return balances[e.market.QuoteAsset].Add(balances[e.market.BaseAsset].Mul(p))
}

func maxDrawdown(initial decimal.Decimal, curve []EquityPoint) float64 {
	maxDrawdown := 0.0
	peak := initial.InexactFloat64()

	for _, point := range curve {
		balance := point.Balance.InexactFloat64()
		if balance > peak {
			peak = balance
		}
		if peak <= 0 {
			continue
		}
		if drawdown := (peak - balance) / peak; drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}

// sharpeRatio of the per-intent returns, not annualized.
func sharpeRatio(curve []EquityPoint) float64 {
	if len(curve) < 3 {
		return 0
	}

	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Balance.InexactFloat64()
		if prev == 0 {
			continue
		}
		returns = append(returns, (curve[i].Balance.InexactFloat64()-prev)/prev)
	}
	if len(returns) < 2 {
		return 0
	}

	avg := 0.0
	for _, r := range returns {
		avg += r
	}
	avg /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += math.Pow(r-avg, 2)
	}
	variance /= float64(len(returns) - 1) // sample variance
	stdDev := math.Sqrt(variance)

	if stdDev == 0 {
		return 0
	}
	return avg / stdDev
}
