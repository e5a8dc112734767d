package handlers

import (
	"context"
	"fmt"
	"io"

	"MacdRsiBot/internal/models"
	"MacdRsiBot/internal/operations/price"
	"MacdRsiBot/internal/services/indicators"
)

// PrintIndicators replays the historical candles of one symbol/interval
// through RSI and MACD and writes one line per candle. It returns the
// number of lines written.
func PrintIndicators(ctx context.Context, source price.Source, symbol, interval string, settings IndicatorSettings, w io.Writer) (int, error) {
	opener := price.NewFeed(price.HistoryOnly(source), symbol, interval, 0)

	rsi, err := indicators.NewRSI(ctx, opener, settings.RSIWindow)
	if err != nil {
		return 0, err
	}
	defer rsi.Close()

	macd, err := indicators.NewMACD(ctx, opener, settings.MACDFast, settings.MACDSlow)
	if err != nil {
		return 0, err
	}
	defer macd.Close()

	n := 0
	for pair := range indicators.Pair(ctx, rsi.C(), macd.C()) {
		if _, err := fmt.Fprintf(w, "%s\trsi=%s\tmacd=%s\n",
			pair.RSI.Time.Format("2006-01-02 15:04"), formatReading(pair.RSI, 2), formatReading(pair.MACD, 6)); err != nil {
			return n, err
		}
		n++
	}
	return n, ctx.Err()
}

func formatReading(r models.Reading, places int32) string {
	if !r.Ready {
		return "-"
	}
	return r.Value.StringFixed(places)
}
