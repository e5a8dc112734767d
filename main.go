package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MacdRsiBot/config"
	"MacdRsiBot/internal/handlers"
	"MacdRsiBot/internal/metrics"
	"MacdRsiBot/internal/operations/backtest"
	"MacdRsiBot/internal/operations/binance"
	"MacdRsiBot/internal/operations/position"
	"MacdRsiBot/internal/repositories"
	"MacdRsiBot/internal/services/strategy"
	"MacdRsiBot/internal/services/trading"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "debug logging")
	backtestCmd.Flags().String("from", "", "start date, YYYY-MM-DD")
	backtestCmd.Flags().String("to", "", "end date, YYYY-MM-DD (default now)")
	backtestCmd.Flags().Int("warmup", backtest.DefaultWarmup, "candles replayed before the start date")
	rootCmd.AddCommand(runCmd, indicatorsCmd, backtestCmd)
}

// cfg is loaded once per invocation by rootCmd and shared by the subcommands.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "macdrsibot",
	Short: "RSI/MACD confirmation trading bot for Binance spot",

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded

		log.SetFormatter(&prefixed.TextFormatter{FullTimestamp: true})

		level, err := log.ParseLevel(cfg.LogLevel)
		if err != nil {
			return errors.Wrap(err, "invalid LOG_LEVEL")
		}
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			level = log.DebugLevel
		}
		log.SetLevel(level)
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "trade on live RSI/MACD signals",

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		client := binance.NewBinanceClient(cfg.Exchange.APIKey, cfg.Exchange.SecretKey, cfg.Exchange.BaseURL)

		prices := handlers.NewPriceHandler(client, cfg.Trading.Symbol, cfg.Trading.Interval, cfg.Indicators.LiveBufferSize)
		if cfg.Database.Enabled() {
			db, err := setupDatabase(cfg.Database)
			if err != nil {
				return err
			}

			repo := repositories.NewCandleRepository(db)
			if err := repo.Migrate(); err != nil {
				return errors.Wrap(err, "migrate candles")
			}
			prices.WithRecorder(repo)
		}

		var exchange position.Exchange = client
		if cfg.Trading.DryRun {
			log.Infof("dry run, paper trading with %s quote", cfg.Trading.PaperBalance)
			exchange = trading.NewPaperTrader(client, cfg.Trading.PaperBalance)
		}

		machine, err := strategy.NewSignalMachine(cfg.Trading.RSIBuy, cfg.Trading.RSISell)
		if err != nil {
			return err
		}

		session := handlers.NewStrategyHandler(
			prices.Opener(),
			machine,
			position.NewPositionExecutor(exchange, cfg.Trading.Symbol, cfg.Trading.MaxOrderAttempts),
			indicatorSettings(cfg.Indicators),
		)

		if err := session.Open(ctx); err != nil {
			return err
		}
		if err := prices.Start(ctx); err != nil {
			session.Close()
			return err
		}
		defer prices.Close()

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			// the session also ends on its own when the live feed drops
			defer stop()
			session.Run(ctx)
			return nil
		})

		if cfg.Metrics.Addr != "" {
			srv := metrics.Serve(cfg.Metrics.Addr)
			log.Infof("serving metrics on %s", cfg.Metrics.Addr)
			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
		}

		log.Infof("trading %s %s, buy below rsi %s, sell above rsi %s",
			cfg.Trading.Symbol, cfg.Trading.Interval, cfg.Trading.RSIBuy, cfg.Trading.RSISell)

		<-ctx.Done()
		log.Info("shutting down...")
		return g.Wait()
	},
}

var indicatorsCmd = &cobra.Command{
	Use:   "indicators",
	Short: "print RSI and MACD over the recent history",

	RunE: func(cmd *cobra.Command, args []string) error {

		client := binance.NewBinanceClient(cfg.Exchange.APIKey, cfg.Exchange.SecretKey, cfg.Exchange.BaseURL)
		_, err := handlers.PrintIndicators(cmd.Context(), client, cfg.Trading.Symbol, cfg.Trading.Interval,
			indicatorSettings(cfg.Indicators), cmd.OutOrStdout())
		return err
	},
}

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "replay recorded candles through the strategy on a paper account",

	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.Database.Enabled() {
			return errors.New("backtest needs recorded candles, set DB_HOST")
		}

		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		warmup, _ := cmd.Flags().GetInt("warmup")

		var err error
		btConfig := backtest.NewConfig(cfg.Trading.Symbol, cfg.Trading.Interval)
		if btConfig.StartTime, err = time.Parse(time.DateOnly, from); err != nil {
			return errors.Wrap(err, "invalid --from")
		}
		btConfig.EndTime = time.Now()
		if to != "" {
			if btConfig.EndTime, err = time.Parse(time.DateOnly, to); err != nil {
				return errors.Wrap(err, "invalid --to")
			}
		}
		btConfig.Warmup = warmup
		btConfig.InitialBalance = cfg.Trading.PaperBalance
		btConfig.MaxOrderAttempts = cfg.Trading.MaxOrderAttempts
		btConfig.RSIBuy = cfg.Trading.RSIBuy
		btConfig.RSISell = cfg.Trading.RSISell
		btConfig.RSIWindow = cfg.Indicators.RSIWindow
		btConfig.MACDFast = cfg.Indicators.MACDFast
		btConfig.MACDSlow = cfg.Indicators.MACDSlow

		db, err := setupDatabase(cfg.Database)
		if err != nil {
			return err
		}

		client := binance.NewBinanceClient(cfg.Exchange.APIKey, cfg.Exchange.SecretKey, cfg.Exchange.BaseURL)
		market, err := client.QueryMarket(cmd.Context(), cfg.Trading.Symbol)
		if err != nil {
			return err
		}

		engine := backtest.NewEngine(repositories.NewCandleRepository(db), *market, btConfig)
		results, err := engine.Run(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "\n=== Backtest Results ===")
		fmt.Fprintf(out, "Candles: %d\n", results.Candles)
		fmt.Fprintf(out, "Total Trades: %d (%d buys, %d sells)\n", results.TotalTrades, results.Buys, results.Sells)
		fmt.Fprintf(out, "Initial Balance: %s %s\n", results.InitialBalance.StringFixed(2), market.QuoteAsset)
		fmt.Fprintf(out, "Final Balance: %s %s\n", results.FinalBalance.StringFixed(2), market.QuoteAsset)
		fmt.Fprintf(out, "Max Drawdown: %.2f%%\n", results.MaxDrawdown*100)
		fmt.Fprintf(out, "Sharpe Ratio: %.2f\n", results.SharpeRatio)
		return nil
	},
}

func indicatorSettings(c config.IndicatorConfig) handlers.IndicatorSettings {
	return handlers.IndicatorSettings{
		RSIWindow: c.RSIWindow,
		MACDFast:  c.MACDFast,
		MACDSlow:  c.MACDSlow,
	}
}

func setupDatabase(dbConfig config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	return db, nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
