package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tradeforge/smcbot/internal/config"
	"github.com/tradeforge/smcbot/internal/database"
	"github.com/tradeforge/smcbot/internal/logging"
	"github.com/tradeforge/smcbot/internal/marketdata"
	"github.com/tradeforge/smcbot/internal/models"
	"github.com/tradeforge/smcbot/internal/services"
)

// barsPerDay maps a timeframe label to its candle count per trading day.
var barsPerDay = map[string]int{
	"M1":  1440,
	"M5":  288,
	"M15": 96,
	"M30": 48,
	"H1":  24,
	"H4":  6,
	"D1":  1,
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var provider marketdata.Provider = marketdata.NewClient(cfg.MarketData)

	var redisClient *database.RedisClient
	if cfg.Redis.Enabled {
		redisClient, err = database.NewRedisConnection(cfg.Redis)
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to Redis")
		}
		defer redisClient.Close()
		provider = marketdata.NewCachedProvider(provider, redisClient, cfg.MarketData.CacheTTL, logger)
	}

	symbol := cfg.Strategy.Symbol
	timeframe := cfg.Strategy.BaseTimeframe

	limit := candleLimit(timeframe, cfg.Backtest.LookbackDays)
	logger.WithField("symbol", symbol).WithField("timeframe", timeframe).
		WithField("limit", limit).Info("fetching candle history")

	candles, err := provider.GetCandles(ctx, symbol, timeframe, limit)
	if err != nil {
		logger.WithError(err).Fatal("failed to fetch candles")
	}

	higherTF := make(map[string][]models.Candle)
	if cfg.Strategy.MTF.Enabled {
		for _, tf := range cfg.Strategy.MTF.Timeframes {
			htf, err := provider.GetCandles(ctx, symbol, tf, candleLimit(tf, cfg.Backtest.LookbackDays))
			if err != nil {
				logger.WithError(err).WithField("timeframe", tf).Warn("failed to fetch higher timeframe candles")
				continue
			}
			higherTF[tf] = htf
		}
	}

	backtester := services.NewBacktester(cfg, logger)
	result, err := backtester.Run(ctx, services.BacktestInput{
		Candles:  candles,
		HigherTF: higherTF,
	})
	if err != nil {
		logger.WithError(err).Fatal("backtest failed")
	}

	printResults(result, cfg)

	if cfg.Backtest.ResultsFile != "" {
		if err := exportResults(result, cfg.Backtest.ResultsFile); err != nil {
			logger.WithError(err).Error("failed to export results")
		} else {
			logger.WithField("file", cfg.Backtest.ResultsFile).Info("results exported")
		}
	}

	if cfg.Database.Enabled {
		db, err := database.NewPostgresConnection(&cfg.Database)
		if err != nil {
			logger.WithError(err).Error("failed to connect to database, skipping persistence")
		} else {
			defer db.Close()
			store := services.NewTradeStore(db.Pool, logger)
			if err := store.EnsureSchema(ctx); err != nil {
				logger.WithError(err).Error("failed to migrate schema")
			} else if runID, err := store.SaveResult(ctx, result); err != nil {
				logger.WithError(err).Error("failed to persist results")
			} else {
				logger.WithField("run_id", runID).Info("results persisted")
			}
		}
	}

	if cfg.Telegram.Enabled {
		notifier, err := services.NewNotificationService(cfg.Telegram, logger)
		if err != nil {
			logger.WithError(err).Error("failed to create telegram notifier")
		} else if err := notifier.NotifyBacktestResult(ctx, result); err != nil {
			logger.WithError(err).Error("failed to send telegram summary")
		}
	}
}

// candleLimit converts a lookback in days to a candle count, capped to
// what a single data service request can serve.
func candleLimit(timeframe string, days int) int {
	perDay, ok := barsPerDay[strings.ToUpper(timeframe)]
	if !ok {
		perDay = 1440
	}
	limit := perDay * days
	if limit > 100000 {
		limit = 100000
	}
	if limit <= 0 {
		limit = perDay
	}
	return limit
}

func printResults(result *models.BacktestResult, cfg *config.Config) {
	line := strings.Repeat("=", 58)
	fmt.Println(line)
	fmt.Printf("  BACKTEST RESULTS: %s %s\n", result.Symbol, result.Timeframe)
	fmt.Println(line)
	fmt.Printf("  Period:          %s -> %s\n",
		result.StartedAt.Format("2006-01-02 15:04"),
		result.CompletedAt.Format("2006-01-02 15:04"))
	fmt.Printf("  Signals found:   %d\n", result.SignalsFound)
	fmt.Printf("  Trades taken:    %d\n", result.TradesTaken)
	if result.SkippedBars > 0 {
		fmt.Printf("  Skipped bars:    %d\n", result.SkippedBars)
	}

	if result.NoTrades || result.Metrics == nil {
		fmt.Println()
		fmt.Println("  No trades were filled during this period.")
		fmt.Println(line)
		return
	}

	m := result.Metrics
	fmt.Println(strings.Repeat("-", 58))
	fmt.Printf("  Wins / Losses:   %d / %d (%.1f%% win rate)\n", m.WinCount, m.LossCount, m.WinRate)
	fmt.Printf("  Net P&L:         %s\n", m.TotalPnL.StringFixed(2))
	fmt.Printf("  Return:          %s%%\n", m.TotalReturnPct.StringFixed(2))
	fmt.Printf("  Final balance:   %s (from %.2f)\n", m.FinalBalance.StringFixed(2), cfg.Backtest.InitialBalance)
	fmt.Printf("  Avg win / loss:  %s / %s\n", m.AvgWin.StringFixed(2), m.AvgLoss.StringFixed(2))
	fmt.Printf("  Best / worst:    %s / %s\n", m.BestTrade.StringFixed(2), m.WorstTrade.StringFixed(2))
	fmt.Printf("  Profit factor:   %s\n", m.ProfitFactor.StringFixed(2))
	fmt.Printf("  Max drawdown:    %.2f%%\n", m.MaxDrawdownPct)
	fmt.Printf("  Sharpe ratio:    %.2f\n", m.SharpeRatio)
	fmt.Printf("  Avg quality:     %.1f\n", m.AvgQualityScore)
	fmt.Printf("  Avg R:R:         1:%.1f\n", m.AvgRRRatio)
	fmt.Println(line)
}

func exportResults(result *models.BacktestResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
