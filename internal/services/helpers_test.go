package services

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tradeforge/smcbot/internal/config"
	"github.com/tradeforge/smcbot/internal/models"
)

var testBase = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testStrategyConfig() *config.StrategyConfig {
	return &config.StrategyConfig{
		Symbol:               "EURUSD",
		BaseTimeframe:        "M1",
		Point:                0.0001,
		SwingLookback:        8,
		OBLookback:           8,
		MinConfluencePct:     40,
		RequireConfluence:    false,
		MinQualityScore:      50,
		RiskPerTrade:         0.005,
		MinRiskMultiplier:    0.5,
		MaxRiskMultiplier:    1.5,
		MinRRRatio:           2.0,
		MaxRRRatio:           3.0,
		FillWindowBars:       10,
		ResolutionWindowBars: 20,
		MTF: config.MTFConfig{
			MinAlignmentPct: 50,
			ScoreBonus:      true,
		},
		Breaker: config.BreakerConfig{
			Lookback:     50,
			TolerancePct: 0.2,
		},
		Filters: config.FilterConfig{
			ATRPeriod:      14,
			MinATRPips:     3,
			MaxATRPips:     20,
			MinVolumeRatio: 0.6,
			VolumePeriod:   20,
		},
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		LogLevel:    "error",
		Strategy:    *testStrategyConfig(),
		Risk: config.RiskConfig{
			Enabled:          false,
			MaxDailyLossPct:  0.03,
			MaxWeeklyLossPct: 0.05,
			MaxDailyTrades:   20,
		},
		Backtest: config.BacktestConfig{
			InitialBalance: 10000,
			WarmupBars:     8,
			LondonOpen:     "08:00",
			LondonClose:    "16:00",
			NewYorkOpen:    "13:30",
			NewYorkClose:   "20:00",
		},
	}
}

func candle(i int, open, high, low, clos float64) models.Candle {
	return models.Candle{
		Time:   testBase.Add(time.Duration(i) * time.Minute),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  clos,
		Volume: 100,
	}
}

func flatCandle(i int, price float64) models.Candle {
	return candle(i, price, price, price, price)
}

// bullishShiftSeries is a 30-candle series with exactly one structure
// shift: the candle at index 7 closes above the swing high formed at
// index 3, producing a bullish signal at index 8. A long entry at the
// order block body low (1.1002) fills on bar 8 and reaches its target
// on bar 9.
func bullishShiftSeries() []models.Candle {
	candles := []models.Candle{
		candle(0, 1.1000, 1.1010, 1.0990, 1.1000),
		candle(1, 1.1000, 1.1005, 1.0970, 1.0980), // swing low
		candle(2, 1.0980, 1.1008, 1.0985, 1.1000),
		candle(3, 1.1000, 1.1030, 1.0995, 1.1025), // swing high
		candle(4, 1.1020, 1.1022, 1.1000, 1.1005),
		candle(5, 1.1005, 1.1010, 1.0998, 1.1002), // order block
		candle(6, 1.1002, 1.1012, 1.0999, 1.1008),
		candle(7, 1.1008, 1.1045, 1.0995, 1.1040), // breaking candle
		candle(8, 1.1010, 1.1012, 1.1000, 1.1010),
		candle(9, 1.1010, 1.1020, 1.1005, 1.1015),
	}
	for i := 10; i < 30; i++ {
		candles = append(candles, flatCandle(i, 1.1010))
	}
	return candles
}
