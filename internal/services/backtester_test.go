package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeforge/smcbot/internal/models"
)

func TestRunNoCandles(t *testing.T) {
	b := NewBacktester(testConfig(), testLogger())

	_, err := b.Run(context.Background(), BacktestInput{})
	assert.ErrorIs(t, err, ErrNoCandles)
}

func TestRunSeriesShorterThanWarmup(t *testing.T) {
	b := NewBacktester(testConfig(), testLogger())

	_, err := b.Run(context.Background(), BacktestInput{
		Candles: bullishShiftSeries()[:10],
	})
	assert.ErrorIs(t, err, ErrNoCandles)
}

func TestRunCancelledContext(t *testing.T) {
	b := NewBacktester(testConfig(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Run(ctx, BacktestInput{Candles: bullishShiftSeries()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunSingleWinningTrade(t *testing.T) {
	b := NewBacktester(testConfig(), testLogger())

	result, err := b.Run(context.Background(), BacktestInput{Candles: bullishShiftSeries()})
	require.NoError(t, err)

	assert.Equal(t, 1, result.SignalsFound)
	assert.Equal(t, 1, result.TradesTaken)
	assert.Equal(t, 0, result.SkippedBars)
	assert.False(t, result.NoTrades)
	require.Len(t, result.Trades, 1)

	trade := result.Trades[0]
	assert.Equal(t, models.DirectionBullish, trade.Direction)
	assert.Equal(t, models.OutcomeWin, trade.Outcome)
	assert.Equal(t, 8, trade.SignalIndex)
	assert.InDelta(t, 1.1002, trade.Entry, 1e-9)
	assert.InDelta(t, 1.0995, trade.StopLoss, 1e-9)
	assert.InDelta(t, 100, trade.PnL.InexactFloat64(), 1e-6)

	m := result.Metrics
	require.NotNil(t, m)
	assert.Equal(t, 1, m.TotalTrades)
	assert.Equal(t, 1, m.WinCount)
	assert.Equal(t, 0, m.LossCount)
	assert.InDelta(t, 100, m.WinRate, 1e-9)
	assert.InDelta(t, 10100, m.FinalBalance.InexactFloat64(), 1e-6)
	// With no losing trades the profit factor reports the sentinel.
	assert.True(t, m.ProfitFactor.Equal(decimal.NewFromInt(999)))
	assert.InDelta(t, 0, m.MaxDrawdownPct, 1e-9)

	require.Len(t, result.EquityCurve, 2)
	assert.InDelta(t, 10100, result.EquityCurve[1].Balance.InexactFloat64(), 1e-6)
}

// Two runs over the same series yield byte-identical results.
func TestRunDeterministic(t *testing.T) {
	input := BacktestInput{Candles: bullishShiftSeries()}

	first, err := NewBacktester(testConfig(), testLogger()).Run(context.Background(), input)
	require.NoError(t, err)
	second, err := NewBacktester(testConfig(), testLogger()).Run(context.Background(), input)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRunNoTradesResult(t *testing.T) {
	cfg := testConfig()
	b := NewBacktester(cfg, testLogger())

	// A flat series produces no structure shifts and no trades.
	var candles []models.Candle
	for i := 0; i < 60; i++ {
		candles = append(candles, flatCandle(i, 1.1000))
	}

	result, err := b.Run(context.Background(), BacktestInput{Candles: candles})
	require.NoError(t, err)
	assert.True(t, result.NoTrades)
	assert.Nil(t, result.Metrics)
	assert.Zero(t, result.SignalsFound)
	assert.Empty(t, result.Trades)
}

func TestRunBullishSeriesNeverShorts(t *testing.T) {
	cfg := testConfig()
	cfg.Strategy.MinQualityScore = 25
	b := NewBacktester(cfg, testLogger())

	// A rising zigzag: shifts happen, but never bearish ones.
	var candles []models.Candle
	for i := 0; i < 120; i++ {
		base := 1.1000 + float64(i)*0.0004
		if i%3 == 0 {
			candles = append(candles, candle(i, base, base+0.0012, base-0.0010, base-0.0006))
		} else {
			candles = append(candles, candle(i, base, base+0.0015, base-0.0003, base+0.0012))
		}
	}

	result, err := b.Run(context.Background(), BacktestInput{Candles: candles})
	require.NoError(t, err)

	for _, trade := range result.Trades {
		assert.Equal(t, models.DirectionBullish, trade.Direction)
	}
}

func TestRunRequireConfluenceGates(t *testing.T) {
	cfg := testConfig()
	cfg.Strategy.RequireConfluence = true
	b := NewBacktester(cfg, testLogger())

	// The crafted series has no OB+FVG confluence, so the signal is
	// counted but never traded.
	result, err := b.Run(context.Background(), BacktestInput{Candles: bullishShiftSeries()})
	require.NoError(t, err)
	assert.Equal(t, 1, result.SignalsFound)
	assert.Zero(t, result.TradesTaken)
	assert.True(t, result.NoTrades)
}

func TestRunMisalignedMTFVetoes(t *testing.T) {
	cfg := testConfig()
	cfg.Strategy.MTF.Enabled = true
	cfg.Strategy.MTF.Timeframes = []string{"M5"}
	b := NewBacktester(cfg, testLogger())

	// A falling higher timeframe opposes the bullish base signal.
	var htf []models.Candle
	for i := 0; i < 40; i++ {
		base := 1.1200 - float64(i)*0.0008
		if i%2 == 0 {
			htf = append(htf, candle(i, base, base+0.0020, base-0.0002, base+0.0015))
		} else {
			htf = append(htf, candle(i, base, base+0.0005, base-0.0015, base-0.0010))
		}
	}

	result, err := b.Run(context.Background(), BacktestInput{
		Candles:  bullishShiftSeries(),
		HigherTF: map[string][]models.Candle{"M5": htf},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.SignalsFound)
	assert.Zero(t, result.TradesTaken)
}

func TestRunSessionFilter(t *testing.T) {
	cfg := testConfig()
	cfg.Backtest.SessionFilter = true
	// The crafted series starts at 09:00 UTC, inside the London
	// session; moving the close before it shuts every signal out.
	cfg.Backtest.LondonOpen = "00:00"
	cfg.Backtest.LondonClose = "01:00"
	cfg.Backtest.NewYorkOpen = "22:00"
	cfg.Backtest.NewYorkClose = "23:00"
	b := NewBacktester(cfg, testLogger())

	result, err := b.Run(context.Background(), BacktestInput{Candles: bullishShiftSeries()})
	require.NoError(t, err)
	assert.Equal(t, 1, result.SignalsFound)
	assert.Zero(t, result.TradesTaken)
}

func TestRunRiskManagerTradeCap(t *testing.T) {
	cfg := testConfig()
	cfg.Risk.Enabled = true
	cfg.Risk.MaxDailyTrades = 0
	b := NewBacktester(cfg, testLogger())

	result, err := b.Run(context.Background(), BacktestInput{Candles: bullishShiftSeries()})
	require.NoError(t, err)
	assert.Equal(t, 1, result.SignalsFound)
	assert.Zero(t, result.TradesTaken)
}
