package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeforge/smcbot/internal/config"
	"github.com/tradeforge/smcbot/internal/models"
)

func TestNotificationServiceDisabledWithoutToken(t *testing.T) {
	ns, err := NewNotificationService(config.TelegramConfig{Enabled: true, BotToken: ""}, testLogger())
	require.NoError(t, err)
	assert.False(t, ns.Enabled())

	// Sends are silent no-ops when disabled.
	assert.NoError(t, ns.NotifySignal(context.Background(), SignalAlert{}))
	assert.NoError(t, ns.NotifyBacktestResult(context.Background(), &models.BacktestResult{}))
}

func TestNotificationServiceRequiresChatID(t *testing.T) {
	_, err := NewNotificationService(config.TelegramConfig{Enabled: true, BotToken: "123:abc"}, testLogger())
	assert.Error(t, err)
}

func TestFormatSignalMessage(t *testing.T) {
	msg := FormatSignalMessage(SignalAlert{
		Symbol:       "EURUSD",
		Timeframe:    "M1",
		Direction:    models.DirectionBullish,
		Entry:        1.10020,
		StopLoss:     1.09950,
		TakeProfit:   1.10160,
		RRRatio:      2.0,
		QualityScore: 85,
		Rating:       models.RatingGood,
		Factors:      []string{"structure shift detected", "order block identified"},
	})

	assert.Contains(t, msg, "LONG")
	assert.Contains(t, msg, "EURUSD")
	assert.Contains(t, msg, "1.10020")
	assert.Contains(t, msg, "1.09950")
	assert.Contains(t, msg, "85")
	assert.Contains(t, msg, "GOOD")
	assert.Contains(t, msg, "structure shift detected")
}

func TestFormatSignalMessageShort(t *testing.T) {
	msg := FormatSignalMessage(SignalAlert{
		Symbol:    "GBPUSD",
		Direction: models.DirectionBearish,
	})
	assert.Contains(t, msg, "SHORT")
}

func TestFormatBacktestMessage(t *testing.T) {
	result := &models.BacktestResult{
		Symbol:       "EURUSD",
		Timeframe:    "M1",
		SignalsFound: 12,
		TradesTaken:  4,
		Metrics: &models.BacktestMetrics{
			WinCount:       3,
			LossCount:      1,
			WinRate:        75,
			TotalPnL:       decimal.NewFromInt(250),
			ProfitFactor:   decimal.NewFromFloat(4.5),
			MaxDrawdownPct: 1.2,
			SharpeRatio:    1.8,
			FinalBalance:   decimal.NewFromInt(10250),
		},
		Trades: []models.SimulatedTrade{
			{Outcome: models.OutcomeWin}, {Outcome: models.OutcomeWin},
			{Outcome: models.OutcomeWin}, {Outcome: models.OutcomeLoss},
		},
	}
	result.StartedAt = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	msg := FormatBacktestMessage(result)
	assert.Contains(t, msg, "EURUSD")
	assert.Contains(t, msg, "Signals found: 12")
	assert.Contains(t, msg, "Trades taken: 4")
	assert.Contains(t, msg, "75.0%")
	assert.Contains(t, msg, "250.00")
	assert.Contains(t, msg, "10250.00")
}

func TestFormatBacktestMessageNoTrades(t *testing.T) {
	msg := FormatBacktestMessage(&models.BacktestResult{
		Symbol:    "EURUSD",
		Timeframe: "M1",
		NoTrades:  true,
	})
	assert.Contains(t, msg, "No trades were filled")
}
