package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"github.com/tradeforge/smcbot/internal/config"
	"github.com/tradeforge/smcbot/internal/models"
)

// SignalAlert is the payload for a single setup notification.
type SignalAlert struct {
	Symbol       string
	Timeframe    string
	Direction    models.Direction
	Entry        float64
	StopLoss     float64
	TakeProfit   float64
	RRRatio      float64
	QualityScore int
	Rating       models.QualityRating
	Factors      []string
}

// NotificationService pushes signal and backtest alerts to a Telegram chat.
type NotificationService struct {
	bot    *bot.Bot
	chatID int64
	logger *logrus.Logger
}

// NewNotificationService creates the service. A missing token leaves the
// bot nil and turns every send into a no-op.
func NewNotificationService(cfg config.TelegramConfig, logger *logrus.Logger) (*NotificationService, error) {
	ns := &NotificationService{logger: logger}

	if !cfg.Enabled || cfg.BotToken == "" {
		logger.Info("telegram notifications disabled")
		return ns, nil
	}
	if cfg.ChatID == 0 {
		return nil, fmt.Errorf("telegram.chat_id is required when telegram is enabled")
	}

	b, err := bot.New(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	ns.bot = b
	ns.chatID = cfg.ChatID
	return ns, nil
}

// Enabled reports whether a bot is wired up.
func (ns *NotificationService) Enabled() bool {
	return ns.bot != nil
}

// NotifySignal sends a formatted setup alert.
func (ns *NotificationService) NotifySignal(ctx context.Context, alert SignalAlert) error {
	if ns.bot == nil {
		return nil
	}

	_, err := ns.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    ns.chatID,
		Text:      FormatSignalMessage(alert),
		ParseMode: tgmodels.ParseModeMarkdown,
	})
	if err != nil {
		return fmt.Errorf("failed to send signal alert: %w", err)
	}

	ns.logger.WithFields(logrus.Fields{
		"symbol":    alert.Symbol,
		"direction": alert.Direction,
		"score":     alert.QualityScore,
	}).Info("signal alert sent")
	return nil
}

// NotifyBacktestResult sends a run summary.
func (ns *NotificationService) NotifyBacktestResult(ctx context.Context, result *models.BacktestResult) error {
	if ns.bot == nil {
		return nil
	}

	_, err := ns.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    ns.chatID,
		Text:      FormatBacktestMessage(result),
		ParseMode: tgmodels.ParseModeMarkdown,
	})
	if err != nil {
		return fmt.Errorf("failed to send backtest summary: %w", err)
	}

	ns.logger.WithField("symbol", result.Symbol).Info("backtest summary sent")
	return nil
}

// FormatSignalMessage renders one setup alert as Telegram markdown.
func FormatSignalMessage(alert SignalAlert) string {
	arrow := "📈 LONG"
	if alert.Direction == models.DirectionBearish {
		arrow = "📉 SHORT"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s* (%s)\n\n", arrow, alert.Symbol, alert.Timeframe)
	fmt.Fprintf(&b, "🎯 Entry: %.5f\n", alert.Entry)
	fmt.Fprintf(&b, "🛑 Stop: %.5f\n", alert.StopLoss)
	fmt.Fprintf(&b, "💰 Target: %.5f (1:%.1f)\n", alert.TakeProfit, alert.RRRatio)
	fmt.Fprintf(&b, "⭐ Quality: *%d* (%s)\n", alert.QualityScore, alert.Rating)

	if len(alert.Factors) > 0 {
		b.WriteString("\nConfirmations:\n")
		for _, factor := range alert.Factors {
			fmt.Fprintf(&b, "  • %s\n", factor)
		}
	}

	b.WriteString("\n⚡ Manage your risk and position size.")
	return b.String()
}

// FormatBacktestMessage renders a completed run summary as Telegram markdown.
func FormatBacktestMessage(result *models.BacktestResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Backtest Complete: %s* (%s)\n\n", result.Symbol, result.Timeframe)
	fmt.Fprintf(&b, "Signals found: %d\n", result.SignalsFound)
	fmt.Fprintf(&b, "Trades taken: %d\n", result.TradesTaken)

	if result.NoTrades || result.Metrics == nil {
		b.WriteString("\nNo trades were filled in this run.")
		return b.String()
	}

	timeouts := 0
	for _, t := range result.Trades {
		if t.Outcome == models.OutcomeTimeout {
			timeouts++
		}
	}

	m := result.Metrics
	fmt.Fprintf(&b, "\n✅ Wins: %d  ❌ Losses: %d  ⏳ Timeouts: %d\n", m.WinCount, m.LossCount, timeouts)
	fmt.Fprintf(&b, "🏆 Win rate: *%.1f%%*\n", m.WinRate)
	fmt.Fprintf(&b, "💵 Net P&L: *%s*\n", m.TotalPnL.StringFixed(2))
	fmt.Fprintf(&b, "📈 Profit factor: %s\n", m.ProfitFactor.StringFixed(2))
	fmt.Fprintf(&b, "📉 Max drawdown: %.2f%%\n", m.MaxDrawdownPct)
	fmt.Fprintf(&b, "⚖️ Sharpe: %.2f\n", m.SharpeRatio)
	fmt.Fprintf(&b, "💰 Final balance: %s\n", m.FinalBalance.StringFixed(2))
	return b.String()
}
