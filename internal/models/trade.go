package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeOutcome is the terminal state of a simulated trade.
type TradeOutcome string

const (
	OutcomeWin     TradeOutcome = "win"
	OutcomeLoss    TradeOutcome = "loss"
	OutcomeTimeout TradeOutcome = "timeout"
	OutcomeExpired TradeOutcome = "expired"
)

// Closed reports whether the outcome moved money (win or loss).
func (o TradeOutcome) Closed() bool {
	return o == OutcomeWin || o == OutcomeLoss
}

// SimulatedTrade is the immutable record of one replayed setup.
// Expired trades never filled; timeout trades filled but resolved
// neither stop nor target within the resolution window.
type SimulatedTrade struct {
	ID           string          `json:"id" db:"id"`
	Symbol       string          `json:"symbol" db:"symbol"`
	SignalTime   time.Time       `json:"signal_time" db:"signal_time"`
	SignalIndex  int             `json:"signal_index" db:"signal_index"`
	Direction    Direction       `json:"direction" db:"direction"`
	Entry        float64         `json:"entry" db:"entry"`
	StopLoss     float64         `json:"stop_loss" db:"stop_loss"`
	TakeProfit   float64         `json:"take_profit" db:"take_profit"`
	LotSize      decimal.Decimal `json:"lot_size" db:"lot_size"`
	QualityScore int             `json:"quality_score" db:"quality_score"`
	Rating       QualityRating   `json:"quality_rating" db:"quality_rating"`
	RRRatio      float64         `json:"rr_ratio" db:"rr_ratio"`
	Outcome      TradeOutcome    `json:"outcome" db:"outcome"`
	PnL          decimal.Decimal `json:"pnl" db:"pnl"`
	Pips         float64         `json:"pips" db:"pips"`
	BarsToFill   int             `json:"bars_to_fill" db:"bars_to_fill"`
	BarsHeld     int             `json:"bars_held" db:"bars_held"`
	ExitPrice    float64         `json:"exit_price" db:"exit_price"`
}

// EquityPoint is one snapshot on the append-only equity curve.
type EquityPoint struct {
	Timestamp time.Time       `json:"timestamp"`
	Balance   decimal.Decimal `json:"balance"`
}

// BacktestMetrics aggregates performance over a completed scan.
type BacktestMetrics struct {
	TotalTrades     int             `json:"total_trades"`
	WinCount        int             `json:"win_count"`
	LossCount       int             `json:"loss_count"`
	WinRate         float64         `json:"win_rate"`
	TotalPnL        decimal.Decimal `json:"total_pnl"`
	TotalReturnPct  decimal.Decimal `json:"total_return_pct"`
	FinalBalance    decimal.Decimal `json:"final_balance"`
	AvgWin          decimal.Decimal `json:"avg_win"`
	AvgLoss         decimal.Decimal `json:"avg_loss"`
	BestTrade       decimal.Decimal `json:"best_trade"`
	WorstTrade      decimal.Decimal `json:"worst_trade"`
	ProfitFactor    decimal.Decimal `json:"profit_factor"`
	MaxDrawdownPct  float64         `json:"max_drawdown_pct"`
	SharpeRatio     float64         `json:"sharpe_ratio"`
	AvgQualityScore float64         `json:"avg_quality_score"`
	AvgRRRatio      float64         `json:"avg_rr_ratio"`
}

// BacktestResult is the full report of one orchestrated run.
// SignalsFound counts every structure shift seen, gated or not;
// TradesTaken counts only filled and resolved trades.
type BacktestResult struct {
	Symbol       string           `json:"symbol"`
	Timeframe    string           `json:"timeframe"`
	StartedAt    time.Time        `json:"started_at"`
	CompletedAt  time.Time        `json:"completed_at"`
	SignalsFound int              `json:"signals_found"`
	TradesTaken  int              `json:"trades_taken"`
	SkippedBars  int              `json:"skipped_bars"`
	NoTrades     bool             `json:"no_trades"`
	Metrics      *BacktestMetrics `json:"metrics,omitempty"`
	Trades       []SimulatedTrade `json:"trades"`
	EquityCurve  []EquityPoint    `json:"equity_curve"`
}
