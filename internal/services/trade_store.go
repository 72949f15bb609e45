package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/tradeforge/smcbot/internal/models"
)

// PgxIface is the subset of pgxpool.Pool the trade store needs; pgxmock
// satisfies it in tests.
type PgxIface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TradeStore persists simulated trades and run summaries so past
// backtests can be compared and reported on.
type TradeStore struct {
	db     PgxIface
	logger *logrus.Logger
}

// NewTradeStore creates a store over an existing connection pool.
func NewTradeStore(db PgxIface, logger *logrus.Logger) *TradeStore {
	return &TradeStore{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the backing tables when they do not exist yet.
func (ts *TradeStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS backtest_runs (
			id UUID PRIMARY KEY,
			symbol TEXT NOT NULL,
			timeframe TEXT NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ NOT NULL,
			signals_found INT NOT NULL,
			trades_taken INT NOT NULL,
			final_balance NUMERIC,
			total_pnl NUMERIC,
			win_rate DOUBLE PRECISION,
			profit_factor NUMERIC,
			max_drawdown_pct DOUBLE PRECISION,
			sharpe_ratio DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS simulated_trades (
			id UUID PRIMARY KEY,
			run_id UUID NOT NULL REFERENCES backtest_runs(id) ON DELETE CASCADE,
			symbol TEXT NOT NULL,
			signal_time TIMESTAMPTZ NOT NULL,
			direction TEXT NOT NULL,
			entry DOUBLE PRECISION NOT NULL,
			stop_loss DOUBLE PRECISION NOT NULL,
			take_profit DOUBLE PRECISION NOT NULL,
			lot_size NUMERIC NOT NULL,
			quality_score INT NOT NULL,
			quality_rating TEXT NOT NULL,
			rr_ratio DOUBLE PRECISION NOT NULL,
			outcome TEXT NOT NULL,
			pnl NUMERIC NOT NULL,
			pips DOUBLE PRECISION NOT NULL,
			bars_to_fill INT NOT NULL,
			bars_held INT NOT NULL,
			exit_price DOUBLE PRECISION NOT NULL
		)`,
	}
	for _, sql := range statements {
		if _, err := ts.db.Exec(ctx, sql); err != nil {
			return fmt.Errorf("schema migration failed: %w", err)
		}
	}
	return nil
}

// SaveResult stores one completed run with all of its closed trades and
// returns the run ID.
func (ts *TradeStore) SaveResult(ctx context.Context, result *models.BacktestResult) (string, error) {
	runID := uuid.NewString()

	var (
		finalBalance interface{}
		totalPnL     interface{}
		winRate      interface{}
		profitFactor interface{}
		maxDrawdown  interface{}
		sharpe       interface{}
	)
	if m := result.Metrics; m != nil {
		finalBalance = m.FinalBalance
		totalPnL = m.TotalPnL
		winRate = m.WinRate
		profitFactor = m.ProfitFactor
		maxDrawdown = m.MaxDrawdownPct
		sharpe = m.SharpeRatio
	}

	_, err := ts.db.Exec(ctx, `
		INSERT INTO backtest_runs (
			id, symbol, timeframe, started_at, completed_at,
			signals_found, trades_taken, final_balance, total_pnl,
			win_rate, profit_factor, max_drawdown_pct, sharpe_ratio
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		runID, result.Symbol, result.Timeframe, result.StartedAt, result.CompletedAt,
		result.SignalsFound, result.TradesTaken, finalBalance, totalPnL,
		winRate, profitFactor, maxDrawdown, sharpe,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert backtest run: %w", err)
	}

	for _, t := range result.Trades {
		_, err := ts.db.Exec(ctx, `
			INSERT INTO simulated_trades (
				id, run_id, symbol, signal_time, direction,
				entry, stop_loss, take_profit, lot_size,
				quality_score, quality_rating, rr_ratio, outcome,
				pnl, pips, bars_to_fill, bars_held, exit_price
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
			t.ID, runID, t.Symbol, t.SignalTime, string(t.Direction),
			t.Entry, t.StopLoss, t.TakeProfit, t.LotSize,
			t.QualityScore, string(t.Rating), t.RRRatio, string(t.Outcome),
			t.PnL, t.Pips, t.BarsToFill, t.BarsHeld, t.ExitPrice,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert trade %s: %w", t.ID, err)
		}
	}

	ts.logger.WithFields(logrus.Fields{
		"run_id": runID,
		"trades": len(result.Trades),
	}).Info("backtest result persisted")

	return runID, nil
}

// RecentTrades returns the latest persisted trades, newest first.
func (ts *TradeStore) RecentTrades(ctx context.Context, limit int) ([]models.SimulatedTrade, error) {
	rows, err := ts.db.Query(ctx, `
		SELECT id, symbol, signal_time, direction, entry, stop_loss,
		       take_profit, lot_size, quality_score, quality_rating,
		       rr_ratio, outcome, pnl, pips, bars_to_fill, bars_held, exit_price
		FROM simulated_trades
		ORDER BY signal_time DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var trades []models.SimulatedTrade
	for rows.Next() {
		var t models.SimulatedTrade
		var direction, rating, outcome string
		err := rows.Scan(
			&t.ID, &t.Symbol, &t.SignalTime, &direction, &t.Entry, &t.StopLoss,
			&t.TakeProfit, &t.LotSize, &t.QualityScore, &rating,
			&t.RRRatio, &outcome, &t.PnL, &t.Pips, &t.BarsToFill, &t.BarsHeld, &t.ExitPrice,
		)
		if err != nil {
			ts.logger.WithError(err).Warn("failed to scan trade row")
			continue
		}
		t.Direction = models.Direction(direction)
		t.Rating = models.QualityRating(rating)
		t.Outcome = models.TradeOutcome(outcome)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}
