package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/tradeforge/smcbot/internal/config"
)

// RiskManager enforces account-level circuit breakers: daily and weekly
// loss limits plus a daily trade cap. During backtests it is driven by
// candle timestamps, so a replay stays fully deterministic.
type RiskManager struct {
	cfg    *config.RiskConfig
	logger *logrus.Logger

	dailyStartBalance  decimal.Decimal
	weeklyStartBalance decimal.Decimal
	dailyDate          string
	weeklyKey          string
	dailyTrades        int
	dailyLocked        bool
	weeklyLocked       bool
	lockReason         string
}

// NewRiskManager creates a risk manager. It activates on the first call
// to CanTrade, which seeds the daily and weekly watermarks.
func NewRiskManager(cfg *config.RiskConfig, logger *logrus.Logger) *RiskManager {
	return &RiskManager{
		cfg:    cfg,
		logger: logger,
	}
}

func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// rollPeriods resets counters when the simulated clock crosses a day or
// ISO-week boundary.
func (rm *RiskManager) rollPeriods(now time.Time, balance decimal.Decimal) {
	day := now.UTC().Format("2006-01-02")
	if rm.dailyDate != day {
		rm.dailyDate = day
		rm.dailyStartBalance = balance
		rm.dailyTrades = 0
		rm.dailyLocked = false
	}

	week := weekKey(now.UTC())
	if rm.weeklyKey != week {
		rm.weeklyKey = week
		rm.weeklyStartBalance = balance
		rm.weeklyLocked = false
	}
}

// CanTrade reports whether another trade is allowed at the simulated
// time, and the lock reason when it is not.
func (rm *RiskManager) CanTrade(now time.Time, balance decimal.Decimal) (bool, string) {
	if !rm.cfg.Enabled {
		return true, ""
	}

	rm.rollPeriods(now, balance)

	if rm.dailyLocked || rm.weeklyLocked {
		return false, rm.lockReason
	}

	if rm.dailyStartBalance.IsPositive() {
		loss := rm.dailyStartBalance.Sub(balance)
		lossPct, _ := loss.Div(rm.dailyStartBalance).Float64()
		if lossPct >= rm.cfg.MaxDailyLossPct {
			rm.dailyLocked = true
			rm.lockReason = fmt.Sprintf("daily loss %.2f%% >= %.2f%%", lossPct*100, rm.cfg.MaxDailyLossPct*100)
			return false, rm.lockReason
		}
	}

	if rm.weeklyStartBalance.IsPositive() {
		loss := rm.weeklyStartBalance.Sub(balance)
		lossPct, _ := loss.Div(rm.weeklyStartBalance).Float64()
		if lossPct >= rm.cfg.MaxWeeklyLossPct {
			rm.weeklyLocked = true
			rm.lockReason = fmt.Sprintf("weekly loss %.2f%% >= %.2f%%", lossPct*100, rm.cfg.MaxWeeklyLossPct*100)
			return false, rm.lockReason
		}
	}

	if rm.dailyTrades >= rm.cfg.MaxDailyTrades {
		return false, fmt.Sprintf("daily trade limit reached (%d)", rm.cfg.MaxDailyTrades)
	}

	return true, ""
}

// RecordTrade counts a placed trade against the daily cap.
func (rm *RiskManager) RecordTrade() {
	rm.dailyTrades++
}
