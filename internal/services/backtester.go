package services

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/tradeforge/smcbot/internal/config"
	"github.com/tradeforge/smcbot/internal/models"
)

// ErrNoCandles is returned when a backtest is started without
// historical data.
var ErrNoCandles = errors.New("no historical candles available")

// progressInterval controls how often the performance monitor samples
// during a scan.
const progressInterval = 1000

// Backtester drives the full detection pipeline over a historical
// candle series, maintains the running balance and trade log, and
// aggregates performance metrics. It is the only component with
// mutable state; the detectors and simulator stay pure.
type Backtester struct {
	cfg       *config.Config
	detector  *SMCDetector
	scorer    *SetupScorer
	resolver  *EntryResolver
	simulator *TradeSimulator
	risk      *RiskManager
	monitor   *PerformanceMonitor
	logger    *logrus.Logger
}

// NewBacktester wires the pipeline components from one configuration.
func NewBacktester(cfg *config.Config, logger *logrus.Logger) *Backtester {
	return &Backtester{
		cfg:       cfg,
		detector:  NewSMCDetector(&cfg.Strategy, logger),
		scorer:    NewSetupScorer(&cfg.Strategy, logger),
		resolver:  NewEntryResolver(&cfg.Strategy, logger),
		simulator: NewTradeSimulator(&cfg.Strategy, logger),
		risk:      NewRiskManager(&cfg.Risk, logger),
		monitor:   NewPerformanceMonitor(logger),
		logger:    logger,
	}
}

// BacktestInput is the immutable data a run replays. HigherTF carries
// optional higher-timeframe series keyed by timeframe name, used for
// multi-timeframe alignment when enabled.
type BacktestInput struct {
	Candles  []models.Candle
	HigherTF map[string][]models.Candle
}

// Run scans the series from the warm-up offset to the resolution
// buffer, replaying every gated setup. Two identical runs produce
// byte-identical trade logs and metrics: nothing here reads the wall
// clock or a random source.
func (b *Backtester) Run(ctx context.Context, in BacktestInput) (*models.BacktestResult, error) {
	if len(in.Candles) == 0 {
		return nil, ErrNoCandles
	}

	candles := in.Candles
	warmup := b.cfg.Backtest.WarmupBars
	end := len(candles) - b.cfg.Strategy.ResolutionWindowBars
	if end <= warmup {
		return nil, ErrNoCandles
	}

	balance := decimal.NewFromFloat(b.cfg.Backtest.InitialBalance)
	result := &models.BacktestResult{
		Symbol:    b.cfg.Strategy.Symbol,
		Timeframe: b.cfg.Strategy.BaseTimeframe,
		StartedAt: candles[warmup].Time,
		EquityCurve: []models.EquityPoint{
			{Timestamp: candles[0].Time, Balance: balance},
		},
	}

	b.logger.WithFields(logrus.Fields{
		"symbol":  b.cfg.Strategy.Symbol,
		"candles": len(candles),
		"from":    candles[warmup].Time,
		"to":      candles[end-1].Time,
	}).Info("starting backtest scan")

	// Sort timeframe names once so MTF evaluation order is stable.
	var tfNames []string
	for name := range in.HigherTF {
		tfNames = append(tfNames, name)
	}
	sort.Strings(tfNames)

	for i := warmup; i < end; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i%progressInterval == 0 {
			b.monitor.LogStats(i, len(candles))
		}

		trade, signal, ok := b.scanIndex(in, tfNames, i, balance, result)
		if signal {
			result.SignalsFound++
		}
		if !ok {
			continue
		}

		if trade.Outcome.Closed() {
			result.TradesTaken++
			b.risk.RecordTrade()
			balance = balance.Add(trade.PnL)
			result.EquityCurve = append(result.EquityCurve, models.EquityPoint{
				Timestamp: candles[i].Time,
				Balance:   balance,
			})
			result.Trades = append(result.Trades, trade)
		}
	}

	result.CompletedAt = candles[end-1].Time
	b.finalize(result, balance)

	b.logger.WithFields(logrus.Fields{
		"signals": result.SignalsFound,
		"trades":  result.TradesTaken,
		"skipped": result.SkippedBars,
	}).Info("backtest scan complete")

	return result, nil
}

// scanIndex evaluates one candle index end to end. A panic inside the
// pipeline aborts only this index; the scan continues and the bar is
// counted as skipped.
func (b *Backtester) scanIndex(in BacktestInput, tfNames []string, i int, balance decimal.Decimal, result *models.BacktestResult) (trade models.SimulatedTrade, signal, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.WithField("index", i).WithField("panic", r).Warn("scan aborted for index")
			result.SkippedBars++
			ok = false
		}
	}()

	candles := in.Candles
	strat := &b.cfg.Strategy

	shift := b.detector.DetectShift(candles, i)
	if shift == nil {
		return trade, false, false
	}
	signal = true

	signalTime := candles[i].Time
	if b.cfg.Backtest.SessionFilter && !b.inSession(signalTime) {
		return trade, signal, false
	}
	if can, reason := b.risk.CanTrade(signalTime, balance); !can {
		b.logger.WithField("reason", reason).Debug("risk manager blocked trade")
		return trade, signal, false
	}

	ob := b.detector.FindOrderBlock(candles, i, shift.Direction)
	fvg := b.detector.FindFairValueGap(candles, i)
	zone := b.detector.CheckConfluence(ob, fvg)

	if strat.RequireConfluence && zone == nil {
		return trade, signal, false
	}

	quality := b.scorer.ScoreSetup(shift, ob, fvg, zone)

	if strat.MTF.Enabled && len(tfNames) > 0 {
		structures := make([]models.TimeframeStructure, 0, len(tfNames))
		for _, name := range tfNames {
			series := truncateByTime(in.HigherTF[name], signalTime)
			structures = append(structures, b.detector.AnalyzeTimeframe(name, series))
		}
		alignment := b.scorer.CheckAlignment(shift.Direction, structures)
		if !alignment.Aligned {
			return trade, signal, false
		}
		if bonus := b.scorer.MTFBonus(alignment); bonus > 0 {
			quality = b.scorer.AddBonus(quality, bonus, "multi-timeframe alignment ("+string(alignment.Strength)+")")
		}
	}

	entry, found := b.resolver.ResolveEntry(ob, fvg, zone)
	if !found {
		return trade, signal, false
	}

	if strat.Breaker.Enabled {
		historical := b.detector.FindHistoricalOrderBlocks(candles, i, strat.Breaker.Lookback)
		breakers := b.detector.DetectBreakerBlocks(candles, i, historical)
		if bc := b.detector.BreakerConfluenceFor(shift.Direction, entry, breakers); bc != nil && strat.Breaker.ScoreBonus {
			quality = b.scorer.AddBonus(quality, bc.BonusScore, "breaker block confluence ("+string(bc.Quality)+")")
		}
	}

	if quality.Score < strat.MinQualityScore {
		return trade, signal, false
	}

	var atrPips float64
	if strat.Filters.Enabled {
		atrPips = b.detector.ATRPips(candles, i)
		if atrPips > 0 && (atrPips < strat.Filters.MinATRPips || atrPips > strat.Filters.MaxATRPips) {
			return trade, signal, false
		}
		if b.detector.VolumeRatio(candles, i) < strat.Filters.MinVolumeRatio {
			return trade, signal, false
		}
	}

	tp, rr := b.resolver.TakeProfit(shift.Direction, entry, shift.InvalidationLevel, quality.Score, atrPips)

	trade = b.simulator.Simulate(SimulationInput{
		Candles:     candles,
		SignalIndex: i,
		Direction:   shift.Direction,
		Entry:       entry,
		StopLoss:    shift.InvalidationLevel,
		TakeProfit:  tp,
		Quality:     quality,
		RRRatio:     rr,
		Balance:     balance,
	})
	return trade, signal, true
}

// truncateByTime returns the prefix of a time-ascending series with
// candle times at or before the cutoff.
func truncateByTime(candles []models.Candle, cutoff time.Time) []models.Candle {
	n := sort.Search(len(candles), func(i int) bool {
		return candles[i].Time.After(cutoff)
	})
	return candles[:n]
}

func (b *Backtester) inSession(t time.Time) bool {
	bt := &b.cfg.Backtest
	minutes := t.UTC().Hour()*60 + t.UTC().Minute()
	return inWindow(minutes, bt.LondonOpen, bt.LondonClose) ||
		inWindow(minutes, bt.NewYorkOpen, bt.NewYorkClose)
}

func inWindow(minutes int, open, close string) bool {
	o, err := parseClock(open)
	if err != nil {
		return false
	}
	c, err := parseClock(close)
	if err != nil {
		return false
	}
	return minutes >= o && minutes < c
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// finalize computes aggregate metrics. A run with zero closed trades
// reports an explicit no-trades result instead of dividing by zero.
func (b *Backtester) finalize(result *models.BacktestResult, balance decimal.Decimal) {
	if len(result.Trades) == 0 {
		result.NoTrades = true
		return
	}

	initial := decimal.NewFromFloat(b.cfg.Backtest.InitialBalance)
	m := &models.BacktestMetrics{
		TotalTrades:  len(result.Trades),
		FinalBalance: balance,
		BestTrade:    result.Trades[0].PnL,
		WorstTrade:   result.Trades[0].PnL,
	}

	var (
		grossWin   = decimal.Zero
		grossLoss  = decimal.Zero
		totalScore int
		totalRR    float64
	)
	for _, t := range result.Trades {
		m.TotalPnL = m.TotalPnL.Add(t.PnL)
		totalScore += t.QualityScore
		totalRR += t.RRRatio

		switch t.Outcome {
		case models.OutcomeWin:
			m.WinCount++
			grossWin = grossWin.Add(t.PnL)
		case models.OutcomeLoss:
			m.LossCount++
			grossLoss = grossLoss.Add(t.PnL.Abs())
		}

		if t.PnL.GreaterThan(m.BestTrade) {
			m.BestTrade = t.PnL
		}
		if t.PnL.LessThan(m.WorstTrade) {
			m.WorstTrade = t.PnL
		}
	}

	m.WinRate = float64(m.WinCount) / float64(m.TotalTrades) * 100
	m.TotalReturnPct = balance.Sub(initial).Div(initial).Mul(decimal.NewFromInt(100))

	if m.WinCount > 0 {
		m.AvgWin = grossWin.Div(decimal.NewFromInt(int64(m.WinCount)))
	}
	if m.LossCount > 0 {
		m.AvgLoss = grossLoss.Div(decimal.NewFromInt(int64(m.LossCount))).Neg()
	}

	if grossLoss.IsPositive() {
		m.ProfitFactor = grossWin.Div(grossLoss)
	} else if grossWin.IsPositive() {
		// No losing trades; report a sentinel instead of dividing by zero.
		m.ProfitFactor = decimal.NewFromInt(999)
	}

	m.MaxDrawdownPct = maxDrawdown(result.EquityCurve)
	m.SharpeRatio = sharpeRatio(result.EquityCurve)
	m.AvgQualityScore = float64(totalScore) / float64(m.TotalTrades)
	m.AvgRRRatio = totalRR / float64(m.TotalTrades)

	result.Metrics = m
}

// maxDrawdown returns the largest peak-to-trough decline on the equity
// curve, as a positive percentage.
func maxDrawdown(curve []models.EquityPoint) float64 {
	if len(curve) == 0 {
		return 0
	}
	peak := curve[0].Balance
	maxDD := 0.0
	for _, p := range curve {
		if p.Balance.GreaterThan(peak) {
			peak = p.Balance
		}
		if peak.IsPositive() {
			dd, _ := peak.Sub(p.Balance).Div(peak).Mul(decimal.NewFromInt(100)).Float64()
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// sharpeRatio computes a simplified annualised Sharpe ratio from the
// per-step returns of the equity curve, assuming a zero risk-free rate
// and 252 trading days.
func sharpeRatio(curve []models.EquityPoint) float64 {
	if len(curve) < 3 {
		return 0
	}

	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Balance
		if !prev.IsPositive() {
			continue
		}
		r, _ := curve[i].Balance.Sub(prev).Div(prev).Float64()
		returns = append(returns, r)
	}
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var sq float64
	for _, r := range returns {
		d := r - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(len(returns)-1))
	if std == 0 {
		return 0
	}

	return mean / std * math.Sqrt(252)
}
