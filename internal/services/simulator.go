package services

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/tradeforge/smcbot/internal/config"
	"github.com/tradeforge/smcbot/internal/models"
)

// riskMultiplierTiers scales the base risk fraction with setup quality.
// Ordered highest boundary first.
var riskMultiplierTiers = []struct {
	MinScore   int
	Multiplier float64
}{
	{90, 1.5},
	{85, 1.3},
	{75, 1.1},
	{0, 1.0},
}

func riskMultiplierFor(score int) float64 {
	for _, tier := range riskMultiplierTiers {
		if score >= tier.MinScore {
			return tier.Multiplier
		}
	}
	return 1.0
}

// TradeSimulator replays a proposed limit order bar by bar against
// forward price action. The state machine runs signal -> pending fill
// -> (expired | filled) -> (win | loss | timeout); the forward windows
// are hard iteration caps, never wall-clock timeouts.
type TradeSimulator struct {
	cfg    *config.StrategyConfig
	logger *logrus.Logger
}

// NewTradeSimulator creates a simulator bound to strategy parameters.
func NewTradeSimulator(cfg *config.StrategyConfig, logger *logrus.Logger) *TradeSimulator {
	return &TradeSimulator{
		cfg:    cfg,
		logger: logger,
	}
}

// SimulationInput bundles everything the simulator needs for one setup.
type SimulationInput struct {
	Candles     []models.Candle
	SignalIndex int
	Direction   models.Direction
	Entry       float64
	StopLoss    float64
	TakeProfit  float64
	Quality     models.SetupQuality
	RRRatio     float64
	Balance     decimal.Decimal
}

// Simulate resolves the outcome of a single hypothetical trade. The
// stop is checked before the target on every bar, a deliberate
// conservative tie-break when both levels could be touched within the
// same bar. A stop distance below one point expires the trade
// immediately instead of dividing by zero in position sizing.
func (ts *TradeSimulator) Simulate(in SimulationInput) models.SimulatedTrade {
	// IDs are derived from the signal position so replaying the same
	// series yields identical trade logs.
	tradeID := uuid.NewSHA1(uuid.NameSpaceOID,
		[]byte(fmt.Sprintf("%s/%s/%d", ts.cfg.Symbol, in.Candles[in.SignalIndex].Time.UTC().Format("2006-01-02T15:04:05"), in.SignalIndex)))

	trade := models.SimulatedTrade{
		ID:           tradeID.String(),
		Symbol:       ts.cfg.Symbol,
		SignalTime:   in.Candles[in.SignalIndex].Time,
		SignalIndex:  in.SignalIndex,
		Direction:    in.Direction,
		Entry:        in.Entry,
		StopLoss:     in.StopLoss,
		TakeProfit:   in.TakeProfit,
		QualityScore: in.Quality.Score,
		Rating:       in.Quality.Rating,
		RRRatio:      in.RRRatio,
		PnL:          decimal.Zero,
		LotSize:      decimal.Zero,
		BarsToFill:   -1,
		BarsHeld:     -1,
	}

	multiplier := riskMultiplierFor(in.Quality.Score)
	if multiplier < ts.cfg.MinRiskMultiplier {
		multiplier = ts.cfg.MinRiskMultiplier
	}
	if multiplier > ts.cfg.MaxRiskMultiplier {
		multiplier = ts.cfg.MaxRiskMultiplier
	}

	riskAmount := in.Balance.
		Mul(decimal.NewFromFloat(ts.cfg.RiskPerTrade)).
		Mul(decimal.NewFromFloat(multiplier))

	slDistance := math.Abs(in.Entry - in.StopLoss)
	if slDistance < ts.cfg.Point {
		trade.Outcome = models.OutcomeExpired
		return trade
	}

	slPips := slDistance / ts.cfg.Point
	trade.LotSize = riskAmount.Div(decimal.NewFromFloat(slPips * 10)).Round(2)

	fillIndex, filled := ts.scanForFill(in)
	if !filled {
		trade.Outcome = models.OutcomeExpired
		return trade
	}
	trade.BarsToFill = fillIndex - in.SignalIndex

	return ts.resolve(in, trade, fillIndex, riskAmount)
}

// scanForFill walks forward from the signal looking for the first
// candle whose extreme crosses the limit price in the filling
// direction: low at or below entry for longs, high at or above entry
// for shorts.
func (ts *TradeSimulator) scanForFill(in SimulationInput) (int, bool) {
	limit := in.SignalIndex + ts.cfg.FillWindowBars
	if limit > len(in.Candles) {
		limit = len(in.Candles)
	}
	for i := in.SignalIndex; i < limit; i++ {
		c := in.Candles[i]
		if in.Direction == models.DirectionBullish {
			if c.Low <= in.Entry {
				return i, true
			}
		} else {
			if c.High >= in.Entry {
				return i, true
			}
		}
	}
	return 0, false
}

// resolve walks forward from the fill checking stop then target on each
// bar until one is hit or the resolution window runs out.
func (ts *TradeSimulator) resolve(in SimulationInput, trade models.SimulatedTrade, fillIndex int, riskAmount decimal.Decimal) models.SimulatedTrade {
	limit := fillIndex + ts.cfg.ResolutionWindowBars
	if limit > len(in.Candles) {
		limit = len(in.Candles)
	}

	slDistance := math.Abs(in.Entry - in.StopLoss)
	tpDistance := math.Abs(in.TakeProfit - in.Entry)

	for i := fillIndex; i < limit; i++ {
		c := in.Candles[i]

		if in.Direction == models.DirectionBullish {
			if c.Low <= in.StopLoss {
				trade.Outcome = models.OutcomeLoss
				trade.PnL = riskAmount.Neg()
				trade.Pips = -slDistance / ts.cfg.Point
				trade.BarsHeld = i - fillIndex
				trade.ExitPrice = in.StopLoss
				return trade
			}
			if c.High >= in.TakeProfit {
				trade.Outcome = models.OutcomeWin
				trade.PnL = riskAmount.Mul(decimal.NewFromFloat(tpDistance / slDistance))
				trade.Pips = tpDistance / ts.cfg.Point
				trade.BarsHeld = i - fillIndex
				trade.ExitPrice = in.TakeProfit
				return trade
			}
		} else {
			if c.High >= in.StopLoss {
				trade.Outcome = models.OutcomeLoss
				trade.PnL = riskAmount.Neg()
				trade.Pips = -slDistance / ts.cfg.Point
				trade.BarsHeld = i - fillIndex
				trade.ExitPrice = in.StopLoss
				return trade
			}
			if c.Low <= in.TakeProfit {
				trade.Outcome = models.OutcomeWin
				trade.PnL = riskAmount.Mul(decimal.NewFromFloat(tpDistance / slDistance))
				trade.Pips = tpDistance / ts.cfg.Point
				trade.BarsHeld = i - fillIndex
				trade.ExitPrice = in.TakeProfit
				return trade
			}
		}
	}

	trade.Outcome = models.OutcomeTimeout
	return trade
}
