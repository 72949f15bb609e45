package services

import (
	"github.com/sirupsen/logrus"

	"github.com/tradeforge/smcbot/internal/config"
	"github.com/tradeforge/smcbot/internal/models"
)

// SMCDetector locates smart-money price-action patterns on a candle
// series. All methods are pure functions of the series and an index;
// a nil result means "no signal", never a failure.
type SMCDetector struct {
	cfg    *config.StrategyConfig
	logger *logrus.Logger
}

// NewSMCDetector creates a detector bound to strategy parameters.
func NewSMCDetector(cfg *config.StrategyConfig, logger *logrus.Logger) *SMCDetector {
	return &SMCDetector{
		cfg:    cfg,
		logger: logger,
	}
}

// swingPoints finds local extrema between start (inclusive) and end
// (exclusive) using a strict 1-neighbour comparison. Both neighbours
// must lie inside the window, so window-boundary candles never qualify.
// Same-type swings close together are not deduplicated; callers take
// the most recent one.
func (d *SMCDetector) swingPoints(candles []models.Candle, start, end int) []models.SwingPoint {
	var points []models.SwingPoint
	for i := start + 1; i < end-1; i++ {
		if candles[i].High > candles[i-1].High && candles[i].High > candles[i+1].High {
			points = append(points, models.SwingPoint{Index: i, Price: candles[i].High, IsHigh: true})
		}
		if candles[i].Low < candles[i-1].Low && candles[i].Low < candles[i+1].Low {
			points = append(points, models.SwingPoint{Index: i, Price: candles[i].Low, IsHigh: false})
		}
	}
	return points
}

// lastSwing returns the most recent swing of the requested type, or
// false when none exists in the window.
func lastSwing(points []models.SwingPoint, isHigh bool) (models.SwingPoint, bool) {
	for i := len(points) - 1; i >= 0; i-- {
		if points[i].IsHigh == isHigh {
			return points[i], true
		}
	}
	return models.SwingPoint{}, false
}

// DetectShift checks for a market structure shift at index i: the close
// of the most recently completed candle (i-1) breaking beyond the last
// swing extreme inside the lookback window ending at i. Returns nil when
// fewer than 3 candles are available, when either swing type is absent
// in-window, or when no break occurred.
//
// The bullish branch is evaluated first; on malformed data where both
// break conditions hold, bullish wins. This ordering is intentional and
// relied on by the backtester.
func (d *SMCDetector) DetectShift(candles []models.Candle, i int) *models.StructureShift {
	if i < 3 || i > len(candles) {
		return nil
	}

	lookback := d.cfg.SwingLookback
	if lookback > i {
		lookback = i
	}
	start := i - lookback

	points := d.swingPoints(candles, start, i)
	swingHigh, hasHigh := lastSwing(points, true)
	swingLow, hasLow := lastSwing(points, false)
	if !hasHigh || !hasLow {
		return nil
	}

	breaking := candles[i-1]

	if breaking.Close > swingHigh.Price {
		return &models.StructureShift{
			Direction:         models.DirectionBullish,
			InvalidationLevel: breaking.Low,
		}
	}
	if breaking.Close < swingLow.Price {
		return &models.StructureShift{
			Direction:         models.DirectionBearish,
			InvalidationLevel: breaking.High,
		}
	}

	return nil
}

// DetectTrend classifies structure over the last lookback candles
// ending at end (exclusive). Higher highs and higher lows over the last
// two swing pairs give a bullish trend, lower highs and lower lows a
// bearish one, anything else is ranging.
func (d *SMCDetector) DetectTrend(candles []models.Candle, end, lookback int) models.TrendState {
	if end > len(candles) {
		end = len(candles)
	}
	start := end - lookback
	if start < 0 {
		start = 0
	}

	points := d.swingPoints(candles, start, end)

	var highs, lows []float64
	for _, p := range points {
		if p.IsHigh {
			highs = append(highs, p.Price)
		} else {
			lows = append(lows, p.Price)
		}
	}
	if len(highs) < 2 || len(lows) < 2 {
		return models.TrendRanging
	}

	higherHighs := highs[len(highs)-1] > highs[len(highs)-2]
	higherLows := lows[len(lows)-1] > lows[len(lows)-2]
	lowerHighs := highs[len(highs)-1] < highs[len(highs)-2]
	lowerLows := lows[len(lows)-1] < lows[len(lows)-2]

	switch {
	case higherHighs && higherLows:
		return models.TrendBullish
	case lowerHighs && lowerLows:
		return models.TrendBearish
	default:
		return models.TrendRanging
	}
}
