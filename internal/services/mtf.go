package services

import (
	"github.com/tradeforge/smcbot/internal/models"
)

// alignmentStrengths maps alignment percentage to strength. Ordered
// highest boundary first.
var alignmentStrengths = []struct {
	MinPct   float64
	Strength models.AlignmentStrength
}{
	{100, models.AlignmentPerfect},
	{50, models.AlignmentStrong},
	{30, models.AlignmentWeak},
	{0, models.AlignmentPoor},
}

func strengthFor(pct float64) models.AlignmentStrength {
	for _, tier := range alignmentStrengths {
		if pct >= tier.MinPct {
			return tier.Strength
		}
	}
	return models.AlignmentPoor
}

// mtfBonusByStrength maps alignment strength to the score bonus applied
// once the alignment gate has passed.
var mtfBonusByStrength = map[models.AlignmentStrength]int{
	models.AlignmentPerfect: 20,
	models.AlignmentStrong:  15,
	models.AlignmentWeak:    10,
	models.AlignmentPoor:    0,
}

// AnalyzeTimeframe summarises structure on a single higher timeframe:
// the prevailing trend plus any structure shift at the series end.
func (d *SMCDetector) AnalyzeTimeframe(timeframe string, candles []models.Candle) models.TimeframeStructure {
	structure := models.TimeframeStructure{
		Timeframe: timeframe,
		Trend:     d.DetectTrend(candles, len(candles), d.cfg.SwingLookback),
	}

	if shift := d.DetectShift(candles, len(candles)); shift != nil {
		structure.Shift = shift
		structure.HasOrderBlock = d.FindOrderBlock(candles, len(candles), shift.Direction) != nil
	}
	return structure
}

// CheckAlignment measures how the higher timeframes relate to the base
// signal. A timeframe is aligned when its trend or its own shift
// direction matches the signal; ranging timeframes are neutral and
// count toward the gate but not toward alignment strength. The gate
// passes when aligned plus neutral timeframes reach the configured
// fraction, or when every timeframe is aligned if require-all is set.
func (s *SetupScorer) CheckAlignment(signal models.Direction, structures []models.TimeframeStructure) models.MTFAlignment {
	alignment := models.MTFAlignment{TotalTimeframes: len(structures)}
	if len(structures) == 0 {
		return alignment
	}

	for _, tf := range structures {
		shiftMatches := tf.Shift != nil && tf.Shift.Direction == signal
		switch {
		case tf.Trend.Matches(signal) || shiftMatches:
			alignment.AlignedTimeframes = append(alignment.AlignedTimeframes, tf.Timeframe)
		case tf.Trend == models.TrendRanging:
			alignment.RangingTimeframes = append(alignment.RangingTimeframes, tf.Timeframe)
		default:
			alignment.MisalignedTimeframes = append(alignment.MisalignedTimeframes, tf.Timeframe)
		}
	}

	aligned := len(alignment.AlignedTimeframes)
	neutral := len(alignment.RangingTimeframes)
	total := alignment.TotalTimeframes

	if s.cfg.MTF.RequireAllAligned {
		alignment.Aligned = aligned == total
	} else {
		alignment.Aligned = float64(aligned+neutral) >= float64(total)*s.cfg.MTF.MinAlignmentPct/100
	}

	alignment.AlignmentPct = float64(aligned) / float64(total) * 100
	alignment.Strength = strengthFor(alignment.AlignmentPct)
	return alignment
}

// MTFBonus converts a passed alignment check into score points. Failing
// the gate yields zero regardless of strength.
func (s *SetupScorer) MTFBonus(alignment models.MTFAlignment) int {
	if !s.cfg.MTF.ScoreBonus || !alignment.Aligned {
		return 0
	}
	return mtfBonusByStrength[alignment.Strength]
}
