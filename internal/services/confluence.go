package services

import (
	"github.com/tradeforge/smcbot/internal/models"
)

// confluenceTiers maps overlap percentage to quality. Ordered highest
// boundary first; the first matching entry wins.
var confluenceTiers = []struct {
	MinPct  float64
	Quality models.ConfluenceQuality
}{
	{70, models.ConfluenceHigh},
	{50, models.ConfluenceMedium},
	{0, models.ConfluenceLow},
}

func confluenceQualityFor(overlapPct float64) models.ConfluenceQuality {
	for _, tier := range confluenceTiers {
		if overlapPct >= tier.MinPct {
			return tier.Quality
		}
	}
	return models.ConfluenceLow
}

// CheckConfluence measures the geometric overlap between an order block
// and a fair value gap. Both must exist and share direction; the overlap
// percentage is computed against the gap size (deliberately asymmetric)
// and must reach the configured minimum. A degenerate overlap
// (low >= high) yields no confluence.
func (d *SMCDetector) CheckConfluence(ob *models.OrderBlock, fvg *models.FairValueGap) *models.ConfluenceZone {
	if ob == nil || fvg == nil || ob.Direction != fvg.Direction {
		return nil
	}

	overlapHigh := ob.High
	if fvg.High < overlapHigh {
		overlapHigh = fvg.High
	}
	overlapLow := ob.Low
	if fvg.Low > overlapLow {
		overlapLow = fvg.Low
	}
	if overlapLow >= overlapHigh {
		return nil
	}

	overlapSize := overlapHigh - overlapLow
	fvgSize := fvg.Size()

	var overlapPct float64
	if fvgSize > 0 {
		overlapPct = overlapSize / fvgSize * 100
	}
	if overlapPct < d.cfg.MinConfluencePct {
		return nil
	}

	return &models.ConfluenceZone{
		Direction:   ob.Direction,
		OverlapHigh: overlapHigh,
		OverlapLow:  overlapLow,
		OverlapSize: overlapSize,
		OverlapPct:  overlapPct,
		Quality:     confluenceQualityFor(overlapPct),
	}
}
