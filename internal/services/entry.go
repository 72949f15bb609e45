package services

import (
	"github.com/sirupsen/logrus"

	"github.com/tradeforge/smcbot/internal/config"
	"github.com/tradeforge/smcbot/internal/models"
)

// rrTiers maps the quality score to the target risk:reward ratio.
// Ordered highest boundary first.
var rrTiers = []struct {
	MinScore int
	RR       float64
}{
	{90, 3.0},
	{75, 2.5},
	{0, 2.0},
}

func rrFor(score int) float64 {
	for _, tier := range rrTiers {
		if score >= tier.MinScore {
			return tier.RR
		}
	}
	return 2.0
}

// EntryResolver turns a detected setup into concrete order levels.
type EntryResolver struct {
	cfg    *config.StrategyConfig
	logger *logrus.Logger
}

// NewEntryResolver creates a resolver bound to strategy parameters.
func NewEntryResolver(cfg *config.StrategyConfig, logger *logrus.Logger) *EntryResolver {
	return &EntryResolver{
		cfg:    cfg,
		logger: logger,
	}
}

// ResolveEntry derives the limit entry price. Priority, highest first:
// high confluence uses the overlap midpoint; medium confluence the
// overlap edge nearer the order block's favourable side; low or absent
// confluence with an order block uses the body midpoint; an order block
// without any confluence uses the body edge nearest the fill direction;
// the final fallback is the gap edge. Returns false when no level can
// be derived.
func (r *EntryResolver) ResolveEntry(ob *models.OrderBlock, fvg *models.FairValueGap, zone *models.ConfluenceZone) (float64, bool) {
	if zone != nil {
		switch zone.Quality {
		case models.ConfluenceHigh:
			return (zone.OverlapHigh + zone.OverlapLow) / 2, true
		case models.ConfluenceMedium:
			if zone.Direction == models.DirectionBullish {
				return zone.OverlapHigh, true
			}
			return zone.OverlapLow, true
		default:
			if ob != nil {
				return (ob.BodyHigh + ob.BodyLow) / 2, true
			}
		}
	}

	if ob != nil {
		if ob.Direction == models.DirectionBullish {
			return ob.BodyLow, true
		}
		return ob.BodyHigh, true
	}

	if fvg != nil {
		if fvg.Direction == models.DirectionBullish {
			return fvg.High, true
		}
		return fvg.Low, true
	}

	return 0, false
}

// TakeProfit derives the target from the entry and stop. The base RR
// scales with quality score; when the stop is unusually tight relative
// to recent volatility the RR is pulled down to the configured minimum
// so the target stays reachable. The returned RR is clamped to the
// configured bounds.
func (r *EntryResolver) TakeProfit(dir models.Direction, entry, stop float64, score int, atrPips float64) (float64, float64) {
	rr := rrFor(score)

	risk := entry - stop
	if risk < 0 {
		risk = -risk
	}

	if atrPips > 0 {
		stopPips := risk / r.cfg.Point
		if stopPips < atrPips*0.5 {
			rr = r.cfg.MinRRRatio
		}
	}

	if rr < r.cfg.MinRRRatio {
		rr = r.cfg.MinRRRatio
	}
	if rr > r.cfg.MaxRRRatio {
		rr = r.cfg.MaxRRRatio
	}

	if dir == models.DirectionBullish {
		return entry + risk*rr, rr
	}
	return entry - risk*rr, rr
}
