package models

import (
	"time"
)

// SwingPoint is a local extreme within a lookback window. Swing points
// are derived per query and never persisted.
type SwingPoint struct {
	Index  int     `json:"index"`
	Price  float64 `json:"price"`
	IsHigh bool    `json:"is_high"`
}

// StructureShift marks a close breaking beyond the most recent opposing
// swing extreme. The invalidation level is the low (bullish) or high
// (bearish) of the breaking candle and becomes the candidate stop loss.
type StructureShift struct {
	Direction         Direction `json:"direction"`
	InvalidationLevel float64   `json:"invalidation_level"`
}

// OrderBlock is the last opposite-coloured candle before a structure
// shift, carrying both the full range and the body range.
type OrderBlock struct {
	Direction Direction `json:"direction"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Open      float64   `json:"open"`
	Close     float64   `json:"close"`
	BodyHigh  float64   `json:"body_high"`
	BodyLow   float64   `json:"body_low"`
	Time      time.Time `json:"time"`
	Index     int       `json:"index"`
}

// FairValueGap is a three-candle imbalance left unfilled by
// overlapping wicks.
type FairValueGap struct {
	Direction Direction `json:"direction"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
}

// Size returns the gap height in price units.
func (f FairValueGap) Size() float64 {
	return f.High - f.Low
}

// ConfluenceQuality grades the geometric overlap between an order block
// and a fair value gap.
type ConfluenceQuality string

const (
	ConfluenceHigh   ConfluenceQuality = "high"
	ConfluenceMedium ConfluenceQuality = "medium"
	ConfluenceLow    ConfluenceQuality = "low"
)

// ConfluenceZone exists only when an order block and a fair value gap
// share direction and their ranges intersect. OverlapPct is measured
// against the gap size, not the order-block size.
type ConfluenceZone struct {
	Direction   Direction         `json:"direction"`
	OverlapHigh float64           `json:"overlap_high"`
	OverlapLow  float64           `json:"overlap_low"`
	OverlapSize float64           `json:"overlap_size"`
	OverlapPct  float64           `json:"overlap_pct"`
	Quality     ConfluenceQuality `json:"quality"`
}

// QualityRating buckets a setup score into a coarse grade.
type QualityRating string

const (
	RatingExcellent QualityRating = "EXCELLENT"
	RatingGood      QualityRating = "GOOD"
	RatingFair      QualityRating = "FAIR"
	RatingPoor      QualityRating = "POOR"
)

// SetupQuality is the additive quality assessment of a full setup.
type SetupQuality struct {
	Score   int           `json:"score"`
	Rating  QualityRating `json:"rating"`
	Factors []string      `json:"factors"`
}

// BreakerBlock is a former order block that price has closed through,
// now treated as a reversal zone of the opposite direction.
type BreakerBlock struct {
	Direction         Direction         `json:"direction"`
	OriginalDirection Direction         `json:"original_direction"`
	High              float64           `json:"high"`
	Low               float64           `json:"low"`
	BreakTime         time.Time         `json:"break_time"`
	BreakCount        int               `json:"break_count"`
	Quality           ConfluenceQuality `json:"quality"`
}

// ZonePosition locates a price relative to a breaker-block zone.
type ZonePosition string

const (
	ZoneInside  ZonePosition = "inside"
	ZoneNear    ZonePosition = "near"
	ZoneOutside ZonePosition = "outside"
)

// BreakerConfluence describes the best breaker block backing an entry.
type BreakerConfluence struct {
	Count      int               `json:"count"`
	Best       BreakerBlock      `json:"best"`
	Position   ZonePosition      `json:"position"`
	Quality    ConfluenceQuality `json:"quality"`
	BonusScore int               `json:"bonus_score"`
}

// AlignmentStrength grades multi-timeframe agreement.
type AlignmentStrength string

const (
	AlignmentPerfect AlignmentStrength = "PERFECT"
	AlignmentStrong  AlignmentStrength = "STRONG"
	AlignmentWeak    AlignmentStrength = "WEAK"
	AlignmentPoor    AlignmentStrength = "POOR"
)

// TimeframeStructure is the structure summary of a single higher
// timeframe.
type TimeframeStructure struct {
	Timeframe     string          `json:"timeframe"`
	Trend         TrendState      `json:"trend"`
	Shift         *StructureShift `json:"shift,omitempty"`
	HasOrderBlock bool            `json:"has_order_block"`
}

// MTFAlignment summarises how higher timeframes relate to the base
// signal. Ranging timeframes count as neutral rather than opposing.
type MTFAlignment struct {
	Aligned              bool              `json:"aligned"`
	Strength             AlignmentStrength `json:"strength"`
	AlignmentPct         float64           `json:"alignment_pct"`
	AlignedTimeframes    []string          `json:"aligned_timeframes"`
	RangingTimeframes    []string          `json:"ranging_timeframes"`
	MisalignedTimeframes []string          `json:"misaligned_timeframes"`
	TotalTimeframes      int               `json:"total_timeframes"`
}
