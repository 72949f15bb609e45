package services

import (
	"sort"

	"github.com/tradeforge/smcbot/internal/models"
)

// FindOrderBlock locates the last candle whose body opposes the given
// shift direction inside the lookback window immediately preceding the
// signal candle at index i (the signal candle itself is excluded).
// Returns nil when the window has no opposing candle or not enough
// candles precede the signal.
func (d *SMCDetector) FindOrderBlock(candles []models.Candle, i int, dir models.Direction) *models.OrderBlock {
	lookback := d.cfg.OBLookback
	if i < lookback || i > len(candles) {
		return nil
	}

	for j := i - 1; j >= i-lookback; j-- {
		c := candles[j]
		opposing := (dir == models.DirectionBullish && c.IsBearish()) ||
			(dir == models.DirectionBearish && c.IsBullish())
		if !opposing {
			continue
		}
		return &models.OrderBlock{
			Direction: dir,
			High:      c.High,
			Low:       c.Low,
			Open:      c.Open,
			Close:     c.Close,
			BodyHigh:  c.BodyHigh(),
			BodyLow:   c.BodyLow(),
			Time:      c.Time,
			Index:     j,
		}
	}
	return nil
}

// FindHistoricalOrderBlocks scans the lookback window ending at index
// end (exclusive) for candles that behaved like order blocks: an
// opposing-colour candle followed by a colour reversal sustained for at
// least 2 of the next 5 candles, with price exceeding the triggering
// candle's extreme. Used as input for breaker-block detection.
func (d *SMCDetector) FindHistoricalOrderBlocks(candles []models.Candle, end, lookback int) []models.OrderBlock {
	if end > len(candles) {
		end = len(candles)
	}
	start := end - lookback
	if start < 0 {
		start = 0
	}

	var blocks []models.OrderBlock
	for i := start + 2; i < end-1; i++ {
		c := candles[i]

		next := candles[i+1 : min(i+6, end)]
		if len(next) < 2 {
			continue
		}

		if c.IsBearish() {
			bullishMoves := 0
			for _, n := range next {
				if n.IsBullish() {
					bullishMoves++
				}
			}
			if bullishMoves >= 2 && next[len(next)-1].High > c.High {
				blocks = append(blocks, models.OrderBlock{
					Direction: models.DirectionBullish,
					High:      c.High,
					Low:       c.Low,
					Open:      c.Open,
					Close:     c.Close,
					BodyHigh:  c.BodyHigh(),
					BodyLow:   c.BodyLow(),
					Time:      c.Time,
					Index:     i,
				})
			}
		} else if c.IsBullish() {
			bearishMoves := 0
			for _, n := range next {
				if n.IsBearish() {
					bearishMoves++
				}
			}
			if bearishMoves >= 2 && next[len(next)-1].Low < c.Low {
				blocks = append(blocks, models.OrderBlock{
					Direction: models.DirectionBearish,
					High:      c.High,
					Low:       c.Low,
					Open:      c.Open,
					Close:     c.Close,
					BodyHigh:  c.BodyHigh(),
					BodyLow:   c.BodyLow(),
					Time:      c.Time,
					Index:     i,
				})
			}
		}
	}
	return blocks
}

// DetectBreakerBlocks turns broken historical order blocks into breaker
// blocks of the opposite direction. A bullish block broken by closes
// below its low becomes a bearish breaker; a bearish block broken by
// closes above its high becomes a bullish breaker. Two or more breaking
// closes upgrade the breaker to high quality.
func (d *SMCDetector) DetectBreakerBlocks(candles []models.Candle, end int, blocks []models.OrderBlock) []models.BreakerBlock {
	if len(blocks) == 0 {
		return nil
	}
	if end > len(candles) {
		end = len(candles)
	}
	lookback := d.cfg.Breaker.Lookback
	start := end - lookback
	if start < 0 {
		start = 0
	}

	var breakers []models.BreakerBlock
	for _, ob := range blocks {
		var breakCount int
		var lastBreak models.Candle
		for j := start; j < end; j++ {
			c := candles[j]
			broken := (ob.Direction == models.DirectionBullish && c.Close < ob.Low) ||
				(ob.Direction == models.DirectionBearish && c.Close > ob.High)
			if broken {
				breakCount++
				lastBreak = c
			}
		}
		if breakCount == 0 {
			continue
		}

		quality := models.ConfluenceMedium
		if breakCount >= 2 {
			quality = models.ConfluenceHigh
		}
		breakers = append(breakers, models.BreakerBlock{
			Direction:         ob.Direction.Opposite(),
			OriginalDirection: ob.Direction,
			High:              ob.High,
			Low:               ob.Low,
			BreakTime:         lastBreak.Time,
			BreakCount:        breakCount,
			Quality:           quality,
		})
	}
	return breakers
}

// PositionInZone locates a price relative to a breaker block, allowing
// a tolerance band proportional to the zone height.
func (d *SMCDetector) PositionInZone(price float64, bb models.BreakerBlock) models.ZonePosition {
	tolerance := (bb.High - bb.Low) * (d.cfg.Breaker.TolerancePct / 100)

	if price >= bb.Low && price <= bb.High {
		return models.ZoneInside
	}
	if price >= bb.Low-tolerance && price <= bb.High+tolerance {
		return models.ZoneNear
	}
	return models.ZoneOutside
}

// BreakerConfluenceFor finds the best breaker block matching the trade
// direction that the entry price sits inside or near, and assigns the
// bonus score (+15 high quality, +10 medium).
func (d *SMCDetector) BreakerConfluenceFor(dir models.Direction, entry float64, breakers []models.BreakerBlock) *models.BreakerConfluence {
	var relevant []models.BreakerBlock
	var positions []models.ZonePosition
	for _, bb := range breakers {
		if bb.Direction != dir {
			continue
		}
		pos := d.PositionInZone(entry, bb)
		if pos == models.ZoneOutside {
			continue
		}
		relevant = append(relevant, bb)
		positions = append(positions, pos)
	}
	if len(relevant) == 0 {
		return nil
	}

	// High quality first; stable sort keeps detection order otherwise.
	order := make([]int, len(relevant))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return relevant[order[a]].Quality == models.ConfluenceHigh &&
			relevant[order[b]].Quality != models.ConfluenceHigh
	})

	best := relevant[order[0]]
	bonus := 10
	if best.Quality == models.ConfluenceHigh {
		bonus = 15
	}
	return &models.BreakerConfluence{
		Count:      len(relevant),
		Best:       best,
		Position:   positions[order[0]],
		Quality:    best.Quality,
		BonusScore: bonus,
	}
}
