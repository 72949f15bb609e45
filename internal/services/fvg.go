package services

import (
	"github.com/tradeforge/smcbot/internal/models"
)

// FindFairValueGap examines exactly the three most recently completed
// candles before the in-progress candle at index i (positions i-4, i-3,
// i-2). A bullish gap requires the third candle's low above the first
// candle's high; a bearish gap the third candle's high below the first
// candle's low. Only this single most recent gap is considered.
func (d *SMCDetector) FindFairValueGap(candles []models.Candle, i int) *models.FairValueGap {
	if i < 4 || i > len(candles) {
		return nil
	}

	c1 := candles[i-4]
	c3 := candles[i-2]

	if c3.Low > c1.High {
		return &models.FairValueGap{
			Direction: models.DirectionBullish,
			High:      c3.Low,
			Low:       c1.High,
		}
	}
	if c3.High < c1.Low {
		return &models.FairValueGap{
			Direction: models.DirectionBearish,
			High:      c1.Low,
			Low:       c3.High,
		}
	}
	return nil
}
