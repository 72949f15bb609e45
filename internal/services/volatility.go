package services

import (
	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/volatility"

	"github.com/tradeforge/smcbot/internal/models"
)

// ATRPips computes the Average True Range over the series ending at
// index end (exclusive) and converts it to pips. Returns 0 when fewer
// candles than the period are available.
func (d *SMCDetector) ATRPips(candles []models.Candle, end int) float64 {
	if end > len(candles) {
		end = len(candles)
	}
	period := d.cfg.Filters.ATRPeriod
	start := end - period*3
	if start < 0 {
		start = 0
	}
	window := candles[start:end]
	if len(window) < period {
		return 0
	}

	highs := make([]float64, len(window))
	lows := make([]float64, len(window))
	closes := make([]float64, len(window))
	for i, c := range window {
		highs[i] = c.High
		lows[i] = c.Low
		closes[i] = c.Close
	}

	atr := volatility.NewAtr[float64]()
	values := helper.ChanToSlice(atr.Compute(
		helper.SliceToChan(highs),
		helper.SliceToChan(lows),
		helper.SliceToChan(closes),
	))
	if len(values) == 0 {
		return 0
	}

	return values[len(values)-1] / d.cfg.Point
}

// VolumeRatio compares the volume of the most recently completed candle
// against the rolling average of the preceding period. Returns 1 when
// not enough data exists, matching a neutral reading.
func (d *SMCDetector) VolumeRatio(candles []models.Candle, end int) float64 {
	if end > len(candles) {
		end = len(candles)
	}
	period := d.cfg.Filters.VolumePeriod
	if end < period+2 {
		return 1
	}

	var sum float64
	for _, c := range candles[end-2-period : end-2] {
		sum += c.Volume
	}
	avg := sum / float64(period)
	if avg == 0 {
		return 1
	}
	return candles[end-2].Volume / avg
}
