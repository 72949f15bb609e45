package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandleBody(t *testing.T) {
	bullish := Candle{Open: 1.10, High: 1.13, Low: 1.09, Close: 1.12}
	assert.True(t, bullish.IsBullish())
	assert.False(t, bullish.IsBearish())
	assert.InDelta(t, 1.12, bullish.BodyHigh(), 1e-9)
	assert.InDelta(t, 1.10, bullish.BodyLow(), 1e-9)

	bearish := Candle{Open: 1.12, High: 1.13, Low: 1.09, Close: 1.10}
	assert.True(t, bearish.IsBearish())
	assert.InDelta(t, 1.12, bearish.BodyHigh(), 1e-9)
	assert.InDelta(t, 1.10, bearish.BodyLow(), 1e-9)

	doji := Candle{Open: 1.10, High: 1.11, Low: 1.09, Close: 1.10}
	assert.False(t, doji.IsBullish())
	assert.False(t, doji.IsBearish())
}

func TestDirectionOpposite(t *testing.T) {
	assert.Equal(t, DirectionBearish, DirectionBullish.Opposite())
	assert.Equal(t, DirectionBullish, DirectionBearish.Opposite())
}

func TestTrendMatches(t *testing.T) {
	assert.True(t, TrendBullish.Matches(DirectionBullish))
	assert.False(t, TrendBullish.Matches(DirectionBearish))
	assert.False(t, TrendRanging.Matches(DirectionBullish))
	assert.False(t, TrendRanging.Matches(DirectionBearish))
}

func TestTradeOutcomeClosed(t *testing.T) {
	assert.True(t, OutcomeWin.Closed())
	assert.True(t, OutcomeLoss.Closed())
	assert.False(t, OutcomeTimeout.Closed())
	assert.False(t, OutcomeExpired.Closed())
}
