package models

import (
	"time"
)

// Direction is the directional bias of a detected pattern or trade.
type Direction string

const (
	DirectionBullish Direction = "bullish"
	DirectionBearish Direction = "bearish"
)

// Opposite returns the inverse direction.
func (d Direction) Opposite() Direction {
	if d == DirectionBullish {
		return DirectionBearish
	}
	return DirectionBullish
}

// Candle represents a single OHLC candle. Candles are immutable once
// produced and are identified by their position in the series.
type Candle struct {
	Time   time.Time `json:"time" db:"time"`
	Open   float64   `json:"open" db:"open"`
	High   float64   `json:"high" db:"high"`
	Low    float64   `json:"low" db:"low"`
	Close  float64   `json:"close" db:"close"`
	Volume float64   `json:"volume" db:"volume"`
}

// IsBullish reports whether the candle closed above its open.
func (c Candle) IsBullish() bool {
	return c.Close > c.Open
}

// IsBearish reports whether the candle closed below its open.
func (c Candle) IsBearish() bool {
	return c.Close < c.Open
}

// BodyHigh returns the upper bound of the candle body.
func (c Candle) BodyHigh() float64 {
	if c.Open > c.Close {
		return c.Open
	}
	return c.Close
}

// BodyLow returns the lower bound of the candle body.
func (c Candle) BodyLow() float64 {
	if c.Open < c.Close {
		return c.Open
	}
	return c.Close
}

// TrendState describes higher-timeframe market structure.
type TrendState string

const (
	TrendBullish TrendState = "bullish"
	TrendBearish TrendState = "bearish"
	TrendRanging TrendState = "ranging"
)

// Matches reports whether the trend agrees with a signal direction.
func (t TrendState) Matches(d Direction) bool {
	return string(t) == string(d)
}
