package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tradeforge/smcbot/internal/models"
)

func tfStructure(tf string, trend models.TrendState, shiftDir *models.Direction) models.TimeframeStructure {
	s := models.TimeframeStructure{Timeframe: tf, Trend: trend}
	if shiftDir != nil {
		s.Shift = &models.StructureShift{Direction: *shiftDir}
	}
	return s
}

func TestCheckAlignment(t *testing.T) {
	bullish := models.DirectionBullish

	tests := []struct {
		name         string
		structures   []models.TimeframeStructure
		wantAligned  bool
		wantStrength models.AlignmentStrength
	}{
		{
			name: "all trends match",
			structures: []models.TimeframeStructure{
				tfStructure("M5", models.TrendBullish, nil),
				tfStructure("M15", models.TrendBullish, nil),
			},
			wantAligned:  true,
			wantStrength: models.AlignmentPerfect,
		},
		{
			name: "one aligned one ranging passes the gate",
			structures: []models.TimeframeStructure{
				tfStructure("M5", models.TrendBullish, nil),
				tfStructure("M15", models.TrendRanging, nil),
			},
			wantAligned:  true,
			wantStrength: models.AlignmentStrong,
		},
		{
			name: "opposing trend fails the gate",
			structures: []models.TimeframeStructure{
				tfStructure("M5", models.TrendBearish, nil),
				tfStructure("M15", models.TrendBearish, nil),
			},
			wantAligned:  false,
			wantStrength: models.AlignmentPoor,
		},
		{
			name: "ranging trend with matching shift counts as aligned",
			structures: []models.TimeframeStructure{
				tfStructure("M5", models.TrendRanging, &bullish),
				tfStructure("M15", models.TrendBullish, nil),
			},
			wantAligned:  true,
			wantStrength: models.AlignmentPerfect,
		},
	}

	s := NewSetupScorer(testStrategyConfig(), testLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.CheckAlignment(models.DirectionBullish, tt.structures)
			assert.Equal(t, tt.wantAligned, got.Aligned)
			assert.Equal(t, tt.wantStrength, got.Strength)
		})
	}
}

func TestCheckAlignmentRequireAll(t *testing.T) {
	cfg := testStrategyConfig()
	cfg.MTF.RequireAllAligned = true
	s := NewSetupScorer(cfg, testLogger())

	structures := []models.TimeframeStructure{
		tfStructure("M5", models.TrendBullish, nil),
		tfStructure("M15", models.TrendRanging, nil),
	}

	// Ranging counts toward the percentage gate but not require-all.
	got := s.CheckAlignment(models.DirectionBullish, structures)
	assert.False(t, got.Aligned)
}

func TestCheckAlignmentEmpty(t *testing.T) {
	s := NewSetupScorer(testStrategyConfig(), testLogger())
	got := s.CheckAlignment(models.DirectionBullish, nil)
	assert.False(t, got.Aligned)
	assert.Zero(t, got.TotalTimeframes)
}

func TestMTFBonus(t *testing.T) {
	s := NewSetupScorer(testStrategyConfig(), testLogger())

	tests := []struct {
		name      string
		alignment models.MTFAlignment
		want      int
	}{
		{"perfect", models.MTFAlignment{Aligned: true, Strength: models.AlignmentPerfect}, 20},
		{"strong", models.MTFAlignment{Aligned: true, Strength: models.AlignmentStrong}, 15},
		{"weak", models.MTFAlignment{Aligned: true, Strength: models.AlignmentWeak}, 10},
		{"gate failed", models.MTFAlignment{Aligned: false, Strength: models.AlignmentPerfect}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.MTFBonus(tt.alignment))
		})
	}
}

func TestMTFBonusDisabled(t *testing.T) {
	cfg := testStrategyConfig()
	cfg.MTF.ScoreBonus = false
	s := NewSetupScorer(cfg, testLogger())

	alignment := models.MTFAlignment{Aligned: true, Strength: models.AlignmentPerfect}
	assert.Equal(t, 0, s.MTFBonus(alignment))
}

func TestAnalyzeTimeframe(t *testing.T) {
	d := NewSMCDetector(testStrategyConfig(), testLogger())

	structure := d.AnalyzeTimeframe("M5", bullishShiftSeries()[:8])
	assert.Equal(t, "M5", structure.Timeframe)
	// The series ends right after the breaking candle, so the shift is
	// visible at the series end.
	assert.NotNil(t, structure.Shift)
	assert.Equal(t, models.DirectionBullish, structure.Shift.Direction)
}
