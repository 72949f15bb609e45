package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tradeforge/smcbot/internal/models"
)

func TestScoreSetup(t *testing.T) {
	s := NewSetupScorer(testStrategyConfig(), testLogger())

	shift := &models.StructureShift{Direction: models.DirectionBullish}
	ob := &models.OrderBlock{Direction: models.DirectionBullish}
	fvg := &models.FairValueGap{Direction: models.DirectionBullish}

	tests := []struct {
		name       string
		shift      *models.StructureShift
		ob         *models.OrderBlock
		fvg        *models.FairValueGap
		zone       *models.ConfluenceZone
		wantScore  int
		wantRating models.QualityRating
	}{
		{
			name:       "nothing detected",
			wantScore:  0,
			wantRating: models.RatingPoor,
		},
		{
			name:       "shift only",
			shift:      shift,
			wantScore:  25,
			wantRating: models.RatingPoor,
		},
		{
			name:       "shift with order block",
			shift:      shift,
			ob:         ob,
			wantScore:  50,
			wantRating: models.RatingPoor,
		},
		{
			name:       "all three signals",
			shift:      shift,
			ob:         ob,
			fvg:        fvg,
			wantScore:  75,
			wantRating: models.RatingGood,
		},
		{
			name:       "full setup with high confluence",
			shift:      shift,
			ob:         ob,
			fvg:        fvg,
			zone:       &models.ConfluenceZone{Quality: models.ConfluenceHigh},
			wantScore:  100,
			wantRating: models.RatingExcellent,
		},
		{
			name:       "full setup with medium confluence",
			shift:      shift,
			ob:         ob,
			fvg:        fvg,
			zone:       &models.ConfluenceZone{Quality: models.ConfluenceMedium},
			wantScore:  95,
			wantRating: models.RatingExcellent,
		},
		{
			name:       "full setup with low confluence",
			shift:      shift,
			ob:         ob,
			fvg:        fvg,
			zone:       &models.ConfluenceZone{Quality: models.ConfluenceLow},
			wantScore:  90,
			wantRating: models.RatingExcellent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.ScoreSetup(tt.shift, tt.ob, tt.fvg, tt.zone)
			assert.Equal(t, tt.wantScore, got.Score)
			assert.Equal(t, tt.wantRating, got.Rating)
			assert.Len(t, got.Factors, countSignals(tt.shift, tt.ob, tt.fvg, tt.zone))
		})
	}
}

func countSignals(shift *models.StructureShift, ob *models.OrderBlock, fvg *models.FairValueGap, zone *models.ConfluenceZone) int {
	n := 0
	if shift != nil {
		n++
	}
	if ob != nil {
		n++
	}
	if fvg != nil {
		n++
	}
	if zone != nil {
		n++
	}
	return n
}

// Adding a signal never lowers the score.
func TestScoreMonotonicity(t *testing.T) {
	s := NewSetupScorer(testStrategyConfig(), testLogger())

	shift := &models.StructureShift{}
	ob := &models.OrderBlock{}
	fvg := &models.FairValueGap{}

	base := s.ScoreSetup(shift, ob, nil, nil)
	withFVG := s.ScoreSetup(shift, ob, fvg, nil)
	withZone := s.ScoreSetup(shift, ob, fvg, &models.ConfluenceZone{Quality: models.ConfluenceLow})

	assert.GreaterOrEqual(t, withFVG.Score, base.Score)
	assert.GreaterOrEqual(t, withZone.Score, withFVG.Score)
}

func TestAddBonus(t *testing.T) {
	s := NewSetupScorer(testStrategyConfig(), testLogger())

	quality := models.SetupQuality{Score: 85, Rating: models.RatingGood}

	boosted := s.AddBonus(quality, 10, "extra confirmation")
	assert.Equal(t, 95, boosted.Score)
	assert.Equal(t, models.RatingExcellent, boosted.Rating)
	assert.Contains(t, boosted.Factors, "extra confirmation")

	// Zero or negative bonuses leave the assessment untouched.
	same := s.AddBonus(quality, 0, "ignored")
	assert.Equal(t, quality, same)
}

// The additive score has no hard cap at 100.
func TestScoreExceedsHundred(t *testing.T) {
	s := NewSetupScorer(testStrategyConfig(), testLogger())

	quality := models.SetupQuality{Score: 100, Rating: models.RatingExcellent}
	boosted := s.AddBonus(quality, 20, "alignment")
	assert.Equal(t, 120, boosted.Score)
	assert.Equal(t, models.RatingExcellent, boosted.Rating)
}

func TestRatingBoundaries(t *testing.T) {
	tests := []struct {
		score int
		want  models.QualityRating
	}{
		{0, models.RatingPoor},
		{59, models.RatingPoor},
		{60, models.RatingFair},
		{74, models.RatingFair},
		{75, models.RatingGood},
		{89, models.RatingGood},
		{90, models.RatingExcellent},
		{130, models.RatingExcellent},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ratingFor(tt.score), "score %d", tt.score)
	}
}
