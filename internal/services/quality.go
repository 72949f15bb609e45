package services

import (
	"github.com/sirupsen/logrus"

	"github.com/tradeforge/smcbot/internal/config"
	"github.com/tradeforge/smcbot/internal/models"
)

// qualityRatings maps a setup score to its rating. Ordered highest
// boundary first.
var qualityRatings = []struct {
	MinScore int
	Rating   models.QualityRating
}{
	{90, models.RatingExcellent},
	{75, models.RatingGood},
	{60, models.RatingFair},
	{0, models.RatingPoor},
}

func ratingFor(score int) models.QualityRating {
	for _, tier := range qualityRatings {
		if score >= tier.MinScore {
			return tier.Rating
		}
	}
	return models.RatingPoor
}

// confluenceScoreBonus maps confluence quality to its score
// contribution.
var confluenceScoreBonus = map[models.ConfluenceQuality]int{
	models.ConfluenceHigh:   25,
	models.ConfluenceMedium: 20,
	models.ConfluenceLow:    15,
}

// SetupScorer turns detected signals into an additive quality score.
type SetupScorer struct {
	cfg    *config.StrategyConfig
	logger *logrus.Logger
}

// NewSetupScorer creates a scorer bound to strategy parameters.
func NewSetupScorer(cfg *config.StrategyConfig, logger *logrus.Logger) *SetupScorer {
	return &SetupScorer{
		cfg:    cfg,
		logger: logger,
	}
}

// ScoreSetup computes the base quality score: +25 for each present
// signal among shift, order block and gap, plus the confluence tier
// contribution. The score is monotone: adding a signal never lowers it.
func (s *SetupScorer) ScoreSetup(shift *models.StructureShift, ob *models.OrderBlock, fvg *models.FairValueGap, zone *models.ConfluenceZone) models.SetupQuality {
	score := 0
	var factors []string

	if shift != nil {
		score += 25
		factors = append(factors, "structure shift detected")
	}
	if ob != nil {
		score += 25
		factors = append(factors, "order block identified")
	}
	if fvg != nil {
		score += 25
		factors = append(factors, "fair value gap present")
	}
	if zone != nil {
		score += confluenceScoreBonus[zone.Quality]
		factors = append(factors, "OB+FVG confluence ("+string(zone.Quality)+")")
	}

	return models.SetupQuality{
		Score:   score,
		Rating:  ratingFor(score),
		Factors: factors,
	}
}

// AddBonus folds a bonus into an existing quality assessment and
// re-derives the rating. The additive score is not hard-capped at 100.
func (s *SetupScorer) AddBonus(quality models.SetupQuality, bonus int, factor string) models.SetupQuality {
	if bonus <= 0 {
		return quality
	}
	quality.Score += bonus
	quality.Rating = ratingFor(quality.Score)
	quality.Factors = append(quality.Factors, factor)
	return quality
}
