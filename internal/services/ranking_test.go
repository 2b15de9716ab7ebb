package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pairlens/pairlens-go/internal/models"
)

func rankingGrid() []models.WindowConfig {
	return []models.WindowConfig{
		{BetaWindowDays: 7, ZScoreWindowDays: 7},
		{BetaWindowDays: 7, ZScoreWindowDays: 14},
		{BetaWindowDays: 14, ZScoreWindowDays: 7},
	}
}

func TestRankingEngine_SelectsPerObjective(t *testing.T) {
	ranker := NewRankingEngine(rankingGrid())

	stats := map[string]models.ComboStats{
		"7d_7d": {
			Config:                 rankingGrid()[0],
			MeanBetaDrift:          0.3,
			MeanAbsPredictionError: f64(0.5),
			MeanDaysToTarget:       f64(2),
			SharpeRatio:            f64(1.0),
		},
		"7d_14d": {
			Config:                 rankingGrid()[1],
			MeanBetaDrift:          0.1,
			MeanAbsPredictionError: f64(0.9),
			MeanDaysToTarget:       f64(6),
			SharpeRatio:            f64(2.5),
		},
		"14d_7d": {
			Config:                 rankingGrid()[2],
			MeanBetaDrift:          0.2,
			MeanAbsPredictionError: f64(0.4),
			MeanDaysToTarget:       f64(4),
			SharpeRatio:            f64(1.5),
		},
	}

	ranked := ranker.Rank(stats)

	require.NotNil(t, ranked.LowestBetaDrift)
	assert.Equal(t, "7d_14d", ranked.LowestBetaDrift.Config.Key())
	require.NotNil(t, ranked.LowestPredictionError)
	assert.Equal(t, "14d_7d", ranked.LowestPredictionError.Config.Key())
	require.NotNil(t, ranked.FastestConvergence)
	assert.Equal(t, "7d_7d", ranked.FastestConvergence.Config.Key())
	require.NotNil(t, ranked.HighestSharpe)
	assert.Equal(t, "7d_14d", ranked.HighestSharpe.Config.Key())
}

func TestRankingEngine_TieBreakByWindowOrder(t *testing.T) {
	ranker := NewRankingEngine(rankingGrid())

	stats := map[string]models.ComboStats{
		"7d_7d":  {Config: rankingGrid()[0], MeanBetaDrift: 0.2, SharpeRatio: f64(1)},
		"7d_14d": {Config: rankingGrid()[1], MeanBetaDrift: 0.2, SharpeRatio: f64(1)},
		"14d_7d": {Config: rankingGrid()[2], MeanBetaDrift: 0.2, SharpeRatio: f64(1)},
	}

	ranked := ranker.Rank(stats)

	// Equal metrics keep the earliest combination in ascending grid order.
	assert.Equal(t, "7d_7d", ranked.LowestBetaDrift.Config.Key())
	assert.Equal(t, "7d_7d", ranked.HighestSharpe.Config.Key())
}

func TestRankingEngine_ObjectivesWithoutEligibleCombos(t *testing.T) {
	ranker := NewRankingEngine(rankingGrid())

	// No winners anywhere, no predictions: convergence and accuracy stay nil.
	stats := map[string]models.ComboStats{
		"7d_7d": {Config: rankingGrid()[0], MeanBetaDrift: 0.2},
	}

	ranked := ranker.Rank(stats)

	assert.NotNil(t, ranked.LowestBetaDrift)
	assert.Nil(t, ranked.LowestPredictionError)
	assert.Nil(t, ranked.FastestConvergence)
	assert.Nil(t, ranked.HighestSharpe)
}

func TestRankingEngine_EmptyStats(t *testing.T) {
	ranker := NewRankingEngine(rankingGrid())
	ranked := ranker.Rank(map[string]models.ComboStats{})

	assert.Nil(t, ranked.LowestBetaDrift)
	assert.Nil(t, ranked.LowestPredictionError)
	assert.Nil(t, ranked.FastestConvergence)
	assert.Nil(t, ranked.HighestSharpe)
}
