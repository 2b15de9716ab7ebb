package services

import (
	"github.com/pairlens/pairlens-go/internal/models"
)

// RankedCombos holds one bucket's best combination per objective. An
// objective with no eligible combination is nil.
type RankedCombos struct {
	// LowestBetaDrift: most stable hedge ratio across the trade.
	LowestBetaDrift *models.ComboStats
	// LowestPredictionError: most accurate ROI model.
	LowestPredictionError *models.ComboStats
	// FastestConvergence: lowest mean days-to-target, winners required.
	FastestConvergence *models.ComboStats
	// HighestSharpe: best risk-adjusted realized outcome.
	HighestSharpe *models.ComboStats
}

// RankingEngine selects the best window combination per bucket for each
// objective. Iteration follows the canonical ascending grid order, and a tie
// keeps the earlier combination, so the tie-break is defined rather than an
// artifact of sort stability.
type RankingEngine struct {
	grid []models.WindowConfig
}

// NewRankingEngine creates a ranking engine over the sweep grid.
func NewRankingEngine(grid []models.WindowConfig) *RankingEngine {
	return &RankingEngine{grid: grid}
}

// Rank picks the winners among one bucket's ComboStats.
func (r *RankingEngine) Rank(stats map[string]models.ComboStats) RankedCombos {
	var ranked RankedCombos

	for _, combo := range r.grid {
		cs, ok := stats[combo.Key()]
		if !ok {
			continue
		}
		candidate := cs

		if ranked.LowestBetaDrift == nil || candidate.MeanBetaDrift < ranked.LowestBetaDrift.MeanBetaDrift {
			ranked.LowestBetaDrift = &candidate
		}
		if candidate.MeanAbsPredictionError != nil {
			if ranked.LowestPredictionError == nil || *candidate.MeanAbsPredictionError < *ranked.LowestPredictionError.MeanAbsPredictionError {
				ranked.LowestPredictionError = &candidate
			}
		}
		if candidate.MeanDaysToTarget != nil {
			if ranked.FastestConvergence == nil || *candidate.MeanDaysToTarget < *ranked.FastestConvergence.MeanDaysToTarget {
				ranked.FastestConvergence = &candidate
			}
		}
		if candidate.SharpeRatio != nil {
			if ranked.HighestSharpe == nil || *candidate.SharpeRatio > *ranked.HighestSharpe.SharpeRatio {
				ranked.HighestSharpe = &candidate
			}
		}
	}

	return ranked
}
