package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/pairlens/pairlens-go/internal/models"
)

// ReportGenerator renders aggregated and ranked sweep results into a single
// markdown document. Generation is idempotent: identical inputs produce
// byte-identical numeric content, with only the run-timestamp header
// varying between runs (and even that is fixed under an injected clock).
type ReportGenerator struct {
	grid []models.WindowConfig
	now  func() time.Time
}

// NewReportGenerator creates a generator over the sweep grid.
func NewReportGenerator(grid []models.WindowConfig) *ReportGenerator {
	return &ReportGenerator{
		grid: grid,
		now:  time.Now,
	}
}

// SetClock replaces the timestamp source, for deterministic tests.
func (g *ReportGenerator) SetClock(now func() time.Time) {
	g.now = now
}

// Generate renders the report for one run.
func (g *ReportGenerator) Generate(runID string, agg *AggregationResult, ranker *RankingEngine) string {
	var b strings.Builder

	b.WriteString("# Rolling-Window Sweep Report\n\n")
	fmt.Fprintf(&b, "- Run: `%s`\n", runID)
	fmt.Fprintf(&b, "- Generated: %s\n\n", g.now().UTC().Format(time.RFC3339))

	g.writeSummary(&b, agg)

	for _, summary := range agg.Buckets {
		g.writeBucket(&b, summary, ranker.Rank(summary.Stats))
	}

	return b.String()
}

func (g *ReportGenerator) writeSummary(b *strings.Builder, agg *AggregationResult) {
	b.WriteString("## Summary\n\n")
	fmt.Fprintf(b, "- Total trades: %d\n", agg.TotalTrades)
	fmt.Fprintf(b, "- Trades with usable half-life: %d\n", agg.UsableTrades)
	fmt.Fprintf(b, "- Trades skipped: %d\n\n", len(agg.Skipped))

	if len(agg.Skipped) > 0 {
		b.WriteString("### Skipped trades\n\n")
		b.WriteString("| Pair | Reason |\n")
		b.WriteString("|---|---|\n")
		for _, skipped := range agg.Skipped {
			fmt.Fprintf(b, "| %s | %s |\n", skipped.PairSymbol, skipped.Reason)
		}
		b.WriteString("\n")
	}
}

func (g *ReportGenerator) writeBucket(b *strings.Builder, summary BucketSummary, ranked RankedCombos) {
	fmt.Fprintf(b, "## Half-life bucket %s (%d trades)\n\n", summary.Bucket.Label, summary.TradeCount)

	b.WriteString("### Best combinations\n\n")
	b.WriteString("| Objective | Combination | Value |\n")
	b.WriteString("|---|---|---|\n")
	writeBestRow(b, "Most stable beta", ranked.LowestBetaDrift, func(cs *models.ComboStats) string {
		return formatFloat(&cs.MeanBetaDrift)
	})
	writeBestRow(b, "Most accurate ROI model", ranked.LowestPredictionError, func(cs *models.ComboStats) string {
		return formatFloat(cs.MeanAbsPredictionError)
	})
	writeBestRow(b, "Fastest convergence", ranked.FastestConvergence, func(cs *models.ComboStats) string {
		return formatFloat(cs.MeanDaysToTarget)
	})
	writeBestRow(b, "Best risk-adjusted outcome", ranked.HighestSharpe, func(cs *models.ComboStats) string {
		return formatFloat(cs.SharpeRatio)
	})
	b.WriteString("\n")

	b.WriteString("### All combinations\n\n")
	b.WriteString("| Combination | Trades | Mean beta drift | Mean abs pred error | Mean predicted ROI | Mean actual ROI | Win rate | Mean days to target | Sharpe |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|---|\n")
	for _, combo := range g.grid {
		cs, ok := summary.Stats[combo.Key()]
		if !ok {
			continue
		}
		fmt.Fprintf(b, "| %s | %d | %s | %s | %s | %s | %.1f%% | %s | %s |\n",
			combo.Key(),
			cs.TradeCount,
			formatFloat(&cs.MeanBetaDrift),
			formatFloat(cs.MeanAbsPredictionError),
			formatFloat(cs.MeanPredictedROI),
			formatFloat(&cs.MeanActualROI),
			cs.WinRatePct,
			formatFloat(cs.MeanDaysToTarget),
			formatFloat(cs.SharpeRatio),
		)
	}
	b.WriteString("\n")
}

// writeBestRow skips objectives that had no eligible combination.
func writeBestRow(b *strings.Builder, objective string, cs *models.ComboStats, value func(*models.ComboStats) string) {
	if cs == nil {
		return
	}
	fmt.Fprintf(b, "| %s | %s | %s |\n", objective, cs.Config.Key(), value(cs))
}

func formatFloat(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", *v)
}
