package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeDirection indicates which side of the spread a pair trade was opened on.
type TradeDirection string

const (
	DirectionLong  TradeDirection = "long"
	DirectionShort TradeDirection = "short"
)

// HistoricalTrade is an immutable record of a closed pair-trade position,
// sourced read-only from the trade-history store.
type HistoricalTrade struct {
	ID          string          `json:"id" db:"id"`
	PairSymbol  string          `json:"pair_symbol" db:"pair_symbol"`
	AssetA      string          `json:"asset_a" db:"asset_a"`
	AssetB      string          `json:"asset_b" db:"asset_b"`
	Direction   TradeDirection  `json:"direction" db:"direction"`
	EntryTime   time.Time       `json:"entry_time" db:"entry_time"`
	ExitTime    time.Time       `json:"exit_time" db:"exit_time"`
	EntryZScore *float64        `json:"entry_z_score,omitempty" db:"entry_z_score"`
	ExitZScore  *float64        `json:"exit_z_score,omitempty" db:"exit_z_score"`
	TotalPnLPct decimal.Decimal `json:"total_pnl_pct" db:"total_pnl_pct"`
}

// DurationDays returns the realized holding period in days.
func (t *HistoricalTrade) DurationDays() float64 {
	return t.ExitTime.Sub(t.EntryTime).Hours() / 24
}

// ActualROI returns the realized total return as a float percentage.
func (t *HistoricalTrade) ActualROI() float64 {
	roi, _ := t.TotalPnLPct.Float64()
	return roi
}
