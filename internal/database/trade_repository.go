package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pairlens/pairlens-go/internal/models"
)

// DatabasePool defines the interface for database pool operations.
// This interface allows for both real pool and mock pool implementations.
type DatabasePool interface {
	// QueryRow executes a query that is expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	// Exec executes a query without returning any rows.
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	// Query executes a query that returns rows.
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// TradeRepository is the read-only trade source: closed pair trades recorded
// by the live stat-arb service. The sweep never writes here.
type TradeRepository struct {
	pool DatabasePool
}

// NewTradeRepository creates a new trade repository.
func NewTradeRepository(pool DatabasePool) *TradeRepository {
	return &TradeRepository{
		pool: pool,
	}
}

// ListClosedTrades returns every trade that has both an exit time and a
// realized total return recorded, in the store's native entry-time order.
// A query failure here is fatal to a sweep run.
func (r *TradeRepository) ListClosedTrades(ctx context.Context) ([]models.HistoricalTrade, error) {
	query := `
		SELECT id, pair_symbol, asset_a, asset_b, direction,
		       entry_time, exit_time, entry_z_score, exit_z_score, total_pnl_pct
		FROM pair_trades
		WHERE exit_time IS NOT NULL
		  AND total_pnl_pct IS NOT NULL
		ORDER BY entry_time
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query closed trades: %w", err)
	}
	defer rows.Close()

	var trades []models.HistoricalTrade
	for rows.Next() {
		var trade models.HistoricalTrade
		err := rows.Scan(
			&trade.ID,
			&trade.PairSymbol,
			&trade.AssetA,
			&trade.AssetB,
			&trade.Direction,
			&trade.EntryTime,
			&trade.ExitTime,
			&trade.EntryZScore,
			&trade.ExitZScore,
			&trade.TotalPnLPct,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade row: %w", err)
		}
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}

	return trades, nil
}

// CountClosedTrades returns the number of trades ListClosedTrades would
// yield, for status endpoints.
func (r *TradeRepository) CountClosedTrades(ctx context.Context) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM pair_trades
		WHERE exit_time IS NOT NULL
		  AND total_pnl_pct IS NOT NULL
	`

	var count int64
	if err := r.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count closed trades: %w", err)
	}
	return count, nil
}
