package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"BiasLens/internal/domain/models"
	drepo "BiasLens/internal/domain/repository"
	pkgch "BiasLens/pkg/clickhouse"
)

// ClickHouseQuoteArchive keeps live quote snapshots in quote_snapshots.
type ClickHouseQuoteArchive struct {
	db *sql.DB
}

var _ drepo.QuoteArchive = (*ClickHouseQuoteArchive)(nil)

func NewClickHouseQuoteArchive(c *pkgch.Client) *ClickHouseQuoteArchive {
	return &ClickHouseQuoteArchive{db: c.DB()}
}

func (a *ClickHouseQuoteArchive) Append(ctx context.Context, q models.Quote) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO quote_snapshots (ts, symbol, price, change, change_percent, provider, vendor)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.AsOf.UTC(), q.Symbol, q.Price, q.Change, q.ChangePercent, string(q.Provider), q.Vendor)
	if err != nil {
		return fmt.Errorf("insert quote snapshot: %w", err)
	}
	return nil
}

// Recent returns up to limit snapshots for symbol, newest first.
func (a *ClickHouseQuoteArchive) Recent(ctx context.Context, symbol string, limit int) ([]models.Quote, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT ts, symbol, price, change, change_percent, provider, vendor
		FROM quote_snapshots
		WHERE symbol = ?
		ORDER BY ts DESC
		LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("select quote snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]models.Quote, 0, limit)
	for rows.Next() {
		var (
			q        models.Quote
			ts       time.Time
			provider string
		)
		if err := rows.Scan(&ts, &q.Symbol, &q.Price, &q.Change, &q.ChangePercent, &provider, &q.Vendor); err != nil {
			return nil, fmt.Errorf("scan quote snapshot: %w", err)
		}
		q.AsOf = ts.UTC()
		q.Provider = models.ProviderID(provider)
		q.Source = models.SourceLive
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quote snapshots: %w", err)
	}
	return out, nil
}

// NopQuoteArchive is used when ClickHouse is disabled: appends vanish, history is empty.
type NopQuoteArchive struct{}

func (NopQuoteArchive) Append(context.Context, models.Quote) error { return nil }

func (NopQuoteArchive) Recent(context.Context, string, int) ([]models.Quote, error) {
	return []models.Quote{}, nil
}
