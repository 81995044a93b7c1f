package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"BiasLens/internal/domain/models"
	drepo "BiasLens/internal/domain/repository"

	"github.com/jmoiron/sqlx"
)

// PortfolioRepository reads holdings. The portfolio tables are written by the portfolio feature.
type PortfolioRepository struct {
	db *sqlx.DB
}

var _ drepo.PortfolioRepository = (*PortfolioRepository)(nil)

func NewPortfolioRepository(db *sqlx.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

type holdingRow struct {
	Symbol    string  `db:"symbol"`
	Shares    float64 `db:"shares"`
	CostBasis float64 `db:"cost_basis"`
}

// Holdings returns the user's holdings in insertion order, or ErrPortfolioNotFound
// when the user has no portfolio at all.
func (p *PortfolioRepository) Holdings(ctx context.Context, userID string) ([]models.Holding, error) {
	var portfolioID string
	err := p.db.GetContext(ctx, &portfolioID, `SELECT id FROM portfolios WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, drepo.ErrPortfolioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select portfolio: %w", err)
	}

	var rows []holdingRow
	if err := p.db.SelectContext(ctx, &rows, `
		SELECT symbol, shares, cost_basis
		FROM holdings
		WHERE portfolio_id = $1
		ORDER BY created_at, id`, portfolioID); err != nil {
		return nil, fmt.Errorf("select holdings: %w", err)
	}
	out := make([]models.Holding, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Holding{Symbol: r.Symbol, Shares: r.Shares, CostBasis: r.CostBasis})
	}
	return out, nil
}
