package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"BiasLens/internal/domain/models"
	drepo "BiasLens/internal/domain/repository"

	"github.com/jmoiron/sqlx"
)

// SignalRepository stores alpha signals and attributions in Postgres.
type SignalRepository struct {
	db *sqlx.DB
}

var _ drepo.SignalRepository = (*SignalRepository)(nil)

func NewSignalRepository(db *sqlx.DB) *SignalRepository {
	return &SignalRepository{db: db}
}

type signalRow struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Asset       string    `db:"asset"`
	Direction   string    `db:"direction"`
	Confidence  float64   `db:"confidence"`
	TimeHorizon string    `db:"time_horizon"`
	Insight     string    `db:"insight"`
	Sources     int       `db:"sources"`
	Category    string    `db:"category"`
	Source      string    `db:"source"`
	Provider    string    `db:"provider"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r signalRow) model() models.AlphaSignal {
	return models.AlphaSignal{
		ID:          r.ID,
		UserID:      r.UserID,
		Asset:       r.Asset,
		Direction:   models.Direction(r.Direction),
		Confidence:  r.Confidence,
		TimeHorizon: r.TimeHorizon,
		Insight:     r.Insight,
		Sources:     r.Sources,
		Category:    r.Category,
		Source:      models.Source(r.Source),
		Provider:    models.ProviderID(r.Provider),
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

type attributionRow struct {
	ID          string       `db:"id"`
	SignalID    string       `db:"signal_id"`
	Title       string       `db:"title"`
	URL         string       `db:"url"`
	SourceName  string       `db:"source_name"`
	PublishedAt sql.NullTime `db:"published_at"`
}

func (r attributionRow) model() models.Attribution {
	a := models.Attribution{
		ID:         r.ID,
		SignalID:   r.SignalID,
		Title:      r.Title,
		URL:        r.URL,
		SourceName: r.SourceName,
	}
	if r.PublishedAt.Valid {
		t := r.PublishedAt.Time.UTC()
		a.PublishedAt = &t
	}
	return a
}

const signalColumns = `id, user_id, asset, direction, confidence, time_horizon, insight, sources, category, source, provider, created_at`

const attributionColumns = `id, signal_id, title, url, source_name, published_at`

func (s *SignalRepository) RecentByUser(ctx context.Context, userID string, since time.Time) ([]models.AlphaSignal, error) {
	var rows []signalRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+signalColumns+`
		FROM alpha_signals
		WHERE user_id = $1 AND created_at >= $2
		ORDER BY created_at DESC`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("select recent signals: %w", err)
	}
	out := make([]models.AlphaSignal, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

// Insert writes the signal and its attributions in one transaction.
func (s *SignalRepository) Insert(ctx context.Context, sig *models.AlphaSignal) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert signal: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := signalRow{
		ID:          sig.ID,
		UserID:      sig.UserID,
		Asset:       sig.Asset,
		Direction:   string(sig.Direction),
		Confidence:  sig.Confidence,
		TimeHorizon: sig.TimeHorizon,
		Insight:     sig.Insight,
		Sources:     sig.Sources,
		Category:    sig.Category,
		Source:      string(sig.Source),
		Provider:    string(sig.Provider),
		CreatedAt:   sig.CreatedAt,
	}
	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO alpha_signals (`+signalColumns+`)
		VALUES (:id, :user_id, :asset, :direction, :confidence, :time_horizon, :insight, :sources, :category, :source, :provider, :created_at)`,
		row); err != nil {
		return fmt.Errorf("insert signal: %w", err)
	}

	for _, a := range sig.Attributions {
		var published sql.NullTime
		if a.PublishedAt != nil {
			published = sql.NullTime{Time: *a.PublishedAt, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO signal_attributions (`+attributionColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			a.ID, sig.ID, a.Title, a.URL, a.SourceName, published); err != nil {
			return fmt.Errorf("insert attribution: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert signal: %w", err)
	}
	return nil
}

// AttributionsBySignal returns the attributions of a signal owned by userID; unknown or foreign
// signals yield an empty list.
func (s *SignalRepository) AttributionsBySignal(ctx context.Context, userID, signalID string) ([]models.Attribution, error) {
	var rows []attributionRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT a.id, a.signal_id, a.title, a.url, a.source_name, a.published_at
		FROM signal_attributions a
		JOIN alpha_signals s ON s.id = a.signal_id
		WHERE a.signal_id = $1 AND s.user_id = $2
		ORDER BY a.published_at DESC NULLS LAST, a.id`, signalID, userID)
	if err != nil {
		return nil, fmt.Errorf("select attributions: %w", err)
	}
	out := make([]models.Attribution, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (s *SignalRepository) AttributionsBySignals(ctx context.Context, signalIDs []string) (map[string][]models.Attribution, error) {
	out := make(map[string][]models.Attribution, len(signalIDs))
	if len(signalIDs) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`
		SELECT `+attributionColumns+`
		FROM signal_attributions
		WHERE signal_id IN (?)
		ORDER BY published_at DESC NULLS LAST, id`, signalIDs)
	if err != nil {
		return nil, fmt.Errorf("build attributions query: %w", err)
	}
	var rows []attributionRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select attributions: %w", err)
	}
	for _, r := range rows {
		out[r.SignalID] = append(out[r.SignalID], r.model())
	}
	return out, nil
}
