package repository

import (
	"context"
	"errors"
	"time"

	"BiasLens/internal/domain/models"
)

var (
	// ErrPortfolioNotFound means the user has no portfolio record at all.
	// A portfolio with zero holdings is not an error.
	ErrPortfolioNotFound = errors.New("portfolio not found")
)

// Cache is the key/value store the resolver reads through. A miss is (false, nil).
// Entries at or past their expiry are absent.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// SignalRepository persists generated signals and their attributions.
type SignalRepository interface {
	// RecentByUser returns signals created at or after since, newest first.
	RecentByUser(ctx context.Context, userID string, since time.Time) ([]models.AlphaSignal, error)
	// Insert stores one signal with its attributions atomically.
	Insert(ctx context.Context, s *models.AlphaSignal) error
	AttributionsBySignal(ctx context.Context, userID, signalID string) ([]models.Attribution, error)
	AttributionsBySignals(ctx context.Context, signalIDs []string) (map[string][]models.Attribution, error)
}

// PortfolioRepository reads holdings owned by the portfolio feature.
type PortfolioRepository interface {
	Holdings(ctx context.Context, userID string) ([]models.Holding, error)
}

// QuoteArchive keeps live quote snapshots for history queries.
type QuoteArchive interface {
	Append(ctx context.Context, q models.Quote) error
	Recent(ctx context.Context, symbol string, limit int) ([]models.Quote, error)
}

// SignalPublisher fans freshly generated signals out to downstream consumers.
type SignalPublisher interface {
	PublishSignals(ctx context.Context, userID string, signals []models.AlphaSignal) error
}

// Metrics records resolver outcomes.
type Metrics interface {
	RecordCacheHit(kind string)
	RecordCacheMiss(kind string)
	RecordProviderResult(kind, provider string, ok bool)
	RecordFallback(kind string)
	RecordLatency(op string, seconds float64)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) RecordCacheHit(string)                     {}
func (NoopMetrics) RecordCacheMiss(string)                    {}
func (NoopMetrics) RecordProviderResult(string, string, bool) {}
func (NoopMetrics) RecordFallback(string)                     {}
func (NoopMetrics) RecordLatency(string, float64)             {}
