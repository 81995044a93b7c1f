package service

import (
	"context"
	"errors"

	"BiasLens/internal/domain/models"
)

// Provider failures. All of them trigger fallback; none reach the end caller.
var (
	ErrProviderNotConfigured = errors.New("provider not configured")
	ErrUpstreamStatus        = errors.New("upstream returned non-success status")
	ErrNoData                = errors.New("provider returned no data")
	ErrIntradayUnsupported   = errors.New("provider does not serve intraday candles")
)

// ErrUnauthorized is returned by Authenticator for any invalid or missing credential.
var ErrUnauthorized = errors.New("unauthorized")

// QuoteProvider translates one upstream into the normalized quote shape.
// Implementations never cache and never fall back.
type QuoteProvider interface {
	// Name is the upstream vendor, used in logs and demo reasons.
	Name() string
	FetchQuote(ctx context.Context, symbol string) (models.Quote, error)
}

// IntradayProvider is implemented by providers that serve 5-minute candles.
type IntradayProvider interface {
	FetchIntraday(ctx context.Context, symbol string) (models.Intraday, error)
}

// NewsSearcher finds recent articles mentioning any of the symbols.
type NewsSearcher interface {
	Search(ctx context.Context, symbols []string) ([]models.NewsArticle, error)
}

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}
