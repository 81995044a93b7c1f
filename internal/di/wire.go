//go:build wireinject
// +build wireinject

package di

import (
	"BiasLens/internal/handler/api"
	"BiasLens/pkg/config"
	"BiasLens/pkg/server"

	"github.com/google/wire"
)

var infraSet = wire.NewSet(
	ProvideLogger,
	ProvideRegistry,
	ProvideResolverMetrics,
	ProvideAPIMetrics,
	ProvideCacheService,
	ProvideQuoteCache,
	ProvideResponseCache,
	ProvidePostgresClient,
	ProvideClickHouseClient,
	ProvideKafkaProducer,
)

var repositorySet = wire.NewSet(
	ProvideSignalRepository,
	ProvidePortfolioRepository,
	ProvideQuoteArchive,
	ProvideSignalPublisher,
)

var serviceSet = wire.NewSet(
	ProvidePrimaryProvider,
	ProvideSecondaryProvider,
	ProvideNewsSearcher,
	ProvideAuthenticator,
	ProvideRateLimiter,
	ProvideQuoteResolver,
	ProvideSignalGenerator,
)

var httpSet = wire.NewSet(
	ProvideQuoteHandler,
	ProvideSignalsHandler,
	ProvideStreamHandler,
	api.NewRouter,
	ProvideHTTPServer,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		infraSet,
		repositorySet,
		serviceSet,
		httpSet,
		ProvideApp,
	)
	return &server.App{}, nil
}
