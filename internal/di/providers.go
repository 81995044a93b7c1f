package di

import (
	"context"
	"fmt"
	"time"

	domrepo "BiasLens/internal/domain/repository"
	domsvc "BiasLens/internal/domain/service"
	"BiasLens/internal/handler/api"
	"BiasLens/internal/repository"
	"BiasLens/internal/service/alphavantage"
	icache "BiasLens/internal/service/cache"
	"BiasLens/internal/service/finnhub"
	"BiasLens/internal/service/identity"
	"BiasLens/internal/service/metrics"
	"BiasLens/internal/service/newsapi"
	"BiasLens/internal/service/ratelimit"
	"BiasLens/internal/usecase"
	pkgcache "BiasLens/pkg/cache"
	pkgch "BiasLens/pkg/clickhouse"
	"BiasLens/pkg/config"
	xhttp "BiasLens/pkg/http"
	pkgkafka "BiasLens/pkg/kafka"
	applogger "BiasLens/pkg/logger"
	pkgmetrics "BiasLens/pkg/metrics"
	"BiasLens/pkg/postgres"
	"BiasLens/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const initTimeout = 10 * time.Second

// ProvideLogger builds the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideRegistry creates the Prometheus registry every component registers on.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideResolverMetrics creates the cache and provider recorder.
func ProvideResolverMetrics(reg *prometheus.Registry) domrepo.Metrics {
	return pkgmetrics.New(reg)
}

// ProvideAPIMetrics creates the per-endpoint HTTP metrics.
func ProvideAPIMetrics(reg *prometheus.Registry) *metrics.APIMetrics {
	return metrics.NewAPIMetrics(reg)
}

// ProvideCacheService selects the shared cache backend.
func ProvideCacheService(cfg *config.Config, l *applogger.Logger) (pkgcache.Service, error) {
	memOpts := []pkgcache.MemoryOption{pkgcache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize)}
	if cfg.Cache.Backend == "memory" {
		return pkgcache.NewMemoryCache(memOpts...), nil
	}

	redisCache, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisAddr(cfg.Cache.Redis.Addr),
		pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
		pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
		pkgcache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	l.Info("redis cache connected",
		applogger.String("addr", cfg.Cache.Redis.Addr),
		applogger.String("backend", cfg.Cache.Backend),
	)

	if cfg.Cache.Backend == "layered" {
		return pkgcache.NewLayeredCache(redisCache, pkgcache.WithLayeredMemory(memOpts...)), nil
	}
	return redisCache, nil
}

// ProvideQuoteCache adapts the shared cache for the resolver.
func ProvideQuoteCache(svc pkgcache.Service) domrepo.Cache {
	return repository.NewQuoteCache(svc)
}

// ProvideResponseCache holds serialized signal responses. The memory backend keeps them
// in-process; shared backends let every replica serve the same cached body.
func ProvideResponseCache(cfg *config.Config, svc pkgcache.Service) icache.BytesCache {
	if cfg.Cache.Backend == "memory" {
		return icache.NewTTLCache(icache.WithMaxEntries(cfg.Cache.MemoryMaxSize))
	}
	return icache.NewSharedCache(svc)
}

// ProvidePrimaryProvider creates the Finnhub quote adapter.
func ProvidePrimaryProvider(cfg *config.Config) *finnhub.Client {
	return finnhub.New(cfg.ProviderKeys().PrimaryAPIKey,
		finnhub.WithBaseURL(cfg.Providers.Finnhub.BaseURL),
		finnhub.WithTimeout(cfg.Providers.Timeout),
	)
}

// ProvideSecondaryProvider creates the Alpha Vantage quote adapter.
func ProvideSecondaryProvider(cfg *config.Config) *alphavantage.Client {
	return alphavantage.New(cfg.ProviderKeys().SecondaryAPIKey,
		alphavantage.WithBaseURL(cfg.Providers.AlphaVantage.BaseURL),
		alphavantage.WithTimeout(cfg.Providers.Timeout),
	)
}

// ProvideNewsSearcher creates the news adapter.
func ProvideNewsSearcher(cfg *config.Config) domsvc.NewsSearcher {
	return newsapi.New(cfg.ProviderKeys().NewsAPIKey,
		newsapi.WithBaseURL(cfg.Providers.NewsAPI.BaseURL),
		newsapi.WithTimeout(cfg.Providers.Timeout),
	)
}

// ProvidePostgresClient connects to Postgres and applies the schema when auto_migrate is set.
func ProvidePostgresClient(cfg *config.Config, l *applogger.Logger) (*postgres.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	client, err := postgres.NewClient(ctx,
		postgres.WithURL(cfg.Database.URL),
		postgres.WithPool(cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres client: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := client.Migrate(ctx, repository.PostgresSchema); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		l.Info("postgres schema ready")
	}
	return client, nil
}

// ProvideSignalRepository creates the signal store.
func ProvideSignalRepository(pg *postgres.Client) domrepo.SignalRepository {
	return repository.NewSignalRepository(pg.DB())
}

// ProvidePortfolioRepository creates the holdings reader.
func ProvidePortfolioRepository(pg *postgres.Client) domrepo.PortfolioRepository {
	return repository.NewPortfolioRepository(pg.DB())
}

// ProvideClickHouseClient connects the quote archive store. Returns nil when disabled.
func ProvideClickHouseClient(cfg *config.Config, l *applogger.Logger) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	if err := client.InitSchema(ctx, repository.ClickHouseSchema); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	l.Info("clickhouse archive ready", applogger.String("database", cfg.ClickHouse.Database))
	return client, nil
}

// ProvideQuoteArchive returns the ClickHouse archive, or a no-op one when ClickHouse is off.
func ProvideQuoteArchive(ch *pkgch.Client) domrepo.QuoteArchive {
	if ch == nil {
		return repository.NopQuoteArchive{}
	}
	return repository.NewClickHouseQuoteArchive(ch)
}

// ProvideKafkaProducer creates the signal event producer. Returns nil when disabled.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithTopic(cfg.Kafka.Topic),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithProducerMetrics(pkgkafka.NewProducerMetrics(reg)),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideSignalPublisher wraps the producer. A nil producer yields a nil publisher so the
// generator skips publishing.
func ProvideSignalPublisher(p *pkgkafka.Producer) domrepo.SignalPublisher {
	if p == nil {
		return nil
	}
	return repository.NewKafkaSignalPublisher(p)
}

// ProvideQuoteResolver builds the fallback chain primary -> secondary -> demo.
func ProvideQuoteResolver(
	cfg *config.Config,
	primary *finnhub.Client,
	secondary *alphavantage.Client,
	cache domrepo.Cache,
	archive domrepo.QuoteArchive,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.QuoteResolver {
	ttl := cfg.Cache.TTL
	return usecase.NewQuoteResolver(primary, secondary, cache,
		usecase.WithTTLPolicy(usecase.TTLPolicy{
			PrimaryQuote:      ttl.PrimaryQuote,
			SecondaryQuote:    ttl.SecondaryQuote,
			PrimaryIntraday:   ttl.PrimaryIntraday,
			SecondaryIntraday: ttl.SecondaryIntraday,
			Demo:              ttl.Demo,
		}),
		usecase.WithArchive(archive),
		usecase.WithMetrics(m),
		usecase.WithConcurrency(cfg.Resolver.Concurrency),
		usecase.WithResolverLogger(l.With(applogger.String("component", "resolver"))),
	)
}

// ProvideSignalGenerator builds the per-user signal generator.
func ProvideSignalGenerator(
	cfg *config.Config,
	portfolios domrepo.PortfolioRepository,
	signals domrepo.SignalRepository,
	news domsvc.NewsSearcher,
	resolver *usecase.QuoteResolver,
	publisher domrepo.SignalPublisher,
	l *applogger.Logger,
) *usecase.SignalGenerator {
	return usecase.NewSignalGenerator(portfolios, signals, news, resolver,
		usecase.WithCooldown(cfg.Signals.Cooldown),
		usecase.WithMaxSymbols(cfg.Signals.MaxSymbols),
		usecase.WithMaxAttributions(cfg.Signals.MaxAttributions),
		usecase.WithPublisher(publisher),
		usecase.WithGeneratorLogger(l.With(applogger.String("component", "signals"))),
	)
}

// ProvideAuthenticator creates the bearer token verifier.
func ProvideAuthenticator(cfg *config.Config, l *applogger.Logger) domsvc.Authenticator {
	opts := []identity.Option{
		identity.WithJWTSecret(cfg.Auth.JWTSecret),
		identity.WithTimeout(cfg.Auth.Timeout),
		identity.WithLogger(l.With(applogger.String("component", "identity"))),
	}
	if cfg.Auth.URL != "" {
		opts = append(opts, identity.WithRemote(cfg.Auth.URL, cfg.Auth.AnonKey))
	}
	return identity.New(opts...)
}

// ProvideRateLimiter creates the per-user limiter for signal generation.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Signals.RateLimit.PerSecond, cfg.Signals.RateLimit.Burst)
}

// ProvideQuoteHandler creates the quote endpoints.
func ProvideQuoteHandler(resolver *usecase.QuoteResolver, archive domrepo.QuoteArchive, m *metrics.APIMetrics, l *applogger.Logger) *api.QuoteHandler {
	return api.NewQuoteHandler(resolver, archive, m, l)
}

// ProvideSignalsHandler creates the signal endpoints.
func ProvideSignalsHandler(
	cfg *config.Config,
	gen *usecase.SignalGenerator,
	repo domrepo.SignalRepository,
	cache icache.BytesCache,
	rl *ratelimit.Limiter,
	m *metrics.APIMetrics,
	l *applogger.Logger,
) *api.SignalsHandler {
	return api.NewSignalsHandler(gen, repo, cache, cfg.Cache.TTL.SignalsResponse, rl, m, l)
}

// ProvideStreamHandler creates the websocket quote stream.
func ProvideStreamHandler(cfg *config.Config, resolver *usecase.QuoteResolver, m *metrics.APIMetrics, l *applogger.Logger) *api.StreamHandler {
	return api.NewStreamHandler(resolver, api.StreamConfig{
		DefaultInterval: cfg.Stream.DefaultInterval,
		MinInterval:     cfg.Stream.MinInterval,
		MaxSymbols:      cfg.Stream.MaxSymbols,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
	}, m, l)
}

// ProvideHTTPServer builds the echo server around the router.
func ProvideHTTPServer(cfg *config.Config, router *api.Router, reg *prometheus.Registry, l *applogger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(l),
		xhttp.WithMetrics(reg, metricsPath),
	}
	if len(cfg.Server.AllowedOrigins) > 0 {
		opts = append(opts, xhttp.WithCORS(cfg.Server.AllowedOrigins...))
	}
	return xhttp.NewServer(router, opts...)
}

// ProvideApp assembles the application and the resources it closes on shutdown.
func ProvideApp(
	srv *xhttp.Server,
	l *applogger.Logger,
	cache pkgcache.Service,
	pg *postgres.Client,
	ch *pkgch.Client,
	producer *pkgkafka.Producer,
) *server.App {
	resources := []server.Resource{
		{Name: "cache", Closer: cache},
		{Name: "postgres", Closer: pg},
	}
	if ch != nil {
		resources = append(resources, server.Resource{Name: "clickhouse", Closer: ch})
	}
	if producer != nil {
		resources = append(resources, server.Resource{Name: "kafka", Closer: producer})
	}
	return server.New(srv, l, resources...)
}
