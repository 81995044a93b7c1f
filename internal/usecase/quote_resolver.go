package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"BiasLens/internal/domain/models"
	domrepo "BiasLens/internal/domain/repository"
	domsvc "BiasLens/internal/domain/service"
	pkgcache "BiasLens/pkg/cache"
	applogger "BiasLens/pkg/logger"
	"BiasLens/pkg/util"

	"golang.org/x/sync/errgroup"
)

const (
	kindQuote    = "quote"
	kindIntraday = "intraday"
)

// TTLPolicy holds how long each outcome stays cached.
type TTLPolicy struct {
	PrimaryQuote      time.Duration
	SecondaryQuote    time.Duration
	PrimaryIntraday   time.Duration
	SecondaryIntraday time.Duration
	Demo              time.Duration
}

// DefaultTTLPolicy: live quotes are short lived, intraday series longer, demo shortest.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		PrimaryQuote:      30 * time.Second,
		SecondaryQuote:    60 * time.Second,
		PrimaryIntraday:   120 * time.Second,
		SecondaryIntraday: 300 * time.Second,
		Demo:              10 * time.Second,
	}
}

// QuoteKey is the cache key of a symbol's quote.
func QuoteKey(symbol string) string {
	return pkgcache.GenerateKey(kindQuote, symbol)
}

// IntradayKey is the cache key of a symbol's intraday series.
func IntradayKey(symbol string) string {
	return pkgcache.GenerateKeyWithParams(kindIntraday, symbol, models.IntradayInterval)
}

// ResolverOption configures QuoteResolver.
type ResolverOption func(*QuoteResolver)

func WithTTLPolicy(p TTLPolicy) ResolverOption {
	return func(r *QuoteResolver) { r.ttl = p }
}

func WithClock(now func() time.Time) ResolverOption {
	return func(r *QuoteResolver) { r.now = now }
}

// WithArchive appends every freshly fetched live quote to a.
func WithArchive(a domrepo.QuoteArchive) ResolverOption {
	return func(r *QuoteResolver) { r.archive = a }
}

func WithResolverLogger(l *applogger.Logger) ResolverOption {
	return func(r *QuoteResolver) {
		if l != nil {
			r.log = l
		}
	}
}

func WithMetrics(m domrepo.Metrics) ResolverOption {
	return func(r *QuoteResolver) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithConcurrency bounds ResolveMany fan-out.
func WithConcurrency(n int) ResolverOption {
	return func(r *QuoteResolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// QuoteResolver walks cache, primary, secondary and finally a demo value.
// Provider and data errors never escape; callers always get a provenance-tagged result.
// Concurrent resolutions of one symbol may both reach the providers.
type QuoteResolver struct {
	primary     domsvc.QuoteProvider
	secondary   domsvc.QuoteProvider
	cache       domrepo.Cache
	archive     domrepo.QuoteArchive
	ttl         TTLPolicy
	now         func() time.Time
	log         *applogger.Logger
	metrics     domrepo.Metrics
	concurrency int
}

// NewQuoteResolver builds a resolver. Either provider may be nil, which counts as unconfigured.
func NewQuoteResolver(primary, secondary domsvc.QuoteProvider, cache domrepo.Cache, opts ...ResolverOption) *QuoteResolver {
	r := &QuoteResolver{
		primary:     primary,
		secondary:   secondary,
		cache:       cache,
		ttl:         DefaultTTLPolicy(),
		now:         time.Now,
		log:         applogger.Nop(),
		metrics:     domrepo.NoopMetrics{},
		concurrency: 8,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// attempt is one link of the fallback chain.
type attempt[T any] struct {
	id     models.ProviderID
	vendor string
	ttl    time.Duration
	fetch  func(ctx context.Context) (T, error)
}

// chain describes how one kind of value is cached, validated and synthesized.
type chain[T any] struct {
	kind     string
	key      string
	attempts []attempt[T]
	validate func(T) error
	// stamp fixes provenance and resolution time on a fetched value.
	stamp func(v *T, id models.ProviderID, at time.Time)
	demo  func(reason string, at time.Time) T
	// fresh, if set, sees every value just fetched from a provider.
	fresh func(ctx context.Context, v T)
}

func run[T any](ctx context.Context, r *QuoteResolver, c chain[T]) T {
	start := r.now()
	defer func() { r.metrics.RecordLatency("resolve_"+c.kind, time.Since(start).Seconds()) }()

	var cached T
	if r.cache != nil {
		hit, err := r.cache.Get(ctx, c.key, &cached)
		switch {
		case err != nil:
			r.log.Warn("resolver cache read failed", applogger.String("key", c.key), applogger.Error(err))
		case hit:
			r.metrics.RecordCacheHit(c.kind)
			r.log.Debug("resolver cache_hit", applogger.String("key", c.key))
			return cached
		}
	}
	r.metrics.RecordCacheMiss(c.kind)

	failures := make([]string, 0, len(c.attempts))
	for _, a := range c.attempts {
		v, err := a.fetch(ctx)
		if err == nil {
			err = c.validate(v)
		}
		if err != nil {
			r.metrics.RecordProviderResult(c.kind, a.vendor, false)
			r.log.Warn("provider attempt failed",
				applogger.String("kind", c.kind),
				applogger.String("key", c.key),
				applogger.String("provider", string(a.id)),
				applogger.String("vendor", a.vendor),
				applogger.Error(err),
			)
			failures = append(failures, fmt.Sprintf("%s (%s): %v", a.id, a.vendor, err))
			continue
		}

		r.metrics.RecordProviderResult(c.kind, a.vendor, true)
		c.stamp(&v, a.id, r.now().UTC())
		r.store(ctx, c.key, v, a.ttl)
		if c.fresh != nil {
			c.fresh(ctx, v)
		}
		return v
	}

	r.metrics.RecordFallback(c.kind)
	v := c.demo(strings.Join(failures, "; "), r.now().UTC())
	// A cancelled caller says nothing about provider health.
	if ctx.Err() == nil {
		r.store(ctx, c.key, v, r.ttl.Demo)
	}
	return v
}

func (r *QuoteResolver) store(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, key, v, ttl); err != nil {
		r.log.Warn("resolver cache write failed", applogger.String("key", key), applogger.Error(err))
	}
}

func vendorOf(p domsvc.QuoteProvider, fallback string) string {
	if p == nil {
		return fallback
	}
	return p.Name()
}

// Resolve returns a quote for symbol, demo-tagged when no provider produced usable data.
func (r *QuoteResolver) Resolve(ctx context.Context, symbol string) models.Quote {
	sym := util.NormalizeSymbol(symbol)
	if sym == "" {
		return demoQuote(sym, "symbol is required", r.now().UTC())
	}

	quoteFrom := func(p domsvc.QuoteProvider) func(context.Context) (models.Quote, error) {
		return func(ctx context.Context) (models.Quote, error) {
			if p == nil {
				return models.Quote{}, domsvc.ErrProviderNotConfigured
			}
			return p.FetchQuote(ctx, sym)
		}
	}

	return run(ctx, r, chain[models.Quote]{
		kind: kindQuote,
		key:  QuoteKey(sym),
		attempts: []attempt[models.Quote]{
			{id: models.ProviderPrimary, vendor: vendorOf(r.primary, "unset"), ttl: r.ttl.PrimaryQuote, fetch: quoteFrom(r.primary)},
			{id: models.ProviderSecondary, vendor: vendorOf(r.secondary, "unset"), ttl: r.ttl.SecondaryQuote, fetch: quoteFrom(r.secondary)},
		},
		validate: func(q models.Quote) error {
			if q.Price == 0 {
				return domsvc.ErrNoData
			}
			return nil
		},
		stamp: func(q *models.Quote, id models.ProviderID, at time.Time) {
			q.Symbol = sym
			q.Source = models.SourceLive
			q.Provider = id
			q.Reason = ""
			q.AsOf = at
		},
		demo: func(reason string, at time.Time) models.Quote {
			return demoQuote(sym, reason, at)
		},
		fresh: r.archiveQuote,
	})
}

// archiveQuote is best-effort; history is not worth failing a quote over.
func (r *QuoteResolver) archiveQuote(ctx context.Context, q models.Quote) {
	if r.archive == nil {
		return
	}
	if err := r.archive.Append(ctx, q); err != nil {
		r.log.Warn("quote archive append failed", applogger.String("symbol", q.Symbol), applogger.Error(err))
	}
}

// ResolveMany resolves symbols concurrently and returns results in input order.
func (r *QuoteResolver) ResolveMany(ctx context.Context, symbols []string) []models.Quote {
	out := make([]models.Quote, len(symbols))
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, s := range symbols {
		g.Go(func() error {
			out[i] = r.Resolve(ctx, s)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// ResolveIntraday returns the 5-minute series for symbol, demo-tagged and empty on total failure.
func (r *QuoteResolver) ResolveIntraday(ctx context.Context, symbol string) models.Intraday {
	sym := util.NormalizeSymbol(symbol)
	if sym == "" {
		return demoIntraday(sym, "symbol is required", r.now().UTC())
	}

	intradayFrom := func(p domsvc.QuoteProvider) func(context.Context) (models.Intraday, error) {
		return func(ctx context.Context) (models.Intraday, error) {
			if p == nil {
				return models.Intraday{}, domsvc.ErrProviderNotConfigured
			}
			ip, ok := p.(domsvc.IntradayProvider)
			if !ok {
				return models.Intraday{}, domsvc.ErrIntradayUnsupported
			}
			return ip.FetchIntraday(ctx, sym)
		}
	}

	return run(ctx, r, chain[models.Intraday]{
		kind: kindIntraday,
		key:  IntradayKey(sym),
		attempts: []attempt[models.Intraday]{
			{id: models.ProviderPrimary, vendor: vendorOf(r.primary, "unset"), ttl: r.ttl.PrimaryIntraday, fetch: intradayFrom(r.primary)},
			{id: models.ProviderSecondary, vendor: vendorOf(r.secondary, "unset"), ttl: r.ttl.SecondaryIntraday, fetch: intradayFrom(r.secondary)},
		},
		validate: func(in models.Intraday) error {
			if len(in.Candles) == 0 {
				return domsvc.ErrNoData
			}
			return nil
		},
		stamp: func(in *models.Intraday, id models.ProviderID, at time.Time) {
			in.Symbol = sym
			in.Interval = models.IntradayInterval
			in.Source = models.SourceLive
			in.Provider = id
			in.Reason = ""
			in.AsOf = at
		},
		demo: func(reason string, at time.Time) models.Intraday {
			return demoIntraday(sym, reason, at)
		},
	})
}

func demoQuote(symbol, reason string, at time.Time) models.Quote {
	return models.Quote{
		Symbol:   symbol,
		Source:   models.SourceDemo,
		Provider: models.ProviderDemo,
		AsOf:     at,
		Reason:   demoReason(reason),
	}
}

func demoIntraday(symbol, reason string, at time.Time) models.Intraday {
	return models.Intraday{
		Symbol:   symbol,
		Interval: models.IntradayInterval,
		Candles:  []models.Candle{},
		Source:   models.SourceDemo,
		Provider: models.ProviderDemo,
		AsOf:     at,
		Reason:   demoReason(reason),
	}
}

func demoReason(reason string) string {
	if reason == "" {
		return "no provider produced data"
	}
	return reason
}
