package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"BiasLens/internal/domain/models"
	"BiasLens/internal/repository"
	pkgcache "BiasLens/pkg/cache"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeProvider counts calls and answers from per-symbol tables.
type fakeProvider struct {
	name      string
	quotes    map[string]models.Quote
	candles   map[string][]models.Candle
	err       error
	delay     map[string]time.Duration
	calls     int32
	intraday  int32
	mu        sync.Mutex
	requested []string
}

func newFakeProvider(name string) *fakeProvider {
	return &fakeProvider{
		name:    name,
		quotes:  map[string]models.Quote{},
		candles: map[string][]models.Candle{},
		delay:   map[string]time.Duration{},
	}
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) FetchQuote(ctx context.Context, symbol string) (models.Quote, error) {
	atomic.AddInt32(&p.calls, 1)
	p.mu.Lock()
	p.requested = append(p.requested, symbol)
	d := p.delay[symbol]
	p.mu.Unlock()
	if d > 0 {
		time.Sleep(d)
	}
	if p.err != nil {
		return models.Quote{}, p.err
	}
	q, ok := p.quotes[symbol]
	if !ok {
		return models.Quote{}, errors.New("unknown symbol")
	}
	q.Symbol = symbol
	q.Vendor = p.name
	return q, nil
}

func (p *fakeProvider) FetchIntraday(ctx context.Context, symbol string) (models.Intraday, error) {
	atomic.AddInt32(&p.intraday, 1)
	if p.err != nil {
		return models.Intraday{}, p.err
	}
	return models.Intraday{Symbol: symbol, Candles: p.candles[symbol], Vendor: p.name}, nil
}

func (p *fakeProvider) Calls() int { return int(atomic.LoadInt32(&p.calls)) }

// quoteOnlyProvider has no FetchIntraday.
type quoteOnlyProvider struct{ inner *fakeProvider }

func (p quoteOnlyProvider) Name() string { return p.inner.Name() }
func (p quoteOnlyProvider) FetchQuote(ctx context.Context, s string) (models.Quote, error) {
	return p.inner.FetchQuote(ctx, s)
}

func newMemoryCache(clock *fakeClock) (*repository.QuoteCache, *pkgcache.MemoryCache) {
	mc := pkgcache.NewMemoryCache(pkgcache.WithMemoryCleanup(0), pkgcache.WithMemoryClock(clock.Now))
	return repository.NewQuoteCache(mc), mc
}

// brokenCache fails every operation.
type brokenCache struct{ gets, sets int32 }

func (b *brokenCache) Get(context.Context, string, interface{}) (bool, error) {
	atomic.AddInt32(&b.gets, 1)
	return false, errors.New("redis: connection refused")
}

func (b *brokenCache) Set(context.Context, string, interface{}, time.Duration) error {
	atomic.AddInt32(&b.sets, 1)
	return errors.New("redis: connection refused")
}

type fakeArchive struct {
	mu     sync.Mutex
	quotes []models.Quote
	err    error
}

func (a *fakeArchive) Append(_ context.Context, q models.Quote) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.quotes = append(a.quotes, q)
	return nil
}

func (a *fakeArchive) Recent(_ context.Context, symbol string, limit int) ([]models.Quote, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []models.Quote
	for i := len(a.quotes) - 1; i >= 0 && len(out) < limit; i-- {
		if a.quotes[i].Symbol == symbol {
			out = append(out, a.quotes[i])
		}
	}
	return out, nil
}

type countingMetrics struct {
	mu        sync.Mutex
	hits      map[string]int
	misses    map[string]int
	fallbacks map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{hits: map[string]int{}, misses: map[string]int{}, fallbacks: map[string]int{}}
}

func (m *countingMetrics) RecordCacheHit(kind string) {
	m.mu.Lock()
	m.hits[kind]++
	m.mu.Unlock()
}

func (m *countingMetrics) RecordCacheMiss(kind string) {
	m.mu.Lock()
	m.misses[kind]++
	m.mu.Unlock()
}

func (m *countingMetrics) RecordProviderResult(string, string, bool) {}

func (m *countingMetrics) RecordFallback(kind string) {
	m.mu.Lock()
	m.fallbacks[kind]++
	m.mu.Unlock()
}

func (m *countingMetrics) RecordLatency(string, float64) {}

type fakePortfolio struct {
	holdings map[string][]models.Holding
	err      error
	calls    int32
}

func (p *fakePortfolio) Holdings(_ context.Context, userID string) ([]models.Holding, error) {
	atomic.AddInt32(&p.calls, 1)
	if p.err != nil {
		return nil, p.err
	}
	return p.holdings[userID], nil
}

// memSignalRepo keeps signals in insertion order; failAssets rejects inserts for those symbols.
type memSignalRepo struct {
	mu         sync.Mutex
	rows       []models.AlphaSignal
	failAssets map[string]bool
	recentErr  error
	inserts    int
}

func newMemSignalRepo() *memSignalRepo {
	return &memSignalRepo{failAssets: map[string]bool{}}
}

func (r *memSignalRepo) RecentByUser(_ context.Context, userID string, since time.Time) ([]models.AlphaSignal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recentErr != nil {
		return nil, r.recentErr
	}
	var out []models.AlphaSignal
	for i := len(r.rows) - 1; i >= 0; i-- {
		s := r.rows[i]
		if s.UserID == userID && !s.CreatedAt.Before(since) {
			s.Attributions = nil
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memSignalRepo) Insert(_ context.Context, s *models.AlphaSignal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserts++
	if r.failAssets[s.Asset] {
		return errors.New("pq: insert failed")
	}
	r.rows = append(r.rows, *s)
	return nil
}

func (r *memSignalRepo) AttributionsBySignal(_ context.Context, userID, signalID string) ([]models.Attribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.rows {
		if s.ID == signalID && s.UserID == userID {
			return s.Attributions, nil
		}
	}
	return []models.Attribution{}, nil
}

func (r *memSignalRepo) AttributionsBySignals(_ context.Context, ids []string) (map[string][]models.Attribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := map[string][]models.Attribution{}
	for _, s := range r.rows {
		if want[s.ID] && len(s.Attributions) > 0 {
			out[s.ID] = s.Attributions
		}
	}
	return out, nil
}

func (r *memSignalRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type fakeNews struct {
	articles []models.NewsArticle
	err      error
	calls    int32
	symbols  []string
}

func (n *fakeNews) Search(_ context.Context, symbols []string) ([]models.NewsArticle, error) {
	atomic.AddInt32(&n.calls, 1)
	n.symbols = symbols
	if n.err != nil {
		return nil, n.err
	}
	return n.articles, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []models.AlphaSignal
	err       error
}

func (p *fakePublisher) PublishSignals(_ context.Context, _ string, signals []models.AlphaSignal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, signals...)
	return nil
}
