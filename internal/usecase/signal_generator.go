package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"BiasLens/internal/domain/models"
	domrepo "BiasLens/internal/domain/repository"
	domsvc "BiasLens/internal/domain/service"
	applogger "BiasLens/pkg/logger"
	"BiasLens/pkg/util"

	"github.com/google/uuid"
)

const (
	directionThreshold = 0.4
	minConfidence      = 55.0
	maxConfidence      = 95.0
)

// QuoteBatchResolver resolves many symbols at once, preserving input order.
type QuoteBatchResolver interface {
	ResolveMany(ctx context.Context, symbols []string) []models.Quote
}

type GeneratorOption func(*SignalGenerator)

// WithCooldown sets how long a user's last generation is reused. Zero disables reuse.
func WithCooldown(d time.Duration) GeneratorOption {
	return func(g *SignalGenerator) { g.cooldown = d }
}

func WithMaxSymbols(n int) GeneratorOption {
	return func(g *SignalGenerator) {
		if n > 0 {
			g.maxSymbols = n
		}
	}
}

func WithMaxAttributions(n int) GeneratorOption {
	return func(g *SignalGenerator) {
		if n > 0 {
			g.maxAttributions = n
		}
	}
}

func WithPublisher(p domrepo.SignalPublisher) GeneratorOption {
	return func(g *SignalGenerator) { g.publisher = p }
}

func WithGeneratorClock(now func() time.Time) GeneratorOption {
	return func(g *SignalGenerator) { g.now = now }
}

func WithGeneratorLogger(l *applogger.Logger) GeneratorOption {
	return func(g *SignalGenerator) {
		if l != nil {
			g.log = l
		}
	}
}

// SignalGenerator turns a user's holdings, their quotes and recent news into alpha signals.
type SignalGenerator struct {
	portfolios      domrepo.PortfolioRepository
	signals         domrepo.SignalRepository
	news            domsvc.NewsSearcher
	quotes          QuoteBatchResolver
	publisher       domrepo.SignalPublisher
	cooldown        time.Duration
	maxSymbols      int
	maxAttributions int
	now             func() time.Time
	newID           func() string
	log             *applogger.Logger
}

func NewSignalGenerator(
	portfolios domrepo.PortfolioRepository,
	signals domrepo.SignalRepository,
	news domsvc.NewsSearcher,
	quotes QuoteBatchResolver,
	opts ...GeneratorOption,
) *SignalGenerator {
	g := &SignalGenerator{
		portfolios:      portfolios,
		signals:         signals,
		news:            news,
		quotes:          quotes,
		cooldown:        5 * time.Minute,
		maxSymbols:      5,
		maxAttributions: 5,
		now:             time.Now,
		newID:           uuid.NewString,
		log:             applogger.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns the user's current signal set. Signals created within the cooldown are
// reused as-is. Repository failures are returned; provider and news failures only degrade
// the result to demo provenance.
func (g *SignalGenerator) Generate(ctx context.Context, userID string) (*models.SignalSet, error) {
	now := g.now().UTC()

	if g.cooldown > 0 {
		recent, err := g.signals.RecentByUser(ctx, userID, now.Add(-g.cooldown))
		if err != nil {
			return nil, fmt.Errorf("load recent signals: %w", err)
		}
		if len(recent) > 0 {
			return g.reuse(ctx, userID, recent), nil
		}
	}

	holdings, err := g.portfolios.Holdings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load holdings: %w", err)
	}
	symbols := holdingSymbols(holdings, g.maxSymbols)
	if len(symbols) == 0 {
		return &models.SignalSet{
			Signals:     []models.AlphaSignal{},
			Source:      models.SourceLive,
			Provider:    string(models.ProviderNone),
			GeneratedAt: now,
		}, nil
	}

	quotes, articles, newsErr := g.gather(ctx, symbols)

	set := &models.SignalSet{
		Signals:     make([]models.AlphaSignal, 0, len(symbols)),
		Source:      models.SourceLive,
		GeneratedAt: now,
	}
	var reasons []string
	if newsErr != nil {
		g.log.Warn("news search failed, continuing without articles",
			applogger.String("user_id", userID), applogger.Error(newsErr))
		set.Source = models.SourceDemo
		reasons = append(reasons, fmt.Sprintf("news search failed: %v", newsErr))
	}
	var demoSymbols []string
	for _, q := range quotes {
		if !q.IsLive() {
			demoSymbols = append(demoSymbols, q.Symbol)
		}
	}
	if len(demoSymbols) > 0 {
		set.Source = models.SourceDemo
		reasons = append(reasons, "no live quote for "+strings.Join(demoSymbols, ", "))
	}
	set.Reason = strings.Join(reasons, "; ")
	set.Provider = joinProviders(quotes)

	for _, q := range quotes {
		s := g.buildSignal(userID, q, articles, now)
		if err := g.signals.Insert(ctx, &s); err != nil {
			g.log.Warn("signal insert failed, dropping",
				applogger.String("user_id", userID),
				applogger.String("asset", s.Asset),
				applogger.Error(err),
			)
			continue
		}
		set.Signals = append(set.Signals, s)
	}

	if g.publisher != nil && len(set.Signals) > 0 {
		if err := g.publisher.PublishSignals(ctx, userID, set.Signals); err != nil {
			g.log.Warn("signal publish failed", applogger.String("user_id", userID), applogger.Error(err))
		}
	}

	g.log.Info("signals generated",
		applogger.String("user_id", userID),
		applogger.Int("count", len(set.Signals)),
		applogger.String("source", string(set.Source)),
		applogger.String("provider", set.Provider),
	)
	return set, nil
}

// gather runs the news search and the quote batch side by side.
func (g *SignalGenerator) gather(ctx context.Context, symbols []string) ([]models.Quote, []models.NewsArticle, error) {
	type item struct {
		name     string
		articles []models.NewsArticle
		quotes   []models.Quote
		err      error
	}
	ch := make(chan item, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if g.news == nil {
			ch <- item{name: "news", err: domsvc.ErrProviderNotConfigured}
			return
		}
		a, err := g.news.Search(ctx, symbols)
		ch <- item{name: "news", articles: a, err: err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		ch <- item{name: "quotes", quotes: g.quotes.ResolveMany(ctx, symbols)}
	}()

	go func() { wg.Wait(); close(ch) }()

	var (
		articles []models.NewsArticle
		newsErr  error
		quotes   []models.Quote
	)
	for it := range ch {
		switch it.name {
		case "news":
			articles, newsErr = it.articles, it.err
		case "quotes":
			quotes = it.quotes
		}
	}
	return quotes, articles, newsErr
}

func (g *SignalGenerator) buildSignal(userID string, q models.Quote, articles []models.NewsArticle, now time.Time) models.AlphaSignal {
	matches := matchArticles(q.Symbol, articles)
	id := g.newID()

	attributions := make([]models.Attribution, 0, g.maxAttributions)
	for _, a := range matches {
		if len(attributions) == g.maxAttributions {
			break
		}
		attributions = append(attributions, models.Attribution{
			ID:          g.newID(),
			SignalID:    id,
			Title:       a.Title,
			URL:         a.URL,
			SourceName:  a.SourceName,
			PublishedAt: a.PublishedAt,
		})
	}

	category := models.CategoryPriceAction
	if len(matches) > 0 {
		category = models.CategoryNewsMomentum
	}

	return models.AlphaSignal{
		ID:           id,
		UserID:       userID,
		Asset:        q.Symbol,
		Direction:    classifyDirection(q.ChangePercent),
		Confidence:   confidenceScore(q.ChangePercent, len(matches)),
		TimeHorizon:  timeHorizon(q.ChangePercent, len(matches)),
		Insight:      insight(q, len(matches)),
		Sources:      len(matches),
		Category:     category,
		Source:       q.Source,
		Provider:     q.Provider,
		CreatedAt:    now,
		Attributions: attributions,
	}
}

// reuse serves a generation still inside the cooldown window.
func (g *SignalGenerator) reuse(ctx context.Context, userID string, recent []models.AlphaSignal) *models.SignalSet {
	ids := make([]string, 0, len(recent))
	for _, s := range recent {
		ids = append(ids, s.ID)
	}
	byID, err := g.signals.AttributionsBySignals(ctx, ids)
	if err != nil {
		g.log.Warn("load attributions for reused signals failed",
			applogger.String("user_id", userID), applogger.Error(err))
	}

	set := &models.SignalSet{
		Signals:     make([]models.AlphaSignal, 0, len(recent)),
		Source:      models.SourceLive,
		GeneratedAt: recent[0].CreatedAt,
		Reused:      true,
	}
	quotes := make([]models.Quote, 0, len(recent))
	for _, s := range recent {
		s.Attributions = byID[s.ID]
		if s.Attributions == nil {
			s.Attributions = []models.Attribution{}
		}
		if s.Source == models.SourceDemo {
			set.Source = models.SourceDemo
		}
		if s.CreatedAt.After(set.GeneratedAt) {
			set.GeneratedAt = s.CreatedAt
		}
		quotes = append(quotes, models.Quote{Provider: s.Provider})
		set.Signals = append(set.Signals, s)
	}
	set.Provider = joinProviders(quotes)
	if set.Source == models.SourceDemo {
		set.Reason = "reused signals include demo data"
	}

	g.log.Debug("signals reused within cooldown",
		applogger.String("user_id", userID), applogger.Int("count", len(set.Signals)))
	return set
}

func holdingSymbols(holdings []models.Holding, max int) []string {
	seen := make(map[string]struct{}, len(holdings))
	out := make([]string, 0, max)
	for _, h := range holdings {
		if len(out) == max {
			break
		}
		sym := util.NormalizeSymbol(h.Symbol)
		if sym == "" {
			continue
		}
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out
}

// matchArticles keeps articles whose title or description contains the ticker verbatim.
// Short tickers that are also common words will over-match.
func matchArticles(symbol string, articles []models.NewsArticle) []models.NewsArticle {
	var out []models.NewsArticle
	for _, a := range articles {
		if strings.Contains(a.Title, symbol) || strings.Contains(a.Description, symbol) {
			out = append(out, a)
		}
	}
	return out
}

func classifyDirection(changePercent float64) models.Direction {
	switch {
	case changePercent > directionThreshold:
		return models.DirectionBullish
	case changePercent < -directionThreshold:
		return models.DirectionBearish
	default:
		return models.DirectionNeutral
	}
}

// confidenceScore grows with move size and news coverage, clamped to [55, 95].
func confidenceScore(changePercent float64, matches int) float64 {
	if matches > 5 {
		matches = 5
	}
	c := minConfidence + math.Abs(changePercent)*8 + float64(matches)*3
	c = math.Max(minConfidence, math.Min(maxConfidence, c))
	return math.Round(c*10) / 10
}

func timeHorizon(changePercent float64, matches int) string {
	switch {
	case math.Abs(changePercent) >= 2:
		return "1-3 days"
	case matches > 0:
		return "1-2 weeks"
	default:
		return "2-4 weeks"
	}
}

func insight(q models.Quote, matches int) string {
	if !q.IsLive() {
		if matches == 0 {
			return fmt.Sprintf("No live quote or recent coverage for %s.", q.Symbol)
		}
		return fmt.Sprintf("No live quote for %s; %d recent article(s) mention it.", q.Symbol, matches)
	}
	move := "flat"
	switch {
	case q.ChangePercent > 0:
		move = fmt.Sprintf("up %.2f%%", q.ChangePercent)
	case q.ChangePercent < 0:
		move = fmt.Sprintf("down %.2f%%", -q.ChangePercent)
	}
	if matches == 0 {
		return fmt.Sprintf("%s is %s today with no recent news coverage.", q.Symbol, move)
	}
	return fmt.Sprintf("%s is %s today; %d recent article(s) mention it.", q.Symbol, move, matches)
}

// joinProviders lists distinct providers in first-seen order, e.g. "primary+secondary".
func joinProviders(quotes []models.Quote) string {
	seen := make(map[models.ProviderID]struct{}, 3)
	var parts []string
	for _, q := range quotes {
		if q.Provider == "" {
			continue
		}
		if _, ok := seen[q.Provider]; ok {
			continue
		}
		seen[q.Provider] = struct{}{}
		parts = append(parts, string(q.Provider))
	}
	if len(parts) == 0 {
		return string(models.ProviderNone)
	}
	return strings.Join(parts, "+")
}
