package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"BiasLens/internal/domain/models"
	domrepo "BiasLens/internal/domain/repository"
	"BiasLens/internal/middleware"
	icache "BiasLens/internal/service/cache"
	"BiasLens/internal/service/metrics"
	"BiasLens/internal/service/ratelimit"
	pkgcache "BiasLens/pkg/cache"
	xhttp "BiasLens/pkg/http"
	applogger "BiasLens/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// SignalService generates or reuses a user's signal set.
type SignalService interface {
	Generate(ctx context.Context, userID string) (*models.SignalSet, error)
}

type SignalsHandler struct {
	gen     SignalService
	repo    domrepo.SignalRepository
	cache   icache.BytesCache
	ttl     time.Duration
	rl      *ratelimit.Limiter
	metrics *metrics.APIMetrics
	l       *applogger.Logger
}

func NewSignalsHandler(
	gen SignalService,
	repo domrepo.SignalRepository,
	cache icache.BytesCache,
	ttl time.Duration,
	rl *ratelimit.Limiter,
	m *metrics.APIMetrics,
	l *applogger.Logger,
) *SignalsHandler {
	if l == nil {
		l = applogger.Nop()
	}
	return &SignalsHandler{gen: gen, repo: repo, cache: cache, ttl: ttl, rl: rl, metrics: m, l: l}
}

var portfolioMissing = xhttp.ErrorMapping{
	Target:  domrepo.ErrPortfolioNotFound,
	Status:  http.StatusNotFound,
	Code:    xhttp.CodeNotFound,
	Message: "portfolio not found",
}

// SignalsCachePrefix scopes every cached response of one user.
func SignalsCachePrefix(userID string) string {
	return pkgcache.GenerateKey("signals", userID) + pkgcache.KeySeparator
}

// SignalsCacheKey is the transport cache key of a user's latest signal response.
func SignalsCacheKey(userID string) string { return SignalsCachePrefix(userID) + "latest" }

// Signals serves the caller's signal set from the response cache or the generator.
// The limiter only guards generation; cached reads are free.
func (h *SignalsHandler) Signals(c echo.Context) error {
	const endpoint = "signals"
	defer h.metrics.Observe(endpoint, time.Now())

	user, ok := middleware.UserFrom(c)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.UnauthorizedError("authentication required"))
	}
	ctx := c.Request().Context()
	key := SignalsCacheKey(user.ID)

	if h.cache != nil {
		b, hit, err := h.cache.GetBytes(ctx, key)
		switch {
		case err != nil:
			h.l.Warn("signals cache_get_error", applogger.String("key", key), applogger.Error(err))
		case hit:
			h.metrics.CacheHits.WithLabelValues(endpoint).Inc()
			h.l.Debug("signals cache_hit", applogger.String("key", key))
			return xhttp.SuccessResponse(c, json.RawMessage(b))
		}
	}

	if h.rl != nil && !h.rl.Allow(key) {
		h.metrics.RateLimits.WithLabelValues(endpoint).Inc()
		h.l.Warn("signals rate_limited", applogger.String("user_id", user.ID))
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many signal requests, retry shortly"))
	}

	set, err := h.gen.Generate(ctx, user.ID)
	if err != nil {
		if appErr := xhttp.MapError(err, portfolioMissing); appErr != nil {
			return xhttp.AppErrorResponse(c, appErr)
		}
		h.metrics.Errors.WithLabelValues(endpoint).Inc()
		h.l.Error("signals generation failed", applogger.String("user_id", user.ID), applogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}

	b, err := json.Marshal(set)
	if err != nil {
		h.l.Error("signals marshal_error", applogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	if h.cache != nil {
		if err := h.cache.SetBytes(ctx, key, b, h.ttl); err != nil {
			h.l.Warn("signals cache_set_error", applogger.String("key", key), applogger.Error(err))
		}
	}
	return xhttp.SuccessResponse(c, json.RawMessage(b))
}

// ClearCache drops every cached signal response of the caller. Persisted signals and
// the generation cooldown are untouched.
func (h *SignalsHandler) ClearCache(c echo.Context) error {
	user, ok := middleware.UserFrom(c)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.UnauthorizedError("authentication required"))
	}
	if h.cache != nil {
		if err := h.cache.DeletePrefix(c.Request().Context(), SignalsCachePrefix(user.ID)); err != nil {
			h.l.Error("signals cache clear failed", applogger.String("user_id", user.ID), applogger.Error(err))
			return xhttp.InternalServerErrorResponse(c)
		}
	}
	return xhttp.NoContentResponse(c)
}

// Attributions lists the evidence stored for one of the caller's signals.
func (h *SignalsHandler) Attributions(c echo.Context) error {
	const endpoint = "attributions"
	defer h.metrics.Observe(endpoint, time.Now())

	user, ok := middleware.UserFrom(c)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.UnauthorizedError("authentication required"))
	}
	req := &models.AttributionsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	// Signal ids are UUIDs; anything else cannot have persisted attributions.
	if _, err := uuid.Parse(req.SignalID); err != nil {
		return xhttp.SuccessResponse(c, []models.Attribution{})
	}
	rows, err := h.repo.AttributionsBySignal(c.Request().Context(), user.ID, req.SignalID)
	if err != nil {
		h.metrics.Errors.WithLabelValues(endpoint).Inc()
		h.l.Error("attributions query failed", applogger.String("signal_id", req.SignalID), applogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	if rows == nil {
		rows = []models.Attribution{}
	}
	return xhttp.SuccessResponse(c, rows)
}
