package api

import (
	"net/http"

	dservice "BiasLens/internal/domain/service"
	"BiasLens/internal/middleware"
	applogger "BiasLens/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Router mounts every endpoint. /health is public; everything under /api needs a bearer token.
type Router struct {
	quotes  *QuoteHandler
	signals *SignalsHandler
	stream  *StreamHandler
	auth    dservice.Authenticator
	l       *applogger.Logger
}

func NewRouter(quotes *QuoteHandler, signals *SignalsHandler, stream *StreamHandler, auth dservice.Authenticator, l *applogger.Logger) *Router {
	return &Router{quotes: quotes, signals: signals, stream: stream, auth: auth, l: l}
}

func (r *Router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", Health)

	g := e.Group("/api", middleware.RequireUser(r.auth, r.l))
	g.GET("/quote", r.quotes.Quote)
	g.POST("/quotes", r.quotes.Quotes)
	g.GET("/intraday", r.quotes.Intraday)
	g.GET("/quote/history", r.quotes.History)

	g.GET("/signals", r.signals.Signals)
	g.DELETE("/signals/cache", r.signals.ClearCache)
	g.GET("/signals/:id/attributions", r.signals.Attributions)

	g.GET("/stream", r.stream.Stream)
}

// Health is a static liveness probe.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
