package api

import (
	"context"
	"time"

	"BiasLens/internal/domain/models"
	domrepo "BiasLens/internal/domain/repository"
	"BiasLens/internal/service/metrics"
	xhttp "BiasLens/pkg/http"
	applogger "BiasLens/pkg/logger"
	"BiasLens/pkg/util"

	"github.com/labstack/echo/v4"
)

// QuoteService is the resolver surface the HTTP layer needs.
type QuoteService interface {
	Resolve(ctx context.Context, symbol string) models.Quote
	ResolveMany(ctx context.Context, symbols []string) []models.Quote
	ResolveIntraday(ctx context.Context, symbol string) models.Intraday
}

// QuoteHandler serves quote endpoints. Degraded results are still 200; provenance is in the body.
type QuoteHandler struct {
	quotes  QuoteService
	archive domrepo.QuoteArchive
	metrics *metrics.APIMetrics
	l       *applogger.Logger
}

func NewQuoteHandler(q QuoteService, archive domrepo.QuoteArchive, m *metrics.APIMetrics, l *applogger.Logger) *QuoteHandler {
	if l == nil {
		l = applogger.Nop()
	}
	return &QuoteHandler{quotes: q, archive: archive, metrics: m, l: l}
}

func (h *QuoteHandler) Quote(c echo.Context) error {
	defer h.metrics.Observe("quote", time.Now())
	req := &models.QuoteRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	q := h.quotes.Resolve(c.Request().Context(), req.Symbol)
	return xhttp.SuccessResponse(c, q)
}

// Quotes resolves a batch; the response array follows the request order.
func (h *QuoteHandler) Quotes(c echo.Context) error {
	defer h.metrics.Observe("quotes", time.Now())
	req := &models.BatchQuoteRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	out := h.quotes.ResolveMany(c.Request().Context(), req.Symbols)
	return xhttp.SuccessResponse(c, out)
}

func (h *QuoteHandler) Intraday(c echo.Context) error {
	defer h.metrics.Observe("intraday", time.Now())
	req := &models.QuoteRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.quotes.ResolveIntraday(c.Request().Context(), req.Symbol))
}

// History lists archived live snapshots, newest first.
func (h *QuoteHandler) History(c echo.Context) error {
	defer h.metrics.Observe("quote_history", time.Now())
	req := &models.QuoteHistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows, err := h.archive.Recent(c.Request().Context(), util.NormalizeSymbol(req.Symbol), req.Limit)
	if err != nil {
		h.metrics.Errors.WithLabelValues("quote_history").Inc()
		h.l.Error("quote history query failed", applogger.String("symbol", req.Symbol), applogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.ListResponse(c, rows)
}
