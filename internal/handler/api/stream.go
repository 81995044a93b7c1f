package api

import (
	"context"
	"net/http"
	"time"

	"BiasLens/internal/domain/models"
	"BiasLens/internal/service/metrics"
	xhttp "BiasLens/pkg/http"
	httpmw "BiasLens/pkg/http/middleware"
	applogger "BiasLens/pkg/logger"
	"BiasLens/pkg/util"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	// Pings must arrive well inside the peer's read deadline.
	streamPingPeriod = streamPongWait * 9 / 10
)

// StreamConfig bounds quote streams.
type StreamConfig struct {
	DefaultInterval time.Duration
	MinInterval     time.Duration
	MaxSymbols      int
	AllowedOrigins  []string
}

// StreamMessage is one push on a quote stream.
type StreamMessage struct {
	Type   string         `json:"type"`
	Quotes []models.Quote `json:"quotes"`
	At     time.Time      `json:"at"`
}

// StreamHandler pushes resolved quote batches over a websocket at a fixed interval.
// Each tick goes through the resolver, so streams share the quote cache with REST callers.
type StreamHandler struct {
	quotes   QuoteService
	cfg      StreamConfig
	upgrader websocket.Upgrader
	metrics  *metrics.APIMetrics
	l        *applogger.Logger
}

func NewStreamHandler(q QuoteService, cfg StreamConfig, m *metrics.APIMetrics, l *applogger.Logger) *StreamHandler {
	if l == nil {
		l = applogger.Nop()
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 5 * time.Second
	}
	if cfg.DefaultInterval < cfg.MinInterval {
		cfg.DefaultInterval = cfg.MinInterval
	}
	if cfg.MaxSymbols <= 0 {
		cfg.MaxSymbols = 20
	}
	h := &StreamHandler{quotes: q, cfg: cfg, metrics: m, l: l}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *StreamHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || httpmw.OriginAllowed(h.cfg.AllowedOrigins, origin)
}

// interval converts requested seconds, raising them to MinInterval; zero means the default.
func (h *StreamHandler) interval(seconds int) time.Duration {
	if seconds <= 0 {
		return h.cfg.DefaultInterval
	}
	d := time.Duration(seconds) * time.Second
	if d < h.cfg.MinInterval {
		return h.cfg.MinInterval
	}
	return d
}

func (h *StreamHandler) Stream(c echo.Context) error {
	req := &models.StreamRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	symbols := util.SplitSymbols(req.Symbols)
	if len(symbols) == 0 {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("symbols is required"))
	}
	if len(symbols) > h.cfg.MaxSymbols {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("at most %d symbols per stream", h.cfg.MaxSymbols))
	}
	for _, s := range symbols {
		if !symbolPattern.MatchString(s) {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("invalid symbol %q", s))
		}
	}
	every := h.interval(req.Interval)

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.l.Warn("stream upgrade failed", applogger.Error(err))
		return nil
	}
	defer conn.Close()

	h.metrics.Streams.Inc()
	defer h.metrics.Streams.Dec()
	h.l.Debug("stream opened", applogger.Strings("symbols", symbols), applogger.Duration("interval_ms", every))

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()
	go h.readUntilClosed(conn, cancel)

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	pinger := time.NewTicker(streamPingPeriod)
	defer pinger.Stop()

	if err := h.push(ctx, conn, symbols); err != nil {
		h.l.Debug("stream closed", applogger.Error(err))
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(streamWriteWait))
			return nil
		case <-pinger.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				h.l.Debug("stream ping failed", applogger.Error(err))
				return nil
			}
		case <-ticker.C:
			if err := h.push(ctx, conn, symbols); err != nil {
				h.l.Debug("stream closed", applogger.Error(err))
				return nil
			}
		}
	}
}

func (h *StreamHandler) push(ctx context.Context, conn *websocket.Conn, symbols []string) error {
	quotes := h.quotes.ResolveMany(ctx, symbols)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	return conn.WriteJSON(StreamMessage{Type: "quotes", Quotes: quotes, At: time.Now().UTC()})
}

// readUntilClosed drains client frames so control messages are processed, and cancels
// the stream once the peer goes away.
func (h *StreamHandler) readUntilClosed(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	}
}
