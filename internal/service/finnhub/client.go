package finnhub

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"BiasLens/internal/domain/models"
	dservice "BiasLens/internal/domain/service"
	xhttp "BiasLens/pkg/http"
)

const (
	vendor         = "finnhub"
	defaultBaseURL = "https://finnhub.io/api/v1"
)

// Option configures Client.
type Option func(*Client)

// Client is the primary quote provider backed by the Finnhub REST API.
type Client struct {
	apiKey   string
	baseURL  string
	id       models.ProviderID
	timeout  time.Duration
	lookback time.Duration
	http     *xhttp.Client
	now      func() time.Time
}

// New creates a Finnhub adapter. An empty apiKey yields a client whose calls fail
// with ErrProviderNotConfigured without touching the network.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:   strings.TrimSpace(apiKey),
		baseURL:  defaultBaseURL,
		id:       models.ProviderPrimary,
		timeout:  8 * time.Second,
		lookback: 24 * time.Hour,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = xhttp.NewClient(xhttp.WithTimeout(c.timeout))
	}
	return c
}

// WithBaseURL points the client at another host, e.g. an httptest server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient overrides the transport client.
func WithHTTPClient(hc *xhttp.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithID sets the provenance id stamped on results.
func WithID(id models.ProviderID) Option {
	return func(c *Client) { c.id = id }
}

// WithCandleLookback sets how far back intraday candles are requested.
func WithCandleLookback(d time.Duration) Option {
	return func(c *Client) { c.lookback = d }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func (c *Client) Name() string { return vendor }

type quoteResponse struct {
	C  float64 `json:"c"`
	D  float64 `json:"d"`
	DP float64 `json:"dp"`
	H  float64 `json:"h"`
	L  float64 `json:"l"`
	O  float64 `json:"o"`
	PC float64 `json:"pc"`
	T  int64   `json:"t"`
}

// FetchQuote calls /quote. Finnhub answers unknown symbols with an all-zero body,
// so a zero current price is reported as ErrNoData.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (models.Quote, error) {
	if c.apiKey == "" {
		return models.Quote{}, fmt.Errorf("%s: %w", vendor, dservice.ErrProviderNotConfigured)
	}

	var r quoteResponse
	if err := c.get(ctx, "/quote", map[string][]string{"symbol": {symbol}}, &r); err != nil {
		return models.Quote{}, err
	}
	if r.C == 0 {
		return models.Quote{}, fmt.Errorf("%s quote %s: %w", vendor, symbol, dservice.ErrNoData)
	}

	q := models.Quote{
		Symbol:        symbol,
		Price:         r.C,
		Change:        r.D,
		ChangePercent: r.DP,
		Source:        models.SourceLive,
		Provider:      c.id,
		Vendor:        vendor,
		AsOf:          c.now().UTC(),
	}
	if r.O != 0 {
		q.Open = models.F64(r.O)
	}
	if r.H != 0 {
		q.High = models.F64(r.H)
	}
	if r.L != 0 {
		q.Low = models.F64(r.L)
	}
	if r.PC != 0 {
		q.PrevClose = models.F64(r.PC)
	}
	return q, nil
}

type candleResponse struct {
	S string    `json:"s"`
	T []int64   `json:"t"`
	O []float64 `json:"o"`
	H []float64 `json:"h"`
	L []float64 `json:"l"`
	C []float64 `json:"c"`
	V []float64 `json:"v"`
}

// FetchIntraday calls /stock/candle at 5-minute resolution over the lookback window.
func (c *Client) FetchIntraday(ctx context.Context, symbol string) (models.Intraday, error) {
	if c.apiKey == "" {
		return models.Intraday{}, fmt.Errorf("%s: %w", vendor, dservice.ErrProviderNotConfigured)
	}

	to := c.now().UTC()
	from := to.Add(-c.lookback)
	params := map[string][]string{
		"symbol":     {symbol},
		"resolution": {"5"},
		"from":       {strconv.FormatInt(from.Unix(), 10)},
		"to":         {strconv.FormatInt(to.Unix(), 10)},
	}

	var r candleResponse
	if err := c.get(ctx, "/stock/candle", params, &r); err != nil {
		return models.Intraday{}, err
	}
	if r.S != "ok" || len(r.T) == 0 {
		return models.Intraday{}, fmt.Errorf("%s candles %s (s=%q): %w", vendor, symbol, r.S, dservice.ErrNoData)
	}
	n := len(r.T)
	if len(r.O) != n || len(r.H) != n || len(r.L) != n || len(r.C) != n {
		return models.Intraday{}, fmt.Errorf("%s candles %s: ragged arrays: %w", vendor, symbol, dservice.ErrNoData)
	}

	candles := make([]models.Candle, 0, n)
	for i := 0; i < n; i++ {
		cd := models.Candle{
			Timestamp: time.Unix(r.T[i], 0).UTC(),
			Open:      r.O[i],
			High:      r.H[i],
			Low:       r.L[i],
			Close:     r.C[i],
		}
		if i < len(r.V) {
			cd.Volume = r.V[i]
		}
		candles = append(candles, cd)
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Timestamp.Before(candles[j].Timestamp) })

	return models.Intraday{
		Symbol:   symbol,
		Interval: models.IntradayInterval,
		Candles:  candles,
		Source:   models.SourceLive,
		Provider: c.id,
		Vendor:   vendor,
		AsOf:     to,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, params map[string][]string, dest interface{}) error {
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + path,
		Headers:     map[string]string{"X-Finnhub-Token": c.apiKey},
		QueryParams: params,
	}, dest)
	if err == nil {
		return nil
	}
	if errors.Is(err, xhttp.ErrUnexpectedStatus) {
		return fmt.Errorf("%s %s: %w: %v", vendor, path, dservice.ErrUpstreamStatus, err)
	}
	return fmt.Errorf("%s %s: %w", vendor, path, err)
}
