package alphavantage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"BiasLens/internal/domain/models"
	dservice "BiasLens/internal/domain/service"
	xhttp "BiasLens/pkg/http"
	"BiasLens/pkg/util"

	"github.com/tidwall/gjson"
)

const (
	vendor         = "alphavantage"
	defaultBaseURL = "https://www.alphavantage.co"
	seriesKey      = "Time Series (5min)"
)

// Option configures Client.
type Option func(*Client)

// Client is the secondary quote provider backed by Alpha Vantage.
type Client struct {
	apiKey  string
	baseURL string
	id      models.ProviderID
	timeout time.Duration
	http    *xhttp.Client
	now     func() time.Time
}

// New creates an Alpha Vantage adapter. An empty apiKey fails fast on every call.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: defaultBaseURL,
		id:      models.ProviderSecondary,
		timeout: 8 * time.Second,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = xhttp.NewClient(xhttp.WithTimeout(c.timeout))
	}
	return c
}

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithHTTPClient(hc *xhttp.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithID(id models.ProviderID) Option {
	return func(c *Client) { c.id = id }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func (c *Client) Name() string { return vendor }

// FetchQuote calls GLOBAL_QUOTE. Numbers arrive as strings under "NN. name" keys.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (models.Quote, error) {
	if c.apiKey == "" {
		return models.Quote{}, fmt.Errorf("%s: %w", vendor, dservice.ErrProviderNotConfigured)
	}

	body, err := c.query(ctx, map[string][]string{
		"function": {"GLOBAL_QUOTE"},
		"symbol":   {symbol},
	})
	if err != nil {
		return models.Quote{}, err
	}

	gq := body.Get("Global Quote")
	field := func(key string) gjson.Result { return gq.Get(escape(key)) }

	price := util.ParseFloatDefault(field("05. price").String(), 0)
	if price == 0 {
		return models.Quote{}, fmt.Errorf("%s quote %s: %w", vendor, symbol, dservice.ErrNoData)
	}

	q := models.Quote{
		Symbol:        symbol,
		Price:         price,
		Change:        util.ParseFloatDefault(field("09. change").String(), 0),
		ChangePercent: util.ParseFloatDefault(field("10. change percent").String(), 0),
		Source:        models.SourceLive,
		Provider:      c.id,
		Vendor:        vendor,
		AsOf:          c.now().UTC(),
	}
	optional := map[string]**float64{
		"02. open":           &q.Open,
		"03. high":           &q.High,
		"04. low":            &q.Low,
		"06. volume":         &q.Volume,
		"08. previous close": &q.PrevClose,
	}
	for key, dst := range optional {
		if r := field(key); r.Exists() {
			if v := util.ParseFloatDefault(r.String(), 0); v != 0 {
				*dst = models.F64(v)
			}
		}
	}
	return q, nil
}

// FetchIntraday calls TIME_SERIES_INTRADAY at 5min. Bar timestamps are exchange-local
// wall clock in the zone named by the metadata.
func (c *Client) FetchIntraday(ctx context.Context, symbol string) (models.Intraday, error) {
	if c.apiKey == "" {
		return models.Intraday{}, fmt.Errorf("%s: %w", vendor, dservice.ErrProviderNotConfigured)
	}

	body, err := c.query(ctx, map[string][]string{
		"function":   {"TIME_SERIES_INTRADAY"},
		"symbol":     {symbol},
		"interval":   {models.IntradayInterval},
		"outputsize": {"compact"},
	})
	if err != nil {
		return models.Intraday{}, err
	}

	loc := time.UTC
	if tz := body.Get(`Meta Data.6\. Time Zone`).String(); tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}

	var candles []models.Candle
	body.Get(escape(seriesKey)).ForEach(func(key, bar gjson.Result) bool {
		ts, ok := util.ParseTime(key.String(), loc)
		if !ok {
			return true
		}
		candles = append(candles, models.Candle{
			Timestamp: ts.UTC(),
			Open:      util.ParseFloatDefault(bar.Get(escape("1. open")).String(), 0),
			High:      util.ParseFloatDefault(bar.Get(escape("2. high")).String(), 0),
			Low:       util.ParseFloatDefault(bar.Get(escape("3. low")).String(), 0),
			Close:     util.ParseFloatDefault(bar.Get(escape("4. close")).String(), 0),
			Volume:    util.ParseFloatDefault(bar.Get(escape("5. volume")).String(), 0),
		})
		return true
	})
	if len(candles) == 0 {
		return models.Intraday{}, fmt.Errorf("%s candles %s: %w", vendor, symbol, dservice.ErrNoData)
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Timestamp.Before(candles[j].Timestamp) })

	return models.Intraday{
		Symbol:   symbol,
		Interval: models.IntradayInterval,
		Candles:  candles,
		Source:   models.SourceLive,
		Provider: c.id,
		Vendor:   vendor,
		AsOf:     c.now().UTC(),
	}, nil
}

// query performs the request and rejects the 200-status error bodies Alpha Vantage
// uses for throttling and bad symbols.
func (c *Client) query(ctx context.Context, params map[string][]string) (gjson.Result, error) {
	params["apikey"] = []string{c.apiKey}

	var raw []byte
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + "/query",
		QueryParams: params,
	}, &raw)
	if err != nil {
		if errors.Is(err, xhttp.ErrUnexpectedStatus) {
			return gjson.Result{}, fmt.Errorf("%s: %w: %v", vendor, dservice.ErrUpstreamStatus, err)
		}
		return gjson.Result{}, fmt.Errorf("%s: %w", vendor, err)
	}
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, fmt.Errorf("%s: malformed payload: %w", vendor, dservice.ErrNoData)
	}

	body := gjson.ParseBytes(raw)
	for _, k := range []string{"Note", "Information", "Error Message"} {
		if msg := body.Get(escape(k)); msg.Exists() {
			return gjson.Result{}, fmt.Errorf("%s: %s: %w", vendor, msg.String(), dservice.ErrNoData)
		}
	}
	return body, nil
}

// escape makes a literal JSON key usable as a gjson path.
func escape(key string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return r.Replace(key)
}
