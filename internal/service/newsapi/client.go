package newsapi

import (
	"context"
	"fmt"
	"strings"
	"time"

	"BiasLens/internal/domain/models"
	dservice "BiasLens/internal/domain/service"
	"BiasLens/pkg/util"

	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL  = "https://newsapi.org"
	defaultPageSize = 50
)

// Option configures Client.
type Option func(*Client)

// Client searches NewsAPI's /v2/everything endpoint.
type Client struct {
	apiKey   string
	pageSize int
	client   *resty.Client
}

// New creates a news searcher. An empty apiKey fails fast on every search.
func New(apiKey string, opts ...Option) *Client {
	rc := resty.New()
	rc.SetBaseURL(defaultBaseURL)
	rc.SetTimeout(8 * time.Second)

	c := &Client{
		apiKey:   strings.TrimSpace(apiKey),
		pageSize: defaultPageSize,
		client:   rc,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithBaseURL(u string) Option {
	return func(c *Client) { c.client.SetBaseURL(strings.TrimRight(u, "/")) }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.client.SetTimeout(d) }
}

func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// errorResponse is NewsAPI's error envelope, also present on 200s reporting "status":"error".
type errorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type everythingResponse struct {
	errorResponse
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// Search returns the newest articles mentioning any symbol ("AAPL OR MSFT").
func (c *Client) Search(ctx context.Context, symbols []string) ([]models.NewsArticle, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("newsapi: %w", dservice.ErrProviderNotConfigured)
	}
	if len(symbols) == 0 {
		return nil, nil
	}

	body := &everythingResponse{}
	apiErr := &errorResponse{}
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("X-Api-Key", c.apiKey).
		SetQueryParams(map[string]string{
			"q":        strings.Join(symbols, " OR "),
			"language": "en",
			"sortBy":   "publishedAt",
			"pageSize": fmt.Sprint(c.pageSize),
		}).
		SetResult(body).
		SetError(apiErr).
		ForceContentType("application/json").
		Get("/v2/everything")
	switch {
	case err != nil && resp != nil && resp.IsError():
		// Non-JSON error pages (gateway HTML) fail to decode; the status is what matters.
		return nil, fmt.Errorf("newsapi: status %d: %w", resp.StatusCode(), dservice.ErrUpstreamStatus)
	case err != nil:
		return nil, fmt.Errorf("newsapi: %w", err)
	case resp.IsError():
		return nil, fmt.Errorf("newsapi: status %d %s %s: %w", resp.StatusCode(), apiErr.Code, apiErr.Message, dservice.ErrUpstreamStatus)
	case body.Status != "ok":
		return nil, fmt.Errorf("newsapi: status %q %s %s: %w", body.Status, body.Code, body.Message, dservice.ErrUpstreamStatus)
	}

	out := make([]models.NewsArticle, 0, len(body.Articles))
	for _, a := range body.Articles {
		art := models.NewsArticle{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			SourceName:  a.Source.Name,
		}
		if ts, ok := util.ParseTime(a.PublishedAt, time.UTC); ok {
			art.PublishedAt = &ts
		}
		out = append(out, art)
	}
	return out, nil
}
