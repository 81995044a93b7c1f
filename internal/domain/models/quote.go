package models

import "time"

// Source tells whether data came from a real upstream or was synthesized.
type Source string

const (
	SourceLive Source = "live"
	SourceDemo Source = "demo"
)

// ProviderID identifies which position in the fallback chain produced a value.
type ProviderID string

const (
	ProviderPrimary   ProviderID = "primary"
	ProviderSecondary ProviderID = "secondary"
	ProviderDemo      ProviderID = "demo"
	// ProviderNone marks aggregates that did not consult any provider.
	ProviderNone ProviderID = "none"
)

// IntradayInterval is the only candle granularity served.
const IntradayInterval = "5min"

// Quote is a normalized point-in-time price snapshot.
// A demo quote carries zero price and change and must never be treated as tradable.
type Quote struct {
	Symbol        string     `json:"symbol"`
	Price         float64    `json:"price"`
	Change        float64    `json:"change"`
	ChangePercent float64    `json:"changePercent"`
	Open          *float64   `json:"open,omitempty"`
	High          *float64   `json:"high,omitempty"`
	Low           *float64   `json:"low,omitempty"`
	PrevClose     *float64   `json:"previousClose,omitempty"`
	Volume        *float64   `json:"volume,omitempty"`
	Source        Source     `json:"source"`
	Provider      ProviderID `json:"provider"`
	// Vendor names the upstream service behind Provider, e.g. "finnhub".
	Vendor string    `json:"vendor,omitempty"`
	AsOf   time.Time `json:"asOf"`
	Reason string    `json:"reason,omitempty"`
}

// IsLive reports whether q came from a real provider.
func (q Quote) IsLive() bool { return q.Source == SourceLive }

// Candle is one OHLCV bar.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Intraday is a normalized candle series ordered by ascending timestamp.
// The demo series has no candles.
type Intraday struct {
	Symbol   string     `json:"symbol"`
	Interval string     `json:"interval"`
	Candles  []Candle   `json:"candles"`
	Source   Source     `json:"source"`
	Provider ProviderID `json:"provider"`
	Vendor   string     `json:"vendor,omitempty"`
	AsOf     time.Time  `json:"asOf"`
	Reason   string     `json:"reason,omitempty"`
}

// F64 returns a pointer to v, for the optional quote fields.
func F64(v float64) *float64 { return &v }
