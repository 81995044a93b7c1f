package models

import "time"

type Direction string

const (
	DirectionBullish Direction = "bullish"
	DirectionBearish Direction = "bearish"
	DirectionNeutral Direction = "neutral"
)

const (
	CategoryNewsMomentum = "news_momentum"
	CategoryPriceAction  = "price_action"
)

// AlphaSignal is a derived directional call for one asset. Rows are append-only history.
type AlphaSignal struct {
	ID           string        `json:"id"`
	UserID       string        `json:"userId"`
	Asset        string        `json:"asset"`
	Direction    Direction     `json:"direction"`
	Confidence   float64       `json:"confidence"`
	TimeHorizon  string        `json:"timeHorizon"`
	Insight      string        `json:"insight"`
	Sources      int           `json:"sources"`
	Category     string        `json:"category"`
	Source       Source        `json:"source"`
	Provider     ProviderID    `json:"provider"`
	CreatedAt    time.Time     `json:"createdAt"`
	Attributions []Attribution `json:"attributions"`
}

// Attribution is a news article cited as evidence for a signal.
type Attribution struct {
	ID          string     `json:"id"`
	SignalID    string     `json:"signalId"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	SourceName  string     `json:"sourceName"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

// SignalSet is the result of one generation (or cooldown reuse) for a user.
// Provider joins the distinct quote providers with "+", e.g. "primary+secondary".
type SignalSet struct {
	Signals     []AlphaSignal `json:"signals"`
	Source      Source        `json:"source"`
	Provider    string        `json:"provider"`
	Reason      string        `json:"reason,omitempty"`
	GeneratedAt time.Time     `json:"generatedAt"`
	Reused      bool          `json:"reused"`
}
