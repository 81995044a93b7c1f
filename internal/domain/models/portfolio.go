package models

import "time"

// Holding is read-only portfolio input.
type Holding struct {
	Symbol    string  `json:"symbol"`
	Shares    float64 `json:"shares"`
	CostBasis float64 `json:"costBasis"`
}

// NewsArticle is one search hit from the news provider.
type NewsArticle struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	URL         string     `json:"url"`
	SourceName  string     `json:"sourceName"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

// User is the authenticated caller.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}
