package models

// Requests for quote and signal HTTP endpoints.

type QuoteRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,max=15,symbol"`
}

type BatchQuoteRequest struct {
	Symbols []string `json:"symbols" validate:"required,min=1,max=50,dive,required,max=15,symbol"`
}

type QuoteHistoryRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,max=15,symbol"`
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}

type AttributionsRequest struct {
	SignalID string `param:"id" validate:"required,max=64"`
}

type StreamRequest struct {
	Symbols  string `query:"symbols" validate:"required"`
	Interval int    `query:"interval" validate:"gte=0,lte=3600"`
}
