package http

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes carried in the response envelope.
const (
	CodeBadRequest   = "ERR_BAD_REQUEST"
	CodeUnauthorized = "ERR_UNAUTHORIZED"
	CodeNotFound     = "ERR_NOT_FOUND"
	CodeRateLimited  = "ERR_RATE_LIMITED"
	CodeInternal     = "ERR_INTERNAL"
)

// AppError is an error the client is allowed to see, with the HTTP status it maps to.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	// Err is the internal cause; it is logged, never rendered.
	Err error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// WithError records the internal cause so errors.Is still sees it.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

func newStatusError(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, Status: status}
}

func NotFoundError(message string) *AppError {
	return newStatusError(http.StatusNotFound, CodeNotFound, message)
}

func BadRequestError(message string) *AppError {
	return newStatusError(http.StatusBadRequest, CodeBadRequest, message)
}

func BadRequestErrorf(format string, a ...interface{}) *AppError {
	return BadRequestError(fmt.Sprintf(format, a...))
}

func UnauthorizedError(message string) *AppError {
	return newStatusError(http.StatusUnauthorized, CodeUnauthorized, message)
}

func TooManyRequestsError(message string) *AppError {
	return newStatusError(http.StatusTooManyRequests, CodeRateLimited, message)
}

// ErrorMapping exposes a domain sentinel to clients under a fixed status and message.
type ErrorMapping struct {
	Target  error
	Status  int
	Code    string
	Message string
}

// MapError returns err as an *AppError: as-is when it already is one, through the first
// mapping whose Target matches (errors.Is), or nil when nothing applies.
func MapError(err error, mappings ...ErrorMapping) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	for _, m := range mappings {
		if errors.Is(err, m.Target) {
			return newStatusError(m.Status, m.Code, m.Message).WithError(err)
		}
	}
	return nil
}
