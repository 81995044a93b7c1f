package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// CORSConfig holds CORS configuration. Origins may be exact, "*", or a subdomain
// wildcard such as "https://*.example.com".
type CORSConfig struct {
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
	MaxAge       time.Duration
}

// OriginAllowed reports whether origin matches any entry of allowed. An empty list allows all.
func OriginAllowed(allowed []string, origin string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		switch {
		case a == "*", a == origin:
			return true
		case strings.Contains(a, "://*."):
			scheme, host, _ := strings.Cut(a, "://*.")
			rest, ok := strings.CutPrefix(origin, scheme+"://")
			if ok && strings.HasSuffix(rest, "."+host) {
				return true
			}
		}
	}
	return false
}

// CORS answers preflights itself and decorates other responses for allowed origins.
// Requests from other origins pass through undecorated; the browser enforces the rest.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	methods := strings.Join(cfg.AllowMethods, ", ")
	headers := strings.Join(cfg.AllowHeaders, ", ")
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 10 * time.Minute
	}
	maxAge := strconv.Itoa(int(cfg.MaxAge.Seconds()))
	wildcardOnly := len(cfg.AllowOrigins) == 1 && cfg.AllowOrigins[0] == "*"

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			origin := req.Header.Get(echo.HeaderOrigin)
			h := c.Response().Header()
			h.Add(echo.HeaderVary, echo.HeaderOrigin)

			if origin == "" || !OriginAllowed(cfg.AllowOrigins, origin) {
				return next(c)
			}
			if wildcardOnly {
				h.Set(echo.HeaderAccessControlAllowOrigin, "*")
			} else {
				h.Set(echo.HeaderAccessControlAllowOrigin, origin)
			}

			preflight := req.Method == http.MethodOptions && req.Header.Get(echo.HeaderAccessControlRequestMethod) != ""
			if !preflight {
				return next(c)
			}
			if methods != "" {
				h.Set(echo.HeaderAccessControlAllowMethods, methods)
			}
			if headers != "" {
				h.Set(echo.HeaderAccessControlAllowHeaders, headers)
			}
			h.Set(echo.HeaderAccessControlMaxAge, maxAge)
			return c.NoContent(http.StatusNoContent)
		}
	}
}
