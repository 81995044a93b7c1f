package middleware

import (
	"strings"

	"BiasLens/internal/domain/models"
	dservice "BiasLens/internal/domain/service"
	xhttp "BiasLens/pkg/http"
	applogger "BiasLens/pkg/logger"

	"github.com/labstack/echo/v4"
)

const userContextKey = "auth.user"

// RequireUser rejects requests without a valid bearer token before the handler runs.
// WebSocket upgrades may pass the token as the access_token query parameter since
// browsers cannot set headers on them.
func RequireUser(auth dservice.Authenticator, l *applogger.Logger) echo.MiddlewareFunc {
	if l == nil {
		l = applogger.Nop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c)
			if token == "" {
				return xhttp.AppErrorResponse(c, xhttp.UnauthorizedError("missing bearer token"))
			}
			user, err := auth.Authenticate(c.Request().Context(), token)
			if err != nil || user == nil || user.ID == "" {
				l.Debug("authentication rejected", applogger.String("uri", c.Request().RequestURI), applogger.Error(err))
				return xhttp.AppErrorResponse(c, xhttp.UnauthorizedError("invalid or expired token").WithError(dservice.ErrUnauthorized))
			}
			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// UserFrom returns the user stored by RequireUser.
func UserFrom(c echo.Context) (*models.User, bool) {
	u, ok := c.Get(userContextKey).(*models.User)
	return u, ok && u != nil
}

// SetUser stores u on c; used by handler tests that bypass authentication.
func SetUser(c echo.Context, u *models.User) {
	c.Set(userContextKey, u)
}

func bearerToken(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if scheme, tok, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(tok)
	}
	if c.IsWebSocket() {
		return c.QueryParam("access_token")
	}
	return ""
}
