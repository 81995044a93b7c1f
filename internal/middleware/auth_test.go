package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"BiasLens/internal/domain/models"
	dservice "BiasLens/internal/domain/service"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenAuth map[string]string

func (t tokenAuth) Authenticate(_ context.Context, token string) (*models.User, error) {
	if id, ok := t[token]; ok {
		return &models.User{ID: id}, nil
	}
	return nil, dservice.ErrUnauthorized
}

func serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, *models.User) {
	t.Helper()
	e := echo.New()
	var seen *models.User
	e.GET("/p", func(c echo.Context) error {
		u, ok := UserFrom(c)
		require.True(t, ok)
		seen = u
		return c.NoContent(http.StatusOK)
	}, RequireUser(tokenAuth{"good": "user-1"}, nil))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, seen
}

func TestRequireUser(t *testing.T) {
	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/p", nil)
		req.Header.Set("Authorization", "bearer good")
		rec, u := serve(t, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-1", u.ID)
	})

	t.Run("missing token", func(t *testing.T) {
		rec, u := serve(t, httptest.NewRequest(http.MethodGet, "/p", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, u)
		assert.Contains(t, rec.Body.String(), "ERR_UNAUTHORIZED")
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/p", nil)
		req.Header.Set("Authorization", "Bearer bad")
		rec, _ := serve(t, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("query token only for websocket", func(t *testing.T) {
		rec, _ := serve(t, httptest.NewRequest(http.MethodGet, "/p?access_token=good", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		req := httptest.NewRequest(http.MethodGet, "/p?access_token=good", nil)
		req.Header.Set("Upgrade", "websocket")
		req.Header.Set("Connection", "Upgrade")
		rec, u := serve(t, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-1", u.ID)
	})
}
