package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSentinel = errors.New("thing missing")

func newTestServer(t *testing.T) *Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewServer(RouteFunc(func(e *echo.Echo) {
		e.GET("/ok", func(c echo.Context) error { return SuccessResponse(c, map[string]string{"hello": "world"}) })
		e.GET("/boom", func(c echo.Context) error { panic("kaboom") })
		e.GET("/denied", func(c echo.Context) error { return AppErrorResponse(c, UnauthorizedError("missing bearer token")) })
		e.GET("/opaque", func(c echo.Context) error { return AppErrorResponse(c, errors.New("db down")) })
		e.GET("/mapped", func(c echo.Context) error {
			return AppErrorResponse(c, fmt.Errorf("load: %w", errSentinel),
				ErrorMapping{Target: errSentinel, Status: http.StatusNotFound, Code: CodeNotFound, Message: "thing not found"})
		})
		e.GET("/list", func(c echo.Context) error { return ListResponse[string](c, nil) })
	}), WithMetrics(reg, "/metrics"))
}

func TestServer_EnvelopeCarriesStatus(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":200,"message":"OK","data":{"hello":"world"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/denied", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_UNAUTHORIZED")

	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/opaque", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")

	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mapped", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "thing not found")
	assert.NotContains(t, rec.Body.String(), "load:")

	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/list", nil))
	assert.JSONEq(t, `{"status":200,"message":"OK","data":{"rows":[],"total":0}}`, rec.Body.String())
}

func TestMapError(t *testing.T) {
	assert.Nil(t, MapError(nil))
	assert.Nil(t, MapError(errors.New("other"), ErrorMapping{Target: errSentinel}))

	own := NotFoundError("gone")
	assert.Same(t, own, MapError(fmt.Errorf("wrapped: %w", own)))

	mapped := MapError(errSentinel, ErrorMapping{Target: errSentinel, Status: http.StatusConflict, Code: "ERR_CONFLICT", Message: "conflict"})
	require.NotNil(t, mapped)
	assert.Equal(t, http.StatusConflict, mapped.Status)
	assert.ErrorIs(t, mapped, errSentinel)
}

func TestServer_RecoversPanics(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "kaboom")
}

func TestServer_MetricsEndpointUsesRouteTemplate(t *testing.T) {
	s := newTestServer(t)
	s.Echo().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `http_requests_total{method="GET",route="/ok",status="200"} 1`), body)
}

func TestClient_StatusErrorIsMatchable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		http.Error(w, "limit reached", http.StatusTooManyRequests)
	}))
	defer ts.Close()

	c := NewClient()
	var out map[string]interface{}
	err := c.SendAndParse(t.Context(), &RequestOptions{
		Method:      MethodGet,
		URL:         ts.URL,
		QueryParams: map[string][]string{"symbol": {"AAPL"}},
	}, &out)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedStatus))
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
	assert.Equal(t, "limit reached", se.Body)
}

type bindReq struct {
	Symbols []string `json:"symbols" validate:"required,min=1,max=3,dive,required,alphanum"`
	Limit   int      `json:"limit" default:"10" validate:"gte=1,lte=100"`
}

func TestReadAndValidateRequest(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"symbols":["AAPL"]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	var ok bindReq
	assert.Nil(t, ReadAndValidateRequest(e.NewContext(req, httptest.NewRecorder()), &ok))
	assert.Equal(t, 10, ok.Limit)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"symbols":[]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	var bad bindReq
	errs := ReadAndValidateRequest(e.NewContext(req, httptest.NewRecorder()), &bad)
	require.NotNil(t, errs)
	verrs, isList := errs.([]ValidationError)
	require.True(t, isList)
	assert.Equal(t, "symbols", verrs[0].Field)
	assert.Equal(t, "ERR_MIN", verrs[0].Code)
	assert.Equal(t, "symbols must contain at least 1 items", verrs[0].Message)
	assert.Equal(t, map[string]interface{}{"min": "1"}, verrs[0].Params)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"symbols":`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	errs = ReadAndValidateRequest(e.NewContext(req, httptest.NewRecorder()), &bindReq{})
	verrs, isList = errs.([]ValidationError)
	require.True(t, isList)
	assert.Equal(t, CodeBadRequest, verrs[0].Code)
}

func TestRegisterValidation_CustomMessage(t *testing.T) {
	require.NoError(t, RegisterValidation("even", func(fl validator.FieldLevel) bool {
		return fl.Field().Int()%2 == 0
	}, "%s must be even"))

	type evenReq struct {
		N int `json:"n" validate:"even"`
	}
	errs := ValidateStruct(t.Context(), &evenReq{N: 3})
	verrs, isList := errs.([]ValidationError)
	require.True(t, isList)
	assert.Equal(t, "n must be even", verrs[0].Message)
	assert.Equal(t, "ERR_EVEN", verrs[0].Code)
}
