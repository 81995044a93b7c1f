package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	applogger "BiasLens/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Recover turns a handler panic into a logged error and a generic 500 envelope.
// http.ErrAbortHandler is re-panicked so the server can drop the connection.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	if l == nil {
		l = applogger.Nop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				perr := panicError(r)
				if errors.Is(perr, http.ErrAbortHandler) {
					panic(r)
				}

				req := c.Request()
				l.Error("panic recovered",
					applogger.Error(perr),
					applogger.String("method", req.Method),
					applogger.String("route", c.Path()),
					applogger.String("stack", string(debug.Stack())),
				)
				if c.Response().Committed {
					return
				}
				err = c.JSON(http.StatusInternalServerError, map[string]interface{}{
					"status":  http.StatusInternalServerError,
					"message": http.StatusText(http.StatusInternalServerError),
				})
			}()
			return next(c)
		}
	}
}

func panicError(r interface{}) error {
	if e, ok := r.(error); ok {
		return e
	}
	return fmt.Errorf("panic: %v", r)
}
