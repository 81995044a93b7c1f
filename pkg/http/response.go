package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const genericFailure = "Something went wrong"

// DataResponse writes the envelope with statusCode as both HTTP status and body status.
func DataResponse(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(statusCode, APIResponse{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

// ListResponse writes rows with their count; a nil slice is rendered as [].
func ListResponse[T any](c echo.Context, rows []T) error {
	if rows == nil {
		rows = []T{}
	}
	return SuccessResponse(c, ListData[T]{Rows: rows, Total: len(rows)})
}

func NoContentResponse(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// BadRequestResponse writes validation details produced by ReadAndValidateRequest.
func BadRequestResponse(c echo.Context, details interface{}) error {
	return DataResponse(c, http.StatusBadRequest, details)
}

// InternalServerErrorResponse hides the cause; callers log it first.
func InternalServerErrorResponse(c echo.Context) error {
	return DataResponse(c, http.StatusInternalServerError, genericFailure)
}

// AppErrorResponse renders err when it is, or maps to, an *AppError. Anything else is a
// generic 500.
func AppErrorResponse(c echo.Context, err error, mappings ...ErrorMapping) error {
	if appErr := MapError(err, mappings...); appErr != nil {
		return DataResponse(c, appErr.Status, []*AppError{appErr})
	}
	return InternalServerErrorResponse(c)
}
