package http

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate *validator.Validate

// messageFunc renders one failed rule for clients.
type messageFunc func(fe validator.FieldError) string

var (
	messagesMu sync.RWMutex
	messages   = map[string]messageFunc{
		"required": func(fe validator.FieldError) string { return fe.Field() + " is required" },
		"min":      lengthOrBound("at least"),
		"max":      lengthOrBound("at most"),
		"gte":      bound("greater than or equal to"),
		"lte":      bound("less than or equal to"),
		"gt":       bound("greater than"),
		"lt":       bound("less than"),
		"uuid":     func(fe validator.FieldError) string { return fe.Field() + " must be a valid UUID" },
		"oneof": func(fe validator.FieldError) string {
			return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
		},
	}
	// paramKeys names the Params entry a rule's argument is reported under.
	paramKeys = map[string]string{"min": "min", "gte": "min", "gt": "min", "max": "max", "lte": "max", "lt": "max"}
)

func lengthOrBound(word string) messageFunc {
	return func(fe validator.FieldError) string {
		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("%s must be %s %s characters", fe.Field(), word, fe.Param())
		case reflect.Slice, reflect.Array, reflect.Map:
			return fmt.Sprintf("%s must contain %s %s items", fe.Field(), word, fe.Param())
		}
		return fmt.Sprintf("%s must be %s %s", fe.Field(), word, fe.Param())
	}
}

func bound(word string) messageFunc {
	return func(fe validator.FieldError) string {
		return fmt.Sprintf("%s must be %s %s", fe.Field(), word, fe.Param())
	}
}

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	// Report field names as clients send them.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query", "param"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
}

// ReadAndValidateRequest binds req from path, query and body, fills `default` tags, then
// validates. It returns []ValidationError for the client, or nil.
func ReadAndValidateRequest(c echo.Context, req interface{}) interface{} {
	if err := c.Bind(req); err != nil {
		return toValidationErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return toValidationErrors(err)
	}
	return ValidateStruct(c.Request().Context(), req)
}

// ValidateStruct applies validate tags, returning []ValidationError or nil.
func ValidateStruct(ctx context.Context, req interface{}) interface{} {
	if err := validate.StructCtx(ctx, req); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

// RegisterValidation adds a custom validate tag. message is a format string receiving the
// field name, e.g. "%s must be a valid ticker symbol".
func RegisterValidation(tag string, fn validator.Func, message string) error {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		return err
	}
	messagesMu.Lock()
	defer messagesMu.Unlock()
	messages[tag] = func(fe validator.FieldError) string { return fmt.Sprintf(message, fe.Field()) }
	return nil
}

func toValidationErrors(err error) []ValidationError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		out := make([]ValidationError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			out = append(out, fieldError(fe))
		}
		return out
	}

	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg = fmt.Sprint(he.Message)
	}
	return []ValidationError{{Code: CodeBadRequest, Message: msg}}
}

func fieldError(fe validator.FieldError) ValidationError {
	messagesMu.RLock()
	render, ok := messages[fe.Tag()]
	messagesMu.RUnlock()

	ve := ValidationError{
		Code:  "ERR_" + strings.ToUpper(fe.Tag()),
		Field: fe.Field(),
	}
	if ok {
		ve.Message = render(fe)
	} else {
		ve.Message = fmt.Sprintf("%s failed validation: %s", fe.Field(), fe.Tag())
	}
	if key, ok := paramKeys[fe.Tag()]; ok {
		ve.Params = map[string]interface{}{key: fe.Param()}
	}
	return ve
}
