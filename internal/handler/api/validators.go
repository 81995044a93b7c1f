package api

import (
	"regexp"

	xhttp "BiasLens/pkg/http"

	"github.com/go-playground/validator/v10"
)

// Tickers: letters, digits and the class/exchange separators used by US and index symbols.
var symbolPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9.\-^=]{0,14}$`)

func init() {
	if err := xhttp.RegisterValidation("symbol", func(fl validator.FieldLevel) bool {
		return symbolPattern.MatchString(fl.Field().String())
	}, "%s must be a valid ticker symbol"); err != nil {
		panic(err)
	}
}
