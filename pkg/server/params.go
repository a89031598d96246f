package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"catalogue/pkg/log"
	"catalogue/pkg/recordstore"

	"github.com/labstack/echo/v4"
)

const maxFormBytes = 1 << 20

// missingFieldError reports a required request field that was not supplied.
type missingFieldError struct {
	Field string
}

func (e missingFieldError) Error() string {
	return fmt.Sprintf("invalid request parameters - %s is not given", e.Field)
}

// requestParams returns the form body values followed by the query values.
func requestParams(ctx echo.Context) (url.Values, error) {
	req := ctx.Request()
	if req.Method != http.MethodDelete ||
		!strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationForm) {
		return ctx.FormParams()
	}

	// net/http leaves DELETE bodies unparsed.
	body, err := io.ReadAll(io.LimitReader(req.Body, maxFormBytes))
	if err != nil {
		return nil, err
	}
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, err
	}
	for key, vals := range req.URL.Query() {
		values[key] = append(values[key], vals...)
	}
	return values, nil
}

// requireParams reads the named fields, failing on the first one absent.
// A field sent with an empty value is present.
func requireParams(ctx echo.Context, names ...string) (map[string]string, error) {
	values, err := requestParams(ctx)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	params := make(map[string]string, len(names))
	for _, name := range names {
		if !values.Has(name) {
			return nil, missingFieldError{Field: name}
		}
		params[name] = values.Get(name)
	}
	return params, nil
}

// respondError writes the JSON error body matching err.
func respondError(ctx echo.Context, err error) error {
	var missing missingFieldError
	var httpErr *echo.HTTPError

	switch {
	case errors.As(err, &missing):
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": missing.Error()})
	case errors.As(err, &httpErr):
		return ctx.JSON(httpErr.Code, map[string]string{"error": fmt.Sprint(httpErr.Message)})
	case errors.Is(err, recordstore.ErrConflict):
		return ctx.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Error().Err(err).Str("uri", ctx.Request().RequestURI).Msg("Request failed")
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
}
