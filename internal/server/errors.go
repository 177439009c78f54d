package server

import (
	"errors"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/exerbeasts/internal/middleware"
)

// setupErrorHandling logs unexpected errors with a stack trace before echo
// writes the response. HTTP errors raised on purpose are passed through quietly.
func setupErrorHandling(e *echo.Echo) {
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		var he *echo.HTTPError
		if !errors.As(err, &he) {
			middleware.FromContext(c.Request().Context()).Error("Internal Server Error (Unhandled)",
				"error", err,
				"path", c.Request().URL.Path,
				"stack_trace", string(debug.Stack()),
			)
		} else if he.Internal != nil {
			middleware.FromContext(c.Request().Context()).Warn("Request failed",
				"status", he.Code,
				"error", he.Internal,
			)
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
}
