package api

import (
	"errors"
	"fmt"
	"net/http"

	"shareit/internal/domain"

	"github.com/labstack/echo/v4"
)

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// handleError renders every failure as {"error": message}. Infrastructure
// errors are logged and hidden behind a generic message.
func (s *HTTPServer) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := statusFor(err)
	message := err.Error()

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		code = httpErr.Code
		message = fmt.Sprint(httpErr.Message)
		if httpErr.Internal != nil {
			s.logger.Debug().Err(httpErr.Internal).Msg("request rejected")
		}
	} else if code == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", c.Request().URL.Path).Msg("request failed")
		message = http.StatusText(http.StatusInternalServerError)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(code)
	} else {
		writeErr = c.JSON(code, echo.Map{"error": message})
	}
	if writeErr != nil {
		s.logger.Warn().Err(writeErr).Msg("failed to write error response")
	}
}
