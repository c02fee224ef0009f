package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"shareit/internal/metrics"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	requestIDHeader  = echo.HeaderXRequestID
	userIDContextKey = "user_id"
	clientKeyUnknown = "unknown"
)

// requireUser reads the caller id from the identity header. Requests without
// a positive integer id are rejected before reaching a handler.
func (s *HTTPServer) requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := strings.TrimSpace(c.Request().Header.Get(s.cfg.IdentityHeader))
		if raw == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "missing "+s.cfg.IdentityHeader+" header")
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid "+s.cfg.IdentityHeader+" header")
		}
		c.Set(userIDContextKey, id)
		return next(c)
	}
}

func currentUser(c echo.Context) int64 {
	id, _ := c.Get(userIDContextKey).(int64)
	return id
}

func (s *HTTPServer) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.limiter.enabled() {
			return next(c)
		}
		if !s.limiter.allow(s.clientKey(c)) {
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
		}
		return next(c)
	}
}

// clientKey prefers the caller identity and falls back to the remote address.
func (s *HTTPServer) clientKey(c echo.Context) string {
	if id := strings.TrimSpace(c.Request().Header.Get(s.cfg.IdentityHeader)); id != "" {
		return "user:" + id
	}
	if ip := c.RealIP(); ip != "" {
		return "ip:" + ip
	}
	return clientKeyUnknown
}

func accessLog(logger *zerolog.Logger) echo.MiddlewareFunc {
	base := zerolog.Nop()
	if logger != nil {
		base = logger.With().Str("component", "http").Logger()
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := strings.TrimSpace(c.Request().Header.Get(requestIDHeader))
			if requestID == "" {
				requestID = uuid.NewString()
			}
			c.Response().Header().Set(requestIDHeader, requestID)

			start := time.Now()
			err := next(c)
			if err != nil {
				// commit the response so the logged status is the one sent
				c.Error(err)
			}
			dur := time.Since(start)

			status := c.Response().Status
			endpoint := c.Path()
			if endpoint == "" {
				endpoint = "unmatched"
			}
			metrics.ObserveHTTP(c.Request().Method+" "+endpoint, status, dur)

			event := base.Info()
			if status >= http.StatusInternalServerError {
				event = base.Error().Err(err)
			}
			event.
				Str("request_id", requestID).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", status).
				Dur("duration", dur).
				Str("remote", c.RealIP()).
				Msg("http request")
			return nil
		}
	}
}
