package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// BookingService is the booking engine plus the owner export used by the API.
type BookingService interface {
	domain.BookingService
	ExportOwnerBookings(ctx context.Context, ownerID int64, state models.BookingState) ([]*models.Booking, bool, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles everything the handlers call into.
type Services struct {
	Users    domain.UserService
	Items    domain.ItemService
	Bookings BookingService
	Requests domain.RequestService
	Store    Pinger
}

// HTTPServer exposes the REST API.
type HTTPServer struct {
	cfg      config.APIConfig
	pageSize int
	svc      Services
	logger   *zerolog.Logger
	limiter  *rateLimiter
	echo     *echo.Echo
	server   *http.Server
}

func NewHTTPServer(cfg config.APIConfig, pageSize int, svc Services, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if cfg.IdentityHeader == "" {
		cfg.IdentityHeader = "X-Sharer-User-Id"
	}
	if pageSize <= 0 {
		pageSize = models.DefaultPageSize
	}

	srv := &HTTPServer{
		cfg:      cfg,
		pageSize: pageSize,
		svc:      svc,
		logger:   logger,
		limiter:  newRateLimiter(cfg.RateLimit),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = srv.handleError
	e.Use(accessLog(logger), middleware.Recover(), srv.rateLimit)
	srv.echo = e
	srv.routes()

	srv.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      e,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	return srv
}

func (s *HTTPServer) routes() {
	e := s.echo

	e.GET("/healthz", s.handleHealth)
	e.GET("/readyz", s.handleReady)

	e.POST("/users", s.createUser)
	e.GET("/users", s.listUsers)
	e.GET("/users/:id", s.getUser)
	e.PATCH("/users/:id", s.updateUser)
	e.DELETE("/users/:id", s.deleteUser)

	e.GET("/items/search", s.searchItems)
	items := e.Group("/items", s.requireUser)
	items.POST("", s.createItem)
	items.GET("", s.listOwnerItems)
	items.GET("/:id", s.getItem)
	items.PATCH("/:id", s.updateItem)
	items.POST("/:id/comment", s.addComment)

	bookings := e.Group("/bookings", s.requireUser)
	bookings.POST("", s.addBooking)
	bookings.GET("", s.listUserBookings)
	bookings.GET("/owner", s.listOwnerBookings)
	bookings.GET("/owner/export", s.exportOwnerBookings)
	bookings.GET("/:id", s.findBooking)
	bookings.PATCH("/:id", s.confirmBooking)

	requests := e.Group("/requests", s.requireUser)
	requests.POST("", s.createRequest)
	requests.GET("", s.listOwnRequests)
	requests.GET("/all", s.listOtherRequests)
	requests.GET("/:id", s.getRequest)
}

// Handler returns the root handler, used by tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.echo
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (s *HTTPServer) handleReady(c echo.Context) error {
	if s.svc.Store == nil {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}
	if err := s.svc.Store.Ping(c.Request().Context()); err != nil {
		s.logger.Warn().Err(err).Msg("readiness check failed")
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
