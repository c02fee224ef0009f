package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"shareit/internal/domain"
	"shareit/internal/export"
	"shareit/internal/models"

	"github.com/labstack/echo/v4"
)

// headerExportTruncated marks an export cut at the row limit.
const headerExportTruncated = "X-Export-Truncated"

func (s *HTTPServer) addBooking(c echo.Context) error {
	var req bookingRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	if req.ItemID == 0 {
		return domain.Invalid("itemId is required")
	}
	if req.Start.IsZero() || req.End.IsZero() {
		return domain.Invalid("start and end are required")
	}

	booking, err := s.svc.Bookings.Add(c.Request().Context(), currentUser(c), req.ItemID, req.Start.Time, req.End.Time)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toBookingDTO(booking))
}

func (s *HTTPServer) confirmBooking(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	approved, err := strconv.ParseBool(strings.TrimSpace(c.QueryParam("approved")))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "approved must be true or false")
	}

	booking, err := s.svc.Bookings.Confirm(c.Request().Context(), id, approved, currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBookingDTO(booking))
}

func (s *HTTPServer) findBooking(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	booking, err := s.svc.Bookings.Find(c.Request().Context(), id, currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBookingDTO(booking))
}

func (s *HTTPServer) listUserBookings(c echo.Context) error {
	from, size, err := s.pageParams(c)
	if err != nil {
		return err
	}
	bookings, err := s.svc.Bookings.ListByUser(c.Request().Context(), currentUser(c), stateParam(c), from, size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBookingDTOs(bookings))
}

func (s *HTTPServer) listOwnerBookings(c echo.Context) error {
	from, size, err := s.pageParams(c)
	if err != nil {
		return err
	}
	bookings, err := s.svc.Bookings.ListByOwnedItems(c.Request().Context(), currentUser(c), stateParam(c), from, size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBookingDTOs(bookings))
}

func (s *HTTPServer) exportOwnerBookings(c echo.Context) error {
	ownerID := currentUser(c)
	bookings, truncated, err := s.svc.Bookings.ExportOwnerBookings(c.Request().Context(), ownerID, stateParam(c))
	if err != nil {
		return err
	}
	if truncated {
		c.Response().Header().Set(headerExportTruncated, "true")
	}

	var buf bytes.Buffer
	if err := export.WriteBookingsXLSX(&buf, bookings); err != nil {
		return err
	}
	fileName := fmt.Sprintf("bookings_owner_%d.xlsx", ownerID)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", fileName))
	return c.Blob(http.StatusOK, export.ContentType, buf.Bytes())
}

// stateParam passes the raw token through; an empty one means ALL.
func stateParam(c echo.Context) models.BookingState {
	return models.BookingState(c.QueryParam("state"))
}
