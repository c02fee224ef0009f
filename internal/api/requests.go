package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *HTTPServer) createRequest(c echo.Context) error {
	var req itemRequestCreate
	if err := bindBody(c, &req); err != nil {
		return err
	}
	created, err := s.svc.Requests.CreateRequest(c.Request().Context(), currentUser(c), req.Description)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *HTTPServer) listOwnRequests(c echo.Context) error {
	requests, err := s.svc.Requests.GetOwnRequests(c.Request().Context(), currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, requests)
}

func (s *HTTPServer) listOtherRequests(c echo.Context) error {
	from, size, err := s.pageParams(c)
	if err != nil {
		return err
	}
	requests, err := s.svc.Requests.GetOtherRequests(c.Request().Context(), currentUser(c), from, size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, requests)
}

func (s *HTTPServer) getRequest(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	request, err := s.svc.Requests.GetRequest(c.Request().Context(), currentUser(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, request)
}
