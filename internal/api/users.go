package api

import (
	"net/http"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/labstack/echo/v4"
)

func (s *HTTPServer) createUser(c echo.Context) error {
	var req userRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	if req.Name == nil || req.Email == nil {
		return domain.Invalid("name and email are required")
	}
	user, err := s.svc.Users.CreateUser(c.Request().Context(), *req.Name, *req.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

func (s *HTTPServer) listUsers(c echo.Context) error {
	users, err := s.svc.Users.GetAllUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

func (s *HTTPServer) getUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	user, err := s.svc.Users.GetUserByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (s *HTTPServer) updateUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req userRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	user, err := s.svc.Users.UpdateUser(c.Request().Context(), id, models.UserPatch{Name: req.Name, Email: req.Email})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (s *HTTPServer) deleteUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.svc.Users.DeleteUser(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
