package api

import (
	"net/http"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/labstack/echo/v4"
)

func (s *HTTPServer) createItem(c echo.Context) error {
	var req itemRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	if req.Name == nil || req.Description == nil || req.Available == nil {
		return domain.Invalid("name, description and available are required")
	}

	item := models.Item{Name: *req.Name, Description: *req.Description, Available: *req.Available}
	if req.RequestID != nil {
		item.RequestID = *req.RequestID
	}
	created, err := s.svc.Items.CreateItem(c.Request().Context(), currentUser(c), item)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *HTTPServer) getItem(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	view, err := s.svc.Items.GetItem(c.Request().Context(), id, currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

func (s *HTTPServer) listOwnerItems(c echo.Context) error {
	from, size, err := s.pageParams(c)
	if err != nil {
		return err
	}
	views, err := s.svc.Items.GetOwnerItems(c.Request().Context(), currentUser(c), from, size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

func (s *HTTPServer) updateItem(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req itemRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	patch := models.ItemPatch{Name: req.Name, Description: req.Description, Available: req.Available}
	item, err := s.svc.Items.UpdateItem(c.Request().Context(), id, currentUser(c), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

func (s *HTTPServer) searchItems(c echo.Context) error {
	from, size, err := s.pageParams(c)
	if err != nil {
		return err
	}
	items, err := s.svc.Items.SearchItems(c.Request().Context(), c.QueryParam("text"), from, size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (s *HTTPServer) addComment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req commentRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	comment, err := s.svc.Items.AddComment(c.Request().Context(), id, currentUser(c), req.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, comment)
}
