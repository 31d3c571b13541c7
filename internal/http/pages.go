// internal/http/pages.go
package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fyrsmithlabs/knowledged/internal/store"
)

// CreatePageRequest is the request body for POST /api/v1/pages.
type CreatePageRequest struct {
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Title     string `json:"title"`
	Content   string `json:"content"`
}

func (s *Server) handleCreatePage(c echo.Context) error {
	var req CreatePageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ProjectID == "" || req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "project_id and name fields are required")
	}

	p, err := s.store.CreatePage(c.Request().Context(), store.Page{
		ProjectID: req.ProjectID,
		Name:      req.Name,
		Title:     req.Title,
		Content:   req.Content,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (s *Server) handleListPages(c echo.Context) error {
	projectID := c.QueryParam("project_id")
	if projectID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "project_id query parameter is required")
	}
	pages, err := s.store.ListPages(c.Request().Context(), projectID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pages)
}

// Pages are addressed by (project, name); the ID route exists only for
// updates and deletes.
func (s *Server) handleGetPageByName(c echo.Context) error {
	p, err := s.store.GetPageByProjectAndName(c.Request().Context(),
		c.Param("projectID"), c.Param("name"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleUpdatePage(c echo.Context) error {
	var upd store.PageUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	p, err := s.store.UpdatePage(c.Request().Context(), c.Param("id"), upd)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleDeletePage(c echo.Context) error {
	if err := s.store.DeletePage(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
