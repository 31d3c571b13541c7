// internal/http/doc_pages.go
package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fyrsmithlabs/knowledged/internal/store"
)

// CreateDocPageRequest is the request body for POST /api/v1/doc-pages.
type CreateDocPageRequest struct {
	ProjectID string `json:"project_id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
}

func (s *Server) handleCreateDocPage(c echo.Context) error {
	var req CreateDocPageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ProjectID == "" || req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "project_id and title fields are required")
	}

	d, err := s.store.CreateDocPage(c.Request().Context(), store.DocPage{
		ProjectID: req.ProjectID,
		Title:     req.Title,
		Content:   req.Content,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (s *Server) handleListDocPages(c echo.Context) error {
	projectID := c.QueryParam("project_id")
	if projectID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "project_id query parameter is required")
	}
	items, err := s.store.ListDocPages(c.Request().Context(), projectID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (s *Server) handleGetDocPage(c echo.Context) error {
	d, err := s.store.GetDocPage(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (s *Server) handleUpdateDocPage(c echo.Context) error {
	var upd store.DocPageUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	d, err := s.store.UpdateDocPage(c.Request().Context(), c.Param("id"), upd)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (s *Server) handleDeleteDocPage(c echo.Context) error {
	if err := s.store.DeleteDocPage(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
