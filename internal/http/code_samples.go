// internal/http/code_samples.go
package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fyrsmithlabs/knowledged/internal/store"
)

// CreateCodeSampleRequest is the request body for POST /api/v1/code-samples.
type CreateCodeSampleRequest struct {
	ProjectID   string `json:"project_id"`
	Title       string `json:"title"`
	Language    string `json:"language"`
	Description string `json:"description"`
	CodeString  string `json:"code_string"`
}

func (s *Server) handleCreateCodeSample(c echo.Context) error {
	var req CreateCodeSampleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ProjectID == "" || req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "project_id and title fields are required")
	}

	sample, err := s.store.CreateCodeSample(c.Request().Context(), store.CodeSample{
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Language:    req.Language,
		Description: req.Description,
		CodeString:  req.CodeString,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, sample)
}

func (s *Server) handleListCodeSamples(c echo.Context) error {
	projectID := c.QueryParam("project_id")
	if projectID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "project_id query parameter is required")
	}
	items, err := s.store.ListCodeSamples(c.Request().Context(), projectID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (s *Server) handleGetCodeSample(c echo.Context) error {
	sample, err := s.store.GetCodeSample(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sample)
}

func (s *Server) handleUpdateCodeSample(c echo.Context) error {
	var upd store.CodeSampleUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	sample, err := s.store.UpdateCodeSample(c.Request().Context(), c.Param("id"), upd)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sample)
}

func (s *Server) handleDeleteCodeSample(c echo.Context) error {
	if err := s.store.DeleteCodeSample(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
