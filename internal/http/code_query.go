// internal/http/code_query.go
package http

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/knowledged/internal/prompt"
	"github.com/fyrsmithlabs/knowledged/internal/store"
)

// CodeQueryRequest is the request body for POST /api/v1/code-query.
type CodeQueryRequest struct {
	RepoPath string `json:"repo_path"`
	Query    string `json:"query"`
}

// CodeQueryResponse is the response body for an ad-hoc query.
type CodeQueryResponse struct {
	Response  string `json:"response"`
	AuditPath string `json:"audit_path"`
}

// GenerateDocsRequest is the request body for POST /api/v1/code-query/generate-docs.
type GenerateDocsRequest struct {
	RepoPath   string `json:"repo_path"`
	PromptName string `json:"prompt_name"`
	// ProjectID, when set, persists the result as a doc page on that project.
	ProjectID string `json:"project_id"`
	Title     string `json:"title"`
}

// GenerateDocsResponse is the response body for a generation run.
type GenerateDocsResponse struct {
	PromptName string         `json:"prompt_name"`
	Mode       string         `json:"mode"`
	Markdown   string         `json:"markdown,omitempty"`
	Structured map[string]any `json:"structured,omitempty"`
	AuditPath  string         `json:"audit_path"`
	DocPageID  string         `json:"doc_page_id,omitempty"`
}

func (s *Server) handleCodeQuery(c echo.Context) error {
	var req CodeQueryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.RepoPath == "" || req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "repo_path and query fields are required")
	}

	out, err := s.docgen.Query(c.Request().Context(), req.RepoPath, req.Query)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, CodeQueryResponse{
		Response:  out.Markdown,
		AuditPath: out.AuditPath,
	})
}

func (s *Server) handleGenerateDocs(c echo.Context) error {
	var req GenerateDocsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.RepoPath == "" || req.PromptName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "repo_path and prompt_name fields are required")
	}

	out, err := s.docgen.Generate(c.Request().Context(), req.RepoPath, req.PromptName)
	if err != nil {
		return httpError(err)
	}

	resp := GenerateDocsResponse{
		PromptName: out.PromptName,
		Mode:       string(out.Mode),
		Markdown:   out.Markdown,
		Structured: out.Structured,
		AuditPath:  out.AuditPath,
	}

	if req.ProjectID != "" {
		content := out.Markdown
		if out.Mode == prompt.ModeStructured {
			data, err := json.MarshalIndent(out.Structured, "", "  ")
			if err != nil {
				return httpError(err)
			}
			content = string(data)
		}
		title := req.Title
		if title == "" {
			title = out.PromptName
		}
		doc, err := s.store.CreateDocPage(c.Request().Context(), store.DocPage{
			ProjectID: req.ProjectID,
			Title:     title,
			Content:   content,
		})
		if err != nil {
			// Generation succeeded; surface the persistence failure without
			// discarding the output.
			s.logger.Error("failed to persist generated doc page", zap.Error(err))
			return httpError(err)
		}
		resp.DocPageID = doc.ID
	}

	return c.JSON(http.StatusOK, resp)
}
