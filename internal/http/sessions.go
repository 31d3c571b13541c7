// internal/http/sessions.go
package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/knowledged/internal/logging"
	"github.com/fyrsmithlabs/knowledged/internal/session"
)

// CreateSessionRequest is the request body for POST /api/v1/sessions.
type CreateSessionRequest struct {
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
}

// UpdateSessionRequest is the request body for PATCH /api/v1/sessions/:id.
type UpdateSessionRequest struct {
	Name *string `json:"name"`
}

// ChatRequest is the request body for POST /api/v1/sessions/:id/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the response body for a chat turn.
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
	AuditPath string `json:"audit_path"`
}

func (s *Server) handleCreateSession(c echo.Context) error {
	var req CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ProjectID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "project_id field is required")
	}

	sess, err := s.sessions.Create(c.Request().Context(), req.ProjectID, req.Name)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, sess)
}

func (s *Server) handleListSessions(c echo.Context) error {
	return c.JSON(http.StatusOK, s.sessions.List(c.QueryParam("project_id")))
}

func (s *Server) handleGetSession(c echo.Context) error {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sess)
}

func (s *Server) handleUpdateSession(c echo.Context) error {
	var req UpdateSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	sess, err := s.sessions.Update(c.Param("id"), req.Name)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(c echo.Context) error {
	if err := s.sessions.Delete(c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// handleSessionChat answers a free-form question against the session's repo,
// prepending the conversation so far.
func (s *Server) handleSessionChat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message field is required")
	}

	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		return httpError(err)
	}

	query := session.BuildChatPrompt(sess.History, req.Message)
	ctx := logging.WithSessionID(c.Request().Context(), sess.ID)
	out, err := s.docgen.Query(ctx, sess.RepoPath, query)
	if err != nil {
		return httpError(err)
	}

	if err := s.sessions.Append(sess.ID, req.Message, out.Markdown); err != nil {
		// The session expired mid-request; the answer is still good.
		s.logger.Warn("failed to record chat history", zap.Error(err))
	}

	return c.JSON(http.StatusOK, ChatResponse{
		SessionID: sess.ID,
		Response:  out.Markdown,
		AuditPath: out.AuditPath,
	})
}
