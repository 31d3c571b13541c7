// Package http provides the HTTP API for knowledged.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/knowledged/internal/docgen"
	"github.com/fyrsmithlabs/knowledged/internal/logging"
	"github.com/fyrsmithlabs/knowledged/internal/prompt"
	"github.com/fyrsmithlabs/knowledged/internal/session"
	"github.com/fyrsmithlabs/knowledged/internal/store"
)

// Server provides HTTP endpoints for knowledged.
type Server struct {
	echo     *echo.Echo
	store    *store.Store
	sessions *session.Manager
	docgen   *docgen.Service
	logger   *zap.Logger
	config   *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// NewServer creates a new HTTP server.
func NewServer(st *store.Store, sessions *session.Manager, dg *docgen.Service, logger *zap.Logger, cfg *Config) (*Server, error) {
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager cannot be nil")
	}
	if dg == nil {
		return nil, fmt.Errorf("docgen service cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 9180,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(NewMetrics().Middleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			// Carry the correlation ID into the request context so
			// downstream services log it too.
			c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), requestID)))

			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", requestID),
			)

			return err
		}
	})

	s := &Server{
		echo:     e,
		store:    st,
		sessions: sessions,
		docgen:   dg,
		logger:   logger,
		config:   cfg,
	}

	// Register routes
	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	// Health check and metrics
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")

	v1.POST("/projects", s.handleCreateProject)
	v1.GET("/projects", s.handleListProjects)
	v1.GET("/projects/:id", s.handleGetProject)
	v1.PATCH("/projects/:id", s.handleUpdateProject)
	v1.DELETE("/projects/:id", s.handleDeleteProject)
	v1.GET("/projects/:projectID/pages/:name", s.handleGetPageByName)

	v1.POST("/pages", s.handleCreatePage)
	v1.GET("/pages", s.handleListPages)
	v1.PATCH("/pages/:id", s.handleUpdatePage)
	v1.DELETE("/pages/:id", s.handleDeletePage)

	v1.POST("/code-samples", s.handleCreateCodeSample)
	v1.GET("/code-samples", s.handleListCodeSamples)
	v1.GET("/code-samples/:id", s.handleGetCodeSample)
	v1.PATCH("/code-samples/:id", s.handleUpdateCodeSample)
	v1.DELETE("/code-samples/:id", s.handleDeleteCodeSample)

	v1.POST("/doc-pages", s.handleCreateDocPage)
	v1.GET("/doc-pages", s.handleListDocPages)
	v1.GET("/doc-pages/:id", s.handleGetDocPage)
	v1.PATCH("/doc-pages/:id", s.handleUpdateDocPage)
	v1.DELETE("/doc-pages/:id", s.handleDeleteDocPage)

	v1.POST("/sessions", s.handleCreateSession)
	v1.GET("/sessions", s.handleListSessions)
	v1.GET("/sessions/:id", s.handleGetSession)
	v1.PATCH("/sessions/:id", s.handleUpdateSession)
	v1.DELETE("/sessions/:id", s.handleDeleteSession)
	v1.POST("/sessions/:id/chat", s.handleSessionChat)

	v1.POST("/code-query", s.handleCodeQuery)
	v1.POST("/code-query/generate-docs", s.handleGenerateDocs)
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	if err := s.store.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "degraded"})
	}
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// httpError maps domain errors onto HTTP status codes: not-found lookups to
// 404, bad input to 400, agent and output-contract failures to 502.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, session.ErrSessionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, prompt.ErrUnknownPrompt),
		errors.Is(err, docgen.ErrInvalidTarget),
		errors.Is(err, store.ErrDuplicatePage),
		errors.Is(err, session.ErrNoRepoPath):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, docgen.ErrAgentFailure),
		errors.Is(err, docgen.ErrOutputParse),
		errors.Is(err, docgen.ErrSchemaValidation):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
