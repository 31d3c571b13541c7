// Knowledged is a documentation-generation daemon.
//
// This binary starts the knowledged HTTP server with full service
// initialization: SQLite persistence, the in-memory session manager, and the
// agent-driven documentation generation service.
//
// Configuration is loaded from an optional YAML file plus environment
// variables. See internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	knowledged
//
//	# Configure via file and environment
//	knowledged -config knowledged.yaml
//	SERVER_HTTP_PORT=9180 AGENT_API_KEY=sk-... knowledged
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/knowledged/internal/agent"
	"github.com/fyrsmithlabs/knowledged/internal/audit"
	"github.com/fyrsmithlabs/knowledged/internal/config"
	"github.com/fyrsmithlabs/knowledged/internal/docgen"
	httpserver "github.com/fyrsmithlabs/knowledged/internal/http"
	"github.com/fyrsmithlabs/knowledged/internal/logging"
	"github.com/fyrsmithlabs/knowledged/internal/prompt"
	"github.com/fyrsmithlabs/knowledged/internal/session"
	"github.com/fyrsmithlabs/knowledged/internal/store"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if args := flag.Args(); len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  knowledged           Start the knowledged daemon\n")
			fmt.Fprintf(os.Stderr, "  knowledged version   Show version information\n")
			os.Exit(1)
		}
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("knowledged by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the knowledged server and blocks until context is cancelled.
//
// This function initializes all dependencies and services:
//  1. Loads and validates configuration
//  2. Initializes the logger
//  3. Opens the SQLite store and audit log
//  4. Builds the prompt registry and agent invoker
//  5. Wires the docgen service and session manager
//  6. Starts the HTTP server
//  7. Performs graceful shutdown on context cancellation
func run(ctx context.Context, configPath string) error {
	// A .env file is optional; real environments set variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logging.Sync(logger) // Best-effort sync on shutdown
	}()

	logger.Info("Starting knowledged",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("database", cfg.Database.Path),
		zap.String("model", cfg.Agent.Model))

	deps, err := initDependencies(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.Close()

	svcs, err := initServices(cfg, deps, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svcs.sessions.Stop()
	svcs.sessions.Start()

	srv, err := httpserver.NewServer(deps.store, svcs.sessions, svcs.docgen, logger, &httpserver.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	logger.Info("Server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://%s:%d/health", cfg.Server.Host, cfg.Server.Port)),
		zap.String("metrics_endpoint", "/metrics"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// dependencies holds all infrastructure dependencies.
type dependencies struct {
	store    *store.Store
	auditLog *audit.Store
	logger   *zap.Logger
}

// Close releases all infrastructure resources.
func (d *dependencies) Close() {
	if d.store != nil {
		_ = d.store.Close()
	}
}

// services holds all business services.
type services struct {
	docgen   *docgen.Service
	sessions *session.Manager
}

func initDependencies(cfg *config.Config, logger *zap.Logger) (*dependencies, error) {
	st, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Info("Database opened", zap.String("path", cfg.Database.Path))

	auditLog, err := audit.NewStore(cfg.Docgen.AuditDir)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to open audit store: %w", err)
	}

	return &dependencies{store: st, auditLog: auditLog, logger: logger}, nil
}

func initServices(cfg *config.Config, deps *dependencies, logger *zap.Logger) (*services, error) {
	registry, err := prompt.NewRegistry(prompt.Builtins()...)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt registry: %w", err)
	}

	invoker, err := agent.NewLLMInvoker(agent.Config{
		Model:         cfg.Agent.Model,
		BaseURL:       cfg.Agent.BaseURL,
		APIKey:        cfg.Agent.APIKey.Value(),
		MaxTokens:     cfg.Agent.MaxTokens,
		MaxIterations: cfg.Agent.MaxIterations,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent invoker: %w", err)
	}

	dg, err := docgen.NewService(registry, invoker, deps.auditLog, logger, docgen.Options{
		Timeout:       cfg.Agent.Timeout.Duration(),
		MaxConcurrent: cfg.Agent.MaxConcurrent,
		Metrics:       docgen.NewMetrics(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create docgen service: %w", err)
	}

	sessions := session.NewManager(func(ctx context.Context, projectID string) (string, error) {
		p, err := deps.store.GetProject(ctx, projectID)
		if err != nil {
			return "", err
		}
		return p.RepoPath, nil
	}, 0, 0, logger)

	return &services{docgen: dg, sessions: sessions}, nil
}
