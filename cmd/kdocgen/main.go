// Package main implements the kdocgen CLI for running documentation
// generation directly, without a running knowledged server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/knowledged/internal/agent"
	"github.com/fyrsmithlabs/knowledged/internal/audit"
	"github.com/fyrsmithlabs/knowledged/internal/config"
	"github.com/fyrsmithlabs/knowledged/internal/docgen"
	"github.com/fyrsmithlabs/knowledged/internal/logging"
	"github.com/fyrsmithlabs/knowledged/internal/prompt"
)

var (
	// configPath points at the optional YAML config file
	configPath string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kdocgen",
	Short: "Generate documentation from a codebase with an LLM agent",
	Long: `kdocgen runs the knowledged documentation agent against a local
repository and writes the generated output to disk. It does not require a
running knowledged server.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (YAML)")
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(promptsCmd)
}

// generateCmd runs a single documentation-generation pass.
var generateCmd = &cobra.Command{
	Use:   "generate <target-path> <prompt-name>",
	Short: "Run a documentation prompt against a repository",
	Long: `Run a documentation prompt against a repository and write the result.

Markdown prompts produce a .md file, structured prompts a .json file, both
under the configured output directory.

Examples:
  # Generate an architecture overview for the current repo
  kdocgen generate . project_overview

  # Extract API endpoint documentation as JSON
  kdocgen generate ~/src/myservice api_endpoint_analyzer`,
	Args: cobra.ExactArgs(2),
	RunE: runGenerate,
}

// promptsCmd lists the registered prompts.
var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "List available documentation prompts",
	RunE:  runPrompts,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	targetPath, promptName := args[0], args[1]

	// Load .env if present; environment variables are optional.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() {
		_ = logging.Sync(logger)
	}()

	registry, err := prompt.NewRegistry(prompt.Builtins()...)
	if err != nil {
		return fmt.Errorf("failed to build prompt registry: %w", err)
	}

	auditLog, err := audit.NewStore(cfg.Docgen.AuditDir)
	if err != nil {
		return fmt.Errorf("failed to open audit store: %w", err)
	}

	invoker, err := agent.NewLLMInvoker(agent.Config{
		Model:         cfg.Agent.Model,
		BaseURL:       cfg.Agent.BaseURL,
		APIKey:        cfg.Agent.APIKey.Value(),
		MaxTokens:     cfg.Agent.MaxTokens,
		MaxIterations: cfg.Agent.MaxIterations,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create agent invoker: %w", err)
	}

	svc, err := docgen.NewService(registry, invoker, auditLog, logger, docgen.Options{
		Timeout:       cfg.Agent.Timeout.Duration(),
		MaxConcurrent: cfg.Agent.MaxConcurrent,
	})
	if err != nil {
		return fmt.Errorf("failed to create docgen service: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Generating %q documentation for %s...\n", promptName, targetPath)

	out, err := svc.Generate(context.Background(), targetPath, promptName)
	if err != nil {
		return reportFailure(err)
	}

	outPath, err := writeOutput(cfg.Docgen.OutputDir, out)
	if err != nil {
		return err
	}

	fmt.Printf("Output written to %s\n", outPath)
	fmt.Printf("Audit log: %s\n", out.AuditPath)
	return nil
}

// writeOutput persists a generation result under outputDir and returns the
// written path. Markdown prompts get a .md file, structured prompts .json.
func writeOutput(outputDir string, out *docgen.Output) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	stamp := time.Now().Format("20060102_150405")

	var outPath string
	var data []byte
	switch out.Mode {
	case prompt.ModeStructured:
		outPath = filepath.Join(outputDir, fmt.Sprintf("%s_%s.json", out.PromptName, stamp))
		encoded, err := json.MarshalIndent(out.Structured, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode structured output: %w", err)
		}
		data = append(encoded, '\n')
	default:
		outPath = filepath.Join(outputDir, fmt.Sprintf("%s_%s.md", out.PromptName, stamp))
		data = []byte(out.Markdown)
	}

	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write output file: %w", err)
	}
	return outPath, nil
}

// reportFailure names the failure kind and the audit record location so the
// raw agent response can be inspected.
func reportFailure(err error) error {
	var kind string
	var auditPath string

	var agentErr *docgen.AgentFailureError
	var parseErr *docgen.OutputParseError
	var schemaErr *docgen.SchemaValidationError
	switch {
	case errors.As(err, &agentErr):
		kind = fmt.Sprintf("agent failure (stop reason %s)", agentErr.StopReason)
		auditPath = agentErr.AuditPath
	case errors.As(err, &parseErr):
		kind = "output parse failure"
		auditPath = parseErr.AuditPath
	case errors.As(err, &schemaErr):
		kind = "schema validation failure"
		auditPath = schemaErr.AuditPath
	default:
		return err
	}

	if auditPath != "" {
		fmt.Fprintf(os.Stderr, "Audit log: %s\n", auditPath)
	}
	return fmt.Errorf("%s: %w", kind, err)
}

func runPrompts(cmd *cobra.Command, args []string) error {
	registry, err := prompt.NewRegistry(prompt.Builtins()...)
	if err != nil {
		return fmt.Errorf("failed to build prompt registry: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMODE\tDESCRIPTION")
	for _, spec := range registry.List() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", spec.Name, spec.Mode, spec.Description)
	}
	return w.Flush()
}
