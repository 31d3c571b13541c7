// internal/docgen/service.go
// Package docgen orchestrates documentation generation: it resolves a prompt,
// checks the target, runs an agent session under a concurrency limit,
// validates the output contract, and writes exactly one audit record for
// every invocation that reaches the agent.
package docgen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/fyrsmithlabs/knowledged/internal/agent"
	"github.com/fyrsmithlabs/knowledged/internal/audit"
	"github.com/fyrsmithlabs/knowledged/internal/logging"
	"github.com/fyrsmithlabs/knowledged/internal/prompt"
)

// queryPromptName labels ad-hoc free-form queries in audit records and
// metrics; it is not a registry entry.
const queryPromptName = "code_query"

// Service runs documentation generation end to end.
type Service struct {
	registry *prompt.Registry
	invoker  agent.Invoker
	auditLog *audit.Store
	sem      *semaphore.Weighted
	timeout  time.Duration
	logger   *zap.Logger
	metrics  *Metrics
}

// Options configures a Service.
type Options struct {
	// Timeout bounds one agent session; zero means no deadline.
	Timeout time.Duration
	// MaxConcurrent bounds simultaneous agent sessions; values < 1 mean 1.
	MaxConcurrent int
	Metrics       *Metrics
}

// NewService wires the orchestrator. registry, invoker, auditLog and logger
// are required.
func NewService(registry *prompt.Registry, invoker agent.Invoker, auditLog *audit.Store, logger *zap.Logger, opts Options) (*Service, error) {
	if registry == nil || invoker == nil || auditLog == nil || logger == nil {
		return nil, errors.New("docgen service: missing dependency")
	}
	limit := opts.MaxConcurrent
	if limit < 1 {
		limit = 1
	}
	return &Service{
		registry: registry,
		invoker:  invoker,
		auditLog: auditLog,
		sem:      semaphore.NewWeighted(int64(limit)),
		timeout:  opts.Timeout,
		logger:   logger,
		metrics:  opts.Metrics,
	}, nil
}

// Generate runs the named prompt against targetPath. Precondition failures
// (unknown prompt, bad target) return before any agent call and leave no
// audit record; past that point exactly one record is written regardless of
// outcome, and its path rides on both the Output and any typed error.
func (s *Service) Generate(ctx context.Context, targetPath, promptName string) (*Output, error) {
	spec, err := s.registry.Resolve(promptName)
	if err != nil {
		return nil, err
	}
	if err := checkTarget(targetPath); err != nil {
		return nil, err
	}
	return s.run(ctx, spec, targetPath, spec.Template)
}

// Query runs a free-form markdown-mode question against targetPath. Sessions
// are audited under the code_query prompt name.
func (s *Service) Query(ctx context.Context, targetPath, query string) (*Output, error) {
	if err := checkTarget(targetPath); err != nil {
		return nil, err
	}
	spec := &prompt.Spec{Name: queryPromptName, Mode: prompt.ModeMarkdown}
	return s.run(ctx, spec, targetPath, query)
}

// Prompts lists the registered prompt specs.
func (s *Service) Prompts() []*prompt.Spec { return s.registry.List() }

func (s *Service) run(ctx context.Context, spec *prompt.Spec, targetPath, instructions string) (*Output, error) {
	start := time.Now()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		// Past preconditions every invocation leaves a record, even one
		// that never reached the agent.
		path, aerr := s.writeRecord(audit.Record{
			TargetPath:  targetPath,
			PromptName:  spec.Name,
			QueryLength: len(instructions),
			StopReason:  string(agent.StopTimeout),
			Error:       err.Error(),
		})
		s.recordMetrics(spec.Name, "timeout", start)
		return nil, attachAudit(&AgentFailureError{StopReason: agent.StopTimeout, Err: err}, path, aerr)
	}
	defer s.sem.Release(1)

	invCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		invCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var responseSchema any
	if spec.Schema != nil {
		responseSchema = spec.Schema
	}

	res, invErr := s.invoker.Invoke(invCtx, instructions, targetPath, responseSchema)

	rec := audit.Record{
		TargetPath:  targetPath,
		PromptName:  spec.Name,
		QueryLength: len(instructions),
	}

	if invErr != nil {
		rec.StopReason = string(agent.StopUnknown)
		rec.Error = invErr.Error()
		path, aerr := s.writeRecord(rec)
		s.recordMetrics(spec.Name, "agent_error", start)
		return nil, attachAudit(&AgentFailureError{StopReason: agent.StopUnknown, Err: invErr}, path, aerr)
	}

	rec.StopReason = string(res.StopReason)
	rec.RawText = res.RawText
	rec.ResponseLength = len(res.RawText)
	rec.Success = res.Success

	out, valErr := validateOutput(spec, res)
	if valErr != nil {
		rec.Error = valErr.Error()
	}
	path, aerr := s.writeRecord(rec)

	if valErr != nil {
		s.recordMetrics(spec.Name, errorStatus(valErr), start)
		return nil, attachAudit(valErr, path, aerr)
	}

	if aerr != nil {
		// Without a record there is no debugging surface for the response;
		// a successful generation that cannot be audited still fails.
		s.recordMetrics(spec.Name, "audit_error", start)
		return nil, fmt.Errorf("audit record write failed: %w", aerr)
	}

	out.AuditPath = path
	s.recordMetrics(spec.Name, "success", start)
	fields := []zap.Field{
		zap.String("prompt", spec.Name),
		zap.String("target", targetPath),
		zap.String("audit", path),
		zap.Duration("duration", time.Since(start)),
	}
	s.logger.Info("documentation generated", append(fields, logging.ContextFields(ctx)...)...)
	return out, nil
}

func (s *Service) writeRecord(rec audit.Record) (string, error) {
	rec.Timestamp = time.Now()
	path, err := s.auditLog.Write(rec)
	if err != nil {
		s.logger.Error("audit record write failed",
			zap.String("prompt", rec.PromptName),
			zap.Error(err))
		return "", err
	}
	return path, nil
}

func (s *Service) recordMetrics(promptName, status string, start time.Time) {
	s.metrics.RecordRun(promptName, status, time.Since(start).Seconds())
}

// attachAudit sets the audit path on typed errors and, when the audit write
// itself failed, appends that as secondary context without replacing the
// primary error.
func attachAudit(primary error, path string, auditErr error) error {
	var af *AgentFailureError
	var pe *OutputParseError
	var sv *SchemaValidationError
	switch {
	case errors.As(primary, &af):
		af.AuditPath = path
	case errors.As(primary, &pe):
		pe.AuditPath = path
	case errors.As(primary, &sv):
		sv.AuditPath = path
	}
	if auditErr != nil {
		return fmt.Errorf("%w (audit write failed: %v)", primary, auditErr)
	}
	return primary
}

func errorStatus(err error) string {
	switch {
	case errors.Is(err, ErrAgentFailure):
		return "agent_failure"
	case errors.Is(err, ErrOutputParse):
		return "parse_error"
	case errors.Is(err, ErrSchemaValidation):
		return "schema_error"
	default:
		return "error"
	}
}

func checkTarget(targetPath string) error {
	if targetPath == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidTarget)
	}
	info, err := os.Stat(targetPath)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTarget, targetPath)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidTarget, targetPath)
	}
	return nil
}
