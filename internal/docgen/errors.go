// internal/docgen/errors.go
package docgen

import (
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/knowledged/internal/agent"
)

// ErrInvalidTarget means the target path does not exist or is not a
// directory. Like prompt.ErrUnknownPrompt it fails before any agent call.
var ErrInvalidTarget = errors.New("invalid target path")

// ErrAgentFailure, ErrOutputParse and ErrSchemaValidation are the match
// targets for errors.Is; the concrete error values carry diagnostics.
var (
	ErrAgentFailure     = errors.New("agent failure")
	ErrOutputParse      = errors.New("output parse failure")
	ErrSchemaValidation = errors.New("schema validation failure")
)

// AgentFailureError reports a session that terminated without a usable
// answer: refused, truncated, timed out, or a transport error.
type AgentFailureError struct {
	StopReason agent.StopReason
	AuditPath  string
	Err        error
}

func (e *AgentFailureError) Error() string {
	msg := fmt.Sprintf("agent failure: stop reason %s", e.StopReason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.AuditPath != "" {
		msg += " (audit: " + e.AuditPath + ")"
	}
	return msg
}

func (e *AgentFailureError) Unwrap() error { return ErrAgentFailure }

// OutputParseError reports raw text that is not well-formed for the prompt's
// output mode: not a single JSON value in structured mode, or empty in
// markdown mode.
type OutputParseError struct {
	Raw       string
	Detail    string
	AuditPath string
}

func (e *OutputParseError) Error() string {
	msg := "output parse failure: " + e.Detail
	if e.AuditPath != "" {
		msg += " (audit: " + e.AuditPath + ")"
	}
	return msg
}

func (e *OutputParseError) Unwrap() error { return ErrOutputParse }

// SchemaValidationError reports well-formed JSON that does not conform to
// the prompt's declared schema.
type SchemaValidationError struct {
	Raw       string
	Detail    string
	AuditPath string
}

func (e *SchemaValidationError) Error() string {
	msg := "schema validation failure: " + e.Detail
	if e.AuditPath != "" {
		msg += " (audit: " + e.AuditPath + ")"
	}
	return msg
}

func (e *SchemaValidationError) Unwrap() error { return ErrSchemaValidation }
