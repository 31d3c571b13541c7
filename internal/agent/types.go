// internal/agent/types.go
// Package agent drives LLM agent sessions against a target repository with a
// constrained read-only tool surface.
package agent

import "context"

// StopReason classifies how an agent session terminated.
type StopReason string

const (
	// StopCompleted means the model finished its turn normally.
	StopCompleted StopReason = "completed"
	// StopMaxOutput means the response was cut off at the output limit.
	StopMaxOutput StopReason = "max_output"
	// StopRefused means the model declined to answer.
	StopRefused StopReason = "refused"
	// StopTimeout means the caller's deadline expired mid-session.
	StopTimeout StopReason = "timeout"
	// StopUnknown covers terminations the provider did not classify.
	StopUnknown StopReason = "unknown"
)

// Result is the terminal outcome of one agent invocation.
type Result struct {
	RawText    string
	StopReason StopReason
	Success    bool
}

// Invoker runs a single agent session. Implementations make exactly one
// external attempt per call; retries are the caller's decision.
//
// instructions is the full prompt text. targetPath is the repository root the
// session's tools are sandboxed to. responseSchema, when non-nil, is the JSON
// schema the caller expects the final answer to conform to; it is surfaced to
// the model but not enforced here.
type Invoker interface {
	Invoke(ctx context.Context, instructions, targetPath string, responseSchema any) (*Result, error)
}
