// internal/docgen/validator.go
package docgen

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/fyrsmithlabs/knowledged/internal/agent"
	"github.com/fyrsmithlabs/knowledged/internal/prompt"
	"github.com/fyrsmithlabs/knowledged/internal/schema"
)

// Output is a validated generation result. Exactly one of Markdown or
// Structured is set, per the prompt's mode. AuditPath names the audit record
// written for the invocation.
type Output struct {
	PromptName string
	Mode       prompt.Mode
	Markdown   string
	Structured map[string]any
	AuditPath  string
}

// validateOutput checks an agent result against the prompt's output
// contract. A failed session short-circuits before any parsing, even when
// the raw text happens to be parseable. The returned errors carry no audit
// path; the orchestrator fills it in after the record is written.
func validateOutput(spec *prompt.Spec, res *agent.Result) (*Output, error) {
	if !res.Success {
		return nil, &AgentFailureError{StopReason: res.StopReason}
	}

	switch spec.Mode {
	case prompt.ModeMarkdown:
		if strings.TrimSpace(res.RawText) == "" {
			return nil, &OutputParseError{Raw: res.RawText, Detail: "markdown output is empty"}
		}
		return &Output{PromptName: spec.Name, Mode: spec.Mode, Markdown: res.RawText}, nil

	case prompt.ModeStructured:
		value, err := decodeSingleJSON(res.RawText)
		if err != nil {
			return nil, &OutputParseError{Raw: res.RawText, Detail: err.Error()}
		}
		if err := schema.Validate(spec.Schema, value); err != nil {
			return nil, &SchemaValidationError{Raw: res.RawText, Detail: err.Error()}
		}
		obj, ok := value.(map[string]any)
		if !ok {
			return nil, &SchemaValidationError{Raw: res.RawText, Detail: "top-level value is not an object"}
		}
		return &Output{PromptName: spec.Name, Mode: spec.Mode, Structured: obj}, nil

	default:
		return nil, errors.New("unknown prompt mode " + string(spec.Mode))
	}
}

// decodeSingleJSON parses raw as exactly one top-level JSON value. Code
// fences, prose, or a second value after the first are parse failures; no
// fence stripping is attempted.
func decodeSingleJSON(raw string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, errors.New("output is not valid JSON: " + err.Error())
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("output contains data after the first JSON value")
	}
	return value, nil
}
