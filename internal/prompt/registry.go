// internal/prompt/registry.go
// Package prompt holds the immutable registry of documentation prompts and
// their output contracts. The registry is assembled once at startup; there is
// no runtime mutation or reload.
package prompt

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fyrsmithlabs/knowledged/internal/schema"
)

// ErrUnknownPrompt is returned by Resolve for a name the registry does not hold.
var ErrUnknownPrompt = errors.New("unknown prompt")

// Mode selects the output contract a prompt's response is held to.
type Mode string

const (
	// ModeStructured requires the response to be a single JSON value
	// conforming to the prompt's schema.
	ModeStructured Mode = "structured"
	// ModeMarkdown requires a non-empty markdown document.
	ModeMarkdown Mode = "markdown"
)

// Spec describes one registered prompt: the instructions sent to the agent
// and the contract its output must satisfy. Schema is set iff Mode is
// ModeStructured.
type Spec struct {
	Name        string
	Description string
	Template    string
	Mode        Mode
	Schema      *schema.Schema
}

// Registry resolves prompt names to their specs. Safe for concurrent reads.
type Registry struct {
	specs map[string]*Spec
}

// NewRegistry builds a registry from the given specs. It fails on duplicate
// names, mode/schema mismatches, and structured prompts whose schema is
// malformed or recursive.
func NewRegistry(specs ...*Spec) (*Registry, error) {
	m := make(map[string]*Spec, len(specs))
	for _, s := range specs {
		if s.Name == "" {
			return nil, errors.New("prompt spec with empty name")
		}
		if _, dup := m[s.Name]; dup {
			return nil, fmt.Errorf("duplicate prompt %q", s.Name)
		}
		switch s.Mode {
		case ModeStructured:
			if s.Schema == nil {
				return nil, fmt.Errorf("prompt %q: structured mode requires a schema", s.Name)
			}
			if err := schema.CheckWellFormed(s.Schema); err != nil {
				return nil, fmt.Errorf("prompt %q: %w", s.Name, err)
			}
		case ModeMarkdown:
			if s.Schema != nil {
				return nil, fmt.Errorf("prompt %q: markdown mode must not carry a schema", s.Name)
			}
		default:
			return nil, fmt.Errorf("prompt %q: unknown mode %q", s.Name, s.Mode)
		}
		m[s.Name] = s
	}
	return &Registry{specs: m}, nil
}

// Resolve returns the spec for name, or ErrUnknownPrompt.
func (r *Registry) Resolve(name string) (*Spec, error) {
	s, ok := r.specs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPrompt, name)
	}
	return s, nil
}

// List returns all registered specs sorted by name.
func (r *Registry) List() []*Spec {
	out := make([]*Spec, 0, len(r.specs))
	for _, s := range r.specs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
