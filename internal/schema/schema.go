// Package schema provides a declarative description of structured agent
// output, used both as a local validation contract and as the generation
// constraint transmitted to the external agent.
//
// The schema model deliberately mirrors the subset of JSON Schema the
// external grammar compiler supports: object shapes with required fields and
// closed property sets, arrays, primitive types, enums of primitive values,
// and anyOf/allOf combinators. Numeric and length bounds (minimum,
// maxLength, ...) are not represented and not enforced.
package schema

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Type is a JSON Schema primitive or container type.
type Type string

const (
	TypeObject  Type = "object"
	TypeArray   Type = "array"
	TypeString  Type = "string"
	TypeInteger Type = "integer"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
	TypeNull    Type = "null"
)

// Schema describes the shape of a single value.
//
// Object schemas always carry additionalProperties:false semantics: keys not
// listed in Properties are rejected. A zero Type is only valid when AnyOf or
// AllOf is set.
type Schema struct {
	Type        Type
	Description string

	// Object fields.
	Properties map[string]*Schema
	Required   []string

	// Array element schema.
	Items *Schema

	// Enum restricts a primitive value to a fixed set.
	Enum []any

	// Combinators. AnyOf uses first-matching-branch semantics.
	AnyOf []*Schema
	AllOf []*Schema
}

// Optional wraps a schema so that null is also accepted.
func Optional(s *Schema) *Schema {
	return &Schema{AnyOf: []*Schema{s, {Type: TypeNull}}}
}

// MarshalJSON renders the schema as JSON Schema for the agent's structured
// output constraint. Object nodes always emit "additionalProperties": false.
func (s *Schema) MarshalJSON() ([]byte, error) {
	out := make(map[string]any)

	if s.Type != "" {
		out["type"] = string(s.Type)
	}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if s.Type == TypeObject {
		props := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			props[name] = prop
		}
		out["properties"] = props
		out["additionalProperties"] = false
		if len(s.Required) > 0 {
			req := append([]string(nil), s.Required...)
			sort.Strings(req)
			out["required"] = req
		}
	}
	if s.Items != nil {
		out["items"] = s.Items
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if len(s.AnyOf) > 0 {
		out["anyOf"] = s.AnyOf
	}
	if len(s.AllOf) > 0 {
		out["allOf"] = s.AllOf
	}

	return json.Marshal(out)
}

// CheckWellFormed verifies a schema is usable: every node has a type or a
// combinator, enums hold primitives only, and no node is reachable from
// itself. Recursive schemas cannot be enforced by the external grammar
// compiler, so they are rejected here rather than at validation time.
func CheckWellFormed(s *Schema) error {
	return checkNode(s, nil, "$")
}

func checkNode(s *Schema, path []*Schema, at string) error {
	if s == nil {
		return fmt.Errorf("%s: nil schema node", at)
	}
	for _, seen := range path {
		if seen == s {
			return fmt.Errorf("%s: recursive schema definition", at)
		}
	}
	if s.Type == "" && len(s.AnyOf) == 0 && len(s.AllOf) == 0 {
		return fmt.Errorf("%s: schema node has neither type nor combinator", at)
	}
	for _, v := range s.Enum {
		switch v.(type) {
		case string, bool, int, int64, float64, nil:
		default:
			return fmt.Errorf("%s: enum values must be primitives, got %T", at, v)
		}
	}

	path = append(path, s)
	for name, prop := range s.Properties {
		if err := checkNode(prop, path, at+"."+name); err != nil {
			return err
		}
	}
	if s.Items != nil {
		if err := checkNode(s.Items, path, at+"[]"); err != nil {
			return err
		}
	}
	for i, branch := range s.AnyOf {
		if err := checkNode(branch, path, fmt.Sprintf("%s.anyOf[%d]", at, i)); err != nil {
			return err
		}
	}
	for i, branch := range s.AllOf {
		if err := checkNode(branch, path, fmt.Sprintf("%s.allOf[%d]", at, i)); err != nil {
			return err
		}
	}
	return nil
}
