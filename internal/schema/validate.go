// internal/schema/validate.go
package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ValidationError describes a single conformance failure at a path.
type ValidationError struct {
	Path    string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate checks a decoded JSON value against the schema. The value is
// expected to come from encoding/json with UseNumber enabled
// (map[string]any, []any, string, json.Number, bool, nil).
//
// Only structural conformance is checked: types, closed object shapes,
// required fields, enums, and combinator membership. Numeric and length
// bounds are intentionally not enforced.
func Validate(s *Schema, value any) error {
	return validateNode(s, value, "$")
}

func validateNode(s *Schema, value any, at string) error {
	if len(s.AllOf) > 0 {
		for i, branch := range s.AllOf {
			if err := validateNode(branch, value, at); err != nil {
				return ValidationError{Path: at, Message: fmt.Sprintf("allOf branch %d failed: %v", i, err)}
			}
		}
	}
	if len(s.AnyOf) > 0 {
		// First structurally matching branch wins; ambiguity between
		// branches is not resolved further.
		var failures []string
		for _, branch := range s.AnyOf {
			if err := validateNode(branch, value, at); err == nil {
				return nil
			} else {
				failures = append(failures, err.Error())
			}
		}
		return ValidationError{Path: at, Message: "no anyOf branch matched: " + strings.Join(failures, "; ")}
	}
	if s.Type == "" {
		return nil // combinator-only node already handled above
	}

	switch s.Type {
	case TypeObject:
		obj, ok := value.(map[string]any)
		if !ok {
			return typeError(at, "object", value)
		}
		for _, req := range s.Required {
			if _, present := obj[req]; !present {
				return ValidationError{Path: at, Message: fmt.Sprintf("missing required field %q", req)}
			}
		}
		var unknown []string
		for key := range obj {
			if _, declared := s.Properties[key]; !declared {
				unknown = append(unknown, key)
			}
		}
		if len(unknown) > 0 {
			sort.Strings(unknown)
			return ValidationError{Path: at, Message: fmt.Sprintf("unknown fields: %s", strings.Join(unknown, ", "))}
		}
		for key, prop := range s.Properties {
			if v, present := obj[key]; present {
				if err := validateNode(prop, v, at+"."+key); err != nil {
					return err
				}
			}
		}

	case TypeArray:
		arr, ok := value.([]any)
		if !ok {
			return typeError(at, "array", value)
		}
		if s.Items != nil {
			for i, elem := range arr {
				if err := validateNode(s.Items, elem, fmt.Sprintf("%s[%d]", at, i)); err != nil {
					return err
				}
			}
		}

	case TypeString:
		if _, ok := value.(string); !ok {
			return typeError(at, "string", value)
		}

	case TypeBoolean:
		if _, ok := value.(bool); !ok {
			return typeError(at, "boolean", value)
		}

	case TypeNull:
		if value != nil {
			return typeError(at, "null", value)
		}

	case TypeInteger:
		num, ok := value.(json.Number)
		if !ok {
			return typeError(at, "integer", value)
		}
		if _, err := num.Int64(); err != nil {
			return ValidationError{Path: at, Message: fmt.Sprintf("expected integer, got %s", num.String())}
		}

	case TypeNumber:
		if _, ok := value.(json.Number); !ok {
			return typeError(at, "number", value)
		}

	default:
		return ValidationError{Path: at, Message: fmt.Sprintf("unsupported schema type %q", s.Type)}
	}

	if len(s.Enum) > 0 {
		if !enumContains(s.Enum, value) {
			return ValidationError{Path: at, Message: fmt.Sprintf("value %v not in enum", value)}
		}
	}

	return nil
}

func typeError(at, want string, got any) ValidationError {
	return ValidationError{Path: at, Message: fmt.Sprintf("expected %s, got %s", want, jsonTypeName(got))}
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// enumContains compares the decoded value against declared enum primitives.
// Numbers are compared by their canonical string form so that 1 and
// json.Number("1") match.
func enumContains(enum []any, value any) bool {
	for _, candidate := range enum {
		switch c := candidate.(type) {
		case string:
			if v, ok := value.(string); ok && v == c {
				return true
			}
		case bool:
			if v, ok := value.(bool); ok && v == c {
				return true
			}
		case nil:
			if value == nil {
				return true
			}
		case int, int64, float64:
			if v, ok := value.(json.Number); ok && v.String() == fmt.Sprintf("%v", c) {
				return true
			}
		}
	}
	return false
}
