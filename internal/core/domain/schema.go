package domain

import (
	"fmt"
	"math"
	"sort"
)

// ParamType is the value type of a strategy parameter.
type ParamType string

// Supported parameter types.
const (
	ParamInt    ParamType = "int"
	ParamFloat  ParamType = "float"
	ParamString ParamType = "string"
	ParamBool   ParamType = "bool"
	ParamList   ParamType = "list"
)

// ParamSpec declares one parameter of a strategy.
type ParamSpec struct {
	// Label is the human-readable name shown in forms and help output.
	Label string

	// Type is the value type. Values are coerced to it during resolution.
	Type ParamType

	// Default is used when the caller omits the parameter.
	Default any

	// Options restricts a string parameter to a fixed set.
	Options []string

	// Min and Max bound numeric parameters when set.
	Min *float64
	Max *float64
}

// Bound returns a pointer to v, for use as ParamSpec.Min or ParamSpec.Max.
func Bound(v float64) *float64 {
	return &v
}

// Comparison is an ordered comparison used by validation rules.
type Comparison string

// Supported comparisons.
const (
	LessThan       Comparison = "<"
	LessOrEqual    Comparison = "<="
	GreaterThan    Comparison = ">"
	GreaterOrEqual Comparison = ">="
)

func (c Comparison) holds(a, b float64) bool {
	switch c {
	case LessThan:
		return a < b
	case LessOrEqual:
		return a <= b
	case GreaterThan:
		return a > b
	case GreaterOrEqual:
		return a >= b
	default:
		return false
	}
}

// Rule compares a parameter against another parameter or a constant.
// Exactly one of Other and Constant is used; Other wins when set.
type Rule struct {
	Param    string
	Op       Comparison
	Other    string
	Constant float64
}

func (r Rule) String() string {
	if r.Other != "" {
		return fmt.Sprintf("%s %s %s", r.Param, r.Op, r.Other)
	}
	return fmt.Sprintf("%s %s %g", r.Param, r.Op, r.Constant)
}

// Strategy is the declarative description of a pluggable method.
type Strategy struct {
	// Method is the unique method name used as the registry key.
	Method string

	// Description is a one-line summary for listings.
	Description string

	// Params declares every accepted parameter.
	Params map[string]ParamSpec

	// Rules are checked in order after every parameter is resolved.
	Rules []Rule
}

// ParamNames returns the declared parameter names in sorted order.
func (s Strategy) ParamNames() []string {
	names := make([]string, 0, len(s.Params))
	for name := range s.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve validates params against the strategy and returns a new map with
// defaults filled in and values coerced to their declared types.
// The display name parameter passes through untouched.
func (s Strategy) Resolve(params map[string]any) (map[string]any, error) {
	for key := range params {
		if key == NameParam {
			continue
		}
		if _, ok := s.Params[key]; !ok {
			return nil, fmt.Errorf("%w: %s: unknown parameter %q", ErrValidation, s.Method, key)
		}
	}

	resolved := make(map[string]any, len(s.Params)+1)
	if name, ok := params[NameParam]; ok {
		str, isString := name.(string)
		if !isString {
			return nil, fmt.Errorf("%w: %s: %s must be a string", ErrValidation, s.Method, NameParam)
		}
		resolved[NameParam] = str
	}

	for _, key := range s.ParamNames() {
		spec := s.Params[key]
		raw, ok := params[key]
		if !ok || raw == nil {
			raw = spec.Default
		}
		value, err := coerce(spec, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %s: %w", ErrValidation, s.Method, key, err)
		}
		if err := checkBounds(spec, value); err != nil {
			return nil, fmt.Errorf("%w: %s: %s %w", ErrValidation, s.Method, key, err)
		}
		resolved[key] = value
	}

	for _, rule := range s.Rules {
		left, ok := numeric(resolved[rule.Param])
		if !ok {
			return nil, fmt.Errorf("%w: %s: rule %s: %s is not numeric", ErrValidation, s.Method, rule, rule.Param)
		}
		right := rule.Constant
		if rule.Other != "" {
			right, ok = numeric(resolved[rule.Other])
			if !ok {
				return nil, fmt.Errorf("%w: %s: rule %s: %s is not numeric", ErrValidation, s.Method, rule, rule.Other)
			}
		}
		if !rule.Op.holds(left, right) {
			return nil, fmt.Errorf("%w: %s: %s must hold (got %g and %g)", ErrValidation, s.Method, rule, left, right)
		}
	}

	return resolved, nil
}

// coerce converts a raw value (possibly decoded from JSON or TOML) to the
// declared type.
func coerce(spec ParamSpec, raw any) (any, error) {
	switch spec.Type {
	case ParamInt:
		f, ok := numeric(raw)
		if !ok {
			return nil, fmt.Errorf("expected integer, got %T", raw)
		}
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("expected integer, got %g", f)
		}
		return int(f), nil
	case ParamFloat:
		f, ok := numeric(raw)
		if !ok {
			return nil, fmt.Errorf("expected number, got %T", raw)
		}
		return f, nil
	case ParamBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", raw)
		}
		return b, nil
	case ParamString:
		str, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", raw)
		}
		if len(spec.Options) > 0 && !contains(spec.Options, str) {
			return nil, fmt.Errorf("must be one of %v, got %q", spec.Options, str)
		}
		return str, nil
	case ParamList:
		switch v := raw.(type) {
		case []string:
			return append([]string(nil), v...), nil
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				str, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("expected list of strings, got element %T", item)
				}
				out = append(out, str)
			}
			return out, nil
		default:
			return nil, fmt.Errorf("expected list of strings, got %T", raw)
		}
	default:
		return nil, fmt.Errorf("unknown parameter type %q", spec.Type)
	}
}

func checkBounds(spec ParamSpec, value any) error {
	f, ok := numeric(value)
	if !ok {
		return nil
	}
	if spec.Min != nil && f < *spec.Min {
		return fmt.Errorf("must be >= %g, got %g", *spec.Min, f)
	}
	if spec.Max != nil && f > *spec.Max {
		return fmt.Errorf("must be <= %g, got %g", *spec.Max, f)
	}
	return nil
}

// numeric handles the integer and float types that come from Go literals,
// JSON decoding (float64) and TOML decoding (int64).
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// IntParam reads a resolved integer parameter.
func IntParam(params map[string]any, key string) int {
	f, _ := numeric(params[key])
	return int(f)
}

// FloatParam reads a resolved float parameter.
func FloatParam(params map[string]any, key string) float64 {
	f, _ := numeric(params[key])
	return f
}

// StringParam reads a resolved string parameter.
func StringParam(params map[string]any, key string) string {
	s, _ := params[key].(string)
	return s
}

// ListParam reads a resolved string list parameter.
func ListParam(params map[string]any, key string) []string {
	switch v := params[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
