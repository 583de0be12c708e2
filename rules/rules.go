// Package rules is a reference Mapper for string rule descriptors, the form
// produced by the YAML loader:
//
//	"type string"      value kind (string, number, integer, boolean, object, array, null)
//	"min_length 3"     rune count of strings, item count of arrays and objects
//	"max_length 20"
//	"min_value 16"     numeric bounds
//	"max_value 100"
//	"not empty"        non-zero length (strings, arrays, objects) and not null
//	"eq value"         equality with the argument
//	{each: [...]}      every array item passes the nested descriptors
//
// Single-key maps such as {min_length: 3} are accepted as well.
package rules

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	schema "github.com/aliaksandr-pasynkau/node-verifier-schema"
)

// ErrUnknownRule is returned by Mapper for descriptors it cannot translate.
var ErrUnknownRule = errors.New("rules: unknown rule")

// Rule names reported by this package.
const (
	NameType      = "type"
	NameMinLength = "min_length"
	NameMaxLength = "max_length"
	NameMinValue  = "min_value"
	NameMaxValue  = "max_value"
	NameNotEmpty  = "not_empty"
	NameEq        = "eq"
	NameEach      = "each"
)

// Mapper translates descriptors into rules. It satisfies schema.Mapper.
func Mapper(descriptors []any, _ schema.Options) (any, error) {
	out := make([]schema.Rule, 0, len(descriptors))
	for i, d := range descriptors {
		r, err := Build(d)
		if err != nil {
			return nil, fmt.Errorf("validation %d: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// Build translates one descriptor.
func Build(d any) (schema.Rule, error) {
	switch v := d.(type) {
	case schema.Rule:
		return v, nil
	case func(context.Context, any) error:
		return schema.RuleFunc(v), nil
	case string:
		name, arg, _ := strings.Cut(strings.TrimSpace(v), " ")
		if name == "not" && strings.TrimSpace(arg) == "empty" {
			return NotEmpty(), nil
		}
		arg = strings.TrimSpace(arg)
		if name == NameEq {
			return Eq(scalar(arg)), nil
		}
		return build(name, arg)
	case map[string]any:
		if len(v) != 1 {
			return nil, fmt.Errorf("%w: map descriptor must have exactly one key, got %d", ErrUnknownRule, len(v))
		}
		for name, arg := range v {
			return build(name, arg)
		}
	}
	return nil, fmt.Errorf("%w: %T", ErrUnknownRule, d)
}

func build(name string, arg any) (schema.Rule, error) {
	switch name {
	case NameType:
		kind, ok := arg.(string)
		if !ok || !knownKind(kind) {
			return nil, fmt.Errorf("%w: type %v", ErrUnknownRule, arg)
		}
		return Type(kind), nil
	case NameMinLength, NameMaxLength:
		n, err := intParam(name, arg)
		if err != nil {
			return nil, err
		}
		if name == NameMinLength {
			return MinLength(n), nil
		}
		return MaxLength(n), nil
	case NameMinValue, NameMaxValue:
		f, err := floatParam(name, arg)
		if err != nil {
			return nil, err
		}
		if name == NameMinValue {
			return MinValue(f), nil
		}
		return MaxValue(f), nil
	case NameNotEmpty:
		return NotEmpty(), nil
	case NameEq:
		return Eq(arg), nil
	case NameEach:
		list, ok := arg.([]any)
		if !ok {
			list = []any{arg}
		}
		nested := make([]schema.Rule, 0, len(list))
		for _, d := range list {
			r, err := Build(d)
			if err != nil {
				return nil, fmt.Errorf("each: %w", err)
			}
			nested = append(nested, r)
		}
		return Each(nested...), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownRule, name)
}

// scalar reads the argument of a string descriptor as a YAML scalar, so
// "eq 5" compares against a number and "eq true" against a bool. Anything
// that is not a plain scalar stays a string.
func scalar(arg string) any {
	var v any
	if err := yaml.Unmarshal([]byte(arg), &v); err != nil || v == nil {
		return arg
	}
	switch v.(type) {
	case map[string]any, []any:
		return arg
	}
	return v
}
