package rules

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"unicode/utf8"

	"github.com/spf13/cast"

	schema "github.com/aliaksandr-pasynkau/node-verifier-schema"
)

func knownKind(kind string) bool {
	switch kind {
	case "string", "number", "integer", "boolean", "bool", "object", "array", "null":
		return true
	}
	return false
}

// Type checks the kind of the value.
func Type(kind string) schema.Rule {
	return schema.RuleFunc(func(_ context.Context, v any) error {
		if isKind(v, kind) {
			return nil
		}
		return schema.Fail(NameType, kind)
	})
}

func isKind(v any, kind string) bool {
	switch kind {
	case "string":
		_, ok := v.(string)
		return ok
	case "number":
		_, ok := toNumber(v)
		return ok
	case "integer":
		f, ok := toNumber(v)
		return ok && f == float64(int64(f))
	case "boolean", "bool":
		_, ok := v.(bool)
		return ok
	case "null":
		return v == nil
	}
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch kind {
	case "object":
		return rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String
	case "array":
		return rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array
	}
	return false
}

// MinLength requires at least n runes or items.
func MinLength(n int) schema.Rule {
	return lengthRule(NameMinLength, n, func(l int) bool { return l >= n })
}

// MaxLength allows at most n runes or items.
func MaxLength(n int) schema.Rule {
	return lengthRule(NameMaxLength, n, func(l int) bool { return l <= n })
}

// NotEmpty rejects null and zero-length values.
func NotEmpty() schema.Rule {
	return schema.RuleFunc(func(_ context.Context, v any) error {
		if v == nil {
			return schema.Fail(NameNotEmpty, nil)
		}
		if l, ok := length(v); ok && l == 0 {
			return schema.Fail(NameNotEmpty, nil)
		}
		return nil
	})
}

func lengthRule(name string, n int, ok func(int) bool) schema.Rule {
	return schema.RuleFunc(func(_ context.Context, v any) error {
		l, has := length(v)
		if !has || !ok(l) {
			return schema.Fail(name, n)
		}
		return nil
	})
}

func length(v any) (int, bool) {
	if s, ok := v.(string); ok {
		return utf8.RuneCountInString(s), true
	}
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	}
	return 0, false
}

// MinValue requires a number >= min.
func MinValue(min float64) schema.Rule {
	return valueRule(NameMinValue, min, func(f float64) bool { return f >= min })
}

// MaxValue requires a number <= max.
func MaxValue(max float64) schema.Rule {
	return valueRule(NameMaxValue, max, func(f float64) bool { return f <= max })
}

func valueRule(name string, bound float64, ok func(float64) bool) schema.Rule {
	return schema.RuleFunc(func(_ context.Context, v any) error {
		f, isNum := toNumber(v)
		if !isNum || !ok(f) {
			return schema.Fail(name, bound)
		}
		return nil
	})
}

// Eq requires the value to equal want. Numbers compare by value regardless
// of their Go type.
func Eq(want any) schema.Rule {
	return schema.RuleFunc(func(_ context.Context, v any) error {
		if a, ok := toNumber(v); ok {
			if b, ok := toNumber(want); ok && a == b {
				return nil
			}
		}
		if reflect.DeepEqual(v, want) {
			return nil
		}
		return schema.Fail(NameEq, want)
	})
}

// Each applies rules to every item of an array value, in order, and reports
// the first failing item with its index.
func Each(rules ...schema.Rule) schema.Rule {
	return schema.RuleFunc(func(ctx context.Context, v any) error {
		if !isKind(v, "array") {
			return schema.Fail(NameType, "array")
		}
		rv := reflect.ValueOf(v)
		for i := 0; i < rv.Len(); i++ {
			item := rv.Index(i).Interface()
			for _, r := range rules {
				err := r.Check(ctx, item)
				if err == nil {
					continue
				}
				if re, ok := schema.AsResultError(err); ok {
					return re.WithArrayItemIndex(i)
				}
				var ve *schema.ValidationError
				if errors.As(err, &ve) {
					return schema.NewValidationResultError(ve.RuleName, ve.RuleParams, item, nil).WithArrayItemIndex(i)
				}
				return err
			}
		}
		return nil
	})
}

// number kinds accepted by the numeric rules; json.Number and friends come
// through the Float64 method.
type floater interface{ Float64() (float64, error) }

func toNumber(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	if n, ok := v.(floater); ok {
		f, err := n.Float64()
		return f, err == nil
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(v)
		return f, err == nil
	}
	return 0, false
}

func intParam(name string, arg any) (int, error) {
	n, err := cast.ToIntE(arg)
	if err != nil {
		return 0, fmt.Errorf("%w: %s needs an integer, got %v", ErrUnknownRule, name, arg)
	}
	return n, nil
}

func floatParam(name string, arg any) (float64, error) {
	f, err := cast.ToFloat64E(arg)
	if err != nil {
		return 0, fmt.Errorf("%w: %s needs a number, got %v", ErrUnknownRule, name, arg)
	}
	return f, nil
}
