package schema

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Rule checks one value. Check returns:
//
//   - nil when the value passes
//   - a *ValidationError (see Fail) or the result of Invalid when the value fails
//   - any other error when the rule itself is broken
type Rule interface {
	Check(ctx context.Context, value any) error
}

// RuleFunc adapts a function to Rule.
type RuleFunc func(ctx context.Context, value any) error

func (f RuleFunc) Check(ctx context.Context, value any) error { return f(ctx, value) }

// Detail describes why a rule reported a value as invalid.
type Detail struct {
	RuleName   string
	RuleParams any
}

// Done is the continuation of a CallbackRule. err reports a failure (a
// *ValidationError or a logic error); otherwise valid=false marks the value
// as invalid with an optional detail.
type Done func(err error, valid bool, detail *Detail)

// CallbackRule is a rule written in continuation style. It must eventually
// call done exactly once, from any goroutine.
type CallbackRule func(value any, done Done)

type callbackOutcome struct {
	err    error
	valid  bool
	detail *Detail
}

// Check runs the rule and waits for its continuation or for ctx to end.
func (f CallbackRule) Check(ctx context.Context, value any) error {
	ch := make(chan callbackOutcome, 1)
	var called atomic.Bool
	f(value, func(err error, valid bool, detail *Detail) {
		if !called.CompareAndSwap(false, true) {
			panic("schema: rule continuation called more than once")
		}
		ch <- callbackOutcome{err: err, valid: valid, detail: detail}
	})
	select {
	case out := <-ch:
		if out.err != nil {
			return out.err
		}
		if out.valid {
			return nil
		}
		if out.detail == nil {
			return Invalid(nil)
		}
		return Invalid(out.detail)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// invalidError is returned by Invalid. Unlike ValidationError it tolerates a
// missing rule name.
type invalidError struct{ detail Detail }

func (e *invalidError) Error() string {
	return fmt.Sprintf("invalid value (rule %q)", e.detail.RuleName)
}

// Invalid reports a value as invalid. A nil detail is reported under
// RuleUnknown.
func Invalid(detail *Detail) error {
	if detail == nil || detail.RuleName == "" {
		d := Detail{RuleName: RuleUnknown}
		if detail != nil {
			d.RuleParams = detail.RuleParams
		}
		return &invalidError{detail: d}
	}
	return &invalidError{detail: *detail}
}

// Mapper translates a node's rule descriptors into rules. It may return a
// single rule, a []Rule, a []any of rules, or nil to keep the descriptors
// unchanged; anything else is rejected with ErrInvalidMapperOutput.
type Mapper func(descriptors []any, opts Options) (any, error)

// asRule reports whether a descriptor is already executable.
func asRule(v any) (Rule, bool) {
	switch r := v.(type) {
	case Rule:
		return r, true
	case func(context.Context, any) error:
		return RuleFunc(r), true
	case func(any, Done):
		return CallbackRule(r), true
	}
	return nil, false
}

// normalizeRules converts mapper output into a rule list.
func normalizeRules(out any) ([]any, error) {
	if r, ok := asRule(out); ok {
		return []any{r}, nil
	}
	switch list := out.(type) {
	case []Rule:
		rules := make([]any, 0, len(list))
		for _, r := range list {
			if r == nil {
				return nil, fmt.Errorf("%w: nil rule", ErrInvalidMapperOutput)
			}
			rules = append(rules, r)
		}
		return rules, nil
	case []any:
		rules := make([]any, 0, len(list))
		for i, it := range list {
			r, ok := asRule(it)
			if !ok {
				return nil, fmt.Errorf("%w: item %d has type %T", ErrInvalidMapperOutput, i, it)
			}
			rules = append(rules, r)
		}
		return rules, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrInvalidMapperOutput, out)
}
