package schema

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aliaksandr-pasynkau/node-verifier-schema/internal/iterate"
)

// ErrNilCallback is returned by VerifyAsync when done is nil.
var ErrNilCallback = errors.New("schema: verify callback must be a function")

// VerifyCallback receives the outcome of VerifyAsync. Exactly one of err and
// res is non-nil when valid is false; both are nil when valid is true.
type VerifyCallback func(err error, valid bool, res *ValidationResultError)

// Verify checks value against s. The outcome is three-way:
//
//   - valid: (true, nil, nil)
//   - invalid: (false, res, nil) with the first failure found
//   - broken: (false, nil, err) when a rule or mapper failed, the context
//     ended or s carries construction errors
func Verify(ctx context.Context, s *Schema, value any, opts ...Options) (bool, *ValidationResultError, error) {
	if s == nil {
		return false, nil, ErrNilSchema
	}
	if err := s.Err(); err != nil {
		return false, nil, err
	}
	o := mergeOptions(opts)
	v := &verifier{opts: o, log: o.logger()}
	err := v.verifySchema(ctx, s, value, nil)
	if err == nil {
		return true, nil, nil
	}
	if re, ok := AsResultError(err); ok {
		v.log.DebugContext(ctx, "value rejected", slog.String("path", re.Pointer()), slog.String("rule", re.RuleName))
		return false, re, nil
	}
	v.log.WarnContext(ctx, "verification aborted", slog.Any("error", err))
	return false, nil, err
}

// Verify checks value against s; see the package-level Verify.
func (s *Schema) Verify(ctx context.Context, value any, opts ...Options) (bool, *ValidationResultError, error) {
	return Verify(ctx, s, value, opts...)
}

// VerifyAsync runs Verify on a new goroutine and hands the outcome to done.
func VerifyAsync(ctx context.Context, s *Schema, value any, done VerifyCallback, opts ...Options) error {
	if done == nil {
		return ErrNilCallback
	}
	go func() {
		valid, res, err := Verify(ctx, s, value, opts...)
		done(err, valid, res)
	}()
	return nil
}

type verifier struct {
	opts Options
	log  *slog.Logger
}

// check is one stage of the per-node pipeline. It returns nil to continue,
// iterate.Stop to end the node successfully, a *ValidationResultError for an
// invalid value, or a logic error.
type check func(ctx context.Context, s *Schema, value any, path []string) error

func (v *verifier) runChecks(ctx context.Context, checks []check, s *Schema, value any, path []string) error {
	return iterate.Slice(ctx, checks, func(ctx context.Context, _ int, c check) error {
		return c(ctx, s, value, path)
	})
}

func (v *verifier) verifySchema(ctx context.Context, s *Schema, value any, path []string) error {
	return v.runChecks(ctx, []check{
		v.checkRequired,
		v.checkShape,
		v.checkValidations,
		v.checkObject,
	}, s, value, path)
}

func (v *verifier) checkRequired(_ context.Context, s *Schema, value any, path []string) error {
	if !IsMissing(value) {
		return nil
	}
	if !s.optional {
		return NewValidationResultError(RuleRequired, true, value, path)
	}
	return iterate.Stop
}

func (v *verifier) checkShape(_ context.Context, s *Schema, value any, path []string) error {
	if s.IsArray() == isList(value) {
		return nil
	}
	want := ShapeObject
	if s.IsArray() {
		want = ShapeArray
	}
	return NewValidationResultError(RuleType, want, value, path)
}

func (v *verifier) checkValidations(ctx context.Context, s *Schema, value any, path []string) error {
	list := s.validations
	if len(list) == 0 {
		return nil
	}
	if v.opts.Validator != nil {
		out, err := v.opts.Validator(cloneDescriptors(list), v.opts)
		if err != nil {
			return err
		}
		if out != nil {
			if list, err = normalizeRules(out); err != nil {
				return err
			}
		}
	}
	return iterate.Slice(ctx, list, func(ctx context.Context, _ int, d any) error {
		r, ok := asRule(d)
		if !ok {
			return fmt.Errorf("%w: %T at %s", ErrNotRule, d, Pointer(path))
		}
		return ruleOutcome(r.Check(ctx, value), value, path)
	})
}

// ruleOutcome binds a rule failure to the value and position it was found
// at. Errors that are not rule failures pass through as logic errors.
func ruleOutcome(err error, value any, path []string) error {
	if err == nil {
		return nil
	}
	var inv *invalidError
	if errors.As(err, &inv) {
		return NewValidationResultError(inv.detail.RuleName, inv.detail.RuleParams, value, path)
	}
	var re *ValidationResultError
	if errors.As(err, &re) {
		out := NewValidationResultError(re.RuleName, re.RuleParams, value, path)
		out.ArrayItemIndex = re.ArrayItemIndex
		return out
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return NewValidationResultError(ve.RuleName, ve.RuleParams, value, path)
	}
	return err
}

func (v *verifier) checkObject(ctx context.Context, s *Schema, value any, path []string) error {
	if s.fields == nil {
		return iterate.Stop
	}
	if !s.IsArray() {
		return v.validateFields(ctx, s, value, path)
	}
	return iterate.Slice(ctx, listItems(value), func(ctx context.Context, i int, item any) error {
		err := v.validateFields(ctx, s, item, indexPath(path, i))
		var re *ValidationResultError
		if errors.As(err, &re) && re.ArrayItemIndex == nil {
			re.WithArrayItemIndex(i)
		}
		return err
	})
}

func (v *verifier) validateFields(ctx context.Context, s *Schema, value any, path []string) error {
	return v.runChecks(ctx, []check{
		v.checkFieldsExist,
		v.checkExcessFields,
		v.checkNestedFields,
	}, s, value, path)
}

func (v *verifier) checkFieldsExist(_ context.Context, _ *Schema, value any, path []string) error {
	if _, ok := asObject(value); ok {
		return nil
	}
	return NewValidationResultError(RuleType, ShapeObject, value, path)
}

func (v *verifier) checkExcessFields(_ context.Context, s *Schema, value any, path []string) error {
	if v.opts.IgnoreExcess && !s.strict {
		return nil
	}
	obj, _ := asObject(value)
	for k := range obj {
		if _, ok := s.fields[k]; !ok {
			return NewValidationResultError(RuleAvailableFields, s.FieldNames(), value, path)
		}
	}
	return nil
}

func (v *verifier) checkNestedFields(ctx context.Context, s *Schema, value any, path []string) error {
	obj, _ := asObject(value)
	return iterate.Map(ctx, s.fields, func(ctx context.Context, name string, f *Schema) error {
		fv, ok := obj[name]
		if !ok {
			fv = Missing
		}
		return v.verifySchema(ctx, f, fv, childPath(path, name))
	})
}
