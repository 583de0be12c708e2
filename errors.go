package schema

import (
	"errors"
	"fmt"

	"github.com/mohae/deepcopy"

	"github.com/aliaksandr-pasynkau/node-verifier-schema/i18n"
)

// Rule names reported by the verification engine itself.
const (
	RuleRequired        = "required"
	RuleType            = "type"
	RuleAvailableFields = "available_fields"
	// RuleUnknown is used when a rule reports "invalid" without details.
	RuleUnknown = "unknown"
)

// Shape names carried in the params of a RuleType failure.
const (
	ShapeArray  = "array"
	ShapeObject = "object"
)

// Construction errors. They are returned (or recorded on the node) while a
// schema is being authored and are never produced by a failing value.
var (
	ErrDuplicateKey        = errors.New("schema: duplicate key")
	ErrObjectDefined       = errors.New("schema: object already defined")
	ErrInvalidName         = errors.New("schema: name must be a non-empty string")
	ErrNilSchema           = errors.New("schema: nil schema")
	ErrNilBuilder          = errors.New("schema: nested builder must be a function")
	ErrAlreadyRegistered   = errors.New("schema: already registered")
	ErrNotRegistered       = errors.New("schema: not registered")
	ErrNilMapper           = errors.New("schema: nil validator mapper")
	ErrInvalidMapperOutput = errors.New("schema: invalid validation rule type after validator mapping")
	ErrInvalidRuleName     = errors.New("schema: rule name must be a non-empty string")
	ErrNotRule             = errors.New("schema: validation is not a rule")
)

// ValidationError is raised by a rule to signal that it failed. It is not
// bound to any value or tree position.
type ValidationError struct {
	RuleName   string
	RuleParams any
}

// NewValidationError builds a ValidationError. The rule name must not be
// empty.
func NewValidationError(ruleName string, ruleParams any) (*ValidationError, error) {
	if ruleName == "" {
		return nil, ErrInvalidRuleName
	}
	return &ValidationError{RuleName: ruleName, RuleParams: ruleParams}, nil
}

// Fail is a shorthand for rules: it returns a *ValidationError, or the
// construction error when ruleName is empty (which the engine reports as a
// logic error rather than a validation failure).
func Fail(ruleName string, ruleParams any) error {
	ve, err := NewValidationError(ruleName, ruleParams)
	if err != nil {
		return err
	}
	return ve
}

func (e *ValidationError) Error() string {
	return i18n.T(e.RuleName, e.RuleParams, nil, nil)
}

// ValidationResultError is a failure of one check at one position of the
// tree, bound to the value that failed.
type ValidationResultError struct {
	ValidationError
	Value any
	// ArrayItemIndex is the index of the array item the failure was found in,
	// nil when the failure is not inside an array item.
	ArrayItemIndex *int
	Path           []string
}

// NewValidationResultError builds a result error. value, ruleParams and path
// are deep-copied so later mutation of the checked value cannot change the
// report.
func NewValidationResultError(ruleName string, ruleParams, value any, path []string) *ValidationResultError {
	p := make([]string, len(path))
	copy(p, path)
	return &ValidationResultError{
		ValidationError: ValidationError{RuleName: ruleName, RuleParams: copyValue(ruleParams)},
		Value:           copyValue(value),
		Path:            p,
	}
}

// WithArrayItemIndex records the array item index and returns e.
func (e *ValidationResultError) WithArrayItemIndex(i int) *ValidationResultError {
	e.ArrayItemIndex = &i
	return e
}

// Pointer renders Path as a JSON Pointer.
func (e *ValidationResultError) Pointer() string { return Pointer(e.Path) }

// Message renders the human readable message through the i18n formatter.
func (e *ValidationResultError) Message() string {
	return i18n.T(e.RuleName, e.RuleParams, e.Path, e.Value)
}

func (e *ValidationResultError) Error() string {
	return fmt.Sprintf("%s at %s: %s", e.RuleName, e.Pointer(), e.Message())
}

// AsResultError extracts a *ValidationResultError using errors.As.
func AsResultError(err error) (*ValidationResultError, bool) {
	var re *ValidationResultError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

func copyValue(v any) any {
	if IsMissing(v) {
		return v
	}
	return deepcopy.Copy(v)
}
