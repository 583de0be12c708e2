package schema

import (
	"errors"
	"fmt"

	"github.com/mohae/deepcopy"
)

type shape int

const (
	shapeUnset shape = iota
	shapeObject
	shapeArray
)

// Schema is one node of a schema tree: whether the value is required,
// whether it must be an array, its own rule descriptors and its nested
// fields.
//
// Builder methods return the node they were called on (or, for Field and
// its shorthands, the new child) so calls compose. A builder call that
// cannot be applied records a construction error on the node; Err reports
// it and Compile/Verify refuse the tree.
type Schema struct {
	optional    bool
	shape       shape
	strict      bool
	fields      map[string]*Schema
	validations []any
	reg         *Registry
	errs        []error
}

// FieldFunc declares a nested field with optional rule descriptors and
// returns it.
type FieldFunc func(name string, descriptors ...any) *Schema

// BuildFunc authors nested structure; it receives helpers declaring required
// and optional fields on the node being built.
type BuildFunc func(required, optional FieldFunc)

func (s *Schema) registry() *Registry {
	if s.reg == nil {
		return defaultRegistry
	}
	return s.reg
}

func (s *Schema) fail(err error) *Schema {
	s.errs = append(s.errs, err)
	return s
}

// Err returns the construction errors recorded on s and its fields.
func (s *Schema) Err() error {
	errs := append([]error(nil), s.errs...)
	for _, k := range sortedKeys(s.fields) {
		if err := s.fields[k].Err(); err != nil {
			errs = append(errs, fmt.Errorf("field %q: %w", k, err))
		}
	}
	return errors.Join(errs...)
}

// AttachTo attaches s to parent under name and returns s.
func (s *Schema) AttachTo(parent *Schema, name string) (*Schema, error) {
	if parent == nil {
		return nil, ErrNilSchema
	}
	if name == "" {
		return nil, fmt.Errorf("%w: invalid field name", ErrInvalidName)
	}
	return parent.attach(s, name)
}

// AttachToNamed resolves parentName in the registry and attaches s to it.
func (s *Schema) AttachToNamed(parentName, name string) (*Schema, error) {
	parent, err := s.registry().Get(parentName)
	if err != nil {
		return nil, err
	}
	return s.AttachTo(parent, name)
}

func (s *Schema) attach(child *Schema, name string) (*Schema, error) {
	if s.fields == nil {
		s.fields = map[string]*Schema{}
	} else if _, ok := s.fields[name]; ok {
		return nil, fmt.Errorf("%w %q", ErrDuplicateKey, name)
	}
	if child.reg == nil {
		child.reg = s.reg
	}
	s.fields[name] = child
	return child, nil
}

// Validate appends rule descriptors. nil descriptors are skipped and []any
// values are flattened, so a loaded list can be passed as is.
func (s *Schema) Validate(descriptors ...any) *Schema {
	for _, d := range descriptors {
		switch v := d.(type) {
		case nil:
		case []any:
			s.Validate(v...)
		default:
			s.validations = append(s.validations, v)
		}
	}
	return s
}

// Object defines nested fields through build.
func (s *Schema) Object(build BuildFunc) *Schema {
	if s.fields != nil {
		return s.fail(ErrObjectDefined)
	}
	if build == nil {
		return s.fail(ErrNilBuilder)
	}
	build(s.RequiredField, s.OptionalField)
	return s
}

// ObjectFrom copies the fields, validations and required flag of src onto s.
func (s *Schema) ObjectFrom(src *Schema) *Schema {
	if s.fields != nil {
		return s.fail(ErrObjectDefined)
	}
	if src == nil {
		return s.fail(ErrNilSchema)
	}
	return s.similar(src)
}

// ObjectRef is ObjectFrom with src looked up in the registry.
func (s *Schema) ObjectRef(name string) *Schema {
	src, err := s.registry().Get(name)
	if err != nil {
		return s.fail(err)
	}
	return s.ObjectFrom(src)
}

// Array marks s as an array. A non-nil build also defines the fields of
// every array item, like Object.
func (s *Schema) Array(build BuildFunc) *Schema {
	if build != nil {
		s.Object(build)
	}
	s.shape = shapeArray
	return s
}

// ArrayFrom is ObjectFrom for array items.
func (s *Schema) ArrayFrom(src *Schema) *Schema {
	s.ObjectFrom(src)
	s.shape = shapeArray
	return s
}

// ArrayRef is ObjectRef for array items.
func (s *Schema) ArrayRef(name string) *Schema {
	s.ObjectRef(name)
	s.shape = shapeArray
	return s
}

// SetArray sets only the array flag.
func (s *Schema) SetArray(isArray bool) *Schema {
	if isArray {
		s.shape = shapeArray
	} else {
		s.shape = shapeObject
	}
	return s
}

// Field creates a required child under name and returns the child.
func (s *Schema) Field(name string) *Schema {
	child := &Schema{reg: s.reg}
	if _, err := child.AttachTo(s, name); err != nil {
		s.fail(err)
	}
	return child
}

// Required marks s as required (the default).
func (s *Schema) Required() *Schema {
	s.optional = false
	return s
}

// Optional marks s as optional: a missing value passes without further
// checks.
func (s *Schema) Optional() *Schema {
	s.optional = true
	return s
}

// RequiredField is Field(name).Validate(descriptors...).
func (s *Schema) RequiredField(name string, descriptors ...any) *Schema {
	return s.Field(name).Validate(descriptors...)
}

// OptionalField is RequiredField for an optional child.
func (s *Schema) OptionalField(name string, descriptors ...any) *Schema {
	return s.Field(name).Validate(descriptors...).Optional()
}

// Strict marks s as strict: excess keys are rejected even when the caller
// asks to ignore them.
func (s *Schema) Strict() *Schema {
	s.strict = true
	return s
}

// Like merges a copy of src into s, including its array and strict flags.
func (s *Schema) Like(src *Schema) *Schema {
	if src == nil {
		return s.fail(ErrNilSchema)
	}
	s.similar(src)
	if src.shape != shapeUnset {
		s.shape = src.shape
	}
	if src.strict {
		s.strict = true
	}
	return s
}

// Clone returns an independent deep copy of s.
func (s *Schema) Clone() *Schema {
	c := &Schema{reg: s.reg}
	c.similar(s)
	c.shape = s.shape
	c.strict = s.strict
	c.errs = append(c.errs, s.errs...)
	return c
}

// similar copies src's fields (cloned), validations (deep-copied) and
// required flag onto s.
func (s *Schema) similar(src *Schema) *Schema {
	for _, k := range sortedKeys(src.fields) {
		if _, err := s.attach(src.fields[k].Clone(), k); err != nil {
			s.fail(err)
		}
	}
	if src.validations != nil {
		s.validations = cloneDescriptors(src.validations)
	}
	s.optional = src.optional
	return s
}

func cloneDescriptors(list []any) []any {
	out := make([]any, len(list))
	for i, d := range list {
		if _, ok := asRule(d); ok {
			out[i] = d
			continue
		}
		out[i] = deepcopy.Copy(d)
	}
	return out
}

// IsRequired reports whether a missing value fails.
func (s *Schema) IsRequired() bool { return !s.optional }

// IsArray reports whether the value must be an array.
func (s *Schema) IsArray() bool { return s.shape == shapeArray }

// ArrayDeclared reports whether the array flag was set explicitly.
func (s *Schema) ArrayDeclared() bool { return s.shape != shapeUnset }

// IsStrict reports whether s rejects excess keys unconditionally.
func (s *Schema) IsStrict() bool { return s.strict }

// HasFields reports whether nested fields are declared.
func (s *Schema) HasFields() bool { return s.fields != nil }

// FieldNames returns the declared field names in ascending order.
func (s *Schema) FieldNames() []string { return sortedKeys(s.fields) }

// FieldByName returns the child declared under name.
func (s *Schema) FieldByName(name string) (*Schema, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Validations returns a copy of the rule descriptor list.
func (s *Schema) Validations() []any {
	if s.validations == nil {
		return nil
	}
	return append([]any(nil), s.validations...)
}
