package schema

import (
	"context"
	"fmt"
)

// Verifier checks a value against a compiled schema.
type Verifier func(ctx context.Context, value any) (valid bool, res *ValidationResultError, err error)

// Compile clones s and rewrites the rule descriptors of every node through
// m, children first. The returned Verifier runs against the frozen clone, so
// later changes to s do not affect it.
func (s *Schema) Compile(m Mapper, opts ...Options) (Verifier, error) {
	if m == nil {
		return nil, ErrNilMapper
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	o := mergeOptions(opts)
	c := s.Clone()
	if err := c.compile(m, o); err != nil {
		return nil, err
	}
	// descriptors are already rules
	vo := o
	vo.Validator = nil
	return func(ctx context.Context, value any) (bool, *ValidationResultError, error) {
		return Verify(ctx, c, value, vo)
	}, nil
}

func (s *Schema) compile(m Mapper, o Options) error {
	for _, k := range sortedKeys(s.fields) {
		if err := s.fields[k].compile(m, o); err != nil {
			return fmt.Errorf("field %q: %w", k, err)
		}
	}
	out, err := m(cloneDescriptors(s.validations), o)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	rules, err := normalizeRules(out)
	if err != nil {
		return err
	}
	s.validations = rules
	return nil
}
