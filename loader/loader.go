// Package loader builds schemas from a YAML description.
//
// The document is a single mapping whose only key is "schema" followed by
// optional flags. Nested keys name fields and may carry the same flags:
//
//	schema!:
//	  name: [type string, min_length 2]
//	  age?: type integer
//	  tags[]?: [type array]
//	  address:
//	    "=": [type object]
//	    city: type string
//	  friends[]?:
//	    $ref: user
//
// Flags are "[]" (array), "?" (optional) and "!" (strict), in that order.
// Keys made only of "=" hold the validations of the enclosing node. A
// sequence value is a validation list, a scalar a single validation and a
// mapping nested structure. "$ref" copies a schema from the registry.
package loader

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	schema "github.com/aliaksandr-pasynkau/node-verifier-schema"
)

var (
	// ErrInvalidDocument is returned when the document is not a single-key
	// mapping.
	ErrInvalidDocument = errors.New("loader: invalid document")
	// ErrInvalidKey is returned for keys that do not match the key grammar.
	ErrInvalidKey = errors.New("loader: invalid key")
)

var (
	schemaKeyRe = regexp.MustCompile(`^(schema)((?:\[])?)(\??)(!?)$`)
	fieldKeyRe  = regexp.MustCompile(`^([^\[\?!]*)((?:\[])?)(\??)(!?)$`)
	validateRe  = regexp.MustCompile(`^=+$`)
)

const refKey = "$ref"

// Loader builds schemas against a registry.
type Loader struct {
	reg *schema.Registry
}

// New returns a Loader bound to reg; nil means the default registry.
func New(reg *schema.Registry) *Loader {
	if reg == nil {
		reg = schema.DefaultRegistry()
	}
	return &Loader{reg: reg}
}

// LoadFile parses the file at path and, when name is not empty, registers
// the result under name.
func (l *Loader) LoadFile(path, name string) (*schema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := l.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if name != "" {
		if err := l.reg.Register(name, s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Parse builds a schema from YAML bytes.
func (l *Loader) Parse(data []byte) (*schema.Schema, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidDocument)
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode || len(root.Content) != 2 {
		return nil, fmt.Errorf("%w: line %d: expected a mapping with a single schema key", ErrInvalidDocument, root.Line)
	}

	keyNode, body := root.Content[0], root.Content[1]
	m := schemaKeyRe.FindStringSubmatch(keyNode.Value)
	if m == nil {
		return nil, fmt.Errorf("%w: line %d: %q must match %s", ErrInvalidKey, keyNode.Line, keyNode.Value, schemaKeyRe)
	}
	s := l.reg.New()
	l.applyFlags(s, m)
	if err := l.fill(s, body); err != nil {
		return nil, err
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	return s, nil
}

// applyFlags reads the array, optional and strict groups of a key match
// into a flag-only node and merges it into s.
func (l *Loader) applyFlags(s *schema.Schema, m []string) {
	flags := l.reg.New()
	if m[2] != "" {
		flags.SetArray(true)
	}
	if m[3] != "" {
		flags.Optional()
	}
	if m[4] != "" {
		flags.Strict()
	}
	s.Like(flags)
}

func (l *Loader) fill(s *schema.Schema, n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil
		}
		fallthrough
	case yaml.SequenceNode:
		descs, err := descriptors(n)
		if err != nil {
			return err
		}
		s.Validate(descs...)
		return nil
	case yaml.MappingNode:
		return l.structure(s, n)
	case yaml.AliasNode:
		return l.fill(s, n.Alias)
	}
	return fmt.Errorf("%w: line %d: unsupported node", ErrInvalidDocument, n.Line)
}

func (l *Loader) structure(s *schema.Schema, n *yaml.Node) error {
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		switch {
		case validateRe.MatchString(k.Value):
			if v.Kind == yaml.MappingNode {
				return fmt.Errorf("%w: line %d: %q holds validations, not fields", ErrInvalidDocument, k.Line, k.Value)
			}
			if err := l.fill(s, v); err != nil {
				return err
			}
		case k.Value == refKey:
			var name string
			if err := v.Decode(&name); err != nil || name == "" {
				return fmt.Errorf("%w: line %d: %s needs a schema name", ErrInvalidDocument, v.Line, refKey)
			}
			// the key's own optional flag wins over the referenced schema's
			required := s.IsRequired()
			if s.IsArray() {
				s.ArrayRef(name)
			} else {
				s.ObjectRef(name)
			}
			if required {
				s.Required()
			} else {
				s.Optional()
			}
		default:
			m := fieldKeyRe.FindStringSubmatch(k.Value)
			if m == nil || m[1] == "" {
				return fmt.Errorf("%w: line %d: %q must match %s", ErrInvalidKey, k.Line, k.Value, fieldKeyRe)
			}
			child := s.Field(m[1])
			l.applyFlags(child, m)
			if err := l.fill(child, v); err != nil {
				return fmt.Errorf("field %q: %w", m[1], err)
			}
		}
	}
	return nil
}

// descriptors decodes a validation list or a single validation.
func descriptors(n *yaml.Node) ([]any, error) {
	var out []any
	if n.Kind == yaml.SequenceNode {
		if err := n.Decode(&out); err != nil {
			return nil, fmt.Errorf("loader: line %d: %w", n.Line, err)
		}
		return out, nil
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, fmt.Errorf("loader: line %d: %w", n.Line, err)
	}
	return []any{v}, nil
}
