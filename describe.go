package schema

import "fmt"

// Description is a plain-data view of a schema tree, suitable for printing
// and comparing trees.
type Description struct {
	Required    bool                   `json:"required" yaml:"required"`
	Array       *bool                  `json:"array,omitempty" yaml:"array,omitempty"`
	Strict      bool                   `json:"strict,omitempty" yaml:"strict,omitempty"`
	Validations []any                  `json:"validations,omitempty" yaml:"validations,omitempty"`
	Fields      map[string]Description `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Describe returns the Description of s. Executable rules are rendered by
// their type name.
func (s *Schema) Describe() Description {
	d := Description{Required: !s.optional, Strict: s.strict}
	if s.shape != shapeUnset {
		isArray := s.shape == shapeArray
		d.Array = &isArray
	}
	for _, v := range s.validations {
		if _, ok := asRule(v); ok {
			v = fmt.Sprintf("<rule %T>", v)
		}
		d.Validations = append(d.Validations, v)
	}
	if s.fields != nil {
		d.Fields = make(map[string]Description, len(s.fields))
		for k, f := range s.fields {
			d.Fields[k] = f.Describe()
		}
	}
	return d
}
