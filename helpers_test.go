package schema_test

import (
	"context"
	"errors"
	"fmt"
	"strings"

	schema "github.com/aliaksandr-pasynkau/node-verifier-schema"
)

// typeRule accepts values of the named kind ("string", "number", "object").
func typeRule(kind string) schema.Rule {
	return schema.RuleFunc(func(_ context.Context, v any) error {
		ok := false
		switch kind {
		case "string":
			_, ok = v.(string)
		case "number":
			switch v.(type) {
			case int, int64, float64:
				ok = true
			}
		case "object":
			_, ok = v.(map[string]any)
		}
		if !ok {
			return schema.Fail("type", kind)
		}
		return nil
	})
}

// testMapper understands "type <kind>" descriptors only.
func testMapper(descs []any, _ schema.Options) (any, error) {
	out := make([]schema.Rule, 0, len(descs))
	for _, d := range descs {
		s, ok := d.(string)
		if !ok || !strings.HasPrefix(s, "type ") {
			return nil, fmt.Errorf("unsupported descriptor %v", d)
		}
		out = append(out, typeRule(strings.TrimPrefix(s, "type ")))
	}
	return out, nil
}

// counter counts how many times it was checked and always passes.
type counter struct{ n int }

func (c *counter) Check(context.Context, any) error {
	c.n++
	return nil
}

func failing(name string) schema.Rule {
	return schema.RuleFunc(func(context.Context, any) error { return schema.Fail(name, nil) })
}

func mustNotRun() schema.Rule {
	return schema.RuleFunc(func(context.Context, any) error {
		return errors.New("rule must not run")
	})
}

func personSchema(reg *schema.Registry) *schema.Schema {
	return reg.New().Object(func(r, o schema.FieldFunc) {
		r("name", typeRule("string"))
		o("age", typeRule("number"))
	})
}
