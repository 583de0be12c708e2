// Package schema describes nested data declaratively and verifies runtime
// values against that description.
//
// A schema is a tree of *Schema nodes. Each node says whether a value is
// required, whether it must be an array, which rules it must pass and which
// fields it has. Rules are opaque to this package: a node stores rule
// descriptors, and a Mapper turns them into executable Rules, either once
// with Compile or per call through Options.Validator.
//
// Verification walks the tree strictly in order and stops at the first
// failure. Its outcome is three-way: valid, invalid with a
// *ValidationResultError carrying the failing value and its path, or a logic
// error when a rule or mapper is broken.
//
// Typical usage:
//
//	user := schema.New().Object(func(r, o schema.FieldFunc) {
//	    r("name", "type string")
//	    o("age", "type number")
//	})
//
//	verify, err := user.Compile(rules.Mapper)
//	valid, res, err := verify(ctx, map[string]any{"name": "Al"})
//
// Named schemas live in a Registry and can be reused with ObjectRef and
// ArrayRef. The loader package builds trees from YAML.
package schema
