package loader_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	schema "github.com/aliaksandr-pasynkau/node-verifier-schema"
	"github.com/aliaksandr-pasynkau/node-verifier-schema/loader"
	"github.com/aliaksandr-pasynkau/node-verifier-schema/rules"
)

const userYAML = `
schema!:
  "=": [type object]
  name: [type string, min_length 2]
  age?: type integer
  tags[]?: [type array]
  note?:
  address:
    city: type string
    zip?: [type string]
  roles[]:
    - type array
    - each: [type string]
`

func TestParse_MatchesBuilder(t *testing.T) {
	reg := schema.NewRegistry()
	got, err := loader.New(reg).Parse([]byte(userYAML))
	require.NoError(t, err)

	want := reg.New().Strict().Validate("type object").Object(func(r, o schema.FieldFunc) {
		r("name", "type string", "min_length 2")
		o("age", "type integer")
		o("tags", "type array").SetArray(true)
		o("note")
		r("address").Object(func(r, o schema.FieldFunc) {
			r("city", "type string")
			o("zip", "type string")
		})
		r("roles", "type array", map[string]any{"each": []any{"type string"}}).SetArray(true)
	})
	require.NoError(t, want.Err())

	if diff := cmp.Diff(want.Describe(), got.Describe()); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_RootFlags(t *testing.T) {
	s, err := loader.New(schema.NewRegistry()).Parse([]byte("schema[]?:\n  id: type integer\n"))
	require.NoError(t, err)
	assert.True(t, s.IsArray())
	assert.False(t, s.IsRequired())
	assert.False(t, s.IsStrict())
	assert.Equal(t, []string{"id"}, s.FieldNames())
}

func TestParse_Ref(t *testing.T) {
	reg := schema.NewRegistry()
	l := loader.New(reg)

	dir := t.TempDir()
	path := filepath.Join(dir, "address.yml")
	require.NoError(t, os.WriteFile(path, []byte("schema:\n  city: type string\n"), 0o600))
	_, err := l.LoadFile(path, "address")
	require.NoError(t, err)

	s, err := l.Parse([]byte("schema:\n  home:\n    $ref: address\n  offices[]?:\n    $ref: address\n"))
	require.NoError(t, err)

	home, ok := s.FieldByName("home")
	require.True(t, ok)
	assert.Equal(t, []string{"city"}, home.FieldNames())
	offices, _ := s.FieldByName("offices")
	assert.True(t, offices.IsArray())
	assert.False(t, offices.IsRequired())
	assert.Equal(t, []string{"city"}, offices.FieldNames())

	_, err = l.Parse([]byte("schema:\n  x:\n    $ref: nope\n"))
	assert.ErrorIs(t, err, schema.ErrNotRegistered)
}

func TestParse_RefKeepsKeyRequiredFlag(t *testing.T) {
	reg := schema.NewRegistry()
	l := loader.New(reg)
	addr, err := l.Parse([]byte("schema?:\n  city: [type string]\n"))
	require.NoError(t, err)
	require.NoError(t, reg.Register("addr", addr))

	s, err := l.Parse([]byte("schema:\n  address:\n    $ref: addr\n"))
	require.NoError(t, err)
	address, ok := s.FieldByName("address")
	require.True(t, ok)
	assert.True(t, address.IsRequired())

	verify, err := s.Compile(rules.Mapper)
	require.NoError(t, err)
	valid, res, err := verify(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.False(t, valid)
	require.NotNil(t, res)
	assert.Equal(t, schema.RuleRequired, res.RuleName)
	assert.Equal(t, []string{"address"}, res.Path)
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]struct {
		doc  string
		want error
	}{
		"empty":            {"", loader.ErrInvalidDocument},
		"not a mapping":    {"- a\n", loader.ErrInvalidDocument},
		"two keys":         {"schema: {}\nother: {}\n", loader.ErrInvalidDocument},
		"bad root key":     {"scheme: {}\n", loader.ErrInvalidKey},
		"bad field key":    {"schema:\n  a[]x: type string\n", loader.ErrInvalidKey},
		"empty field name": {"schema:\n  \"?\": type string\n", loader.ErrInvalidKey},
		"fields under =":   {"schema:\n  \"=\":\n    a: b\n", loader.ErrInvalidDocument},
		"duplicate field":  {"schema:\n  a: x\n  a?: y\n", schema.ErrDuplicateKey},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := loader.New(schema.NewRegistry()).Parse([]byte(tc.doc))
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLoadFile_RegistersAndVerifies(t *testing.T) {
	reg := schema.NewRegistry()
	path := filepath.Join(t.TempDir(), "user.yaml")
	require.NoError(t, os.WriteFile(path, []byte(userYAML), 0o600))

	s, err := loader.New(reg).LoadFile(path, "user")
	require.NoError(t, err)
	got, err := reg.Get("user")
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = loader.New(reg).LoadFile(path, "user")
	assert.ErrorIs(t, err, schema.ErrAlreadyRegistered)

	verify, err := s.Compile(rules.Mapper)
	require.NoError(t, err)
	valid, res, err := verify(context.Background(), map[string]any{
		"name":    "Al",
		"address": map[string]any{"city": "Minsk"},
		"roles":   []any{"admin"},
	})
	require.NoError(t, err)
	assert.True(t, valid, "%v", res)
}
