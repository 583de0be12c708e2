package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	j "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aliaksandr-pasynkau/node-verifier-schema/i18n"
)

const userSchema = `
schema:
  name: [type string, min_length 2]
  age?: [type integer, min_value 16]
  address?:
    $ref: address
`

const addressSchema = `
schema:
  city: type string
`

type fixture struct {
	dir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	t.Cleanup(i18n.Reset)
	f := &fixture{dir: t.TempDir()}
	f.write(t, "user.yml", userSchema)
	f.write(t, "address.yml", addressSchema)
	return f
}

func (f *fixture) write(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func (f *fixture) path(name string) string { return filepath.Join(f.dir, name) }

func execute(stdin string, args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = run(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestCheck_Valid(t *testing.T) {
	f := newFixture(t)
	f.write(t, "ok.json", `{"name":"Al","age":20,"address":{"city":"Minsk"}}`)

	code, out, _ := execute("", "check",
		"--schema", f.path("user.yml"),
		"--data", f.path("ok.json"),
		"--ref", "address="+f.path("address.yml"))
	assert.Equal(t, exitValid, code)
	assert.Equal(t, "valid\n", out)
}

func TestCheck_Invalid(t *testing.T) {
	f := newFixture(t)
	f.write(t, "bad.yaml", "name: Al\naddress:\n  city: 7\n")

	code, out, _ := execute("", "check",
		"--schema", f.path("user.yml"),
		"--data", f.path("bad.yaml"),
		"--ref", "address="+f.path("address.yml"))
	assert.Equal(t, exitInvalid, code)
	assert.Equal(t, "invalid: /address/city: invalid type, expected string\n", out)
}

func TestCheck_JSONFormatAndStdin(t *testing.T) {
	f := newFixture(t)
	f.write(t, "flat.yml", "schema:\n  name: type string\n")

	code, out, _ := execute(`{"name":"Al","extra":1}`, "check",
		"--schema", f.path("flat.yml"), "--data", "-", "--format", "json")
	assert.Equal(t, exitInvalid, code)

	var r report
	require.NoError(t, j.Unmarshal([]byte(out), &r))
	assert.False(t, r.Valid)
	assert.Equal(t, "available_fields", r.Rule)
	assert.Equal(t, "/", r.Pointer)

	code, _, _ = execute(`{"name":"Al","extra":1}`, "check",
		"--schema", f.path("flat.yml"), "--data", "-", "--ignore-excess")
	assert.Equal(t, exitValid, code)
}

func TestCheck_DuplicateKey(t *testing.T) {
	f := newFixture(t)
	f.write(t, "flat.yml", "schema:\n  name: type string\n")

	code, out, _ := execute(`{"name":"a","name":"b"}`, "check",
		"--schema", f.path("flat.yml"), "--data", "-")
	assert.Equal(t, exitInvalid, code)
	assert.Equal(t, "invalid: /: duplicate key\n", out)

	code, _, _ = execute(`{"name":"a","name":"b"}`, "check",
		"--schema", f.path("flat.yml"), "--data", "-", "--allow-duplicate-keys")
	assert.Equal(t, exitValid, code)
}

func TestCheck_ConfigFile(t *testing.T) {
	f := newFixture(t)
	f.write(t, "verifier.yml", "lang: ja\nschemas:\n  address: address.yml\n")
	f.write(t, "bad.json", `{"address":{"city":"Minsk"}}`)

	code, out, _ := execute("", "check",
		"--config", f.path("verifier.yml"),
		"--schema", f.path("user.yml"),
		"--data", f.path("bad.json"))
	assert.Equal(t, exitInvalid, code)
	assert.Equal(t, "invalid: /name: 必須フィールドが不足しています\n", out)
}

func TestCheck_RefsLoadedInDependencyOrder(t *testing.T) {
	f := newFixture(t)
	f.write(t, "team.yml", "schema:\n  members[]:\n    $ref: a_user\n")
	f.write(t, "team.json", `{"members":[{"name":"Al","address":{"city":"Minsk"}}]}`)

	// a_user sorts before address but references it.
	code, out, errOut := execute("", "check",
		"--schema", f.path("team.yml"),
		"--data", f.path("team.json"),
		"--ref", "a_user="+f.path("user.yml"),
		"--ref", "address="+f.path("address.yml"))
	assert.Equal(t, exitValid, code, errOut)
	assert.Equal(t, "valid\n", out)
}

func TestCheck_Errors(t *testing.T) {
	f := newFixture(t)
	f.write(t, "ok.json", `{"name":"Al"}`)
	f.write(t, "unknown.yml", "schema:\n  name: [shiny]\n")

	cases := map[string][]string{
		"missing flag":    {"check", "--schema", f.path("user.yml")},
		"unresolved ref":  {"check", "--schema", f.path("user.yml"), "--data", f.path("ok.json")},
		"unknown rule":    {"check", "--schema", f.path("unknown.yml"), "--data", f.path("ok.json")},
		"ref cannot load": {"check", "--ref", "u="+f.path("user.yml"), "--schema", f.path("user.yml"), "--data", f.path("ok.json")},
		"missing data":    {"check", "--schema", f.path("unknown.yml"), "--data", f.path("nope.json")},
		"bad format":      {"check", "--schema", f.path("user.yml"), "--data", f.path("ok.json"), "--format", "xml"},
		"bad log level":   {"check", "--log-level", "loud", "--schema", f.path("user.yml"), "--data", f.path("ok.json")},
		"unknown command": {"frobnicate"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			code, _, errOut := execute("", args...)
			assert.Equal(t, exitError, code)
			assert.True(t, strings.HasPrefix(errOut, "error: "), errOut)
		})
	}
}

func TestPrint(t *testing.T) {
	f := newFixture(t)
	f.write(t, "flat.yml", "schema!:\n  tags[]?: [type array]\n")

	code, out, _ := execute("", "print", "--schema", f.path("flat.yml"))
	require.Equal(t, exitValid, code)
	assert.Equal(t, `required: true
strict: true
fields:
    tags:
        required: false
        array: true
        validations:
            - type array
`, out)

	code, out, _ = execute("", "print", "--schema", f.path("flat.yml"), "--format", "json")
	require.Equal(t, exitValid, code)
	assert.Contains(t, out, `"strict": true`)
}
