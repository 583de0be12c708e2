// Package source decodes the values handed to the verifier. JSON goes
// through a go-json token stream so duplicate keys are reported instead of
// silently overwritten; YAML goes through yaml.v3. Numbers in JSON stay
// json.Number unless Float64 is set.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	eng "github.com/aliaksandr-pasynkau/node-verifier-schema/internal/engine"
	"github.com/aliaksandr-pasynkau/node-verifier-schema/source/gojson"
)

var (
	// ErrUnknownFormat is returned by ReadFile for unrecognised extensions.
	ErrUnknownFormat = errors.New("source: unknown format")
	// ErrEmptyDocument is returned when the input holds no value.
	ErrEmptyDocument = errors.New("source: empty document")
)

// DuplicateKeyError reports a repeated JSON object key.
type DuplicateKeyError = eng.DuplicateKeyError

// Options controls decoding. Only the first Options passed is used.
type Options struct {
	AllowDuplicates bool
	MaxDepth        int
	Float64         bool
}

func first(opts []Options) Options {
	if len(opts) > 0 {
		return opts[0]
	}
	return Options{}
}

func (o Options) engine() eng.Options {
	out := eng.Options{AllowDuplicates: o.AllowDuplicates, MaxDepth: o.MaxDepth}
	if o.Float64 {
		out.Numbers = eng.NumberFloat64
	}
	return out
}

// JSON decodes a single JSON value.
func JSON(data []byte, opts ...Options) (any, error) {
	return JSONReader(bytes.NewReader(data), opts...)
}

// JSONReader decodes a single JSON value from r.
func JSONReader(r io.Reader, opts ...Options) (any, error) {
	v, err := eng.Decode(gojson.NewReader(r), first(opts).engine())
	if err != nil {
		return nil, fmt.Errorf("source: json: %w", err)
	}
	return v, nil
}

// YAML decodes the first document of data. Mapping keys are converted to
// strings.
func YAML(data []byte) (any, error) {
	var v any
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDocument
		}
		return nil, fmt.Errorf("source: yaml: %w", err)
	}
	return normalize(v), nil
}

// ReadFile decodes path by extension: .json, .yaml or .yml.
func ReadFile(path string, opts ...Options) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON(data, opts...)
	case ".yaml", ".yml":
		return YAML(data)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = normalize(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[fmt.Sprint(k)] = normalize(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = normalize(t[i])
		}
		return out
	}
	return v
}
