package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

// Token is one streaming token.
type Token struct {
	Kind   Kind
	String string
	Number string
	Bool   bool
}

// TokenSource is the minimal interface required by the decoder.
type TokenSource interface {
	NextToken() (Token, error)
}

var (
	// ErrTrailingData is returned when input continues after the first value.
	ErrTrailingData = errors.New("engine: trailing data after value")
	// ErrMaxDepth is returned when nesting exceeds Options.MaxDepth.
	ErrMaxDepth = errors.New("engine: max depth exceeded")
)

// DuplicateKeyError reports an object key seen twice. Pointer locates the
// object holding the key.
type DuplicateKeyError struct {
	Key     string
	Pointer string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key %q at %s", e.Key, e.Pointer)
}

// NumberMode selects the Go type of decoded numbers.
type NumberMode int

const (
	// NumberJSONNumber keeps numbers as json.Number.
	NumberJSONNumber NumberMode = iota
	// NumberFloat64 converts numbers to float64.
	NumberFloat64
)

// Options controls Decode. The zero value rejects duplicate keys, keeps
// json.Number and places no depth limit.
type Options struct {
	AllowDuplicates bool
	Numbers         NumberMode
	MaxDepth        int
}

// Decode builds a value from src: map[string]any, []any, string,
// json.Number or float64, bool and nil. Exactly one value must be present.
func Decode(src TokenSource, opt Options) (any, error) {
	d := &decoder{src: src, opt: opt}
	tok, err := src.NextToken()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	v, err := d.value(tok)
	if err != nil {
		return nil, err
	}
	if _, err := src.NextToken(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, err
		}
		return nil, ErrTrailingData
	}
	return v, nil
}

type decoder struct {
	src   TokenSource
	opt   Options
	path  []string
	depth int
}

func (d *decoder) next() (Token, error) {
	tok, err := d.src.NextToken()
	if errors.Is(err, io.EOF) {
		return Token{}, io.ErrUnexpectedEOF
	}
	return tok, err
}

func (d *decoder) value(tok Token) (any, error) {
	switch tok.Kind {
	case KindBeginObject:
		return d.nested(d.object)
	case KindBeginArray:
		return d.nested(d.array)
	case KindString:
		return tok.String, nil
	case KindNumber:
		if d.opt.Numbers == NumberFloat64 {
			return strconv.ParseFloat(tok.Number, 64)
		}
		return json.Number(tok.Number), nil
	case KindBool:
		return tok.Bool, nil
	case KindNull:
		return nil, nil
	}
	return nil, fmt.Errorf("engine: unexpected token kind %d at %s", tok.Kind, pointer(d.path))
}

func (d *decoder) nested(fn func() (any, error)) (any, error) {
	d.depth++
	defer func() { d.depth-- }()
	if d.opt.MaxDepth > 0 && d.depth > d.opt.MaxDepth {
		return nil, fmt.Errorf("%w at %s", ErrMaxDepth, pointer(d.path))
	}
	return fn()
}

func (d *decoder) object() (any, error) {
	m := make(map[string]any)
	for {
		tok, err := d.next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndObject {
			return m, nil
		}
		if tok.Kind != KindKey {
			return nil, fmt.Errorf("engine: expected key at %s", pointer(d.path))
		}
		if _, dup := m[tok.String]; dup && !d.opt.AllowDuplicates {
			return nil, &DuplicateKeyError{Key: tok.String, Pointer: pointer(d.path)}
		}
		vt, err := d.next()
		if err != nil {
			return nil, err
		}
		d.path = append(d.path, tok.String)
		v, err := d.value(vt)
		d.path = d.path[:len(d.path)-1]
		if err != nil {
			return nil, err
		}
		m[tok.String] = v
	}
}

func (d *decoder) array() (any, error) {
	arr := []any{}
	for {
		tok, err := d.next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndArray {
			return arr, nil
		}
		d.path = append(d.path, strconv.Itoa(len(arr)))
		v, err := d.value(tok)
		d.path = d.path[:len(d.path)-1]
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func pointer(path []string) string {
	if len(path) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, p := range path {
		b.WriteByte('/')
		b.WriteString(pointerEscaper.Replace(p))
	}
	return b.String()
}
