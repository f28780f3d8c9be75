// Package typemap maps Go types to MySQL store types and renders Go values
// as MySQL literals.
package typemap

import (
	"fmt"
	"reflect"
	"strings"
)

// Mapping converts between a Go type and its MySQL representation.
type Mapping interface {
	// StoreType returns the column type, e.g. "bigint" or "json".
	StoreType() string
	// GoType returns the Go type handled by the mapping.
	GoType() reflect.Type
	// CastType returns the target type used in CAST(... AS type) when a value
	// of this mapping is extracted from a JSON document.
	CastType() string
	// Literal renders a non-nil value as a SQL literal.
	Literal(v any) string
	// Parse parses a literal produced by Literal back into a value of GoType.
	Parse(lit string) (any, error)
}

// convert converts rv to t, dereferencing pointers.
func convert(v any, t reflect.Type) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, fmt.Errorf("typemap: nil %v", rv.Type())
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return reflect.Value{}, fmt.Errorf("typemap: invalid value")
	}
	if rv.Type() == t {
		return rv, nil
	}
	if !rv.Type().ConvertibleTo(t) || t.Kind() == reflect.String && rv.Kind() != reflect.String {
		return reflect.Value{}, fmt.Errorf("typemap: cannot convert %v to %v", rv.Type(), t)
	}
	return rv.Convert(t), nil
}

// unquote parses a quoted MySQL string literal.
func unquote(lit string, noBackslashEscapes bool) (string, error) {
	if len(lit) < 2 || lit[0] != lit[len(lit)-1] || (lit[0] != '\'' && lit[0] != '"') {
		return "", fmt.Errorf("typemap: invalid string literal %q", lit)
	}
	q, body := lit[0], lit[1:len(lit)-1]
	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '\\' && !noBackslashEscapes && i+1 < len(body):
			i++
			b.WriteByte(unescape(body[i]))
		case c == q:
			if i+1 >= len(body) || body[i+1] != q {
				return "", fmt.Errorf("typemap: unescaped quote in literal %q", lit)
			}
			i++
			b.WriteByte(q)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

func unescape(c byte) byte {
	switch c {
	case '0':
		return 0
	case 'b':
		return '\b'
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'Z':
		return 0x1a
	default:
		return c
	}
}

// quote renders s as a single quoted literal.
func quote(s string, noBackslashEscapes bool) string {
	if !noBackslashEscapes {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
