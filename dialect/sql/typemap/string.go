package typemap

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/syssam/veloxmysql/dialect/sql/sqlscan"
)

// StringMapping maps string kinds.
type StringMapping struct {
	Type  reflect.Type
	Store string
	// NoBackslashEscapes renders literals for the NO_BACKSLASH_ESCAPES mode.
	NoBackslashEscapes bool
	// ReplaceLineBreaks renders line breaks with CHAR(10) and CHAR(13).
	ReplaceLineBreaks bool
}

// StoreType implements Mapping.
func (m StringMapping) StoreType() string {
	if m.Store == "" {
		return "longtext"
	}
	return m.Store
}

// GoType implements Mapping.
func (m StringMapping) GoType() reflect.Type {
	if m.Type == nil {
		return reflect.TypeOf("")
	}
	return m.Type
}

// CastType implements Mapping.
func (StringMapping) CastType() string { return "char" }

// Literal implements Mapping.
func (m StringMapping) Literal(v any) string {
	var s string
	if rv, err := convert(v, reflect.TypeOf("")); err == nil {
		s = rv.String()
	} else {
		s = fmt.Sprint(v)
	}
	if !m.ReplaceLineBreaks || !strings.ContainsAny(s, "\r\n") {
		return quote(s, m.NoBackslashEscapes)
	}
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] != '\n' && s[i] != '\r' {
			continue
		}
		if i > start {
			parts = append(parts, quote(s[start:i], m.NoBackslashEscapes))
		}
		if s[i] == '\n' {
			parts = append(parts, "CHAR(10)")
		} else {
			parts = append(parts, "CHAR(13)")
		}
		start = i + 1
	}
	if start < len(s) {
		parts = append(parts, quote(s[start:], m.NoBackslashEscapes))
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "CONCAT(" + strings.Join(parts, ", ") + ")"
}

// Parse implements Mapping.
func (m StringMapping) Parse(lit string) (any, error) {
	s, err := m.parse(strings.TrimSpace(lit))
	if err != nil {
		return nil, err
	}
	return reflect.ValueOf(s).Convert(m.GoType()).Interface(), nil
}

func (m StringMapping) parse(lit string) (string, error) {
	switch upper := strings.ToUpper(lit); {
	case upper == "CHAR(10)":
		return "\n", nil
	case upper == "CHAR(13)":
		return "\r", nil
	case strings.HasPrefix(upper, "CONCAT(") && strings.HasSuffix(lit, ")"):
		var b strings.Builder
		for _, arg := range splitArgs(lit[len("CONCAT("):len(lit)-1], m.NoBackslashEscapes) {
			s, err := m.parse(strings.TrimSpace(arg))
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		}
		return b.String(), nil
	default:
		return unquote(lit, m.NoBackslashEscapes)
	}
}

// splitArgs splits a function argument list on top-level commas.
func splitArgs(s string, noBackslashEscapes bool) []string {
	var (
		args  []string
		depth int
		start int
	)
	mask := sqlscan.Scanner{NoBackslashEscapes: noBackslashEscapes}.CodeMask(s)
	for i := 0; i < len(s); i++ {
		if !mask[i] {
			continue
		}
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, s[start:i])
				start = i + 1
			}
		}
	}
	return append(args, s[start:])
}

// BoolMapping maps bool kinds to tinyint(1).
type BoolMapping struct {
	Type reflect.Type
}

// StoreType implements Mapping.
func (BoolMapping) StoreType() string { return "tinyint(1)" }

// GoType implements Mapping.
func (m BoolMapping) GoType() reflect.Type {
	if m.Type == nil {
		return reflect.TypeOf(false)
	}
	return m.Type
}

// CastType implements Mapping.
func (BoolMapping) CastType() string { return "signed" }

// Literal implements Mapping.
func (BoolMapping) Literal(v any) string {
	rv, err := convert(v, reflect.TypeOf(false))
	if err != nil {
		return fmt.Sprint(v)
	}
	if rv.Bool() {
		return "TRUE"
	}
	return "FALSE"
}

// Parse implements Mapping.
func (m BoolMapping) Parse(lit string) (any, error) {
	var b bool
	switch strings.ToUpper(strings.TrimSpace(lit)) {
	case "TRUE", "1":
		b = true
	case "FALSE", "0":
	default:
		return nil, fmt.Errorf("typemap: invalid boolean literal %q", lit)
	}
	return reflect.ValueOf(b).Convert(m.GoType()).Interface(), nil
}
