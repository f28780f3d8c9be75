package expr

import (
	"strconv"
	"strings"
)

// PathSegment is one step of a JSON path: a property access, an array index
// or an array wildcard.
type PathSegment struct {
	Property string
	Index    Expr
	Wildcard bool
}

// Prop returns a property access segment.
func Prop(name string) PathSegment { return PathSegment{Property: name} }

// Index returns an array index segment.
func Index(i Expr) PathSegment { return PathSegment{Index: i} }

// Wildcard is the segment selecting all array elements.
var Wildcard = PathSegment{Wildcard: true}

// PathString renders path as a MySQL JSON path. It reports false when an
// array index is not a constant.
func PathString(path []PathSegment) (string, bool) {
	var b strings.Builder
	b.WriteByte('$')
	for _, s := range path {
		switch {
		case s.Wildcard:
			b.WriteString("[*]")
		case s.Index != nil:
			i, ok := constInt(s.Index)
			if !ok {
				return "", false
			}
			b.WriteByte('[')
			b.WriteString(strconv.FormatInt(i, 10))
			b.WriteByte(']')
		default:
			b.WriteByte('.')
			b.WriteString(quoteMember(s.Property))
		}
	}
	return b.String(), true
}

// quoteMember quotes a member name unless it is a plain identifier.
func quoteMember(name string) string {
	plain := name != ""
	for i := 0; i < len(name) && plain; i++ {
		c := name[i]
		plain = c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || i > 0 && c >= '0' && c <= '9'
	}
	if plain {
		return name
	}
	return strconv.Quote(name)
}

// constInt returns the integer value of a constant or inlined parameter.
func constInt(e Expr) (int64, bool) {
	c, ok := AsConstant(e)
	if !ok {
		return 0, false
	}
	switch v := c.Value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	}
	return 0, false
}

// AsConstant returns the constant e evaluates to, unwrapping inlined
// parameters.
func AsConstant(e Expr) (*Constant, bool) {
	switch e := e.(type) {
	case *Constant:
		return e, true
	case *InlinedParameter:
		return e.Value, true
	}
	return nil, false
}

func samePath(a, b []PathSegment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
