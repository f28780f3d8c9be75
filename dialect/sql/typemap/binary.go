package typemap

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/uuid"
)

var (
	bytesType   = reflect.TypeOf([]byte(nil))
	uuidType    = reflect.TypeOf(uuid.UUID{})
	rawJSONType = reflect.TypeOf(json.RawMessage(nil))
)

// BytesMapping maps []byte to longblob.
type BytesMapping struct{}

// StoreType implements Mapping.
func (BytesMapping) StoreType() string { return "longblob" }

// GoType implements Mapping.
func (BytesMapping) GoType() reflect.Type { return bytesType }

// CastType implements Mapping.
func (BytesMapping) CastType() string { return "binary" }

// Literal implements Mapping.
func (BytesMapping) Literal(v any) string {
	rv, err := convert(v, bytesType)
	if err != nil {
		return fmt.Sprint(v)
	}
	b := rv.Bytes()
	if len(b) == 0 {
		return "X''"
	}
	return "0x" + strings.ToUpper(hex.EncodeToString(b))
}

// Parse implements Mapping.
func (BytesMapping) Parse(lit string) (any, error) {
	s := strings.TrimSpace(lit)
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		s = s[2:]
	case len(s) >= 3 && (s[0] == 'X' || s[0] == 'x') && s[1] == '\'' && s[len(s)-1] == '\'':
		s = s[2 : len(s)-1]
	default:
		return nil, fmt.Errorf("typemap: invalid binary literal %q", lit)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("typemap: parse binary literal: %w", err)
	}
	return b, nil
}

// UUIDMapping maps uuid.UUID to char(36).
type UUIDMapping struct{}

// StoreType implements Mapping.
func (UUIDMapping) StoreType() string { return "char(36)" }

// GoType implements Mapping.
func (UUIDMapping) GoType() reflect.Type { return uuidType }

// CastType implements Mapping.
func (UUIDMapping) CastType() string { return "char(36)" }

// Literal implements Mapping.
func (UUIDMapping) Literal(v any) string {
	switch v := v.(type) {
	case uuid.UUID:
		return "'" + v.String() + "'"
	case *uuid.UUID:
		return "'" + v.String() + "'"
	default:
		return fmt.Sprint(v)
	}
}

// Parse implements Mapping.
func (UUIDMapping) Parse(lit string) (any, error) {
	s, err := unquote(strings.TrimSpace(lit), false)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("typemap: parse uuid literal: %w", err)
	}
	return id, nil
}

// JSONMapping maps json.RawMessage and structural values (structs, maps,
// slices) persisted as a single JSON document.
type JSONMapping struct {
	Type               reflect.Type
	NoBackslashEscapes bool
}

// StoreType implements Mapping.
func (JSONMapping) StoreType() string { return "json" }

// GoType implements Mapping.
func (m JSONMapping) GoType() reflect.Type {
	if m.Type == nil {
		return rawJSONType
	}
	return m.Type
}

// CastType implements Mapping.
func (JSONMapping) CastType() string { return "json" }

// Literal implements Mapping.
func (m JSONMapping) Literal(v any) string {
	var doc []byte
	switch v := v.(type) {
	case json.RawMessage:
		doc = v
	case string:
		doc = []byte(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		doc = b
	}
	return quote(string(doc), m.NoBackslashEscapes)
}

// Parse implements Mapping.
func (m JSONMapping) Parse(lit string) (any, error) {
	s, err := unquote(strings.TrimSpace(lit), m.NoBackslashEscapes)
	if err != nil {
		return nil, err
	}
	t := m.GoType()
	if t == rawJSONType {
		return json.RawMessage(s), nil
	}
	ptr := reflect.New(t)
	if err := json.Unmarshal([]byte(s), ptr.Interface()); err != nil {
		return nil, fmt.Errorf("typemap: parse json literal: %w", err)
	}
	return ptr.Elem().Interface(), nil
}
