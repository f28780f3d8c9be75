package typemap

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// IntMapping maps signed and unsigned integer kinds.
type IntMapping struct {
	Type reflect.Type
}

var intStoreTypes = map[reflect.Kind]string{
	reflect.Int:    "bigint",
	reflect.Int8:   "tinyint",
	reflect.Int16:  "smallint",
	reflect.Int32:  "int",
	reflect.Int64:  "bigint",
	reflect.Uint:   "bigint unsigned",
	reflect.Uint8:  "tinyint unsigned",
	reflect.Uint16: "smallint unsigned",
	reflect.Uint32: "int unsigned",
	reflect.Uint64: "bigint unsigned",
}

// StoreType implements Mapping.
func (m IntMapping) StoreType() string { return intStoreTypes[m.Type.Kind()] }

// GoType implements Mapping.
func (m IntMapping) GoType() reflect.Type { return m.Type }

// CastType implements Mapping.
func (m IntMapping) CastType() string {
	if isUnsigned(m.Type.Kind()) {
		return "unsigned"
	}
	return "signed"
}

// Literal implements Mapping.
func (m IntMapping) Literal(v any) string {
	rv, err := convert(v, m.Type)
	if err != nil {
		return fmt.Sprint(v)
	}
	if isUnsigned(rv.Kind()) {
		return strconv.FormatUint(rv.Uint(), 10)
	}
	return strconv.FormatInt(rv.Int(), 10)
}

// Parse implements Mapping.
func (m IntMapping) Parse(lit string) (any, error) {
	lit = strings.TrimSpace(lit)
	rv := reflect.New(m.Type).Elem()
	if isUnsigned(m.Type.Kind()) {
		u, err := strconv.ParseUint(lit, 10, m.Type.Bits())
		if err != nil {
			return nil, fmt.Errorf("typemap: parse %v literal: %w", m.Type, err)
		}
		rv.SetUint(u)
		return rv.Interface(), nil
	}
	i, err := strconv.ParseInt(lit, 10, m.Type.Bits())
	if err != nil {
		return nil, fmt.Errorf("typemap: parse %v literal: %w", m.Type, err)
	}
	rv.SetInt(i)
	return rv.Interface(), nil
}

func isUnsigned(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isSigned(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

// FloatMapping maps float32 and float64 kinds. Literals use the exponent
// form so that MySQL reads them as approximate values.
type FloatMapping struct {
	Type reflect.Type
}

// StoreType implements Mapping.
func (m FloatMapping) StoreType() string {
	if m.Type.Kind() == reflect.Float32 {
		return "float"
	}
	return "double"
}

// GoType implements Mapping.
func (m FloatMapping) GoType() reflect.Type { return m.Type }

// CastType implements Mapping.
func (FloatMapping) CastType() string { return "double" }

// Literal implements Mapping.
func (m FloatMapping) Literal(v any) string {
	rv, err := convert(v, m.Type)
	if err != nil {
		return fmt.Sprint(v)
	}
	return strconv.FormatFloat(rv.Float(), 'E', -1, m.Type.Bits())
}

// Parse implements Mapping.
func (m FloatMapping) Parse(lit string) (any, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(lit), m.Type.Bits())
	if err != nil {
		return nil, fmt.Errorf("typemap: parse %v literal: %w", m.Type, err)
	}
	rv := reflect.New(m.Type).Elem()
	rv.SetFloat(f)
	return rv.Interface(), nil
}

// DecimalMapping maps decimal.Decimal.
type DecimalMapping struct {
	Precision, Scale int
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

// StoreType implements Mapping.
func (m DecimalMapping) StoreType() string {
	if m.Precision == 0 {
		return "decimal(65,30)"
	}
	return fmt.Sprintf("decimal(%d,%d)", m.Precision, m.Scale)
}

// GoType implements Mapping.
func (DecimalMapping) GoType() reflect.Type { return decimalType }

// CastType implements Mapping.
func (m DecimalMapping) CastType() string { return m.StoreType() }

// Literal implements Mapping.
func (DecimalMapping) Literal(v any) string {
	switch d := v.(type) {
	case decimal.Decimal:
		return d.String()
	case *decimal.Decimal:
		return d.String()
	default:
		return fmt.Sprint(v)
	}
}

// Parse implements Mapping.
func (DecimalMapping) Parse(lit string) (any, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(lit))
	if err != nil {
		return nil, fmt.Errorf("typemap: parse decimal literal: %w", err)
	}
	return d, nil
}
