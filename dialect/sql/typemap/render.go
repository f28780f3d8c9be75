package typemap

import (
	"database/sql/driver"
	"fmt"
	"reflect"

	"github.com/syssam/veloxmysql"
)

// Null is the SQL NULL literal.
const Null = "NULL"

// Render renders v as a SQL literal. NULL is returned for nil, nil pointers
// and driver.Valuer values producing nil. The mapping of the runtime type of
// v takes precedence over m. Values without any mapping are rendered in
// their default string form, which is not guaranteed to be valid SQL.
func Render(v any, m Mapping, src *Source) string {
	lit, err := render(v, m, src, false)
	if err != nil {
		return fmt.Sprint(v)
	}
	return lit
}

// RenderStrict is like Render but fails with a NoTypeMappingError instead
// of falling back to the default string form.
func RenderStrict(v any, m Mapping, src *Source) (string, error) {
	return render(v, m, src, true)
}

func render(v any, m Mapping, src *Source, strict bool) (string, error) {
	if v == nil {
		return Null, nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return Null, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 && rv.IsNil() {
		return Null, nil
	}
	v = rv.Interface()
	if src != nil {
		if mm := src.FindMapping(rv.Type()); mm != nil {
			return mm.Literal(v), nil
		}
	}
	if valuer, ok := v.(driver.Valuer); ok {
		dv, err := valuer.Value()
		if err != nil {
			return "", fmt.Errorf("typemap: value of %T: %w", v, err)
		}
		if dv == nil {
			return Null, nil
		}
		return render(dv, m, src, strict)
	}
	if m != nil {
		return m.Literal(v), nil
	}
	if strict {
		return "", veloxmysql.NewNoTypeMappingError(rv.Type())
	}
	return fmt.Sprint(v), nil
}
