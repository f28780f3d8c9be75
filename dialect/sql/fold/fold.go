// Package fold evaluates LEAST and GREATEST calls on the client. MySQL does
// not accept function calls in LIMIT and OFFSET, so calls whose operands are
// known while a command is built are replaced by their result.
package fold

import (
	"database/sql/driver"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/syssam/veloxmysql/dialect/sql/expr"
)

// Foldable function names.
const (
	Least    = "LEAST"
	Greatest = "GREATEST"
)

// IsFoldable reports whether the function can be evaluated on the client.
func IsFoldable(name string) bool {
	return strings.EqualFold(name, Least) || strings.EqualFold(name, Greatest)
}

// Evaluate evaluates the function over values with integer semantics. NULL
// operands are excluded. It reports false if the function is not foldable,
// all operands are NULL, or an operand is not an integer.
func Evaluate(name string, values []any) (int64, bool) {
	if !IsFoldable(name) {
		return 0, false
	}
	least := strings.EqualFold(name, Least)
	var (
		result int64
		found  bool
	)
	for _, v := range values {
		i, null, ok := toInt(v)
		switch {
		case !ok:
			return 0, false
		case null:
		case !found, least && i < result, !least && i > result:
			result, found = i, true
		}
	}
	return result, found
}

// Function folds fn into a constant typed as fn. Operands are resolved by
// resolve; the call is returned unchanged with false when an operand cannot
// be resolved or Evaluate fails.
func Function(fn *expr.Function, resolve func(expr.Expr) (any, bool)) (expr.Expr, bool) {
	if !IsFoldable(fn.Name) || len(fn.Args) == 0 {
		return fn, false
	}
	values := make([]any, len(fn.Args))
	for i, a := range fn.Args {
		v, ok := resolve(a)
		if !ok {
			return fn, false
		}
		values[i] = v
	}
	r, ok := Evaluate(fn.Name, values)
	if !ok {
		return fn, false
	}
	info := fn.Info
	info.Nullable = false
	return &expr.Constant{Info: info, Value: typed(r, info.Type)}, true
}

// typed converts r to t when t is a numeric type able to hold it.
func typed(r int64, t reflect.Type) any {
	if t == nil {
		return r
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v := reflect.New(t).Elem()
		if v.OverflowInt(r) {
			return r
		}
		v.SetInt(r)
		return v.Interface()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v := reflect.New(t).Elem()
		if r < 0 || v.OverflowUint(uint64(r)) {
			return r
		}
		v.SetUint(uint64(r))
		return v.Interface()
	}
	return r
}

// toInt converts v to an integer. null is set for NULL values.
func toInt(v any) (i int64, null, ok bool) {
	if valuer, isValuer := v.(driver.Valuer); isValuer {
		dv, err := valuer.Value()
		if err != nil {
			return 0, false, false
		}
		if _, isDecimal := v.(decimal.Decimal); !isDecimal {
			v = dv
		}
	}
	if v == nil {
		return 0, true, true
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return 0, true, true
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), false, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if u := rv.Uint(); u <= math.MaxInt64 {
			return int64(u), false, true
		}
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
			return int64(f), false, true
		}
	case reflect.String:
		if i, err := strconv.ParseInt(strings.TrimSpace(rv.String()), 10, 64); err == nil {
			return i, false, true
		}
	case reflect.Struct:
		if d, isDecimal := rv.Interface().(decimal.Decimal); isDecimal && d.IsInteger() && d.Abs().LessThanOrEqual(decimal.NewFromInt(math.MaxInt64)) {
			return d.IntPart(), false, true
		}
	}
	return 0, false, false
}
