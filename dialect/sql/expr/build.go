package expr

import "github.com/syssam/veloxmysql/dialect/sql/typemap"

// C returns a column reference.
func C(table, name string, info Info) *Column {
	return &Column{Info: info, Table: table, Name: name}
}

// Const returns a constant typed by m.
func Const(v any, m typemap.Mapping) *Constant {
	info := InfoOf(m)
	info.Nullable = v == nil
	return &Constant{Info: info, Value: v}
}

// Param returns a parameter reference typed by m.
func Param(name string, m typemap.Mapping) *Parameter {
	return &Parameter{Info: InfoOf(m), Name: name}
}

// Func returns a function call.
func Func(name string, info Info, args ...Expr) *Function {
	return &Function{Info: info, Name: name, Args: args}
}

// Raw returns a SQL fragment.
func Raw(sql string, info Info) *Fragment {
	return &Fragment{Info: info, SQL: sql}
}

// True returns the TRUE constant.
func True() *Constant { return &Constant{Info: BoolInfo, Value: true} }

// False returns the FALSE constant.
func False() *Constant { return &Constant{Info: BoolInfo, Value: false} }

// IsBoolConstant reports whether e is a boolean constant with value v.
func IsBoolConstant(e Expr, v bool) bool {
	c, ok := AsConstant(e)
	if !ok {
		return false
	}
	b, ok := c.Value.(bool)
	return ok && b == v
}

// Bin returns a binary operation. Comparison and logical operations are
// typed as booleans, arithmetic takes the type of the left operand.
func Bin(op BinaryOp, left, right Expr) *Binary {
	info := BoolInfo
	if !op.IsComparison() && !op.IsLogical() {
		info = left.TypeInfo()
	}
	info.Nullable = left.TypeInfo().Nullable || right.TypeInfo().Nullable
	return &Binary{Info: info, Op: op, Left: left, Right: right}
}

// Eq returns left = right.
func Eq(left, right Expr) *Binary { return Bin(OpEqual, left, right) }

// Gt returns left > right.
func Gt(left, right Expr) *Binary { return Bin(OpGreater, left, right) }

// And combines the predicates with AND, skipping nil ones.
func And(preds ...Expr) Expr {
	var r Expr
	for _, p := range preds {
		switch {
		case p == nil:
		case r == nil:
			r = p
		default:
			r = Bin(OpAnd, r, p)
		}
	}
	return r
}

// Not returns NOT e.
func Not(e Expr) *Unary {
	return &Unary{Info: BoolInfo, Op: OpNot, Operand: e}
}

// IsNull returns e IS NULL.
func IsNull(e Expr) *Unary {
	return &Unary{Info: BoolInfo, Op: OpIsNull, Operand: e}
}

// From returns a select of all columns from the given sources.
func From(tables ...TableSource) *Select {
	return &Select{Tables: tables}
}

// T returns a table reference.
func T(name, alias string) *Table {
	return &Table{Name: name, Alias: alias}
}
