// Package expr defines the relational expression tree rewritten by the
// query pipeline and rendered by the SQL generator.
//
// The node set is closed: every node type is declared in this package and
// rewrite passes switch exhaustively over it. Nodes are immutable once built.
// Update methods return the receiver when no child changed and otherwise a
// copy that keeps the type information of the original node.
package expr

import (
	"reflect"

	"github.com/syssam/veloxmysql/dialect/sql/typemap"
)

type (
	// Node is implemented by every node of the tree.
	Node interface {
		node()
	}

	// Expr is a scalar expression.
	Expr interface {
		Node
		// TypeInfo returns the type information of the expression.
		TypeInfo() Info
	}

	// TableSource is a relation in the FROM clause.
	TableSource interface {
		Node
		// TableAlias returns the alias the relation is referenced by.
		TableAlias() string
	}
)

// Info carries the Go type, type mapping and nullability of a scalar.
type Info struct {
	Type     reflect.Type
	Mapping  typemap.Mapping
	Nullable bool
}

// InfoOf returns the Info of a non-nullable value typed by m.
func InfoOf(m typemap.Mapping) Info {
	if m == nil {
		return Info{}
	}
	return Info{Type: m.GoType(), Mapping: m}
}

// BoolInfo is the type information of predicates.
var BoolInfo = InfoOf(typemap.BoolMapping{})

// LongInfo is the type information of 64 bit integer results.
var LongInfo = InfoOf(typemap.IntMapping{Type: reflect.TypeOf(int64(0))})

type (
	// Column references a column of a table source.
	Column struct {
		Info
		Table string
		Name  string
	}

	// Constant is a literal value.
	Constant struct {
		Info
		Value any
	}

	// Parameter references a value of the parameter bag.
	Parameter struct {
		Info
		Name string
	}

	// InlinedParameter replaces a parameter whose value was inlined. It keeps
	// the original reference for diagnostics and renders as its constant.
	InlinedParameter struct {
		Info
		Param *Parameter
		Value *Constant
	}

	// Function is a function call.
	Function struct {
		Info
		Name string
		Args []Expr
	}

	// Binary is a binary operation.
	Binary struct {
		Info
		Op          BinaryOp
		Left, Right Expr
	}

	// Unary is a unary operation.
	Unary struct {
		Info
		Op      UnaryOp
		Operand Expr
	}

	// Exists is an EXISTS (or NOT EXISTS) subquery predicate.
	Exists struct {
		Info
		Query *Select
		Not   bool
	}

	// In tests membership of Operand in a subquery or in a value list.
	In struct {
		Info
		Operand Expr
		Query   *Select
		Values  []Expr
		Not     bool
	}

	// JSONScalar extracts the value at Path from a JSON document.
	JSONScalar struct {
		Info
		JSON Expr
		Path []PathSegment
	}

	// Fragment is raw SQL text.
	Fragment struct {
		Info
		SQL string
	}

	// Subquery is a select used as a scalar.
	Subquery struct {
		Info
		Query *Select
	}
)

// BinaryOp is a binary operator.
type BinaryOp uint8

// Binary operators.
const (
	OpEqual BinaryOp = iota
	OpNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
	OpAnd
	OpOr
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
)

var binaryOps = [...]string{
	OpEqual:        "=",
	OpNotEqual:     "<>",
	OpLess:         "<",
	OpLessEqual:    "<=",
	OpGreater:      ">",
	OpGreaterEqual: ">=",
	OpAnd:          "AND",
	OpOr:           "OR",
	OpAdd:          "+",
	OpSubtract:     "-",
	OpMultiply:     "*",
	OpDivide:       "/",
	OpModulo:       "%",
}

// String returns the SQL operator.
func (op BinaryOp) String() string {
	if int(op) < len(binaryOps) {
		return binaryOps[op]
	}
	return "?"
}

// Precedence returns the binding strength of the operator in MySQL. Higher
// binds tighter.
func (op BinaryOp) Precedence() int {
	switch op {
	case OpOr:
		return 1
	case OpAnd:
		return 2
	case OpEqual, OpNotEqual, OpLess, OpLessEqual, OpGreater, OpGreaterEqual:
		return 4
	case OpAdd, OpSubtract:
		return 5
	default:
		return 6
	}
}

// IsComparison reports whether the operator compares its operands.
func (op BinaryOp) IsComparison() bool { return op.Precedence() == 4 }

// IsLogical reports whether the operator is AND or OR.
func (op BinaryOp) IsLogical() bool { return op == OpAnd || op == OpOr }

// UnaryOp is a unary operator.
type UnaryOp uint8

// Unary operators.
const (
	OpNot UnaryOp = iota
	OpNegate
	OpIsNull
	OpIsNotNull
)

func (*Column) node()           {}
func (*Constant) node()         {}
func (*Parameter) node()        {}
func (*InlinedParameter) node() {}
func (*Function) node()         {}
func (*Binary) node()           {}
func (*Unary) node()            {}
func (*Exists) node()           {}
func (*In) node()               {}
func (*JSONScalar) node()       {}
func (*Fragment) node()         {}
func (*Subquery) node()         {}

// TypeInfo implements Expr.
func (i Info) TypeInfo() Info { return i }

// Update returns a function call with the given arguments.
func (f *Function) Update(args []Expr) *Function {
	if sameExprs(f.Args, args) {
		return f
	}
	return &Function{Info: f.Info, Name: f.Name, Args: args}
}

// Update returns a binary operation with the given operands.
func (b *Binary) Update(left, right Expr) *Binary {
	if b.Left == left && b.Right == right {
		return b
	}
	return &Binary{Info: b.Info, Op: b.Op, Left: left, Right: right}
}

// Update returns a unary operation with the given operand.
func (u *Unary) Update(operand Expr) *Unary {
	if u.Operand == operand {
		return u
	}
	return &Unary{Info: u.Info, Op: u.Op, Operand: operand}
}

// Update returns an EXISTS predicate over the given query.
func (e *Exists) Update(q *Select) *Exists {
	if e.Query == q {
		return e
	}
	return &Exists{Info: e.Info, Query: q, Not: e.Not}
}

// Update returns an IN predicate with the given children.
func (in *In) Update(operand Expr, q *Select, values []Expr) *In {
	if in.Operand == operand && in.Query == q && sameExprs(in.Values, values) {
		return in
	}
	return &In{Info: in.Info, Operand: operand, Query: q, Values: values, Not: in.Not}
}

// Update returns a JSON extraction with the given document and path.
func (j *JSONScalar) Update(json Expr, path []PathSegment) *JSONScalar {
	if j.JSON == json && samePath(j.Path, path) {
		return j
	}
	return &JSONScalar{Info: j.Info, JSON: json, Path: path}
}

// Update returns a scalar subquery over the given query.
func (s *Subquery) Update(q *Select) *Subquery {
	if s.Query == q {
		return s
	}
	return &Subquery{Info: s.Info, Query: q}
}

// Unwrap returns the constant the parameter was inlined to.
func (p *InlinedParameter) Unwrap() *Constant { return p.Value }

func sameExprs(a, b []Expr) bool {
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
