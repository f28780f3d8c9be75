package sqlgen

import (
	"strings"

	"github.com/syssam/veloxmysql/dialect/sql/expr"
	"github.com/syssam/veloxmysql/dialect/sql/typemap"
)

// Binding strength of expressions in MySQL. Higher binds tighter.
const (
	precNot        = 3
	precComparison = 4
	precUnary      = 7
	precAtom       = 8
)

func precedence(e expr.Expr) int {
	switch e := e.(type) {
	case *expr.Binary:
		return e.Op.Precedence()
	case *expr.Unary:
		switch e.Op {
		case expr.OpNot:
			return precNot
		case expr.OpNegate:
			return precUnary
		}
		return precComparison
	case *expr.In:
		return precComparison
	case *expr.Fragment:
		// Raw SQL is parenthesized wherever it is an operand.
		return 0
	}
	return precAtom
}

// expr writes e, parenthesized if it binds weaker than minPrec.
func (b *builder) expr(e expr.Expr, minPrec int) {
	if b.err != nil {
		return
	}
	if precedence(e) < minPrec {
		b.WriteByte('(')
		defer b.WriteByte(')')
	}
	switch e := e.(type) {
	case *expr.Column:
		if e.Table != "" {
			b.ident(e.Table)
			b.WriteByte('.')
		}
		b.ident(e.Name)
	case *expr.Constant:
		b.literal(e.Value, e.Mapping)
	case *expr.InlinedParameter:
		b.literal(e.Value.Value, e.Value.Mapping)
	case *expr.Parameter:
		if !b.seen[e.Name] {
			b.seen[e.Name] = true
			b.params = append(b.params, e)
		}
		b.WriteString("@" + e.Name)
	case *expr.Function:
		b.WriteString(e.Name)
		b.WriteByte('(')
		for i, a := range e.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.expr(a, 0)
		}
		b.WriteByte(')')
	case *expr.Binary:
		p := e.Op.Precedence()
		left, right := p, p+1
		switch {
		case e.Op.IsComparison():
			left = p + 1
		case e.Op == expr.OpAnd || e.Op == expr.OpOr || e.Op == expr.OpAdd || e.Op == expr.OpMultiply:
			right = p
		}
		b.expr(e.Left, left)
		b.WriteString(" " + e.Op.String() + " ")
		b.expr(e.Right, right)
	case *expr.Unary:
		switch e.Op {
		case expr.OpNot:
			b.WriteString("NOT ")
			b.expr(e.Operand, precNot+1)
		case expr.OpNegate:
			b.WriteByte('-')
			b.expr(e.Operand, precAtom)
		case expr.OpIsNull:
			b.expr(e.Operand, precComparison+1)
			b.WriteString(" IS NULL")
		case expr.OpIsNotNull:
			b.expr(e.Operand, precComparison+1)
			b.WriteString(" IS NOT NULL")
		}
	case *expr.Exists:
		if e.Not {
			b.WriteString("NOT ")
		}
		b.WriteString("EXISTS (")
		b.sel(e.Query)
		b.WriteByte(')')
	case *expr.In:
		b.in(e)
	case *expr.JSONScalar:
		b.jsonScalar(e)
	case *expr.Fragment:
		b.WriteString(e.SQL)
	case *expr.Subquery:
		b.WriteByte('(')
		b.sel(e.Query)
		b.WriteByte(')')
	default:
		b.fail(e, "unexpected expression %T", e)
	}
}

func (b *builder) in(e *expr.In) {
	if e.Query == nil && len(e.Values) == 0 {
		// x IN () is a syntax error in MySQL.
		if e.Not {
			b.WriteString("TRUE")
		} else {
			b.WriteString("FALSE")
		}
		return
	}
	b.expr(e.Operand, precComparison+1)
	if e.Not {
		b.WriteString(" NOT")
	}
	b.WriteString(" IN (")
	if e.Query != nil {
		b.sel(e.Query)
	}
	for i, v := range e.Values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.expr(v, 0)
	}
	b.WriteByte(')')
}

func (b *builder) literal(v any, m typemap.Mapping) {
	lit, err := b.g.types.Literal(v, m)
	if err != nil {
		if b.err == nil {
			b.err = err
		}
		return
	}
	b.WriteString(lit)
}

// str writes s as a string literal.
func (b *builder) str(s string) {
	b.WriteString(b.g.types.StringMapping().Literal(s))
}

// jsonScalar writes the extraction of a scalar from a JSON document. JSON
// typed values are extracted as JSON, strings are unquoted and other values
// are converted to the cast type of their mapping.
func (b *builder) jsonScalar(e *expr.JSONScalar) {
	cast := "json"
	if e.Mapping != nil {
		cast = e.Mapping.CastType()
	}
	isString := strings.HasPrefix(cast, "char")
	switch {
	case cast == "json":
		b.jsonExtract(e)
	case b.g.supports.JSONValue && b.g.mariaDB:
		// MariaDB's JSON_VALUE() has no RETURNING clause.
		if isString {
			b.jsonFunc("JSON_VALUE", e)
			return
		}
		b.WriteString("CAST(")
		b.jsonFunc("JSON_VALUE", e)
		b.WriteString(" AS " + cast + ")")
	case isString:
		b.WriteString("JSON_UNQUOTE(")
		b.jsonExtract(e)
		b.WriteByte(')')
	case b.g.supports.JSONValue:
		b.WriteString("JSON_VALUE(")
		b.expr(e.JSON, 0)
		b.WriteString(", ")
		b.path(e.Path)
		b.WriteString(" RETURNING " + cast + ")")
	default:
		b.WriteString("CAST(JSON_UNQUOTE(")
		b.jsonExtract(e)
		b.WriteString(") AS " + cast + ")")
	}
}

func (b *builder) jsonExtract(e *expr.JSONScalar) {
	b.jsonFunc("JSON_EXTRACT", e)
}

func (b *builder) jsonFunc(name string, e *expr.JSONScalar) {
	b.WriteString(name + "(")
	b.expr(e.JSON, 0)
	b.WriteString(", ")
	b.path(e.Path)
	b.WriteByte(')')
}

// path writes a JSON path. Paths with array indexes computed on the server
// are assembled with CONCAT().
func (b *builder) path(path []expr.PathSegment) {
	if s, ok := expr.PathString(path); ok {
		b.str(s)
		return
	}
	var (
		parts []func()
		cur   = "$"
	)
	flush := func() {
		if cur != "" {
			lit := cur
			parts = append(parts, func() { b.str(lit) })
			cur = ""
		}
	}
	for _, s := range path {
		if s.Index == nil || s.Wildcard {
			p, _ := expr.PathString([]expr.PathSegment{s})
			cur += strings.TrimPrefix(p, "$")
			continue
		}
		if p, ok := expr.PathString([]expr.PathSegment{s}); ok {
			cur += strings.TrimPrefix(p, "$")
			continue
		}
		cur += "["
		flush()
		idx := s.Index
		parts = append(parts, func() { b.expr(idx, 0) })
		cur = "]"
	}
	flush()
	b.WriteString("CONCAT(")
	for i, p := range parts {
		if i > 0 {
			b.WriteString(", ")
		}
		p()
	}
	b.WriteByte(')')
}

// jsonTable writes a JSON_TABLE() table source. Columns without a mapping
// and the value column of the raw form are JSON.
func (b *builder) jsonTable(t *expr.JSONTable) {
	b.WriteString("JSON_TABLE(")
	b.expr(t.Source, 0)
	b.WriteString(", ")
	b.path(t.Path)
	b.WriteString(" COLUMNS (")
	if t.IsRaw() || t.Ordinality {
		b.ident(expr.OrdinalityColumn)
		b.WriteString(" FOR ORDINALITY")
	}
	if t.IsRaw() {
		b.WriteString(", ")
		b.ident(expr.ValueColumn)
		b.WriteString(" json PATH '$'")
	}
	for i, c := range t.Columns {
		if i > 0 || t.Ordinality {
			b.WriteString(", ")
		}
		b.ident(c.Name)
		typ := "json"
		if !c.AsJSON && c.Info.Mapping != nil {
			typ = c.Info.Mapping.StoreType()
		}
		b.WriteString(" " + typ + " PATH ")
		b.path(c.Path)
	}
	b.WriteString(")) AS ")
	b.ident(t.Alias)
}
