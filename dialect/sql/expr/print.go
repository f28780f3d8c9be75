package expr

import (
	"fmt"
	"strings"

	"github.com/syssam/veloxmysql/dialect/sql/typemap"
)

// Print renders n in a stable, SQL like form for diagnostics. Constants are
// printed with their type mapping, parameters by name.
func Print(n Node) string {
	var p printer
	p.node(n)
	return p.String()
}

// PrintKey is like Print but also writes the type information of every
// scalar, so that trees generating different SQL never share a key.
func PrintKey(n Node) string {
	p := printer{typed: true}
	p.node(n)
	return p.String()
}

type printer struct {
	strings.Builder
	typed bool
}

func (p *printer) node(n Node) {
	p.write(n)
	if e, ok := n.(Expr); ok && p.typed {
		p.info(e.TypeInfo())
	}
}

// info writes i as a "::" suffix, e.g. "::typemap.IntMapping(bigint,signed,int64)?"
// for a nullable int64 column.
func (p *printer) info(i Info) {
	p.WriteString("::")
	if i.Mapping != nil {
		fmt.Fprintf(p, "%T(%s,%s)", i.Mapping, i.Mapping.StoreType(), i.Mapping.CastType())
	}
	if i.Type != nil {
		p.WriteString(i.Type.String())
	}
	if i.Nullable {
		p.WriteByte('?')
	}
}

func (p *printer) write(n Node) {
	switch n := n.(type) {
	case nil:
		p.WriteString("<nil>")
	case *Column:
		if n.Table != "" {
			p.WriteString(n.Table)
			p.WriteByte('.')
		}
		p.WriteString(n.Name)
	case *Constant:
		p.WriteString(typemap.Render(n.Value, n.Mapping, nil))
	case *Parameter:
		p.WriteString("@" + n.Name)
	case *InlinedParameter:
		p.WriteString(typemap.Render(n.Value.Value, n.Value.Mapping, nil))
		p.WriteString("/*@" + n.Param.Name + "*/")
	case *Function:
		p.WriteString(n.Name)
		p.WriteByte('(')
		for i, a := range n.Args {
			if i > 0 {
				p.WriteString(", ")
			}
			p.node(a)
		}
		p.WriteByte(')')
	case *Binary:
		p.WriteByte('(')
		p.node(n.Left)
		p.WriteString(" " + n.Op.String() + " ")
		p.node(n.Right)
		p.WriteByte(')')
	case *Unary:
		switch n.Op {
		case OpNot:
			p.WriteString("NOT ")
			p.node(n.Operand)
		case OpNegate:
			p.WriteByte('-')
			p.node(n.Operand)
		case OpIsNull:
			p.node(n.Operand)
			p.WriteString(" IS NULL")
		case OpIsNotNull:
			p.node(n.Operand)
			p.WriteString(" IS NOT NULL")
		}
	case *Exists:
		if n.Not {
			p.WriteString("NOT ")
		}
		p.WriteString("EXISTS (")
		p.node(n.Query)
		p.WriteByte(')')
	case *In:
		p.node(n.Operand)
		if n.Not {
			p.WriteString(" NOT")
		}
		p.WriteString(" IN (")
		if n.Query != nil {
			p.node(n.Query)
		}
		for i, v := range n.Values {
			if i > 0 {
				p.WriteString(", ")
			}
			p.node(v)
		}
		p.WriteByte(')')
	case *JSONScalar:
		p.node(n.JSON)
		p.WriteString(" -> ")
		p.path(n.Path)
	case *Fragment:
		p.WriteString(n.SQL)
	case *Subquery:
		p.WriteByte('(')
		p.node(n.Query)
		p.WriteByte(')')
	case *Table:
		if n.Schema != "" {
			p.WriteString(n.Schema + ".")
		}
		p.WriteString(n.Name)
		if n.Alias != "" && n.Alias != n.Name {
			p.WriteString(" AS " + n.Alias)
		}
	case *JSONTable:
		p.WriteString("JSON_TABLE(")
		p.node(n.Source)
		p.WriteString(", ")
		p.path(n.Path)
		p.WriteString(" COLUMNS (")
		switch {
		case n.IsRaw():
			p.WriteString(OrdinalityColumn + " FOR ORDINALITY, " + ValueColumn + " json")
		default:
			if n.Ordinality {
				p.WriteString(OrdinalityColumn + " FOR ORDINALITY, ")
			}
			for i, c := range n.Columns {
				if i > 0 {
					p.WriteString(", ")
				}
				p.WriteString(c.Name + " ")
				switch {
				case c.AsJSON:
					p.WriteString("json")
				case p.typed:
					p.info(c.Info)
				case c.Info.Mapping != nil:
					p.WriteString(c.Info.Mapping.StoreType())
				}
				p.WriteByte(' ')
				p.path(c.Path)
			}
		}
		p.WriteString(")) AS " + n.Alias)
	case *Join:
		p.WriteString(joinKeywords[n.Kind] + " ")
		p.node(n.Table)
		if n.On != nil {
			p.WriteString(" ON ")
			p.node(n.On)
		}
	case *SetOperation:
		p.WriteByte('(')
		p.node(n.Left)
		p.WriteString(") " + setKeywords[n.Op])
		if !n.Distinct {
			p.WriteString(" ALL")
		}
		p.WriteString(" (")
		p.node(n.Right)
		p.WriteString(") AS " + n.Alias)
	case *Select:
		p.sel(n)
	case *Delete:
		p.WriteString("DELETE ")
		p.node(n.Table)
		p.WriteString(" FROM ")
		p.node(n.Select)
	case *Update:
		p.WriteString("UPDATE ")
		p.node(n.Table)
		p.WriteString(" SET ")
		for i, s := range n.Setters {
			if i > 0 {
				p.WriteString(", ")
			}
			p.node(s.Column)
			p.WriteString(" = ")
			p.node(s.Value)
		}
		p.WriteString(" FROM ")
		p.node(n.Select)
	default:
		fmt.Fprintf(p, "<%T>", n)
	}
}

func (p *printer) path(path []PathSegment) {
	p.WriteByte('$')
	for _, s := range path {
		switch {
		case s.Wildcard:
			p.WriteString("[*]")
		case s.Index != nil:
			p.WriteByte('[')
			p.node(s.Index)
			p.WriteByte(']')
		default:
			p.WriteString("." + s.Property)
		}
	}
}

func (p *printer) sel(s *Select) {
	p.WriteString("SELECT ")
	if s.Distinct {
		p.WriteString("DISTINCT ")
	}
	if len(s.Projection) == 0 {
		p.WriteByte('*')
	}
	for i, pr := range s.Projection {
		if i > 0 {
			p.WriteString(", ")
		}
		p.node(pr.Expr)
		if pr.Alias != "" {
			p.WriteString(" AS " + pr.Alias)
		}
	}
	for i, t := range s.Tables {
		switch {
		case i == 0:
			p.WriteString(" FROM ")
		case isJoin(t):
			p.WriteByte(' ')
		default:
			p.WriteString(", ")
		}
		if sub, ok := t.(*Select); ok {
			p.WriteByte('(')
			p.sel(sub)
			p.WriteString(") AS " + sub.Alias)
			continue
		}
		p.node(t)
	}
	if s.Predicate != nil {
		p.WriteString(" WHERE ")
		p.node(s.Predicate)
	}
	for i, g := range s.GroupBy {
		if i == 0 {
			p.WriteString(" GROUP BY ")
		} else {
			p.WriteString(", ")
		}
		p.node(g)
	}
	if s.Having != nil {
		p.WriteString(" HAVING ")
		p.node(s.Having)
	}
	for i, o := range s.Orderings {
		if i == 0 {
			p.WriteString(" ORDER BY ")
		} else {
			p.WriteString(", ")
		}
		p.node(o.Expr)
		if o.Desc {
			p.WriteString(" DESC")
		}
	}
	if s.Limit != nil {
		p.WriteString(" LIMIT ")
		p.node(s.Limit)
	}
	if s.Offset != nil {
		p.WriteString(" OFFSET ")
		p.node(s.Offset)
	}
}

func isJoin(t TableSource) bool {
	_, ok := t.(*Join)
	return ok
}

var joinKeywords = [...]string{
	InnerJoin:        "INNER JOIN",
	LeftJoin:         "LEFT JOIN",
	CrossJoin:        "CROSS JOIN",
	InnerJoinLateral: "INNER JOIN LATERAL",
	LeftJoinLateral:  "LEFT JOIN LATERAL",
	CrossJoinLateral: "CROSS JOIN LATERAL",
}

// Keyword returns the SQL keywords of the join kind.
func (k JoinKind) Keyword() string { return joinKeywords[k] }

var setKeywords = [...]string{
	Union:     "UNION",
	Intersect: "INTERSECT",
	Except:    "EXCEPT",
}

// Keyword returns the SQL keyword of the set operator.
func (op SetOp) Keyword() string { return setKeywords[op] }
