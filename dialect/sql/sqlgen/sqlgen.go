// Package sqlgen generates MySQL command text from expression trees.
package sqlgen

import (
	"fmt"
	"strings"

	"github.com/syssam/veloxmysql"
	"github.com/syssam/veloxmysql/dialect"
	"github.com/syssam/veloxmysql/dialect/sql/expr"
	"github.com/syssam/veloxmysql/dialect/sql/query"
	"github.com/syssam/veloxmysql/dialect/sql/sqlcmd"
	"github.com/syssam/veloxmysql/dialect/sql/typemap"
)

// MaxLimit is the row count written when a select has an OFFSET but no
// LIMIT, which MySQL does not accept on its own.
const MaxLimit = "18446744073709551610"

// Generator generates command text for one server configuration. It is safe
// for concurrent use.
type Generator struct {
	types    *typemap.Source
	supports dialect.Supports
	mariaDB  bool
}

// New returns a Generator for the given options.
func New(opts *dialect.Options, src *typemap.Source) *Generator {
	if opts == nil {
		opts, _ = dialect.NewOptions()
	}
	if src == nil {
		src = typemap.NewSource(opts)
	}
	return &Generator{types: src, supports: opts.Supports(), mariaDB: opts.ServerVersion.IsMariaDB()}
}

// Generate returns the command for n. Parameters are rendered as "@name"
// references and listed in order of first appearance, with their values
// taken from bag. A nil bag leaves the values unset.
func (g *Generator) Generate(n expr.Node, bag *query.ParameterBag) (sqlcmd.Command, error) {
	b := &builder{g: g, seen: make(map[string]bool)}
	b.statement(n)
	if b.err != nil {
		return sqlcmd.Command{}, b.err
	}
	cmd := sqlcmd.Command{Text: b.String()}
	for _, p := range b.params {
		cmd.Parameters = append(cmd.Parameters, sqlcmd.Parameter{Name: p.Name, Mapping: p.Mapping})
	}
	if bag == nil {
		return cmd, nil
	}
	return WithValues(cmd, bag)
}

// WithValues returns a copy of cmd with the parameter values taken from bag.
func WithValues(cmd sqlcmd.Command, bag *query.ParameterBag) (sqlcmd.Command, error) {
	cmd = cmd.Clone()
	for i, p := range cmd.Parameters {
		v, ok := bag.Get(p.Name)
		if !ok {
			return sqlcmd.Command{}, veloxmysql.NewParameterNotFoundError(p.Name)
		}
		cmd.Parameters[i].Value = v
	}
	return cmd, nil
}

// builder accumulates the text of one command.
type builder struct {
	strings.Builder
	g      *Generator
	params []*expr.Parameter
	seen   map[string]bool
	err    error
}

func (b *builder) fail(n expr.Node, format string, args ...any) {
	if b.err == nil {
		b.err = veloxmysql.NewTranslationError(expr.Print(n), fmt.Sprintf(format, args...))
	}
}

// ident writes a backtick quoted identifier.
func (b *builder) ident(s string) {
	b.WriteByte('`')
	b.WriteString(strings.ReplaceAll(s, "`", "``"))
	b.WriteByte('`')
}

func (b *builder) statement(n expr.Node) {
	switch n := n.(type) {
	case *expr.Select:
		b.sel(n)
	case *expr.SetOperation:
		b.setOp(n)
	case *expr.Delete:
		b.delete(n)
	case *expr.Update:
		b.update(n)
	case expr.Expr:
		b.WriteString("SELECT ")
		b.expr(n, 0)
	default:
		b.fail(n, "%T is not a statement", n)
	}
}

func (b *builder) sel(s *expr.Select) {
	b.WriteString("SELECT ")
	if s.Distinct {
		b.WriteString("DISTINCT ")
	}
	if len(s.Projection) == 0 {
		b.WriteByte('*')
	}
	for i, p := range s.Projection {
		if i > 0 {
			b.WriteString(", ")
		}
		b.expr(p.Expr, 0)
		if c, ok := p.Expr.(*expr.Column); p.Alias != "" && (!ok || c.Name != p.Alias) {
			b.WriteString(" AS ")
			b.ident(p.Alias)
		}
	}
	if len(s.Tables) > 0 {
		b.WriteString(" FROM ")
		b.tables(s.Tables)
	}
	b.where(s.Predicate)
	for i, e := range s.GroupBy {
		if i == 0 {
			b.WriteString(" GROUP BY ")
		} else {
			b.WriteString(", ")
		}
		b.expr(e, 0)
	}
	if s.Having != nil {
		b.WriteString(" HAVING ")
		b.expr(s.Having, 0)
	}
	b.orderBy(s.Orderings)
	b.limit(s.Limit, s.Offset)
}

func (b *builder) where(pred expr.Expr) {
	if pred != nil {
		b.WriteString(" WHERE ")
		b.expr(pred, 0)
	}
}

func (b *builder) orderBy(orderings []expr.Ordering) {
	for i, o := range orderings {
		if i == 0 {
			b.WriteString(" ORDER BY ")
		} else {
			b.WriteString(", ")
		}
		b.expr(o.Expr, 0)
		if o.Desc {
			b.WriteString(" DESC")
		}
	}
}

func (b *builder) limit(limit, offset expr.Expr) {
	switch {
	case limit != nil:
		b.WriteString(" LIMIT ")
		b.expr(limit, 0)
	case offset != nil:
		b.WriteString(" LIMIT " + MaxLimit)
	}
	if offset != nil {
		b.WriteString(" OFFSET ")
		b.expr(offset, 0)
	}
}

func (b *builder) setOp(s *expr.SetOperation) {
	b.WriteByte('(')
	b.sel(s.Left)
	b.WriteString(") ")
	b.WriteString(s.Op.Keyword())
	if !s.Distinct {
		b.WriteString(" ALL")
	}
	b.WriteString(" (")
	b.sel(s.Right)
	b.WriteByte(')')
}

func (b *builder) delete(d *expr.Delete) {
	b.WriteString("DELETE ")
	b.ident(d.Table.TableAlias())
	b.WriteString(" FROM ")
	b.tables(d.Select.Tables)
	b.where(d.Select.Predicate)
}

func (b *builder) update(u *expr.Update) {
	b.WriteString("UPDATE ")
	b.tables(u.Select.Tables)
	b.WriteString(" SET ")
	for i, s := range u.Setters {
		if i > 0 {
			b.WriteString(", ")
		}
		b.expr(s.Column, 0)
		b.WriteString(" = ")
		b.expr(s.Value, 0)
	}
	b.where(u.Select.Predicate)
	if u.Select.Limit != nil {
		if len(u.Select.Tables) > 1 {
			b.fail(u, "MySQL does not support LIMIT in multiple table UPDATE")
			return
		}
		b.limit(u.Select.Limit, nil)
	}
}

func (b *builder) tables(ts []expr.TableSource) {
	for i, t := range ts {
		if _, ok := t.(*expr.Join); !ok && i > 0 {
			b.WriteString(", ")
		}
		b.table(t)
	}
}

func (b *builder) table(t expr.TableSource) {
	switch t := t.(type) {
	case *expr.Table:
		if t.Schema != "" {
			b.ident(t.Schema)
			b.WriteByte('.')
		}
		b.ident(t.Name)
		if t.Alias != "" && t.Alias != t.Name {
			b.WriteString(" AS ")
			b.ident(t.Alias)
		}
	case *expr.Select:
		b.WriteByte('(')
		b.sel(t)
		b.WriteByte(')')
		b.alias(t, t.Alias)
	case *expr.SetOperation:
		b.WriteByte('(')
		b.setOp(t)
		b.WriteByte(')')
		b.alias(t, t.Alias)
	case *expr.JSONTable:
		b.jsonTable(t)
	case *expr.Join:
		b.WriteByte(' ')
		b.WriteString(t.Kind.Keyword())
		b.WriteByte(' ')
		b.table(t.Table)
		switch {
		case t.On != nil:
			b.WriteString(" ON ")
			b.expr(t.On, 0)
		case t.Kind == expr.LeftJoin || t.Kind == expr.LeftJoinLateral:
			b.WriteString(" ON TRUE")
		}
	default:
		b.fail(t, "unexpected table source %T", t)
	}
}

// alias writes the alias required by derived tables.
func (b *builder) alias(n expr.Node, alias string) {
	if alias == "" {
		b.fail(n, "derived table without alias")
		return
	}
	b.WriteString(" AS ")
	b.ident(alias)
}
