package expr

import "fmt"

// Children returns the direct children of n in evaluation order. Nil
// children are omitted.
func Children(n Node) []Node {
	var c []Node
	add := func(ns ...Node) {
		for _, n := range ns {
			if !isNil(n) {
				c = append(c, n)
			}
		}
	}
	addPath := func(path []PathSegment) {
		for _, s := range path {
			if s.Index != nil {
				add(s.Index)
			}
		}
	}
	switch n := n.(type) {
	case *Column, *Constant, *Parameter, *InlinedParameter, *Fragment, *Table:
	case *Function:
		for _, a := range n.Args {
			add(a)
		}
	case *Binary:
		add(n.Left, n.Right)
	case *Unary:
		add(n.Operand)
	case *Exists:
		add(n.Query)
	case *In:
		add(n.Operand, n.Query)
		for _, v := range n.Values {
			add(v)
		}
	case *JSONScalar:
		add(n.JSON)
		addPath(n.Path)
	case *Subquery:
		add(n.Query)
	case *JSONTable:
		add(n.Source)
		addPath(n.Path)
	case *Join:
		add(n.Table, n.On)
	case *SetOperation:
		add(n.Left, n.Right)
	case *Select:
		for _, p := range n.Projection {
			add(p.Expr)
		}
		for _, t := range n.Tables {
			add(t)
		}
		add(n.Predicate)
		for _, g := range n.GroupBy {
			add(g)
		}
		add(n.Having)
		for _, o := range n.Orderings {
			add(o.Expr)
		}
		add(n.Limit, n.Offset)
	case *Delete:
		add(n.Table, n.Select)
	case *Update:
		add(n.Table, n.Select)
		for _, s := range n.Setters {
			add(s.Column, s.Value)
		}
	default:
		panic(fmt.Sprintf("expr: unexpected node %T", n))
	}
	return c
}

// Walk traverses the tree rooted at n in depth-first order. If fn returns
// false the children of the node are skipped.
func Walk(n Node, fn func(Node) bool) {
	if isNil(n) || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}

// Any reports whether fn holds for any node of the tree rooted at n.
func Any(n Node, fn func(Node) bool) bool {
	found := false
	Walk(n, func(n Node) bool {
		if found {
			return false
		}
		found = fn(n)
		return !found
	})
	return found
}

// Part identifies the clause of a select a child belongs to.
type Part uint8

// Select clauses.
const (
	PartNone Part = iota
	PartProjection
	PartTable
	PartPredicate
	PartGroupBy
	PartHaving
	PartOrdering
	PartLimit
	PartOffset
)

// MapChildren rebuilds n with each direct child replaced by fn(child). It
// returns n itself when fn returns every child unchanged.
func MapChildren(n Node, fn func(Node) (Node, error)) (Node, error) {
	m := mapper{fn: func(n Node, _ Part) (Node, error) { return fn(n) }}
	var r Node
	switch n := n.(type) {
	case *Column, *Constant, *Parameter, *InlinedParameter, *Fragment, *Table:
		return n, nil
	case *Function:
		r = n.Update(m.exprs(n.Args))
	case *Binary:
		r = n.Update(m.expr(n.Left), m.expr(n.Right))
	case *Unary:
		r = n.Update(m.expr(n.Operand))
	case *Exists:
		r = n.Update(m.sel(n.Query))
	case *In:
		r = n.Update(m.expr(n.Operand), m.sel(n.Query), m.exprs(n.Values))
	case *JSONScalar:
		r = n.Update(m.expr(n.JSON), m.path(n.Path))
	case *Subquery:
		r = n.Update(m.sel(n.Query))
	case *JSONTable:
		r = n.Update(m.expr(n.Source), m.path(n.Path))
	case *Join:
		r = n.Update(m.table(n.Table), m.expr(n.On))
	case *SetOperation:
		r = n.Update(m.sel(n.Left), m.sel(n.Right))
	case *Select:
		r = m.selectClauses(n)
	case *Delete:
		r = n.Update(m.sel(n.Select))
	case *Update:
		setters := make([]Setter, len(n.Setters))
		for i, s := range n.Setters {
			setters[i] = Setter{Column: s.Column, Value: m.expr(s.Value)}
		}
		if sameSetters(n.Setters, setters) {
			setters = n.Setters
		}
		r = n.Update(m.sel(n.Select), setters)
	default:
		return nil, fmt.Errorf("expr: unexpected node %T", n)
	}
	if m.err != nil {
		return nil, m.err
	}
	return r, nil
}

// MapSelectParts rebuilds the clauses of s with fn, which is told the
// clause each child belongs to.
func MapSelectParts(s *Select, fn func(Node, Part) (Node, error)) (*Select, error) {
	m := mapper{fn: fn}
	r := m.selectClauses(s)
	if m.err != nil {
		return nil, m.err
	}
	return r, nil
}

// mapper applies fn to children, recording the first error.
type mapper struct {
	fn   func(Node, Part) (Node, error)
	part Part
	err  error
}

func (m *mapper) node(n Node) Node {
	if m.err != nil || isNil(n) {
		return n
	}
	r, err := m.fn(n, m.part)
	if err != nil {
		m.err = err
		return n
	}
	return r
}

func (m *mapper) expr(e Expr) Expr {
	if e == nil {
		return nil
	}
	r := m.node(e)
	if isNil(r) {
		return nil
	}
	x, ok := r.(Expr)
	if !ok && m.err == nil {
		m.err = fmt.Errorf("expr: %T is not a scalar expression", r)
		return e
	}
	return x
}

func (m *mapper) exprs(es []Expr) []Expr {
	if len(es) == 0 {
		return es
	}
	out := make([]Expr, len(es))
	for i, e := range es {
		out[i] = m.expr(e)
	}
	if sameExprs(es, out) {
		return es
	}
	return out
}

func (m *mapper) sel(s *Select) *Select {
	if s == nil {
		return nil
	}
	r := m.node(s)
	x, ok := r.(*Select)
	if !ok && m.err == nil {
		m.err = fmt.Errorf("expr: %T is not a select", r)
		return s
	}
	return x
}

func (m *mapper) table(t TableSource) TableSource {
	r := m.node(t)
	x, ok := r.(TableSource)
	if !ok && m.err == nil {
		m.err = fmt.Errorf("expr: %T is not a table source", r)
		return t
	}
	return x
}

func (m *mapper) path(p []PathSegment) []PathSegment {
	if len(p) == 0 {
		return p
	}
	out := make([]PathSegment, len(p))
	for i, s := range p {
		out[i] = s
		if s.Index != nil {
			out[i].Index = m.expr(s.Index)
		}
	}
	if samePath(p, out) {
		return p
	}
	return out
}

func (m *mapper) selectClauses(s *Select) *Select {
	defer func() { m.part = PartNone }()
	m.part = PartProjection
	projection := s.Projection
	if len(projection) > 0 {
		projection = make([]Projection, len(s.Projection))
		for i, p := range s.Projection {
			projection[i] = Projection{Expr: m.expr(p.Expr), Alias: p.Alias}
		}
		if sameProjection(s.Projection, projection) {
			projection = s.Projection
		}
	}
	m.part = PartTable
	tables := s.Tables
	if len(tables) > 0 {
		tables = make([]TableSource, len(s.Tables))
		for i, t := range s.Tables {
			tables[i] = m.table(t)
		}
		if sameTables(s.Tables, tables) {
			tables = s.Tables
		}
	}
	m.part = PartPredicate
	predicate := m.expr(s.Predicate)
	m.part = PartGroupBy
	groupBy := m.exprs(s.GroupBy)
	m.part = PartHaving
	having := m.expr(s.Having)
	m.part = PartOrdering
	orderings := s.Orderings
	if len(orderings) > 0 {
		orderings = make([]Ordering, len(s.Orderings))
		for i, o := range s.Orderings {
			orderings[i] = Ordering{Expr: m.expr(o.Expr), Desc: o.Desc}
		}
		if sameOrderings(s.Orderings, orderings) {
			orderings = s.Orderings
		}
	}
	m.part = PartLimit
	limit := m.expr(s.Limit)
	m.part = PartOffset
	offset := m.expr(s.Offset)
	if m.err != nil {
		return s
	}
	return s.Update(projection, tables, predicate, groupBy, having, orderings, limit, offset)
}

// isNil reports whether n is nil or a typed nil pointer.
func isNil(n Node) bool {
	switch n := n.(type) {
	case nil:
		return true
	case *Select:
		return n == nil
	case *Table:
		return n == nil
	case *Column:
		return n == nil
	}
	return false
}
