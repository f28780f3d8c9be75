package query

import (
	"github.com/syssam/veloxmysql/dialect/sql/expr"
	"github.com/syssam/veloxmysql/dialect/sql/typemap"
)

// JSONOrderingPostprocessor settles the form of every JSON_TABLE() built
// with typed columns.
//
// JSON_TABLE() with COLUMNS converts values on the server but does not
// guarantee row order; the raw form (an ordinality column and a JSON value
// column) does. The translator always starts from the typed form ordered by
// the ordinality column. When that ordering was dropped on the way (by
// COUNT, EXISTS, IN or set operations) the typed form is kept without the
// ordinality column. When the ordinality column is still referenced, the
// table is demoted to the raw form and references to its typed columns
// become extractions from the JSON value column.
type JSONOrderingPostprocessor struct {
	JSON typemap.Mapping
}

// Process returns n with every typed JSON_TABLE() settled.
func (p JSONOrderingPostprocessor) Process(n expr.Node) (expr.Node, error) {
	tables := make(map[string]*expr.JSONTable)
	keyRefs := make(map[string]bool)
	expr.Walk(n, func(n expr.Node) bool {
		switch n := n.(type) {
		case *expr.JSONTable:
			if !n.IsRaw() && n.Ordinality {
				tables[n.Alias] = n
			}
		case *expr.Column:
			if n.Name == expr.OrdinalityColumn {
				keyRefs[n.Table] = true
			}
		}
		return true
	})
	if len(tables) == 0 {
		return n, nil
	}
	demoted := make(map[string]*expr.JSONTable)
	for alias, jt := range tables {
		if keyRefs[alias] {
			demoted[alias] = jt
		}
	}
	return p.rewrite(n, tables, demoted)
}

func (p JSONOrderingPostprocessor) rewrite(n expr.Node, tables, demoted map[string]*expr.JSONTable) (expr.Node, error) {
	switch n := n.(type) {
	case *expr.JSONTable:
		r, err := expr.MapChildren(n, func(c expr.Node) (expr.Node, error) {
			return p.rewrite(c, tables, demoted)
		})
		if err != nil {
			return nil, err
		}
		jt := r.(*expr.JSONTable)
		if tables[jt.Alias] != n {
			return jt, nil
		}
		c := *jt
		if demoted[jt.Alias] != nil {
			c.Columns = nil
		} else {
			c.Ordinality = false
		}
		return &c, nil
	case *expr.Column:
		jt := demoted[n.Table]
		if jt == nil || n.Name == expr.OrdinalityColumn {
			return n, nil
		}
		col, ok := jt.Column(n.Name)
		if !ok {
			return n, nil
		}
		info := n.Info
		if col.AsJSON {
			info = expr.InfoOf(p.json())
			info.Nullable = n.Nullable
		}
		value := &expr.Column{Info: expr.InfoOf(p.json()), Table: n.Table, Name: expr.ValueColumn}
		return &expr.JSONScalar{Info: info, JSON: value, Path: col.Path}, nil
	}
	return expr.MapChildren(n, func(c expr.Node) (expr.Node, error) {
		return p.rewrite(c, tables, demoted)
	})
}

func (p JSONOrderingPostprocessor) json() typemap.Mapping {
	if p.JSON == nil {
		return typemap.JSONMapping{}
	}
	return p.JSON
}
