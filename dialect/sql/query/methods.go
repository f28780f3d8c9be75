package query

import (
	"github.com/syssam/veloxmysql"
	"github.com/syssam/veloxmysql/dialect/sql/expr"
)

// Where filters s by pred.
func (t *Translator) Where(s *expr.Select, pred expr.Expr) (*expr.Select, error) {
	if s.Limit != nil || s.Offset != nil || s.Distinct || len(s.GroupBy) > 0 {
		return nil, veloxmysql.NewTranslationError(expr.Print(pred), "predicate after LIMIT, OFFSET, DISTINCT or GROUP BY requires a subquery projection")
	}
	return s.WithPredicate(expr.And(s.Predicate, pred)), nil
}

// Skip skips the first n rows of s.
func (t *Translator) Skip(s *expr.Select, n expr.Expr) *expr.Select {
	if s.Limit != nil {
		s = t.pushdown(s)
	}
	offset := n
	if s.Offset != nil {
		offset = expr.Bin(expr.OpAdd, s.Offset, n)
	}
	return s.WithLimit(s.Limit, offset)
}

// Take limits s to n rows. Taking from a limited select keeps the smaller
// of both limits.
func (t *Translator) Take(s *expr.Select, n expr.Expr) *expr.Select {
	limit := n
	if s.Limit != nil {
		limit = expr.Func("LEAST", n.TypeInfo(), s.Limit, n)
	}
	return s.WithLimit(limit, s.Offset)
}

// ElementAt returns the element of s at position index. An index into a
// bare JSON array becomes a JSON extraction; otherwise the ordered select is
// limited to one row at the given offset.
func (t *Translator) ElementAt(s *expr.Select, index expr.Expr) (expr.Expr, error) {
	if len(s.Projection) != 1 {
		return nil, veloxmysql.NewTranslationError(expr.Print(s), "element access requires a single projected value")
	}
	value := s.Projection[0].Expr
	if jt, ok := bareJSONTable(s); ok && orderedByKey(s, jt) {
		if c, ok := value.(*expr.Column); ok && c.Table == jt.Alias {
			path := []expr.PathSegment{expr.Index(index)}
			if col, ok := jt.Column(c.Name); ok {
				path = append(path, col.Path...)
			}
			return &expr.JSONScalar{Info: c.Info, JSON: jt.Source, Path: path}, nil
		}
	}
	q := t.Take(t.Skip(s, index), expr.Const(1, intMapping))
	return &expr.Subquery{Info: value.TypeInfo(), Query: q}, nil
}

// Count returns a select counting the rows of s.
func (t *Translator) Count(s *expr.Select) *expr.Select {
	count := []expr.Projection{{Expr: expr.Func("COUNT", expr.LongInfo, expr.Raw("*", expr.LongInfo))}}
	if s.Limit != nil || s.Offset != nil || s.Distinct || len(s.GroupBy) > 0 {
		return &expr.Select{Projection: count, Tables: []expr.TableSource{t.derived(s)}}
	}
	return s.Update(count, s.Tables, s.Predicate, nil, nil, nil, nil, nil)
}

// Any returns a predicate testing whether s has rows matching pred. A bare
// JSON array without predicate is tested with JSON_LENGTH().
func (t *Translator) Any(s *expr.Select, pred expr.Expr) (expr.Expr, error) {
	if jt, ok := bareJSONTable(s); ok && pred == nil {
		return expr.Gt(expr.Func("JSON_LENGTH", expr.LongInfo, jt.Source), expr.Const(0, intMapping)), nil
	}
	if pred != nil {
		var err error
		if s, err = t.Where(s, pred); err != nil {
			return nil, err
		}
	}
	return &expr.Exists{Info: expr.BoolInfo, Query: t.subquery(s)}, nil
}

// Contains returns a predicate testing whether item is among the values
// projected by s.
func (t *Translator) Contains(s *expr.Select, item expr.Expr) (expr.Expr, error) {
	if len(s.Projection) != 1 {
		return nil, veloxmysql.NewTranslationError(expr.Print(s), "IN requires a single projected value")
	}
	return &expr.In{Info: expr.BoolInfo, Operand: item, Query: t.subquery(s)}, nil
}

// ExecuteDelete returns the DELETE of the rows selected by s.
func (t *Translator) ExecuteDelete(s *expr.Select) (*expr.Delete, error) {
	if len(s.Orderings) > 0 || s.Limit != nil || s.Offset != nil || len(s.GroupBy) > 0 || s.Having != nil || len(s.Tables) == 0 {
		return nil, veloxmysql.NewTranslationError(expr.Print(s), "ExecuteDelete requires a select without ordering, paging or grouping")
	}
	table, ok := s.Tables[0].(*expr.Table)
	if !ok {
		return nil, veloxmysql.NewTranslationError(expr.Print(s), "ExecuteDelete requires a base table")
	}
	for _, j := range s.Tables[1:] {
		if j, ok := j.(*expr.Join); !ok || j.Kind != expr.InnerJoin {
			return nil, veloxmysql.NewTranslationError(expr.Print(s), "ExecuteDelete supports inner joins only")
		}
	}
	return &expr.Delete{Table: table, Select: s}, nil
}

// ExecuteUpdate returns the UPDATE of the table aliased target in the rows
// selected by s.
func (t *Translator) ExecuteUpdate(s *expr.Select, target string, setters []expr.Setter) (*expr.Update, error) {
	if s.Offset != nil || s.Distinct || len(s.GroupBy) > 0 || s.Having != nil || len(s.Orderings) > 0 || len(s.Tables) == 0 {
		return nil, veloxmysql.NewTranslationError(expr.Print(s), "ExecuteUpdate requires a select without ordering, offset or grouping")
	}
	if len(setters) == 0 {
		return nil, veloxmysql.NewTranslationError(expr.Print(s), "ExecuteUpdate requires at least one setter")
	}
	var table expr.TableSource = s.Tables[0]
	if len(s.Tables) > 1 {
		table = nil
		for _, ts := range s.Tables {
			if ts.TableAlias() == target {
				table = ts
			}
		}
		if j, ok := table.(*expr.Join); ok {
			table = j.Table
		}
	}
	tt, ok := table.(*expr.Table)
	if !ok {
		return nil, veloxmysql.NewTranslationError(expr.Print(s), "ExecuteUpdate requires a base table target")
	}
	return &expr.Update{Table: tt, Select: s, Setters: setters}, nil
}

// subquery drops the orderings of a select used in EXISTS or IN, where
// they have no effect unless the select is paged.
func (t *Translator) subquery(s *expr.Select) *expr.Select {
	if s.Limit != nil || s.Offset != nil {
		return s
	}
	return s.WithOrderings(nil)
}

// derived returns a copy of s aliased for use as a derived table.
func (t *Translator) derived(s *expr.Select) *expr.Select {
	d := s.Clone()
	d.Alias = t.Alias("t")
	return d
}

// pushdown wraps s in a select over it as a derived table.
func (t *Translator) pushdown(s *expr.Select) *expr.Select {
	return &expr.Select{Tables: []expr.TableSource{t.derived(s)}}
}
