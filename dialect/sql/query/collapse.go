package query

import (
	"github.com/syssam/veloxmysql/dialect/sql/expr"
)

// SkipTakeCollapser rewrites selects with LIMIT 0 OFFSET 0 into selects
// returning no rows without ORDER BY, LIMIT and OFFSET. MySQL 8.0.22 and
// later return wrong results for such subqueries inside EXISTS.
type SkipTakeCollapser struct{}

// Process returns n with every zero LIMIT and OFFSET select collapsed. The
// FALSE predicate goes to HAVING when the select is grouped; otherwise it
// replaces WHERE and any HAVING is dropped.
func (c SkipTakeCollapser) Process(n expr.Node, bag *ParameterBag) (expr.Node, error) {
	n, err := expr.MapChildren(n, func(n expr.Node) (expr.Node, error) {
		return c.Process(n, bag)
	})
	if err != nil {
		return nil, err
	}
	s, ok := n.(*expr.Select)
	if !ok || !isZero(s.Limit, bag) || !isZero(s.Offset, bag) {
		return n, nil
	}
	var predicate, having expr.Expr = expr.False(), nil
	if len(s.GroupBy) > 0 {
		predicate, having = s.Predicate, expr.False()
	}
	return s.Update(s.Projection, s.Tables, predicate, s.GroupBy, having, nil, nil, nil), nil
}

// isZero reports whether e is the integer 0. Parameter values are read
// from the bag, which disables caching of the plan.
func isZero(e expr.Expr, bag *ParameterBag) bool {
	var v any
	switch e := e.(type) {
	case *expr.Constant:
		v = e.Value
	case *expr.InlinedParameter:
		v = e.Value.Value
	case *expr.Parameter:
		pv, ok := bag.GetAndDisableCaching(e.Name)
		if !ok {
			return false
		}
		v = pv
	default:
		return false
	}
	switch v := v.(type) {
	case int:
		return v == 0
	case int8:
		return v == 0
	case int16:
		return v == 0
	case int32:
		return v == 0
	case int64:
		return v == 0
	case uint:
		return v == 0
	case uint8:
		return v == 0
	case uint16:
		return v == 0
	case uint32:
		return v == 0
	case uint64:
		return v == 0
	}
	return false
}
