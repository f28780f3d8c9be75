package query

import (
	"reflect"

	"github.com/syssam/veloxmysql/dialect/sql/expr"
)

// BoolOptimizer rewrites boolean columns used as search conditions into
// comparisons, so that MySQL can use indexes on them: "col" becomes
// "col = TRUE" and "NOT col" becomes "col = FALSE".
type BoolOptimizer struct{}

// Process returns the optimized tree.
func (o BoolOptimizer) Process(n expr.Node) (expr.Node, error) {
	switch n := n.(type) {
	case *expr.Select:
		return expr.MapSelectParts(n, func(c expr.Node, part expr.Part) (expr.Node, error) {
			c, err := o.Process(c)
			if err != nil {
				return nil, err
			}
			if part == expr.PartPredicate || part == expr.PartHaving {
				return o.condition(c.(expr.Expr)), nil
			}
			return c, nil
		})
	case *expr.Join:
		j, err := expr.MapChildren(n, o.Process)
		if err != nil {
			return nil, err
		}
		jn := j.(*expr.Join)
		if jn.On == nil {
			return jn, nil
		}
		return jn.Update(jn.Table, o.condition(jn.On)), nil
	}
	return expr.MapChildren(n, o.Process)
}

// condition rewrites a search condition.
func (o BoolOptimizer) condition(e expr.Expr) expr.Expr {
	switch e := e.(type) {
	case *expr.Column:
		if isBool(e) {
			return expr.Eq(e, expr.True())
		}
	case *expr.Unary:
		if c, ok := e.Operand.(*expr.Column); ok && e.Op == expr.OpNot && isBool(c) {
			return expr.Eq(c, expr.False())
		}
		if e.Op == expr.OpNot {
			return e.Update(o.condition(e.Operand))
		}
	case *expr.Binary:
		if e.Op.IsLogical() {
			return e.Update(o.condition(e.Left), o.condition(e.Right))
		}
	}
	return e
}

func isBool(c *expr.Column) bool {
	return c.Type != nil && c.Type.Kind() == reflect.Bool
}
