package query

import (
	"log/slog"

	"github.com/syssam/veloxmysql"
	"github.com/syssam/veloxmysql/dialect/sql/expr"
	"github.com/syssam/veloxmysql/dialect/sql/fold"
)

// Inliner replaces parameters with their values where MySQL does not accept
// bind variables: LIMIT and OFFSET, the source of JSON_TABLE() and JSON
// paths. LIMIT and OFFSET take no function calls on any MySQL or MariaDB
// version, so LEAST and GREATEST calls there are folded into constants when
// all their operands are known.
type Inliner struct {
	Logger *slog.Logger
}

// scope is the inlining state of a subtree. It is passed by value to each
// child visit, so it never outlives the visit that set it.
type scope struct {
	inline bool // parameters are replaced by their values
	limit  bool // the subtree is a LIMIT or OFFSET expression
}

// Process returns n with the parameters in inlining positions replaced by
// InlinedParameter nodes. Running it again on its result is a no-op.
func (in *Inliner) Process(n expr.Node, bag *ParameterBag) (expr.Node, error) {
	return in.visit(n, scope{}, bag)
}

func (in *Inliner) visit(n expr.Node, sc scope, bag *ParameterBag) (expr.Node, error) {
	switch n := n.(type) {
	case *expr.Select:
		return expr.MapSelectParts(n, func(c expr.Node, part expr.Part) (expr.Node, error) {
			if part == expr.PartLimit || part == expr.PartOffset {
				return in.visit(c, scope{inline: true, limit: true}, bag)
			}
			return in.visit(c, scope{}, bag)
		})
	case *expr.JSONTable:
		return expr.MapChildren(n, func(c expr.Node) (expr.Node, error) {
			return in.visit(c, scope{inline: true}, bag)
		})
	case *expr.JSONScalar:
		json, err := in.visit(n.JSON, sc, bag)
		if err != nil {
			return nil, err
		}
		path, err := in.path(n.Path, bag)
		if err != nil {
			return nil, err
		}
		return n.Update(json.(expr.Expr), path), nil
	case *expr.Function:
		if sc.limit && fold.IsFoldable(n.Name) {
			return in.fold(n, sc, bag)
		}
	case *expr.Parameter:
		if !sc.inline {
			return n, nil
		}
		v, ok := bag.GetAndDisableCaching(n.Name)
		if !ok {
			return nil, veloxmysql.NewParameterNotFoundError(n.Name)
		}
		info := n.Info
		info.Nullable = v == nil
		return &expr.InlinedParameter{Info: n.Info, Param: n, Value: &expr.Constant{Info: info, Value: v}}, nil
	}
	return expr.MapChildren(n, func(c expr.Node) (expr.Node, error) {
		return in.visit(c, sc, bag)
	})
}

// path inlines the array indexes of a JSON path.
func (in *Inliner) path(path []expr.PathSegment, bag *ParameterBag) ([]expr.PathSegment, error) {
	var out []expr.PathSegment
	for i, s := range path {
		if s.Index == nil {
			continue
		}
		idx, err := in.visit(s.Index, scope{inline: true}, bag)
		if err != nil {
			return nil, err
		}
		if idx == s.Index {
			continue
		}
		if out == nil {
			out = append([]expr.PathSegment(nil), path...)
		}
		out[i].Index = idx.(expr.Expr)
	}
	if out == nil {
		return path, nil
	}
	return out, nil
}

// fold evaluates a LEAST or GREATEST call. Calls with operands other than
// constants and parameters are kept as function calls.
func (in *Inliner) fold(fn *expr.Function, sc scope, bag *ParameterBag) (expr.Node, error) {
	for _, a := range fn.Args {
		switch a.(type) {
		case *expr.Constant, *expr.Parameter, *expr.InlinedParameter:
		default:
			return expr.MapChildren(fn, func(c expr.Node) (expr.Node, error) {
				return in.visit(c, sc, bag)
			})
		}
	}
	n, err := expr.MapChildren(fn, func(c expr.Node) (expr.Node, error) {
		return in.visit(c, scope{inline: true, limit: true}, bag)
	})
	if err != nil {
		return nil, err
	}
	inlined := n.(*expr.Function)
	r, ok := fold.Function(inlined, func(e expr.Expr) (any, bool) {
		c, ok := expr.AsConstant(e)
		if !ok {
			return nil, false
		}
		return c.Value, true
	})
	if !ok {
		in.logger().Debug("veloxmysql: function left unfolded", "function", expr.Print(fn))
	}
	return r, nil
}

func (in *Inliner) logger() *slog.Logger {
	if in.Logger == nil {
		return slog.Default()
	}
	return in.Logger
}
