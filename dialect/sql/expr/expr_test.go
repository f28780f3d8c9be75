package expr_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/veloxmysql/dialect/sql/expr"
	"github.com/syssam/veloxmysql/dialect/sql/typemap"
)

var (
	intMapping    = typemap.IntMapping{Type: reflect.TypeOf(0)}
	stringMapping = typemap.StringMapping{}
	intInfo       = expr.InfoOf(intMapping)
)

func sample() *expr.Select {
	x := expr.C("t", "x", intInfo)
	return &expr.Select{
		Tables:    []expr.TableSource{expr.T("T", "t")},
		Predicate: expr.Gt(x, expr.Const(1, intMapping)),
		Orderings: []expr.Ordering{{Expr: expr.C("t", "y", intInfo)}},
		Limit:     expr.Param("p", intMapping),
		Offset:    expr.Param("p2", intMapping),
	}
}

func TestUpdate_ReturnsReceiver(t *testing.T) {
	s := sample()
	assert.Same(t, s, s.Update(s.Projection, s.Tables, s.Predicate, s.GroupBy, s.Having, s.Orderings, s.Limit, s.Offset))
	assert.Same(t, s, s.WithPredicate(s.Predicate))

	b := s.Predicate.(*expr.Binary)
	assert.Same(t, b, b.Update(b.Left, b.Right))

	f := expr.Func("LEAST", intInfo, expr.Param("a", intMapping), expr.Param("b", intMapping))
	assert.Same(t, f, f.Update([]expr.Expr{f.Args[0], f.Args[1]}))

	jt := &expr.JSONTable{Alias: "j", Source: expr.C("t", "doc", expr.Info{}), Path: []expr.PathSegment{expr.Wildcard}}
	assert.Same(t, jt, jt.Update(jt.Source, []expr.PathSegment{expr.Wildcard}))
}

func TestUpdate_PreservesInfo(t *testing.T) {
	info := expr.Info{Type: reflect.TypeOf(int64(0)), Mapping: intMapping, Nullable: true}
	f := &expr.Function{Info: info, Name: "GREATEST", Args: []expr.Expr{expr.Const(1, intMapping)}}
	g := f.Update([]expr.Expr{expr.Const(2, intMapping)})
	require.NotSame(t, f, g)
	assert.Equal(t, info, g.TypeInfo())
	assert.Equal(t, "GREATEST", g.Name)

	b := expr.Eq(expr.C("", "a", intInfo), expr.Const(nil, intMapping))
	assert.True(t, b.Nullable)
	c := b.Update(b.Left, expr.Const(1, intMapping))
	assert.Equal(t, b.Info, c.Info)
}

func TestMapChildren(t *testing.T) {
	s := sample()
	n, err := expr.MapChildren(s, func(n expr.Node) (expr.Node, error) { return n, nil })
	require.NoError(t, err)
	assert.Same(t, s, n, "identity mapping keeps the node")

	n, err = expr.MapChildren(s, func(n expr.Node) (expr.Node, error) {
		if p, ok := n.(*expr.Parameter); ok {
			return expr.Const(0, p.Mapping), nil
		}
		return n, nil
	})
	require.NoError(t, err)
	r := n.(*expr.Select)
	require.NotSame(t, s, r)
	assert.IsType(t, &expr.Constant{}, r.Limit)
	assert.IsType(t, &expr.Constant{}, r.Offset)
	assert.Same(t, s.Predicate, r.Predicate)
	assert.IsType(t, &expr.Parameter{}, s.Limit, "input is not mutated")

	_, err = expr.MapChildren(s, func(n expr.Node) (expr.Node, error) {
		if _, ok := n.(*expr.Table); ok {
			return nil, errors.New("boom")
		}
		return n, nil
	})
	assert.EqualError(t, err, "boom")

	_, err = expr.MapChildren(s, func(n expr.Node) (expr.Node, error) {
		if _, ok := n.(*expr.Binary); ok {
			return expr.T("x", ""), nil
		}
		return n, nil
	})
	assert.Error(t, err, "a table source cannot replace a scalar")
}

func TestWalk(t *testing.T) {
	s := sample()
	var params []string
	expr.Walk(s, func(n expr.Node) bool {
		if p, ok := n.(*expr.Parameter); ok {
			params = append(params, p.Name)
		}
		return true
	})
	assert.Equal(t, []string{"p", "p2"}, params)

	assert.True(t, expr.Any(s, func(n expr.Node) bool {
		c, ok := n.(*expr.Column)
		return ok && c.Name == "y"
	}))
	assert.False(t, expr.Any(s, func(n expr.Node) bool {
		_, ok := n.(*expr.JSONTable)
		return ok
	}))

	var visited int
	expr.Walk(s, func(n expr.Node) bool {
		visited++
		return false
	})
	assert.Equal(t, 1, visited)
}

func TestPrint(t *testing.T) {
	s := sample()
	assert.Equal(t, "SELECT * FROM T AS t WHERE (t.x > 1) ORDER BY t.y LIMIT @p OFFSET @p2", expr.Print(s))

	in := &expr.In{
		Info:    expr.BoolInfo,
		Operand: expr.Const("a", stringMapping),
		Query: &expr.Select{
			Projection: []expr.Projection{{Expr: expr.C("j", "value", expr.InfoOf(stringMapping))}},
			Tables: []expr.TableSource{&expr.JSONTable{
				Alias:   "j",
				Source:  expr.Param("tags", typemap.JSONMapping{}),
				Path:    []expr.PathSegment{expr.Wildcard},
				Columns: []expr.JSONColumn{{Name: "value", Info: expr.InfoOf(stringMapping)}},
			}},
		},
	}
	assert.Equal(t, "'a' IN (SELECT j.value FROM JSON_TABLE(@tags, $[*] COLUMNS (value longtext $)) AS j)", expr.Print(in))

	inl := &expr.InlinedParameter{Info: intInfo, Param: expr.Param("n", intMapping), Value: expr.Const(3, intMapping)}
	assert.Equal(t, "3/*@n*/", expr.Print(inl))
}

func TestPrintKey(t *testing.T) {
	doc := expr.C("t", "doc", expr.InfoOf(typemap.JSONMapping{}))
	asInt := &expr.JSONScalar{Info: intInfo, JSON: doc, Path: []expr.PathSegment{expr.Prop("a")}}
	asString := &expr.JSONScalar{Info: expr.InfoOf(stringMapping), JSON: doc, Path: []expr.PathSegment{expr.Prop("a")}}
	assert.Equal(t, expr.Print(asInt), expr.Print(asString))
	assert.NotEqual(t, expr.PrintKey(asInt), expr.PrintKey(asString))
	assert.Equal(t, expr.PrintKey(asInt), expr.PrintKey(&expr.JSONScalar{Info: intInfo, JSON: doc, Path: []expr.PathSegment{expr.Prop("a")}}))

	nullable := intInfo
	nullable.Nullable = true
	assert.NotEqual(t, expr.PrintKey(expr.C("t", "x", intInfo)), expr.PrintKey(expr.C("t", "x", nullable)))
	assert.Contains(t, expr.PrintKey(expr.C("t", "x", nullable)), "t.x::typemap.IntMapping(")
}

func TestPathString(t *testing.T) {
	p, ok := expr.PathString([]expr.PathSegment{expr.Prop("a"), expr.Prop("b c"), expr.Index(expr.Const(0, intMapping)), expr.Wildcard})
	require.True(t, ok)
	assert.Equal(t, `$.a."b c"[0][*]`, p)

	p, ok = expr.PathString(nil)
	require.True(t, ok)
	assert.Equal(t, "$", p)

	_, ok = expr.PathString([]expr.PathSegment{expr.Index(expr.Param("i", intMapping))})
	assert.False(t, ok)
}

func TestAnd(t *testing.T) {
	a, b := expr.True(), expr.False()
	assert.Nil(t, expr.And())
	assert.Same(t, a, expr.And(nil, a))
	r := expr.And(a, nil, b).(*expr.Binary)
	assert.Equal(t, expr.OpAnd, r.Op)
	assert.True(t, expr.IsBoolConstant(r.Right, false))
}
