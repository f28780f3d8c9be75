package query_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/veloxmysql"
	"github.com/syssam/veloxmysql/dialect"
	"github.com/syssam/veloxmysql/dialect/sql/expr"
	"github.com/syssam/veloxmysql/dialect/sql/query"
	"github.com/syssam/veloxmysql/dialect/sql/typemap"
)

func newTranslator(t *testing.T, opts ...dialect.Option) (*query.Translator, *query.Processor) {
	t.Helper()
	o, err := dialect.NewOptions(opts...)
	require.NoError(t, err)
	src := typemap.NewSource(o)
	return query.NewTranslator(o, src), query.NewProcessor(o, src)
}

func jsonTables(n expr.Node) []*expr.JSONTable {
	var tables []*expr.JSONTable
	expr.Walk(n, func(n expr.Node) bool {
		if jt, ok := n.(*expr.JSONTable); ok {
			tables = append(tables, jt)
		}
		return true
	})
	return tables
}

func hasKeyRef(n expr.Node) bool {
	return expr.Any(n, func(n expr.Node) bool {
		c, ok := n.(*expr.Column)
		return ok && c.Name == expr.OrdinalityColumn
	})
}

func TestTranslator_Alias(t *testing.T) {
	tr, _ := newTranslator(t)
	assert.Equal(t, "t", tr.Alias("tags"))
	assert.Equal(t, "t0", tr.Alias("Tags"))
	assert.Equal(t, "t1", tr.Alias(""))
	assert.Equal(t, "i", tr.Alias("ids"))
	assert.Equal(t, "t2", tr.Alias("_x"))
}

func TestTranslator_PrimitiveCollection(t *testing.T) {
	tr, _ := newTranslator(t)
	s, err := tr.PrimitiveCollection(expr.Param("tags", jsonMapping), intMapping, "")
	require.NoError(t, err)
	require.Len(t, s.Tables, 1)
	jt := s.Tables[0].(*expr.JSONTable)
	assert.Equal(t, "t", jt.Alias)
	assert.True(t, jt.Ordinality)
	assert.False(t, jt.IsRaw())
	require.Len(t, jt.Columns, 1)
	assert.Equal(t, expr.ValueColumn, jt.Columns[0].Name)
	assert.Equal(t, reflect.TypeOf(0), jt.Columns[0].Info.Type)
	require.Len(t, s.Orderings, 1)
	assert.Equal(t, expr.OrdinalityColumn, s.Orderings[0].Expr.(*expr.Column).Name)
	assert.Equal(t, expr.ValueColumn, s.Projection[0].Alias)
	assert.True(t, s.Projection[0].Expr.TypeInfo().Nullable)

	raw, err := tr.PrimitiveCollection(expr.C("p", "tags", expr.InfoOf(jsonMapping)), nil, "x")
	require.NoError(t, err)
	assert.True(t, raw.Tables[0].(*expr.JSONTable).IsRaw())
	assert.Equal(t, "json", raw.Projection[0].Expr.TypeInfo().Mapping.StoreType())
}

func TestTranslator_PrimitiveCollectionErrors(t *testing.T) {
	tr, _ := newTranslator(t, dialect.WithPrimitiveCollections(false))
	_, err := tr.PrimitiveCollection(expr.Param("tags", jsonMapping), intMapping, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, veloxmysql.ErrTranslationFailed))
	assert.Contains(t, err.Error(), "Primitive collections support has not been enabled.")

	tr, _ = newTranslator(t, dialect.WithJSONTableParameterSkip(true))
	_, err = tr.PrimitiveCollection(expr.Param("tags", jsonMapping), intMapping, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JSONTableParameterSkip")
	_, err = tr.PrimitiveCollection(expr.C("p", "tags", expr.InfoOf(jsonMapping)), intMapping, "")
	assert.NoError(t, err, "columns are not affected by the option")

	tr, _ = newTranslator(t, dialect.WithJSONTableParameterSkip(true), dialect.WithServerVersion("10.11.6-MariaDB"))
	_, err = tr.PrimitiveCollection(expr.Param("tags", jsonMapping), intMapping, "")
	assert.NoError(t, err)
}

func TestTranslator_StructuralCollection(t *testing.T) {
	tr, _ := newTranslator(t)
	doc := expr.C("b", "doc", expr.InfoOf(jsonMapping))
	s, err := tr.StructuralCollection(query.JSONQuery{
		Column: doc,
		Path:   []expr.PathSegment{expr.Prop("posts")},
		Properties: []query.JSONProperty{
			{Name: "title", Mapping: typemap.StringMapping{}},
			{Name: "meta", Structural: true},
		},
	})
	require.NoError(t, err)
	jt := s.Tables[0].(*expr.JSONTable)
	assert.Equal(t, "p", jt.Alias)
	fn, ok := jt.Source.(*expr.Function)
	require.True(t, ok)
	assert.Equal(t, "JSON_EXTRACT", fn.Name)
	assert.Equal(t, "$.posts", fn.Args[1].(*expr.Constant).Value)
	require.Len(t, jt.Columns, 2)
	assert.Equal(t, []expr.PathSegment{expr.Prop("title")}, jt.Columns[0].Path)
	assert.True(t, jt.Columns[1].AsJSON)
	assert.Equal(t, []string{"title", "meta"}, []string{s.Projection[0].Alias, s.Projection[1].Alias})

	_, err = tr.StructuralCollection(query.JSONQuery{Column: doc})
	assert.Error(t, err)
	_, err = tr.StructuralCollection(query.JSONQuery{Column: doc, Properties: []query.JSONProperty{{Name: "x"}}})
	assert.Error(t, err)
	_, err = tr.StructuralCollection(query.JSONQuery{
		Column:     doc,
		Path:       []expr.PathSegment{expr.Index(param("i"))},
		Properties: []query.JSONProperty{{Name: "x", Mapping: intMapping}},
	})
	assert.Error(t, err, "non constant index")
}

// COUNT and JSON_LENGTH drop the ordering, so the typed form is kept
// without an ordinality column.
func TestJSONOrdering_CountKeepsTypedForm(t *testing.T) {
	tr, p := newTranslator(t)
	s, err := tr.PrimitiveCollection(expr.Param("tags", jsonMapping), intMapping, "")
	require.NoError(t, err)
	s, err = tr.Where(s, expr.Gt(expr.C("t", expr.ValueColumn, intInfo), expr.Const(1, intMapping)))
	require.NoError(t, err)

	n, err := p.Postprocess(tr.Count(s))
	require.NoError(t, err)
	r := n.(*expr.Select)
	assert.Empty(t, r.Orderings)
	tables := jsonTables(n)
	require.Len(t, tables, 1)
	assert.False(t, tables[0].Ordinality)
	assert.False(t, tables[0].IsRaw())
	assert.False(t, hasKeyRef(n))
	assert.IsType(t, &expr.Column{}, r.Predicate.(*expr.Binary).Left)
}

func TestJSONOrdering_AnyFastPath(t *testing.T) {
	tr, p := newTranslator(t)
	s, err := tr.PrimitiveCollection(expr.Param("tags", jsonMapping), intMapping, "")
	require.NoError(t, err)
	e, err := tr.Any(s, nil)
	require.NoError(t, err)
	assert.Equal(t, "(JSON_LENGTH(@tags) > 0)", expr.Print(e))

	e, err = tr.Any(s, expr.Gt(expr.C("t", expr.ValueColumn, intInfo), expr.Const(1, intMapping)))
	require.NoError(t, err)
	ex, ok := e.(*expr.Exists)
	require.True(t, ok)
	assert.Empty(t, ex.Query.Orderings)
	n, err := p.Postprocess(e)
	require.NoError(t, err)
	assert.False(t, jsonTables(n)[0].Ordinality)
}

func TestJSONOrdering_ElementAt(t *testing.T) {
	t.Run("Bare", func(t *testing.T) {
		tr, _ := newTranslator(t)
		s, err := tr.PrimitiveCollection(expr.Param("tags", jsonMapping), intMapping, "")
		require.NoError(t, err)
		e, err := tr.ElementAt(s, expr.Const(2, intMapping))
		require.NoError(t, err)
		js, ok := e.(*expr.JSONScalar)
		require.True(t, ok)
		assert.Equal(t, "tags", js.JSON.(*expr.Parameter).Name)
		path, ok := expr.PathString(js.Path)
		require.True(t, ok)
		assert.Equal(t, "$[2]", path)
		assert.Equal(t, reflect.TypeOf(0), js.Type)
	})

	// A filtered element access needs the element order, so the table is
	// demoted to the raw form and typed columns are extracted from the
	// JSON value.
	t.Run("Filtered", func(t *testing.T) {
		tr, p := newTranslator(t)
		s, err := tr.PrimitiveCollection(expr.Param("tags", jsonMapping), intMapping, "")
		require.NoError(t, err)
		s, err = tr.Where(s, expr.Gt(expr.C("t", expr.ValueColumn, intInfo), expr.Const(1, intMapping)))
		require.NoError(t, err)
		e, err := tr.ElementAt(s, param("i"))
		require.NoError(t, err)
		sub, ok := e.(*expr.Subquery)
		require.True(t, ok)
		assert.Equal(t, "@i", expr.Print(sub.Query.Offset))
		assert.Equal(t, "1", expr.Print(sub.Query.Limit))

		n, err := p.Postprocess(e)
		require.NoError(t, err)
		tables := jsonTables(n)
		require.Len(t, tables, 1)
		assert.True(t, tables[0].IsRaw())
		assert.True(t, tables[0].Ordinality)
		q := n.(*expr.Subquery).Query
		require.Len(t, q.Orderings, 1)
		value, ok := q.Projection[0].Expr.(*expr.JSONScalar)
		require.True(t, ok)
		assert.Equal(t, expr.ValueColumn, value.JSON.(*expr.Column).Name)
		assert.Equal(t, reflect.TypeOf(0), value.Type)
		assert.IsType(t, &expr.JSONScalar{}, q.Predicate.(*expr.Binary).Left)
	})

	t.Run("Structural", func(t *testing.T) {
		tr, p := newTranslator(t)
		s, err := tr.StructuralCollection(query.JSONQuery{
			Column: expr.C("b", "doc", expr.InfoOf(jsonMapping)),
			Properties: []query.JSONProperty{
				{Name: "title", Mapping: typemap.StringMapping{}},
				{Name: "meta", Structural: true},
			},
		})
		require.NoError(t, err)
		s = s.WithProjection(s.Projection[1:])
		s = tr.Skip(s, expr.Const(1, intMapping))
		n, err := p.Postprocess(s)
		require.NoError(t, err)
		meta := n.(*expr.Select).Projection[0].Expr.(*expr.JSONScalar)
		assert.Equal(t, "json", meta.Mapping.StoreType())
		assert.Equal(t, "$.meta", mustPath(t, meta.Path))
	})

	t.Run("MultipleProjections", func(t *testing.T) {
		tr, _ := newTranslator(t)
		_, err := tr.ElementAt(expr.From(expr.T("T", "t")), expr.Const(0, intMapping))
		assert.True(t, veloxmysql.IsTranslationError(err))
	})
}

func mustPath(t *testing.T, path []expr.PathSegment) string {
	t.Helper()
	s, ok := expr.PathString(path)
	require.True(t, ok)
	return s
}

// Unreferenced typed tables elsewhere in the tree are left alone when
// another table is demoted.
func TestJSONOrdering_Independent(t *testing.T) {
	tr, p := newTranslator(t)
	a, err := tr.PrimitiveCollection(expr.Param("a", jsonMapping), intMapping, "")
	require.NoError(t, err)
	b, err := tr.PrimitiveCollection(expr.Param("b", jsonMapping), intMapping, "")
	require.NoError(t, err)
	in, err := tr.Contains(b, expr.C("a", expr.ValueColumn, intInfo))
	require.NoError(t, err)
	a, err = tr.Where(a, in)
	require.NoError(t, err)

	n, err := p.Postprocess(a)
	require.NoError(t, err)
	tables := jsonTables(n)
	require.Len(t, tables, 2)
	byAlias := map[string]*expr.JSONTable{}
	for _, jt := range tables {
		byAlias[jt.Alias] = jt
	}
	assert.True(t, byAlias["a"].IsRaw())
	assert.False(t, byAlias["b"].IsRaw())
	assert.False(t, byAlias["b"].Ordinality)
}

func TestTranslator_SkipTake(t *testing.T) {
	tr, _ := newTranslator(t)
	s := expr.From(expr.T("T", "t"))

	r := tr.Take(tr.Skip(s, param("a")), param("b"))
	assert.Equal(t, "SELECT * FROM T AS t LIMIT @b OFFSET @a", expr.Print(r))

	r = tr.Take(r, param("c"))
	assert.Equal(t, "SELECT * FROM T AS t LIMIT LEAST(@b, @c) OFFSET @a", expr.Print(r))

	r = tr.Skip(r, param("d"))
	assert.Equal(t, "SELECT * FROM (SELECT * FROM T AS t LIMIT LEAST(@b, @c) OFFSET @a) AS t OFFSET @d", expr.Print(r))

	r = tr.Skip(tr.Skip(s, param("a")), param("b"))
	assert.Equal(t, "SELECT * FROM T AS t OFFSET (@a + @b)", expr.Print(r))
}

func TestTranslator_Where(t *testing.T) {
	tr, _ := newTranslator(t)
	s := expr.From(expr.T("T", "t"))
	x := expr.C("t", "x", intInfo)
	r, err := tr.Where(s, expr.Gt(x, param("a")))
	require.NoError(t, err)
	r, err = tr.Where(r, expr.Gt(param("b"), x))
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM T AS t WHERE ((t.x > @a) AND (@b > t.x))", expr.Print(r))

	_, err = tr.Where(tr.Take(s, param("n")), expr.True())
	assert.True(t, veloxmysql.IsTranslationError(err))
}

func TestTranslator_Count(t *testing.T) {
	tr, _ := newTranslator(t)
	s := &expr.Select{
		Tables:    []expr.TableSource{expr.T("T", "t")},
		Orderings: []expr.Ordering{{Expr: expr.C("t", "y", intInfo)}},
	}
	assert.Equal(t, "SELECT COUNT(*) FROM T AS t", expr.Print(tr.Count(s)))
	assert.Equal(t, "SELECT COUNT(*) FROM (SELECT * FROM T AS t ORDER BY t.y LIMIT @n) AS t", expr.Print(tr.Count(tr.Take(s, param("n")))))

	distinct := s.Clone()
	distinct.Distinct = true
	c := tr.Count(distinct)
	require.Len(t, c.Tables, 1)
	d, ok := c.Tables[0].(*expr.Select)
	require.True(t, ok)
	assert.Equal(t, "t0", d.Alias)
	assert.True(t, d.Distinct)
	assert.Empty(t, d.Projection)
}

func TestTranslator_ExecuteDelete(t *testing.T) {
	tr, _ := newTranslator(t)
	s := &expr.Select{
		Tables: []expr.TableSource{
			expr.T("Orders", "o"),
			&expr.Join{Kind: expr.InnerJoin, Table: expr.T("Customers", "c"), On: expr.Eq(expr.C("o", "cid", intInfo), expr.C("c", "id", intInfo))},
		},
		Predicate: expr.Eq(expr.C("c", "name", expr.InfoOf(typemap.StringMapping{})), expr.Param("name", typemap.StringMapping{})),
	}
	d, err := tr.ExecuteDelete(s)
	require.NoError(t, err)
	assert.Equal(t, "o", d.Table.Alias)

	left := s.WithTables([]expr.TableSource{s.Tables[0], &expr.Join{Kind: expr.LeftJoin, Table: expr.T("Customers", "c"), On: expr.True()}})
	_, err = tr.ExecuteDelete(left)
	assert.True(t, veloxmysql.IsTranslationError(err))
	_, err = tr.ExecuteDelete(tr.Take(s, param("n")))
	assert.True(t, veloxmysql.IsTranslationError(err))
}

func TestTranslator_ExecuteUpdate(t *testing.T) {
	tr, _ := newTranslator(t)
	s := &expr.Select{
		Tables: []expr.TableSource{
			expr.T("Orders", "o"),
			&expr.Join{Kind: expr.InnerJoin, Table: expr.T("Customers", "c"), On: expr.Eq(expr.C("o", "cid", intInfo), expr.C("c", "id", intInfo))},
		},
	}
	setters := []expr.Setter{{Column: expr.C("c", "total", intInfo), Value: expr.Const(0, intMapping)}}
	u, err := tr.ExecuteUpdate(s, "c", setters)
	require.NoError(t, err)
	assert.Equal(t, "Customers", u.Table.Name)

	_, err = tr.ExecuteUpdate(s, "c", nil)
	assert.Error(t, err)
	_, err = tr.ExecuteUpdate(s, "x", setters)
	assert.Error(t, err)
}
