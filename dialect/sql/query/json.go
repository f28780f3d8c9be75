package query

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/syssam/veloxmysql"
	"github.com/syssam/veloxmysql/dialect"
	"github.com/syssam/veloxmysql/dialect/sql/expr"
	"github.com/syssam/veloxmysql/dialect/sql/typemap"
)

var (
	// keyInfo is the type of the JSON_TABLE() ordinality column.
	keyInfo    = expr.InfoOf(typemap.IntMapping{Type: reflect.TypeOf(uint(0))})
	intMapping = typemap.IntMapping{Type: reflect.TypeOf(0)}
)

// Translator translates queryable operations into select trees. A
// Translator belongs to one query compilation and is not safe for
// concurrent use.
type Translator struct {
	opts    *dialect.Options
	src     *typemap.Source
	aliases map[string]bool
}

// NewTranslator returns a Translator for the given options.
func NewTranslator(opts *dialect.Options, src *typemap.Source) *Translator {
	if opts == nil {
		opts, _ = dialect.NewOptions()
	}
	if src == nil {
		src = typemap.NewSource(opts)
	}
	return &Translator{opts: opts, src: src, aliases: make(map[string]bool)}
}

// Alias returns a table alias derived from name that was not returned
// before: "t", "t0", "t1" and so on for name "tags".
func (t *Translator) Alias(name string) string {
	base := "t"
	for _, r := range name {
		if unicode.IsLetter(r) {
			base = string(unicode.ToLower(r))
		}
		break
	}
	alias := base
	for i := 0; t.aliases[alias]; i++ {
		alias = base + strconv.Itoa(i)
	}
	t.aliases[alias] = true
	return alias
}

// PrimitiveCollection translates a JSON array of scalars into a select
// over JSON_TABLE() with a "value" column and an ORDER BY on the element
// position. A nil elem produces the raw form, whose value column is JSON.
func (t *Translator) PrimitiveCollection(source expr.Expr, elem typemap.Mapping, alias string) (*expr.Select, error) {
	if !t.opts.PrimitiveCollections {
		return nil, veloxmysql.NewTranslationError(expr.Print(source), "Primitive collections support has not been enabled.")
	}
	if _, ok := source.(*expr.Parameter); ok && t.opts.JSONTableParameterSkip && !t.opts.Supports().JSONTableParameterSource {
		return nil, veloxmysql.NewTranslationError(expr.Print(source),
			"JSON_TABLE() over parameters has been disabled by the JSONTableParameterSkip option, because it can crash MySQL 8.")
	}
	if alias == "" {
		alias = t.Alias(sourceName(source))
	}
	jt := &expr.JSONTable{
		Alias:      alias,
		Source:     source,
		Path:       []expr.PathSegment{expr.Wildcard},
		Ordinality: true,
	}
	valueInfo := expr.InfoOf(t.src.JSON(nil))
	if elem != nil {
		valueInfo = expr.InfoOf(elem)
		jt.Columns = []expr.JSONColumn{{Name: expr.ValueColumn, Info: valueInfo}}
	}
	valueInfo.Nullable = true
	return &expr.Select{
		Projection: []expr.Projection{{Expr: expr.C(alias, expr.ValueColumn, valueInfo), Alias: expr.ValueColumn}},
		Tables:     []expr.TableSource{jt},
		Orderings:  []expr.Ordering{{Expr: expr.C(alias, expr.OrdinalityColumn, keyInfo)}},
	}, nil
}

// JSONQuery describes a JSON array of structural values: the JSON column,
// the navigation path inside the document and the element properties.
type JSONQuery struct {
	// Alias of the table; derived from the path or column name when empty.
	Alias      string
	Column     expr.Expr
	Path       []expr.PathSegment
	Properties []JSONProperty
}

// JSONProperty is a property of a structural JSON element.
type JSONProperty struct {
	// Name is the JSON property name.
	Name string
	// Mapping is the mapping of scalar properties.
	Mapping typemap.Mapping
	// Structural marks nested objects and arrays kept as JSON.
	Structural bool
}

// StructuralCollection translates a JSON array of structural values into a
// select over JSON_TABLE() with one column per property.
func (t *Translator) StructuralCollection(q JSONQuery) (*expr.Select, error) {
	if len(q.Properties) == 0 {
		return nil, veloxmysql.NewTranslationError(expr.Print(q.Column), "structural JSON element without properties")
	}
	name := sourceName(q.Column)
	for _, s := range q.Path {
		if s.Property != "" {
			name = s.Property
		}
	}
	alias := q.Alias
	if alias == "" {
		alias = t.Alias(name)
	}
	source := q.Column
	if len(q.Path) > 0 {
		// JSON_EXTRACT keeps nested arrays and objects intact where a scalar
		// accessor would unquote them.
		path, ok := expr.PathString(q.Path)
		if !ok {
			return nil, veloxmysql.NewTranslationError(expr.Print(q.Column), "JSON navigation with a non constant array index")
		}
		jsonInfo := expr.InfoOf(t.src.JSON(nil))
		jsonInfo.Nullable = true
		source = expr.Func("JSON_EXTRACT", jsonInfo, q.Column, expr.Const(path, t.src.StringMapping()))
	}
	jt := &expr.JSONTable{
		Alias:      alias,
		Source:     source,
		Path:       []expr.PathSegment{expr.Wildcard},
		Ordinality: true,
	}
	projection := make([]expr.Projection, 0, len(q.Properties))
	for _, p := range q.Properties {
		col := expr.JSONColumn{Name: p.Name, Path: []expr.PathSegment{expr.Prop(p.Name)}, AsJSON: p.Structural}
		switch {
		case p.Structural:
			col.Info = expr.InfoOf(t.src.JSON(nil))
		case p.Mapping != nil:
			col.Info = expr.InfoOf(p.Mapping)
		default:
			return nil, veloxmysql.NewTranslationError(expr.Print(q.Column), fmt.Sprintf("property %q has no type mapping", p.Name))
		}
		col.Info.Nullable = true
		jt.Columns = append(jt.Columns, col)
		projection = append(projection, expr.Projection{Expr: expr.C(alias, p.Name, col.Info), Alias: p.Name})
	}
	return &expr.Select{
		Projection: projection,
		Tables:     []expr.TableSource{jt},
		Orderings:  []expr.Ordering{{Expr: expr.C(alias, expr.OrdinalityColumn, keyInfo)}},
	}, nil
}

func sourceName(e expr.Expr) string {
	switch e := e.(type) {
	case *expr.Column:
		return e.Name
	case *expr.Parameter:
		return strings.TrimPrefix(e.Name, "__")
	}
	return ""
}

// bareJSONTable returns the JSON_TABLE() of a select that does nothing but
// enumerate the elements of a JSON array.
func bareJSONTable(s *expr.Select) (*expr.JSONTable, bool) {
	if len(s.Tables) != 1 || s.Predicate != nil || !s.IsSimple() {
		return nil, false
	}
	jt, ok := s.Tables[0].(*expr.JSONTable)
	return jt, ok
}

// orderedByKey reports whether s is ordered by nothing but the ordinality
// column of jt.
func orderedByKey(s *expr.Select, jt *expr.JSONTable) bool {
	if len(s.Orderings) != 1 || s.Orderings[0].Desc {
		return false
	}
	c, ok := s.Orderings[0].Expr.(*expr.Column)
	return ok && c.Table == jt.Alias && c.Name == expr.OrdinalityColumn
}
