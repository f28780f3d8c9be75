package expr

// Names of the columns of the raw JSON_TABLE form.
const (
	OrdinalityColumn = "key"
	ValueColumn      = "value"
)

type (
	// Table is a base table.
	Table struct {
		Name   string
		Schema string
		Alias  string
	}

	// JSONTable expands the elements of a JSON array into rows.
	//
	// With Columns set, the table exposes one typed column per entry, plus
	// the ordinality column when Ordinality is set. With nil Columns it is
	// the raw form exposing the ordinality column and a JSON value column.
	JSONTable struct {
		Alias      string
		Source     Expr
		Path       []PathSegment
		Columns    []JSONColumn
		Ordinality bool
	}

	// JSONColumn is a column of a JSONTable.
	JSONColumn struct {
		Name    string
		Info    Info
		Path    []PathSegment
		// AsJSON keeps the value as a nested JSON document.
		AsJSON bool
	}

	// Join joins a table source to the preceding sources.
	Join struct {
		Kind  JoinKind
		Table TableSource
		On    Expr
	}

	// SetOperation combines two selects.
	SetOperation struct {
		Alias       string
		Op          SetOp
		Distinct    bool
		Left, Right *Select
	}

	// Select is a SELECT statement, a derived table when Alias is set.
	Select struct {
		Alias      string
		Distinct   bool
		Projection []Projection
		Tables     []TableSource
		Predicate  Expr
		GroupBy    []Expr
		Having     Expr
		Orderings  []Ordering
		Limit      Expr
		Offset     Expr
	}

	// Projection is one item of the select list. An empty projection list
	// selects all columns.
	Projection struct {
		Expr  Expr
		Alias string
	}

	// Ordering is one item of ORDER BY.
	Ordering struct {
		Expr Expr
		Desc bool
	}

	// Delete deletes the rows of Table selected by Select.
	Delete struct {
		Table  *Table
		Select *Select
	}

	// Update sets columns of Table in the rows selected by Select.
	Update struct {
		Table   *Table
		Select  *Select
		Setters []Setter
	}

	// Setter assigns Value to Column.
	Setter struct {
		Column *Column
		Value  Expr
	}
)

// JoinKind is the kind of a join.
type JoinKind uint8

// Join kinds.
const (
	InnerJoin JoinKind = iota
	LeftJoin
	CrossJoin
	InnerJoinLateral
	LeftJoinLateral
	CrossJoinLateral
)

// IsLateral reports whether the joined table is a LATERAL derived table.
func (k JoinKind) IsLateral() bool { return k >= InnerJoinLateral }

// SetOp is a set operator.
type SetOp uint8

// Set operators.
const (
	Union SetOp = iota
	Intersect
	Except
)

func (*Table) node()        {}
func (*JSONTable) node()    {}
func (*Join) node()         {}
func (*SetOperation) node() {}
func (*Select) node()       {}
func (*Delete) node()       {}
func (*Update) node()       {}

// TableAlias implements TableSource.
func (t *Table) TableAlias() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

// TableAlias implements TableSource.
func (t *JSONTable) TableAlias() string { return t.Alias }

// TableAlias implements TableSource.
func (j *Join) TableAlias() string { return j.Table.TableAlias() }

// TableAlias implements TableSource.
func (s *SetOperation) TableAlias() string { return s.Alias }

// TableAlias implements TableSource.
func (s *Select) TableAlias() string { return s.Alias }

// IsRaw reports whether the table is in the raw ordered form.
func (t *JSONTable) IsRaw() bool { return t.Columns == nil }

// Column returns the column definition with the given name.
func (t *JSONTable) Column(name string) (JSONColumn, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return JSONColumn{}, false
}

// Update returns a JSON table with the given source and path.
func (t *JSONTable) Update(source Expr, path []PathSegment) *JSONTable {
	if t.Source == source && samePath(t.Path, path) {
		return t
	}
	c := *t
	c.Source, c.Path = source, path
	return &c
}

// Update returns a join with the given children.
func (j *Join) Update(table TableSource, on Expr) *Join {
	if j.Table == table && j.On == on {
		return j
	}
	return &Join{Kind: j.Kind, Table: table, On: on}
}

// Update returns a set operation over the given selects.
func (s *SetOperation) Update(left, right *Select) *SetOperation {
	if s.Left == left && s.Right == right {
		return s
	}
	c := *s
	c.Left, c.Right = left, right
	return &c
}

// Update returns a select with the given clauses.
func (s *Select) Update(projection []Projection, tables []TableSource, predicate Expr, groupBy []Expr, having Expr, orderings []Ordering, limit, offset Expr) *Select {
	if sameProjection(s.Projection, projection) && sameTables(s.Tables, tables) &&
		s.Predicate == predicate && sameExprs(s.GroupBy, groupBy) && s.Having == having &&
		sameOrderings(s.Orderings, orderings) && s.Limit == limit && s.Offset == offset {
		return s
	}
	return &Select{
		Alias:      s.Alias,
		Distinct:   s.Distinct,
		Projection: projection,
		Tables:     tables,
		Predicate:  predicate,
		GroupBy:    groupBy,
		Having:     having,
		Orderings:  orderings,
		Limit:      limit,
		Offset:     offset,
	}
}

// Clone returns a shallow copy of s.
func (s *Select) Clone() *Select {
	c := *s
	return &c
}

// WithPredicate returns s with the given WHERE predicate.
func (s *Select) WithPredicate(p Expr) *Select {
	return s.Update(s.Projection, s.Tables, p, s.GroupBy, s.Having, s.Orderings, s.Limit, s.Offset)
}

// WithOrderings returns s with the given orderings.
func (s *Select) WithOrderings(o []Ordering) *Select {
	return s.Update(s.Projection, s.Tables, s.Predicate, s.GroupBy, s.Having, o, s.Limit, s.Offset)
}

// WithLimit returns s with the given limit and offset.
func (s *Select) WithLimit(limit, offset Expr) *Select {
	return s.Update(s.Projection, s.Tables, s.Predicate, s.GroupBy, s.Having, s.Orderings, limit, offset)
}

// WithProjection returns s with the given projection.
func (s *Select) WithProjection(p []Projection) *Select {
	return s.Update(p, s.Tables, s.Predicate, s.GroupBy, s.Having, s.Orderings, s.Limit, s.Offset)
}

// WithTables returns s with the given table sources.
func (s *Select) WithTables(t []TableSource) *Select {
	return s.Update(s.Projection, t, s.Predicate, s.GroupBy, s.Having, s.Orderings, s.Limit, s.Offset)
}

// IsSimple reports whether s has no grouping, limit, offset or distinct.
func (s *Select) IsSimple() bool {
	return !s.Distinct && len(s.GroupBy) == 0 && s.Having == nil && s.Limit == nil && s.Offset == nil
}

// Update returns a delete over the given select.
func (d *Delete) Update(s *Select) *Delete {
	if d.Select == s {
		return d
	}
	return &Delete{Table: d.Table, Select: s}
}

// Update returns an update with the given select and setters.
func (u *Update) Update(s *Select, setters []Setter) *Update {
	if u.Select == s && sameSetters(u.Setters, setters) {
		return u
	}
	return &Update{Table: u.Table, Select: s, Setters: setters}
}

func sameProjection(a, b []Projection) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameTables(a, b []TableSource) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameOrderings(a, b []Ordering) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameSetters(a, b []Setter) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
