package schema

import "github.com/syssam/veloxmysql/dialect/sqlschema"

// Table describes a MySQL table.
type Table struct {
	Name        string
	Columns     []*Column
	Indexes     []*Index
	PrimaryKey  []*Column
	ForeignKeys []*ForeignKey
	Annotation  *sqlschema.Annotation
}

// Column describes a table column.
type Column struct {
	Name      string
	Type      string // Store type, e.g. "bigint", "varchar" or "json".
	Size      int64
	Nullable  bool
	Unique    bool
	Default   any
	Charset   string
	Collation string
	// JSON marks a column holding a structural property serialized as a
	// JSON document.
	JSON       bool
	Annotation *sqlschema.Annotation
}

// Index describes a table index.
type Index struct {
	Name    string
	Unique  bool
	Columns []*Column
}

// ForeignKey describes a foreign key constraint.
type ForeignKey struct {
	Symbol     string
	Columns    []*Column
	RefTable   *Table
	RefColumns []*Column
}

// NewTable returns a new table with the given name.
func NewTable(name string) *Table {
	return &Table{Name: name}
}

// AddColumn adds a column to the table.
func (t *Table) AddColumn(c *Column) *Table {
	t.Columns = append(t.Columns, c)
	return t
}

// AddPrimary adds a column to the primary key of the table.
func (t *Table) AddPrimary(c *Column) *Table {
	if !t.HasColumn(c.Name) {
		t.AddColumn(c)
	}
	t.PrimaryKey = append(t.PrimaryKey, c)
	return t
}

// AddIndex adds an index on the named columns. Unknown columns are kept as
// name-only columns so validation can report them.
func (t *Table) AddIndex(name string, unique bool, columns []string) *Table {
	idx := &Index{Name: name, Unique: unique}
	for _, n := range columns {
		c, ok := t.Column(n)
		if !ok {
			c = &Column{Name: n}
		}
		idx.Columns = append(idx.Columns, c)
	}
	t.Indexes = append(t.Indexes, idx)
	return t
}

// AddForeignKey adds a foreign key to the table.
func (t *Table) AddForeignKey(fk *ForeignKey) *Table {
	t.ForeignKeys = append(t.ForeignKeys, fk)
	return t
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Index returns the index with the given name.
func (t *Table) Index(name string) (*Index, bool) {
	for _, idx := range t.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return nil, false
}
