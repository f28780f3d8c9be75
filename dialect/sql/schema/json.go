package schema

import (
	"strings"

	"github.com/syssam/veloxmysql/dialect"
	"github.com/syssam/veloxmysql/dialect/sqlschema"
)

// JSONColumnType is the container column type of JSON-mapped properties.
// MariaDB accepts it as an alias of LONGTEXT.
const JSONColumnType = "json"

// mariaDBJSONType is the store type MariaDB reports for JSON columns.
const mariaDBJSONType = "longtext"

// NewJSONColumn returns a column holding a structural property mapped to a
// JSON document.
func NewJSONColumn(name string, nullable bool, annotations ...sqlschema.Annotation) *Column {
	c := &Column{Name: name, Type: JSONColumnType, JSON: true, Nullable: nullable}
	if len(annotations) > 0 {
		var a sqlschema.Annotation
		for _, ann := range annotations {
			a = a.Merge(ann)
		}
		c.Annotation = &a
	}
	return c
}

// ApplyConventions resolves the column types of t for the server family of
// sv. Annotated column types, sizes, charsets and collations are copied onto
// the columns, and JSON columns without an annotated type get the json
// container type.
func ApplyConventions(t *Table, sv dialect.ServerVersion) {
	for _, c := range t.Columns {
		if c.Annotation != nil {
			a := c.Annotation
			if typ, ok := a.GetColumnType(sv.Type); ok {
				c.Type = typ
			}
			if size, ok := a.GetSize(); ok {
				c.Size = size
			}
			if a.Charset != "" {
				c.Charset = a.Charset
			}
			if a.Collation != "" {
				c.Collation = a.Collation
			}
		}
		if c.JSON && !c.hasAnnotatedType(sv) {
			c.Type = JSONColumnType
		}
	}
}

func (c *Column) hasAnnotatedType(sv dialect.ServerVersion) bool {
	if c.Annotation == nil {
		return false
	}
	_, ok := c.Annotation.GetColumnType(sv.Type)
	return ok
}

// holdsJSON reports whether the column is mapped to JSON documents.
func (c *Column) holdsJSON() bool {
	return c.JSON || strings.EqualFold(c.Type, JSONColumnType)
}

// isJSONType reports whether typ is a store type holding JSON documents on
// the server family of sv.
func isJSONType(typ string, sv dialect.ServerVersion) bool {
	typ = strings.ToLower(strings.TrimSpace(typ))
	return typ == JSONColumnType || sv.IsMariaDB() && typ == mariaDBJSONType
}
