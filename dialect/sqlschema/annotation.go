// Package sqlschema provides MySQL-specific column and table annotations
// consumed by the dialect/sql/schema package.
//
// # API Styles
//
// Functional style:
//
//	sqlschema.ColumnType("longtext")
//	sqlschema.Charset("utf8mb4")
//
// Struct literal style:
//
//	sqlschema.Annotation{
//	    ColumnType: "json",
//	    Check:      "JSON_VALID(`doc`)",
//	}
//
// Annotations are merged in order, later values override earlier ones:
//
//	a := sqlschema.Size(64).Merge(sqlschema.Collation("utf8mb4_bin"))
//
// # Dialect-specific column types
//
// ColumnTypes overrides the store type per server family:
//
//	sqlschema.ColumnTypes(map[string]string{
//	    dialect.MySQL:   "json",
//	    dialect.MariaDB: "longtext",
//	})
package sqlschema

import "maps"

// AnnotationName is the name used for SQL annotations.
const AnnotationName = "sql"

// Annotation holds MySQL-specific settings for tables and columns.
type Annotation struct {
	// Table overrides the database table name of an entity.
	Table string

	// Skip indicates this column should not be created.
	Skip bool

	// Size overrides the column size (e.g., VARCHAR(Size)).
	Size int64

	// ColumnType sets a custom database column type. For JSON-mapped
	// columns it replaces the "json" container type.
	ColumnType string

	// ColumnTypes provides dialect-specific column types.
	// Map from dialect name to column type.
	ColumnTypes map[string]string

	// Charset sets the character set for string columns.
	Charset string

	// Collation sets the collation for string columns.
	Collation string

	// Check adds a CHECK constraint expression.
	Check string

	// Options sets additional table options, e.g. "ENGINE=InnoDB".
	Options string
}

// Name returns the annotation name.
func (Annotation) Name() string {
	return AnnotationName
}

// Merge returns a copy of a with the set fields of other applied on top.
func (a Annotation) Merge(other Annotation) Annotation {
	if other.Table != "" {
		a.Table = other.Table
	}
	if other.Skip {
		a.Skip = true
	}
	if other.Size != 0 {
		a.Size = other.Size
	}
	if other.ColumnType != "" {
		a.ColumnType = other.ColumnType
	}
	if len(other.ColumnTypes) > 0 {
		types := make(map[string]string, len(a.ColumnTypes)+len(other.ColumnTypes))
		maps.Copy(types, a.ColumnTypes)
		maps.Copy(types, other.ColumnTypes)
		a.ColumnTypes = types
	}
	if other.Charset != "" {
		a.Charset = other.Charset
	}
	if other.Collation != "" {
		a.Collation = other.Collation
	}
	if other.Check != "" {
		a.Check = other.Check
	}
	if other.Options != "" {
		a.Options = other.Options
	}
	return a
}

// Table sets the database table name for an entity.
func Table(name string) Annotation {
	return Annotation{Table: name}
}

// Skip marks this column to be skipped.
func Skip() Annotation {
	return Annotation{Skip: true}
}

// Size sets the column size override.
//
// Example:
//
//	field.String("code").
//	    Annotations(sqlschema.Size(10))
func Size(size int64) Annotation {
	return Annotation{Size: size}
}

// ColumnType sets a custom database column type.
//
// Example:
//
//	field.JSON("meta", Meta{}).
//	    Annotations(sqlschema.ColumnType("longtext"))
func ColumnType(typ string) Annotation {
	return Annotation{ColumnType: typ}
}

// ColumnTypes sets dialect-specific column types.
func ColumnTypes(types map[string]string) Annotation {
	return Annotation{ColumnTypes: types}
}

// Charset sets the character set for a string column.
func Charset(charset string) Annotation {
	return Annotation{Charset: charset}
}

// Collation sets the collation for a string column.
//
// Example:
//
//	field.String("name").
//	    Annotations(sqlschema.Collation("utf8mb4_unicode_ci"))
func Collation(c string) Annotation {
	return Annotation{Collation: c}
}

// Check adds a CHECK constraint to the column.
func Check(expr string) Annotation {
	return Annotation{Check: expr}
}

// Options sets additional table options.
func Options(opts string) Annotation {
	return Annotation{Options: opts}
}

// GetColumnType returns the column type for the given dialect. Dialect
// specific types take precedence over ColumnType.
func (a Annotation) GetColumnType(dialect string) (string, bool) {
	if t, ok := a.ColumnTypes[dialect]; ok && t != "" {
		return t, true
	}
	return a.ColumnType, a.ColumnType != ""
}

// GetSize returns the size override and whether it was set.
func (a Annotation) GetSize() (int64, bool) {
	return a.Size, a.Size > 0
}
