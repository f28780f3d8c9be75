package schema

import (
	"fmt"
	"slices"
	"strings"

	"github.com/syssam/veloxmysql/dialect"
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Table   string
	Column  string
	Message string
	// Breaking indicates if this is a breaking change.
	Breaking bool
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of schema validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// HasBreakingChanges returns true if there are any breaking changes.
func (r *ValidationResult) HasBreakingChanges() bool {
	for _, e := range slices.Concat(r.Errors, r.Warnings) {
		if e.Breaking {
			return true
		}
	}
	return false
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	write := func(title string, errs []*ValidationError) {
		if len(errs) == 0 {
			return
		}
		sb.WriteString(title)
		sb.WriteString(":\n")
		for _, e := range errs {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			if e.Breaking {
				sb.WriteString(" [BREAKING]")
			}
			sb.WriteString("\n")
		}
	}
	write("Errors", r.Errors)
	write("Warnings", r.Warnings)
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

func (r *ValidationResult) add(err *ValidationError, allowed bool) {
	if allowed {
		r.Warnings = append(r.Warnings, err)
	} else {
		r.Errors = append(r.Errors, err)
	}
}

func (r *ValidationResult) merge(other *ValidationResult) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// ValidateOption configures schema validation.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	server             dialect.ServerVersion
	allowDropColumn    bool
	allowDropTable     bool
	allowDropIndex     bool
	allowNullToNotNull bool
}

func newValidateConfig(opts []ValidateOption) *validateConfig {
	cfg := &validateConfig{server: dialect.MustParseServerVersion(dialect.DefaultServerVersion)}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// ForServer validates the schema against the given server version.
// The default is dialect.DefaultServerVersion.
func ForServer(sv dialect.ServerVersion) ValidateOption {
	return func(c *validateConfig) {
		c.server = sv
	}
}

// AllowDropColumn allows dropping columns without error.
func AllowDropColumn() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropColumn = true
	}
}

// AllowDropTable allows dropping tables without error.
func AllowDropTable() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropTable = true
	}
}

// AllowDropIndex allows dropping indexes without error.
func AllowDropIndex() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropIndex = true
	}
}

// AllowNullToNotNull allows changing nullable columns to not null.
func AllowNullToNotNull() ValidateOption {
	return func(c *validateConfig) {
		c.allowNullToNotNull = true
	}
}

// ValidateDiff validates the difference between current and desired schema.
// It returns validation errors for breaking changes and warnings for potentially
// dangerous operations.
//
//	result := schema.ValidateDiff(current, desired, schema.ForServer(sv))
//	if result.HasBreakingChanges() {
//	    log.Fatal("Breaking changes detected:", result)
//	}
func ValidateDiff(current, desired []*Table, opts ...ValidateOption) *ValidationResult {
	cfg := newValidateConfig(opts)
	result := &ValidationResult{}
	desiredMap := make(map[string]*Table, len(desired))
	for _, t := range desired {
		desiredMap[t.Name] = t
	}
	for _, c := range current {
		d, ok := desiredMap[c.Name]
		if !ok {
			result.add(&ValidationError{Table: c.Name, Message: "table will be dropped", Breaking: true}, cfg.allowDropTable)
			continue
		}
		validateTableDiff(c, d, cfg, result)
	}
	return result
}

func validateTableDiff(current, desired *Table, cfg *validateConfig, result *ValidationResult) {
	for _, c := range current.Columns {
		if !desired.HasColumn(c.Name) {
			result.add(&ValidationError{Table: current.Name, Column: c.Name, Message: "column will be dropped", Breaking: true}, cfg.allowDropColumn)
		}
	}
	for _, desiredCol := range desired.Columns {
		currentCol, exists := current.Column(desiredCol.Name)
		if !exists {
			if !desiredCol.Nullable && desiredCol.Default == nil {
				result.Warnings = append(result.Warnings, &ValidationError{
					Table:   current.Name,
					Column:  desiredCol.Name,
					Message: "new NOT NULL column without default value may fail if table has data",
				})
			}
			continue
		}
		wasJSON, isJSON := currentCol.holdsJSON(), desiredCol.holdsJSON()
		switch {
		case wasJSON && !isJSON:
			result.Errors = append(result.Errors, &ValidationError{
				Table:    current.Name,
				Column:   desiredCol.Name,
				Message:  fmt.Sprintf("JSON column changing to %s; documents stored in it are no longer queryable as JSON", desiredCol.Type),
				Breaking: true,
			})
		case !wasJSON && isJSON:
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   current.Name,
				Column:  desiredCol.Name,
				Message: "column changing to JSON fails if it holds invalid JSON documents",
			})
		case !strings.EqualFold(currentCol.Type, desiredCol.Type):
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   current.Name,
				Column:  desiredCol.Name,
				Message: fmt.Sprintf("column type changing from %s to %s", currentCol.Type, desiredCol.Type),
			})
		}
		if currentCol.Nullable && !desiredCol.Nullable {
			result.add(&ValidationError{
				Table:    current.Name,
				Column:   desiredCol.Name,
				Message:  "column changing from NULL to NOT NULL may fail if column has NULL values",
				Breaking: true,
			}, cfg.allowNullToNotNull)
		}
		if currentCol.Size > 0 && desiredCol.Size > 0 && desiredCol.Size < currentCol.Size {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   current.Name,
				Column:  desiredCol.Name,
				Message: fmt.Sprintf("column size reducing from %d to %d may truncate data", currentCol.Size, desiredCol.Size),
			})
		}
		if !currentCol.Unique && desiredCol.Unique {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   current.Name,
				Column:  desiredCol.Name,
				Message: "adding UNIQUE constraint may fail if duplicate values exist",
			})
		}
	}
	for _, idx := range current.Indexes {
		if _, ok := desired.Index(idx.Name); !ok {
			result.add(&ValidationError{Table: current.Name, Message: fmt.Sprintf("index %q will be dropped", idx.Name)}, cfg.allowDropIndex)
		}
	}
}

// ValidateTable validates a single table definition.
func ValidateTable(t *Table, opts ...ValidateOption) *ValidationResult {
	return validateTable(t, newValidateConfig(opts))
}

func validateTable(t *Table, cfg *validateConfig) *ValidationResult {
	result := &ValidationResult{}
	if len(t.PrimaryKey) == 0 {
		result.Warnings = append(result.Warnings, &ValidationError{
			Table:   t.Name,
			Message: "table has no primary key",
		})
	}
	colNames := make(map[string]bool)
	for _, c := range t.Columns {
		if colNames[c.Name] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Column:  c.Name,
				Message: "duplicate column name",
			})
		}
		colNames[c.Name] = true
		if c.JSON {
			validateJSONColumn(t, c, cfg, result)
		}
	}
	idxNames := make(map[string]bool)
	for _, idx := range t.Indexes {
		if idxNames[idx.Name] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Message: fmt.Sprintf("duplicate index name: %s", idx.Name),
			})
		}
		idxNames[idx.Name] = true
		for _, col := range idx.Columns {
			if col == nil {
				continue
			}
			if !colNames[col.Name] {
				result.Errors = append(result.Errors, &ValidationError{
					Table:   t.Name,
					Message: fmt.Sprintf("index %q references non-existent column %q", idx.Name, col.Name),
				})
			} else if c, _ := t.Column(col.Name); c.JSON && cfg.server.IsMySQL() {
				result.Errors = append(result.Errors, &ValidationError{
					Table:   t.Name,
					Column:  col.Name,
					Message: fmt.Sprintf("index %q cannot include a JSON column directly; index a generated column instead", idx.Name),
				})
			}
		}
	}
	for _, fk := range t.ForeignKeys {
		for _, col := range fk.Columns {
			if !colNames[col.Name] {
				result.Errors = append(result.Errors, &ValidationError{
					Table:   t.Name,
					Message: fmt.Sprintf("foreign key references non-existent column %q", col.Name),
				})
			}
		}
	}
	return result
}

// validateJSONColumn checks the store type of a JSON-mapped column. An
// annotated column type other than json is accepted with a warning.
func validateJSONColumn(t *Table, c *Column, cfg *validateConfig, result *ValidationResult) {
	if !isJSONType(c.Type, cfg.server) {
		err := &ValidationError{
			Table:   t.Name,
			Column:  c.Name,
			Message: fmt.Sprintf("JSON column has store type %q, expected %q", c.Type, JSONColumnType),
		}
		if c.hasAnnotatedType(cfg.server) {
			result.Warnings = append(result.Warnings, err)
		} else {
			result.Errors = append(result.Errors, err)
		}
	}
	if c.Charset != "" || c.Collation != "" {
		result.Errors = append(result.Errors, &ValidationError{
			Table:   t.Name,
			Column:  c.Name,
			Message: "JSON column cannot have a charset or collation",
		})
	}
}

// ValidateSchema validates all tables in a schema.
func ValidateSchema(tables []*Table, opts ...ValidateOption) *ValidationResult {
	cfg := newValidateConfig(opts)
	result := &ValidationResult{}
	tableNames := make(map[string]bool)
	for _, t := range tables {
		if tableNames[t.Name] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Message: "duplicate table name",
			})
		}
		tableNames[t.Name] = true
		result.merge(validateTable(t, cfg))
	}
	for _, t := range tables {
		for _, fk := range t.ForeignKeys {
			if fk.RefTable == nil || !tableNames[fk.RefTable.Name] {
				name := ""
				if fk.RefTable != nil {
					name = fk.RefTable.Name
				}
				result.Errors = append(result.Errors, &ValidationError{
					Table:   t.Name,
					Message: fmt.Sprintf("foreign key references non-existent table %q", name),
				})
			}
		}
	}
	return result
}
