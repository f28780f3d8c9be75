package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/veloxmysql/dialect"
	"github.com/syssam/veloxmysql/dialect/sqlschema"
)

func messages(errs []*ValidationError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}
	return out
}

func usersTable() *Table {
	return NewTable("users").
		AddPrimary(&Column{Name: "id", Type: "bigint"}).
		AddColumn(&Column{Name: "name", Type: "varchar", Size: 255, Nullable: true}).
		AddColumn(NewJSONColumn("profile", true))
}

func TestValidateTable(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		r := ValidateTable(usersTable())
		assert.False(t, r.HasErrors())
		assert.False(t, r.HasWarnings())
		assert.Equal(t, "No issues found", r.String())
	})

	t.Run("NoPrimaryKey", func(t *testing.T) {
		r := ValidateTable(NewTable("logs").AddColumn(&Column{Name: "line", Type: "text"}))
		assert.False(t, r.HasErrors())
		assert.Equal(t, []string{"logs: table has no primary key"}, messages(r.Warnings))
	})

	t.Run("Duplicates", func(t *testing.T) {
		tbl := usersTable().AddColumn(&Column{Name: "name", Type: "text"})
		tbl.AddIndex("users_name", false, []string{"name"}).AddIndex("users_name", false, []string{"nick"})
		r := ValidateTable(tbl)
		assert.Equal(t, []string{
			"users.name: duplicate column name",
			"users: duplicate index name: users_name",
			`users: index "users_name" references non-existent column "nick"`,
		}, messages(r.Errors))
	})

	t.Run("JSONStoreType", func(t *testing.T) {
		tbl := usersTable()
		c, _ := tbl.Column("profile")
		c.Type = "text"
		r := ValidateTable(tbl)
		assert.Equal(t, []string{`users.profile: JSON column has store type "text", expected "json"`}, messages(r.Errors))
	})

	t.Run("JSONAnnotatedStoreType", func(t *testing.T) {
		tbl := usersTable().AddColumn(NewJSONColumn("settings", false, sqlschema.ColumnType("longtext")))
		ApplyConventions(tbl, dialect.MustParseServerVersion(dialect.DefaultServerVersion))
		r := ValidateTable(tbl)
		assert.False(t, r.HasErrors())
		assert.Equal(t, []string{`users.settings: JSON column has store type "longtext", expected "json"`}, messages(r.Warnings))
	})

	t.Run("JSONOnMariaDB", func(t *testing.T) {
		tbl := usersTable()
		c, _ := tbl.Column("profile")
		c.Type = "LONGTEXT"
		r := ValidateTable(tbl, ForServer(dialect.MustParseServerVersion("10.11.6-MariaDB")))
		assert.False(t, r.HasErrors())
	})

	t.Run("JSONCollation", func(t *testing.T) {
		tbl := usersTable().AddColumn(NewJSONColumn("meta", false, sqlschema.Collation("utf8mb4_bin")))
		ApplyConventions(tbl, dialect.MustParseServerVersion(dialect.DefaultServerVersion))
		r := ValidateTable(tbl)
		assert.Equal(t, []string{"users.meta: JSON column cannot have a charset or collation"}, messages(r.Errors))
	})

	t.Run("JSONIndex", func(t *testing.T) {
		tbl := usersTable().AddIndex("users_profile", false, []string{"profile"})
		r := ValidateTable(tbl)
		require.Len(t, r.Errors, 1)
		assert.Contains(t, r.Errors[0].Error(), "index a generated column instead")

		r = ValidateTable(tbl, ForServer(dialect.MustParseServerVersion("10.11.6-MariaDB")))
		assert.False(t, r.HasErrors())
	})

	t.Run("ForeignKeyColumn", func(t *testing.T) {
		tbl := usersTable().AddForeignKey(&ForeignKey{Columns: []*Column{{Name: "team_id"}}})
		r := ValidateTable(tbl)
		assert.Equal(t, []string{`users: foreign key references non-existent column "team_id"`}, messages(r.Errors))
	})
}

func TestValidateSchema(t *testing.T) {
	users := usersTable()
	teamID := &Column{Name: "team_id", Type: "bigint"}
	users.AddColumn(teamID).AddForeignKey(&ForeignKey{
		Symbol:   "users_team",
		Columns:  []*Column{teamID},
		RefTable: NewTable("teams"),
	})
	r := ValidateSchema([]*Table{users, usersTable()})
	assert.Equal(t, []string{
		"users: duplicate table name",
		`users: foreign key references non-existent table "teams"`,
	}, messages(r.Errors))

	users.ForeignKeys[0].RefTable = nil
	r = ValidateSchema([]*Table{users})
	assert.Equal(t, []string{`users: foreign key references non-existent table ""`}, messages(r.Errors))
}

func TestValidateDiff(t *testing.T) {
	t.Run("Drops", func(t *testing.T) {
		current := []*Table{
			usersTable().AddIndex("users_name", false, []string{"name"}),
			NewTable("legacy"),
		}
		desired := []*Table{NewTable("users").AddPrimary(&Column{Name: "id", Type: "bigint"})}
		r := ValidateDiff(current, desired)
		assert.Equal(t, []string{
			"users.name: column will be dropped",
			"users.profile: column will be dropped",
			`users: index "users_name" will be dropped`,
			"legacy: table will be dropped",
		}, messages(r.Errors))
		assert.True(t, r.HasBreakingChanges())

		r = ValidateDiff(current, desired, AllowDropColumn(), AllowDropTable(), AllowDropIndex())
		assert.False(t, r.HasErrors())
		assert.Len(t, r.Warnings, 4)
		assert.True(t, r.HasBreakingChanges())
		assert.Contains(t, r.String(), "[BREAKING]")
	})

	t.Run("JSONToText", func(t *testing.T) {
		desired := usersTable()
		c, _ := desired.Column("profile")
		c.JSON, c.Type = false, "text"
		r := ValidateDiff([]*Table{usersTable()}, []*Table{desired})
		require.Len(t, r.Errors, 1)
		assert.True(t, r.Errors[0].Breaking)
		assert.Equal(t, "profile", r.Errors[0].Column)
	})

	t.Run("TextToJSON", func(t *testing.T) {
		current := usersTable()
		c, _ := current.Column("profile")
		c.JSON, c.Type = false, "text"
		r := ValidateDiff([]*Table{current}, []*Table{usersTable()})
		assert.False(t, r.HasErrors())
		assert.Equal(t, []string{"users.profile: column changing to JSON fails if it holds invalid JSON documents"}, messages(r.Warnings))
	})

	t.Run("ColumnChanges", func(t *testing.T) {
		current := NewTable("users").
			AddPrimary(&Column{Name: "id", Type: "bigint"}).
			AddColumn(&Column{Name: "name", Type: "varchar", Size: 255, Nullable: true})
		desired := NewTable("users").
			AddPrimary(&Column{Name: "id", Type: "BIGINT"}).
			AddColumn(&Column{Name: "name", Type: "char", Size: 32, Unique: true}).
			AddColumn(&Column{Name: "age", Type: "int"}).
			AddColumn(&Column{Name: "nick", Type: "varchar", Nullable: true})
		r := ValidateDiff([]*Table{current}, []*Table{desired})
		assert.Equal(t, []string{"users.name: column changing from NULL to NOT NULL may fail if column has NULL values"}, messages(r.Errors))
		assert.Equal(t, []string{
			"users.name: column type changing from varchar to char",
			"users.name: column size reducing from 255 to 32 may truncate data",
			"users.name: adding UNIQUE constraint may fail if duplicate values exist",
			"users.age: new NOT NULL column without default value may fail if table has data",
		}, messages(r.Warnings))

		r = ValidateDiff([]*Table{current}, []*Table{desired}, AllowNullToNotNull())
		assert.False(t, r.HasErrors())
		assert.Len(t, r.Warnings, 5)
	})
}
