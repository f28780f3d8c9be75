package sql

import (
	"context"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/veloxmysql"
	"github.com/syssam/veloxmysql/dialect"
	"github.com/syssam/veloxmysql/dialect/sql/expr"
	"github.com/syssam/veloxmysql/dialect/sql/query"
	"github.com/syssam/veloxmysql/dialect/sql/typemap"
)

var (
	intMapping = typemap.IntMapping{Type: reflect.TypeOf(0)}
	intInfo    = expr.InfoOf(intMapping)
	strMapping = typemap.StringMapping{}
	strInfo    = expr.InfoOf(strMapping)
)

// usersQuery selects the ids of T rows with x greater than @x and, when
// withLimit is set, at most @n of them.
func usersQuery(withLimit bool) *expr.Select {
	s := &expr.Select{
		Projection: []expr.Projection{{Expr: expr.C("t", "id", intInfo), Alias: "id"}},
		Tables:     []expr.TableSource{expr.T("T", "t")},
		Predicate:  expr.Gt(expr.C("t", "x", intInfo), expr.Param("x", intMapping)),
	}
	if withLimit {
		s.Limit = expr.Param("n", intMapping)
	}
	return s
}

func TestProvider_Compile(t *testing.T) {
	p, err := NewProvider(nil, nil)
	require.NoError(t, err)

	cmd, err := p.Compile(usersQuery(false), query.NewParameterBag(map[string]any{"x": 1}))
	require.NoError(t, err)
	assert.Equal(t, "SELECT `t`.`id` FROM `T` AS `t` WHERE `t`.`x` > @x", cmd.Text)
	require.Len(t, cmd.Parameters, 1)
	assert.Equal(t, 1, cmd.Parameters[0].Value)

	cmd, err = p.Compile(usersQuery(false), query.NewParameterBag(map[string]any{"x": 2}))
	require.NoError(t, err)
	assert.Equal(t, 2, cmd.Parameters[0].Value, "cached plans take the new values")
	assert.Equal(t, query.CacheStats{Hits: 1, Misses: 1, Len: 1}, p.CacheStats())

	t.Run("ValueDependent", func(t *testing.T) {
		p.ClearCache()
		bag := query.NewParameterBag(map[string]any{"x": 1, "n": 5})
		cmd, err := p.Compile(usersQuery(true), bag)
		require.NoError(t, err)
		assert.Equal(t, "SELECT `t`.`id` FROM `T` AS `t` WHERE `t`.`x` > @x LIMIT 5", cmd.Text)
		assert.True(t, bag.CachingDisabled())
		assert.Zero(t, p.CacheStats().Len)

		cmd, err = p.Compile(usersQuery(true), query.NewParameterBag(map[string]any{"x": 1, "n": 7}))
		require.NoError(t, err)
		assert.Equal(t, "SELECT `t`.`id` FROM `T` AS `t` WHERE `t`.`x` > @x LIMIT 7", cmd.Text)
	})

	t.Run("TypedKey", func(t *testing.T) {
		p.ClearCache()
		extract := func(info expr.Info) *expr.Select {
			return &expr.Select{
				Projection: []expr.Projection{{Expr: &expr.JSONScalar{
					Info: info,
					JSON: expr.C("t", "doc", expr.InfoOf(typemap.JSONMapping{})),
					Path: []expr.PathSegment{expr.Prop("a")},
				}, Alias: "a"}},
				Tables: []expr.TableSource{expr.T("T", "t")},
			}
		}
		cmd, err := p.Compile(extract(intInfo), nil)
		require.NoError(t, err)
		assert.Contains(t, cmd.Text, "RETURNING signed")

		cmd, err = p.Compile(extract(strInfo), nil)
		require.NoError(t, err)
		assert.Contains(t, cmd.Text, "JSON_UNQUOTE(JSON_EXTRACT(`t`.`doc`, '$.a'))")
		assert.NotContains(t, cmd.Text, "RETURNING")
		assert.Equal(t, 2, p.CacheStats().Len)
	})

	t.Run("CountPaged", func(t *testing.T) {
		tr := p.Translator()
		s := &expr.Select{
			Tables:    []expr.TableSource{expr.T("T", "t")},
			Orderings: []expr.Ordering{{Expr: expr.C("t", "y", intInfo)}},
		}
		cmd, err := p.Compile(tr.Count(tr.Take(s, expr.Param("n", intMapping))), query.NewParameterBag(map[string]any{"n": 3}))
		require.NoError(t, err)
		assert.Equal(t, "SELECT COUNT(*) FROM (SELECT * FROM `T` AS `t` ORDER BY `t`.`y` LIMIT 3) AS `t`", cmd.Text)
		assert.Empty(t, cmd.Parameters)
	})

	t.Run("MissingParameter", func(t *testing.T) {
		_, err := p.Compile(usersQuery(false), nil)
		assert.True(t, veloxmysql.IsParameterNotFound(err))
	})

	t.Run("Unsupported", func(t *testing.T) {
		p, err := NewProvider(nil, mustOptions(t, dialect.WithServerVersion("5.7.44")))
		require.NoError(t, err)
		s := &expr.Select{Tables: []expr.TableSource{&expr.JSONTable{
			Alias:   "j",
			Source:  expr.C("t", "tags", expr.InfoOf(typemap.JSONMapping{})),
			Path:    []expr.PathSegment{expr.Wildcard},
			Columns: []expr.JSONColumn{{Name: "value", Info: intInfo}},
		}}}
		_, err = p.Compile(s, nil)
		require.Error(t, err)
		assert.True(t, veloxmysql.IsTranslationError(err))
		assert.Contains(t, err.Error(), "JSON_TABLE() is not supported by MySQL 5.7.44")
	})

	t.Run("Concurrent", func(t *testing.T) {
		p.ClearCache()
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				cmd, err := p.Compile(usersQuery(false), query.NewParameterBag(map[string]any{"x": i}))
				assert.NoError(t, err)
				assert.Equal(t, i, cmd.Parameters[0].Value)
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 1, p.CacheStats().Len)
	})
}

func TestProvider_Query(t *testing.T) {
	drv, mock := newMock(t, nil)
	p, err := NewProvider(drv, nil)
	require.NoError(t, err)

	s := usersQuery(true)
	s.Predicate = expr.And(expr.Eq(expr.C("t", "name", strInfo), expr.Param("name", strMapping)), s.Predicate)
	mock.ExpectQuery("SELECT `t`.`id` FROM `T` AS `t` WHERE `t`.`name` = 'bob' AND `t`.`x` > ? LIMIT 5").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))

	rows := &Rows{}
	err = p.Query(context.Background(), s, query.NewParameterBag(map[string]any{"name": "bob", "x": 1, "n": 5}), rows)
	require.NoError(t, err)
	var ids []int
	for rows.Next() {
		var id int
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Close())
	assert.Equal(t, []int{1, 2}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProvider_Exec(t *testing.T) {
	drv, mock := newMock(t, nil)
	p, err := NewProvider(drv, nil)
	require.NoError(t, err)

	del, err := p.Translator().ExecuteDelete(usersQuery(false))
	require.NoError(t, err)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE `t` FROM `T` AS `t` WHERE `t`.`x` > ?").
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	tx, err := drv.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	var res Result
	require.NoError(t, p.ExecOn(context.Background(), tx, del, query.NewParameterBag(map[string]any{"x": 3}), &res))
	require.NoError(t, tx.Commit())
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProvider_Debug(t *testing.T) {
	p, err := NewProvider(nil, nil)
	require.NoError(t, err)
	s := usersQuery(false)
	s.Predicate = expr.And(s.Predicate, expr.Eq(expr.C("t", "name", strInfo), expr.Param("name", strMapping)))
	out, err := p.Debug(s, query.NewParameterBag(map[string]any{"x": 4, "name": "a\nb"}))
	require.NoError(t, err)
	assert.Equal(t, "SET @x = 4;\n\nSELECT `t`.`id` FROM `T` AS `t` WHERE `t`.`x` > @x AND `t`.`name` = CONCAT('a', CHAR(10), 'b')", out)
}

func TestProvider_Errors(t *testing.T) {
	t.Run("NoDriver", func(t *testing.T) {
		p, err := NewProvider(nil, nil)
		require.NoError(t, err)
		err = p.Query(context.Background(), usersQuery(false), nil, &Rows{})
		assert.ErrorIs(t, err, ErrNoDriver)
		err = p.Exec(context.Background(), usersQuery(false), nil, nil)
		assert.ErrorIs(t, err, ErrNoDriver)
	})
	t.Run("DialectMismatch", func(t *testing.T) {
		drv, _ := newMock(t, nil)
		_, err := NewProvider(drv, mustOptions(t, dialect.WithServerVersion("10.11.6-MariaDB")))
		require.Error(t, err)
		assert.True(t, veloxmysql.IsConfigError(err))
		assert.True(t, strings.Contains(err.Error(), "driver dialect is mysql"))
	})
	t.Run("InvalidOptions", func(t *testing.T) {
		_, err := NewProvider(nil, &dialect.Options{})
		assert.True(t, veloxmysql.IsConfigError(err))
	})
}
