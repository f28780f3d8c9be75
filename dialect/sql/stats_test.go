package sql

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/veloxmysql/dialect/sql/sqlcmd"
)

func TestStatsDriver(t *testing.T) {
	drv, mock := newMock(t, nil)
	var slow []string
	sd := NewStatsDriver(drv,
		WithSlowThreshold(time.Hour),
		WithSlowQueryHook(func(_ context.Context, query string, _ []any, _ time.Duration) {
			slow = append(slow, query)
		}),
	)
	assert.Equal(t, time.Hour, sd.SlowThreshold())

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	rows := &Rows{}
	require.NoError(t, sd.Query(context.Background(), "SELECT 1", []any{}, rows))
	require.NoError(t, rows.Close())

	mock.ExpectExec("DELETE FROM `T` WHERE `id` = ?").WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, sd.ExecCommand(context.Background(), sqlcmd.Command{
		Text:       "DELETE FROM `T` WHERE `id` = @id",
		Parameters: []sqlcmd.Parameter{{Name: "id", Value: 1}},
	}, nil))

	mock.ExpectQuery("SELECT * FROM `T` WHERE `id` IN (SELECT `id` FROM `U` LIMIT 1)").
		WillReturnError(&mysql.MySQLError{Number: 1235})
	err := sd.QueryCommand(context.Background(), sqlcmd.Command{Text: "SELECT * FROM `T` WHERE `id` IN (SELECT `id` FROM `U` LIMIT 1)"}, &Rows{})
	require.Error(t, err)
	assert.True(t, IsUnsupportedError(err))

	snap := sd.QueryStats().Stats()
	assert.Equal(t, int64(2), snap.TotalQueries)
	assert.Equal(t, int64(1), snap.TotalExecs)
	assert.Equal(t, int64(1), snap.Errors)
	assert.Equal(t, int64(1), snap.Unsupported)
	assert.Zero(t, snap.SlowQueries)
	assert.Empty(t, slow)
	assert.Contains(t, snap.String(), "queries=2 execs=1")

	sd.SetSlowThreshold(-1)
	mock.ExpectExec("SELECT SLEEP(0)").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, sd.Exec(context.Background(), "SELECT SLEEP(0)", []any{}, nil))
	assert.Equal(t, []string{"SELECT SLEEP(0)"}, slow)
	assert.Equal(t, int64(1), sd.QueryStats().Stats().SlowQueries)

	sd.QueryStats().Reset()
	assert.Equal(t, StatsSnapshot{}, sd.QueryStats().Stats())
	assert.Zero(t, StatsSnapshot{}.AvgQueryDuration())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsTx(t *testing.T) {
	drv, mock := newMock(t, nil)
	sd := NewStatsDriver(drv)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `T` SET `n` = ? LIMIT 3").WithArgs(2).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	tx, err := sd.Tx(context.Background())
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, tx.(CommandExecQuerier).ExecCommand(ctx, sqlcmd.Command{
		Text:       "UPDATE `T` SET `n` = @n LIMIT @l",
		Parameters: []sqlcmd.Parameter{{Name: "n", Value: 2}, {Name: "l", Value: 3}},
	}, nil))
	require.Error(t, tx.Query(ctx, "SELECT 1", []any{}, &Rows{}))
	require.NoError(t, tx.Rollback())

	snap := sd.QueryStats().Stats()
	assert.Equal(t, int64(1), snap.TotalExecs)
	assert.Equal(t, int64(1), snap.TotalQueries)
	assert.Equal(t, int64(1), snap.Errors)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlowQueryLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	drv, mock := newMock(t, nil)
	sd := NewStatsDriver(drv, WithSlowThreshold(-1), WithSlowQueryLog(logger))

	mock.ExpectExec("DELETE FROM `T` WHERE `secret` = ?").WithArgs("hunter2").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, sd.Exec(context.Background(), "DELETE FROM `T` WHERE `secret` = ?", []any{"hunter2"}, nil))
	assert.Contains(t, buf.String(), "slow query detected")
	assert.Contains(t, buf.String(), "args=1")
	assert.NotContains(t, buf.String(), "hunter2")
}

func TestDebugDriver(t *testing.T) {
	cmd := sqlcmd.Command{
		Text: "SELECT * FROM `T` WHERE `id` = @id AND `name` = @name LIMIT @n",
		Parameters: []sqlcmd.Parameter{
			{Name: "id", Value: 7},
			{Name: "name", Value: "bob"},
			{Name: "n", Value: 2},
		},
	}
	tests := []struct {
		name string
		opts []DebugOption
		want string
	}{
		{
			name: "NamesOnly",
			want: "query:\n-- parameters: @id, @name, @n\nSELECT * FROM `T` WHERE `id` = @id AND `name` = @name LIMIT @n",
		},
		{
			name: "Values",
			opts: []DebugOption{DebugWithParameterValues(true)},
			want: "query:\nSET @id = 7;\nSET @name = 'bob';\nSET @n = 2;\n\nSELECT * FROM `T` WHERE `id` = @id AND `name` = @name LIMIT @n",
		},
		{
			name: "PreparedValues",
			opts: []DebugOption{DebugWithParameterValues(true), DebugWithPreparedText(true)},
			want: "query:\nSET @id = 7;\n\nSELECT * FROM `T` WHERE `id` = @id AND `name` = 'bob' LIMIT 2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv, mock := newMock(t, nil)
			var logs []string
			opts := append([]DebugOption{DebugWithLog(func(_ context.Context, v ...any) {
				for _, s := range v {
					logs = append(logs, s.(string))
				}
			})}, tt.opts...)
			dd := NewDebugDriver(drv, opts...)
			mock.ExpectQuery("SELECT * FROM `T` WHERE `id` = ? AND `name` = 'bob' LIMIT 2").
				WithArgs(7).
				WillReturnRows(sqlmock.NewRows([]string{"id"}))
			rows := &Rows{}
			require.NoError(t, dd.QueryCommand(context.Background(), cmd, rows))
			require.NoError(t, rows.Close())
			require.Equal(t, []string{tt.want}, logs)
			assert.Equal(t, 7, cmd.Parameters[0].Value, "logging does not change the command")
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("Tx", func(t *testing.T) {
		drv, mock := newMock(t, nil)
		var logs []string
		dd := NewDebugDriver(drv, DebugWithLog(func(_ context.Context, v ...any) {
			logs = append(logs, v[0].(string))
		}))
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM `T` WHERE `id` = ?").WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM `U`").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		tx, err := dd.Tx(context.Background())
		require.NoError(t, err)
		require.NoError(t, tx.(CommandExecQuerier).ExecCommand(context.Background(), sqlcmd.Command{
			Text:       "DELETE FROM `T` WHERE `id` = @id",
			Parameters: []sqlcmd.Parameter{{Name: "id", Value: 1}},
		}, nil))
		require.NoError(t, tx.Exec(context.Background(), "DELETE FROM `U`", []any{}, nil))
		require.NoError(t, tx.Commit())
		assert.Equal(t, []string{
			"begin transaction",
			"tx exec:\n-- parameters: @id\nDELETE FROM `T` WHERE `id` = @id",
			"tx exec: DELETE FROM `U` args: <0 hidden>",
			"commit transaction",
		}, logs)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DefaultLogger", func(t *testing.T) {
		var buf bytes.Buffer
		prev := slog.Default()
		slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
		t.Cleanup(func() { slog.SetDefault(prev) })

		drv, mock := newMock(t, nil)
		dd := NewDebugDriver(drv, DebugWithParameterValues(true))
		mock.ExpectExec("SELECT ?").WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 0))
		require.NoError(t, dd.Exec(context.Background(), "SELECT ?", []any{1}, nil))
		assert.True(t, strings.Contains(buf.String(), "exec: SELECT ? args: [1]"))
	})
}
