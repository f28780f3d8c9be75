package sql

import (
	"context"
	"fmt"

	"github.com/syssam/veloxmysql/dialect"
	"github.com/syssam/veloxmysql/dialect/sql/sqlcmd"
)

// CommandExecQuerier executes commands produced by the SQL generator.
// Commands are prepared (LIMIT folding, string inlining) and their "@name"
// references bound to "?" placeholders right before execution.
type CommandExecQuerier interface {
	ExecCommand(ctx context.Context, cmd sqlcmd.Command, v any) error
	QueryCommand(ctx context.Context, cmd sqlcmd.Command, v any) error
}

// CommandDriver is a driver that also executes commands.
type CommandDriver interface {
	dialect.Driver
	CommandExecQuerier
	Preparer() *sqlcmd.Preparer
}

// ExecCommand prepares cmd and executes it. v is nil or a *sql.Result.
func (c Conn) ExecCommand(ctx context.Context, cmd sqlcmd.Command, v any) error {
	return execCommand(ctx, c, c.Preparer(), cmd, v)
}

// QueryCommand prepares cmd and runs it, scanning the result into v, a *Rows.
func (c Conn) QueryCommand(ctx context.Context, cmd sqlcmd.Command, v any) error {
	return queryCommand(ctx, c, c.Preparer(), cmd, v)
}

func execCommand(ctx context.Context, ex dialect.ExecQuerier, prep *sqlcmd.Preparer, cmd sqlcmd.Command, v any) error {
	query, args, err := bindCommand(prep, cmd)
	if err != nil {
		return fmt.Errorf("dialect/sql: exec: %w", err)
	}
	return ex.Exec(ctx, query, args, v)
}

func queryCommand(ctx context.Context, ex dialect.ExecQuerier, prep *sqlcmd.Preparer, cmd sqlcmd.Command, v any) error {
	query, args, err := bindCommand(prep, cmd)
	if err != nil {
		return fmt.Errorf("dialect/sql: query: %w", err)
	}
	return ex.Query(ctx, query, args, v)
}

// bindCommand returns the statement text and arguments sent to the server.
func bindCommand(prep *sqlcmd.Preparer, cmd sqlcmd.Command) (string, []any, error) {
	cmd, err := prep.Prepare(cmd)
	if err != nil {
		return "", nil, err
	}
	query, args, err := prep.Bind(cmd)
	if err != nil {
		return "", nil, err
	}
	if args == nil {
		args = []any{}
	}
	return query, args, nil
}

var (
	_ CommandDriver      = (*Driver)(nil)
	_ CommandExecQuerier = (*Tx)(nil)
)
