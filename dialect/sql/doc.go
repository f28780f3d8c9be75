// Package sql executes translated expression trees on MySQL and MariaDB
// through database/sql and github.com/go-sql-driver/mysql.
//
// # Provider
//
// A Provider ties the rewrite pipeline, the SQL generator, the plan cache and
// a driver together:
//
//	drv, err := sql.Open("user:pass@tcp(localhost:3306)/app", opts)
//	if err != nil {
//	    return err
//	}
//	p, err := sql.NewProvider(drv, opts)
//	if err != nil {
//	    return err
//	}
//	rows := &sql.Rows{}
//	bag := query.NewParameterBag(map[string]any{"name": "a8m"})
//	if err := p.Query(ctx, tree, bag, rows); err != nil {
//	    return err
//	}
//	defer rows.Close()
//
// Compile returns the generated command without executing it, and Debug
// renders it with SET statements for every remaining parameter:
//
//	SET @x = 4;
//
//	SELECT `t`.`id` FROM `T` AS `t` WHERE `t`.`x` > @x
//
// # Commands
//
// Drivers and transactions implement CommandExecQuerier. ExecCommand and
// QueryCommand prepare a sqlcmd.Command (LIMIT folding, string parameter
// inlining) and bind its @name references to positional arguments before
// the statement is sent.
//
// # Server Version
//
// DetectServerVersion asks a live server for its version:
//
//	sv, err := sql.DetectServerVersion(ctx, drv)
//	opts, err := dialect.NewOptions(dialect.WithServerVersion(sv.String()))
//
// # Session Variables
//
// Values attached with WithVar are set on a pinned connection before the
// statement runs and reset afterwards:
//
//	ctx = sql.WithVar(ctx, "@@session.sql_mode", "ANSI_QUOTES")
//
// # Statistics and Debugging
//
// StatsDriver counts statements, errors and slow queries. DebugDriver logs
// every statement; parameter values are hidden unless enabled:
//
//	drv = sql.NewDebugDriver(drv, sql.DebugWithParameterValues(true))
//
// # Errors
//
// IsUniqueConstraintError, IsForeignKeyConstraintError,
// IsCheckConstraintError and IsUnsupportedError classify server errors by
// their MySQL error numbers.
package sql
