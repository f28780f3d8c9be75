package sql

import (
	"context"
	"errors"
	"fmt"

	"github.com/syssam/veloxmysql/dialect"
)

// DetectServerVersion asks the server for its version.
//
//	sv, err := sql.DetectServerVersion(ctx, drv)
//	opts, err := dialect.NewOptions(dialect.WithServerVersion(sv.String()))
func DetectServerVersion(ctx context.Context, ex dialect.ExecQuerier) (dialect.ServerVersion, error) {
	rows := &Rows{}
	if err := ex.Query(ctx, "SELECT VERSION()", []any{}, rows); err != nil {
		return dialect.ServerVersion{}, fmt.Errorf("dialect/sql: detect server version: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		err := rows.Err()
		if err == nil {
			err = errors.New("no rows returned")
		}
		return dialect.ServerVersion{}, fmt.Errorf("dialect/sql: detect server version: %w", err)
	}
	var version string
	if err := rows.Scan(&version); err != nil {
		return dialect.ServerVersion{}, fmt.Errorf("dialect/sql: detect server version: %w", err)
	}
	return dialect.ParseServerVersion(version)
}
