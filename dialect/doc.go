// Package dialect describes the MySQL family of database servers targeted by
// veloxmysql.
//
// # Dialect Constants
//
// Each server family is identified by a constant string:
//
//	dialect.MySQL   = "mysql"
//	dialect.MariaDB = "mariadb"
//
// # Server Versions
//
// A ServerVersion pins the server family and version the generated SQL must
// run on. The capability matrix returned by ServerVersion.Supports decides
// which workarounds the query pipeline applies:
//
//	sv := dialect.MustParseServerVersion("10.11.6-MariaDB")
//	if !sv.Supports().JSONTable {
//	    // JSON_TABLE() translations fail with a TranslationError.
//	}
//
// # Driver Interface
//
// Drivers implement the Driver interface; transactions implement Tx. Both
// satisfy ExecQuerier:
//
//	type ExecQuerier interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	}
//
// # Options
//
// Options configure the provider. They are built from functional options or
// loaded from YAML:
//
//	opts, err := dialect.NewOptions(
//	    dialect.WithServerVersion("8.0.36-mysql"),
//	    dialect.WithIndexOptimizedBooleanColumns(true),
//	)
//
//	f, _ := os.Open("veloxmysql.yaml")
//	opts, err := dialect.LoadOptions(f)
//
// An example YAML document:
//
//	server_version: 8.0.36-mysql
//	no_backslash_escapes: false
//	replace_line_breaks_with_char_function: true
//	index_optimized_boolean_columns: false
//	primitive_collections: true
//	json_table_parameter_skip: false
//	strict_literals: false
//	plan_cache_size: 512
//	log_parameter_values: false
package dialect
