// Package veloxmysql is the MySQL/MariaDB dialect layer of the velox ORM runtime.
//
// It rewrites the relational expression trees produced by the ORM for the
// dialect, generates SQL text and prepares commands for execution:
//
//	dialect/sql/expr     relational expression tree
//	dialect/sql/query    rewrite pipeline (collapsing, inlining, JSON_TABLE)
//	dialect/sql/sqlgen   SQL text generation
//	dialect/sql/sqlcmd   command post-processing before execution
//	dialect/sql          driver, provider and error classification
//
// The root package only holds the error types shared by all sub-packages.
package veloxmysql
