package sql

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// MySQL server error numbers.
const (
	mysqlDuplicateEntry         = 1062
	mysqlForeignKeyParent       = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild        = 1452 // Cannot add or update a child row
	mysqlForeignKeyParentOld    = 1217 // Pre-5.5 form of 1451
	mysqlForeignKeyChildOld     = 1216 // Pre-5.5 form of 1452
	mysqlCheckConstraintViolate = 3819
	mysqlNotSupportedYet        = 1235 // This version of MySQL doesn't yet support ...
)

// IsConstraintError returns true if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	return IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err)
}

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
// e.g. duplicate value in unique index.
func IsUniqueConstraintError(err error) bool {
	return hasNumber(err, mysqlDuplicateEntry)
}

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
// e.g. parent row does not exist.
func IsForeignKeyConstraintError(err error) bool {
	return hasNumber(err, mysqlForeignKeyParent, mysqlForeignKeyChild, mysqlForeignKeyParentOld, mysqlForeignKeyChildOld)
}

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
func IsCheckConstraintError(err error) bool {
	return hasNumber(err, mysqlCheckConstraintViolate)
}

// IsUnsupportedError reports if the server rejected a statement using a
// construct it does not implement, e.g. LIMIT inside an IN subquery.
func IsUnsupportedError(err error) bool {
	return hasNumber(err, mysqlNotSupportedYet)
}

// hasNumber reports whether err is a MySQL server error with one of the
// given numbers. Errors that lost their type, e.g. after crossing a
// process boundary, are matched on their "Error NNNN" prefix.
func hasNumber(err error, numbers ...uint16) bool {
	if err == nil {
		return false
	}
	var e *mysql.MySQLError
	if errors.As(err, &e) {
		for _, n := range numbers {
			if e.Number == n {
				return true
			}
		}
		return false
	}
	msg := err.Error()
	for _, n := range numbers {
		code := "Error " + strconv.Itoa(int(n))
		if strings.Contains(msg, code+":") || strings.Contains(msg, code+" (") {
			return true
		}
	}
	return false
}
