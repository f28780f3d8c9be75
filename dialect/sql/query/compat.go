package query

import (
	"fmt"
	"strings"

	"github.com/syssam/veloxmysql"
	"github.com/syssam/veloxmysql/dialect"
	"github.com/syssam/veloxmysql/dialect/sql/expr"
)

// CompatibilityChecker fails translation of constructs the configured
// server does not support. It runs last, right before SQL generation.
type CompatibilityChecker struct {
	ServerVersion dialect.ServerVersion
}

// Check returns a TranslationError for the first unsupported construct.
func (c CompatibilityChecker) Check(n expr.Node) error {
	supports := c.ServerVersion.Supports()
	var err error
	expr.Walk(n, func(n expr.Node) bool {
		if err != nil {
			return false
		}
		switch n := n.(type) {
		case *expr.JSONTable:
			if !supports.JSONTable {
				err = c.unsupported(n, "JSON_TABLE()")
			}
		case *expr.Join:
			if n.Kind.IsLateral() && !supports.LateralJoin {
				err = c.unsupported(n, "LATERAL joins")
			}
		case *expr.SetOperation:
			if n.Op != expr.Union && !supports.ExceptIntersect {
				err = c.unsupported(n, n.Op.Keyword())
			}
		case *expr.In:
			if n.Query != nil && (n.Query.Limit != nil || n.Query.Offset != nil) && !supports.LimitWithinInSubquery {
				err = veloxmysql.NewTranslationError(expr.Print(n),
					fmt.Sprintf("%s does not support LIMIT & IN/ALL/ANY/SOME subqueries (error 1235)", c.server()))
			}
		}
		return err == nil
	})
	return err
}

func (c CompatibilityChecker) unsupported(n expr.Node, feature string) error {
	return veloxmysql.NewTranslationError(expr.Print(n), fmt.Sprintf("%s is not supported by %s", feature, c.server()))
}

func (c CompatibilityChecker) server() string {
	name := "MySQL"
	if c.ServerVersion.IsMariaDB() {
		name = "MariaDB"
	}
	return name + " " + strings.TrimPrefix(c.ServerVersion.Version, "v")
}
