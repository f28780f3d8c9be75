package sqlcmd

import (
	"strings"

	"github.com/syssam/veloxmysql/dialect/sql/typemap"
)

// DebugString renders cmd for logs: a "SET @name = <literal>;" line per
// parameter, a blank line, then the command text. It never affects the
// command executed.
func (p *Preparer) DebugString(cmd Command) string {
	if len(cmd.Parameters) == 0 {
		return cmd.Text
	}
	var b strings.Builder
	for _, pr := range cmd.Parameters {
		b.WriteString("SET @")
		b.WriteString(pr.Name)
		b.WriteString(" = ")
		b.WriteString(typemap.Render(pr.Value, pr.Mapping, p.types()))
		b.WriteString(";\n")
	}
	b.WriteByte('\n')
	b.WriteString(cmd.Text)
	return b.String()
}
