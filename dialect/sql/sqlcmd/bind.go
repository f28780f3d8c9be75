package sqlcmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/syssam/veloxmysql"
	"github.com/syssam/veloxmysql/dialect/sql/typemap"
)

// Bind rewrites the "@name" references of cmd into "?" placeholders and
// returns the arguments in placeholder order. System variables are kept.
func (p *Preparer) Bind(cmd Command) (string, []any, error) {
	refs := references(cmd.Text, p.scanner().CodeMask(cmd.Text))
	if len(refs) == 0 {
		return cmd.Text, nil, nil
	}
	var (
		b    strings.Builder
		args = make([]any, 0, len(refs))
		last int
	)
	for _, r := range refs {
		pr, ok := cmd.Parameter(r.name)
		if !ok {
			return "", nil, veloxmysql.NewParameterNotFoundError(r.name)
		}
		v, err := bindValue(pr)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(cmd.Text[last:r.start])
		b.WriteByte('?')
		last = r.end
		args = append(args, v)
	}
	b.WriteString(cmd.Text[last:])
	return b.String(), args, nil
}

// bindValue converts a parameter value to an argument accepted by the
// driver. JSON documents are sent as text.
func bindValue(pr Parameter) (any, error) {
	if _, ok := pr.Mapping.(typemap.JSONMapping); !ok || pr.Value == nil {
		return pr.Value, nil
	}
	switch v := pr.Value.(type) {
	case json.RawMessage:
		return string(v), nil
	case []byte:
		return string(v), nil
	case string:
		return v, nil
	}
	buf, err := json.Marshal(pr.Value)
	if err != nil {
		return nil, fmt.Errorf("sqlcmd: marshal parameter %q: %w", pr.Name, err)
	}
	return string(buf), nil
}
