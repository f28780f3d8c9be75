// Package sqlcmd prepares generated MySQL commands for execution.
//
// A Command holds SQL text with "@name" parameter references and the values
// of the parameters. Before execution, the Preparer splices literals into
// the positions where MySQL does not accept bind variables (LIMIT and
// OFFSET) and in place of string parameters, whose collation differs when
// bound. The remaining references are then bound as "?" placeholders for
// go-sql-driver/mysql.
package sqlcmd

import (
	"slices"

	"github.com/syssam/veloxmysql/dialect/sql/sqlscan"
	"github.com/syssam/veloxmysql/dialect/sql/typemap"
)

// Parameter is a named command parameter.
type Parameter struct {
	// Name without the "@" sigil.
	Name    string
	Value   any
	Mapping typemap.Mapping
}

// Command is SQL text with its parameters.
type Command struct {
	Text       string
	Parameters []Parameter
}

// Parameter returns the parameter with the given name.
func (c Command) Parameter(name string) (Parameter, bool) {
	for _, p := range c.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// Clone returns a copy of c that does not share the parameter slice.
func (c Command) Clone() Command {
	c.Parameters = slices.Clone(c.Parameters)
	return c
}

// Names returns the distinct parameter names referenced by text in order of
// first appearance. References inside strings, quoted identifiers and
// comments, and system variables ("@@name"), are ignored.
func Names(text string) []string {
	return names(text, sqlscan.Scanner{})
}

func names(text string, s sqlscan.Scanner) []string {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	for _, r := range references(text, s.CodeMask(text)) {
		if !seen[r.name] {
			seen[r.name] = true
			out = append(out, r.name)
		}
	}
	return out
}

// ref is a parameter reference spanning text[start:end].
type ref struct {
	start, end int
	name       string
}

// references returns the "@name" references of text in code context.
func references(text string, mask []bool) []ref {
	var refs []ref
	for i := 0; i < len(text); i++ {
		if text[i] != '@' || !mask[i] || i > 0 && (isWord(text[i-1]) || text[i-1] == '@') {
			continue
		}
		j := i + 1
		if j < len(text) && text[j] == '@' {
			for j++; j < len(text) && isWord(text[j]); j++ {
			}
			i = j - 1
			continue
		}
		for j < len(text) && isWord(text[j]) {
			j++
		}
		if j > i+1 {
			refs = append(refs, ref{start: i, end: j, name: text[i+1 : j]})
		}
		i = j - 1
	}
	return refs
}

func isWord(c byte) bool {
	return c == '_' || c == '$' || '0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}
