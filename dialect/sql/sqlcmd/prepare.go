package sqlcmd

import (
	"log/slog"
	"reflect"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/syssam/veloxmysql/dialect/sql/fold"
	"github.com/syssam/veloxmysql/dialect/sql/sqlscan"
	"github.com/syssam/veloxmysql/dialect/sql/typemap"
)

// operand matches a LIMIT or OFFSET expression: a LEAST or GREATEST call,
// a parameter reference or a number.
const operand = `(?:LEAST|GREATEST)\s*\([^()]*\)|@?\w+`

// limitRe matches "LIMIT [offset,] count [OFFSET offset]". Group 1 is the
// keyword, groups 2 to 4 the leading offset, the row count and the
// trailing offset.
var limitRe = regexp.MustCompile(`(?is)(?:^|\W)(LIMIT)\s+(?:(` + operand + `)\s*,\s*)?(` + operand + `)(?:\s+OFFSET\s+(` + operand + `))?`)

// Preparer rewrites commands right before execution. The zero value renders
// literals with the default type mappings.
type Preparer struct {
	Types  *typemap.Source
	Logger *slog.Logger
}

// edit replaces text[start:end] with lit.
type edit struct {
	start, end int
	lit        string
}

// Prepare returns cmd with literals spliced into the LIMIT and OFFSET
// clauses and in place of string parameters. LEAST and GREATEST calls over
// literals and parameters in LIMIT and OFFSET are evaluated. Parameters
// whose references were all replaced are removed. References to parameters
// missing from cmd are left untouched. cmd itself is not modified.
func (p *Preparer) Prepare(cmd Command) (Command, error) {
	text := cmd.Text
	if !strings.Contains(strings.ToUpper(text), "LIMIT") && !slices.ContainsFunc(cmd.Parameters, isString) {
		return cmd, nil
	}
	mask := p.scanner().CodeMask(text)
	lookup := func(name string) (any, bool) {
		pr, ok := cmd.Parameter(name)
		return pr.Value, ok
	}
	var (
		edits    []edit
		consumed = make(map[string]bool)
	)
	for _, m := range limitRe.FindAllStringSubmatchIndex(text, -1) {
		if !mask[m[2]] {
			continue
		}
		for g := 2; g <= 4; g++ {
			start, end := m[2*g], m[2*g+1]
			if start < 0 || !mask[start] {
				continue
			}
			e, used, err := p.operand(cmd, text[start:end], lookup)
			if err != nil {
				return Command{}, err
			}
			if e == nil {
				continue
			}
			e.start, e.end = start, end
			edits = append(edits, *e)
			for _, n := range used {
				consumed[n] = true
			}
		}
	}
	for _, r := range references(text, mask) {
		pr, ok := cmd.Parameter(r.name)
		if !ok || !isString(pr) || overlaps(edits, r.start, r.end) {
			continue
		}
		lit, err := p.types().Literal(pr.Value, pr.Mapping)
		if err != nil {
			return Command{}, err
		}
		edits = append(edits, edit{start: r.start, end: r.end, lit: lit})
		consumed[r.name] = true
	}
	if len(edits) == 0 {
		return cmd, nil
	}
	// Splice from the end so that earlier offsets stay valid.
	sort.Slice(edits, func(i, j int) bool { return edits[i].start > edits[j].start })
	for _, e := range edits {
		text = text[:e.start] + e.lit + text[e.end:]
	}
	remaining := make(map[string]bool)
	for _, n := range names(text, p.scanner()) {
		remaining[n] = true
	}
	out := Command{Text: text}
	for _, pr := range cmd.Parameters {
		if consumed[pr.Name] && !remaining[pr.Name] {
			continue
		}
		out.Parameters = append(out.Parameters, pr)
	}
	return out, nil
}

// operand returns the edit replacing a LIMIT or OFFSET operand and the
// names of the parameters it consumes. A nil edit leaves the operand as is.
func (p *Preparer) operand(cmd Command, s string, lookup func(string) (any, bool)) (*edit, []string, error) {
	switch {
	case strings.HasPrefix(s, "@"):
		name := s[1:]
		pr, ok := cmd.Parameter(name)
		if !ok {
			p.logger().Debug("veloxmysql: parameter missing from command", "parameter", name)
			return nil, nil, nil
		}
		lit, err := p.types().Literal(pr.Value, pr.Mapping)
		if err != nil {
			return nil, nil, err
		}
		return &edit{lit: lit}, []string{name}, nil
	case strings.HasSuffix(s, ")"):
		lit, names, ok := fold.Text(s, lookup)
		if !ok {
			p.logger().Debug("veloxmysql: function left unfolded", "function", s)
			return nil, nil, nil
		}
		return &edit{lit: lit}, names, nil
	}
	return nil, nil, nil
}

func overlaps(edits []edit, start, end int) bool {
	for _, e := range edits {
		if start < e.end && e.start < end {
			return true
		}
	}
	return false
}

// isString reports whether the parameter holds a string to be inlined.
// JSON documents are bound even when passed as strings.
func isString(pr Parameter) bool {
	if _, ok := pr.Mapping.(typemap.JSONMapping); ok {
		return false
	}
	v := reflect.ValueOf(pr.Value)
	for v.Kind() == reflect.Pointer && !v.IsNil() {
		v = v.Elem()
	}
	return v.Kind() == reflect.String
}

func (p *Preparer) scanner() sqlscan.Scanner {
	return sqlscan.Scanner{NoBackslashEscapes: p.types().NoBackslashEscapes()}
}

func (p *Preparer) types() *typemap.Source {
	if p.Types == nil {
		return defaultTypes
	}
	return p.Types
}

func (p *Preparer) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

var defaultTypes = typemap.NewSource(nil)

// StringMapping returns the string mapping used for string literals.
func (p *Preparer) StringMapping() typemap.StringMapping {
	return p.types().StringMapping()
}
