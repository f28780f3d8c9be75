package fold

import (
	"strconv"
	"strings"
)

// Text folds a LEAST or GREATEST call in command text, e.g.
// "LEAST(@a, @b, 3)". Operands are integer literals, NULL or parameter
// references resolved by lookup. It returns the literal result and the
// names of the referenced parameters without the "@" sigil, in order of
// first appearance.
func Text(call string, lookup func(name string) (any, bool)) (lit string, consumed []string, ok bool) {
	call = strings.TrimSpace(call)
	open := strings.IndexByte(call, '(')
	if open <= 0 || !strings.HasSuffix(call, ")") {
		return "", nil, false
	}
	name := strings.TrimSpace(call[:open])
	if !IsFoldable(name) {
		return "", nil, false
	}
	body := call[open+1 : len(call)-1]
	if strings.TrimSpace(body) == "" {
		return "", nil, false
	}
	var (
		values []any
		seen   = make(map[string]bool)
	)
	for _, arg := range strings.Split(body, ",") {
		arg = strings.TrimSpace(arg)
		switch {
		case strings.HasPrefix(arg, "@"):
			p := arg[1:]
			if p == "" || strings.HasPrefix(p, "@") {
				return "", nil, false
			}
			v, found := lookup(p)
			if !found {
				return "", nil, false
			}
			values = append(values, v)
			if !seen[p] {
				seen[p] = true
				consumed = append(consumed, p)
			}
		case strings.EqualFold(arg, "NULL"):
			values = append(values, nil)
		default:
			i, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				return "", nil, false
			}
			values = append(values, i)
		}
	}
	r, ok := Evaluate(name, values)
	if !ok {
		return "", nil, false
	}
	return strconv.FormatInt(r, 10), consumed, true
}
