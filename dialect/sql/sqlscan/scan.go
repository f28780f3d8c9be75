// Package sqlscan implements a minimal scanner over MySQL command text. It
// tracks quoting and comment state byte by byte and reports which offsets
// belong to code, so that callers can locate parameter markers and keywords
// without matching inside string literals, quoted identifiers or comments.
package sqlscan

type state uint8

const (
	code state = iota
	singleQuoted
	doubleQuoted
	backticked
	lineComment
	blockComment
)

// Scanner scans MySQL command text. The zero value follows the default
// server SQL mode, where backslash escapes characters inside strings.
type Scanner struct {
	// NoBackslashEscapes mirrors the NO_BACKSLASH_ESCAPES SQL mode.
	NoBackslashEscapes bool
}

// Indices returns the ascending byte offsets of marker in text that are in
// code context.
func Indices(text string, marker byte) []int {
	return Scanner{}.Indices(text, marker)
}

// CodeMask reports for every byte of text whether it is in code context.
func CodeMask(text string) []bool {
	return Scanner{}.CodeMask(text)
}

// Indices returns the ascending byte offsets of marker in text that are in
// code context.
func (s Scanner) Indices(text string, marker byte) []int {
	var idx []int
	s.walk(text, func(i int) {
		if text[i] == marker {
			idx = append(idx, i)
		}
	})
	return idx
}

// CodeMask reports for every byte of text whether it is in code context.
// Quote and comment delimiters are not code.
func (s Scanner) CodeMask(text string) []bool {
	mask := make([]bool, len(text))
	s.walk(text, func(i int) { mask[i] = true })
	return mask
}

// IsCode reports whether the byte at offset i of text is in code context.
func (s Scanner) IsCode(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return false
	}
	found := false
	s.walk(text[:i+1], func(j int) { found = found || j == i })
	return found
}

// walk calls fn with the offset of every byte in code context. Unterminated
// strings, identifiers and comments extend to the end of text.
func (s Scanner) walk(text string, fn func(int)) {
	st := code
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch st {
		case code:
			switch {
			case c == '\'':
				st = singleQuoted
			case c == '"':
				st = doubleQuoted
			case c == '`':
				st = backticked
			case c == '#':
				st = lineComment
			case c == '-' && isLineCommentStart(text, i):
				st = lineComment
				i++
			case c == '/' && i+1 < len(text) && text[i+1] == '*':
				st = blockComment
				i++
			default:
				fn(i)
			}
		case singleQuoted, doubleQuoted:
			quote := byte('\'')
			if st == doubleQuoted {
				quote = '"'
			}
			switch {
			case c == '\\' && !s.NoBackslashEscapes:
				i++
			case c == quote && i+1 < len(text) && text[i+1] == quote:
				i++
			case c == quote:
				st = code
			}
		case backticked:
			switch {
			case c == '`' && i+1 < len(text) && text[i+1] == '`':
				i++
			case c == '`':
				st = code
			}
		case lineComment:
			if c == '\n' {
				st = code
				fn(i)
			}
		case blockComment:
			if c == '*' && i+1 < len(text) && text[i+1] == '/' {
				st = code
				i++
			}
		}
	}
}

// isLineCommentStart reports whether text[i:] starts a "-- " comment. MySQL
// requires the second dash to be followed by whitespace or a control
// character.
func isLineCommentStart(text string, i int) bool {
	if i+1 >= len(text) || text[i+1] != '-' {
		return false
	}
	return i+2 == len(text) || text[i+2] <= ' '
}
