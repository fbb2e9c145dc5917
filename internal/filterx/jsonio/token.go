// Package jsonio implements FilterX's JSON reader/writer (spec.md §4.16): a
// non-recursive tokenizer feeding a cursor-driven, stack-based converter,
// plus a writer that delegates to each value's FormatJSON vtable method.
package jsonio

import (
	"fmt"
	"strconv"
)

type tokenKind int

const (
	tokLBrace tokenKind = iota
	tokRBrace
	tokLBracket
	tokRBracket
	tokColon
	tokComma
	tokString
	tokNumber
	tokTrue
	tokFalse
	tokNull
	tokEOF
)

type token struct {
	kind tokenKind
	text string // decoded string payload (tokString) or raw text (tokNumber)
	pos  int
}

// initialTokenCapacity/maxTokenCapacity bound the tokenizer's token buffer
// growth (spec.md §4.16: "Capacity starts at 256 tokens and grows to a cap
// of 65,536; beyond that it reports an error").
const (
	initialTokenCapacity = 256
	maxTokenCapacity     = 65536
)

// tokenize scans s into a flat token stream without recursion: a single
// cursor walk over the bytes, one token appended per iteration.
func tokenize(s string) ([]token, error) {
	toks := make([]token, 0, initialTokenCapacity)
	i := 0
	n := len(s)

	for i < n {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
			continue
		case c == '{':
			toks = append(toks, token{kind: tokLBrace, pos: i})
			i++
		case c == '}':
			toks = append(toks, token{kind: tokRBrace, pos: i})
			i++
		case c == '[':
			toks = append(toks, token{kind: tokLBracket, pos: i})
			i++
		case c == ']':
			toks = append(toks, token{kind: tokRBracket, pos: i})
			i++
		case c == ':':
			toks = append(toks, token{kind: tokColon, pos: i})
			i++
		case c == ',':
			toks = append(toks, token{kind: tokComma, pos: i})
			i++
		case c == '"':
			str, next, err := scanString(s, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokString, text: str, pos: i})
			i = next
		case c == 't':
			if !hasPrefixAt(s, i, "true") {
				return nil, invalidError(s, i, "expected 'true'")
			}
			toks = append(toks, token{kind: tokTrue, pos: i})
			i += 4
		case c == 'f':
			if !hasPrefixAt(s, i, "false") {
				return nil, invalidError(s, i, "expected 'false'")
			}
			toks = append(toks, token{kind: tokFalse, pos: i})
			i += 5
		case c == 'n':
			if !hasPrefixAt(s, i, "null") {
				return nil, invalidError(s, i, "expected 'null'")
			}
			toks = append(toks, token{kind: tokNull, pos: i})
			i += 4
		case c == '-' || (c >= '0' && c <= '9'):
			num, next, err := scanNumber(s, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokNumber, text: num, pos: i})
			i = next
		default:
			return nil, invalidError(s, i, fmt.Sprintf("unexpected character %q", c))
		}

		if len(toks) > maxTokenCapacity {
			return nil, fmt.Errorf("jsonio: input too large (more than %d tokens)", maxTokenCapacity)
		}
	}

	toks = append(toks, token{kind: tokEOF, pos: n})
	return toks, nil
}

func hasPrefixAt(s string, i int, prefix string) bool {
	if i+len(prefix) > len(s) {
		return false
	}
	return s[i:i+len(prefix)] == prefix
}

func scanString(s string, start int) (string, int, error) {
	i := start + 1 // skip opening quote
	n := len(s)
	needsEscape := false
	for j := i; j < n; j++ {
		if s[j] == '\\' {
			needsEscape = true
			break
		}
		if s[j] == '"' {
			break
		}
	}
	if !needsEscape {
		for j := i; j < n; j++ {
			if s[j] == '"' {
				return s[i:j], j + 1, nil
			}
		}
		return "", 0, incompleteError("unterminated string")
	}

	var b []byte
	for i < n {
		c := s[i]
		if c == '"' {
			return string(b), i + 1, nil
		}
		if c != '\\' {
			b = append(b, c)
			i++
			continue
		}
		i++
		if i >= n {
			return "", 0, incompleteError("unterminated escape")
		}
		switch s[i] {
		case '"':
			b = append(b, '"')
		case '\\':
			b = append(b, '\\')
		case '/':
			b = append(b, '/')
		case 'b':
			b = append(b, '\b')
		case 'f':
			b = append(b, '\f')
		case 'n':
			b = append(b, '\n')
		case 'r':
			b = append(b, '\r')
		case 't':
			b = append(b, '\t')
		case 'u':
			if i+4 >= n {
				return "", 0, incompleteError("unterminated unicode escape")
			}
			r, err := strconv.ParseUint(s[i+1:i+5], 16, 32)
			if err != nil {
				return "", 0, invalidError(s, i, "invalid unicode escape")
			}
			b = append(b, []byte(string(rune(r)))...)
			i += 4
		default:
			return "", 0, invalidError(s, i, "invalid escape sequence")
		}
		i++
	}
	return "", 0, incompleteError("unterminated string")
}

func scanNumber(s string, start int) (string, int, error) {
	n := len(s)
	i := start
	if s[i] == '-' {
		i++
	}
	if i >= n {
		return "", 0, incompleteError("truncated number")
	}
	for i < n && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i < n && s[i] == '.' {
		i++
		for i < n && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	}
	if i < n && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < n && (s[i] == '+' || s[i] == '-') {
			i++
		}
		for i < n && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	}
	return s[start:i], i, nil
}
