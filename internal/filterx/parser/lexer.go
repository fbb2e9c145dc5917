// Package parser is a small recursive-descent front end turning FilterX
// source text into the expression tree defined by package expr — a
// stand-in for the external "parser collaborator" spec.md §6.1 assumes is
// handed a finished tree. It is intentionally thin: only the constructs
// named in spec.md (literals, variables, getattr/subscript, operators,
// assignment, compound/conditional/switch, break/done/drop, calls,
// templates) are supported.
package parser

import (
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tEOF tokenKind = iota
	tIdent
	tMessageVar // $name
	tString
	tInt
	tDouble
	tLParen
	tRParen
	tLBrace
	tRBrace
	tLBracket
	tRBracket
	tDot
	tComma
	tColon
	tSemicolon
	tAssign
	tPlusAssign
	tNullCoalesceAssign
	tEq
	tNe
	tLt
	tLe
	tGt
	tGe
	tPlus
	tMinus
	tStar
	tSlash
	tPercent
	tAnd
	tOr
	tNot
	tNullCoalesce
	tQuestion
	tKwIf
	tKwElif
	tKwElse
	tKwSwitch
	tKwCase
	tKwDefault
	tKwBreak
	tKwDone
	tKwDrop
	tKwTrue
	tKwFalse
	tKwNull
	tTemplate // `...` raw contents, split into parts by the parser
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

var keywords = map[string]tokenKind{
	"if":      tKwIf,
	"elif":    tKwElif,
	"else":    tKwElse,
	"switch":  tKwSwitch,
	"case":    tKwCase,
	"default": tKwDefault,
	"break":   tKwBreak,
	"done":    tKwDone,
	"drop":    tKwDrop,
	"true":    tKwTrue,
	"false":   tKwFalse,
	"null":    tKwNull,
	"and":     tAnd,
	"or":      tOr,
	"not":     tNot,
}

type lexer struct {
	src string
	pos int
}

func newLexer(src string) *lexer { return &lexer{src: src} }

func (l *lexer) next() (token, error) {
	l.skipSpaceAndComments()
	if l.pos >= len(l.src) {
		return token{kind: tEOF, pos: l.pos}, nil
	}
	start := l.pos
	c := l.src[l.pos]

	switch {
	case c == '(':
		l.pos++
		return token{kind: tLParen, pos: start}, nil
	case c == ')':
		l.pos++
		return token{kind: tRParen, pos: start}, nil
	case c == '{':
		l.pos++
		return token{kind: tLBrace, pos: start}, nil
	case c == '}':
		l.pos++
		return token{kind: tRBrace, pos: start}, nil
	case c == '[':
		l.pos++
		return token{kind: tLBracket, pos: start}, nil
	case c == ']':
		l.pos++
		return token{kind: tRBracket, pos: start}, nil
	case c == '.':
		l.pos++
		return token{kind: tDot, pos: start}, nil
	case c == ',':
		l.pos++
		return token{kind: tComma, pos: start}, nil
	case c == ':':
		l.pos++
		return token{kind: tColon, pos: start}, nil
	case c == ';':
		l.pos++
		return token{kind: tSemicolon, pos: start}, nil
	case c == '?':
		if l.hasPrefix("??=") {
			l.pos += 3
			return token{kind: tNullCoalesceAssign, pos: start}, nil
		}
		if l.hasPrefix("??") {
			l.pos += 2
			return token{kind: tNullCoalesce, pos: start}, nil
		}
		l.pos++
		return token{kind: tQuestion, pos: start}, nil
	case c == '+':
		if l.hasPrefix("+=") {
			l.pos += 2
			return token{kind: tPlusAssign, pos: start}, nil
		}
		l.pos++
		return token{kind: tPlus, pos: start}, nil
	case c == '-':
		l.pos++
		return token{kind: tMinus, pos: start}, nil
	case c == '*':
		l.pos++
		return token{kind: tStar, pos: start}, nil
	case c == '/':
		l.pos++
		return token{kind: tSlash, pos: start}, nil
	case c == '%':
		l.pos++
		return token{kind: tPercent, pos: start}, nil
	case c == '=':
		if l.hasPrefix("==") {
			l.pos += 2
			return token{kind: tEq, pos: start}, nil
		}
		l.pos++
		return token{kind: tAssign, pos: start}, nil
	case c == '!':
		if l.hasPrefix("!=") {
			l.pos += 2
			return token{kind: tNe, pos: start}, nil
		}
		return token{}, fmt.Errorf("parser: unexpected '!' at offset %d", start)
	case c == '<':
		if l.hasPrefix("<=") {
			l.pos += 2
			return token{kind: tLe, pos: start}, nil
		}
		l.pos++
		return token{kind: tLt, pos: start}, nil
	case c == '>':
		if l.hasPrefix(">=") {
			l.pos += 2
			return token{kind: tGe, pos: start}, nil
		}
		l.pos++
		return token{kind: tGt, pos: start}, nil
	case c == '"':
		s, next, err := l.scanString('"')
		if err != nil {
			return token{}, err
		}
		l.pos = next
		return token{kind: tString, text: s, pos: start}, nil
	case c == '`':
		s, next, err := l.scanRawTemplate()
		if err != nil {
			return token{}, err
		}
		l.pos = next
		return token{kind: tTemplate, text: s, pos: start}, nil
	case c == '$':
		l.pos++
		name := l.scanIdentRunes()
		return token{kind: tMessageVar, text: name, pos: start}, nil
	case c >= '0' && c <= '9':
		num, isDouble, next := l.scanNumber()
		l.pos = next
		if isDouble {
			return token{kind: tDouble, text: num, pos: start}, nil
		}
		return token{kind: tInt, text: num, pos: start}, nil
	case isIdentStart(c):
		name := l.scanIdentRunes()
		if kw, ok := keywords[name]; ok {
			return token{kind: kw, text: name, pos: start}, nil
		}
		return token{kind: tIdent, text: name, pos: start}, nil
	default:
		return token{}, fmt.Errorf("parser: unexpected character %q at offset %d", c, start)
	}
}

func (l *lexer) hasPrefix(p string) bool {
	return strings.HasPrefix(l.src[l.pos:], p)
}

func (l *lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			l.pos++
			continue
		}
		if c == '#' {
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
			continue
		}
		break
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func (l *lexer) scanIdentRunes() string {
	start := l.pos
	for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
		l.pos++
	}
	return l.src[start:l.pos]
}

func (l *lexer) scanNumber() (string, bool, int) {
	start := l.pos
	i := l.pos
	for i < len(l.src) && l.src[i] >= '0' && l.src[i] <= '9' {
		i++
	}
	isDouble := false
	if i < len(l.src) && l.src[i] == '.' {
		isDouble = true
		i++
		for i < len(l.src) && l.src[i] >= '0' && l.src[i] <= '9' {
			i++
		}
	}
	return l.src[start:i], isDouble, i
}

func (l *lexer) scanString(quote byte) (string, int, error) {
	i := l.pos + 1
	var b strings.Builder
	for i < len(l.src) {
		c := l.src[i]
		if c == quote {
			return b.String(), i + 1, nil
		}
		if c != '\\' {
			b.WriteByte(c)
			i++
			continue
		}
		i++
		if i >= len(l.src) {
			return "", 0, fmt.Errorf("parser: unterminated string literal")
		}
		switch l.src[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte(l.src[i])
		}
		i++
	}
	return "", 0, fmt.Errorf("parser: unterminated string literal")
}

// scanRawTemplate reads a backtick-quoted template literal verbatim
// (no escape processing beyond \`), leaving ${...} interpolation
// splitting to the parser, which needs brace-depth tracking to find
// each interpolation's end.
func (l *lexer) scanRawTemplate() (string, int, error) {
	i := l.pos + 1
	var b strings.Builder
	for i < len(l.src) {
		c := l.src[i]
		if c == '`' {
			return b.String(), i + 1, nil
		}
		if c == '\\' && i+1 < len(l.src) && l.src[i+1] == '`' {
			b.WriteByte('`')
			i += 2
			continue
		}
		b.WriteByte(c)
		i++
	}
	return "", 0, fmt.Errorf("parser: unterminated template literal")
}

func parseIntLiteral(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }
func parseDoubleLiteral(s string) (float64, error) { return strconv.ParseFloat(s, 64) }
