// Package frontend implements the smallest recursive-descent Lance parser
// able to drive internal/ir's builder API (SPEC_FULL.md §D): scalar/array
// declarations, assignment, arithmetic/bitwise/logical/shift expressions,
// while/if, and read/write calls.
//
// Grounded on original_source/acse/axe_expressions.c for constant-folding
// semantics (division-by-zero/overflow substitution, spec.md §7) and
// written in the standard hand-rolled single-pass lexer/parser shape (no
// parser-combinator or PEG library appears anywhere in the example pack).
package frontend

import (
	"fmt"
	"strconv"

	"github.com/danielecattaneo/acse-multitarget/internal/lerr"
)

type tokKind int

const (
	tokEOF tokKind = iota
	tokIdent
	tokNumber
	tokKeyword
	tokPunct
)

type token struct {
	kind tokKind
	text string
	num  int32
	line int
}

var keywords = map[string]bool{
	"int": true, "while": true, "if": true, "else": true,
	"read": true, "write": true, "var": true,
}

type lexer struct {
	src  []byte
	pos  int
	line int
}

func newLexer(src string) *lexer { return &lexer{src: []byte(src), line: 1} }

func (l *lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func isIdentStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentCont(c byte) bool  { return isIdentStart(c) || (c >= '0' && c <= '9') }
func isDigit(c byte) bool      { return c >= '0' && c <= '9' }

func (l *lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.line++
			l.pos++
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

// Next returns the next token, or a *lerr.Error for a malformed literal.
func (l *lexer) Next() (token, error) {
	l.skipSpaceAndComments()
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, line: l.line}, nil
	}
	start, line := l.pos, l.line
	c := l.src[l.pos]

	switch {
	case isIdentStart(c):
		for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
			l.pos++
		}
		text := string(l.src[start:l.pos])
		if keywords[text] {
			return token{kind: tokKeyword, text: text, line: line}, nil
		}
		return token{kind: tokIdent, text: text, line: line}, nil

	case isDigit(c):
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
		text := string(l.src[start:l.pos])
		v, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return token{}, lerr.New(lerr.InvalidExpression, fmt.Sprintf("line %d: malformed integer literal %q", line, text))
		}
		return token{kind: tokNumber, text: text, num: int32(v), line: line}, nil

	default:
		for _, op := range []string{"&&", "||", "==", "!=", "<=", ">=", "<<", ">>"} {
			if l.pos+len(op) <= len(l.src) && string(l.src[l.pos:l.pos+len(op)]) == op {
				l.pos += len(op)
				return token{kind: tokPunct, text: op, line: line}, nil
			}
		}
		l.pos++
		return token{kind: tokPunct, text: string(c), line: line}, nil
	}
}
