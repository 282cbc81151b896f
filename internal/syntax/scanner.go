package syntax

import (
	"fmt"
	"strings"
)

// Scanner splits a C type spelling, as clang prints it in "qualType",
// into tokens.
type Scanner struct {
	source // embedded character reader

	tok    Token  // token type
	lit    string // token literal (identifier, number, anonymous record text)
	tokCol int    // token start column
}

// NewScanner creates a new Scanner for a type spelling.
// The errh function is called for each lexical error; if nil, errors are silently ignored.
func NewScanner(text string, errh func(col int, msg string)) *Scanner {
	return &Scanner{source: *newSource(text, errh)}
}

// Next advances to the next token.
func (s *Scanner) Next() {
redo:
	for isWhitespace(s.ch) {
		s.nextch()
	}
	s.tokCol = s.col
	s.lit = ""

	switch {
	case s.ch < 0:
		s.tok = _EOF

	case isLetter(s.ch):
		s.scanIdent()

	case isDigit(s.ch):
		s.scanNumber()

	case s.ch == '(' && isAnonymous(s.rest()):
		s.scanAnon()

	case s.ch == '.':
		if strings.HasPrefix(s.rest(), "...") {
			s.skip(3)
			s.tok = _Ellipsis
			return
		}
		s.error(fmt.Sprintf("unexpected character %q", s.ch))
		s.nextch()
		goto redo

	default:
		tok, ok := punct[s.ch]
		if !ok {
			s.error(fmt.Sprintf("unexpected character %q", s.ch))
			s.tok = _Error
			s.nextch()
			return
		}
		s.tok = tok
		s.nextch()
	}
}

var punct = map[rune]Token{
	'*': _Star,
	'^': _Caret,
	'(': _Lparen,
	')': _Rparen,
	'[': _Lbrack,
	']': _Rbrack,
	',': _Comma,
}

// Token returns the current token type.
func (s *Scanner) Token() Token {
	return s.tok
}

// Literal returns the current token's literal value.
func (s *Scanner) Literal() string {
	return s.lit
}

// Col returns the current token's start column.
func (s *Scanner) Col() int {
	return s.tokCol
}

// scanIdent scans an identifier or keyword. __attribute__ swallows its
// parenthesized argument list so attributes can be handled as one token.
func (s *Scanner) scanIdent() {
	var b strings.Builder
	for isLetter(s.ch) || isDigit(s.ch) {
		b.WriteRune(s.ch)
		s.nextch()
	}
	s.lit = b.String()
	if s.lit == "__attribute__" || s.lit == "__attribute" {
		for isWhitespace(s.ch) {
			s.nextch()
		}
		s.lit = s.balanced()
		s.tok = _Attr
		return
	}
	s.tok = LookupKeyword(s.lit)
}

// scanNumber scans a decimal or hexadecimal integer.
func (s *Scanner) scanNumber() {
	var b strings.Builder
	for isDigit(s.ch) || isLetter(s.ch) {
		b.WriteRune(s.ch)
		s.nextch()
	}
	s.lit = b.String()
	s.tok = _Number
}

// scanAnon scans clang's spelling of an anonymous record or enum, such as
// "(unnamed struct at list.c:3:9)", into one token whose literal is the
// text between the parentheses.
func (s *Scanner) scanAnon() {
	text := s.balanced()
	s.lit = strings.TrimSuffix(strings.TrimPrefix(text, "("), ")")
	s.tok = _Anon
}

// balanced consumes a parenthesized group starting at ch and returns it,
// parentheses included.
func (s *Scanner) balanced() string {
	if s.ch != '(' {
		return ""
	}
	var b strings.Builder
	depth := 0
	for s.ch >= 0 {
		switch s.ch {
		case '(':
			depth++
		case ')':
			depth--
		}
		b.WriteRune(s.ch)
		s.nextch()
		if depth == 0 {
			return b.String()
		}
	}
	s.error("unbalanced parentheses")
	return b.String()
}

func isAnonymous(rest string) bool {
	return strings.HasPrefix(rest, "(unnamed") || strings.HasPrefix(rest, "(anonymous")
}
