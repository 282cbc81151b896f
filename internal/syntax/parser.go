package syntax

import (
	"fmt"
	"strconv"
	"strings"
)

// SyntaxError is an error in a type spelling.
type SyntaxError struct {
	Text string
	Col  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("type %q:%d: %s", e.Text, e.Col, e.Msg)
}

// parser is a recursive descent parser for clang's type spellings: a
// declaration specifier list followed by an abstract declarator.
type parser struct {
	scanner *Scanner
	text    string
	first   *SyntaxError
}

// ParseType parses a type spelling such as "const char *(*)[4]".
func ParseType(text string) (TypeExpr, error) {
	p := &parser{text: text}
	p.scanner = NewScanner(text, func(col int, msg string) { p.errorAt(col, msg) })
	p.next()
	t := p.typeName()
	if p.tok() != _EOF {
		p.errorf("unexpected %s after type", p.tok())
	}
	if p.first != nil {
		return nil, p.first
	}
	return t, nil
}

func (p *parser) tok() Token { return p.scanner.Token() }

func (p *parser) next() { p.scanner.Next() }

func (p *parser) got(tok Token) bool {
	if p.tok() == tok {
		p.next()
		return true
	}
	return false
}

func (p *parser) want(tok Token) {
	if !p.got(tok) {
		p.errorf("expected %s, found %s", tok, p.tok())
	}
}

func (p *parser) errorf(format string, args ...interface{}) {
	p.errorAt(p.scanner.Col(), fmt.Sprintf(format, args...))
}

func (p *parser) errorAt(col int, msg string) {
	if p.first == nil {
		p.first = &SyntaxError{Text: p.text, Col: col, Msg: msg}
	}
}

// typeName parses specifiers and an abstract declarator.
func (p *parser) typeName() TypeExpr {
	base := p.specifiers()
	if base == nil {
		return nil
	}
	decl := p.absDeclarator()
	return decl(base)
}

// specifiers parses a declaration specifier list.
func (p *parser) specifiers() *BaseType {
	b := &BaseType{}
	seen := false
	for {
		switch tok := p.tok(); {
		case tok == _Const:
			b.Const = true
		case tok == _Volatile:
			b.Volatile = true
		case tok == _Restrict:
		case tok == _Atomic:
			b.Atomic = true
			p.next()
			if p.tok() == _Lparen {
				p.next()
				inner := p.typeName()
				p.want(_Rparen)
				if ib, ok := inner.(*BaseType); ok {
					ib.Atomic = true
					mergeBase(b, ib)
				}
				seen = true
			}
			continue
		case tok == _Struct || tok == _Union || tok == _Enum:
			b.TagKind = tok
			p.next()
			switch p.tok() {
			case _Name:
				b.Tag = p.scanner.Literal()
				p.next()
			case _Anon:
				b.Anon = p.scanner.Literal()
				p.next()
			default:
				p.errorf("expected tag after %s", tok)
			}
			seen = true
			continue
		case tok == _Anon:
			b.Anon = p.scanner.Literal()
			b.TagKind = anonKind(b.Anon)
			seen = true
		case tok == _Typeof:
			b.Typeof = true
			p.next()
			if p.tok() == _Lparen {
				p.skipGroup()
			}
			seen = true
			continue
		case tok == _Attr:
			b.Attr += p.scanner.Literal()
		case tok == _Name:
			if seen {
				return b
			}
			b.Name = p.scanner.Literal()
			seen = true
		case tok >= _Signed && tok <= _Complex:
			b.Specs = append(b.Specs, tok)
			seen = true
		default:
			if !seen {
				p.errorf("expected type, found %s", tok)
				return nil
			}
			return b
		}
		p.next()
	}
}

func mergeBase(dst, src *BaseType) {
	dst.Specs = append(dst.Specs, src.Specs...)
	if src.Name != "" {
		dst.Name = src.Name
	}
	if src.TagKind != 0 {
		dst.TagKind, dst.Tag, dst.Anon = src.TagKind, src.Tag, src.Anon
	}
	dst.Const = dst.Const || src.Const
	dst.Volatile = dst.Volatile || src.Volatile
}

func anonKind(text string) Token {
	switch {
	case strings.Contains(text, "union"):
		return _Union
	case strings.Contains(text, "enum"):
		return _Enum
	}
	return _Struct
}

// skipGroup skips a parenthesized token group starting at '('.
func (p *parser) skipGroup() {
	depth := 0
	for {
		switch p.tok() {
		case _Lparen:
			depth++
		case _Rparen:
			depth--
		case _EOF:
			p.errorf("unbalanced parentheses")
			return
		}
		p.next()
		if depth == 0 {
			return
		}
	}
}

type ptrInfo struct {
	constPtr bool
	block    bool
}

// absDeclarator parses an abstract declarator and returns a function that
// builds the declared type from its base type.
func (p *parser) absDeclarator() func(TypeExpr) TypeExpr {
	var ptrs []ptrInfo
	for p.tok() == _Star || p.tok() == _Caret {
		info := ptrInfo{block: p.tok() == _Caret}
		p.next()
		for p.tok().IsQualifier() || p.tok() == _Attr || p.tok() == _Atomic {
			if p.tok() == _Const {
				info.constPtr = true
			}
			p.next()
		}
		ptrs = append(ptrs, info)
	}

	var inner func(TypeExpr) TypeExpr
	if p.tok() == _Lparen && p.nestedDeclarator() {
		p.next()
		inner = p.absDeclarator()
		p.want(_Rparen)
	}

	var suffixes []func(TypeExpr) TypeExpr
	for {
		if p.tok() == _Lbrack {
			suffixes = append(suffixes, p.arraySuffix())
			continue
		}
		if p.tok() == _Lparen {
			suffixes = append(suffixes, p.paramSuffix())
			continue
		}
		break
	}
	for p.tok() == _Attr {
		p.next()
	}

	return func(base TypeExpr) TypeExpr {
		t := base
		for _, ptr := range ptrs {
			t = &PointerType{Elem: t, Const: ptr.constPtr, Block: ptr.block}
		}
		for i := len(suffixes) - 1; i >= 0; i-- {
			t = suffixes[i](t)
		}
		if inner != nil {
			t = inner(t)
		}
		return t
	}
}

// nestedDeclarator reports whether the '(' at the current token opens a
// nested declarator such as (*) rather than a parameter list.
func (p *parser) nestedDeclarator() bool {
	rest := strings.TrimLeft(p.scanner.rest(), " \t")
	if isAnonymous(rest) {
		return false
	}
	return strings.HasPrefix(rest, "*") || strings.HasPrefix(rest, "^") || strings.HasPrefix(rest, "(")
}

func (p *parser) arraySuffix() func(TypeExpr) TypeExpr {
	p.want(_Lbrack)
	a := ArrayType{}
	switch {
	case p.tok() == _Rbrack:
		a.Unsized = true
	case p.tok() == _Number:
		lit := p.scanner.Literal()
		p.next()
		if p.tok() == _Rbrack {
			n, err := strconv.ParseInt(strings.TrimRight(lit, "uUlL"), 0, 64)
			if err != nil {
				p.errorf("bad array length %q", lit)
			}
			a.Len = n
			break
		}
		a.VLA = true
		p.skipTo(_Rbrack)
	default:
		a.VLA = true
		p.skipTo(_Rbrack)
	}
	p.want(_Rbrack)
	return func(elem TypeExpr) TypeExpr {
		c := a
		c.Elem = elem
		return &c
	}
}

func (p *parser) skipTo(tok Token) {
	depth := 0
	for p.tok() != _EOF {
		switch p.tok() {
		case _Lbrack, _Lparen:
			depth++
		case _Rbrack, _Rparen:
			if depth == 0 && p.tok() == tok {
				return
			}
			depth--
		}
		p.next()
	}
}

func (p *parser) paramSuffix() func(TypeExpr) TypeExpr {
	p.want(_Lparen)
	f := FuncType{}
	if p.tok() == _Rparen {
		f.NoProto = true
	}
	for p.tok() != _Rparen && p.tok() != _EOF {
		if p.got(_Ellipsis) {
			f.Variadic = true
			break
		}
		t := p.typeName()
		if t == nil {
			break
		}
		f.Params = append(f.Params, t)
		if !p.got(_Comma) {
			break
		}
	}
	p.want(_Rparen)

	// A lone void parameter means no parameters.
	if len(f.Params) == 1 && !f.Variadic {
		if b, ok := f.Params[0].(*BaseType); ok && len(b.Specs) == 1 && b.Specs[0] == _Void && b.Name == "" {
			f.Params = nil
		}
	}
	return func(result TypeExpr) TypeExpr {
		c := f
		c.Result = result
		return &c
	}
}
