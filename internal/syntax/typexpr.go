package syntax

import (
	"fmt"
	"strings"
)

// TypeExpr is a parsed C type spelling.
type TypeExpr interface {
	String() string
	aTypeExpr()
}

type typeExpr struct{}

func (typeExpr) aTypeExpr() {}

// BaseType is the declaration specifier part of a type: keywords, a
// typedef name or a tag, plus qualifiers.
type BaseType struct {
	typeExpr
	Specs   []Token // keyword specifiers in source order
	Name    string  // typedef name
	TagKind Token   // _Struct, _Union, _Enum or 0
	Tag     string  // tag name
	Anon    string  // anonymous tag text, e.g. "unnamed struct at a.c:3:9"

	Const    bool
	Volatile bool
	Atomic   bool
	Typeof   bool
	Attr     string // concatenated __attribute__ arguments
}

// SpecCount returns how many times each keyword specifier occurs, keyed
// by spelling: "long long" counts 2 under "long".
func (b *BaseType) SpecCount() map[string]int {
	m := make(map[string]int, len(b.Specs))
	for _, s := range b.Specs {
		m[s.String()]++
	}
	return m
}

// IsStruct, IsUnion and IsEnum report the tag kind.
func (b *BaseType) IsStruct() bool { return b.TagKind == _Struct }
func (b *BaseType) IsUnion() bool  { return b.TagKind == _Union }
func (b *BaseType) IsEnum() bool   { return b.TagKind == _Enum }

func (b *BaseType) String() string {
	var parts []string
	if b.Const {
		parts = append(parts, "const")
	}
	if b.Volatile {
		parts = append(parts, "volatile")
	}
	if b.Atomic {
		parts = append(parts, "_Atomic")
	}
	for _, s := range b.Specs {
		parts = append(parts, s.String())
	}
	if b.TagKind != 0 {
		parts = append(parts, b.TagKind.String())
	}
	switch {
	case b.Tag != "":
		parts = append(parts, b.Tag)
	case b.Anon != "":
		parts = append(parts, "("+b.Anon+")")
	case b.Name != "":
		parts = append(parts, b.Name)
	}
	if b.Attr != "" {
		parts = append(parts, "__attribute__"+b.Attr)
	}
	return strings.Join(parts, " ")
}

// PointerType is a pointer declarator. Block is set for clang block
// pointers (^).
type PointerType struct {
	typeExpr
	Elem  TypeExpr
	Const bool // the pointer object itself is const
	Block bool
}

func (p *PointerType) String() string {
	if p.Block {
		return "^" + p.Elem.String()
	}
	return "*" + p.Elem.String()
}

// ArrayType is an array declarator.
type ArrayType struct {
	typeExpr
	Elem    TypeExpr
	Len     int64
	Unsized bool
	VLA     bool
}

func (a *ArrayType) String() string {
	switch {
	case a.VLA:
		return "[*]" + a.Elem.String()
	case a.Unsized:
		return "[]" + a.Elem.String()
	}
	return fmt.Sprintf("[%d]%s", a.Len, a.Elem)
}

// FuncType is a function declarator.
type FuncType struct {
	typeExpr
	Result   TypeExpr
	Params   []TypeExpr
	Variadic bool
	NoProto  bool
}

func (f *FuncType) String() string {
	var ps []string
	for _, p := range f.Params {
		ps = append(ps, p.String())
	}
	if f.Variadic {
		ps = append(ps, "...")
	}
	return fmt.Sprintf("func(%s) %s", strings.Join(ps, ", "), f.Result)
}
