package syntax

import "fmt"

// Token is a lexical token of a C type spelling.
type Token uint

const (
	_EOF   Token = iota // end of input
	_Error              // lexical error

	_Name   // identifier: size_t, point
	_Number // array length: 16
	_Anon   // (unnamed struct at file.c:3:9)
	_Attr   // __attribute__((...)), literal holds the parenthesized text

	_Star     // *
	_Caret    // ^ (block pointer)
	_Lparen   // (
	_Rparen   // )
	_Lbrack   // [
	_Rbrack   // ]
	_Comma    // ,
	_Ellipsis // ...

	// Keywords
	_Const
	_Volatile
	_Restrict
	_Atomic
	_Struct
	_Union
	_Enum
	_Signed
	_Unsigned
	_Char
	_Short
	_Int
	_Long
	_Float
	_Double
	_Void
	_Bool
	_Int128
	_Float128
	_Complex
	_Typeof

	tokenCount
)

var tokenNames = [...]string{
	_EOF:      "EOF",
	_Error:    "ERROR",
	_Name:     "NAME",
	_Number:   "NUMBER",
	_Anon:     "ANON",
	_Attr:     "__attribute__",
	_Star:     "*",
	_Caret:    "^",
	_Lparen:   "(",
	_Rparen:   ")",
	_Lbrack:   "[",
	_Rbrack:   "]",
	_Comma:    ",",
	_Ellipsis: "...",
	_Const:    "const",
	_Volatile: "volatile",
	_Restrict: "restrict",
	_Atomic:   "_Atomic",
	_Struct:   "struct",
	_Union:    "union",
	_Enum:     "enum",
	_Signed:   "signed",
	_Unsigned: "unsigned",
	_Char:     "char",
	_Short:    "short",
	_Int:      "int",
	_Long:     "long",
	_Float:    "float",
	_Double:   "double",
	_Void:     "void",
	_Bool:     "_Bool",
	_Int128:   "__int128",
	_Float128: "__float128",
	_Complex:  "_Complex",
	_Typeof:   "typeof",
}

// String returns the string representation of the token.
func (t Token) String() string {
	if t < tokenCount {
		return tokenNames[t]
	}
	return fmt.Sprintf("token(%d)", t)
}

// IsQualifier reports whether t is a type qualifier.
func (t Token) IsQualifier() bool {
	return t == _Const || t == _Volatile || t == _Restrict
}

// IsSpecifier reports whether t can start a declaration specifier list.
func (t Token) IsSpecifier() bool {
	return t >= _Const && t <= _Typeof || t == _Name || t == _Anon || t == _Attr
}

// keywords maps keyword spellings, including the GNU alternate spellings
// clang prints, to their token.
var keywords = map[string]Token{
	"const":       _Const,
	"__const":     _Const,
	"volatile":    _Volatile,
	"__volatile":  _Volatile,
	"restrict":    _Restrict,
	"__restrict":  _Restrict,
	"_Atomic":     _Atomic,
	"struct":      _Struct,
	"union":       _Union,
	"enum":        _Enum,
	"signed":      _Signed,
	"__signed":    _Signed,
	"unsigned":    _Unsigned,
	"char":        _Char,
	"short":       _Short,
	"int":         _Int,
	"long":        _Long,
	"float":       _Float,
	"double":      _Double,
	"void":        _Void,
	"_Bool":       _Bool,
	"bool":        _Bool,
	"__int128":    _Int128,
	"__float128":  _Float128,
	"_Float128":   _Float128,
	"_Complex":    _Complex,
	"__complex__": _Complex,
	"typeof":      _Typeof,
	"__typeof__":  _Typeof,
	"__typeof":    _Typeof,
}

// LookupKeyword returns the token for the given identifier string.
func LookupKeyword(ident string) Token {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return _Name
}
