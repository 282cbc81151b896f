package codegen

import (
	"fmt"
	"go/scanner"
	"go/token"
	"strconv"

	"github.com/you-not-fish/cmigrate/internal/ir"
	"github.com/you-not-fish/cmigrate/internal/target"
	"github.com/you-not-fish/cmigrate/internal/types"
)

// SupportFile is the name of the file holding the helpers every generated
// unit relies on.
const SupportFile = "support.go"

// Support returns the helper file of a generated package.
func Support(pkg string) []byte {
	return []byte(fmt.Sprintf(supportSource, pkg))
}

const supportSource = `// Code generated by cmigrate. DO NOT EDIT.

package %s

import "unsafe"

type integer interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// bool2int converts a condition to the int a C comparison yields.
func bool2int[T integer](b bool) T {
	if b {
		return 1
	}
	return 0
}

// cstring returns the n elements of a narrow string literal, zero padded.
func cstring[T ~int8 | ~uint8](s string, n int) []T {
	out := make([]T, n)
	for i := 0; i < len(s) && i < n; i++ {
		out[i] = T(s[i])
	}
	return out
}

// wstring decodes a wide string literal whose code units are stored little
// endian in s.
func wstring[T ~int16 | ~uint16 | ~int32 | ~uint32](s string, n int) []T {
	var z T
	w := int(unsafe.Sizeof(z))
	out := make([]T, n)
	for i := 0; i < n && (i+1)*w <= len(s); i++ {
		var v uint64
		for k := w - 1; k >= 0; k-- {
			v = v<<8 | uint64(s[i*w+k])
		}
		out[i] = T(v)
	}
	return out
}

// reinterpret copies the bits of v into a value of type To, which has the
// same size.
func reinterpret[To, From any](v From) To {
	return *(*To)(unsafe.Pointer(&v))
}

func bitfieldLoad(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func bitfieldMask(width uint) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return 1<<width - 1
}

// bitfieldGet extracts an unsigned bitfield of width bits starting at bit
// shift of the little-endian storage b.
func bitfieldGet(b []byte, shift, width uint) uint64 {
	return bitfieldLoad(b) >> shift & bitfieldMask(width)
}

// bitfieldSigned extracts a signed bitfield.
func bitfieldSigned(b []byte, shift, width uint) int64 {
	v := bitfieldGet(b, shift, width)
	return int64(v<<(64-width)) >> (64 - width)
}

// bitfieldSet stores the low width bits of v, leaving the neighbouring
// bits of b unchanged.
func bitfieldSet(b []byte, shift, width uint, v uint64) {
	mask := bitfieldMask(width) << shift
	w := bitfieldLoad(b)&^mask | v<<shift&mask
	for i := range b {
		b[i] = byte(w >> (8 * i))
	}
}
`

// stringTable holds the string literals of a unit. Each literal becomes a
// package-level array so that its address is stable, as in C.
type stringTable struct {
	prefix string
	index  map[string]int
	lits   []stringLit
}

type stringLit struct {
	name  string
	value string
	width int
	elem  string
	n     int64
}

func newStringTable(unit string) *stringTable {
	return &stringTable{
		prefix: "strlit_" + target.Word(unit) + "_",
		index:  make(map[string]int),
	}
}

// stringVar returns the variable holding the literal s.
func (g *gen) stringVar(s *ir.StringLit) string {
	t := g.strs
	n := int64(len(s.Value)/max(s.Width, 1)) + 1
	if a, ok := g.g.Underlying(s.Type()).(*types.Array); ok && !a.Unsized {
		n = a.Len
	}
	elem := g.goType(g.g.Elem(s.Type()))
	key := fmt.Sprintf("%d/%s/%d/%s", s.Width, elem, n, s.Value)
	if i, ok := t.index[key]; ok {
		return t.lits[i].name
	}
	name := t.prefix + strconv.Itoa(len(t.lits))
	t.index[key] = len(t.lits)
	t.lits = append(t.lits, stringLit{name: name, value: s.Value, width: s.Width, elem: elem, n: n})
	return name
}

// stringInit returns the expression initializing an array of n elements
// of type elem from the literal s.
func stringInit(value string, width int, elem string, n int64) string {
	fn := "cstring"
	if width > 1 {
		fn = "wstring"
	}
	return fmt.Sprintf("[%d]%s(%s[%s](%s, %d))", n, elem, fn, elem, strconv.Quote(value), n)
}

// emitStrings declares the string table.
func (g *gen) emitStrings() {
	if len(g.strs.lits) == 0 {
		return
	}
	g.e.emitLine()
	g.e.line("var (")
	g.e.indent++
	for _, l := range g.strs.lits {
		g.e.line(l.name + " = " + stringInit(l.value, l.width, l.elem, l.n))
	}
	g.e.indent--
	g.e.line(")")
}

// PackagesUsed returns the package names that Go source text qualifies
// identifiers with. Text inside literals and comments is ignored.
func PackagesUsed(src []byte) map[string]bool {
	used := make(map[string]bool)
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(src))
	var s scanner.Scanner
	s.Init(file, src, nil, 0)
	prev := ""
	for {
		_, tok, lit := s.Scan()
		if tok == token.EOF {
			break
		}
		if tok == token.PERIOD && prev != "" {
			used[prev] = true
		}
		prev = ""
		if tok == token.IDENT {
			prev = lit
		}
	}
	return used
}
