package codegen

import (
	"fmt"
	"strings"

	"github.com/you-not-fish/cmigrate/internal/types"
)

// goType returns the Go spelling of a C type. Void yields "".
func (g *gen) goType(id types.ID) string {
	switch t := g.g.At(id).(type) {
	case *types.Basic:
		return g.basicType(t.Kind())
	case *types.Pointer:
		if g.g.IsVoid(t.Elem) {
			return "unsafe.Pointer"
		}
		if g.g.IsFunc(t.Elem) {
			return g.goType(t.Elem)
		}
		return "*" + g.goType(t.Elem)
	case *types.Array:
		if t.Unsized || t.VLA {
			return "[0]" + g.goType(t.Elem)
		}
		return fmt.Sprintf("[%d]%s", t.Len, g.goType(t.Elem))
	case *types.Func:
		return g.funcType(t)
	case *types.Record:
		return g.typeName(id)
	case *types.Enum:
		if name := g.names.Type(id); name != "" && (t.Tag != "" || t.Hint != "") {
			return g.typeName(id)
		}
		return g.goType(t.Underlying)
	case *types.Typedef:
		if g.g.IsVoid(id) {
			return ""
		}
		return g.typeName(id)
	}
	return "struct{}"
}

// typeName returns the Go name of a nominal type and marks it for
// emission.
func (g *gen) typeName(id types.ID) string {
	g.used[id] = true
	name := g.names.Type(id)
	if name == "" {
		name = fmt.Sprintf("type%d", int32(id))
	}
	return name
}

// funcType spells a C function type as a Go func type. The variadic tail
// has no Go counterpart; calls that pass it go through shims.
func (g *gen) funcType(t *types.Func) string {
	var b strings.Builder
	b.WriteString("func(")
	for i, p := range t.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(g.goType(p))
	}
	b.WriteString(")")
	if res := g.goType(t.Result); res != "" {
		b.WriteString(" " + res)
	}
	return b.String()
}

// basicType spells a scalar kind. Sizes come from the target, so long is
// int64 on LP64 and int32 on ILP32.
func (g *gen) basicType(k types.BasicKind) string {
	t := g.sizes.Target()
	switch k {
	case types.Void:
		return ""
	case types.Bool, types.UChar:
		return "uint8"
	case types.Char:
		if t.CharSigned {
			return "int8"
		}
		return "uint8"
	case types.SChar:
		return "int8"
	case types.Short:
		return intType(t.SizeShort, false)
	case types.UShort:
		return intType(t.SizeShort, true)
	case types.Int:
		return intType(t.SizeInt, false)
	case types.UInt:
		return intType(t.SizeInt, true)
	case types.Long:
		return intType(t.SizeLong, false)
	case types.ULong:
		return intType(t.SizeLong, true)
	case types.LongLong:
		return intType(t.SizeLongLong, false)
	case types.ULongLong:
		return intType(t.SizeLongLong, true)
	case types.Float:
		return "float32"
	case types.Double, types.LongDouble:
		return "float64"
	}
	return "struct{}"
}

func intType(size int64, unsigned bool) string {
	s := fmt.Sprintf("int%d", size*8)
	if unsigned {
		return "u" + s
	}
	return s
}

// zero returns the Go zero value of a C type.
func (g *gen) zero(id types.ID) string {
	switch g.g.Underlying(id).(type) {
	case *types.Pointer, *types.Func:
		return "nil"
	case *types.Array, *types.Record:
		return g.goType(id) + "{}"
	}
	return "0"
}

// isUnsigned reports whether an integer or pointer type is unsigned.
func (g *gen) isUnsigned(id types.ID) bool {
	return g.sizes.Unsigned(id)
}

// sameGoType reports whether two C types spell the same Go type, so a
// conversion between them can be dropped.
func (g *gen) sameGoType(a, b types.ID) bool {
	if a == b {
		return true
	}
	return g.goType(a) == g.goType(b)
}

// bits returns the width of an integer type in bits.
func (g *gen) bits(id types.ID) uint {
	return uint(g.sizes.Sizeof(id) * 8)
}
