package codegen

import (
	"fmt"
	"strings"

	"github.com/you-not-fish/cmigrate/internal/types"
)

// TypeKey returns a description of the C definition of a nominal type,
// including the definitions of the types it mentions. Two units that
// declare types with equal keys declare the same type.
func TypeKey(g *types.Graph, id types.ID) string {
	var b strings.Builder
	writeKey(g, &b, id, make(map[types.ID]bool))
	return b.String()
}

func writeKey(g *types.Graph, b *strings.Builder, id types.ID, busy map[types.ID]bool) {
	switch t := g.At(id).(type) {
	case *types.Basic:
		b.WriteString(t.Name())
	case *types.Pointer:
		b.WriteString("*")
		writeKey(g, b, t.Elem, busy)
	case *types.Array:
		switch {
		case t.VLA:
			b.WriteString("[*]")
		case t.Unsized:
			b.WriteString("[]")
		default:
			fmt.Fprintf(b, "[%d]", t.Len)
		}
		writeKey(g, b, t.Elem, busy)
	case *types.Func:
		b.WriteString("func(")
		for i, p := range t.Params {
			if i > 0 {
				b.WriteString(",")
			}
			writeKey(g, b, p, busy)
		}
		if t.Variadic {
			b.WriteString(",...")
		}
		b.WriteString(")")
		writeKey(g, b, t.Result, busy)
	case *types.Record:
		b.WriteString(t.Kind() + " " + t.Tag)
		if busy[id] || !t.Complete {
			return
		}
		busy[id] = true
		if t.Packed {
			b.WriteString(" packed")
		}
		if t.AlignAttr != 0 {
			fmt.Fprintf(b, " align(%d)", t.AlignAttr)
		}
		b.WriteString("{")
		for _, f := range t.Fields {
			b.WriteString(f.Name + " ")
			writeKey(g, b, f.Type, busy)
			if f.Bitfield {
				fmt.Fprintf(b, ":%d", f.Width)
			}
			if f.AlignAttr != 0 {
				fmt.Fprintf(b, " align(%d)", f.AlignAttr)
			}
			b.WriteString(";")
		}
		b.WriteString("}")
		delete(busy, id)
	case *types.Enum:
		b.WriteString("enum " + t.Tag + ":")
		writeKey(g, b, t.Underlying, busy)
	case *types.Typedef:
		b.WriteString(t.Name + "=")
		if busy[id] {
			return
		}
		busy[id] = true
		writeKey(g, b, t.Alias, busy)
		delete(busy, id)
	}
}
