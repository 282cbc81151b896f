package types

import (
	"fmt"
	"strings"
)

// String returns the C spelling of id. Anonymous records are spelled with
// their ID so distinct types print differently.
func (g *Graph) String(id ID) string {
	var buf strings.Builder
	g.writeType(&buf, id, 0)
	return buf.String()
}

func (g *Graph) writeType(buf *strings.Builder, id ID, depth int) {
	if depth > 32 {
		buf.WriteString("...")
		return
	}
	switch t := g.At(id).(type) {
	case nil:
		buf.WriteString("<invalid>")
	case *Basic:
		buf.WriteString(t.Name())
	case *Pointer:
		g.writeType(buf, t.Elem, depth+1)
		if t.Const {
			buf.WriteString(" const")
		}
		buf.WriteString(" *")
	case *Array:
		g.writeType(buf, t.Elem, depth+1)
		switch {
		case t.VLA:
			buf.WriteString(" [*]")
		case t.Unsized:
			buf.WriteString(" []")
		default:
			fmt.Fprintf(buf, " [%d]", t.Len)
		}
	case *Func:
		g.writeType(buf, t.Result, depth+1)
		buf.WriteString(" (")
		for i, p := range t.Params {
			if i > 0 {
				buf.WriteString(", ")
			}
			g.writeType(buf, p, depth+1)
		}
		if t.Variadic {
			if len(t.Params) > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString("...")
		} else if len(t.Params) == 0 && !t.NoProto {
			buf.WriteString("void")
		}
		buf.WriteString(")")
	case *Record:
		buf.WriteString(t.Kind())
		buf.WriteByte(' ')
		if t.Tag != "" {
			buf.WriteString(t.Tag)
		} else {
			fmt.Fprintf(buf, "<anonymous %s>", id)
		}
	case *Enum:
		if t.Tag != "" {
			buf.WriteString("enum " + t.Tag)
		} else {
			fmt.Fprintf(buf, "enum <anonymous %s>", id)
		}
	case *Typedef:
		buf.WriteString(t.Name)
	}
}
