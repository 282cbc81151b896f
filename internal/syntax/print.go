package syntax

import (
	"fmt"
	"io"
	"strings"
)

// Fprint writes an indented outline of the AST to w: one line per node
// with its kind, name, type and position. Nodes from included files are
// omitted when mainOnly is set and f is non-nil.
func Fprint(w io.Writer, f *File, node *Node, mainOnly bool) {
	p := &printer{w: w, file: f, mainOnly: mainOnly}
	p.print(node)
}

type printer struct {
	w        io.Writer
	file     *File
	mainOnly bool
	indent   int
}

func (p *printer) printf(format string, args ...interface{}) {
	fmt.Fprintf(p.w, "%s%s", strings.Repeat("  ", p.indent), fmt.Sprintf(format, args...))
}

func (p *printer) print(n *Node) {
	if n.IsNull() {
		return
	}
	if p.mainOnly && p.file != nil && p.indent == 1 && !p.file.InMain(n.Pos) {
		return
	}

	var b strings.Builder
	b.WriteString(n.Kind)
	if n.Name != "" {
		fmt.Fprintf(&b, " %s", n.Name)
	}
	if n.Opcode != "" {
		fmt.Fprintf(&b, " %q", n.Opcode)
	}
	if n.CastKind != "" {
		fmt.Fprintf(&b, " <%s>", n.CastKind)
	}
	if v, ok := n.StringValue(); ok {
		fmt.Fprintf(&b, " %s", v)
	} else if v, ok := n.NumberValue(); ok {
		fmt.Fprintf(&b, " %d", v)
	}
	if qt := n.QualType(); qt != "" {
		fmt.Fprintf(&b, " '%s'", qt)
	}
	if n.Pos.IsValid() {
		fmt.Fprintf(&b, " %s", n.Pos)
	}
	p.printf("%s\n", b.String())

	p.indent++
	for _, c := range n.ArrayFiller {
		p.print(c)
	}
	for _, c := range n.Inner {
		p.print(c)
	}
	p.indent--
}
