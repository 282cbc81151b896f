package cfg

import (
	"fmt"
	"io"
	"strings"

	"github.com/you-not-fish/cmigrate/internal/ir"
)

// Fprint writes the graph of a function to w.
//
// Format:
//
//	func sum:
//	  b0: (entry)
//	    s = 0
//	    Plain -> b1
//	  b1: <- b0 b2
//	    If i < n -> b2 b3
func Fprint(w io.Writer, f *Func) {
	fmt.Fprintf(w, "func %s:\n", f.Name)
	for _, b := range f.Blocks {
		fprintBlock(w, b, f)
	}
}

func fprintBlock(w io.Writer, b *Block, f *Func) {
	label := ""
	if b == f.Entry {
		label = " (entry)"
	}
	if b.Label != nil {
		label += " " + b.Label.Name + ":"
	}
	predsStr := ""
	if len(b.Preds) > 0 {
		preds := make([]string, len(b.Preds))
		for i, p := range b.Preds {
			preds[i] = p.String()
		}
		predsStr = " <- " + strings.Join(preds, " ")
	}
	fmt.Fprintf(w, "  %s:%s%s\n", b, label, predsStr)
	for _, s := range b.Stmts {
		fmt.Fprintf(w, "    %s\n", formatStmt(s))
	}
	fmt.Fprintf(w, "    %s\n", formatTerminator(b))
}

func formatStmt(s ir.Stmt) string {
	switch s := s.(type) {
	case *ir.ExprStmt:
		return ir.ExprString(s.X)
	case *ir.DeclStmt:
		var parts []string
		for _, v := range s.Vars {
			if v.Init != nil {
				parts = append(parts, v.Name+" = "+ir.ExprString(v.Init))
			} else {
				parts = append(parts, "var "+v.Name)
			}
		}
		return strings.Join(parts, "; ")
	}
	return fmt.Sprintf("%T", s)
}

func formatTerminator(b *Block) string {
	succs := make([]string, len(b.Succs))
	for i, s := range b.Succs {
		succs[i] = s.String()
	}
	switch b.Kind {
	case BlockPlain:
		if len(b.Succs) > 0 {
			return fmt.Sprintf("Plain -> %s", b.Succs[0])
		}
		return "Plain"
	case BlockIf:
		return fmt.Sprintf("If %s -> %s", ir.ExprString(b.Control), strings.Join(succs, " "))
	case BlockSwitch:
		var arms []string
		for i, c := range b.Cases {
			v := fmt.Sprint(c.Lo)
			if c.Hi != c.Lo {
				v = fmt.Sprintf("%d...%d", c.Lo, c.Hi)
			}
			if i < len(succs) {
				arms = append(arms, v+":"+succs[i])
			}
		}
		if len(succs) > 0 {
			arms = append(arms, "default:"+succs[len(succs)-1])
		}
		return fmt.Sprintf("Switch %s -> %s", ir.ExprString(b.Control), strings.Join(arms, " "))
	case BlockReturn:
		if b.Control != nil {
			return "Return " + ir.ExprString(b.Control)
		}
		return "Return"
	case BlockUnreachable:
		return "Unreachable"
	}
	return "???"
}

// Sprint returns the printed graph of a function as a string.
func Sprint(f *Func) string {
	var sb strings.Builder
	Fprint(&sb, f)
	return sb.String()
}
