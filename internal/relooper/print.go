package relooper

import (
	"fmt"
	"io"
	"strings"
)

// Fprint writes a textual dump of the region tree to w.
//
// Format:
//
//	r1 simple b0 -> b1
//	r2 loop {
//	  r3 simple b1 -> b2 | break r2
//	  r4 simple b2 -> continue r2
//	}
//	r5 simple b3 ret
func Fprint(w io.Writer, t *Tree) {
	fmt.Fprintf(w, "regions %s:\n", t.Func.Name)
	fprintChain(w, t, t.Root, 1)
}

func fprintChain(w io.Writer, t *Tree, id RegionID, depth int) {
	indent := strings.Repeat("  ", depth)
	for ; id != 0; id = t.At(id).Next {
		r := t.At(id)
		switch r.Kind {
		case Simple:
			fmt.Fprintf(w, "%sr%d simple %v%s\n", indent, id, r.Block, formatBranches(r))
		case Loop:
			fmt.Fprintf(w, "%sr%d loop {\n", indent, id)
			fprintChain(w, t, r.Inner, depth+1)
			fmt.Fprintf(w, "%s}\n", indent)
		case Multiple:
			kind := "dispatch"
			if r.Fused {
				kind = "fused"
			}
			fmt.Fprintf(w, "%sr%d multiple %s {\n", indent, id, kind)
			for _, arm := range r.Arms {
				fmt.Fprintf(w, "%s  %v", indent, arm.Entry)
				if !r.Fused {
					fmt.Fprintf(w, " when %d", arm.Dispatch)
				}
				fmt.Fprintln(w, ":")
				fprintChain(w, t, arm.Body, depth+2)
			}
			fmt.Fprintf(w, "%s}\n", indent)
		}
	}
}

func formatBranches(r *Region) string {
	if len(r.Branches) == 0 {
		return " " + r.Block.Kind.String()
	}
	parts := make([]string, len(r.Branches))
	for i, br := range r.Branches {
		var s string
		switch br.Action {
		case Direct:
			s = r.Block.Succs[i].String()
		default:
			s = fmt.Sprintf("%v r%d", br.Action, br.Target)
		}
		if br.Dispatch != 0 {
			s = fmt.Sprintf("dispatch=%d %s", br.Dispatch, s)
		}
		parts[i] = s
	}
	return " -> " + strings.Join(parts, " | ")
}

// Sprint returns the dump of t as a string.
func Sprint(t *Tree) string {
	var sb strings.Builder
	Fprint(&sb, t)
	return sb.String()
}
