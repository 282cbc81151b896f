package codegen

import (
	"fmt"
	"strings"

	"github.com/you-not-fish/cmigrate/internal/ir"
	"github.com/you-not-fish/cmigrate/internal/types"
	"github.com/you-not-fish/cmigrate/internal/xcheck"
)

// Site is an instrumented call site of the unit.
type Site struct {
	ID      uint32
	Func    string // C function containing the call
	Callee  string
	Ordinal int
	Wrapper string // Go function recording the checkpoints
}

// WrapperName returns the Go name of the checkpoint wrapper of a site.
func WrapperName(id uint32) string {
	return fmt.Sprintf("xcheck_%08x", id)
}

// siteWrapper returns the wrapper that a checked call of fn goes through,
// generating it on first use. The wrapper records the entry checkpoint
// with the folded argument tags, calls fn, and records the exit
// checkpoint with the result tag.
func (f *fgen) siteWrapper(x *ir.Call, fn *ir.FuncDecl, ft *types.Func) string {
	site := x.Site
	name := WrapperName(site.ID)
	if f.wrappers[site.ID] != "" {
		return name
	}

	fun := f.names.Object(fn)
	if fn.Body == nil && (ft.Variadic || ft.NoProto && len(x.Args) != len(ft.Params)) {
		fun = f.shim(fn, ft, x.Args)
	}
	prefix := ""
	if fun == "seq" || fun == "r" || strings.HasPrefix(fun, "a") {
		prefix = "x_"
	}

	var params, args, tags []string
	for i, a := range x.Args {
		t := a.Type()
		if i < len(ft.Params) {
			t = ft.Params[i]
		}
		arg := fmt.Sprintf("%sa%d", prefix, i)
		params = append(params, arg+" "+f.goType(t))
		args = append(args, arg)
		tags = append(tags, f.tagExpr(x, arg, t))
	}

	var b strings.Builder
	res := f.goType(ft.Result)
	fmt.Fprintf(&b, "func %s(%s)", name, strings.Join(params, ", "))
	if res != "" {
		b.WriteString(" " + res)
	}
	b.WriteString(" {\n")
	fmt.Fprintf(&b, "\t%sseq := xcrt.Enter(0x%08x, xcrt.Fold(%s))\n", prefix, site.ID, strings.Join(tags, ", "))
	call := fmt.Sprintf("%s(%s)", fun, strings.Join(args, ", "))
	if res == "" {
		fmt.Fprintf(&b, "\t%s\n", call)
		fmt.Fprintf(&b, "\txcrt.Exit(0x%08x, %sseq, 0)\n", site.ID, prefix)
	} else {
		fmt.Fprintf(&b, "\t%sr := %s\n", prefix, call)
		fmt.Fprintf(&b, "\txcrt.Exit(0x%08x, %sseq, %s)\n", site.ID, prefix, f.tagExpr(x, prefix+"r", ft.Result))
		fmt.Fprintf(&b, "\treturn %sr\n", prefix)
	}
	b.WriteString("}\n")
	f.wrappers[site.ID] = b.String()

	caller := ""
	if f.fn != nil {
		caller = f.fn.Name
	}
	f.out.Sites = append(f.out.Sites, Site{
		ID:      site.ID,
		Func:    caller,
		Callee:  site.Callee,
		Ordinal: site.Ordinal,
		Wrapper: name,
	})
	return name
}

// tagExpr returns the Go expression computing the checkpoint tag of the
// variable v of type t.
func (f *fgen) tagExpr(x *ir.Call, v string, t types.ID) string {
	r, err := xcheck.RecipeOf(f.sizes, t)
	if err != nil {
		f.failErr(x.Pos(), err)
		return "0"
	}
	switch r.Kind {
	case xcheck.TagInt:
		return fmt.Sprintf("xcrt.Int(uint64(%s), %d)", v, r.Size)
	case xcheck.TagFloat:
		if r.Size == 4 {
			return fmt.Sprintf("xcrt.Float32(%s)", v)
		}
		return fmt.Sprintf("xcrt.Float64(%s)", v)
	case xcheck.TagPtr:
		return fmt.Sprintf("xcrt.Ptr(%s != nil)", v)
	case xcheck.TagObject:
		args := []string{fmt.Sprintf("unsafe.Pointer(&%s)", v)}
		for _, n := range xcheck.Ints(r.Parts) {
			args = append(args, fmt.Sprint(n))
		}
		return "xcrt.Object(" + strings.Join(args, ", ") + ")"
	}
	return "0"
}

// emitWrappers writes the checkpoint wrappers in site order.
func (g *gen) emitWrappers() {
	for _, s := range g.out.Sites {
		g.e.emitLine()
		g.e.emitRaw(g.wrappers[s.ID])
	}
}
