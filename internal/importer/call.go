package importer

import (
	"strings"

	"github.com/you-not-fish/cmigrate/internal/diag"
	"github.com/you-not-fish/cmigrate/internal/ir"
	"github.com/you-not-fish/cmigrate/internal/syntax"
	"github.com/you-not-fish/cmigrate/internal/types"
	"github.com/you-not-fish/cmigrate/internal/xcheck"
)

// libcBuiltins are builtins clang keeps as calls that behave exactly like
// the library function of the same name without the prefix.
var libcBuiltins = map[string]bool{
	"abort":   true,
	"abs":     true,
	"memcmp":  true,
	"memcpy":  true,
	"memmove": true,
	"memset":  true,
	"strcmp":  true,
	"strcpy":  true,
	"strlen":  true,
	"strncmp": true,
	"printf":  true,
	"puts":    true,
	"malloc":  true,
	"calloc":  true,
	"free":    true,
}

// callee returns the directly named function of a call, looking through
// decay conversions and parentheses, or nil for calls through pointers.
func callee(fun *syntax.Node) *syntax.Node {
	for n := fun; !n.IsNull(); n = n.Child(0) {
		switch n.Kind {
		case "ImplicitCastExpr":
			if n.CastKind != "FunctionToPointerDecay" && n.CastKind != "BuiltinFnToFnPtr" {
				return nil
			}
		case "ParenExpr":
		case "DeclRefExpr":
			if n.ReferencedDecl != nil && n.ReferencedDecl.Kind == "FunctionDecl" {
				return n
			}
			return nil
		default:
			return nil
		}
	}
	return nil
}

// call imports a call expression.
func (c *importer) call(n *syntax.Node) ir.Expr {
	ref := callee(n.Child(0))
	if ref != nil && strings.HasPrefix(ref.ReferencedDecl.Name, "__builtin_") {
		return c.builtin(n, ref)
	}
	c.checkCallee(ref)
	x := typed(&ir.Call{}, n.Pos, c.typeOf(n))
	x.Fun = c.expr(n.Child(0))
	for _, a := range n.Inner[1:] {
		x.Args = append(x.Args, c.expr(a))
	}
	if ref != nil {
		c.site(x, ref)
	}
	return x
}

// builtin imports a call of a compiler builtin. Builtins without a
// library or source level equivalent are unsupported.
func (c *importer) builtin(n *syntax.Node, ref *syntax.Node) ir.Expr {
	name := strings.TrimPrefix(ref.ReferencedDecl.Name, "__builtin_")
	t := c.typeOf(n)
	switch {
	case name == "expect" || name == "expect_with_probability":
		return c.expr(n.Child(1))

	case name == "constant_p":
		return ir.NewIntLit(n.Pos, t, 0)

	case name == "unreachable" || name == "trap":
		name = "abort"
		fallthrough

	case libcBuiltins[name]:
		fn := c.implicitFunc(name, c.libcType(ref, name))
		x := typed(&ir.Call{}, n.Pos, t)
		x.Fun = typed(&ir.Cast{Kind: ir.FuncDecay, X: ir.NewRef(ref.Pos, fn)}, ref.Pos, c.g.NewPointer(fn.Type, false))
		for _, a := range n.Inner[1:] {
			x.Args = append(x.Args, c.expr(a))
		}
		return x

	case strings.HasPrefix(name, "va_"):
		c.unsupported(n, "variable argument access")
	default:
		c.unsupported(n, "builtin %s", ref.ReferencedDecl.Name)
	}
	return ir.NewZero(n.Pos, t)
}

// libcType returns the function type of the library equivalent of a
// builtin. abort is declared here since the builtins mapped to it have
// other signatures.
func (c *importer) libcType(ref *syntax.Node, name string) types.ID {
	if name == "abort" {
		return c.g.NewFunc(c.g.Basic(types.Void), nil, false, false)
	}
	return c.resolveType(ref.ReferencedDecl.Type, ref.Pos)
}

// site selects a direct call for cross-checking. Sites are counted for
// every call of a callee so ordinals match between the C and Go sides
// regardless of which sites are selected.
func (c *importer) site(x *ir.Call, ref *syntax.Node) {
	f := c.fn
	if f == nil || !f.InMain {
		return
	}
	name := ref.ReferencedDecl.Name
	ordinal := c.calls[name]
	c.calls[name]++
	if !c.conf.Sites.Selected(name) {
		return
	}
	if ft := c.g.FuncOf(c.resolveType(ref.ReferencedDecl.Type, ref.Pos)); ft == nil || ft.Variadic {
		return
	}
	if ref.Macro || !c.file.InMain(ref.Pos) {
		return
	}
	s := &ir.Site{
		ID:      xcheck.SiteID(c.conf.Unit, f.Name, name, ordinal),
		Callee:  name,
		Ordinal: ordinal,
		Call:    x,
		Offset:  ref.Pos.Offset(),
		TokLen:  ref.TokLen,
		Macro:   ref.Macro,
	}
	x.Site = s
	f.Sites = append(f.Sites, s)
}

// checkCallee reports direct calls that cannot be translated
// faithfully.
func (c *importer) checkCallee(ref *syntax.Node) {
	if ref == nil {
		return
	}
	switch ref.ReferencedDecl.Name {
	case "setjmp", "_setjmp", "sigsetjmp", "longjmp", "_longjmp", "siglongjmp":
		c.errorf(diag.UnsupportedConstruct, ref.Pos, "call to %s", ref.ReferencedDecl.Name)
	}
}
