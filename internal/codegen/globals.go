package codegen

import (
	"fmt"

	"github.com/you-not-fish/cmigrate/internal/cfg"
	"github.com/you-not-fish/cmigrate/internal/diag"
	"github.com/you-not-fish/cmigrate/internal/ir"
)

// emitVar emits a variable with static storage: a global the unit defines
// or a static local of fn. Initializers that refer to other objects are
// assigned in an init function, since Go rejects the reference cycles C
// allows between static initializers.
func (g *gen) emitVar(v *ir.VarDecl, fn *ir.FuncDecl, c *cfg.Func) {
	name := g.names.Object(v)
	gt := g.goType(v.Type)
	g.out.Vars = append(g.out.Vars, name)
	decl := fmt.Sprintf("var %s %s", name, gt)

	if v.Err != nil {
		g.e.line(decl + " // not translated: " + v.Err.Error())
		return
	}
	if err := g.recordErr(v.Type); err != nil {
		var de *diag.Error
		if e, ok := err.(*diag.Error); ok {
			de = e
		} else {
			de = diag.Errorf(diag.LayoutMismatch, v.Pos(), "%v", err)
		}
		g.report(de, v.Name)
		g.e.line(decl)
		return
	}
	if v.Init == nil || isZero(v.Init) {
		g.e.line(decl)
		return
	}

	f := g.newFgen(fn, c)
	val := f.initValue(v.Init, v.Type)
	if f.err != nil {
		g.report(f.err, v.Name)
		g.e.line(decl + " // not translated: " + f.err.Msg)
		return
	}
	if refersToObject(v.Init) {
		g.e.line(decl)
		g.inits = append(g.inits, name+" = "+val.Text)
		return
	}
	g.e.line(decl + " = " + val.Text)
}

// refersToObject reports whether x mentions a variable or function.
func refersToObject(x ir.Expr) bool {
	found := false
	ir.Inspect(x, func(n ir.Node) bool {
		if _, ok := n.(*ir.Ref); ok {
			found = true
		}
		return !found
	})
	return found
}

// emitInits writes the init function assigning deferred initializers in
// declaration order.
func (g *gen) emitInits() {
	if len(g.inits) == 0 {
		return
	}
	g.e.emitLine()
	g.e.begin("func init()")
	for _, s := range g.inits {
		g.e.line(s)
	}
	g.e.end()
}
