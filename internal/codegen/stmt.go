package codegen

import (
	"github.com/you-not-fish/cmigrate/internal/ir"
	"github.com/you-not-fish/cmigrate/internal/target"
	"github.com/you-not-fish/cmigrate/internal/types"
)

// stmt emits a straight-line statement of a basic block.
func (f *fgen) stmt(s ir.Stmt) {
	switch s := s.(type) {
	case *ir.ExprStmt:
		f.exprStmt(s.X)
	case *ir.DeclStmt:
		for _, v := range s.Vars {
			f.declVar(v)
		}
	case *ir.Empty:
	default:
		f.fail(s.Pos(), "statement %T in a basic block", s)
	}
}

// declVar emits the initialization of a block scope variable at the point
// of its declaration. The variable itself is declared at function entry.
func (f *fgen) declVar(v *ir.VarDecl) {
	if v.Init == nil || v.Static() {
		return
	}
	name, ok := f.localName(v)
	if !ok {
		return
	}
	lv := lval{x: target.Primary(name), root: v, typ: v.Type}
	f.e.line(f.store(lv, f.initValue(v.Init, v.Type)))
}

// exprStmt emits x evaluated for its side effects.
func (f *fgen) exprStmt(x ir.Expr) {
	switch x := x.(type) {
	case *ir.Assign:
		body, _ := f.assign(x, false)
		f.lines(body)
		return
	case *ir.Unary:
		if x.Op.IsIncDec() {
			body, _ := f.incDec(x, false)
			f.lines(body)
			return
		}
	case *ir.Call:
		f.e.line(f.call(x).Text)
		return
	case *ir.Binary:
		switch x.Op {
		case ir.Comma:
			f.exprStmt(x.X)
			f.exprStmt(x.Y)
			return
		case ir.LAnd, ir.LOr:
			if pure(x.Y) {
				break
			}
			c := f.cond(x.X)
			if x.Op == ir.LOr {
				c = target.Not(c)
			}
			f.e.begin("if " + c.Text)
			f.exprStmt(x.Y)
			f.e.end()
			return
		}
	case *ir.Cond:
		f.condStmt(x)
		return
	case *ir.Cast:
		f.exprStmt(x.X)
		return
	}
	if !pure(x) {
		f.e.line("_ = " + f.expr(x).Text)
	}
}

func (f *fgen) condStmt(x *ir.Cond) {
	c := f.cond(x.Cond)
	if x.Then == nil {
		if pure(x.Else) {
			if !pure(x.Cond) {
				f.e.line("_ = " + f.expr(x.Cond).Text)
			}
			return
		}
		f.e.begin("if " + target.Not(c).Text)
		f.exprStmt(x.Else)
		f.e.end()
		return
	}
	f.e.begin("if " + c.Text)
	f.exprStmt(x.Then)
	if !pure(x.Else) {
		f.e.mid("} else {")
		f.exprStmt(x.Else)
	}
	f.e.end()
}

func (f *fgen) lines(body []string) {
	for _, l := range body {
		f.e.line(l)
	}
}

// isVoid reports whether t has no Go value.
func (f *fgen) isVoid(t types.ID) bool {
	return f.goType(t) == ""
}
