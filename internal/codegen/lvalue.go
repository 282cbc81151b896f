package codegen

import (
	"strings"

	"github.com/you-not-fish/cmigrate/internal/ir"
	"github.com/you-not-fish/cmigrate/internal/target"
	"github.com/you-not-fish/cmigrate/internal/types"
)

// lval is a lowered C lvalue.
type lval struct {
	// x is an addressable Go operand. For a bitfield it is the record
	// operand the accessors are called on.
	x target.Expr

	// ptr is the address when x is *ptr, so taking the address does not
	// produce &*ptr.
	ptr target.Expr

	bits    *fieldRepr
	recvPtr bool // x is a pointer to the record holding bits

	// root is set when x names a local variable. Storing to it is not a
	// use of the variable as far as Go is concerned.
	root *ir.VarDecl
	typ  types.ID
}

func (f *fgen) derefLval(p target.Expr, t types.ID) lval {
	return lval{x: target.Deref(p), ptr: p, typ: t}
}

// lvalue lowers x, which designates an object.
func (f *fgen) lvalue(x ir.Expr) lval {
	t := x.Type()
	switch x := x.(type) {
	case *ir.Ref:
		v, ok := x.Obj.(*ir.VarDecl)
		if !ok {
			break
		}
		if name, ok := f.localName(v); ok {
			return lval{x: target.Primary(name), root: v, typ: t}
		}
		return lval{x: target.Primary(f.global(v)), typ: t}
	case *ir.Unary:
		if x.Op != ir.Deref {
			break
		}
		if f.g.IsVoid(t) {
			f.fail(x.Pos(), "dereference of a void pointer")
			return lval{x: goZero, typ: t}
		}
		return f.derefLval(f.expr(x.X), t)
	case *ir.Index:
		pt := x.X.Type()
		if f.g.IsPointer(x.I.Type()) {
			pt = x.I.Type()
			return f.derefLval(f.ptrOffset(f.expr(x.I), pt, x.X, false), t)
		}
		return f.derefLval(f.ptrOffset(f.expr(x.X), pt, x.I, false), t)
	case *ir.Member:
		r, fr, ok := f.member(x)
		if !ok {
			return lval{x: goZero, typ: t}
		}
		base, isPtr := f.memberBase(x)
		return f.memberAccess(r, fr, base, isPtr, t)
	case *ir.StringLit:
		return lval{x: target.Primary(f.stringVar(x)), typ: t}
	case *ir.CompoundLit:
		tmp := f.locals.temp()
		gt := f.goType(t)
		p := target.Func("*"+gt, []string{"var " + tmp + " " + gt + " = " + f.initValue(x.Init, t).Text}, target.AddrOf(target.Primary(tmp)))
		return f.derefLval(p, t)
	case *ir.Cast:
		if x.Kind == ir.NoOp {
			return f.lvalue(x.X)
		}
	}
	f.fail(x.Pos(), "%T is not assignable", x)
	return lval{x: goZero, typ: t}
}

// memberAccess selects member fr of record r from base, which is an
// addressable record or, if isPtr, a pointer to one.
func (f *fgen) memberAccess(r *recordRepr, fr fieldRepr, base target.Expr, isPtr bool, t types.ID) lval {
	switch fr.kind {
	case fieldDirect:
		return lval{x: target.Sel(base, fr.name), typ: t}
	case fieldBytes:
		var addr target.Expr
		switch {
		case r.union && isPtr:
			addr = target.Conv("unsafe.Pointer", base)
		case r.union:
			addr = target.Conv("unsafe.Pointer", target.AddrOf(base))
		default:
			addr = target.Conv("unsafe.Pointer", target.AddrOf(target.Sel(base, fr.name)))
		}
		return f.derefLval(target.Conv("*"+f.goType(fr.typ), addr), t)
	case fieldBits:
		b := fr
		return lval{x: base, bits: &b, recvPtr: isPtr, typ: t}
	case fieldAddr:
		p := target.Call(target.Sel(base, fr.name))
		if f.g.IsArray(fr.typ) {
			p = target.Conv("*"+f.goType(fr.typ), target.Conv("unsafe.Pointer", p))
		}
		return f.derefLval(p, t)
	}
	f.fail(f.g.Pos(r.id), "member without storage")
	return lval{x: goZero, typ: t}
}

// use returns the operand of lv as part of a larger expression.
func (f *fgen) use(lv lval) target.Expr {
	if lv.root != nil {
		f.read[lv.root] = true
	}
	return lv.x
}

// load reads lv.
func (f *fgen) load(lv lval) target.Expr {
	if lv.bits != nil {
		return target.Call(target.Sel(lv.x, "get_"+lv.bits.name))
	}
	return f.use(lv)
}

// store returns the statement writing v to lv.
func (f *fgen) store(lv lval, v target.Expr) string {
	if lv.bits != nil {
		return target.Call(target.Sel(lv.x, "set_"+lv.bits.name), v).Text
	}
	return lv.x.Text + " = " + v.Text
}

// addrOf returns the address of lv.
func (f *fgen) addrOf(lv lval) target.Expr {
	if lv.ptr.Text != "" {
		return lv.ptr
	}
	return target.AddrOf(f.use(lv))
}

// bind evaluates the address of lv once, appending the binding to body,
// so lv can be read and written without repeating side effects.
func (f *fgen) bind(lv lval, body *[]string) lval {
	tmp := target.Primary(f.locals.temp())
	switch {
	case lv.bits != nil && lv.recvPtr:
		*body = append(*body, tmp.Text+" := "+lv.x.Text)
	case lv.bits != nil:
		*body = append(*body, tmp.Text+" := "+target.AddrOf(f.use(lv)).Text)
	default:
		*body = append(*body, tmp.Text+" := "+f.addrOf(lv).Text)
		return lval{x: target.Deref(tmp), ptr: tmp, typ: lv.typ}
	}
	return lval{x: tmp, bits: lv.bits, recvPtr: true, typ: lv.typ}
}

// addressable reports whether x designates an object Go can take the
// address of.
func (f *fgen) addressable(x ir.Expr) bool {
	switch x := x.(type) {
	case *ir.Ref:
		_, ok := x.Obj.(*ir.VarDecl)
		return ok
	case *ir.Unary:
		return x.Op == ir.Deref
	case *ir.Index, *ir.StringLit, *ir.CompoundLit:
		return true
	case *ir.Member:
		return x.Arrow || f.addressable(x.X)
	case *ir.Cast:
		return x.Kind == ir.NoOp && f.addressable(x.X)
	}
	return false
}

// pure reports whether evaluating x has no side effects.
func pure(x ir.Expr) bool {
	ok := true
	ir.Inspect(x, func(n ir.Node) bool {
		switch n := n.(type) {
		case *ir.Assign, *ir.Call:
			ok = false
		case *ir.Unary:
			if n.Op.IsIncDec() {
				ok = false
			}
		}
		return ok
	})
	return ok
}

// assign lowers an assignment. It returns the statements performing it
// and, if value is set, an expression yielding the assigned value.
func (f *fgen) assign(x *ir.Assign, value bool) ([]string, target.Expr) {
	var body []string
	lv := f.lvalue(x.LHS)
	lt := x.LHS.Type()
	if x.Op == 0 {
		if value && !pure(x.LHS) {
			lv = f.bind(lv, &body)
		}
		body = append(body, f.store(lv, f.initValue(x.RHS, lt)))
		if !value {
			return body, target.Expr{}
		}
		return body, f.load(lv)
	}

	if !pure(x.LHS) && (value || lv.bits != nil || f.g.IsPointer(lt) || !f.opAssign(x)) {
		lv = f.bind(lv, &body)
	}
	rhs := f.expr(x.RHS)
	switch {
	case f.g.IsPointer(lt):
		body = append(body, f.store(lv, f.ptrOffset(f.load(lv), lt, x.RHS, x.Op == ir.Sub)))
	case lv.bits == nil && f.opAssign(x):
		body = append(body, lv.x.Text+" "+x.Op.String()+"= "+rhs.Text)
	default:
		cur := f.convert(f.load(lv), lt, x.Compute)
		if x.Op == ir.Shl || x.Op == ir.Shr {
			if c, ok := f.fold(x.RHS); ok {
				rhs = f.literal(c, x.RHS.Type(), false)
			}
		}
		res := target.Binary(cur, x.Op.String(), rhs)
		body = append(body, f.store(lv, f.convert(res, x.Compute, lt)))
	}
	if !value {
		return body, target.Expr{}
	}
	return body, f.load(lv)
}

// opAssign reports whether a compound assignment maps onto the Go
// operator of the same name.
func (f *fgen) opAssign(x *ir.Assign) bool {
	lt := x.LHS.Type()
	if !f.sameGoType(lt, x.Compute) || f.g.IsBool(lt) {
		return false
	}
	if x.Op == ir.Shl || x.Op == ir.Shr {
		return true
	}
	return f.sameGoType(x.RHS.Type(), x.Compute)
}

// incDec lowers ++ and --.
func (f *fgen) incDec(x *ir.Unary, value bool) ([]string, target.Expr) {
	var body []string
	lv := f.lvalue(x.X)
	t := x.X.Type()
	if !pure(x.X) && (value || lv.bits != nil || f.g.IsPointer(t) || f.g.IsBool(t)) {
		lv = f.bind(lv, &body)
	}
	dec := x.Op == ir.PreDec || x.Op == ir.PostDec
	var old target.Expr
	if value && x.Op.IsPostfix() {
		tmp := f.locals.temp()
		body = append(body, tmp+" := "+f.load(lv).Text)
		old = target.Primary(tmp)
	}
	switch {
	case f.g.IsPointer(t):
		n := int64(1)
		if dec {
			n = -1
		}
		body = append(body, f.store(lv, f.ptrStep(f.load(lv), t, n)))
	case f.g.IsBool(t):
		if dec {
			body = append(body, f.store(lv, f.boolValue(target.Binary(f.load(lv), "==", goZero), t)))
		} else {
			body = append(body, f.store(lv, target.Lit("1")))
		}
	case lv.bits != nil:
		op := "+"
		if dec {
			op = "-"
		}
		body = append(body, f.store(lv, target.Binary(f.load(lv), op, target.Lit("1"))))
	default:
		op := "++"
		if dec {
			op = "--"
		}
		body = append(body, lv.x.Text+op)
	}
	if !value {
		return body, target.Expr{}
	}
	if old.Text != "" {
		return body, old
	}
	return body, f.load(lv)
}

// stmts lowers x in statement context and returns the statements as
// lines, for use inside a function literal.
func (f *fgen) stmts(x ir.Expr) []string {
	saved := f.e
	f.e = saved.sub()
	f.e.indent = 0
	f.exprStmt(x)
	text := f.e.String()
	f.e = saved
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
