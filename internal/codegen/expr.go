package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/you-not-fish/cmigrate/internal/ir"
	"github.com/you-not-fish/cmigrate/internal/target"
	"github.com/you-not-fish/cmigrate/internal/types"
)

var (
	goNil  = target.Primary("nil")
	goZero = target.Lit("0")
)

// expr lowers x in value context.
func (f *fgen) expr(x ir.Expr) target.Expr {
	if c, ok := f.fold(x); ok {
		return f.literal(c, x.Type(), false)
	}
	switch x := x.(type) {
	case *ir.StringLit:
		return target.Primary(f.stringVar(x))
	case *ir.Ref:
		return f.ref(x)
	case *ir.LabelAddr:
		return target.Primaryf("unsafe.Pointer(uintptr(%d))", f.labelID(x))
	case *ir.Unary:
		return f.unary(x)
	case *ir.Binary:
		return f.binary(x)
	case *ir.Assign:
		body, res := f.assign(x, true)
		return target.Func(f.goType(x.Type()), body, res)
	case *ir.Cond:
		return f.condValue(x)
	case *ir.Cast:
		return f.cast(x)
	case *ir.Call:
		return f.call(x)
	case *ir.Member:
		return f.memberValue(x)
	case *ir.Index:
		return f.load(f.lvalue(x))
	case *ir.InitList, *ir.Zero:
		return f.initValue(x, x.Type())
	case *ir.CompoundLit:
		return f.initValue(x.Init, x.Type())
	}
	return f.fail(x.Pos(), "expression %T", x)
}

func (f *fgen) labelID(x *ir.LabelAddr) int {
	if f.cfg == nil {
		f.fail(x.Pos(), "label address outside a function")
		return 0
	}
	return f.cfg.LabelIDs[x.Label]
}

// ref lowers a use of a variable or function as a value.
func (f *fgen) ref(x *ir.Ref) target.Expr {
	switch o := x.Obj.(type) {
	case *ir.VarDecl:
		if name, ok := f.localName(o); ok {
			f.read[o] = true
			return target.Primary(name)
		}
		return target.Primary(f.global(o))
	case *ir.FuncDecl:
		return target.Primary(f.funcRef(o, true))
	}
	return f.fail(x.Pos(), "reference to %T", x.Obj)
}

// localName returns the Go name of a parameter or automatic variable.
func (f *fgen) localName(v *ir.VarDecl) (string, bool) {
	if f.locals == nil {
		return "", false
	}
	name, ok := f.locals.names[v]
	return name, ok
}

// global returns the Go name of a variable with static storage. Globals
// the unit does not define are recorded as externs.
func (g *gen) global(v *ir.VarDecl) string {
	name := g.names.Object(v)
	if !v.Local && !v.Defined {
		g.externVar(v, name)
	}
	return name
}

// funcRef returns the Go name of a function. Functions the unit only
// declares are recorded as externs; value reports whether the function
// is used other than by a direct call.
func (f *fgen) funcRef(fn *ir.FuncDecl, value bool) string {
	name := f.names.Object(fn)
	if fn.Body == nil {
		ft := f.g.FuncOf(fn.Type)
		if value && ft != nil && (ft.Variadic || ft.NoProto) {
			f.fail(fn.Pos(), "address of external function %s with variable arguments", fn.Name)
		}
		f.externFunc(fn, name)
	}
	return name
}

func (f *fgen) unary(x *ir.Unary) target.Expr {
	switch x.Op {
	case ir.Neg:
		return target.Unary("-", f.expr(x.X))
	case ir.Plus:
		return f.expr(x.X)
	case ir.BitNot:
		return target.Unary("^", f.expr(x.X))
	case ir.Not:
		return f.boolValue(target.Not(f.cond(x.X)), x.Type())
	case ir.Deref:
		if f.g.IsFunc(x.Type()) {
			return f.expr(x.X)
		}
		return f.load(f.lvalue(x))
	case ir.Addr:
		return f.addr(x.X, x.Type())
	}
	body, res := f.incDec(x, true)
	return target.Func(f.goType(x.Type()), body, res)
}

// boolValue converts a Go condition to the int a C comparison yields.
func (f *fgen) boolValue(b target.Expr, t types.ID) target.Expr {
	if b.Text == "true" {
		return target.Lit("1")
	}
	if b.Text == "false" {
		return goZero
	}
	return target.Call(target.Primaryf("bool2int[%s]", f.goType(t)), b)
}

// cond lowers x as a Go condition.
func (f *fgen) cond(x ir.Expr) target.Expr {
	if c, ok := f.fold(x); ok {
		return target.Primary(strconv.FormatBool(!c.zero()))
	}
	switch x := x.(type) {
	case *ir.Binary:
		switch {
		case x.Op.IsComparison():
			return f.compare(x)
		case x.Op == ir.LAnd:
			return target.Binary(f.cond(x.X), "&&", f.cond(x.Y))
		case x.Op == ir.LOr:
			return target.Binary(f.cond(x.X), "||", f.cond(x.Y))
		case x.Op == ir.Comma:
			return target.Func("bool", f.stmts(x.X), f.cond(x.Y))
		}
	case *ir.Unary:
		if x.Op == ir.Not {
			return target.Not(f.cond(x.X))
		}
	case *ir.Cast:
		switch x.Kind {
		case ir.IntegralToBool, ir.FloatToBool, ir.PointerToBool, ir.NoOp:
			return f.cond(x.X)
		case ir.IntegralCast, ir.IntegralToFloat:
			if f.boolValued(x.X) {
				return f.cond(x.X)
			}
		}
	}
	return f.truth(x)
}

// boolValued reports whether x always yields 0 or 1.
func (f *fgen) boolValued(x ir.Expr) bool {
	switch x := x.(type) {
	case *ir.Binary:
		return x.Op.IsComparison() || x.Op.IsLogical()
	case *ir.Unary:
		return x.Op == ir.Not
	case *ir.Cast:
		return x.Kind == ir.IntegralToBool || x.Kind == ir.FloatToBool || x.Kind == ir.PointerToBool
	}
	return false
}

// truth compares a scalar against zero.
func (f *fgen) truth(x ir.Expr) target.Expr {
	v := f.expr(x)
	if f.g.IsPointer(x.Type()) || f.g.IsFunc(x.Type()) {
		return target.Binary(v, "!=", goNil)
	}
	return target.Binary(v, "!=", goZero)
}

func (f *fgen) compare(x *ir.Binary) target.Expr {
	op := x.Op.String()
	xt, yt := x.X.Type(), x.Y.Type()
	if !f.g.IsPointer(xt) && !f.g.IsPointer(yt) {
		return target.Binary(f.expr(x.X), op, f.expr(x.Y))
	}
	a, b := f.expr(x.X), f.expr(x.Y)
	if x.Op == ir.Eq || x.Op == ir.Ne {
		if a == goNil || b == goNil {
			return target.Binary(a, op, b)
		}
		if !f.g.IsFuncPointer(xt) && !f.g.IsFuncPointer(yt) && f.sameGoType(xt, yt) {
			return target.Binary(a, op, b)
		}
	}
	return target.Binary(f.address(a, xt), op, f.address(b, yt))
}

// address converts a pointer value to uintptr.
func (f *fgen) address(v target.Expr, t types.ID) target.Expr {
	switch {
	case v == goNil:
		return goZero
	case f.g.IsFuncPointer(t) || f.g.IsFunc(t):
		return target.Call(target.Primary("reinterpret[uintptr]"), v)
	case !f.g.IsPointer(t):
		return target.Conv("uintptr", v)
	case f.goType(t) == "unsafe.Pointer":
		return target.Conv("uintptr", v)
	}
	return target.Conv("uintptr", target.Conv("unsafe.Pointer", v))
}

func (f *fgen) binary(x *ir.Binary) target.Expr {
	switch {
	case x.Op.IsComparison(), x.Op.IsLogical():
		return f.boolValue(f.cond(x), x.Type())
	case x.Op == ir.Comma:
		if f.g.IsVoid(x.Type()) {
			return target.Func("", append(f.stmts(x.X), f.stmts(x.Y)...), target.Expr{})
		}
		return target.Func(f.goType(x.Type()), f.stmts(x.X), f.expr(x.Y))
	}
	xt, yt := x.X.Type(), x.Y.Type()
	switch {
	case f.g.IsPointer(xt) && f.g.IsPointer(yt) && x.Op == ir.Sub:
		return f.ptrDiff(x)
	case f.g.IsPointer(xt) && (x.Op == ir.Add || x.Op == ir.Sub):
		return f.ptrOffset(f.expr(x.X), xt, x.Y, x.Op == ir.Sub)
	case f.g.IsPointer(yt) && x.Op == ir.Add:
		return f.ptrOffset(f.expr(x.Y), yt, x.X, false)
	}
	a, b := f.expr(x.X), f.expr(x.Y)
	if x.Op == ir.Shl || x.Op == ir.Shr {
		if c, ok := f.fold(x.X); ok {
			a = f.literal(c, xt, true)
		}
	}
	return target.Binary(a, x.Op.String(), b)
}

// elemSize returns the size pointer arithmetic on t scales by. Arithmetic
// on void pointers counts bytes, as in GNU C.
func (f *fgen) elemSize(t types.ID) int64 {
	elem := f.g.Elem(t)
	if f.g.IsVoid(elem) || f.g.IsFunc(elem) {
		return 1
	}
	return f.sizes.Sizeof(elem)
}

// ptrOffset returns p + i or p - i for a pointer p of type pt.
func (f *fgen) ptrOffset(p target.Expr, pt types.ID, i ir.Expr, neg bool) target.Expr {
	if f.g.IsFuncPointer(pt) {
		return f.fail(i.Pos(), "arithmetic on a function pointer")
	}
	size := f.elemSize(pt)
	if c, ok := f.fold(i); ok {
		n := int64(c.bits)
		if f.isUnsigned(i.Type()) && f.bits(i.Type()) < 64 {
			n = int64(c.bits & (1<<f.bits(i.Type()) - 1))
		}
		if neg {
			n = -n
		}
		return f.addPtr(p, pt, target.Lit(strconv.FormatInt(n*size, 10)))
	}
	off := target.Conv("int", f.expr(i))
	if size != 1 {
		off = target.Binary(off, "*", target.Lit(strconv.FormatInt(size, 10)))
	}
	if neg {
		off = target.Unary("-", off)
	}
	return f.addPtr(p, pt, off)
}

// ptrStep returns p advanced by n elements.
func (f *fgen) ptrStep(p target.Expr, pt types.ID, n int64) target.Expr {
	return f.addPtr(p, pt, target.Lit(strconv.FormatInt(n*f.elemSize(pt), 10)))
}

func (f *fgen) addPtr(p target.Expr, pt types.ID, off target.Expr) target.Expr {
	if off.Text == "0" {
		return p
	}
	gt := f.goType(pt)
	if gt == "unsafe.Pointer" {
		return target.Call(target.Primary("unsafe.Add"), p, off)
	}
	return target.Conv(gt, target.Call(target.Primary("unsafe.Add"), target.Conv("unsafe.Pointer", p), off))
}

func (f *fgen) ptrDiff(x *ir.Binary) target.Expr {
	size := f.elemSize(x.X.Type())
	a := target.Conv("int", f.address(f.expr(x.X), x.X.Type()))
	b := target.Conv("int", f.address(f.expr(x.Y), x.Y.Type()))
	d := target.Binary(a, "-", b)
	if size != 1 {
		d = target.Binary(d, "/", target.Lit(strconv.FormatInt(size, 10)))
	}
	return target.Conv(f.goType(x.Type()), d)
}

// condValue lowers the conditional operator in value context.
func (f *fgen) condValue(x *ir.Cond) target.Expr {
	t := f.goType(x.Type())
	if t == "" {
		return target.Func("", f.stmts(x), target.Expr{})
	}
	if x.Then == nil {
		tmp := f.locals.temp()
		v := f.expr(x.Cond)
		var test target.Expr
		if f.g.IsPointer(x.Cond.Type()) {
			test = target.Binary(target.Primary(tmp), "!=", goNil)
		} else {
			test = target.Binary(target.Primary(tmp), "!=", goZero)
		}
		body := []string{
			fmt.Sprintf("if %s := %s; %s {", tmp, f.typed(v, x.Cond.Type()).Text, test.Text),
			"return " + f.convert(target.Primary(tmp), x.Cond.Type(), x.Type()).Text,
			"}",
		}
		return target.Func(t, body, f.expr(x.Else))
	}
	if c, ok := f.fold(x.Cond); ok {
		if c.zero() {
			return f.expr(x.Else)
		}
		return f.expr(x.Then)
	}
	body := []string{
		"if " + f.cond(x.Cond).Text + " {",
		"return " + f.expr(x.Then).Text,
		"}",
	}
	return target.Func(t, body, f.expr(x.Else))
}

// typed makes a literal carry its C type, for use in := declarations.
func (f *fgen) typed(v target.Expr, t types.ID) target.Expr {
	if v == goNil {
		return target.Conv(f.goType(t), v)
	}
	if _, err := strconv.ParseFloat(strings.TrimPrefix(v.Text, "-"), 64); err == nil {
		return target.Conv(f.goType(t), v)
	}
	return v
}

// convert converts an arithmetic value between C types.
func (f *fgen) convert(v target.Expr, from, to types.ID) target.Expr {
	if f.sameGoType(from, to) {
		return v
	}
	if f.g.IsBool(to) && !f.g.IsBool(from) {
		if f.g.IsPointer(from) {
			return f.boolValue(target.Binary(v, "!=", goNil), to)
		}
		return f.boolValue(target.Binary(v, "!=", goZero), to)
	}
	return target.Conv(f.goType(to), v)
}

func (f *fgen) cast(x *ir.Cast) target.Expr {
	to, from := x.Type(), x.X.Type()
	switch x.Kind {
	case ir.NoOp, ir.FuncDecay:
		v := f.expr(x.X)
		if f.g.IsArithmetic(to) && !f.sameGoType(from, to) {
			return target.Conv(f.goType(to), v)
		}
		return v
	case ir.ToVoid:
		return f.expr(x.X)
	case ir.IntegralCast, ir.IntegralToFloat, ir.FloatToIntegral, ir.FloatCast:
		return f.convert(f.expr(x.X), from, to)
	case ir.IntegralToBool, ir.FloatToBool, ir.PointerToBool:
		return f.boolValue(f.cond(x.X), to)
	case ir.IntegralToPointer:
		v := target.Conv("uintptr", f.expr(x.X))
		switch gt := f.goType(to); {
		case f.g.IsFuncPointer(to):
			return target.Call(target.Primaryf("reinterpret[%s]", gt), v)
		case gt == "unsafe.Pointer":
			return target.Conv(gt, v)
		default:
			return target.Conv(gt, target.Conv("unsafe.Pointer", v))
		}
	case ir.PointerToIntegral:
		return target.Conv(f.goType(to), f.address(f.expr(x.X), from))
	case ir.NullToPointer:
		return goNil
	case ir.BitCast:
		return f.pointerConv(f.expr(x.X), from, to)
	case ir.ArrayDecay:
		return f.decay(x)
	case ir.ToUnion:
		return f.toUnion(x)
	}
	return f.fail(x.Pos(), "%s conversion", x.Kind)
}

// pointerConv converts between pointer types.
func (f *fgen) pointerConv(v target.Expr, from, to types.ID) target.Expr {
	ft, tt := f.goType(from), f.goType(to)
	switch {
	case ft == tt || v == goNil:
		return v
	case f.g.IsFuncPointer(from) || f.g.IsFuncPointer(to):
		return target.Call(target.Primaryf("reinterpret[%s]", tt), v)
	case tt == "unsafe.Pointer":
		return target.Conv(tt, v)
	case ft == "unsafe.Pointer":
		return target.Conv(tt, v)
	}
	return target.Conv(tt, target.Conv("unsafe.Pointer", v))
}

// decay returns a pointer to the first element of an array.
func (f *fgen) decay(x *ir.Cast) target.Expr {
	pt := x.Type()
	gt := f.goType(pt)
	switch a := x.X.(type) {
	case *ir.StringLit:
		return target.AddrOf(target.Index(target.Primary(f.stringVar(a)), goZero))
	case *ir.Member:
		if _, fr, ok := f.member(a); ok && fr.kind == fieldAddr {
			base, _ := f.memberBase(a)
			return target.Call(target.Sel(base, fr.name))
		}
	case *ir.Unary:
		if a.Op == ir.Deref {
			return f.pointerConv(f.expr(a.X), a.X.Type(), pt)
		}
	}
	at, _ := f.g.Underlying(x.X.Type()).(*types.Array)
	direct := at != nil && !at.Unsized && !at.VLA && at.Len > 0 && f.goType(at.Elem) == strings.TrimPrefix(gt, "*")
	if !f.addressable(x.X) {
		tmp := f.locals.temp()
		ret := target.AddrOf(target.Index(target.Primary(tmp), goZero))
		if !direct {
			ret = target.Conv(gt, target.Conv("unsafe.Pointer", target.AddrOf(target.Primary(tmp))))
		}
		return target.Func(gt, []string{tmp + " := " + f.expr(x.X).Text}, ret)
	}
	lv := f.lvalue(x.X)
	if direct && lv.bits == nil {
		return target.AddrOf(target.Index(f.use(lv), goZero))
	}
	return target.Conv(gt, target.Conv("unsafe.Pointer", f.addrOf(lv)))
}

// toUnion lowers the GNU cast of a member value to its union type.
func (f *fgen) toUnion(x *ir.Cast) target.Expr {
	t := x.Type()
	rec := f.g.Record(f.g.Resolve(t))
	if rec == nil {
		return f.fail(x.Pos(), "cast to %s", f.g.String(t))
	}
	tmp := f.locals.temp()
	gt := f.goType(t)
	store := fmt.Sprintf("*(*%s)(unsafe.Pointer(&%s)) = %s", f.goType(x.X.Type()), tmp, f.expr(x.X).Text)
	return target.Func(gt, []string{"var " + tmp + " " + gt, store}, target.Primary(tmp))
}

// addr lowers &x, where pt is the type of the result.
func (f *fgen) addr(x ir.Expr, pt types.ID) target.Expr {
	switch x := x.(type) {
	case *ir.Ref:
		if fn, ok := x.Obj.(*ir.FuncDecl); ok {
			return target.Primary(f.funcRef(fn, true))
		}
	case *ir.Unary:
		if x.Op == ir.Deref {
			return f.pointerConv(f.expr(x.X), x.X.Type(), pt)
		}
	case *ir.Index:
		return f.pointerConv(f.ptrOffset(f.expr(x.X), x.X.Type(), x.I, false), x.X.Type(), pt)
	case *ir.Member:
		if _, fr, ok := f.member(x); ok && fr.kind == fieldAddr {
			base, _ := f.memberBase(x)
			return target.Conv(f.goType(pt), target.Conv("unsafe.Pointer", target.Call(target.Sel(base, fr.name))))
		}
	}
	lv := f.lvalue(x)
	if lv.bits != nil {
		return f.fail(x.Pos(), "address of a bitfield")
	}
	return f.addrOf(lv)
}

// call lowers a function call.
func (f *fgen) call(x *ir.Call) target.Expr {
	ft := f.g.FuncOf(x.Fun.Type())
	if ft == nil {
		return f.fail(x.Pos(), "call of %s", f.g.String(x.Fun.Type()))
	}
	args := make([]target.Expr, len(x.Args))
	for i, a := range x.Args {
		args[i] = f.expr(a)
		if i >= len(ft.Params) {
			args[i] = f.typed(args[i], a.Type())
		}
	}
	extra := len(x.Args) != len(ft.Params)
	if fn := callee(x.Fun); fn != nil {
		switch {
		case x.Site != nil:
			f.funcRef(fn, false)
			return target.Call(target.Primary(f.siteWrapper(x, fn, ft)), args...)
		case fn.Body == nil && (ft.Variadic || ft.NoProto && extra):
			return target.Call(target.Primary(f.shim(fn, ft, x.Args)), args...)
		case extra:
			return f.fail(x.Pos(), "call of %s with %d arguments for %d parameters", fn.Name, len(x.Args), len(ft.Params))
		}
		return target.Call(target.Primary(f.funcRef(fn, false)), args...)
	}
	if extra {
		return f.fail(x.Pos(), "call through a function pointer with variable arguments")
	}
	return target.Call(f.expr(x.Fun), args...)
}

// callee returns the function called directly by fun, or nil.
func callee(fun ir.Expr) *ir.FuncDecl {
	for {
		switch x := fun.(type) {
		case *ir.Cast:
			if x.Kind != ir.FuncDecay && x.Kind != ir.NoOp {
				return nil
			}
			fun = x.X
		case *ir.Unary:
			if x.Op != ir.Deref {
				return nil
			}
			fun = x.X
		case *ir.Ref:
			fn, _ := x.Obj.(*ir.FuncDecl)
			return fn
		default:
			return nil
		}
	}
}

// member returns the representation of the member x selects.
func (f *fgen) member(x *ir.Member) (*recordRepr, fieldRepr, bool) {
	r := f.record(x.Record)
	if r.err != nil {
		f.failErr(x.Pos(), r.err)
		return r, fieldRepr{}, false
	}
	if x.Index < 0 || x.Index >= len(r.fields) {
		f.fail(x.Pos(), "member %s out of range", x.Name)
		return r, fieldRepr{}, false
	}
	return r, r.fields[x.Index], true
}

// memberBase returns the record operand of a member access and whether it
// is a pointer.
func (f *fgen) memberBase(x *ir.Member) (target.Expr, bool) {
	if x.Arrow {
		return f.expr(x.X), true
	}
	if !f.addressable(x.X) {
		return f.expr(x.X), false
	}
	lv := f.lvalue(x.X)
	if lv.ptr.Text != "" {
		return lv.ptr, true
	}
	return f.use(lv), false
}

// memberValue lowers a member read.
func (f *fgen) memberValue(x *ir.Member) target.Expr {
	if x.Arrow || f.addressable(x.X) {
		return f.load(f.lvalue(x))
	}
	r, fr, ok := f.member(x)
	if !ok {
		return goZero
	}
	v := f.expr(x.X)
	switch fr.kind {
	case fieldDirect:
		return target.Sel(v, fr.name)
	case fieldBits:
		return target.Call(target.Sel(v, "get_"+fr.name))
	}
	tmp := f.locals.temp()
	res := f.load(f.memberAccess(r, fr, target.Primary(tmp), false, x.Type()))
	return target.Func(f.goType(x.Type()), []string{tmp + " := " + v.Text}, res)
}

// initValue lowers the initializer x of an object of type t.
func (f *fgen) initValue(x ir.Expr, t types.ID) target.Expr {
	switch x := x.(type) {
	case *ir.StringLit:
		if a, ok := f.g.Underlying(t).(*types.Array); ok {
			return target.Primary(stringInit(x.Value, x.Width, f.goType(a.Elem), a.Len))
		}
	case *ir.InitList:
		return f.initList(x, t)
	case *ir.Zero:
		return target.Primary(f.zero(t))
	case *ir.CompoundLit:
		return f.initValue(x.Init, t)
	}
	return f.expr(x)
}

func isZero(x ir.Expr) bool {
	_, ok := x.(*ir.Zero)
	return ok
}

func (f *fgen) initList(x *ir.InitList, t types.ID) target.Expr {
	gt := f.goType(t)
	switch u := f.g.Underlying(t).(type) {
	case *types.Array:
		n := len(x.Elems)
		for n > 0 && isZero(x.Elems[n-1]) {
			n--
		}
		parts := make([]string, n)
		for i, e := range x.Elems[:n] {
			parts[i] = f.initValue(e, u.Elem).Text
		}
		lit := target.Primary(gt + "{" + strings.Join(parts, ", ") + "}")
		if x.Filler == nil || isZero(x.Filler) || int64(len(x.Elems)) >= u.Len {
			return lit
		}
		tmp, i := f.locals.temp(), f.locals.temp()
		fill := f.initValue(x.Filler, u.Elem)
		body := []string{
			tmp + " := " + lit.Text,
			fmt.Sprintf("for %s := %d; %s < %d; %s++ {", i, len(x.Elems), i, u.Len, i),
			fmt.Sprintf("%s[%s] = %s", tmp, i, fill.Text),
			"}",
		}
		return target.Func(gt, body, target.Primary(tmp))

	case *types.Record:
		r := f.record(t)
		if r.err != nil {
			f.failErr(x.Pos(), r.err)
			return target.Primary(gt + "{}")
		}
		type member struct {
			fr fieldRepr
			v  ir.Expr
		}
		var ms []member
		keyed := true
		for i, e := range x.Elems {
			idx := i
			if u.Union {
				idx = x.Field
			}
			if isZero(e) || idx >= len(r.fields) || r.fields[idx].kind == fieldNone {
				continue
			}
			fr := r.fields[idx]
			ms = append(ms, member{fr, e})
			if fr.kind != fieldDirect {
				keyed = false
			}
		}
		if keyed {
			parts := make([]string, len(ms))
			for i, m := range ms {
				parts[i] = m.fr.name + ": " + f.initValue(m.v, m.fr.typ).Text
			}
			return target.Primary(gt + "{" + strings.Join(parts, ", ") + "}")
		}
		tmp := f.locals.temp()
		body := []string{"var " + tmp + " " + gt}
		for _, m := range ms {
			lv := f.memberAccess(r, m.fr, target.Primary(tmp), false, m.fr.typ)
			body = append(body, f.store(lv, f.initValue(m.v, m.fr.typ)))
		}
		return target.Func(gt, body, target.Primary(tmp))
	}
	if len(x.Elems) > 0 {
		return f.initValue(x.Elems[0], t)
	}
	return target.Primary(f.zero(t))
}
