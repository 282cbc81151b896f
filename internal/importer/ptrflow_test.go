package importer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/you-not-fish/cmigrate/internal/abi"
	"github.com/you-not-fish/cmigrate/internal/ir"
	"github.com/you-not-fish/cmigrate/internal/syntax"
	"github.com/you-not-fish/cmigrate/internal/types"
)

var nopos syntax.Pos

type settable interface {
	ir.Expr
	SetType(types.ID)
}

func withType[T settable](x T, t types.ID) T {
	x.SetType(t)
	return x
}

// flowFunc builds a function with the given parameters and statements.
type flowFunc struct {
	sizes *types.Sizes
	g     *types.Graph

	intT, uintT, charT, voidT types.ID
}

func newFlowFunc(t *testing.T) *flowFunc {
	t.Helper()
	tgt, err := abi.Lookup(abi.DefaultTarget)
	require.NoError(t, err)
	g := types.NewGraph()
	return &flowFunc{
		sizes: types.NewSizes(g, tgt),
		g:     g,
		intT:  g.Basic(types.Int),
		uintT: g.Basic(types.UInt),
		charT: g.Basic(types.Char),
		voidT: g.Basic(types.Void),
	}
}

func (b *flowFunc) param(name string, t types.ID) *ir.VarDecl {
	v := ir.NewVarDecl(nopos, name, t)
	v.Local, v.Param = true, true
	return v
}

func (b *flowFunc) local(name string, t types.ID, init ir.Expr) ir.Stmt {
	v := ir.NewVarDecl(nopos, name, t)
	v.Local, v.Init = true, init
	return &ir.DeclStmt{Vars: []*ir.VarDecl{v}}
}

func (b *flowFunc) facts(params []*ir.VarDecl, body ...ir.Stmt) []ir.PtrFacts {
	pts := make([]types.ID, len(params))
	for i, p := range params {
		pts[i] = p.Type
	}
	f := ir.NewFuncDecl(nopos, "f", b.g.NewFunc(b.voidT, pts, false, false))
	f.Params = params
	f.Body = &ir.Block{List: body}
	return pointerFacts(b.sizes, f)
}

func ref(obj ir.Object) ir.Expr {
	return ir.NewRef(nopos, obj)
}

func deref(x ir.Expr, t types.ID) ir.Expr {
	return withType(&ir.Unary{Op: ir.Deref, X: x}, t)
}

func expr(x ir.Expr) ir.Stmt {
	return &ir.ExprStmt{X: x}
}

func TestPointerFactsDirection(t *testing.T) {
	b := newFlowFunc(t)
	intp := b.g.NewPointer(b.intT, false)
	lit := func(v int64) ir.Expr { return ir.NewIntLit(nopos, b.intT, uint64(v)) }

	up, n := b.param("up", intp), b.param("n", b.uintT)
	down := b.param("down", intp)
	signed := b.param("signed", intp)
	i := b.param("i", b.intT)
	inc := b.param("inc", intp)
	dec := b.param("dec", intp)

	store := &ir.Assign{LHS: withType(&ir.Index{X: ref(up), I: ref(n)}, b.intT), RHS: lit(0), Compute: b.intT}
	got := b.facts([]*ir.VarDecl{up, n, down, signed, i, inc, dec},
		expr(withType(store, b.intT)),
		expr(withType(&ir.Index{X: ref(up), I: lit(2)}, b.intT)),
		expr(deref(withType(&ir.Binary{Op: ir.Sub, X: ref(down), Y: lit(1)}, intp), b.intT)),
		expr(deref(withType(&ir.Binary{Op: ir.Add, X: ref(down), Y: withType(&ir.Unary{Op: ir.Neg, X: lit(3)}, b.intT)}, intp), b.intT)),
		expr(withType(&ir.Index{X: ref(signed), I: ref(i)}, b.intT)),
		expr(withType(&ir.Unary{Op: ir.PostInc, X: ref(inc)}, intp)),
		expr(withType(&ir.Unary{Op: ir.PreDec, X: ref(dec)}, intp)),
	)
	want := []ir.PtrFacts{
		{Store: true, Load: true, PosOffset: true},
		{},
		{Load: true, NegOffset: true},
		{Load: true, PosOffset: true, NegOffset: true},
		{},
		{PosOffset: true},
		{NegOffset: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("pointer facts mismatch (-want +got):\n%s", diff)
	}
}

func TestPointerFactsUniqueness(t *testing.T) {
	b := newFlowFunc(t)
	charp := b.g.NewPointer(b.charT, false)
	callee := ir.NewFuncDecl(nopos, "copy", b.g.NewFunc(b.voidT, []types.ID{charp, charp}, false, false))
	call := func(args ...ir.Expr) ir.Stmt {
		return expr(withType(&ir.Call{Fun: ref(callee), Args: args}, b.voidT))
	}

	// char *q = walk; *q; q++;
	walk := b.param("walk", charp)
	q := b.local("q", charp, ref(walk))
	qv := q.(*ir.DeclStmt).Vars[0]

	// char *r = both; *r; *both;
	both := b.param("both", charp)
	r := b.local("r", charp, ref(both))
	rv := r.(*ir.DeclStmt).Vars[0]

	twice := b.param("twice", charp)
	once := b.param("once", charp)

	got := b.facts([]*ir.VarDecl{walk, both, twice, once},
		q,
		expr(deref(ref(qv), b.charT)),
		expr(withType(&ir.Unary{Op: ir.PostInc, X: ref(qv)}, charp)),
		r,
		expr(deref(ref(rv), b.charT)),
		expr(deref(ref(both), b.charT)),
		call(ref(twice), ref(twice)),
		call(ref(once), ref(walk)),
	)
	want := []ir.PtrFacts{
		{Load: true, PosOffset: true, Escape: true},
		{Load: true, NonUnique: true},
		{Escape: true, NonUnique: true},
		{Escape: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("pointer facts mismatch (-want +got):\n%s", diff)
	}
}
