package cfg_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you-not-fish/cmigrate/internal/cfg"
	"github.com/you-not-fish/cmigrate/internal/cfg/cfgtest"
	"github.com/you-not-fish/cmigrate/internal/diag"
	"github.com/you-not-fish/cmigrate/internal/ir"
	"github.com/you-not-fish/cmigrate/internal/syntax"
)

// Helpers building IR by hand. Types are irrelevant to graph shape.

func v(name string) *ir.VarDecl { return ir.NewVarDecl(syntax.Pos{}, name, 0) }

func ref(d *ir.VarDecl) ir.Expr { return ir.NewRef(syntax.Pos{}, d) }

func lit(n int64) ir.Expr { return ir.NewIntLit(syntax.Pos{}, 0, uint64(n)) }

func es(x ir.Expr) ir.Stmt { return &ir.ExprStmt{X: x} }

func call(d *ir.VarDecl) ir.Stmt { return es(ref(d)) }

func blk(list ...ir.Stmt) *ir.Block { return &ir.Block{List: list} }

func lt(x, y ir.Expr) ir.Expr { return &ir.Binary{Op: ir.Lt, X: x, Y: y} }

func fn(name string, labels []*ir.Label, body ...ir.Stmt) *ir.FuncDecl {
	f := ir.NewFuncDecl(syntax.Pos{}, name, 0)
	f.Labels = labels
	f.Body = blk(body...)
	return f
}

func build(t *testing.T, f *ir.FuncDecl) *cfg.Func {
	t.Helper()
	g, err := cfg.Build(f)
	require.NoError(t, err)
	require.NoError(t, cfg.Verify(g), cfg.Sprint(g))
	return g
}

func TestBuildWhile(t *testing.T) {
	s, i, n, a := v("s"), v("i"), v("n"), v("a")
	f := fn("sum", nil,
		es(&ir.Assign{LHS: ref(s), RHS: lit(0)}),
		es(&ir.Assign{LHS: ref(i), RHS: lit(0)}),
		&ir.While{
			Cond: lt(ref(i), ref(n)),
			Body: blk(
				es(&ir.Assign{Op: ir.Add, LHS: ref(s), RHS: &ir.Index{X: ref(a), I: ref(i)}}),
				es(&ir.Unary{Op: ir.PostInc, X: ref(i)}),
			),
		},
		&ir.Return{X: ref(s)},
	)
	g := build(t, f)
	want := `func sum:
  b0: (entry)
    s = 0
    i = 0
    Plain -> b1
  b1: <- b0 b2
    If i < n -> b2 b3
  b2: <- b1
    s += a[i]
    i++
    Plain -> b1
  b3: <- b1
    Return s
`
	assert.Equal(t, want, cfg.Sprint(g))
	assert.True(t, cfg.Reducible(g))

	trace, done := cfg.Walk(g, cfgtest.Decisions(0, 0, 0, 1), 100)
	assert.True(t, done)
	assert.Equal(t, []int{0, 1, 2, 1, 2, 1, 2, 1, 3}, trace)
}

func TestBuildForContinue(t *testing.T) {
	i, n, p, q := v("i"), v("n"), v("p"), v("q")
	f := fn("f", nil,
		&ir.For{
			Init: es(&ir.Assign{LHS: ref(i), RHS: lit(0)}),
			Cond: lt(ref(i), ref(n)),
			Post: &ir.Unary{Op: ir.PostInc, X: ref(i)},
			Body: blk(
				&ir.If{Cond: ref(p), Then: &ir.Continue{}},
				call(q),
			),
		},
	)
	g := build(t, f)
	// entry, header, body (if p), post, exit, q
	require.Len(t, g.Blocks, 6)
	post := g.Blocks[3]
	require.Len(t, post.Stmts, 1)
	assert.Equal(t, "i++", ir.ExprString(post.Stmts[0].(*ir.ExprStmt).X))
	assert.ElementsMatch(t, []*cfg.Block{g.Blocks[2], g.Blocks[5]}, post.Preds)

	// Take the loop twice, continuing the first time.
	trace, done := cfg.Walk(g, cfgtest.Decisions(0, 0, 0, 1, 1), 100)
	assert.True(t, done)
	assert.Equal(t, []int{0, 1, 2, 3, 1, 2, 5, 3, 1, 4}, trace)
}

func TestBuildSwitch(t *testing.T) {
	x, a, b, c := v("x"), v("a"), v("b"), v("c")
	f := fn("f", nil,
		&ir.Switch{
			Tag: ref(x),
			Body: blk(
				&ir.Case{Lo: 1, Hi: 1, Body: call(a)},
				&ir.Case{Lo: 2, Hi: 4, Range: true, Body: call(b)},
				&ir.Break{},
				&ir.Default{Body: call(c)},
			),
		},
	)
	g := build(t, f)
	head := g.Entry
	require.Equal(t, cfg.BlockSwitch, head.Kind)
	assert.Equal(t, []cfg.Case{{Lo: 1, Hi: 1}, {Lo: 2, Hi: 4}}, head.Cases)
	require.Len(t, head.Succs, 3)
	caseA, caseB, def := head.Succs[0], head.Succs[1], head.Succs[2]
	assert.Equal(t, []*cfg.Block{caseB}, caseA.Succs, "case 1 falls through")
	assert.Equal(t, caseB.Succs, def.Succs, "break and default reach the exit")
	assert.Equal(t, cfg.BlockReturn, def.Succs[0].Kind)
}

func TestBuildSwitchNoDefault(t *testing.T) {
	x, a := v("x"), v("a")
	f := fn("f", nil,
		&ir.Switch{Tag: ref(x), Body: blk(&ir.Case{Lo: 7, Hi: 7, Body: call(a)})},
		&ir.Return{},
	)
	g := build(t, f)
	head := g.Entry
	require.Len(t, head.Succs, 2)
	assert.Equal(t, head.Succs[0].Succs[0], head.Default())
}

func TestBuildIrreducibleGoto(t *testing.T) {
	c, d, x, y := v("c"), v("d"), v("x"), v("y")
	l1, l2 := &ir.Label{Name: "L1", Defined: true, Used: true}, &ir.Label{Name: "L2", Defined: true, Used: true}
	f := fn("f", []*ir.Label{l1, l2},
		&ir.If{Cond: ref(c), Then: &ir.Goto{Label: l2}},
		&ir.Labeled{Label: l1, Body: call(x)},
		&ir.Labeled{Label: l2, Body: call(y)},
		&ir.If{Cond: ref(d), Then: &ir.Goto{Label: l1}},
		&ir.Return{},
	)
	g := build(t, f)
	assert.False(t, cfg.Reducible(g))
	assert.Equal(t, "L1", g.Labels[l1].Label.Name)
	assert.Equal(t, "L2", g.Labels[l2].Label.Name)
	assert.Contains(t, g.Labels[l2].Preds, g.Labels[l1])
}

func TestBuildIndirectGoto(t *testing.T) {
	p, x, y := v("p"), v("x"), v("y")
	l1 := &ir.Label{Name: "A", Defined: true, Addressed: true}
	l2 := &ir.Label{Name: "B", Defined: true}
	l3 := &ir.Label{Name: "C", Defined: true, Addressed: true}
	f := fn("f", []*ir.Label{l1, l2, l3},
		&ir.IndirectGoto{X: ref(p)},
		&ir.Labeled{Label: l1, Body: call(x)},
		&ir.Return{},
		&ir.Labeled{Label: l2, Body: call(y)},
		&ir.Labeled{Label: l3, Body: &ir.Return{}},
	)
	g := build(t, f)
	assert.Equal(t, map[*ir.Label]int{l1: 1, l3: 2}, g.LabelIDs)
	head := g.Entry
	require.Equal(t, cfg.BlockSwitch, head.Kind)
	assert.Equal(t, []cfg.Case{{Lo: 1, Hi: 1}, {Lo: 2, Hi: 2}}, head.Cases)
	assert.Same(t, g.Labels[l1], head.Succs[0])
	assert.Same(t, g.Labels[l3], head.Succs[1])
	assert.Equal(t, cfg.BlockUnreachable, head.Default().Kind)
	_, ok := g.Labels[l2]
	assert.False(t, ok, "label B is unreachable")
}

func TestBuildErrors(t *testing.T) {
	undefined := &ir.Label{Name: "out", Used: true}
	tests := []struct {
		name string
		f    *ir.FuncDecl
	}{
		{"undefined label", fn("f", []*ir.Label{undefined}, &ir.Goto{Label: undefined})},
		{"indirect goto without targets", fn("f", nil, &ir.IndirectGoto{X: lit(0)})},
		{"break outside loop", fn("f", nil, &ir.Break{})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cfg.Build(tt.f)
			require.Error(t, err)
			kind, ok := diag.KindOf(err)
			assert.True(t, ok)
			assert.Equal(t, diag.UnstructurableControlFlow, kind)
		})
	}
}

func TestBuildDeadCode(t *testing.T) {
	x := v("x")
	f := fn("f", nil, &ir.Return{}, call(x))
	g := build(t, f)
	require.Len(t, g.Blocks, 1)
	assert.Empty(t, g.Entry.Stmts)
}
