package codegen

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	gotypes "go/types"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you-not-fish/cmigrate/internal/abi"
	"github.com/you-not-fish/cmigrate/internal/cfg"
	"github.com/you-not-fish/cmigrate/internal/cfg/cfgtest"
	"github.com/you-not-fish/cmigrate/internal/ir"
	"github.com/you-not-fish/cmigrate/internal/relooper"
	"github.com/you-not-fish/cmigrate/internal/syntax"
	"github.com/you-not-fish/cmigrate/internal/types"
)

// unitBuilder builds small units by hand.
type unitBuilder struct {
	t    *testing.T
	unit *ir.Unit
	g    *types.Graph
	conf *Config

	int32T, uint32T, charT, voidT types.ID
}

func newUnit(t *testing.T) *unitBuilder {
	t.Helper()
	tgt, err := abi.Lookup(abi.DefaultTarget)
	require.NoError(t, err)
	g := types.NewGraph()
	return &unitBuilder{
		t:       t,
		unit:    &ir.Unit{Name: "main", File: "main.c", Graph: g, Sizes: types.NewSizes(g, tgt)},
		g:       g,
		int32T:  g.Basic(types.Int),
		uint32T: g.Basic(types.UInt),
		charT:   g.Basic(types.Char),
		voidT:   g.Basic(types.Void),
	}
}

var nopos syntax.Pos

func (b *unitBuilder) param(name string, t types.ID) *ir.VarDecl {
	v := ir.NewVarDecl(nopos, name, t)
	v.Local, v.Param = true, true
	return v
}

func (b *unitBuilder) local(fn *ir.FuncDecl, name string, t types.ID) *ir.VarDecl {
	v := ir.NewVarDecl(nopos, name, t)
	v.Local = true
	fn.Locals = append(fn.Locals, v)
	return v
}

func (b *unitBuilder) global(name string, t types.ID, init ir.Expr) *ir.VarDecl {
	v := ir.NewVarDecl(nopos, name, t)
	v.Linkage, v.Defined, v.InMain, v.Init = ir.External, true, true, init
	b.unit.Decls = append(b.unit.Decls, v)
	return v
}

// fn declares a function; body nil makes it external.
func (b *unitBuilder) fn(name string, result types.ID, params []*ir.VarDecl, body ...ir.Stmt) *ir.FuncDecl {
	pts := make([]types.ID, len(params))
	for i, p := range params {
		pts[i] = p.Type
	}
	f := ir.NewFuncDecl(nopos, name, b.g.NewFunc(result, pts, false, false))
	f.Params = params
	f.Linkage = ir.External
	f.InMain = true
	if body != nil {
		f.Body = &ir.Block{List: body}
	}
	b.unit.Decls = append(b.unit.Decls, f)
	return f
}

func (b *unitBuilder) lit(n int64) ir.Expr {
	return ir.NewIntLit(nopos, b.int32T, uint64(n))
}

func ref(obj ir.Object) ir.Expr {
	return ir.NewRef(nopos, obj)
}

type typedExpr interface {
	ir.Expr
	SetType(types.ID)
}

func typed[T typedExpr](x T, t types.ID) T {
	x.SetType(t)
	return x
}

func (b *unitBuilder) bin(op ir.BinOp, x, y ir.Expr) ir.Expr {
	t := x.Type()
	if op.IsComparison() || op.IsLogical() {
		t = b.int32T
	}
	return typed(&ir.Binary{Op: op, X: x, Y: y}, t)
}

func (b *unitBuilder) assign(op ir.BinOp, lhs, rhs ir.Expr) ir.Stmt {
	return &ir.ExprStmt{X: typed(&ir.Assign{Op: op, LHS: lhs, RHS: rhs, Compute: lhs.Type()}, lhs.Type())}
}

// generate structures every defined function and generates the unit.
func (b *unitBuilder) generate() *Output {
	b.t.Helper()
	trees := make(map[*ir.FuncDecl]*relooper.Tree)
	for _, f := range b.unit.Funcs() {
		if f.Body == nil {
			continue
		}
		c, err := cfg.Build(f)
		require.NoError(b.t, err)
		tree, err := relooper.Structure(c)
		require.NoError(b.t, err)
		trees[f] = tree
	}
	out, err := Generate(b.unit, trees, b.conf)
	require.NoError(b.t, err)
	return out
}

// typeCheck checks the generated file together with the support file and
// the type declarations, as the assembler would lay them out.
func typeCheck(t *testing.T, out *Output, extra ...string) {
	t.Helper()
	var decls strings.Builder
	for _, d := range out.Types {
		decls.WriteString(d.Text + "\n")
	}
	for _, x := range extra {
		decls.WriteString(x + "\n")
	}
	header := "package main\n\n"
	if PackagesUsed([]byte(decls.String()))["unsafe"] {
		header += "import \"unsafe\"\n\n"
	}

	fset := token.NewFileSet()
	var files []*ast.File
	for name, src := range map[string]string{
		"unit.go":    string(out.Source),
		"support.go": string(Support("main")),
		"types.go":   header + decls.String(),
	} {
		f, err := parser.ParseFile(fset, name, src, 0)
		require.NoError(t, err, src)
		files = append(files, f)
	}
	conf := gotypes.Config{Importer: importer.ForCompiler(fset, "source", nil), FakeImportC: true}
	_, err := conf.Check("main", fset, files, nil)
	require.NoError(t, err, string(out.Source))
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func TestGenerateSum(t *testing.T) {
	b := newUnit(t)
	intp := b.g.NewPointer(b.int32T, false)
	a, n := b.param("a", intp), b.param("n", b.int32T)
	f := b.fn("sum", b.int32T, []*ir.VarDecl{a, n})
	s, i := b.local(f, "s", b.int32T), b.local(f, "i", b.int32T)
	f.Body = &ir.Block{List: []ir.Stmt{
		b.assign(0, ref(s), b.lit(0)),
		b.assign(0, ref(i), b.lit(0)),
		&ir.While{
			Cond: b.bin(ir.Lt, ref(i), ref(n)),
			Body: &ir.Block{List: []ir.Stmt{
				b.assign(ir.Add, ref(s), typed(&ir.Index{X: ref(a), I: ref(i)}, b.int32T)),
				&ir.ExprStmt{X: typed(&ir.Unary{Op: ir.PostInc, X: ref(i)}, b.int32T)},
			}},
		},
		&ir.Return{X: ref(s)},
	}}

	out := b.generate()
	src := squash(string(out.Source))
	assert.Contains(t, src, squash("func sum(a *int32, n int32) int32 {"))
	assert.Contains(t, src, squash("for i < n {"))
	assert.Contains(t, src, squash("s += *(*int32)(unsafe.Add(unsafe.Pointer(a), int(i)*4))"))
	assert.Contains(t, src, squash("i++"))
	assert.Contains(t, src, squash("return s"))
	require.Len(t, out.Funcs, 1)
	assert.False(t, out.Funcs[0].Stub)
	assert.Equal(t, []string{"a", "n"}, out.Funcs[0].Params)
	assert.Empty(t, out.Errors)
	typeCheck(t, out)
}

func TestGenerateBitfields(t *testing.T) {
	b := newUnit(t)
	rec := b.g.NewRecord("S", false, nopos)
	b.g.Complete(rec, []types.Field{
		{Name: "a", Type: b.uint32T, Bitfield: true, Width: 3},
		{Name: "b", Type: b.uint32T, Bitfield: true, Width: 5},
		{Name: "c", Type: b.int32T},
	}, false, 0)
	p := b.param("p", b.g.NewPointer(rec, false))
	member := func(i int, name string, t types.ID) ir.Expr {
		return typed(&ir.Member{X: ref(p), Record: rec, Index: i, Name: name, Arrow: true}, t)
	}
	b.fn("set", b.voidT, []*ir.VarDecl{p},
		b.assign(0, member(1, "b", b.uint32T), typed(ir.NewIntLit(nopos, b.uint32T, 7), b.uint32T)),
		b.assign(ir.Add, member(2, "c", b.int32T), b.lit(1)),
		&ir.Return{},
	)

	out := b.generate()
	src := squash(string(out.Source))
	assert.Contains(t, src, squash("p.set_b(7)"))
	assert.Contains(t, src, squash("p.c += 1"))

	require.Len(t, out.Types, 1)
	d := out.Types[0]
	assert.Equal(t, "S", d.Name)
	assert.Contains(t, d.Text, "_bf0 [1]byte")
	assert.Contains(t, d.Text, "func (r S) get_b() uint32")
	assert.Contains(t, d.Text, "func (r *S) set_b(v uint32)")
	assert.False(t, d.Opaque)
	typeCheck(t, out)
}

func TestGenerateGlobals(t *testing.T) {
	b := newUnit(t)
	intp := b.g.NewPointer(b.int32T, false)
	x := b.global("x", b.int32T, b.lit(42))
	b.global("px", intp, typed(&ir.Unary{Op: ir.Addr, X: ref(x)}, intp))
	b.global("zero", b.int32T, nil)

	out := b.generate()
	src := squash(string(out.Source))
	assert.Contains(t, src, squash("var x int32 = 42"))
	assert.Contains(t, src, squash("var px *int32"))
	assert.Contains(t, src, squash("func init() { px = &x }"))
	assert.Contains(t, src, squash("var zero int32"))
	assert.Equal(t, []string{"x", "px", "zero"}, out.Vars)
	typeCheck(t, out)
}

func TestGenerateExternCall(t *testing.T) {
	b := newUnit(t)
	charp := b.g.NewPointer(b.charT, true)
	puts := b.fn("puts", b.int32T, []*ir.VarDecl{b.param("", charp)})
	puts.InMain = false
	msg := typed(&ir.StringLit{Value: "hi", Width: 1}, b.g.NewArray(b.charT, 3))
	decay := typed(&ir.Cast{Kind: ir.ArrayDecay, X: msg}, charp)
	call := typed(&ir.Call{Fun: ref(puts), Args: []ir.Expr{decay}}, b.int32T)
	b.fn("hello", b.voidT, nil, &ir.ExprStmt{X: call}, &ir.Return{})

	out := b.generate()
	src := squash(string(out.Source))
	assert.Contains(t, src, squash("puts(&strlit_main_0[0])"))
	assert.Contains(t, src, squash(`strlit_main_0 = [3]int8(cstring[int8]("hi", 3))`))
	require.Len(t, out.Externs, 1)
	x := out.Externs[0]
	assert.Equal(t, "puts", x.C)
	assert.Equal(t, "func(*int8) int32", x.Sig())
	assert.Equal(t, `extern int32_t cm_puts(void*) __asm__(CM_SYM("puts"));`, x.Prototype())
	typeCheck(t, out, "func puts(a0 *int8) int32 { return 0 }")
}

func TestGenerateCheckedCall(t *testing.T) {
	b := newUnit(t)
	n := b.param("n", b.int32T)
	callee := b.fn("twice", b.int32T, []*ir.VarDecl{n}, &ir.Return{X: b.bin(ir.Mul, ref(n), b.lit(2))})
	call := typed(&ir.Call{Fun: ref(callee), Args: []ir.Expr{b.lit(3)}}, b.int32T)
	call.Site = &ir.Site{ID: 0xdeadbeef, Callee: "twice", Call: call}
	b.fn("main", b.int32T, nil, &ir.Return{X: call})

	out := b.generate()
	src := squash(string(out.Source))
	assert.Contains(t, src, squash("return xcheck_deadbeef(3)"))
	assert.Contains(t, src, squash("seq := xcrt.Enter(0xdeadbeef, xcrt.Fold(xcrt.Int(uint64(a0), 4)))"))
	assert.Contains(t, src, squash("xcrt.Exit(0xdeadbeef, seq, xcrt.Int(uint64(r), 4))"))
	assert.Contains(t, string(out.Source), `"`+DefaultRuntime+`"`)
	require.Len(t, out.Sites, 1)
	assert.Equal(t, Site{ID: 0xdeadbeef, Func: "main", Callee: "twice", Wrapper: "xcheck_deadbeef"}, out.Sites[0])
	assert.Equal(t, EntryName, out.Funcs[1].Name)
}

// TestGenerateGraphs generates every graph shape the structurer is tested
// on, irreducible ones included, and type-checks the result: labels,
// breaks and the dispatch variable must all be consistent.
func TestGenerateGraphs(t *testing.T) {
	shapes := []struct {
		name  string
		succs [][]int
	}{
		{"diamond", [][]int{{1, 2}, {3}, {3}, {}}},
		{"while", [][]int{{1}, {2, 3}, {1}, {}}},
		{"loop two exits", [][]int{{1}, {2, 3}, {1, 4}, {5}, {5}, {}}},
		{"switch fallthrough", [][]int{{1, 2, 3}, {2}, {3}, {}}},
		{"irreducible", [][]int{{1, 2}, {2, 3}, {1, 3}, {}}},
		{"irreducible three", [][]int{{1, 2, 3}, {2, 4}, {3, 4}, {1, 4}, {}}},
		{"irreducible nested", [][]int{{1}, {2, 3}, {3, 5}, {2, 4}, {1, 6}, {6}, {}}},
		{"infinite", [][]int{{1}, {2}, {1}}},
	}
	for _, tt := range shapes {
		t.Run(tt.name, func(t *testing.T) {
			b := newUnit(t)
			x := b.param("x", b.int32T)
			f := b.fn("f", b.int32T, []*ir.VarDecl{x})
			c := cfgtest.Graph(tt.succs...)
			c.Decl = f
			for _, blk := range c.Blocks {
				blk.Stmts = nil
				switch blk.Kind {
				case cfg.BlockIf, cfg.BlockSwitch:
					blk.Control = ref(x)
				case cfg.BlockReturn:
					blk.Control = ref(x)
				}
			}
			f.Body = &ir.Block{}
			tree, err := relooper.Structure(c)
			require.NoError(t, err)
			out, err := Generate(b.unit, map[*ir.FuncDecl]*relooper.Tree{f: tree}, nil)
			require.NoError(t, err)
			require.Len(t, out.Funcs, 1)
			assert.False(t, out.Funcs[0].Stub, string(out.Source))
			typeCheck(t, out)
		})
	}
}

func TestGenerateStub(t *testing.T) {
	b := newUnit(t)
	f := b.fn("broken", b.int32T, nil, &ir.Return{X: b.lit(1)})
	f.Err = assert.AnError

	out, err := Generate(b.unit, map[*ir.FuncDecl]*relooper.Tree{}, nil)
	require.NoError(t, err)
	assert.Contains(t, string(out.Source), `panic("cmigrate: broken not translated: `)
	require.Len(t, out.Funcs, 1)
	assert.True(t, out.Funcs[0].Stub)
	assert.Empty(t, out.Errors, "import errors are reported by the importer")
	typeCheck(t, out)
}

func TestGenerateExports(t *testing.T) {
	b := newUnit(t)
	b.conf = &Config{Export: true}
	intp := b.g.NewPointer(b.int32T, false)
	x, p := b.param("x", b.int32T), b.param("p", intp)
	b.fn("add", b.int32T, []*ir.VarDecl{x, p},
		&ir.Return{X: b.bin(ir.Add, ref(x), typed(&ir.Unary{Op: ir.Deref, X: ref(p)}, b.int32T))})

	helper := b.fn("helper", b.voidT, nil, &ir.Return{})
	helper.Linkage = ir.Internal

	rec := b.g.NewRecord("S", false, nopos)
	b.g.Complete(rec, []types.Field{{Name: "v", Type: b.int32T}}, false, 0)
	b.fn("reset", b.voidT, []*ir.VarDecl{b.param("s", b.g.NewPointer(rec, false))}, &ir.Return{})

	size := b.g.NewTypedef("size_t", b.g.Basic(types.ULong), nopos)
	b.fn("width", size, nil, &ir.Return{X: typed(ir.NewIntLit(nopos, size, 8), size)})

	out := b.generate()
	src := string(out.Source)
	assert.Contains(t, src, "import \"C\"")
	assert.Contains(t, src, "//export add\nfunc add(")
	assert.NotContains(t, src, "//export helper")
	assert.NotContains(t, src, "//export reset")
	assert.NotContains(t, src, "//export width")

	exported := make(map[string]bool)
	for _, f := range out.Funcs {
		exported[f.C] = f.Exported
	}
	assert.Equal(t, map[string]bool{"add": true, "helper": false, "reset": false, "width": false}, exported)
	typeCheck(t, out)
}

func TestGenerateNoExportsByDefault(t *testing.T) {
	b := newUnit(t)
	b.fn("one", b.int32T, nil, &ir.Return{X: b.lit(1)})

	out := b.generate()
	assert.NotContains(t, string(out.Source), "//export")
	assert.NotContains(t, string(out.Source), "import \"C\"")
	require.Len(t, out.Funcs, 1)
	assert.False(t, out.Funcs[0].Exported)
}

func TestPackagesUsed(t *testing.T) {
	src := []byte(`x := unsafe.Add(p, 1); s := "math.h"; // os.Exit
	_ = xcrt.Fold()`)
	used := PackagesUsed(src)
	assert.True(t, used["unsafe"])
	assert.True(t, used["xcrt"])
	assert.False(t, used["math"])
	assert.False(t, used["os"])
}
