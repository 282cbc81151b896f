package assemble

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	gotypes "go/types"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you-not-fish/cmigrate/internal/cfg"
	"github.com/you-not-fish/cmigrate/internal/codegen"
	"github.com/you-not-fish/cmigrate/internal/diag"
	"github.com/you-not-fish/cmigrate/internal/ir"
	"github.com/you-not-fish/cmigrate/internal/relooper"
	"github.com/you-not-fish/cmigrate/internal/types"
)

func (b *unitBuilder) call(fn *ir.FuncDecl, args ...ir.Expr) ir.Expr {
	x := &ir.Call{Fun: ir.NewRef(nopos, fn), Args: args}
	x.SetType(b.intT)
	return x
}

// program builds two units:
//
//	a.c: static int helper(void) { return 0; }
//	     int get(void) { return helper(); }
//	b.c: static int helper(void) { return 0; }
//	     int get(void);
//	     int abs(int);
//	     int main(void) { return abs(get()); }
func program(t *testing.T) []*ir.Unit {
	a, b := newUnit(t, "a"), newUnit(t, "b")
	h := a.define("helper", ir.Internal)
	a.fn("get", ir.External, a.intT, 0, &ir.Return{X: a.call(h)})

	b.define("helper", ir.Internal)
	get := b.fn("get", ir.External, b.intT, 0)
	abs := b.fn("abs", ir.External, b.intT, 1)
	b.fn("main", ir.External, b.intT, 0, &ir.Return{X: b.call(abs, b.call(get))})
	return []*ir.Unit{a.unit, b.unit}
}

// translate links and generates units the way the driver does.
func translate(t *testing.T, units []*ir.Unit, conf *Config) (*Plan, []Unit) {
	t.Helper()
	plan, err := Link(units, conf)
	require.NoError(t, err)
	var out []Unit
	for _, u := range units {
		trees := make(map[*ir.FuncDecl]*relooper.Tree)
		for _, f := range u.Funcs() {
			if f.Body == nil {
				continue
			}
			c, err := cfg.Build(f)
			require.NoError(t, err)
			tree, err := relooper.Structure(c)
			require.NoError(t, err)
			trees[f] = tree
		}
		o, err := codegen.Generate(u, trees, &codegen.Config{
			Package: conf.PackageName(),
			Names:   plan.Names[u.Name],
			Export:  conf.Mode == Lib,
		})
		require.NoError(t, err)
		out = append(out, Unit{Name: u.Name, File: u.File, Output: o})
	}
	return plan, out
}

// typeCheck checks every Go file of m as one package.
func typeCheck(t *testing.T, m *Module) {
	t.Helper()
	fset := token.NewFileSet()
	var names []string
	for name := range m.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	var files []*ast.File
	for _, name := range names {
		f, err := parser.ParseFile(fset, name, m.Files[name], parser.ParseComments)
		require.NoError(t, err, string(m.Files[name]))
		files = append(files, f)
	}
	conf := gotypes.Config{
		Importer:    importer.ForCompiler(fset, "source", nil),
		FakeImportC: true,
	}
	_, err := conf.Check("main", fset, files, nil)
	require.NoError(t, err)
}

func TestAssembleBinary(t *testing.T) {
	conf := &Config{Mode: Bin}
	plan, units := translate(t, program(t), conf)
	diags := diag.NewCollector(nil)
	m, err := Assemble(plan, units, conf, diags)
	require.NoError(t, err)
	assert.Zero(t, diags.Len())

	for _, name := range []string{"a.go", "b.go", "types.go", "externs.go", "support.go", "main.go"} {
		assert.Contains(t, m.Files, name)
	}
	b := string(m.Files["b.go"])
	assert.Contains(t, b, "func c_main() int32")
	assert.Contains(t, b, "func helper_b() int32")
	assert.Contains(t, b, "abs(get())")

	ext := string(m.Files["externs.go"])
	assert.Contains(t, ext, `extern int32_t cm_abs(int32_t) __asm__(CM_SYM("abs"));`)
	assert.Contains(t, ext, "func abs(a0 int32) int32")
	assert.NotContains(t, ext, "cm_get", "get is defined by unit a")

	main := string(m.Files["main.go"])
	assert.True(t, strings.HasPrefix(main, "// Code generated by cmigrate. DO NOT EDIT.\n\npackage main\n"))
	assert.Contains(t, main, "os.Exit(int(c_main()))")
	typeCheck(t, m)

	man := m.Manifest
	assert.Equal(t, "bin", man.Mode)
	assert.Equal(t, "c_main", man.Entry)
	require.Len(t, man.Units, 2)
	assert.Equal(t, []string{"get"}, man.Units[0].Defines)
	assert.Equal(t, []string{"a"}, man.Units[1].Requires)
	assert.Equal(t, StatusOK, man.Units[1].Status)
	assert.Contains(t, man.Renames, ManifestRename{Unit: "b", C: "helper", Go: "helper_b"})
	assert.Contains(t, man.Renames, ManifestRename{Unit: "b", C: "main", Go: "c_main"})
	require.Len(t, man.Externs, 1)
	assert.Equal(t, "abs", man.Externs[0].C)
}

func TestAssembleLibrary(t *testing.T) {
	conf := &Config{Package: "prog"}
	plan, units := translate(t, program(t), conf)
	diags := diag.NewCollector(nil)
	m, err := Assemble(plan, units, conf, diags)
	require.NoError(t, err)

	assert.NotContains(t, m.Files, "main.go")
	a := string(m.Files["a.go"])
	assert.Contains(t, a, "package prog")
	assert.Contains(t, a, "import \"C\"")
	assert.Contains(t, a, "//export get\nfunc get() int32")
	assert.NotContains(t, a, "//export helper")
	assert.NotContains(t, string(m.Files["b.go"]), "//export main")
	typeCheck(t, m)

	man := m.Manifest
	assert.Equal(t, "lib", man.Mode)
	require.Len(t, man.Units, 2)
	assert.Equal(t, []string{"get"}, man.Units[0].Exports)
	assert.Empty(t, man.Units[1].Exports)
}

func TestAssembleEntryArgs(t *testing.T) {
	u := newUnit(t, "prog")
	charpp := u.g.NewPointer(u.g.NewPointer(u.g.Basic(types.Char), false), false)
	argc := ir.NewVarDecl(nopos, "argc", u.intT)
	argv := ir.NewVarDecl(nopos, "argv", charpp)
	for _, v := range []*ir.VarDecl{argc, argv} {
		v.Local, v.Param = true, true
	}
	f := ir.NewFuncDecl(nopos, "main", u.g.NewFunc(u.intT, []types.ID{u.intT, charpp}, false, false))
	f.Params = []*ir.VarDecl{argc, argv}
	f.Linkage, f.InMain = ir.External, true
	f.Body = &ir.Block{List: []ir.Stmt{&ir.Return{X: ir.NewRef(nopos, argc)}}}
	u.unit.Decls = append(u.unit.Decls, f)

	conf := &Config{Mode: Bin}
	plan, units := translate(t, []*ir.Unit{u.unit}, conf)
	m, err := Assemble(plan, units, conf, diag.NewCollector(nil))
	require.NoError(t, err)
	main := string(m.Files["main.go"])
	assert.Contains(t, main, "argv := cstrings(os.Args)")
	assert.Contains(t, main, "c_main(int32(len(os.Args)), &argv[0])")
	assert.NotContains(t, m.Files, "externs.go")
	typeCheck(t, m)
}

func TestAssembleFailedUnit(t *testing.T) {
	conf := &Config{Package: "prog"}
	plan, units := translate(t, program(t), conf)
	units[0].Output = nil
	diags := diag.NewCollector(nil)
	diags.Add(diag.Diagnostic{Unit: "a", Kind: diag.ParseFailure, Msg: "clang failed"})
	m, err := Assemble(plan, units, conf, diags)
	require.NoError(t, err)
	assert.NotContains(t, m.Files, "a.go")
	assert.NotContains(t, m.Files, "main.go")
	assert.Equal(t, StatusFailed, m.Manifest.Units[0].Status)
	assert.Equal(t, 1, m.Manifest.Diagnostics["ParseFailure"])
	assert.True(t, strings.HasPrefix(string(m.Files["types.go"]), "// Code generated by cmigrate. DO NOT EDIT.\n\npackage prog\n"))
}

func TestAssembleShims(t *testing.T) {
	plan := &Plan{Symbols: map[string]*Symbol{"printf": {C: "printf", Name: "printf", Func: true}}}
	i32 := codegen.Scalar{Go: "int32", C: "int32_t"}
	p := codegen.Scalar{Go: "*int8", C: "void*"}
	out := &codegen.Output{
		Unit: "a",
		Externs: []codegen.Extern{
			{C: "printf", Name: "printf", Variadic: true, Params: []codegen.Scalar{p}, Result: i32},
		},
		Shims: []codegen.Shim{
			{Name: "printf_p_32", Callee: "printf", Params: []codegen.Scalar{p, i32}, Result: i32},
		},
	}
	diags := diag.NewCollector(nil)
	b := collectBindings(plan, []*codegen.Output{out, out}, diags)
	assert.Zero(t, diags.Len())
	require.Len(t, b.externs, 1)
	require.Len(t, b.shims, 1)

	src, err := b.file("main", []string{"-lm"})
	require.NoError(t, err)
	s := string(src)
	assert.Contains(t, s, "#cgo LDFLAGS: -lm")
	assert.Contains(t, s, `extern int32_t cm_printf(void*, ...) __asm__(CM_SYM("printf"));`)
	assert.Contains(t, s, "static int32_t printf_p_32(void* a0, int32_t a1) { return cm_printf(a0, a1); }")
	assert.Contains(t, s, "func printf_p_32(a0 *int8, a1 int32) int32")
	assert.Contains(t, s, `import "unsafe"`)
}

func TestMergeTypes(t *testing.T) {
	a := &codegen.Output{Types: []codegen.TypeDecl{
		{Name: "node", Key: "struct node", Opaque: true, Text: "type node struct{}\n"},
		{Name: "point", Key: "k1", Text: "type point struct{ x int32 }\n"},
	}}
	b := &codegen.Output{Types: []codegen.TypeDecl{
		{Name: "node", Key: "struct node{v int;}", Text: "type node struct{ v int32 }\n", Forward: true},
		{Name: "point", Key: "k2", Text: "type point struct{ y int32 }\n"},
	}}
	decls, errs := mergeTypes([]*codegen.Output{a, b})
	require.Len(t, decls, 2)
	assert.False(t, decls[0].Opaque, "the complete node wins")
	assert.True(t, decls[0].Forward)
	assert.Equal(t, "type point struct{ x int32 }\n", decls[1].Text)
	require.Len(t, errs, 1)
}
