package codegen

import (
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	gotypes "go/types"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you-not-fish/cmigrate/internal/abi"
	"github.com/you-not-fish/cmigrate/internal/ir"
	"github.com/you-not-fish/cmigrate/internal/target"
	"github.com/you-not-fish/cmigrate/internal/types"
)

var scalarKinds = []types.BasicKind{
	types.Bool, types.Char, types.SChar, types.UChar, types.Short, types.UShort,
	types.Int, types.UInt, types.Long, types.ULong, types.LongLong, types.ULongLong,
	types.Float, types.Double,
}

var bitfieldKinds = []types.BasicKind{
	types.Bool, types.Char, types.UChar, types.Short, types.UShort,
	types.Int, types.UInt, types.Long, types.LongLong, types.ULongLong,
}

// recordGen builds random records in one graph. Records that may be
// nested in later ones are kept in pool.
type recordGen struct {
	r     *rand.Rand
	g     *types.Graph
	sizes *types.Sizes
	pool  []types.ID
	n     int
}

func (rg *recordGen) member() types.ID {
	g := rg.g
	switch k := rg.r.Intn(10); {
	case k < 5:
		return g.Basic(scalarKinds[rg.r.Intn(len(scalarKinds))])
	case k < 6:
		return g.NewArray(g.Basic(scalarKinds[rg.r.Intn(len(scalarKinds))]), int64(1+rg.r.Intn(3)))
	case k < 7:
		if len(rg.pool) > 0 && rg.r.Intn(2) == 0 {
			return g.NewPointer(rg.pool[rg.r.Intn(len(rg.pool))], false)
		}
		return g.NewPointer(g.Basic(types.Int), false)
	case len(rg.pool) > 0:
		rec := rg.pool[rg.r.Intn(len(rg.pool))]
		if rg.r.Intn(4) == 0 {
			return g.NewArray(rec, 2)
		}
		return rec
	}
	return g.Basic(types.Int)
}

func (rg *recordGen) bitfield(i int) types.Field {
	kind := bitfieldKinds[rg.r.Intn(len(bitfieldKinds))]
	t := rg.g.Basic(kind)
	limit := rg.sizes.Sizeof(t) * 8
	if kind == types.Bool {
		limit = 1
	}
	f := types.Field{Type: t, Bitfield: true, Width: rg.r.Int63n(limit + 1)}
	if f.Width > 0 && rg.r.Intn(5) > 0 {
		f.Name = fmt.Sprintf("f%d", i)
	}
	return f
}

// next returns a new record, or false if its C layout is rejected.
func (rg *recordGen) next() (types.ID, bool) {
	union := rg.r.Intn(6) == 0
	packed := !union && rg.r.Intn(6) == 0
	id := rg.g.NewRecord(fmt.Sprintf("R%d", rg.n), union, nopos)
	rg.n++

	var fields []types.Field
	for i, n := 0, 1+rg.r.Intn(6); i < n; i++ {
		if rg.r.Intn(3) == 0 {
			fields = append(fields, rg.bitfield(i))
			continue
		}
		fields = append(fields, types.Field{Name: fmt.Sprintf("f%d", i), Type: rg.member()})
	}
	rg.g.Complete(id, fields, packed, 0)
	if _, err := rg.sizes.Layout(id); err != nil {
		return id, false
	}
	rg.pool = append(rg.pool, id)
	return id, true
}

// goLayout type-checks the declarations of id and the records it refers
// to with gc's sizes for arch and returns the emitted struct.
func goLayout(t *testing.T, g *gen, id types.ID, arch string) (*gotypes.Struct, gotypes.Sizes) {
	t.Helper()
	var decls strings.Builder
	for _, x := range types.Closure(g.g, []types.ID{id}) {
		if g.g.Record(x) != nil {
			decls.WriteString(g.record(x).decl + "\n")
		}
	}
	header := "package main\n\n"
	if PackagesUsed([]byte(decls.String()))["unsafe"] {
		header += "import \"unsafe\"\n\n"
	}

	fset := token.NewFileSet()
	var files []*ast.File
	for name, src := range map[string]string{
		"types.go":   header + decls.String(),
		"support.go": string(Support("main")),
	} {
		f, err := parser.ParseFile(fset, name, src, 0)
		require.NoError(t, err, src)
		files = append(files, f)
	}
	sizes := gotypes.SizesFor("gc", arch)
	require.NotNil(t, sizes, arch)
	conf := gotypes.Config{Importer: importer.ForCompiler(fset, "source", nil), Sizes: sizes}
	pkg, err := conf.Check("main", fset, files, nil)
	require.NoError(t, err, decls.String())

	obj := pkg.Scope().Lookup(g.record(id).name)
	require.NotNil(t, obj, decls.String())
	st, ok := obj.Type().Underlying().(*gotypes.Struct)
	require.True(t, ok)
	return st, sizes
}

func TestRecordLayoutRandom(t *testing.T) {
	for _, name := range []string{"x86_64-linux-gnu", "aarch64-linux-gnu", "i686-linux-gnu"} {
		t.Run(name, func(t *testing.T) {
			tgt, err := abi.Lookup(name)
			require.NoError(t, err)
			g := types.NewGraph()
			unit := &ir.Unit{Name: "main", File: "main.c", Graph: g, Sizes: types.NewSizes(g, tgt)}
			rg := &recordGen{r: rand.New(rand.NewSource(7)), g: g, sizes: unit.Sizes}

			var ids []types.ID
			for len(ids) < 150 {
				if id, ok := rg.next(); ok {
					ids = append(ids, id)
				}
			}

			layout, err := target.NewSizes(tgt.GoArch)
			require.NoError(t, err)
			cg := newGen(unit, &Config{Package: "main"}, layout)
			cg.names = newUnitNames(unit)

			for _, id := range ids {
				rec := g.Record(id)
				l, err := unit.Sizes.Layout(id)
				require.NoError(t, err)
				r := cg.record(id)
				require.NoError(t, r.err, "%s\n%s", g.String(id), r.decl)

				st, sizes := goLayout(t, cg, id, tgt.GoArch)
				require.Equal(t, l.Size, sizes.Sizeof(st), "size of %s\n%s", g.String(id), r.decl)
				require.Equal(t, l.Align, sizes.Alignof(st), "alignment of %s\n%s", g.String(id), r.decl)

				vars := make([]*gotypes.Var, st.NumFields())
				for i := range vars {
					vars[i] = st.Field(i)
				}
				offsets := sizes.Offsetsof(vars)
				offset := make(map[string]int64)
				length := make(map[string]int64)
				for i, v := range vars {
					offset[v.Name()] = offsets[i]
					length[v.Name()] = sizes.Sizeof(v.Type())
				}

				for i, f := range r.fields {
					switch {
					case f.kind == fieldBits:
						lo, _ := l.Fields[i].ByteSpan()
						base, ok := offset[f.storage]
						require.True(t, ok, "storage %s", f.storage)
						assert.Equal(t, lo, base+f.lo, "bitfield %s of %s", rec.Fields[i].Name, g.String(id))
						assert.LessOrEqual(t, f.lo+f.n, length[f.storage], "bitfield %s of %s", rec.Fields[i].Name, g.String(id))
					case rec.Union:
					case f.kind == fieldDirect, f.kind == fieldBytes:
						got, ok := offset[f.name]
						require.True(t, ok, "member %s", f.name)
						assert.Equal(t, l.Fields[i].ByteOffset(), got, "member %s of %s\n%s", f.name, g.String(id), r.decl)
					}
				}
			}
		})
	}
}
