package codegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/you-not-fish/cmigrate/internal/cfg"
	"github.com/you-not-fish/cmigrate/internal/ir"
	"github.com/you-not-fish/cmigrate/internal/relooper"
	"github.com/you-not-fish/cmigrate/internal/types"
)

// DefaultRuntime is the import path of the cross-check runtime.
const DefaultRuntime = "github.com/you-not-fish/cmigrate/xcrt"

// helpers are the package-level names of support.go and of the entry
// glue of binaries.
var helpers = []string{
	"cstrings", "integer", "bool2int", "cstring", "wstring", "reinterpret",
	"bitfieldLoad", "bitfieldMask", "bitfieldGet", "bitfieldSigned", "bitfieldSet",
}

// collect gathers the package-level names the unit's locals must avoid.
func (g *gen) collect(trees map[*ir.FuncDecl]*relooper.Tree) {
	for _, h := range helpers {
		g.globals[h] = true
	}
	for _, d := range g.unit.Decls {
		obj, ok := d.(ir.Object)
		if !ok {
			continue
		}
		g.globals[g.names.Object(obj)] = true
		if fn, ok := obj.(*ir.FuncDecl); ok {
			for _, v := range fn.Locals {
				if v.Storage == ir.Static {
					g.globals[g.names.Object(v)] = true
				}
			}
		}
	}
	for id := types.ID(1); int(id) < g.g.Len(); id++ {
		if g.g.IsNominal(id) {
			if name := g.names.Type(id); name != "" {
				g.globals[name] = true
			}
		}
	}
}

// isGlobal reports whether name is taken at package level.
func (g *gen) isGlobal(name string) bool {
	return g.globals[name] || Generated(name)
}

// Generated reports whether name belongs to the support file or could be
// the name of a generated string literal or checkpoint wrapper.
func Generated(name string) bool {
	for _, h := range helpers {
		if name == h {
			return true
		}
	}
	return strings.HasPrefix(name, "strlit_") || strings.HasPrefix(name, "xcheck_")
}

// emitFile writes the Go file of the unit: variables and functions in
// declaration order, then the init function, string literals and
// checkpoint wrappers. The imports are decided last, from the text.
func (g *gen) emitFile(trees map[*ir.FuncDecl]*relooper.Tree) {
	for _, d := range g.unit.Decls {
		if !translated(d) {
			continue
		}
		switch d := d.(type) {
		case *ir.VarDecl:
			g.emitVar(d, nil, nil)
		case *ir.FuncDecl:
			tree := trees[d]
			var c *cfg.Func
			if tree != nil {
				c = tree.Func
			}
			for _, v := range d.Locals {
				if v.Storage == ir.Static {
					g.emitVar(v, d, c)
				}
			}
			g.emitFunc(d, tree)
		}
	}
	g.emitInits()
	g.emitStrings()
	g.emitWrappers()

	body := g.e
	g.e = newEmitter()
	g.e.err = body.err
	g.e.line(fmt.Sprintf("// Code generated by cmigrate from %s. DO NOT EDIT.", g.unit.File))
	g.e.emitLine()
	g.e.line("package " + g.conf.Package)
	if imports := g.imports(body.buf.Bytes()); len(imports) > 0 {
		g.e.emitLine()
		g.e.line("import (")
		for _, imp := range imports {
			g.e.line("\t" + imp)
		}
		g.e.line(")")
	}
	if g.exports {
		g.e.emitLine()
		g.e.line(`import "C"`)
	}
	g.e.emitRaw(body.String())
}

// imports returns the import specs the text needs.
func (g *gen) imports(src []byte) []string {
	used := PackagesUsed(src)
	var out []string
	if used["math"] {
		out = append(out, `"math"`)
	}
	if used["unsafe"] {
		out = append(out, `"unsafe"`)
	}
	if used["xcrt"] {
		rt := g.conf.Runtime
		if rt == "" {
			rt = DefaultRuntime
		}
		out = append(out, fmt.Sprintf("%q", rt))
	}
	return out
}

// typeDecls returns the declarations of every nominal type the output
// mentions, sorted by name. Declaring a type can mention further types,
// so the set is closed iteratively.
func (g *gen) typeDecls() []TypeDecl {
	done := make(map[types.ID]bool)
	var ids []types.ID
	var out []TypeDecl
	for {
		var todo []types.ID
		for id := range g.used {
			if !done[id] {
				todo = append(todo, id)
			}
		}
		if len(todo) == 0 {
			break
		}
		sort.Slice(todo, func(i, j int) bool { return todo[i] < todo[j] })
		for _, id := range todo {
			done[id] = true
			ids = append(ids, id)
			if d, ok := g.typeDecl(id); ok {
				out = append(out, d)
			}
		}
	}

	plan := types.Order(g.g, ids)
	forward := make(map[string]bool)
	for _, id := range plan.Forward {
		forward[g.names.Type(id)] = true
	}
	for i := range out {
		out[i].Forward = forward[out[i].Name]
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (g *gen) typeDecl(id types.ID) (TypeDecl, bool) {
	name := g.typeName(id)
	d := TypeDecl{Name: name, Key: TypeKey(g.g, id)}
	switch t := g.g.At(id).(type) {
	case *types.Record:
		d.Text = g.record(id).decl
		d.Opaque = !t.Complete
	case *types.Enum:
		d.Text = fmt.Sprintf("type %s = %s\n", name, g.goType(t.Underlying))
	case *types.Typedef:
		alias := g.goType(t.Alias)
		if alias == "" || alias == name {
			return d, false
		}
		d.Text = fmt.Sprintf("type %s = %s\n", name, alias)
	default:
		return d, false
	}
	return d, true
}
