package codegen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/you-not-fish/cmigrate/internal/cfg"
	"github.com/you-not-fish/cmigrate/internal/diag"
	"github.com/you-not-fish/cmigrate/internal/ir"
	"github.com/you-not-fish/cmigrate/internal/relooper"
	"github.com/you-not-fish/cmigrate/internal/syntax"
	"github.com/you-not-fish/cmigrate/internal/target"
	"github.com/you-not-fish/cmigrate/internal/types"
)

// dispatchVar is the Go name of the variable selecting the arm of a
// multiple region. target.Reserved keeps C names away from it.
const dispatchVar = "label"

// fgen holds the state for lowering one function body, or one global
// initializer when fn is nil.
type fgen struct {
	*gen
	fn     *ir.FuncDecl
	cfg    *cfg.Func
	tree   *relooper.Tree
	locals *localNames
	e      *emitter
	err    *diag.Error // first construct that could not be lowered

	read       map[*ir.VarDecl]bool
	uses       map[relooper.RegionID]int
	heads      map[relooper.RegionID]int
	dispatch   string
	dispatched bool // the dispatch variable is read
}

func (g *gen) newFgen(fn *ir.FuncDecl, c *cfg.Func) *fgen {
	return &fgen{
		gen:      g,
		fn:       fn,
		cfg:      c,
		locals:   newLocalNames(g.isGlobal),
		e:        g.e.sub(),
		read:     make(map[*ir.VarDecl]bool),
		dispatch: dispatchVar,
	}
}

// fail records that x could not be lowered and returns a placeholder.
// The enclosing declaration is then emitted as a stub.
func (f *fgen) fail(pos syntax.Pos, format string, args ...interface{}) target.Expr {
	f.failErr(pos, diag.Errorf(diag.UnsupportedConstruct, pos, format, args...))
	return goZero
}

func (f *fgen) failErr(pos syntax.Pos, err error) {
	if f.err != nil {
		return
	}
	var de *diag.Error
	if !errors.As(err, &de) {
		de = diag.Errorf(diag.UnsupportedConstruct, pos, "%v", err)
	}
	f.err = de
}

// signature returns the Go signature of fn and declares its parameters.
func (f *fgen) signature(name string) (string, []string) {
	ft := f.g.FuncOf(f.fn.Type)
	params := make([]string, len(f.fn.Params))
	names := make([]string, len(f.fn.Params))
	for i, p := range f.fn.Params {
		names[i] = f.locals.declare(p)
		params[i] = names[i] + " " + f.goType(p.Type)
	}
	sig := fmt.Sprintf("func %s(%s)", name, strings.Join(params, ", "))
	if ft != nil {
		if res := f.goType(ft.Result); res != "" {
			sig += " " + res
		}
	}
	return sig, names
}

// typesErr returns the first record error among the types fn mentions.
func (f *fgen) typesErr() error {
	ids := []types.ID{f.fn.Type}
	for _, v := range f.fn.Locals {
		ids = append(ids, v.Type)
	}
	for _, id := range ids {
		if err := f.recordErr(id); err != nil {
			return err
		}
	}
	return nil
}

// emitFunc emits the definition of fn, or a stub with its signature if the
// body cannot be translated. A nil tree means structuring failed and was
// reported by the caller, as were import errors recorded in fn.Err.
func (g *gen) emitFunc(fn *ir.FuncDecl, tree *relooper.Tree) {
	name := g.names.Object(fn)
	var c *cfg.Func
	if tree != nil {
		c = tree.Func
	}
	f := g.newFgen(fn, c)
	f.tree = tree
	sig, params := f.signature(name)
	info := FuncInfo{
		C:        fn.Name,
		Name:     name,
		External: fn.Linkage == ir.External,
		Ptrs:     fn.Ptrs,
		Params:   params,
		Sig:      g.goType(fn.Type),
	}

	why := ""
	switch {
	case fn.Err != nil:
		why = fn.Err.Error()
	case tree == nil:
		why = "control flow not structured"
	default:
		if err := f.typesErr(); err != nil {
			f.failErr(fn.Pos(), err)
		} else {
			f.body()
		}
		if f.err != nil {
			g.report(f.err, fn.Name)
			why = f.err.Msg
		}
	}

	g.e.emitLine()
	if g.exportable(fn, name) {
		info.Exported = true
		g.exports = true
		g.e.line("//export " + name)
	}
	if why != "" {
		info.Stub = true
		g.e.begin(sig)
		g.e.line(fmt.Sprintf("panic(%q)", "cmigrate: "+fn.Name+" not translated: "+why))
		g.e.end()
	} else {
		g.e.begin(sig)
		g.e.emitRaw(f.e.String())
		g.e.end()
	}
	g.out.Funcs = append(g.out.Funcs, info)
}

// exportable reports whether fn is emitted with an //export directive so
// C objects linked with the package can call it. cgo accepts only
// predeclared numeric types and pointers to them in exported signatures;
// functions taking typedefs, records or function pointers stay Go-only.
func (g *gen) exportable(fn *ir.FuncDecl, name string) bool {
	if !g.conf.Export || fn.Linkage != ir.External || name != fn.Name || name == "main" {
		return false
	}
	ft := g.g.FuncOf(fn.Type)
	if ft == nil || ft.Variadic || ft.NoProto {
		return false
	}
	for _, p := range fn.Params {
		if !cgoScalar(g.goType(p.Type)) {
			return false
		}
	}
	res := g.goType(ft.Result)
	return res == "" || cgoScalar(res)
}

func cgoScalar(t string) bool {
	switch strings.TrimPrefix(t, "*") {
	case "int8", "int16", "int32", "int64", "uint8", "uint16", "uint32", "uint64",
		"float32", "float64", "unsafe.Pointer":
		return true
	}
	return false
}

// body lowers the function into f.e: local declarations first, then the
// region tree.
func (f *fgen) body() {
	var decls []string
	var locals []*ir.VarDecl
	for _, v := range f.fn.Locals {
		if v.Static() {
			continue
		}
		if a, ok := f.g.Underlying(v.Type).(*types.Array); ok && a.VLA {
			f.fail(v.Pos(), "variable length array %s", v.Name)
			return
		}
		name := f.locals.declare(v)
		decls = append(decls, "var "+name+" "+f.goType(v.Type))
		locals = append(locals, v)
	}

	body := f.e
	f.e = body.sub()
	f.e.indent = 1
	f.countUses()
	f.chain(f.tree.Root)
	ft := f.g.FuncOf(f.fn.Type)
	if ft != nil && !f.isVoid(ft.Result) && !f.terminates(f.tree.Root) {
		f.e.line("return " + f.zero(ft.Result))
	}
	text := f.e.String()
	f.e = body

	for _, d := range decls {
		f.e.line(d)
	}
	if f.tree.Dispatch {
		f.e.line("var " + f.dispatch + " int")
		if !f.dispatched {
			f.e.line("_ = " + f.dispatch)
		}
	}
	for _, v := range locals {
		if !f.read[v] {
			f.e.line("_ = " + f.locals.names[v])
		}
	}
	f.e.emitRaw(text)
}
