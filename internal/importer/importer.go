package importer

import (
	"github.com/you-not-fish/cmigrate/internal/diag"
	"github.com/you-not-fish/cmigrate/internal/ir"
	"github.com/you-not-fish/cmigrate/internal/syntax"
	"github.com/you-not-fish/cmigrate/internal/types"
)

// importer holds the state of one Import call.
type importer struct {
	conf  *Config
	file  *syntax.File
	unit  *ir.Unit
	g     *types.Graph
	sizes *types.Sizes

	// Current importing context
	scope     *types.Scope // tag and typedef scope
	fileScope *types.Scope

	// Declarations keyed by clang node id. Redeclarations of one global
	// map to the same object.
	objs    map[string]ir.Object
	globals map[string]ir.Object // file scope objects by name
	consts  map[string]enumConst // enumerators by clang id
	fields  map[string]fieldRef  // FieldDecls by clang id
	anon    map[string]types.ID  // anonymous records and enums by location
	cache   map[typeKey]types.ID // resolved type spellings

	// Declaration context
	decl   string       // name of the declaration being imported
	err    *diag.Error  // first error in the current declaration
	fn     *ir.FuncDecl // function whose body is being imported
	labels map[string]*ir.Label
	calls  map[string]int // per-callee call counts for site ordinals
}

type enumConst struct {
	value int64
	typ   types.ID
}

type fieldRef struct {
	record types.ID
	index  int
}

type typeKey struct {
	scope    *types.Scope
	spelling string
}

func newImporter(conf *Config, f *syntax.File, unit *ir.Unit) *importer {
	fileScope := types.NewScope(nil, "file")
	return &importer{
		conf:      conf,
		file:      f,
		unit:      unit,
		g:         unit.Graph,
		sizes:     unit.Sizes,
		scope:     fileScope,
		fileScope: fileScope,
		objs:      make(map[string]ir.Object),
		globals:   make(map[string]ir.Object),
		consts:    make(map[string]enumConst),
		fields:    make(map[string]fieldRef),
		anon:      make(map[string]types.ID),
		cache:     make(map[typeKey]types.ID),
	}
}

// importFile imports every top level declaration, then marks which
// header definitions are used by the main file.
func (c *importer) importFile() {
	for _, n := range c.file.Root.Inner {
		if n.IsNull() || n.IsImplicit {
			continue
		}
		c.topDecl(n)
	}
	c.markUsed()

	// Header declarations are only worth a diagnostic once the main file
	// depends on them.
	for _, d := range c.unit.Decls {
		switch d := d.(type) {
		case *ir.FuncDecl:
			if d.Err != nil && d.Used && !d.InMain {
				c.report(d.Err.(*diag.Error))
			}
		case *ir.VarDecl:
			if d.Err != nil && d.Used && !d.InMain {
				c.report(d.Err.(*diag.Error))
			}
		}
	}
}

// topDecl imports one file scope declaration.
func (c *importer) topDecl(n *syntax.Node) {
	switch n.Kind {
	case "RecordDecl":
		c.typeDecl(n, c.typeDeclIn(n, c.recordDecl))
	case "EnumDecl":
		c.typeDecl(n, c.typeDeclIn(n, c.enumDecl))
	case "TypedefDecl":
		c.typeDecl(n, c.typeDeclIn(n, c.typedefDecl))
	case "VarDecl":
		c.globalVar(n)
	case "FunctionDecl":
		c.funcDecl(n)
	case "StaticAssertDecl", "EmptyDecl", "FileScopeAsmDecl", "PragmaCommentDecl", "PragmaDetectMismatchDecl":
		if n.Kind == "FileScopeAsmDecl" {
			c.report(diag.Errorf(diag.UnsupportedConstruct, n.Pos, "file scope asm"))
		}
	default:
		c.report(diag.Errorf(diag.UnsupportedConstruct, n.Pos, "unexpected %s at file scope", n.Kind))
	}
}

// typeDecl records a file scope type declaration of the main file.
func (c *importer) typeDecl(n *syntax.Node, id types.ID) {
	if id == types.Invalid || !c.file.InMain(n.Pos) {
		return
	}
	name := n.Name
	if name == "" {
		return
	}
	c.unit.Decls = append(c.unit.Decls, ir.NewTypeDecl(n.Pos, name, id))
}

// openScope opens a block scope for tags and typedefs.
func (c *importer) openScope(comment string) {
	c.scope = types.NewScope(c.scope, comment)
}

// closeScope returns to the parent scope.
func (c *importer) closeScope() {
	c.scope = c.scope.Parent()
}

// beginDecl starts error tracking for the named declaration.
func (c *importer) beginDecl(name string) {
	c.decl = name
	c.err = nil
}

// endDecl returns the first error of the current declaration, attributed
// to it, and resets the context.
func (c *importer) endDecl() *diag.Error {
	err := c.err
	c.decl, c.err = "", nil
	return err
}

// markUsed marks the header definitions reachable from definitions in
// the main file. Only those are translated.
func (c *importer) markUsed() {
	var work []ir.Object
	mark := func(o ir.Object) {
		switch o := o.(type) {
		case *ir.FuncDecl:
			if !o.Used {
				o.Used = true
				work = append(work, o)
			}
		case *ir.VarDecl:
			if !o.Used {
				o.Used = true
				work = append(work, o)
			}
		}
	}
	for _, d := range c.unit.Decls {
		switch d := d.(type) {
		case *ir.FuncDecl:
			if d.InMain && d.Defined() {
				mark(d)
			}
		case *ir.VarDecl:
			if d.InMain && d.Defined {
				mark(d)
			}
		}
	}
	visit := func(n ir.Node) bool {
		if r, ok := n.(*ir.Ref); ok && !isLocal(r.Obj) {
			mark(r.Obj)
		}
		return true
	}
	for len(work) > 0 {
		o := work[len(work)-1]
		work = work[:len(work)-1]
		switch o := o.(type) {
		case *ir.FuncDecl:
			if o.Body != nil {
				ir.Inspect(o.Body, visit)
			}
		case *ir.VarDecl:
			if o.Init != nil {
				ir.Inspect(o.Init, visit)
			}
		}
	}
}

func isLocal(o ir.Object) bool {
	v, ok := o.(*ir.VarDecl)
	return ok && v.Local
}
