// Package codegen lowers the IR of one translation unit, together with the
// region trees of its functions, into Go source. The output uses package
// unsafe for every memory access so that it performs the same loads and
// stores as the C program, in the same order.
package codegen

import (
	"fmt"
	"go/format"
	"sort"

	"github.com/you-not-fish/cmigrate/internal/diag"
	"github.com/you-not-fish/cmigrate/internal/ir"
	"github.com/you-not-fish/cmigrate/internal/relooper"
	"github.com/you-not-fish/cmigrate/internal/target"
	"github.com/you-not-fish/cmigrate/internal/types"
)

// Config configures code generation for one unit.
type Config struct {
	// Package is the Go package name of the output.
	Package string

	// Names chooses the Go names of globals and types. If nil, the C
	// names of the unit are used.
	Names Namer

	// Runtime is the import path of the cross-check runtime, used when
	// the unit has instrumented call sites.
	Runtime string

	// Export marks external functions whose signatures cgo can express
	// with //export, so that C code can call the translated definitions.
	Export bool
}

// A Namer maps C symbols of a unit to Go identifiers. The assembler
// supplies one that keeps external names and renames colliding internal
// ones.
type Namer interface {
	// Object returns the Go name of a function, a global variable or a
	// static local.
	Object(obj ir.Object) string

	// Type returns the Go name of a record, enum or typedef, or "" if
	// the type has none.
	Type(id types.ID) string
}

// Output is the result of generating one unit.
type Output struct {
	Unit   string
	Source []byte // formatted Go file

	Types   []TypeDecl // declarations of the nominal types the unit uses
	Externs []Extern   // symbols the unit uses but does not define
	Shims   []Shim     // fixed-arity forms of variadic external calls
	Funcs   []FuncInfo // functions the unit defines
	Vars    []string   // Go names of the globals the unit defines
	Sites   []Site     // instrumented call sites

	// Errors holds one *diag.Error per declaration that was stubbed or
	// skipped during generation.
	Errors []error
}

// TypeDecl is the Go declaration of one nominal C type.
type TypeDecl struct {
	Name string
	Text string // type declaration followed by its methods

	// Key identifies the C definition; declarations with the same Name
	// and Key from different units are the same type.
	Key string

	Forward bool // part of a pointer cycle
	Opaque  bool // incomplete in the unit
}

// FuncInfo describes a function the unit defines.
type FuncInfo struct {
	C        string // C name
	Name     string // Go name
	External bool
	Stub     bool // body replaced by a panic
	Exported bool // callable from C under its own name
	Ptrs     []ir.PtrFacts
	Params   []string
	Sig      string // Go signature
}

// Generate produces the Go file of unit. trees holds the region tree of
// every function definition that was structured; definitions without one
// are emitted as stubs, their error having been reported by the caller.
func Generate(unit *ir.Unit, trees map[*ir.FuncDecl]*relooper.Tree, conf *Config) (*Output, error) {
	if conf == nil {
		conf = &Config{}
	}
	if conf.Package == "" {
		conf.Package = "main"
	}
	arch := unit.Sizes.Target().GoArch
	layout, err := target.NewSizes(arch)
	if err != nil {
		return nil, fmt.Errorf("unit %s: %w", unit.Name, err)
	}
	g := newGen(unit, conf, layout)
	if conf.Names == nil {
		g.names = newUnitNames(unit)
	}
	g.out.Unit = unit.Name
	g.collect(trees)
	g.emitFile(trees)
	if g.e.err != nil {
		return nil, g.e.err
	}
	src, err := format.Source(g.e.buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("unit %s: formatting generated code: %w", unit.Name, err)
	}
	g.out.Source = src
	g.out.Types = g.typeDecls()
	g.out.Externs = g.externList()
	g.out.Shims = g.shimList()
	sort.SliceStable(g.out.Errors, func(i, j int) bool {
		a, _ := g.out.Errors[i].(*diag.Error)
		b, _ := g.out.Errors[j].(*diag.Error)
		if a == nil || b == nil {
			return false
		}
		return a.Pos.Compare(b.Pos) < 0
	})
	return g.out, nil
}

// gen holds the state for generating one unit.
type gen struct {
	unit   *ir.Unit
	g      *types.Graph
	sizes  *types.Sizes
	conf   *Config
	names  Namer
	layout *target.Sizes
	out    *Output
	e      *emitter

	records map[types.ID]*recordRepr
	badType map[types.ID]error // records whose layout could not be reproduced
	used    map[types.ID]bool  // nominal types referenced by the output

	strs     *stringTable
	externs  map[string]*Extern
	shims    map[string]*Shim
	wrappers map[uint32]string // checkpoint wrapper per site ID
	globals  map[string]bool   // package-level names
	exports  bool              // some function carries //export
	inits    []string          // assignments deferred to init
}

func newGen(unit *ir.Unit, conf *Config, layout *target.Sizes) *gen {
	return &gen{
		unit:     unit,
		g:        unit.Graph,
		sizes:    unit.Sizes,
		conf:     conf,
		names:    conf.Names,
		layout:   layout,
		out:      &Output{},
		e:        newEmitter(),
		records:  make(map[types.ID]*recordRepr),
		badType:  make(map[types.ID]error),
		used:     make(map[types.ID]bool),
		strs:     newStringTable(unit.Name),
		externs:  make(map[string]*Extern),
		shims:    make(map[string]*Shim),
		wrappers: make(map[uint32]string),
		globals:  make(map[string]bool),
	}
}

// report records a generation error for decl.
func (g *gen) report(err *diag.Error, decl string) {
	g.out.Errors = append(g.out.Errors, err.In(decl))
}

// translated reports whether a declaration belongs in the output: all
// declarations of the main file, and header declarations the unit uses.
func translated(d ir.Decl) bool {
	switch d := d.(type) {
	case *ir.FuncDecl:
		return d.Body != nil && (d.InMain || d.Used)
	case *ir.VarDecl:
		return d.Defined && (d.InMain || d.Used)
	}
	return false
}
