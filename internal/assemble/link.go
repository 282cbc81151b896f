// Package assemble joins the translated units of a C program into one Go
// package. Linking runs before code generation and decides the Go name of
// every package-level symbol; assembly runs after it and lays out the
// shared files and the manifest.
package assemble

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/you-not-fish/cmigrate/internal/codegen"
	"github.com/you-not-fish/cmigrate/internal/diag"
	"github.com/you-not-fish/cmigrate/internal/ir"
	"github.com/you-not-fish/cmigrate/internal/target"
	"github.com/you-not-fish/cmigrate/internal/types"
)

// Symbol is an external symbol of the program.
type Symbol struct {
	C       string
	Name    string // Go name
	Func    bool
	Definer string   // unit defining the symbol; "" if it is bound through cgo
	Users   []string // units declaring it without defining it
}

// Rename records a Go name that differs from the name a symbol would have
// in a unit of its own.
type Rename struct {
	Unit string
	C    string
	Go   string
	Type bool
}

// Plan is the linkage graph of a program together with the names every
// unit is generated with.
type Plan struct {
	Symbols map[string]*Symbol // by C name
	Names   map[string]*codegen.Names
	Renames []Rename

	// Entry is the Go name of the entry function in binary mode, and
	// EntryArgs the number of parameters it takes.
	Entry     string
	EntryArgs int

	// Errors holds the LinkConflict diagnostics.
	Errors []diag.Diagnostic
}

// Requires returns the units unit depends on: those defining a symbol
// unit uses.
func (p *Plan) Requires(unit string) []string {
	seen := make(map[string]bool)
	for _, s := range p.Symbols {
		if s.Definer == "" || s.Definer == unit {
			continue
		}
		for _, u := range s.Users {
			if u == unit {
				seen[s.Definer] = true
			}
		}
	}
	return sortedKeys(seen)
}

// Defines returns the C names of the external symbols unit defines.
func (p *Plan) Defines(unit string) []string {
	var out []string
	for _, s := range p.Symbols {
		if s.Definer == unit {
			out = append(out, s.C)
		}
	}
	sort.Strings(out)
	return out
}

type linker struct {
	conf  *Config
	plan  *Plan
	taken map[string]bool
	keys  map[string]map[string]string    // C symbol -> unit -> type key
	objs  map[string]map[string]ir.Object // unit -> C symbol -> declaration
	dups  map[ir.Object]bool              // second definitions, renamed
}

// Link builds the linkage graph of units. Symbols defined twice or used
// with disagreeing types are reported as LinkConflict and the program is
// still assembled; a missing entry function in binary mode is an error.
func Link(units []*ir.Unit, conf *Config) (*Plan, error) {
	if conf == nil {
		conf = &Config{}
	}
	units = append([]*ir.Unit(nil), units...)
	sort.Slice(units, func(i, j int) bool { return units[i].Name < units[j].Name })

	l := &linker{
		conf: conf,
		plan: &Plan{
			Symbols: make(map[string]*Symbol),
			Names:   make(map[string]*codegen.Names),
		},
		taken: make(map[string]bool),
		keys:  make(map[string]map[string]string),
		objs:  make(map[string]map[string]ir.Object),
		dups:  make(map[ir.Object]bool),
	}
	for _, u := range units {
		l.plan.Names[u.Name] = codegen.NewNames(u)
	}
	for _, u := range units {
		l.externals(u)
	}
	l.nameExternals()
	l.consistency()
	l.nameTypes(units)
	for _, u := range units {
		l.nameInternals(u)
	}
	if conf.Mode == Bin {
		if err := l.entry(units); err != nil {
			return nil, err
		}
	}
	sort.Slice(l.plan.Renames, func(i, j int) bool {
		a, b := l.plan.Renames[i], l.plan.Renames[j]
		if a.Unit != b.Unit {
			return a.Unit < b.Unit
		}
		return a.C < b.C
	})
	return l.plan, nil
}

// emitted reports whether codegen emits a definition of d.
func emitted(d ir.Object) bool {
	switch d := d.(type) {
	case *ir.FuncDecl:
		return d.Body != nil && (d.InMain || d.Used)
	case *ir.VarDecl:
		return d.Defined && (d.InMain || d.Used)
	}
	return false
}

func linkage(d ir.Object) ir.Linkage {
	switch d := d.(type) {
	case *ir.FuncDecl:
		return d.Linkage
	case *ir.VarDecl:
		return d.Linkage
	}
	return ir.NoLinkage
}

// externals records the external symbols u defines or uses.
func (l *linker) externals(u *ir.Unit) {
	l.objs[u.Name] = make(map[string]ir.Object)
	for _, d := range u.Decls {
		obj, ok := d.(ir.Object)
		if !ok || linkage(obj) != ir.External {
			continue
		}
		_, isFunc := obj.(*ir.FuncDecl)
		name := obj.DeclName()
		def := emitted(obj)
		if !def && !used(obj) {
			continue
		}
		l.objs[u.Name][name] = obj
		s := l.plan.Symbols[name]
		if s == nil {
			s = &Symbol{C: name, Func: isFunc}
			l.plan.Symbols[name] = s
		}
		if l.keys[name] == nil {
			l.keys[name] = make(map[string]string)
		}
		if checkable(u.Graph, obj.ObjType()) {
			l.keys[name][u.Name] = codegen.TypeKey(u.Graph, obj.ObjType())
		}
		switch {
		case def && s.Definer != "":
			l.conflict(u.Name, obj, "%s is defined in units %s and %s", name, s.Definer, u.Name)
			l.dups[obj] = true
			l.rename(u.Name, obj, l.suffixed(target.Ident(name), u.Name))
		case def:
			s.Definer = u.Name
		default:
			s.Users = append(s.Users, u.Name)
		}
	}
}

func used(d ir.Object) bool {
	switch d := d.(type) {
	case *ir.FuncDecl:
		return d.Used
	case *ir.VarDecl:
		return d.Used
	}
	return false
}

// checkable reports whether the type of a symbol says enough to be
// checked against other declarations of it.
func checkable(g *types.Graph, t types.ID) bool {
	switch u := g.Underlying(t).(type) {
	case *types.Func:
		return !u.NoProto
	case *types.Array:
		return !u.Unsized
	}
	return true
}

// nameExternals gives every external symbol its C name, or c_main for
// the C entry point. A defined symbol whose name Go reserves cannot be
// reached from C under its own name and is reported.
func (l *linker) nameExternals() {
	for _, c := range sortedKeys(l.plan.Symbols) {
		s := l.plan.Symbols[c]
		name := target.Ident(c)
		if c == "main" && s.Func {
			name = codegen.EntryName
		}
		s.Name = l.claim(name, "")
		for unit, objs := range l.objs {
			if obj, ok := objs[c]; ok && !l.dups[obj] {
				l.plan.Names[unit].Objs[obj] = s.Name
			}
		}
		if s.Name == c {
			continue
		}
		l.plan.Renames = append(l.plan.Renames, Rename{Unit: s.Definer, C: c, Go: s.Name})
		if s.Definer != "" && name != codegen.EntryName {
			l.conflict(s.Definer, l.objs[s.Definer][c], "external symbol %s is defined as %s: the name is reserved in Go", c, s.Name)
		}
	}
}

// consistency reports external symbols whose declarations disagree with
// their definition, or with each other when no unit defines them.
func (l *linker) consistency() {
	for _, c := range sortedKeys(l.plan.Symbols) {
		s := l.plan.Symbols[c]
		keys := l.keys[c]
		ref := s.Definer
		if ref == "" && len(s.Users) > 0 {
			ref = s.Users[0]
		}
		want, ok := keys[ref]
		if !ok {
			continue
		}
		for _, u := range s.Users {
			if got, ok := keys[u]; ok && got != want && u != ref {
				l.conflict(u, l.objs[u][c], "%s is declared in unit %s with a type that differs from unit %s", c, u, ref)
			}
		}
	}
}

type typeUse struct {
	unit   string
	id     types.ID
	key    string
	opaque bool
}

// nameTypes gives each nominal type its Go name. Units declaring a name
// with the same definition share one type; each different definition
// gets a name with a unit suffix. Incomplete records take the name of
// the first complete definition.
func (l *linker) nameTypes(units []*ir.Unit) {
	groups := make(map[string][]typeUse)
	for _, u := range units {
		n := l.plan.Names[u.Name]
		g := u.Graph
		for id := types.ID(1); int(id) < g.Len(); id++ {
			name := n.Types[id]
			if name == "" || !g.IsNominal(id) {
				continue
			}
			use := typeUse{unit: u.Name, id: id, key: codegen.TypeKey(g, id)}
			if r, ok := g.At(id).(*types.Record); ok && !r.Complete {
				use.opaque = true
			}
			groups[name] = append(groups[name], use)
		}
	}
	for _, name := range sortedKeys(groups) {
		named := make(map[string]string) // key -> Go name
		var first string
		for _, use := range groups[name] {
			if use.opaque {
				continue
			}
			if _, ok := named[use.key]; ok {
				continue
			}
			if first == "" {
				first = l.claim(name, use.unit)
				named[use.key] = first
			} else {
				named[use.key] = l.claim(l.suffixed(name, use.unit), "")
			}
		}
		if first == "" {
			first = l.claim(name, groups[name][0].unit)
		}
		for _, use := range groups[name] {
			goName := first
			if !use.opaque {
				goName = named[use.key]
			}
			l.plan.Names[use.unit].Types[use.id] = goName
			if goName != name {
				l.plan.Renames = append(l.plan.Renames, Rename{Unit: use.unit, C: name, Go: goName, Type: true})
			}
		}
	}
}

// nameInternals names the internal symbols and static locals of u. The
// first unit to use a name keeps it; later ones get a unit suffix.
func (l *linker) nameInternals(u *ir.Unit) {
	n := l.plan.Names[u.Name]
	var objs []ir.Object
	for _, d := range u.Decls {
		obj, ok := d.(ir.Object)
		if !ok || linkage(obj) != ir.Internal || !emitted(obj) {
			continue
		}
		objs = append(objs, obj)
		if f, ok := obj.(*ir.FuncDecl); ok {
			for _, v := range f.Locals {
				if v.Storage == ir.Static {
					objs = append(objs, v)
				}
			}
		}
	}
	for _, f := range u.Funcs() {
		if linkage(f) == ir.External && emitted(f) {
			for _, v := range f.Locals {
				if v.Storage == ir.Static {
					objs = append(objs, v)
				}
			}
		}
	}
	for _, obj := range objs {
		base := n.Objs[obj]
		name := l.claim(base, u.Name)
		if name != base {
			n.Objs[obj] = name
			l.plan.Renames = append(l.plan.Renames, Rename{Unit: u.Name, C: obj.DeclName(), Go: name})
		}
	}
}

// entry finds the entry function of a binary.
func (l *linker) entry(units []*ir.Unit) error {
	c := l.conf.Entry
	if c == "" {
		c = "main"
	}
	s := l.plan.Symbols[c]
	if s == nil || !s.Func || s.Definer == "" {
		return fmt.Errorf("entry function %s is not defined by any unit", c)
	}
	for _, u := range units {
		if u.Name != s.Definer {
			continue
		}
		fn := u.Lookup(c).(*ir.FuncDecl)
		ft := u.Graph.FuncOf(fn.Type)
		if ft == nil || len(ft.Params) > 3 || !u.Graph.IsInteger(ft.Result) && !u.Graph.IsVoid(ft.Result) {
			return fmt.Errorf("entry function %s has type %s", c, u.Graph.String(fn.Type))
		}
		l.plan.Entry = s.Name
		l.plan.EntryArgs = len(ft.Params)
	}
	return nil
}

// claim takes name for a package-level declaration. If it is taken, the
// unit suffix is added, then a number.
func (l *linker) claim(name, unit string) string {
	if codegen.Generated(name) {
		name = "c_" + name
	}
	free := func(s string) bool { return !l.taken[s] && !target.Reserved(s) }
	if !free(name) && unit != "" {
		name = l.suffixed(name, unit)
	}
	base := name
	for i := 1; !free(name); i++ {
		name = base + "_" + strconv.Itoa(i)
	}
	l.taken[name] = true
	return name
}

func (l *linker) suffixed(name, unit string) string {
	return name + "_" + target.Word(unit)
}

func (l *linker) rename(unit string, obj ir.Object, name string) {
	name = l.claim(name, "")
	l.plan.Names[unit].Objs[obj] = name
	l.plan.Renames = append(l.plan.Renames, Rename{Unit: unit, C: obj.DeclName(), Go: name})
}

func (l *linker) conflict(unit string, obj ir.Object, format string, args ...interface{}) {
	err := diag.Errorf(diag.LinkConflict, obj.Pos(), format, args...).In(obj.DeclName())
	l.plan.Errors = append(l.plan.Errors, diag.FromError(unit, err, diag.LinkConflict))
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
