package codegen

import (
	"fmt"
	"strconv"

	"github.com/you-not-fish/cmigrate/internal/ir"
	"github.com/you-not-fish/cmigrate/internal/target"
	"github.com/you-not-fish/cmigrate/internal/types"
)

// EntryName is the Go name of a C function called main.
const EntryName = "c_main"

// Names is a Namer backed by explicit tables.
type Names struct {
	Objs  map[ir.Object]string
	Types map[types.ID]string
}

// Object implements Namer.
func (n *Names) Object(obj ir.Object) string {
	if s, ok := n.Objs[obj]; ok {
		return s
	}
	return target.Ident(obj.DeclName())
}

// Type implements Namer.
func (n *Names) Type(id types.ID) string {
	return n.Types[id]
}

// NewNames returns the unit's own names: C identifiers made valid Go,
// static locals prefixed with their function, and types named by tag,
// typedef or declaration context. Names within the unit are distinct.
func NewNames(unit *ir.Unit) *Names {
	n := &Names{
		Objs:  make(map[ir.Object]string),
		Types: make(map[types.ID]string),
	}
	taken := make(map[string]bool)
	claim := func(base string) string {
		if Generated(base) {
			base = "c_" + base
		}
		name := base
		for i := 1; taken[name] || target.Reserved(name); i++ {
			name = base + "_" + strconv.Itoa(i)
		}
		taken[name] = true
		return name
	}

	for _, d := range unit.Decls {
		obj, ok := d.(ir.Object)
		if !ok {
			continue
		}
		name := target.Ident(obj.DeclName())
		if f, ok := obj.(*ir.FuncDecl); ok && f.Name == "main" {
			name = EntryName
		}
		n.Objs[obj] = claim(name)
	}
	for _, f := range unit.Funcs() {
		for _, v := range f.Locals {
			if v.Storage == ir.Static {
				n.Objs[v] = claim(target.Ident(f.Name + "_" + v.Name))
			}
		}
	}

	g := unit.Graph
	// Typedef names come first; a record or enum named only through a
	// typedef takes the typedef's name.
	owner := make(map[types.ID]string)
	for id := types.ID(1); int(id) < g.Len(); id++ {
		td, ok := g.At(id).(*types.Typedef)
		if !ok {
			continue
		}
		name := claim(target.Ident(td.Name))
		n.Types[id] = name
		alias := td.Alias
		switch g.At(alias).(type) {
		case *types.Record, *types.Enum:
			tag := tagOf(g, alias)
			if _, done := owner[alias]; !done && (tag == "" || tag == td.Name) {
				owner[alias] = name
			}
		}
	}
	for id := types.ID(1); int(id) < g.Len(); id++ {
		switch t := g.At(id).(type) {
		case *types.Record:
			n.Types[id] = tagName(id, t.Tag, t.Hint, t.Kind(), owner, claim)
		case *types.Enum:
			n.Types[id] = tagName(id, t.Tag, t.Hint, "enum", owner, claim)
		}
	}
	return n
}

// tagName names a record or enum.
func tagName(id types.ID, tag, hint, kind string, owner map[types.ID]string, claim func(string) string) string {
	if name, ok := owner[id]; ok {
		return name
	}
	if tag != "" {
		base := target.Ident(tag)
		return claim(base)
	}
	if hint != "" {
		return claim(target.Ident(hint))
	}
	return claim(fmt.Sprintf("%s%d", kind, int32(id)))
}

func tagOf(g *types.Graph, id types.ID) string {
	switch t := g.At(id).(type) {
	case *types.Record:
		return t.Tag
	case *types.Enum:
		return t.Tag
	}
	return ""
}

// newUnitNames returns the Namer used when the caller supplies none.
func newUnitNames(unit *ir.Unit) Namer {
	return NewNames(unit)
}

// localNames assigns Go names to the parameters and locals of one
// function, avoiding each other and every package-level name the unit
// uses.
type localNames struct {
	global func(string) bool
	taken  map[string]bool
	names  map[*ir.VarDecl]string
	tmp    int
}

func newLocalNames(global func(string) bool) *localNames {
	return &localNames{
		global: global,
		taken:  make(map[string]bool),
		names:  make(map[*ir.VarDecl]string),
	}
}

func (l *localNames) free(name string) bool {
	return !l.taken[name] && !l.global(name) && !target.Reserved(name)
}

// declare names v.
func (l *localNames) declare(v *ir.VarDecl) string {
	base := target.Ident(v.Name)
	if v.Name == "" {
		base = "p"
	}
	if Generated(base) {
		base = "c_" + base
	}
	name := base
	for i := 1; !l.free(name); i++ {
		name = base + "_" + strconv.Itoa(i)
	}
	l.taken[name] = true
	l.names[v] = name
	return name
}

// temp returns a fresh temporary name.
func (l *localNames) temp() string {
	for {
		l.tmp++
		name := "t" + strconv.Itoa(l.tmp)
		if l.free(name) {
			l.taken[name] = true
			return name
		}
	}
}
