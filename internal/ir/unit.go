package ir

import "github.com/you-not-fish/cmigrate/internal/types"

// Unit is one imported translation unit.
type Unit struct {
	Name  string // unique unit name, derived from the source file
	File  string // main source file
	Graph *types.Graph
	Sizes *types.Sizes

	// Decls holds file scope declarations in source order. Each global
	// variable and function appears once, at its first declaration.
	Decls []Decl

	// Errors holds one *diag.Error per declaration the importer dropped.
	Errors []error
}

// Funcs returns the functions declared by the unit.
func (u *Unit) Funcs() []*FuncDecl {
	var fs []*FuncDecl
	for _, d := range u.Decls {
		if f, ok := d.(*FuncDecl); ok {
			fs = append(fs, f)
		}
	}
	return fs
}

// Vars returns the global variables declared by the unit.
func (u *Unit) Vars() []*VarDecl {
	var vs []*VarDecl
	for _, d := range u.Decls {
		if v, ok := d.(*VarDecl); ok {
			vs = append(vs, v)
		}
	}
	return vs
}

// Lookup returns the function or global variable with the given name.
func (u *Unit) Lookup(name string) Object {
	for _, d := range u.Decls {
		if o, ok := d.(Object); ok && o.DeclName() == name {
			return o
		}
	}
	return nil
}
