package ir

import (
	"github.com/you-not-fish/cmigrate/internal/syntax"
	"github.com/you-not-fish/cmigrate/internal/types"
)

// Linkage is the C linkage of a declared name.
type Linkage uint8

const (
	NoLinkage Linkage = iota // locals and parameters
	Internal                 // static at file scope
	External
)

func (l Linkage) String() string {
	switch l {
	case Internal:
		return "internal"
	case External:
		return "external"
	}
	return "none"
}

// StorageClass is the storage class a declaration was written with.
type StorageClass uint8

const (
	Auto StorageClass = iota
	Static
	Extern
	Register
)

// Object is a declaration an expression can refer to by name.
type Object interface {
	Decl
	ObjType() types.ID
}

// VarDecl declares a global variable, a local variable or a parameter.
// Redeclarations of one global share a single VarDecl.
type VarDecl struct {
	decl
	Name    string
	Type    types.ID
	Linkage Linkage
	Storage StorageClass
	Init    Expr // nil if absent

	Local     bool // declared in a function body
	Param     bool
	Defined   bool // a definition (including a tentative one) exists in the unit
	Addressed bool // the address is taken
	Used      bool
	InMain    bool // defined in the main file rather than a header

	// Err records why the initializer could not be imported. The
	// variable is then emitted zero-initialized with a marker.
	Err error
}

func (d *VarDecl) DeclName() string  { return d.Name }
func (d *VarDecl) ObjType() types.ID { return d.Type }

// Static reports whether the variable has static storage duration.
func (d *VarDecl) Static() bool {
	return !d.Local || d.Storage == Static || d.Storage == Extern
}

// FuncDecl declares or defines a function.
type FuncDecl struct {
	decl
	Name    string
	Type    types.ID // a *types.Func
	Linkage Linkage
	Inline  bool
	Params  []*VarDecl
	Body    *Block // nil for a declaration

	Locals []*VarDecl // block scope variables in declaration order
	Labels []*Label   // labels in declaration order
	Sites  []*Site    // instrumented call sites in source order
	Ptrs   []PtrFacts // pointer parameter facts, parallel to Params

	Used   bool
	InMain bool

	// Err records the first construct the importer could not represent.
	// The function is then emitted as a stub with its signature.
	Err error
}

func (d *FuncDecl) DeclName() string  { return d.Name }
func (d *FuncDecl) ObjType() types.ID { return d.Type }

// Defined reports whether the unit defines the function.
func (d *FuncDecl) Defined() bool { return d.Body != nil }

// TypeDecl records a struct, union, enum or typedef declared by the unit.
// Types themselves live in the graph; the declaration keeps source order
// for output.
type TypeDecl struct {
	decl
	Name string
	Type types.ID
}

func (d *TypeDecl) DeclName() string { return d.Name }

// A Label is a statement label in a function body.
type Label struct {
	Name      string
	Pos       syntax.Pos
	Addressed bool // taken by &&label
	Defined   bool // a labeled statement exists
	Used      bool // target of a goto
}

// A Site is a call expression selected for cross-checking.
type Site struct {
	ID      uint32
	Callee  string
	Ordinal int // occurrence of Callee within the function, from 0
	Call    *Call

	// Offset and TokLen locate the callee token in the main file. Sites
	// whose callee comes from a macro expansion have Macro set and are
	// not rewritten on the C side.
	Offset int64
	TokLen int
	Macro  bool
}

// PtrFacts summarizes how a pointer parameter is used by its function.
// Arithmetic is split by direction: p[i] and p + i with a signed i that is
// not a constant may move either way.
type PtrFacts struct {
	Store     bool // the pointee is written through it
	Load      bool // the pointee is read through it
	PosOffset bool // it is moved towards higher addresses
	NegOffset bool // it is moved towards lower addresses
	Escape    bool // it is copied somewhere other than a local

	// NonUnique is set when the pointee is reached through two different
	// variables derived from the parameter, or one call receives it twice.
	NonUnique bool
}

// NewVarDecl returns a VarDecl at pos.
func NewVarDecl(pos syntax.Pos, name string, typ types.ID) *VarDecl {
	d := &VarDecl{Name: name, Type: typ}
	d.pos = pos
	return d
}

// NewFuncDecl returns a FuncDecl at pos.
func NewFuncDecl(pos syntax.Pos, name string, typ types.ID) *FuncDecl {
	d := &FuncDecl{Name: name, Type: typ}
	d.pos = pos
	return d
}

// NewTypeDecl returns a TypeDecl at pos.
func NewTypeDecl(pos syntax.Pos, name string, typ types.ID) *TypeDecl {
	d := &TypeDecl{Name: name, Type: typ}
	d.pos = pos
	return d
}
