package types

import (
	"fmt"
	"strings"

	"github.com/you-not-fish/cmigrate/internal/syntax"
)

// Graph owns every type of one translation unit. Structural types
// (pointers, arrays, functions) are interned so equal structures share an
// ID; records, enums and typedefs are created fresh each time.
type Graph struct {
	types  []Type
	pos    []syntax.Pos
	basics [basicKindCount]ID

	ptrs   map[Pointer]ID
	arrays map[Array]ID
	funcs  map[string]ID
}

// NewGraph returns a graph holding only the predeclared scalar types.
func NewGraph() *Graph {
	g := &Graph{
		types:  []Type{nil},
		pos:    []syntax.Pos{{}},
		ptrs:   make(map[Pointer]ID),
		arrays: make(map[Array]ID),
		funcs:  make(map[string]ID),
	}
	for k := Void; k < basicKindCount; k++ {
		g.basics[k] = g.add(&Basic{kind: k}, syntax.Pos{})
	}
	return g
}

func (g *Graph) add(t Type, pos syntax.Pos) ID {
	g.types = append(g.types, t)
	g.pos = append(g.pos, pos)
	return ID(len(g.types) - 1)
}

// Len returns the number of IDs in the graph, including Invalid.
func (g *Graph) Len() int {
	return len(g.types)
}

// At returns the descriptor for id, or nil for Invalid or out of range IDs.
func (g *Graph) At(id ID) Type {
	if id <= 0 || int(id) >= len(g.types) {
		return nil
	}
	return g.types[id]
}

// Pos returns the declaration position recorded for a nominal type.
func (g *Graph) Pos(id ID) syntax.Pos {
	if id <= 0 || int(id) >= len(g.pos) {
		return syntax.Pos{}
	}
	return g.pos[id]
}

// Basic returns the ID of the scalar type of the given kind.
func (g *Graph) Basic(kind BasicKind) ID {
	return g.basics[kind]
}

// NewUnsupported returns a fresh scalar of the given unrepresentable kind
// carrying its C spelling for diagnostics.
func (g *Graph) NewUnsupported(kind BasicKind, spelling string) ID {
	return g.add(&Basic{kind: kind, name: spelling}, syntax.Pos{})
}

// NewPointer returns the pointer type to elem.
func (g *Graph) NewPointer(elem ID, constElem bool) ID {
	key := Pointer{Elem: elem, Const: constElem}
	if id, ok := g.ptrs[key]; ok {
		return id
	}
	p := key
	id := g.add(&p, syntax.Pos{})
	g.ptrs[key] = id
	return id
}

// NewArray returns the array type elem[n].
func (g *Graph) NewArray(elem ID, n int64) ID {
	return g.array(Array{Elem: elem, Len: n})
}

// NewUnsizedArray returns the incomplete array type elem[].
func (g *Graph) NewUnsizedArray(elem ID) ID {
	return g.array(Array{Elem: elem, Unsized: true})
}

// NewVLA returns a variable length array type of elem.
func (g *Graph) NewVLA(elem ID) ID {
	return g.array(Array{Elem: elem, VLA: true})
}

func (g *Graph) array(key Array) ID {
	if id, ok := g.arrays[key]; ok {
		return id
	}
	a := key
	id := g.add(&a, syntax.Pos{})
	g.arrays[key] = id
	return id
}

// NewFunc returns the function type with the given signature.
func (g *Graph) NewFunc(result ID, params []ID, variadic, noProto bool) ID {
	var key strings.Builder
	fmt.Fprintf(&key, "%d(", result)
	for _, p := range params {
		fmt.Fprintf(&key, "%d,", p)
	}
	fmt.Fprintf(&key, ")%t%t", variadic, noProto)
	if id, ok := g.funcs[key.String()]; ok {
		return id
	}
	f := &Func{Result: result, Params: append([]ID(nil), params...), Variadic: variadic, NoProto: noProto}
	id := g.add(f, syntax.Pos{})
	g.funcs[key.String()] = id
	return id
}

// NewRecord returns a new, incomplete struct or union type.
func (g *Graph) NewRecord(tag string, union bool, pos syntax.Pos) ID {
	return g.add(&Record{Tag: tag, Union: union}, pos)
}

// Complete sets the members of the record id.
func (g *Graph) Complete(id ID, fields []Field, packed bool, alignAttr int64) {
	r := g.types[id].(*Record)
	r.Fields = fields
	r.Packed = packed
	r.AlignAttr = alignAttr
	r.Complete = true
}

// NewEnum returns a new enumeration type.
func (g *Graph) NewEnum(tag string, underlying ID, pos syntax.Pos) ID {
	return g.add(&Enum{Tag: tag, Underlying: underlying}, pos)
}

// NewTypedef returns a new typedef name for alias.
func (g *Graph) NewTypedef(name string, alias ID, pos syntax.Pos) ID {
	return g.add(&Typedef{Name: name, Alias: alias}, pos)
}

// Record returns the record descriptor for id, or nil.
func (g *Graph) Record(id ID) *Record {
	r, _ := g.At(id).(*Record)
	return r
}

// Resolve strips typedefs from id.
func (g *Graph) Resolve(id ID) ID {
	for i := 0; i < len(g.types); i++ {
		td, ok := g.At(id).(*Typedef)
		if !ok {
			return id
		}
		id = td.Alias
	}
	return Invalid
}

// Underlying returns the descriptor of id with typedefs stripped.
func (g *Graph) Underlying(id ID) Type {
	return g.At(g.Resolve(id))
}
