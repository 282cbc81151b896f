package types

// basic returns the scalar descriptor of id after resolving typedefs and
// enums, or nil.
func (g *Graph) basic(id ID) *Basic {
	switch t := g.Underlying(id).(type) {
	case *Basic:
		return t
	case *Enum:
		b, _ := g.Underlying(t.Underlying).(*Basic)
		return b
	}
	return nil
}

// BasicKindOf returns the scalar kind of id, with enums reported as their
// underlying integer kind. Non-scalars report InvalidKind.
func (g *Graph) BasicKindOf(id ID) BasicKind {
	if b := g.basic(id); b != nil {
		return b.kind
	}
	return InvalidKind
}

// IsVoid reports whether id is void.
func (g *Graph) IsVoid(id ID) bool {
	b, ok := g.Underlying(id).(*Basic)
	return ok && b.kind == Void
}

// IsBool reports whether id is _Bool.
func (g *Graph) IsBool(id ID) bool {
	b, ok := g.Underlying(id).(*Basic)
	return ok && b.kind == Bool
}

// IsInteger reports whether id is an integer or enum type.
func (g *Graph) IsInteger(id ID) bool {
	b := g.basic(id)
	return b != nil && b.Info()&IsInteger != 0
}

// IsFloat reports whether id is a floating point type.
func (g *Graph) IsFloat(id ID) bool {
	b := g.basic(id)
	return b != nil && b.Info()&IsFloat != 0
}

// IsArithmetic reports whether id is an integer or floating point type.
func (g *Graph) IsArithmetic(id ID) bool {
	b := g.basic(id)
	return b != nil && b.Info()&IsNumeric != 0
}

// IsPointer reports whether id is a pointer type.
func (g *Graph) IsPointer(id ID) bool {
	_, ok := g.Underlying(id).(*Pointer)
	return ok
}

// IsScalar reports whether id is arithmetic or a pointer.
func (g *Graph) IsScalar(id ID) bool {
	return g.IsArithmetic(id) || g.IsPointer(id)
}

// IsArray reports whether id is an array type.
func (g *Graph) IsArray(id ID) bool {
	_, ok := g.Underlying(id).(*Array)
	return ok
}

// IsRecord reports whether id is a struct or union type.
func (g *Graph) IsRecord(id ID) bool {
	_, ok := g.Underlying(id).(*Record)
	return ok
}

// IsFunc reports whether id is a function type.
func (g *Graph) IsFunc(id ID) bool {
	_, ok := g.Underlying(id).(*Func)
	return ok
}

// IsFuncPointer reports whether id is a pointer to a function type.
func (g *Graph) IsFuncPointer(id ID) bool {
	p, ok := g.Underlying(id).(*Pointer)
	return ok && g.IsFunc(p.Elem)
}

// Elem returns the element type of a pointer or array, or Invalid.
func (g *Graph) Elem(id ID) ID {
	switch t := g.Underlying(id).(type) {
	case *Pointer:
		return t.Elem
	case *Array:
		return t.Elem
	}
	return Invalid
}

// FuncOf returns the function descriptor of a function or function pointer
// type, or nil.
func (g *Graph) FuncOf(id ID) *Func {
	switch t := g.Underlying(id).(type) {
	case *Func:
		return t
	case *Pointer:
		f, _ := g.Underlying(t.Elem).(*Func)
		return f
	}
	return nil
}
