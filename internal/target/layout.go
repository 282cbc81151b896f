package target

import (
	"fmt"
	"go/types"
)

// Sizes computes the layout Go's gc compiler gives the types the
// translator emits. Emitted structs are rebuilt as go/types values and
// measured here, then compared with the C layout.
type Sizes struct {
	arch  string
	sizes types.Sizes
}

// NewSizes returns the gc layout rules for goarch.
func NewSizes(goarch string) (*Sizes, error) {
	s := types.SizesFor("gc", goarch)
	if s == nil {
		return nil, fmt.Errorf("no gc layout rules for GOARCH %q", goarch)
	}
	return &Sizes{arch: goarch, sizes: s}, nil
}

// Arch returns the GOARCH the rules belong to.
func (s *Sizes) Arch() string { return s.arch }

// Int returns the Go integer type of the given size in bytes.
func Int(size int64, unsigned bool) types.Type {
	kinds := map[int64][2]types.BasicKind{
		1: {types.Int8, types.Uint8},
		2: {types.Int16, types.Uint16},
		4: {types.Int32, types.Uint32},
		8: {types.Int64, types.Uint64},
	}
	k, ok := kinds[size]
	if !ok {
		return nil
	}
	if unsigned {
		return types.Typ[k[1]]
	}
	return types.Typ[k[0]]
}

// Float returns float32 or float64.
func Float(size int64) types.Type {
	switch size {
	case 4:
		return types.Typ[types.Float32]
	case 8:
		return types.Typ[types.Float64]
	}
	return nil
}

// Pointer returns a pointer-shaped type.
func Pointer() types.Type {
	return types.Typ[types.UnsafePointer]
}

// Array returns [n]elem.
func Array(elem types.Type, n int64) types.Type {
	return types.NewArray(elem, n)
}

// Field is one member of a struct being measured.
type Field struct {
	Name string
	Type types.Type
}

// Struct returns the struct type with the given fields. Blank fields may
// repeat.
func Struct(fields []Field) *types.Struct {
	vars := make([]*types.Var, len(fields))
	for i, f := range fields {
		vars[i] = types.NewField(0, nil, f.Name, f.Type, false)
	}
	return types.NewStruct(vars, nil)
}

// StructLayout is the gc layout of a struct.
type StructLayout struct {
	Size    int64
	Align   int64
	Offsets []int64
}

// Layout measures st.
func (s *Sizes) Layout(st *types.Struct) StructLayout {
	vars := make([]*types.Var, st.NumFields())
	for i := range vars {
		vars[i] = st.Field(i)
	}
	return StructLayout{
		Size:    s.sizes.Sizeof(st),
		Align:   s.sizes.Alignof(st),
		Offsets: s.sizes.Offsetsof(vars),
	}
}

// Sizeof returns the gc size of t.
func (s *Sizes) Sizeof(t types.Type) int64 { return s.sizes.Sizeof(t) }

// Alignof returns the gc alignment of t.
func (s *Sizes) Alignof(t types.Type) int64 { return s.sizes.Alignof(t) }

// Carrier returns the unsigned integer type whose alignment is align, used
// as a zero-length leading field to raise a struct's alignment. It returns
// nil when no such type exists on the architecture.
func (s *Sizes) Carrier(align int64) (name string, t types.Type) {
	for _, c := range []struct {
		name string
		kind types.BasicKind
	}{{"uint8", types.Uint8}, {"uint16", types.Uint16}, {"uint32", types.Uint32}, {"uint64", types.Uint64}} {
		bt := types.Typ[c.kind]
		if s.sizes.Alignof(bt) == align {
			return c.name, bt
		}
	}
	return "", nil
}
