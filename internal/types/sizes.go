package types

import (
	"github.com/cznic/mathutil"

	"github.com/you-not-fish/cmigrate/internal/abi"
	"github.com/you-not-fish/cmigrate/internal/diag"
)

// Layout is the computed memory layout of a record.
type Layout struct {
	Size   int64
	Align  int64
	Fields []FieldLayout // parallel to Record.Fields
}

// FieldLayout places one record member. Offsets are in bits so bitfields
// and ordinary members share one representation.
type FieldLayout struct {
	BitOffset int64
	BitWidth  int64 // bitfield width, or the member size in bits
}

// ByteOffset returns the offset of the byte containing the first bit of
// the member.
func (f FieldLayout) ByteOffset() int64 {
	return f.BitOffset / 8
}

// ByteSpan returns the half-open byte range [lo, hi) covering the member.
func (f FieldLayout) ByteSpan() (lo, hi int64) {
	return f.BitOffset / 8, (f.BitOffset + f.BitWidth + 7) / 8
}

// Sizes computes sizes, alignments and record layouts for the types of one
// graph under one ABI target. Record layouts are computed once and cached.
type Sizes struct {
	target *abi.Target
	g      *Graph

	layouts map[ID]*Layout
	errs    map[ID]error
	busy    map[ID]bool
}

// NewSizes returns a Sizes for g under target t.
func NewSizes(g *Graph, t *abi.Target) *Sizes {
	return &Sizes{
		target:  t,
		g:       g,
		layouts: make(map[ID]*Layout),
		errs:    make(map[ID]error),
		busy:    make(map[ID]bool),
	}
}

// Target returns the ABI target.
func (s *Sizes) Target() *abi.Target {
	return s.target
}

// Graph returns the type graph.
func (s *Sizes) Graph() *Graph {
	return s.g
}

// Unsigned reports whether an integer type is unsigned on the target.
func (s *Sizes) Unsigned(id ID) bool {
	b := s.g.basic(id)
	if b == nil {
		return s.g.IsPointer(id)
	}
	if b.kind == Char {
		return !s.target.CharSigned
	}
	return b.Info()&IsUnsigned != 0
}

// Sizeof returns the size of id in bytes. Types that cannot be laid out
// report 0; Check explains why.
func (s *Sizes) Sizeof(id ID) int64 {
	switch t := s.g.At(id).(type) {
	case *Basic:
		return s.basicSize(t.kind)
	case *Pointer:
		return s.target.SizePtr
	case *Array:
		if t.Unsized || t.VLA {
			return 0
		}
		return t.Len * s.Sizeof(t.Elem)
	case *Func:
		return 1
	case *Record:
		if l, err := s.Layout(id); err == nil {
			return l.Size
		}
	case *Enum:
		return s.Sizeof(t.Underlying)
	case *Typedef:
		return s.Sizeof(t.Alias)
	}
	return 0
}

// Alignof returns the alignment of id in bytes.
func (s *Sizes) Alignof(id ID) int64 {
	switch t := s.g.At(id).(type) {
	case *Basic:
		return s.basicAlign(t.kind)
	case *Pointer:
		return s.target.AlignPtr
	case *Array:
		return s.Alignof(t.Elem)
	case *Record:
		if l, err := s.Layout(id); err == nil {
			return l.Align
		}
	case *Enum:
		return s.Alignof(t.Underlying)
	case *Typedef:
		return s.Alignof(t.Alias)
	}
	return 1
}

// Check reports whether id has a layout the translator can reproduce.
func (s *Sizes) Check(id ID) error {
	return s.check(id, 0)
}

func (s *Sizes) check(id ID, depth int) error {
	if depth > 64 {
		return diag.Errorf(diag.UnsupportedType, s.g.Pos(id), "type nesting too deep")
	}
	switch t := s.g.At(id).(type) {
	case nil:
		return diag.Errorf(diag.UnsupportedType, s.g.Pos(id), "invalid type")
	case *Basic:
		if !s.representable(t.kind) {
			return diag.Errorf(diag.UnsupportedType, s.g.Pos(id), "%s has no target representation", t.Name())
		}
	case *Pointer:
		// Pointers are always one word; the pointee may stay opaque.
	case *Array:
		if t.VLA {
			return diag.Errorf(diag.UnsupportedType, s.g.Pos(id), "variable length array")
		}
		return s.check(t.Elem, depth+1)
	case *Func:
		if err := s.check(t.Result, depth+1); err != nil && !s.g.IsVoid(t.Result) {
			return err
		}
		for _, p := range t.Params {
			if err := s.check(p, depth+1); err != nil {
				return err
			}
		}
	case *Record:
		_, err := s.Layout(id)
		return err
	case *Enum:
		return s.check(t.Underlying, depth+1)
	case *Typedef:
		return s.check(t.Alias, depth+1)
	}
	return nil
}

// Layout returns the layout of a record type.
func (s *Sizes) Layout(id ID) (*Layout, error) {
	id = s.g.Resolve(id)
	if l, ok := s.layouts[id]; ok {
		return l, nil
	}
	if err, ok := s.errs[id]; ok {
		return nil, err
	}
	r := s.g.Record(id)
	if r == nil {
		return nil, diag.Errorf(diag.UnsupportedType, s.g.Pos(id), "%s is not a record", s.g.String(id))
	}
	if !r.Complete {
		err := diag.Errorf(diag.UnsupportedType, s.g.Pos(id), "%s is incomplete", s.g.String(id))
		s.errs[id] = err
		return nil, err
	}
	if r.Unsupported != "" {
		err := diag.Errorf(diag.UnsupportedType, s.g.Pos(id), "%s: %s", s.g.String(id), r.Unsupported)
		s.errs[id] = err
		return nil, err
	}
	if s.busy[id] {
		return nil, diag.Errorf(diag.UnsupportedType, s.g.Pos(id), "%s contains itself", s.g.String(id))
	}
	s.busy[id] = true
	var l *Layout
	var err error
	if r.Union {
		l, err = s.unionLayout(id, r)
	} else {
		l, err = s.structLayout(id, r)
	}
	delete(s.busy, id)
	if err != nil {
		s.errs[id] = err
		return nil, err
	}
	s.layouts[id] = l
	return l, nil
}

func (s *Sizes) memberCheck(id ID, r *Record, i int) error {
	f := r.Fields[i]
	if a, ok := s.g.Underlying(f.Type).(*Array); ok && a.Unsized {
		if r.Union || i != len(r.Fields)-1 {
			return diag.Errorf(diag.UnsupportedType, s.g.Pos(id), "flexible array member %s is not last", f.Name)
		}
		return s.check(a.Elem, 1)
	}
	if err := s.check(f.Type, 1); err != nil {
		return diag.Errorf(diag.UnsupportedType, s.g.Pos(id), "member %s of %s: %v", f.Name, s.g.String(id), msgOf(err))
	}
	if f.Bitfield {
		if !s.g.IsInteger(f.Type) {
			return diag.Errorf(diag.UnsupportedType, s.g.Pos(id), "bitfield %s has non-integer type %s", f.Name, s.g.String(f.Type))
		}
		if !s.target.LittleEndian() {
			return diag.Errorf(diag.UnsupportedType, s.g.Pos(id), "bitfield %s on big-endian target %s", f.Name, s.target.Name)
		}
		if f.Width < 0 || f.Width > s.Sizeof(f.Type)*8 {
			return diag.Errorf(diag.UnsupportedType, s.g.Pos(id), "bitfield %s width %d exceeds its type", f.Name, f.Width)
		}
	}
	return nil
}

func msgOf(err error) string {
	if de, ok := err.(*diag.Error); ok {
		return de.Msg
	}
	return err.Error()
}

// structLayout follows the SysV placement rules: ordinary members are
// aligned to their type, bitfields are packed into the current storage unit
// unless they would straddle a boundary of their declared type.
func (s *Sizes) structLayout(id ID, r *Record) (*Layout, error) {
	rules := s.target.Bitfields
	l := &Layout{Align: 1, Fields: make([]FieldLayout, len(r.Fields))}
	var bits int64

	for i, f := range r.Fields {
		if err := s.memberCheck(id, r, i); err != nil {
			return nil, err
		}
		size := s.Sizeof(f.Type)
		align := s.memberAlign(r, f)

		if f.Bitfield {
			unit := size * 8
			typeAlign := s.Alignof(f.Type)
			if f.Width == 0 {
				if rules.ZeroWidthAligns && !r.Packed {
					bits = alignTo(bits, typeAlign*8)
				}
				l.Fields[i] = FieldLayout{BitOffset: bits}
				continue
			}
			// A field that would cross a unit boundary moves to the next
			// boundary. Units start at multiples of the type's alignment,
			// which is less than its size for long long on i686.
			if !r.Packed && !rules.Straddle && bits%(typeAlign*8)+f.Width > unit {
				bits = alignTo(bits, typeAlign*8)
			}
			if f.AlignAttr > 0 {
				bits = alignTo(bits, f.AlignAttr*8)
			}
			l.Fields[i] = FieldLayout{BitOffset: bits, BitWidth: f.Width}
			bits += f.Width
			if (f.Name != "" && rules.NamedAffectAlign) || (f.Name == "" && rules.UnnamedAffectAlign) {
				l.Align = mathutil.MaxInt64(l.Align, align)
			}
			if start := l.Fields[i].BitOffset; start+f.Width-start/8*8 > 64 {
				return nil, diag.Errorf(diag.UnsupportedType, s.g.Pos(id), "bitfield %s spans more than 8 bytes", f.Name)
			}
			continue
		}

		bits = alignTo(bits, align*8)
		l.Fields[i] = FieldLayout{BitOffset: bits, BitWidth: size * 8}
		bits += size * 8
		l.Align = mathutil.MaxInt64(l.Align, align)
	}

	if r.AlignAttr > 0 {
		l.Align = mathutil.MaxInt64(l.Align, r.AlignAttr)
	}
	l.Size = alignTo(bits, l.Align*8) / 8
	return l, nil
}

func (s *Sizes) unionLayout(id ID, r *Record) (*Layout, error) {
	rules := s.target.Bitfields
	l := &Layout{Align: 1, Fields: make([]FieldLayout, len(r.Fields))}
	var size int64

	for i, f := range r.Fields {
		if err := s.memberCheck(id, r, i); err != nil {
			return nil, err
		}
		align := s.memberAlign(r, f)
		if f.Bitfield {
			l.Fields[i] = FieldLayout{BitWidth: f.Width}
			size = mathutil.MaxInt64(size, (f.Width+7)/8)
			if f.Width > 0 && ((f.Name != "" && rules.NamedAffectAlign) || (f.Name == "" && rules.UnnamedAffectAlign)) {
				l.Align = mathutil.MaxInt64(l.Align, align)
			}
			continue
		}
		fs := s.Sizeof(f.Type)
		l.Fields[i] = FieldLayout{BitWidth: fs * 8}
		size = mathutil.MaxInt64(size, fs)
		l.Align = mathutil.MaxInt64(l.Align, align)
	}

	if r.AlignAttr > 0 {
		l.Align = mathutil.MaxInt64(l.Align, r.AlignAttr)
	}
	l.Size = alignTo(size, l.Align)
	return l, nil
}

// memberAlign is the alignment a member imposes inside r.
func (s *Sizes) memberAlign(r *Record, f Field) int64 {
	a := s.Alignof(f.Type)
	if r.Packed {
		a = 1
	}
	if f.AlignAttr > a {
		a = f.AlignAttr
	}
	return a
}

func (s *Sizes) representable(k BasicKind) bool {
	switch k {
	case InvalidKind, Int128, UInt128, Float128, Complex, Vector:
		return false
	case LongDouble:
		return s.target.LongDoubleIsDouble
	}
	return true
}

func (s *Sizes) basicSize(k BasicKind) int64 {
	t := s.target
	switch k {
	case Void, Bool, Char, SChar, UChar:
		return 1
	case Short, UShort:
		return t.SizeShort
	case Int, UInt:
		return t.SizeInt
	case Long, ULong:
		return t.SizeLong
	case LongLong, ULongLong:
		return t.SizeLongLong
	case Float:
		return t.SizeFloat
	case Double:
		return t.SizeDouble
	case LongDouble:
		return t.SizeLongDouble
	case Int128, UInt128, Float128:
		return 16
	}
	return 0
}

func (s *Sizes) basicAlign(k BasicKind) int64 {
	t := s.target
	switch k {
	case Void, Bool, Char, SChar, UChar:
		return 1
	case Short, UShort:
		return t.AlignShort
	case Int, UInt:
		return t.AlignInt
	case Long, ULong:
		return t.AlignLong
	case LongLong, ULongLong:
		return t.AlignLongLong
	case Float:
		return t.AlignFloat
	case Double:
		return t.AlignDouble
	case LongDouble:
		return t.AlignLongDouble
	case Int128, UInt128, Float128:
		return 16
	}
	return 1
}

// alignTo returns x rounded up to a multiple of a.
func alignTo(x, a int64) int64 {
	if a <= 1 {
		return x
	}
	return (x + a - 1) / a * a
}
