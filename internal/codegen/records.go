package codegen

import (
	"fmt"
	gotypes "go/types"
	"strings"

	"github.com/cznic/mathutil"

	"github.com/you-not-fish/cmigrate/internal/diag"
	"github.com/you-not-fish/cmigrate/internal/target"
	"github.com/you-not-fish/cmigrate/internal/types"
)

// fieldKind says how a record member is represented in the Go struct.
type fieldKind uint8

const (
	fieldDirect fieldKind = iota // Go field of the member's type
	fieldBytes                   // byte array reinterpreted on access
	fieldBits                    // bitfield inside shared byte storage
	fieldAddr                    // no Go field; an accessor method returns its address
	fieldNone                    // zero-width or unnamed bitfield
)

// fieldRepr places one member of a record.
type fieldRepr struct {
	kind   fieldKind
	name   string // Go field name, or method name for fieldAddr
	typ    types.ID
	offset int64 // byte offset in the record

	// fieldBits
	storage string // storage field holding the bits
	lo, n   int64  // storage bytes [lo, lo+n) covering the bitfield
	shift   int64  // bit position of the field in byte lo
	width   int64
	signed  bool
}

// recordRepr is the Go form of one C record.
type recordRepr struct {
	id     types.ID
	name   string
	union  bool
	layout *types.Layout
	fields []fieldRepr
	decl   string          // type declaration and methods
	gt     *gotypes.Struct // for measuring records that contain this one
	err    error           // why the layout cannot be reproduced
}

// record returns the representation of the record id, building it on
// first use.
func (g *gen) record(id types.ID) *recordRepr {
	id = g.g.Resolve(id)
	if r, ok := g.records[id]; ok {
		return r
	}
	rec := g.g.Record(id)
	r := &recordRepr{id: id, name: g.typeName(id), union: rec != nil && rec.Union}
	g.records[id] = r

	l, err := g.sizes.Layout(id)
	if err != nil || rec == nil {
		if err == nil {
			err = diag.Errorf(diag.UnsupportedType, g.g.Pos(id), "%s is not a record", g.g.String(id))
		}
		r.err = err
		r.gt = target.Struct(nil)
		r.decl = fmt.Sprintf("type %s struct{ _ [0]byte }\n", r.name)
		return r
	}
	r.layout = l
	if rec.Union {
		g.buildUnion(r, rec)
	} else {
		g.buildStruct(r, rec)
	}
	return r
}

// recordErr reports whether any record contained in id, by value or
// through a pointer, has no faithful Go layout.
func (g *gen) recordErr(id types.ID) error {
	if err, ok := g.badType[id]; ok {
		return err
	}
	g.badType[id] = nil
	var err error
	for _, x := range types.Closure(g.g, []types.ID{id}) {
		rec := g.g.Record(x)
		if rec == nil || !rec.Complete {
			continue
		}
		if r := g.record(x); r.err != nil {
			err = r.err
			break
		}
	}
	g.badType[id] = err
	return err
}

// goTypeOf returns the go/types form of a C type, used to measure how gc
// lays out an emitted struct.
func (g *gen) goTypeOf(id types.ID) gotypes.Type {
	switch t := g.g.Underlying(id).(type) {
	case *types.Basic:
		if t.Info()&types.IsFloat != 0 {
			return target.Float(g.sizes.Sizeof(id))
		}
		return target.Int(g.sizes.Sizeof(id), g.sizes.Unsigned(id))
	case *types.Enum:
		return g.goTypeOf(t.Underlying)
	case *types.Pointer, *types.Func:
		return target.Pointer()
	case *types.Array:
		n := t.Len
		if t.Unsized || t.VLA {
			n = 0
		}
		return target.Array(g.goTypeOf(t.Elem), n)
	case *types.Record:
		return g.record(id).gt
	}
	return target.Struct(nil)
}

// structBuilder accumulates the fields of an emitted struct along with
// their go/types form.
type structBuilder struct {
	lines  []string
	fields []target.Field
	cur    int64 // Go offset after the last field
	align  int64 // largest Go alignment of any field
}

func (b *structBuilder) add(name, typ string, gt gotypes.Type, size, align int64) {
	b.lines = append(b.lines, name+" "+typ)
	b.fields = append(b.fields, target.Field{Name: name, Type: gt})
	b.cur += size
	b.align = mathutil.MaxInt64(b.align, align)
}

func (b *structBuilder) pad(to int64) {
	if to > b.cur {
		n := to - b.cur
		b.add("_", fmt.Sprintf("[%d]byte", n), target.Array(target.Int(1, true), n), n, 1)
	}
}

func memberName(name string, i int) string {
	if name == "" {
		return fmt.Sprintf("_anon%d", i)
	}
	return target.Ident(name)
}

// buildStruct lays out a struct: members Go would place at the C offset
// become ordinary fields, the rest byte arrays; runs of bitfields share
// one byte array; padding is explicit.
func (g *gen) buildStruct(r *recordRepr, rec *types.Record) {
	l := r.layout
	r.fields = make([]fieldRepr, len(rec.Fields))
	b := &structBuilder{align: 1}
	var methods []string
	storage := 0

	for i := 0; i < len(rec.Fields); i++ {
		f := rec.Fields[i]
		fl := l.Fields[i]
		if f.Bitfield {
			j := i
			lo, hi := fl.ByteSpan()
			for j+1 < len(rec.Fields) && rec.Fields[j+1].Bitfield {
				j++
				_, h := l.Fields[j].ByteSpan()
				hi = mathutil.MaxInt64(hi, h)
			}
			if hi > lo {
				name := fmt.Sprintf("_bf%d", storage)
				storage++
				b.pad(lo)
				b.add(name, fmt.Sprintf("[%d]byte", hi-lo), target.Array(target.Int(1, true), hi-lo), hi-lo, 1)
				for k := i; k <= j; k++ {
					r.fields[k] = g.bitfield(rec.Fields[k], l.Fields[k], name, lo)
					methods = append(methods, g.bitfieldMethods(r.name, r.fields[k])...)
				}
			} else {
				for k := i; k <= j; k++ {
					r.fields[k] = fieldRepr{kind: fieldNone}
				}
			}
			i = j
			continue
		}

		off := fl.ByteOffset()
		size := g.sizes.Sizeof(f.Type)
		name := memberName(f.Name, i)
		fr := fieldRepr{name: name, typ: f.Type, offset: off}
		if size == 0 {
			fr.kind = fieldAddr
			r.fields[i] = fr
			methods = append(methods, g.addrMethod(r.name, fr))
			continue
		}
		gt := g.goTypeOf(f.Type)
		ga := g.layout.Alignof(gt)
		b.pad(off)
		if off%ga == 0 && ga <= l.Align && g.layout.Sizeof(gt) == size {
			fr.kind = fieldDirect
			b.add(name, g.goType(f.Type), gt, size, ga)
		} else {
			fr.kind = fieldBytes
			b.add(name, fmt.Sprintf("[%d]byte", size), target.Array(target.Int(1, true), size), size, 1)
		}
		r.fields[i] = fr
	}
	b.pad(l.Size)
	g.finishRecord(r, b, methods)
}

// buildUnion lays out a union as an aligned byte blob; every member is
// read and written through its address.
func (g *gen) buildUnion(r *recordRepr, rec *types.Record) {
	l := r.layout
	r.fields = make([]fieldRepr, len(rec.Fields))
	b := &structBuilder{align: 1}
	var methods []string
	if l.Size > 0 {
		b.add("_raw", fmt.Sprintf("[%d]byte", l.Size), target.Array(target.Int(1, true), l.Size), l.Size, 1)
	}
	for i, f := range rec.Fields {
		if f.Bitfield {
			if f.Width == 0 || f.Name == "" {
				r.fields[i] = fieldRepr{kind: fieldNone}
				continue
			}
			r.fields[i] = g.bitfield(f, l.Fields[i], "_raw", 0)
			methods = append(methods, g.bitfieldMethods(r.name, r.fields[i])...)
			continue
		}
		r.fields[i] = fieldRepr{kind: fieldBytes, typ: f.Type, name: memberName(f.Name, i)}
	}
	g.finishRecord(r, b, methods)
}

// finishRecord adds the alignment carrier, checks the gc layout against
// the C layout and renders the declaration.
func (g *gen) finishRecord(r *recordRepr, b *structBuilder, methods []string) {
	l := r.layout
	if l.Align > b.align {
		name, ct := g.layout.Carrier(l.Align)
		if ct == nil {
			r.err = diag.Errorf(diag.LayoutMismatch, g.g.Pos(r.id), "%s: alignment %d has no Go equivalent", g.g.String(r.id), l.Align)
		} else {
			b.lines = append([]string{"_ [0]" + name}, b.lines...)
			b.fields = append([]target.Field{{Name: "_", Type: target.Array(ct, 0)}}, b.fields...)
		}
	}
	r.gt = target.Struct(b.fields)
	if r.err == nil {
		r.err = g.checkLayout(r, b)
	}

	var s strings.Builder
	fmt.Fprintf(&s, "type %s struct {\n", r.name)
	for _, line := range b.lines {
		s.WriteString("\t" + line + "\n")
	}
	s.WriteString("}\n")
	for _, m := range methods {
		s.WriteString("\n" + m)
	}
	r.decl = s.String()
}

// checkLayout measures the emitted struct with gc's rules and compares it
// with the C layout.
func (g *gen) checkLayout(r *recordRepr, b *structBuilder) error {
	gl := g.layout.Layout(r.gt)
	l := r.layout
	mismatch := func(format string, args ...interface{}) error {
		return diag.Errorf(diag.LayoutMismatch, g.g.Pos(r.id), "%s: Go %s: %s", g.g.String(r.id), g.layout.Arch(), fmt.Sprintf(format, args...))
	}
	if gl.Size != l.Size {
		return mismatch("size %d, C size %d", gl.Size, l.Size)
	}
	if gl.Align != l.Align {
		return mismatch("alignment %d, C alignment %d", gl.Align, l.Align)
	}
	index := make(map[string]int, len(b.fields))
	for i, f := range b.fields {
		if f.Name != "_" {
			index[f.Name] = i
		}
	}
	for _, f := range r.fields {
		if f.kind != fieldDirect && (f.kind != fieldBytes || r.union) {
			continue
		}
		if i, ok := index[f.name]; ok && gl.Offsets[i] != f.offset {
			return mismatch("member %s at offset %d, C offset %d", f.name, gl.Offsets[i], f.offset)
		}
	}
	return nil
}

// bitfield places a bitfield member in its storage field, which starts at
// byte base of the record.
func (g *gen) bitfield(f types.Field, fl types.FieldLayout, storage string, base int64) fieldRepr {
	if f.Name == "" || f.Width == 0 {
		return fieldRepr{kind: fieldNone}
	}
	lo, hi := fl.ByteSpan()
	return fieldRepr{
		kind:    fieldBits,
		name:    target.Ident(f.Name),
		typ:     f.Type,
		offset:  lo,
		storage: storage,
		lo:      lo - base,
		n:       hi - lo,
		shift:   fl.BitOffset % 8,
		width:   f.Width,
		signed:  !g.sizes.Unsigned(f.Type) && !g.g.IsBool(f.Type),
	}
}

// bitfieldMethods returns the getter and setter of a bitfield. The getter
// has a value receiver so it also applies to records that are not
// addressable, such as call results.
func (g *gen) bitfieldMethods(recv string, f fieldRepr) []string {
	t := g.goType(f.typ)
	slice := fmt.Sprintf("r.%s[%d:%d]", f.storage, f.lo, f.lo+f.n)
	get := "bitfieldGet"
	if f.signed {
		get = "bitfieldSigned"
	}
	return []string{
		fmt.Sprintf("func (r %s) get_%s() %s { return %s(%s(%s, %d, %d)) }\n", recv, f.name, t, t, get, slice, f.shift, f.width),
		fmt.Sprintf("func (r *%s) set_%s(v %s) { bitfieldSet(%s, %d, %d, uint64(v)) }\n", recv, f.name, t, slice, f.shift, f.width),
	}
}

// addrMethod returns the accessor of a member with no Go field: a
// flexible array member or a zero-size member. Arrays yield a pointer to
// their first element.
func (g *gen) addrMethod(recv string, f fieldRepr) string {
	elem := f.typ
	if a, ok := g.g.Underlying(f.typ).(*types.Array); ok {
		elem = a.Elem
	}
	pt := "*" + g.goType(elem)
	if g.g.IsVoid(elem) {
		pt = "unsafe.Pointer"
	}
	return fmt.Sprintf("func (r *%s) %s() %s { return (%s)(unsafe.Add(unsafe.Pointer(r), %d)) }\n", recv, f.name, pt, pt, f.offset)
}
