package types

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/you-not-fish/cmigrate/internal/abi"
	"github.com/you-not-fish/cmigrate/internal/diag"
	"github.com/you-not-fish/cmigrate/internal/syntax"
)

func mustTarget(t *testing.T, name string) *abi.Target {
	t.Helper()
	tgt, err := abi.Lookup(name)
	require.NoError(t, err)
	return tgt
}

func field(name string, typ ID) Field {
	return Field{Name: name, Type: typ}
}

func bitfield(name string, typ ID, width int64) Field {
	return Field{Name: name, Type: typ, Bitfield: true, Width: width}
}

func record(g *Graph, union, packed bool, fields ...Field) ID {
	id := g.NewRecord("", union, syntax.NewPos("t.c", 1, 1))
	g.Complete(id, fields, packed, 0)
	return id
}

func TestSizeofScalars(t *testing.T) {
	g := NewGraph()
	tests := []struct {
		target string
		typ    ID
		size   int64
		align  int64
	}{
		{"x86_64-linux-gnu", g.Basic(Long), 8, 8},
		{"x86_64-linux-gnu", g.NewPointer(g.Basic(Char), true), 8, 8},
		{"x86_64-linux-gnu", g.NewArray(g.Basic(Short), 3), 6, 2},
		{"i686-linux-gnu", g.Basic(Long), 4, 4},
		{"i686-linux-gnu", g.Basic(Double), 8, 4},
		{"i686-linux-gnu", g.Basic(LongLong), 8, 4},
	}
	for _, tt := range tests {
		t.Run(tt.target+"/"+g.String(tt.typ), func(t *testing.T) {
			s := NewSizes(g, mustTarget(t, tt.target))
			if got := s.Sizeof(tt.typ); got != tt.size {
				t.Errorf("Sizeof = %d, want %d", got, tt.size)
			}
			if got := s.Alignof(tt.typ); got != tt.align {
				t.Errorf("Alignof = %d, want %d", got, tt.align)
			}
		})
	}
}

func TestRecordLayout(t *testing.T) {
	g := NewGraph()
	var (
		char   = g.Basic(Char)
		short  = g.Basic(Short)
		int_   = g.Basic(Int)
		uint_  = g.Basic(UInt)
		double = g.Basic(Double)
		llong  = g.Basic(LongLong)
	)

	tests := []struct {
		name    string
		target  string
		typ     ID
		size    int64
		align   int64
		offsets []int64 // bit offsets
	}{
		{
			name:    "char int",
			target:  "x86_64-linux-gnu",
			typ:     record(g, false, false, field("c", char), field("i", int_)),
			size:    8,
			align:   4,
			offsets: []int64{0, 32},
		},
		{
			name:    "char double char amd64",
			target:  "x86_64-linux-gnu",
			typ:     record(g, false, false, field("a", char), field("d", double), field("b", char)),
			size:    24,
			align:   8,
			offsets: []int64{0, 64, 128},
		},
		{
			name:    "char double char i386",
			target:  "i686-linux-gnu",
			typ:     record(g, false, false, field("a", char), field("d", double), field("b", char)),
			size:    16,
			align:   4,
			offsets: []int64{0, 32, 96},
		},
		{
			name:    "straddling bitfield moves to next unit",
			target:  "x86_64-linux-gnu",
			typ:     record(g, false, false, bitfield("a", uint_, 3), bitfield("b", uint_, 30)),
			size:    8,
			align:   4,
			offsets: []int64{0, 32},
		},
		{
			name:    "long long bitfields share a 4-aligned unit on i386",
			target:  "i686-linux-gnu",
			typ:     record(g, false, false, bitfield("x", llong, 40), bitfield("y", llong, 40)),
			size:    12,
			align:   4,
			offsets: []int64{0, 40},
		},
		{
			name:    "long long bitfield straddles 8 bytes from its 4-aligned unit on i386",
			target:  "i686-linux-gnu",
			typ:     record(g, false, false, bitfield("a", llong, 30), bitfield("b", llong, 40)),
			size:    12,
			align:   4,
			offsets: []int64{0, 32},
		},
		{
			name:    "long long bitfield straddles on amd64",
			target:  "x86_64-linux-gnu",
			typ:     record(g, false, false, bitfield("a", llong, 30), bitfield("b", llong, 40)),
			size:    16,
			align:   8,
			offsets: []int64{0, 64},
		},
		{
			name:    "bitfield shares unit with char",
			target:  "x86_64-linux-gnu",
			typ:     record(g, false, false, field("c", char), bitfield("x", int_, 4)),
			size:    4,
			align:   4,
			offsets: []int64{0, 8},
		},
		{
			name:    "zero width bitfield aligns but does not raise alignment",
			target:  "x86_64-linux-gnu",
			typ:     record(g, false, false, field("a", char), bitfield("", int_, 0), field("b", char)),
			size:    5,
			align:   1,
			offsets: []int64{0, 32, 32},
		},
		{
			name:    "short bitfields",
			target:  "x86_64-linux-gnu",
			typ:     record(g, false, false, bitfield("s", short, 9), bitfield("t", short, 9)),
			size:    4,
			align:   2,
			offsets: []int64{0, 16},
		},
		{
			name:    "packed",
			target:  "x86_64-linux-gnu",
			typ:     record(g, false, true, field("c", char), field("i", int_)),
			size:    5,
			align:   1,
			offsets: []int64{0, 8},
		},
		{
			name:    "packed bitfields straddle",
			target:  "x86_64-linux-gnu",
			typ:     record(g, false, true, bitfield("a", uint_, 3), bitfield("b", uint_, 30)),
			size:    5,
			align:   1,
			offsets: []int64{0, 3},
		},
		{
			name:    "flexible array member",
			target:  "x86_64-linux-gnu",
			typ:     record(g, false, false, field("n", int_), field("data", g.NewUnsizedArray(char))),
			size:    4,
			align:   4,
			offsets: []int64{0, 32},
		},
		{
			name:    "union",
			target:  "x86_64-linux-gnu",
			typ:     record(g, true, false, field("i", int_), field("c", g.NewArray(char, 5))),
			size:    8,
			align:   4,
			offsets: []int64{0, 0},
		},
		{
			name:   "nested",
			target: "x86_64-linux-gnu",
			typ: record(g, false, false,
				field("c", char),
				field("in", record(g, false, false, field("d", double), field("e", char)))),
			size:    24,
			align:   8,
			offsets: []int64{0, 64},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSizes(g, mustTarget(t, tt.target))
			l, err := s.Layout(tt.typ)
			require.NoError(t, err)
			if l.Size != tt.size || l.Align != tt.align {
				t.Errorf("size/align = %d/%d, want %d/%d", l.Size, l.Align, tt.size, tt.align)
			}
			var got []int64
			for _, f := range l.Fields {
				got = append(got, f.BitOffset)
			}
			if diff := cmp.Diff(tt.offsets, got); diff != "" {
				t.Errorf("bit offsets mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLayoutUnsupported(t *testing.T) {
	g := NewGraph()
	int_ := g.Basic(Int)
	incomplete := g.NewRecord("opaque", false, syntax.NewPos("t.c", 4, 8))

	be := mustTarget(t, "aarch64-linux-gnu")
	be.Endian = "big"

	tests := []struct {
		name   string
		target *abi.Target
		typ    ID
	}{
		{"vla member", mustTarget(t, abi.DefaultTarget), record(g, false, false, field("v", g.NewVLA(int_)))},
		{"int128 member", mustTarget(t, abi.DefaultTarget), record(g, false, false, field("w", g.Basic(Int128)))},
		{"long double member", mustTarget(t, abi.DefaultTarget), record(g, false, false, field("x", g.Basic(LongDouble)))},
		{"incomplete member", mustTarget(t, abi.DefaultTarget), record(g, false, false, field("o", incomplete))},
		{"flexible array not last", mustTarget(t, abi.DefaultTarget), record(g, false, false, field("d", g.NewUnsizedArray(int_)), field("n", int_))},
		{"big endian bitfield", be, record(g, false, false, bitfield("b", int_, 3))},
		{"float bitfield", mustTarget(t, abi.DefaultTarget), record(g, false, false, bitfield("f", g.Basic(Float), 3))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSizes(g, tt.target)
			_, err := s.Layout(tt.typ)
			require.Error(t, err)
			k, ok := diag.KindOf(err)
			require.True(t, ok)
			require.Equal(t, diag.UnsupportedType, k)
			require.Error(t, s.Check(tt.typ))
		})
	}
}

func TestCheckPointerToIncomplete(t *testing.T) {
	g := NewGraph()
	opaque := g.NewRecord("FILE", false, syntax.Pos{})
	s := NewSizes(g, mustTarget(t, abi.DefaultTarget))
	require.NoError(t, s.Check(g.NewPointer(opaque, false)))
	require.Error(t, s.Check(opaque))
}

func TestUnsignedChar(t *testing.T) {
	g := NewGraph()
	x86 := NewSizes(g, mustTarget(t, "x86_64-linux-gnu"))
	arm := NewSizes(g, mustTarget(t, "aarch64-linux-gnu"))
	require.False(t, x86.Unsigned(g.Basic(Char)))
	require.True(t, arm.Unsigned(g.Basic(Char)))
	require.True(t, x86.Unsigned(g.Basic(UChar)))
	require.False(t, arm.Unsigned(g.Basic(SChar)))
}
