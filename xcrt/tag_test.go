package xcrt

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func fnv64(b ...byte) uint64 {
	h := fnv.New64a()
	h.Write(b)
	return h.Sum64()
}

func TestTags(t *testing.T) {
	neg := int32(-2)
	tests := []struct {
		name string
		got  uint64
		want uint64
	}{
		{"int32", Int(1, 4), fnv64(1, 0, 0, 0)},
		{"negative int32", Int(uint64(neg), 4), fnv64(0xfe, 0xff, 0xff, 0xff)},
		{"char", Int(0x141, 1), fnv64(0x41)},
		{"float32", Float32(1), fnv64(0, 0, 0x80, 0x3f)},
		{"float64", Float64(-2), fnv64(0, 0, 0, 0, 0, 0, 0, 0xc0)},
		{"null", Ptr(false), fnv64(0)},
		{"pointer", Ptr(true), fnv64(1)},
		{"no arguments", Fold(), fnv64()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestFold(t *testing.T) {
	var b []byte
	b = binary.LittleEndian.AppendUint64(b, 1)
	b = binary.LittleEndian.AppendUint64(b, math.MaxUint64)
	assert.Equal(t, fnv64(b...), Fold(1, math.MaxUint64))
	assert.NotEqual(t, Fold(1, 2), Fold(2, 1))
}

func TestObjectSkipsPadding(t *testing.T) {
	type padded struct {
		c byte
		_ [3]byte
		i int32
	}
	a := padded{c: 'x', i: 5}
	b := a
	// fill the padding of b with garbage
	*(*[3]byte)(unsafe.Add(unsafe.Pointer(&b), 1)) = [3]byte{1, 2, 3}

	ta := Object(unsafe.Pointer(&a), PartBytes, 0, 1, PartBytes, 4, 4)
	assert.Equal(t, ta, Object(unsafe.Pointer(&b), PartBytes, 0, 1, PartBytes, 4, 4))
	assert.Equal(t, fnv64('x', 5, 0, 0, 0), ta)
	assert.NotEqual(t, ta, Object(unsafe.Pointer(&b), PartBytes, 0, 8))
}

func TestObjectPointerMember(t *testing.T) {
	type node struct {
		v    int32
		_    [4]byte
		next *node
	}
	x, y := node{v: 1}, node{v: 2}
	a, b := node{v: 7, next: &x}, node{v: 7, next: &y}
	parts := []int{PartBytes, 0, 4, PartPtr, 8, 8}
	assert.Equal(t, Object(unsafe.Pointer(&a), parts...), Object(unsafe.Pointer(&b), parts...),
		"addresses do not matter")
	assert.Equal(t, fnv64(7, 0, 0, 0, 1), Object(unsafe.Pointer(&a), parts...))

	b.next = nil
	assert.Equal(t, fnv64(7, 0, 0, 0, 0), Object(unsafe.Pointer(&b), parts...))
}

func TestObjectBitfield(t *testing.T) {
	// a 5-bit field at bit 3 holding 0b10110, with garbage around it
	s := [2]byte{0b10110<<3 | 0b101, 0xff}
	assert.Equal(t, fnv64(0b10110), Object(unsafe.Pointer(&s), PartBits, 3, 5))

	// 40 bits starting in the middle of a byte
	var w [8]byte
	binary.LittleEndian.PutUint64(w[:], 0xab_cdef_0123<<4|0xf)
	assert.Equal(t, fnv64(0x23, 0x01, 0xef, 0xcd, 0xab), Object(unsafe.Pointer(&w), PartBits, 4, 40))
}
