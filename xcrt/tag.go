package xcrt

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// FNV-1a 64 parameters.
const (
	offset64 = 14695981039346656037
	prime64  = 1099511628211
)

func hash(h uint64, b []byte) uint64 {
	for _, c := range b {
		h ^= uint64(c)
		h *= prime64
	}
	return h
}

// Int returns the tag of an integer of size bytes holding the low bytes
// of v.
func Int(v uint64, size int) uint64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return hash(offset64, b[:size])
}

func Float32(f float32) uint64 {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(f))
	return hash(offset64, b[:])
}

func Float64(f float64) uint64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(f))
	return hash(offset64, b[:])
}

// Ptr returns the tag of a pointer, which only tells null from non-null.
func Ptr(nonNil bool) uint64 {
	if nonNil {
		return hash(offset64, []byte{1})
	}
	return hash(offset64, []byte{0})
}

// Part kinds of Object.
const (
	PartBytes = iota // the bytes [off, off+n)
	PartPtr          // 0 if the n bytes at off are all zero, 1 otherwise
	PartBits         // the n-bit field at bit off, in (n+7)/8 bytes
)

// Object returns the tag of the object at p. Parts are kind, off, n
// triples hashed in order.
func Object(p unsafe.Pointer, parts ...int) uint64 {
	h := uint64(offset64)
	for i := 0; i+2 < len(parts); i += 3 {
		off, n := parts[i+1], parts[i+2]
		switch parts[i] {
		case PartBytes:
			h = hash(h, unsafe.Slice((*byte)(unsafe.Add(p, off)), n))
		case PartPtr:
			var nz byte
			for _, c := range unsafe.Slice((*byte)(unsafe.Add(p, off)), n) {
				if c != 0 {
					nz = 1
				}
			}
			h = hash(h, []byte{nz})
		case PartBits:
			lo, hi := off/8, (off+n+7)/8
			var b [8]byte
			copy(b[:], unsafe.Slice((*byte)(unsafe.Add(p, lo)), hi-lo))
			v := binary.LittleEndian.Uint64(b[:]) >> (off % 8)
			if n < 64 {
				v &= 1<<n - 1
			}
			binary.LittleEndian.PutUint64(b[:], v)
			h = hash(h, b[:(n+7)/8])
		}
	}
	return h
}

// Fold combines argument tags into the tag of an entry checkpoint.
func Fold(tags ...uint64) uint64 {
	h := uint64(offset64)
	var b [8]byte
	for _, t := range tags {
		binary.LittleEndian.PutUint64(b[:], t)
		h = hash(h, b[:])
	}
	return h
}
