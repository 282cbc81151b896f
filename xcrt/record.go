// Package xcrt is the runtime of cross-checked Go translations. A checked
// call records an entry checkpoint before the callee runs and an exit
// checkpoint after it returns; the instrumented C program writes the same
// records through xcheck_rt.c, so the two streams can be compared record
// by record.
//
// A stream is the header "XCK1" followed by a version byte, then records
// of RecordSize bytes, all integers little endian:
//
//	site     u32  call site identifier
//	dir      u8   1 entry, 2 exit
//	seq      u64  position of the record in the stream, from 1
//	entrySeq u64  seq of the matching entry; 0 in entry records
//	tag      u64  folded argument tags, or the result tag
package xcrt

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	Magic      = "XCK1"
	Version    = 1
	HeaderSize = len(Magic) + 1
	RecordSize = 4 + 1 + 8 + 8 + 8
)

// Dir is the direction of a checkpoint.
type Dir uint8

const (
	DirEntry Dir = 1
	DirExit  Dir = 2
)

func (d Dir) String() string {
	switch d {
	case DirEntry:
		return "entry"
	case DirExit:
		return "exit"
	}
	return fmt.Sprintf("dir(%d)", uint8(d))
}

// Record is one checkpoint.
type Record struct {
	Site     uint32
	Dir      Dir
	Seq      uint64
	EntrySeq uint64
	Tag      uint64
}

func (r Record) String() string {
	if r.Dir == DirExit {
		return fmt.Sprintf("#%d %s site=%08x entry=#%d tag=%016x", r.Seq, r.Dir, r.Site, r.EntrySeq, r.Tag)
	}
	return fmt.Sprintf("#%d %s site=%08x tag=%016x", r.Seq, r.Dir, r.Site, r.Tag)
}

// Append appends the encoding of r to b.
func (r Record) Append(b []byte) []byte {
	b = binary.LittleEndian.AppendUint32(b, r.Site)
	b = append(b, byte(r.Dir))
	b = binary.LittleEndian.AppendUint64(b, r.Seq)
	b = binary.LittleEndian.AppendUint64(b, r.EntrySeq)
	return binary.LittleEndian.AppendUint64(b, r.Tag)
}

// Decode decodes a record from the first RecordSize bytes of b.
func Decode(b []byte) (Record, error) {
	if len(b) < RecordSize {
		return Record{}, io.ErrUnexpectedEOF
	}
	r := Record{
		Site:     binary.LittleEndian.Uint32(b),
		Dir:      Dir(b[4]),
		Seq:      binary.LittleEndian.Uint64(b[5:]),
		EntrySeq: binary.LittleEndian.Uint64(b[13:]),
		Tag:      binary.LittleEndian.Uint64(b[21:]),
	}
	if r.Dir != DirEntry && r.Dir != DirExit {
		return r, fmt.Errorf("record #%d: bad direction %d", r.Seq, b[4])
	}
	return r, nil
}

// Header returns the stream header.
func Header() []byte {
	return append([]byte(Magic), Version)
}

// ErrBadHeader is returned when a stream does not start with a header of
// a supported version.
var ErrBadHeader = errors.New("not a cross-check stream")

// Reader decodes a stream.
type Reader struct {
	r    *bufio.Reader
	buf  [RecordSize]byte
	read bool
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns the next record, or io.EOF at the end of the stream. A
// stream cut inside a record, as left by a process killed mid-write,
// returns io.ErrUnexpectedEOF.
func (r *Reader) Next() (Record, error) {
	if !r.read {
		r.read = true
		var h [HeaderSize]byte
		if _, err := io.ReadFull(r.r, h[:]); err != nil {
			return Record{}, fmt.Errorf("%w: %v", ErrBadHeader, err)
		}
		if string(h[:len(Magic)]) != Magic {
			return Record{}, ErrBadHeader
		}
		if h[len(Magic)] != Version {
			return Record{}, fmt.Errorf("%w: version %d", ErrBadHeader, h[len(Magic)])
		}
	}
	if _, err := io.ReadFull(r.r, r.buf[:]); err != nil {
		return Record{}, err
	}
	return Decode(r.buf[:])
}

// ReadAll decodes a whole stream.
func ReadAll(r io.Reader) ([]Record, error) {
	rd := NewReader(r)
	var out []Record
	for {
		rec, err := rd.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}
