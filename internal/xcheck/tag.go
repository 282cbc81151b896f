package xcheck

import (
	"fmt"

	"github.com/you-not-fish/cmigrate/internal/diag"
	"github.com/you-not-fish/cmigrate/internal/types"
)

// TagKind says how a value is reduced to its tag.
type TagKind uint8

const (
	TagVoid   TagKind = iota // no value; the tag is 0
	TagInt                   // Size bytes of the value, little endian
	TagFloat                 // IEEE bits at Size bytes
	TagPtr                   // one byte: 0 for null, 1 otherwise
	TagObject                // the Parts of the object, hashed in order
)

// PartKind says what one part of an object contributes to its tag.
type PartKind uint8

const (
	// PartBytes contributes the bytes [Off, Off+N).
	PartBytes PartKind = iota
	// PartPtr contributes one byte telling whether the N pointer bytes at
	// Off are all zero (0) or not (1).
	PartPtr
	// PartBits contributes the value of the N-bit bitfield starting at
	// bit Off, little endian in (N+7)/8 bytes.
	PartBits
)

// Part is one member, or run of members, of an object.
type Part struct {
	Kind PartKind
	Off  int64
	N    int64
}

// Recipe is how both program variants compute the tag of a value of one C
// type. Records hash their members in order and skip padding and unnamed
// bitfields; pointer members count only as null or non-null; a union
// hashes its first member.
type Recipe struct {
	Kind  TagKind
	Size  int64
	Parts []Part
}

// RecipeOf returns the recipe for values of type t.
func RecipeOf(s *types.Sizes, t types.ID) (Recipe, error) {
	g := s.Graph()
	switch u := g.Underlying(t).(type) {
	case *types.Basic:
		switch {
		case u.Kind() == types.Void:
			return Recipe{Kind: TagVoid}, nil
		case u.Info()&types.IsFloat != 0:
			// long double is hashed after conversion to double
			size := s.Sizeof(t)
			if size > 8 {
				size = 8
			}
			return Recipe{Kind: TagFloat, Size: size}, nil
		case u.Info()&types.IsInteger != 0:
			return Recipe{Kind: TagInt, Size: s.Sizeof(t)}, nil
		}
	case *types.Enum:
		return Recipe{Kind: TagInt, Size: s.Sizeof(t)}, nil
	case *types.Pointer, *types.Func:
		return Recipe{Kind: TagPtr, Size: 1}, nil
	case *types.Record:
		parts, err := partsOf(s, t, 0, nil)
		if err != nil {
			return Recipe{}, err
		}
		return Recipe{Kind: TagObject, Size: s.Sizeof(t), Parts: parts}, nil
	}
	return Recipe{}, diag.Errorf(diag.UnsupportedType, g.Pos(t), "no checkpoint tag for %s", g.String(t))
}

// partsOf appends the parts of an object of type t at offset base.
func partsOf(s *types.Sizes, t types.ID, base int64, out []Part) ([]Part, error) {
	g := s.Graph()
	switch u := g.Underlying(t).(type) {
	case *types.Record:
		l, err := s.Layout(t)
		if err != nil {
			return nil, err
		}
		for i, f := range u.Fields {
			switch {
			case f.Bitfield && (f.Width == 0 || f.Name == ""):
				continue
			case f.Bitfield:
				out = append(out, Part{Kind: PartBits, Off: base*8 + l.Fields[i].BitOffset, N: f.Width})
			default:
				out, err = partsOf(s, f.Type, base+l.Fields[i].ByteOffset(), out)
				if err != nil {
					return nil, err
				}
			}
			if u.Union {
				break
			}
		}
		return out, nil
	case *types.Array:
		if u.Unsized || u.VLA {
			return out, nil
		}
		size := s.Sizeof(u.Elem)
		if !g.IsRecord(u.Elem) && !g.IsArray(u.Elem) && !isPointer(g, u.Elem) {
			return appendBytes(out, base, u.Len*size), nil
		}
		var err error
		for i := int64(0); i < u.Len; i++ {
			if out, err = partsOf(s, u.Elem, base+i*size, out); err != nil {
				return nil, err
			}
		}
		return out, nil
	case *types.Pointer, *types.Func:
		return append(out, Part{Kind: PartPtr, Off: base, N: s.Sizeof(t)}), nil
	}
	return appendBytes(out, base, s.Sizeof(t)), nil
}

func isPointer(g *types.Graph, t types.ID) bool {
	switch g.Underlying(t).(type) {
	case *types.Pointer, *types.Func:
		return true
	}
	return false
}

// appendBytes appends the n bytes at off, joining them to a byte part
// that ends there.
func appendBytes(out []Part, off, n int64) []Part {
	if n <= 0 {
		return out
	}
	if k := len(out); k > 0 && out[k-1].Kind == PartBytes && out[k-1].Off+out[k-1].N == off {
		out[k-1].N += n
		return out
	}
	return append(out, Part{Kind: PartBytes, Off: off, N: n})
}

// Ints flattens parts into the kind, offset, length triples the runtimes
// take.
func Ints(parts []Part) []int64 {
	out := make([]int64, 0, 3*len(parts))
	for _, p := range parts {
		out = append(out, int64(p.Kind), p.Off, p.N)
	}
	return out
}

func (r Recipe) String() string {
	switch r.Kind {
	case TagInt:
		return fmt.Sprintf("int%d", r.Size*8)
	case TagFloat:
		return fmt.Sprintf("float%d", r.Size*8)
	case TagPtr:
		return "ptr"
	case TagObject:
		return fmt.Sprintf("object%v", r.Parts)
	}
	return "void"
}
