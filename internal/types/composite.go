package types

// Pointer represents a C pointer type.
type Pointer struct {
	typ
	Elem  ID
	Const bool // the pointee is const-qualified
}

// Array represents a C array type. An array is either sized, unsized
// (T[], including flexible array members) or variable length.
type Array struct {
	typ
	Elem    ID
	Len     int64
	Unsized bool
	VLA     bool
}

// Func represents a C function type.
type Func struct {
	typ
	Result   ID
	Params   []ID
	Variadic bool
	NoProto  bool // declared without a prototype: int f()
}

// Field is one member of a record. Anonymous struct and union members
// have an empty name and Embedded set.
type Field struct {
	Name      string
	Type      ID
	Bitfield  bool
	Width     int64 // bit width, valid when Bitfield is set
	Embedded  bool
	AlignAttr int64 // _Alignas / __attribute__((aligned)), 0 if absent
}

// Record represents a struct or union type. Records are nominal: two
// records with the same members are different types.
type Record struct {
	typ
	Tag       string // empty for anonymous records
	Union     bool
	Fields    []Field
	Complete  bool
	Packed    bool
	AlignAttr int64

	// Hint is a name derived from the declaration context of an anonymous
	// record, e.g. the typedef or field that introduced it.
	Hint string

	// Unsupported explains why the layout cannot be reproduced, e.g. a
	// #pragma pack alignment the AST does not carry.
	Unsupported string
}

// Kind returns "struct" or "union".
func (r *Record) Kind() string {
	if r.Union {
		return "union"
	}
	return "struct"
}

// FieldIndex returns the index of the named field, or -1.
func (r *Record) FieldIndex(name string) int {
	for i, f := range r.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// EnumConst is one enumerator.
type EnumConst struct {
	Name  string
	Value int64
}

// Enum represents a C enumeration type.
type Enum struct {
	typ
	Tag        string
	Underlying ID
	Consts     []EnumConst
	Complete   bool
	Hint       string
}
