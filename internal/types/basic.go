package types

// BasicKind describes the kind of a scalar type.
type BasicKind int

const (
	InvalidKind BasicKind = iota

	Void
	Bool
	Char // plain char; signedness comes from the ABI target
	SChar
	UChar
	Short
	UShort
	Int
	UInt
	Long
	ULong
	LongLong
	ULongLong
	Float
	Double
	LongDouble

	// Kinds the type graph can name but no target type can represent.
	Int128
	UInt128
	Float128
	Complex
	Vector

	basicKindCount
)

var basicNames = [...]string{
	InvalidKind: "invalid",
	Void:        "void",
	Bool:        "_Bool",
	Char:        "char",
	SChar:       "signed char",
	UChar:       "unsigned char",
	Short:       "short",
	UShort:      "unsigned short",
	Int:         "int",
	UInt:        "unsigned int",
	Long:        "long",
	ULong:       "unsigned long",
	LongLong:    "long long",
	ULongLong:   "unsigned long long",
	Float:       "float",
	Double:      "double",
	LongDouble:  "long double",
	Int128:      "__int128",
	UInt128:     "unsigned __int128",
	Float128:    "__float128",
	Complex:     "_Complex",
	Vector:      "vector",
}

func (k BasicKind) String() string {
	if k >= 0 && k < basicKindCount {
		return basicNames[k]
	}
	return "invalid"
}

// BasicInfo describes properties of a scalar kind.
type BasicInfo int

const (
	IsBoolean BasicInfo = 1 << iota
	IsInteger
	IsUnsigned
	IsFloat
	IsUnrepresentable

	IsNumeric = IsInteger | IsFloat
)

var basicInfos = [...]BasicInfo{
	Bool:       IsBoolean | IsInteger | IsUnsigned,
	Char:       IsInteger,
	SChar:      IsInteger,
	UChar:      IsInteger | IsUnsigned,
	Short:      IsInteger,
	UShort:     IsInteger | IsUnsigned,
	Int:        IsInteger,
	UInt:       IsInteger | IsUnsigned,
	Long:       IsInteger,
	ULong:      IsInteger | IsUnsigned,
	LongLong:   IsInteger,
	ULongLong:  IsInteger | IsUnsigned,
	Float:      IsFloat,
	Double:     IsFloat,
	LongDouble: IsFloat,
	Int128:     IsInteger | IsUnrepresentable,
	UInt128:    IsInteger | IsUnsigned | IsUnrepresentable,
	Float128:   IsFloat | IsUnrepresentable,
	Complex:    IsUnrepresentable,
	Vector:     IsUnrepresentable,
	Void:       0,
}

// Basic represents void and the scalar arithmetic types.
type Basic struct {
	typ
	kind BasicKind
	name string // spelling for unrepresentable kinds, e.g. a vector type
}

// Kind returns the kind of the basic type.
func (b *Basic) Kind() BasicKind {
	return b.kind
}

// Info returns information about the basic type.
func (b *Basic) Info() BasicInfo {
	return basicInfos[b.kind]
}

// Name returns the C spelling of the type.
func (b *Basic) Name() string {
	if b.name != "" {
		return b.name
	}
	return b.kind.String()
}
