package abi

// DefaultTarget is the profile used when none is configured.
const DefaultTarget = "x86_64-linux-gnu"

// SysV-style bitfield rules shared by the GCC/Clang ELF targets.
var sysvBitfields = BitfieldRules{
	Straddle:           false,
	ZeroWidthAligns:    true,
	UnnamedAffectAlign: false,
	NamedAffectAlign:   true,
}

var builtin = map[string]*Target{
	// x86-64 System V, LP64.
	"x86_64-linux-gnu": {
		Name:       "x86_64-linux-gnu",
		GoArch:     "amd64",
		Endian:     "little",
		CharSigned: true,

		SizeBool: 1, SizeShort: 2, SizeInt: 4, SizeLong: 8, SizeLongLong: 8,
		SizePtr: 8, SizeFloat: 4, SizeDouble: 8, SizeLongDouble: 16,

		AlignShort: 2, AlignInt: 4, AlignLong: 8, AlignLongLong: 8,
		AlignPtr: 8, AlignFloat: 4, AlignDouble: 8, AlignLongDouble: 16,

		Bitfields: sysvBitfields,
	},

	// AArch64 AAPCS64, LP64. Plain char is unsigned.
	"aarch64-linux-gnu": {
		Name:       "aarch64-linux-gnu",
		GoArch:     "arm64",
		Endian:     "little",
		CharSigned: false,

		SizeBool: 1, SizeShort: 2, SizeInt: 4, SizeLong: 8, SizeLongLong: 8,
		SizePtr: 8, SizeFloat: 4, SizeDouble: 8, SizeLongDouble: 16,

		AlignShort: 2, AlignInt: 4, AlignLong: 8, AlignLongLong: 8,
		AlignPtr: 8, AlignFloat: 4, AlignDouble: 8, AlignLongDouble: 16,

		Bitfields: sysvBitfields,
	},

	// i386 System V, ILP32. 8-byte scalars are 4-aligned inside records.
	"i686-linux-gnu": {
		Name:       "i686-linux-gnu",
		GoArch:     "386",
		Endian:     "little",
		CharSigned: true,

		SizeBool: 1, SizeShort: 2, SizeInt: 4, SizeLong: 4, SizeLongLong: 8,
		SizePtr: 4, SizeFloat: 4, SizeDouble: 8, SizeLongDouble: 12,

		AlignShort: 2, AlignInt: 4, AlignLong: 4, AlignLongLong: 4,
		AlignPtr: 4, AlignFloat: 4, AlignDouble: 4, AlignLongDouble: 4,

		Bitfields: sysvBitfields,
	},
}
