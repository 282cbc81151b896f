// Package abi defines the C ABI profiles that drive layout computation.
// A profile fixes scalar sizes and alignments, char signedness, byte order
// and the bitfield placement rules of one compiler/platform pair.
package abi

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/pelletier/go-toml"
)

// Target describes one C ABI.
type Target struct {
	Name   string `toml:"name"`
	GoArch string `toml:"goarch"` // GOARCH whose gc layout rules the output is checked against
	Endian string `toml:"endian"` // "little" or "big"

	CharSigned bool `toml:"char_signed"`

	// Sizes in bytes.
	SizeBool       int64 `toml:"size_bool"`
	SizeShort      int64 `toml:"size_short"`
	SizeInt        int64 `toml:"size_int"`
	SizeLong       int64 `toml:"size_long"`
	SizeLongLong   int64 `toml:"size_long_long"`
	SizePtr        int64 `toml:"size_ptr"`
	SizeFloat      int64 `toml:"size_float"`
	SizeDouble     int64 `toml:"size_double"`
	SizeLongDouble int64 `toml:"size_long_double"`

	// Alignments in bytes, as members of a record.
	AlignShort      int64 `toml:"align_short"`
	AlignInt        int64 `toml:"align_int"`
	AlignLong       int64 `toml:"align_long"`
	AlignLongLong   int64 `toml:"align_long_long"`
	AlignPtr        int64 `toml:"align_ptr"`
	AlignFloat      int64 `toml:"align_float"`
	AlignDouble     int64 `toml:"align_double"`
	AlignLongDouble int64 `toml:"align_long_double"`

	// LongDoubleIsDouble is set when long double has the format of double.
	LongDoubleIsDouble bool `toml:"long_double_is_double"`

	Bitfields BitfieldRules `toml:"bitfields"`
}

// BitfieldRules are the packing rules a compiler applies to bitfields.
type BitfieldRules struct {
	// Straddle allows a bitfield to cross a storage unit boundary of its
	// declared type. SysV and AAPCS64 forbid it.
	Straddle bool `toml:"straddle"`

	// ZeroWidthAligns makes a zero-width bitfield advance to the next
	// boundary of its declared type.
	ZeroWidthAligns bool `toml:"zero_width_aligns"`

	// UnnamedAffectAlign makes unnamed bitfields contribute their declared
	// type's alignment to the enclosing record.
	UnnamedAffectAlign bool `toml:"unnamed_affect_align"`

	// NamedAffectAlign makes named bitfields contribute their declared type's
	// alignment to the enclosing record.
	NamedAffectAlign bool `toml:"named_affect_align"`
}

// LittleEndian reports whether the target stores the least significant
// byte first.
func (t *Target) LittleEndian() bool {
	return t.Endian != "big"
}

// Validate checks that every size and alignment is set and that alignments
// are powers of two.
func (t *Target) Validate() error {
	if t.Name == "" {
		return errors.New("abi: target has no name")
	}
	if t.Endian != "little" && t.Endian != "big" {
		return fmt.Errorf("abi: %s: endian must be \"little\" or \"big\", got %q", t.Name, t.Endian)
	}
	switch t.GoArch {
	case "amd64", "arm64", "386", "arm", "riscv64", "ppc64", "ppc64le", "s390x", "mips", "mipsle", "mips64", "mips64le", "loong64", "wasm":
	default:
		return fmt.Errorf("abi: %s: unknown goarch %q", t.Name, t.GoArch)
	}
	sizes := []struct {
		name string
		v    int64
	}{
		{"size_bool", t.SizeBool}, {"size_short", t.SizeShort}, {"size_int", t.SizeInt},
		{"size_long", t.SizeLong}, {"size_long_long", t.SizeLongLong}, {"size_ptr", t.SizePtr},
		{"size_float", t.SizeFloat}, {"size_double", t.SizeDouble}, {"size_long_double", t.SizeLongDouble},
	}
	for _, s := range sizes {
		if s.v <= 0 {
			return fmt.Errorf("abi: %s: %s must be positive", t.Name, s.name)
		}
	}
	aligns := []struct {
		name string
		v    int64
	}{
		{"align_short", t.AlignShort}, {"align_int", t.AlignInt}, {"align_long", t.AlignLong},
		{"align_long_long", t.AlignLongLong}, {"align_ptr", t.AlignPtr}, {"align_float", t.AlignFloat},
		{"align_double", t.AlignDouble}, {"align_long_double", t.AlignLongDouble},
	}
	for _, a := range aligns {
		if a.v <= 0 || a.v&(a.v-1) != 0 {
			return fmt.Errorf("abi: %s: %s must be a power of two, got %d", t.Name, a.name, a.v)
		}
	}
	return nil
}

// Targets returns the names of the built-in profiles in sorted order.
func Targets() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a copy of the built-in profile with the given name.
func Lookup(name string) (*Target, error) {
	t, ok := builtin[name]
	if !ok {
		return nil, fmt.Errorf("abi: unknown target %q (known: %v)", name, Targets())
	}
	c := *t
	return &c, nil
}

// Parse decodes a profile from TOML. Keys that are absent keep the values
// of the built-in profile named by the "base" key, if any.
func Parse(data []byte) (*Target, error) {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("abi: %w", err)
	}
	if name, ok := tree.Get("base").(string); ok && name != "" {
		base, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		raw, err := toml.Marshal(*base)
		if err != nil {
			return nil, fmt.Errorf("abi: %w", err)
		}
		merged, err := toml.LoadBytes(raw)
		if err != nil {
			return nil, fmt.Errorf("abi: %w", err)
		}
		overlay(merged, tree, nil)
		tree = merged
	}
	t := &Target{}
	if err := tree.Unmarshal(t); err != nil {
		return nil, fmt.Errorf("abi: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// overlay copies every leaf key of src into dst under prefix.
func overlay(dst, src *toml.Tree, prefix []string) {
	for _, k := range src.Keys() {
		path := append(append([]string(nil), prefix...), k)
		if sub, ok := src.Get(k).(*toml.Tree); ok {
			overlay(dst, sub, path)
			continue
		}
		dst.SetPath(path, src.Get(k))
	}
}

// Load reads a TOML profile from path.
func Load(path string) (*Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("abi: %w", err)
	}
	return Parse(data)
}

// Resolve returns the target named by nameOrPath: a built-in profile name,
// or the path of a TOML profile.
func Resolve(nameOrPath string) (*Target, error) {
	if _, ok := builtin[nameOrPath]; ok {
		return Lookup(nameOrPath)
	}
	if _, err := os.Stat(nameOrPath); err == nil {
		return Load(nameOrPath)
	}
	return Lookup(nameOrPath)
}
