package target

import (
	"go/token"
	"strings"
	"unicode"
)

// reserved holds names a C identifier may not keep in the output: Go
// keywords, predeclared identifiers the generated code relies on, the
// packages it imports and the helpers of support.go.
var reserved = map[string]bool{
	// predeclared
	"any": true, "bool": true, "byte": true, "comparable": true, "complex64": true,
	"complex128": true, "error": true, "float32": true, "float64": true, "int": true,
	"int8": true, "int16": true, "int32": true, "int64": true, "rune": true,
	"string": true, "uint": true, "uint8": true, "uint16": true, "uint32": true,
	"uint64": true, "uintptr": true, "true": true, "false": true, "iota": true,
	"nil": true, "append": true, "cap": true, "clear": true, "close": true,
	"complex": true, "copy": true, "delete": true, "imag": true, "len": true,
	"make": true, "max": true, "min": true, "new": true, "panic": true,
	"print": true, "println": true, "real": true, "recover": true,

	// packages
	"unsafe": true, "math": true, "os": true, "xcrt": true, "C": true,

	// runtime support
	"bool2int": true, "cstring": true, "wstring": true, "reinterpret": true,
	"init": true, "main": true, "label": true,
}

// Reserved reports whether name cannot be used unchanged in the output.
func Reserved(name string) bool {
	return token.IsKeyword(name) || reserved[name]
}

// Ident returns the Go spelling of the C identifier name. Reserved names
// get a trailing underscore; characters Go does not accept (clang allows
// '$') are replaced.
func Ident(name string) string {
	s := Word(name)
	if Reserved(s) {
		s += "_"
	}
	return s
}

// Word returns name with the characters Go does not accept in
// identifiers replaced, for use inside a longer identifier.
func Word(name string) string {
	if name == "" {
		return "_"
	}
	var b strings.Builder
	for i, r := range name {
		switch {
		case r == '_' || unicode.IsLetter(r):
			b.WriteRune(r)
		case unicode.IsDigit(r) && i > 0:
			b.WriteRune(r)
		default:
			b.WriteString("_")
		}
	}
	return b.String()
}

// Suffix appends a disambiguating suffix to an identifier.
func Suffix(name, suffix string) string {
	return name + "_" + Ident(suffix)
}
