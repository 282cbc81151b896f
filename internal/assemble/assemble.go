package assemble

import (
	"fmt"
	"go/format"
	"sort"

	"github.com/you-not-fish/cmigrate/internal/codegen"
	"github.com/you-not-fish/cmigrate/internal/diag"
)

// Mode selects what the assembled package is.
type Mode uint8

const (
	Lib Mode = iota // a package of the translated symbols
	Bin             // a command running the C entry function
)

func (m Mode) String() string {
	if m == Bin {
		return "bin"
	}
	return "lib"
}

// ParseMode parses "lib" or "bin".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "lib", "":
		return Lib, nil
	case "bin":
		return Bin, nil
	}
	return Lib, fmt.Errorf("unknown output mode %q", s)
}

// Config configures linking and assembly.
type Config struct {
	Package string // Go package name; "main" in binary mode
	Mode    Mode
	Entry   string   // C entry function in binary mode; "main" if empty
	LDFlags []string // linker flags of the cgo bindings
}

// PackageName returns the Go package name of the output.
func (c *Config) PackageName() string {
	if c.Mode == Bin || c.Package == "" {
		return "main"
	}
	return c.Package
}

// Unit is the result of translating one unit.
type Unit struct {
	Name   string
	File   string
	Output *codegen.Output // nil if the unit failed
	Glue   bool            // C glue was written for the unit
}

// Module is an assembled Go package.
type Module struct {
	Files    map[string][]byte // by file name
	Manifest *Manifest
}

// Assemble lays out the package of the translated units: one file per
// unit, the shared type declarations, the cgo bindings of symbols no
// unit defines, the support file and, in binary mode, the entry glue.
// Problems found on the way are added to diags.
func Assemble(plan *Plan, units []Unit, conf *Config, diags *diag.Collector) (*Module, error) {
	if conf == nil {
		conf = &Config{}
	}
	units = append([]Unit(nil), units...)
	sort.Slice(units, func(i, j int) bool { return units[i].Name < units[j].Name })

	pkg := conf.PackageName()
	m := &Module{Files: make(map[string][]byte)}
	var outs []*codegen.Output
	for _, u := range units {
		if u.Output == nil {
			continue
		}
		outs = append(outs, u.Output)
		m.Files[u.Name+".go"] = u.Output.Source
	}

	types, errs := mergeTypes(outs)
	for _, err := range errs {
		diags.AddError("", err, diag.LinkConflict)
	}
	src, err := typesFile(pkg, types)
	if err != nil {
		return nil, err
	}
	m.Files["types.go"] = src

	b := collectBindings(plan, outs, diags)
	if !b.empty() {
		src, err := b.file(pkg, conf.LDFlags)
		if err != nil {
			return nil, err
		}
		m.Files["externs.go"] = src
	}
	m.Files[codegen.SupportFile] = codegen.Support(pkg)

	if conf.Mode == Bin {
		src, err := entryFile(plan, outs)
		if err != nil {
			return nil, err
		}
		m.Files["main.go"] = src
	}

	m.Manifest = buildManifest(plan, units, types, b, conf, diags)
	return m, nil
}

// gofmt formats generated source, naming file in the error.
func gofmt(file string, src []byte) ([]byte, error) {
	out, err := format.Source(src)
	if err != nil {
		return nil, fmt.Errorf("formatting %s: %w", file, err)
	}
	return out, nil
}
