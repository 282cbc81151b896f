// Package config loads cmigrate.toml, the project file of a translation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pelletier/go-toml"
	"golang.org/x/mod/module"

	"github.com/you-not-fish/cmigrate/internal/abi"
	"github.com/you-not-fish/cmigrate/internal/assemble"
	"github.com/you-not-fish/cmigrate/internal/target"
)

// FileName is the name of the project file looked up next to the
// compilation database.
const FileName = "cmigrate.toml"

// Config is the settings of one translation. Command-line flags override
// the values read from the project file.
type Config struct {
	Out          string   `toml:"out"`
	Mode         string   `toml:"mode"`
	Entry        string   `toml:"entry"`
	Package      string   `toml:"package"`
	Target       string   `toml:"target"` // profile name or TOML file
	Jobs         int      `toml:"jobs"`
	LDFlags      []string `toml:"ldflags"`
	AllowPartial bool     `toml:"allow_partial"`
	Clang        Clang    `toml:"clang"`
	XCheck       XCheck   `toml:"xcheck"`
}

// Clang configures the front end.
type Clang struct {
	Path   string   `toml:"path"`
	Flags  []string `toml:"flags"`   // appended to every unit's command
	ASTDir string   `toml:"ast_dir"` // pre-dumped ASTs, by source base name
}

// XCheck configures cross-check instrumentation.
type XCheck struct {
	Sites   []string `toml:"sites"`   // "all" or callee names
	Runtime string   `toml:"runtime"` // import path of the Go runtime
}

// Default returns the settings used without a project file.
func Default() *Config {
	return &Config{
		Out:    "out",
		Mode:   "lib",
		Entry:  "main",
		Target: abi.DefaultTarget,
		Jobs:   runtime.NumCPU(),
		Clang:  Clang{Path: "clang"},
	}
}

// Parse decodes a project file. Settings it leaves out take their
// default values and relative paths are resolved against dir.
func Parse(data []byte, dir string) (*Config, error) {
	c := &Config{}
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	c.fill(Default())
	c.resolve(dir)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads the project file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func (c *Config) fill(d *Config) {
	str := func(p *string, v string) {
		if *p == "" {
			*p = v
		}
	}
	str(&c.Out, d.Out)
	str(&c.Mode, d.Mode)
	str(&c.Entry, d.Entry)
	str(&c.Target, d.Target)
	str(&c.Clang.Path, d.Clang.Path)
	if c.Jobs == 0 {
		c.Jobs = d.Jobs
	}
}

func (c *Config) resolve(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	c.Out = abs(c.Out)
	c.Clang.ASTDir = abs(c.Clang.ASTDir)
	if _, err := abi.Lookup(c.Target); err != nil {
		c.Target = abs(c.Target)
	}
}

// Validate checks the settings that do not depend on the input.
func (c *Config) Validate() error {
	if _, err := assemble.ParseMode(c.Mode); err != nil {
		return err
	}
	if c.Jobs < 1 {
		return fmt.Errorf("jobs must be positive, got %d", c.Jobs)
	}
	if c.Entry == "" {
		return fmt.Errorf("entry function name is empty")
	}
	if c.Package != "" && c.Package != "main" && target.Ident(c.Package) != c.Package {
		return fmt.Errorf("package name %q is not a valid Go identifier", c.Package)
	}
	if c.Clang.Path == "" {
		return fmt.Errorf("clang path is empty")
	}
	if c.XCheck.Runtime != "" {
		if err := module.CheckImportPath(c.XCheck.Runtime); err != nil {
			return fmt.Errorf("cross-check runtime: %w", err)
		}
	}
	return nil
}

// Assemble returns the assembler settings.
func (c *Config) Assemble() *assemble.Config {
	mode, _ := assemble.ParseMode(c.Mode)
	return &assemble.Config{
		Package: c.Package,
		Mode:    mode,
		Entry:   c.Entry,
		LDFlags: c.LDFlags,
	}
}

// ABI resolves the target profile.
func (c *Config) ABI() (*abi.Target, error) {
	return abi.Resolve(c.Target)
}
