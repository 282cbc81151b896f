package assemble

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pelletier/go-toml"

	"github.com/you-not-fish/cmigrate/internal/codegen"
	"github.com/you-not-fish/cmigrate/internal/diag"
	"github.com/you-not-fish/cmigrate/internal/ir"
)

// ManifestFile and DiagnosticsFile are the names of the TOML reports
// written next to the package.
const (
	ManifestFile    = "manifest.toml"
	DiagnosticsFile = "diagnostics.toml"
)

// Unit statuses.
const (
	StatusOK      = "ok"
	StatusPartial = "partial" // some declarations were stubbed or skipped
	StatusFailed  = "failed"
)

// Manifest describes an assembled package.
type Manifest struct {
	Package     string           `toml:"package"`
	Mode        string           `toml:"mode"`
	Entry       string           `toml:"entry,omitempty"`
	LDFlags     []string         `toml:"ldflags,omitempty"`
	Units       []*ManifestUnit  `toml:"units"`
	Externs     []ManifestExtern `toml:"externs,omitempty"`
	Renames     []ManifestRename `toml:"renames,omitempty"`
	Diagnostics map[string]int   `toml:"diagnostics"`
}

type ManifestUnit struct {
	Name     string         `toml:"name"`
	File     string         `toml:"file"`
	Status   string         `toml:"status"`
	Defines  []string       `toml:"defines,omitempty"`
	Exports  []string       `toml:"exports,omitempty"` // callable from C
	Requires []string       `toml:"requires,omitempty"`
	Forward  []string       `toml:"forward,omitempty"`
	Stubs    []string       `toml:"stubs,omitempty"`
	Pointers []ManifestPtr  `toml:"pointers,omitempty"`
	Sites    []ManifestSite `toml:"sites,omitempty"`
	Glue     bool           `toml:"xcheck-glue,omitempty"`
}

// ManifestPtr lists what a function does with one pointer parameter.
type ManifestPtr struct {
	Func  string   `toml:"func"`
	Param string   `toml:"param"`
	Facts []string `toml:"facts"`
}

type ManifestSite struct {
	ID      string `toml:"id"`
	Func    string `toml:"func"`
	Callee  string `toml:"callee"`
	Ordinal int    `toml:"ordinal"`
	Wrapper string `toml:"wrapper"`
}

type ManifestExtern struct {
	C    string `toml:"c"`
	Go   string `toml:"go"`
	Sig  string `toml:"sig"`
	Stub string `toml:"stub,omitempty"`
}

type ManifestRename struct {
	Unit string `toml:"unit,omitempty"`
	C    string `toml:"c"`
	Go   string `toml:"go"`
	Type bool   `toml:"type,omitempty"`
}

func buildManifest(plan *Plan, units []Unit, types []codegen.TypeDecl, b *bindings, conf *Config, diags *diag.Collector) *Manifest {
	m := &Manifest{
		Package:     conf.PackageName(),
		Mode:        conf.Mode.String(),
		Entry:       plan.Entry,
		LDFlags:     conf.LDFlags,
		Diagnostics: make(map[string]int),
	}
	forward := make(map[string]bool)
	for _, d := range types {
		if d.Forward {
			forward[d.Name] = true
		}
	}
	for _, u := range units {
		mu := &ManifestUnit{
			Name:     u.Name,
			File:     u.File,
			Status:   StatusOK,
			Defines:  plan.Defines(u.Name),
			Requires: plan.Requires(u.Name),
			Glue:     u.Glue,
		}
		switch {
		case u.Output == nil:
			mu.Status = StatusFailed
		case diags.Counts(u.Name).Total() > 0:
			mu.Status = StatusPartial
		}
		if o := u.Output; o != nil {
			for _, d := range o.Types {
				if forward[d.Name] && !contains(mu.Forward, d.Name) {
					mu.Forward = append(mu.Forward, d.Name)
				}
			}
			for _, f := range o.Funcs {
				if f.Stub {
					mu.Stubs = append(mu.Stubs, f.C)
				}
				if f.Exported {
					mu.Exports = append(mu.Exports, f.C)
				}
				for i, p := range f.Ptrs {
					if facts := ptrFacts(p); len(facts) > 0 && i < len(f.Params) {
						mu.Pointers = append(mu.Pointers, ManifestPtr{Func: f.C, Param: f.Params[i], Facts: facts})
					}
				}
			}
			for _, s := range o.Sites {
				mu.Sites = append(mu.Sites, ManifestSite{
					ID:      fmt.Sprintf("%08x", s.ID),
					Func:    s.Func,
					Callee:  s.Callee,
					Ordinal: s.Ordinal,
					Wrapper: s.Wrapper,
				})
			}
		}
		m.Units = append(m.Units, mu)
	}
	for _, x := range b.externs {
		m.Externs = append(m.Externs, ManifestExtern{C: x.C, Go: x.Name, Sig: x.Sig(), Stub: x.Stub})
	}
	for _, r := range plan.Renames {
		m.Renames = append(m.Renames, ManifestRename(r))
	}
	counts := diags.Counts("")
	for _, k := range diag.Kinds() {
		m.Diagnostics[k.String()] = counts[k]
	}
	return m
}

func ptrFacts(p ir.PtrFacts) []string {
	var out []string
	if p.Load {
		out = append(out, "load")
	}
	if p.Store {
		out = append(out, "store")
	}
	if p.PosOffset {
		out = append(out, "pos-offset")
	}
	if p.NegOffset {
		out = append(out, "neg-offset")
	}
	if p.Escape {
		out = append(out, "escape")
	}
	if p.NonUnique {
		out = append(out, "non-unique")
	}
	return out
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// Encode writes m as TOML.
func (m *Manifest) Encode(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(m); err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return nil
}

// ReadManifest decodes a manifest written by Encode.
func ReadManifest(data []byte) (*Manifest, error) {
	m := &Manifest{}
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return m, nil
}

type diagnosticsFile struct {
	Counts      map[string]int    `toml:"counts"`
	Diagnostics []diagnosticEntry `toml:"diagnostic"`
}

type diagnosticEntry struct {
	Unit    string `toml:"unit"`
	Pos     string `toml:"pos,omitempty"`
	Kind    string `toml:"kind"`
	Decl    string `toml:"decl,omitempty"`
	Message string `toml:"message"`
}

// Diagnostics renders every diagnostic of c, in stable order, as TOML.
func Diagnostics(c *diag.Collector) ([]byte, error) {
	f := diagnosticsFile{Counts: make(map[string]int)}
	counts := c.Counts("")
	for _, k := range diag.Kinds() {
		f.Counts[k.String()] = counts[k]
	}
	for _, d := range c.Sorted() {
		e := diagnosticEntry{Unit: d.Unit, Kind: d.Kind.String(), Decl: d.Decl, Message: d.Msg}
		if d.Pos.IsValid() {
			e.Pos = d.Pos.String()
		}
		f.Diagnostics = append(f.Diagnostics, e)
	}
	var b bytes.Buffer
	if err := toml.NewEncoder(&b).Encode(f); err != nil {
		return nil, fmt.Errorf("encoding diagnostics: %w", err)
	}
	return b.Bytes(), nil
}
