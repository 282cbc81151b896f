package driver

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/you-not-fish/cmigrate/internal/assemble"
	"github.com/you-not-fish/cmigrate/internal/xcheck"
)

// GlueDir is the subdirectory of the output holding the C side of the
// instrumentation. It is kept out of the package directory so that cgo
// does not compile it.
const GlueDir = "xcheck"

// Files returns every output file of r, keyed by path relative to the
// output directory.
func (r *Result) Files() (map[string][]byte, error) {
	files := make(map[string][]byte)
	for name, src := range r.Module.Files {
		files[name] = src
	}
	var man bytes.Buffer
	if err := r.Module.Manifest.Encode(&man); err != nil {
		return nil, err
	}
	files[assemble.ManifestFile] = man.Bytes()
	diags, err := assemble.Diagnostics(r.Diags)
	if err != nil {
		return nil, err
	}
	files[assemble.DiagnosticsFile] = diags

	if len(r.Glue) > 0 {
		for name, src := range xcheck.Runtime() {
			files[filepath.Join(GlueDir, name)] = src
		}
	}
	for _, g := range r.Glue {
		files[filepath.Join(GlueDir, xcheck.HeaderName(g.Unit))] = g.Header
		files[filepath.Join(GlueDir, xcheck.SourceName(g.Unit))] = g.Source
	}
	return files, nil
}

// Write writes the output files of r under dir.
func Write(dir string, r *Result) error {
	files, err := r.Files()
	if err != nil {
		return err
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, files[name], 0o644); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}
	return nil
}
