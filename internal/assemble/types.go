package assemble

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/you-not-fish/cmigrate/internal/codegen"
	"github.com/you-not-fish/cmigrate/internal/diag"
	"github.com/you-not-fish/cmigrate/internal/syntax"
)

// mergeTypes returns one declaration per type name. A complete
// declaration wins over opaque ones; two complete declarations of a name
// must agree, which linking guarantees unless a unit was generated with
// other names.
func mergeTypes(outs []*codegen.Output) ([]codegen.TypeDecl, []error) {
	byName := make(map[string]codegen.TypeDecl)
	var errs []error
	for _, o := range outs {
		for _, d := range o.Types {
			cur, ok := byName[d.Name]
			switch {
			case !ok, cur.Opaque && !d.Opaque:
				byName[d.Name] = d
			case !cur.Opaque && !d.Opaque && cur.Key != d.Key:
				errs = append(errs, diag.Errorf(diag.LinkConflict, syntax.Pos{}, "type %s has different definitions", d.Name).In(d.Name))
			case cur.Forward != d.Forward:
				cur.Forward = cur.Forward || d.Forward
				byName[d.Name] = cur
			}
		}
	}
	out := make([]codegen.TypeDecl, 0, len(byName))
	for _, d := range byName {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, errs
}

func typesFile(pkg string, decls []codegen.TypeDecl) ([]byte, error) {
	var body bytes.Buffer
	for _, d := range decls {
		body.WriteString("\n" + d.Text)
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "// Code generated by cmigrate. DO NOT EDIT.\n\npackage %s\n", pkg)
	used := codegen.PackagesUsed(body.Bytes())
	for _, p := range []string{"math", "unsafe"} {
		if used[p] {
			fmt.Fprintf(&b, "\nimport %q\n", p)
		}
	}
	b.Write(body.Bytes())
	return gofmt("types.go", b.Bytes())
}
