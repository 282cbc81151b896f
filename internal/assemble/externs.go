package assemble

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/you-not-fish/cmigrate/internal/codegen"
	"github.com/you-not-fish/cmigrate/internal/diag"
	"github.com/you-not-fish/cmigrate/internal/syntax"
)

// bindings are the symbols the program uses but no unit defines. They
// are declared once, in the cgo file.
type bindings struct {
	externs []codegen.Extern
	shims   []codegen.Shim
}

func (b *bindings) empty() bool {
	return len(b.externs) == 0 && len(b.shims) == 0
}

func collectBindings(plan *Plan, outs []*codegen.Output, diags *diag.Collector) *bindings {
	externs := make(map[string]codegen.Extern)
	shims := make(map[string]codegen.Shim)
	for _, o := range outs {
		pos := make(map[string]syntax.Pos)
		for _, x := range o.Externs {
			pos[x.C] = x.Pos
			if s := plan.Symbols[x.C]; s != nil && s.Definer != "" {
				continue
			}
			if cur, ok := externs[x.C]; ok {
				if cur.Sig() != x.Sig() {
					diags.AddError(o.Unit, diag.Errorf(diag.LinkConflict, x.Pos, "%s is bound as %s and %s", x.C, cur.Sig(), x.Sig()).In(x.C), diag.LinkConflict)
				}
				continue
			}
			externs[x.C] = x
		}
		for _, s := range o.Shims {
			if sym := plan.Symbols[s.Callee]; sym != nil && sym.Definer != "" {
				diags.AddError(o.Unit, diag.Errorf(diag.UnsupportedConstruct, pos[s.Callee],
					"variadic function %s is defined in unit %s and cannot be called through cgo", s.Callee, sym.Definer).In(s.Callee), diag.UnsupportedConstruct)
				continue
			}
			shims[s.Name] = s
		}
	}

	b := &bindings{}
	for _, x := range externs {
		b.externs = append(b.externs, x)
	}
	sort.Slice(b.externs, func(i, j int) bool { return b.externs[i].C < b.externs[j].C })
	for _, s := range shims {
		b.shims = append(b.shims, s)
	}
	sort.Slice(b.shims, func(i, j int) bool { return b.shims[i].Name < b.shims[j].Name })
	return b
}

// preamble binds each symbol under a prefixed name with an asm label, so
// the declarations never clash with the prototypes of system headers.
const preamble = `#include <stdint.h>

#define CM_STR2(x) #x
#define CM_STR(x) CM_STR2(x)
#define CM_SYM(name) CM_STR(__USER_LABEL_PREFIX__) name
`

// file renders externs.go.
func (b *bindings) file(pkg string, ldflags []string) ([]byte, error) {
	var c bytes.Buffer
	if len(ldflags) > 0 {
		c.WriteString("#cgo LDFLAGS:")
		for _, f := range ldflags {
			c.WriteString(" " + f)
		}
		c.WriteString("\n")
	}
	c.WriteString(preamble)
	if len(b.externs) > 0 {
		c.WriteString("\n")
	}
	for _, x := range b.externs {
		if p := x.Prototype(); p != "" {
			c.WriteString(p + "\n")
		}
	}
	if len(b.shims) > 0 {
		c.WriteString("\n")
	}
	for _, s := range b.shims {
		c.WriteString(s.Prototype() + "\n")
	}

	var body bytes.Buffer
	for _, x := range b.externs {
		if d := x.GoDecl(); d != "" {
			body.WriteString("\n" + d)
		}
	}
	for _, s := range b.shims {
		body.WriteString("\n" + s.GoDecl())
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "// Code generated by cmigrate. DO NOT EDIT.\n\npackage %s\n\n", pkg)
	fmt.Fprintf(&out, "/*\n%s*/\nimport \"C\"\n", c.String())
	if codegen.PackagesUsed(body.Bytes())["unsafe"] {
		out.WriteString("\nimport \"unsafe\"\n")
	}
	out.Write(body.Bytes())
	return gofmt("externs.go", out.Bytes())
}
