package xcheck

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/you-not-fish/cmigrate/internal/diag"
	"github.com/you-not-fish/cmigrate/internal/ir"
	"github.com/you-not-fish/cmigrate/internal/types"
)

//go:embed rt/xcheck_rt.h rt/xcheck_rt.c
var runtimeFS embed.FS

// Runtime returns the C runtime files, keyed by file name.
func Runtime() map[string][]byte {
	out := make(map[string][]byte)
	for _, name := range []string{"xcheck_rt.h", "xcheck_rt.c"} {
		b, err := runtimeFS.ReadFile("rt/" + name)
		if err != nil {
			panic(err)
		}
		out[name] = b
	}
	return out
}

// HeaderName returns the name of the header the rewritten source of unit
// is compiled with, as in cc -include xcheck_sites_main.h.
func HeaderName(unit string) string {
	return "xcheck_sites_" + unit + ".h"
}

// SourceName returns the name of the rewritten source of unit.
func SourceName(unit string) string {
	return unit + ".xcheck.c"
}

// Glue is the C side of the instrumentation of one unit.
type Glue struct {
	Unit   string
	Header []byte // site macros
	Source []byte // unit source with callee tokens replaced
	Sites  int
}

// MacroName returns the C name of the macro a site's callee token is
// replaced with.
func MacroName(id uint32) string {
	return fmt.Sprintf("xcheck_site_%08x", id)
}

// Generate builds the C glue of u from the source text of its main file.
// Each site becomes a macro that evaluates the arguments once, records
// the entry checkpoint, calls the callee and records the exit checkpoint,
// using statement expressions. Sites that cannot be rewritten are
// reported and left as plain calls.
func Generate(u *ir.Unit, src []byte) (*Glue, []error) {
	var errs []error
	var sites []*ir.Site
	var hdr bytes.Buffer
	guard := strings.ToUpper(strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, HeaderName(u.Name)))
	fmt.Fprintf(&hdr, "/* Code generated by cmigrate from %s. DO NOT EDIT. */\n", u.File)
	fmt.Fprintf(&hdr, "#ifndef %s\n#define %s\n\n#include \"xcheck_rt.h\"\n", guard, guard)

	for _, f := range u.Funcs() {
		for _, s := range f.Sites {
			if s.Macro {
				continue
			}
			if err := checkToken(src, s); err != nil {
				errs = append(errs, inDecl(err, f.Name))
				continue
			}
			m, err := siteMacro(u.Sizes, s)
			if err != nil {
				errs = append(errs, inDecl(err, f.Name))
				continue
			}
			hdr.WriteString("\n" + m)
			sites = append(sites, s)
		}
	}
	hdr.WriteString("\n#endif\n")

	return &Glue{
		Unit:   u.Name,
		Header: hdr.Bytes(),
		Source: rewrite(src, sites),
		Sites:  len(sites),
	}, errs
}

func inDecl(err error, decl string) error {
	var de *diag.Error
	if errors.As(err, &de) {
		return de.In(decl)
	}
	return err
}

func checkToken(src []byte, s *ir.Site) error {
	end := s.Offset + int64(s.TokLen)
	if s.Offset < 0 || end > int64(len(src)) || string(src[s.Offset:end]) != s.Callee {
		return diag.Errorf(diag.UnsupportedConstruct, s.Call.Pos(), "call of %s: callee token not found in source", s.Callee)
	}
	return nil
}

// rewrite replaces the callee token of each site with its macro name.
func rewrite(src []byte, sites []*ir.Site) []byte {
	sites = append([]*ir.Site(nil), sites...)
	sort.Slice(sites, func(i, j int) bool { return sites[i].Offset < sites[j].Offset })
	var out bytes.Buffer
	var last int64
	for _, s := range sites {
		out.Write(src[last:s.Offset])
		out.WriteString(MacroName(s.ID))
		last = s.Offset + int64(s.TokLen)
	}
	out.Write(src[last:])
	return out.Bytes()
}

// siteMacro returns the definition of the macro of site s.
func siteMacro(sz *types.Sizes, s *ir.Site) (string, error) {
	g := sz.Graph()
	ft := g.FuncOf(s.Call.Fun.Type())
	if ft == nil {
		return "", diag.Errorf(diag.UnsupportedConstruct, s.Call.Pos(), "call of %s: not a function", s.Callee)
	}

	var params, lines, args, tags []string
	for i, a := range s.Call.Args {
		t := a.Type()
		if i < len(ft.Params) {
			t = ft.Params[i]
		}
		p := fmt.Sprintf("a%d", i)
		v := "xck_" + p
		d, err := cDecl(g, t, v)
		if err != nil {
			return "", err
		}
		tag, err := cTag(sz, t, v)
		if err != nil {
			return "", err
		}
		params = append(params, p)
		lines = append(lines, fmt.Sprintf("%s = (%s);", d, p))
		args = append(args, v)
		tags = append(tags, tag)
	}
	fold := append([]string{fmt.Sprint(len(tags))}, tags...)
	lines = append(lines, fmt.Sprintf("uint64_t xck_seq = xck_enter(0x%08xu, xck_fold(%s));", s.ID, strings.Join(fold, ", ")))
	call := fmt.Sprintf("%s(%s)", s.Callee, strings.Join(args, ", "))
	if g.IsVoid(ft.Result) {
		lines = append(lines,
			call+";",
			fmt.Sprintf("xck_exit(0x%08xu, xck_seq, 0);", s.ID),
			"(void)0;")
	} else {
		d, err := cDecl(g, ft.Result, "xck_r")
		if err != nil {
			return "", err
		}
		tag, err := cTag(sz, ft.Result, "xck_r")
		if err != nil {
			return "", err
		}
		lines = append(lines,
			d+" = "+call+";",
			fmt.Sprintf("xck_exit(0x%08xu, xck_seq, %s);", s.ID, tag),
			"xck_r;")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "#define %s(%s) ({ \\\n", MacroName(s.ID), strings.Join(params, ", "))
	for _, l := range lines {
		fmt.Fprintf(&b, "\t%s \\\n", l)
	}
	b.WriteString("})\n")
	return b.String(), nil
}

// cTag returns the C expression computing the tag of variable v of type t.
func cTag(sz *types.Sizes, t types.ID, v string) (string, error) {
	r, err := RecipeOf(sz, t)
	if err != nil {
		return "", err
	}
	switch r.Kind {
	case TagInt:
		return fmt.Sprintf("xck_int((uint64_t)%s, %d)", v, r.Size), nil
	case TagFloat:
		if r.Size == 4 {
			return fmt.Sprintf("xck_f32(%s)", v), nil
		}
		return fmt.Sprintf("xck_f64((double)%s)", v), nil
	case TagPtr:
		return fmt.Sprintf("xck_ptr(%s != 0)", v), nil
	case TagObject:
		ints := Ints(r.Parts)
		if len(ints) == 0 {
			return fmt.Sprintf("xck_object(&%s, 0, 0)", v), nil
		}
		parts := make([]string, len(ints))
		for i, n := range ints {
			parts[i] = fmt.Sprint(n)
		}
		return fmt.Sprintf("xck_object(&%s, %d, (const int[]){%s})", v, len(parts), strings.Join(parts, ", ")), nil
	}
	return "0", nil
}
