package codegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/you-not-fish/cmigrate/internal/diag"
	"github.com/you-not-fish/cmigrate/internal/ir"
	"github.com/you-not-fish/cmigrate/internal/syntax"
	"github.com/you-not-fish/cmigrate/internal/target"
	"github.com/you-not-fish/cmigrate/internal/types"
)

// CPrefix prefixes the cgo-side names of external symbols. The prefixed
// declarations are bound to the real symbols with asm labels, so they
// never conflict with the library's own prototypes.
const CPrefix = "cm_"

// Scalar is the ABI class of a parameter or result passed through cgo.
type Scalar struct {
	Go string // Go type; "" for void
	C  string // C type in the cgo prototype
}

// Extern is a function or variable a unit uses but does not define. The
// assembler declares each symbol once, in the cgo file.
type Extern struct {
	C    string // C symbol
	Name string // Go name
	Var  bool
	Pos  syntax.Pos

	// Functions. A variadic function, or one declared without a
	// prototype, is only called through shims.
	Variadic bool
	NoProto  bool
	Params   []Scalar
	Result   Scalar
	// Stub explains why the function cannot be called through cgo; its Go
	// declaration then panics.
	Stub string

	// Variables.
	Type string // Go type
	Size int64
}

// Sig returns the Go type of the symbol. Units sharing a symbol must
// agree on it.
func (x *Extern) Sig() string {
	if x.Var {
		return x.Type
	}
	return scalarSig(x.Params, x.Result)
}

// Shim is a fixed-arity C wrapper around a variadic external function,
// one per distinct list of argument types.
type Shim struct {
	Name   string // Go and C name
	Callee string // variadic C function
	Params []Scalar
	Result Scalar
}

func scalarSig(params []Scalar, res Scalar) string {
	var b strings.Builder
	b.WriteString("func(")
	for i, p := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Go)
	}
	b.WriteString(")")
	if res.Go != "" {
		b.WriteString(" " + res.Go)
	}
	return b.String()
}

// scalar classifies a C type for passing through cgo. Records and
// function pointers cannot be passed.
func (g *gen) scalar(t types.ID) (Scalar, bool) {
	gt := g.goType(t)
	switch u := g.g.Underlying(t).(type) {
	case *types.Basic:
		switch {
		case u.Kind() == types.Void:
			return Scalar{}, true
		case u.Info()&types.IsFloat != 0:
			if g.sizes.Sizeof(t) == 4 {
				return Scalar{Go: gt, C: "float"}, true
			}
			if g.sizes.Sizeof(t) == 8 {
				return Scalar{Go: gt, C: "double"}, true
			}
			return Scalar{}, false
		case u.Info()&types.IsInteger != 0:
			return Scalar{Go: gt, C: cInt(g.sizes.Sizeof(t), g.sizes.Unsigned(t))}, true
		}
	case *types.Enum:
		return Scalar{Go: gt, C: cInt(g.sizes.Sizeof(t), g.sizes.Unsigned(t))}, true
	case *types.Pointer:
		if g.g.IsFunc(u.Elem) {
			return Scalar{}, false
		}
		return Scalar{Go: gt, C: "void*"}, true
	}
	return Scalar{}, false
}

func cInt(size int64, unsigned bool) string {
	s := fmt.Sprintf("int%d_t", size*8)
	if unsigned {
		return "u" + s
	}
	return s
}

// code abbreviates a scalar for shim names.
func (s Scalar) code() string {
	switch {
	case s.C == "void*":
		return "p"
	case s.C == "float":
		return "f32"
	case s.C == "double":
		return "f64"
	}
	c := strings.TrimSuffix(s.C, "_t")
	if strings.HasPrefix(c, "uint") {
		return "u" + strings.TrimPrefix(c, "uint")
	}
	return strings.TrimPrefix(c, "int")
}

// externFunc records a call of a function the unit does not define.
func (g *gen) externFunc(fn *ir.FuncDecl, name string) {
	if _, ok := g.externs[fn.Name]; ok {
		return
	}
	x := &Extern{C: fn.Name, Name: name, Pos: fn.Pos()}
	g.externs[fn.Name] = x
	ft := g.g.FuncOf(fn.Type)
	if ft == nil {
		x.Stub = "not a function"
		return
	}
	x.Variadic, x.NoProto = ft.Variadic, ft.NoProto
	res, ok := g.scalar(ft.Result)
	if !ok {
		x.Stub = fmt.Sprintf("returns %s", g.g.String(ft.Result))
		res = Scalar{Go: g.goType(ft.Result)}
	}
	x.Result = res
	for _, p := range ft.Params {
		s, ok := g.scalar(p)
		if !ok {
			if x.Stub == "" {
				x.Stub = fmt.Sprintf("takes %s", g.g.String(p))
			}
			s = Scalar{Go: g.goType(p)}
		}
		x.Params = append(x.Params, s)
	}
	if x.Stub != "" && fn.Linkage == ir.External {
		g.report(diag.Errorf(diag.UnsupportedConstruct, fn.Pos(), "external function %s %s, which cannot be passed through cgo", fn.Name, x.Stub), fn.Name)
	}
}

// externVar records a use of a variable the unit declares but does not
// define.
func (g *gen) externVar(v *ir.VarDecl, name string) {
	if _, ok := g.externs[v.Name]; ok {
		return
	}
	g.externs[v.Name] = &Extern{
		C:    v.Name,
		Name: name,
		Var:  true,
		Pos:  v.Pos(),
		Type: g.goType(v.Type),
		Size: g.sizes.Sizeof(v.Type),
	}
}

// shim returns the Go name of the fixed-arity wrapper for a call of an
// external variadic function with the given arguments.
func (f *fgen) shim(fn *ir.FuncDecl, ft *types.Func, args []ir.Expr) string {
	s := &Shim{Callee: fn.Name}
	res, ok := f.scalar(ft.Result)
	if !ok {
		f.fail(fn.Pos(), "call of %s returning %s", fn.Name, f.g.String(ft.Result))
	}
	s.Result = res
	f.externFunc(fn, f.names.Object(fn))
	codes := []string{target.Ident(fn.Name)}
	for i, a := range args {
		t := a.Type()
		if i < len(ft.Params) {
			t = ft.Params[i]
		}
		p, ok := f.scalar(t)
		if !ok {
			f.fail(a.Pos(), "argument of type %s to %s", f.g.String(t), fn.Name)
		}
		s.Params = append(s.Params, p)
		codes = append(codes, p.code())
	}
	s.Name = strings.Join(codes, "_")
	if _, ok := f.shims[s.Name]; !ok {
		f.shims[s.Name] = s
	}
	return s.Name
}

func (g *gen) externList() []Extern {
	out := make([]Extern, 0, len(g.externs))
	for _, x := range g.externs {
		out = append(out, *x)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].C < out[j].C })
	return out
}

func (g *gen) shimList() []Shim {
	out := make([]Shim, 0, len(g.shims))
	for _, s := range g.shims {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Prototype returns the cgo preamble declaration of the symbol.
func (x *Extern) Prototype() string {
	if x.Var {
		return fmt.Sprintf("extern char %s%s __asm__(CM_SYM(%q));", CPrefix, x.C, x.C)
	}
	if x.Stub != "" {
		return ""
	}
	params := cParams(x.Params, false)
	switch {
	case x.NoProto:
		params = ""
	case x.Variadic && len(x.Params) > 0:
		params += ", ..."
	}
	return fmt.Sprintf("extern %s %s%s(%s) __asm__(CM_SYM(%q));", cResult(x.Result), CPrefix, x.C, params, x.C)
}

// GoDecl returns the Go declaration of the symbol: a function calling
// through cgo, or a variable with the initializer copying its value.
func (x *Extern) GoDecl() string {
	if x.Var {
		return fmt.Sprintf("var %s %s\n\nfunc init() { %s = *(*%s)(unsafe.Pointer(&C.%s%s)) }\n", x.Name, x.Type, x.Name, x.Type, CPrefix, x.C)
	}
	if x.Variadic {
		return ""
	}
	if x.Stub != "" {
		return fmt.Sprintf("func %s(%s)%s {\n\tpanic(%q)\n}\n", x.Name, goParams(x.Params), goResult(x.Result), "external function "+x.C+" "+x.Stub)
	}
	return goCall(x.Name, CPrefix+x.C, x.Params, x.Result)
}

// Prototype returns the C definition of the shim, which forwards to the
// declaration of the variadic function.
func (s *Shim) Prototype() string {
	var args []string
	for i := range s.Params {
		args = append(args, fmt.Sprintf("a%d", i))
	}
	call := fmt.Sprintf("%s%s(%s)", CPrefix, s.Callee, strings.Join(args, ", "))
	if s.Result.Go != "" {
		call = "return " + call
	}
	return fmt.Sprintf("static %s %s(%s) { %s; }", cResult(s.Result), s.Name, cParams(s.Params, true), call)
}

// GoDecl returns the Go function calling the shim.
func (s *Shim) GoDecl() string {
	return goCall(s.Name, s.Name, s.Params, s.Result)
}

func cResult(s Scalar) string {
	if s.Go == "" {
		return "void"
	}
	return s.C
}

func cParams(ps []Scalar, named bool) string {
	if len(ps) == 0 {
		return "void"
	}
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.C
		if named {
			parts[i] += fmt.Sprintf(" a%d", i)
		}
	}
	return strings.Join(parts, ", ")
}

func goParams(ps []Scalar) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = fmt.Sprintf("a%d %s", i, p.Go)
	}
	return strings.Join(parts, ", ")
}

func goResult(s Scalar) string {
	if s.Go == "" {
		return ""
	}
	return " " + s.Go
}

// goCall renders a Go function calling the C function cname.
func goCall(name, cname string, ps []Scalar, res Scalar) string {
	args := make([]string, len(ps))
	for i, p := range ps {
		a := fmt.Sprintf("a%d", i)
		switch {
		case p.C == "void*" && p.Go == "unsafe.Pointer":
			args[i] = a
		case p.C == "void*":
			args[i] = "unsafe.Pointer(" + a + ")"
		default:
			args[i] = fmt.Sprintf("C.%s(%s)", p.C, a)
		}
	}
	call := fmt.Sprintf("C.%s(%s)", cname, strings.Join(args, ", "))
	switch {
	case res.Go == "":
	case res.C == "void*" && res.Go == "unsafe.Pointer":
		call = "return " + call
	case res.C == "void*":
		call = fmt.Sprintf("return (%s)(%s)", res.Go, call)
	default:
		call = fmt.Sprintf("return %s(%s)", res.Go, call)
	}
	return fmt.Sprintf("func %s(%s)%s {\n\t%s\n}\n", name, goParams(ps), goResult(res), call)
}
