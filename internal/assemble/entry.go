package assemble

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	gotypes "go/types"
	"strings"

	"github.com/you-not-fish/cmigrate/internal/codegen"
)

// entryFile renders main.go of a binary: it builds argc, argv and envp
// as NUL-terminated C strings, calls the entry function and exits with
// its status.
func entryFile(plan *Plan, outs []*codegen.Output) ([]byte, error) {
	var fn *codegen.FuncInfo
	for _, o := range outs {
		for i := range o.Funcs {
			if o.Funcs[i].Name == plan.Entry {
				fn = &o.Funcs[i]
			}
		}
	}
	if fn == nil {
		return nil, fmt.Errorf("entry function %s was not generated", plan.Entry)
	}
	params, result, err := splitSig(fn.Sig)
	if err != nil {
		return nil, fmt.Errorf("entry function %s: %w", fn.C, err)
	}

	var b bytes.Buffer
	b.WriteString("// Code generated by cmigrate. DO NOT EDIT.\n\npackage main\n\n")
	b.WriteString("import (\n\t\"os\"\n")
	if len(params) > 1 {
		b.WriteString("\t\"unsafe\"\n")
	}
	b.WriteString(")\n\n")
	if len(params) > 1 {
		elem := strings.TrimPrefix(params[1], "*")
		fmt.Fprintf(&b, `func cstrings(ss []string) []%[1]s {
	out := make([]%[1]s, len(ss)+1)
	for i, s := range ss {
		b := append([]byte(s), 0)
		out[i] = (%[1]s)(unsafe.Pointer(&b[0]))
	}
	return out
}

`, elem)
	}

	var args []string
	b.WriteString("func main() {\n")
	if len(params) > 1 {
		b.WriteString("\targv := cstrings(os.Args)\n")
	}
	if len(params) > 2 {
		b.WriteString("\tenvp := cstrings(os.Environ())\n")
	}
	for i, p := range params {
		switch i {
		case 0:
			args = append(args, fmt.Sprintf("%s(len(os.Args))", p))
		case 1:
			args = append(args, "&argv[0]")
		case 2:
			args = append(args, "&envp[0]")
		}
	}
	call := fmt.Sprintf("%s(%s)", plan.Entry, strings.Join(args, ", "))
	if result == "" {
		fmt.Fprintf(&b, "\t%s\n\tos.Exit(0)\n", call)
	} else {
		fmt.Fprintf(&b, "\tos.Exit(int(%s))\n", call)
	}
	b.WriteString("}\n")
	return gofmt("main.go", b.Bytes())
}

// splitSig returns the parameter and result types of a Go function type.
func splitSig(sig string) ([]string, string, error) {
	x, err := parser.ParseExpr(sig)
	if err != nil {
		return nil, "", err
	}
	ft, ok := x.(*ast.FuncType)
	if !ok {
		return nil, "", fmt.Errorf("%s is not a function type", sig)
	}
	var params []string
	for _, f := range ft.Params.List {
		n := len(f.Names)
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			params = append(params, gotypes.ExprString(f.Type))
		}
	}
	result := ""
	if ft.Results != nil && len(ft.Results.List) > 0 {
		result = gotypes.ExprString(ft.Results.List[0].Type)
	}
	return params, result, nil
}
