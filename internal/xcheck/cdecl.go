package xcheck

import (
	"fmt"

	"github.com/you-not-fish/cmigrate/internal/diag"
	"github.com/you-not-fish/cmigrate/internal/types"
)

// cDecl spells a C declaration of name with type t. An empty name spells
// the type name. Types without a spelling, such as anonymous records, are
// an error.
func cDecl(g *types.Graph, t types.ID, name string) (string, error) {
	switch u := g.At(t).(type) {
	case *types.Basic:
		return join(u.Name(), name), nil
	case *types.Typedef:
		return join(u.Name, name), nil
	case *types.Record:
		if u.Tag == "" {
			return "", diag.Errorf(diag.UnsupportedType, g.Pos(t), "cannot spell %s in C", g.String(t))
		}
		return join(u.Kind()+" "+u.Tag, name), nil
	case *types.Enum:
		if u.Tag == "" {
			return cDecl(g, u.Underlying, name)
		}
		return join("enum "+u.Tag, name), nil
	case *types.Pointer:
		inner := "*" + name
		switch g.At(u.Elem).(type) {
		case *types.Array, *types.Func:
			inner = "(" + inner + ")"
		}
		if u.Const && !g.IsFunc(u.Elem) && !g.IsArray(u.Elem) {
			base, err := cDecl(g, u.Elem, "")
			if err != nil {
				return "", err
			}
			return join(base+" const", inner), nil
		}
		return cDecl(g, u.Elem, inner)
	case *types.Array:
		switch {
		case u.Unsized:
			return cDecl(g, u.Elem, name+"[]")
		case u.VLA:
			return cDecl(g, u.Elem, name+"[*]")
		}
		return cDecl(g, u.Elem, fmt.Sprintf("%s[%d]", name, u.Len))
	case *types.Func:
		params := ""
		for i, p := range u.Params {
			if i > 0 {
				params += ", "
			}
			s, err := cDecl(g, p, "")
			if err != nil {
				return "", err
			}
			params += s
		}
		switch {
		case u.Variadic && len(u.Params) > 0:
			params += ", ..."
		case len(u.Params) == 0 && !u.NoProto:
			params = "void"
		}
		return cDecl(g, u.Result, name+"("+params+")")
	}
	return "", diag.Errorf(diag.UnsupportedType, g.Pos(t), "cannot spell %s in C", g.String(t))
}

func join(base, name string) string {
	if name == "" {
		return base
	}
	return base + " " + name
}
