package importer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/you-not-fish/cmigrate/internal/diag"
	"github.com/you-not-fish/cmigrate/internal/syntax"
	"github.com/you-not-fish/cmigrate/internal/types"
)

// typeOf returns the type of node n.
func (c *importer) typeOf(n *syntax.Node) types.ID {
	return c.resolveType(n.Type, n.Pos)
}

// resolveType resolves a clang type annotation. A spelling that names an
// unknown typedef is retried in its desugared form, which is how builtin
// typedefs such as __int128_t resolve.
func (c *importer) resolveType(t *syntax.Type, pos syntax.Pos) types.ID {
	if t == nil || t.QualType == "" {
		c.errorf(diag.ParseFailure, pos, "node has no type")
		return c.g.Basic(types.Int)
	}
	key := typeKey{c.scope, t.QualType}
	if id, ok := c.cache[key]; ok {
		return id
	}
	id, err := c.spelling(t.QualType, pos)
	if err != nil && t.DesugaredQualType != "" {
		id, err = c.spelling(t.DesugaredQualType, pos)
	}
	if err != nil {
		c.errorf(diag.UnsupportedType, pos, "%v", err)
		return c.g.Basic(types.Int)
	}
	c.cache[key] = id
	return id
}

// spelling parses and resolves one type spelling.
func (c *importer) spelling(text string, pos syntax.Pos) (types.ID, error) {
	e, err := syntax.ParseType(text)
	if err != nil {
		return types.Invalid, err
	}
	return c.typExpr(e, pos)
}

// typExpr resolves a parsed type spelling in the current scope.
func (c *importer) typExpr(e syntax.TypeExpr, pos syntax.Pos) (types.ID, error) {
	switch e := e.(type) {
	case *syntax.BaseType:
		return c.baseType(e, pos)

	case *syntax.PointerType:
		if e.Block {
			return types.Invalid, fmt.Errorf("block pointer type %s", e)
		}
		elem, err := c.typExpr(e.Elem, pos)
		if err != nil {
			return types.Invalid, err
		}
		return c.g.NewPointer(elem, isConst(e.Elem)), nil

	case *syntax.ArrayType:
		elem, err := c.typExpr(e.Elem, pos)
		if err != nil {
			return types.Invalid, err
		}
		switch {
		case e.VLA:
			return c.g.NewVLA(elem), nil
		case e.Unsized:
			return c.g.NewUnsizedArray(elem), nil
		}
		return c.g.NewArray(elem, e.Len), nil

	case *syntax.FuncType:
		result, err := c.typExpr(e.Result, pos)
		if err != nil {
			return types.Invalid, err
		}
		params := make([]types.ID, len(e.Params))
		for i, p := range e.Params {
			id, err := c.typExpr(p, pos)
			if err != nil {
				return types.Invalid, err
			}
			params[i] = c.adjustParam(id)
		}
		return c.g.NewFunc(result, params, e.Variadic, e.NoProto), nil
	}
	return types.Invalid, fmt.Errorf("unexpected type expression %T", e)
}

// adjustParam applies the parameter type adjustments: arrays and
// functions become pointers.
func (c *importer) adjustParam(id types.ID) types.ID {
	switch t := c.g.Underlying(id).(type) {
	case *types.Array:
		return c.g.NewPointer(t.Elem, false)
	case *types.Func:
		return c.g.NewPointer(id, false)
	}
	return id
}

// isConst reports whether the object designated by e is const.
func isConst(e syntax.TypeExpr) bool {
	switch e := e.(type) {
	case *syntax.BaseType:
		return e.Const
	case *syntax.PointerType:
		return e.Const
	case *syntax.ArrayType:
		return isConst(e.Elem)
	}
	return false
}

func (c *importer) baseType(b *syntax.BaseType, pos syntax.Pos) (types.ID, error) {
	switch {
	case b.Typeof:
		return types.Invalid, fmt.Errorf("typeof type %s", b)
	case b.Atomic:
		return c.g.NewUnsupported(types.Vector, b.String()), nil
	case strings.Contains(b.Attr, "vector_size") || strings.Contains(b.Attr, "ext_vector_type"):
		return c.g.NewUnsupported(types.Vector, b.String()), nil
	}

	switch {
	case b.Anon != "":
		return c.anonType(b.Anon)
	case b.IsEnum():
		if id, ok := c.scope.LookupTag(b.Tag); ok {
			return id, nil
		}
		// A reference to an enum declared later: GNU forward enum.
		id := c.g.NewEnum(b.Tag, c.g.Basic(types.UInt), pos)
		c.fileScope.InsertTag(b.Tag, id)
		return id, nil
	case b.IsStruct() || b.IsUnion():
		return c.tagRef(b.Tag, b.IsUnion(), pos), nil
	case b.Name != "":
		if id, ok := c.scope.LookupTypedef(b.Name); ok {
			return id, nil
		}
		if b.Name == "__builtin_va_list" || b.Name == "va_list" || b.Name == "__gnuc_va_list" {
			return c.g.NewUnsupported(types.Vector, b.Name), nil
		}
		return types.Invalid, fmt.Errorf("unknown type name %s", b.Name)
	}
	return c.g.Basic(basicKind(b.SpecCount())), nil
}

// basicKind maps a keyword specifier multiset to a scalar kind.
func basicKind(n map[string]int) types.BasicKind {
	unsigned := n["unsigned"] > 0
	switch {
	case n["void"] > 0:
		return types.Void
	case n["_Bool"] > 0:
		return types.Bool
	case n["_Complex"] > 0:
		return types.Complex
	case n["__int128"] > 0:
		if unsigned {
			return types.UInt128
		}
		return types.Int128
	case n["__float128"] > 0:
		return types.Float128
	case n["float"] > 0:
		return types.Float
	case n["double"] > 0:
		if n["long"] > 0 {
			return types.LongDouble
		}
		return types.Double
	case n["char"] > 0:
		switch {
		case unsigned:
			return types.UChar
		case n["signed"] > 0:
			return types.SChar
		}
		return types.Char
	case n["short"] > 0:
		if unsigned {
			return types.UShort
		}
		return types.Short
	case n["long"] >= 2:
		if unsigned {
			return types.ULongLong
		}
		return types.LongLong
	case n["long"] == 1:
		if unsigned {
			return types.ULong
		}
		return types.Long
	}
	if unsigned {
		return types.UInt
	}
	return types.Int
}

// tagRef returns the record a struct or union tag refers to, declaring
// an incomplete record at file scope if the tag is not yet known.
func (c *importer) tagRef(tag string, union bool, pos syntax.Pos) types.ID {
	if id, ok := c.scope.LookupTag(tag); ok {
		return id
	}
	id := c.g.NewRecord(tag, union, pos)
	c.fileScope.InsertTag(tag, id)
	return id
}

// anonType resolves clang's spelling of an anonymous record or enum,
// e.g. "unnamed struct at list.c:3:9", to the type declared there.
func (c *importer) anonType(text string) (types.ID, error) {
	i := strings.LastIndex(text, " at ")
	if i < 0 {
		return types.Invalid, fmt.Errorf("malformed anonymous type %q", text)
	}
	loc := text[i+len(" at "):]
	if id, ok := c.anon[loc]; ok {
		return id, nil
	}
	file, line, col, ok := splitLoc(loc)
	if ok {
		for key, id := range c.anon {
			f, l, cl, _ := splitLoc(key)
			if l == line && cl == col && syntax.SameFile(f, file) {
				c.anon[loc] = id
				return id, nil
			}
		}
	}
	return types.Invalid, fmt.Errorf("anonymous type %q not declared", text)
}

// declareAnon registers an anonymous record or enum declared at pos.
func (c *importer) declareAnon(pos syntax.Pos, id types.ID) {
	c.anon[pos.String()] = id
}

// splitLoc splits "file:line:col".
func splitLoc(loc string) (file string, line, col int, ok bool) {
	j := strings.LastIndexByte(loc, ':')
	if j < 0 {
		return "", 0, 0, false
	}
	i := strings.LastIndexByte(loc[:j], ':')
	if i < 0 {
		return "", 0, 0, false
	}
	l, err1 := strconv.Atoi(loc[i+1 : j])
	cl, err2 := strconv.Atoi(loc[j+1:])
	if err1 != nil || err2 != nil {
		return "", 0, 0, false
	}
	return loc[:i], l, cl, true
}
