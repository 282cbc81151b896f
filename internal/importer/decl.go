package importer

import (
	"strconv"
	"strings"

	"github.com/you-not-fish/cmigrate/internal/diag"
	"github.com/you-not-fish/cmigrate/internal/ir"
	"github.com/you-not-fish/cmigrate/internal/syntax"
	"github.com/you-not-fish/cmigrate/internal/types"
)

// defaultAlign is the alignment of __attribute__((aligned)) without an
// argument, the largest alignment of any scalar on the supported targets.
const defaultAlign = 16

// recordDecl imports a struct or union declaration in the current scope.
func (c *importer) recordDecl(n *syntax.Node) types.ID {
	union := n.TagUsed == "union"
	var id types.ID
	switch {
	case n.Name == "":
		id = c.g.NewRecord("", union, n.Pos)
		c.declareAnon(n.Pos, id)
	default:
		if prev, ok := c.scope.LocalTag(n.Name); ok && !c.g.Record(prev).Complete {
			id = prev
		} else if ok && !n.CompleteDefinition {
			return prev
		} else {
			id = c.g.NewRecord(n.Name, union, n.Pos)
			c.scope.InsertTag(n.Name, id)
		}
	}
	if !n.CompleteDefinition {
		return id
	}

	var (
		fields      []types.Field
		packed      bool
		align       int64
		unsupported string
	)
	for _, m := range n.Inner {
		switch m.Kind {
		case "FieldDecl":
			f := types.Field{Name: m.Name, Type: c.typeOf(m)}
			for _, a := range m.Inner {
				switch a.Kind {
				case "AlignedAttr":
					f.AlignAttr = c.alignAttr(a)
				case "PackedAttr":
					unsupported = "packed member " + m.Name
				}
			}
			if m.IsBitfield {
				f.Bitfield = true
				w, ok := c.constInt(firstExpr(m))
				if !ok {
					unsupported = "bitfield width of " + m.Name + " is not constant"
				}
				f.Width = w
			}
			if m.Name == "" && !m.IsBitfield && c.g.IsRecord(f.Type) {
				f.Embedded = true
			}
			c.hint(f.Type, c.recordName(id)+"_"+fieldHint(m.Name, len(fields)))
			c.fields[m.ID] = fieldRef{record: id, index: len(fields)}
			fields = append(fields, f)
		case "RecordDecl":
			c.recordDecl(m)
		case "EnumDecl":
			c.enumDecl(m)
		case "PackedAttr":
			packed = true
		case "AlignedAttr":
			if a := c.alignAttr(m); a > align {
				align = a
			}
		case "MaxFieldAlignmentAttr":
			unsupported = "#pragma pack alignment"
		}
	}
	c.g.Complete(id, fields, packed, align)
	if unsupported != "" {
		c.g.Record(id).Unsupported = unsupported
	}
	return id
}

func fieldHint(name string, i int) string {
	if name != "" {
		return name
	}
	return "anon" + strconv.Itoa(i)
}

// recordName returns a name usable as a prefix for hints.
func (c *importer) recordName(id types.ID) string {
	if r := c.g.Record(id); r != nil {
		if r.Tag != "" {
			return r.Tag
		}
		if r.Hint != "" {
			return r.Hint
		}
	}
	return id.String()
}

// hint names an anonymous record or enum after the declaration that
// introduced it. The first hint wins.
func (c *importer) hint(id types.ID, name string) {
	for {
		switch t := c.g.At(id).(type) {
		case *types.Record:
			if t.Tag == "" && t.Hint == "" {
				t.Hint = name
			}
			return
		case *types.Enum:
			if t.Tag == "" && t.Hint == "" {
				t.Hint = name
			}
			return
		case *types.Array:
			id = t.Elem
		default:
			return
		}
	}
}

// alignAttr returns the alignment requested by an AlignedAttr node.
func (c *importer) alignAttr(n *syntax.Node) int64 {
	if x := firstExpr(n); !x.IsNull() {
		if v, ok := c.constInt(x); ok {
			return v
		}
	}
	return defaultAlign
}

// enumDecl imports an enumeration in the current scope. The underlying
// type follows GCC: unsigned int when no enumerator is negative, int
// otherwise, widened when the values do not fit.
func (c *importer) enumDecl(n *syntax.Node) types.ID {
	var id types.ID
	if n.Name == "" {
		id = c.g.NewEnum("", c.g.Basic(types.UInt), n.Pos)
		c.declareAnon(n.Pos, id)
	} else if prev, ok := c.scope.LocalTag(n.Name); ok {
		id = prev
	} else {
		id = c.g.NewEnum(n.Name, c.g.Basic(types.UInt), n.Pos)
		c.scope.InsertTag(n.Name, id)
	}
	e := c.g.At(id).(*types.Enum)

	var consts []types.EnumConst
	var next int64
	neg, big := false, false
	for _, m := range n.Inner {
		if m.Kind != "EnumConstantDecl" {
			continue
		}
		v := next
		if x := firstExpr(m); !x.IsNull() {
			if k, ok := c.constInt(x); ok {
				v = k
			}
		}
		next = v + 1
		neg = neg || v < 0
		big = big || v < -1<<31 || v > 1<<32-1 || neg && v > 1<<31-1
		consts = append(consts, types.EnumConst{Name: m.Name, Value: v})
		c.consts[m.ID] = enumConst{value: v, typ: id}
	}
	if len(consts) == 0 && !n.CompleteDefinition && n.FixedUnderlying == nil {
		return id
	}

	switch {
	case n.FixedUnderlying != nil:
		e.Underlying = c.resolveType(n.FixedUnderlying, n.Pos)
	case big && neg:
		e.Underlying = c.wideInt(false)
	case big:
		e.Underlying = c.wideInt(true)
	case neg:
		e.Underlying = c.g.Basic(types.Int)
	default:
		e.Underlying = c.g.Basic(types.UInt)
	}
	e.Consts = consts
	e.Complete = true
	return id
}

// wideInt returns the 64-bit integer type of the target.
func (c *importer) wideInt(unsigned bool) types.ID {
	if c.sizes.Target().SizeLong == 8 {
		if unsigned {
			return c.g.Basic(types.ULong)
		}
		return c.g.Basic(types.Long)
	}
	if unsigned {
		return c.g.Basic(types.ULongLong)
	}
	return c.g.Basic(types.LongLong)
}

// typedefDecl imports a typedef in the current scope.
func (c *importer) typedefDecl(n *syntax.Node) types.ID {
	alias := c.typeOf(n)
	c.hint(alias, n.Name)
	id := c.g.NewTypedef(n.Name, alias, n.Pos)
	c.scope.InsertTypedef(n.Name, id)
	return id
}

// typeDeclIn imports a type declaration, reporting errors only for the
// main file: headers declare many types no unit ever uses.
func (c *importer) typeDeclIn(n *syntax.Node, imp func(*syntax.Node) types.ID) types.ID {
	outer, outerErr := c.decl, c.err
	c.beginDecl(n.Name)
	id := imp(n)
	err := c.endDecl()
	c.decl, c.err = outer, outerErr
	if err != nil && c.file.InMain(n.Pos) && c.fn == nil {
		c.report(err)
	}
	return id
}

// varObj returns the object for a file scope variable declaration,
// merging it with earlier declarations of the same name.
func (c *importer) varObj(n *syntax.Node) *ir.VarDecl {
	typ := c.typeOf(n)
	var v *ir.VarDecl
	if prev, ok := c.globals[n.Name].(*ir.VarDecl); ok {
		v = prev
		if !c.g.IsArray(typ) || !isUnsized(c.g, typ) {
			v.Type = typ
		}
	} else {
		v = ir.NewVarDecl(n.Pos, n.Name, typ)
		v.Linkage = ir.External
		c.globals[n.Name] = v
		c.unit.Decls = append(c.unit.Decls, v)
	}
	switch n.StorageClass {
	case "static":
		v.Linkage = ir.Internal
		v.Storage = ir.Static
	case "extern":
		if v.Storage == ir.Auto {
			v.Storage = ir.Extern
		}
	}
	if n.StorageClass != "extern" || n.Init != "" {
		v.Defined = true
		if v.Storage == ir.Extern {
			v.Storage = ir.Auto
		}
		if c.file.InMain(n.Pos) {
			v.InMain = true
		}
	}
	if n.TLS != "" {
		c.errorf(diag.UnsupportedType, n.Pos, "thread local storage")
	}
	c.objs[n.ID] = v
	return v
}

func isUnsized(g *types.Graph, id types.ID) bool {
	a, ok := g.Underlying(id).(*types.Array)
	return ok && a.Unsized
}

// globalVar imports a file scope variable.
func (c *importer) globalVar(n *syntax.Node) {
	c.beginDecl(n.Name)
	v := c.varObj(n)
	if n.Init != "" {
		if x := lastExpr(n); !x.IsNull() {
			v.Init = c.expr(x)
		}
	}
	if err := c.endDecl(); err != nil {
		v.Init = nil
		v.Err = err
		if v.InMain {
			c.report(err)
		}
	}
}

// funcObj returns the object for a function declaration, merging it with
// earlier declarations of the same name.
func (c *importer) funcObj(n *syntax.Node) *ir.FuncDecl {
	typ := c.typeOf(n)
	var f *ir.FuncDecl
	if prev, ok := c.globals[n.Name].(*ir.FuncDecl); ok {
		f = prev
		if fn := c.g.FuncOf(typ); fn != nil && !fn.NoProto {
			f.Type = typ
		}
	} else {
		f = ir.NewFuncDecl(n.Pos, n.Name, typ)
		f.Linkage = ir.External
		c.globals[n.Name] = f
		c.unit.Decls = append(c.unit.Decls, f)
	}
	if n.StorageClass == "static" {
		f.Linkage = ir.Internal
	}
	f.Inline = f.Inline || n.Inline
	c.objs[n.ID] = f
	return f
}

// funcDecl imports a file scope function declaration or definition.
func (c *importer) funcDecl(n *syntax.Node) {
	c.beginDecl(n.Name)
	f := c.funcObj(n)
	if body := bodyOf(n); body != nil && f.Body == nil {
		f.SetPos(n.Pos)
		f.InMain = c.file.InMain(n.Pos)
		c.params(f, n)
		c.funcBody(f, body)
	}
	if err := c.endDecl(); err != nil && f.Err == nil {
		f.Err = err
		if f.InMain {
			c.report(err)
		}
	}
}

// params declares the parameters of a function definition. An
// unprototyped definition gets the prototype its parameters imply, as
// long as they need no default argument promotion.
func (c *importer) params(f *ir.FuncDecl, n *syntax.Node) {
	f.Params = f.Params[:0]
	var ptypes []types.ID
	for _, m := range n.Inner {
		if m.Kind != "ParmVarDecl" {
			continue
		}
		p := ir.NewVarDecl(m.Pos, m.Name, c.adjustParam(c.typeOf(m)))
		p.Param, p.Local = true, true
		c.objs[m.ID] = p
		f.Params = append(f.Params, p)
		ptypes = append(ptypes, p.Type)
	}
	sig := c.g.FuncOf(f.Type)
	if sig == nil || !sig.NoProto {
		return
	}
	for _, p := range f.Params {
		switch c.g.BasicKindOf(p.Type) {
		case types.Bool, types.Char, types.SChar, types.UChar, types.Short, types.UShort, types.Float:
			c.errorf(diag.UnsupportedConstruct, p.Pos(), "K&R definition with non-promoted parameter %s", p.Name)
			return
		}
	}
	f.Type = c.g.NewFunc(sig.Result, ptypes, false, false)
}

// bodyOf returns the body of a function definition, or nil.
func bodyOf(n *syntax.Node) *syntax.Node {
	for _, m := range n.Inner {
		if m.Kind == "CompoundStmt" {
			return m
		}
	}
	return nil
}

// firstExpr returns the first child of n that is not an attribute or a
// declaration.
func firstExpr(n *syntax.Node) *syntax.Node {
	for _, m := range n.Inner {
		if !m.IsNull() && !isAttr(m) && !strings.HasSuffix(m.Kind, "Decl") {
			return m
		}
	}
	return nil
}

// lastExpr returns the last child of n that is not an attribute, which is
// where clang puts a variable initializer.
func lastExpr(n *syntax.Node) *syntax.Node {
	for i := len(n.Inner) - 1; i >= 0; i-- {
		if m := n.Inner[i]; !m.IsNull() && !isAttr(m) {
			return m
		}
	}
	return nil
}

func isAttr(n *syntax.Node) bool {
	return strings.HasSuffix(n.Kind, "Attr")
}
