package importer

import (
	"strings"

	"github.com/you-not-fish/cmigrate/internal/diag"
	"github.com/you-not-fish/cmigrate/internal/ir"
	"github.com/you-not-fish/cmigrate/internal/syntax"
	"github.com/you-not-fish/cmigrate/internal/types"
)

// typed sets the position and type of a new expression.
func typed[E interface {
	ir.Expr
	SetPos(syntax.Pos)
	SetType(types.ID)
}](x E, pos syntax.Pos, t types.ID) E {
	x.SetPos(pos)
	x.SetType(t)
	return x
}

// expr imports an expression. It never returns nil: an expression that
// cannot be represented records an error and yields a zero placeholder.
func (c *importer) expr(n *syntax.Node) ir.Expr {
	if n.IsNull() {
		c.errorf(diag.ParseFailure, syntax.Pos{}, "missing expression")
		return ir.NewZero(syntax.Pos{}, c.g.Basic(types.Int))
	}
	pos := n.Pos
	switch n.Kind {
	case "IntegerLiteral":
		s, _ := n.StringValue()
		v, err := parseIntValue(s)
		if err != nil {
			c.unsupported(n, "integer literal %q", s)
		}
		return ir.NewIntLit(pos, c.typeOf(n), v)

	case "CharacterLiteral":
		v, _ := n.NumberValue()
		return ir.NewIntLit(pos, c.typeOf(n), uint64(v))

	case "FloatingLiteral":
		s, _ := n.StringValue()
		v, err := parseFloatValue(s)
		if err != nil {
			c.unsupported(n, "floating literal %q", s)
		}
		return ir.NewFloatLit(pos, c.typeOf(n), v)

	case "StringLiteral":
		return c.stringLit(n)

	case "ConstantExpr":
		// A folded integer constant stands for its operand, which may
		// use forms such as offsetof that are only representable folded.
		t := c.typeOf(n)
		if s, ok := n.StringValue(); ok && c.g.IsInteger(t) {
			if v, err := parseIntValue(s); err == nil {
				return ir.NewIntLit(pos, t, v)
			}
		}
		return c.expr(n.Child(0))

	case "ParenExpr", "PredefinedExpr":
		return c.expr(n.Child(0))

	case "DeclRefExpr":
		return c.declRef(n)

	case "ImplicitCastExpr", "CStyleCastExpr":
		return c.cast(n)

	case "UnaryOperator":
		return c.unary(n)

	case "BinaryOperator":
		return c.binary(n)

	case "CompoundAssignOperator":
		op, ok := ir.LookupBinOp(strings.TrimSuffix(n.Opcode, "="))
		if !ok {
			c.unsupported(n, "operator %s", n.Opcode)
		}
		x := typed(&ir.Assign{Op: op}, pos, c.typeOf(n))
		x.LHS = c.expr(n.Child(0))
		x.RHS = c.expr(n.Child(1))
		x.Compute = x.LHS.Type()
		if n.ComputeLHSType != nil {
			x.Compute = c.resolveType(n.ComputeLHSType, pos)
		}
		return x

	case "ConditionalOperator":
		x := typed(&ir.Cond{}, pos, c.typeOf(n))
		x.Cond = c.expr(n.Child(0))
		x.Then = c.expr(n.Child(1))
		x.Else = c.expr(n.Child(2))
		return x

	case "BinaryConditionalOperator":
		// common, opaque condition, opaque true value, false value
		x := typed(&ir.Cond{}, pos, c.typeOf(n))
		x.Cond = c.expr(n.Child(0))
		x.Else = c.expr(n.Child(len(n.Inner) - 1))
		return x

	case "CallExpr":
		return c.call(n)

	case "MemberExpr":
		return c.member(n)

	case "ArraySubscriptExpr":
		x, i := c.expr(n.Child(0)), c.expr(n.Child(1))
		if !c.g.IsPointer(x.Type()) && c.g.IsPointer(i.Type()) {
			x, i = i, x
		}
		return typed(&ir.Index{X: x, I: i}, pos, c.typeOf(n))

	case "UnaryExprOrTypeTraitExpr":
		v, ok := c.constInt(n)
		if !ok {
			c.unsupported(n, "%s of this operand", n.Name)
		}
		return ir.NewIntLit(pos, c.typeOf(n), uint64(v))

	case "InitListExpr":
		return c.initList(n)

	case "ImplicitValueInitExpr":
		return ir.NewZero(pos, c.typeOf(n))

	case "CompoundLiteralExpr":
		x := typed(&ir.CompoundLit{}, pos, c.typeOf(n))
		x.Init = c.expr(n.Child(0))
		return x

	case "AddrLabelExpr":
		if c.fn == nil {
			c.unsupported(n, "label address outside a function")
			break
		}
		l := c.label(n.LabelDeclID, n.Name, syntax.Pos{})
		l.Addressed = true
		return typed(&ir.LabelAddr{Label: l}, pos, c.typeOf(n))

	case "StmtExpr":
		c.unsupported(n, "statement expression")
	case "VAArgExpr":
		c.unsupported(n, "va_arg")
	case "OffsetOfExpr":
		c.unsupported(n, "offsetof outside a constant expression")
	default:
		c.unsupported(n, "%s", n.Kind)
	}
	return ir.NewZero(pos, c.typeOf(n))
}

// stringLit imports a string literal.
func (c *importer) stringLit(n *syntax.Node) ir.Expr {
	t := c.typeOf(n)
	s, _ := n.StringValue()
	units, _, err := decodeString(s)
	if err != nil {
		c.unsupported(n, "%v", err)
	}
	width := int(c.sizes.Sizeof(c.g.Elem(t)))
	if width <= 0 {
		width = 1
	}
	return typed(&ir.StringLit{Value: encodeUnits(units, width), Width: width}, n.Pos, t)
}

// declRef imports a reference to a declared name. Enumerators become
// constants.
func (c *importer) declRef(n *syntax.Node) ir.Expr {
	ref := n.ReferencedDecl
	if ref == nil {
		c.unsupported(n, "reference without declaration")
		return ir.NewZero(n.Pos, c.typeOf(n))
	}
	switch ref.Kind {
	case "EnumConstantDecl":
		k, ok := c.consts[ref.ID]
		if !ok {
			c.unsupported(n, "unknown enumerator %s", ref.Name)
		}
		return ir.NewIntLit(n.Pos, c.typeOf(n), uint64(k.value))

	case "VarDecl", "ParmVarDecl", "FunctionDecl":
		obj := c.objs[ref.ID]
		if obj == nil {
			obj = c.globals[ref.Name]
		}
		if obj == nil && ref.Kind == "FunctionDecl" {
			obj = c.implicitFunc(ref.Name, c.resolveType(ref.Type, n.Pos))
		}
		if obj == nil {
			c.unsupported(n, "reference to undeclared %s", ref.Name)
			return ir.NewZero(n.Pos, c.typeOf(n))
		}
		return ir.NewRef(n.Pos, obj)
	}
	c.unsupported(n, "reference to %s", ref.Kind)
	return ir.NewZero(n.Pos, c.typeOf(n))
}

// implicitFunc returns the external function name, declaring it when the
// unit never did, as for implicitly declared functions and builtins that
// lower to library calls.
func (c *importer) implicitFunc(name string, typ types.ID) *ir.FuncDecl {
	if f, ok := c.globals[name].(*ir.FuncDecl); ok {
		return f
	}
	f := ir.NewFuncDecl(syntax.Pos{}, name, typ)
	f.Linkage = ir.External
	c.globals[name] = f
	c.unit.Decls = append(c.unit.Decls, f)
	return f
}

// cast imports an implicit or explicit conversion. Conversions that
// change nothing the output can observe are dropped.
func (c *importer) cast(n *syntax.Node) ir.Expr {
	x := c.expr(n.Child(0))
	t := c.typeOf(n)
	kind, ok := ir.LookupCastKind(n.CastKind)
	if !ok {
		c.unsupported(n, "conversion %s", n.CastKind)
		return x
	}
	if kind == ir.NoOp && x.Type() == t {
		return x
	}
	return typed(&ir.Cast{Kind: kind, X: x, Implicit: n.Kind == "ImplicitCastExpr"}, n.Pos, t)
}

var unaryOps = map[string]ir.UnOp{
	"-": ir.Neg,
	"+": ir.Plus,
	"!": ir.Not,
	"~": ir.BitNot,
	"*": ir.Deref,
	"&": ir.Addr,
}

func (c *importer) unary(n *syntax.Node) ir.Expr {
	var op ir.UnOp
	switch n.Opcode {
	case "++":
		op = ir.PreInc
		if n.IsPostfix {
			op = ir.PostInc
		}
	case "--":
		op = ir.PreDec
		if n.IsPostfix {
			op = ir.PostDec
		}
	case "__extension__":
		return c.expr(n.Child(0))
	default:
		var ok bool
		if op, ok = unaryOps[n.Opcode]; !ok {
			c.unsupported(n, "operator %s", n.Opcode)
			return ir.NewZero(n.Pos, c.typeOf(n))
		}
	}
	x := c.expr(n.Child(0))
	if op == ir.Addr {
		markAddressed(x)
	}
	return typed(&ir.Unary{Op: op, X: x}, n.Pos, c.typeOf(n))
}

// markAddressed records that the variable underlying an lvalue has its
// address taken.
func markAddressed(x ir.Expr) {
	for {
		switch e := x.(type) {
		case *ir.Ref:
			if v, ok := e.Obj.(*ir.VarDecl); ok {
				v.Addressed = true
			}
			return
		case *ir.Member:
			if e.Arrow {
				return
			}
			x = e.X
		case *ir.Index:
			c, ok := e.X.(*ir.Cast)
			if !ok || c.Kind != ir.ArrayDecay {
				return
			}
			x = c.X
		default:
			return
		}
	}
}

func (c *importer) binary(n *syntax.Node) ir.Expr {
	x, y := c.expr(n.Child(0)), c.expr(n.Child(1))
	t := c.typeOf(n)
	if n.Opcode == "=" {
		return typed(&ir.Assign{LHS: x, RHS: y, Compute: t}, n.Pos, t)
	}
	op, ok := ir.LookupBinOp(n.Opcode)
	if !ok {
		c.unsupported(n, "operator %s", n.Opcode)
	}
	return typed(&ir.Binary{Op: op, X: x, Y: y}, n.Pos, t)
}

// member imports X.f and X->f.
func (c *importer) member(n *syntax.Node) ir.Expr {
	x := c.expr(n.Child(0))
	rt := x.Type()
	if n.IsArrow {
		rt = c.g.Elem(rt)
	}
	rt = c.g.Resolve(rt)
	index := -1
	if ref, ok := c.fields[n.ReferencedMemberDecl]; ok && ref.record == rt {
		index = ref.index
	} else if r := c.g.Record(rt); r != nil {
		index = r.FieldIndex(n.Name)
	}
	if index < 0 {
		c.unsupported(n, "unknown member %s of %s", n.Name, c.g.String(rt))
		return ir.NewZero(n.Pos, c.typeOf(n))
	}
	return typed(&ir.Member{X: x, Record: rt, Index: index, Name: n.Name, Arrow: n.IsArrow}, n.Pos, c.typeOf(n))
}

// initList imports a brace initializer in clang's semantic form: one
// element per member or array element, implicit ones included.
func (c *importer) initList(n *syntax.Node) ir.Expr {
	t := c.typeOf(n)
	x := typed(&ir.InitList{}, n.Pos, t)
	for _, m := range n.Inner {
		x.Elems = append(x.Elems, c.expr(m))
	}
	if len(n.ArrayFiller) > 0 {
		x.Filler = c.expr(n.ArrayFiller[0])
	}
	if r := c.g.Record(c.g.Resolve(t)); r != nil && r.Union {
		x.Field = 0
		if n.Field != nil {
			if ref, ok := c.fields[n.Field.ID]; ok {
				x.Field = ref.index
			} else if i := r.FieldIndex(n.Field.Name); i >= 0 {
				x.Field = i
			}
		}
	}
	return x
}
