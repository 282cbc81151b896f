package importer

import (
	"github.com/you-not-fish/cmigrate/internal/syntax"
	"github.com/you-not-fish/cmigrate/internal/types"
)

// constInt evaluates an integer constant expression: enumerator values,
// bitfield widths, case labels and alignment arguments. Clang folds most
// of them into a ConstantExpr carrying the value; the rest are evaluated
// here.
func (c *importer) constInt(n *syntax.Node) (int64, bool) {
	if n.IsNull() {
		return 0, false
	}
	switch n.Kind {
	case "ConstantExpr", "IntegerLiteral":
		if s, ok := n.StringValue(); ok {
			v, err := parseIntValue(s)
			return int64(v), err == nil
		}
		return c.constInt(n.Child(0))

	case "CharacterLiteral":
		return n.NumberValue()

	case "ParenExpr":
		return c.constInt(n.Child(0))

	case "ImplicitCastExpr", "CStyleCastExpr":
		v, ok := c.constInt(n.Child(0))
		if !ok {
			return 0, false
		}
		t := c.typeOf(n)
		if !c.g.IsInteger(t) {
			return 0, false
		}
		return c.truncate(v, t), true

	case "DeclRefExpr":
		if ref := n.ReferencedDecl; ref != nil {
			if k, ok := c.consts[ref.ID]; ok {
				return k.value, true
			}
		}
		return 0, false

	case "UnaryExprOrTypeTraitExpr":
		t, ok := c.traitType(n)
		if !ok {
			return 0, false
		}
		if n.Name == "sizeof" {
			return c.sizes.Sizeof(t), true
		}
		return c.sizes.Alignof(t), true

	case "UnaryOperator":
		x, ok := c.constInt(n.Child(0))
		if !ok {
			return 0, false
		}
		switch n.Opcode {
		case "-":
			return -x, true
		case "+", "__extension__":
			return x, true
		case "~":
			return ^x, true
		case "!":
			return b2i(x == 0), true
		}
		return 0, false

	case "BinaryOperator":
		x, ok1 := c.constInt(n.Child(0))
		y, ok2 := c.constInt(n.Child(1))
		if !ok1 || !ok2 {
			return 0, false
		}
		unsigned := c.sizes.Unsigned(c.typeOf(n.Child(0)))
		return evalBinary(n.Opcode, x, y, unsigned)

	case "ConditionalOperator":
		cond, ok := c.constInt(n.Child(0))
		if !ok {
			return 0, false
		}
		if cond != 0 {
			return c.constInt(n.Child(1))
		}
		return c.constInt(n.Child(2))
	}
	return 0, false
}

func evalBinary(op string, x, y int64, unsigned bool) (int64, bool) {
	switch op {
	case "+":
		return x + y, true
	case "-":
		return x - y, true
	case "*":
		return x * y, true
	case "/", "%":
		if y == 0 {
			return 0, false
		}
		if unsigned {
			if op == "/" {
				return int64(uint64(x) / uint64(y)), true
			}
			return int64(uint64(x) % uint64(y)), true
		}
		if op == "/" {
			return x / y, true
		}
		return x % y, true
	case "<<":
		return x << uint64(y), true
	case ">>":
		if unsigned {
			return int64(uint64(x) >> uint64(y)), true
		}
		return x >> uint64(y), true
	case "&":
		return x & y, true
	case "|":
		return x | y, true
	case "^":
		return x ^ y, true
	case "==":
		return b2i(x == y), true
	case "!=":
		return b2i(x != y), true
	case "<", ">", "<=", ">=":
		var r bool
		if unsigned {
			ux, uy := uint64(x), uint64(y)
			r = op == "<" && ux < uy || op == ">" && ux > uy || op == "<=" && ux <= uy || op == ">=" && ux >= uy
		} else {
			r = op == "<" && x < y || op == ">" && x > y || op == "<=" && x <= y || op == ">=" && x >= y
		}
		return b2i(r), true
	case "&&":
		return b2i(x != 0 && y != 0), true
	case "||":
		return b2i(x != 0 || y != 0), true
	case ",":
		return y, true
	}
	return 0, false
}

// truncate converts v to the integer type t, wrapping and sign extending
// as the target does.
func (c *importer) truncate(v int64, t types.ID) int64 {
	if c.g.IsBool(t) {
		return b2i(v != 0)
	}
	size := c.sizes.Sizeof(t)
	if size <= 0 || size >= 8 {
		return v
	}
	bits := uint(size * 8)
	v &= 1<<bits - 1
	if !c.sizes.Unsigned(t) && v&(1<<(bits-1)) != 0 {
		v -= 1 << bits
	}
	return v
}

// traitType returns the operand type of sizeof or alignof.
func (c *importer) traitType(n *syntax.Node) (types.ID, bool) {
	switch n.Name {
	case "sizeof", "alignof", "_Alignof", "__alignof":
	default:
		return types.Invalid, false
	}
	var t types.ID
	if n.ArgType != nil {
		t = c.resolveType(n.ArgType, n.Pos)
	} else if x := n.Child(0); !x.IsNull() {
		t = c.typeOf(x)
	} else {
		return types.Invalid, false
	}
	if c.sizes.Check(t) != nil && !c.g.IsFunc(t) && !c.g.IsVoid(t) {
		return types.Invalid, false
	}
	return t, true
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
