package codegen

import (
	"math"
	"strconv"

	"github.com/you-not-fish/cmigrate/internal/ir"
	"github.com/you-not-fish/cmigrate/internal/target"
	"github.com/you-not-fish/cmigrate/internal/types"
)

// constant is the value of a constant expression: integer bits normalized
// to the width of the type, or a float.
type constant struct {
	bits  uint64
	f     float64
	float bool
}

// fold evaluates x if it is an arithmetic constant expression. Go rejects
// constant expressions that overflow, while C wraps them, so constants are
// evaluated here and emitted as literals of the right width.
func (g *gen) fold(x ir.Expr) (constant, bool) {
	t := x.Type()
	if !g.g.IsArithmetic(t) {
		return constant{}, false
	}
	switch x := x.(type) {
	case *ir.IntLit:
		return g.intConst(x.Value, t), true
	case *ir.FloatLit:
		return g.floatConst(x.Value, t), true
	case *ir.Cast:
		switch x.Kind {
		case ir.NoOp, ir.IntegralCast, ir.IntegralToFloat, ir.FloatToIntegral, ir.FloatCast,
			ir.IntegralToBool, ir.FloatToBool:
		default:
			return constant{}, false
		}
		c, ok := g.fold(x.X)
		if !ok {
			return constant{}, false
		}
		return g.convertConst(c, x.X.Type(), t)
	case *ir.Unary:
		c, ok := g.fold(x.X)
		if !ok {
			return constant{}, false
		}
		switch x.Op {
		case ir.Plus:
			return c, true
		case ir.Neg:
			if c.float {
				return g.floatConst(-c.f, t), true
			}
			return g.intConst(-c.bits, t), true
		case ir.BitNot:
			return g.intConst(^c.bits, t), true
		case ir.Not:
			return g.intConst(b2u(c.zero()), t), true
		}
	case *ir.Binary:
		return g.foldBinary(x)
	case *ir.Cond:
		if x.Then == nil {
			return constant{}, false
		}
		c, ok := g.fold(x.Cond)
		if !ok {
			return constant{}, false
		}
		arm := x.Then
		if c.zero() {
			arm = x.Else
		}
		return g.fold(arm)
	}
	return constant{}, false
}

func (g *gen) foldBinary(x *ir.Binary) (constant, bool) {
	t := x.Type()
	a, ok := g.fold(x.X)
	if !ok {
		return constant{}, false
	}
	switch x.Op {
	case ir.LAnd:
		if a.zero() {
			return g.intConst(0, t), true
		}
	case ir.LOr:
		if !a.zero() {
			return g.intConst(1, t), true
		}
	case ir.Comma:
		return constant{}, false
	}
	b, ok := g.fold(x.Y)
	if !ok {
		return constant{}, false
	}
	switch x.Op {
	case ir.LAnd, ir.LOr:
		return g.intConst(b2u(!b.zero()), t), true
	}
	if x.Op.IsComparison() {
		return g.intConst(b2u(g.compareConst(x.Op, a, b, x.X.Type())), t), true
	}
	if a.float || b.float {
		var v float64
		switch x.Op {
		case ir.Add:
			v = a.f + b.f
		case ir.Sub:
			v = a.f - b.f
		case ir.Mul:
			v = a.f * b.f
		case ir.Div:
			v = a.f / b.f
		default:
			return constant{}, false
		}
		return g.floatConst(v, t), true
	}

	signed := !g.isUnsigned(t)
	switch x.Op {
	case ir.Add:
		return g.intConst(a.bits+b.bits, t), true
	case ir.Sub:
		return g.intConst(a.bits-b.bits, t), true
	case ir.Mul:
		return g.intConst(a.bits*b.bits, t), true
	case ir.Div, ir.Rem:
		if b.bits == 0 {
			return constant{}, false
		}
		var v uint64
		switch {
		case signed && x.Op == ir.Div:
			v = uint64(int64(a.bits) / int64(b.bits))
		case signed:
			v = uint64(int64(a.bits) % int64(b.bits))
		case x.Op == ir.Div:
			v = a.bits / b.bits
		default:
			v = a.bits % b.bits
		}
		return g.intConst(v, t), true
	case ir.Shl, ir.Shr:
		n := b.bits
		if n >= uint64(g.bits(t)) {
			return constant{}, false
		}
		if x.Op == ir.Shl {
			return g.intConst(a.bits<<n, t), true
		}
		if signed {
			return g.intConst(uint64(int64(a.bits)>>n), t), true
		}
		return g.intConst(a.bits>>n, t), true
	case ir.And:
		return g.intConst(a.bits&b.bits, t), true
	case ir.Or:
		return g.intConst(a.bits|b.bits, t), true
	case ir.Xor:
		return g.intConst(a.bits^b.bits, t), true
	}
	return constant{}, false
}

func (g *gen) compareConst(op ir.BinOp, a, b constant, t types.ID) bool {
	var c int
	switch {
	case a.float || b.float:
		switch {
		case math.IsNaN(a.f) || math.IsNaN(b.f):
			return op == ir.Ne
		case a.f < b.f:
			c = -1
		case a.f > b.f:
			c = 1
		}
	case g.isUnsigned(t):
		switch {
		case a.bits < b.bits:
			c = -1
		case a.bits > b.bits:
			c = 1
		}
	default:
		switch {
		case int64(a.bits) < int64(b.bits):
			c = -1
		case int64(a.bits) > int64(b.bits):
			c = 1
		}
	}
	switch op {
	case ir.Eq:
		return c == 0
	case ir.Ne:
		return c != 0
	case ir.Lt:
		return c < 0
	case ir.Le:
		return c <= 0
	case ir.Gt:
		return c > 0
	}
	return c >= 0
}

func (g *gen) convertConst(c constant, from, to types.ID) (constant, bool) {
	switch {
	case g.g.IsBool(to):
		return g.intConst(b2u(!c.zero()), to), true
	case g.g.IsFloat(to):
		if c.float {
			return g.floatConst(c.f, to), true
		}
		if g.isUnsigned(from) {
			return g.floatConst(float64(c.bits), to), true
		}
		return g.floatConst(float64(int64(c.bits)), to), true
	case c.float:
		// Out of range conversions are undefined in C; leave them to
		// the Go conversion at run time.
		if math.IsNaN(c.f) || math.Abs(c.f) >= math.Ldexp(1, int(g.bits(to))-1) && !(g.isUnsigned(to) && c.f >= 0 && c.f < math.Ldexp(1, int(g.bits(to)))) {
			return constant{}, false
		}
		if c.f < 0 {
			return g.intConst(uint64(int64(c.f)), to), true
		}
		return g.intConst(uint64(c.f), to), true
	}
	return g.intConst(c.bits, to), true
}

// intConst truncates v to the width of t and extends it back to 64 bits.
func (g *gen) intConst(v uint64, t types.ID) constant {
	n := g.bits(t)
	if n > 0 && n < 64 {
		v &= 1<<n - 1
		if !g.isUnsigned(t) && v>>(n-1) != 0 {
			v |= ^uint64(0) << n
		}
	}
	return constant{bits: v}
}

func (g *gen) floatConst(v float64, t types.ID) constant {
	if g.sizes.Sizeof(t) == 4 {
		v = float64(float32(v))
	}
	return constant{f: v, float: true}
}

func (c constant) zero() bool {
	if c.float {
		return c.f == 0
	}
	return c.bits == 0
}

func b2u(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// literal spells a constant of type t. Integer literals are untyped and
// take their type from context; typed reports whether the caller needs a
// typed value, as for the left operand of a shift.
func (g *gen) literal(c constant, t types.ID, typed bool) target.Expr {
	if c.float {
		var s string
		switch {
		case math.IsInf(c.f, 1):
			s = "math.Inf(1)"
		case math.IsInf(c.f, -1):
			s = "math.Inf(-1)"
		case math.IsNaN(c.f):
			s = "math.NaN()"
		default:
			s = strconv.FormatFloat(c.f, 'g', -1, 64)
			if typed || g.sizes.Sizeof(t) == 4 && s != "0" {
				return target.Conv(g.goType(t), target.Lit(s))
			}
			return target.Lit(s)
		}
		if g.sizes.Sizeof(t) == 4 {
			return target.Conv("float32", target.Primary(s))
		}
		return target.Primary(s)
	}
	var s string
	if g.isUnsigned(t) {
		s = strconv.FormatUint(c.bits, 10)
	} else {
		s = strconv.FormatInt(int64(c.bits), 10)
	}
	if typed {
		return target.Conv(g.goType(t), target.Lit(s))
	}
	return target.Lit(s)
}
