package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// ExprString returns a C-like rendering of x for dumps and diagnostics.
// Implicit conversions are omitted.
func ExprString(x Expr) string {
	var b strings.Builder
	writeExpr(&b, x)
	return b.String()
}

func writeExpr(b *strings.Builder, x Expr) {
	switch x := x.(type) {
	case nil:
		b.WriteString("<nil>")
	case *IntLit:
		fmt.Fprintf(b, "%d", x.Int())
	case *FloatLit:
		b.WriteString(strconv.FormatFloat(x.Value, 'g', -1, 64))
	case *StringLit:
		b.WriteString(strconv.Quote(x.Value))
	case *Ref:
		b.WriteString(x.Obj.DeclName())
	case *LabelAddr:
		b.WriteString("&&" + x.Label.Name)
	case *Unary:
		if x.Op.IsPostfix() {
			writeOperand(b, x.X)
			b.WriteString(x.Op.String())
			return
		}
		b.WriteString(x.Op.String())
		writeOperand(b, x.X)
	case *Binary:
		writeOperand(b, x.X)
		if x.Op == Comma {
			b.WriteString(", ")
		} else {
			fmt.Fprintf(b, " %s ", x.Op)
		}
		writeOperand(b, x.Y)
	case *Assign:
		writeExpr(b, x.LHS)
		if x.Op == 0 {
			b.WriteString(" = ")
		} else {
			fmt.Fprintf(b, " %s= ", x.Op)
		}
		writeExpr(b, x.RHS)
	case *Cond:
		writeOperand(b, x.Cond)
		b.WriteString(" ? ")
		if x.Then != nil {
			writeOperand(b, x.Then)
			b.WriteString(" ")
		}
		b.WriteString(": ")
		writeOperand(b, x.Else)
	case *Cast:
		if x.Implicit {
			writeExpr(b, x.X)
			return
		}
		b.WriteString("(cast)")
		writeOperand(b, x.X)
	case *Call:
		writeOperand(b, x.Fun)
		b.WriteString("(")
		for i, a := range x.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			writeExpr(b, a)
		}
		b.WriteString(")")
	case *Member:
		writeOperand(b, x.X)
		if x.Arrow {
			b.WriteString("->")
		} else {
			b.WriteString(".")
		}
		b.WriteString(x.Name)
	case *Index:
		writeOperand(b, x.X)
		b.WriteString("[")
		writeExpr(b, x.I)
		b.WriteString("]")
	case *InitList:
		b.WriteString("{")
		for i, e := range x.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			writeExpr(b, e)
		}
		b.WriteString("}")
	case *Zero:
		b.WriteString("0")
	case *CompoundLit:
		b.WriteString("(T)")
		writeExpr(b, x.Init)
	default:
		fmt.Fprintf(b, "<%T>", x)
	}
}

// writeOperand parenthesizes compound operands.
func writeOperand(b *strings.Builder, x Expr) {
	switch x := x.(type) {
	case *Binary, *Assign, *Cond:
		b.WriteString("(")
		writeExpr(b, x)
		b.WriteString(")")
	case *Cast:
		if x.Implicit {
			writeOperand(b, x.X)
			return
		}
		b.WriteString("(")
		writeExpr(b, x)
		b.WriteString(")")
	default:
		writeExpr(b, x)
	}
}
