// Package target models the Go source the translator produces: expression
// text with operator precedence, identifier rules, and the gc layout rules
// emitted structs are checked against.
package target

import (
	"fmt"
	"strings"
)

// Precedence levels of Go expressions, lowest first.
const (
	PrecLowest = iota
	PrecOrOr
	PrecAndAnd
	PrecCmp
	PrecAdd
	PrecMul
	PrecUnary
	PrecPrimary
)

var binaryPrec = map[string]int{
	"||": PrecOrOr,
	"&&": PrecAndAnd,
	"==": PrecCmp, "!=": PrecCmp, "<": PrecCmp, "<=": PrecCmp, ">": PrecCmp, ">=": PrecCmp,
	"+": PrecAdd, "-": PrecAdd, "|": PrecAdd, "^": PrecAdd,
	"*": PrecMul, "/": PrecMul, "%": PrecMul, "<<": PrecMul, ">>": PrecMul, "&": PrecMul, "&^": PrecMul,
}

// Expr is the text of a Go expression together with the precedence of its
// outermost operator.
type Expr struct {
	Text string
	Prec int
}

func (x Expr) String() string { return x.Text }

// Primary returns an operand, selector, call or conversion.
func Primary(text string) Expr {
	return Expr{Text: text, Prec: PrecPrimary}
}

// Primaryf formats a primary expression.
func Primaryf(format string, args ...interface{}) Expr {
	return Primary(fmt.Sprintf(format, args...))
}

// Paren returns x wrapped in parentheses.
func Paren(x Expr) Expr {
	return Primary("(" + x.Text + ")")
}

// atLeast parenthesizes x if it binds weaker than prec.
func atLeast(x Expr, prec int) string {
	if x.Prec < prec {
		return "(" + x.Text + ")"
	}
	return x.Text
}

// Binary returns x op y. Go binary operators are left associative, so the
// right operand is parenthesized at equal precedence.
func Binary(x Expr, op string, y Expr) Expr {
	p, ok := binaryPrec[op]
	if !ok {
		panic("target: unknown binary operator " + op)
	}
	return Expr{Text: atLeast(x, p) + " " + op + " " + atLeast(y, p+1), Prec: p}
}

// Unary returns op x. Adjacent operators that would lex as one token,
// such as - -x or & &x, are separated.
func Unary(op string, x Expr) Expr {
	s := atLeast(x, PrecUnary)
	if strings.HasPrefix(s, op) || op == "-" && strings.HasPrefix(s, "-") || op == "&" && strings.HasPrefix(s, "&") {
		s = "(" + s + ")"
	}
	return Expr{Text: op + s, Prec: PrecUnary}
}

// Deref returns *x.
func Deref(x Expr) Expr {
	return Unary("*", x)
}

// AddrOf returns &x.
func AddrOf(x Expr) Expr {
	return Unary("&", x)
}

// Not returns the negation of a boolean expression, folding comparisons
// and double negation.
func Not(x Expr) Expr {
	if strings.HasPrefix(x.Text, "!") && x.Prec == PrecUnary {
		inner := x.Text[1:]
		if strings.HasPrefix(inner, "(") && strings.HasSuffix(inner, ")") && balanced(inner[1:len(inner)-1]) {
			return Expr{Text: inner[1 : len(inner)-1], Prec: PrecLowest}
		}
		return Primary(inner)
	}
	return Unary("!", x)
}

// balanced reports whether s has no unmatched parentheses, so stripping a
// surrounding pair keeps it one expression.
func balanced(s string) bool {
	depth := 0
	for _, c := range s {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// Conv returns the conversion T(x). Type names starting with an operator
// are parenthesized so the result parses as a conversion.
func Conv(typ string, x Expr) Expr {
	if strings.HasPrefix(typ, "*") || strings.HasPrefix(typ, "<-") || strings.HasPrefix(typ, "func") {
		typ = "(" + typ + ")"
	}
	return Primary(typ + "(" + x.Text + ")")
}

// Call returns fun(args...).
func Call(fun Expr, args ...Expr) Expr {
	var b strings.Builder
	b.WriteString(atLeast(fun, PrecPrimary))
	b.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.Text)
	}
	b.WriteByte(')')
	return Primary(b.String())
}

// Sel returns x.name.
func Sel(x Expr, name string) Expr {
	return Primary(atLeast(x, PrecPrimary) + "." + name)
}

// Index returns x[i].
func Index(x, i Expr) Expr {
	return Primary(atLeast(x, PrecPrimary) + "[" + i.Text + "]")
}

// Lit returns a untyped constant. Negative constants are unary
// expressions.
func Lit(text string) Expr {
	if strings.HasPrefix(text, "-") {
		return Expr{Text: text, Prec: PrecUnary}
	}
	return Primary(text)
}

// Func returns an immediately invoked function literal with the given
// result type, body statements and result expression.
func Func(result string, body []string, ret Expr) Expr {
	var b strings.Builder
	b.WriteString("func() ")
	if result != "" {
		b.WriteString(result)
		b.WriteByte(' ')
	}
	b.WriteString("{ ")
	for _, s := range body {
		b.WriteString(s)
		b.WriteString("; ")
	}
	if ret.Text != "" {
		b.WriteString("return ")
		b.WriteString(ret.Text)
		b.WriteByte(' ')
	}
	b.WriteString("}()")
	return Primary(b.String())
}
