package ir

import (
	"github.com/you-not-fish/cmigrate/internal/syntax"
	"github.com/you-not-fish/cmigrate/internal/types"
)

// ----------------------------------------------------------------------------
// Literals

// IntLit is an integer constant. Character constants, enumerators and
// sizeof results are folded to IntLit by the importer.
type IntLit struct {
	expr
	Value uint64 // two's complement bits of the value
}

// Int returns the value as a signed integer.
func (x *IntLit) Int() int64 { return int64(x.Value) }

// FloatLit is a floating constant.
type FloatLit struct {
	expr
	Value float64
}

// StringLit is a string literal. Its type is the array type clang
// reports, including the terminator.
type StringLit struct {
	expr
	Value string // encoded bytes, excluding the terminator
	Width int    // element size in bytes
}

// ----------------------------------------------------------------------------
// References

// Ref refers to a variable, parameter or function.
type Ref struct {
	expr
	Obj Object
}

// LabelAddr is the GNU &&label expression.
type LabelAddr struct {
	expr
	Label *Label
}

// ----------------------------------------------------------------------------
// Operations

// Unary is a unary operation.
type Unary struct {
	expr
	Op UnOp
	X  Expr
}

// Binary is a binary operation, including && || and the comma operator.
type Binary struct {
	expr
	Op   BinOp
	X, Y Expr
}

// Assign is a simple (Op == 0) or compound assignment. For compound
// assignments Compute is the type the operation is carried out in.
type Assign struct {
	expr
	Op      BinOp
	LHS     Expr
	RHS     Expr
	Compute types.ID
}

// Cond is the conditional operator c ? x : y. The GNU form c ?: y has a
// nil Then and yields c when it is true.
type Cond struct {
	expr
	Cond, Then, Else Expr
}

// Cast is an implicit or explicit conversion.
type Cast struct {
	expr
	Kind     CastKind
	X        Expr
	Implicit bool
}

// Call is a function call. Site is set when the call is instrumented.
type Call struct {
	expr
	Fun  Expr
	Args []Expr
	Site *Site
}

// Member selects a record member: X.Name, or X->Name when Arrow is set.
// Index is the position of the member in Record.
type Member struct {
	expr
	X      Expr
	Record types.ID
	Index  int
	Name   string
	Arrow  bool
}

// Index is X[I] where X has pointer type after decay.
type Index struct {
	expr
	X, I Expr
}

// ----------------------------------------------------------------------------
// Initializers

// InitList is a brace initializer with one element per member or array
// element in order. Elements left implicit hold Zero. For unions Field is
// the initialized member.
type InitList struct {
	expr
	Elems  []Expr
	Filler Expr // array elements past Elems, nil if none
	Field  int
}

// Zero is the implicit zero value of its type.
type Zero struct {
	expr
}

// CompoundLit is a compound literal (T){...}.
type CompoundLit struct {
	expr
	Init Expr
}

// ----------------------------------------------------------------------------
// Constructors

// NewIntLit returns an integer constant of type t.
func NewIntLit(pos syntax.Pos, t types.ID, v uint64) *IntLit {
	x := &IntLit{Value: v}
	x.pos, x.typ = pos, t
	return x
}

// NewFloatLit returns a floating constant of type t.
func NewFloatLit(pos syntax.Pos, t types.ID, v float64) *FloatLit {
	x := &FloatLit{Value: v}
	x.pos, x.typ = pos, t
	return x
}

// NewRef returns a reference to obj.
func NewRef(pos syntax.Pos, obj Object) *Ref {
	x := &Ref{Obj: obj}
	x.pos, x.typ = pos, obj.ObjType()
	return x
}

// NewZero returns the zero value of t.
func NewZero(pos syntax.Pos, t types.ID) *Zero {
	x := &Zero{}
	x.pos, x.typ = pos, t
	return x
}
