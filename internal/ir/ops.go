package ir

// UnOp is a unary operator.
type UnOp uint8

const (
	_ UnOp = iota

	Neg    // -x
	Plus   // +x
	Not    // !x
	BitNot // ~x
	Deref  // *x
	Addr   // &x

	PreInc  // ++x
	PreDec  // --x
	PostInc // x++
	PostDec // x--
)

var unOpNames = [...]string{
	Neg:     "-",
	Plus:    "+",
	Not:     "!",
	BitNot:  "~",
	Deref:   "*",
	Addr:    "&",
	PreInc:  "++",
	PreDec:  "--",
	PostInc: "++",
	PostDec: "--",
}

func (op UnOp) String() string {
	if int(op) < len(unOpNames) && unOpNames[op] != "" {
		return unOpNames[op]
	}
	return "?"
}

// IsIncDec reports whether op is an increment or decrement.
func (op UnOp) IsIncDec() bool {
	return op >= PreInc && op <= PostDec
}

// IsPostfix reports whether op is x++ or x--.
func (op UnOp) IsPostfix() bool {
	return op == PostInc || op == PostDec
}

// BinOp is a binary operator.
type BinOp uint8

const (
	_ BinOp = iota

	Add
	Sub
	Mul
	Div
	Rem
	Shl
	Shr
	And
	Or
	Xor

	Eq
	Ne
	Lt
	Le
	Gt
	Ge

	LAnd
	LOr
	Comma
)

var binOpNames = [...]string{
	Add:   "+",
	Sub:   "-",
	Mul:   "*",
	Div:   "/",
	Rem:   "%",
	Shl:   "<<",
	Shr:   ">>",
	And:   "&",
	Or:    "|",
	Xor:   "^",
	Eq:    "==",
	Ne:    "!=",
	Lt:    "<",
	Le:    "<=",
	Gt:    ">",
	Ge:    ">=",
	LAnd:  "&&",
	LOr:   "||",
	Comma: ",",
}

func (op BinOp) String() string {
	if int(op) < len(binOpNames) && binOpNames[op] != "" {
		return binOpNames[op]
	}
	return "?"
}

// IsComparison reports whether op yields a truth value from two operands.
func (op BinOp) IsComparison() bool {
	return op >= Eq && op <= Ge
}

// IsLogical reports whether op is && or ||.
func (op BinOp) IsLogical() bool {
	return op == LAnd || op == LOr
}

// LookupBinOp returns the operator spelled s, with or without a trailing
// '=' for compound assignment.
func LookupBinOp(s string) (BinOp, bool) {
	for op, name := range binOpNames {
		if name != "" && name == s {
			return BinOp(op), true
		}
	}
	return 0, false
}

// CastKind classifies a conversion. The importer keeps clang's
// classification so lowering never has to re-derive it.
type CastKind uint8

const (
	_ CastKind = iota

	IntegralCast
	IntegralToFloat
	FloatToIntegral
	FloatCast
	IntegralToBool
	FloatToBool
	PointerToBool
	IntegralToPointer
	PointerToIntegral
	NullToPointer
	BitCast // pointer to pointer
	ArrayDecay
	FuncDecay
	ToVoid
	NoOp
	ToUnion // GNU cast to union type
)

var castNames = [...]string{
	IntegralCast:      "IntegralCast",
	IntegralToFloat:   "IntegralToFloating",
	FloatToIntegral:   "FloatingToIntegral",
	FloatCast:         "FloatingCast",
	IntegralToBool:    "IntegralToBoolean",
	FloatToBool:       "FloatingToBoolean",
	PointerToBool:     "PointerToBoolean",
	IntegralToPointer: "IntegralToPointer",
	PointerToIntegral: "PointerToIntegral",
	NullToPointer:     "NullToPointer",
	BitCast:           "BitCast",
	ArrayDecay:        "ArrayToPointerDecay",
	FuncDecay:         "FunctionToPointerDecay",
	ToVoid:            "ToVoid",
	NoOp:              "NoOp",
	ToUnion:           "ToUnion",
}

func (k CastKind) String() string {
	if int(k) < len(castNames) && castNames[k] != "" {
		return castNames[k]
	}
	return "?"
}

// LookupCastKind maps a clang castKind spelling to a CastKind. Spellings
// that need no conversion in the output map to NoOp.
func LookupCastKind(s string) (CastKind, bool) {
	switch s {
	case "LValueToRValue", "NoOp", "AtomicToNonAtomic", "NonAtomicToAtomic":
		return NoOp, true
	case "BuiltinFnToFnPtr":
		return FuncDecay, true
	case "IntegralComplexCast", "FloatingComplexCast", "IntegralRealToComplex", "FloatingRealToComplex":
		return 0, false
	}
	for k, name := range castNames {
		if name != "" && name == s {
			return CastKind(k), true
		}
	}
	return 0, false
}
