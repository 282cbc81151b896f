package ir

// Block is a compound statement.
type Block struct {
	stmt
	List []Stmt
}

// ExprStmt evaluates an expression for its side effects.
type ExprStmt struct {
	stmt
	X Expr
}

// DeclStmt declares block scope variables. Static locals appear here
// with their initializer but are hoisted to package scope.
type DeclStmt struct {
	stmt
	Vars []*VarDecl
}

// If is an if statement. Else may be nil.
type If struct {
	stmt
	Cond Expr
	Then Stmt
	Else Stmt
}

// While is a while loop.
type While struct {
	stmt
	Cond Expr
	Body Stmt
}

// DoWhile is a do-while loop.
type DoWhile struct {
	stmt
	Body Stmt
	Cond Expr
}

// For is a for loop. Any of Init, Cond and Post may be nil.
type For struct {
	stmt
	Init Stmt
	Cond Expr
	Post Expr
	Body Stmt
}

// Switch is a switch statement. Case and Default statements appear
// anywhere inside Body, as in C.
type Switch struct {
	stmt
	Tag  Expr
	Body Stmt
}

// Case is a case label. Hi is set for the GNU range form lo ... hi.
type Case struct {
	stmt
	Lo, Hi int64
	Range  bool
	Body   Stmt
}

// Default is the default label of a switch.
type Default struct {
	stmt
	Body Stmt
}

// Break is a break statement.
type Break struct{ stmt }

// Continue is a continue statement.
type Continue struct{ stmt }

// Return is a return statement. X is nil for a bare return.
type Return struct {
	stmt
	X Expr
}

// Goto is a goto statement.
type Goto struct {
	stmt
	Label *Label
}

// IndirectGoto is the GNU goto *x statement.
type IndirectGoto struct {
	stmt
	X Expr
}

// Labeled is a labeled statement.
type Labeled struct {
	stmt
	Label *Label
	Body  Stmt
}

// Empty is a null statement.
type Empty struct{ stmt }
