package ir

// Inspect traverses the statement or expression n in depth-first order,
// calling f for each node. If f returns false, the children of the node
// are not visited. Declarations inside DeclStmt are visited through their
// initializers.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	switch n := n.(type) {
	// statements
	case *Block:
		for _, s := range n.List {
			Inspect(s, f)
		}
	case *ExprStmt:
		Inspect(n.X, f)
	case *DeclStmt:
		for _, v := range n.Vars {
			if v.Init != nil {
				Inspect(v.Init, f)
			}
		}
	case *If:
		Inspect(n.Cond, f)
		Inspect(n.Then, f)
		Inspect(n.Else, f)
	case *While:
		Inspect(n.Cond, f)
		Inspect(n.Body, f)
	case *DoWhile:
		Inspect(n.Body, f)
		Inspect(n.Cond, f)
	case *For:
		Inspect(n.Init, f)
		Inspect(n.Cond, f)
		Inspect(n.Post, f)
		Inspect(n.Body, f)
	case *Switch:
		Inspect(n.Tag, f)
		Inspect(n.Body, f)
	case *Case:
		Inspect(n.Body, f)
	case *Default:
		Inspect(n.Body, f)
	case *Return:
		Inspect(n.X, f)
	case *IndirectGoto:
		Inspect(n.X, f)
	case *Labeled:
		Inspect(n.Body, f)
	case *Break, *Continue, *Goto, *Empty:

	// expressions
	case *Unary:
		Inspect(n.X, f)
	case *Binary:
		Inspect(n.X, f)
		Inspect(n.Y, f)
	case *Assign:
		Inspect(n.LHS, f)
		Inspect(n.RHS, f)
	case *Cond:
		Inspect(n.Cond, f)
		Inspect(n.Then, f)
		Inspect(n.Else, f)
	case *Cast:
		Inspect(n.X, f)
	case *Call:
		Inspect(n.Fun, f)
		for _, a := range n.Args {
			Inspect(a, f)
		}
	case *Member:
		Inspect(n.X, f)
	case *Index:
		Inspect(n.X, f)
		Inspect(n.I, f)
	case *InitList:
		for _, e := range n.Elems {
			Inspect(e, f)
		}
		Inspect(n.Filler, f)
	case *CompoundLit:
		Inspect(n.Init, f)
	case *IntLit, *FloatLit, *StringLit, *Ref, *LabelAddr, *Zero:
	}
}
