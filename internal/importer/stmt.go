package importer

import (
	"github.com/you-not-fish/cmigrate/internal/diag"
	"github.com/you-not-fish/cmigrate/internal/ir"
	"github.com/you-not-fish/cmigrate/internal/syntax"
	"github.com/you-not-fish/cmigrate/internal/types"
)

// placed sets the position of a new statement.
func placed[S interface {
	ir.Stmt
	SetPos(syntax.Pos)
}](s S, pos syntax.Pos) S {
	s.SetPos(pos)
	return s
}

// funcBody imports the body of function f.
func (c *importer) funcBody(f *ir.FuncDecl, body *syntax.Node) {
	c.fn = f
	c.labels = make(map[string]*ir.Label)
	c.calls = make(map[string]int)
	defer func() {
		c.fn, c.labels, c.calls = nil, nil, nil
	}()

	c.openScope("function " + f.Name)
	f.Body = c.block(body)
	c.closeScope()

	for _, l := range f.Labels {
		if !l.Defined && (l.Used || l.Addressed) {
			c.errorf(diag.UnstructurableControlFlow, f.Pos(), "label %s used but not defined", l.Name)
		}
	}
	f.Ptrs = pointerFacts(c.sizes, f)
}

// block imports a compound statement in a new scope.
func (c *importer) block(n *syntax.Node) *ir.Block {
	c.openScope("block")
	defer c.closeScope()
	b := placed(&ir.Block{}, n.Pos)
	for _, m := range n.Inner {
		if s := c.stmt(m); s != nil {
			b.List = append(b.List, s)
		}
	}
	return b
}

// stmt imports one statement. Expressions used as statements become
// ExprStmt.
func (c *importer) stmt(n *syntax.Node) ir.Stmt {
	if n.IsNull() {
		return placed(&ir.Empty{}, syntax.Pos{})
	}
	pos := n.Pos
	switch n.Kind {
	case "CompoundStmt":
		return c.block(n)

	case "DeclStmt":
		return c.declStmt(n)

	case "NullStmt":
		return placed(&ir.Empty{}, pos)

	case "IfStmt":
		s := placed(&ir.If{}, pos)
		s.Cond = c.expr(n.Child(0))
		s.Then = c.stmt(n.Child(1))
		if n.HasElse {
			s.Else = c.stmt(n.Child(2))
		}
		return s

	case "WhileStmt":
		s := placed(&ir.While{}, pos)
		s.Cond = c.expr(n.Child(0))
		s.Body = c.stmt(n.Child(1))
		return s

	case "DoStmt":
		s := placed(&ir.DoWhile{}, pos)
		s.Body = c.stmt(n.Child(0))
		s.Cond = c.expr(n.Child(1))
		return s

	case "ForStmt":
		// init, condition variable, cond, inc, body
		if len(n.Inner) != 5 {
			c.unsupported(n, "malformed for statement")
			return placed(&ir.Empty{}, pos)
		}
		c.openScope("for")
		defer c.closeScope()
		s := placed(&ir.For{}, pos)
		if init := n.Child(0); !init.IsNull() {
			s.Init = c.stmt(init)
		}
		if cond := n.Child(2); !cond.IsNull() {
			s.Cond = c.expr(cond)
		}
		if post := n.Child(3); !post.IsNull() {
			s.Post = c.expr(post)
		}
		s.Body = c.stmt(n.Child(4))
		return s

	case "SwitchStmt":
		s := placed(&ir.Switch{}, pos)
		s.Tag = c.expr(n.Child(0))
		s.Body = c.stmt(n.Child(len(n.Inner) - 1))
		return s

	case "CaseStmt":
		s := placed(&ir.Case{}, pos)
		lo, ok := c.constInt(n.Child(0))
		if !ok {
			c.unsupported(n, "case label is not constant")
		}
		s.Lo, s.Hi = lo, lo
		body := n.Child(1)
		if len(n.Inner) == 3 {
			hi, ok := c.constInt(n.Child(1))
			if !ok {
				c.unsupported(n, "case range is not constant")
			}
			s.Hi, s.Range = hi, true
			body = n.Child(2)
		}
		s.Body = c.stmt(body)
		return s

	case "DefaultStmt":
		s := placed(&ir.Default{}, pos)
		s.Body = c.stmt(n.Child(0))
		return s

	case "BreakStmt":
		return placed(&ir.Break{}, pos)

	case "ContinueStmt":
		return placed(&ir.Continue{}, pos)

	case "ReturnStmt":
		s := placed(&ir.Return{}, pos)
		if x := n.Child(0); !x.IsNull() {
			s.X = c.expr(x)
		}
		return s

	case "GotoStmt":
		l := c.label(n.TargetLabelDeclID, "", pos)
		l.Used = true
		return placed(&ir.Goto{Label: l}, pos)

	case "LabelStmt":
		l := c.label(n.DeclID, n.Name, pos)
		l.Defined = true
		s := placed(&ir.Labeled{Label: l}, pos)
		s.Body = c.stmt(n.Child(0))
		return s

	case "IndirectGotoStmt":
		s := placed(&ir.IndirectGoto{}, pos)
		s.X = c.expr(n.Child(0))
		return s

	case "AttributedStmt":
		// Statement attributes such as fallthrough precede the statement.
		for i := len(n.Inner) - 1; i >= 0; i-- {
			if m := n.Inner[i]; !isAttr(m) {
				return c.stmt(m)
			}
		}
		return placed(&ir.Empty{}, pos)

	case "GCCAsmStmt", "MSAsmStmt":
		c.unsupported(n, "inline assembly")
		return placed(&ir.Empty{}, pos)
	}

	x := c.expr(n)
	return placed(&ir.ExprStmt{X: x}, pos)
}

// declStmt imports block scope declarations.
func (c *importer) declStmt(n *syntax.Node) ir.Stmt {
	s := placed(&ir.DeclStmt{}, n.Pos)
	for _, m := range n.Inner {
		switch m.Kind {
		case "VarDecl":
			if m.StorageClass == "extern" {
				c.varObj(m)
				continue
			}
			s.Vars = append(s.Vars, c.localVar(m))
		case "FunctionDecl":
			c.funcObj(m)
		case "RecordDecl":
			c.recordDecl(m)
		case "EnumDecl":
			c.enumDecl(m)
		case "TypedefDecl":
			c.typedefDecl(m)
		case "StaticAssertDecl", "EmptyDecl":
		default:
			c.unsupported(m, "%s in block", m.Kind)
		}
	}
	return s
}

// localVar imports a block scope variable.
func (c *importer) localVar(n *syntax.Node) *ir.VarDecl {
	v := ir.NewVarDecl(n.Pos, n.Name, c.typeOf(n))
	v.Local = true
	v.Defined = true
	switch n.StorageClass {
	case "static":
		v.Storage = ir.Static
	case "register":
		v.Storage = ir.Register
	}
	if hasVLA(c.g, v.Type) {
		c.unsupported(n, "variable length array %s", n.Name)
	}
	if n.TLS != "" {
		c.unsupported(n, "thread local variable %s", n.Name)
	}
	c.objs[n.ID] = v
	c.fn.Locals = append(c.fn.Locals, v)
	if n.Init != "" {
		if x := lastExpr(n); !x.IsNull() {
			v.Init = c.expr(x)
		}
	}
	return v
}

// label returns the label with the given clang declaration id, creating
// it on first use.
func (c *importer) label(id, name string, pos syntax.Pos) *ir.Label {
	l, ok := c.labels[id]
	if !ok {
		l = &ir.Label{}
		c.labels[id] = l
		c.fn.Labels = append(c.fn.Labels, l)
	}
	if name != "" {
		l.Name = name
		l.Pos = pos
	}
	return l
}

// hasVLA reports whether id is or contains a variable length array.
func hasVLA(g *types.Graph, id types.ID) bool {
	for {
		a, ok := g.Underlying(id).(*types.Array)
		if !ok {
			return false
		}
		if a.VLA {
			return true
		}
		id = a.Elem
	}
}
