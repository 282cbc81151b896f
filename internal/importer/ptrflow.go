package importer

import (
	"github.com/you-not-fish/cmigrate/internal/ir"
	"github.com/you-not-fish/cmigrate/internal/types"
)

// ptrFlow computes PtrFacts for the pointer parameters of one function.
// Locals assigned from a parameter, possibly offset or converted, are
// aliases of it; everything done through an alias counts for the
// parameter.
type ptrFlow struct {
	g      *types.Graph
	sizes  *types.Sizes
	alias  map[*ir.VarDecl]int // parameter index of each alias
	via    []*ir.VarDecl       // first variable each parameter was accessed through
	stored map[ir.Expr]bool    // lvalues written by assignments
	taken  map[ir.Expr]bool    // operands of &
	facts  []ir.PtrFacts
}

// pointerFacts returns the facts for each parameter of f, parallel to
// f.Params. Non-pointer parameters have no facts.
func pointerFacts(sizes *types.Sizes, f *ir.FuncDecl) []ir.PtrFacts {
	if f.Body == nil || len(f.Params) == 0 {
		return nil
	}
	g := sizes.Graph()
	p := &ptrFlow{
		g:      g,
		sizes:  sizes,
		alias:  make(map[*ir.VarDecl]int),
		via:    make([]*ir.VarDecl, len(f.Params)),
		stored: make(map[ir.Expr]bool),
		taken:  make(map[ir.Expr]bool),
		facts:  make([]ir.PtrFacts, len(f.Params)),
	}
	ptrs := false
	for i, v := range f.Params {
		if g.IsPointer(v.Type) {
			p.alias[v] = i
			ptrs = true
		}
	}
	if !ptrs {
		return p.facts
	}
	for p.propagate(f.Body) {
	}
	ir.Inspect(f.Body, p.lvalues)
	ir.Inspect(f.Body, p.visit)
	return p.facts
}

// root returns the parameter a pointer expression derives from, or -1.
func (p *ptrFlow) root(x ir.Expr) int {
	i, _ := p.base(x)
	return i
}

// base returns the parameter a pointer expression derives from and the
// variable it is read from, or -1 and nil.
func (p *ptrFlow) base(x ir.Expr) (int, *ir.VarDecl) {
	for {
		switch e := x.(type) {
		case *ir.Ref:
			if v, ok := e.Obj.(*ir.VarDecl); ok {
				if i, ok := p.alias[v]; ok {
					return i, v
				}
			}
			return -1, nil
		case *ir.Cast:
			if e.Kind != ir.NoOp && e.Kind != ir.BitCast {
				return -1, nil
			}
			x = e.X
		case *ir.Binary:
			if !p.g.IsPointer(e.Type()) {
				return -1, nil
			}
			switch e.Op {
			case ir.Add, ir.Sub:
				if p.g.IsPointer(e.X.Type()) {
					x = e.X
				} else {
					x = e.Y
				}
			case ir.Comma:
				x = e.Y
			default:
				return -1, nil
			}
		default:
			return -1, nil
		}
	}
}

// localAlias returns the automatic variable x names, if any.
func localAlias(x ir.Expr) *ir.VarDecl {
	r, ok := x.(*ir.Ref)
	if !ok {
		return nil
	}
	v, ok := r.Obj.(*ir.VarDecl)
	if !ok || !v.Local || v.Static() || v.Addressed {
		return nil
	}
	return v
}

// propagate adds aliases introduced by initializations and plain
// assignments. It reports whether anything changed.
func (p *ptrFlow) propagate(body *ir.Block) bool {
	changed := false
	bind := func(v *ir.VarDecl, x ir.Expr) {
		if v == nil || x == nil {
			return
		}
		if _, ok := p.alias[v]; ok {
			return
		}
		if i := p.root(x); i >= 0 {
			p.alias[v] = i
			changed = true
		}
	}
	ir.Inspect(body, func(n ir.Node) bool {
		switch n := n.(type) {
		case *ir.DeclStmt:
			for _, v := range n.Vars {
				if !v.Static() {
					bind(v, v.Init)
				}
			}
		case *ir.Assign:
			if n.Op == 0 {
				bind(localAlias(n.LHS), n.RHS)
			}
		}
		return true
	})
	return changed
}

// lvalues collects the expressions written to or addressed. Member and
// array accesses count as the object they select from.
func (p *ptrFlow) lvalues(n ir.Node) bool {
	switch n := n.(type) {
	case *ir.Assign:
		markLvalue(p.stored, n.LHS)
	case *ir.Unary:
		if n.Op.IsIncDec() {
			markLvalue(p.stored, n.X)
		}
		if n.Op == ir.Addr {
			markLvalue(p.taken, n.X)
		}
	}
	return true
}

func markLvalue(set map[ir.Expr]bool, x ir.Expr) {
	for x != nil {
		set[x] = true
		switch e := x.(type) {
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

// access records a read or write through the pointer ptr at the lvalue
// x that dereferences it.
func (p *ptrFlow) access(x, ptr ir.Expr) {
	i, v := p.base(ptr)
	if i < 0 || p.taken[x] {
		return
	}
	switch {
	case p.via[i] == nil:
		p.via[i] = v
	case p.via[i] != v:
		p.facts[i].NonUnique = true
	}
	if p.stored[x] {
		p.facts[i].Store = true
	} else {
		p.facts[i].Load = true
	}
}

func (p *ptrFlow) escape(x ir.Expr) {
	if i := p.root(x); i >= 0 {
		p.facts[i].Escape = true
	}
}

// offset records that ptr is moved by x, or by -x if neg.
func (p *ptrFlow) offset(ptr, x ir.Expr, neg bool) {
	fwd, back := p.direction(x)
	if neg {
		fwd, back = back, fwd
	}
	p.step(ptr, fwd, back)
}

func (p *ptrFlow) step(ptr ir.Expr, fwd, back bool) {
	if i := p.root(ptr); i >= 0 {
		p.facts[i].PosOffset = p.facts[i].PosOffset || fwd
		p.facts[i].NegOffset = p.facts[i].NegOffset || back
	}
}

// direction reports whether the integer x can be positive and whether
// it can be negative. Constants and unsigned values have one sign.
func (p *ptrFlow) direction(x ir.Expr) (pos, neg bool) {
	for {
		c, ok := x.(*ir.Cast)
		if !ok || c.Kind != ir.IntegralCast || !p.widens(c.X.Type(), c.Type()) {
			break
		}
		x = c.X
	}
	switch e := x.(type) {
	case *ir.IntLit:
		if p.sizes.Unsigned(e.Type()) {
			return e.Value != 0, false
		}
		return e.Int() > 0, e.Int() < 0
	case *ir.Unary:
		if lit, ok := e.X.(*ir.IntLit); ok && e.Op == ir.Neg && !p.sizes.Unsigned(e.Type()) {
			return lit.Int() < 0, lit.Int() > 0
		}
	}
	if p.sizes.Unsigned(x.Type()) {
		return true, false
	}
	return true, true
}

// widens reports whether converting from to to preserves every value.
func (p *ptrFlow) widens(from, to types.ID) bool {
	fs, ts := p.sizes.Sizeof(from), p.sizes.Sizeof(to)
	fu, tu := p.sizes.Unsigned(from), p.sizes.Unsigned(to)
	return fu == tu && fs <= ts || fu && !tu && fs < ts
}

// copied records call arguments rooted at the same parameter.
func (p *ptrFlow) copied(args []ir.Expr) {
	seen := make(map[int]bool)
	for _, a := range args {
		i := p.root(a)
		if i < 0 {
			continue
		}
		if seen[i] {
			p.facts[i].NonUnique = true
		}
		seen[i] = true
	}
}

func (p *ptrFlow) visit(n ir.Node) bool {
	switch n := n.(type) {
	case *ir.Unary:
		switch {
		case n.Op == ir.Deref:
			p.access(n, n.X)
		case n.Op.IsIncDec() && p.g.IsPointer(n.X.Type()):
			dec := n.Op == ir.PreDec || n.Op == ir.PostDec
			p.step(n.X, !dec, dec)
		}
	case *ir.Index:
		ptr, i := n.X, n.I
		if !p.g.IsPointer(ptr.Type()) {
			ptr, i = i, ptr
		}
		p.access(n, ptr)
		p.offset(ptr, i, false)
	case *ir.Member:
		if n.Arrow {
			p.access(n, n.X)
		}
	case *ir.Binary:
		if (n.Op == ir.Add || n.Op == ir.Sub) && p.g.IsPointer(n.Type()) {
			ptr, i := n.X, n.Y
			if !p.g.IsPointer(ptr.Type()) {
				ptr, i = i, ptr
			}
			p.offset(ptr, i, n.Op == ir.Sub)
		}
	case *ir.Assign:
		if n.Op != 0 {
			if (n.Op == ir.Add || n.Op == ir.Sub) && p.g.IsPointer(n.LHS.Type()) {
				p.offset(n.LHS, n.RHS, n.Op == ir.Sub)
			}
			break
		}
		if localAlias(n.LHS) == nil {
			p.escape(n.RHS)
		}
	case *ir.Call:
		for _, a := range n.Args {
			p.escape(a)
		}
		p.copied(n.Args)
	case *ir.Return:
		if n.X != nil {
			p.escape(n.X)
		}
	case *ir.InitList:
		for _, x := range n.Elems {
			p.escape(x)
		}
	case *ir.DeclStmt:
		for _, v := range n.Vars {
			if v.Static() || v.Addressed {
				p.escape(v.Init)
			}
		}
	}
	return true
}
