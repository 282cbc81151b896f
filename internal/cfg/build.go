package cfg

import (
	"github.com/you-not-fish/cmigrate/internal/diag"
	"github.com/you-not-fish/cmigrate/internal/ir"
	"github.com/you-not-fish/cmigrate/internal/syntax"
)

// builder holds the state for lowering a single function body to a CFG.
type builder struct {
	fn *Func
	b  *Block // current block; after a terminator a fresh block with no preds

	breaks    []*Block // innermost last
	continues []*Block
	sw        *switchCtx

	placed map[*ir.Label]bool
	err    *diag.Error
}

// switchCtx collects the arms of the switch statement being lowered.
type switchCtx struct {
	cases   []Case
	targets []*Block
	def     *Block
}

// Build builds the control-flow graph of a function definition. Blocks
// unreachable from the entry are removed and empty pass-through blocks
// are bypassed.
func Build(f *ir.FuncDecl) (*Func, error) {
	fn := NewFunc(f.Name)
	fn.Decl = f
	fn.Entry.Pos = f.Pos()
	b := &builder{
		fn:     fn,
		b:      fn.Entry,
		placed: make(map[*ir.Label]bool),
	}
	for _, l := range f.Labels {
		if l.Addressed {
			fn.LabelIDs[l] = len(fn.LabelIDs) + 1
		}
	}

	if f.Body != nil {
		b.stmt(f.Body)
	}
	// Falling off the end returns.
	b.b.Kind = BlockReturn

	for _, l := range f.Labels {
		if _, used := fn.Labels[l]; used && !b.placed[l] {
			b.errorf(l.Pos, "label %s used but not defined", l.Name)
		}
	}
	if b.err != nil {
		return nil, b.err.In(f.Name)
	}

	fn.RemoveUnreachable()
	fn.bypassEmpty()
	fn.RemoveUnreachable()
	fn.foldSameTargets()
	return fn, nil
}

func (b *builder) errorf(pos syntax.Pos, format string, args ...interface{}) {
	if b.err == nil {
		b.err = diag.Errorf(diag.UnstructurableControlFlow, pos, format, args...)
	}
}

// jump ends the current block with an edge to target.
func (b *builder) jump(target *Block) {
	b.b.AddSucc(target)
	b.b = b.fn.NewBlock(BlockPlain)
}

// enter falls through from the current block into next.
func (b *builder) enter(next *Block) {
	b.b.AddSucc(next)
	b.b = next
}

// terminate ends the current block with a terminator of the given kind.
func (b *builder) terminate(kind BlockKind, control ir.Expr) *Block {
	t := b.b
	t.Kind = kind
	t.Control = control
	b.b = b.fn.NewBlock(BlockPlain)
	return t
}

func (b *builder) newBlock(pos syntax.Pos) *Block {
	nb := b.fn.NewBlock(BlockPlain)
	nb.Pos = pos
	return nb
}

// labelBlock returns the block started by label l, creating it on first
// reference.
func (b *builder) labelBlock(l *ir.Label) *Block {
	if lb, ok := b.fn.Labels[l]; ok {
		return lb
	}
	lb := b.newBlock(l.Pos)
	lb.Label = l
	b.fn.Labels[l] = lb
	return lb
}

// stmt lowers one statement.
func (b *builder) stmt(s ir.Stmt) {
	switch s := s.(type) {
	case nil, *ir.Empty:

	case *ir.Block:
		for _, x := range s.List {
			b.stmt(x)
		}

	case *ir.ExprStmt, *ir.DeclStmt:
		if len(b.b.Stmts) == 0 && !b.b.Pos.IsValid() {
			b.b.Pos = s.Pos()
		}
		b.b.Stmts = append(b.b.Stmts, s)

	case *ir.If:
		b.ifStmt(s)

	case *ir.While:
		header := b.newBlock(s.Pos())
		body := b.newBlock(s.Body.Pos())
		exit := b.newBlock(s.Pos())
		b.enter(header)
		b.terminate(BlockIf, s.Cond)
		header.AddSucc(body)
		header.AddSucc(exit)
		b.b = body
		b.loopBody(s.Body, exit, header)
		b.jump(header)
		b.b = exit

	case *ir.DoWhile:
		body := b.newBlock(s.Body.Pos())
		cond := b.newBlock(s.Cond.Pos())
		exit := b.newBlock(s.Pos())
		b.enter(body)
		b.loopBody(s.Body, exit, cond)
		b.enter(cond)
		b.terminate(BlockIf, s.Cond)
		cond.AddSucc(body)
		cond.AddSucc(exit)
		b.b = exit

	case *ir.For:
		b.forStmt(s)

	case *ir.Switch:
		b.switchStmt(s)

	case *ir.Case:
		b.caseStmt(s)

	case *ir.Default:
		if b.sw == nil {
			b.errorf(s.Pos(), "default outside switch")
			return
		}
		nb := b.newBlock(s.Pos())
		b.sw.def = nb
		b.enter(nb)
		b.stmt(s.Body)

	case *ir.Break:
		if len(b.breaks) == 0 {
			b.errorf(s.Pos(), "break outside loop or switch")
			return
		}
		b.jump(b.breaks[len(b.breaks)-1])

	case *ir.Continue:
		if len(b.continues) == 0 {
			b.errorf(s.Pos(), "continue outside loop")
			return
		}
		b.jump(b.continues[len(b.continues)-1])

	case *ir.Return:
		b.terminate(BlockReturn, s.X)

	case *ir.Goto:
		b.jump(b.labelBlock(s.Label))

	case *ir.IndirectGoto:
		b.indirectGoto(s)

	case *ir.Labeled:
		lb := b.labelBlock(s.Label)
		b.placed[s.Label] = true
		b.enter(lb)
		b.stmt(s.Body)

	default:
		b.errorf(s.Pos(), "unexpected statement %T", s)
	}
}

func (b *builder) ifStmt(s *ir.If) {
	then := b.newBlock(s.Then.Pos())
	done := b.newBlock(s.Pos())
	els := done
	if s.Else != nil {
		els = b.newBlock(s.Else.Pos())
	}
	head := b.terminate(BlockIf, s.Cond)
	head.AddSucc(then)
	head.AddSucc(els)

	b.b = then
	b.stmt(s.Then)
	b.jump(done)

	if s.Else != nil {
		b.b = els
		b.stmt(s.Else)
		b.jump(done)
	}
	b.b = done
}

// loopBody lowers a loop body with the given break and continue targets.
func (b *builder) loopBody(body ir.Stmt, brk, cont *Block) {
	b.breaks = append(b.breaks, brk)
	b.continues = append(b.continues, cont)
	b.stmt(body)
	b.breaks = b.breaks[:len(b.breaks)-1]
	b.continues = b.continues[:len(b.continues)-1]
}

func (b *builder) forStmt(s *ir.For) {
	b.stmt(s.Init)

	header := b.newBlock(s.Pos())
	body := b.newBlock(s.Body.Pos())
	post := b.newBlock(s.Pos())
	exit := b.newBlock(s.Pos())

	b.enter(header)
	if s.Cond != nil {
		b.terminate(BlockIf, s.Cond)
		header.AddSucc(body)
		header.AddSucc(exit)
	} else {
		header.AddSucc(body)
	}

	b.b = body
	b.loopBody(s.Body, exit, post)
	b.enter(post)
	if s.Post != nil {
		x := &ir.ExprStmt{X: s.Post}
		x.SetPos(s.Post.Pos())
		post.Stmts = append(post.Stmts, x)
	}
	b.jump(header)
	b.b = exit
}

func (b *builder) switchStmt(s *ir.Switch) {
	head := b.terminate(BlockSwitch, s.Tag)
	exit := b.newBlock(s.Pos())

	outer := b.sw
	b.sw = &switchCtx{}
	b.breaks = append(b.breaks, exit)
	b.stmt(s.Body)
	b.breaks = b.breaks[:len(b.breaks)-1]
	b.jump(exit)
	sw := b.sw
	b.sw = outer

	head.Cases = sw.cases
	for _, t := range sw.targets {
		head.AddSucc(t)
	}
	if sw.def != nil {
		head.AddSucc(sw.def)
	} else {
		head.AddSucc(exit)
	}
	b.b = exit
}

func (b *builder) caseStmt(s *ir.Case) {
	if b.sw == nil {
		b.errorf(s.Pos(), "case outside switch")
		return
	}
	nb := b.newBlock(s.Pos())
	b.sw.cases = append(b.sw.cases, Case{Lo: s.Lo, Hi: s.Hi})
	b.sw.targets = append(b.sw.targets, nb)
	b.enter(nb)
	b.stmt(s.Body)
}

// indirectGoto lowers goto *x to a switch over the numbers of the
// address-taken labels. Any other value is undefined behavior in C and
// reaches an unreachable block.
func (b *builder) indirectGoto(s *ir.IndirectGoto) {
	if len(b.fn.LabelIDs) == 0 {
		b.errorf(s.Pos(), "indirect goto without address-taken labels")
		return
	}
	head := b.terminate(BlockSwitch, s.X)
	for _, l := range b.fn.Decl.Labels {
		id, ok := b.fn.LabelIDs[l]
		if !ok {
			continue
		}
		head.Cases = append(head.Cases, Case{Lo: int64(id), Hi: int64(id)})
		head.AddSucc(b.labelBlock(l))
	}
	trap := b.newBlock(s.Pos())
	trap.Kind = BlockUnreachable
	head.AddSucc(trap)
}

// bypassEmpty redirects edges into empty plain blocks to their
// successor. Labels on a bypassed block move to the block that now
// starts at the label's position.
func (f *Func) bypassEmpty() {
	for _, b := range f.Blocks {
		if b == f.Entry || b.Kind != BlockPlain || len(b.Stmts) > 0 || len(b.Succs) != 1 {
			continue
		}
		next := b.Succs[0]
		if next == b {
			continue
		}
		for _, p := range b.Preds {
			for i, s := range p.Succs {
				if s == b {
					p.Succs[i] = next
					next.Preds = append(next.Preds, p)
				}
			}
		}
		b.Preds = nil
		next.removePred(b)
		b.Succs = nil
		for l, lb := range f.Labels {
			if lb == b {
				f.Labels[l] = next
			}
		}
		if next.Label == nil {
			next.Label = b.Label
		}
	}
}

// foldSameTargets turns a conditional whose successors coincide into a
// plain jump that still evaluates the condition.
func (f *Func) foldSameTargets() {
	for _, b := range f.Blocks {
		if b.Kind != BlockIf || b.Succs[0] != b.Succs[1] {
			continue
		}
		b.Stmts = append(b.Stmts, &ir.ExprStmt{X: b.Control})
		b.Kind = BlockPlain
		b.Control = nil
		b.Succs = b.Succs[:1]
		b.Succs[0].removePred(b)
	}
}
