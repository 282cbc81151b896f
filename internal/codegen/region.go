package codegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/you-not-fish/cmigrate/internal/cfg"
	"github.com/you-not-fish/cmigrate/internal/relooper"
	"github.com/you-not-fish/cmigrate/internal/target"
)

// maxCaseRange is the longest GNU case range spelled as a list of values.
const maxCaseRange = 16

// countUses counts the break and continue statements that will target
// each region. A loop whose exit test becomes the loop condition loses
// that break.
func (f *fgen) countUses() {
	t := f.tree
	f.uses = make(map[relooper.RegionID]int)
	f.heads = make(map[relooper.RegionID]int)
	for i := 1; i < len(t.Regions); i++ {
		id := relooper.RegionID(i)
		r := t.At(id)
		switch r.Kind {
		case relooper.Simple:
			for _, br := range uniqueBranches(r) {
				if br.Action != relooper.Direct {
					f.uses[br.Target]++
				}
			}
		case relooper.Loop:
			if head, stay, ok := t.LoopExit(id); ok {
				f.heads[head] = stay
			}
		}
	}
	for head, stay := range f.heads {
		br := t.At(head).Branches[1-stay]
		f.uses[br.Target]--
	}
}

// uniqueBranches returns the distinct branches of a simple region, which
// is how many times they are emitted.
func uniqueBranches(r *relooper.Region) []relooper.Branch {
	var out []relooper.Branch
	for _, br := range r.Branches {
		dup := false
		for _, o := range out {
			if o == br {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, br)
		}
	}
	return out
}

func regionLabel(id relooper.RegionID) string {
	return fmt.Sprintf("L%d", id)
}

// labelPrefix returns "Ln: " if the region is the target of a labeled
// branch.
func (f *fgen) labelPrefix(id relooper.RegionID) string {
	if f.uses[id] > 0 {
		return regionLabel(id) + ": "
	}
	return ""
}

// chain emits the regions executed in sequence from id.
func (f *fgen) chain(id relooper.RegionID) {
	for _, rid := range f.tree.Chain(id) {
		r := f.tree.At(rid)
		switch r.Kind {
		case relooper.Simple:
			f.simple(rid)
		case relooper.Loop:
			f.loop(rid)
		case relooper.Multiple:
			if !r.Fused {
				f.multiple(rid)
			}
		}
	}
}

// branch emits the transfer along one edge.
func (f *fgen) branch(br relooper.Branch) {
	if br.Dispatch != 0 {
		f.e.line(fmt.Sprintf("%s = %d", f.dispatch, br.Dispatch))
	}
	switch br.Action {
	case relooper.Direct:
		if br.Target != 0 {
			f.chain(br.Target)
		}
	case relooper.Break:
		f.e.line("break " + regionLabel(br.Target))
	case relooper.Continue:
		f.e.line("continue " + regionLabel(br.Target))
	}
}

// empty reports whether a branch emits nothing.
func empty(br relooper.Branch) bool {
	return br.Action == relooper.Direct && br.Target == 0 && br.Dispatch == 0
}

func (f *fgen) simple(id relooper.RegionID) {
	r := f.tree.At(id)
	b := r.Block
	for _, s := range b.Stmts {
		f.stmt(s)
	}
	fused := f.tree.FusedNext(id)
	wrapped := fused != 0 && f.uses[fused] > 0
	if wrapped {
		f.e.begin(regionLabel(fused) + ": switch")
		f.e.mid("default:")
	}
	if stay, ok := f.heads[id]; ok {
		f.branch(r.Branches[stay])
	} else {
		f.terminator(r)
	}
	if wrapped {
		f.e.end()
	}
}

// terminator emits the control transfer ending a simple region.
func (f *fgen) terminator(r *relooper.Region) {
	b := r.Block
	switch b.Kind {
	case cfg.BlockPlain:
		if len(r.Branches) > 0 {
			f.branch(r.Branches[0])
		}
	case cfg.BlockIf:
		f.ifBlock(r)
	case cfg.BlockSwitch:
		f.switchBlock(r)
	case cfg.BlockReturn:
		f.ret(b)
	case cfg.BlockUnreachable:
		f.e.line(`panic("unreachable")`)
	}
}

func (f *fgen) ifBlock(r *relooper.Region) {
	c := f.cond(r.Block.Control)
	then, els := r.Branches[0], r.Branches[1]
	switch {
	case then == els:
		if !pure(r.Block.Control) {
			f.e.begin("if " + c.Text)
			f.e.end()
		}
		f.branch(then)
	case empty(then):
		f.e.begin("if " + target.Not(c).Text)
		f.branch(els)
		f.e.end()
	default:
		f.e.begin("if " + c.Text)
		f.branch(then)
		if !empty(els) {
			f.e.mid("} else {")
			f.branch(els)
		}
		f.e.end()
	}
}

// caseGroup is the set of case values sharing one branch.
type caseGroup struct {
	br     relooper.Branch
	cases  []cfg.Case
	ranged bool // some range is too long to enumerate
}

func (f *fgen) switchBlock(r *relooper.Region) {
	b := r.Block
	def := r.Branches[len(r.Branches)-1]
	var groups []*caseGroup
	for i, c := range b.Cases {
		br := r.Branches[i]
		if br == def {
			continue
		}
		var g *caseGroup
		for _, x := range groups {
			if x.br == br {
				g = x
				break
			}
		}
		if g == nil {
			g = &caseGroup{br: br}
			groups = append(groups, g)
		}
		g.cases = append(g.cases, c)
		if c.Hi-c.Lo >= maxCaseRange {
			g.ranged = true
		}
	}

	ctl := b.Control
	tag := f.expr(ctl)
	tt := ctl.Type()
	if f.g.IsPointer(tt) {
		tag = f.address(tag, tt)
	}
	if len(groups) == 0 {
		if !pure(ctl) {
			f.e.line("_ = " + tag.Text)
		}
		f.branch(def)
		return
	}

	ranged := false
	for _, g := range groups {
		ranged = ranged || g.ranged
	}
	value := func(v int64) string {
		if f.g.IsPointer(tt) {
			return fmt.Sprint(v)
		}
		return f.literal(f.intConst(uint64(v), tt), tt, false).Text
	}
	var tmp string
	if ranged {
		tmp = f.locals.temp()
		f.e.begin("switch " + tmp + " := " + f.typed(tag, tt).Text + ";")
	} else {
		f.e.begin("switch " + tag.Text)
	}
	for _, g := range groups {
		sort.Slice(g.cases, func(i, j int) bool { return g.cases[i].Lo < g.cases[j].Lo })
		var vals []string
		for _, c := range g.cases {
			switch {
			case ranged && c.Hi > c.Lo:
				vals = append(vals, fmt.Sprintf("%s >= %s && %s <= %s", tmp, value(c.Lo), tmp, value(c.Hi)))
			case ranged:
				vals = append(vals, tmp+" == "+value(c.Lo))
			default:
				for v := c.Lo; ; v++ {
					vals = append(vals, value(v))
					if v == c.Hi {
						break
					}
				}
			}
		}
		f.e.mid("case " + strings.Join(vals, ", ") + ":")
		f.branch(g.br)
	}
	if !empty(def) {
		f.e.mid("default:")
		f.branch(def)
	}
	f.e.end()
}

func (f *fgen) ret(b *cfg.Block) {
	ft := f.g.FuncOf(f.fn.Type)
	void := ft == nil || f.isVoid(ft.Result)
	switch {
	case b.Control == nil && void:
		f.e.line("return")
	case b.Control == nil:
		f.e.line("return " + f.zero(ft.Result))
	case void:
		f.exprStmt(b.Control)
		f.e.line("return")
	default:
		f.e.line("return " + f.initValue(b.Control, ft.Result).Text)
	}
}

func (f *fgen) loop(id relooper.RegionID) {
	r := f.tree.At(id)
	head := "for"
	if h, stay, ok := f.tree.LoopExit(id); ok {
		c := f.cond(f.tree.At(h).Block.Control)
		if stay == 1 {
			c = target.Not(c)
		}
		if c.Text != "true" {
			head += " " + c.Text
		}
	}
	f.e.begin(f.labelPrefix(id) + head)
	f.chain(r.Inner)
	f.e.end()
}

// multiple emits a region whose arm is chosen by the dispatch variable.
func (f *fgen) multiple(id relooper.RegionID) {
	r := f.tree.At(id)
	f.dispatched = true
	f.e.begin(f.labelPrefix(id) + "switch " + f.dispatch)
	for _, arm := range r.Arms {
		f.e.mid(fmt.Sprintf("case %d:", arm.Dispatch))
		if arm.Dispatch != 0 {
			f.e.line(f.dispatch + " = 0")
		}
		f.chain(arm.Body)
	}
	f.e.end()
}

// terminates reports whether the region chain from id never completes
// normally, so no return needs to follow it.
func (f *fgen) terminates(id relooper.RegionID) bool {
	ids := f.tree.Chain(id)
	if len(ids) == 0 {
		return false
	}
	last := f.tree.At(ids[len(ids)-1])
	switch last.Kind {
	case relooper.Simple:
		k := last.Block.Kind
		return k == cfg.BlockReturn || k == cfg.BlockUnreachable
	case relooper.Loop:
		_, _, exits := f.tree.LoopExit(ids[len(ids)-1])
		return !exits && f.uses[ids[len(ids)-1]] == 0
	}
	return false
}
