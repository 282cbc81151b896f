package relooper

import (
	"sort"

	"github.com/you-not-fish/cmigrate/internal/cfg"
	"github.com/you-not-fish/cmigrate/internal/diag"
	"github.com/you-not-fish/cmigrate/internal/ir"
)

// edge is the resolution state of one CFG edge.
type edge struct {
	to       int // RPO index of the target
	resolved bool
	action   Action
	target   RegionID
	dispatch int
}

type pred struct {
	from, k int // edges[from][k]
}

type structurer struct {
	t     *Tree
	rpo   []*cfg.Block
	index map[*cfg.Block]int
	edges [][]edge
	preds [][]pred

	nextDispatch int
	simple       map[int]RegionID // RPO index -> simple region
}

// Structure computes the region tree of f. Blocks unreachable from the
// entry are ignored. Equal graphs give equal trees.
func Structure(f *cfg.Func) (*Tree, error) {
	s := &structurer{
		t: &Tree{
			Func:    f,
			Regions: make([]Region, 1, 2*len(f.Blocks)+1),
			Labels:  make(map[*ir.Label]RegionID),
		},
		rpo:    cfg.ReversePostOrder(f),
		simple: make(map[int]RegionID),
	}
	n := len(s.rpo)
	s.index = make(map[*cfg.Block]int, n)
	for i, b := range s.rpo {
		s.index[b] = i
	}
	s.edges = make([][]edge, n)
	s.preds = make([][]pred, n)
	for i, b := range s.rpo {
		s.edges[i] = make([]edge, len(b.Succs))
		for k, succ := range b.Succs {
			j := s.index[succ]
			s.edges[i][k] = edge{to: j}
			s.preds[j] = append(s.preds[j], pred{i, k})
		}
	}

	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	root, err := s.chain(all, []int{0}, 0, -1)
	if err != nil {
		return nil, err.In(f.Name)
	}
	s.t.Root = root
	if err := s.finish(); err != nil {
		return nil, err.In(f.Name)
	}
	if err := Verify(s.t); err != nil {
		return nil, err
	}
	return s.t, nil
}

func (s *structurer) errorf(format string, args ...interface{}) *diag.Error {
	return diag.Errorf(diag.UnstructurableControlFlow, s.t.Func.Entry.Pos, format, args...)
}

// chain structures the blocks of set, entered through entries, into a
// sequence of regions inside parent. Header is the RPO index of the
// entry taken when the dispatch variable is zero, or -1.
func (s *structurer) chain(set, entries []int, parent RegionID, header int) (RegionID, *diag.Error) {
	var first, last RegionID
	link := func(r RegionID) {
		if last == 0 {
			first = r
		} else {
			s.t.At(last).Next = r
		}
		last = r
	}
	for len(set) > 0 {
		if len(entries) == 0 {
			return 0, s.errorf("blocks %v unreachable during structuring", s.ids(set))
		}
		in := s.members(set)
		prevSimple := last != 0 && s.t.At(last).Kind == Simple

		if len(entries) == 1 && !s.reachedFrom(entries[0], in) {
			r, rest, next := s.makeSimple(set, in, entries[0], parent)
			link(r)
			set, entries = rest, next
			header = -1
			continue
		}
		if len(entries) > 1 {
			groups := s.groups(set, in, entries)
			if len(groups) > 0 {
				r, rest, next, err := s.makeMultiple(set, entries, groups, parent, prevSimple, header)
				if err != nil {
					return 0, err
				}
				if prevSimple {
					s.fuse(last, r)
				}
				link(r)
				set, entries = rest, next
				header = -1
				continue
			}
		}
		r, rest, next, err := s.makeLoop(set, in, entries, parent)
		if err != nil {
			return 0, err
		}
		link(r)
		set, entries = rest, next
		header = -1
	}
	return first, nil
}

func (s *structurer) members(set []int) []bool {
	in := make([]bool, len(s.rpo))
	for _, i := range set {
		in[i] = true
	}
	return in
}

// reachedFrom reports whether b has an unresolved edge from a block in.
func (s *structurer) reachedFrom(b int, in []bool) bool {
	for _, p := range s.preds[b] {
		if in[p.from] && !s.edges[p.from][p.k].resolved {
			return true
		}
	}
	return false
}

func (s *structurer) makeSimple(set []int, in []bool, e int, parent RegionID) (RegionID, []int, []int) {
	r := s.t.newRegion(Simple, parent)
	s.t.At(r).Block = s.rpo[e]
	s.simple[e] = r

	in[e] = false
	var next []int
	for k := range s.edges[e] {
		ed := &s.edges[e][k]
		if ed.resolved || !in[ed.to] {
			continue
		}
		ed.resolved = true
		ed.action = Direct
		next = appendUnique(next, ed.to)
	}
	sort.Ints(next)
	return r, without(set, in), next
}

func (s *structurer) makeLoop(set []int, in []bool, entries []int, parent RegionID) (RegionID, []int, []int, *diag.Error) {
	l := s.t.newRegion(Loop, parent)

	// The body is every block that can get back to an entry.
	inner := make([]bool, len(s.rpo))
	work := append([]int(nil), entries...)
	for _, e := range entries {
		inner[e] = true
	}
	for len(work) > 0 {
		b := work[len(work)-1]
		work = work[:len(work)-1]
		for _, p := range s.preds[b] {
			if in[p.from] && !inner[p.from] && !s.edges[p.from][p.k].resolved {
				inner[p.from] = true
				work = append(work, p.from)
			}
		}
	}

	isEntry := make(map[int]bool, len(entries))
	for _, e := range entries {
		isEntry[e] = true
	}
	backEdges := make(map[int]int, len(entries))
	var body, next []int
	for _, b := range set {
		if !inner[b] {
			continue
		}
		body = append(body, b)
		for k := range s.edges[b] {
			ed := &s.edges[b][k]
			if ed.resolved || !in[ed.to] {
				continue
			}
			switch {
			case isEntry[ed.to]:
				ed.resolved, ed.action, ed.target = true, Continue, l
				backEdges[ed.to]++
			case !inner[ed.to]:
				ed.resolved, ed.action, ed.target = true, Break, l
				next = appendUnique(next, ed.to)
			}
		}
	}
	sort.Ints(next)

	// The header is the entry with the fewest back edges; the lowest
	// RPO index wins ties since entries are sorted.
	header := entries[0]
	for _, e := range entries[1:] {
		if backEdges[e] < backEdges[header] {
			header = e
		}
	}

	first, err := s.chain(body, entries, l, header)
	if err != nil {
		return 0, nil, nil, err
	}
	s.t.At(l).Inner = first

	for _, b := range body {
		in[b] = false
	}
	return l, without(set, in), next, nil
}

func (s *structurer) makeMultiple(set []int, entries []int, groups map[int][]int, parent RegionID, fused bool, header int) (RegionID, []int, []int, *diag.Error) {
	m := s.t.newRegion(Multiple, parent)
	s.t.At(m).Fused = fused

	handled := make([]bool, len(s.rpo))
	for _, g := range groups {
		for _, b := range g {
			handled[b] = true
		}
	}
	in := s.members(set)

	var next []int
	for _, e := range entries {
		if groups[e] == nil {
			next = appendUnique(next, e)
		}
	}
	var arms []Arm
	for _, e := range entries {
		g := groups[e]
		if g == nil {
			continue
		}
		inGroup := s.members(g)
		for _, b := range g {
			for k := range s.edges[b] {
				ed := &s.edges[b][k]
				if ed.resolved || !in[ed.to] || inGroup[ed.to] {
					continue
				}
				ed.resolved, ed.action, ed.target = true, Break, m
				next = appendUnique(next, ed.to)
			}
		}
		arm := Arm{Entry: s.rpo[e]}
		if !fused && e != header {
			s.nextDispatch++
			arm.Dispatch = s.nextDispatch
			s.enter(e, arm.Dispatch)
		}
		arms = append(arms, arm)
	}
	sort.Ints(next)

	for i := range arms {
		e := s.index[arms[i].Entry]
		body, err := s.chain(groups[e], []int{e}, m, -1)
		if err != nil {
			return 0, nil, nil, err
		}
		arms[i].Body = body
	}
	s.t.At(m).Arms = arms

	for i, h := range handled {
		if h {
			in[i] = false
		}
	}
	return m, without(set, in), next, nil
}

// enter makes the edges into e that are already resolved select the arm
// headed by e. They come from outside the arm's group; edges from inside
// it are resolved later and leave the dispatch variable alone.
func (s *structurer) enter(e, dispatch int) {
	for _, p := range s.preds[e] {
		if ed := &s.edges[p.from][p.k]; ed.resolved {
			ed.dispatch = dispatch
		}
	}
}

// fuse points the direct branches of the simple region r at the arms of
// the fused multiple m that follows it.
func (s *structurer) fuse(r, m RegionID) {
	e := s.index[s.t.At(r).Block]
	for k := range s.edges[e] {
		ed := &s.edges[e][k]
		if ed.action != Direct {
			continue
		}
		for _, arm := range s.t.At(m).Arms {
			if s.index[arm.Entry] == ed.to {
				ed.target = arm.Body
			}
		}
	}
}

// groups returns, for each entry that can head an arm of a multiple
// region, the blocks of set dominated by it when all entries are
// reached from a virtual root. An entry qualifies only if every
// unresolved edge into it comes from its own group.
func (s *structurer) groups(set []int, in []bool, entries []int) map[int][]int {
	idom := s.dominators(set, in, entries)
	owner := func(b int) int {
		for {
			d := idom[b]
			if d < 0 {
				return b
			}
			b = d
		}
	}
	all := make(map[int][]int, len(entries))
	for _, b := range set {
		if _, ok := idom[b]; !ok {
			continue
		}
		o := owner(b)
		all[o] = append(all[o], b)
	}
	out := make(map[int][]int, len(entries))
	for _, e := range entries {
		g := all[e]
		inGroup := s.members(g)
		ok := true
		for _, p := range s.preds[e] {
			if in[p.from] && !s.edges[p.from][p.k].resolved && !inGroup[p.from] {
				ok = false
				break
			}
		}
		if ok {
			out[e] = g
		}
	}
	return out
}

func (s *structurer) finish() *diag.Error {
	t := s.t
	for e, r := range s.simple {
		reg := t.At(r)
		reg.Branches = make([]Branch, len(s.edges[e]))
		for k, ed := range s.edges[e] {
			if !ed.resolved {
				return s.errorf("edge %v -> %v left unresolved", s.rpo[e], s.rpo[ed.to])
			}
			reg.Branches[k] = Branch{Action: ed.action, Target: ed.target, Dispatch: ed.dispatch}
			if reg.Branches[k].Dispatch != 0 {
				t.Dispatch = true
			}
		}
	}
	simplify(t)
	for l, b := range t.Func.Labels {
		if i, ok := s.index[b]; ok {
			t.Labels[l] = s.simple[i]
		}
	}
	return nil
}

func (s *structurer) ids(set []int) []int {
	out := make([]int, len(set))
	for i, b := range set {
		out[i] = s.rpo[b].ID
	}
	return out
}

func appendUnique(list []int, x int) []int {
	for _, y := range list {
		if y == x {
			return list
		}
	}
	return append(list, x)
}

// without returns the members of set still marked in in.
func without(set []int, in []bool) []int {
	var out []int
	for _, b := range set {
		if in[b] {
			out = append(out, b)
		}
	}
	return out
}
