package cfg

// ReversePostOrder returns the blocks of f in reverse post-order,
// starting from f.Entry. Successors are visited in terminator order, so
// the order is a function of the graph alone. Unreachable blocks are
// excluded.
func ReversePostOrder(f *Func) []*Block {
	visited := make(map[*Block]bool, len(f.Blocks))
	var order []*Block

	var dfs func(b *Block)
	dfs = func(b *Block) {
		if visited[b] {
			return
		}
		visited[b] = true
		for _, s := range b.Succs {
			dfs(s)
		}
		order = append(order, b)
	}
	dfs(f.Entry)

	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// ComputeDom computes the immediate dominator tree for f using
// Cooper, Harvey, and Kennedy's "A Simple, Fast Dominance Algorithm".
// It populates Block.Idom and Block.Dominees for all reachable blocks.
func ComputeDom(f *Func) {
	rpo := ReversePostOrder(f)
	if len(rpo) == 0 {
		return
	}

	rpoNum := make(map[*Block]int, len(rpo))
	for i, b := range rpo {
		rpoNum[b] = i
	}

	intersect := func(b1, b2 *Block) *Block {
		for b1 != b2 {
			for rpoNum[b1] > rpoNum[b2] {
				b1 = b1.Idom
			}
			for rpoNum[b2] > rpoNum[b1] {
				b2 = b2.Idom
			}
		}
		return b1
	}

	// The entry dominates itself while iterating.
	entry := rpo[0]
	entry.Idom = entry

	for _, b := range f.Blocks {
		if b != entry {
			b.Idom = nil
		}
		b.Dominees = nil
	}

	changed := true
	for changed {
		changed = false
		for _, b := range rpo[1:] {
			var newIdom *Block
			for _, p := range b.Preds {
				if p.Idom != nil {
					newIdom = p
					break
				}
			}
			if newIdom == nil {
				continue
			}
			for _, p := range b.Preds {
				if p == newIdom {
					continue
				}
				if p.Idom != nil {
					newIdom = intersect(p, newIdom)
				}
			}
			if b.Idom != newIdom {
				b.Idom = newIdom
				changed = true
			}
		}
	}

	entry.Idom = nil

	for _, b := range rpo {
		if b.Idom != nil {
			b.Idom.Dominees = append(b.Idom.Dominees, b)
		}
	}
}

// Dominates reports whether a dominates b. ComputeDom must have been
// called first.
func Dominates(a, b *Block) bool {
	for ; b != nil; b = b.Idom {
		if a == b {
			return true
		}
	}
	return false
}

// Reducible reports whether every loop of f has a single entry: each
// edge that closes a cycle in the depth-first search targets a dominator
// of its source. Irreducible graphs are what goto into the middle of a
// loop produces; the relooper handles them with a dispatch variable.
func Reducible(f *Func) bool {
	ComputeDom(f)
	const (
		unvisited = iota
		active
		done
	)
	state := make(map[*Block]int, len(f.Blocks))
	ok := true
	var dfs func(b *Block)
	dfs = func(b *Block) {
		state[b] = active
		for _, s := range b.Succs {
			switch state[s] {
			case unvisited:
				dfs(s)
			case active:
				if !Dominates(s, b) {
					ok = false
				}
			}
		}
		state[b] = done
	}
	dfs(f.Entry)
	return ok
}
