package relooper

// dominators computes immediate dominators over the blocks of set with
// the unresolved edges between them and a virtual root jumping to every
// entry. The root is -1. Blocks the root cannot reach are absent from
// the result.
func (s *structurer) dominators(set []int, in []bool, entries []int) map[int]int {
	// Reverse post-order from the virtual root.
	visited := make(map[int]bool, len(set))
	var post []int
	var dfs func(b int)
	dfs = func(b int) {
		visited[b] = true
		for _, ed := range s.edges[b] {
			if !ed.resolved && in[ed.to] && !visited[ed.to] {
				dfs(ed.to)
			}
		}
		post = append(post, b)
	}
	for _, e := range entries {
		if !visited[e] {
			dfs(e)
		}
	}
	num := make(map[int]int, len(post)+1)
	order := make([]int, 0, len(post))
	for i := len(post) - 1; i >= 0; i-- {
		num[post[i]] = len(order) + 1
		order = append(order, post[i])
	}
	num[-1] = 0

	isEntry := make(map[int]bool, len(entries))
	for _, e := range entries {
		isEntry[e] = true
	}
	idom := make(map[int]int, len(order))
	intersect := func(a, b int) int {
		for a != b {
			for num[a] > num[b] {
				a = idom[a]
			}
			for num[b] > num[a] {
				b = idom[b]
			}
		}
		return a
	}

	for changed := true; changed; {
		changed = false
		for _, b := range order {
			d, ok := 0, false
			if isEntry[b] {
				d, ok = -1, true
			}
			for _, p := range s.preds[b] {
				if !in[p.from] || s.edges[p.from][p.k].resolved {
					continue
				}
				if _, seen := idom[p.from]; !seen {
					continue
				}
				if !ok {
					d, ok = p.from, true
				} else {
					d = intersect(p.from, d)
				}
			}
			if !ok {
				continue
			}
			if old, seen := idom[b]; !seen || old != d {
				idom[b] = d
				changed = true
			}
		}
	}
	return idom
}
