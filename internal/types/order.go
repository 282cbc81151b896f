package types

import (
	"sort"

	"github.com/you-not-fish/cmigrate/internal/diag"
)

// Refs returns the IDs id refers to directly, through any edge.
func (g *Graph) Refs(id ID) []ID {
	switch t := g.At(id).(type) {
	case *Pointer:
		return []ID{t.Elem}
	case *Array:
		return []ID{t.Elem}
	case *Func:
		return append([]ID{t.Result}, t.Params...)
	case *Record:
		refs := make([]ID, len(t.Fields))
		for i, f := range t.Fields {
			refs[i] = f.Type
		}
		return refs
	case *Enum:
		return []ID{t.Underlying}
	case *Typedef:
		return []ID{t.Alias}
	}
	return nil
}

// contains returns the nominal types id must see complete before it can be
// defined: members held by value, array elements and typedef targets.
// Pointers and function signatures never force an order.
func (g *Graph) contains(id ID) []ID {
	var out []ID
	var walk func(ID)
	walk = func(x ID) {
		switch t := g.At(x).(type) {
		case *Array:
			walk(t.Elem)
		case *Record, *Enum, *Typedef:
			out = append(out, x)
		}
	}
	switch t := g.At(id).(type) {
	case *Record:
		for _, f := range t.Fields {
			walk(f.Type)
		}
	case *Typedef:
		walk(t.Alias)
	}
	return out
}

// IsNominal reports whether id is a record, enum or typedef.
func (g *Graph) IsNominal(id ID) bool {
	switch g.At(id).(type) {
	case *Record, *Enum, *Typedef:
		return true
	}
	return false
}

// Closure returns every ID reachable from roots, in ascending order.
func Closure(g *Graph, roots []ID) []ID {
	seen := make(map[ID]bool)
	stack := append([]ID(nil), roots...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == Invalid || seen[id] {
			continue
		}
		seen[id] = true
		stack = append(stack, g.Refs(id)...)
	}
	out := make([]ID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Plan is the emission order of the nominal types of a closure.
type Plan struct {
	// Order lists nominal types so that every type follows the types it
	// contains by value.
	Order []ID

	// Forward lists records that take part in a reference cycle through
	// pointers and so must be declared before their bodies.
	Forward []ID

	// Opaque lists records that are never completed.
	Opaque []ID

	// Errors holds types that cannot be ordered because they contain
	// themselves by value.
	Errors map[ID]error
}

// Order computes the emission plan for the nominal types in ids.
func Order(g *Graph, ids []ID) *Plan {
	p := &Plan{Errors: make(map[ID]error)}
	in := make(map[ID]bool, len(ids))
	var nominal []ID
	for _, id := range ids {
		in[id] = true
		if g.IsNominal(id) {
			nominal = append(nominal, id)
		}
	}
	sort.Slice(nominal, func(i, j int) bool { return nominal[i] < nominal[j] })

	const (
		white = iota
		grey
		black
	)
	color := make(map[ID]int)
	var visit func(id ID) bool
	visit = func(id ID) bool {
		switch color[id] {
		case grey:
			return false
		case black:
			return p.Errors[id] == nil
		}
		color[id] = grey
		ok := true
		for _, dep := range g.contains(id) {
			if !visit(dep) {
				ok = false
			}
		}
		color[id] = black
		if !ok {
			p.Errors[id] = diag.Errorf(diag.UnsupportedType, g.Pos(id), "%s contains itself", g.String(id))
			return false
		}
		if in[id] {
			p.Order = append(p.Order, id)
		}
		return true
	}
	for _, id := range nominal {
		visit(id)
	}

	for _, id := range nominal {
		if r, ok := g.At(id).(*Record); ok && !r.Complete {
			p.Opaque = append(p.Opaque, id)
		}
	}
	p.Forward = cyclicRecords(g, ids)
	return p
}

// cyclicRecords finds the records that lie on a reference cycle, using
// Tarjan's strongly connected components over all edges.
func cyclicRecords(g *Graph, ids []ID) []ID {
	index := make(map[ID]int)
	low := make(map[ID]int)
	onStack := make(map[ID]bool)
	var stack []ID
	var out []ID
	next := 0

	var strong func(v ID)
	strong = func(v ID) {
		index[v] = next
		low[v] = next
		next++
		stack = append(stack, v)
		onStack[v] = true

		selfLoop := false
		for _, w := range g.Refs(v) {
			if w == Invalid {
				continue
			}
			if w == v {
				selfLoop = true
			}
			if _, seen := index[w]; !seen {
				strong(w)
				if low[w] < low[v] {
					low[v] = low[w]
				}
			} else if onStack[w] && index[w] < low[v] {
				low[v] = index[w]
			}
		}

		if low[v] == index[v] {
			var comp []ID
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			if len(comp) > 1 || selfLoop {
				for _, w := range comp {
					if _, ok := g.At(w).(*Record); ok {
						out = append(out, w)
					}
				}
			}
		}
	}

	sorted := append([]ID(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for _, id := range sorted {
		if _, seen := index[id]; !seen && id != Invalid {
			strong(id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
