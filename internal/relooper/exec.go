package relooper

import (
	"fmt"

	"github.com/you-not-fish/cmigrate/internal/cfg"
)

type outcome uint8

const (
	normal outcome = iota
	broke
	continued
	returned
	stopped
)

type executor struct {
	t      *Tree
	o      cfg.Oracle
	limit  int
	label  int
	trace  []int
	target RegionID
	err    error
}

// Exec runs the region tree the way the structured output would, asking
// o at every conditional block, and returns the IDs of the blocks run.
// Done is false when execution was cut off after limit blocks. It fails
// if a block runs while the dispatch variable is not zero.
func Exec(t *Tree, o cfg.Oracle, limit int) (trace []int, done bool, err error) {
	x := &executor{t: t, o: o, limit: limit}
	out := x.chain(t.Root)
	if x.err != nil {
		return x.trace, false, x.err
	}
	switch out {
	case stopped:
		return x.trace, false, nil
	case returned:
		return x.trace, true, nil
	case broke, continued:
		return x.trace, false, fmt.Errorf("relooper: %v to region %d escaped the tree", out, x.target)
	}
	return x.trace, false, fmt.Errorf("relooper: fell off the end of the tree")
}

func (x *executor) chain(id RegionID) outcome {
	for id != 0 {
		r := x.t.At(id)
		switch r.Kind {
		case Simple:
			if x.label != 0 {
				x.err = fmt.Errorf("relooper: %v entered with dispatch %d", r.Block, x.label)
				return stopped
			}
			if len(x.trace) == x.limit {
				return stopped
			}
			b := r.Block
			x.trace = append(x.trace, b.ID)
			var i int
			switch b.Kind {
			case cfg.BlockReturn, cfg.BlockUnreachable:
				return returned
			case cfg.BlockPlain:
				i = 0
			default:
				i = x.o(b)
			}
			br := r.Branches[i]
			if br.Dispatch != 0 {
				x.label = br.Dispatch
			}
			switch br.Action {
			case Break:
				x.target = br.Target
				return broke
			case Continue:
				x.target = br.Target
				return continued
			}
			if m := x.t.FusedNext(id); m != 0 {
				if br.Target != 0 {
					if out := x.chain(br.Target); !x.leaves(out, m) {
						return out
					}
				}
				id = x.t.At(m).Next
				continue
			}
			id = r.Next

		case Loop:
		iterate:
			for {
				switch out := x.chain(r.Inner); {
				case out == normal, out == continued && x.target == id:
				case out == broke && x.target == id:
					break iterate
				default:
					return out
				}
			}
			id = r.Next

		case Multiple:
			for _, arm := range r.Arms {
				if arm.Dispatch == x.label {
					x.label = 0
					if out := x.chain(arm.Body); !x.leaves(out, id) {
						return out
					}
					break
				}
			}
			id = r.Next
		}
	}
	return normal
}

// leaves reports whether out ends an arm of the multiple region m
// normally.
func (x *executor) leaves(out outcome, m RegionID) bool {
	return out == normal || out == broke && x.target == m
}

func (o outcome) String() string {
	switch o {
	case broke:
		return "break"
	case continued:
		return "continue"
	}
	return "normal"
}
