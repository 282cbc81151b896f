package relooper

import (
	"fmt"

	"github.com/you-not-fish/cmigrate/internal/cfg"
	"github.com/you-not-fish/cmigrate/internal/diag"
)

// Verify checks that every break and continue in t names a region that
// encloses it, that direct branches into arms follow the fused region
// they enter, and that each block appears in exactly one simple region.
func Verify(t *Tree) error {
	var errs []string
	errorf := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	seen := make(map[int]RegionID)
	for i := 1; i < len(t.Regions); i++ {
		id := RegionID(i)
		r := t.At(id)
		if r.Kind != Simple {
			continue
		}
		if prev, dup := seen[r.Block.ID]; dup {
			errorf("%v in regions %d and %d", r.Block, prev, id)
		}
		seen[r.Block.ID] = id
		if len(r.Branches) != len(r.Block.Succs) {
			errorf("region %d: %d branches for %d successors", id, len(r.Branches), len(r.Block.Succs))
			continue
		}
		for k, br := range r.Branches {
			switch br.Action {
			case Break, Continue:
				if !t.encloses(br.Target, id) {
					errorf("region %d: %v to region %d which does not enclose it", id, br.Action, br.Target)
				} else if br.Action == Continue && t.At(br.Target).Kind != Loop {
					errorf("region %d: continue to %v region %d", id, t.At(br.Target).Kind, br.Target)
				}
			case Direct:
				if br.Target == 0 {
					continue
				}
				m := t.FusedNext(id)
				if m == 0 || !t.isArm(m, br.Target, r.Block.Succs[k]) {
					errorf("region %d: direct branch into region %d which is not a following arm", id, br.Target)
				}
			}
		}
	}
	for _, b := range cfg.ReversePostOrder(t.Func) {
		if _, ok := seen[b.ID]; !ok {
			errorf("%v is in no region", b)
		}
	}

	if len(errs) > 0 {
		msg := errs[0]
		if len(errs) > 1 {
			msg = fmt.Sprintf("%s (and %d more)", msg, len(errs)-1)
		}
		return diag.Errorf(diag.UnstructurableControlFlow, t.Func.Entry.Pos, "%s", msg).In(t.Func.Name)
	}
	return nil
}

// encloses reports whether the loop or multiple region outer contains
// region id.
func (t *Tree) encloses(outer, id RegionID) bool {
	if outer <= 0 || int(outer) >= len(t.Regions) {
		return false
	}
	for p := t.At(id).Parent; p != 0; p = t.At(p).Parent {
		if p == outer {
			return true
		}
	}
	return false
}

func (t *Tree) isArm(m, body RegionID, entry *cfg.Block) bool {
	for _, arm := range t.At(m).Arms {
		if arm.Body == body && arm.Entry == entry {
			return true
		}
	}
	return false
}
