package relooper

// fall is a branch equivalent to running off the end of a sequence.
type fall struct {
	action Action
	target RegionID
}

// simplify turns breaks and continues in tail position into direct
// branches when they land where the sequence would end anyway, then
// marks the regions that are still branch targets.
func simplify(t *Tree) {
	if t.Root != 0 {
		t.tails(t.Root, nil)
	}
	for i := 1; i < len(t.Regions); i++ {
		r := &t.Regions[i]
		for _, br := range r.Branches {
			if br.Action != Direct {
				t.At(br.Target).Labeled = true
			}
		}
	}
}

func (t *Tree) tails(first RegionID, falls []fall) {
	ids := t.Chain(first)
	for i, id := range ids {
		r := t.At(id)
		switch r.Kind {
		case Simple:
			end := r.Next == 0
			if m := t.FusedNext(id); m != 0 && t.At(m).Next == 0 {
				end = true
			}
			if !end {
				continue
			}
			for k := range r.Branches {
				br := &r.Branches[k]
				for _, f := range falls {
					if br.Action == f.action && br.Target == f.target {
						br.Action, br.Target = Direct, 0
						break
					}
				}
			}
		case Loop:
			t.tails(r.Inner, []fall{{Continue, id}})
		case Multiple:
			armFalls := []fall{{Break, id}}
			if i == len(ids)-1 {
				armFalls = append(armFalls, falls...)
			}
			for _, arm := range r.Arms {
				t.tails(arm.Body, armFalls)
			}
		}
	}
}
