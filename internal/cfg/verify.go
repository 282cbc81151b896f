package cfg

import (
	"errors"
	"fmt"
	"strings"
)

// Verify checks the structural integrity of a function graph.
// It returns an error describing all violations found, or nil if valid.
func Verify(f *Func) error {
	var errs []string

	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if f.Entry == nil || len(f.Blocks) == 0 {
		add("func %s: no entry block", f.Name)
		return combineErrors(errs)
	}
	if f.Blocks[0] != f.Entry {
		add("func %s: Blocks[0] is not the entry block", f.Name)
	}
	if len(f.Entry.Preds) != 0 {
		add("func %s: entry block %s has %d predecessors, want 0",
			f.Name, f.Entry, len(f.Entry.Preds))
	}

	blockSet := make(map[*Block]bool, len(f.Blocks))
	for _, b := range f.Blocks {
		blockSet[b] = true
	}

	for _, b := range f.Blocks {
		if b.Func != f {
			add("func %s, %s: block Func pointer mismatch", f.Name, b)
		}

		want := -1
		switch b.Kind {
		case BlockPlain:
			want = 1
		case BlockIf:
			want = 2
		case BlockSwitch:
			want = len(b.Cases) + 1
		case BlockReturn, BlockUnreachable:
			want = 0
		default:
			add("func %s, %s: block has invalid kind", f.Name, b)
		}
		if want >= 0 && len(b.Succs) != want {
			add("func %s, %s: %s block has %d succs, want %d",
				f.Name, b, b.Kind, len(b.Succs), want)
		}
		if (b.Kind == BlockIf || b.Kind == BlockSwitch) && b.Control == nil {
			add("func %s, %s: %s block has no control", f.Name, b, b.Kind)
		}
		for _, c := range b.Cases {
			if c.Lo > c.Hi {
				add("func %s, %s: empty case range %d...%d", f.Name, b, c.Lo, c.Hi)
			}
		}

		// Edges appear as often in Preds as in Succs.
		for _, succ := range b.Succs {
			if !blockSet[succ] {
				add("func %s, %s: successor %s not in function", f.Name, b, succ)
				continue
			}
			if count(b.Succs, succ) != count(succ.Preds, b) {
				add("func %s: edge %s -> %s has %d succ entries but %d pred entries",
					f.Name, b, succ, count(b.Succs, succ), count(succ.Preds, b))
			}
		}
		for _, pred := range b.Preds {
			if !blockSet[pred] {
				add("func %s, %s: predecessor %s not in function", f.Name, b, pred)
				continue
			}
			if count(pred.Succs, b) == 0 {
				add("func %s: %s lists %s as predecessor, but not vice versa", f.Name, b, pred)
			}
		}
	}

	for l, b := range f.Labels {
		if !blockSet[b] {
			add("func %s: label %s maps to a removed block", f.Name, l.Name)
		}
	}

	return combineErrors(errs)
}

func count(list []*Block, b *Block) int {
	n := 0
	for _, x := range list {
		if x == b {
			n++
		}
	}
	return n
}

func combineErrors(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.New(strings.Join(errs, "\n"))
}
