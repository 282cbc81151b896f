// Package cfgtest builds synthetic control-flow graphs for tests of the
// packages that consume them.
package cfgtest

import (
	"fmt"

	"github.com/you-not-fish/cmigrate/internal/cfg"
	"github.com/you-not-fish/cmigrate/internal/ir"
	"github.com/you-not-fish/cmigrate/internal/syntax"
)

// Graph returns a function whose block i has the successors succs[i].
// Blocks with no successors return, one successor jumps, two branch on a
// condition and more switch over the values 0, 1, ... with the last
// successor as default. Each block holds one statement naming it.
func Graph(succs ...[]int) *cfg.Func {
	f := cfg.NewFunc("synthetic")
	for len(f.Blocks) < len(succs) {
		f.NewBlock(cfg.BlockPlain)
	}
	for i, ss := range succs {
		b := f.Blocks[i]
		b.Stmts = []ir.Stmt{marker(i)}
		for _, s := range ss {
			b.AddSucc(f.Blocks[s])
		}
		switch len(ss) {
		case 0:
			b.Kind = cfg.BlockReturn
		case 1:
			b.Kind = cfg.BlockPlain
		case 2:
			b.Kind = cfg.BlockIf
			b.Control = ir.NewIntLit(syntax.Pos{}, 0, uint64(i))
		default:
			b.Kind = cfg.BlockSwitch
			b.Control = ir.NewIntLit(syntax.Pos{}, 0, uint64(i))
			for k := 0; k < len(ss)-1; k++ {
				b.Cases = append(b.Cases, cfg.Case{Lo: int64(k), Hi: int64(k)})
			}
		}
	}
	return f
}

func marker(i int) ir.Stmt {
	d := ir.NewVarDecl(syntax.Pos{}, fmt.Sprintf("visit%d", i), 0)
	s := &ir.ExprStmt{X: ir.NewRef(syntax.Pos{}, d)}
	return s
}

// Decisions returns an oracle that answers with the given successor
// indexes in order and then with 0 forever.
func Decisions(ds ...int) cfg.Oracle {
	return func(*cfg.Block) int {
		if len(ds) == 0 {
			return 0
		}
		d := ds[0]
		ds = ds[1:]
		return d
	}
}

// Paths enumerates the decision sequences of every walk of f that
// returns within limit blocks or is cut off there. Each sequence lists
// the successor index chosen at each branch in walk order.
func Paths(f *cfg.Func, limit int) [][]int {
	var out [][]int
	var rec func(b *cfg.Block, steps int, ds []int)
	rec = func(b *cfg.Block, steps int, ds []int) {
		for {
			if steps == limit || b.Kind == cfg.BlockReturn || b.Kind == cfg.BlockUnreachable {
				out = append(out, append([]int(nil), ds...))
				return
			}
			steps++
			if b.Kind == cfg.BlockPlain {
				b = b.Succs[0]
				continue
			}
			for i, s := range b.Succs {
				rec(s, steps, append(ds, i))
			}
			return
		}
	}
	rec(f.Entry, 0, nil)
	return out
}
