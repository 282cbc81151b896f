// Package relooper turns a function's control-flow graph into a tree of
// structured regions: simple blocks, loops and multi-way branches linked
// in sequence. Irreducible control flow is handled with a dispatch
// variable that records which entry of a multi-entry loop was taken.
package relooper

import (
	"fmt"

	"github.com/you-not-fish/cmigrate/internal/cfg"
	"github.com/you-not-fish/cmigrate/internal/ir"
)

// RegionID indexes Tree.Regions. The zero ID is no region.
type RegionID int32

// Kind is the shape of a region.
type Kind uint8

const (
	Simple   Kind = iota + 1 // one basic block
	Loop                     // a body repeated until a break
	Multiple                 // independent arms, one of which runs
)

func (k Kind) String() string {
	switch k {
	case Simple:
		return "simple"
	case Loop:
		return "loop"
	case Multiple:
		return "multiple"
	}
	return "invalid"
}

// Action says how an edge leaving a simple region reaches its target.
type Action uint8

const (
	// Direct continues with what follows the simple region: the fused
	// arm named by the branch, or the next region in sequence.
	Direct Action = iota
	// Break leaves the target loop or multiple region.
	Break
	// Continue starts the next iteration of the target loop.
	Continue
)

func (a Action) String() string {
	switch a {
	case Direct:
		return "direct"
	case Break:
		return "break"
	case Continue:
		return "continue"
	}
	return "invalid"
}

// A Branch is the resolution of one CFG edge.
type Branch struct {
	Action Action
	// Target is the loop or multiple region for Break and Continue. For
	// Direct it is the body of the fused arm entered, or zero.
	Target RegionID
	// Dispatch is assigned to the dispatch variable before the branch
	// is taken; zero assigns nothing.
	Dispatch int
}

// An Arm is one alternative of a multiple region.
type Arm struct {
	Entry *cfg.Block
	Body  RegionID
	// Dispatch is the value of the dispatch variable that selects the
	// arm. The arm of a loop header is selected by zero. Fused arms are
	// entered by branches and have no value.
	Dispatch int
}

// Region is one node of the region tree.
type Region struct {
	Kind Kind

	// Simple regions.
	Block    *cfg.Block
	Branches []Branch // parallel to Block.Succs

	// Loop regions.
	Inner RegionID

	// Multiple regions. A fused multiple directly follows a simple
	// region whose branches select the arm; otherwise the dispatch
	// variable does.
	Arms  []Arm
	Fused bool

	// Next is the region executed after this one completes.
	Next RegionID

	// Parent is the innermost loop or multiple region containing this
	// one, zero at the top level.
	Parent RegionID

	// Labeled is set on loops and multiples targeted by a Break or
	// Continue.
	Labeled bool
}

// Tree is the structured form of one function.
type Tree struct {
	Func    *cfg.Func
	Regions []Region // Regions[0] is unused
	Root    RegionID

	// Labels maps each C label to the simple region of its block.
	Labels map[*ir.Label]RegionID

	// Dispatch is set when any branch assigns the dispatch variable.
	Dispatch bool
}

// At returns the region with the given ID.
func (t *Tree) At(id RegionID) *Region {
	if id <= 0 || int(id) >= len(t.Regions) {
		panic(fmt.Sprintf("relooper: region %d out of range", id))
	}
	return &t.Regions[id]
}

func (t *Tree) newRegion(kind Kind, parent RegionID) RegionID {
	t.Regions = append(t.Regions, Region{Kind: kind, Parent: parent})
	return RegionID(len(t.Regions) - 1)
}

// Chain returns the regions executed in sequence starting at id.
func (t *Tree) Chain(id RegionID) []RegionID {
	var out []RegionID
	for ; id != 0; id = t.At(id).Next {
		out = append(out, id)
	}
	return out
}

// FusedNext returns the fused multiple region following a simple region,
// or zero.
func (t *Tree) FusedNext(id RegionID) RegionID {
	r := t.At(id)
	if r.Kind != Simple || r.Next == 0 {
		return 0
	}
	if n := t.At(r.Next); n.Kind == Multiple && n.Fused {
		return r.Next
	}
	return 0
}

// LoopExit reports whether the loop id starts with a statement-free
// conditional block one of whose branches leaves the loop, so that the
// condition can guard the loop itself. It returns the simple region and
// the index of the branch that stays in the loop.
func (t *Tree) LoopExit(id RegionID) (head RegionID, stay int, ok bool) {
	l := t.At(id)
	if l.Kind != Loop {
		return 0, 0, false
	}
	s := t.At(l.Inner)
	if s.Kind != Simple || len(s.Block.Stmts) > 0 || s.Block.Kind != cfg.BlockIf {
		return 0, 0, false
	}
	for i, br := range s.Branches {
		other := s.Branches[1-i]
		if br.Action == Break && br.Target == id && br.Dispatch == 0 && other.Action != Break {
			return l.Inner, 1 - i, true
		}
	}
	return 0, 0, false
}
