package cfg

import (
	"fmt"

	"github.com/you-not-fish/cmigrate/internal/ir"
	"github.com/you-not-fish/cmigrate/internal/syntax"
)

// BlockKind describes how a basic block terminates.
type BlockKind int

const (
	BlockInvalid     BlockKind = iota
	BlockPlain                 // unconditional jump to Succs[0]
	BlockIf                    // if Control then Succs[0] else Succs[1]
	BlockSwitch                // multi-way branch on Control, see Cases
	BlockReturn                // function return; Control is the result, or nil
	BlockUnreachable           // no successors; reaching it is a bug
)

var blockKindNames = [...]string{
	BlockInvalid:     "invalid",
	BlockPlain:       "plain",
	BlockIf:          "if",
	BlockSwitch:      "switch",
	BlockReturn:      "ret",
	BlockUnreachable: "unreachable",
}

// String returns the string representation of the block kind.
func (k BlockKind) String() string {
	if int(k) < len(blockKindNames) {
		return blockKindNames[k]
	}
	return "unknown"
}

// A Case is one arm of a switch terminator. It matches tag values in
// [Lo, Hi], compared in the type of the switch tag.
type Case struct {
	Lo, Hi int64
}

// Block is a basic block: straight-line statements followed by a
// terminator indicated by its Kind.
type Block struct {
	// ID is a unique identifier within the containing Func.
	ID int

	// Kind describes how this block terminates.
	Kind BlockKind

	// Stmts holds the statements executed by the block in order. They are
	// expression statements and declarations only; control flow lives in
	// the terminator.
	Stmts []ir.Stmt

	// Control is the branch condition, switch tag or return value.
	Control ir.Expr

	// Succs lists the successors in terminator order.
	// For BlockIf: Succs[0] = then, Succs[1] = else.
	// For BlockSwitch: Succs[i] is the target of Cases[i] and the last
	// successor is the default.
	// The same block may appear more than once.
	Succs []*Block

	// Cases holds the switch arms of a BlockSwitch.
	Cases []Case

	// Preds lists the predecessors, one entry per incoming edge.
	Preds []*Block

	// Label is the C label that starts this block, if any.
	Label *ir.Label

	Pos  syntax.Pos
	Func *Func

	// Dominance tree, populated by ComputeDom.
	Idom     *Block
	Dominees []*Block
}

// String returns a short string representation (e.g., "b3").
func (b *Block) String() string {
	return fmt.Sprintf("b%d", b.ID)
}

// AddSucc adds a successor block, updating both Succs and the successor's Preds.
func (b *Block) AddSucc(succ *Block) {
	b.Succs = append(b.Succs, succ)
	succ.Preds = append(succ.Preds, b)
}

// Terminated reports whether the block has its terminator.
func (b *Block) Terminated() bool {
	switch b.Kind {
	case BlockReturn, BlockUnreachable:
		return true
	case BlockPlain:
		return len(b.Succs) == 1
	}
	return len(b.Succs) > 0
}

// Default returns the default successor of a switch block.
func (b *Block) Default() *Block {
	return b.Succs[len(b.Succs)-1]
}

// NumSuccs returns the number of successor edges.
func (b *Block) NumSuccs() int { return len(b.Succs) }

// NumPreds returns the number of predecessor edges.
func (b *Block) NumPreds() int { return len(b.Preds) }
