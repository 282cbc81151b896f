// Package cfg builds per-function control-flow graphs from the IR. Blocks
// hold straight-line statements; every transfer of control, including
// goto and indirect goto, is a terminator edge.
package cfg

import (
	"github.com/you-not-fish/cmigrate/internal/ir"
)

// Func is the control-flow graph of one function.
type Func struct {
	// Name is the function name.
	Name string

	// Decl is the function the graph was built from.
	Decl *ir.FuncDecl

	// Blocks is the list of basic blocks. Blocks[0] is always the entry block.
	Blocks []*Block

	// Entry is the entry block (same as Blocks[0]).
	Entry *Block

	// Labels maps each defined C label to the block it starts.
	Labels map[*ir.Label]*Block

	// LabelIDs numbers the address-taken labels from 1, in declaration
	// order. A label address evaluates to its number and an indirect goto
	// switches over them.
	LabelIDs map[*ir.Label]int

	nextBlockID int
}

// NewFunc creates a new function graph with an empty entry block.
func NewFunc(name string) *Func {
	f := &Func{
		Name:     name,
		Labels:   make(map[*ir.Label]*Block),
		LabelIDs: make(map[*ir.Label]int),
	}
	f.Entry = f.NewBlock(BlockPlain)
	return f
}

// NewBlock creates a new basic block with the given kind and appends it to the function.
func (f *Func) NewBlock(kind BlockKind) *Block {
	b := &Block{
		ID:   f.nextBlockID,
		Kind: kind,
		Func: f,
	}
	f.nextBlockID++
	f.Blocks = append(f.Blocks, b)
	return b
}

// NumBlocks returns the number of blocks in the function.
func (f *Func) NumBlocks() int { return len(f.Blocks) }

// Block returns the block with the given ID, or nil.
func (f *Func) Block(id int) *Block {
	for _, b := range f.Blocks {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// RemoveUnreachable deletes the blocks not reachable from the entry and
// the edges leaving them, then renumbers the remaining blocks densely in
// their current order.
func (f *Func) RemoveUnreachable() {
	live := make(map[*Block]bool, len(f.Blocks))
	for _, b := range ReversePostOrder(f) {
		live[b] = true
	}
	kept := f.Blocks[:0]
	for _, b := range f.Blocks {
		if !live[b] {
			for _, s := range b.Succs {
				s.removePred(b)
			}
			continue
		}
		kept = append(kept, b)
	}
	f.Blocks = kept
	for l, b := range f.Labels {
		if !live[b] {
			delete(f.Labels, l)
		}
	}
	for i, b := range f.Blocks {
		b.ID = i
	}
	f.nextBlockID = len(f.Blocks)
}

// removePred removes one edge from p.
func (b *Block) removePred(p *Block) {
	for i, q := range b.Preds {
		if q == p {
			b.Preds = append(b.Preds[:i], b.Preds[i+1:]...)
			return
		}
	}
}
