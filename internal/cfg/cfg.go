// Package cfg implements the basic-block / control-flow-graph layer
// (C2): blocks own an ordered instruction list; edges are non-owning
// references between blocks.
package cfg

import "mina/internal/ir"

// Block is a basic block: a name, an ordered instruction list, and its
// predecessor/successor edges. Grounded on original_source's surviving
// BasicBlock class (include/BasicBlock.hpp); the vestigial parallel BB.hpp
// class is not reproduced, per spec.md §9's design notes.
type Block struct {
	BlockName    string
	Instructions []*ir.Instruction
	Preds        []*Block
	Succs        []*Block
}

func NewBlock(name string) *Block {
	return &Block{BlockName: name}
}

// Name satisfies ir.Block.
func (b *Block) Name() string { return b.BlockName }

// Append adds inst to the end of the block's instruction list.
func (b *Block) Append(inst *ir.Instruction) {
	inst.BlockName = b.BlockName
	inst.OwnerBlock = b
	b.Instructions = append(b.Instructions, inst)
}

// PushFront adds inst to the head of the block's instruction list, ahead
// of any existing instructions. Used for phi placement (phis must precede
// every non-phi instruction, per spec.md §3.2).
func (b *Block) PushFront(inst *ir.Instruction) {
	inst.BlockName = b.BlockName
	inst.OwnerBlock = b
	b.Instructions = append([]*ir.Instruction{inst}, b.Instructions...)
}

// Remove deletes inst from the block's instruction list, if present.
func (b *Block) Remove(inst *ir.Instruction) {
	out := b.Instructions[:0]
	for _, i := range b.Instructions {
		if i != inst {
			out = append(out, i)
		}
	}
	b.Instructions = out
}

// Terminator returns the block's last instruction if it is a terminator
// (Jump, BRT, BRF, Return), or nil if the block is empty or its last
// instruction does not end the block.
func (b *Block) Terminator() *ir.Instruction {
	if len(b.Instructions) == 0 {
		return nil
	}
	last := b.Instructions[len(b.Instructions)-1]
	if !last.IsTerminator() {
		return nil
	}
	return last
}

// AddEdge links from as a predecessor of to and to as a successor of
// from, maintaining both directions of the A ∈ pred(B) ⇔ B ∈ succ(A)
// invariant (spec.md §4.2) in one call.
func AddEdge(from, to *Block) {
	from.Succs = append(from.Succs, to)
	to.Preds = append(to.Preds, from)
}
