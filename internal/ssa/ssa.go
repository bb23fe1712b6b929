// Package ssa implements on-the-fly SSA construction (Braun, Buchwald,
// Hack, Leißa, Mallon, Zwinkau — "Simple and Efficient Construction of
// Static Single Assignment Form"), ported from
// original_source/src/SSA.cpp's writeVariable/readVariable/sealBlock/
// tryRemoveTrivialPhi family.
package ssa

import (
	"mina/internal/cfg"
	"mina/internal/ir"
)

// Builder tracks the bookkeeping on-the-fly SSA construction needs across
// a single function/procedure translation: the latest definition of each
// variable per block, phis still awaiting their operands, and which
// blocks have a final predecessor set.
type Builder struct {
	currentDef     map[*cfg.Block]map[string]*ir.Instruction
	incompletePhis map[*cfg.Block]map[string]*ir.Instruction
	sealedBlocks   map[*cfg.Block]bool
	nameCounter    map[string]int
}

func NewBuilder() *Builder {
	return &Builder{
		currentDef:     make(map[*cfg.Block]map[string]*ir.Instruction),
		incompletePhis: make(map[*cfg.Block]map[string]*ir.Instruction),
		sealedBlocks:   make(map[*cfg.Block]bool),
		nameCounter:    make(map[string]int),
	}
}

// BaseNameToSSA mints the next SSA name for base: "base.0", "base.1", ...
func (b *Builder) BaseNameToSSA(base string) string {
	n, ok := b.nameCounter[base]
	if !ok {
		b.nameCounter[base] = 0
		return base + ".0"
	}
	b.nameCounter[base] = n + 1
	return baseSuffixed(base, n+1)
}

func baseSuffixed(base string, n int) string {
	return base + "." + itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// WriteVariable records inst as the current definition of varName within
// block.
func (b *Builder) WriteVariable(varName string, block *cfg.Block, inst *ir.Instruction) {
	defs, ok := b.currentDef[block]
	if !ok {
		defs = make(map[string]*ir.Instruction)
		b.currentDef[block] = defs
	}
	defs[varName] = inst
}

// ReadVariable returns the SSA value of varName visible at the current
// point of block, resolving across predecessors and lazily inserting
// phis as needed.
func (b *Builder) ReadVariable(varName string, block *cfg.Block) *ir.Instruction {
	if defs, ok := b.currentDef[block]; ok {
		if v, ok := defs[varName]; ok {
			return v
		}
	}
	return b.readVariableRecursive(varName, block)
}

func (b *Builder) readVariableRecursive(varName string, block *cfg.Block) *ir.Instruction {
	if !b.sealedBlocks[block] {
		base := baseName(varName)
		phiName := b.BaseNameToSSA(base)
		phi := ir.New(ir.Phi, block.BlockName)
		phi.Target = phiName
		phi.SetupDefUse()
		block.PushFront(phi)

		phis, ok := b.incompletePhis[block]
		if !ok {
			phis = make(map[string]*ir.Instruction)
			b.incompletePhis[block] = phis
		}
		phis[varName] = phi
		b.WriteVariable(varName, block, phi)
		return phi
	}

	if len(block.Preds) == 1 {
		v := b.ReadVariable(varName, block.Preds[0])
		b.WriteVariable(varName, block, v)
		return v
	}

	base := baseName(varName)
	phiName := b.BaseNameToSSA(base)
	phi := ir.New(ir.Phi, block.BlockName)
	phi.Target = phiName
	phi.SetupDefUse()

	b.WriteVariable(varName, block, phi)
	block.PushFront(phi)
	resolved := b.addPhiOperands(base, block, phi)
	b.WriteVariable(varName, block, resolved)
	return resolved
}

// addPhiOperands reads varName in every predecessor of phi's block, in
// predecessor order, appending each as a phi operand, then attempts
// trivial-phi removal.
func (b *Builder) addPhiOperands(varName string, block *cfg.Block, phi *ir.Instruction) *ir.Instruction {
	for _, pred := range block.Preds {
		val := b.ReadVariable(varName, pred)
		phi.AppendOperand(val)
	}
	return b.TryRemoveTrivialPhi(phi, block)
}

// TryRemoveTrivialPhi collapses phi to its single non-self operand (or an
// Undef instruction, if it is has none), rewriting every user and every
// currentDef entry that pointed at phi, and recurses into phi-users that
// are themselves phis — mirroring SSA.cpp::tryRemoveTrivialPhi exactly.
func (b *Builder) TryRemoveTrivialPhi(phi *ir.Instruction, block *cfg.Block) *ir.Instruction {
	var same *ir.Instruction
	for _, op := range phi.Operands {
		if op == same || op == phi {
			continue
		}
		if same != nil {
			return phi // merges two distinct values - not trivial
		}
		same = op
	}

	if same == nil {
		same = ir.New(ir.Undef, block.BlockName)
	}

	usersWithoutPhi := make([]*ir.Instruction, 0, len(phi.Users))
	for _, u := range phi.Users {
		if u != phi {
			usersWithoutPhi = append(usersWithoutPhi, u)
		}
	}

	for _, user := range usersWithoutPhi {
		user.ReplaceOperand(phi, same)
	}

	for _, defs := range b.currentDef {
		for name, v := range defs {
			if v == phi {
				defs[name] = same
			}
		}
	}

	block.Remove(phi)

	// Recurse over the pre-mutation user set captured above, not phi.Users
	// itself: the replace loop just rewrote every one of those users'
	// operands (via removeUser/addUser), so phi.Users has already been
	// drained down to nothing but phi's own self-reference (excluded from
	// usersWithoutPhi on purpose, since it's about to be deleted) by the
	// time we'd read it here — reading it post-mutation misses every
	// other phi that used to reference phi and, for a self-referential
	// trivial phi, recurses on phi itself forever.
	for _, user := range usersWithoutPhi {
		if user.IsPhi() {
			if userBlock, ok := user.OwnerBlock.(*cfg.Block); ok {
				b.TryRemoveTrivialPhi(user, userBlock)
			}
		}
	}
	return same
}

// SealBlock completes every incomplete phi recorded for block by adding
// their operands, then marks block as sealed. Call once block's
// predecessor set is final.
func (b *Builder) SealBlock(block *cfg.Block) {
	for varName, phi := range b.incompletePhis[block] {
		b.addPhiOperands(baseName(varName), block, phi)
	}
	delete(b.incompletePhis, block)
	b.sealedBlocks[block] = true
}

func (b *Builder) IsSealed(block *cfg.Block) bool { return b.sealedBlocks[block] }

// baseName strips the ".<counter>" SSA suffix, returning everything
// before the first ".". A name with no suffix yet (the first reference to
// a variable before any SSA name has been minted) is its own base name.
func baseName(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			return name[:i]
		}
	}
	return name
}
