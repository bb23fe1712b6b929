package mir

// legalizeMov emits a dst ← src move, funneling the transfer through rax
// whenever both operands would otherwise address memory: x86-64 has no
// mem-to-mem move form. A physical-register destination (mirroring a
// Win64 argument register, say) always gets away with a single mov.
func legalizeMov(mb *Block, dst, src Operand) {
	if dst.IsMemory() && src.IsMemory() {
		mb.Emit(Instr{Op: Mov, Dst: Reg("rax"), Src: src})
		mb.Emit(Instr{Op: Mov, Dst: dst, Src: Reg("rax")})
		return
	}
	mb.Emit(Instr{Op: Mov, Dst: dst, Src: src})
}

// legalizeCmp emits a cmp a, b, funneling both operands through rax/rdx
// first: spec.md §4.6's Cmp* rows always compare two register values,
// never a direct mem-mem pair.
func legalizeCmp(mb *Block, a, b Operand) {
	mb.Emit(Instr{Op: Mov, Dst: Reg("rax"), Src: a})
	mb.Emit(Instr{Op: Mov, Dst: Reg("rdx"), Src: b})
	mb.Emit(Instr{Op: Cmp, Dst: Reg("rax"), Src: Reg("rdx")})
}
