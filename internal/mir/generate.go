// Package mir's generate.go implements C6: lowering a sealed, out-of-SSA
// CFG to a sequence of MIR blocks, legalizing operand forms and sizing
// the per-function stack frame along the way. Grounded on spec.md
// §4.6's per-kind lowering table and original_source/src/MIR.cpp's
// (now superseded) per-instruction-class emission shape.
package mir

import (
	"strconv"

	"mina/internal/cfg"
	"mina/internal/ir"
)

// CallingConvention selects the integer-argument register order used
// for both the Win64 target spec.md names natively and the SysV target
// named in SPEC_FULL's `-cc` flag.
type CallingConvention int

const (
	Win64 CallingConvention = iota
	SysV
)

// win64ParamRegs is the Win64 integer-argument register order; Mina
// caps arity at 4, matching its length exactly.
var win64ParamRegs = []string{"rcx", "rdx", "r8", "r9"}

// sysvParamRegs is the System V AMD64 integer-argument register order.
var sysvParamRegs = []string{"rdi", "rsi", "rdx", "rcx"}

func paramRegsFor(cc CallingConvention) []string {
	if cc == SysV {
		return sysvParamRegs
	}
	return win64ParamRegs
}

// Callable is the minimal view of a declared function/procedure C6
// needs: its entry block and whether it is a Function (so the caller
// knows whether the CFG has a Pop to match every Call).
type Callable struct {
	Name   string
	Entry  *cfg.Block
	IsFunc bool
}

// stringInterner assigns a stable label to each distinct Put string
// literal the first time its text is seen, shared across the whole
// program so identical literals in different functions reuse one label.
type stringInterner struct {
	labels map[string]string
	pool   []StringLiteral
	next   int
}

func newStringInterner() *stringInterner {
	return &stringInterner{labels: make(map[string]string)}
}

func (si *stringInterner) intern(text string) string {
	if label, ok := si.labels[text]; ok {
		return label
	}
	label := "literal" + strconv.Itoa(si.next)
	si.next++
	si.labels[text] = label
	si.pool = append(si.pool, StringLiteral{Label: label, Text: text})
	return label
}

// Generate lowers mainEntry and every declared callable to a Program
// targeting the Win64 calling convention, spec.md §4.6's default.
func Generate(mainEntry *cfg.Block, callables []Callable) (*Program, error) {
	return GenerateCC(mainEntry, callables, Win64)
}

// GenerateCC is Generate parameterized over the target calling
// convention, wired from cmd/minac's `-cc` flag.
func GenerateCC(mainEntry *cfg.Block, callables []Callable, cc CallingConvention) (*Program, error) {
	prog := &Program{}
	strings := newStringInterner()
	regs := paramRegsFor(cc)

	mainFn, err := lowerFunction("main", nil, mainEntry, strings, regs)
	if err != nil {
		return nil, err
	}
	mainFn.IsMain = true
	prog.Functions = append(prog.Functions, mainFn)

	for _, c := range callables {
		params := paramNames(c.Entry)
		fn, err := lowerFunction(c.Name, params, c.Entry, strings, regs)
		if err != nil {
			return nil, err
		}
		prog.Functions = append(prog.Functions, fn)
	}

	prog.Strings = strings.pool
	return prog, nil
}

// paramNames reads the entry block's FuncSignature instruction (always
// first, by construction — see internal/translate.translateCallable) to
// recover the post-rename parameter names in declared order.
func paramNames(entry *cfg.Block) []string {
	if len(entry.Instructions) == 0 || entry.Instructions[0].Kind != ir.FuncSignature {
		return nil
	}
	sig := entry.Instructions[0]
	names := make([]string, 0, len(sig.Operands))
	for _, op := range sig.Operands {
		names = append(names, op.Target)
	}
	return names
}

func lowerFunction(name string, params []string, entry *cfg.Block, strings *stringInterner, regs []string) (*Function, error) {
	order := Linearize(entry)
	frame := newStackFrame()
	collectNames(order, frame)

	fn := &Function{Name: name, Params: params}
	for _, b := range order {
		mb := NewBlock(b.Name())
		for _, inst := range b.Instructions {
			if err := lowerInstr(inst, frame, strings, mb, regs); err != nil {
				return nil, err
			}
		}
		fn.Blocks = append(fn.Blocks, mb)
	}
	fn.FrameSize = frame.frameSize()
	return fn, nil
}

// vreg is the virtual-register operand for a post-rename SSA name's
// stack slot: every non-array scalar lives at a fixed rbp-relative
// offset for the function's whole body (spec.md never requires actual
// register allocation — that is the external allocator's job).
func vreg(name string, frame *stackFrame) Operand {
	return Mem("rbp", frame.slotFor(name))
}

// operand resolves an IR value (constant or a previously defined
// instruction) to its MIR operand form.
func operand(inst *ir.Instruction, frame *stackFrame) Operand {
	switch inst.Kind {
	case ir.IntConst:
		return Const(inst.IntValue)
	case ir.BoolConst:
		if inst.BoolValue {
			return Const(1)
		}
		return Const(0)
	default:
		return vreg(inst.Target, frame)
	}
}

// loweredAllocaOrSlot pre-sizes frame for inst without emitting any MIR;
// called once per instruction before lowering begins so forward array
// accesses within the same block (impossible in practice, since Alloca
// always precedes use, but cheap to make order-independent) still find
// a sized slot.
func loweredAllocaOrSlot(inst *ir.Instruction, frame *stackFrame) {
	if inst.Kind == ir.Alloca {
		frame.allocaFor(inst.BaseName, inst.ArraySize)
		return
	}
	if inst.Target != "" {
		frame.slotFor(inst.Target)
	}
}

func lowerInstr(inst *ir.Instruction, frame *stackFrame, strings *stringInterner, mb *Block, regs []string) error {
	switch inst.Kind {
	case ir.IntConst, ir.BoolConst, ir.StrConst, ir.Undef, ir.Noop, ir.Alloca:
		// Constants are inline operands, never lowered on their own.
		// Alloca only reserves frame space, handled by collectNames.
		return nil

	case ir.Assign:
		legalizeMov(mb, vreg(inst.Target, frame), operand(inst.Operands[0], frame))

	case ir.Add, ir.Sub, ir.Mul:
		op := map[ir.Kind]OpKind{ir.Add: Add, ir.Sub: Sub, ir.Mul: Mul}[inst.Kind]
		dst := vreg(inst.Target, frame)
		legalizeMov(mb, dst, operand(inst.Operands[0], frame))
		mb.Emit(Instr{Op: Mov, Dst: Reg("rdx"), Src: operand(inst.Operands[1], frame)})
		mb.Emit(Instr{Op: op, Dst: dst, Src: Reg("rdx")})

	case ir.Div:
		// Spill the divisor to scratch before loading rax/rdx: idiv's
		// source can't be an immediate, and legalizeMov's own mem-to-mem
		// scratch use of rax would otherwise clobber the dividend.
		divisorSlot := Mem("rbp", frame.slotFor(".divtmp"))
		legalizeMov(mb, divisorSlot, operand(inst.Operands[1], frame))
		mb.Emit(Instr{Op: Mov, Dst: Reg("rax"), Src: operand(inst.Operands[0], frame)})
		mb.Emit(Instr{Op: Cqo})
		mb.Emit(Instr{Op: Div, Src: divisorSlot})
		mb.Emit(Instr{Op: Mov, Dst: vreg(inst.Target, frame), Src: Reg("rax")})

	case ir.Not:
		dst := vreg(inst.Target, frame)
		legalizeMov(mb, dst, operand(inst.Operands[0], frame))
		mb.Emit(Instr{Op: Not, Dst: dst})

	case ir.And, ir.Or:
		op := Add
		if inst.Kind == ir.And {
			op = And
		} else {
			op = Or
		}
		dst := vreg(inst.Target, frame)
		legalizeMov(mb, dst, operand(inst.Operands[0], frame))
		mb.Emit(Instr{Op: op, Dst: dst, Src: operand(inst.Operands[1], frame)})

	case ir.CmpEq, ir.CmpNE, ir.CmpLT, ir.CmpLTE, ir.CmpGT, ir.CmpGTE:
		setOp := map[ir.Kind]OpKind{
			ir.CmpEq: Sete, ir.CmpNE: Setne, ir.CmpLT: Setl,
			ir.CmpLTE: Setle, ir.CmpGT: Setg, ir.CmpGTE: Setge,
		}[inst.Kind]
		legalizeCmp(mb, operand(inst.Operands[0], frame), operand(inst.Operands[1], frame))
		dst := vreg(inst.Target, frame)
		mb.Emit(Instr{Op: setOp, Dst: dst})
		mb.Emit(Instr{Op: Movzx, Dst: dst, Src: dst})

	case ir.ArrAccess:
		addr := resolveArrayAddress(inst.BaseName, inst.Operands[1], frame, mb)
		legalizeMov(mb, vreg(inst.Target, frame), addr)

	case ir.ArrUpdate:
		addr := resolveArrayAddress(inst.BaseName, inst.Operands[1], frame, mb)
		legalizeMov(mb, addr, operand(inst.Operands[2], frame))

	case ir.Jump:
		mb.Emit(Instr{Op: Jmp, Target: inst.Succ})

	case ir.BRT, ir.BRF:
		// BRT takes Succ when cond is nonzero (true), falling through to
		// Fail otherwise; BRF takes Succ when cond is zero (false).
		cond := operand(inst.Operands[0], frame)
		mb.Emit(Instr{Op: Test, Dst: cond, Src: cond})
		if inst.Kind == ir.BRT {
			mb.Emit(Instr{Op: Jnz, Target: inst.Succ})
		} else {
			mb.Emit(Instr{Op: Jz, Target: inst.Succ})
		}
		mb.Emit(Instr{Op: Jmp, Target: inst.Fail})

	case ir.Put:
		lowerPut(inst, frame, strings, mb)

	case ir.Get:
		slot := Mem("rbp", frame.slotFor(inst.Target))
		mb.Emit(Instr{Op: Lea, Dst: Reg("rcx"), Src: MemLabel("fmt_str")})
		mb.Emit(Instr{Op: Lea, Dst: Reg("rdx"), Src: slot})
		mb.Emit(Instr{Op: Call, Target: "scanf"})
		legalizeMov(mb, vreg(inst.Target, frame), slot)

	case ir.Push:
		// Paired with the following Return; the value is already in
		// place as Return's operand, so Push itself is a bookkeeping
		// no-op at the MIR level (there is no separate call frame slot
		// for it beyond the rax handoff Return performs).
		return nil

	case ir.Return:
		if len(inst.Operands) > 0 {
			mb.Emit(Instr{Op: Mov, Dst: Reg("rax"), Src: operand(inst.Operands[0], frame)})
		}
		mb.Emit(Instr{Op: Ret})

	case ir.FuncSignature:
		for i, param := range inst.Operands {
			if i >= len(regs) {
				break
			}
			mb.Emit(Instr{Op: Mov, Dst: vreg(param.Target, frame), Src: Reg(regs[i])})
		}

	case ir.Call:
		for i, arg := range inst.Operands {
			if i >= len(regs) {
				break
			}
			mb.Emit(Instr{Op: Mov, Dst: Reg(regs[i]), Src: operand(arg, frame)})
		}
		mb.Emit(Instr{Op: Call, Target: inst.Callee})

	case ir.Pop:
		mb.Emit(Instr{Op: Mov, Dst: vreg(inst.Target, frame), Src: Reg("rax")})

	default:
		return unsupportedKind(inst.Kind)
	}
	return nil
}

func lowerPut(inst *ir.Instruction, frame *stackFrame, strings *stringInterner, mb *Block) {
	arg := inst.Operands[0]
	switch arg.Kind {
	case ir.StrConst:
		if arg.StrValue == "\n" {
			mb.Emit(Instr{Op: Lea, Dst: Reg("rcx"), Src: MemLabel("newline_str")})
			mb.Emit(Instr{Op: Call, Target: "printf"})
			return
		}
		label := strings.intern(arg.StrValue)
		mb.Emit(Instr{Op: Lea, Dst: Reg("rcx"), Src: MemLabel(label)})
		mb.Emit(Instr{Op: Call, Target: "printf"})
	case ir.BoolConst:
		label := "false_str"
		val := int64(0)
		if arg.BoolValue {
			label, val = "true_str", 1
		}
		mb.Emit(Instr{Op: Lea, Dst: Reg("rcx"), Src: MemLabel(label)})
		mb.Emit(Instr{Op: Mov, Dst: Reg("rdx"), Src: Const(val)})
		mb.Emit(Instr{Op: Call, Target: "printf"})
	default:
		mb.Emit(Instr{Op: Lea, Dst: Reg("rcx"), Src: MemLabel("fmt_str")})
		mb.Emit(Instr{Op: Mov, Dst: Reg("rdx"), Src: operand(arg, frame)})
		mb.Emit(Instr{Op: Call, Target: "printf"})
	}
}

// resolveArrayAddress rematerializes arr[idx]'s address into rdx rather
// than holding it live across a call (spec.md §4.6): a constant index
// folds into the element's fixed displacement; a variable index is
// scaled and subtracted from the array's base address at the point of
// use.
func resolveArrayAddress(arr string, idx *ir.Instruction, frame *stackFrame, mb *Block) Operand {
	if idx.Kind == ir.IntConst {
		off := frame.elementOffset(arr, int(idx.IntValue))
		return Mem("rbp", off)
	}

	// Scale the index into rax, compute element 0's address into rdx,
	// then subtract: element i sits at base - i*8 (elements grow deeper
	// as the index grows, matching elementOffset's constant-index form).
	// rdx, not rax, holds the final address so legalizeMov's own
	// mem-to-mem scratch use of rax can't clobber it.
	slot := frame.arrays[arr]
	mb.Emit(Instr{Op: Mov, Dst: Reg("rax"), Src: operand(idx, frame)})
	mb.Emit(Instr{Op: Mul, Dst: Reg("rax"), Src: Const(8)})
	mb.Emit(Instr{Op: Lea, Dst: Reg("rdx"), Src: Mem("rbp", slot.base)})
	mb.Emit(Instr{Op: Sub, Dst: Reg("rdx"), Src: Reg("rax")})
	return Operand{Kind: OperandMemory, Base: "rdx", Disp: 0}
}

type unsupportedKindError struct{ kind ir.Kind }

func (e unsupportedKindError) Error() string {
	return "mir: no lowering rule for IR kind " + e.kind.String()
}

func unsupportedKind(k ir.Kind) error { return unsupportedKindError{kind: k} }
