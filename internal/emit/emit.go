// Package emit is the ambient stand-in for the out-of-scope register
// allocator + assembler (C7): it assigns every MIR virtual register a
// fixed stack slot — which internal/mir already did when it built each
// function's stack frame — and renders the final MIR program as Intel-
// syntax x86-64 assembly text. Grounded on spec.md §6.2's exact output
// shape and original_source/src/CodeGen.cpp's prologue/epilogue and
// string-pool-interning conventions.
package emit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"mina/internal/mir"
)

// Render produces the complete assembly listing for prog.
func Render(prog *mir.Program) string {
	var b strings.Builder

	b.WriteString(".intel_syntax noprefix\n")
	b.WriteString(".globl main\n")
	b.WriteString(".section .text\n")
	b.WriteString("fmt_str: .string \"%d\"\n")
	b.WriteString("true_str: .string \"true\"\n")
	b.WriteString("false_str: .string \"false\"\n\n")

	var mainFn *mir.Function
	var rest []*mir.Function
	for _, fn := range prog.Functions {
		if fn.IsMain {
			mainFn = fn
		} else {
			rest = append(rest, fn)
		}
	}

	if mainFn != nil {
		renderFunction(&b, mainFn)
	}
	for _, fn := range rest {
		renderFunction(&b, fn)
	}

	b.WriteString(".section .data\n")
	for _, s := range prog.Strings {
		fmt.Fprintf(&b, "%s: .string %q\n", s.Label, s.Text)
	}
	b.WriteString("newline_str: .string \"\\n\"\n")

	return b.String()
}

func renderFunction(b *strings.Builder, fn *mir.Function) {
	fmt.Fprintf(b, "%s:\n", fn.Name)
	fmt.Fprintf(b, "  # stack frame: %s\n", humanize.Bytes(uint64(fn.FrameSize)))
	b.WriteString("  push rbp\n")
	b.WriteString("  mov rbp, rsp\n")
	fmt.Fprintf(b, "  sub rsp, %d\n", fn.FrameSize)

	for _, block := range fn.Blocks {
		fmt.Fprintf(b, "%s:\n", block.Name)
		for _, instr := range block.Instrs {
			if instr.Op == mir.Ret {
				renderEpilogue(b, fn.FrameSize)
				continue
			}
			fmt.Fprintf(b, "  %s\n", renderInstr(instr))
		}
	}
	b.WriteString("\n")
}

// renderEpilogue expands a single Ret occurrence into the full
// add/mov/pop/ret sequence, done at every Return site rather than via a
// shared epilogue block — correct even for functions with multiple
// return statements.
func renderEpilogue(b *strings.Builder, frameSize int) {
	fmt.Fprintf(b, "  add rsp, %d\n", frameSize)
	b.WriteString("  mov rsp, rbp\n")
	b.WriteString("  pop rbp\n")
	b.WriteString("  ret\n")
}

func renderInstr(i mir.Instr) string {
	switch i.Op {
	case mir.Call, mir.Jmp, mir.Jz, mir.Jnz:
		return fmt.Sprintf("%s %s", i.Op, i.Target)
	case mir.Cqo:
		return "cqo"
	case mir.Div:
		return fmt.Sprintf("idiv %s", renderOperand(i.Src))
	case mir.Not, mir.Sete, mir.Setne, mir.Setl, mir.Setle, mir.Setg, mir.Setge:
		return fmt.Sprintf("%s %s", i.Op, renderOperand(i.Dst))
	default:
		return fmt.Sprintf("%s %s, %s", i.Op, renderOperand(i.Dst), renderOperand(i.Src))
	}
}

func renderOperand(op mir.Operand) string {
	switch op.Kind {
	case mir.OperandReg:
		return op.Reg
	case mir.OperandConst:
		return strconv.FormatInt(op.Const, 10)
	case mir.OperandLiteral:
		return op.Text
	case mir.OperandMemory:
		if op.Label != "" {
			return fmt.Sprintf("[rip + %s]", op.Label)
		}
		if op.Disp == 0 {
			return fmt.Sprintf("[%s]", op.Base)
		}
		if op.Disp < 0 {
			return fmt.Sprintf("[%s - %d]", op.Base, -op.Disp)
		}
		return fmt.Sprintf("[%s + %d]", op.Base, op.Disp)
	default:
		return "<invalid-operand>"
	}
}
