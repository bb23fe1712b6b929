package emit

import (
	"strings"
	"testing"

	"mina/internal/mir"
)

func TestRenderIncludesRequiredHeaderDirectives(t *testing.T) {
	prog := &mir.Program{
		Functions: []*mir.Function{
			{Name: "main", IsMain: true, FrameSize: 32, Blocks: []*mir.Block{
				{Name: "Entry_0", Instrs: []mir.Instr{{Op: mir.Ret}}},
			}},
		},
	}
	out := Render(prog)

	for _, want := range []string{
		".intel_syntax noprefix",
		".globl main",
		".section .text",
		"fmt_str:",
		"true_str:",
		"false_str:",
		"main:",
		"push rbp",
		"mov rbp, rsp",
		"sub rsp, 32",
		"newline_str:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestRenderExpandsEveryRetIntoAFullEpilogue(t *testing.T) {
	prog := &mir.Program{
		Functions: []*mir.Function{
			{Name: "main", IsMain: true, FrameSize: 48, Blocks: []*mir.Block{
				{Name: "b0", Instrs: []mir.Instr{{Op: mir.Ret}}},
				{Name: "b1", Instrs: []mir.Instr{{Op: mir.Ret}}},
			}},
		},
	}
	out := Render(prog)

	if got := strings.Count(out, "pop rbp"); got != 2 {
		t.Fatalf("expected 2 expanded epilogues (one per Ret), got %d", got)
	}
	if got := strings.Count(out, "add rsp, 48"); got != 2 {
		t.Fatalf("expected the frame-size decrement to match the increment at each epilogue, got %d occurrences", got)
	}
}

func TestRenderMemoryOperandsUseIntelBracketSyntax(t *testing.T) {
	prog := &mir.Program{
		Functions: []*mir.Function{
			{Name: "main", IsMain: true, FrameSize: 32, Blocks: []*mir.Block{
				{Name: "Entry_0", Instrs: []mir.Instr{
					{Op: mir.Mov, Dst: mir.Mem("rbp", -8), Src: mir.Const(1)},
					{Op: mir.Lea, Dst: mir.Reg("rcx"), Src: mir.MemLabel("fmt_str")},
					{Op: mir.Ret},
				}},
			}},
		},
	}
	out := Render(prog)
	if !strings.Contains(out, "[rbp - 8]") {
		t.Errorf("expected a bracketed negative-displacement operand, got:\n%s", out)
	}
	if !strings.Contains(out, "[rip + fmt_str]") {
		t.Errorf("expected a rip-relative label operand, got:\n%s", out)
	}
}

func TestRenderInternedStringPoolAppearsOnce(t *testing.T) {
	prog := &mir.Program{
		Functions: []*mir.Function{{Name: "main", IsMain: true, Blocks: []*mir.Block{
			{Name: "Entry_0", Instrs: []mir.Instr{{Op: mir.Ret}}},
		}}},
		Strings: []mir.StringLiteral{{Label: "literal0", Text: "hello"}},
	}
	out := Render(prog)
	if strings.Count(out, "literal0:") != 1 {
		t.Fatalf("expected the interned literal to appear exactly once, got:\n%s", out)
	}
}
