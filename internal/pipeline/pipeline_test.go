package pipeline

import (
	"strings"
	"testing"

	"mina/internal/mir"
)

func TestCompileProducesRunnableAssemblyForEachScenario(t *testing.T) {
	sources := []string{
		`{ var x : integer; get(x); put(x, skip) }`,
		`{ var a : integer; a := 2 * (3 + 4); put(a, skip) }`,
		`{ var n : integer; get(n); if n > 0 then put("pos", skip) else put("neg", skip) end if }`,
		`{ var i : integer; i := 0; repeat i := i + 1; put(i, skip) until i >= 3 }`,
		`{ var a[3] : integer; a[0] := 10; a[1] := 20; a[2] := 30; put(a[0] + a[1] + a[2], skip) }`,
		`{ integer func sq(x:integer) = x * x; put(sq(6), skip) }`,
	}

	for i, src := range sources {
		result, err := Compile("scenario.mina", src, mir.Win64)
		if err != nil {
			t.Fatalf("scenario %d: Compile failed: %v", i+1, err)
		}
		if !strings.Contains(result.Asm, "main:") {
			t.Fatalf("scenario %d: expected a main label, got:\n%s", i+1, result.Asm)
		}
		if !strings.Contains(result.Asm, ".intel_syntax noprefix") {
			t.Fatalf("scenario %d: expected the Intel-syntax directive", i+1)
		}
	}
}

func TestCompileSysVUsesSysVArgumentRegisters(t *testing.T) {
	src := `{ integer func sq(x:integer) = x * x; put(sq(6), skip) }`

	result, err := Compile("scenario.mina", src, mir.SysV)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if !strings.Contains(result.Asm, "rdi") {
		t.Fatalf("expected a SysV argument register (rdi) in the lowered call, got:\n%s", result.Asm)
	}
}

func TestCompileReportsParseErrorsRatherThanPanicking(t *testing.T) {
	_, err := Compile("bad.mina", `{ var x : integer x := 1 }`, mir.Win64)
	if err == nil {
		t.Fatalf("expected a parse error for a missing ';'")
	}
}
