package translate

import (
	"testing"

	"mina/internal/cfg"
	"mina/internal/ir"
	"mina/internal/lexer"
	"mina/internal/parser"
)

func mustTranslate(t *testing.T, src string) *cfg.Block {
	t.Helper()
	toks, err := lexer.NewScanner("test.mina", src).ScanTokens()
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	prog, err := parser.NewParser("test.mina", toks).Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	entry, err := New("test.mina", "session-1").Translate(prog)
	if err != nil {
		t.Fatalf("translate error: %v", err)
	}
	return entry
}

// allBlocks walks the CFG reachable from entry, breadth-first, the same
// way internal/outofssa does, so tests can assert over the whole program.
func allBlocks(entry *cfg.Block) []*cfg.Block {
	var order []*cfg.Block
	visited := map[*cfg.Block]bool{entry: true}
	queue := []*cfg.Block{entry}
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		order = append(order, b)
		for _, s := range b.Succs {
			if !visited[s] {
				visited[s] = true
				queue = append(queue, s)
			}
		}
	}
	return order
}

func TestTranslateStraightLineAssignments(t *testing.T) {
	entry := mustTranslate(t, `{
		var x : integer;
		x := 1;
		x := x + 2;
	}`)

	var adds int
	for _, inst := range entry.Instructions {
		if inst.Kind == ir.Add {
			adds++
		}
	}
	if adds != 1 {
		t.Fatalf("expected exactly one Add instruction, got %d", adds)
	}
	if entry.Terminator() == nil || entry.Terminator().Kind != ir.Return {
		t.Fatalf("expected a synthetic Return terminator, got %v", entry.Terminator())
	}
}

func TestTranslateIfProducesFourBlocks(t *testing.T) {
	entry := mustTranslate(t, `{
		var x : integer;
		x := 1;
		if x > 0 then
			x := 2;
		else
			x := 3;
		end if;
	}`)

	blocks := allBlocks(entry)
	var names []string
	for _, b := range blocks {
		names = append(names, b.BlockName)
	}
	want := map[string]bool{"ifExprBlock_1": false, "thenBlock_1": false, "elseBlock_1": false, "mergeBlock_1": false}
	for _, name := range names {
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("expected a block named %q, reachable blocks were %v", name, names)
		}
	}
}

func TestTranslateIfMergeHasPhiForReassignedVariable(t *testing.T) {
	entry := mustTranslate(t, `{
		var x : integer;
		x := 0;
		if x = 0 then
			x := 1;
		else
			x := 2;
		end if;
		put(x);
	}`)

	var merge *cfg.Block
	for _, b := range allBlocks(entry) {
		if b.BlockName == "mergeBlock_1" {
			merge = b
		}
	}
	if merge == nil {
		t.Fatalf("expected a mergeBlock_1")
	}
	foundPhi := false
	for _, inst := range merge.Instructions {
		if inst.IsPhi() {
			foundPhi = true
			if len(inst.Operands) != 2 {
				t.Errorf("expected phi with 2 operands, got %d", len(inst.Operands))
			}
		}
	}
	if !foundPhi {
		t.Errorf("expected a phi merging x from both branches")
	}
}

func TestTranslateRepeatUntilSealsHeaderAfterBackEdge(t *testing.T) {
	entry := mustTranslate(t, `{
		var i : integer;
		i := 0;
		repeat
			i := i + 1;
		until i = 3;
	}`)

	var header *cfg.Block
	for _, b := range allBlocks(entry) {
		if b.BlockName == "repeatUntilBlock_1" {
			header = b
		}
	}
	if header == nil {
		t.Fatalf("expected a repeatUntilBlock_1")
	}
	if len(header.Preds) != 2 {
		t.Fatalf("expected header to have 2 predecessors (entry and its own back edge), got %d", len(header.Preds))
	}
	term := header.Terminator()
	if term == nil || term.Kind != ir.BRF {
		t.Fatalf("expected header to end in a BRF, got %v", term)
	}
}

func TestTranslateLoopWithExit(t *testing.T) {
	entry := mustTranslate(t, `{
		var i : integer;
		i := 0;
		loop
			i := i + 1;
			if i = 5 then
				exit;
			end if;
		end loop;
	}`)

	var exitBlock *cfg.Block
	for _, b := range allBlocks(entry) {
		if b.BlockName == "loopBlock_1_exit" {
			exitBlock = b
		}
	}
	if exitBlock == nil {
		t.Fatalf("expected a loopBlock_1_exit reachable in the CFG")
	}
}

func TestTranslateCallResolvesAgainstHoistedSignature(t *testing.T) {
	entry := mustTranslate(t, `{
		integer func addOne(n : integer) {
			return n + 1;
		};

		var x : integer;
		x := addOne(3);
		put(x);
	}`)

	foundCall := false
	for _, b := range allBlocks(entry) {
		for _, inst := range b.Instructions {
			if inst.Kind == ir.Call && inst.Callee == "addOne" {
				foundCall = true
			}
		}
	}
	if !foundCall {
		t.Fatalf("expected a Call instruction targeting addOne in the CFG")
	}
}

func TestTranslateProcedureCallHasNoPop(t *testing.T) {
	entry := mustTranslate(t, `{
		proc announce() {
			put("hi");
		};

		announce();
	}`)

	var callIdx = -1
	for i, inst := range entry.Instructions {
		if inst.Kind == ir.Call {
			callIdx = i
		}
	}
	if callIdx == -1 {
		t.Fatalf("expected a Call instruction")
	}
	if callIdx+1 < len(entry.Instructions) && entry.Instructions[callIdx+1].Kind == ir.Pop {
		t.Fatalf("expected no Pop after a procedure call")
	}
}

func TestTranslateExitOutsideLoopIsError(t *testing.T) {
	toks, err := lexer.NewScanner("test.mina", "{ exit; }").ScanTokens()
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	prog, perr := parser.NewParser("test.mina", toks).Parse()
	if perr != nil {
		t.Fatalf("expected the parser to accept a bare exit statement, got: %v", perr)
	}
	if _, err := New("test.mina", "session-1").Translate(prog); err == nil {
		t.Fatalf("expected translate to reject exit outside of a loop")
	}
}

func TestTranslateUnaryNegationLowersToMul(t *testing.T) {
	entry := mustTranslate(t, `{
		var x : integer;
		x := -5;
	}`)
	found := false
	for _, inst := range entry.Instructions {
		if inst.Kind == ir.Mul {
			found = true
			if len(inst.Operands) != 2 || inst.Operands[0].Kind != ir.IntConst || inst.Operands[0].IntValue != -1 {
				t.Errorf("expected Mul(-1, operand), got %+v", inst.Operands)
			}
		}
	}
	if !found {
		t.Fatalf("expected unary negation lowered via Mul")
	}
}
