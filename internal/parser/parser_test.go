package parser

import (
	"testing"

	"mina/internal/ast"
	"mina/internal/lexer"
)

func parseSrc(t *testing.T, src string) (*ast.Program, error) {
	t.Helper()
	toks, err := lexer.NewScanner("test.mina", src).ScanTokens()
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	return NewParser("test.mina", toks).Parse()
}

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := parseSrc(t, src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return prog
}

func TestParseVarDeclAndAssign(t *testing.T) {
	prog := mustParse(t, `{
		var x : integer;
		x := 1 + 2 * 3
	}`)
	if len(prog.Body) != 2 {
		t.Fatalf("body len = %d, want 2", len(prog.Body))
	}
	decl, ok := prog.Body[0].(*ast.VarDecl)
	if !ok {
		t.Fatalf("stmt 0 = %T, want *ast.VarDecl", prog.Body[0])
	}
	if decl.Name != "x" || decl.Type.Elem != ast.Integer {
		t.Errorf("decl = %+v, want x:integer", decl)
	}
	assign, ok := prog.Body[1].(*ast.Assign)
	if !ok {
		t.Fatalf("stmt 1 = %T, want *ast.Assign", prog.Body[1])
	}
	bin, ok := assign.Value.(*ast.Binary)
	if !ok || bin.Op != ast.OpAdd {
		t.Fatalf("assign value = %+v, want top-level +", assign.Value)
	}
	rhs, ok := bin.Right.(*ast.Binary)
	if !ok || rhs.Op != ast.OpMul {
		t.Fatalf("precedence broken: rhs = %+v, want *", bin.Right)
	}
}

func TestParseArrayDeclAndAccess(t *testing.T) {
	prog := mustParse(t, `{
		var a[3] : integer;
		a[0] := 5;
		var y : integer;
		y := a[0]
	}`)
	decl := prog.Body[0].(*ast.VarDecl)
	if !decl.Type.IsArray || decl.Type.Size != 3 {
		t.Fatalf("array decl = %+v, want size 3 array", decl.Type)
	}
	aa := prog.Body[1].(*ast.ArrayAssign)
	if aa.Name != "a" {
		t.Fatalf("array assign name = %q, want a", aa.Name)
	}
}

func TestParseUndeclaredVariableIsError(t *testing.T) {
	_, err := parseSrc(t, `{ x := 1 }`)
	if err == nil {
		t.Fatal("expected semantic error for undeclared variable, got nil")
	}
}

func TestParseRedeclarationIsError(t *testing.T) {
	_, err := parseSrc(t, `{
		var x : integer;
		var x : boolean
	}`)
	if err == nil {
		t.Fatal("expected semantic error for redeclaration, got nil")
	}
}

func TestParseIfThenElse(t *testing.T) {
	prog := mustParse(t, `{
		var x : integer;
		if x < 10 then
			x := 1
		else
			x := 2
		end if
	}`)
	ifStmt, ok := prog.Body[1].(*ast.If)
	if !ok {
		t.Fatalf("stmt 1 = %T, want *ast.If", prog.Body[1])
	}
	if len(ifStmt.Then) != 1 || len(ifStmt.Else) != 1 {
		t.Fatalf("if branches = %d/%d, want 1/1", len(ifStmt.Then), len(ifStmt.Else))
	}
}

func TestParseLoopAndExit(t *testing.T) {
	prog := mustParse(t, `{
		loop
			exit
		end loop
	}`)
	loop, ok := prog.Body[0].(*ast.Loop)
	if !ok {
		t.Fatalf("stmt 0 = %T, want *ast.Loop", prog.Body[0])
	}
	if _, ok := loop.Body[0].(*ast.Exit); !ok {
		t.Fatalf("loop body 0 = %T, want *ast.Exit", loop.Body[0])
	}
}

func TestParseRepeatUntil(t *testing.T) {
	prog := mustParse(t, `{
		var x : integer;
		repeat
			x := x + 1
		until x = 10
	}`)
	ru, ok := prog.Body[1].(*ast.RepeatUntil)
	if !ok {
		t.Fatalf("stmt 1 = %T, want *ast.RepeatUntil", prog.Body[1])
	}
	if _, ok := ru.Cond.(*ast.Binary); !ok {
		t.Fatalf("repeat cond = %T, want *ast.Binary", ru.Cond)
	}
}

func TestParseFuncDeclExprBody(t *testing.T) {
	prog := mustParse(t, `{
		integer func add(a : integer, b : integer) = a + b
	}`)
	fn, ok := prog.Body[0].(*ast.FuncDecl)
	if !ok {
		t.Fatalf("stmt 0 = %T, want *ast.FuncDecl", prog.Body[0])
	}
	if fn.Name != "add" || len(fn.Params) != 2 {
		t.Fatalf("fn = %+v, want add/2 params", fn)
	}
	if _, ok := fn.Body[0].(*ast.Return); !ok {
		t.Fatalf("fn body = %T, want desugared *ast.Return", fn.Body[0])
	}
}

func TestParseProcDeclAndCall(t *testing.T) {
	prog := mustParse(t, `{
		proc show(x : integer) { put(x, skip) };
		var y : integer;
		y := 1;
		show(y)
	}`)
	if _, ok := prog.Body[0].(*ast.ProcDecl); !ok {
		t.Fatalf("stmt 0 = %T, want *ast.ProcDecl", prog.Body[0])
	}
	callStmt, ok := prog.Body[3].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("stmt 3 = %T, want *ast.ExprStmt", prog.Body[3])
	}
	call, ok := callStmt.Expr.(*ast.Call)
	if !ok || call.Callee != "show" || len(call.Args) != 1 {
		t.Fatalf("call = %+v, want show(1 arg)", callStmt.Expr)
	}
}

func TestParseCallArityMismatchIsError(t *testing.T) {
	_, err := parseSrc(t, `{
		proc show(x : integer) { put(x, skip) };
		show(1, 2)
	}`)
	if err == nil {
		t.Fatal("expected arity error, got nil")
	}
}

func TestParseGetAndPutWithSkip(t *testing.T) {
	prog := mustParse(t, `{
		var x : integer;
		get(x);
		put(x, skip)
	}`)
	get, ok := prog.Body[1].(*ast.Get)
	if !ok || get.Name != "x" {
		t.Fatalf("stmt 1 = %+v, want get(x)", prog.Body[1])
	}
	put, ok := prog.Body[2].(*ast.Put)
	if !ok || len(put.Args) != 2 || !put.Args[1].Skip {
		t.Fatalf("stmt 2 = %+v, want put(x, skip)", prog.Body[2])
	}
}
