// Package translate implements the AST-to-IR translator (C4): a visitor
// over internal/ast that drives internal/ssa's on-the-fly construction,
// placing internal/ir instructions into internal/cfg blocks.
//
// Grounded on the teacher's internal/compiler visitor-over-AST shape
// (compiler.go, hoisting_compiler.go), generalized from "emit bytecode
// into a flat chunk" to "emit SSA IR calling into the SSA builder", with
// hoisting_compiler.go's two-pass collect-then-compile discipline reused
// for the function/procedure registry so forward and mutually recursive
// calls resolve.
package translate

import (
	"strconv"

	"mina/internal/ast"
	"mina/internal/cfg"
	"mina/internal/ir"
	"mina/internal/minaerr"
	"mina/internal/ssa"
)

// funcInfo is what the registry needs to know about a declared function
// or procedure before its body has been translated: its entry block (so
// forward calls can wire a Call instruction before the body exists) and
// its signature.
type funcInfo struct {
	entry  *cfg.Block
	params []ast.Param
	isFunc bool
}

// loopFrame pairs a loop's header with its exit block, so `exit`
// statements can jump to the innermost enclosing loop's exit (the Open
// Question spec.md §9 asks an implementer to resolve).
type loopFrame struct {
	header *cfg.Block
	exit   *cfg.Block
}

// Translator holds all per-compilation-unit state: the SSA builder, the
// function/procedure registry, the current insertion block, and the
// counters that mint temp and block-label names. A fresh Translator is
// used per file; nothing here survives across compilations (spec.md §5).
type Translator struct {
	file      string
	sessionID string

	builder  *ssa.Builder
	funcs    map[string]*funcInfo
	current  *cfg.Block
	tempCtr  int
	labelCtr int

	loopStack []loopFrame
	inFunc    bool

	err error
}

// New creates a translator for file and records sessionID (a
// per-compile-session identifier generated by internal/pipeline; see
// SPEC_FULL §11's google/uuid wiring). The id is stored only; it does
// not appear in diagnostic messages.
func New(file, sessionID string) *Translator {
	return &Translator{
		file:      file,
		sessionID: sessionID,
		builder:   ssa.NewBuilder(),
		funcs:     make(map[string]*funcInfo),
	}
}

// Translate lowers prog to an SSA-form CFG rooted at the returned entry
// block. Function and procedure declarations are hoisted (registered by
// name with a fresh, empty entry block) before any statement is
// translated, so calls — including forward and mutually recursive ones —
// resolve regardless of declaration order.
func (t *Translator) Translate(prog *ast.Program) (*cfg.Block, error) {
	entry := cfg.NewBlock("Entry_0")
	t.current = entry
	t.builder.SealBlock(entry)

	t.hoistSignatures(prog.Body)

	if err := t.execStmts(topLevelNonDecls(prog.Body)); err != nil {
		return nil, err
	}
	if t.current.Terminator() == nil {
		halt := ir.New(ir.Return, t.current.BlockName)
		t.current.Append(halt)
	}

	for _, stmt := range prog.Body {
		switch s := stmt.(type) {
		case *ast.FuncDecl:
			if err := t.translateFunc(s); err != nil {
				return nil, err
			}
		case *ast.ProcDecl:
			if err := t.translateProc(s); err != nil {
				return nil, err
			}
		}
	}

	return entry, nil
}

func topLevelNonDecls(stmts []ast.Stmt) []ast.Stmt {
	var out []ast.Stmt
	for _, s := range stmts {
		switch s.(type) {
		case *ast.FuncDecl, *ast.ProcDecl:
			continue
		default:
			out = append(out, s)
		}
	}
	return out
}

func (t *Translator) hoistSignatures(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.FuncDecl:
			t.funcs[s.Name] = &funcInfo{
				entry:  cfg.NewBlock(s.Name + "_entry"),
				params: s.Params,
				isFunc: true,
			}
		case *ast.ProcDecl:
			t.funcs[s.Name] = &funcInfo{
				entry:  cfg.NewBlock(s.Name + "_entry"),
				params: s.Params,
				isFunc: false,
			}
		}
	}
}

func (t *Translator) translateFunc(fn *ast.FuncDecl) error {
	return t.translateCallable(fn.Name, fn.Body)
}

func (t *Translator) translateProc(proc *ast.ProcDecl) error {
	return t.translateCallable(proc.Name, proc.Body)
}

func (t *Translator) translateCallable(name string, body []ast.Stmt) error {
	info := t.funcs[name]
	savedCurrent, savedLoop, savedInFunc := t.current, t.loopStack, t.inFunc
	savedTempCtr := t.tempCtr

	t.current = info.entry
	t.loopStack = nil
	t.inFunc = info.isFunc
	t.tempCtr = 0
	t.builder.SealBlock(info.entry)

	sig := ir.New(ir.FuncSignature, info.entry.BlockName)
	sig.Callee = name
	for _, param := range info.params {
		ssaName := t.builder.BaseNameToSSA(param.Name)
		paramVal := ir.New(ir.Ident, info.entry.BlockName)
		paramVal.Target = ssaName
		paramVal.BaseName = param.Name
		sig.AppendOperand(paramVal)
		t.builder.WriteVariable(param.Name, info.entry, paramVal)
	}
	info.entry.Append(sig)

	if err := t.execStmts(body); err != nil {
		return err
	}
	if t.current.Terminator() == nil {
		zero := &ir.Instruction{Kind: ir.IntConst}
		push := ir.New(ir.Push, t.current.BlockName)
		push.AppendOperand(zero)
		t.current.Append(push)
		ret := ir.New(ir.Return, t.current.BlockName)
		ret.AppendOperand(zero)
		t.current.Append(ret)
	}

	t.current, t.loopStack, t.inFunc, t.tempCtr = savedCurrent, savedLoop, savedInFunc, savedTempCtr
	return nil
}

// Funcs exposes the function/procedure registry for internal/mir, which
// needs each callable's entry block and declared parameter order to
// lower FuncSignature and Call instructions.
func (t *Translator) Funcs() map[string]Callable {
	out := make(map[string]Callable, len(t.funcs))
	for name, info := range t.funcs {
		out[name] = Callable{Entry: info.entry, Params: info.params, IsFunc: info.isFunc}
	}
	return out
}

// Callable is the public view of funcInfo handed to downstream passes.
type Callable struct {
	Entry  *cfg.Block
	Params []ast.Param
	IsFunc bool
}

// execStmts runs each statement in order, diverting into a fresh
// unreachable block whenever the current block has already acquired a
// terminator (an exit/return statement partway through a body) — this
// keeps "exactly one terminator, always last" true even for source that
// has dead code following a control-transfer statement.
func (t *Translator) execStmts(stmts []ast.Stmt) error {
	for _, s := range stmts {
		if t.current.Terminator() != nil {
			t.labelCtr++
			dead := cfg.NewBlock("deadBlock_" + strconv.Itoa(t.labelCtr))
			t.builder.SealBlock(dead)
			t.current = dead
		}
		if err := t.execStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (t *Translator) execStmt(s ast.Stmt) error {
	t.err = nil
	s.Accept(t)
	return t.err
}

func (t *Translator) evalExpr(e ast.Expr) (*ir.Instruction, error) {
	t.err = nil
	res := e.Accept(t)
	if t.err != nil {
		return nil, t.err
	}
	inst, _ := res.(*ir.Instruction)
	return inst, nil
}

func (t *Translator) nextTemp() string {
	name := "t" + strconv.Itoa(t.tempCtr)
	t.tempCtr++
	return name
}

func (t *Translator) fail(err error) {
	if t.err == nil {
		t.err = err
	}
}

func (t *Translator) lowerErr(msg string) {
	t.fail(minaerr.NewLowerError(msg))
}
