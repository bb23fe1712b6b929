package translate

import (
	"strconv"

	"mina/internal/ast"
	"mina/internal/cfg"
	"mina/internal/ir"
)

func (t *Translator) defaultValue(typ ast.ScalarType) *ir.Instruction {
	if typ == ast.Boolean {
		return &ir.Instruction{Kind: ir.BoolConst, BoolValue: false}
	}
	return &ir.Instruction{Kind: ir.IntConst, IntValue: 0}
}

func (t *Translator) VisitVarDecl(n *ast.VarDecl) interface{} {
	if !n.Type.IsArray {
		ssaName := t.builder.BaseNameToSSA(n.Name)
		inst := ir.New(ir.Assign, t.current.BlockName)
		inst.Target = ssaName
		inst.BaseName = n.Name
		inst.AppendOperand(t.defaultValue(n.Type.Elem))
		t.current.Append(inst)
		t.builder.WriteVariable(n.Name, t.current, inst)
		return nil
	}

	allocaName := t.builder.BaseNameToSSA(n.Name)
	alloca := ir.New(ir.Alloca, t.current.BlockName)
	alloca.Target = allocaName
	alloca.BaseName = n.Name
	alloca.ArraySize = n.Type.Size
	t.current.Append(alloca)
	t.builder.WriteVariable(n.Name, t.current, alloca)

	for i := 0; i < n.Type.Size; i++ {
		arrVal := t.builder.ReadVariable(n.Name, t.current)
		idxConst := &ir.Instruction{Kind: ir.IntConst, IntValue: int64(i)}
		update := ir.New(ir.ArrUpdate, t.current.BlockName)
		update.Target = t.builder.BaseNameToSSA(n.Name)
		update.BaseName = n.Name
		update.AppendOperand(arrVal)
		update.AppendOperand(idxConst)
		update.AppendOperand(t.defaultValue(n.Type.Elem))
		t.current.Append(update)
		t.builder.WriteVariable(n.Name, t.current, update)
	}
	return nil
}

func (t *Translator) VisitAssign(n *ast.Assign) interface{} {
	val, err := t.evalExpr(n.Value)
	if err != nil {
		t.fail(err)
		return nil
	}
	inst := ir.New(ir.Assign, t.current.BlockName)
	inst.Target = t.builder.BaseNameToSSA(n.Name)
	inst.BaseName = n.Name
	inst.AppendOperand(val)
	t.current.Append(inst)
	t.builder.WriteVariable(n.Name, t.current, inst)
	return nil
}

func (t *Translator) VisitArrayAssign(n *ast.ArrayAssign) interface{} {
	arrVal := t.builder.ReadVariable(n.Name, t.current)
	idx, err := t.evalExpr(n.Index)
	if err != nil {
		t.fail(err)
		return nil
	}
	val, err := t.evalExpr(n.Value)
	if err != nil {
		t.fail(err)
		return nil
	}
	inst := ir.New(ir.ArrUpdate, t.current.BlockName)
	inst.Target = t.builder.BaseNameToSSA(n.Name)
	inst.BaseName = n.Name
	inst.AppendOperand(arrVal)
	inst.AppendOperand(idx)
	inst.AppendOperand(val)
	t.current.Append(inst)
	t.builder.WriteVariable(n.Name, t.current, inst)
	return nil
}

// VisitIf lowers structured if/then/else into an ifExprBlock (condition
// evaluation), a then block, an else block, and a merge block, per
// spec.md §3.3's naming convention. Both arms are sealed immediately
// (single predecessor); the merge block is sealed once both arms have
// run and contributed their exit edges.
func (t *Translator) VisitIf(n *ast.If) interface{} {
	t.labelCtr++
	label := strconv.Itoa(t.labelCtr)

	condBlock := cfg.NewBlock("ifExprBlock_" + label)
	jmp := ir.New(ir.Jump, t.current.BlockName)
	jmp.Succ = condBlock.BlockName
	t.current.Append(jmp)
	cfg.AddEdge(t.current, condBlock)
	t.builder.SealBlock(condBlock)
	t.current = condBlock

	cond, err := t.evalExpr(n.Cond)
	if err != nil {
		t.fail(err)
		return nil
	}

	thenBlock := cfg.NewBlock("thenBlock_" + label)
	elseBlock := cfg.NewBlock("elseBlock_" + label)
	mergeBlock := cfg.NewBlock("mergeBlock_" + label)

	brt := ir.New(ir.BRT, t.current.BlockName)
	brt.AppendOperand(cond)
	brt.Succ = thenBlock.BlockName
	brt.Fail = elseBlock.BlockName
	t.current.Append(brt)
	cfg.AddEdge(t.current, thenBlock)
	cfg.AddEdge(t.current, elseBlock)
	t.builder.SealBlock(thenBlock)
	t.builder.SealBlock(elseBlock)

	t.current = thenBlock
	if err := t.execStmts(n.Then); err != nil {
		t.fail(err)
		return nil
	}
	if t.current.Terminator() == nil {
		thenJmp := ir.New(ir.Jump, t.current.BlockName)
		thenJmp.Succ = mergeBlock.BlockName
		t.current.Append(thenJmp)
		cfg.AddEdge(t.current, mergeBlock)
	}

	t.current = elseBlock
	if err := t.execStmts(n.Else); err != nil {
		t.fail(err)
		return nil
	}
	if t.current.Terminator() == nil {
		elseJmp := ir.New(ir.Jump, t.current.BlockName)
		elseJmp.Succ = mergeBlock.BlockName
		t.current.Append(elseJmp)
		cfg.AddEdge(t.current, mergeBlock)
	}

	t.builder.SealBlock(mergeBlock)
	t.current = mergeBlock
	return nil
}

// VisitRepeatUntil lowers `repeat S until c` into a looping header block
// that runs S then evaluates c; the BRF is placed in whatever block S's
// own control flow left current pointing at, and branches back to the
// header when c is false and to an exit block when c is true. The header is sealed only after
// the back edge is known, per spec.md §4.4's sealing discipline.
func (t *Translator) VisitRepeatUntil(n *ast.RepeatUntil) interface{} {
	t.labelCtr++
	label := strconv.Itoa(t.labelCtr)

	header := cfg.NewBlock("repeatUntilBlock_" + label)
	exit := cfg.NewBlock("repeatUntilBlock_" + label + "_exit")

	jmp := ir.New(ir.Jump, t.current.BlockName)
	jmp.Succ = header.BlockName
	t.current.Append(jmp)
	cfg.AddEdge(t.current, header)

	t.current = header
	if err := t.execStmts(n.Body); err != nil {
		t.fail(err)
		return nil
	}

	cond, err := t.evalExpr(n.Cond)
	if err != nil {
		t.fail(err)
		return nil
	}

	brf := ir.New(ir.BRF, t.current.BlockName)
	brf.AppendOperand(cond)
	brf.Succ = header.BlockName
	brf.Fail = exit.BlockName
	t.current.Append(brf)
	cfg.AddEdge(t.current, header)
	cfg.AddEdge(t.current, exit)

	t.builder.SealBlock(header)
	t.builder.SealBlock(exit)
	t.current = exit
	return nil
}

// VisitLoop lowers `loop S end loop`, an unconditional loop whose only
// exit is a nested `exit` statement. The header/exit pair is pushed onto
// loopStack so VisitExit can target the innermost enclosing loop.
func (t *Translator) VisitLoop(n *ast.Loop) interface{} {
	t.labelCtr++
	label := strconv.Itoa(t.labelCtr)

	header := cfg.NewBlock("loopBlock_" + label)
	exit := cfg.NewBlock("loopBlock_" + label + "_exit")

	jmp := ir.New(ir.Jump, t.current.BlockName)
	jmp.Succ = header.BlockName
	t.current.Append(jmp)
	cfg.AddEdge(t.current, header)

	t.current = header
	t.loopStack = append(t.loopStack, loopFrame{header: header, exit: exit})

	if err := t.execStmts(n.Body); err != nil {
		t.loopStack = t.loopStack[:len(t.loopStack)-1]
		t.fail(err)
		return nil
	}
	t.loopStack = t.loopStack[:len(t.loopStack)-1]

	if t.current.Terminator() == nil {
		back := ir.New(ir.Jump, t.current.BlockName)
		back.Succ = header.BlockName
		t.current.Append(back)
		cfg.AddEdge(t.current, header)
	}

	t.builder.SealBlock(header)
	t.builder.SealBlock(exit)
	t.current = exit
	return nil
}

// VisitExit breaks out of the innermost enclosing `loop` (the Open
// Question spec.md §9 asks an implementer to resolve explicitly).
func (t *Translator) VisitExit(n *ast.Exit) interface{} {
	if len(t.loopStack) == 0 {
		t.lowerErr("exit statement outside of a loop")
		return nil
	}
	frame := t.loopStack[len(t.loopStack)-1]
	jmp := ir.New(ir.Jump, t.current.BlockName)
	jmp.Succ = frame.exit.BlockName
	t.current.Append(jmp)
	cfg.AddEdge(t.current, frame.exit)
	return nil
}

func (t *Translator) VisitPut(n *ast.Put) interface{} {
	for _, arg := range n.Args {
		put := ir.New(ir.Put, t.current.BlockName)
		if arg.Skip {
			put.AppendOperand(&ir.Instruction{Kind: ir.StrConst, StrValue: "\n"})
		} else {
			v, err := t.evalExpr(arg.Expr)
			if err != nil {
				t.fail(err)
				return nil
			}
			put.AppendOperand(v)
		}
		t.current.Append(put)
	}
	return nil
}

func (t *Translator) VisitGet(n *ast.Get) interface{} {
	inst := ir.New(ir.Get, t.current.BlockName)
	inst.Target = t.builder.BaseNameToSSA(n.Name)
	inst.BaseName = n.Name
	t.current.Append(inst)
	t.builder.WriteVariable(n.Name, t.current, inst)
	return nil
}

// VisitReturn models the return-value protocol (spec.md §4.1): evaluate
// the value (defaulting to 0 for a bare return, which is how procedures
// "push an implicit 0"), Push it, then Return.
func (t *Translator) VisitReturn(n *ast.Return) interface{} {
	var val *ir.Instruction
	if n.Value != nil {
		if !t.inFunc {
			t.lowerErr("return with a value is only valid inside a function")
			return nil
		}
		v, err := t.evalExpr(n.Value)
		if err != nil {
			t.fail(err)
			return nil
		}
		val = v
	} else {
		val = &ir.Instruction{Kind: ir.IntConst, IntValue: 0}
	}

	push := ir.New(ir.Push, t.current.BlockName)
	push.AppendOperand(val)
	t.current.Append(push)

	ret := ir.New(ir.Return, t.current.BlockName)
	ret.AppendOperand(val)
	t.current.Append(ret)
	return nil
}

func (t *Translator) VisitExprStmt(n *ast.ExprStmt) interface{} {
	if _, err := t.evalExpr(n.Expr); err != nil {
		t.fail(err)
	}
	return nil
}

func (t *Translator) VisitFuncDecl(n *ast.FuncDecl) interface{} {
	t.lowerErr("nested function declarations are not supported")
	return nil
}

func (t *Translator) VisitProcDecl(n *ast.ProcDecl) interface{} {
	t.lowerErr("nested procedure declarations are not supported")
	return nil
}
