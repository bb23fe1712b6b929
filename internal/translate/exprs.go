package translate

import (
	"mina/internal/ast"
	"mina/internal/ir"
	"mina/internal/minaerr"
)

func (t *Translator) VisitIntLit(n *ast.IntLit) interface{} {
	return &ir.Instruction{Kind: ir.IntConst, IntValue: n.Value}
}

func (t *Translator) VisitBoolLit(n *ast.BoolLit) interface{} {
	return &ir.Instruction{Kind: ir.BoolConst, BoolValue: n.Value}
}

func (t *Translator) VisitStringLit(n *ast.StringLit) interface{} {
	return &ir.Instruction{Kind: ir.StrConst, StrValue: n.Value}
}

func (t *Translator) VisitIdent(n *ast.Ident) interface{} {
	return t.builder.ReadVariable(n.Name, t.current)
}

func (t *Translator) VisitArrayAccess(n *ast.ArrayAccess) interface{} {
	arrIdent, ok := n.Array.(*ast.Ident)
	if !ok {
		t.lowerErr("array access target must be a simple identifier")
		return nil
	}
	arrVal := t.builder.ReadVariable(arrIdent.Name, t.current)
	idx, err := t.evalExpr(n.Index)
	if err != nil {
		t.fail(err)
		return nil
	}
	inst := ir.New(ir.ArrAccess, t.current.BlockName)
	inst.Target = t.builder.BaseNameToSSA(t.nextTemp())
	inst.BaseName = arrIdent.Name
	inst.AppendOperand(arrVal)
	inst.AppendOperand(idx)
	t.current.Append(inst)
	return inst
}

var binaryKinds = map[ast.BinaryOp]ir.Kind{
	ast.OpAdd: ir.Add,
	ast.OpSub: ir.Sub,
	ast.OpMul: ir.Mul,
	ast.OpDiv: ir.Div,
	ast.OpAnd: ir.And,
	ast.OpOr:  ir.Or,
	ast.OpEq:  ir.CmpEq,
	ast.OpNE:  ir.CmpNE,
	ast.OpLT:  ir.CmpLT,
	ast.OpLE:  ir.CmpLTE,
	ast.OpGT:  ir.CmpGT,
	ast.OpGE:  ir.CmpGTE,
}

func (t *Translator) VisitBinary(n *ast.Binary) interface{} {
	left, err := t.evalExpr(n.Left)
	if err != nil {
		t.fail(err)
		return nil
	}
	right, err := t.evalExpr(n.Right)
	if err != nil {
		t.fail(err)
		return nil
	}
	kind, ok := binaryKinds[n.Op]
	if !ok {
		t.lowerErr("unknown binary operator " + string(n.Op))
		return nil
	}
	inst := ir.New(kind, t.current.BlockName)
	inst.Target = t.builder.BaseNameToSSA(t.nextTemp())
	inst.AppendOperand(left)
	inst.AppendOperand(right)
	t.current.Append(inst)
	return inst
}

// VisitUnary lowers `-e` as IntConst(-1) * e (spec.md §4.4's table: unary
// negation is implemented via Mul rather than its own IR kind) and `~e`
// (boolean not) to the dedicated Not kind.
func (t *Translator) VisitUnary(n *ast.Unary) interface{} {
	operand, err := t.evalExpr(n.Operand)
	if err != nil {
		t.fail(err)
		return nil
	}
	switch n.Op {
	case ast.UnaryNeg:
		negOne := &ir.Instruction{Kind: ir.IntConst, IntValue: -1}
		inst := ir.New(ir.Mul, t.current.BlockName)
		inst.Target = t.builder.BaseNameToSSA(t.nextTemp())
		inst.AppendOperand(negOne)
		inst.AppendOperand(operand)
		t.current.Append(inst)
		return inst
	case ast.UnaryNot:
		inst := ir.New(ir.Not, t.current.BlockName)
		inst.Target = t.builder.BaseNameToSSA(t.nextTemp())
		inst.AppendOperand(operand)
		t.current.Append(inst)
		return inst
	default:
		t.lowerErr("unknown unary operator " + string(n.Op))
		return nil
	}
}

func (t *Translator) VisitCall(n *ast.Call) interface{} {
	inst, err := t.evalCall(n)
	if err != nil {
		t.fail(err)
		return nil
	}
	return inst
}

func (t *Translator) evalCall(call *ast.Call) (*ir.Instruction, error) {
	info, ok := t.funcs[call.Callee]
	if !ok {
		return nil, minaerr.NewLowerError("call to unknown function or procedure: " + call.Callee)
	}

	args := make([]*ir.Instruction, 0, len(call.Args))
	for _, a := range call.Args {
		v, err := t.evalExpr(a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	callInst := ir.New(ir.Call, t.current.BlockName)
	callInst.Callee = call.Callee
	callInst.IsFunc = info.isFunc
	for _, a := range args {
		callInst.AppendOperand(a)
	}
	t.current.Append(callInst)

	if !info.isFunc {
		return callInst, nil
	}

	pop := ir.New(ir.Pop, t.current.BlockName)
	pop.Target = t.builder.BaseNameToSSA(t.nextTemp())
	pop.AppendOperand(callInst)
	t.current.Append(pop)
	return pop, nil
}
