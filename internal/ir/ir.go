// Package ir defines the SSA IR value model: a single tagged instruction
// type shared by every kind, rather than a polymorphic class hierarchy.
package ir

// Kind is the closed set of IR instruction tags.
type Kind int

const (
	IntConst Kind = iota
	BoolConst
	StrConst
	Ident
	Add
	Sub
	Mul
	Div
	Not
	And
	Or
	Alloca
	ArrAccess
	ArrUpdate
	Assign
	CmpEq
	CmpNE
	CmpLT
	CmpLTE
	CmpGT
	CmpGTE
	Jump
	BRT
	BRF
	Put
	Get
	Push
	Pop
	Return
	FuncSignature
	Call
	Phi
	Undef
	Noop
)

func (k Kind) String() string {
	switch k {
	case IntConst:
		return "IntConst"
	case BoolConst:
		return "BoolConst"
	case StrConst:
		return "StrConst"
	case Ident:
		return "Ident"
	case Add:
		return "Add"
	case Sub:
		return "Sub"
	case Mul:
		return "Mul"
	case Div:
		return "Div"
	case Not:
		return "Not"
	case And:
		return "And"
	case Or:
		return "Or"
	case Alloca:
		return "Alloca"
	case ArrAccess:
		return "ArrAccess"
	case ArrUpdate:
		return "ArrUpdate"
	case Assign:
		return "Assign"
	case CmpEq:
		return "CmpEq"
	case CmpNE:
		return "CmpNE"
	case CmpLT:
		return "CmpLT"
	case CmpLTE:
		return "CmpLTE"
	case CmpGT:
		return "CmpGT"
	case CmpGTE:
		return "CmpGTE"
	case Jump:
		return "Jump"
	case BRT:
		return "BRT"
	case BRF:
		return "BRF"
	case Put:
		return "Put"
	case Get:
		return "Get"
	case Push:
		return "Push"
	case Pop:
		return "Pop"
	case Return:
		return "Return"
	case FuncSignature:
		return "FuncSignature"
	case Call:
		return "Call"
	case Phi:
		return "Phi"
	case Undef:
		return "Undef"
	case Noop:
		return "Noop"
	default:
		return "Unknown"
	}
}

// nonRenameable holds the kinds out-of-SSA (C5) must never rewrite: they
// carry no SSA name of their own, or are control transfers whose operands
// are block references rather than values.
var nonRenameable = map[Kind]bool{
	IntConst: true,
	BoolConst: true,
	StrConst: true,
	Jump: true,
	BRT: true,
	BRF: true,
}

// Block is the subset of *cfg.Block that ir needs; cfg imports ir for
// Instruction, so the back-reference is declared as an interface here to
// avoid an import cycle. cfg.Block satisfies it.
type Block interface {
	Name() string
}

// Instruction is the single tagged IR value. Every kind shares this shape;
// kind-specific data (the array name for Alloca, the callee for Call, the
// comparison direction already folded into Kind) lives in the fields below
// rather than in per-kind subtypes.
type Instruction struct {
	Kind Kind

	// Target is this instruction's own SSA name, carried as a plain
	// string ("x.0", "t3.1", ...). Constants, control-flow kinds and
	// Call leave it empty. It is not an independent value users point
	// back into — it never appears in the user/operand graph as a
	// distinct node.
	Target string

	// IntValue / BoolValue / StrValue hold literal payloads for
	// IntConst / BoolConst / StrConst respectively.
	IntValue  int64
	BoolValue bool
	StrValue  string

	// Operands is the ordered list of instructions this one reads.
	// Phi operand i corresponds to the containing block's predecessor i.
	Operands []*Instruction

	// Users is the back-reference list: every instruction that has
	// this one somewhere in its Operands. Maintained by SetupDefUse
	// and by any later operand mutation (ReplaceOperand).
	Users []*Instruction

	// BlockName names the owning basic block, for printing.
	BlockName string

	// OwnerBlock is the owning block, typed as the minimal Block
	// interface to avoid an ir<->cfg import cycle (cfg imports ir for
	// Instruction). *cfg.Block satisfies this via its Name method.
	// Set by cfg.Block.Append/PushFront; used by internal/ssa to
	// resolve a phi user's block during trivial-phi recursion.
	OwnerBlock Block

	// Renameable is false for constants, strings, and jumps/branches;
	// out-of-SSA (C5) skips rewriting non-renameable operands.
	Renameable bool

	// Callee names the target function/procedure for Call.
	Callee string

	// BaseName carries the declared variable/array name an Assign,
	// Alloca, ArrAccess, ArrUpdate, or Get instruction is defining or
	// reading, distinct from Target which is the SSA-qualified name.
	BaseName string

	// ArraySize is the element count for Alloca.
	ArraySize int

	// Succ/Fail name the two branch targets for BRT/BRF, and the sole
	// target for Jump; block names, emitted by C6 as jump labels.
	Succ string
	Fail string

	// IsFunc distinguishes a Call with a return value (function) from
	// one without (procedure); mirrors spec.md §4.1's Call contract.
	IsFunc bool
}

// New builds an instruction of the given kind with Renameable inferred
// from the kind's default (constants and control transfers are not
// renameable; everything else is unless overridden by the caller).
func New(kind Kind, blockName string) *Instruction {
	return &Instruction{
		Kind:       kind,
		BlockName:  blockName,
		Renameable: !nonRenameable[kind],
	}
}

// SetupDefUse publishes this instruction to each of its operands' user
// lists. Idempotent: calling it twice does not duplicate entries.
func (inst *Instruction) SetupDefUse() {
	for _, op := range inst.Operands {
		op.addUser(inst)
	}
}

func (inst *Instruction) addUser(user *Instruction) {
	for _, u := range inst.Users {
		if u == user {
			return
		}
	}
	inst.Users = append(inst.Users, user)
}

// AppendOperand adds an operand and publishes the def/use edge. Used by
// Phi construction, where operands accrue one predecessor at a time.
func (inst *Instruction) AppendOperand(op *Instruction) {
	inst.Operands = append(inst.Operands, op)
	op.addUser(inst)
}

// ReplaceOperand rewrites every occurrence of old in inst's operand list
// with replacement, updating both user lists. Used by trivial-phi removal
// and by out-of-SSA's operand rewrite.
func (inst *Instruction) ReplaceOperand(old, replacement *Instruction) {
	replaced := false
	for i, op := range inst.Operands {
		if op == old {
			inst.Operands[i] = replacement
			replaced = true
		}
	}
	if !replaced {
		return
	}
	old.removeUser(inst)
	replacement.addUser(inst)
}

func (inst *Instruction) removeUser(user *Instruction) {
	out := inst.Users[:0]
	for _, u := range inst.Users {
		if u != user {
			out = append(out, u)
		}
	}
	inst.Users = out
}

// IsPhi reports whether this instruction is a Phi node.
func (inst *Instruction) IsPhi() bool { return inst.Kind == Phi }

// IsTerminator reports whether this instruction can end a basic block.
func (inst *Instruction) IsTerminator() bool {
	switch inst.Kind {
	case Jump, BRT, BRF, Return:
		return true
	default:
		return false
	}
}
