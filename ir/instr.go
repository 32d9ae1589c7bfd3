package ir

import "fmt"

// Op enumerates instruction opcodes.
type Op uint8

const (
	// OpAdd is integer addition.
	OpAdd Op = iota
	// OpSub is integer subtraction.
	OpSub
	// OpMul is integer multiplication.
	OpMul
	// OpSDiv is signed integer division.
	OpSDiv
	// OpUDiv is unsigned integer division.
	OpUDiv
	// OpAnd is bitwise and.
	OpAnd
	// OpOr is bitwise or.
	OpOr
	// OpXor is bitwise xor.
	OpXor
	// OpShl is a left shift.
	OpShl
	// OpLShr is a logical right shift.
	OpLShr
	// OpAShr is an arithmetic right shift.
	OpAShr
	// OpFAdd is floating addition.
	OpFAdd
	// OpFSub is floating subtraction.
	OpFSub
	// OpFMul is floating multiplication.
	OpFMul
	// OpFDiv is floating division.
	OpFDiv
	// OpICmp is an integer comparison producing an i1-shaped result.
	OpICmp
	// OpSelect picks between two values by an i1-shaped condition.
	OpSelect
	// OpLoad reads a value through a pointer.
	OpLoad
	// OpStore writes a value through a pointer.
	OpStore
	// OpCall invokes a function by name.
	OpCall
	// OpBitcast reinterprets a value as an equally wide type.
	OpBitcast
	// OpSplat broadcasts a scalar into every lane of a vector.
	OpSplat
)

var opNames = [...]string{
	OpAdd:     "add",
	OpSub:     "sub",
	OpMul:     "mul",
	OpSDiv:    "sdiv",
	OpUDiv:    "udiv",
	OpAnd:     "and",
	OpOr:      "or",
	OpXor:     "xor",
	OpShl:     "shl",
	OpLShr:    "lshr",
	OpAShr:    "ashr",
	OpFAdd:    "fadd",
	OpFSub:    "fsub",
	OpFMul:    "fmul",
	OpFDiv:    "fdiv",
	OpICmp:    "icmp",
	OpSelect:  "select",
	OpLoad:    "load",
	OpStore:   "store",
	OpCall:    "call",
	OpBitcast: "bitcast",
	OpSplat:   "splat",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

// binOpByName maps the two-operand arithmetic mnemonics of the text
// syntax. icmp, select, load, store, call and bitcast have their own
// grammar forms.
var binOpByName = map[string]Op{
	"add":  OpAdd,
	"sub":  OpSub,
	"mul":  OpMul,
	"sdiv": OpSDiv,
	"udiv": OpUDiv,
	"and":  OpAnd,
	"or":   OpOr,
	"xor":  OpXor,
	"shl":  OpShl,
	"lshr": OpLShr,
	"ashr": OpAShr,
	"fadd": OpFAdd,
	"fsub": OpFSub,
	"fmul": OpFMul,
	"fdiv": OpFDiv,
}

// IsBinary reports whether o is a two-operand arithmetic opcode.
func (o Op) IsBinary() bool { return o <= OpFDiv }

// IsFloatOp reports whether o operates on floating values.
func (o Op) IsFloatOp() bool { return o >= OpFAdd && o <= OpFDiv }

// CmpPred is an integer comparison predicate.
type CmpPred uint8

const (
	CmpEQ CmpPred = iota
	CmpNE
	CmpSGT
	CmpSGE
	CmpSLT
	CmpSLE
	CmpUGT
	CmpUGE
	CmpULT
	CmpULE
)

var predNames = [...]string{
	CmpEQ:  "eq",
	CmpNE:  "ne",
	CmpSGT: "sgt",
	CmpSGE: "sge",
	CmpSLT: "slt",
	CmpSLE: "sle",
	CmpUGT: "ugt",
	CmpUGE: "uge",
	CmpULT: "ult",
	CmpULE: "ule",
}

func (p CmpPred) String() string {
	if int(p) < len(predNames) {
		return predNames[p]
	}
	return fmt.Sprintf("CmpPred(%d)", uint8(p))
}

var predByName = map[string]CmpPred{
	"eq": CmpEQ, "ne": CmpNE,
	"sgt": CmpSGT, "sge": CmpSGE, "slt": CmpSLT, "sle": CmpSLE,
	"ugt": CmpUGT, "uge": CmpUGE, "ult": CmpULT, "ule": CmpULE,
}

// PredByName resolves a predicate mnemonic such as "slt".
func PredByName(name string) (CmpPred, bool) {
	p, ok := predByName[name]
	return p, ok
}

// ValueKind discriminates operand forms.
type ValueKind uint8

const (
	// ValConst is an integer immediate.
	ValConst ValueKind = iota
	// ValReg names a virtual register.
	ValReg
	// ValGlobal names a module global; the operand is its address.
	ValGlobal
	// ValUndef is an unspecified value of its type.
	ValUndef
)

// Value is an instruction operand.
type Value struct {
	Kind  ValueKind
	Name  string // register or global name, without the sigil
	Const int64
	Type  Type
}

// ConstOf builds an integer immediate operand.
func ConstOf(t Type, v int64) Value { return Value{Kind: ValConst, Const: v, Type: t} }

// RegOf builds a register operand.
func RegOf(name string, t Type) Value { return Value{Kind: ValReg, Name: name, Type: t} }

// GlobalOf builds an address-of-global operand.
func GlobalOf(name string) Value { return Value{Kind: ValGlobal, Name: name, Type: Ptr} }

// UndefOf builds an undef operand.
func UndefOf(t Type) Value { return Value{Kind: ValUndef, Type: t} }

func (v Value) String() string {
	switch v.Kind {
	case ValConst:
		return fmt.Sprintf("%d", v.Const)
	case ValReg:
		return "%" + v.Name
	case ValGlobal:
		return "@" + v.Name
	case ValUndef:
		return "undef"
	}
	return fmt.Sprintf("Value(%d)", v.Kind)
}

// Instr is a non-terminator instruction.
//
// Type is always the result type: void for store and for calls to void
// functions, i1-shaped for icmp. Operand types live on the operands.
type Instr struct {
	Op     Op
	Result string // destination register; empty when Type is void
	Type   Type
	Pred   CmpPred // OpICmp only
	Callee string  // OpCall only
	Args   []Value
}

// HasResult reports whether the instruction defines a register.
func (in *Instr) HasResult() bool { return in.Result != "" }
