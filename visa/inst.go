package visa

import (
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Opcode identifies a virtual ISA instruction.
type Opcode uint8

const (
	// OpMov copies a source into the destination.
	OpMov Opcode = iota
	// OpAdd adds two integer sources.
	OpAdd
	// OpSub subtracts src1 from src0.
	OpSub
	// OpMul multiplies two integer sources.
	OpMul
	// OpDiv divides src0 by src1, signed.
	OpDiv
	// OpDivU divides src0 by src1, unsigned.
	OpDivU
	// OpAnd is bitwise and.
	OpAnd
	// OpOr is bitwise or.
	OpOr
	// OpXor is bitwise xor.
	OpXor
	// OpShl shifts left.
	OpShl
	// OpShr shifts right, zero filling.
	OpShr
	// OpAsr shifts right, sign filling.
	OpAsr
	// OpFAdd adds two float sources.
	OpFAdd
	// OpFSub subtracts floats.
	OpFSub
	// OpFMul multiplies floats.
	OpFMul
	// OpFDiv divides floats.
	OpFDiv
	// OpCmp compares src0 with src1 under Cond, writing a mask.
	OpCmp
	// OpSel picks src1 or src2 lanewise by the src0 mask.
	OpSel
	// OpBcast replicates a scalar source across all lanes.
	OpBcast
	// OpSend issues a memory message. Aux distinguishes reads from
	// writes.
	OpSend
	// OpCall transfers to the function named by Sym.
	OpCall
	// OpRet returns from the current function.
	OpRet
	// OpJmp branches unconditionally to Target.
	OpJmp
	// OpBrc branches to Target when the src0 mask is set.
	OpBrc
	// OpBarrier synchronizes the workgroup.
	OpBarrier
	// OpFence orders outstanding memory messages.
	OpFence
	// OpEOT ends the thread. Every kernel stream finishes with one.
	OpEOT
)

var opcodeNames = [...]string{
	OpMov:     "mov",
	OpAdd:     "add",
	OpSub:     "sub",
	OpMul:     "mul",
	OpDiv:     "div",
	OpDivU:    "divu",
	OpAnd:     "and",
	OpOr:      "or",
	OpXor:     "xor",
	OpShl:     "shl",
	OpShr:     "shr",
	OpAsr:     "asr",
	OpFAdd:    "fadd",
	OpFSub:    "fsub",
	OpFMul:    "fmul",
	OpFDiv:    "fdiv",
	OpCmp:     "cmp",
	OpSel:     "sel",
	OpBcast:   "bcast",
	OpSend:    "send",
	OpCall:    "call",
	OpRet:     "ret",
	OpJmp:     "jmp",
	OpBrc:     "brc",
	OpBarrier: "barrier",
	OpFence:   "fence",
	OpEOT:     "eot",
}

func (o Opcode) String() string {
	if int(o) < len(opcodeNames) {
		return opcodeNames[o]
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// Send aux values for OpSend.
const (
	// SendRead loads from memory into Dst.
	SendRead uint8 = iota
	// SendWrite stores src1 to the address in src0.
	SendWrite
)

// Comparison aux values for OpCmp. The U forms compare unsigned.
const (
	CondEQ uint8 = iota
	CondNE
	CondLT
	CondLE
	CondGT
	CondGE
	CondLTU
	CondLEU
	CondGTU
	CondGEU
)

var condNames = [...]string{
	CondEQ:  "eq",
	CondNE:  "ne",
	CondLT:  "lt",
	CondLE:  "le",
	CondGT:  "gt",
	CondGE:  "ge",
	CondLTU: "ltu",
	CondLEU: "leu",
	CondGTU: "gtu",
	CondGEU: "geu",
}

// CondName renders a comparison aux value for listings.
func CondName(c uint8) string {
	if int(c) < len(condNames) {
		return condNames[c]
	}
	return fmt.Sprintf("cond(%d)", c)
}

// OperandKind tags an instruction operand.
type OperandKind uint8

const (
	// OperandNull is an absent operand slot.
	OperandNull OperandKind = iota
	// OperandReg names a virtual register by declaration ID.
	OperandReg
	// OperandImm is an immediate value.
	OperandImm
)

// Operand is one instruction operand.
type Operand struct {
	Kind OperandKind
	Reg  uint32
	Imm  int64
}

// Null returns the absent operand.
func Null() Operand { return Operand{} }

// Reg makes a register operand for declaration id.
func Reg(id uint32) Operand { return Operand{Kind: OperandReg, Reg: id} }

// Imm makes an immediate operand.
func Imm(v int64) Operand { return Operand{Kind: OperandImm, Imm: v} }

func (o Operand) String() string {
	switch o.Kind {
	case OperandReg:
		return fmt.Sprintf("v%d", o.Reg)
	case OperandImm:
		return fmt.Sprintf("%d", o.Imm)
	default:
		return "null"
	}
}

// Inst is one virtual ISA instruction. Target is an instruction index
// within the stream for OpJmp and OpBrc; Sym names the callee for
// OpCall. Aux carries the comparison condition for OpCmp and the send
// direction for OpSend.
type Inst struct {
	Op       Opcode
	ExecSize uint16
	Aux      uint8
	Dst      Operand
	Srcs     []Operand
	Target   int
	Sym      string
}

// Decl declares one virtual register: its byte size plus the source
// provenance finalization turns into debug records.
type Decl struct {
	ID      uint32
	Name    string
	Bytes   int
	Line    int
	SrcFile string
	Uniform bool
	Const   bool
}

// Builder accumulates one kernel's declarations and instruction
// stream. Branch targets are expressed through labels and resolved to
// instruction indexes by Finish.
type Builder struct {
	name   string
	simd   int
	decls  []Decl
	insts  []Inst
	labels map[string]int
	fixups []fixup
}

type fixup struct {
	inst  int
	label string
}

// NewBuilder starts a kernel named name executing simd lanes per
// instruction. The name is NFC normalized so two spellings of the same
// kernel cannot produce distinct binaries.
func NewBuilder(name string, simd int) *Builder {
	return &Builder{
		name:   norm.NFC.String(name),
		simd:   simd,
		labels: make(map[string]int),
	}
}

// Name returns the normalized kernel name.
func (b *Builder) Name() string { return b.name }

// SIMD returns the execution width.
func (b *Builder) SIMD() int { return b.simd }

// NewDecl declares a virtual register of the given byte size and
// returns its ID.
func (b *Builder) NewDecl(name string, bytes int) uint32 {
	id := uint32(len(b.decls))
	b.decls = append(b.decls, Decl{ID: id, Name: name, Bytes: bytes})
	return id
}

// SetDeclInfo attaches debug provenance to a declaration.
func (b *Builder) SetDeclInfo(id uint32, line int, file string, uniform, constant bool) {
	d := &b.decls[id]
	d.Line = line
	d.SrcFile = file
	d.Uniform = uniform
	d.Const = constant
}

// Decls returns the declarations in ID order.
func (b *Builder) Decls() []Decl { return b.decls }

// Insts returns the instruction stream built so far.
func (b *Builder) Insts() []Inst { return b.insts }

// Emit appends inst and returns its index.
func (b *Builder) Emit(inst Inst) int {
	b.insts = append(b.insts, inst)
	return len(b.insts) - 1
}

// Label marks the next emitted instruction as the target for branches
// naming label.
func (b *Builder) Label(label string) {
	b.labels[label] = len(b.insts)
}

// EmitBranch appends a branch to label, recording a fixup resolved by
// Finish. For OpBrc, cond supplies the predicate mask.
func (b *Builder) EmitBranch(op Opcode, cond Operand, label string) int {
	inst := Inst{Op: op, ExecSize: 1, Target: -1}
	if op == OpBrc {
		inst.Srcs = []Operand{cond}
	}
	idx := b.Emit(inst)
	b.fixups = append(b.fixups, fixup{inst: idx, label: label})
	return idx
}

// Finish resolves branch fixups. A branch to a label that was never
// placed is an error.
func (b *Builder) Finish() error {
	for _, f := range b.fixups {
		target, ok := b.labels[f.label]
		if !ok {
			return fmt.Errorf("kernel %s: branch to unplaced label %q", b.name, f.label)
		}
		b.insts[f.inst].Target = target
	}
	b.fixups = b.fixups[:0]
	return nil
}
