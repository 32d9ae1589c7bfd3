// Package lower turns optimized modules into virtual ISA kernels:
// every kernel function becomes an instruction stream handed to the
// finalizer for register assignment and encoding.
package lower

import (
	"fmt"

	"fortio.org/safecast"

	"vexc/internal/backend"
	"vexc/internal/target"
	"vexc/ir"
	"vexc/visa"
)

// Module lowers and finalizes every kernel of m for the given machine.
// Kernels come back in module order.
func Module(m *ir.Module, mach *target.Machine, cfg *backend.Config) ([]*visa.Kernel, error) {
	fo := visa.ParseFinalizeOptions(cfg.Tunables.FinalizerOpts)
	if cfg.Options.NoOptFinalizer {
		fo.NoSchedule = true
		fo.NoCompaction = true
	}
	grf := mach.CPU.GRFCount
	if cfg.Options.LargeGRFMode {
		grf = mach.CPU.LargeGRFCount
	}
	if limit := cfg.Tunables.GRFPressureLimit; limit > 0 && limit < grf {
		grf = limit
	}
	debug := cfg.Options.DebuggableKernels || cfg.Options.EmitBreakpoints ||
		cfg.Options.EnableDebugInfoDumps

	offsets := globalOffsets(m)
	ptrBytes := mach.PointerSizeBits() / 8

	var kernels []*visa.Kernel
	for _, f := range m.Kernels() {
		b, err := lowerFunc(f, mach.CPU.DefaultSIMD, offsets, ptrBytes)
		if err != nil {
			return nil, err
		}
		k, err := visa.Finalize(b, fo, grf, debug)
		if err != nil {
			return nil, err
		}
		kernels = append(kernels, k)
		cfg.Stats.Counter("lower.kernels", "kernels lowered").Inc()
	}
	return kernels, nil
}

// globalOffsets lays the module's globals out in one flat surface,
// 64-byte aligned, in declaration order. The offsets are what kernels
// materialize when they take a global's address.
func globalOffsets(m *ir.Module) map[string]int64 {
	offsets := make(map[string]int64, len(m.Globals))
	var off int64
	for _, g := range m.Globals {
		offsets[g.Name] = off
		size := int64(typeBytes(g.Type, 8))
		off += (size + 63) / 64 * 64
	}
	return offsets
}

type funcLowering struct {
	b        *visa.Builder
	regs     map[string]uint32
	gaddrs   map[string]uint32
	offsets  map[string]int64
	ptrBytes int
}

func lowerFunc(f *ir.Func, simd int, offsets map[string]int64, ptrBytes int) (*visa.Builder, error) {
	l := &funcLowering{
		b:        visa.NewBuilder(f.Name, simd),
		regs:     make(map[string]uint32),
		gaddrs:   make(map[string]uint32),
		offsets:  offsets,
		ptrBytes: ptrBytes,
	}
	for _, p := range f.Params {
		id := l.b.NewDecl(p.Name, typeBytes(p.Type, ptrBytes))
		l.b.SetDeclInfo(id, 0, "", !p.Type.IsVector(), false)
		l.regs[p.Name] = id
	}
	l.materializeGlobals(f)

	for _, blk := range f.Blocks {
		l.b.Label(blk.Name)
		for i := range blk.Instrs {
			if err := l.lowerInstr(&blk.Instrs[i]); err != nil {
				return nil, fmt.Errorf("kernel %s: %w", f.Name, err)
			}
		}
		l.lowerTerm(&blk.Term)
	}
	return l.b, nil
}

// materializeGlobals emits the prologue that loads each referenced
// global's surface offset into an address register.
func (l *funcLowering) materializeGlobals(f *ir.Func) {
	for _, blk := range f.Blocks {
		for i := range blk.Instrs {
			for _, a := range blk.Instrs[i].Args {
				if a.Kind != ir.ValGlobal {
					continue
				}
				if _, ok := l.gaddrs[a.Name]; ok {
					continue
				}
				id := l.b.NewDecl("addr."+a.Name, l.ptrBytes)
				l.b.SetDeclInfo(id, 0, "", true, true)
				l.b.Emit(visa.Inst{
					Op:       visa.OpMov,
					ExecSize: 1,
					Dst:      visa.Reg(id),
					Srcs:     []visa.Operand{visa.Imm(l.offsets[a.Name])},
				})
				l.gaddrs[a.Name] = id
			}
		}
	}
}

func (l *funcLowering) lowerInstr(in *ir.Instr) error {
	switch {
	case in.Op.IsBinary():
		l.emitValued(in, binOpcode(in.Op), 0, in.Args)
	case in.Op == ir.OpICmp:
		l.emitValued(in, visa.OpCmp, condAux(in.Pred), in.Args)
	case in.Op == ir.OpSelect:
		l.emitValued(in, visa.OpSel, 0, in.Args)
	case in.Op == ir.OpSplat:
		l.emitValued(in, visa.OpBcast, 0, in.Args)
	case in.Op == ir.OpBitcast:
		l.emitValued(in, visa.OpMov, 0, in.Args)
	case in.Op == ir.OpLoad:
		l.b.Emit(visa.Inst{
			Op:       visa.OpSend,
			ExecSize: l.exec(in.Type),
			Aux:      visa.SendRead,
			Dst:      visa.Reg(l.declFor(in.Result, in.Type)),
			Srcs:     []visa.Operand{l.operand(in.Args[0])},
		})
	case in.Op == ir.OpStore:
		l.b.Emit(visa.Inst{
			Op:       visa.OpSend,
			ExecSize: l.exec(in.Args[0].Type),
			Aux:      visa.SendWrite,
			Srcs:     []visa.Operand{l.operand(in.Args[1]), l.operand(in.Args[0])},
		})
	case in.Op == ir.OpCall:
		l.lowerCall(in)
	default:
		return fmt.Errorf("cannot lower %s", in.Op)
	}
	return nil
}

func (l *funcLowering) lowerCall(in *ir.Instr) {
	switch in.Callee {
	case "vx.barrier":
		l.b.Emit(visa.Inst{Op: visa.OpBarrier, ExecSize: 1})
		return
	case "vx.fence":
		l.b.Emit(visa.Inst{Op: visa.OpFence, ExecSize: 1})
		return
	}
	inst := visa.Inst{Op: visa.OpCall, ExecSize: 1, Sym: in.Callee}
	for _, a := range in.Args {
		inst.Srcs = append(inst.Srcs, l.operand(a))
	}
	if in.HasResult() {
		inst.Dst = visa.Reg(l.declFor(in.Result, in.Type))
	}
	l.b.Emit(inst)
}

func (l *funcLowering) lowerTerm(t *ir.Terminator) {
	switch t.Kind {
	case ir.TermBr:
		l.b.EmitBranch(visa.OpJmp, visa.Null(), t.Br.Target)
	case ir.TermCondBr:
		l.b.EmitBranch(visa.OpBrc, l.operand(t.CondBr.Cond), t.CondBr.Then)
		l.b.EmitBranch(visa.OpJmp, visa.Null(), t.CondBr.Else)
	case ir.TermRet:
		l.b.Emit(visa.Inst{Op: visa.OpEOT, ExecSize: 1})
	}
}

func (l *funcLowering) emitValued(in *ir.Instr, op visa.Opcode, aux uint8, args []ir.Value) {
	inst := visa.Inst{
		Op:       op,
		ExecSize: l.exec(in.Type),
		Aux:      aux,
		Dst:      visa.Reg(l.declFor(in.Result, in.Type)),
	}
	for _, a := range args {
		inst.Srcs = append(inst.Srcs, l.operand(a))
	}
	l.b.Emit(inst)
}

func (l *funcLowering) declFor(name string, t ir.Type) uint32 {
	if id, ok := l.regs[name]; ok {
		return id
	}
	id := l.b.NewDecl(name, typeBytes(t, l.ptrBytes))
	l.b.SetDeclInfo(id, 0, "", !t.IsVector(), false)
	l.regs[name] = id
	return id
}

// operand maps an operand to its virtual ISA form. Undefined values
// lower to a zero immediate: any value satisfies them, zero keeps the
// stream deterministic.
func (l *funcLowering) operand(v ir.Value) visa.Operand {
	switch v.Kind {
	case ir.ValReg:
		return visa.Reg(l.declFor(v.Name, v.Type))
	case ir.ValConst:
		return visa.Imm(v.Const)
	case ir.ValGlobal:
		return visa.Reg(l.gaddrs[v.Name])
	case ir.ValUndef:
		return visa.Imm(0)
	}
	panic(fmt.Errorf("lower: operand kind %d", v.Kind))
}

func (l *funcLowering) exec(t ir.Type) uint16 {
	n, err := safecast.Conv[uint16](t.LaneCount())
	if err != nil {
		panic(fmt.Errorf("lower: execution width: %w", err))
	}
	return n
}

var binOpcodes = map[ir.Op]visa.Opcode{
	ir.OpAdd:  visa.OpAdd,
	ir.OpSub:  visa.OpSub,
	ir.OpMul:  visa.OpMul,
	ir.OpSDiv: visa.OpDiv,
	ir.OpUDiv: visa.OpDivU,
	ir.OpAnd:  visa.OpAnd,
	ir.OpOr:   visa.OpOr,
	ir.OpXor:  visa.OpXor,
	ir.OpShl:  visa.OpShl,
	ir.OpLShr: visa.OpShr,
	ir.OpAShr: visa.OpAsr,
	ir.OpFAdd: visa.OpFAdd,
	ir.OpFSub: visa.OpFSub,
	ir.OpFMul: visa.OpFMul,
	ir.OpFDiv: visa.OpFDiv,
}

func binOpcode(op ir.Op) visa.Opcode {
	v, ok := binOpcodes[op]
	if !ok {
		panic(fmt.Errorf("lower: no opcode for %s", op))
	}
	return v
}

var condAuxes = map[ir.CmpPred]uint8{
	ir.CmpEQ:  visa.CondEQ,
	ir.CmpNE:  visa.CondNE,
	ir.CmpSLT: visa.CondLT,
	ir.CmpSLE: visa.CondLE,
	ir.CmpSGT: visa.CondGT,
	ir.CmpSGE: visa.CondGE,
	ir.CmpULT: visa.CondLTU,
	ir.CmpULE: visa.CondLEU,
	ir.CmpUGT: visa.CondGTU,
	ir.CmpUGE: visa.CondGEU,
}

func condAux(p ir.CmpPred) uint8 {
	a, ok := condAuxes[p]
	if !ok {
		panic(fmt.Errorf("lower: no condition for %s", p))
	}
	return a
}

// typeBytes is the storage footprint of one value.
func typeBytes(t ir.Type, ptrBytes int) int {
	if t.IsVoid() {
		return 0
	}
	elem := ptrBytes
	if !t.IsPtr() {
		elem = int(t.Bits+7) / 8
	}
	return elem * t.LaneCount()
}
