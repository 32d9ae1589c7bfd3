package visa

import (
	"fmt"
	"io"
)

// WriteAsm renders a finalized kernel as a text listing: the resource
// summary, the register map, then the scheduled stream with labels at
// branch targets.
func WriteAsm(w io.Writer, k *Kernel) error {
	p := &asmPrinter{w: w}
	p.printf("// kernel %s\n", k.Name)
	p.printf("// simd %d  grf %d  spill %d  scratch %d\n", k.SIMDWidth, k.GRFUsed, k.SpillBytes, k.ScratchBytes)
	for _, d := range k.Decls {
		a, ok := k.Alloc[d.ID]
		switch {
		case !ok:
			p.printf("// .decl v%d %s %db unreferenced\n", d.ID, d.Name, d.Bytes)
		case a.Spilled:
			p.printf("// .decl v%d %s %db scratch+%d\n", d.ID, d.Name, d.Bytes, a.Offset)
		case a.Regs > 1:
			p.printf("// .decl v%d %s %db r%d..r%d\n", d.ID, d.Name, d.Bytes, a.Slot, a.Slot+a.Regs-1)
		default:
			p.printf("// .decl v%d %s %db r%d\n", d.ID, d.Name, d.Bytes, a.Slot)
		}
	}
	p.printf("\n")

	labeled := make(map[int]bool)
	for _, in := range k.Insts {
		if in.Op == OpJmp || in.Op == OpBrc {
			labeled[in.Target] = true
		}
	}
	for i, in := range k.Insts {
		if labeled[i] {
			p.printf("L%d:\n", i)
		}
		p.printf("    %s\n", renderInst(&in))
	}
	if labeled[len(k.Insts)] {
		p.printf("L%d:\n", len(k.Insts))
	}
	return p.err
}

func renderInst(in *Inst) string {
	mn := in.Op.String()
	switch in.Op {
	case OpCmp:
		mn = fmt.Sprintf("cmp.%s", CondName(in.Aux))
	case OpSend:
		if in.Aux == SendWrite {
			mn = "send.wr"
		} else {
			mn = "send.rd"
		}
	}
	s := fmt.Sprintf("%s (%d)", mn, in.ExecSize)
	switch in.Op {
	case OpJmp:
		return fmt.Sprintf("%s L%d", s, in.Target)
	case OpBrc:
		return fmt.Sprintf("%s L%d, %s", s, in.Target, in.Srcs[0])
	case OpCall:
		return fmt.Sprintf("%s %s%s", s, in.Sym, renderArgs(in.Srcs))
	case OpRet, OpBarrier, OpFence, OpEOT:
		return s
	}
	out := s
	if in.Dst.Kind != OperandNull {
		out += " " + in.Dst.String()
	}
	for i, src := range in.Srcs {
		if i == 0 && in.Dst.Kind == OperandNull {
			out += " " + src.String()
			continue
		}
		out += ", " + src.String()
	}
	return out
}

func renderArgs(srcs []Operand) string {
	out := "("
	for i, s := range srcs {
		if i > 0 {
			out += ", "
		}
		out += s.String()
	}
	return out + ")"
}

type asmPrinter struct {
	w   io.Writer
	err error
}

func (p *asmPrinter) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
