package passes

import "vexc/ir"

// Peephole simplifies instructions in place: constant folding over
// integer arithmetic and comparisons, algebraic identities, selects
// with known conditions and no-op bitcasts. Results that fold away
// are substituted into every remaining use.
func Peephole() FuncPass { return peephole{} }

type peephole struct{}

func (peephole) Name() string { return "peephole" }

func (peephole) RunOnFunc(f *ir.Func, ctx *Context) bool {
	changed := false
	for {
		subst := make(map[string]ir.Value)
		folded := make(map[*ir.Block]map[int]bool)
		for _, b := range f.Blocks {
			for i := range b.Instrs {
				in := &b.Instrs[i]
				if !in.HasResult() {
					continue
				}
				v, ok := simplify(in)
				if !ok {
					continue
				}
				subst[in.Result] = v
				if folded[b] == nil {
					folded[b] = make(map[int]bool)
				}
				folded[b][i] = true
			}
		}
		if len(subst) == 0 {
			return changed
		}
		changed = true
		ctx.Stat("peephole.simplified", "instructions simplified away").Add(uint64(len(subst)))
		applySubst(f, subst, folded)
	}
}

// simplify returns the value in computes when it can be decided
// statically.
func simplify(in *ir.Instr) (ir.Value, bool) {
	switch {
	case in.Op.IsBinary() && !in.Op.IsFloatOp():
		return simplifyIntBin(in)
	case in.Op == ir.OpICmp:
		a, b := in.Args[0], in.Args[1]
		if a.Kind != ir.ValConst || b.Kind != ir.ValConst {
			return ir.Value{}, false
		}
		bits := a.Type.Bits
		r := int64(0)
		if evalPred(in.Pred, a.Const, b.Const, bits) {
			r = 1
		}
		return ir.Value{Kind: ir.ValConst, Const: r, Type: in.Type}, true
	case in.Op == ir.OpSelect:
		if cond := in.Args[0]; cond.Kind == ir.ValConst {
			if cond.Const != 0 {
				return in.Args[1], true
			}
			return in.Args[2], true
		}
	case in.Op == ir.OpBitcast:
		if in.Args[0].Type == in.Type {
			return in.Args[0], true
		}
	}
	return ir.Value{}, false
}

func simplifyIntBin(in *ir.Instr) (ir.Value, bool) {
	a, b := in.Args[0], in.Args[1]
	if a.Kind == ir.ValConst && b.Kind == ir.ValConst {
		if r, ok := evalIntBin(in.Op, a.Const, b.Const, in.Type.Bits); ok {
			return ir.Value{Kind: ir.ValConst, Const: r, Type: in.Type}, true
		}
		return ir.Value{}, false
	}
	constOf := func(v int64) (ir.Value, bool) {
		return ir.Value{Kind: ir.ValConst, Const: v, Type: in.Type}, true
	}
	isC := func(v ir.Value, c int64) bool { return v.Kind == ir.ValConst && v.Const == c }
	same := func() bool {
		return a.Kind == ir.ValReg && b.Kind == ir.ValReg && a.Name == b.Name
	}
	switch in.Op {
	case ir.OpAdd, ir.OpOr, ir.OpXor:
		if isC(b, 0) {
			return a, true
		}
		if isC(a, 0) {
			return b, true
		}
		if in.Op == ir.OpXor && same() {
			return constOf(0)
		}
		if in.Op == ir.OpOr && same() {
			return a, true
		}
	case ir.OpSub:
		if isC(b, 0) {
			return a, true
		}
		if same() {
			return constOf(0)
		}
	case ir.OpMul:
		if isC(b, 1) {
			return a, true
		}
		if isC(a, 1) {
			return b, true
		}
		if isC(a, 0) || isC(b, 0) {
			return constOf(0)
		}
	case ir.OpAnd:
		if same() {
			return a, true
		}
		if isC(a, 0) || isC(b, 0) {
			return constOf(0)
		}
	case ir.OpSDiv, ir.OpUDiv:
		if isC(b, 1) {
			return a, true
		}
	case ir.OpShl, ir.OpLShr, ir.OpAShr:
		if isC(b, 0) {
			return a, true
		}
	}
	return ir.Value{}, false
}

// evalIntBin folds one integer operation at the given bit width.
// Division by zero and out-of-range shifts stay unfolded.
func evalIntBin(op ir.Op, a, b int64, bits uint16) (int64, bool) {
	switch op {
	case ir.OpAdd:
		return signExt(a+b, bits), true
	case ir.OpSub:
		return signExt(a-b, bits), true
	case ir.OpMul:
		return signExt(a*b, bits), true
	case ir.OpSDiv:
		if b == 0 {
			return 0, false
		}
		return signExt(a/b, bits), true
	case ir.OpUDiv:
		if b == 0 {
			return 0, false
		}
		return signExt(int64(toUnsigned(a, bits)/toUnsigned(b, bits)), bits), true
	case ir.OpAnd:
		return signExt(a&b, bits), true
	case ir.OpOr:
		return signExt(a|b, bits), true
	case ir.OpXor:
		return signExt(a^b, bits), true
	case ir.OpShl:
		if b < 0 || b >= int64(bits) {
			return 0, false
		}
		return signExt(a<<uint(b), bits), true
	case ir.OpLShr:
		if b < 0 || b >= int64(bits) {
			return 0, false
		}
		return signExt(int64(toUnsigned(a, bits)>>uint(b)), bits), true
	case ir.OpAShr:
		if b < 0 || b >= int64(bits) {
			return 0, false
		}
		return signExt(signExt(a, bits)>>uint(b), bits), true
	}
	return 0, false
}

func evalPred(p ir.CmpPred, a, b int64, bits uint16) bool {
	sa, sb := signExt(a, bits), signExt(b, bits)
	ua, ub := toUnsigned(a, bits), toUnsigned(b, bits)
	switch p {
	case ir.CmpEQ:
		return ua == ub
	case ir.CmpNE:
		return ua != ub
	case ir.CmpSLT:
		return sa < sb
	case ir.CmpSLE:
		return sa <= sb
	case ir.CmpSGT:
		return sa > sb
	case ir.CmpSGE:
		return sa >= sb
	case ir.CmpULT:
		return ua < ub
	case ir.CmpULE:
		return ua <= ub
	case ir.CmpUGT:
		return ua > ub
	case ir.CmpUGE:
		return ua >= ub
	}
	return false
}

// signExt truncates v to bits and sign extends back into an int64.
func signExt(v int64, bits uint16) int64 {
	if bits == 0 || bits >= 64 {
		return v
	}
	shift := 64 - uint(bits)
	return v << shift >> shift
}

// toUnsigned reads v as an unsigned value of the given width.
func toUnsigned(v int64, bits uint16) uint64 {
	if bits == 0 || bits >= 64 {
		return uint64(v)
	}
	return uint64(v) & (1<<uint(bits) - 1)
}

// applySubst rewrites every operand through subst, following chains,
// and drops the folded instructions.
func applySubst(f *ir.Func, subst map[string]ir.Value, folded map[*ir.Block]map[int]bool) {
	// Bounded like the inliner's walk: folds of well formed input chain
	// without revisiting a register.
	resolve := func(v ir.Value) ir.Value {
		for i := 0; i <= len(subst) && v.Kind == ir.ValReg; i++ {
			next, ok := subst[v.Name]
			if !ok {
				return v
			}
			v = next
		}
		return v
	}
	for _, b := range f.Blocks {
		kept := b.Instrs[:0]
		for i := range b.Instrs {
			if folded[b][i] {
				continue
			}
			in := b.Instrs[i]
			for j := range in.Args {
				in.Args[j] = resolve(in.Args[j])
			}
			kept = append(kept, in)
		}
		b.Instrs = kept
		switch b.Term.Kind {
		case ir.TermCondBr:
			b.Term.CondBr.Cond = resolve(b.Term.CondBr.Cond)
		case ir.TermRet:
			b.Term.Ret.Value = resolve(b.Term.Ret.Value)
		}
	}
}
