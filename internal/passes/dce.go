package passes

import "vexc/ir"

// DCE removes instructions whose results nothing reads. Stores always
// stay; calls stay unless the callee is marked readnone.
func DCE() FuncPass { return dce{} }

type dce struct{}

func (dce) Name() string { return "dce" }

func (dce) RunOnFunc(f *ir.Func, ctx *Context) bool {
	removed := uint64(0)
	for {
		used := make(map[string]bool)
		mark := func(v ir.Value) {
			if v.Kind == ir.ValReg {
				used[v.Name] = true
			}
		}
		for _, b := range f.Blocks {
			for i := range b.Instrs {
				for _, a := range b.Instrs[i].Args {
					mark(a)
				}
			}
			switch b.Term.Kind {
			case ir.TermCondBr:
				mark(b.Term.CondBr.Cond)
			case ir.TermRet:
				if b.Term.Ret.HasValue {
					mark(b.Term.Ret.Value)
				}
			}
		}

		n := uint64(0)
		for _, b := range f.Blocks {
			kept := b.Instrs[:0]
			for i := range b.Instrs {
				in := b.Instrs[i]
				if in.HasResult() && !used[in.Result] && removable(&in, ctx) {
					n++
					continue
				}
				kept = append(kept, in)
			}
			b.Instrs = kept
		}
		if n == 0 {
			break
		}
		removed += n
	}
	if removed > 0 {
		ctx.Stat("dce.removed", "dead instructions removed").Add(removed)
	}
	return removed > 0
}

// removable reports whether a dead result's instruction may vanish.
func removable(in *ir.Instr, ctx *Context) bool {
	switch in.Op {
	case ir.OpStore:
		return false
	case ir.OpCall:
		callee := ctx.Module.Func(in.Callee)
		return callee != nil && callee.Attrs.ReadNone
	}
	return true
}
