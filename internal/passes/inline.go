package passes

import (
	"fmt"

	"vexc/ir"
)

// Inliner replaces calls to small single block functions with their
// bodies. Functions marked alwaysinline go in regardless of size;
// noinline and kernels never do. threshold is the instruction count
// above which an unannotated callee stays a call.
func Inliner(threshold int) ModulePass { return &inliner{threshold: threshold} }

// AlwaysInliner inlines only alwaysinline functions, the portion that
// still runs with optimization off.
func AlwaysInliner() ModulePass { return &inliner{alwaysOnly: true} }

type inliner struct {
	alwaysOnly bool
	threshold  int
	nextClone  int
}

func (p *inliner) Name() string {
	if p.alwaysOnly {
		return "always-inline"
	}
	return "inline"
}

func (p *inliner) RunOnModule(ctx *Context) bool {
	changed := false
	for _, f := range ctx.Module.Funcs {
		if f.IsDecl() {
			continue
		}
		if p.runOnCaller(f, ctx) {
			changed = true
		}
	}
	return changed
}

func (p *inliner) runOnCaller(caller *ir.Func, ctx *Context) bool {
	inlined := uint64(0)
	subst := make(map[string]ir.Value)
	for _, b := range caller.Blocks {
		var out []ir.Instr
		for i := range b.Instrs {
			in := b.Instrs[i]
			if in.Op == ir.OpCall {
				callee := ctx.Module.Func(in.Callee)
				if p.shouldInline(caller, callee) {
					body, retVal := p.cloneBody(callee, in.Args)
					out = append(out, body...)
					if in.HasResult() {
						subst[in.Result] = retVal
					}
					inlined++
					continue
				}
			}
			out = append(out, in)
		}
		b.Instrs = out
	}
	if inlined == 0 {
		return false
	}
	substituteUses(caller, subst)
	ctx.Stat("inline.count", "calls inlined").Add(inlined)
	return true
}

// shouldInline restricts inlining to single block bodies ending in
// ret, which keeps substitution local and needs no block surgery.
func (p *inliner) shouldInline(caller, callee *ir.Func) bool {
	if callee == nil || callee.IsDecl() || callee.Kernel || callee == caller {
		return false
	}
	if callee.Attrs.NoInline || len(callee.Blocks) != 1 {
		return false
	}
	entry := callee.Blocks[0]
	if entry.Term.Kind != ir.TermRet {
		return false
	}
	if callee.Attrs.AlwaysInline {
		return true
	}
	return !p.alwaysOnly && len(entry.Instrs) <= p.threshold
}

// cloneBody copies the callee's entry block, renaming its registers
// with a fresh prefix and substituting arguments for parameters. It
// returns the cloned instructions and the value the call produced.
func (p *inliner) cloneBody(callee *ir.Func, args []ir.Value) ([]ir.Instr, ir.Value) {
	p.nextClone++
	prefix := fmt.Sprintf("inl%d.", p.nextClone)

	rename := make(map[string]ir.Value, len(callee.Params)+len(args))
	for i, param := range callee.Params {
		rename[param.Name] = args[i]
	}
	entry := callee.Blocks[0]
	for i := range entry.Instrs {
		if r := entry.Instrs[i].Result; r != "" {
			rename[r] = ir.RegOf(prefix+r, entry.Instrs[i].Type)
		}
	}
	resolve := func(v ir.Value) ir.Value {
		if v.Kind == ir.ValReg {
			if to, ok := rename[v.Name]; ok {
				return to
			}
		}
		return v
	}

	out := make([]ir.Instr, 0, len(entry.Instrs))
	for i := range entry.Instrs {
		in := entry.Instrs[i]
		if in.Result != "" {
			in.Result = prefix + in.Result
		}
		newArgs := make([]ir.Value, len(in.Args))
		for j, a := range in.Args {
			newArgs[j] = resolve(a)
		}
		in.Args = newArgs
		out = append(out, in)
	}
	var retVal ir.Value
	if entry.Term.Ret.HasValue {
		retVal = resolve(entry.Term.Ret.Value)
	}
	return out, retVal
}

// substituteUses rewrites register uses across f, following chains.
func substituteUses(f *ir.Func, subst map[string]ir.Value) {
	if len(subst) == 0 {
		return
	}
	// Chains are acyclic when definitions dominate uses; the cap keeps
	// malformed input from hanging the walk.
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
		for i := range b.Instrs {
			for j := range b.Instrs[i].Args {
				b.Instrs[i].Args[j] = resolve(b.Instrs[i].Args[j])
			}
		}
		switch b.Term.Kind {
		case ir.TermCondBr:
			b.Term.CondBr.Cond = resolve(b.Term.CondBr.Cond)
		case ir.TermRet:
			if b.Term.Ret.HasValue {
				b.Term.Ret.Value = resolve(b.Term.Ret.Value)
			}
		}
	}
}
