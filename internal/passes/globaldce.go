package passes

import "vexc/ir"

// GlobalDCE drops functions and globals nothing reaches from a
// kernel. Modules without kernels are treated as libraries and left
// alone.
func GlobalDCE() ModulePass { return globalDCE{} }

type globalDCE struct{}

func (globalDCE) Name() string { return "globaldce" }

func (globalDCE) RunOnModule(ctx *Context) bool {
	m := ctx.Module
	if len(m.Kernels()) == 0 {
		return false
	}

	liveFuncs := make(map[string]bool)
	liveGlobals := make(map[string]bool)
	var visit func(f *ir.Func)
	visit = func(f *ir.Func) {
		if f == nil || liveFuncs[f.Name] {
			return
		}
		liveFuncs[f.Name] = true
		for _, b := range f.Blocks {
			for i := range b.Instrs {
				in := &b.Instrs[i]
				if in.Op == ir.OpCall {
					visit(m.Func(in.Callee))
				}
				for _, a := range in.Args {
					if a.Kind == ir.ValGlobal {
						liveGlobals[a.Name] = true
					}
				}
			}
		}
	}
	for _, k := range m.Kernels() {
		visit(k)
	}

	removed := 0
	keptFuncs := m.Funcs[:0]
	for _, f := range m.Funcs {
		if liveFuncs[f.Name] {
			keptFuncs = append(keptFuncs, f)
			continue
		}
		removed++
	}
	m.Funcs = keptFuncs

	keptGlobals := m.Globals[:0]
	for _, g := range m.Globals {
		if liveGlobals[g.Name] {
			keptGlobals = append(keptGlobals, g)
			continue
		}
		removed++
	}
	m.Globals = keptGlobals

	if removed > 0 {
		ctx.Stat("globaldce.removed", "unreferenced functions and globals removed").Add(uint64(removed))
	}
	return removed > 0
}
