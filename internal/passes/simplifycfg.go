package passes

import "vexc/ir"

// SimplifyCFG cleans up control flow:
//  1. fold conditional branches with constant conditions or identical
//     targets into plain branches
//  2. remove trivial forwarding blocks (no instructions, just a
//     branch) by redirecting their predecessors, following chains
//  3. drop blocks unreachable from the entry
//
// The entry block keeps its position even when trivial, since entry
// is positional.
func SimplifyCFG() FuncPass { return simplifyCFG{} }

type simplifyCFG struct{}

func (simplifyCFG) Name() string { return "simplifycfg" }

func (simplifyCFG) RunOnFunc(f *ir.Func, ctx *Context) bool {
	if len(f.Blocks) == 0 {
		return false
	}
	changed := foldCondBrs(f)

	redirects := buildRedirectMap(f)
	if len(redirects) > 0 {
		changed = true
		applyRedirects(f, redirects)
	}

	reachable := computeReachability(f)
	if removed := compactBlocks(f, reachable); removed > 0 {
		changed = true
		ctx.Stat("simplifycfg.blocks_removed", "unreachable blocks removed").Add(uint64(removed))
	}
	return changed
}

// foldCondBrs turns decidable conditional branches into plain ones.
func foldCondBrs(f *ir.Func) bool {
	changed := false
	for _, b := range f.Blocks {
		if b.Term.Kind != ir.TermCondBr {
			continue
		}
		cb := b.Term.CondBr
		switch {
		case cb.Then == cb.Else:
			b.Term = ir.Terminator{Kind: ir.TermBr, Br: ir.BrTerm{Target: cb.Then}}
			changed = true
		case cb.Cond.Kind == ir.ValConst:
			target := cb.Else
			if cb.Cond.Const != 0 {
				target = cb.Then
			}
			b.Term = ir.Terminator{Kind: ir.TermBr, Br: ir.BrTerm{Target: target}}
			changed = true
		}
	}
	return changed
}

// buildRedirectMap maps every trivial forwarding block to its final
// target, following chains. The entry block is never a forwarder.
func buildRedirectMap(f *ir.Func) map[string]string {
	trivial := make(map[string]string)
	for i, b := range f.Blocks {
		if i == 0 {
			continue
		}
		if len(b.Instrs) == 0 && b.Term.Kind == ir.TermBr {
			trivial[b.Name] = b.Term.Br.Target
		}
	}
	redirects := make(map[string]string, len(trivial))
	for name, target := range trivial {
		visited := map[string]bool{name: true}
		for !visited[target] {
			visited[target] = true
			next, ok := trivial[target]
			if !ok {
				break
			}
			target = next
		}
		if target != name {
			redirects[name] = target
		}
	}
	return redirects
}

func applyRedirects(f *ir.Func, redirects map[string]string) {
	redirect := func(label string) string {
		if to, ok := redirects[label]; ok {
			return to
		}
		return label
	}
	for _, b := range f.Blocks {
		b.Term.Retarget(redirect)
	}
}

// computeReachability walks the graph from the entry block.
func computeReachability(f *ir.Func) map[string]bool {
	byName := make(map[string]*ir.Block, len(f.Blocks))
	for _, b := range f.Blocks {
		byName[b.Name] = b
	}
	reachable := make(map[string]bool, len(f.Blocks))
	var visit func(label string)
	visit = func(label string) {
		b, ok := byName[label]
		if !ok || reachable[label] {
			return
		}
		reachable[label] = true
		for _, succ := range b.Term.Targets() {
			visit(succ)
		}
	}
	visit(f.Entry().Name)
	return reachable
}

// compactBlocks drops unreachable blocks, preserving order, and
// returns how many went away.
func compactBlocks(f *ir.Func, reachable map[string]bool) int {
	kept := f.Blocks[:0]
	for _, b := range f.Blocks {
		if reachable[b.Name] {
			kept = append(kept, b)
		}
	}
	removed := len(f.Blocks) - len(kept)
	f.Blocks = kept
	return removed
}
