package passes

import (
	"fmt"

	"vexc/ir"
)

// VecCombine merges repeated vector-forming instructions: two splats
// or bitcasts of the same operand to the same type collapse into one.
// Runs only when superword combining was requested.
func VecCombine() FuncPass { return vecCombine{} }

type vecCombine struct{}

func (vecCombine) Name() string { return "veccombine" }

func (vecCombine) RunOnFunc(f *ir.Func, ctx *Context) bool {
	merged := uint64(0)
	subst := make(map[string]ir.Value)
	// Keyed within one block: across blocks the first occurrence may
	// not dominate the second.
	for _, b := range f.Blocks {
		seen := make(map[string]ir.Value)
		kept := b.Instrs[:0]
		for i := range b.Instrs {
			in := b.Instrs[i]
			if in.Op != ir.OpSplat && in.Op != ir.OpBitcast {
				kept = append(kept, in)
				continue
			}
			key := combineKey(&in)
			if prev, ok := seen[key]; ok {
				subst[in.Result] = prev
				merged++
				continue
			}
			seen[key] = ir.RegOf(in.Result, in.Type)
			kept = append(kept, in)
		}
		b.Instrs = kept
	}
	if merged == 0 {
		return false
	}
	substituteUses(f, subst)
	ctx.Stat("veccombine.merged", "redundant vector forms merged").Add(merged)
	return true
}

// combineKey includes the operand type: a bitcast of the same constant
// from a different source type reinterprets different bits.
func combineKey(in *ir.Instr) string {
	return fmt.Sprintf("%s|%s|%s %s", in.Op, in.Type, in.Args[0].Type, in.Args[0])
}
