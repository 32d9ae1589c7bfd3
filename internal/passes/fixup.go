package passes

import (
	"strings"

	"vexc/ir"
)

// intrinsicAttrs lists the intrinsics whose attributes must hold
// regardless of what the input module declared. Serialized modules
// from older producers routinely drop them.
var intrinsicAttrs = map[string]ir.FuncAttrs{
	"vx.lane.id":     {ReadNone: true},
	"vx.group.id":    {ReadNone: true},
	"vx.group.count": {ReadNone: true},
	"vx.simd.width":  {ReadNone: true},
	"vx.barrier":     {},
	"vx.fence":       {},
}

// RestoreIntrinsicAttrs re-stamps the declared attributes of known
// intrinsics after loading.
func RestoreIntrinsicAttrs() ModulePass { return restoreIntrinsicAttrs{} }

type restoreIntrinsicAttrs struct{}

func (restoreIntrinsicAttrs) Name() string { return "restore-intrinsic-attrs" }

func (restoreIntrinsicAttrs) RunOnModule(ctx *Context) bool {
	changed := false
	for _, f := range ctx.Module.Funcs {
		want, ok := intrinsicAttrs[f.Name]
		if !ok || !f.IsDecl() || f.Attrs == want {
			continue
		}
		f.Attrs = want
		changed = true
	}
	return changed
}

// legacyPrefix is the intrinsic namespace older toolchains emitted.
const legacyPrefix = "genx."

// ReaderAdaptor rewrites legacy genx. intrinsic names to the current
// vx. namespace: declarations are renamed, call sites follow, and a
// legacy declaration folds into an existing current one.
func ReaderAdaptor() ModulePass { return readerAdaptor{} }

type readerAdaptor struct{}

func (readerAdaptor) Name() string { return "reader-adaptor" }

func (readerAdaptor) RunOnModule(ctx *Context) bool {
	m := ctx.Module
	existing := make(map[string]bool, len(m.Funcs))
	for _, f := range m.Funcs {
		existing[f.Name] = true
	}
	renames := make(map[string]string)
	kept := make([]*ir.Func, 0, len(m.Funcs))
	for _, f := range m.Funcs {
		if !f.IsDecl() || !strings.HasPrefix(f.Name, legacyPrefix) {
			kept = append(kept, f)
			continue
		}
		modern := "vx." + strings.TrimPrefix(f.Name, legacyPrefix)
		renames[f.Name] = modern
		if existing[modern] {
			continue
		}
		existing[modern] = true
		f.Name = modern
		kept = append(kept, f)
	}
	if len(renames) == 0 {
		return false
	}
	m.Funcs = kept

	for _, f := range m.Funcs {
		for _, b := range f.Blocks {
			for i := range b.Instrs {
				in := &b.Instrs[i]
				if in.Op != ir.OpCall {
					continue
				}
				if to, ok := renames[in.Callee]; ok {
					in.Callee = to
				}
			}
		}
	}
	ctx.Stat("adaptor.renamed", "legacy intrinsic names rewritten").Add(uint64(len(renames)))
	return true
}
