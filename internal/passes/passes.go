// Package passes holds the module and function transformations the
// optimization stage runs between loading and code generation, plus
// the pipeline that sequences them.
package passes

import (
	"fmt"

	"vexc/internal/backend"
	"vexc/internal/stats"
	"vexc/ir"
)

// Context carries what a pass may touch: the module under
// transformation and the per-compilation configuration.
type Context struct {
	Module *ir.Module
	Cfg    *backend.Config
}

// Stat returns the named counter, a no-op when statistics are off.
func (ctx *Context) Stat(name, desc string) *stats.Counter {
	return ctx.Cfg.Stats.Counter(name, desc)
}

// Pass is the common surface of every transformation.
type Pass interface {
	Name() string
}

// FuncPass transforms one function at a time. RunOnFunc reports
// whether it changed anything.
type FuncPass interface {
	Pass
	RunOnFunc(f *ir.Func, ctx *Context) bool
}

// ModulePass transforms the whole module at once.
type ModulePass interface {
	Pass
	RunOnModule(ctx *Context) bool
}

// Pipeline runs passes in registration order. Function passes visit
// every function with a body; declarations are skipped.
type Pipeline struct {
	passes []Pass
}

// Add appends passes to the pipeline.
func (p *Pipeline) Add(passes ...Pass) {
	p.passes = append(p.passes, passes...)
}

// Run executes the pipeline over ctx.Module and reports whether any
// pass changed the module. Passes are total: they either transform or
// leave the module alone, so Run has no error path.
func (p *Pipeline) Run(ctx *Context) bool {
	changed := false
	for _, ps := range p.passes {
		stop := ctx.Cfg.Times.Scope("pass " + ps.Name())
		switch ps := ps.(type) {
		case FuncPass:
			for _, f := range ctx.Module.Funcs {
				if f.IsDecl() {
					continue
				}
				if ps.RunOnFunc(f, ctx) {
					changed = true
				}
			}
		case ModulePass:
			if ps.RunOnModule(ctx) {
				changed = true
			}
		default:
			panic(fmt.Errorf("pass %s is neither a function nor a module pass", ps.Name()))
		}
		stop()
	}
	return changed
}
