package driver

import (
	"vexc/internal/backend"
	"vexc/internal/passes"
	"vexc/ir"
)

// inlineThreshold caps the size of unannotated inline candidates in
// the standard pipeline.
const inlineThreshold = 25

// optimizeModule runs the standard pipeline at the resolved level.
// Passes are total, so optimization has no failure path.
func optimizeModule(m *ir.Module, opts *CompileOptions, cfg *backend.Config) {
	level := 2
	if opts.OptLevel == OptNone {
		level = 0
	}
	b := passes.Builder{
		OptLevel:        level,
		InlineThreshold: inlineThreshold,
		EnableSLP:       cfg.Tunables.EnableSLP,
	}
	b.Build().Run(&passes.Context{Module: m, Cfg: cfg})
}
