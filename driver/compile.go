// Package driver is the compilation entry point: resolution of the
// api and internal option strings into a CompileOptions, and the
// pipeline taking one input module to a binary for the requested
// runtime. Everything a compilation needs travels in explicit
// per-compilation state, so concurrent compilations are independent.
package driver

import (
	"fmt"
	"os"

	"vexc/internal/backend"
	"vexc/internal/dump"
	"vexc/internal/passes"
)

// Compile runs one full translation: load, fix up, retarget, optimize,
// emit. Diagnostic side effects (dumps, statistics, timing reports)
// never change the outcome.
func Compile(input []byte, ftype FileType, opts *CompileOptions, ext ExternalData, specIDs []uint32, specVals []uint64) (*CompileOutput, error) {
	dumper := opts.Dumper
	if dumper == nil {
		dumper = dump.Discard{}
	}
	cfg := newBackendConfig(opts)

	stop := cfg.Times.Scope("load")
	m, err := loadModule(input, ftype, specIDs, specVals)
	stop()
	if err != nil {
		return nil, err
	}
	if opts.DumpIR {
		dumper.DumpModule(m, "after_pil_reader.vir")
	}

	passes.Fixups().Run(&passes.Context{Module: m, Cfg: cfg})

	mach, err := configureTarget(m, opts)
	if err != nil {
		return nil, err
	}
	installBackendData(cfg, ext, mach)

	if opts.DumpIR {
		dumper.DumpModule(m, "after_ir_adaptors.vir")
	}

	optimizeModule(m, opts, cfg)
	if opts.DumpIR {
		dumper.DumpModule(m, "optimized.vir")
	}

	stop = cfg.Times.Scope("emit")
	out, err := emitBinary(m, mach, opts, cfg, dumper)
	stop()
	if err != nil {
		return nil, err
	}

	reportDiagnostics(opts, cfg)
	return out, nil
}

// reportDiagnostics prints the requested timing and statistics
// reports. A stats file that cannot be written is a warning, not a
// failure.
func reportDiagnostics(opts *CompileOptions, cfg *backend.Config) {
	if opts.TimePasses {
		cfg.Times.WriteSummary(os.Stderr)
	}
	if opts.PrintStats {
		cfg.Stats.WriteText(os.Stderr)
	}
	if opts.StatsFile == "" {
		return
	}
	f, err := os.OpenFile(opts.StatsFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", opts.StatsFile, err)
		return
	}
	defer f.Close()
	if err := cfg.Stats.WriteJSON(f); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", opts.StatsFile, err)
	}
}
