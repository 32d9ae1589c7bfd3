package driver

import (
	"fmt"

	"vexc/internal/backend"
	"vexc/internal/observ"
	"vexc/internal/stats"
	"vexc/internal/target"
)

// defaultStackMemSize bounds stateless private memory when no option
// overrides it.
const defaultStackMemSize = 8 << 10

// newBackendConfig builds the per-compilation backend configuration.
// Everything later stages read about this compilation lives here, so
// concurrent compilations share nothing.
func newBackendConfig(opts *CompileOptions) *backend.Config {
	cfg := &backend.Config{
		Options:  newBackendOptions(opts),
		Tunables: backend.ParseTunables(opts.LowLevelFlags),
	}
	if opts.TimePasses {
		cfg.Times = observ.NewTimer()
	}
	if opts.PrintStats || opts.StatsFile != "" {
		cfg.Stats = stats.NewRegistry()
	}
	return cfg
}

// newBackendOptions collapses the resolved options into the plain
// option block the backend consumes. Every derived default in here is
// a deliberate rule, not a fallback of convenience.
func newBackendOptions(opts *CompileOptions) backend.Options {
	bo := backend.Options{
		StackSurfaceMaxSize:     defaultStackMemSize,
		StatelessPrivateMemSize: defaultStackMemSize,
	}
	if opts.StackMemSize != nil {
		bo.StackSurfaceMaxSize = *opts.StackMemSize
		bo.StatelessPrivateMemSize = *opts.StackMemSize
	}

	bo.DebuggableKernels = opts.EmitDebuggableKernels
	bo.LegacyDWARFPath = opts.Binary != BinaryCM && opts.EmitDebuggableKernels
	bo.ZeCompatibleDWARF = opts.Binary == BinaryZE
	bo.EmitBreakpoints = opts.EmitBreakpoints.Bool(opts.EmitExtendedDebug)
	debuggableO0 := opts.OptLevel == OptNone && opts.EmitExtendedDebug
	bo.NoOptFinalizer = opts.NoOptFinalizer.Bool(debuggableO0)

	bo.DisableFinalizerMsg = opts.DisableFinalizerMsg
	bo.DisableLRCoalescing = opts.DisableLRCoalescing.Bool(false)
	bo.ForceArrayPromotion = opts.Binary == BinaryCM
	bo.DisableStructSplitting = opts.NoStructSplitting
	bo.ForceStackCalls = opts.FCtrl == FCtrlStackCall
	bo.LargeGRFMode = opts.LargeGRF
	bo.UseBindlessBuffers = opts.UseBindlessBuffers
	bo.UsePlain2DImages = opts.UsePlain2DImages
	bo.EnablePreemption = opts.EnablePreemption

	bo.EnableAsmDumps = opts.DumpAsm
	bo.EnableDebugInfoDumps = opts.DumpDebugInfo

	bo.WATable = opts.WATable
	return bo
}

// installBackendData wires the builtin payloads and the errata table,
// both of which need the configured machine.
func installBackendData(cfg *backend.Config, ext ExternalData, mach *target.Machine) {
	ptrBits := mach.PointerSizeBits()
	if ptrBits != 32 && ptrBits != 64 {
		panic(fmt.Sprintf("driver: pointer width %d, want 32 or 64", ptrBits))
	}
	cfg.Data.SetModule(backend.BiFGeneric, ext.Generic)
	cfg.Data.SetModule(backend.BiFEmulation, ext.Emulation)
	cfg.Data.SetModule(backend.BiFPortable, ext.PILBuiltins)
	if ptrBits == 64 {
		cfg.Data.SetModule(backend.BiFPrintf, ext.Printf64)
	} else {
		cfg.Data.SetModule(backend.BiFPrintf, ext.Printf32)
	}

	if cfg.Options.WATable == nil {
		wa := target.WorkaroundsFor(mach.CPU.Name)
		cfg.Options.WATable = &wa
	}
}
