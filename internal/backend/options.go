// Package backend carries the per-compilation configuration handed to
// code generation: resolved backend options, builtin module payloads,
// tunables parsed out of -backend-options, and the statistics and
// timing hooks. One Config travels through a single compilation and is
// never shared, which is what keeps compilations independent.
package backend

import "vexc/internal/target"

// Options is the resolved backend option block. All tri-state and
// derived-by-default inputs are already collapsed to plain values by
// the time an Options exists.
type Options struct {
	// StackSurfaceMaxSize bounds the stack surface; also used as the
	// stateless private memory size when set through the stack-size
	// option.
	StackSurfaceMaxSize     uint32
	StatelessPrivateMemSize uint32

	// DebuggableKernels requests per-variable debug records and
	// breakpoint-friendly code.
	DebuggableKernels bool
	LegacyDWARFPath   bool
	ZeCompatibleDWARF bool
	EmitBreakpoints   bool
	// NoOptFinalizer runs the finalizer with scheduling and compaction
	// off.
	NoOptFinalizer bool

	DisableFinalizerMsg    bool
	DisableLRCoalescing    bool
	ForceArrayPromotion    bool
	DisableStructSplitting bool
	ForceStackCalls        bool
	LargeGRFMode           bool
	UseBindlessBuffers     bool
	UsePlain2DImages       bool
	EnablePreemption       bool

	EnableAsmDumps       bool
	EnableDebugInfoDumps bool

	WATable *target.WorkaroundTable
}
