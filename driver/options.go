package driver

import (
	"vexc/internal/target"
	"vexc/ir"
	"vexc/visa"
)

// FileType declares how input bytes are encoded.
type FileType uint8

const (
	// FilePIL is a portable intermediate language container, translated
	// to an IR binary before loading.
	FilePIL FileType = iota
	// FileIRText is the textual IR form.
	FileIRText
	// FileIRBinary is the versioned IR binary container.
	FileIRBinary
)

func (t FileType) String() string {
	switch t {
	case FilePIL:
		return "pil"
	case FileIRText:
		return "ir-text"
	case FileIRBinary:
		return "ir-binary"
	}
	return "unknown"
}

// BinaryKind selects the output packaging.
type BinaryKind uint8

const (
	// BinaryCM is the native kernel payload: the raw ISA container.
	BinaryCM BinaryKind = iota
	// BinaryOCL packages kernels with per-kernel runtime records for
	// the OpenCL runtime.
	BinaryOCL
	// BinaryZE packages kernels for the level-zero runtime.
	BinaryZE
)

var binaryKinds = map[string]BinaryKind{
	"cm":  BinaryCM,
	"ocl": BinaryOCL,
	"ze":  BinaryZE,
}

// ParseBinaryKind resolves a -binary-format value.
func ParseBinaryKind(s string) (BinaryKind, bool) {
	k, ok := binaryKinds[s]
	return k, ok
}

func (k BinaryKind) String() string {
	switch k {
	case BinaryCM:
		return "cm"
	case BinaryOCL:
		return "ocl"
	case BinaryZE:
		return "ze"
	}
	return "unknown"
}

// OptimizerLevel is the requested optimization level.
type OptimizerLevel uint8

const (
	// OptFull runs the standard pipeline.
	OptFull OptimizerLevel = iota
	// OptNone runs only what debuggable builds require.
	OptNone
)

var optimizerLevels = map[string]OptimizerLevel{
	"none": OptNone,
	"full": OptFull,
}

// ParseOptimizerLevel resolves a -vc-optimize value.
func ParseOptimizerLevel(s string) (OptimizerLevel, bool) {
	l, ok := optimizerLevels[s]
	return l, ok
}

// TriState is an optional boolean: unset options fall back to a
// derived default instead of a fixed one.
type TriState uint8

const (
	// TriDefault defers to the derived default.
	TriDefault TriState = iota
	// TriFalse is an explicit no.
	TriFalse
	// TriTrue is an explicit yes.
	TriTrue
)

// Bool collapses the tri-state against the derived default.
func (t TriState) Bool(def bool) bool {
	switch t {
	case TriFalse:
		return false
	case TriTrue:
		return true
	}
	return def
}

// FunctionControl picks the calling convention strategy for non-kernel
// functions.
type FunctionControl uint8

const (
	// FCtrlDefault lets the optimizer decide per function.
	FCtrlDefault FunctionControl = iota
	// FCtrlStackCall forces stack calls everywhere.
	FCtrlStackCall
)

// CompileOptions is the resolved configuration of one compilation.
// ParseOptions fills everything the option strings carry; the caller
// supplies the environment-derived fields (CPU when not given as an
// option, WATable, Dumper). Immutable once Compile begins.
type CompileOptions struct {
	// CPU names the hardware generation; empty picks the target's
	// default.
	CPU string
	// Features is the user's comma-separated +name/-name feature list.
	Features string
	// Binary selects the output packaging.
	Binary BinaryKind

	OptLevel   OptimizerLevel
	FPContract target.FPFusion

	NoVecDecomposition        bool
	NoStructSplitting         bool
	NoJumpTables              bool
	TranslateLegacyIntrinsics bool

	DumpIR        bool
	DumpISA       bool
	DumpAsm       bool
	DumpDebugInfo bool
	TimePasses    bool
	PrintStats    bool
	StatsFile     string

	// EmitExtendedDebug and EmitDebuggableKernels both come from -g.
	EmitExtendedDebug     bool
	EmitDebuggableKernels bool
	EmitBreakpoints       TriState

	LargeGRF           bool
	UseBindlessBuffers bool
	UsePlain2DImages   bool
	EnablePreemption   bool
	// StackMemSize bounds stateless private memory; nil means the
	// built-in default.
	StackMemSize        *uint32
	DisableFinalizerMsg bool
	NoOptFinalizer      TriState
	DisableLRCoalescing TriState
	FCtrl               FunctionControl

	HasL1ReadOnlyCache    bool
	SuppressLocalMemFence bool
	// WATable overrides the stock per-CPU errata table when non-nil.
	WATable *target.WorkaroundTable

	// LowLevelFlags is the composed pass-through string the backend
	// parses for tunables.
	LowLevelFlags string

	// Dumper receives diagnostic artifacts; nil discards them.
	Dumper Dumper
}

// Dumper receives intermediate artifacts. Calls are fire and forget:
// the pipeline never observes a dump outcome.
type Dumper interface {
	DumpModule(m *ir.Module, name string)
	DumpBinary(data []byte, name string)
}

// ExternalData bundles the precompiled support modules the caller
// supplies. The slices are borrowed for one compilation and never
// written to. Printf32/Printf64 are variants of one module; pointer
// width picks which one rides along.
type ExternalData struct {
	Generic     []byte
	Emulation   []byte
	PILBuiltins []byte
	Printf32    []byte
	Printf64    []byte
}

// OutputKind tags the populated CompileOutput variant.
type OutputKind uint8

const (
	// OutputISA is the native kernel payload.
	OutputISA OutputKind = iota
	// OutputRuntime is the runtime-packaged result.
	OutputRuntime
)

// CompileOutput is the result of one compilation. Exactly one variant
// is populated, selected by the requested binary kind.
type CompileOutput struct {
	Kind OutputKind
	// ISA holds the encoded kernel container for OutputISA.
	ISA []byte
	// Runtime holds the per-kernel records for OutputRuntime.
	Runtime *RuntimeInfo
}

// RuntimeInfo is what a runtime loader needs to place and launch the
// compiled kernels.
type RuntimeInfo struct {
	// PointerSize is the target pointer width in bytes.
	PointerSize int
	Kernels     []KernelRecord
}

// KernelRecord describes one compiled kernel.
type KernelRecord struct {
	Name      string
	SIMDWidth int
	// GRFCount is the register high-water mark, reservations included.
	GRFCount    int
	SpillSize   int
	ScratchSize int
	// Binary is this kernel's encoded instruction stream.
	Binary []byte
	Args   []ArgInfo
	// DebugInfo carries per-variable records when debuggable kernels
	// were requested, nil otherwise.
	DebugInfo *visa.KernelInfo
}

// ArgKind classifies a kernel argument.
type ArgKind uint8

const (
	// ArgValue is passed by value in the argument payload.
	ArgValue ArgKind = iota
	// ArgBuffer is a memory surface passed by address.
	ArgBuffer
)

// ArgInfo locates one kernel argument in the launch payload.
type ArgInfo struct {
	Index  int
	Kind   ArgKind
	Size   int
	Offset int
}
