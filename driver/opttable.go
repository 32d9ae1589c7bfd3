package driver

import "vexc/internal/opt"

// Option families. API options split into the current set, the set
// shared with the wrapping compiler, and the deprecated compatibility
// set; a parsed list is filtered down to exactly one of them.
const (
	VCApiOption opt.Flags = 1 << iota
	IGCApiOption
	IgcmcApiOption
	VCInternalOption
	IGCInternalOption
)

// API option IDs.
const (
	OptAPICodegen opt.ID = opt.FirstDeclared + iota
	OptAPIIgcmc
	OptAPIOptimize
	OptAPIOptDisable
	OptAPIFPContract
	OptAPIDebug
	OptAPINoVecDecomp
	OptAPINoVecDecompIgcmc
	OptAPINoStructSplitting
	OptAPINoJumpTables
	OptAPITranslateLegacy
	OptAPIDisableFinalizerMsg
	OptAPILargeGRF
	OptAPIPlain2DImages
	OptAPIPreemption
	OptAPIStatelessPrivateSize
	OptAPIIgcmcStackSize
	OptAPIXFinalizer
	OptAPIIgcmcVisaOpts
	OptAPIGTPinReRA
	OptAPIGTPinGRFInfo
	OptAPIGTPinScratchSize
	OptAPIGTPinReRAIntel
	OptAPIGTPinGRFInfoIntel
	OptAPIGTPinScratchSizeIntel
	OptAPICLStd
	OptAPICLOptDisable
)

// Internal option IDs.
const (
	OptIntBinaryFormat opt.ID = opt.FirstDeclared + iota
	OptIntCPU
	OptIntTargetFeatures
	OptIntDumpIR
	OptIntDumpISA
	OptIntDumpAsm
	OptIntDumpDebugInfo
	OptIntTimeReport
	OptIntPrintStats
	OptIntStatsFile
	OptIntBindlessBuffers
	OptIntFunctionControl
	OptIntNoOptFinalizer
	OptIntDisableLRCoalescing
	OptIntEmitBreakpoints
	OptIntL1ReadOnlyCache
	OptIntLocalMemFence
	OptIntBackendOptions
	OptIntLargeBuffers
	OptIntHelp
	OptIntHelpInternal
)

var apiTable = opt.NewTable([]opt.Option{
	{ID: OptAPICodegen, Name: "vc-codegen", Kind: opt.KindFlag, Flags: VCApiOption,
		Help: "request vector compilation"},
	{ID: OptAPIIgcmc, Name: "igcmc", Kind: opt.KindFlag, Flags: IgcmcApiOption,
		Help: "deprecated, use -vc-codegen"},
	{ID: OptAPIOptimize, Name: "vc-optimize", Kind: opt.KindJoined, Flags: VCApiOption,
		MetaVar: "<none|full>", Help: "set optimization level"},
	{ID: OptAPIOptDisable, Name: "ze-opt-disable", Kind: opt.KindFlag, Flags: VCApiOption | IGCApiOption,
		Help: "disable optimization"},
	{ID: OptAPIFPContract, Name: "ffp-contract", Kind: opt.KindJoined, Flags: VCApiOption | IGCApiOption,
		MetaVar: "<on|fast|off>", Help: "floating-point fusion mode"},
	{ID: OptAPIDebug, Name: "g", Kind: opt.KindFlag, Flags: VCApiOption | IGCApiOption,
		Help: "emit debuggable kernels"},
	{ID: OptAPINoVecDecomp, Name: "no-vector-decomposition", Kind: opt.KindFlag, Flags: VCApiOption,
		Help: "keep wide vectors whole"},
	{ID: OptAPINoVecDecompIgcmc, Name: "no_vector_decomposition", Kind: opt.KindFlag,
		Flags: IgcmcApiOption, Alias: OptAPINoVecDecomp,
		Help: "deprecated spelling of -no-vector-decomposition"},
	{ID: OptAPINoStructSplitting, Name: "vc-fno-struct-splitting", Kind: opt.KindFlag, Flags: VCApiOption,
		Help: "do not split structures"},
	{ID: OptAPINoJumpTables, Name: "vc-fno-jump-tables", Kind: opt.KindFlag, Flags: VCApiOption,
		Help: "do not build jump tables for switches"},
	{ID: OptAPITranslateLegacy, Name: "vc-ftranslate-legacy-memory-intrinsics", Kind: opt.KindFlag,
		Flags: VCApiOption, Help: "rewrite legacy memory intrinsics"},
	{ID: OptAPIDisableFinalizerMsg, Name: "vc-disable-finalizer-msg", Kind: opt.KindFlag, Flags: VCApiOption,
		Help: "silence finalizer messages"},
	{ID: OptAPILargeGRF, Name: "ze-opt-large-register-file", Kind: opt.KindFlag, Flags: VCApiOption | IGCApiOption,
		Help: "use the large register file"},
	{ID: OptAPIPlain2DImages, Name: "vc-use-plain-2d-images", Kind: opt.KindFlag, Flags: VCApiOption,
		Help: "treat 2d images as plain buffers"},
	{ID: OptAPIPreemption, Name: "vc-enable-preemption", Kind: opt.KindFlag, Flags: VCApiOption,
		Help: "enable mid-thread preemption"},
	{ID: OptAPIStatelessPrivateSize, Name: "vc-stateless-private-size", Kind: opt.KindJoined,
		Flags: VCApiOption, MetaVar: "<bytes>", Help: "stateless private memory per thread"},
	{ID: OptAPIIgcmcStackSize, Name: "igcmc_stack_size", Kind: opt.KindJoined,
		Flags: IgcmcApiOption, Alias: OptAPIStatelessPrivateSize,
		Help: "deprecated spelling of -vc-stateless-private-size"},
	{ID: OptAPIXFinalizer, Name: "Xfinalizer", Kind: opt.KindSeparate, Flags: VCApiOption,
		MetaVar: "<option>", Help: "pass an option to the finalizer"},
	{ID: OptAPIIgcmcVisaOpts, Name: "igcmc_visaopts", Kind: opt.KindSeparate,
		Flags: IgcmcApiOption, MetaVar: "<options>",
		Help: "pass options to the finalizer"},
	{ID: OptAPIGTPinReRA, Name: "gtpin-rera", Kind: opt.KindFlag, Flags: VCApiOption | IGCApiOption,
		Help: "enable gtpin re-allocation"},
	{ID: OptAPIGTPinGRFInfo, Name: "gtpin-grf-info", Kind: opt.KindFlag, Flags: VCApiOption | IGCApiOption,
		Help: "collect free register information for gtpin"},
	{ID: OptAPIGTPinScratchSize, Name: "gtpin-scratch-area-size", Kind: opt.KindJoined,
		Flags: VCApiOption | IGCApiOption, MetaVar: "<bytes>", Help: "reserve gtpin scratch"},
	{ID: OptAPIGTPinReRAIntel, Name: "cl-intel-gtpin-rera", Kind: opt.KindFlag,
		Flags: IGCApiOption | IgcmcApiOption, Alias: OptAPIGTPinReRA,
		Help: "enable gtpin re-allocation"},
	{ID: OptAPIGTPinGRFInfoIntel, Name: "cl-intel-gtpin-grf-info", Kind: opt.KindFlag,
		Flags: IGCApiOption | IgcmcApiOption, Alias: OptAPIGTPinGRFInfo,
		Help: "collect free register information for gtpin"},
	{ID: OptAPIGTPinScratchSizeIntel, Name: "cl-intel-gtpin-scratch-area-size", Kind: opt.KindJoined,
		Flags: IGCApiOption | IgcmcApiOption, Alias: OptAPIGTPinScratchSize,
		Help: "reserve gtpin scratch"},
	{ID: OptAPICLStd, Name: "cl-std", Kind: opt.KindJoined, Flags: IGCApiOption,
		MetaVar: "<version>", Help: "language standard (ignored)"},
	{ID: OptAPICLOptDisable, Name: "cl-opt-disable", Kind: opt.KindFlag, Flags: IGCApiOption,
		Help: "disable optimization (ignored)"},
})

var internalTable = opt.NewTable([]opt.Option{
	{ID: OptIntBinaryFormat, Name: "binary-format", Kind: opt.KindJoined, Flags: VCInternalOption,
		MetaVar: "<cm|ocl|ze>", Help: "select output packaging"},
	{ID: OptIntCPU, Name: "mcpu", Kind: opt.KindJoined, Flags: VCInternalOption,
		MetaVar: "<name>", Help: "target hardware generation"},
	{ID: OptIntTargetFeatures, Name: "target-features", Kind: opt.KindJoined, Flags: VCInternalOption,
		MetaVar: "<list>", Help: "comma-separated +feature/-feature list"},
	{ID: OptIntDumpIR, Name: "dump-ir", Kind: opt.KindFlag, Flags: VCInternalOption,
		Help: "dump module snapshots between stages"},
	{ID: OptIntDumpISA, Name: "dump-isa-binary", Kind: opt.KindFlag, Flags: VCInternalOption,
		Help: "dump the encoded kernel container"},
	{ID: OptIntDumpAsm, Name: "dump-asm", Kind: opt.KindFlag, Flags: VCInternalOption,
		Help: "dump per-kernel assembly listings"},
	{ID: OptIntDumpDebugInfo, Name: "dump-debug-info", Kind: opt.KindFlag, Flags: VCInternalOption,
		Help: "dump per-kernel debug records"},
	{ID: OptIntTimeReport, Name: "ftime-report", Kind: opt.KindFlag, Flags: VCInternalOption,
		Help: "report pass timings on stderr"},
	{ID: OptIntPrintStats, Name: "print-stats", Kind: opt.KindFlag, Flags: VCInternalOption,
		Help: "report compilation statistics on stderr"},
	{ID: OptIntStatsFile, Name: "stats-file", Kind: opt.KindJoined, Flags: VCInternalOption,
		MetaVar: "<path>", Help: "write statistics as json"},
	{ID: OptIntBindlessBuffers, Name: "use-bindless-buffers", Kind: opt.KindFlag, Flags: VCInternalOption,
		Help: "access buffers through bindless surfaces"},
	{ID: OptIntFunctionControl, Name: "vc-function-control", Kind: opt.KindJoined, Flags: VCInternalOption,
		MetaVar: "<default|stackcall>", Help: "calling convention for non-kernel functions"},
	{ID: OptIntNoOptFinalizer, Name: "no-opt-finalizer", Kind: opt.KindFlag, Flags: VCInternalOption,
		Help: "run the finalizer without scheduling or compaction"},
	{ID: OptIntDisableLRCoalescing, Name: "disable-lr-coalescing", Kind: opt.KindFlag, Flags: VCInternalOption,
		Help: "disable live-range coalescing"},
	{ID: OptIntEmitBreakpoints, Name: "emit-breakpoints", Kind: opt.KindFlag, Flags: VCInternalOption,
		Help: "insert breakpoints after kernel prologues"},
	{ID: OptIntL1ReadOnlyCache, Name: "has-l1-read-only-cache", Kind: opt.KindFlag, Flags: VCInternalOption,
		Help: "assume an l1 read-only cache"},
	{ID: OptIntLocalMemFence, Name: "suppress-local-mem-fence", Kind: opt.KindFlag, Flags: VCInternalOption,
		Help: "drop fences covering only local memory"},
	{ID: OptIntBackendOptions, Name: "backend-options", Kind: opt.KindSeparate, Flags: VCInternalOption,
		MetaVar: "<flags>", Help: "pass flags through to the backend"},
	{ID: OptIntLargeBuffers, Name: "cl-intel-greater-than-4GB-buffer-required", Kind: opt.KindFlag,
		Flags: IGCInternalOption, Help: "allow buffers above 4 gb (ignored)"},
	{ID: OptIntHelp, Name: "help", Kind: opt.KindFlag, Flags: VCInternalOption,
		Help: "print the api option table"},
	{ID: OptIntHelpInternal, Name: "help-internal", Kind: opt.KindFlag, Flags: VCInternalOption,
		Help: "print the internal option table"},
})
