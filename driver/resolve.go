package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"

	"vexc/internal/opt"
	"vexc/internal/target"
)

const (
	apiUsage      = `-options "-vc-codegen [options]"`
	internalUsage = `-options "-vc-codegen" -internal_options "[options]"`
)

// ParseOptions resolves the two option strings of one compilation
// request into a CompileOptions. The api string must carry the
// vector-compilation marker; without it NotApplicableError tells the
// caller to route the request elsewhere. Internal options are never
// strict-checked: runtimes forward opencl options into the internal
// string wholesale, so unknown flags there are expected.
func ParseOptions(apiOptions, internalOptions string, strict bool) (*CompileOptions, error) {
	return parseOptions(apiOptions, internalOptions, strict, os.Stderr)
}

func parseOptions(apiOptions, internalOptions string, strict bool, warn io.Writer) (*CompileOptions, error) {
	apiList, err := parseAPIArgs(apiOptions, strict, warn)
	if err != nil {
		return nil, err
	}
	apiArgs := filterAPIArgs(apiList)

	intList, err := parseArgs(internalTable, opt.Tokenize(internalOptions),
		VCInternalOption|IGCInternalOption, false, true)
	if err != nil {
		return nil, err
	}
	intArgs := filterUsed(intList, VCInternalOption)

	opts := &CompileOptions{
		Binary:     BinaryCM,
		OptLevel:   OptFull,
		FPContract: target.FPFusionStandard,
	}
	if err := fillAPIOptions(apiArgs, opts); err != nil {
		return nil, err
	}
	if err := fillInternalOptions(intArgs, opts, warn); err != nil {
		return nil, err
	}
	opts.LowLevelFlags = composeBackendFlags(apiArgs, intArgs)
	return opts, nil
}

var igcmcWarnOnce sync.Once

// parseAPIArgs routes on the marker options before any real parsing:
// if neither is present, nothing should be parsed at all.
func parseAPIArgs(apiOptions string, strict bool, warn io.Writer) (*opt.ArgList, error) {
	argv := opt.Tokenize(apiOptions)
	if slices.Contains(argv, "-vc-codegen") {
		return parseArgs(apiTable, argv, VCApiOption|IGCApiOption, strict, false)
	}
	if slices.Contains(argv, "-igcmc") {
		igcmcWarnOnce.Do(func() {
			fmt.Fprintln(warn, "option -igcmc is deprecated and will be"+
				" removed in a future release, use -vc-codegen instead")
		})
		return parseArgs(apiTable, argv, IgcmcApiOption|IGCApiOption, strict, false)
	}
	return nil, &NotApplicableError{}
}

func parseArgs(table *opt.Table, argv []string, include opt.Flags, strict, internal bool) (*opt.ArgList, error) {
	list, err := table.Parse(argv, include)
	if err != nil {
		var missing *opt.MissingArgError
		if errors.As(err, &missing) {
			return nil, &OptionError{Arg: missing.Spelling, Internal: internal}
		}
		return nil, err
	}
	if strict {
		if a := list.Last(opt.Unknown, opt.Input); a != nil {
			return nil, &OptionError{Arg: a.String(), Internal: internal}
		}
	}
	return list, nil
}

func filterAPIArgs(list *opt.ArgList) *opt.DerivedArgList {
	if list.Has(OptAPIIgcmc) {
		return filterUsed(list, IgcmcApiOption)
	}
	return filterUsed(list, VCApiOption)
}

// filterUsed keeps the arguments contributing to this translation.
// Membership is judged by the option as spelled: an alias may sit in a
// different family than its target (the cl-intel gtpin spellings do),
// and the spelling decides.
func filterUsed(list *opt.ArgList, include opt.Flags) *opt.DerivedArgList {
	return list.Filter(func(a *opt.Arg) bool {
		return a.Spelled.Flags.Intersects(include)
	})
}

func optionError(a *opt.Arg, internal bool) error {
	return &OptionError{Arg: a.String(), Internal: internal}
}

func fillAPIOptions(args *opt.DerivedArgList, opts *CompileOptions) error {
	if args.Has(OptAPINoVecDecomp) {
		opts.NoVecDecomposition = true
	}
	if args.Has(OptAPIDebug) {
		opts.EmitExtendedDebug = true
		opts.EmitDebuggableKernels = true
	}
	if args.Has(OptAPINoStructSplitting) {
		opts.NoStructSplitting = true
	}
	if args.Has(OptAPINoJumpTables) {
		opts.NoJumpTables = true
	}
	if args.Has(OptAPITranslateLegacy) {
		opts.TranslateLegacyIntrinsics = true
	}
	if args.Has(OptAPIDisableFinalizerMsg) {
		opts.DisableFinalizerMsg = true
	}
	if args.Has(OptAPILargeGRF) {
		opts.LargeGRF = true
	}
	if args.Has(OptAPIPlain2DImages) {
		opts.UsePlain2DImages = true
	}
	if args.Has(OptAPIPreemption) {
		opts.EnablePreemption = true
	}

	if a := args.Last(OptAPIFPContract); a != nil {
		switch a.Value {
		case "on":
			opts.FPContract = target.FPFusionStandard
		case "fast":
			opts.FPContract = target.FPFusionFast
		case "off":
			opts.FPContract = target.FPFusionStrict
		default:
			return optionError(a, false)
		}
	}

	// The last of the two optimization options wins, whichever it is.
	if a := args.Last(OptAPIOptimize, OptAPIOptDisable); a != nil {
		if a.Matches(OptAPIOptimize) {
			level, ok := ParseOptimizerLevel(a.Value)
			if !ok {
				return optionError(a, false)
			}
			opts.OptLevel = level
		} else {
			opts.OptLevel = OptNone
		}
	}

	if a := args.Last(OptAPIStatelessPrivateSize); a != nil {
		size, err := strconv.ParseUint(a.Value, 0, 32)
		if err != nil {
			return optionError(a, false)
		}
		v := uint32(size)
		opts.StackMemSize = &v
	}

	return nil
}

func fillInternalOptions(args *opt.DerivedArgList, opts *CompileOptions, warn io.Writer) error {
	if args.Has(OptIntDumpISA) {
		opts.DumpISA = true
	}
	if args.Has(OptIntDumpIR) {
		opts.DumpIR = true
	}
	if args.Has(OptIntDumpAsm) {
		opts.DumpAsm = true
	}
	if args.Has(OptIntDumpDebugInfo) {
		opts.DumpDebugInfo = true
	}
	if args.Has(OptIntTimeReport) {
		opts.TimePasses = true
	}
	if args.Has(OptIntPrintStats) {
		opts.PrintStats = true
	}
	opts.StatsFile = args.LastValue(OptIntStatsFile, "")
	if args.Has(OptIntBindlessBuffers) {
		opts.UseBindlessBuffers = true
	}
	if args.Has(OptIntNoOptFinalizer) {
		opts.NoOptFinalizer = TriTrue
	}
	if args.Has(OptIntDisableLRCoalescing) {
		opts.DisableLRCoalescing = TriTrue
	}
	if args.Has(OptIntEmitBreakpoints) {
		opts.EmitBreakpoints = TriTrue
	}
	if args.Has(OptIntL1ReadOnlyCache) {
		opts.HasL1ReadOnlyCache = true
	}
	if args.Has(OptIntLocalMemFence) {
		opts.SuppressLocalMemFence = true
	}
	opts.CPU = args.LastValue(OptIntCPU, opts.CPU)

	if a := args.Last(OptIntBinaryFormat); a != nil {
		kind, ok := ParseBinaryKind(a.Value)
		if !ok {
			return optionError(a, true)
		}
		opts.Binary = kind
	}

	if a := args.Last(OptIntFunctionControl); a != nil {
		switch strings.ToLower(a.Value) {
		case "default":
			opts.FCtrl = FCtrlDefault
		case "stackcall":
			opts.FCtrl = FCtrlStackCall
		default:
			return optionError(a, true)
		}
	}

	opts.Features = strings.Join(args.Values(OptIntTargetFeatures), ",")

	// Help is informational, not terminal: downstream processing
	// continues with whatever else the strings carried.
	if args.Has(OptIntHelp) {
		apiTable.PrintHelp(warn, apiUsage, "Vector compiler options", VCApiOption)
	}
	if args.Has(OptIntHelpInternal) {
		internalTable.PrintHelp(warn, internalUsage, "Vector compiler internal options", VCInternalOption)
	}

	return nil
}

// composeBackendFlags collects every source of low-level backend flags
// into the single pass-through string the backend parses for tunables.
func composeBackendFlags(api, internal *opt.DerivedArgList) string {
	var b strings.Builder

	b.WriteString(strings.Join(internal.Values(OptIntBackendOptions), " "))

	// Finalizer options, one quoted fragment per source option.
	for _, id := range []opt.ID{OptAPIIgcmcVisaOpts, OptAPIXFinalizer} {
		vals := api.Values(id)
		if len(vals) == 0 {
			continue
		}
		b.WriteString(" -finalizer-opts='")
		b.WriteString(strings.Join(vals, " "))
		b.WriteString("'")
	}

	if api.Has(OptAPIGTPinReRA) {
		b.WriteString(" -finalizer-opts='-GTPinReRA'")
	}
	if api.Has(OptAPIGTPinGRFInfo) {
		b.WriteString(" -finalizer-opts='-getfreegrfinfo -rerapostschedule'")
	}
	if a := api.Last(OptAPIGTPinScratchSize); a != nil {
		b.WriteString(" -finalizer-opts='-GTPinScratchAreaSize ")
		b.WriteString(a.Value)
		b.WriteString("'")
	}

	return b.String()
}
