package driver

import (
	"vexc/internal/target"
	"vexc/ir"
)

// configureTarget normalizes the module's triple, resolves the feature
// string and creates the machine the rest of the pipeline compiles
// against. The module's triple and data layout are rewritten to the
// configured values.
func configureTarget(m *ir.Module, opts *CompileOptions) (*target.Machine, error) {
	target.Initialize()

	triple := target.Normalize(m.Triple)
	m.Triple = triple.String()

	// A registry miss here means target registration is broken, which
	// Lookup treats as the bug it is.
	tgt := target.Lookup(triple.Arch)

	level := target.OptDefault
	if opts.OptLevel == OptNone {
		level = target.OptNone
	}
	mach, err := tgt.CreateMachine(triple, opts.CPU, buildFeatures(opts),
		target.Options{AllowFPOpFusion: opts.FPContract}, level)
	if err != nil {
		return nil, &TargetMachineError{Triple: triple.String(), CPU: opts.CPU}
	}
	m.DataLayout = mach.DataLayout()
	return mach, nil
}

// buildFeatures renders the subtarget feature string: the user's list
// first, then the features the resolved options imply.
func buildFeatures(opts *CompileOptions) string {
	var fl target.FeatureList
	if opts.Features != "" {
		fl.AddUser(opts.Features)
	}
	if opts.HasL1ReadOnlyCache {
		fl.Add(target.FeatureL1ReadOnlyCache, true)
	}
	if opts.SuppressLocalMemFence {
		fl.Add(target.FeatureSupressLocalMemFence, true)
	}
	if opts.NoVecDecomposition {
		fl.Add(target.FeatureNoVecDecomp, true)
	}
	if opts.NoJumpTables {
		fl.Add(target.FeatureNoJumpTables, true)
	}
	if opts.TranslateLegacyIntrinsics {
		fl.Add(target.FeatureLegacyMessage, true)
	}
	if opts.Binary == BinaryOCL || opts.Binary == BinaryZE {
		fl.Add(target.FeatureOCLRuntime, true)
	}
	return fl.String()
}
