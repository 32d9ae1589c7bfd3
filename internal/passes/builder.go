package passes

// Builder assembles the standard pipeline for an optimization level.
// Vectorization stays off and the inlining threshold is fixed policy;
// only the level varies between compilations.
type Builder struct {
	// OptLevel is 0 or 2.
	OptLevel int
	// InlineThreshold caps the size of unannotated inline candidates.
	InlineThreshold int
	// EnableSLP turns on superword combining.
	EnableSLP bool
}

// Build returns the pipeline for the configured level. Level 0 still
// honors alwaysinline, matching what debuggable builds expect.
func (b Builder) Build() *Pipeline {
	p := &Pipeline{}
	if b.OptLevel == 0 {
		p.Add(AlwaysInliner())
		return p
	}
	p.Add(
		Inliner(b.InlineThreshold),
		Peephole(),
		SimplifyCFG(),
		DCE(),
	)
	if b.EnableSLP {
		p.Add(VecCombine())
	}
	p.Add(GlobalDCE())
	return p
}

// Fixups returns the pipeline run right after loading, before any
// optimization: legacy name adaptation and intrinsic attribute
// restoration. It runs at every level.
func Fixups() *Pipeline {
	p := &Pipeline{}
	p.Add(ReaderAdaptor(), RestoreIntrinsicAttrs())
	return p
}
