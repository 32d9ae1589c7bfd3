package target

import (
	"fmt"
	"strings"
)

// Feature names the backend understands. User feature strings may also
// carry names outside this list; machines keep them verbatim.
const (
	// FeatureOCLRuntime marks modules compiled for a runtime-packaged
	// binary kind.
	FeatureOCLRuntime = "ocl_runtime"
	// FeatureL1ReadOnlyCache enables read-only L1 data caching.
	FeatureL1ReadOnlyCache = "has_l1_read_only_cache"
	// FeatureSupressLocalMemFence drops redundant local memory fences.
	FeatureSupressLocalMemFence = "supress_local_mem_fence"
	// FeatureNoVecDecomp disables vector decomposition.
	FeatureNoVecDecomp = "disable_vec_decomp"
	// FeatureNoJumpTables disables jump table emission.
	FeatureNoJumpTables = "disable_jump_tables"
	// FeatureLegacyMessage translates legacy memory intrinsics.
	FeatureLegacyMessage = "translate_legacy_message"
)

// FeatureList builds a subtarget feature string, preserving insertion
// order the way the machinery downstream expects.
type FeatureList struct {
	feats []string
}

// Add appends one feature with an explicit polarity.
func (l *FeatureList) Add(name string, enabled bool) {
	prefix := "-"
	if enabled {
		prefix = "+"
	}
	l.feats = append(l.feats, prefix+name)
}

// AddUser splits a user-supplied comma-separated feature list and
// appends each entry. Every non-empty entry must carry a '+' or '-'
// prefix; anything else is a caller bug and panics.
func (l *FeatureList) AddUser(spec string) {
	for _, raw := range strings.Split(spec, ",") {
		f := strings.TrimSpace(raw)
		if f == "" {
			continue
		}
		switch f[0] {
		case '+':
			l.Add(f[1:], true)
		case '-':
			l.Add(f[1:], false)
		default:
			panic(fmt.Errorf("target: feature %q lacks a +/- prefix", f))
		}
	}
}

// String joins the accumulated features with commas.
func (l *FeatureList) String() string {
	return strings.Join(l.feats, ",")
}
