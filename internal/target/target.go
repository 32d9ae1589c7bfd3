package target

import (
	"fmt"
	"sync"
)

// CPU describes one hardware generation of a target.
type CPU struct {
	Name string
	// GRFCount is the default register file size available to the
	// finalizer; LargeGRFCount is the size in large-register mode.
	GRFCount      int
	LargeGRFCount int
	// ISAMajor and ISAMinor version the encoded kernel containers.
	ISAMajor uint8
	ISAMinor uint8
	// SLMBytes is the shared local memory per workgroup.
	SLMBytes int
	// DefaultSIMD is the execution width kernels compile to unless an
	// instruction narrows it.
	DefaultSIMD int
}

// Target groups the CPUs reachable through one architecture family.
type Target struct {
	Name        string
	Description string
	CPUs        map[string]CPU
	DefaultCPU  string
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*Target)
)

// Register makes t reachable through the given architecture names.
func Register(t *Target, archs ...string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	for _, a := range archs {
		registry[a] = t
	}
}

// Lookup resolves the target for an architecture. The architectures
// asked about here come out of Normalize, so a miss means Initialize
// was never called or the registry is broken; both are bugs.
func Lookup(arch string) *Target {
	registryMu.RLock()
	defer registryMu.RUnlock()
	t, ok := registry[arch]
	if !ok {
		panic(fmt.Errorf("target: no target registered for arch %q", arch))
	}
	return t
}

var initOnce sync.Once

// Initialize registers the vector GPU target. Safe to call more than
// once.
func Initialize() {
	initOnce.Do(func() {
		genx := &Target{
			Name:        "genx",
			Description: "vector GPU codegen",
			DefaultCPU:  "Gen9",
			CPUs: map[string]CPU{
				"Gen8":  {Name: "Gen8", GRFCount: 128, LargeGRFCount: 128, ISAMajor: 3, ISAMinor: 0, SLMBytes: 64 << 10, DefaultSIMD: 16},
				"Gen9":  {Name: "Gen9", GRFCount: 128, LargeGRFCount: 128, ISAMajor: 3, ISAMinor: 1, SLMBytes: 64 << 10, DefaultSIMD: 16},
				"Gen11": {Name: "Gen11", GRFCount: 128, LargeGRFCount: 128, ISAMajor: 3, ISAMinor: 4, SLMBytes: 64 << 10, DefaultSIMD: 16},
				"XeLP":  {Name: "XeLP", GRFCount: 128, LargeGRFCount: 128, ISAMajor: 3, ISAMinor: 5, SLMBytes: 64 << 10, DefaultSIMD: 16},
				"XeHP":  {Name: "XeHP", GRFCount: 128, LargeGRFCount: 256, ISAMajor: 3, ISAMinor: 6, SLMBytes: 128 << 10, DefaultSIMD: 16},
				"XeHPG": {Name: "XeHPG", GRFCount: 128, LargeGRFCount: 256, ISAMajor: 3, ISAMinor: 7, SLMBytes: 128 << 10, DefaultSIMD: 16},
				"XeHPC": {Name: "XeHPC", GRFCount: 128, LargeGRFCount: 256, ISAMajor: 3, ISAMinor: 8, SLMBytes: 128 << 10, DefaultSIMD: 32},
			},
		}
		Register(genx, "genx32", "genx64")
	})
}
