package target

import (
	"fmt"
	"strings"
)

// OptLevel is the code generation optimization level.
type OptLevel uint8

const (
	// OptNone compiles for debuggability.
	OptNone OptLevel = iota
	// OptDefault applies the standard optimization pipeline.
	OptDefault
)

// FPFusion controls floating-point operation fusion.
type FPFusion uint8

const (
	// FPFusionStandard fuses where the language rules allow it.
	FPFusionStandard FPFusion = iota
	// FPFusionFast fuses aggressively.
	FPFusionFast
	// FPFusionStrict never fuses.
	FPFusionStrict
)

// Options configures machine creation beyond CPU and features.
type Options struct {
	AllowFPOpFusion FPFusion
}

// Machine is a target configured for one compilation: a triple, a CPU
// and a resolved feature set.
type Machine struct {
	Target   *Target
	Triple   Triple
	CPU      CPU
	Level    OptLevel
	Opts     Options
	features map[string]bool
	order    []string
}

// CreateMachine configures a machine. The features string is the
// "+name,-name" form produced by FeatureList. An unknown CPU name is
// an input error, not a bug: the name travels in from the command
// line.
func (t *Target) CreateMachine(triple Triple, cpuName, features string, opts Options, level OptLevel) (*Machine, error) {
	if cpuName == "" {
		cpuName = t.DefaultCPU
	}
	cpu, ok := t.CPUs[cpuName]
	if !ok {
		return nil, fmt.Errorf("target %s does not define cpu %q", t.Name, cpuName)
	}
	m := &Machine{
		Target:   t,
		Triple:   triple,
		CPU:      cpu,
		Level:    level,
		Opts:     opts,
		features: make(map[string]bool),
	}
	for _, f := range strings.Split(features, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if f[0] != '+' && f[0] != '-' {
			panic(fmt.Errorf("target: feature %q lacks a +/- prefix", f))
		}
		name := f[1:]
		if _, seen := m.features[name]; !seen {
			m.order = append(m.order, name)
		}
		m.features[name] = f[0] == '+'
	}
	return m, nil
}

// HasFeature reports whether the named feature is enabled.
func (m *Machine) HasFeature(name string) bool { return m.features[name] }

// Features returns the resolved features in first-seen order, rendered
// back into "+name"/"-name" form.
func (m *Machine) Features() []string {
	out := make([]string, 0, len(m.order))
	for _, name := range m.order {
		if m.features[name] {
			out = append(out, "+"+name)
		} else {
			out = append(out, "-"+name)
		}
	}
	return out
}

// PointerSizeBits returns the pointer width implied by the triple.
func (m *Machine) PointerSizeBits() int {
	if m.Triple.Is32Bit() {
		return 32
	}
	return 64
}

// DataLayout renders the layout string modules compiled on this
// machine carry.
func (m *Machine) DataLayout() string {
	if m.PointerSizeBits() == 32 {
		return "e-p:32:32-i64:64-n8:16:32:64"
	}
	return "e-p:64:64-i64:64-n8:16:32:64"
}
