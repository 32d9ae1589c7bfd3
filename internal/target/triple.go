// Package target models compilation targets: triple parsing and
// normalization, the registered CPU tables, and configured machines.
package target

import "strings"

// Triple is an arch-vendor-os target description.
type Triple struct {
	Arch   string
	Vendor string
	OS     string
}

// ParseTriple splits a triple string, defaulting missing components to
// "unknown". Anything past the third dash folds into the OS component.
func ParseTriple(s string) Triple {
	t := Triple{Arch: "unknown", Vendor: "unknown", OS: "unknown"}
	parts := strings.SplitN(s, "-", 3)
	if len(parts) > 0 && parts[0] != "" {
		t.Arch = parts[0]
	}
	if len(parts) > 1 && parts[1] != "" {
		t.Vendor = parts[1]
	}
	if len(parts) > 2 && parts[2] != "" {
		t.OS = parts[2]
	}
	return t
}

func (t Triple) String() string {
	return t.Arch + "-" + t.Vendor + "-" + t.OS
}

// arch32 lists architectures with 32-bit pointers. Anything not listed
// is treated as 64-bit.
var arch32 = map[string]bool{
	"genx32":  true,
	"i386":    true,
	"i486":    true,
	"i586":    true,
	"i686":    true,
	"x86":     true,
	"arm":     true,
	"armv7":   true,
	"thumb":   true,
	"mips":    true,
	"mipsel":  true,
	"ppc":     true,
	"sparc":   true,
	"riscv32": true,
	"spir":    true,
	"wasm32":  true,
	"m68k":    true,
}

// Is32Bit reports whether the architecture uses 32-bit pointers.
func (t Triple) Is32Bit() bool { return arch32[t.Arch] }

// Normalize maps an arbitrary input triple onto the vector-compiler
// triple. Only the pointer width of the input survives: the result is
// genx32-unknown-unknown or genx64-unknown-unknown. A raw string
// beginning with "genx32" forces the 32-bit form no matter what the
// rest says.
func Normalize(raw string) Triple {
	arch := "genx64"
	if strings.HasPrefix(raw, "genx32") || ParseTriple(raw).Is32Bit() {
		arch = "genx32"
	}
	return Triple{Arch: arch, Vendor: "unknown", OS: "unknown"}
}
