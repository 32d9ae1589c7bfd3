package backend

// BiFKind indexes the builtin function modules handed in by the
// embedder.
type BiFKind uint8

const (
	// BiFGeneric holds the target-independent builtins.
	BiFGeneric BiFKind = iota
	// BiFEmulation holds software emulation routines for operations
	// the hardware lacks.
	BiFEmulation
	// BiFPortable holds builtins referenced by portable packages.
	BiFPortable
	// BiFPrintf holds the printf implementation matching the pointer
	// width.
	BiFPrintf
	// NumBiFKinds bounds the kind space.
	NumBiFKinds
)

func (k BiFKind) String() string {
	switch k {
	case BiFGeneric:
		return "generic"
	case BiFEmulation:
		return "emulation"
	case BiFPortable:
		return "portable"
	case BiFPrintf:
		return "printf"
	}
	return "unknown"
}

// Data carries the builtin modules selected for one compilation. The
// byte slices are borrowed from the caller and never written to.
type Data struct {
	modules [NumBiFKinds][]byte
}

// SetModule installs the builtin payload for a kind.
func (d *Data) SetModule(kind BiFKind, payload []byte) {
	d.modules[kind] = payload
}

// Module returns the builtin payload for a kind, nil when absent.
func (d *Data) Module(kind BiFKind) []byte {
	return d.modules[kind]
}
