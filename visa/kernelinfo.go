// Package visa models the virtual ISA side of code generation: the
// per-kernel instruction streams the lowerer builds, their
// finalization into binary form with register assignment, and the
// per-variable records debug tooling consumes.
package visa

// AddressModel says which address space a variable lives in.
type AddressModel uint8

const (
	// AddrGlobal is the flat global address space.
	AddrGlobal AddressModel = iota
	// AddrLocal is workgroup-shared local memory.
	AddrLocal
)

// MemAccess classifies how a variable reaches memory.
type MemAccess uint8

const (
	// MemNone marks variables never touching memory.
	MemNone MemAccess = iota
	// MemBlocked uses block reads and writes.
	MemBlocked
	// MemStateful goes through binding-table surfaces.
	MemStateful
	// MemStateless uses flat addresses.
	MemStateless
	// MemAtomic uses atomic messages.
	MemAtomic
)

// BankConflicts aggregates register bank conflict counts for one
// variable.
type BankConflicts struct {
	Count    int
	SameBank int
	TwoSrc   int
}

// VarInfo describes one kernel variable after finalization.
type VarInfo struct {
	Line          int
	SrcFile       string
	Size          int
	TypeCode      int16
	AddrModel     AddressModel
	Access        MemAccess
	Spilled       bool
	Uniform       bool
	Const         bool
	PromotedToGRF bool
	Conflicts     BankConflicts
}

// KernelInfo maps variable keys to their records, preserving the order
// keys were first inserted in. Iteration order is what reports and
// debug consumers see, so it must not depend on map randomization.
type KernelInfo struct {
	order []int
	vars  map[int]*VarInfo
}

// NewKernelInfo creates an empty record table.
func NewKernelInfo() *KernelInfo {
	return &KernelInfo{vars: make(map[int]*VarInfo)}
}

// Insert stores v under key. Re-inserting an existing key replaces the
// record but keeps the key's original position.
func (ki *KernelInfo) Insert(key int, v *VarInfo) {
	if _, ok := ki.vars[key]; !ok {
		ki.order = append(ki.order, key)
	}
	ki.vars[key] = v
}

// Get returns the record for key.
func (ki *KernelInfo) Get(key int) (*VarInfo, bool) {
	v, ok := ki.vars[key]
	return v, ok
}

// Len returns the number of records.
func (ki *KernelInfo) Len() int { return len(ki.order) }

// Range visits records in insertion order until fn returns false.
func (ki *KernelInfo) Range(fn func(key int, v *VarInfo) bool) {
	for _, k := range ki.order {
		if !fn(k, ki.vars[k]) {
			return
		}
	}
}
