package ir

// Module is one translation unit: a target triple, a data layout
// string, module-scope variables and functions.
type Module struct {
	Triple     string
	DataLayout string
	Globals    []*Global
	Funcs      []*Func
}

// Func returns the function named name, or nil.
func (m *Module) Func(name string) *Func {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Global returns the global named name, or nil.
func (m *Module) Global(name string) *Global {
	for _, g := range m.Globals {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// Kernels returns the kernel functions in declaration order.
func (m *Module) Kernels() []*Func {
	var ks []*Func
	for _, f := range m.Funcs {
		if f.Kernel {
			ks = append(ks, f)
		}
	}
	return ks
}

// Global is a module-scope variable. Referencing it as an operand
// yields the address; Type is the pointee value type.
type Global struct {
	Name    string
	Type    Type
	Init    int64
	HasInit bool
}

// FuncAttrs carries the function attributes the optimizer honors.
type FuncAttrs struct {
	AlwaysInline bool
	NoInline     bool
	// ReadNone marks a function without memory effects, which makes
	// unused calls to it removable.
	ReadNone bool
}

// Param is a formal function parameter.
type Param struct {
	Name string
	Type Type
}

// Func is a function definition or, when Blocks is empty, a declaration.
type Func struct {
	Name   string
	Params []Param
	Ret    Type
	Kernel bool
	Attrs  FuncAttrs
	Blocks []*Block
}

// IsDecl reports whether f has no body.
func (f *Func) IsDecl() bool { return len(f.Blocks) == 0 }

// Entry returns the entry block, or nil for declarations.
func (f *Func) Entry() *Block {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// Block returns the block labelled name, or nil.
func (f *Func) Block(name string) *Block {
	for _, b := range f.Blocks {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// Block is a labelled straight-line instruction sequence ending in a
// terminator.
type Block struct {
	Name   string
	Instrs []Instr
	Term   Terminator
}
