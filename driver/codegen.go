package driver

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"vexc/internal/backend"
	"vexc/internal/lower"
	"vexc/internal/target"
	"vexc/ir"
	"vexc/visa"
)

// emitBinary lowers the optimized module and packages the result for
// the requested binary kind.
func emitBinary(m *ir.Module, mach *target.Machine, opts *CompileOptions, cfg *backend.Config, dumper Dumper) (*CompileOutput, error) {
	if err := linkBuiltins(m, cfg); err != nil {
		return nil, err
	}
	kernels, err := lower.Module(m, mach, cfg)
	if err != nil {
		return nil, err
	}
	container := visa.EncodeModule(kernels, mach.CPU.ISAMajor, mach.CPU.ISAMinor)

	if opts.DumpIR {
		dumper.DumpModule(m, "final.vir")
	}
	if opts.DumpISA {
		dumper.DumpBinary(container, "final.isa")
	}
	dumpKernelArtifacts(kernels, cfg, dumper)

	switch opts.Binary {
	case BinaryCM:
		return &CompileOutput{Kind: OutputISA, ISA: container}, nil
	case BinaryOCL, BinaryZE:
		return &CompileOutput{Kind: OutputRuntime, Runtime: extractRuntimeInfo(m, kernels, mach)}, nil
	}
	panic(fmt.Sprintf("driver: unknown binary kind %d", opts.Binary))
}

// linkBuiltins pulls definitions of called-but-undefined functions out
// of the builtin payloads, bodies and referenced globals together,
// until nothing is missing or nothing more can be found. The vx.
// intrinsic namespace lowers directly and is never linked.
func linkBuiltins(m *ir.Module, cfg *backend.Config) error {
	if len(unresolvedCalls(m)) == 0 {
		return nil
	}
	libs, err := decodeBuiltins(cfg)
	if err != nil {
		return err
	}
	for {
		needed := unresolvedCalls(m)
		if len(needed) == 0 {
			return nil
		}
		pulled := false
		for _, lib := range libs {
			for name := range needed {
				def := lib.Func(name)
				if def == nil || def.IsDecl() {
					continue
				}
				adoptFunc(m, lib, def)
				pulled = true
			}
		}
		if !pulled {
			names := make([]string, 0, len(needed))
			for name := range needed {
				names = append(names, name)
			}
			sort.Strings(names)
			return fmt.Errorf("unresolved external functions: %s", strings.Join(names, ", "))
		}
	}
}

func decodeBuiltins(cfg *backend.Config) ([]*ir.Module, error) {
	kinds := []backend.BiFKind{
		backend.BiFGeneric,
		backend.BiFEmulation,
		backend.BiFPortable,
		backend.BiFPrintf,
	}
	var libs []*ir.Module
	for _, kind := range kinds {
		payload := cfg.Data.Module(kind)
		if len(payload) == 0 {
			continue
		}
		lib, err := ir.DecodeBinary(payload)
		if err != nil {
			return nil, fmt.Errorf("%s builtins: %w", kind, err)
		}
		libs = append(libs, lib)
	}
	return libs, nil
}

// unresolvedCalls returns the names of called functions with no body
// in m, vx. intrinsics excepted.
func unresolvedCalls(m *ir.Module) map[string]bool {
	needed := make(map[string]bool)
	for _, f := range m.Funcs {
		for _, blk := range f.Blocks {
			for _, in := range blk.Instrs {
				if in.Op != ir.OpCall || strings.HasPrefix(in.Callee, "vx.") {
					continue
				}
				if callee := m.Func(in.Callee); callee == nil || callee.IsDecl() {
					needed[in.Callee] = true
				}
			}
		}
	}
	return needed
}

// adoptFunc replaces m's declaration of def, or appends def when m
// never declared it, and brings the globals the body references along.
func adoptFunc(m *ir.Module, lib *ir.Module, def *ir.Func) {
	def.Kernel = false
	replaced := false
	for i, f := range m.Funcs {
		if f.Name == def.Name {
			m.Funcs[i] = def
			replaced = true
			break
		}
	}
	if !replaced {
		m.Funcs = append(m.Funcs, def)
	}
	for _, blk := range def.Blocks {
		for _, in := range blk.Instrs {
			for _, a := range in.Args {
				if a.Kind != ir.ValGlobal || m.Global(a.Name) != nil {
					continue
				}
				if g := lib.Global(a.Name); g != nil {
					m.Globals = append(m.Globals, g)
				}
			}
		}
	}
}

// extractRuntimeInfo pairs compiled kernels with their source functions
// and lays out the argument payload a loader hands to each kernel. The
// lowerer produces kernels in module order, so the pairing is by index.
func extractRuntimeInfo(m *ir.Module, kernels []*visa.Kernel, mach *target.Machine) *RuntimeInfo {
	ptrBytes := mach.PointerSizeBits() / 8
	info := &RuntimeInfo{PointerSize: ptrBytes}
	funcs := m.Kernels()
	for i, k := range kernels {
		rec := KernelRecord{
			Name:        k.Name,
			SIMDWidth:   k.SIMDWidth,
			GRFCount:    k.GRFUsed,
			SpillSize:   k.SpillBytes,
			ScratchSize: k.ScratchBytes,
			Binary:      k.Binary,
			DebugInfo:   k.Info,
		}
		if i < len(funcs) {
			rec.Args = kernelArgs(funcs[i], ptrBytes)
		}
		info.Kernels = append(info.Kernels, rec)
	}
	return info
}

// kernelArgs lays out the launch payload: natural alignment capped at
// the 8 byte payload granularity, buffers sized to one pointer.
func kernelArgs(f *ir.Func, ptrBytes int) []ArgInfo {
	var args []ArgInfo
	offset := 0
	for i, p := range f.Params {
		size := ptrBytes
		kind := ArgBuffer
		if !p.Type.IsPtr() {
			size = valueBytes(p.Type)
			kind = ArgValue
		}
		align := size
		if align > 8 {
			align = 8
		}
		offset = roundUpTo(offset, align)
		args = append(args, ArgInfo{Index: i, Kind: kind, Size: size, Offset: offset})
		offset += size
	}
	return args
}

func valueBytes(t ir.Type) int {
	return int(t.Bits+7) / 8 * t.LaneCount()
}

func roundUpTo(v, to int) int {
	return (v + to - 1) / to * to
}

func dumpKernelArtifacts(kernels []*visa.Kernel, cfg *backend.Config, dumper Dumper) {
	for _, k := range kernels {
		if cfg.Options.EnableAsmDumps {
			var buf bytes.Buffer
			if err := visa.WriteAsm(&buf, k); err == nil {
				dumper.DumpBinary(buf.Bytes(), k.Name+".asm")
			}
		}
		if cfg.Options.EnableDebugInfoDumps && k.Info != nil {
			var buf bytes.Buffer
			writeDebugText(&buf, k)
			dumper.DumpBinary(buf.Bytes(), k.Name+".dbg")
		}
	}
}

// writeDebugText renders the per-variable records as a plain listing,
// one variable per line in insertion order.
func writeDebugText(w io.Writer, k *visa.Kernel) {
	fmt.Fprintf(w, "kernel %s simd%d\n", k.Name, k.SIMDWidth)
	k.Info.Range(func(key int, v *visa.VarInfo) bool {
		name := fmt.Sprintf("v%d", key)
		if key >= 0 && key < len(k.Decls) {
			name = k.Decls[key].Name
		}
		fmt.Fprintf(w, "  %s: size %d", name, v.Size)
		if a, ok := k.Alloc[uint32(key)]; ok && !a.Spilled {
			fmt.Fprintf(w, " r%d:%d", a.Slot, a.Regs)
		}
		if v.Spilled {
			fmt.Fprint(w, " spilled")
		}
		if v.Uniform {
			fmt.Fprint(w, " uniform")
		}
		if v.Const {
			fmt.Fprint(w, " const")
		}
		fmt.Fprintln(w)
		return true
	})
}
