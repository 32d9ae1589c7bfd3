package visa

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// grfBytes is the width of one register in bytes.
const grfBytes = 32

// FinalizeOptions tune the finalizer. They arrive as option fragments
// on the command line and are decoded by ParseFinalizeOptions.
type FinalizeOptions struct {
	// NoSchedule disables the send hoisting pass.
	NoSchedule bool
	// NoCompaction keeps every instruction in its full encoding.
	NoCompaction bool
	// GTPinReRA reserves a register for GTPin instrumentation.
	GTPinReRA bool
	// GTPinGRFInfo records the free register count on the kernel.
	GTPinGRFInfo bool
	// ReRAPostSchedule recomputes live ranges after scheduling
	// instead of allocating against the original order.
	ReRAPostSchedule bool
	// ScratchAreaSize adds extra scratch space, in bytes.
	ScratchAreaSize int
}

// ParseFinalizeOptions decodes finalizer option fragments. Each
// fragment may carry several whitespace separated tokens. Unknown
// tokens are ignored so newer producers stay compatible.
func ParseFinalizeOptions(frags []string) FinalizeOptions {
	var fo FinalizeOptions
	for _, frag := range frags {
		toks := strings.Fields(frag)
		for i := 0; i < len(toks); i++ {
			switch toks[i] {
			case "-noschedule":
				fo.NoSchedule = true
			case "-nocompaction":
				fo.NoCompaction = true
			case "-GTPinReRA":
				fo.GTPinReRA = true
			case "-getfreegrfinfo":
				fo.GTPinGRFInfo = true
			case "-rerapostschedule":
				fo.ReRAPostSchedule = true
			case "-GTPinScratchAreaSize":
				if i+1 < len(toks) {
					if n, err := strconv.Atoi(toks[i+1]); err == nil && n >= 0 {
						fo.ScratchAreaSize = n
					}
					i++
				}
			}
		}
	}
	return fo
}

// RegAssign records where one declaration ended up.
type RegAssign struct {
	// Slot is the first register index, valid when not spilled.
	Slot int
	// Regs is how many consecutive registers the value occupies.
	Regs int
	// Spilled means the value lives in scratch at Offset.
	Spilled bool
	Offset  int
}

// Kernel is one finalized kernel: its binary encoding plus the
// resource accounting runtimes and tools ask about.
type Kernel struct {
	Name         string
	SIMDWidth    int
	Binary       []byte
	GRFUsed      int
	SpillBytes   int
	ScratchBytes int
	// FreeGRFs is populated only when GTPinGRFInfo was requested.
	FreeGRFs int
	// Insts is the scheduled stream Binary was encoded from.
	Insts []Inst
	Decls []Decl
	Alloc map[uint32]RegAssign
	// Info carries per-variable debug records when requested.
	Info *KernelInfo
}

// Finalize resolves branches, schedules, assigns registers within
// grfCount registers and encodes the stream. Register zero stays
// reserved for the thread payload. When debug is set, per-variable
// records are collected into Kernel.Info.
func Finalize(b *Builder, fo FinalizeOptions, grfCount int, debug bool) (*Kernel, error) {
	if grfCount < 2 {
		panic(fmt.Errorf("finalize %s: register file of %d is too small", b.Name(), grfCount))
	}
	if err := b.Finish(); err != nil {
		return nil, err
	}

	insts := append([]Inst(nil), b.Insts()...)
	if !fo.NoSchedule {
		insts = hoistSends(insts)
	}

	rangeOrder := b.Insts()
	if fo.ReRAPostSchedule || fo.NoSchedule {
		rangeOrder = insts
	}
	reserved := 1
	if fo.GTPinReRA {
		reserved++
	}
	alloc, used, spill := allocate(b.Decls(), rangeOrder, grfCount-reserved)
	used += reserved

	k := &Kernel{
		Name:         b.Name(),
		SIMDWidth:    b.SIMD(),
		GRFUsed:      used,
		SpillBytes:   spill,
		ScratchBytes: spill + fo.ScratchAreaSize,
		Insts:        insts,
		Decls:        b.Decls(),
		Alloc:        alloc,
	}
	if fo.GTPinGRFInfo {
		k.FreeGRFs = grfCount - used
	}
	k.Binary = encodeInsts(insts, !fo.NoCompaction)
	if debug {
		k.Info = collectVarInfo(b.Decls(), insts, alloc)
	}
	return k, nil
}

// hoistSends bubbles read messages earlier within their straight line
// region so their latency overlaps preceding work. Region boundaries
// sit at branch targets and after control transfers, which keeps every
// resolved Target pointing at the instruction it named.
func hoistSends(insts []Inst) []Inst {
	boundary := make([]bool, len(insts)+1)
	boundary[0] = true
	for i, in := range insts {
		switch in.Op {
		case OpJmp, OpBrc:
			boundary[in.Target] = true
			boundary[i+1] = true
		case OpCall, OpRet, OpBarrier, OpFence, OpEOT:
			boundary[i+1] = true
		}
	}
	for i := 1; i < len(insts); i++ {
		if insts[i].Op != OpSend || insts[i].Aux != SendRead {
			continue
		}
		for j := i; j > 0 && !boundary[j] && mayHoistOver(insts[j], insts[j-1]); j-- {
			insts[j], insts[j-1] = insts[j-1], insts[j]
		}
	}
	return insts
}

// mayHoistOver reports whether send may move above prev without
// changing results. Sends never reorder against other sends or
// synchronization.
func mayHoistOver(send, prev Inst) bool {
	switch prev.Op {
	case OpSend, OpBarrier, OpFence, OpCall, OpRet, OpJmp, OpBrc, OpEOT:
		return false
	}
	if prev.Dst.Kind == OperandReg {
		for _, s := range send.Srcs {
			if s.Kind == OperandReg && s.Reg == prev.Dst.Reg {
				return false
			}
		}
		if send.Dst.Kind == OperandReg && send.Dst.Reg == prev.Dst.Reg {
			return false
		}
	}
	if send.Dst.Kind == OperandReg {
		for _, s := range prev.Srcs {
			if s.Kind == OperandReg && s.Reg == send.Dst.Reg {
				return false
			}
		}
	}
	return true
}

type liveRange struct {
	id          uint32
	start, end  int
	regs, bytes int
}

// allocate runs a linear scan over declaration live ranges, reusing
// registers once their last use passes. Values that cannot fit the
// budget move to scratch. It returns the assignment map, the register
// high water mark and total spill bytes.
func allocate(decls []Decl, insts []Inst, budget int) (map[uint32]RegAssign, int, int) {
	ranges := liveRanges(decls, insts)
	alloc := make(map[uint32]RegAssign, len(decls))

	inUse := make([]bool, budget)
	type active struct {
		end        int
		slot, regs int
	}
	var live []active
	highWater := 0
	spillOff := 0

	for _, r := range ranges {
		kept := live[:0]
		for _, a := range live {
			if a.end < r.start {
				for s := a.slot; s < a.slot+a.regs; s++ {
					inUse[s] = false
				}
				continue
			}
			kept = append(kept, a)
		}
		live = kept

		slot := findRun(inUse, r.regs)
		if slot < 0 {
			off := spillOff
			spillOff += roundUp(r.bytes, grfBytes)
			alloc[r.id] = RegAssign{Spilled: true, Offset: off}
			continue
		}
		for s := slot; s < slot+r.regs; s++ {
			inUse[s] = true
		}
		live = append(live, active{end: r.end, slot: slot, regs: r.regs})
		alloc[r.id] = RegAssign{Slot: slot, Regs: r.regs}
		if top := slot + r.regs; top > highWater {
			highWater = top
		}
	}
	return alloc, highWater, spillOff
}

// liveRanges computes first and last use per declaration, ordered by
// first use. Declarations never referenced get no range and no
// register.
func liveRanges(decls []Decl, insts []Inst) []liveRange {
	first := make(map[uint32]int)
	last := make(map[uint32]int)
	touch := func(id uint32, at int) {
		if _, ok := first[id]; !ok {
			first[id] = at
		}
		last[id] = at
	}
	for i, in := range insts {
		if in.Dst.Kind == OperandReg {
			touch(in.Dst.Reg, i)
		}
		for _, s := range in.Srcs {
			if s.Kind == OperandReg {
				touch(s.Reg, i)
			}
		}
	}
	ranges := make([]liveRange, 0, len(first))
	for _, d := range decls {
		start, ok := first[d.ID]
		if !ok {
			continue
		}
		regs := (d.Bytes + grfBytes - 1) / grfBytes
		if regs < 1 {
			regs = 1
		}
		ranges = append(ranges, liveRange{
			id:    d.ID,
			start: start,
			end:   last[d.ID],
			regs:  regs,
			bytes: d.Bytes,
		})
	}
	sort.Slice(ranges, func(i, j int) bool {
		if ranges[i].start != ranges[j].start {
			return ranges[i].start < ranges[j].start
		}
		return ranges[i].id < ranges[j].id
	})
	return ranges
}

// findRun locates the lowest run of n free registers, or -1.
func findRun(inUse []bool, n int) int {
	run := 0
	for i, used := range inUse {
		if used {
			run = 0
			continue
		}
		run++
		if run == n {
			return i - n + 1
		}
	}
	return -1
}

func roundUp(v, to int) int {
	return (v + to - 1) / to * to
}

// collectVarInfo derives per-variable debug records from the
// declarations, the scheduled stream and the register assignment.
func collectVarInfo(decls []Decl, insts []Inst, alloc map[uint32]RegAssign) *KernelInfo {
	info := NewKernelInfo()
	for _, d := range decls {
		a, allocated := alloc[d.ID]
		v := &VarInfo{
			Line:     d.Line,
			SrcFile:  d.SrcFile,
			Size:     d.Bytes,
			TypeCode: storageCode(d.Bytes),
			Uniform:  d.Uniform,
			Const:    d.Const,
		}
		if allocated {
			v.Spilled = a.Spilled
			v.PromotedToGRF = !a.Spilled
		}
		info.Insert(int(d.ID), v)
	}
	for _, in := range insts {
		if in.Op != OpSend {
			continue
		}
		for _, s := range in.Srcs {
			markAccess(info, s, MemStateless)
		}
		markAccess(info, in.Dst, MemStateless)
	}
	countConflicts(info, insts, alloc)
	return info
}

func markAccess(info *KernelInfo, o Operand, access MemAccess) {
	if o.Kind != OperandReg {
		return
	}
	if v, ok := info.Get(int(o.Reg)); ok {
		v.Access = access
	}
}

// countConflicts flags two source operands of one instruction landing
// in the same register bank. Banks interleave by register parity.
func countConflicts(info *KernelInfo, insts []Inst, alloc map[uint32]RegAssign) {
	for _, in := range insts {
		var regs []uint32
		for _, s := range in.Srcs {
			if s.Kind == OperandReg {
				regs = append(regs, s.Reg)
			}
		}
		if len(regs) < 2 {
			continue
		}
		for i := 0; i < len(regs); i++ {
			for j := i + 1; j < len(regs); j++ {
				ai, oki := alloc[regs[i]]
				aj, okj := alloc[regs[j]]
				if !oki || !okj || ai.Spilled || aj.Spilled {
					continue
				}
				if ai.Slot%2 != aj.Slot%2 {
					continue
				}
				for _, id := range []uint32{regs[i], regs[j]} {
					if v, ok := info.Get(int(id)); ok {
						v.Conflicts.Count++
						v.Conflicts.SameBank++
						v.Conflicts.TwoSrc++
					}
				}
			}
		}
	}
}

// storageCode classifies a variable's storage granularity for debug
// consumers: 0 byte, 1 word, 2 dword, 3 qword.
func storageCode(bytes int) int16 {
	switch {
	case bytes%8 == 0:
		return 3
	case bytes%4 == 0:
		return 2
	case bytes%2 == 0:
		return 1
	default:
		return 0
	}
}
