package lower

import (
	"testing"

	"vexc/internal/backend"
	"vexc/internal/target"
	"vexc/ir"
	"vexc/visa"
)

func testMachine(t *testing.T, cpu string) *target.Machine {
	t.Helper()
	target.Initialize()
	m, err := target.Lookup("genx64").CreateMachine(
		target.Normalize("spir64"), cpu, "", target.Options{}, target.OptDefault)
	if err != nil {
		t.Fatalf("CreateMachine: %v", err)
	}
	return m
}

func mustLower(t *testing.T, src, cpu string, cfg *backend.Config) []*visa.Kernel {
	t.Helper()
	m, err := ir.ParseModule([]byte(src))
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}
	if err := ir.Verify(m); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	ks, err := Module(m, testMachine(t, cpu), cfg)
	if err != nil {
		t.Fatalf("Module: %v", err)
	}
	return ks
}

func opcodes(k *visa.Kernel) []visa.Opcode {
	ops := make([]visa.Opcode, len(k.Insts))
	for i, in := range k.Insts {
		ops[i] = in.Op
	}
	return ops
}

const vaddSrc = `
target triple = "genx64-unknown-unknown"

define kernel void @vadd(ptr %a, ptr %b) {
entry:
  %x = load <8 x i32>, ptr %a
  %y = load <8 x i32>, ptr %b
  %s = add <8 x i32> %x, %y
  store <8 x i32> %s, ptr %a
  ret void
}
`

func TestModule_LowersArithmeticKernel(t *testing.T) {
	ks := mustLower(t, vaddSrc, "Gen9", &backend.Config{})
	if len(ks) != 1 {
		t.Fatalf("kernels = %d, want 1", len(ks))
	}
	k := ks[0]
	if k.Name != "vadd" {
		t.Errorf("Name = %q, want %q", k.Name, "vadd")
	}
	if k.SIMDWidth != 16 {
		t.Errorf("SIMDWidth = %d, want 16", k.SIMDWidth)
	}
	want := []visa.Opcode{visa.OpSend, visa.OpSend, visa.OpAdd, visa.OpSend, visa.OpEOT}
	got := opcodes(k)
	if len(got) != len(want) {
		t.Fatalf("ops = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ops = %v, want %v", got, want)
		}
	}
	if k.Insts[0].Aux != visa.SendRead || k.Insts[3].Aux != visa.SendWrite {
		t.Errorf("send aux = %d,%d, want read,write", k.Insts[0].Aux, k.Insts[3].Aux)
	}
	if k.Insts[2].ExecSize != 8 {
		t.Errorf("add exec size = %d, want 8", k.Insts[2].ExecSize)
	}
	if k.Insts[3].ExecSize != 8 {
		t.Errorf("store exec size = %d, want 8", k.Insts[3].ExecSize)
	}
	if len(k.Binary) == 0 {
		t.Error("Binary is empty")
	}
}

func TestModule_BranchTargetsResolve(t *testing.T) {
	src := `
define kernel void @clamp(ptr %p, i32 %n) {
entry:
  %c = icmp slt i32 %n, 0
  br i1 %c, label %neg, label %done
neg:
  store i32 0, ptr %p
  br label %done
done:
  ret void
}
`
	k := mustLower(t, src, "Gen9", &backend.Config{})[0]
	// entry: cmp, brc, jmp / neg: send, jmp / done: eot
	want := []visa.Opcode{visa.OpCmp, visa.OpBrc, visa.OpJmp, visa.OpSend, visa.OpJmp, visa.OpEOT}
	got := opcodes(k)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ops = %v, want %v", got, want)
		}
	}
	if k.Insts[0].Aux != visa.CondLT {
		t.Errorf("cmp cond = %d, want CondLT", k.Insts[0].Aux)
	}
	if k.Insts[1].Target != 3 {
		t.Errorf("brc target = %d, want 3", k.Insts[1].Target)
	}
	if k.Insts[2].Target != 5 || k.Insts[4].Target != 5 {
		t.Errorf("jmp targets = %d,%d, want 5,5", k.Insts[2].Target, k.Insts[4].Target)
	}
}

func TestModule_MaterializesGlobalAddresses(t *testing.T) {
	src := `
global i32 @counter = 0
global <16 x i32> @table = 0

define kernel void @k(ptr %p) {
entry:
  %v = load i32, ptr @counter
  store i32 %v, ptr @table
  ret void
}
`
	cfg := &backend.Config{}
	cfg.Options.NoOptFinalizer = true
	k := mustLower(t, src, "Gen9", cfg)[0]
	// Two address movs precede the sends. counter sits at surface
	// offset 0 and table at the next 64-byte slot.
	if k.Insts[0].Op != visa.OpMov || k.Insts[1].Op != visa.OpMov {
		t.Fatalf("prologue ops = %v", opcodes(k))
	}
	if got := k.Insts[0].Srcs[0].Imm; got != 0 {
		t.Errorf("first global offset = %d, want 0", got)
	}
	if got := k.Insts[1].Srcs[0].Imm; got != 64 {
		t.Errorf("second global offset = %d, want 64", got)
	}
	if k.Insts[2].Srcs[0] != k.Insts[0].Dst {
		t.Error("load does not address the first global")
	}
	if k.Insts[3].Srcs[0] != k.Insts[1].Dst {
		t.Error("store does not address the second global")
	}
}

func TestModule_SyncIntrinsicsAndCalls(t *testing.T) {
	src := `
declare void @vx.barrier()
declare void @vx.fence()
declare i32 @next_value(i32)

define kernel void @k(ptr %p, i32 %x) {
entry:
  call void @vx.barrier()
  call void @vx.fence()
  %r = call i32 @next_value(i32 %x)
  store i32 %r, ptr %p
  ret void
}
`
	k := mustLower(t, src, "Gen9", &backend.Config{})[0]
	want := []visa.Opcode{visa.OpBarrier, visa.OpFence, visa.OpCall, visa.OpSend, visa.OpEOT}
	got := opcodes(k)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ops = %v, want %v", got, want)
		}
	}
	if k.Insts[2].Sym != "next_value" {
		t.Errorf("call sym = %q, want %q", k.Insts[2].Sym, "next_value")
	}
	if len(k.Insts[2].Srcs) != 1 || k.Insts[2].Dst.Kind != visa.OperandReg {
		t.Error("call operands not lowered")
	}
}

func TestModule_FinalizerOptionsFlow(t *testing.T) {
	cfg := &backend.Config{}
	cfg.Tunables.FinalizerOpts = []string{"-getfreegrfinfo -GTPinScratchAreaSize 512"}
	k := mustLower(t, vaddSrc, "Gen9", cfg)[0]
	if k.ScratchBytes != 512 {
		t.Errorf("ScratchBytes = %d, want 512", k.ScratchBytes)
	}
	if k.FreeGRFs == 0 {
		t.Error("FreeGRFs not populated")
	}
}

func TestModule_LargeGRFModeWidensBudget(t *testing.T) {
	cfg := &backend.Config{}
	cfg.Tunables.FinalizerOpts = []string{"-getfreegrfinfo"}
	small := mustLower(t, vaddSrc, "XeHPC", cfg)[0]

	cfg = &backend.Config{}
	cfg.Options.LargeGRFMode = true
	cfg.Tunables.FinalizerOpts = []string{"-getfreegrfinfo"}
	large := mustLower(t, vaddSrc, "XeHPC", cfg)[0]

	if large.FreeGRFs-small.FreeGRFs != 128 {
		t.Errorf("free GRF delta = %d, want 128", large.FreeGRFs-small.FreeGRFs)
	}
}

func TestModule_PressureLimitForcesSpills(t *testing.T) {
	cfg := &backend.Config{}
	cfg.Tunables.GRFPressureLimit = 2
	k := mustLower(t, vaddSrc, "Gen9", cfg)[0]
	if k.SpillBytes == 0 {
		t.Error("SpillBytes = 0, want spills under a 2-register budget")
	}
	if k.GRFUsed > 2 {
		t.Errorf("GRFUsed = %d, want at most 2", k.GRFUsed)
	}
}

func TestModule_DebugRecordsFollowOptions(t *testing.T) {
	plain := mustLower(t, vaddSrc, "Gen9", &backend.Config{})[0]
	if plain.Info != nil {
		t.Error("Info populated without debug options")
	}

	cfg := &backend.Config{}
	cfg.Options.DebuggableKernels = true
	dbg := mustLower(t, vaddSrc, "Gen9", cfg)[0]
	if dbg.Info == nil {
		t.Fatal("Info missing with DebuggableKernels")
	}
	// Two pointer params plus three vector temporaries.
	if dbg.Info.Len() != 5 {
		t.Errorf("Info.Len = %d, want 5", dbg.Info.Len())
	}
}

func TestModule_SkipsNonKernelFunctions(t *testing.T) {
	src := `
define i32 @helper(i32 %x) {
entry:
  %r = add i32 %x, 1
  ret i32 %r
}

define kernel void @k(ptr %p) {
entry:
  %v = call i32 @helper(i32 3)
  store i32 %v, ptr %p
  ret void
}
`
	ks := mustLower(t, src, "Gen9", &backend.Config{})
	if len(ks) != 1 {
		t.Fatalf("kernels = %d, want 1", len(ks))
	}
	if ks[0].Name != "k" {
		t.Errorf("kernel = %q, want %q", ks[0].Name, "k")
	}
}
