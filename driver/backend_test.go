package driver

import (
	"errors"
	"testing"

	"vexc/internal/target"
)

func TestNewBackendOptions_StackSizes(t *testing.T) {
	bo := newBackendOptions(&CompileOptions{})
	if bo.StackSurfaceMaxSize != 8192 || bo.StatelessPrivateMemSize != 8192 {
		t.Errorf("default stack sizes = %d/%d, want 8192/8192",
			bo.StackSurfaceMaxSize, bo.StatelessPrivateMemSize)
	}

	size := uint32(4096)
	bo = newBackendOptions(&CompileOptions{StackMemSize: &size})
	if bo.StackSurfaceMaxSize != 4096 || bo.StatelessPrivateMemSize != 4096 {
		t.Errorf("overridden stack sizes = %d/%d, want 4096/4096",
			bo.StackSurfaceMaxSize, bo.StatelessPrivateMemSize)
	}
}

func TestNewBackendOptions_DebugPaths(t *testing.T) {
	tests := []struct {
		name            string
		opts            CompileOptions
		wantLegacyDWARF bool
		wantZeDWARF     bool
	}{
		{name: "cm debuggable", opts: CompileOptions{Binary: BinaryCM, EmitDebuggableKernels: true}},
		{name: "ocl debuggable", opts: CompileOptions{Binary: BinaryOCL, EmitDebuggableKernels: true},
			wantLegacyDWARF: true},
		{name: "ze debuggable", opts: CompileOptions{Binary: BinaryZE, EmitDebuggableKernels: true},
			wantLegacyDWARF: true, wantZeDWARF: true},
		{name: "ze plain", opts: CompileOptions{Binary: BinaryZE}, wantZeDWARF: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bo := newBackendOptions(&tt.opts)
			if bo.DebuggableKernels != tt.opts.EmitDebuggableKernels {
				t.Errorf("DebuggableKernels = %v", bo.DebuggableKernels)
			}
			if bo.LegacyDWARFPath != tt.wantLegacyDWARF {
				t.Errorf("LegacyDWARFPath = %v, want %v", bo.LegacyDWARFPath, tt.wantLegacyDWARF)
			}
			if bo.ZeCompatibleDWARF != tt.wantZeDWARF {
				t.Errorf("ZeCompatibleDWARF = %v, want %v", bo.ZeCompatibleDWARF, tt.wantZeDWARF)
			}
		})
	}
}

func TestNewBackendOptions_TriStateCollapse(t *testing.T) {
	// Unset tri-states derive from the debug configuration.
	bo := newBackendOptions(&CompileOptions{EmitExtendedDebug: true, OptLevel: OptNone})
	if !bo.EmitBreakpoints || !bo.NoOptFinalizer {
		t.Errorf("O0 extended debug: breakpoints=%v noOptFinalizer=%v, want both true",
			bo.EmitBreakpoints, bo.NoOptFinalizer)
	}

	bo = newBackendOptions(&CompileOptions{EmitExtendedDebug: true, OptLevel: OptFull})
	if !bo.EmitBreakpoints {
		t.Errorf("extended debug: EmitBreakpoints = false, want true")
	}
	if bo.NoOptFinalizer {
		t.Errorf("full optimization: NoOptFinalizer = true, want false")
	}

	// Explicit settings beat the derivation in both directions.
	bo = newBackendOptions(&CompileOptions{EmitExtendedDebug: true, OptLevel: OptNone,
		EmitBreakpoints: TriFalse, NoOptFinalizer: TriFalse})
	if bo.EmitBreakpoints || bo.NoOptFinalizer {
		t.Errorf("explicit false overridden: breakpoints=%v noOptFinalizer=%v",
			bo.EmitBreakpoints, bo.NoOptFinalizer)
	}
	bo = newBackendOptions(&CompileOptions{NoOptFinalizer: TriTrue, DisableLRCoalescing: TriTrue})
	if !bo.NoOptFinalizer || !bo.DisableLRCoalescing {
		t.Errorf("explicit true lost: noOptFinalizer=%v disableLRCoalescing=%v",
			bo.NoOptFinalizer, bo.DisableLRCoalescing)
	}
}

func TestNewBackendOptions_KindDerivations(t *testing.T) {
	if bo := newBackendOptions(&CompileOptions{Binary: BinaryCM}); !bo.ForceArrayPromotion {
		t.Errorf("cm: ForceArrayPromotion = false, want true")
	}
	for _, kind := range []BinaryKind{BinaryOCL, BinaryZE} {
		if bo := newBackendOptions(&CompileOptions{Binary: kind}); bo.ForceArrayPromotion {
			t.Errorf("%s: ForceArrayPromotion = true, want false", kind)
		}
	}
	if bo := newBackendOptions(&CompileOptions{FCtrl: FCtrlStackCall}); !bo.ForceStackCalls {
		t.Errorf("stackcall: ForceStackCalls = false, want true")
	}
	if bo := newBackendOptions(&CompileOptions{}); bo.ForceStackCalls {
		t.Errorf("default: ForceStackCalls = true, want false")
	}
}

func TestNewBackendConfig_DiagnosticsOnDemand(t *testing.T) {
	cfg := newBackendConfig(&CompileOptions{})
	if cfg.Times != nil || cfg.Stats != nil {
		t.Errorf("diagnostics allocated without a request")
	}

	cfg = newBackendConfig(&CompileOptions{TimePasses: true})
	if cfg.Times == nil {
		t.Errorf("TimePasses: Times = nil")
	}
	cfg = newBackendConfig(&CompileOptions{PrintStats: true})
	if cfg.Stats == nil {
		t.Errorf("PrintStats: Stats = nil")
	}
	cfg = newBackendConfig(&CompileOptions{StatsFile: "out.json"})
	if cfg.Stats == nil {
		t.Errorf("StatsFile: Stats = nil")
	}
}

func TestNewBackendConfig_ParsesTunables(t *testing.T) {
	cfg := newBackendConfig(&CompileOptions{
		LowLevelFlags: "-vc-enable-slp -grf-pressure-limit=96 -finalizer-opts='-noschedule'",
	})
	if !cfg.Tunables.EnableSLP {
		t.Errorf("EnableSLP = false, want true")
	}
	if cfg.Tunables.GRFPressureLimit != 96 {
		t.Errorf("GRFPressureLimit = %d, want 96", cfg.Tunables.GRFPressureLimit)
	}
	if len(cfg.Tunables.FinalizerOpts) != 1 || cfg.Tunables.FinalizerOpts[0] != "-noschedule" {
		t.Errorf("FinalizerOpts = %q, want [-noschedule]", cfg.Tunables.FinalizerOpts)
	}
}

func TestBuildFeatures(t *testing.T) {
	tests := []struct {
		name string
		opts CompileOptions
		want string
	}{
		{name: "empty", opts: CompileOptions{}, want: ""},
		{name: "user list leads", opts: CompileOptions{Features: "+mad,-dpas", NoJumpTables: true},
			want: "+mad,-dpas,+disable_jump_tables"},
		{name: "implied features", opts: CompileOptions{
			HasL1ReadOnlyCache:        true,
			SuppressLocalMemFence:     true,
			NoVecDecomposition:        true,
			NoJumpTables:              true,
			TranslateLegacyIntrinsics: true,
		}, want: "+has_l1_read_only_cache,+supress_local_mem_fence,+disable_vec_decomp," +
			"+disable_jump_tables,+translate_legacy_message"},
		{name: "runtime kinds add ocl_runtime", opts: CompileOptions{Binary: BinaryZE},
			want: "+ocl_runtime"},
		{name: "cm stays native", opts: CompileOptions{Binary: BinaryCM}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildFeatures(&tt.opts); got != tt.want {
				t.Errorf("buildFeatures = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfigureTarget_RewritesModuleTargetInfo(t *testing.T) {
	m := mustParseText(t, `target triple = "spir64-unknown-unknown"
define kernel void @k() {
entry:
  ret void
}
`)
	mach, err := configureTarget(m, &CompileOptions{})
	if err != nil {
		t.Fatalf("configureTarget: %v", err)
	}
	if m.Triple != "genx64-unknown-unknown" {
		t.Errorf("Triple = %q, want genx64-unknown-unknown", m.Triple)
	}
	if m.DataLayout != mach.DataLayout() {
		t.Errorf("DataLayout = %q, want %q", m.DataLayout, mach.DataLayout())
	}
	if mach.CPU.Name != "Gen9" {
		t.Errorf("default CPU = %q, want Gen9", mach.CPU.Name)
	}
	if mach.PointerSizeBits() != 64 {
		t.Errorf("PointerSizeBits = %d, want 64", mach.PointerSizeBits())
	}
}

func TestConfigureTarget_PointerWidthFollowsInputTriple(t *testing.T) {
	m := mustParseText(t, `target triple = "spir-unknown-unknown"
define kernel void @k() {
entry:
  ret void
}
`)
	mach, err := configureTarget(m, &CompileOptions{CPU: "XeHPC"})
	if err != nil {
		t.Fatalf("configureTarget: %v", err)
	}
	if m.Triple != "genx32-unknown-unknown" || mach.PointerSizeBits() != 32 {
		t.Errorf("triple %q, %d bits; want genx32, 32 bits", m.Triple, mach.PointerSizeBits())
	}
	if mach.CPU.Name != "XeHPC" {
		t.Errorf("CPU = %q, want XeHPC", mach.CPU.Name)
	}
}

func TestConfigureTarget_UnknownCPU(t *testing.T) {
	m := mustParseText(t, `target triple = "spir64-unknown-unknown"
define kernel void @k() {
entry:
  ret void
}
`)
	_, err := configureTarget(m, &CompileOptions{CPU: "Gen99"})
	var tme *TargetMachineError
	if !errors.As(err, &tme) {
		t.Fatalf("configureTarget = %v, want TargetMachineError", err)
	}
	if tme.CPU != "Gen99" || tme.Triple != "genx64-unknown-unknown" {
		t.Errorf("TargetMachineError = %+v", tme)
	}
}

func TestConfigureTarget_FeatureResolution(t *testing.T) {
	m := mustParseText(t, `target triple = "spir64-unknown-unknown"
define kernel void @k() {
entry:
  ret void
}
`)
	mach, err := configureTarget(m, &CompileOptions{
		Features: "-disable_jump_tables", NoJumpTables: true, Binary: BinaryOCL,
	})
	if err != nil {
		t.Fatalf("configureTarget: %v", err)
	}
	// The implied feature comes after the user's entry, so it wins.
	if !mach.HasFeature(target.FeatureNoJumpTables) {
		t.Errorf("implied +disable_jump_tables lost to the user's -disable_jump_tables")
	}
	if !mach.HasFeature(target.FeatureOCLRuntime) {
		t.Errorf("ocl_runtime not set for a runtime binary kind")
	}
}
