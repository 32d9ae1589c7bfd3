package driver

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"vexc/ir"
	"vexc/visa"
)

type captureDumper struct {
	modules  []string
	binaries []string
}

func (d *captureDumper) DumpModule(m *ir.Module, name string) {
	d.modules = append(d.modules, name)
}

func (d *captureDumper) DumpBinary(data []byte, name string) {
	d.binaries = append(d.binaries, name)
}

func TestCompile_ISAOutput(t *testing.T) {
	opts := mustResolve(t, "-vc-codegen", "", true)
	out, err := Compile([]byte(copySource), FileIRText, opts, ExternalData{}, nil, nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if out.Kind != OutputISA || out.Runtime != nil {
		t.Fatalf("Kind = %d with Runtime %v, want plain ISA output", out.Kind, out.Runtime)
	}
	if !visa.IsModule(out.ISA) {
		t.Fatalf("output does not carry the kernel container magic")
	}
	h, err := visa.ReadHeader(out.ISA)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h.Major != 3 || h.Minor != 1 {
		t.Errorf("container version = %d.%d, want 3.1 for the default cpu", h.Major, h.Minor)
	}
	if len(h.Kernels) != 1 {
		t.Fatalf("%d kernels, want 1", len(h.Kernels))
	}
	k := h.Kernels[0]
	if k.Name != "copy" || k.SIMDWidth != 16 {
		t.Errorf("kernel = %s simd%d, want copy simd16", k.Name, k.SIMDWidth)
	}
	if k.GRFUsed < 1 || k.StreamSize == 0 {
		t.Errorf("kernel resources = %d grf, %d byte stream", k.GRFUsed, k.StreamSize)
	}
}

func TestCompile_RuntimeOutput(t *testing.T) {
	opts := mustResolve(t, "-vc-codegen", "-binary-format=ze -mcpu=XeHPC", true)
	out, err := Compile([]byte(copySource), FileIRText, opts, ExternalData{}, nil, nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if out.Kind != OutputRuntime || out.Runtime == nil {
		t.Fatalf("Kind = %d, want runtime output", out.Kind)
	}
	ri := out.Runtime
	if ri.PointerSize != 8 {
		t.Errorf("PointerSize = %d, want 8 for a 64-bit triple", ri.PointerSize)
	}
	if len(ri.Kernels) != 1 {
		t.Fatalf("%d kernel records, want 1", len(ri.Kernels))
	}
	rec := ri.Kernels[0]
	if rec.Name != "copy" || rec.SIMDWidth != 32 {
		t.Errorf("record = %s simd%d, want copy simd32 on XeHPC", rec.Name, rec.SIMDWidth)
	}
	if len(rec.Binary) == 0 || rec.GRFCount < 1 {
		t.Errorf("record resources: %d binary bytes, %d grf", len(rec.Binary), rec.GRFCount)
	}
	if rec.DebugInfo != nil {
		t.Errorf("DebugInfo present without a debug request")
	}
	wantArgs := []ArgInfo{
		{Index: 0, Kind: ArgBuffer, Size: 8, Offset: 0},
		{Index: 1, Kind: ArgBuffer, Size: 8, Offset: 8},
	}
	if !reflect.DeepEqual(rec.Args, wantArgs) {
		t.Errorf("Args = %+v, want %+v", rec.Args, wantArgs)
	}
}

func TestCompile_RuntimeOutput32Bit(t *testing.T) {
	src := strings.Replace(copySource, `"spir64-unknown-unknown"`, `"spir-unknown-unknown"`, 1)
	opts := mustResolve(t, "-vc-codegen", "-binary-format=ocl", true)
	out, err := Compile([]byte(src), FileIRText, opts, ExternalData{}, nil, nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	ri := out.Runtime
	if ri.PointerSize != 4 {
		t.Fatalf("PointerSize = %d, want 4 for a 32-bit triple", ri.PointerSize)
	}
	wantArgs := []ArgInfo{
		{Index: 0, Kind: ArgBuffer, Size: 4, Offset: 0},
		{Index: 1, Kind: ArgBuffer, Size: 4, Offset: 4},
	}
	if !reflect.DeepEqual(ri.Kernels[0].Args, wantArgs) {
		t.Errorf("Args = %+v, want %+v", ri.Kernels[0].Args, wantArgs)
	}
}

func TestCompile_DebugInfoOnRequest(t *testing.T) {
	opts := mustResolve(t, "-vc-codegen -g", "-binary-format=ze", true)
	out, err := Compile([]byte(copySource), FileIRText, opts, ExternalData{}, nil, nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	rec := out.Runtime.Kernels[0]
	if rec.DebugInfo == nil || rec.DebugInfo.Len() == 0 {
		t.Errorf("no per-variable records for a -g compilation")
	}
}

func TestCompile_Deterministic(t *testing.T) {
	opts := mustResolve(t, "-vc-codegen", "", true)
	first, err := Compile([]byte(copySource), FileIRText, opts, ExternalData{}, nil, nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	second, err := Compile([]byte(copySource), FileIRText, opts, ExternalData{}, nil, nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !bytes.Equal(first.ISA, second.ISA) {
		t.Errorf("two compilations of the same input differ")
	}
	if opts.WATable != nil {
		t.Errorf("Compile wrote the resolved errata table back into the options")
	}
}

func TestCompile_Dumps(t *testing.T) {
	opts := mustResolve(t, "-vc-codegen",
		"-dump-ir -dump-isa-binary -dump-asm -dump-debug-info", true)
	dumper := &captureDumper{}
	opts.Dumper = dumper
	if _, err := Compile([]byte(copySource), FileIRText, opts, ExternalData{}, nil, nil); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	wantModules := []string{"after_pil_reader.vir", "after_ir_adaptors.vir", "optimized.vir", "final.vir"}
	if !reflect.DeepEqual(dumper.modules, wantModules) {
		t.Errorf("module dumps = %v, want %v", dumper.modules, wantModules)
	}
	wantBinaries := []string{"final.isa", "copy.asm", "copy.dbg"}
	if !reflect.DeepEqual(dumper.binaries, wantBinaries) {
		t.Errorf("binary dumps = %v, want %v", dumper.binaries, wantBinaries)
	}
}

func TestCompile_NoDumpsByDefault(t *testing.T) {
	opts := mustResolve(t, "-vc-codegen", "", true)
	dumper := &captureDumper{}
	opts.Dumper = dumper
	if _, err := Compile([]byte(copySource), FileIRText, opts, ExternalData{}, nil, nil); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(dumper.modules) != 0 || len(dumper.binaries) != 0 {
		t.Errorf("dumps without a request: %v %v", dumper.modules, dumper.binaries)
	}
}

func TestCompile_LinksBuiltins(t *testing.T) {
	src := `target triple = "spir64-unknown-unknown"

declare <8 x i32> @saturate(<8 x i32>)

define kernel void @k(ptr %in, ptr %out) {
entry:
  %v = load <8 x i32>, ptr %in
  %s = call <8 x i32> @saturate(<8 x i32> %v)
  store <8 x i32> %s, ptr %out
  ret void
}
`
	generic := mustParseText(t, `define <8 x i32> @saturate(<8 x i32> %x) {
entry:
  %y = and <8 x i32> %x, 255
  ret <8 x i32> %y
}
`)
	opts := mustResolve(t, "-vc-codegen", "", true)

	_, err := Compile([]byte(src), FileIRText, opts, ExternalData{}, nil, nil)
	if err == nil || !strings.Contains(err.Error(), "unresolved external functions: saturate") {
		t.Fatalf("Compile without builtins = %v, want unresolved saturate", err)
	}

	ext := ExternalData{Generic: encodeModule(t, generic)}
	out, err := Compile([]byte(src), FileIRText, opts, ext, nil, nil)
	if err != nil {
		t.Fatalf("Compile with builtins: %v", err)
	}
	if out.Kind != OutputISA || len(out.ISA) == 0 {
		t.Errorf("no output after linking builtins")
	}
}

func TestCompile_StatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	opts := mustResolve(t, "-vc-codegen", "-stats-file="+path, true)
	if _, err := Compile([]byte(copySource), FileIRText, opts, ExternalData{}, nil, nil); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("stats file: %v", err)
	}
	var counters map[string]uint64
	if err := json.Unmarshal(data, &counters); err != nil {
		t.Fatalf("stats file is not a JSON object: %v", err)
	}
	if counters["lower.kernels"] != 1 {
		t.Errorf("lower.kernels = %d, want 1", counters["lower.kernels"])
	}
}

func TestCompile_UnknownCPU(t *testing.T) {
	opts := mustResolve(t, "-vc-codegen", "-mcpu=Gen99", true)
	_, err := Compile([]byte(copySource), FileIRText, opts, ExternalData{}, nil, nil)
	var tme *TargetMachineError
	if !errors.As(err, &tme) {
		t.Fatalf("Compile = %v, want TargetMachineError", err)
	}
	if tme.CPU != "Gen99" {
		t.Errorf("TargetMachineError.CPU = %q, want Gen99", tme.CPU)
	}
}
