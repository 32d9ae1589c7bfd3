package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"vexc/driver"
	"vexc/internal/pil"
	"vexc/ir"
	"vexc/visa"
)

const kernelSource = `target triple = "spir64-unknown-unknown"

define kernel void @copy(ptr %in, ptr %out) {
entry:
  %v = load <8 x i32>, ptr %in
  %s = add <8 x i32> %v, %v
  store <8 x i32> %s, ptr %out
  ret void
}
`

type recordSink struct {
	events []Event
}

func (s *recordSink) OnEvent(e Event) {
	s.events = append(s.events, e)
}

func writeInput(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestRun_EventOrdering(t *testing.T) {
	dir := t.TempDir()
	f1 := writeInput(t, dir, "a.vir", []byte(kernelSource))
	f2 := writeInput(t, dir, "b.vir", []byte(kernelSource))

	sink := &recordSink{}
	_, err := Run(context.Background(), &Request{
		Inputs:    []string{f1, f2},
		Options:   "-vc-codegen",
		OutputDir: t.TempDir(),
		Progress:  sink,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var got []string
	for _, e := range sink.events {
		file := e.File
		if file != "" {
			file = filepath.Base(file)
		}
		got = append(got, fmt.Sprintf("%s/%s/%s", file, e.Stage, e.Status))
	}
	want := []string{
		"a.vir/read/queued",
		"b.vir/read/queued",
		"/read/working",
		"/read/done",
		"a.vir/read/done",
		"b.vir/read/done",
		"/resolve/working",
		"/resolve/done",
		"a.vir/compile/working",
		"a.vir/compile/done",
		"a.vir/write/working",
		"a.vir/write/done",
		"b.vir/compile/working",
		"b.vir/compile/done",
		"b.vir/write/working",
		"b.vir/write/done",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("event sequence:\n got %q\nwant %q", got, want)
	}
}

func TestRun_WritesISAArtifacts(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "copy.vir", []byte(kernelSource))
	outDir := filepath.Join(t.TempDir(), "out")

	res, err := Run(context.Background(), &Request{
		Inputs:    []string{input},
		Options:   "-vc-codegen",
		OutputDir: outDir,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Artifacts) != 1 {
		t.Fatalf("%d artifacts, want 1", len(res.Artifacts))
	}
	a := res.Artifacts[0]
	if a.OutputPath != filepath.Join(outDir, "copy.isa") {
		t.Errorf("OutputPath = %q, want copy.isa under the output dir", a.OutputPath)
	}
	blob, err := os.ReadFile(a.OutputPath)
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}
	if !visa.IsModule(blob) {
		t.Error("artifact does not carry the kernel container magic")
	}
	for _, stage := range []Stage{StageRead, StageResolve, StageCompile, StageWrite} {
		if !res.Timings.Has(stage) {
			t.Errorf("no timing recorded for %s", stage)
		}
	}
}

func TestRun_RuntimeArtifactRoundTrip(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "copy.vir", []byte(kernelSource))
	outDir := t.TempDir()

	res, err := Run(context.Background(), &Request{
		Inputs:          []string{input},
		Options:         "-vc-codegen",
		InternalOptions: "-binary-format=ze -mcpu=XeHPC",
		OutputDir:       outDir,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	a := res.Artifacts[0]
	if filepath.Ext(a.OutputPath) != ".vxr" {
		t.Fatalf("OutputPath = %q, want a .vxr artifact", a.OutputPath)
	}
	blob, err := os.ReadFile(a.OutputPath)
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}
	rec, err := decodeRuntimeArtifact(blob)
	if err != nil {
		t.Fatalf("decodeRuntimeArtifact: %v", err)
	}
	if rec.PointerSize != 8 {
		t.Errorf("PointerSize = %d, want 8", rec.PointerSize)
	}
	if len(rec.Kernels) != 1 {
		t.Fatalf("%d kernels, want 1", len(rec.Kernels))
	}
	k := rec.Kernels[0]
	if k.Name != "copy" || k.SIMDWidth != 32 {
		t.Errorf("kernel = %s simd%d, want copy simd32", k.Name, k.SIMDWidth)
	}
	if len(k.Binary) == 0 || len(k.Args) != 2 {
		t.Errorf("kernel carries %d binary bytes and %d args", len(k.Binary), len(k.Args))
	}
}

func TestRun_SniffsInputEncodings(t *testing.T) {
	m, err := ir.ParseModule([]byte(kernelSource))
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}
	binBlob, err := ir.EncodeBinary(m)
	if err != nil {
		t.Fatalf("EncodeBinary: %v", err)
	}
	dir := t.TempDir()
	inputs := []string{
		writeInput(t, dir, "text.vir", []byte(kernelSource)),
		writeInput(t, dir, "module.bin", binBlob),
		writeInput(t, dir, "packaged.pil", pil.Encode(binBlob, nil)),
	}
	res, err := Run(context.Background(), &Request{
		Inputs:    inputs,
		Options:   "-vc-codegen",
		OutputDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Artifacts) != 3 {
		t.Fatalf("%d artifacts, want 3", len(res.Artifacts))
	}
	for _, a := range res.Artifacts {
		if a.Output.Kind != driver.OutputISA {
			t.Errorf("%s: kind = %d, want ISA", a.Input, a.Output.Kind)
		}
	}
}

func TestRun_StopsAtFirstFailure(t *testing.T) {
	dir := t.TempDir()
	good := writeInput(t, dir, "good.vir", []byte(kernelSource))
	bad := writeInput(t, dir, "bad.vir", []byte("not a module {{{"))
	never := writeInput(t, dir, "never.vir", []byte(kernelSource))

	sink := &recordSink{}
	res, err := Run(context.Background(), &Request{
		Inputs:    []string{good, bad, never},
		Options:   "-vc-codegen",
		OutputDir: t.TempDir(),
		Progress:  sink,
	})
	if err == nil || !strings.Contains(err.Error(), "bad.vir") {
		t.Fatalf("Run error = %v, want failure naming bad.vir", err)
	}
	if len(res.Artifacts) != 1 || res.Artifacts[0].Input != good {
		t.Fatalf("artifacts = %+v, want only the first input", res.Artifacts)
	}
	for _, e := range sink.events {
		if e.File == never && e.Stage == StageCompile {
			t.Fatalf("third input was compiled after the failure")
		}
	}
}

func TestInputType_RejectsUnknownFormat(t *testing.T) {
	if _, err := inputType("elf", nil); err == nil || !strings.Contains(err.Error(), `unknown input format "elf"`) {
		t.Fatalf("inputType = %v, want unknown-format error", err)
	}
}
