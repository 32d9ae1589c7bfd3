package dump

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vexc/ir"
)

func TestFileDumper_WritesModuleText(t *testing.T) {
	dir := t.TempDir()
	m, err := ir.ParseModule([]byte(`
define kernel void @k(ptr %p) {
entry:
  ret void
}
`))
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}

	d := &FileDumper{Dir: dir, Prefix: "job_"}
	d.DumpModule(m, "optimized.vir")

	data, err := os.ReadFile(filepath.Join(dir, "job_optimized.vir"))
	if err != nil {
		t.Fatalf("reading dump: %v", err)
	}
	if !strings.Contains(string(data), "define kernel void @k") {
		t.Errorf("dump missing kernel definition:\n%s", data)
	}
}

func TestFileDumper_WritesBinary(t *testing.T) {
	dir := t.TempDir()
	d := &FileDumper{Dir: filepath.Join(dir, "nested")}
	d.DumpBinary([]byte{1, 2, 3}, "final.isa")

	data, err := os.ReadFile(filepath.Join(dir, "nested", "final.isa"))
	if err != nil {
		t.Fatalf("reading dump: %v", err)
	}
	if !bytes.Equal(data, []byte{1, 2, 3}) {
		t.Errorf("dump = %v, want [1 2 3]", data)
	}
}

func TestFileDumper_FailureWarnsAndContinues(t *testing.T) {
	var warnings bytes.Buffer
	d := &FileDumper{Dir: string([]byte{0}), Warn: &warnings}
	d.DumpBinary([]byte{1}, "final.isa")
	if !strings.Contains(warnings.String(), "could not dump final.isa") {
		t.Errorf("warning = %q, want dump failure note", warnings.String())
	}
}
