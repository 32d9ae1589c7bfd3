package driver

import (
	"errors"
	"strings"
	"testing"

	"vexc/internal/pil"
	"vexc/ir"
)

const copySource = `target triple = "spir64-unknown-unknown"

define kernel void @copy(ptr %in, ptr %out) {
entry:
  %v = load <8 x i32>, ptr %in
  %s = add <8 x i32> %v, %v
  store <8 x i32> %s, ptr %out
  ret void
}
`

func mustParseText(t *testing.T, src string) *ir.Module {
	t.Helper()
	m, err := ir.ParseModule([]byte(src))
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}
	return m
}

func encodeModule(t *testing.T, m *ir.Module) []byte {
	t.Helper()
	data, err := ir.EncodeBinary(m)
	if err != nil {
		t.Fatalf("EncodeBinary: %v", err)
	}
	return data
}

func TestLoadModule_Encodings(t *testing.T) {
	binary := encodeModule(t, mustParseText(t, copySource))
	tests := []struct {
		name  string
		ftype FileType
		input []byte
	}{
		{name: "text", ftype: FileIRText, input: []byte(copySource)},
		{name: "binary", ftype: FileIRBinary, input: binary},
		{name: "container", ftype: FilePIL, input: pil.Encode(binary, nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := loadModule(tt.input, tt.ftype, nil, nil)
			if err != nil {
				t.Fatalf("loadModule: %v", err)
			}
			f := m.Func("copy")
			if f == nil || !f.Kernel || f.IsDecl() {
				t.Errorf("kernel copy missing or malformed after load")
			}
		})
	}
}

func TestLoadModule_SpecConstants(t *testing.T) {
	src := `target triple = "spir64-unknown-unknown"

global i32 @__pil.spec.5

define kernel void @k() {
entry:
  ret void
}
`
	irBytes := encodeModule(t, mustParseText(t, src))
	container := pil.Encode(irBytes, []pil.Slot{{ID: 5, Default: 7}})

	m, err := loadModule(container, FilePIL, nil, nil)
	if err != nil {
		t.Fatalf("loadModule: %v", err)
	}
	if g := m.Global("__pil.spec.5"); !g.HasInit || g.Init != 7 {
		t.Errorf("spec constant = (%v, %d), want default 7", g.HasInit, g.Init)
	}

	m, err = loadModule(container, FilePIL, []uint32{5}, []uint64{31})
	if err != nil {
		t.Fatalf("loadModule with override: %v", err)
	}
	if g := m.Global("__pil.spec.5"); g.Init != 31 {
		t.Errorf("spec constant = %d, want override 31", g.Init)
	}

	// Already-lowered inputs carry no specialization slots; overrides
	// for them are accepted and do nothing.
	m, err = loadModule([]byte(copySource), FileIRText, []uint32{5}, []uint64{31})
	if err != nil {
		t.Fatalf("loadModule text with overrides: %v", err)
	}
	if m.Global("__pil.spec.5") != nil {
		t.Errorf("text input grew a specialization global")
	}
}

func TestLoadModule_RejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name  string
		ftype FileType
		input []byte
		want  string
	}{
		{name: "text", ftype: FileIRText, input: []byte("define junk"), want: "cannot parse input as ir-text"},
		{name: "binary", ftype: FileIRBinary, input: []byte("junk"), want: "cannot parse input as ir-binary"},
		{name: "container", ftype: FilePIL, input: []byte("junk"), want: "cannot parse input as pil"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadModule(tt.input, tt.ftype, nil, nil)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("loadModule = %v, want ParseError", err)
			}
			if pe.Encoding != tt.ftype {
				t.Errorf("Encoding = %s, want %s", pe.Encoding, tt.ftype)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadModule_RejectsInvalidModule(t *testing.T) {
	src := `define kernel i32 @bad() {
entry:
  ret i32 0
}
`
	_, err := loadModule([]byte(src), FileIRText, nil, nil)
	var ime *InvalidModuleError
	if !errors.As(err, &ime) {
		t.Fatalf("loadModule = %v, want InvalidModuleError", err)
	}
	if !strings.Contains(err.Error(), "non-void return") {
		t.Errorf("error %q does not name the violation", err)
	}
}
