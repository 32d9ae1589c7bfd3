package driver

import "testing"

func TestTriStateBool(t *testing.T) {
	tests := []struct {
		state TriState
		def   bool
		want  bool
	}{
		{TriDefault, false, false},
		{TriDefault, true, true},
		{TriFalse, true, false},
		{TriTrue, false, true},
	}
	for _, tt := range tests {
		if got := tt.state.Bool(tt.def); got != tt.want {
			t.Errorf("TriState(%d).Bool(%v) = %v, want %v", tt.state, tt.def, got, tt.want)
		}
	}
}

func TestParseBinaryKind(t *testing.T) {
	for s, want := range map[string]BinaryKind{"cm": BinaryCM, "ocl": BinaryOCL, "ze": BinaryZE} {
		got, ok := ParseBinaryKind(s)
		if !ok || got != want {
			t.Errorf("ParseBinaryKind(%q) = (%v, %v), want (%v, true)", s, got, ok, want)
		}
		if got.String() != s {
			t.Errorf("BinaryKind(%v).String() = %q, want %q", got, got.String(), s)
		}
	}
	if _, ok := ParseBinaryKind("elf"); ok {
		t.Errorf("ParseBinaryKind accepted elf")
	}
}

func TestParseOptimizerLevel(t *testing.T) {
	if l, ok := ParseOptimizerLevel("none"); !ok || l != OptNone {
		t.Errorf("ParseOptimizerLevel(none) = (%v, %v)", l, ok)
	}
	if l, ok := ParseOptimizerLevel("full"); !ok || l != OptFull {
		t.Errorf("ParseOptimizerLevel(full) = (%v, %v)", l, ok)
	}
	if _, ok := ParseOptimizerLevel("O2"); ok {
		t.Errorf("ParseOptimizerLevel accepted O2")
	}
}

func TestFileTypeString(t *testing.T) {
	for ft, want := range map[FileType]string{FilePIL: "pil", FileIRText: "ir-text", FileIRBinary: "ir-binary"} {
		if got := ft.String(); got != want {
			t.Errorf("FileType(%d).String() = %q, want %q", ft, got, want)
		}
	}
}
