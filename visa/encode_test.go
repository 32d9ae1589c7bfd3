package visa

import (
	"testing"
)

func smallKernel(t *testing.T, name string) *Kernel {
	t.Helper()
	b := NewBuilder(name, 16)
	a := b.NewDecl("a", 32)
	c := b.NewDecl("c", 32)
	b.Emit(Inst{Op: OpMov, ExecSize: 8, Dst: Reg(a), Srcs: []Operand{Imm(3)}})
	b.Emit(Inst{Op: OpAdd, ExecSize: 8, Dst: Reg(c), Srcs: []Operand{Reg(a), Reg(a)}})
	b.Emit(Inst{Op: OpEOT, ExecSize: 1})
	k, err := Finalize(b, FinalizeOptions{}, 32, false)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return k
}

func TestEncodeModule_RoundTripsHeader(t *testing.T) {
	ks := []*Kernel{smallKernel(t, "first"), smallKernel(t, "second")}
	data := EncodeModule(ks, 3, 8)

	if !IsModule(data) {
		t.Fatalf("IsModule = false for encoded container")
	}
	h, err := ReadHeader(data)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h.Major != 3 || h.Minor != 8 {
		t.Errorf("version = %d.%d, want 3.8", h.Major, h.Minor)
	}
	if len(h.Kernels) != 2 {
		t.Fatalf("kernel count = %d, want 2", len(h.Kernels))
	}
	for i, want := range []string{"first", "second"} {
		d := h.Kernels[i]
		if d.Name != want {
			t.Errorf("kernel[%d].Name = %q, want %q", i, d.Name, want)
		}
		if d.SIMDWidth != 16 {
			t.Errorf("kernel[%d].SIMDWidth = %d, want 16", i, d.SIMDWidth)
		}
		if d.GRFUsed != ks[i].GRFUsed {
			t.Errorf("kernel[%d].GRFUsed = %d, want %d", i, d.GRFUsed, ks[i].GRFUsed)
		}
		if d.StreamSize != len(ks[i].Binary) {
			t.Errorf("kernel[%d].StreamSize = %d, want %d", i, d.StreamSize, len(ks[i].Binary))
		}
	}
}

func TestEncodeInsts_CompactionShrinksStream(t *testing.T) {
	insts := []Inst{
		{Op: OpMov, ExecSize: 8, Dst: Reg(1), Srcs: []Operand{Reg(2)}},
		{Op: OpAdd, ExecSize: 8, Dst: Reg(3), Srcs: []Operand{Reg(1), Reg(2)}},
		{Op: OpMov, ExecSize: 8, Dst: Reg(4), Srcs: []Operand{Imm(100)}},
		{Op: OpEOT, ExecSize: 1},
	}
	full := encodeInsts(insts, false)
	compact := encodeInsts(insts, true)
	if len(compact) >= len(full) {
		t.Errorf("compact stream %d bytes, full %d, want compact smaller", len(compact), len(full))
	}
	// First record sits right after the u32 count; its flags byte
	// carries the compact bit.
	if compact[4] != byte(OpMov) || compact[5] != flagCompact {
		t.Errorf("first compact record = op %d flags %#x, want mov with compact bit", compact[4], compact[5])
	}
	if full[5] != 0 {
		t.Errorf("full record flags = %#x, want 0", full[5])
	}
}

func TestEncodeInsts_ImmediatesAndBranchesStayFull(t *testing.T) {
	insts := []Inst{
		{Op: OpBrc, ExecSize: 1, Srcs: []Operand{Reg(1)}, Target: 2},
		{Op: OpMov, ExecSize: 8, Dst: Reg(2), Srcs: []Operand{Imm(-5)}},
		{Op: OpEOT, ExecSize: 1},
	}
	data := encodeInsts(insts, true)
	if data[5] == flagCompact {
		t.Errorf("branch record compacted, want full form")
	}
}

func TestReadHeader_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "short magic", data: []byte("GI")},
		{name: "wrong magic", data: []byte("ELF\x00rest of data")},
		{name: "truncated body", data: []byte("GISA\x03\x08\x02\x00")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadHeader(tt.data); err == nil {
				t.Errorf("ReadHeader accepted %q", tt.data)
			}
		})
	}
}
