package ir_test

import (
	"reflect"
	"strings"
	"testing"

	"vexc/ir"
)

func TestBinary_RoundTrip(t *testing.T) {
	m := mustParse(t, vaddSrc)
	data, err := ir.EncodeBinary(m)
	if err != nil {
		t.Fatalf("EncodeBinary: %v", err)
	}
	if !ir.IsBinaryModule(data) {
		t.Fatal("container magic missing")
	}
	back, err := ir.DecodeBinary(data)
	if err != nil {
		t.Fatalf("DecodeBinary: %v", err)
	}
	if !reflect.DeepEqual(m, back) {
		t.Errorf("round trip differs:\nhave %s\nwant %s", back, m)
	}
}

func TestBinary_RejectsBadContainers(t *testing.T) {
	good, err := ir.EncodeBinary(mustParse(t, vaddSrc))
	if err != nil {
		t.Fatalf("EncodeBinary: %v", err)
	}

	wrongSchema := append([]byte(nil), good...)
	wrongSchema[4], wrongSchema[5] = 0xFF, 0xFF

	corruptPayload := append([]byte(nil), good[:8]...)

	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"empty", nil, "truncated"},
		{"short", []byte("VC"), "truncated"},
		{"wrong magic", []byte("NOPE\x00\x01rest"), "magic"},
		{"wrong schema", wrongSchema, "schema version"},
		{"corrupt payload", corruptPayload, "decoding module record"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ir.DecodeBinary(tt.data)
			if err == nil {
				t.Fatal("DecodeBinary accepted bad container")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

// Decoding skips verification so that a structurally broken module can
// still be loaded and then rejected by Verify with a real diagnosis.
func TestBinary_DecodeDoesNotVerify(t *testing.T) {
	m := mustParse(t, "define void @f() {\nentry:\n  br label %gone\n}\n")
	if err := ir.Verify(m); err == nil {
		t.Fatal("fixture is unexpectedly valid")
	}
	data, err := ir.EncodeBinary(m)
	if err != nil {
		t.Fatalf("EncodeBinary: %v", err)
	}
	back, err := ir.DecodeBinary(data)
	if err != nil {
		t.Fatalf("DecodeBinary: %v", err)
	}
	if err := ir.Verify(back); err == nil {
		t.Error("decoded module lost its violation")
	}
}
