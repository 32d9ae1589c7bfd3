package visa

import "testing"

func TestKernelInfo_InsertionOrder(t *testing.T) {
	ki := NewKernelInfo()
	ki.Insert(5, &VarInfo{Size: 32})
	ki.Insert(1, &VarInfo{Size: 8})
	ki.Insert(3, &VarInfo{Size: 16})

	var keys []int
	ki.Range(func(key int, _ *VarInfo) bool {
		keys = append(keys, key)
		return true
	})
	want := []int{5, 1, 3}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("iteration order = %v, want %v", keys, want)
		}
	}
}

func TestKernelInfo_ReinsertKeepsPosition(t *testing.T) {
	ki := NewKernelInfo()
	ki.Insert(2, &VarInfo{Size: 4})
	ki.Insert(7, &VarInfo{Size: 8})
	ki.Insert(2, &VarInfo{Size: 64})

	if ki.Len() != 2 {
		t.Fatalf("Len = %d, want 2", ki.Len())
	}
	var first int
	ki.Range(func(key int, _ *VarInfo) bool {
		first = key
		return false
	})
	if first != 2 {
		t.Errorf("first key = %d, want 2 despite reinsertion", first)
	}
	if v, _ := ki.Get(2); v.Size != 64 {
		t.Errorf("Get(2).Size = %d, want replaced value 64", v.Size)
	}
}

func TestKernelInfo_GetMissing(t *testing.T) {
	ki := NewKernelInfo()
	if _, ok := ki.Get(9); ok {
		t.Errorf("Get(9) reported a record in an empty table")
	}
}
