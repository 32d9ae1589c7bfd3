package opt

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"empty", "", nil},
		{"spaces only", "  \t ", nil},
		{"plain", "-vc-codegen -vc-optimize=none", []string{"-vc-codegen", "-vc-optimize=none"}},
		{"single quotes keep spaces", "-Xfinalizer '-noschedule -nocompaction'", []string{"-Xfinalizer", "-noschedule -nocompaction"}},
		{"double quotes keep spaces", `-finalizer-opts="-GTPinReRA"`, []string{"-finalizer-opts=-GTPinReRA"}},
		{"escaped space", `a\ b c`, []string{"a b", "c"}},
		{"escaped quote in double quotes", `"say \"hi\""`, []string{`say "hi"`}},
		{"backslash literal in double quotes", `"a\b"`, []string{`a\b`}},
		{"quoted empty token", "a '' b", []string{"a", "", "b"}},
		{"unterminated quote runs out", "'abc def", []string{"abc def"}},
		{"adjacent quoted pieces", `a'b c'd`, []string{"ab cd"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.line)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %#v, want %#v", tt.line, got, tt.want)
			}
		})
	}
}
