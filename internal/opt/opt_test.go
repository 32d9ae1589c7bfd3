package opt

import (
	"errors"
	"strings"
	"testing"
)

const (
	famAPI Flags = 1 << iota
	famExtra
	famInternal
)

const (
	optCodegen ID = FirstDeclared + iota
	optLevel
	optStackSize
	optStackSizeAlias
	optXAttach
	optFormat
)

func testTable(t *testing.T) *Table {
	t.Helper()
	return NewTable([]Option{
		{ID: optCodegen, Name: "vc-codegen", Kind: KindFlag, Flags: famAPI},
		{ID: optLevel, Name: "vc-optimize", Kind: KindJoined, Flags: famAPI, MetaVar: "<level>"},
		{ID: optStackSize, Name: "stack-size", Kind: KindJoined, Flags: famAPI},
		{ID: optStackSizeAlias, Name: "old_stack_size", Kind: KindJoined, Flags: famExtra, Alias: optStackSize},
		{ID: optXAttach, Name: "Xattach", Kind: KindSeparate, Flags: famAPI},
		{ID: optFormat, Name: "binary-format", Kind: KindJoined, Flags: famInternal},
	})
}

func TestParse_BindsKinds(t *testing.T) {
	tbl := testTable(t)
	argv := []string{"-vc-codegen", "-vc-optimize=none", "-Xattach", "-dumpcommonisa", "input.bin"}
	list, err := tbl.Parse(argv, famAPI)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !list.Has(optCodegen) {
		t.Error("flag -vc-codegen not bound")
	}
	if got := list.LastValue(optLevel, ""); got != "none" {
		t.Errorf("-vc-optimize value = %q, want %q", got, "none")
	}
	if got := list.LastValue(optXAttach, ""); got != "-dumpcommonisa" {
		t.Errorf("-Xattach value = %q, want %q", got, "-dumpcommonisa")
	}
	in := list.Last(Input)
	if in == nil || in.Value != "input.bin" {
		t.Fatalf("input arg = %v, want input.bin", in)
	}
	if in.Index != 4 {
		t.Errorf("input index = %d, want 4", in.Index)
	}
}

func TestParse_UnknownAndWrongForm(t *testing.T) {
	tbl := testTable(t)
	tests := []struct {
		name string
		argv []string
	}{
		{"undeclared option", []string{"-vc-bogus"}},
		{"flag with joined value", []string{"-vc-codegen=yes"}},
		{"joined without value", []string{"-vc-optimize"}},
		{"excluded family", []string{"-binary-format=cm"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := tbl.Parse(tt.argv, famAPI)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			a := list.Last(Unknown)
			if a == nil {
				t.Fatal("expected an Unknown arg")
			}
			if a.Value != tt.argv[0] {
				t.Errorf("unknown token = %q, want %q", a.Value, tt.argv[0])
			}
		})
	}
}

func TestParse_MissingSeparateValue(t *testing.T) {
	tbl := testTable(t)
	list, err := tbl.Parse([]string{"-vc-codegen", "-Xattach"}, famAPI)
	var missing *MissingArgError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingArgError", err)
	}
	if missing.Index != 1 || missing.Spelling != "-Xattach" {
		t.Errorf("missing arg = (%d, %q), want (1, %q)", missing.Index, missing.Spelling, "-Xattach")
	}
	// Args before the offending token survive.
	if !list.Has(optCodegen) {
		t.Error("args preceding the missing value were dropped")
	}
}

func TestParse_AliasResolvesToCanonical(t *testing.T) {
	tbl := testTable(t)
	list, err := tbl.Parse([]string{"-old_stack_size=0x20"}, famExtra)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	a := list.Last(optStackSize)
	if a == nil {
		t.Fatal("alias did not resolve to canonical option")
	}
	if a.Spelled.ID != optStackSizeAlias {
		t.Errorf("spelled id = %d, want alias id %d", a.Spelled.ID, optStackSizeAlias)
	}
	if a.Value != "0x20" {
		t.Errorf("value = %q, want %q", a.Value, "0x20")
	}
}

// Inclusion is judged by the alias's own family, so a canonical option
// outside the included set is still reachable through an included alias.
func TestParse_AliasFamilyJudgedBySpelling(t *testing.T) {
	tbl := testTable(t)

	list, err := tbl.Parse([]string{"-stack-size=16"}, famExtra)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if list.Has(optStackSize) {
		t.Error("canonical spelling bound despite excluded family")
	}

	list, err = tbl.Parse([]string{"-old_stack_size=16"}, famExtra)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !list.Has(optStackSize) {
		t.Error("alias spelling did not bind")
	}
}

func TestArgList_LastWinsAndValues(t *testing.T) {
	tbl := testTable(t)
	list, err := tbl.Parse([]string{"-vc-optimize=none", "-Xattach", "a", "-vc-optimize=full", "-Xattach", "b"}, famAPI)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := list.LastValue(optLevel, ""); got != "full" {
		t.Errorf("last -vc-optimize = %q, want %q", got, "full")
	}
	vals := list.Values(optXAttach)
	if len(vals) != 2 || vals[0] != "a" || vals[1] != "b" {
		t.Errorf("-Xattach values = %v, want [a b]", vals)
	}
}

func TestFilter_SharesArgs(t *testing.T) {
	tbl := testTable(t)
	list, err := tbl.Parse([]string{"-vc-codegen", "-vc-optimize=full"}, famAPI)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	view := list.Filter(func(a *Arg) bool { return a.Matches(optCodegen) })
	if view.Len() != 1 {
		t.Fatalf("view len = %d, want 1", view.Len())
	}
	if view.Args()[0] != list.Args()[0] {
		t.Error("derived view copied args instead of sharing them")
	}
	if view.Base() != list {
		t.Error("Base() lost the underlying list")
	}
}

func TestArg_StringRendersForm(t *testing.T) {
	tbl := testTable(t)
	list, err := tbl.Parse([]string{"-vc-optimize=bogus", "-Xattach", "x", "-vc-codegen"}, famAPI)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := make([]string, 0, list.Len())
	for _, a := range list.Args() {
		got = append(got, a.String())
	}
	want := []string{"-vc-optimize=bogus", "-Xattach x", "-vc-codegen"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("arg %d renders %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPrintHelp_ListsIncludedFamilies(t *testing.T) {
	tbl := testTable(t)
	var sb strings.Builder
	tbl.PrintHelp(&sb, "tool [options] <input>", "OPTIONS", famAPI)
	out := sb.String()
	if !strings.Contains(out, "-vc-optimize=<level>") {
		t.Errorf("help misses joined metavar line:\n%s", out)
	}
	if strings.Contains(out, "binary-format") {
		t.Errorf("help leaked excluded family:\n%s", out)
	}
}
