// Package bif carries the stock builtin support modules that code
// generation links against kernels. The sources ship embedded in text
// form and compile to the binary module encoding on first use.
package bif

import (
	"embed"
	"fmt"
	"sync"

	"vexc/driver"
	"vexc/ir"
)

//go:embed builtins/*.vir
var builtinFS embed.FS

var (
	compileOnce sync.Once
	compiled    map[string][]byte
)

// Default returns the stock support modules: generic vector helpers,
// emulation routines, portable-package builtins and both printf
// variants. Every call returns the same backing slices; callers must
// not write to them.
func Default() driver.ExternalData {
	compileOnce.Do(compileAll)
	return driver.ExternalData{
		Generic:     compiled["generic.vir"],
		Emulation:   compiled["emulation.vir"],
		PILBuiltins: compiled["portable.vir"],
		Printf32:    compiled["printf32.vir"],
		Printf64:    compiled["printf64.vir"],
	}
}

// compileAll parses and encodes every embedded source. The sources are
// part of the build, so any failure here is a packaging bug and panics.
func compileAll() {
	compiled = make(map[string][]byte)
	entries, err := builtinFS.ReadDir("builtins")
	if err != nil {
		panic(fmt.Errorf("bif: reading embedded builtins: %w", err))
	}
	for _, e := range entries {
		src, err := builtinFS.ReadFile("builtins/" + e.Name())
		if err != nil {
			panic(fmt.Errorf("bif: reading %s: %w", e.Name(), err))
		}
		m, err := ir.ParseModule(src)
		if err != nil {
			panic(fmt.Errorf("bif: parsing %s: %w", e.Name(), err))
		}
		if err := ir.Verify(m); err != nil {
			panic(fmt.Errorf("bif: verifying %s: %w", e.Name(), err))
		}
		bin, err := ir.EncodeBinary(m)
		if err != nil {
			panic(fmt.Errorf("bif: encoding %s: %w", e.Name(), err))
		}
		compiled[e.Name()] = bin
	}
}
