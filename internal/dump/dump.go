// Package dump writes intermediate compilation artifacts to disk for
// inspection. Dump failures never fail a compilation; they are reported
// on the warning writer and the pipeline moves on.
package dump

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"vexc/ir"
)

// FileDumper writes artifacts under Dir, each file named
// "<Prefix><name>". A zero Dir means the current directory.
type FileDumper struct {
	Dir    string
	Prefix string
	// Warn receives dump failure notes; nil means stderr.
	Warn io.Writer
}

// DumpModule writes the module's text form under name.
func (d *FileDumper) DumpModule(m *ir.Module, name string) {
	path, err := d.prepare(name)
	if err != nil {
		d.warn(name, err)
		return
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		d.warn(name, err)
		return
	}
	werr := ir.WriteModule(f, m)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		d.warn(name, werr)
	}
}

// DumpBinary writes raw bytes under name.
func (d *FileDumper) DumpBinary(data []byte, name string) {
	path, err := d.prepare(name)
	if err != nil {
		d.warn(name, err)
		return
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		d.warn(name, err)
	}
}

func (d *FileDumper) prepare(name string) (string, error) {
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", err
	}
	return filepath.Join(dir, d.Prefix+name), nil
}

func (d *FileDumper) warn(name string, err error) {
	w := d.Warn
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, "warning: could not dump %s: %v\n", name, err)
}

// Discard drops every artifact.
type Discard struct{}

func (Discard) DumpModule(*ir.Module, string) {}

func (Discard) DumpBinary([]byte, string) {}
