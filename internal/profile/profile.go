// Package profile loads vexc.toml compile profiles. A profile names
// the option strings and target settings for one compile
// configuration, so invocations stay reproducible across a project.
package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Profile is one named compile configuration.
type Profile struct {
	// Options is the API option string. It must carry the compilation
	// marker, exactly as an embedder would pass it.
	Options string `toml:"options"`
	// InternalOptions is the internal option string.
	InternalOptions string `toml:"internal-options"`
	// CPU overrides the hardware generation.
	CPU string `toml:"cpu"`
	// Strict enables strict option checking.
	Strict bool `toml:"strict"`
	// DumpDir receives dump artifacts when dumps are enabled.
	DumpDir string `toml:"dump-dir"`
}

// Manifest is a parsed vexc.toml.
type Manifest struct {
	// Path is the manifest file, Root its directory.
	Path string
	Root string

	// Default names the profile used when none is requested.
	Default  string             `toml:"default"`
	Profiles map[string]Profile `toml:"profile"`
}

// Find walks from startDir toward the filesystem root looking for a
// vexc.toml. It reports the path and whether one was found.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "vexc.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load parses and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	m := &Manifest{}
	meta, err := toml.DecodeFile(path, m)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("profile") || len(m.Profiles) == 0 {
		return nil, fmt.Errorf("%s: missing [profile.<name>]", path)
	}
	for name, p := range m.Profiles {
		if !meta.IsDefined("profile", name, "options") || strings.TrimSpace(p.Options) == "" {
			return nil, fmt.Errorf("%s: profile %q: missing options", path, name)
		}
	}
	if m.Default != "" {
		if _, ok := m.Profiles[m.Default]; !ok {
			return nil, fmt.Errorf("%s: default profile %q is not defined", path, m.Default)
		}
	}
	m.Path = path
	m.Root = filepath.Dir(path)
	return m, nil
}

// Select returns the named profile. An empty name selects the
// manifest default, or the sole profile when the manifest defines
// exactly one and names no default.
func (m *Manifest) Select(name string) (Profile, error) {
	if name == "" {
		name = m.Default
	}
	if name == "" {
		if len(m.Profiles) == 1 {
			for _, p := range m.Profiles {
				return p, nil
			}
		}
		return Profile{}, fmt.Errorf("%s: several profiles and no default; pick one", m.Path)
	}
	p, ok := m.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%s: no profile %q", m.Path, name)
	}
	return p, nil
}
