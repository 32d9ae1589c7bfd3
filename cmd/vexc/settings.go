package main

import (
	"fmt"
	"strconv"
	"strings"

	"vexc/internal/profile"
)

// compileSettings carries the profile-supplied defaults for a compile
// invocation. Explicit flags always win over these.
type compileSettings struct {
	Options         string
	InternalOptions string
	CPU             string
	Strict          bool
	DumpDir         string
}

// loadProfileSettings resolves vexc.toml for the invocation. A named
// profile requires a manifest; without a name the manifest is consulted
// only when the caller gave no explicit option string.
func loadProfileSettings(startDir, name string, optionsExplicit bool) (compileSettings, bool, error) {
	var s compileSettings
	path, found, err := profile.Find(startDir)
	if err != nil {
		return s, false, err
	}
	if !found {
		if name != "" {
			return s, false, fmt.Errorf("--profile %s: no vexc.toml found", name)
		}
		return s, false, nil
	}
	if name == "" && optionsExplicit {
		return s, false, nil
	}
	manifest, err := profile.Load(path)
	if err != nil {
		return s, false, err
	}
	p, err := manifest.Select(name)
	if err != nil {
		return s, false, err
	}
	return compileSettings{
		Options:         p.Options,
		InternalOptions: p.InternalOptions,
		CPU:             p.CPU,
		Strict:          p.Strict,
		DumpDir:         p.DumpDir,
	}, true, nil
}

// parseSpecPairs turns repeated id=value flags into the parallel
// constant slices the compiler takes. Values may use any base strconv
// recognizes by prefix.
func parseSpecPairs(pairs []string) ([]uint32, []uint64, error) {
	if len(pairs) == 0 {
		return nil, nil, nil
	}
	ids := make([]uint32, 0, len(pairs))
	vals := make([]uint64, 0, len(pairs))
	for _, pair := range pairs {
		idText, valueText, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, nil, fmt.Errorf("invalid --spec %q (expected id=value)", pair)
		}
		id, err := strconv.ParseUint(strings.TrimSpace(idText), 10, 32)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid --spec id %q: %w", idText, err)
		}
		value, err := strconv.ParseUint(strings.TrimSpace(valueText), 0, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid --spec value %q: %w", valueText, err)
		}
		ids = append(ids, uint32(id))
		vals = append(vals, value)
	}
	return ids, vals, nil
}
