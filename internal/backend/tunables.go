package backend

import (
	"strconv"
	"strings"

	"vexc/internal/opt"
)

// Tunables are the auxiliary backend knobs carried by the
// -backend-options string. They configure this one compilation only;
// nothing about them is process-global.
type Tunables struct {
	// FinalizerOpts accumulates -finalizer-opts fragments in order.
	FinalizerOpts []string
	// EnableSLP turns the superword vectorizer back on.
	EnableSLP bool
	// DumpRegAlloc dumps register allocation decisions.
	DumpRegAlloc bool
	// GRFPressureLimit caps estimated register pressure; 0 means no
	// cap.
	GRFPressureLimit int
}

// ParseTunables scans a -backend-options value. Unrecognized flags and
// malformed values are skipped, never reported: the string reaches the
// backend after option resolution succeeded, and resolution must not
// fail retroactively.
func ParseTunables(flags string) Tunables {
	var t Tunables
	toks := opt.Tokenize(flags)
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		if !strings.HasPrefix(tok, "-") {
			continue
		}
		body := strings.TrimPrefix(strings.TrimPrefix(tok, "-"), "-")
		name, val, hasEq := strings.Cut(body, "=")
		// Separate-form value, as in "-finalizer-opts '-noschedule'".
		// The next token is consumed whatever it looks like, the way
		// value options usually behave.
		takeValue := func() (string, bool) {
			if hasEq {
				return val, true
			}
			if i+1 < len(toks) {
				i++
				return toks[i], true
			}
			return "", false
		}
		switch name {
		case "finalizer-opts":
			if v, ok := takeValue(); ok {
				t.FinalizerOpts = append(t.FinalizerOpts, v)
			}
		case "vc-enable-slp":
			t.EnableSLP = true
		case "dump-regalloc":
			t.DumpRegAlloc = true
		case "grf-pressure-limit":
			if v, ok := takeValue(); ok {
				if n, err := strconv.Atoi(v); err == nil && n >= 0 {
					t.GRFPressureLimit = n
				}
			}
		}
	}
	return t
}
