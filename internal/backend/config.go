package backend

import (
	"vexc/internal/observ"
	"vexc/internal/stats"
)

// Config is everything the backend needs for one compilation. It is
// built fresh per Compile call and threaded explicitly; there is no
// process-global compilation state, so concurrent compilations cannot
// observe each other.
type Config struct {
	Options  Options
	Data     Data
	Tunables Tunables

	// Stats is nil unless statistics were requested.
	Stats *stats.Registry
	// Times is nil unless a time report was requested.
	Times *observ.Timer
}
