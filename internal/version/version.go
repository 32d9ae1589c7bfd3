package version

import (
	"strings"

	"github.com/fatih/color"
)

// Build metadata for the vexc driver. The variables must stay plain
// string literals so -ldflags -X can override them at link time.

var (
	// Version is the semantic version of the driver.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// GitMessage is an optional git commit message.
	GitMessage = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var segmentColors = [...]*color.Color{
	color.New(color.FgYellow, color.Bold),
	color.New(color.FgGreen, color.Bold),
	color.New(color.FgBlue, color.Bold),
}

// Colorized renders Version with each dotted release segment in its own
// color. A pre-release or build-metadata suffix is left unstyled.
func Colorized() string {
	release, suffix := Version, ""
	if i := strings.IndexAny(release, "-+"); i >= 0 {
		release, suffix = release[:i], release[i:]
	}
	parts := strings.Split(release, ".")
	for i, part := range parts {
		parts[i] = segmentColors[i%len(segmentColors)].Sprint(part)
	}
	return strings.Join(parts, ".") + suffix
}
