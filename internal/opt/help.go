package opt

import (
	"fmt"
	"io"
	"slices"
	"strings"
)

// PrintHelp writes a usage banner and the options of the included
// families, sorted by name. Aliases are listed next to their own help
// text like any other option.
func (t *Table) PrintHelp(w io.Writer, usage, title string, include Flags) {
	fmt.Fprintf(w, "%s\n\nUSAGE: %s\n\nOPTIONS:\n", title, usage)

	opts := make([]*Option, 0, len(t.ordered))
	for _, o := range t.ordered {
		if o.Flags.Intersects(include) {
			opts = append(opts, o)
		}
	}
	slices.SortFunc(opts, func(a, b *Option) int {
		return strings.Compare(a.Name, b.Name)
	})

	left := make([]string, len(opts))
	width := 0
	for i, o := range opts {
		left[i] = renderOption(o)
		if len(left[i]) > width {
			width = len(left[i])
		}
	}
	for i, o := range opts {
		fmt.Fprintf(w, "  %-*s  %s\n", width, left[i], o.Help)
	}
}

func renderOption(o *Option) string {
	meta := o.MetaVar
	if meta == "" {
		meta = "<value>"
	}
	switch o.Kind {
	case KindFlag:
		return "-" + o.Name
	case KindSeparate:
		return "-" + o.Name + " " + meta
	case KindJoinedOrSeparate:
		return "-" + o.Name + "[=]" + meta
	default:
		return "-" + o.Name + "=" + meta
	}
}
