// Package stats collects named counters during one compilation and
// renders them as a table or as JSON. A nil *Registry disables
// collection; counters obtained from it are safe no-ops, so pass code
// never branches on whether statistics were requested.
package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
)

// Counter is a monotonically growing named statistic.
type Counter struct {
	Name  string
	Desc  string
	value uint64
}

// Add bumps the counter by n.
func (c *Counter) Add(n uint64) {
	if c != nil {
		c.value += n
	}
}

// Inc bumps the counter by one.
func (c *Counter) Inc() { c.Add(1) }

// Value returns the current count.
func (c *Counter) Value() uint64 {
	if c == nil {
		return 0
	}
	return c.value
}

// Registry owns the counters of one compilation.
type Registry struct {
	order  []*Counter
	byName map[string]*Counter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Counter)}
}

// Counter returns the counter registered under name, creating it on
// first use. The description of the first registration wins.
func (r *Registry) Counter(name, desc string) *Counter {
	if r == nil {
		return nil
	}
	if c, ok := r.byName[name]; ok {
		return c
	}
	c := &Counter{Name: name, Desc: desc}
	r.byName[name] = c
	r.order = append(r.order, c)
	return c
}

// WriteText renders the nonzero counters as an aligned table, sorted
// by name.
func (r *Registry) WriteText(w io.Writer) {
	if r == nil {
		return
	}
	rows := make([]*Counter, 0, len(r.order))
	width := 0
	for _, c := range r.order {
		if c.value == 0 {
			continue
		}
		rows = append(rows, c)
		if n := len(fmt.Sprintf("%d", c.value)); n > width {
			width = n
		}
	}
	if len(rows) == 0 {
		return
	}
	slices.SortFunc(rows, func(a, b *Counter) int {
		return strings.Compare(a.Name, b.Name)
	})
	fmt.Fprintln(w, "=== compilation statistics ===")
	for _, c := range rows {
		fmt.Fprintf(w, "%*d %s - %s\n", width, c.value, c.Name, c.Desc)
	}
}

// WriteJSON renders all counters, zeros included, as a flat JSON
// object keyed by counter name.
func (r *Registry) WriteJSON(w io.Writer) error {
	obj := map[string]uint64{}
	if r != nil {
		for _, c := range r.order {
			obj[c.Name] = c.value
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(obj)
}
