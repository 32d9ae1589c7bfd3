// Package opt implements driver-style option tables: single-dash long
// options with joined (=) or separate values, option aliases, and
// per-family visibility flags that select which subset of a table a
// given parse recognizes.
package opt

import "fmt"

// ID identifies an option within a Table.
type ID int

// Reserved IDs. Declared options must use FirstDeclared or above.
const (
	// Invalid marks an absent option reference, e.g. Option.Alias of a
	// non-alias option.
	Invalid ID = iota
	// Unknown binds tokens that look like options but match nothing in
	// the table (or nothing in the included families).
	Unknown
	// Input binds bare tokens that do not start with a dash.
	Input
	// FirstDeclared is the first ID available to table declarations.
	FirstDeclared
)

// Kind describes how an option consumes its value.
type Kind uint8

const (
	// KindFlag takes no value.
	KindFlag Kind = iota
	// KindJoined takes a value attached with '=', as in -opt=value.
	KindJoined
	// KindSeparate takes the following token as its value.
	KindSeparate
	// KindJoinedOrSeparate accepts either form.
	KindJoinedOrSeparate
)

// Flags is a bit set of option families. The meaning of each bit is up
// to the table owner; parsing only intersects them.
type Flags uint32

// Intersects reports whether any family bit is shared with other.
func (f Flags) Intersects(other Flags) bool { return f&other != 0 }

// Option describes a single table entry.
type Option struct {
	ID      ID
	Name    string // spelling without the leading dash and without '='
	Kind    Kind
	Flags   Flags
	Alias   ID     // canonical option this entry aliases, or Invalid
	MetaVar string // value placeholder for help output
	Help    string
}

// Table is an immutable set of option declarations.
type Table struct {
	byID    map[ID]*Option
	byName  map[string]*Option
	ordered []*Option

	unknown *Option
	input   *Option
}

// NewTable builds a table from declarations. Declarations are static
// program data, so any inconsistency is a bug and panics.
func NewTable(opts []Option) *Table {
	t := &Table{
		byID:    make(map[ID]*Option, len(opts)+2),
		byName:  make(map[string]*Option, len(opts)),
		ordered: make([]*Option, 0, len(opts)),
		unknown: &Option{ID: Unknown, Name: "<unknown>"},
		input:   &Option{ID: Input, Name: "<input>"},
	}
	t.byID[Unknown] = t.unknown
	t.byID[Input] = t.input
	for i := range opts {
		o := opts[i]
		if o.ID < FirstDeclared {
			panic(fmt.Sprintf("opt: option %q uses reserved id %d", o.Name, o.ID))
		}
		if o.Name == "" {
			panic(fmt.Sprintf("opt: option id %d has no name", o.ID))
		}
		if _, dup := t.byID[o.ID]; dup {
			panic(fmt.Sprintf("opt: duplicate option id %d (%q)", o.ID, o.Name))
		}
		if _, dup := t.byName[o.Name]; dup {
			panic(fmt.Sprintf("opt: duplicate option name %q", o.Name))
		}
		oc := o
		t.byID[o.ID] = &oc
		t.byName[o.Name] = &oc
		t.ordered = append(t.ordered, &oc)
	}
	for _, o := range t.ordered {
		if o.Alias == Invalid {
			continue
		}
		target, ok := t.byID[o.Alias]
		if !ok || o.Alias < FirstDeclared {
			panic(fmt.Sprintf("opt: option %q aliases undeclared id %d", o.Name, o.Alias))
		}
		if target.Alias != Invalid {
			panic(fmt.Sprintf("opt: option %q aliases alias %q", o.Name, target.Name))
		}
		if target.Kind != o.Kind {
			panic(fmt.Sprintf("opt: alias %q changes kind of %q", o.Name, target.Name))
		}
	}
	return t
}

// Option returns the declaration for id, or nil.
func (t *Table) Option(id ID) *Option {
	return t.byID[id]
}

// Lookup returns the declaration spelled name (no leading dash), or nil.
func (t *Table) Lookup(name string) *Option {
	return t.byName[name]
}
