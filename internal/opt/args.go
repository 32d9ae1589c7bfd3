package opt

// Arg is one parsed argument bound to a table option.
type Arg struct {
	// Opt is the canonical option after alias resolution. For tokens
	// that bound to nothing it is the table's Unknown or Input entry.
	Opt *Option
	// Spelled is the option as written; differs from Opt only when the
	// token matched through an alias.
	Spelled *Option
	// Index is the position of the leading token in the original argv.
	Index int
	// Spelling is the leading token as written, without any value part,
	// e.g. "-vc-optimize". Empty for Unknown and Input args.
	Spelling string
	// Value is the bound value for value-carrying options. For Unknown
	// and Input args it holds the raw token.
	Value string
}

// Matches reports whether the arg resolved to the canonical option id.
func (a *Arg) Matches(id ID) bool { return a.Opt.ID == id }

// String re-renders the argument roughly as written, for error text.
func (a *Arg) String() string {
	switch a.Opt.ID {
	case Unknown, Input:
		return a.Value
	}
	switch a.Spelled.Kind {
	case KindFlag:
		return a.Spelling
	case KindSeparate:
		return a.Spelling + " " + a.Value
	default:
		return a.Spelling + "=" + a.Value
	}
}

// ArgList holds parsed arguments in argv order.
type ArgList struct {
	args []*Arg
}

// Args returns the arguments in argv order. The slice is shared.
func (l *ArgList) Args() []*Arg { return l.args }

// Len returns the number of parsed arguments.
func (l *ArgList) Len() int { return len(l.args) }

// Has reports whether any argument resolved to one of ids.
func (l *ArgList) Has(ids ...ID) bool {
	return l.Last(ids...) != nil
}

// Last returns the last argument resolving to one of ids, or nil.
func (l *ArgList) Last(ids ...ID) *Arg {
	for i := len(l.args) - 1; i >= 0; i-- {
		for _, id := range ids {
			if l.args[i].Matches(id) {
				return l.args[i]
			}
		}
	}
	return nil
}

// LastValue returns the value of the last argument resolving to id, or
// def when the option never appeared.
func (l *ArgList) LastValue(id ID, def string) string {
	if a := l.Last(id); a != nil {
		return a.Value
	}
	return def
}

// Values collects, in order, the values of every argument resolving to
// one of ids.
func (l *ArgList) Values(ids ...ID) []string {
	var vals []string
	for _, a := range l.args {
		for _, id := range ids {
			if a.Matches(id) {
				vals = append(vals, a.Value)
				break
			}
		}
	}
	return vals
}

// Filter returns a derived view holding only the arguments keep accepts.
// The view shares Arg values with the receiver and stays valid only as
// long as the receiver does.
func (l *ArgList) Filter(keep func(*Arg) bool) *DerivedArgList {
	d := &DerivedArgList{base: l}
	for _, a := range l.args {
		if keep(a) {
			d.args = append(d.args, a)
		}
	}
	return d
}

// DerivedArgList is a non-owning filtered view over an ArgList.
type DerivedArgList struct {
	ArgList
	base *ArgList
}

// Base returns the list this view was derived from.
func (d *DerivedArgList) Base() *ArgList { return d.base }
