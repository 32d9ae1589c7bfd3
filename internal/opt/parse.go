package opt

import (
	"fmt"
	"strings"
)

// MissingArgError reports a value-carrying option that ran off the end
// of argv without its value.
type MissingArgError struct {
	Index    int    // argv index of the offending token
	Spelling string // the token as written
}

func (e *MissingArgError) Error() string {
	return fmt.Sprintf("option %q at index %d is missing a required value", e.Spelling, e.Index)
}

// Parse binds argv tokens to table options. Only options whose family
// flags intersect include are recognized; everything else that looks
// like an option becomes an Unknown arg, and bare tokens become Input
// args. Family membership of an alias is judged by the alias's own
// flags, not its target's.
//
// The returned list owns its args. A *MissingArgError is returned when
// a separate-value option has no following token; args parsed before
// the offending token are still returned.
func (t *Table) Parse(argv []string, include Flags) (*ArgList, error) {
	list := &ArgList{}
	for i := 0; i < len(argv); i++ {
		tok := argv[i]
		if tok == "" {
			continue
		}
		if tok == "-" || !strings.HasPrefix(tok, "-") {
			list.args = append(list.args, &Arg{Opt: t.input, Spelled: t.input, Index: i, Value: tok})
			continue
		}
		body := strings.TrimPrefix(strings.TrimPrefix(tok, "-"), "-")
		name, joined, hasEq := strings.Cut(body, "=")
		spelling := tok
		if hasEq {
			spelling = tok[:len(tok)-len(joined)-1]
		}

		spelled := t.byName[name]
		if spelled == nil || !spelled.Flags.Intersects(include) {
			list.args = append(list.args, &Arg{Opt: t.unknown, Spelled: t.unknown, Index: i, Value: tok})
			continue
		}

		var value string
		ok := false
		switch spelled.Kind {
		case KindFlag:
			ok = !hasEq
		case KindJoined:
			value, ok = joined, hasEq
		case KindSeparate:
			if !hasEq {
				if i+1 >= len(argv) {
					return list, &MissingArgError{Index: i, Spelling: tok}
				}
				i++
				value, ok = argv[i], true
			}
		case KindJoinedOrSeparate:
			if hasEq {
				value, ok = joined, true
			} else if i+1 < len(argv) {
				i++
				value, ok = argv[i], true
			} else {
				return list, &MissingArgError{Index: i, Spelling: tok}
			}
		}
		if !ok {
			list.args = append(list.args, &Arg{Opt: t.unknown, Spelled: t.unknown, Index: i, Value: tok})
			continue
		}

		canon := spelled
		if spelled.Alias != Invalid {
			canon = t.byID[spelled.Alias]
		}
		list.args = append(list.args, &Arg{
			Opt:      canon,
			Spelled:  spelled,
			Index:    i,
			Spelling: spelling,
			Value:    value,
		})
	}
	return list, nil
}
