package ir

// TermKind enumerates block terminators.
type TermKind uint8

const (
	// TermNone marks a block that never got a terminator. Verification
	// rejects it.
	TermNone TermKind = iota
	// TermBr is an unconditional branch.
	TermBr
	// TermCondBr branches on an i1 condition.
	TermCondBr
	// TermRet returns from the function.
	TermRet
)

// Terminator ends a block.
type Terminator struct {
	Kind TermKind

	Br     BrTerm
	CondBr CondBrTerm
	Ret    RetTerm
}

// BrTerm is an unconditional branch to a labelled block.
type BrTerm struct {
	Target string
}

// CondBrTerm branches to Then when Cond is true, else to Else.
type CondBrTerm struct {
	Cond Value
	Then string
	Else string
}

// RetTerm returns, carrying a value unless the function returns void.
type RetTerm struct {
	HasValue bool
	Value    Value
}

// Targets returns the successor labels, in branch order.
func (t *Terminator) Targets() []string {
	switch t.Kind {
	case TermBr:
		return []string{t.Br.Target}
	case TermCondBr:
		return []string{t.CondBr.Then, t.CondBr.Else}
	}
	return nil
}

// Retarget rewrites every successor label through redirect.
func (t *Terminator) Retarget(redirect func(string) string) {
	switch t.Kind {
	case TermBr:
		t.Br.Target = redirect(t.Br.Target)
	case TermCondBr:
		t.CondBr.Then = redirect(t.CondBr.Then)
		t.CondBr.Else = redirect(t.CondBr.Else)
	}
}
