package ir

import (
	"fmt"
	"io"
	"strings"
)

// WriteModule writes the canonical text form of m. The output parses
// back to an equal module.
func WriteModule(w io.Writer, m *Module) error {
	p := &printer{w: w}
	p.module(m)
	return p.err
}

// String renders the module in canonical text form.
func (m *Module) String() string {
	var sb strings.Builder
	_ = WriteModule(&sb, m)
	return sb.String()
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) module(m *Module) {
	if m.Triple != "" {
		p.printf("target triple = %q\n", m.Triple)
	}
	if m.DataLayout != "" {
		p.printf("target datalayout = %q\n", m.DataLayout)
	}
	for _, g := range m.Globals {
		if g.HasInit {
			p.printf("global %s @%s = %d\n", g.Type, g.Name, g.Init)
		} else {
			p.printf("global %s @%s\n", g.Type, g.Name)
		}
	}
	for _, f := range m.Funcs {
		p.printf("\n")
		p.fn(f)
	}
}

func (p *printer) fn(f *Func) {
	if f.IsDecl() {
		types := make([]string, len(f.Params))
		for i, prm := range f.Params {
			types[i] = prm.Type.String()
		}
		p.printf("declare %s @%s(%s)%s\n", f.Ret, f.Name, strings.Join(types, ", "), attrSuffix(f.Attrs))
		return
	}
	params := make([]string, len(f.Params))
	for i, prm := range f.Params {
		params[i] = fmt.Sprintf("%s %%%s", prm.Type, prm.Name)
	}
	kernel := ""
	if f.Kernel {
		kernel = "kernel "
	}
	p.printf("define %s%s @%s(%s)%s {\n", kernel, f.Ret, f.Name, strings.Join(params, ", "), attrSuffix(f.Attrs))
	for _, b := range f.Blocks {
		p.printf("%s:\n", b.Name)
		for i := range b.Instrs {
			p.printf("  %s\n", renderInstr(&b.Instrs[i]))
		}
		p.term(&b.Term)
	}
	p.printf("}\n")
}

func attrSuffix(a FuncAttrs) string {
	var sb strings.Builder
	if a.AlwaysInline {
		sb.WriteString(" alwaysinline")
	}
	if a.NoInline {
		sb.WriteString(" noinline")
	}
	if a.ReadNone {
		sb.WriteString(" readnone")
	}
	return sb.String()
}

func renderInstr(in *Instr) string {
	switch {
	case in.Op.IsBinary():
		return fmt.Sprintf("%%%s = %s %s %s, %s", in.Result, in.Op, in.Type, in.Args[0], in.Args[1])
	case in.Op == OpICmp:
		return fmt.Sprintf("%%%s = icmp %s %s %s, %s", in.Result, in.Pred, in.Args[0].Type, in.Args[0], in.Args[1])
	case in.Op == OpSelect:
		return fmt.Sprintf("%%%s = select %s %s, %s, %s", in.Result, in.Type, in.Args[0], in.Args[1], in.Args[2])
	case in.Op == OpSplat:
		return fmt.Sprintf("%%%s = splat %s %s", in.Result, in.Type, in.Args[0])
	case in.Op == OpLoad:
		return fmt.Sprintf("%%%s = load %s, ptr %s", in.Result, in.Type, in.Args[0])
	case in.Op == OpStore:
		return fmt.Sprintf("store %s %s, ptr %s", in.Args[0].Type, in.Args[0], in.Args[1])
	case in.Op == OpBitcast:
		return fmt.Sprintf("%%%s = bitcast %s %s to %s", in.Result, in.Args[0].Type, in.Args[0], in.Type)
	case in.Op == OpCall:
		args := make([]string, len(in.Args))
		for i, a := range in.Args {
			args[i] = fmt.Sprintf("%s %s", a.Type, a)
		}
		callExpr := fmt.Sprintf("call %s @%s(%s)", in.Type, in.Callee, strings.Join(args, ", "))
		if in.HasResult() {
			return fmt.Sprintf("%%%s = %s", in.Result, callExpr)
		}
		return callExpr
	}
	return fmt.Sprintf("<bad op %s>", in.Op)
}

func (p *printer) term(t *Terminator) {
	switch t.Kind {
	case TermBr:
		p.printf("  br label %%%s\n", t.Br.Target)
	case TermCondBr:
		p.printf("  br i1 %s, label %%%s, label %%%s\n", t.CondBr.Cond, t.CondBr.Then, t.CondBr.Else)
	case TermRet:
		if t.Ret.HasValue {
			p.printf("  ret %s %s\n", t.Ret.Value.Type, t.Ret.Value)
		} else {
			p.printf("  ret void\n")
		}
	case TermNone:
		// Left unterminated; the verifier reports it. Print nothing.
	}
}
