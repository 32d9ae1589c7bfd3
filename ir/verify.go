package ir

import (
	"errors"
	"fmt"
)

// Verify checks module invariants. It returns nil for a well-formed
// module and otherwise an error joining every violation found, so a
// single pass reports all problems at once.
func Verify(m *Module) error {
	if m == nil {
		return errors.New("nil module")
	}
	var errs []error

	// 1. Unique global and function names.
	names := make(map[string]bool, len(m.Globals))
	for _, g := range m.Globals {
		if names[g.Name] {
			errs = append(errs, fmt.Errorf("duplicate global @%s", g.Name))
		}
		names[g.Name] = true
		if g.Type.IsVoid() {
			errs = append(errs, fmt.Errorf("global @%s: void type", g.Name))
		}
	}
	fnames := make(map[string]bool, len(m.Funcs))
	for _, f := range m.Funcs {
		if fnames[f.Name] {
			errs = append(errs, fmt.Errorf("duplicate function @%s", f.Name))
		}
		fnames[f.Name] = true
	}

	// 2. Kernel constraints.
	for _, f := range m.Funcs {
		if !f.Kernel {
			continue
		}
		if !f.Ret.IsVoid() {
			errs = append(errs, fmt.Errorf("kernel @%s: non-void return type %s", f.Name, f.Ret))
		}
		if f.IsDecl() {
			errs = append(errs, fmt.Errorf("kernel @%s: missing body", f.Name))
		}
	}

	// 3. Function bodies.
	for _, f := range m.Funcs {
		if f.IsDecl() {
			continue
		}
		if err := verifyFunc(m, f); err != nil {
			errs = append(errs, fmt.Errorf("function @%s: %w", f.Name, err))
		}
	}

	return errors.Join(errs...)
}

func verifyFunc(m *Module, f *Func) error {
	var errs []error

	// 1. Every block is terminated and labels are unique.
	labels := make(map[string]bool, len(f.Blocks))
	for _, b := range f.Blocks {
		if labels[b.Name] {
			errs = append(errs, fmt.Errorf("%s: duplicate label", b.Name))
		}
		labels[b.Name] = true
		if b.Term.Kind == TermNone {
			errs = append(errs, fmt.Errorf("%s: unterminated block", b.Name))
		}
	}

	// 2. Branch targets resolve to labels of this function.
	for _, b := range f.Blocks {
		for _, target := range b.Term.Targets() {
			if !labels[target] {
				errs = append(errs, fmt.Errorf("%s: branch to undefined label %%%s", b.Name, target))
			}
		}
	}

	// 3. Single definition per register, params included.
	defs := make(map[string]Type, len(f.Params))
	for _, prm := range f.Params {
		if _, dup := defs[prm.Name]; dup {
			errs = append(errs, fmt.Errorf("duplicate parameter %%%s", prm.Name))
		}
		if prm.Type.IsVoid() {
			errs = append(errs, fmt.Errorf("parameter %%%s: void type", prm.Name))
		}
		defs[prm.Name] = prm.Type
	}
	for _, b := range f.Blocks {
		for i := range b.Instrs {
			in := &b.Instrs[i]
			if !in.HasResult() {
				continue
			}
			if _, dup := defs[in.Result]; dup {
				errs = append(errs, fmt.Errorf("%s: second definition of %%%s", b.Name, in.Result))
			}
			defs[in.Result] = in.Type
		}
	}

	// 4. Instruction structure and operand agreement.
	for _, b := range f.Blocks {
		for i := range b.Instrs {
			if err := verifyInstr(m, defs, &b.Instrs[i]); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", b.Name, err))
			}
		}
		if err := verifyTerm(f, defs, &b.Term); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b.Name, err))
		}
	}

	return errors.Join(errs...)
}

// verifyOperand checks a single use against the definition environment.
func verifyOperand(m *Module, defs map[string]Type, v Value) error {
	switch v.Kind {
	case ValReg:
		def, ok := defs[v.Name]
		if !ok {
			return fmt.Errorf("use of undefined register %%%s", v.Name)
		}
		if def != v.Type {
			return fmt.Errorf("%%%s used as %s but defined as %s", v.Name, v.Type, def)
		}
	case ValGlobal:
		if m.Global(v.Name) == nil {
			return fmt.Errorf("use of undefined global @%s", v.Name)
		}
	case ValConst:
		if !v.Type.IsInt() {
			return fmt.Errorf("integer immediate %d typed %s", v.Const, v.Type)
		}
	case ValUndef:
		if v.Type.IsVoid() {
			return errors.New("undef of void type")
		}
	}
	return nil
}

func verifyInstr(m *Module, defs map[string]Type, in *Instr) error {
	for _, a := range in.Args {
		if err := verifyOperand(m, defs, a); err != nil {
			return fmt.Errorf("%s: %w", in.Op, err)
		}
	}
	argc := func(n int) error {
		if len(in.Args) != n {
			return fmt.Errorf("%s: %d operands, want %d", in.Op, len(in.Args), n)
		}
		return nil
	}

	switch {
	case in.Op.IsBinary():
		if err := argc(2); err != nil {
			return err
		}
		if in.Args[0].Type != in.Type || in.Args[1].Type != in.Type {
			return fmt.Errorf("%s: operand types %s, %s do not match result %s",
				in.Op, in.Args[0].Type, in.Args[1].Type, in.Type)
		}
		if in.Op.IsFloatOp() && !in.Type.IsFloat() {
			return fmt.Errorf("%s on non-float type %s", in.Op, in.Type)
		}
		if !in.Op.IsFloatOp() && !in.Type.IsInt() {
			return fmt.Errorf("%s on non-integer type %s", in.Op, in.Type)
		}
	case in.Op == OpICmp:
		if err := argc(2); err != nil {
			return err
		}
		opTy := in.Args[0].Type
		if !opTy.IsInt() {
			return fmt.Errorf("icmp on non-integer type %s", opTy)
		}
		if in.Args[1].Type != opTy {
			return fmt.Errorf("icmp operand types %s, %s differ", opTy, in.Args[1].Type)
		}
		if in.Type != opTy.Bool() {
			return fmt.Errorf("icmp result typed %s, want %s", in.Type, opTy.Bool())
		}
	case in.Op == OpSelect:
		if err := argc(3); err != nil {
			return err
		}
		if in.Args[0].Type != in.Type.Bool() {
			return fmt.Errorf("select condition typed %s, want %s", in.Args[0].Type, in.Type.Bool())
		}
		if in.Args[1].Type != in.Type || in.Args[2].Type != in.Type {
			return fmt.Errorf("select arms typed %s, %s, want %s", in.Args[1].Type, in.Args[2].Type, in.Type)
		}
	case in.Op == OpSplat:
		if err := argc(1); err != nil {
			return err
		}
		if !in.Type.IsVector() {
			return fmt.Errorf("splat to non-vector type %s", in.Type)
		}
		if in.Args[0].Type != in.Type.Elem() {
			return fmt.Errorf("splat operand typed %s, want %s", in.Args[0].Type, in.Type.Elem())
		}
	case in.Op == OpLoad:
		if err := argc(1); err != nil {
			return err
		}
		if in.Args[0].Type != Ptr {
			return fmt.Errorf("load address typed %s, want ptr", in.Args[0].Type)
		}
		if in.Type.IsVoid() {
			return errors.New("load of void type")
		}
	case in.Op == OpStore:
		if err := argc(2); err != nil {
			return err
		}
		if in.Args[0].Type.IsVoid() {
			return errors.New("store of void value")
		}
		if in.Args[1].Type != Ptr {
			return fmt.Errorf("store address typed %s, want ptr", in.Args[1].Type)
		}
	case in.Op == OpCall:
		callee := m.Func(in.Callee)
		if callee == nil {
			return fmt.Errorf("call to undefined function @%s", in.Callee)
		}
		if len(in.Args) != len(callee.Params) {
			return fmt.Errorf("call @%s: %d arguments, want %d", in.Callee, len(in.Args), len(callee.Params))
		}
		for i, a := range in.Args {
			if a.Type != callee.Params[i].Type {
				return fmt.Errorf("call @%s: argument %d typed %s, want %s",
					in.Callee, i, a.Type, callee.Params[i].Type)
			}
		}
		if in.Type != callee.Ret {
			return fmt.Errorf("call @%s typed %s, want %s", in.Callee, in.Type, callee.Ret)
		}
		if callee.Kernel {
			return fmt.Errorf("call @%s: kernels are not callable", in.Callee)
		}
	case in.Op == OpBitcast:
		if err := argc(1); err != nil {
			return err
		}
		src, dst := in.Args[0].Type, in.Type
		if src.IsPtr() != dst.IsPtr() {
			return fmt.Errorf("bitcast between %s and %s crosses pointer class", src, dst)
		}
		if !src.IsPtr() && bitWidth(src) != bitWidth(dst) {
			return fmt.Errorf("bitcast between %s (%d bits) and %s (%d bits)",
				src, bitWidth(src), dst, bitWidth(dst))
		}
	default:
		return fmt.Errorf("unrecognized opcode %d", in.Op)
	}

	// Result presence matches type voidness.
	if in.Type.IsVoid() && in.HasResult() {
		return fmt.Errorf("%%%s defined by void-typed %s", in.Result, in.Op)
	}
	if !in.Type.IsVoid() && !in.HasResult() && in.Op != OpCall {
		return fmt.Errorf("%s result discarded", in.Op)
	}
	return nil
}

func verifyTerm(f *Func, defs map[string]Type, t *Terminator) error {
	switch t.Kind {
	case TermCondBr:
		if err := verifyOperandNoModule(defs, t.CondBr.Cond); err != nil {
			return err
		}
		if t.CondBr.Cond.Type != I1 {
			return fmt.Errorf("branch condition typed %s, want i1", t.CondBr.Cond.Type)
		}
	case TermRet:
		if t.Ret.HasValue {
			if f.Ret.IsVoid() {
				return errors.New("ret with value in void function")
			}
			if err := verifyOperandNoModule(defs, t.Ret.Value); err != nil {
				return err
			}
			if t.Ret.Value.Type != f.Ret {
				return fmt.Errorf("ret typed %s, want %s", t.Ret.Value.Type, f.Ret)
			}
		} else if !f.Ret.IsVoid() {
			return fmt.Errorf("ret without value in %s function", f.Ret)
		}
	}
	return nil
}

// verifyOperandNoModule is verifyOperand for positions where globals
// cannot appear usefully; it still tolerates them since their type is
// checked like any other.
func verifyOperandNoModule(defs map[string]Type, v Value) error {
	if v.Kind == ValReg {
		def, ok := defs[v.Name]
		if !ok {
			return fmt.Errorf("use of undefined register %%%s", v.Name)
		}
		if def != v.Type {
			return fmt.Errorf("%%%s used as %s but defined as %s", v.Name, v.Type, def)
		}
	}
	return nil
}

func bitWidth(t Type) int {
	return int(t.Bits) * t.LaneCount()
}
