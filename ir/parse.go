package ir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// The text syntax is line-oriented and deliberately small. Operand
// types are implied by the instruction form (one leading type), so
// parsing needs no symbol table; definition/use consistency is the
// verifier's job.

var virLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `;[^\n]*`, nil},
		{"String", `"[^"]*"`, nil},
		{"Reg", `%[A-Za-z_.$][A-Za-z0-9_.$]*`, nil},
		{"GlobalName", `@[A-Za-z_.$][A-Za-z0-9_.$]*`, nil},
		{"Number", `-?(0x[0-9a-fA-F]+|[0-9]+)`, nil},
		{"Ident", `[A-Za-z_.$][A-Za-z0-9_.$]*`, nil},
		{"Punct", `[=,(){}<>:]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})

var virParser = buildParser()

func buildParser() *participle.Parser[virFile] {
	p, err := participle.Build[virFile](
		participle.Lexer(virLexer),
		participle.Elide("Whitespace", "Comment"),
		participle.Unquote("String"),
		participle.UseLookahead(3),
	)
	if err != nil {
		panic(fmt.Errorf("ir: building grammar: %w", err))
	}
	return p
}

// ParseModule parses the canonical text form. The returned module is
// structurally well formed but not verified; callers decide when to
// run Verify.
func ParseModule(src []byte) (*Module, error) {
	file, err := virParser.ParseBytes("", src)
	if err != nil {
		return nil, err
	}
	return convertFile(file)
}

type virFile struct {
	Items []virItem `@@*`
}

type virItem struct {
	Triple  *virTriple  `  @@`
	Layout  *virLayout  `| @@`
	Global  *virGlobal  `| @@`
	Declare *virDeclare `| @@`
	Define  *virDefine  `| @@`
}

type virTriple struct {
	Value string `"target" "triple" "=" @String`
}

type virLayout struct {
	Value string `"target" "datalayout" "=" @String`
}

type virGlobal struct {
	Type virType `"global" @@`
	Name string  `@GlobalName`
	Init *string `("=" @Number)?`
}

type virDeclare struct {
	Ret   virType   `"declare" @@`
	Name  string    `@GlobalName`
	Types []virType `"(" (@@ ("," @@)*)? ")"`
	Attrs []string  `@("alwaysinline" | "noinline" | "readnone")*`
}

type virDefine struct {
	Kernel bool       `"define" @"kernel"?`
	Ret    virType    `@@`
	Name   string     `@GlobalName`
	Params []virParam `"(" (@@ ("," @@)*)? ")"`
	Attrs  []string   `@("alwaysinline" | "noinline" | "readnone")*`
	Blocks []virBlock `"{" @@* "}"`
}

type virParam struct {
	Type virType `@@`
	Name string  `@Reg`
}

type virBlock struct {
	Label string    `@Ident ":"`
	Lines []virLine `@@*`
}

type virLine struct {
	Store  *virStore    `  @@`
	Call   *virCallExpr `| @@`
	Br     *virBr       `| @@`
	Ret    *virRet      `| @@`
	Assign *virAssign   `| @@`
}

type virStore struct {
	Type virType  `"store" @@`
	Val  virValue `@@ ","`
	Addr virValue `"ptr" @@`
}

type virCallExpr struct {
	Ret    virType       `"call" @@`
	Callee string        `@GlobalName`
	Args   []virTypedVal `"(" (@@ ("," @@)*)? ")"`
}

type virTypedVal struct {
	Type virType  `@@`
	Val  virValue `@@`
}

type virBr struct {
	Target *string    `"br" ( "label" @Reg`
	Cond   *virCondBr `     | @@ )`
}

type virCondBr struct {
	Cond virValue `"i1" @@`
	Then string   `"," "label" @Reg`
	Else string   `"," "label" @Reg`
}

type virRet struct {
	Void bool         `"ret" ( @"void"`
	Val  *virTypedVal `      | @@ )`
}

type virAssign struct {
	Result  string       `@Reg "="`
	ICmp    *virICmp     `( @@`
	Select  *virSelect   `| @@`
	Splat   *virSplat    `| @@`
	Load    *virLoad     `| @@`
	Call    *virCallExpr `| @@`
	Bitcast *virBitcast  `| @@`
	Bin     *virBin      `| @@ )`
}

type virICmp struct {
	Pred string   `"icmp" @Ident`
	Type virType  `@@`
	A    virValue `@@ ","`
	B    virValue `@@`
}

type virSelect struct {
	Type virType  `"select" @@`
	Cond virValue `@@ ","`
	A    virValue `@@ ","`
	B    virValue `@@`
}

type virSplat struct {
	Type virType  `"splat" @@`
	Val  virValue `@@`
}

type virLoad struct {
	Type virType  `"load" @@ ","`
	Addr virValue `"ptr" @@`
}

type virBitcast struct {
	SrcType virType  `"bitcast" @@`
	Val     virValue `@@`
	DstType virType  `"to" @@`
}

type virBin struct {
	Op   string   `@Ident`
	Type virType  `@@`
	A    virValue `@@ ","`
	B    virValue `@@`
}

type virValue struct {
	Reg    *string `  @Reg`
	Global *string `| @GlobalName`
	Num    *string `| @Number`
	Undef  bool    `| @"undef"`
}

type virType struct {
	Vec  *virVec `  @@`
	Name *string `| @Ident`
}

type virVec struct {
	Lanes string `"<" @Number`
	Elem  string `"x" @Ident ">"`
}

func convertFile(file *virFile) (*Module, error) {
	m := &Module{}
	for i := range file.Items {
		item := &file.Items[i]
		switch {
		case item.Triple != nil:
			m.Triple = item.Triple.Value
		case item.Layout != nil:
			m.DataLayout = item.Layout.Value
		case item.Global != nil:
			g, err := convertGlobal(item.Global)
			if err != nil {
				return nil, err
			}
			m.Globals = append(m.Globals, g)
		case item.Declare != nil:
			f, err := convertDeclare(item.Declare)
			if err != nil {
				return nil, err
			}
			m.Funcs = append(m.Funcs, f)
		case item.Define != nil:
			f, err := convertDefine(item.Define)
			if err != nil {
				return nil, err
			}
			m.Funcs = append(m.Funcs, f)
		}
	}
	return m, nil
}

func convertGlobal(g *virGlobal) (*Global, error) {
	t, err := convertType(&g.Type)
	if err != nil {
		return nil, fmt.Errorf("global %s: %w", g.Name, err)
	}
	out := &Global{Name: sigil(g.Name), Type: t}
	if g.Init != nil {
		v, err := parseIntLit(*g.Init)
		if err != nil {
			return nil, fmt.Errorf("global %s: %w", g.Name, err)
		}
		out.Init, out.HasInit = v, true
	}
	return out, nil
}

func convertDeclare(d *virDeclare) (*Func, error) {
	ret, err := convertType(&d.Ret)
	if err != nil {
		return nil, fmt.Errorf("declare %s: %w", d.Name, err)
	}
	f := &Func{Name: sigil(d.Name), Ret: ret, Attrs: convertAttrs(d.Attrs)}
	for i := range d.Types {
		t, err := convertType(&d.Types[i])
		if err != nil {
			return nil, fmt.Errorf("declare %s: %w", d.Name, err)
		}
		f.Params = append(f.Params, Param{Type: t})
	}
	return f, nil
}

func convertDefine(d *virDefine) (*Func, error) {
	ret, err := convertType(&d.Ret)
	if err != nil {
		return nil, fmt.Errorf("define %s: %w", d.Name, err)
	}
	f := &Func{Name: sigil(d.Name), Ret: ret, Kernel: d.Kernel, Attrs: convertAttrs(d.Attrs)}
	for i := range d.Params {
		t, err := convertType(&d.Params[i].Type)
		if err != nil {
			return nil, fmt.Errorf("define %s: %w", d.Name, err)
		}
		f.Params = append(f.Params, Param{Name: sigil(d.Params[i].Name), Type: t})
	}
	for i := range d.Blocks {
		b, err := convertBlock(&d.Blocks[i], f.Name)
		if err != nil {
			return nil, err
		}
		f.Blocks = append(f.Blocks, b)
	}
	return f, nil
}

func convertAttrs(attrs []string) FuncAttrs {
	var a FuncAttrs
	for _, s := range attrs {
		switch s {
		case "alwaysinline":
			a.AlwaysInline = true
		case "noinline":
			a.NoInline = true
		case "readnone":
			a.ReadNone = true
		}
	}
	return a
}

func convertBlock(b *virBlock, fn string) (*Block, error) {
	out := &Block{Name: b.Label}
	for i := range b.Lines {
		line := &b.Lines[i]
		if out.Term.Kind != TermNone {
			return nil, fmt.Errorf("%s/%s: instruction after terminator", fn, b.Label)
		}
		switch {
		case line.Br != nil:
			term, err := convertBr(line.Br)
			if err != nil {
				return nil, fmt.Errorf("%s/%s: %w", fn, b.Label, err)
			}
			out.Term = term
		case line.Ret != nil:
			term, err := convertRet(line.Ret)
			if err != nil {
				return nil, fmt.Errorf("%s/%s: %w", fn, b.Label, err)
			}
			out.Term = term
		default:
			in, err := convertLine(line)
			if err != nil {
				return nil, fmt.Errorf("%s/%s: %w", fn, b.Label, err)
			}
			out.Instrs = append(out.Instrs, in)
		}
	}
	return out, nil
}

func convertBr(br *virBr) (Terminator, error) {
	if br.Target != nil {
		return Terminator{Kind: TermBr, Br: BrTerm{Target: sigil(*br.Target)}}, nil
	}
	cond, err := convertValue(&br.Cond.Cond, I1)
	if err != nil {
		return Terminator{}, err
	}
	return Terminator{Kind: TermCondBr, CondBr: CondBrTerm{
		Cond: cond,
		Then: sigil(br.Cond.Then),
		Else: sigil(br.Cond.Else),
	}}, nil
}

func convertRet(r *virRet) (Terminator, error) {
	if r.Void {
		return Terminator{Kind: TermRet}, nil
	}
	t, err := convertType(&r.Val.Type)
	if err != nil {
		return Terminator{}, err
	}
	v, err := convertValue(&r.Val.Val, t)
	if err != nil {
		return Terminator{}, err
	}
	return Terminator{Kind: TermRet, Ret: RetTerm{HasValue: true, Value: v}}, nil
}

func convertLine(line *virLine) (Instr, error) {
	switch {
	case line.Store != nil:
		s := line.Store
		t, err := convertType(&s.Type)
		if err != nil {
			return Instr{}, err
		}
		val, err := convertValue(&s.Val, t)
		if err != nil {
			return Instr{}, err
		}
		addr, err := convertValue(&s.Addr, Ptr)
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: OpStore, Type: Void, Args: []Value{val, addr}}, nil
	case line.Call != nil:
		return convertCall(line.Call, "")
	case line.Assign != nil:
		return convertAssign(line.Assign)
	}
	return Instr{}, fmt.Errorf("unrecognized statement")
}

func convertAssign(a *virAssign) (Instr, error) {
	res := sigil(a.Result)
	switch {
	case a.ICmp != nil:
		c := a.ICmp
		pred, ok := PredByName(c.Pred)
		if !ok {
			return Instr{}, fmt.Errorf("unknown icmp predicate %q", c.Pred)
		}
		t, err := convertType(&c.Type)
		if err != nil {
			return Instr{}, err
		}
		lhs, err := convertValue(&c.A, t)
		if err != nil {
			return Instr{}, err
		}
		rhs, err := convertValue(&c.B, t)
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: OpICmp, Result: res, Type: t.Bool(), Pred: pred, Args: []Value{lhs, rhs}}, nil
	case a.Select != nil:
		s := a.Select
		t, err := convertType(&s.Type)
		if err != nil {
			return Instr{}, err
		}
		cond, err := convertValue(&s.Cond, t.Bool())
		if err != nil {
			return Instr{}, err
		}
		x, err := convertValue(&s.A, t)
		if err != nil {
			return Instr{}, err
		}
		y, err := convertValue(&s.B, t)
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: OpSelect, Result: res, Type: t, Args: []Value{cond, x, y}}, nil
	case a.Splat != nil:
		s := a.Splat
		t, err := convertType(&s.Type)
		if err != nil {
			return Instr{}, err
		}
		v, err := convertValue(&s.Val, t.Elem())
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: OpSplat, Result: res, Type: t, Args: []Value{v}}, nil
	case a.Load != nil:
		l := a.Load
		t, err := convertType(&l.Type)
		if err != nil {
			return Instr{}, err
		}
		addr, err := convertValue(&l.Addr, Ptr)
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: OpLoad, Result: res, Type: t, Args: []Value{addr}}, nil
	case a.Call != nil:
		return convertCall(a.Call, res)
	case a.Bitcast != nil:
		b := a.Bitcast
		src, err := convertType(&b.SrcType)
		if err != nil {
			return Instr{}, err
		}
		dst, err := convertType(&b.DstType)
		if err != nil {
			return Instr{}, err
		}
		v, err := convertValue(&b.Val, src)
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: OpBitcast, Result: res, Type: dst, Args: []Value{v}}, nil
	case a.Bin != nil:
		bin := a.Bin
		op, ok := binOpByName[bin.Op]
		if !ok {
			return Instr{}, fmt.Errorf("unknown instruction %q", bin.Op)
		}
		t, err := convertType(&bin.Type)
		if err != nil {
			return Instr{}, err
		}
		lhs, err := convertValue(&bin.A, t)
		if err != nil {
			return Instr{}, err
		}
		rhs, err := convertValue(&bin.B, t)
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: op, Result: res, Type: t, Args: []Value{lhs, rhs}}, nil
	}
	return Instr{}, fmt.Errorf("%%%s: empty assignment", res)
}

func convertCall(c *virCallExpr, result string) (Instr, error) {
	ret, err := convertType(&c.Ret)
	if err != nil {
		return Instr{}, err
	}
	in := Instr{Op: OpCall, Result: result, Type: ret, Callee: sigil(c.Callee)}
	for i := range c.Args {
		t, err := convertType(&c.Args[i].Type)
		if err != nil {
			return Instr{}, err
		}
		v, err := convertValue(&c.Args[i].Val, t)
		if err != nil {
			return Instr{}, err
		}
		in.Args = append(in.Args, v)
	}
	return in, nil
}

// convertValue binds an operand to the type its syntactic position
// implies. Globals are always addresses, so they keep ptr type; the
// verifier reports the mismatch when one is used where a non-pointer
// is expected.
func convertValue(v *virValue, expected Type) (Value, error) {
	switch {
	case v.Reg != nil:
		return RegOf(sigil(*v.Reg), expected), nil
	case v.Global != nil:
		return GlobalOf(sigil(*v.Global)), nil
	case v.Num != nil:
		n, err := parseIntLit(*v.Num)
		if err != nil {
			return Value{}, err
		}
		return ConstOf(expected, n), nil
	case v.Undef:
		return UndefOf(expected), nil
	}
	return Value{}, fmt.Errorf("empty operand")
}

func convertType(t *virType) (Type, error) {
	if t.Vec != nil {
		lanes, err := strconv.Atoi(t.Vec.Lanes)
		if err != nil || lanes <= 0 || lanes > 1<<12 {
			return Type{}, fmt.Errorf("bad vector lane count %q", t.Vec.Lanes)
		}
		elem, ok := ScalarByName(t.Vec.Elem)
		if !ok || elem.IsVoid() {
			return Type{}, fmt.Errorf("bad vector element type %q", t.Vec.Elem)
		}
		return VectorOf(elem, lanes), nil
	}
	ty, ok := ScalarByName(*t.Name)
	if !ok {
		return Type{}, fmt.Errorf("unknown type %q", *t.Name)
	}
	return ty, nil
}

func parseIntLit(s string) (int64, error) {
	neg := strings.HasPrefix(s, "-")
	body := strings.TrimPrefix(s, "-")
	v, err := strconv.ParseUint(body, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("bad integer literal %q", s)
	}
	n := int64(v)
	if neg {
		n = -n
	}
	return n, nil
}

func sigil(tok string) string {
	if len(tok) > 0 && (tok[0] == '%' || tok[0] == '@') {
		return tok[1:]
	}
	return tok
}
