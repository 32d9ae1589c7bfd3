package ir

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

const binaryMagic = "VCIR"

// binarySchemaVersion increments whenever the wire record changes.
const binarySchemaVersion uint16 = 1

// IsBinaryModule reports whether data carries the binary container
// magic. It says nothing about the rest of the bytes.
func IsBinaryModule(data []byte) bool {
	return len(data) >= 4 && string(data[:4]) == binaryMagic
}

// The wire records flatten the pointer spine of Module; Instr, Value,
// Terminator, Param and Type are plain exported-field values and
// travel as-is.

type wireModule struct {
	Triple     string
	DataLayout string
	Globals    []wireGlobal
	Funcs      []wireFunc
}

type wireGlobal struct {
	Name    string
	Type    Type
	Init    int64
	HasInit bool
}

type wireFunc struct {
	Name   string
	Params []Param
	Ret    Type
	Kernel bool
	Attrs  FuncAttrs
	Blocks []wireBlock
}

type wireBlock struct {
	Name   string
	Instrs []Instr
	Term   Terminator
}

// EncodeBinary renders m into the versioned binary container: a 4-byte
// magic, a big-endian u16 schema version, then a msgpack record.
func EncodeBinary(m *Module) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(binaryMagic)
	var ver [2]byte
	binary.BigEndian.PutUint16(ver[:], binarySchemaVersion)
	buf.Write(ver[:])

	w := wireModule{Triple: m.Triple, DataLayout: m.DataLayout}
	for _, g := range m.Globals {
		w.Globals = append(w.Globals, wireGlobal{Name: g.Name, Type: g.Type, Init: g.Init, HasInit: g.HasInit})
	}
	for _, f := range m.Funcs {
		wf := wireFunc{Name: f.Name, Params: f.Params, Ret: f.Ret, Kernel: f.Kernel, Attrs: f.Attrs}
		for _, b := range f.Blocks {
			wf.Blocks = append(wf.Blocks, wireBlock{Name: b.Name, Instrs: b.Instrs, Term: b.Term})
		}
		w.Funcs = append(w.Funcs, wf)
	}
	if err := msgpack.NewEncoder(&buf).Encode(&w); err != nil {
		return nil, fmt.Errorf("encoding module record: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeBinary reads a container produced by EncodeBinary. The result
// is not verified; callers decide when to run Verify.
func DecodeBinary(data []byte) (*Module, error) {
	if len(data) < 6 {
		return nil, fmt.Errorf("truncated container: %d bytes", len(data))
	}
	if string(data[:4]) != binaryMagic {
		return nil, fmt.Errorf("missing %s magic", binaryMagic)
	}
	if ver := binary.BigEndian.Uint16(data[4:6]); ver != binarySchemaVersion {
		return nil, fmt.Errorf("unsupported schema version %d", ver)
	}
	var w wireModule
	if err := msgpack.Unmarshal(data[6:], &w); err != nil {
		return nil, fmt.Errorf("decoding module record: %w", err)
	}

	m := &Module{Triple: w.Triple, DataLayout: w.DataLayout}
	for _, g := range w.Globals {
		gc := Global{Name: g.Name, Type: g.Type, Init: g.Init, HasInit: g.HasInit}
		m.Globals = append(m.Globals, &gc)
	}
	for _, f := range w.Funcs {
		fc := &Func{Name: f.Name, Params: f.Params, Ret: f.Ret, Kernel: f.Kernel, Attrs: f.Attrs}
		for _, b := range f.Blocks {
			bc := Block{Name: b.Name, Instrs: b.Instrs, Term: b.Term}
			fc.Blocks = append(fc.Blocks, &bc)
		}
		m.Funcs = append(m.Funcs, fc)
	}
	return m, nil
}
