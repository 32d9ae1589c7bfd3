package visa

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"fortio.org/safecast"
)

// Container layout, little endian throughout:
//
//	"GISA" magic, u8 major, u8 minor, u16 kernel count, then per
//	kernel: u16 name length + name, u16 simd, u16 grf used, u32
//	spill bytes, u32 scratch bytes, u32 stream length + stream.
//
// Instruction records are variable length. A full record is
//
//	u8 opcode, u8 flags, u8 aux, u8 source count, u16 exec size,
//	i32 target, operands (dst first), then for calls u16 symbol
//	length + symbol.
//
// An operand is u8 kind followed by u32 register or i64 immediate.
// When flags bit 0 is set the record is compact:
//
//	u8 opcode, u8 flags, u8 aux, u8 zero, u16 exec size, u16 dst,
//	u16 src0, u16 src1
//
// with 0xFFFF marking an absent slot. Only branchless register-only
// instructions with small IDs compact.

var isaMagic = [4]byte{'G', 'I', 'S', 'A'}

const (
	flagCompact   = 1 << 0
	compactNull   = 0xFFFF
	compactMaxReg = 0xFFFE
)

// EncodeModule packs finalized kernels into one container. The ISA
// version pair comes from the compilation target.
func EncodeModule(kernels []*Kernel, major, minor uint8) []byte {
	var buf bytes.Buffer
	buf.Write(isaMagic[:])
	buf.WriteByte(major)
	buf.WriteByte(minor)
	putU16(&buf, len(kernels), "kernel count")
	for _, k := range kernels {
		putU16(&buf, len(k.Name), "kernel name length")
		buf.WriteString(k.Name)
		putU16(&buf, k.SIMDWidth, "simd width")
		putU16(&buf, k.GRFUsed, "grf count")
		putU32(&buf, k.SpillBytes, "spill size")
		putU32(&buf, k.ScratchBytes, "scratch size")
		putU32(&buf, len(k.Binary), "stream length")
		buf.Write(k.Binary)
	}
	return buf.Bytes()
}

// encodeInsts renders the instruction stream, preceded by a u32
// count. With compact set, eligible records use the short form.
func encodeInsts(insts []Inst, compact bool) []byte {
	var buf bytes.Buffer
	putU32(&buf, len(insts), "instruction count")
	for i := range insts {
		in := &insts[i]
		if compact && compactable(in) {
			encodeCompact(&buf, in)
			continue
		}
		encodeFull(&buf, in)
	}
	return buf.Bytes()
}

func compactable(in *Inst) bool {
	switch in.Op {
	case OpJmp, OpBrc, OpCall:
		return false
	}
	if len(in.Srcs) > 2 {
		return false
	}
	ops := append([]Operand{in.Dst}, in.Srcs...)
	for _, o := range ops {
		switch o.Kind {
		case OperandNull:
		case OperandReg:
			if o.Reg > compactMaxReg {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func encodeCompact(buf *bytes.Buffer, in *Inst) {
	buf.WriteByte(byte(in.Op))
	buf.WriteByte(flagCompact)
	buf.WriteByte(in.Aux)
	buf.WriteByte(0)
	putRawU16(buf, in.ExecSize)
	slots := [3]uint16{compactNull, compactNull, compactNull}
	fill := func(i int, o Operand) {
		if o.Kind == OperandReg {
			slots[i] = uint16(o.Reg)
		}
	}
	fill(0, in.Dst)
	for i, s := range in.Srcs {
		fill(1+i, s)
	}
	for _, s := range slots {
		putRawU16(buf, s)
	}
}

func encodeFull(buf *bytes.Buffer, in *Inst) {
	buf.WriteByte(byte(in.Op))
	buf.WriteByte(0)
	buf.WriteByte(in.Aux)
	putU8(buf, len(in.Srcs), "source count")
	putRawU16(buf, in.ExecSize)
	var t [4]byte
	binary.LittleEndian.PutUint32(t[:], uint32(int32(in.Target)))
	buf.Write(t[:])
	encodeOperand(buf, in.Dst)
	for _, s := range in.Srcs {
		encodeOperand(buf, s)
	}
	if in.Op == OpCall {
		putU16(buf, len(in.Sym), "call symbol length")
		buf.WriteString(in.Sym)
	}
}

func putRawU16(buf *bytes.Buffer, v uint16) {
	var w [2]byte
	binary.LittleEndian.PutUint16(w[:], v)
	buf.Write(w[:])
}

func encodeOperand(buf *bytes.Buffer, o Operand) {
	buf.WriteByte(byte(o.Kind))
	switch o.Kind {
	case OperandReg:
		var w [4]byte
		binary.LittleEndian.PutUint32(w[:], o.Reg)
		buf.Write(w[:])
	case OperandImm:
		var w [8]byte
		binary.LittleEndian.PutUint64(w[:], uint64(o.Imm))
		buf.Write(w[:])
	}
}

// Header summarizes a container without decoding instruction streams.
type Header struct {
	Major, Minor uint8
	Kernels      []KernelDesc
}

// KernelDesc is one kernel's container entry.
type KernelDesc struct {
	Name         string
	SIMDWidth    int
	GRFUsed      int
	SpillBytes   int
	ScratchBytes int
	StreamSize   int
}

// IsModule reports whether data starts like a kernel container.
func IsModule(data []byte) bool {
	return len(data) >= len(isaMagic) && bytes.Equal(data[:len(isaMagic)], isaMagic[:])
}

// ReadHeader parses the container framing of data.
func ReadHeader(data []byte) (Header, error) {
	var h Header
	r := &reader{data: data}
	var magic [4]byte
	r.bytes(magic[:])
	if r.err == nil && magic != isaMagic {
		return h, fmt.Errorf("missing GISA magic")
	}
	h.Major = r.u8()
	h.Minor = r.u8()
	n := int(r.u16())
	for i := 0; i < n && r.err == nil; i++ {
		var d KernelDesc
		d.Name = string(r.take(int(r.u16())))
		d.SIMDWidth = int(r.u16())
		d.GRFUsed = int(r.u16())
		d.SpillBytes = int(r.u32())
		d.ScratchBytes = int(r.u32())
		d.StreamSize = int(r.u32())
		r.take(d.StreamSize)
		h.Kernels = append(h.Kernels, d)
	}
	if r.err != nil {
		return Header{}, r.err
	}
	return h, nil
}

type reader struct {
	data []byte
	err  error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > len(r.data) {
		r.err = fmt.Errorf("truncated container")
		return nil
	}
	out := r.data[:n]
	r.data = r.data[n:]
	return out
}

func (r *reader) bytes(dst []byte) {
	copy(dst, r.take(len(dst)))
}

func (r *reader) u8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func putU8(buf *bytes.Buffer, v int, what string) {
	c, err := safecast.Conv[uint8](v)
	if err != nil {
		panic(fmt.Errorf("encode %s: %w", what, err))
	}
	buf.WriteByte(c)
}

func putU16(buf *bytes.Buffer, v int, what string) {
	c, err := safecast.Conv[uint16](v)
	if err != nil {
		panic(fmt.Errorf("encode %s: %w", what, err))
	}
	var w [2]byte
	binary.LittleEndian.PutUint16(w[:], c)
	buf.Write(w[:])
}

func putU32(buf *bytes.Buffer, v int, what string) {
	c, err := safecast.Conv[uint32](v)
	if err != nil {
		panic(fmt.Errorf("encode %s: %w", what, err))
	}
	var w [4]byte
	binary.LittleEndian.PutUint32(w[:], c)
	buf.Write(w[:])
}
