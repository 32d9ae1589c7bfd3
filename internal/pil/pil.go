// Package pil reads the portable intermediate language container and
// translates it to the compiler's own module encoding. A container
// wraps an encoded module together with its specialization constant
// slots; translation patches slot values into the module's globals.
package pil

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"vexc/ir"
)

var pilMagic = []byte("PILB")

const pilSchemaVersion uint16 = 1

// Slot declares one specialization constant: the ID callers override
// it by and the value used when they do not. Each slot binds to the
// module global named __pil.spec.<id>.
type Slot struct {
	ID      uint32 `msgpack:"id"`
	Default int64  `msgpack:"default"`
}

type payload struct {
	Slots []Slot `msgpack:"slots"`
	IR    []byte `msgpack:"ir"`
}

// IsContainer reports whether data starts with the container magic.
func IsContainer(data []byte) bool {
	return len(data) >= len(pilMagic) && bytes.Equal(data[:len(pilMagic)], pilMagic)
}

// Encode wraps an encoded module and its slot table into a container.
func Encode(irBytes []byte, slots []Slot) []byte {
	body, err := msgpack.Marshal(payload{Slots: slots, IR: irBytes})
	if err != nil {
		panic(fmt.Errorf("encoding pil payload: %w", err))
	}
	out := make([]byte, 0, len(pilMagic)+2+len(body))
	out = append(out, pilMagic...)
	out = binary.BigEndian.AppendUint16(out, pilSchemaVersion)
	return append(out, body...)
}

func decode(data []byte) (payload, error) {
	var p payload
	if len(data) < len(pilMagic)+2 {
		return p, fmt.Errorf("truncated container")
	}
	if !IsContainer(data) {
		return p, fmt.Errorf("missing PILB magic")
	}
	rest := data[len(pilMagic):]
	if v := binary.BigEndian.Uint16(rest[:2]); v != pilSchemaVersion {
		return p, fmt.Errorf("unsupported schema version %d", v)
	}
	if err := msgpack.Unmarshal(rest[2:], &p); err != nil {
		return p, fmt.Errorf("decoding pil payload: %w", err)
	}
	return p, nil
}

// TranslateToIR unwraps a container and returns the embedded module
// re-encoded with specialization constants resolved. Every declared
// slot receives its default unless (ids, vals) overrides it; override
// IDs that match no slot are ignored. The two override slices must
// pair up, so differing lengths are a caller bug.
func TranslateToIR(data []byte, ids []uint32, vals []uint64) ([]byte, error) {
	if len(ids) != len(vals) {
		panic(fmt.Errorf("specialization constant ids and values differ in length: %d vs %d", len(ids), len(vals)))
	}
	p, err := decode(data)
	if err != nil {
		return nil, err
	}
	m, err := ir.DecodeBinary(p.IR)
	if err != nil {
		return nil, fmt.Errorf("embedded module: %w", err)
	}

	overrides := make(map[uint32]uint64, len(ids))
	for i, id := range ids {
		overrides[id] = vals[i]
	}
	for _, slot := range p.Slots {
		value := slot.Default
		if v, ok := overrides[slot.ID]; ok {
			value = int64(v)
		}
		g := m.Global(specGlobalName(slot.ID))
		if g == nil {
			continue
		}
		g.Init = value
		g.HasInit = true
	}
	return ir.EncodeBinary(m)
}

func specGlobalName(id uint32) string {
	return fmt.Sprintf("__pil.spec.%d", id)
}
