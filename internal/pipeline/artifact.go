package pipeline

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"vexc/driver"
	"vexc/visa"
)

const artifactMagic = "VXRI"

// artifactSchemaVersion increments whenever the wire record changes.
const artifactSchemaVersion uint16 = 1

// The wire records flatten RuntimeInfo for loaders that do not link
// against this module. Per-variable debug records travel as a list so
// their insertion order survives the trip.

type runtimeArtifact struct {
	PointerSize int
	Kernels     []runtimeKernel
}

type runtimeKernel struct {
	Name        string
	SIMDWidth   int
	GRFCount    int
	SpillSize   int
	ScratchSize int
	Binary      []byte
	Args        []runtimeArg
	Vars        []runtimeVar
}

type runtimeArg struct {
	Index  int
	Kind   uint8
	Size   int
	Offset int
}

type runtimeVar struct {
	Key       int
	Line      int
	SrcFile   string
	Size      int
	TypeCode  int16
	AddrModel uint8
	Access    uint8
	Spilled   bool
	Uniform   bool
	Const     bool
	Promoted  bool
	Conflicts visa.BankConflicts
}

// encodeRuntimeArtifact renders runtime info into its container: a
// 4-byte magic, a big-endian u16 schema version, then a msgpack
// record.
func encodeRuntimeArtifact(ri *driver.RuntimeInfo) ([]byte, error) {
	rec := runtimeArtifact{PointerSize: ri.PointerSize}
	for _, k := range ri.Kernels {
		rk := runtimeKernel{
			Name:        k.Name,
			SIMDWidth:   k.SIMDWidth,
			GRFCount:    k.GRFCount,
			SpillSize:   k.SpillSize,
			ScratchSize: k.ScratchSize,
			Binary:      k.Binary,
		}
		for _, a := range k.Args {
			rk.Args = append(rk.Args, runtimeArg{
				Index:  a.Index,
				Kind:   uint8(a.Kind),
				Size:   a.Size,
				Offset: a.Offset,
			})
		}
		if k.DebugInfo != nil {
			k.DebugInfo.Range(func(key int, v *visa.VarInfo) bool {
				rk.Vars = append(rk.Vars, runtimeVar{
					Key:       key,
					Line:      v.Line,
					SrcFile:   v.SrcFile,
					Size:      v.Size,
					TypeCode:  v.TypeCode,
					AddrModel: uint8(v.AddrModel),
					Access:    uint8(v.Access),
					Spilled:   v.Spilled,
					Uniform:   v.Uniform,
					Const:     v.Const,
					Promoted:  v.PromotedToGRF,
					Conflicts: v.Conflicts,
				})
				return true
			})
		}
		rec.Kernels = append(rec.Kernels, rk)
	}

	var buf bytes.Buffer
	buf.WriteString(artifactMagic)
	var ver [2]byte
	binary.BigEndian.PutUint16(ver[:], artifactSchemaVersion)
	buf.Write(ver[:])
	if err := msgpack.NewEncoder(&buf).Encode(&rec); err != nil {
		return nil, fmt.Errorf("encoding runtime artifact: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeRuntimeArtifact reads a container written by
// encodeRuntimeArtifact.
func decodeRuntimeArtifact(data []byte) (*runtimeArtifact, error) {
	if len(data) < 6 {
		return nil, fmt.Errorf("truncated runtime artifact: %d bytes", len(data))
	}
	if string(data[:4]) != artifactMagic {
		return nil, fmt.Errorf("missing %s magic", artifactMagic)
	}
	if ver := binary.BigEndian.Uint16(data[4:6]); ver != artifactSchemaVersion {
		return nil, fmt.Errorf("unsupported schema version %d", ver)
	}
	var rec runtimeArtifact
	if err := msgpack.Unmarshal(data[6:], &rec); err != nil {
		return nil, fmt.Errorf("decoding runtime artifact: %w", err)
	}
	return &rec, nil
}
