package driver

import (
	"fmt"

	"vexc/internal/pil"
	"vexc/ir"
)

// loadModule decodes input per the declared encoding and verifies the
// result. Specialization constants apply only to container inputs;
// already-lowered modules have none left to specialize.
func loadModule(input []byte, ftype FileType, specIDs []uint32, specVals []uint64) (*ir.Module, error) {
	var (
		m   *ir.Module
		err error
	)
	switch ftype {
	case FilePIL:
		m, err = loadPIL(input, specIDs, specVals)
	case FileIRText:
		m, err = ir.ParseModule(input)
	case FileIRBinary:
		m, err = ir.DecodeBinary(input)
	default:
		panic(fmt.Sprintf("driver: unknown input kind %d", ftype))
	}
	if err != nil {
		return nil, &ParseError{Encoding: ftype, Err: err}
	}
	if err := ir.Verify(m); err != nil {
		return nil, &InvalidModuleError{Err: err}
	}
	return m, nil
}

func loadPIL(input []byte, specIDs []uint32, specVals []uint64) (*ir.Module, error) {
	irBytes, err := pil.TranslateToIR(input, specIDs, specVals)
	if err != nil {
		return nil, err
	}
	return ir.DecodeBinary(irBytes)
}
