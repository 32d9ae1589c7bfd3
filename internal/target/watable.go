package target

// WorkaroundTable flags hardware errata the backend compensates for.
// Callers may pass their own table; WorkaroundsFor supplies the stock
// one per CPU.
type WorkaroundTable struct {
	// DisableSendSrcDstOverlap forbids overlapping source and
	// destination ranges on send instructions.
	DisableSendSrcDstOverlap bool
	// DisableMixMode forbids mixed-precision float operands.
	DisableMixMode bool
	// FenceBeforeEOT inserts a global memory fence before thread
	// termination.
	FenceBeforeEOT bool
}

// WorkaroundsFor returns the stock errata table for a CPU name.
func WorkaroundsFor(cpuName string) WorkaroundTable {
	switch cpuName {
	case "Gen8", "Gen9":
		return WorkaroundTable{DisableSendSrcDstOverlap: true, DisableMixMode: true}
	case "Gen11", "XeLP":
		return WorkaroundTable{DisableSendSrcDstOverlap: true}
	case "XeHP", "XeHPG":
		return WorkaroundTable{FenceBeforeEOT: true}
	default:
		return WorkaroundTable{}
	}
}
